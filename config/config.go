// Package config loads the node configuration from command line flags and
// SEALEDTALLY_ prefixed environment variables, and builds the tally keyring.
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"math/big"
	"os"
	"path/filepath"
	"strings"
	"time"

	flag "github.com/spf13/pflag"
	"github.com/spf13/viper"
	"go.vocdoni.io/dvote/db"

	"github.com/vocdoni/sealed-tally/crypto/ecc"
	"github.com/vocdoni/sealed-tally/crypto/ecc/curves"
	"github.com/vocdoni/sealed-tally/crypto/tally"
	"github.com/vocdoni/sealed-tally/log"
	"github.com/vocdoni/sealed-tally/types"
)

const (
	// EnvPrefix is the prefix of the environment variables read by Load.
	EnvPrefix = "SEALEDTALLY"
	// KeysFilename is the file in the data directory where generated tally
	// keys are kept.
	KeysFilename = "tally_keys.json"

	privKeyFlagPrefix = "privkey-"
)

// legacyKeyEnv maps curve types to the environment variables older
// deployments used for their keys.
var legacyKeyEnv = map[string]string{
	curves.CurveTypeEd25519:   "PRIV_KEY",
	curves.CurveTypeSecp256k1: "PRIV_KEY_EC",
}

// Config holds the node configuration.
type Config struct {
	Host          string
	Port          int
	DataDir       string
	DBType        string
	LogLevel      string
	LogOutput     string
	MaxVotes      uint64
	MaxUploadSize int64
	TallyInterval time.Duration
	// PrivKeys are the hex private keys by curve type. Curves without a
	// key get one from the keys file or a fresh one.
	PrivKeys map[string]string
}

// Load parses the arguments and the environment. Flags take precedence over
// environment variables.
func Load(args []string) (*Config, error) {
	flags := flag.NewFlagSet("tallyd", flag.ContinueOnError)
	flags.String("host", "0.0.0.0", "API host to listen on")
	flags.Int("port", 8080, "API port to listen on")
	flags.String("datadir", defaultDataDir(), "data directory")
	flags.String("dbtype", db.TypePebble, "database backend")
	flags.String("log-level", log.LogLevelInfo, "log level (debug, info, warn, error)")
	flags.String("log-output", "stdout", "log output (stdout, stderr or a file path)")
	flags.Uint64("max-votes", types.DefaultMaxVotes, "upper bound of the votes per candidate searched at tally time")
	flags.Int64("max-upload-size", types.MaxMetadataSize, "maximum size in bytes of an uploaded file")
	flags.Duration("tally-interval", 10*time.Second, "period of the scan for closed proposals")
	for _, ct := range curves.Curves() {
		flags.String(privKeyFlagPrefix+ct, "", fmt.Sprintf("hex private key of the %s tally key", ct))
	}
	if err := flags.Parse(args); err != nil {
		return nil, err
	}

	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()
	if err := v.BindPFlags(flags); err != nil {
		return nil, fmt.Errorf("failed to bind flags: %w", err)
	}
	for ct, env := range legacyKeyEnv {
		key := privKeyFlagPrefix + ct
		envName := EnvPrefix + "_" + strings.ToUpper(strings.ReplaceAll(key, "-", "_"))
		if err := v.BindEnv(key, envName, env); err != nil {
			return nil, err
		}
	}

	conf := &Config{
		Host:          v.GetString("host"),
		Port:          v.GetInt("port"),
		DataDir:       v.GetString("datadir"),
		DBType:        v.GetString("dbtype"),
		LogLevel:      log.FormatLevel(v.GetString("log-level")),
		LogOutput:     v.GetString("log-output"),
		MaxVotes:      v.GetUint64("max-votes"),
		MaxUploadSize: v.GetInt64("max-upload-size"),
		TallyInterval: v.GetDuration("tally-interval"),
		PrivKeys:      make(map[string]string),
	}
	for _, ct := range curves.Curves() {
		if k := v.GetString(privKeyFlagPrefix + ct); k != "" {
			conf.PrivKeys[ct] = k
		}
	}
	return conf, conf.Validate()
}

// Validate checks the configuration values.
func (c *Config) Validate() error {
	if c.Port < 0 || c.Port > 65535 {
		return fmt.Errorf("invalid port %d", c.Port)
	}
	if c.DataDir == "" {
		return fmt.Errorf("data directory is required")
	}
	if c.MaxVotes == 0 || c.MaxVotes > types.MaxVotesLimit {
		return fmt.Errorf("invalid max votes %d, must be in [1, %d]", c.MaxVotes, uint64(types.MaxVotesLimit))
	}
	if c.MaxUploadSize <= 0 {
		return fmt.Errorf("invalid max upload size %d", c.MaxUploadSize)
	}
	if c.TallyInterval <= 0 {
		return fmt.Errorf("invalid tally interval %s", c.TallyInterval)
	}
	for ct := range c.PrivKeys {
		if !curves.IsValid(ct) {
			return fmt.Errorf("%w: %s", curves.ErrUnsupportedCurve, ct)
		}
	}
	return nil
}

// Keyring returns a keyring with one key per supported curve. Configured
// keys are used first, then keys saved in the data directory. Missing keys
// are generated and saved so that proposals can be tallied after a restart.
func (c *Config) Keyring() (*tally.Keyring, error) {
	keysFile := filepath.Join(c.DataDir, KeysFilename)
	saved, err := readKeysFile(keysFile)
	if err != nil {
		return nil, err
	}
	kr := tally.NewKeyring()
	generated := false
	for _, ct := range curves.Curves() {
		var key *tally.KeyPair
		switch {
		case c.PrivKeys[ct] != "":
			key, err = tally.KeyFromHex(ct, c.PrivKeys[ct])
		case saved[ct] != "":
			key, err = tally.KeyFromHex(ct, saved[ct])
		default:
			var curve ecc.Point
			if curve, err = curves.New(ct); err == nil {
				key, err = tally.GenerateKey(curve)
			}
			if err == nil {
				saved[ct] = privateHex(key.Private)
				generated = true
				log.Infow("generated tally key", "curve", ct, "publicKey", key.Public.String())
			}
		}
		if err != nil {
			return nil, fmt.Errorf("%s key: %w", ct, err)
		}
		kr.Add(key)
	}
	if generated {
		if err := writeKeysFile(keysFile, saved); err != nil {
			return nil, err
		}
	}
	return kr, nil
}

func privateHex(sk *big.Int) string {
	return fmt.Sprintf("%064x", sk)
}

func readKeysFile(path string) (map[string]string, error) {
	keys := make(map[string]string)
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return keys, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read keys file: %w", err)
	}
	if err := json.Unmarshal(data, &keys); err != nil {
		return nil, fmt.Errorf("failed to decode keys file %s: %w", path, err)
	}
	return keys, nil
}

func writeKeysFile(path string, keys map[string]string) error {
	data, err := json.MarshalIndent(keys, "", "  ")
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return fmt.Errorf("failed to create data directory: %w", err)
	}
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("failed to write keys file: %w", err)
	}
	return nil
}

func defaultDataDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".sealedtally"
	}
	return filepath.Join(home, ".sealedtally")
}
