package main

import (
	"context"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"go.vocdoni.io/dvote/db/metadb"

	"github.com/vocdoni/sealed-tally/ballotbox"
	"github.com/vocdoni/sealed-tally/config"
	"github.com/vocdoni/sealed-tally/log"
	"github.com/vocdoni/sealed-tally/service"
	"github.com/vocdoni/sealed-tally/storage"
)

func main() {
	conf, err := config.Load(os.Args[1:])
	if err != nil {
		log.Fatal(err)
	}
	log.Init(conf.LogLevel, conf.LogOutput, nil)

	keys, err := conf.Keyring()
	if err != nil {
		log.Fatal(err)
	}
	for _, ct := range keys.Curves() {
		k, _ := keys.Key(ct)
		log.Infow("tally key loaded", "curve", ct, "publicKey", k.Public.String())
	}

	database, err := metadb.New(conf.DBType, filepath.Join(conf.DataDir, "db"))
	if err != nil {
		log.Fatal(err)
	}
	stg := storage.New(database)
	defer stg.Close()
	stg.SetMaxBlobSize(int(conf.MaxUploadSize))

	bb := ballotbox.New(stg, keys, conf.MaxVotes)

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	monitor := service.NewTallyMonitor(bb, conf.TallyInterval)
	if err := monitor.Start(ctx); err != nil {
		log.Fatal(err)
	}
	defer monitor.Stop()

	api := service.NewAPI(stg, bb, keys, conf.Host, conf.Port)
	api.SetMaxUploadSize(conf.MaxUploadSize)
	if err := api.Start(ctx); err != nil {
		log.Fatal(err)
	}
	defer api.Stop()

	<-ctx.Done()
	log.Info("shutting down")
}
