package main

import (
	"context"
	"fmt"
	"math/rand/v2"
	"sync/atomic"
	"time"

	"github.com/ethereum/go-ethereum/common"
	flag "github.com/spf13/pflag"
	"github.com/vocdoni/arbo/memdb"

	"github.com/vocdoni/sealed-tally/api/client"
	"github.com/vocdoni/sealed-tally/ballotbox"
	"github.com/vocdoni/sealed-tally/crypto/ecc/curves"
	"github.com/vocdoni/sealed-tally/crypto/ethereum"
	"github.com/vocdoni/sealed-tally/crypto/tally"
	"github.com/vocdoni/sealed-tally/log"
	"github.com/vocdoni/sealed-tally/service"
	"github.com/vocdoni/sealed-tally/storage"
	"github.com/vocdoni/sealed-tally/types"
)

func main() {
	nVoters := flag.Int("voters", 50, "number of voters")
	nCandidates := flag.Int("candidates", 3, "number of candidates")
	curveType := flag.String("curve", curves.CurveTypeSecp256k1, "curve of the proposal")
	remote := flag.String("url", "", "API of a running node, an in-process node is started if empty")
	window := flag.Duration("window", time.Minute, "voting window of the proposal on a remote node")
	logLevel := flag.String("log-level", "info", "log level")
	flag.Parse()
	log.Init(log.FormatLevel(*logLevel), "stdout", nil)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// the in-process node has a clock that can jump to the end of the proposal
	var offset atomic.Int64
	url := *remote
	if url == "" {
		url = startNode(ctx, &offset)
	}
	cli, err := client.New(url)
	if err != nil {
		log.Fatal(err)
	}

	start := time.Now()
	organizer := newKeys()
	voters := make([]*ethereum.SignKeys, *nVoters)
	addrs := make([]common.Address, *nVoters)
	for i := range voters {
		voters[i] = newKeys()
		addrs[i] = voters[i].Address()
	}
	metadata := &types.Metadata{Title: types.MultilingualString{"default": "simulation"}}
	for i := 0; i < *nCandidates; i++ {
		metadata.Candidates = append(metadata.Candidates, types.CandidateMetadata{
			Title: types.MultilingualString{"default": fmt.Sprintf("candidate %d", i)},
		})
	}
	cid, err := cli.SetMetadata(metadata)
	if err != nil {
		log.Fatal(err)
	}
	now := time.Now()
	p, err := cli.CreateProposal(&types.ProposalSetup{
		Nonce:       uint64(now.UnixNano()),
		Candidates:  *nCandidates,
		Voters:      addrs,
		CurveType:   *curveType,
		StartTime:   now.Add(-time.Second),
		EndTime:     now.Add(*window),
		MetadataCID: cid,
	}, organizer)
	if err != nil {
		log.Fatal(err)
	}
	log.Infow("proposal created", "id", p.ID.String(), "voters", len(addrs), "elapsed", time.Since(start).String())

	start = time.Now()
	expected := make([]uint64, *nCandidates)
	for i, voter := range voters {
		choice := rand.IntN(*nCandidates)
		proof, err := cli.EligibilityProof(p.ID, addrs[i])
		if err != nil {
			log.Fatal(err)
		}
		v, err := ballotbox.NewVote(p, choice, proof, voter)
		if err != nil {
			log.Fatal(err)
		}
		if _, err := cli.Vote(v); err != nil {
			log.Fatal(err)
		}
		expected[choice]++
	}
	elapsed := time.Since(start)
	log.Infow("votes submitted", "count", len(voters), "elapsed", elapsed.String(),
		"perVote", (elapsed / time.Duration(max(len(voters), 1))).String())

	if *remote == "" {
		offset.Store(int64(time.Until(p.EndTime)))
	} else if wait := time.Until(p.EndTime); wait > 0 {
		log.Infow("waiting for the proposal to close", "wait", wait.String())
		time.Sleep(wait)
	}

	start = time.Now()
	result, err := cli.Tally(p.ID)
	if err != nil {
		log.Fatal(err)
	}
	log.Infow("tally resolved", "results", result.Results, "elapsed", time.Since(start).String())
	for i := range expected {
		if result.Results[i] != expected[i] {
			log.Fatalf("candidate %d: expected %d votes, got %d", i, expected[i], result.Results[i])
		}
	}
	fmt.Printf("results: %v\n", result.Results)
}

func newKeys() *ethereum.SignKeys {
	k := ethereum.NewSignKeys()
	if err := k.Generate(); err != nil {
		log.Fatal(err)
	}
	return k
}

// startNode runs a node on memory storage and returns its URL.
func startNode(ctx context.Context, offset *atomic.Int64) string {
	keys := tally.NewKeyring()
	for _, ct := range curves.Curves() {
		curve, err := curves.New(ct)
		if err != nil {
			log.Fatal(err)
		}
		key, err := tally.GenerateKey(curve)
		if err != nil {
			log.Fatal(err)
		}
		keys.Add(key)
	}
	stg := storage.New(memdb.New())
	bb := ballotbox.New(stg, keys, 0)
	bb.SetClock(func() time.Time { return time.Now().Add(time.Duration(offset.Load())) })

	srv := service.NewAPI(stg, bb, keys, "127.0.0.1", 0)
	if err := srv.Start(ctx); err != nil {
		log.Fatal(err)
	}
	host, port := srv.HostPort()
	return fmt.Sprintf("http://%s:%d", host, port)
}
