package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/vocdoni/sealed-tally/ballotbox"
	"github.com/vocdoni/sealed-tally/crypto/tally"
	"github.com/vocdoni/sealed-tally/log"
	"github.com/vocdoni/sealed-tally/storage"
	"github.com/vocdoni/sealed-tally/types"
)

// DefaultTallyInterval is the period between two scans of the proposals.
const DefaultTallyInterval = 10 * time.Second

// TallyMonitor represents a service that watches the registered proposals
// and resolves the tally of each one as soon as it closes.
type TallyMonitor struct {
	bb       *ballotbox.BallotBox
	storage  *storage.Storage
	interval time.Duration
	mu       sync.Mutex
	cancel   context.CancelFunc
	done     chan struct{}

	tallyFn func(types.HexBytes) (*types.TallyResult, error)
	// unresolved maps a proposal id to the aggregate version whose tally
	// could not be resolved. Those proposals are skipped until the
	// aggregate changes.
	unresolved map[string]uint64
}

// NewTallyMonitor creates a new TallyMonitor service over the proposals of
// the ballot box.
func NewTallyMonitor(bb *ballotbox.BallotBox, interval time.Duration) *TallyMonitor {
	if interval <= 0 {
		interval = DefaultTallyInterval
	}
	return &TallyMonitor{
		bb:         bb,
		storage:    bb.Storage(),
		interval:   interval,
		tallyFn:    bb.Tally,
		unresolved: make(map[string]uint64),
	}
}

// Start begins monitoring the proposals. It returns an error if the service
// is already running.
func (tm *TallyMonitor) Start(ctx context.Context) error {
	tm.mu.Lock()
	defer tm.mu.Unlock()

	if tm.cancel != nil {
		return fmt.Errorf("service already running")
	}

	ctx, tm.cancel = context.WithCancel(ctx)
	tm.done = make(chan struct{})
	go tm.monitorProposals(ctx, tm.done)
	return nil
}

// Stop halts the monitoring service and waits for the running scan to end.
func (tm *TallyMonitor) Stop() {
	tm.mu.Lock()
	defer tm.mu.Unlock()

	if tm.cancel != nil {
		tm.cancel()
		<-tm.done
		tm.cancel = nil
	}
}

func (tm *TallyMonitor) monitorProposals(ctx context.Context, done chan struct{}) {
	defer close(done)
	ticker := time.NewTicker(tm.interval)
	defer ticker.Stop()
	for {
		tm.scan(ctx)
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

// scan resolves every closed proposal without a stored tally. It returns
// the number of tallies resolved.
func (tm *TallyMonitor) scan(ctx context.Context) int {
	ids, err := tm.storage.ListProposals()
	if err != nil {
		log.Warnw("failed to list proposals", "error", err)
		return 0
	}
	resolved := 0
	for _, id := range ids {
		if ctx.Err() != nil {
			return resolved
		}
		if _, err := tm.storage.TallyResult(id); err == nil {
			continue
		}
		if tm.resolve(id) {
			resolved++
		}
	}
	return resolved
}

func (tm *TallyMonitor) resolve(id types.HexBytes) bool {
	p, err := tm.bb.Proposal(id)
	if err != nil {
		log.Warnw("failed to load proposal", "proposalID", id.String(), "error", err)
		return false
	}
	if p.Status(tm.bb.Now()) != types.ProposalClosed {
		return false
	}
	agg, err := tm.bb.Aggregate(id)
	if err != nil {
		log.Warnw("failed to load aggregate", "proposalID", id.String(), "error", err)
		return false
	}
	if version, ok := tm.unresolved[id.Hex()]; ok && version == agg.Version {
		return false
	}
	result, err := tm.tallyFn(id)
	if err != nil {
		switch {
		case errors.Is(err, tally.ErrUnresolvedTally):
			tm.unresolved[id.Hex()] = agg.Version
			log.Errorw(err, fmt.Sprintf("tally of proposal %s unresolved at version %d, not retrying", id.String(), agg.Version))
		case !errors.Is(err, ballotbox.ErrProposalNotClosed):
			log.Warnw("failed to resolve tally", "proposalID", id.String(), "error", err)
		}
		return false
	}
	delete(tm.unresolved, id.Hex())
	log.Infow("tally resolved", "proposalID", id.String(), "version", result.Version, "results", result.Results)
	return true
}
