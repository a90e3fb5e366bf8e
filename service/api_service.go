package service

import (
	"context"
	"fmt"
	"net"
	"sync"
	"time"

	"github.com/vocdoni/sealed-tally/api"
	"github.com/vocdoni/sealed-tally/ballotbox"
	"github.com/vocdoni/sealed-tally/crypto/tally"
	"github.com/vocdoni/sealed-tally/log"
	"github.com/vocdoni/sealed-tally/storage"
)

const shutdownTimeout = 5 * time.Second

// APIService represents a service that manages the HTTP API server.
type APIService struct {
	storage       *storage.Storage
	bb            *ballotbox.BallotBox
	keys          *tally.Keyring
	api           *api.API
	mu            sync.Mutex
	cancel        context.CancelFunc
	done          chan struct{}
	host          string
	port          int
	maxUploadSize int64
}

// NewAPI creates a new APIService instance. The storage is owned by the
// caller and is not closed when the service stops.
func NewAPI(stg *storage.Storage, bb *ballotbox.BallotBox, keys *tally.Keyring, host string, port int) *APIService {
	return &APIService{
		storage: stg,
		bb:      bb,
		keys:    keys,
		host:    host,
		port:    port,
	}
}

// SetMaxUploadSize sets the size limit of the files uploaded to the blob
// store. It applies on the next Start.
func (as *APIService) SetMaxUploadSize(size int64) {
	as.mu.Lock()
	defer as.mu.Unlock()
	as.maxUploadSize = size
}

// Start begins the API server. It returns an error if the service
// is already running or if it fails to start.
func (as *APIService) Start(ctx context.Context) error {
	as.mu.Lock()
	defer as.mu.Unlock()

	if as.cancel != nil {
		return fmt.Errorf("service already running")
	}

	var err error
	as.api, err = api.New(&api.APIConfig{
		Host:          as.host,
		Port:          as.port,
		Storage:       as.storage,
		BallotBox:     as.bb,
		Keys:          as.keys,
		MaxUploadSize: as.maxUploadSize,
	})
	if err != nil {
		return fmt.Errorf("failed to create API server: %w", err)
	}
	if err := as.api.Start(); err != nil {
		return fmt.Errorf("failed to start API server: %w", err)
	}

	ctx, as.cancel = context.WithCancel(ctx)
	as.done = make(chan struct{})
	srv, done := as.api, as.done
	go func() {
		defer close(done)
		<-ctx.Done()
		sctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := srv.Close(sctx); err != nil {
			log.Warnw("failed to shutdown API server", "error", err)
		}
	}()
	return nil
}

// Stop halts the API server and waits for the shutdown to complete.
func (as *APIService) Stop() {
	as.mu.Lock()
	defer as.mu.Unlock()

	if as.cancel == nil {
		return
	}
	as.cancel()
	<-as.done
	as.cancel = nil
}

// HostPort returns the host and port of the API server. Once started, the
// port is the one actually bound, which differs from the configured one
// when that was 0.
func (as *APIService) HostPort() (string, int) {
	as.mu.Lock()
	defer as.mu.Unlock()
	if as.api != nil && as.cancel != nil {
		if addr, ok := as.api.Addr().(*net.TCPAddr); ok {
			return as.host, addr.Port
		}
	}
	return as.host, as.port
}
