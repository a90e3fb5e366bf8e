package api

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/vocdoni/sealed-tally/ballotbox"
	"github.com/vocdoni/sealed-tally/crypto/tally"
	"github.com/vocdoni/sealed-tally/log"
	stg "github.com/vocdoni/sealed-tally/storage"
)

// APIConfig type represents the configuration for the API HTTP server.
type APIConfig struct {
	Host      string
	Port      int
	Storage   *stg.Storage
	BallotBox *ballotbox.BallotBox
	// Keys holds the tally authority keys used by the decrypt endpoints.
	Keys *tally.Keyring
	// MaxUploadSize bounds the size of the files accepted by the storage
	// upload endpoint.
	MaxUploadSize int64
}

// API type represents the API HTTP server.
type API struct {
	router        *chi.Mux
	server        *http.Server
	listener      net.Listener
	storage       *stg.Storage
	bb            *ballotbox.BallotBox
	keys          *tally.Keyring
	maxUploadSize int64
}

// New creates a new API instance with the given configuration. The HTTP
// server is not started, use Start for that.
func New(conf *APIConfig) (*API, error) {
	if conf == nil {
		return nil, fmt.Errorf("missing API configuration")
	}
	if conf.Storage == nil {
		return nil, fmt.Errorf("missing storage instance")
	}
	if conf.BallotBox == nil {
		return nil, fmt.Errorf("missing ballot box instance")
	}
	a := &API{
		storage:       conf.Storage,
		bb:            conf.BallotBox,
		keys:          conf.Keys,
		maxUploadSize: conf.MaxUploadSize,
	}
	if a.keys == nil {
		a.keys = tally.NewKeyring()
	}
	if a.maxUploadSize <= 0 {
		a.maxUploadSize = defaultMaxUploadSize
	}

	// Initialize router
	a.initRouter()
	a.server = &http.Server{
		Addr:              fmt.Sprintf("%s:%d", conf.Host, conf.Port),
		Handler:           a.router,
		ReadHeaderTimeout: 10 * time.Second,
	}
	return a, nil
}

// Start listens on the configured address and serves the API in the
// background.
func (a *API) Start() error {
	ln, err := net.Listen("tcp", a.server.Addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", a.server.Addr, err)
	}
	a.listener = ln
	log.Infow("starting API server", "addr", ln.Addr().String())
	go func() {
		if err := a.server.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Errorw(err, "API server stopped")
		}
	}()
	return nil
}

// Addr returns the address the server listens on, or nil if not started.
func (a *API) Addr() net.Addr {
	if a.listener == nil {
		return nil
	}
	return a.listener.Addr()
}

// Close gracefully shuts down the HTTP server.
func (a *API) Close(ctx context.Context) error {
	return a.server.Shutdown(ctx)
}

// Router returns the chi router for testing purposes
func (a *API) Router() *chi.Mux {
	return a.router
}

// registerHandlers registers all the API handlers.
func (a *API) registerHandlers() {
	log.Infow("register handler", "endpoint", PingEndpoint, "method", "GET")
	a.router.Get(PingEndpoint, func(w http.ResponseWriter, r *http.Request) {
		httpWriteOK(w)
	})

	// tally authority
	log.Infow("register handler", "endpoint", DecryptEndpoint, "method", "POST")
	a.router.Post(DecryptEndpoint, a.decrypt)
	log.Infow("register handler", "endpoint", LegacyDecryptEndpoint, "method", "POST")
	a.router.Post(LegacyDecryptEndpoint, a.decryptWithCurve(legacyDecryptCurve))
	log.Infow("register handler", "endpoint", LegacyDecryptEVMEndpoint, "method", "POST")
	a.router.Post(LegacyDecryptEVMEndpoint, a.decryptWithCurve(legacyDecryptEVMCurve))
	log.Infow("register handler", "endpoint", EncryptionKeysEndpoint, "method", "GET")
	a.router.Get(EncryptionKeysEndpoint, a.encryptionKeys)

	// proposals
	log.Infow("register handler", "endpoint", ProposalsEndpoint, "method", "POST")
	a.router.Post(ProposalsEndpoint, a.newProposal)
	log.Infow("register handler", "endpoint", ProposalsEndpoint, "method", "GET")
	a.router.Get(ProposalsEndpoint, a.proposals)
	log.Infow("register handler", "endpoint", ProposalEndpoint, "method", "GET")
	a.router.Get(ProposalEndpoint, a.proposal)
	log.Infow("register handler", "endpoint", ProposalProofEndpoint, "method", "GET")
	a.router.Get(ProposalProofEndpoint, a.eligibilityProof)
	log.Infow("register handler", "endpoint", ProposalTallyEndpoint, "method", "GET")
	a.router.Get(ProposalTallyEndpoint, a.tally)
	log.Infow("register handler", "endpoint", ProposalReceiptEndpoint, "method", "GET")
	a.router.Get(ProposalReceiptEndpoint, a.receipt)

	// votes
	log.Infow("register handler", "endpoint", VotesEndpoint, "method", "POST")
	a.router.Post(VotesEndpoint, a.newVote)

	// metadata storage
	log.Infow("register handler", "endpoint", StorageUploadEndpoint, "method", "POST")
	a.router.Post(StorageUploadEndpoint, a.upload)
	log.Infow("register handler", "endpoint", StorageFileEndpoint, "method", "GET")
	a.router.Get(StorageFileEndpoint, a.file)
}

// initRouter creates the router with all the routes and middleware.
func (a *API) initRouter() {
	// Create the router with a basic middleware stack
	a.router = chi.NewRouter()
	a.router.Use(cors.New(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-CSRF-Token"},
		AllowCredentials: true,
		MaxAge:           300, // Maximum value not ignored by any of major browsers
	}).Handler)
	a.router.Use(middleware.Logger)
	a.router.Use(middleware.Recoverer)
	a.router.Use(middleware.Throttle(100))
	a.router.Use(middleware.ThrottleBacklog(5000, 40000, 60*time.Second))
	a.router.Use(middleware.Timeout(45 * time.Second))

	// Register the API handlers
	a.registerHandlers()
}
