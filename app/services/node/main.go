package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/ardanlabs/conf/v3"
	"github.com/hashledger/ledger/app/services/node/handlers"
	"github.com/hashledger/ledger/business/web/metrics"
	"github.com/hashledger/ledger/foundation/blockchain/chain"
	"github.com/hashledger/ledger/foundation/blockchain/signature"
	"github.com/hashledger/ledger/foundation/events"
	"github.com/hashledger/ledger/foundation/logger"
	"github.com/hashledger/ledger/foundation/nameservice"
	"go.uber.org/zap"
)

// build is the git version of this program. It is set using build flags in the makefile.
var build = "develop"

func main() {

	// Construct the application logger.
	log, err := logger.New("NODE")
	if err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
	defer log.Sync()

	// Perform the startup and shutdown sequence.
	if err := run(log); err != nil {
		log.Errorw("startup", "ERROR", err)
		log.Sync()
		os.Exit(1)
	}
}

func run(log *zap.SugaredLogger) error {

	// =========================================================================
	// Configuration

	// This is all the configuration for the application and the default values.
	// Configuration values will be passed through the application as individual
	// values.
	cfg := struct {
		conf.Version
		Web struct {
			ReadTimeout     time.Duration `conf:"default:5s"`
			WriteTimeout    time.Duration `conf:"default:10s"`
			IdleTimeout     time.Duration `conf:"default:120s"`
			ShutdownTimeout time.Duration `conf:"default:20s"`
			DebugHost       string        `conf:"default:0.0.0.0:7080"`
			PublicHost      string        `conf:"default:0.0.0.0:8080"`
		}
		Chain struct {
			EnableMerkle  bool   `conf:"default:true"`
			EnableSigning bool   `conf:"default:true"`
			KeyPath       string `conf:"default:zblock/accounts/node.ecdsa"`
		}
	}{
		Version: conf.Version{
			Build: build,
			Desc:  "append-only hash linked ledger node",
		},
	}

	// Parse will set the defaults and then look for any overriding values
	// in environment variables and command line flags.
	const prefix = "NODE"
	help, err := conf.Parse(prefix, &cfg)
	if err != nil {
		if errors.Is(err, conf.ErrHelpWanted) {
			fmt.Println(help)
			return nil
		}
		return fmt.Errorf("parsing config: %w", err)
	}

	// =========================================================================
	// App Starting

	log.Infow("starting service", "version", build)
	defer log.Infow("shutdown complete")

	// Display the current configuration to the logs.
	out, err := conf.String(&cfg)
	if err != nil {
		return fmt.Errorf("generating config for output: %w", err)
	}
	log.Infow("startup", "config", out)

	// =========================================================================
	// Blockchain Support

	// The signer is only constructed when signing is enabled. A malformed key
	// file is fatal, the node never runs with signing silently disabled.
	var signer *signature.Signer
	if cfg.Chain.EnableSigning {
		signer, err = loadSigner(cfg.Chain.KeyPath)
		if err != nil {
			return fmt.Errorf("unable to load private key for node: %w", err)
		}
		log.Infow("startup", "status", "signer loaded", "address", signer.Address())
	}

	// The keys stored alongside the node's key give names to the addresses
	// reported by the signer and accounts endpoints.
	ns, err := nameservice.New(filepath.Dir(cfg.Chain.KeyPath))
	if err != nil {
		return fmt.Errorf("unable to load account name service: %w", err)
	}

	for _, account := range ns.Accounts() {
		log.Infow("startup", "status", "nameservice", "name", account.Name, "address", account.Address)
	}

	// The chain packages accept a function of this signature to allow the
	// application to log.
	ev := func(v string, args ...any) {
		log.Infow(fmt.Sprintf(v, args...), "traceid", "00000000-0000-0000-0000-000000000000")
	}

	ch, err := chain.New(chain.Config{
		EnableMerkle:  cfg.Chain.EnableMerkle,
		EnableSigning: cfg.Chain.EnableSigning,
		Signer:        signer,
		EvHandler:     ev,
	})
	if err != nil {
		return fmt.Errorf("constructing chain: %w", err)
	}

	// Appended blocks are streamed to any websocket client connected
	// through the events endpoint.
	evts := events.New[chain.BlockData]()

	mtrcs := metrics.New(ch)

	// =========================================================================
	// Start Debug Service

	log.Infow("startup", "status", "debug router started", "host", cfg.Web.DebugHost)

	// Construct the mux for the debug calls.
	debugMux := handlers.DebugMux(build, log, ch, mtrcs)

	// Start the service listening for debug requests.
	// Not concerned with shutting this down with load shedding.
	go func() {
		if err := http.ListenAndServe(cfg.Web.DebugHost, debugMux); err != nil {
			log.Errorw("shutdown", "status", "debug router closed", "host", cfg.Web.DebugHost, "ERROR", err)
		}
	}()

	// =========================================================================
	// Service Start/Stop Support

	// Make a channel to listen for an interrupt or terminate signal from the OS.
	// Use a buffered channel because the signal package requires it.
	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, syscall.SIGINT, syscall.SIGTERM)

	// Make a channel to listen for errors coming from the listener. Use a
	// buffered channel so the goroutine can exit if we don't collect this error.
	serverErrors := make(chan error, 1)

	// =========================================================================
	// Start Public Service

	log.Infow("startup", "status", "initializing V1 public API support")

	// Construct the mux for the public API calls.
	publicMux := handlers.PublicMux(handlers.MuxConfig{
		Shutdown: shutdown,
		Log:      log,
		Chain:    ch,
		Signer:   signer,
		Metrics:  mtrcs,
		Evts:     evts,
		NS:       ns,
	})

	// Construct a server to service the requests against the mux.
	public := http.Server{
		Addr:         cfg.Web.PublicHost,
		Handler:      publicMux,
		ReadTimeout:  cfg.Web.ReadTimeout,
		WriteTimeout: cfg.Web.WriteTimeout,
		IdleTimeout:  cfg.Web.IdleTimeout,
		ErrorLog:     zap.NewStdLog(log.Desugar()),
	}

	// Start the service listening for api requests.
	go func() {
		log.Infow("startup", "status", "public api router started", "host", public.Addr)
		serverErrors <- public.ListenAndServe()
	}()

	// =========================================================================
	// Shutdown

	// Blocking main and waiting for shutdown.
	select {
	case err := <-serverErrors:
		return fmt.Errorf("server error: %w", err)

	case sig := <-shutdown:
		log.Infow("shutdown", "status", "shutdown started", "signal", sig)
		defer log.Infow("shutdown", "status", "shutdown complete", "signal", sig)

		// Release any web sockets that are currently active.
		log.Infow("shutdown", "status", "shutdown web socket channels")
		evts.Shutdown()

		// Give outstanding requests a deadline for completion.
		ctx, cancel := context.WithTimeout(context.Background(), cfg.Web.ShutdownTimeout)
		defer cancel()

		// Asking listener to shut down and shed load.
		log.Infow("shutdown", "status", "shutdown public API started")
		if err := public.Shutdown(ctx); err != nil {
			public.Close()
			return fmt.Errorf("could not stop public service gracefully: %w", err)
		}
	}

	return nil
}

// loadSigner reads the node's private key. When the key file doesn't exist
// a new key is generated and saved so later runs sign with the same key.
func loadSigner(path string) (*signature.Signer, error) {
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		signer, err := signature.GenerateSigner()
		if err != nil {
			return nil, err
		}

		if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
			return nil, fmt.Errorf("creating key folder: %w", err)
		}

		if err := signer.Save(path); err != nil {
			return nil, fmt.Errorf("saving generated key: %w", err)
		}

		return signer, nil
	}

	return signature.LoadSigner(path)
}
