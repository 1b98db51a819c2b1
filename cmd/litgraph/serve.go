package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/alfredjeanlab/litgraph/internal/catalog"
	"github.com/alfredjeanlab/litgraph/internal/config"
	"github.com/alfredjeanlab/litgraph/internal/events"
	"github.com/alfredjeanlab/litgraph/internal/presence"
	"github.com/alfredjeanlab/litgraph/internal/server"
	"github.com/alfredjeanlab/litgraph/internal/store/postgres"
	litsync "github.com/alfredjeanlab/litgraph/internal/sync"
)

const shutdownTimeout = 10 * time.Second

// teardown runs registered shutdown steps in reverse order.
type teardown struct {
	logger *slog.Logger
	steps  []teardownStep
}

type teardownStep struct {
	name string
	fn   func() error
}

func (t *teardown) add(name string, fn func() error) {
	t.steps = append(t.steps, teardownStep{name, fn})
}

func (t *teardown) run() {
	for i := len(t.steps) - 1; i >= 0; i-- {
		step := t.steps[i]
		if err := step.fn(); err != nil {
			t.logger.Error("shutdown step failed", "step", step.name, "err", err)
			continue
		}
		t.logger.Debug("stopped", "step", step.name)
	}
}

var serveCmd = &cobra.Command{
	Use:     "serve",
	Short:   "Start the litgraph HTTP and gRPC servers",
	GroupID: "system",
	Args:    cobra.NoArgs,
	// The server has no client connection of its own.
	PersistentPreRunE: skipClient,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load()
		if err != nil {
			return err
		}
		logger := cfg.NewLogger(os.Stderr)
		slog.SetDefault(logger)

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		down := &teardown{logger: logger}
		defer down.run()

		store, err := postgres.New(cfg.DatabaseURL)
		if err != nil {
			return err
		}
		down.add("store", store.Close)

		publisher := newServerPublisher(cfg, logger)
		down.add("publisher", publisher.Close)

		srv := server.NewLitServer(store, catalog.New(cfg.PerPage), publisher)
		srv.SetSummaryBounds(cfg.SummaryMinWords, cfg.SummaryMaxWords)
		if err := srv.Reload(ctx); err != nil {
			return err
		}
		logger.Info("catalogue loaded", "articles", srv.Catalog().Len())

		followPresence(ctx, cfg, srv, down, logger)

		grpcLis, err := net.Listen("tcp", cfg.GRPCAddr)
		if err != nil {
			return fmt.Errorf("listen gRPC %s: %w", cfg.GRPCAddr, err)
		}
		httpLis, err := net.Listen("tcp", cfg.HTTPAddr)
		if err != nil {
			grpcLis.Close()
			return fmt.Errorf("listen HTTP %s: %w", cfg.HTTPAddr, err)
		}

		grpcServer := server.NewGRPCServer(srv, cfg.AuthToken)
		httpServer := &http.Server{
			Handler:           srv.NewHTTPHandler(cfg.AuthToken),
			ReadHeaderTimeout: 10 * time.Second,
		}
		serveErr := make(chan error, 2)
		go func() { serveErr <- grpcServer.Serve(grpcLis) }()
		go func() {
			if err := httpServer.Serve(httpLis); !errors.Is(err, http.ErrServerClosed) {
				serveErr <- err
			}
		}()
		down.add("grpc", func() error {
			grpcServer.GracefulStop()
			return nil
		})
		down.add("http", func() error {
			sctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
			defer cancel()
			return httpServer.Shutdown(sctx)
		})

		if sched := newSyncScheduler(cfg, srv, publisher, logger); sched != nil {
			sched.Start()
			down.add("sync", func() error {
				sched.Stop()
				return nil
			})
			logger.Info("sync scheduler started", "interval", cfg.SyncInterval)
		}

		logger.Info("litgraph serving", "grpc_addr", grpcLis.Addr().String(), "http_addr", httpLis.Addr().String())

		select {
		case <-ctx.Done():
			logger.Info("shutting down")
			return nil
		case err := <-serveErr:
			return fmt.Errorf("server stopped: %w", err)
		}
	},
}

// newServerPublisher returns a NATS publisher, or a noop one when no URL is
// configured or the connection fails.
func newServerPublisher(cfg *config.Config, logger *slog.Logger) events.Publisher {
	if cfg.NATSURL == "" {
		logger.Info("events disabled (LITGRAPH_NATS_URL not set)")
		return &events.NoopPublisher{}
	}
	pub, err := events.NewNATSPublisher(cfg.NATSURL)
	if err != nil {
		logger.Error("events disabled", "err", err)
		return &events.NoopPublisher{}
	}
	logger.Info("events enabled", "nats_url", cfg.NATSURL)
	return pub
}

// followPresence subscribes the session roster to explorer activity and
// starts the idle reaper. Without NATS the roster stays empty.
func followPresence(ctx context.Context, cfg *config.Config, srv *server.LitServer, down *teardown, logger *slog.Logger) {
	if cfg.NATSURL != "" {
		sub, err := events.NewNATSSubscriber(cfg.NATSURL)
		switch {
		case err != nil:
			logger.Error("presence subscriber", "err", err)
		default:
			down.add("presence subscriber", sub.Close)
			if err := srv.Presence.Follow(ctx, sub); err != nil {
				logger.Error("presence follow", "err", err)
			}
		}
	}
	srv.Presence.StartReaper(&presence.ReaperConfig{
		IdleThreshold: cfg.SessionIdle,
		EvictAfter:    2 * cfg.SessionIdle,
		OnIdle: func(id string) {
			logger.Info("explorer session idle", "session", id)
		},
		OnSweep: srv.Metrics.SetSessions,
	})
	down.add("presence", func() error {
		srv.Presence.Stop()
		return nil
	})
}

// newSyncScheduler builds the export scheduler from the configured
// destinations. It returns nil when sync is disabled or nothing is set up.
func newSyncScheduler(cfg *config.Config, s *server.LitServer, pub events.Publisher, logger *slog.Logger) *litsync.Scheduler {
	if cfg.SyncInterval <= 0 {
		return nil
	}
	var dests []litsync.Destination
	if cfg.SyncS3Bucket != "" {
		d, err := litsync.NewS3Destination(context.Background(), cfg.SyncS3Bucket, cfg.SyncS3Key, cfg.SyncS3Region, cfg.SyncS3Endpoint)
		if err != nil {
			logger.Error("S3 sync destination", "err", err)
		} else {
			dests = append(dests, d)
			logger.Info("sync to S3", "bucket", cfg.SyncS3Bucket, "key", cfg.SyncS3Key)
		}
	}
	if cfg.SyncGitRepo != "" {
		dests = append(dests, litsync.NewGitDestination(cfg.SyncGitRepo, cfg.SyncGitFile, cfg.SyncGitBranch))
		logger.Info("sync to git", "repo", cfg.SyncGitRepo, "file", cfg.SyncGitFile)
	}
	if len(dests) == 0 {
		return nil
	}
	sched := litsync.NewScheduler(s.Store(), dests, cfg.SyncInterval, logger)
	sched.Metrics = s.Metrics
	sched.Publisher = pub
	return sched
}
