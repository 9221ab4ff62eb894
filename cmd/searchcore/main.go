package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/meridianhq/searchcore/internal/capture"
	"github.com/meridianhq/searchcore/internal/config"
	dbRedis "github.com/meridianhq/searchcore/internal/db/redis"
	"github.com/meridianhq/searchcore/internal/domain/module"
	logpkg "github.com/meridianhq/searchcore/internal/logger"
	"github.com/meridianhq/searchcore/internal/mapper"
	"github.com/meridianhq/searchcore/internal/metrics"
	"github.com/meridianhq/searchcore/internal/permission"
	documentrepo "github.com/meridianhq/searchcore/internal/repository/document"
	queuerepo "github.com/meridianhq/searchcore/internal/repository/queue"
	searchrepo "github.com/meridianhq/searchcore/internal/repository/search"
	"github.com/meridianhq/searchcore/internal/repository/upstream"
	"github.com/meridianhq/searchcore/internal/search/query"
	chiTransport "github.com/meridianhq/searchcore/internal/transport/chi"
	indexinguc "github.com/meridianhq/searchcore/internal/usecase/indexing"
	searchuc "github.com/meridianhq/searchcore/internal/usecase/search"
	"github.com/meridianhq/searchcore/internal/version"
	"github.com/meridianhq/searchcore/internal/worker"
)

func main() {
	reindex := flag.Bool("reindex", false,
		"drop and recreate the search index on startup (documents are re-scanned)")
	flag.Parse()

	// Load configuration based on ENV
	env := config.GetEnv()

	cfg, err := config.Load(env)
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	logger, err := logpkg.NewLogger(env, cfg.Logging.Level)
	if err != nil {
		panic("failed to create logger: " + err.Error())
	}
	defer func() { _ = logger.Sync() }()

	logger.Info("Starting searchcore",
		zap.String("build", version.String()),
		zap.String("env", env),
		zap.Int("http_port", cfg.HTTP.Port),
		zap.Strings("db_addrs", cfg.Database.Addrs),
		zap.Int("workers", cfg.Queue.Workers),
	)

	store, err := dbRedis.NewStore(dbRedis.Config{
		Addrs:    cfg.Database.Addrs,
		Password: cfg.Database.Password,
	})
	if err != nil {
		logger.Fatal("Failed to create database store", zap.Error(err))
	}
	defer store.Close()

	ctx := context.Background()
	if err := store.WaitForReady(ctx, time.Duration(cfg.Database.ReadinessTimeout)*time.Second); err != nil {
		logger.Fatal("Database not ready", zap.Error(err))
	}
	logger.Info("Connected to database")

	if *reindex {
		logger.Info("Rebuilding search index")
		if err := documentrepo.RebuildIndex(ctx, store, cfg.Index.KeyPrefix); err != nil {
			logger.Fatal("Failed to rebuild search index", zap.Error(err))
		}
	} else if err := documentrepo.EnsureIndex(ctx, store, cfg.Index.KeyPrefix); err != nil {
		logger.Fatal("Failed to ensure search index", zap.Error(err))
	}

	// Register propagation metrics explicitly (no init())
	metrics.RegisterTaskMetrics()

	// Composition root: registry, repositories, services
	registry := module.NewRegistry()
	docMapper := mapper.New(registry)

	docRepo := documentrepo.New(store, cfg.Index.KeyPrefix)
	hitRepo := searchrepo.New(store, cfg.Index.KeyPrefix)
	taskQueue := queuerepo.New(store, cfg.Index.KeyPrefix,
		time.Duration(cfg.Queue.PollTimeoutSec)*time.Second)

	changeCapture := capture.New(registry, taskQueue, logger.Named("capture"))

	var up *upstream.Client
	if cfg.Upstream.BaseURL != "" {
		up, err = upstream.New(upstream.Config{
			BaseURL: cfg.Upstream.BaseURL,
			APIKey:  cfg.Upstream.APIKey,
			Timeout: time.Duration(cfg.Upstream.TimeoutSec) * time.Second,
		})
		if err != nil {
			logger.Fatal("Failed to create upstream client", zap.Error(err))
		}
	}

	var perms *permission.Resolver
	if up != nil {
		perms = permission.New(registry, up)
	} else {
		// Without an upstream every menu-gated module is invisible; only the
		// ungated ones (accounts, people) remain searchable.
		logger.Warn("No upstream configured, role grants resolve empty")
		perms = permission.New(registry, emptyGrants{})
	}

	searchSvc := searchuc.New(registry, perms, hitRepo, query.New(registry), searchuc.Limits{
		DefaultPageSize: cfg.Index.DefaultPageSize,
		MaxPageSize:     cfg.Index.MaxPageSize,
		MaxScanWindow:   cfg.Index.MaxScanWindow,
	})

	server := chiTransport.NewServer(searchSvc, changeCapture, docRepo, store, logger)

	addr := fmt.Sprintf(":%d", cfg.HTTP.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      server.Router(cfg.Auth.APIKeys),
		ReadTimeout:  time.Duration(cfg.HTTP.ReadTimeoutSec) * time.Second,
		WriteTimeout: time.Duration(cfg.HTTP.WriteTimeoutSec) * time.Second,
	}

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	g, runCtx := errgroup.WithContext(runCtx)

	// Propagation worker pool. Validate guarantees an upstream whenever
	// workers are enabled.
	if cfg.Queue.Workers > 0 {
		indexingSvc := indexinguc.New(up, docRepo, docMapper, taskQueue, logger.Named("indexing"))
		pool := worker.New(taskQueue, indexingSvc, cfg.Queue.Workers, logger.Named("worker"))
		g.Go(func() error {
			logger.Info("Starting propagation workers", zap.Int("count", cfg.Queue.Workers))
			return pool.Run(runCtx)
		})
	}

	g.Go(func() error {
		reportGauges(runCtx, taskQueue, hitRepo, logger)
		return nil
	})

	g.Go(func() error {
		logger.Info("Starting HTTP server", zap.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)

	select {
	case <-quit:
		logger.Info("Received shutdown signal")
	case <-runCtx.Done():
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(
		context.Background(), time.Duration(cfg.HTTP.ShutdownSec)*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Error during HTTP shutdown", zap.Error(err))
	}

	cancel()
	if err := g.Wait(); err != nil {
		logger.Error("Run group finished with error", zap.Error(err))
	}

	logger.Info("Server stopped gracefully")
}

// reportGauges samples the propagation queue length and the indexed document
// count for their gauges.
func reportGauges(ctx context.Context, q *queuerepo.Queue, hits *searchrepo.Repo, logger *zap.Logger) {
	ticker := time.NewTicker(15 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n, err := q.Depth(ctx); err != nil {
				logger.Debug("queue depth probe failed", zap.Error(err))
			} else {
				metrics.SetQueueDepth(n)
			}
			if n, err := hits.Count(ctx); err != nil {
				logger.Debug("document count probe failed", zap.Error(err))
			} else {
				metrics.SetIndexedDocuments(n)
			}
		}
	}
}

// emptyGrants is the grant lookup used when no upstream is configured.
type emptyGrants struct{}

func (emptyGrants) GrantedMenuCodes(context.Context, string) ([]string, error) {
	return nil, nil
}
