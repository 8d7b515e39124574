// Command assure-admin runs the investor assurance admin console backend.
//
// Subcommands:
//
//	serve  start the HTTP API (default)
//	seed   load the demo dataset and exit
//	list   print a collection as JSON and exit
//	stats  print entity counts and exit
package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"assurecore/internal/adminapi"
	"assurecore/internal/blob"
	"assurecore/internal/core"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, "assure-admin:", err)
		os.Exit(1)
	}
}

func run() error {
	// Missing .env is fine; the environment may be set by the deployment.
	_ = godotenv.Load()

	logger, err := zap.NewProduction()
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	defer logger.Sync()

	cmd := "serve"
	args := os.Args[1:]
	if len(args) > 0 && args[0] != "" && args[0][0] != '-' {
		cmd, args = args[0], args[1:]
	}

	switch cmd {
	case "serve":
		return serve(args, logger)
	case "seed":
		return seed(logger)
	case "list":
		return list(args, logger)
	case "stats":
		return stats(logger)
	default:
		return fmt.Errorf("unknown command %q (want serve, seed, list or stats)", cmd)
	}
}

func newService(ctx context.Context, logger *zap.Logger, withDocuments bool, extra ...core.Option) (*core.Service, error) {
	store, err := core.OpenPersistentStore(core.NewEngine(), logger)
	if err != nil {
		return nil, fmt.Errorf("open store: %w", err)
	}

	opts := []core.Option{core.WithLogger(core.NewZapLogger(logger))}
	opts = append(opts, extra...)
	if metrics, err := core.NewPrometheusMetricsRecorder(prometheus.DefaultRegisterer); err == nil {
		opts = append(opts, core.WithMetricsRecorder(metrics))
	} else {
		logger.Warn("metrics disabled", zap.Error(err))
	}
	if withDocuments {
		docs, err := blob.Open(ctx)
		if err != nil {
			return nil, fmt.Errorf("open document store: %w", err)
		}
		opts = append(opts, core.WithDocumentStore(docs))
		logger.Info("document store ready", zap.String("driver", string(docs.Driver())))
	}
	return core.NewService(store, opts...), nil
}

func serve(args []string, logger *zap.Logger) error {
	fs := flag.NewFlagSet("serve", flag.ExitOnError)
	addr := fs.String("addr", ":8080", "listen address")
	seedOnStart := fs.Bool("seed", false, "load the demo dataset before serving")
	latency := fs.Duration("simulated-latency", 0, "artificial delay on every write")
	if err := fs.Parse(args); err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	svc, err := newService(ctx, logger, true, core.WithSimulatedLatency(*latency))
	if err != nil {
		return err
	}
	if *seedOnStart {
		if err := core.Seed(ctx, svc); err != nil {
			return fmt.Errorf("seed: %w", err)
		}
		logger.Info("demo dataset loaded")
	}

	srv := &http.Server{
		Addr:              *addr,
		Handler:           adminapi.New(svc, logger).Router(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("listening", zap.String("addr", *addr))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}

func seed(logger *zap.Logger) error {
	svc, err := newService(context.Background(), logger, false)
	if err != nil {
		return err
	}
	if err := core.Seed(context.Background(), svc); err != nil {
		return err
	}
	logger.Info("demo dataset loaded")
	return nil
}

func list(args []string, logger *zap.Logger) error {
	if len(args) != 1 {
		return fmt.Errorf("usage: list <businesses|investors|links|reports|audits>")
	}
	svc, err := newService(context.Background(), logger, false)
	if err != nil {
		return err
	}
	store := svc.Store()

	var rows any
	switch args[0] {
	case "businesses":
		rows = store.ListBusinesses()
	case "investors":
		rows = store.ListInvestors()
	case "links":
		rows = store.Links()
	case "reports":
		rows = store.ListReports()
	case "audits":
		rows = store.ListAudits()
	default:
		return fmt.Errorf("unknown collection %q", args[0])
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(rows)
}

func stats(logger *zap.Logger) error {
	svc, err := newService(context.Background(), logger, false)
	if err != nil {
		return err
	}
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(svc.Store().Stats())
}
