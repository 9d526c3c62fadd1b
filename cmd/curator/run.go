package main

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/urfave/cli/v2"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/ava-labs/hive-curator/pkg/checkpointer"
	"github.com/ava-labs/hive-curator/pkg/command"
	"github.com/ava-labs/hive-curator/pkg/dispatcher"
	"github.com/ava-labs/hive-curator/pkg/filter"
	"github.com/ava-labs/hive-curator/pkg/gateway"
	"github.com/ava-labs/hive-curator/pkg/hive"
	"github.com/ava-labs/hive-curator/pkg/metrics"
	"github.com/ava-labs/hive-curator/pkg/render"
	"github.com/ava-labs/hive-curator/pkg/scanner"
	"github.com/ava-labs/hive-curator/pkg/utils"
)

func runCurator(c *cli.Context) error {
	// Build configuration from CLI flags
	cfg, err := buildConfig(c)
	if err != nil {
		return fmt.Errorf("failed to build config: %w", err)
	}

	sugar, err := utils.NewSugaredLogger(cfg.Verbose, utils.WithName("curator"))
	if err != nil {
		return fmt.Errorf("failed to create logger: %w", err)
	}
	defer sugar.Desugar().Sync() //nolint:errcheck // best-effort flush; ignore sync errors

	// The posting key is never logged.
	sugar.Infow("config",
		"verbose", cfg.Verbose,
		"dryRun", cfg.DryRun,
		"enableUpvotes", cfg.EnableVotes,
		"enableComments", cfg.EnableComments,
		"cooldown", cfg.Cooldown,
		"callerAccount", cfg.CallerAccount,
		"accountName", cfg.Account,
		"postingKeySet", cfg.PostingKey != "",
		"commandToken", cfg.CommandToken,
		"apiNode", cfg.APINode,
		"chainID", cfg.ChainID,
		"httpTimeout", cfg.HTTPTimeout,
		"streamMode", cfg.StreamMode,
		"pollInterval", cfg.PollInterval,
		"template", cfg.TemplatePath,
		"frontendURL", cfg.FrontendURL,
		"checkpointFile", cfg.CheckpointFile,
		"metricsHost", cfg.MetricsHost,
		"metricsPort", cfg.MetricsPort,
		"environment", cfg.Environment,
		"region", cfg.Region,
		"cloudProvider", cfg.CloudProvider,
	)

	// Initialize Prometheus metrics with labels for multi-instance filtering
	registry := prometheus.NewRegistry()
	m, err := metrics.NewWithLabels(registry, metrics.Labels{
		Account:       cfg.Account,
		Environment:   cfg.Environment,
		Region:        cfg.Region,
		CloudProvider: cfg.CloudProvider,
	})
	if err != nil {
		return fmt.Errorf("failed to create metrics: %w", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	sc, closeClient, err := buildScanner(ctx, sugar, cfg, m)
	if err != nil {
		return err
	}
	defer closeClient()

	// Start metrics server
	metricsServer := metrics.NewServer(cfg.MetricsAddr(), registry)
	metricsErrCh := metricsServer.Start()
	if cfg.MetricsHost == "" {
		sugar.Infof("metrics server listening on http://0.0.0.0:%d/metrics", cfg.MetricsPort)
	} else {
		sugar.Infof("metrics server listening on http://%s/metrics", cfg.MetricsAddr())
	}
	metricsServer.SetReady(true)

	// Run scanner and metrics server error handling concurrently using errgroup
	g, gctx := errgroup.WithContext(ctx)

	// Scanner goroutine - blocks until shutdown or error
	g.Go(func() error {
		if err := sc.Run(gctx); err != nil {
			return fmt.Errorf("scanner error: %w", err)
		}
		return nil
	})

	// Metrics server error monitoring goroutine
	g.Go(func() error {
		select {
		case <-gctx.Done():
			return gctx.Err()
		case err := <-metricsErrCh:
			if err != nil {
				return fmt.Errorf("metrics server error: %w", err)
			}
			return nil
		}
	})

	// Wait for first error or completion from any goroutine
	err = g.Wait()
	metricsServer.SetReady(false)

	// Gracefully shutdown metrics server
	sugar.Info("shutting down metrics server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if shutdownErr := metricsServer.Shutdown(shutdownCtx); shutdownErr != nil {
		sugar.Warnw("metrics server shutdown error", "error", shutdownErr)
	}

	sugar.Info("shutdown complete")
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

// buildScanner wires the pipeline described by cfg. The returned func closes
// the connection to the API node.
func buildScanner(ctx context.Context, sugar *zap.SugaredLogger, cfg *Config, m *metrics.Metrics) (_ *scanner.Scanner, _ func(), err error) {
	cp, err := openCheckpointer(ctx, sugar, cfg)
	if err != nil {
		return nil, nil, err
	}

	renderer, err := loadRenderer(sugar, cfg)
	if err != nil {
		return nil, nil, err
	}

	client, err := hive.NewClient(ctx, cfg.APINode,
		hive.WithTimeout(cfg.HTTPTimeout),
		hive.WithMetrics(m),
	)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create hive client: %w", err)
	}
	defer func() {
		if err != nil {
			client.Close()
		}
	}()

	var signer *hive.Signer
	if cfg.Broadcasts() {
		signer, err = hive.NewSigner(cfg.PostingKey, cfg.ChainID)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to load posting key: %w", err)
		}
	}
	broadcaster, err := hive.NewBroadcaster(sugar, client, signer)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create broadcaster: %w", err)
	}
	var gw gateway.Gateway = broadcaster
	if cfg.DryRun {
		gw = gateway.NewDryRun(broadcaster, sugar)
	}

	streamer, err := hive.NewStreamer(sugar, client, hive.StreamerConfig{
		Mode:         cfg.StreamMode,
		PollInterval: cfg.PollInterval,
	}, m)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create streamer: %w", err)
	}

	f, err := filter.New(cp, cfg.CallerAccount, cfg.CommandToken)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create filter: %w", err)
	}
	parser, err := command.NewParser(cfg.CommandToken, cfg.EnableVotes)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create parser: %w", err)
	}
	d, err := dispatcher.New(sugar, gw, renderer, dispatcher.Config{
		Account:        cfg.Account,
		EnableVotes:    cfg.EnableVotes,
		EnableComments: cfg.EnableComments,
		Cooldown:       dispatcher.NewCooldown(cfg.Cooldown),
	}, m)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create dispatcher: %w", err)
	}

	sc, err := scanner.New(sugar, scanner.Config{
		Feed:         streamer,
		Checkpointer: cp,
		Filter:       f,
		Parser:       parser,
		Dispatcher:   d,
		Metrics:      m,
		FrontendURL:  cfg.FrontendURL,
	})
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create scanner: %w", err)
	}
	return sc, client.Close, nil
}

// openCheckpointer returns the checkpoint file. Dry runs start from the
// stored checkpoint but keep their progress in memory.
func openCheckpointer(ctx context.Context, sugar *zap.SugaredLogger, cfg *Config) (checkpointer.Checkpointer, error) {
	file, err := checkpointer.NewFile(cfg.CheckpointFile)
	if err != nil {
		return nil, err
	}
	if !cfg.DryRun {
		if err := file.Initialize(ctx); err != nil {
			return nil, fmt.Errorf("failed to initialize checkpoint: %w", err)
		}
		return file, nil
	}

	height, exists, err := file.Read(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to read checkpoint: %w", err)
	}
	sugar.Infow("dry run: checkpoint kept in memory", "storedHeight", height, "exists", exists)
	if !exists {
		return checkpointer.NewMemory(), nil
	}
	return checkpointer.NewMemoryAt(height), nil
}

// loadRenderer loads the reply template. A missing default template falls
// back to the built-in one; a missing explicit template is an error.
func loadRenderer(sugar *zap.SugaredLogger, cfg *Config) (render.Renderer, error) {
	tmpl, err := render.Load(cfg.TemplatePath)
	switch {
	case err == nil:
		return tmpl, nil
	case errors.Is(err, fs.ErrNotExist) && !cfg.TemplateSet:
		sugar.Infow("template file not found, using built-in template", "path", cfg.TemplatePath)
		return render.Default(), nil
	default:
		return nil, fmt.Errorf("failed to load template: %w", err)
	}
}
