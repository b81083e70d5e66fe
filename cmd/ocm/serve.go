package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/c360studio/semstreams/component"
	ssconfig "github.com/c360studio/semstreams/config"
	"github.com/c360studio/semstreams/natsclient"
	"github.com/c360studio/semstreams/payloadregistry"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"

	"github.com/jonathanvajda/ontology-curation-manager/config"
	"github.com/jonathanvajda/ontology-curation-manager/evaluate"
	curationevaluator "github.com/jonathanvajda/ontology-curation-manager/processor/curation-evaluator"
)

func serveCmd(configPath *string) *cobra.Command {
	var (
		manifestSource string
		natsURL        string
		metricsAddr    string
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run as a long-lived NATS evaluation service",
		Long: `Run a JetStream processor that consumes evaluation requests and publishes
curation reports. Requests arrive on curation.evaluate.request; each result is
published to curation.evaluate.result.<request_id>.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(*configPath)
			if err != nil {
				return err
			}
			if manifestSource != "" {
				cfg.Manifest.Source = manifestSource
			}
			if natsURL != "" {
				cfg.NATS.URL = natsURL
			}
			if metricsAddr != "" {
				cfg.Metrics.Addr = metricsAddr
			}
			if cfg.Manifest.Source == "" {
				return fmt.Errorf("no manifest configured; set manifest.source or pass --manifest")
			}
			return serve(cmd.Context(), cfg)
		},
	}

	cmd.Flags().StringVarP(&manifestSource, "manifest", "m", "", "Manifest path or URL (overrides config)")
	cmd.Flags().StringVar(&natsURL, "nats-url", "", "NATS server URL (overrides config)")
	cmd.Flags().StringVar(&metricsAddr, "metrics-addr", "", "Prometheus /metrics listen address (overrides config)")

	return cmd
}

func serve(ctx context.Context, cfg *config.Config) error {
	logger := slog.Default()

	natsClient, err := connectToNATS(ctx, cfg.NATS.URL, logger)
	if err != nil {
		return err
	}
	defer natsClient.Close(ctx)

	if err := ensureStreams(ctx, cfg, natsClient, logger); err != nil {
		return err
	}

	// Pipeline metrics on a dedicated registry served at /metrics.
	registry := prometheus.NewRegistry()
	metrics := evaluate.NewMetrics(registry)

	evaluatorConfig, err := json.Marshal(map[string]any{
		"stream_name":     cfg.NATS.Stream,
		"manifest_source": cfg.Manifest.Source,
		"parallelism":     cfg.Evaluation.Parallelism,
		"query_timeout":   cfg.Evaluation.QueryTimeout.String(),
		"seed_entities":   cfg.Evaluation.SeedEntities,
	})
	if err != nil {
		return fmt.Errorf("marshal evaluator config: %w", err)
	}

	payloads := payloadregistry.New()
	if err := curationevaluator.RegisterPayloads(payloads); err != nil {
		return fmt.Errorf("register payloads: %w", err)
	}

	discoverable, err := curationevaluator.NewComponent(evaluatorConfig, component.Dependencies{
		Logger:          logger,
		NATSClient:      natsClient,
		PayloadRegistry: payloads,
	})
	if err != nil {
		return fmt.Errorf("create curation-evaluator: %w", err)
	}
	evaluator := discoverable.(*curationevaluator.Component)
	evaluator.SetMetrics(metrics)

	if err := evaluator.Initialize(); err != nil {
		return fmt.Errorf("initialize curation-evaluator: %w", err)
	}

	signalCtx, signalCancel := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer signalCancel()

	if err := evaluator.Start(signalCtx); err != nil {
		return fmt.Errorf("start curation-evaluator: %w", err)
	}

	var metricsServer *http.Server
	if cfg.Metrics.Addr != "" {
		metricsServer = startMetricsServer(cfg.Metrics.Addr, registry, logger)
	}

	logger.Info("ocm service ready",
		"version", Version,
		"manifest", cfg.Manifest.Source,
		"stream", cfg.NATS.Stream)

	// Block until shutdown signal
	<-signalCtx.Done()
	logger.Info("Received shutdown signal")

	if metricsServer != nil {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		if err := metricsServer.Shutdown(shutdownCtx); err != nil {
			logger.Error("Error stopping metrics server", "error", err)
		}
		cancel()
	}

	if err := evaluator.Stop(30 * time.Second); err != nil {
		logger.Error("Error stopping curation-evaluator", "error", err)
	}

	logger.Info("ocm shutdown complete")
	return nil
}

func connectToNATS(ctx context.Context, url string, logger *slog.Logger) (*natsclient.Client, error) {
	// Environment variable override takes precedence
	if envURL := os.Getenv("NATS_URL"); envURL != "" {
		url = envURL
	}
	if url == "" {
		url = "nats://localhost:4222"
	}

	logger.Info("Connecting to NATS", "url", url)

	client, err := natsclient.NewClient(url,
		natsclient.WithName(appName),
		natsclient.WithMaxReconnects(-1),
		natsclient.WithReconnectWait(time.Second),
		natsclient.WithHealthInterval(30*time.Second),
	)
	if err != nil {
		return nil, fmt.Errorf("create NATS client: %w", err)
	}

	if err := client.Connect(ctx); err != nil {
		return nil, wrapNATSError(err, url)
	}

	connCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	if err := client.WaitForConnection(connCtx); err != nil {
		return nil, wrapNATSError(err, url)
	}

	logger.Info("Connected to NATS", "url", url)
	return client, nil
}

// wrapNATSError provides helpful guidance when NATS connection fails.
func wrapNATSError(err error, url string) error {
	errStr := err.Error()

	if strings.Contains(errStr, "connection refused") ||
		strings.Contains(errStr, "no servers available") ||
		strings.Contains(errStr, "timeout") {
		return fmt.Errorf(`NATS connection failed: %w

NATS is not running at %s.

To start NATS:
  docker compose up -d nats

Or set NATS_URL environment variable to point to your NATS server.`, err, url)
	}

	return fmt.Errorf("NATS connection failed: %w", err)
}

func ensureStreams(ctx context.Context, cfg *config.Config, natsClient *natsclient.Client, logger *slog.Logger) error {
	logger.Debug("Creating JetStream streams")
	streamsManager := ssconfig.NewStreamsManager(natsClient, logger)

	streamCfg := &ssconfig.Config{
		Streams: ssconfig.StreamConfigs{
			cfg.NATS.Stream: ssconfig.StreamConfig{
				Subjects: []string{
					"curation.evaluate.request",
					"curation.evaluate.result.>",
				},
				MaxAge:   "24h",
				Storage:  "file",
				Replicas: 1,
			},
		},
	}

	if err := streamsManager.EnsureStreams(ctx, streamCfg); err != nil {
		return fmt.Errorf("ensure streams: %w", err)
	}

	logger.Debug("JetStream streams ready")
	return nil
}

func startMetricsServer(addr string, registry *prometheus.Registry, logger *slog.Logger) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))

	server := &http.Server{Addr: addr, Handler: mux}
	go func() {
		logger.Info("Metrics endpoint listening", "addr", addr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("Metrics server failed", "error", err)
		}
	}()
	return server
}
