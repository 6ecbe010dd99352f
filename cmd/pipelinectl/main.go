// Command pipelinectl builds a small demonstration pipeline — the graph's
// input standardized by a fitted standard scaler — runs it once in dataset
// mode over a small training dataset (which fits the scaler) and then once
// in single-item mode, printing the single-item result. It
// exists to exercise the telemetry and logging wiring end to end: bring up
// a logger and an OpenTelemetry provider before doing anything else.
package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/flowforge/pipeline/internal/telemetry"
	"github.com/flowforge/pipeline/internal/telemetry/logging"
	"github.com/flowforge/pipeline/pkg/graph"
	"github.com/flowforge/pipeline/pkg/op/inmemdataset"
	"github.com/flowforge/pipeline/pkg/op/numeric"
	"github.com/flowforge/pipeline/pkg/pipeline"
)

func main() {
	var (
		exporter    = flag.String("exporter", "none", "telemetry exporter: none, stdout, or otlp")
		jsonLogs    = flag.Bool("json-logs", false, "emit logs as JSON instead of text")
		item        = flag.Float64("item", 3.0, "single item to run through the pipeline after fitting")
		metricsAddr = flag.String("metrics-addr", "", "if set, serve Prometheus /metrics on this address (only takes effect with -exporter=otlp)")
	)
	flag.Parse()

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	logger := logging.New(logging.Config{Level: logging.LevelInfo, JSON: *jsonLogs, Output: os.Stderr})

	providers, shutdown, err := telemetry.Init(ctx, telemetry.Config{
		ServiceName: "pipelinectl",
		Exporter:    telemetry.Exporter(*exporter),
	})
	if err != nil {
		logger.Error(ctx, "telemetry init failed", "error", err)
		os.Exit(1)
	}
	defer func() {
		if err := shutdown(ctx); err != nil {
			logger.Error(ctx, "telemetry shutdown failed", "error", err)
		}
	}()

	if *metricsAddr != "" {
		if handler := telemetry.MetricsHandler(); handler != nil {
			mux := http.NewServeMux()
			mux.Handle("/metrics", handler)
			srv := &http.Server{Addr: *metricsAddr, Handler: mux}
			go func() {
				if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
					logger.Error(ctx, "metrics server failed", "error", err)
				}
			}()
			defer srv.Close()
		} else {
			logger.Warn(ctx, "metrics-addr set but no Prometheus handler is available for this exporter", "exporter", *exporter)
		}
	}

	pipelineConfig := pipeline.ExecutorConfig{Logger: logger, Tracer: providers.Tracer, Meter: providers.Meter}
	demo, err := buildDemoPipeline(pipelineConfig)
	if err != nil {
		logger.Error(ctx, "failed to build demo pipeline", "error", err)
		os.Exit(1)
	}

	train := inmemdataset.New([]float64{1, 2, 3, 4, 5}, 0)
	if _, err := demo.ApplyDataset(ctx, train); err != nil {
		logger.Error(ctx, "fit-and-transform over training dataset failed", "error", err)
		os.Exit(1)
	}

	out, err := demo.ApplySingle(ctx, *item)
	if err != nil {
		logger.Error(ctx, "applySingle failed", "error", err)
		os.Exit(1)
	}

	fmt.Printf("standardized(%v) = %v\n", *item, out)
}

// buildDemoPipeline builds: source -> EstimatorNode(StandardScaler) and
// source -> DelegatingTransformerNode(fit=estimator) -> sink.
func buildDemoPipeline(config pipeline.ExecutorConfig) (*pipeline.Pipeline, error) {
	g := graph.Empty()
	g, src := g.AddSource()

	g, estimator, err := g.AddNode(
		graph.NewEstimatorNode(numeric.StandardScalerEstimator{}),
		[]graph.DepRef{graph.SourceRef(src)},
		0, false,
	)
	if err != nil {
		return nil, fmt.Errorf("add estimator node: %w", err)
	}

	g, delegator, err := g.AddNode(
		graph.NewDelegatingTransformerNode(),
		[]graph.DepRef{graph.SourceRef(src)},
		estimator, true,
	)
	if err != nil {
		return nil, fmt.Errorf("add delegating transformer node: %w", err)
	}

	g, sink, err := g.AddSink(graph.NodeRef(delegator))
	if err != nil {
		return nil, fmt.Errorf("add sink: %w", err)
	}

	return pipeline.New(g, sink, config)
}
