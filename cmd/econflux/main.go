// Command econflux serves the EconFlux agent over the AgentCore runtime
// contract.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/aws/aws-sdk-go-v2/service/bedrockagentruntime"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	apphttp "github.com/scttfrdmn/econflux/econflux-go/adapter/http"
	"github.com/scttfrdmn/econflux/econflux-go/adapter/llm"
	"github.com/scttfrdmn/econflux/econflux-go/agent"
	"github.com/scttfrdmn/econflux/econflux-go/config"
	"github.com/scttfrdmn/econflux/econflux-go/econflux"
	"github.com/scttfrdmn/econflux/econflux-go/evaluation"
	"github.com/scttfrdmn/econflux/econflux-go/memory"
	"github.com/scttfrdmn/econflux/econflux-go/middleware"
	"github.com/scttfrdmn/econflux/econflux-go/observability"
	"github.com/scttfrdmn/econflux/econflux-go/safety"
	"github.com/scttfrdmn/econflux/econflux-go/tools"
)

const serviceName = "econflux"

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "econflux: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	logLevel := flag.String("log-level", cfg.LogLevel, "Log level (TRACE, DEBUG, INFO, WARNING, ERROR, CRITICAL)")
	jsonLogs := flag.Bool("json-logs", false, "Write logs as JSON")
	port := flag.Int("port", cfg.Port, "Port to listen on")
	flag.Parse()
	cfg.Port = *port

	logger := observability.ConfigureLogging(observability.ParseLevel(*logLevel), *jsonLogs, true)
	logger.Info("Starting EconFlux with log level: " + strings.ToUpper(*logLevel))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	tp, err := observability.InitTracing(ctx, observability.TracingOptions{
		ServiceName:   serviceName,
		OTLPEndpoint:  cfg.OTLPEndpoint,
		ConsoleExport: cfg.ConsoleExport,
	})
	if err != nil {
		return err
	}
	defer shutdown(logger, "tracer provider", tp.Shutdown)

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	mp, err := observability.InitMetrics(ctx, serviceName, registry)
	if err != nil {
		return err
	}
	defer shutdown(logger, "meter provider", mp.Shutdown)

	awsCfg, err := config.LoadAWS(ctx, config.AWSOptions{
		Region:           cfg.Region,
		RetryMaxAttempts: cfg.RetryAttempts,
	})
	if err != nil {
		return err
	}
	model := llm.NewBedrockLLMWithClient(bedrockruntime.NewFromConfig(awsCfg), cfg.ModelID)
	retriever := tools.NewRetriever(bedrockagentruntime.NewFromConfig(awsCfg), cfg.KnowledgeBases, logger)

	var callOpts []llm.CallOption
	if cfg.GuardrailID != "" {
		callOpts = append(callOpts, llm.WithGuardrail(cfg.GuardrailID, cfg.GuardrailVersion))
		logger.Info("guardrail enabled", "guardrail_id", cfg.GuardrailID, "version", cfg.GuardrailVersion)
	}

	toolRegistry, err := tools.Default(tools.NewMarketData(), retriever, model, callOpts...)
	if err != nil {
		return err
	}
	logger.Debug("tools registered", "tools", toolRegistry.List())

	mem, closeMemory, err := newMemory(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer closeMemory()

	toolMetrics, err := observability.NewToolMetrics()
	if err != nil {
		return err
	}

	econ, err := agent.New(agent.Config{
		Model:       model,
		Registry:    toolRegistry,
		Memory:      mem,
		MaxTurns:    cfg.MaxTurns,
		CallOptions: callOpts,
		EvalMode:    cfg.EvalMode,
		ToolMetrics: toolMetrics,
		Logger:      logger,
	})
	if err != nil {
		return err
	}
	defer econ.Close()

	metered, err := observability.NewMetricsMiddleware(econ)
	if err != nil {
		return err
	}
	bounded := middleware.NewTimeoutDecorator(metered, cfg.InvocationTimeout)
	screened := safety.NewScreeningMiddleware(bounded, nil, safety.ParseMode(cfg.InputScreening), logger)
	var served econflux.Agent = screened
	if cfg.EvalMode {
		storage, err := evaluation.NewFileRecordingStorage(cfg.EvalRecordingsDir)
		if err != nil {
			return err
		}
		served = evaluation.NewRecorder(screened, storage, logger)
		logger.Info("eval mode enabled", "recordings_dir", cfg.EvalRecordingsDir)
	}
	traced := observability.NewTracingMiddleware(served, "")

	server := apphttp.NewServer(traced, cfg.Addr(),
		apphttp.WithLogger(logger),
		apphttp.WithCORS(cfg.CORSAllowedOrigins...),
		apphttp.WithMetricsGatherer(registry),
	)
	if err := server.Start(ctx); err != nil {
		return err
	}

	<-ctx.Done()
	logger.Info("shutting down")
	return server.Stop(context.Background())
}

// newMemory selects Redis when REDIS_URL is set and the in-process store
// otherwise.
func newMemory(ctx context.Context, cfg *config.Config, logger *slog.Logger) (memory.Memory, func(), error) {
	if cfg.RedisURL == "" {
		logger.Info("using in-memory session history")
		return memory.NewInMemoryMemory(0), func() {}, nil
	}

	mem, err := memory.NewRedisMemory(cfg.RedisURL, memory.RedisOptions{TTL: cfg.SessionTTL})
	if err != nil {
		return nil, nil, err
	}
	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := mem.Ping(pingCtx); err != nil {
		_ = mem.Close()
		return nil, nil, fmt.Errorf("redis unavailable: %w", err)
	}
	logger.Info("using redis session history", "ttl", cfg.SessionTTL)
	return mem, func() {
		if err := mem.Close(); err != nil && !errors.Is(err, context.Canceled) {
			logger.Warn("failed to close redis", "error", err)
		}
	}, nil
}

func shutdown(logger *slog.Logger, name string, fn func(context.Context) error) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := fn(ctx); err != nil {
		logger.Warn("shutdown failed", "component", name, "error", err)
	}
}
