// cmd/server/main.go
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

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.24.0"

	"github.com/mkale2207/house-price-service/internal/cache"
	"github.com/mkale2207/house-price-service/internal/config"
	"github.com/mkale2207/house-price-service/internal/handler"
	"github.com/mkale2207/house-price-service/internal/inference"
	"github.com/mkale2207/house-price-service/internal/metrics"
	"github.com/mkale2207/house-price-service/internal/middleware"
	"github.com/mkale2207/house-price-service/internal/preprocess"
)

const serviceName = "house-price-service"

func main() {
	configFile := flag.String("config", "", "Path to config file (optional)")
	flag.Parse()

	cfg, err := loadConfig(*configFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	setupLogger(cfg.LogLevel)

	log.Info().
		Int("port", cfg.Port).
		Int("metrics_port", cfg.MetricsPort).
		Str("model", cfg.Model).
		Str("preprocessor", cfg.Preprocessor).
		Str("redis", cfg.Redis).
		Bool("otel", cfg.OTELEnabled).
		Bool("mock", cfg.UseMockInference).
		Msgf("starting %s", serviceName)

	// Initialize OpenTelemetry tracer
	var tracerShutdown func(context.Context) error
	if cfg.OTELEnabled {
		tracerShutdown, err = initTracer(cfg.OTELEndpoint)
		if err != nil {
			log.Warn().Err(err).Msg("failed to initialize tracer")
		} else {
			log.Info().Str("endpoint", cfg.OTELEndpoint).Msg("OpenTelemetry tracing enabled")
		}
	}

	// Load artifacts. A failure here is fatal: the service must never
	// accept prediction traffic with missing artifacts.
	pre, engine, err := loadArtifacts(cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load artifacts")
	}
	defer engine.Close()

	// Initialize Redis prediction cache (optional)
	var cacheClient *cache.Cache
	if cfg.Redis != "" {
		cacheClient, err = cache.New(cfg.Redis, cfg.CacheTTL)
		if err != nil {
			log.Warn().Err(err).Msg("failed to connect to Redis, continuing without cache")
		} else {
			defer cacheClient.Close()
			log.Info().Str("addr", cfg.Redis).Msg("Redis prediction cache connected")
		}
	}

	h := handler.New(pre, engine, cacheClient, cfg.RequestTimeout, cfg.MaxBatchSize)

	// Start HTTP server for metrics and k8s probes
	metricsServer := startMetricsServer(cfg.MetricsPort, h.Ready)

	// Build the API server
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Use(middleware.RequestID())
	e.Use(middleware.Metrics())
	h.Register(e)

	// Ready to serve
	h.SetReady(true)
	metrics.SetHealthy()

	// Setup graceful shutdown
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		sig := <-sigChan
		log.Info().Str("signal", sig.String()).Msg("shutting down gracefully")

		// Flip health to not-ready first so load balancers stop sending
		// traffic, then give them time to notice.
		h.SetReady(false)
		metrics.SetUnhealthy()
		time.Sleep(5 * time.Second)

		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		if err := e.Shutdown(ctx); err != nil {
			log.Error().Err(err).Msg("API server shutdown failed")
		}
		metricsServer.Shutdown(ctx)

		if tracerShutdown != nil {
			tracerShutdown(ctx)
		}
	}()

	addr := fmt.Sprintf(":%d", cfg.Port)
	log.Info().Str("addr", addr).Msgf("%s is ready to accept requests", serviceName)

	if err := e.Start(addr); err != nil && err != http.ErrServerClosed {
		log.Fatal().Err(err).Msg("failed to serve")
	}

	log.Info().Msg("server shutdown complete")
}

func loadConfig(configFile string) (*config.Config, error) {
	var (
		cfg *config.Config
		err error
	)
	if configFile != "" {
		cfg, err = config.LoadWithConfigFile(configFile)
	} else {
		cfg, err = config.Load()
	}
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func setupLogger(level string) {
	lvl, err := zerolog.ParseLevel(level)
	if err != nil {
		lvl = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(lvl)
	log.Logger = zerolog.New(os.Stdout).With().
		Timestamp().
		Str("service", serviceName).
		Logger()
}

// loadArtifacts loads the preprocessor and model and verifies that they
// agree on the feature vector layout. A mismatch means the artifacts come
// from different training runs and is a fatal configuration error.
func loadArtifacts(cfg *config.Config) (*preprocess.Preprocessor, inference.Engine, error) {
	if cfg.UseMockInference {
		log.Info().Msg("using mock inference engine")
		pre := preprocess.Default()
		mock := inference.NewMock()
		mock.Features = pre.NumFeatures()
		return pre, mock, nil
	}

	pre, err := preprocess.Load(cfg.Preprocessor)
	if err != nil {
		return nil, nil, err
	}
	log.Info().Str("path", cfg.Preprocessor).Str("version", pre.Version()).Msg("preprocessor loaded")

	engine, err := inference.NewLinear(cfg.Model)
	if err != nil {
		return nil, nil, err
	}
	log.Info().Str("path", cfg.Model).Str("version", engine.Version()).Msg("model loaded")

	preNames := pre.FeatureNames()
	modelNames := engine.FeatureNames()
	if len(preNames) != len(modelNames) {
		return nil, nil, fmt.Errorf("artifact shape mismatch: preprocessor emits %d features, model expects %d",
			len(preNames), len(modelNames))
	}
	for i := range preNames {
		if preNames[i] != modelNames[i] {
			return nil, nil, fmt.Errorf("artifact feature %d mismatch: preprocessor %q, model %q",
				i, preNames[i], modelNames[i])
		}
	}

	return pre, engine, nil
}

func startMetricsServer(port int, ready func() bool) *http.Server {
	mux := http.NewServeMux()

	// Prometheus metrics endpoint
	mux.Handle("/metrics", promhttp.Handler())

	// Liveness check
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})

	// Readiness check: not-ready until artifacts are loaded, and again
	// while draining during shutdown
	mux.HandleFunc("/readyz", func(w http.ResponseWriter, r *http.Request) {
		if !ready() {
			w.WriteHeader(http.StatusServiceUnavailable)
			w.Write([]byte("Not Ready"))
			return
		}
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("Ready"))
	})

	addr := fmt.Sprintf(":%d", port)
	server := &http.Server{
		Addr:    addr,
		Handler: mux,
	}

	go func() {
		log.Info().Str("addr", addr).Msg("metrics server listening")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error().Err(err).Msg("metrics server error")
		}
	}()

	return server
}

func initTracer(endpoint string) (func(context.Context) error, error) {
	// Stdout exporter keeps the dependency surface small; swap in an OTLP
	// exporter when a collector endpoint is deployed.
	if endpoint != "" {
		log.Info().Str("endpoint", endpoint).Msg("using stdout trace exporter (OTLP endpoint configured but not wired)")
	}
	exporter, err := stdouttrace.New(stdouttrace.WithPrettyPrint())
	if err != nil {
		return nil, fmt.Errorf("failed to create trace exporter: %w", err)
	}

	res, err := resource.Merge(
		resource.Default(),
		resource.NewWithAttributes(
			semconv.SchemaURL,
			semconv.ServiceName(serviceName),
			semconv.ServiceVersion("1.0.0"),
		),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create resource: %w", err)
	}

	tp := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter),
		sdktrace.WithResource(res),
		sdktrace.WithSampler(sdktrace.AlwaysSample()),
	)

	otel.SetTracerProvider(tp)

	return tp.Shutdown, nil
}
