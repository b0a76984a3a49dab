package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"net"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"
	"golang.org/x/time/rate"
	"google.golang.org/grpc"

	"github.com/davelindo/eero-menu-bar-sub001/internal/api"
	middleware "github.com/davelindo/eero-menu-bar-sub001/internal/api/middlewares"
	"github.com/davelindo/eero-menu-bar-sub001/internal/cache"
	"github.com/davelindo/eero-menu-bar-sub001/internal/config"
	"github.com/davelindo/eero-menu-bar-sub001/internal/database"
	"github.com/davelindo/eero-menu-bar-sub001/internal/enrich"
	server "github.com/davelindo/eero-menu-bar-sub001/internal/grpc"
	"github.com/davelindo/eero-menu-bar-sub001/internal/scheduler"
	"github.com/davelindo/eero-menu-bar-sub001/internal/snapshot"
	"github.com/davelindo/eero-menu-bar-sub001/internal/usage"
)

// Command eerosnap fetches the account and network state of an eero mesh
// account and reconciles it into one snapshot.
//
// With -once it prints a single snapshot as JSON and exits. Otherwise it runs
// as a daemon that refreshes on a cron schedule, serves gRPC health and
// exposes Prometheus metrics.
//
// Usage:
//
//	eerosnap [flags]
//
// The flags are:
//
//	-config string
//	      path to config file (default "config.yaml", skipped when missing)
//	-once
//	      fetch one snapshot, print it and exit
//	-raw
//	      with -once, include each network's raw working copy
//	-network value
//	      network id to include; repeatable (default all networks)
func main() {
	flags := parseFlags()

	configPath := flags.ConfigPath
	if _, err := os.Stat(configPath); errors.Is(err, os.ErrNotExist) && !flags.configSet {
		configPath = ""
	}
	appConfig, err := config.Load(configPath)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	if len(flags.Networks) > 0 {
		appConfig.Sync.Networks = flags.Networks
	}

	logger, err := newLogger(appConfig.Logging)
	if err != nil {
		log.Fatalf("Failed to configure logger: %v", err)
	}

	registry := prometheus.NewRegistry()
	engine, err := buildEngine(appConfig, logger, registry)
	if err != nil {
		logger.Fatalf("Failed to build engine: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if flags.Once {
		if err := runOnce(ctx, engine, appConfig.Sync.NetworkFilter(), flags.Raw, os.Stdout); err != nil {
			logger.Fatalf("Snapshot failed: %v", err)
		}
		return
	}

	if err := runDaemon(ctx, cancel, appConfig, engine, logger, registry); err != nil {
		logger.Fatalf("Service error: %v", err)
	}
}

type Flags struct {
	ConfigPath string
	Once       bool
	Raw        bool
	Networks   networkList

	configSet bool
}

// networkList collects repeated -network flags.
type networkList []string

func (n *networkList) String() string {
	return strings.Join(*n, ",")
}

func (n *networkList) Set(v string) error {
	for _, id := range strings.Split(v, ",") {
		if id = strings.TrimSpace(id); id != "" {
			*n = append(*n, id)
		}
	}
	return nil
}

func parseFlags() *Flags {
	cfg := &Flags{}

	flag.StringVar(&cfg.ConfigPath, "config", "config.yaml", "Path to config file")
	flag.BoolVar(&cfg.Once, "once", false, "Fetch one snapshot, print it as JSON and exit")
	flag.BoolVar(&cfg.Raw, "raw", false, "Include raw network payloads with -once")
	flag.Var(&cfg.Networks, "network", "Network id to include (repeatable)")

	flag.Parse()

	flag.Visit(func(f *flag.Flag) {
		if f.Name == "config" {
			cfg.configSet = true
		}
	})
	return cfg
}

func newLogger(cfg config.LoggingConfig) (*logrus.Logger, error) {
	logger := logrus.New()
	level, err := logrus.ParseLevel(cfg.Level)
	if err != nil {
		return nil, err
	}
	logger.SetLevel(level)

	switch cfg.Format {
	case "text":
		logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	default:
		logger.SetFormatter(&logrus.JSONFormatter{})
	}
	// Keep stdout clean for -once output.
	logger.SetOutput(os.Stderr)
	return logger, nil
}

// buildEngine wires transport, resolver, usage fetcher and enrichment
// pipeline into a snapshot engine.
func buildEngine(cfg *config.Config, logger *logrus.Logger, registry prometheus.Registerer) (*snapshot.Engine, error) {
	for _, c := range []prometheus.Collector{middleware.Requests, middleware.Latency} {
		if err := registry.Register(c); err != nil {
			return nil, err
		}
	}

	limiter := rate.NewLimiter(rate.Limit(cfg.API.RateLimit), cfg.API.RateLimitBurst)
	transport := middleware.Chain(http.DefaultTransport,
		middleware.RequestID,                                           // Add request ID first
		middleware.NewRateLimiter(limiter),                             // Rate limit before the wire
		middleware.NewLogging(logger),                                  // Log all requests (with request ID)
		middleware.NewMetrics(middleware.Requests, middleware.Latency), // Collect metrics
	)

	session := api.NewSession(api.NewMemoryCredentials(cfg.Auth.Token))
	client, err := api.NewClient(api.Options{
		BaseURL:     cfg.API.BaseURL,
		RefreshPath: cfg.API.RefreshPath,
		AuthCookie:  cfg.API.AuthCookie,
		UserAgent:   cfg.API.UserAgent,
		Timeout:     cfg.API.RequestTimeout,
		Transport:   transport,
	}, session, logger)
	if err != nil {
		return nil, err
	}

	location, err := cfg.Sync.Location()
	if err != nil {
		return nil, err
	}

	resolver := api.NewResolver(cfg.Resources.Fallbacks)
	activity := usage.NewFetcher(client, resolver, logger,
		usage.WithLocation(location),
		usage.WithTimelineHours(cfg.Sync.TimelineHours),
	)
	pipeline := enrich.NewPipeline(client, resolver, logger, enrich.WithActivity(activity))

	return snapshot.NewEngine(client, pipeline, logger,
		snapshot.WithConcurrency(cfg.API.MaxConcurrency),
	), nil
}

type onceOutput struct {
	Snapshot any                   `json:"snapshot"`
	Raw      []snapshot.RawNetwork `json:"raw"`
}

func runOnce(ctx context.Context, engine snapshot.Fetcher, filter map[string]struct{}, raw bool, out io.Writer) error {
	var result any
	if raw {
		snap, payloads, err := engine.FetchAccountWithRawPayloads(ctx, filter)
		if err != nil {
			return err
		}
		result = onceOutput{Snapshot: snap, Raw: payloads}
	} else {
		snap, err := engine.FetchAccountSnapshot(ctx, filter)
		if err != nil {
			return err
		}
		result = snap
	}

	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(result)
}

func runDaemon(ctx context.Context, cancel context.CancelFunc, cfg *config.Config, engine snapshot.Fetcher, logger *logrus.Logger, registry *prometheus.Registry) error {
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		scheduler.Refreshes,
		scheduler.LastSuccess,
	)
	if err := server.RegisterMetrics(registry); err != nil {
		return err
	}

	snapshots, err := cache.New(cfg.Cache.Size)
	if err != nil {
		return fmt.Errorf("failed to create cache: %w", err)
	}
	health := server.NewHealthChecker()
	health.Report(false)

	opts := []scheduler.Option{
		scheduler.WithHealth(health),
		scheduler.WithFilter(cfg.Sync.NetworkFilter()),
		scheduler.WithSchedule(cfg.Sync.Schedule),
		scheduler.WithTimeout(cfg.Sync.Timeout),
		scheduler.WithStaleAfter(cfg.Sync.StaleAfter),
	}

	var repo database.UsageRepository
	if cfg.Database.Enabled {
		pg, err := database.NewPostgresRepo(cfg.Database.ConnString())
		if err != nil {
			return fmt.Errorf("failed to create repository: %w", err)
		}
		pg.SetMaxOpenConns(cfg.Database.MaxConnections)
		if err := pg.EnsureSchema(ctx); err != nil {
			pg.Close()
			return err
		}
		repo = pg
		opts = append(opts, scheduler.WithSink(repo))
	}

	sched := scheduler.NewScheduler(ctx, engine, snapshots, logger, opts...)

	srv := server.SetupServer(health, server.DefaultServerConfig(), logger)

	lis, err := net.Listen("tcp", fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port))
	if err != nil {
		return fmt.Errorf("failed to listen: %w", err)
	}

	metricsServer := &http.Server{
		Addr:              fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.MetricsPort),
		Handler:           promhttp.HandlerFor(registry, promhttp.HandlerOpts{Registry: registry}),
		ReadHeaderTimeout: 5 * time.Second,
	}

	errChan := make(chan error, 3)

	// Prime the cache before the first tick
	go func() {
		firstCtx, firstCancel := context.WithTimeout(ctx, cfg.Sync.Timeout)
		defer firstCancel()
		if _, err := sched.RunOnce(firstCtx); err != nil {
			logger.WithError(err).Warn("Initial snapshot failed")
		}
	}()

	if err := sched.Start(); err != nil {
		return fmt.Errorf("scheduler error: %w", err)
	}

	go func() {
		logger.WithFields(logrus.Fields{"port": cfg.Server.Port}).Info("Starting gRPC server")
		if err := srv.Serve(lis); err != nil {
			errChan <- fmt.Errorf("server error: %w", err)
		}
	}()

	go func() {
		logger.WithFields(logrus.Fields{"port": cfg.Server.MetricsPort}).Info("Starting metrics server")
		if err := metricsServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errChan <- fmt.Errorf("metrics error: %w", err)
		}
	}()

	go handleShutdown(ctx, cancel, srv, metricsServer, sched, health, logger, repo)

	select {
	case err := <-errChan:
		cancel()
		return err
	case <-ctx.Done():
		return nil
	}
}

// Handle graceful shutdown
func handleShutdown(
	ctx context.Context,
	cancel context.CancelFunc,
	srv *grpc.Server,
	metricsServer *http.Server,
	sched *scheduler.Scheduler,
	health *server.HealthChecker,
	logger *logrus.Logger,
	repo database.UsageRepository,
) {
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	select {
	case <-ctx.Done():
		logger.Println("Context canceled, initiating shutdown")
	case sig := <-sigChan:
		logger.Printf("Received signal %v, initiating shutdown", sig)
	}

	health.Shutdown()
	sched.Stop()

	logger.Println("Gracefully stopping server...")
	srv.GracefulStop()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	if err := metricsServer.Shutdown(shutdownCtx); err != nil {
		logger.WithError(err).Warn("Metrics server shutdown failed")
	}
	logger.Println("Server stopped")

	if repo != nil {
		repo.Close()
	}
	cancel()
}
