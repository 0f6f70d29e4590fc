package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"devicectl/internal/adapter"
	"devicectl/internal/config"
	"devicectl/internal/handler"
	"devicectl/internal/hub"
	"devicectl/internal/logging"
	"devicectl/internal/metrics"
	"devicectl/internal/middleware"
	"devicectl/internal/repository/sqlite"
	"devicectl/internal/service"
	"devicectl/internal/watcher"
)

// version is injected at build time via -ldflags
var version = "dev"

func main() {
	if err := run(os.Args[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "devicectl: %v\n", err)
		os.Exit(1)
	}
}

func run(args []string) error {
	fs := flag.NewFlagSet("devicectl", flag.ContinueOnError)
	configPath := fs.String("config", "", "Config file path (default: search standard locations)")
	addr := fs.String("addr", "", "HTTP listen address (overrides config)")
	dbPath := fs.String("db", "", "SQLite database path (overrides config)")
	if err := fs.Parse(args); err != nil {
		return err
	}

	cfg, cfgFile, err := loadConfig(*configPath)
	if err != nil {
		return err
	}
	if *addr != "" {
		cfg.Server.Addr = *addr
	}
	if *dbPath != "" {
		cfg.Database.Path = *dbPath
	}

	if err := logging.Init(cfg.Logging); err != nil {
		return err
	}
	logger := logging.WithComponent("server")

	if cfgFile == "" {
		logger.Info().Msg("no config file found, using defaults")
	} else {
		logger.Info().Str("path", cfgFile).Msg("config loaded")
	}
	for _, line := range strings.Split(cfg.Summary(), "\n") {
		logger.Info().Msg(line)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	repo, err := sqlite.New(cfg.Database.Path)
	if err != nil {
		return fmt.Errorf("open database %s: %w", cfg.Database.Path, err)
	}
	defer repo.Close()

	metrics.Register(repo)

	eventBus := service.NewEventBus()

	// Push bus events to websocket clients
	wsHub := hub.New(logging.WithComponent("hub"))
	go wsHub.Run(ctx)

	eventChan := make(chan service.Event, 100)
	eventBus.Subscribe(eventChan)
	go wsHub.Forward(ctx, eventChan)

	prober, err := buildProber(ctx, cfg)
	if err != nil {
		return fmt.Errorf("no usable liveness probe: %w", err)
	}
	if pool, ok := prober.(*adapter.PoolProber); ok {
		pool.SetEventPublisher(eventBus)
	}

	var ouiOpts []adapter.OUIOption
	if cfg.Scan.OUIRegistry != "" {
		ouiOpts = append(ouiOpts, adapter.WithRegistryFile(cfg.Scan.OUIRegistry))
	}
	ouiDB, err := adapter.LoadOUIDatabase(cfg.Scan.OUIFile, ouiOpts...)
	if err != nil {
		return fmt.Errorf("load vendor table: %w", err)
	}
	if ouiDB.Registry() == "" {
		logger.Warn().Int("prefixes", ouiDB.Len()).Msg("no MAC vendor registry found, using built-in table only")
	} else {
		logger.Info().Str("registry", ouiDB.Registry()).Int("prefixes", ouiDB.Len()).Msg("vendor table loaded")
	}
	if cfg.Scan.OUIFile != "" {
		ouiLog := logging.WithComponent("oui")
		w := watcher.New(cfg.Scan.OUIFile, func() {
			if err := ouiDB.Reload(); err != nil {
				ouiLog.Error().Err(err).Msg("vendor table reload failed, keeping previous table")
				return
			}
			ouiLog.Info().Int("prefixes", ouiDB.Len()).Msg("vendor table reloaded")
		}, ouiLog)
		go func() {
			if err := w.Watch(ctx); err != nil && !errors.Is(err, context.Canceled) {
				ouiLog.Warn().Err(err).Msg("vendor table watch stopped")
			}
		}()
	}

	identity := adapter.NewIdentityResolver(
		adapter.NewARPTable(cfg.Scan.ARPTable),
		ouiDB,
		logging.WithComponent("identity"),
	)
	reconciler := service.NewReconciler(repo, service.DefaultCredentials{
		Username: cfg.Scan.DefaultUsername,
		Password: cfg.Scan.DefaultPassword,
	}, eventBus, logging.WithComponent("reconcile"))

	discoverySvc := service.NewDiscoveryService(
		adapter.NewSubnetResolver(cfg.Scan.Interface, logging.WithComponent("subnet")),
		prober,
		identity,
		reconciler,
		eventBus,
		logging.WithComponent("discovery"),
	)

	executor := adapter.NewExecutor(
		adapter.NewSSHDialer(time.Duration(cfg.SSH.ConnectTimeout)),
		cfg.SSH.Port,
		logging.WithComponent("ssh"),
	)
	controlSvc := service.NewControlService(repo, executor, eventBus, logging.WithComponent("control"))
	deviceSvc := service.NewDeviceService(repo, eventBus, logging.WithComponent("devices"))

	mux := http.NewServeMux()

	// Health, metrics and the event stream: no auth
	mux.Handle("GET /healthz", &handler.Health{Store: repo, Version: version})
	mux.Handle("GET /metrics", metrics.Handler())
	mux.Handle("GET /ws", wsHub)

	protect := func(next http.Handler) http.Handler {
		return middleware.Auth(cfg.API.Token, next)
	}
	if cfg.API.Token == "" {
		// only reachable with api.insecure set; Validate rejects it otherwise
		logger.Warn().Msg("api.insecure is set, API authentication is disabled")
		protect = func(next http.Handler) http.Handler { return next }
	}
	handler.NewDeviceHandler(deviceSvc, discoverySvc, controlSvc, logging.WithComponent("api")).
		Register(mux, func(pattern string, next http.Handler) http.Handler {
			return metrics.Middleware(pattern, protect(next))
		})

	skip := func(r *http.Request) bool {
		return r.URL.Path == "/healthz" || r.URL.Path == "/metrics"
	}
	root := middleware.Recover(logger, middleware.RequestLogger(logging.WithComponent("http"), skip, mux))

	// No WriteTimeout: scans, remote commands and /ws hold the response open
	server := &http.Server{
		Addr:              cfg.Server.Addr,
		Handler:           root,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	serverErr := make(chan error, 1)
	go func() {
		logger.Info().Str("addr", cfg.Server.Addr).Str("version", version).Msg("server listening")
		if err := server.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	var runErr error
	select {
	case <-ctx.Done():
		logger.Info().Msg("shutting down server")
	case runErr = <-serverErr:
		logger.Error().Err(runErr).Msg("server error")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("graceful shutdown failed")
	}
	logger.Info().Msg("server stopped")
	return runErr
}

func loadConfig(path string) (*config.Config, string, error) {
	if path != "" {
		return config.LoadFromPath(path)
	}
	return config.Load()
}

// buildProber resolves the configured probe method to a Prober. "auto" picks
// the cheapest back-end this host can run.
func buildProber(ctx context.Context, cfg *config.Config) (adapter.Prober, error) {
	logger := logging.WithComponent("prober")
	method := cfg.Scan.ProbeMethod

	var caps adapter.Capabilities
	if method == config.ProbeAuto {
		caps = adapter.DetectCapabilities(ctx)
		preferred := caps.PreferredMethod()
		if preferred == "" {
			return nil, errors.New("ICMP sockets are not permitted and neither ping nor nmap is installed")
		}
		method = config.ProbeMethod(preferred)
		logger.Info().
			Str("method", preferred).
			Bool("icmp_socket", caps.ICMPSocket).
			Str("ping", caps.PingPath).
			Str("nmap", caps.NmapPath).
			Msg("probe method detected")
	}

	switch method {
	case config.ProbeICMP:
		return adapter.NewPoolProber("icmp", adapter.NewICMPPinger(), cfg.Scan.MaxConcurrent, logger), nil
	case config.ProbeExec:
		return adapter.NewPoolProber("exec", adapter.NewExecPinger(caps.PingPath), cfg.Scan.MaxConcurrent, logger), nil
	case config.ProbeNmap:
		opts := []adapter.NmapOption{
			adapter.WithNmapLogger(logging.WithComponent("nmap")),
			adapter.WithTimeout(cfg.Scan.NmapTimeout.Duration()),
		}
		if caps.NmapPath != "" {
			opts = append(opts, adapter.WithBinaryPath(caps.NmapPath))
		}
		return adapter.NewNmapProber(opts...), nil
	}
	return nil, fmt.Errorf("unknown probe method %q", method)
}
