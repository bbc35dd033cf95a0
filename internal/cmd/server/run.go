package serverrun

import (
	"context"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	cfgpkg "github.com/logwell/logwell/internal/config"
	"github.com/logwell/logwell/internal/runtime"
	httpserver "github.com/logwell/logwell/internal/server/http"
	logpkg "github.com/logwell/logwell/pkg/log"
)

func getenvDefault(key, def string) string {
	if v := getenv(key); v != "" {
		return v
	}
	return def
}

// swappable for tests
var getenv = func(key string) string { return os.Getenv(key) }

// Options carries the CLI flag overrides. Precedence, lowest to highest:
// built-in defaults, config file, LOGWELL_* environment, flags.
type Options struct {
	ConfigPath string
	DataDir    string
	HTTPAddr   string
	APIKey     string
	NoSync     bool
}

// Run starts the HTTP server and blocks until ctx is cancelled.
func Run(ctx context.Context, opts Options) error {
	// Layer a local signal context over the provided one so callers that
	// don't pass a signal-aware context still get clean shutdown.
	sctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := cfgpkg.Load(opts.ConfigPath)
	if err != nil {
		return err
	}
	cfgpkg.FromEnv(&cfg)
	if opts.DataDir != "" {
		cfg.DataDir = opts.DataDir
	}
	if opts.HTTPAddr != "" {
		cfg.HTTPAddr = opts.HTTPAddr
	}
	if opts.APIKey != "" {
		cfg.APIKey = opts.APIKey
	}
	if cfg.DataDir == "" {
		cfg.DataDir = cfgpkg.DefaultDataDir()
	}
	cfg.Stream.Clamp()

	logger, err := logpkg.ApplyConfig(&logpkg.Config{
		Level:  getenvDefault("LOGWELL_LOG_LEVEL", "info"),
		Format: getenvDefault("LOGWELL_LOG_FORMAT", "text"),
	})
	if err != nil {
		return err
	}
	// Redirect stdlib logs (e.g. Pebble) to our logger.
	logpkg.RedirectStdLog(logger)

	storeDir := filepath.Join(cfg.DataDir, "store")
	rt, err := runtime.Open(runtime.Options{DataDir: storeDir, NoSync: opts.NoSync, Config: cfg})
	if err != nil {
		return err
	}
	defer rt.Close()

	logger.Info("starting logwell server",
		logpkg.Str("http", cfg.HTTPAddr),
		logpkg.Str("data_dir", cfg.DataDir),
		logpkg.Bool("auth", cfg.APIKey != ""),
		logpkg.Int("batch_window_ms", cfg.Stream.BatchWindowMs),
		logpkg.Int("max_batch_size", cfg.Stream.MaxBatchSize),
		logpkg.Int("heartbeat_ms", cfg.Stream.HeartbeatIntervalMs),
	)

	hsrv := httpserver.New(rt, logger)
	errCh := make(chan error, 1)
	go func() { errCh <- hsrv.ListenAndServe(sctx, cfg.HTTPAddr) }()

	select {
	case <-sctx.Done():
		hsrv.Close()
		<-errCh
		return nil
	case err := <-errCh:
		return err
	}
}
