package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"path"
	"slices"
	"strconv"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"golang.org/x/sync/errgroup"

	"github.com/ekisa-team/herbarium/internal/artifact"
	"github.com/ekisa-team/herbarium/internal/backend"
	"github.com/ekisa-team/herbarium/internal/backend/onnx"
	"github.com/ekisa-team/herbarium/internal/config"
	"github.com/ekisa-team/herbarium/internal/env"
	"github.com/ekisa-team/herbarium/internal/envvar"
	"github.com/ekisa-team/herbarium/internal/inference"
	"github.com/ekisa-team/herbarium/internal/logger"
	"github.com/ekisa-team/herbarium/internal/metrics"
	"github.com/ekisa-team/herbarium/internal/model"
	grpcserver "github.com/ekisa-team/herbarium/internal/server/grpc"
	httpserver "github.com/ekisa-team/herbarium/internal/server/http"
	"github.com/ekisa-team/herbarium/internal/service"
	"github.com/ekisa-team/herbarium/internal/xfs"
	"github.com/ekisa-team/herbarium/web"
)

const (
	exitOK      = 0
	exitRuntime = 1
	exitConfig  = 2

	downloadTimeout = 30 * time.Minute
)

var version = "dev"

func main() {
	code, err := run()
	if err != nil {
		slog.Error("herbarium stopped", "error", err)
	}
	os.Exit(code)
}

func run() (int, error) {
	var (
		flagHTTPPort   = flag.Int("http-port", config.DefaultHTTPPort(), "HTTP port to listen on")
		flagGRPCPort   = flag.Int("grpc-port", 0, "gRPC port to listen on (0 disables gRPC)")
		flagConfigPath = flag.String("config", path.Join(config.DefaultConfigPath(), "config.yaml"), "Path to config file")
		flagSchemaPath = flag.String("schema", "", "Path to schema file (defaults to the embedded schema)")
	)
	flag.Usage = func() {
		fmt.Fprintf(flag.CommandLine.Output(), "Usage: %s [flags] [serve] [flags]\n\n", os.Args[0])
		fmt.Fprintln(flag.CommandLine.Output(), "Without \"serve\" the model is fetched and loaded, a summary is printed and the process exits.")
		fmt.Fprintln(flag.CommandLine.Output())
		flag.PrintDefaults()
	}
	positional, err := parseArgs(flag.CommandLine, os.Args[1:])
	if err != nil {
		return exitConfig, err
	}
	serving := slices.Contains(positional, "serve")

	set := make(map[string]bool)
	flag.Visit(func(f *flag.Flag) { set[f.Name] = true })

	loadDotEnv()

	environment := env.FromEnv()
	level := new(slog.LevelVar)
	slog.SetDefault(logger.New(environment, logger.WithLevel(level)))

	cfg, watchable, err := loadConfig(*flagConfigPath, *flagSchemaPath, set["config"])
	if err != nil {
		return exitConfig, err
	}

	if set["http-port"] {
		cfg.Server.HTTPPort = *flagHTTPPort
	}
	if set["grpc-port"] {
		cfg.Server.GRPCPort = *flagGRPCPort
	}

	if err := applyLevel(level, cfg.Logging.Level); err != nil {
		return exitConfig, err
	}

	if cfg.Logging.File != "" {
		slog.SetDefault(logger.New(environment,
			logger.WithLevel(level),
			logger.WithLogToFile(true),
			logger.WithLogFile(cfg.Logging.File),
		))
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Fetch and load run before any listener is opened.
	modelsPath := cfg.ModelsPath()
	if err := artifact.EnsureModelsDirectory(modelsPath); err != nil {
		return exitRuntime, err
	}

	artifactPath, cached, err := artifact.Fetch(ctx, &cfg.Model, modelsPath, &http.Client{Timeout: downloadTimeout})
	if err != nil {
		return exitRuntime, fetchError(&cfg.Model, err)
	}

	backends := backend.NewRegistry()
	defer func() {
		if err := backends.Close(); err != nil {
			slog.Warn("Failed to close backends", "error", err)
		}
	}()

	ort, err := onnx.New(cfg.Inference.LibraryPath, backend.Device(cfg.Inference.Device))
	if err != nil {
		return exitRuntime, err
	}
	if err := backends.Register(ort); err != nil {
		return exitRuntime, err
	}

	instance, err := model.NewLoader(backends).LoadFile(ctx, artifactPath, cfg.Inference.Workers)
	if err != nil {
		return exitRuntime, err
	}

	m := metrics.New()
	pool, err := inference.NewPool(instance.Sessions, inference.WithObserver(m.ObserveInference))
	if err != nil {
		return exitRuntime, err
	}
	defer func() {
		if err := pool.Close(); err != nil {
			slog.Warn("Failed to close inference pool", "error", err)
		}
	}()

	classifier, err := service.NewClassifier(pool, instance.Manifest, service.WithMaxPixels(cfg.Server.MaxImagePixels))
	if err != nil {
		return exitRuntime, err
	}

	if !serving {
		printSummary(os.Stdout, cfg, instance, cached)
		return exitOK, nil
	}

	if watchable {
		watcher, err := config.NewWatcher(*flagConfigPath, *flagSchemaPath, onReload(cfg, level))
		if err != nil {
			return exitConfig, err
		}
		defer func() { _ = watcher.Close() }()
	}

	if err := serve(ctx, cfg, classifier, instance, m); err != nil {
		return exitRuntime, err
	}

	return exitOK, nil
}

// loadDotEnv loads HERBARIUM_DOTENV, or ./.env, when the file exists.
// parseArgs parses fs from args, letting flags follow positional arguments,
// and returns the positional arguments in order.
func parseArgs(fs *flag.FlagSet, args []string) ([]string, error) {
	var positional []string
	for {
		if err := fs.Parse(args); err != nil {
			return nil, err
		}
		if fs.NArg() == 0 {
			return positional, nil
		}
		positional = append(positional, fs.Arg(0))
		args = fs.Args()[1:]
	}
}

func fetchError(m *config.ModelConfig, err error) error {
	if m.UsesDefaultArtifact() {
		return fmt.Errorf("failed to fetch model artifact from the default release %s (set model.source or %s): %w",
			config.DefaultArtifactURL, envvar.HerbariumArtifactURL, err)
	}
	return fmt.Errorf("failed to fetch model artifact: %w", err)
}

func loadDotEnv() {
	p := os.Getenv(envvar.HerbariumDotEnv)
	if p == "" {
		p = ".env"
	}

	if !xfs.Exists(p) {
		return
	}

	if err := godotenv.Load(p); err != nil {
		slog.Warn("Failed to load dotenv file", "path", p, "error", err)
	}
}

// loadConfig reads the config file when present and falls back to the
// built-in defaults otherwise. An explicitly requested file must exist.
// Environment overrides are applied last.
func loadConfig(configPath, schemaPath string, explicit bool) (*config.Config, bool, error) {
	var (
		cfg       *config.Config
		watchable bool
	)

	switch {
	case xfs.Exists(configPath):
		c, err := config.LoadAndValidate(configPath, schemaPath)
		if err != nil {
			return nil, false, err
		}
		cfg, watchable = c, true
		slog.Info("Config loaded successfully", "config", configPath)
	case explicit:
		return nil, false, fmt.Errorf("config file %s does not exist", configPath)
	default:
		cfg = config.Default()
		slog.Info("No config file found, using defaults", "config", configPath)
	}

	if err := config.ApplyEnv(cfg); err != nil {
		return nil, false, err
	}

	return cfg, watchable, nil
}

func applyLevel(level *slog.LevelVar, s string) error {
	l, err := logger.ParseLevel(s)
	if err != nil {
		return err
	}

	level.Set(l)
	return nil
}

// onReload applies the log level live. Everything else needs a restart.
func onReload(running *config.Config, level *slog.LevelVar) func(*config.Config, error) {
	return func(cfg *config.Config, err error) {
		if err != nil {
			slog.Warn("Keeping previous config", "error", err)
			return
		}

		if err := applyLevel(level, cfg.Logging.Level); err != nil {
			slog.Warn("Ignoring log level", "error", err)
		} else {
			slog.Info("Log level updated", "level", level.Level())
		}

		if cfg.Server != running.Server || cfg.Model.Filename != running.Model.Filename || cfg.Inference != running.Inference {
			slog.Warn("Config changes other than logging.level take effect after a restart")
		}
	}
}

func serve(ctx context.Context, cfg *config.Config, classifier *service.Classifier, instance *model.Instance, m *metrics.Metrics) error {
	index, err := web.Index(cfg.Server.IndexFile)
	if err != nil {
		return fmt.Errorf("failed to read index page: %w", err)
	}

	static, err := web.Static(cfg.Server.StaticDir)
	if err != nil {
		return fmt.Errorf("failed to open static files: %w", err)
	}

	api := httpserver.New(classifier, httpserver.Options{
		Index:          index,
		Static:         static,
		Metrics:        m,
		Instance:       instance,
		Version:        version,
		MaxUploadBytes: cfg.Server.MaxUploadBytes,
	})

	httpSrv := &http.Server{
		Addr:              net.JoinHostPort(cfg.Server.Host, strconv.Itoa(cfg.Server.HTTPPort)),
		Handler:           api.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	var grpcSrv *grpcserver.Server
	if cfg.Server.GRPCPort != 0 {
		grpcSrv = grpcserver.New(classifier, int(cfg.Server.MaxUploadBytes))
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		slog.Info("HTTP server listening", "addr", httpSrv.Addr)
		if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})

	if grpcSrv != nil {
		g.Go(func() error {
			lis, err := net.Listen("tcp", net.JoinHostPort(cfg.Server.Host, strconv.Itoa(cfg.Server.GRPCPort)))
			if err != nil {
				return fmt.Errorf("grpc listener: %w", err)
			}
			if err := grpcSrv.Serve(lis); err != nil {
				return fmt.Errorf("grpc server: %w", err)
			}
			return nil
		})
	}

	g.Go(func() error {
		<-gctx.Done()
		slog.Info("Shutting down", "timeout", cfg.Server.ShutdownTimeout)

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()

		if grpcSrv != nil {
			grpcSrv.Stop(shutdownCtx)
		}

		return httpSrv.Shutdown(shutdownCtx)
	})

	return g.Wait()
}
