// nutrisense: nutrition resolution service.
// Resolves foods, meal photos and advice questions into nutrient profiles
// by combining a composition database with generative models.

package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"net"
	"os"
	"os/signal"
	"syscall"

	"github.com/apex/log"
	"github.com/joho/godotenv"

	"github.com/matiasleandrokruk/nutrisense/internal/api"
	"github.com/matiasleandrokruk/nutrisense/internal/domain/nutrition"
	"github.com/matiasleandrokruk/nutrisense/internal/infra/config"
	"github.com/matiasleandrokruk/nutrisense/internal/infra/fdc"
	"github.com/matiasleandrokruk/nutrisense/internal/infra/llm"
	"github.com/matiasleandrokruk/nutrisense/internal/infra/logging"
	"github.com/matiasleandrokruk/nutrisense/internal/infra/metrics"
	"github.com/matiasleandrokruk/nutrisense/internal/infra/sqlite"
	"github.com/matiasleandrokruk/nutrisense/internal/server"
	"github.com/matiasleandrokruk/nutrisense/internal/version"
)

func main() {
	os.Exit(run(os.Args[1:], os.Stdout))
}

func run(args []string, out io.Writer) int {
	fs := flag.NewFlagSet("nutrisense", flag.ContinueOnError)
	fs.SetOutput(io.Discard)

	showVersion := fs.Bool("version", false, "Show version information")
	showHelp := fs.Bool("help", false, "Show help")

	if err := fs.Parse(args); err != nil {
		return 2
	}

	if *showVersion {
		fmt.Fprintln(out, version.String()) //nolint:errcheck
		return 0
	}

	if *showHelp {
		printHelp(out)
		return 0
	}

	rest := fs.Args()
	if len(rest) == 0 {
		fmt.Fprintln(out, version.String()) //nolint:errcheck
		return 0
	}

	switch rest[0] {
	case "serve":
		ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()
		return serve(ctx, rest[1:], out)
	case "migrate":
		return migrate(context.Background(), out)
	default:
		fmt.Fprintf(out, "unknown command %q\n\n", rest[0]) //nolint:errcheck
		printHelp(out)
		return 2
	}
}

func printHelp(out io.Writer) {
	helpText := `nutrisense - nutrition resolution service

Usage:
  nutrisense [options] [command]

Options:
  --version    Show version information
  --help       Show this help message

Commands:
  serve        Start the HTTP server
  migrate      Apply composition-table migrations to SQLITE_PATH

Examples:
  nutrisense --version
  nutrisense serve --port 8080
  COMPOSITION_SOURCE=sqlite SQLITE_PATH=./foods.db nutrisense migrate`
	fmt.Fprintln(out, helpText) //nolint:errcheck
}

// loadConfig reads .env (when present) and the configuration.
func loadConfig() (config.Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return config.Config{}, fmt.Errorf("load .env: %w", err)
	}
	return config.Load()
}

func serve(ctx context.Context, args []string, out io.Writer) int {
	flags := flag.NewFlagSet("serve", flag.ContinueOnError)
	flags.SetOutput(io.Discard)
	port := flags.Int("port", 0, "Listen port (overrides HTTP_PORT)")
	if err := flags.Parse(args); err != nil {
		return 2
	}

	bootLog, _ := logging.New("info", logging.FormatText, out)

	cfg, err := loadConfig()
	if err == nil {
		if *port > 0 {
			cfg.HTTPPort = *port
		}
		err = cfg.Validate()
	}
	if err != nil {
		bootLog.WithError(err).Error("configuration error")
		return 1
	}

	logger, err := logging.New(cfg.LogLevel, cfg.LogFormat, out)
	if err != nil {
		bootLog.WithError(err).Error("configuration error")
		return 1
	}

	srv, err := buildServer(ctx, cfg, logger)
	if err != nil {
		logger.WithError(err).Error("startup failed")
		return 1
	}

	ln, err := net.Listen("tcp", srv.Addr())
	if err != nil {
		logger.WithError(err).Error("listen failed")
		return 1
	}
	if err := srv.Run(ctx, ln); err != nil {
		logger.WithError(err).Error("server stopped")
		return 1
	}
	return 0
}

// buildServer wires providers, the resolver and the router.
func buildServer(ctx context.Context, cfg config.Config, logger log.Interface) (*server.Server, error) {
	strategy, err := nutrition.ParseVisionStrategy(cfg.VisionStrategy)
	if err != nil {
		return nil, err
	}
	provider, visionModel, err := buildLLM(ctx, cfg)
	if err != nil {
		return nil, err
	}
	composition, closer, err := buildComposition(ctx, cfg)
	if err != nil {
		return nil, err
	}

	m := metrics.New()
	opts := nutrition.Options{
		Timeout:      cfg.UpstreamTimeout,
		RetryBackoff: cfg.RetryBackoff,
		Logger:       logger,
		Recorder:     m,
	}
	resolver := nutrition.NewResolver(nutrition.ResolverConfig{
		Composition: composition,
		Estimator:   nutrition.NewTextEstimator(provider, opts),
		Vision:      nutrition.NewVisionEstimator(provider, visionModel, opts),
		Advisor:     nutrition.NewAdvisor(provider, opts),
		Strategy:    strategy,
		Options:     opts,
	})

	router, err := api.NewRouter(api.Deps{
		Service:      resolver,
		Health:       provider,
		Metrics:      m,
		Logger:       logger,
		MaxBodyBytes: cfg.MaxBodyBytes,
	})
	if err != nil {
		return nil, err
	}

	srvCfg := server.DefaultConfig()
	srvCfg.Host, srvCfg.Port = cfg.HTTPHost, cfg.HTTPPort

	var closers []io.Closer
	if closer != nil {
		closers = append(closers, closer)
	}

	logger.WithFields(log.Fields{
		"llm":         provider.ModelInfo().Provider,
		"model":       provider.ModelInfo().ID,
		"composition": composition.Name(),
		"strategy":    string(strategy),
	}).Info("resolver ready")
	return server.NewServer(router, srvCfg, logger, closers...), nil
}

// buildLLM registers the configured provider on a Router and returns it,
// plus the model override for vision requests ("" keeps the provider's model).
func buildLLM(ctx context.Context, cfg config.Config) (*llm.Router, string, error) {
	router := llm.NewRouter(nil, cfg.LLMProvider)
	switch cfg.LLMProvider {
	case config.ProviderGemini:
		g, err := llm.NewGeminiProvider(ctx, llm.GeminiConfig{
			APIKey:  cfg.GeminiAPIKey,
			Model:   cfg.GeminiModel,
			BaseURL: cfg.GeminiBaseURL,
		})
		if err != nil {
			return nil, "", err
		}
		router.Register(config.ProviderGemini, g)
		return router, "", nil
	case config.ProviderOllama:
		router.Register(config.ProviderOllama, llm.NewOllamaProvider(cfg.OllamaBaseURL, cfg.OllamaChatModel))
		return router, cfg.OllamaVisionModel, nil
	default:
		return nil, "", fmt.Errorf("%w: unknown LLM provider %q", config.ErrInvalid, cfg.LLMProvider)
	}
}

// buildComposition returns the composition source and, for SQLite, the
// database to close on shutdown.
func buildComposition(ctx context.Context, cfg config.Config) (nutrition.CompositionSource, io.Closer, error) {
	switch cfg.CompositionSource {
	case config.SourceFDC:
		return fdc.NewClient(cfg.FDCBaseURL, cfg.FDCAPIKey), nil, nil
	case config.SourceSQLite:
		db, err := sqlite.NewDB(ctx, cfg.SQLitePath)
		if err != nil {
			return nil, nil, err
		}
		if err := sqlite.MigrateUp(ctx, db); err != nil {
			db.Close() //nolint:errcheck
			return nil, nil, err
		}
		return sqlite.NewCompositionStore(db), db, nil
	default:
		return nil, nil, fmt.Errorf("%w: unknown composition source %q", config.ErrInvalid, cfg.CompositionSource)
	}
}

// migrate applies the embedded migrations to SQLITE_PATH and reports the
// resulting schema version.
func migrate(ctx context.Context, out io.Writer) int {
	logger, _ := logging.New("info", logging.FormatText, out)

	cfg, err := loadConfig()
	if err != nil {
		logger.WithError(err).Error("configuration error")
		return 1
	}
	if cfg.SQLitePath == "" || cfg.SQLitePath == sqlite.MemoryPath {
		logger.Error("migrate needs SQLITE_PATH to name a database file")
		return 1
	}

	db, err := sqlite.NewDB(ctx, cfg.SQLitePath)
	if err != nil {
		logger.WithError(err).Error("open database")
		return 1
	}
	defer db.Close() //nolint:errcheck

	if err := sqlite.MigrateUp(ctx, db); err != nil {
		logger.WithError(err).Error("migrate")
		return 1
	}
	v, err := sqlite.MigrationVersion(ctx, db)
	if err != nil {
		logger.WithError(err).Error("read schema version")
		return 1
	}
	logger.WithFields(log.Fields{"path": cfg.SQLitePath, "version": v}).Info("migrations applied")
	return 0
}
