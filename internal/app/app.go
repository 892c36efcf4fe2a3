package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"gorm.io/gorm"

	"github.com/kitaplan/kitaplan-backend/internal/config"
	"github.com/kitaplan/kitaplan-backend/internal/data/repos"
	"github.com/kitaplan/kitaplan-backend/internal/db"
	"github.com/kitaplan/kitaplan-backend/internal/gateway/openrouter"
	"github.com/kitaplan/kitaplan-backend/internal/http/handlers"
	"github.com/kitaplan/kitaplan-backend/internal/metagen"
	"github.com/kitaplan/kitaplan-backend/internal/observability"
	"github.com/kitaplan/kitaplan-backend/internal/platform/logger"
	"github.com/kitaplan/kitaplan-backend/internal/server"
)

type App struct {
	Log    *logger.Logger
	Config *config.Config

	server       *http.Server
	otelShutdown func(context.Context) error
}

func New() (*App, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}

	log, err := logger.New(cfg.Env)
	if err != nil {
		return nil, fmt.Errorf("init logger: %w", err)
	}

	otelShutdown := observability.Init(context.Background(), log, cfg.Env)

	gdb, err := db.Open(cfg.Postgres, log)
	if err != nil {
		return nil, err
	}

	pipeline, err := buildPipeline(cfg, gdb, log)
	if err != nil {
		return nil, err
	}

	router := server.NewRouter(server.RouterConfig{
		Log:             log,
		MaxRequestBytes: cfg.HTTP.MaxRequestBytes,
		MetadataHandler: handlers.NewMetadataHandler(pipeline, log),
		HealthHandler:   handlers.NewHealthHandler(),
	})

	srv := &http.Server{
		Addr:              cfg.HTTP.Addr,
		Handler:           router,
		ReadHeaderTimeout: cfg.HTTP.ReadHeaderTimeout.Duration,
		IdleTimeout:       cfg.HTTP.IdleTimeout.Duration,
	}

	return &App{
		Log:          log,
		Config:       cfg,
		server:       srv,
		otelShutdown: otelShutdown,
	}, nil
}

// buildPipeline assembles the generation pipeline. The execution path (mock
// or real) and the validation policy are fixed here, once per process.
func buildPipeline(cfg *config.Config, gdb *gorm.DB, log *logger.Logger) (*metagen.Pipeline, error) {
	emit := metagen.NewLogEmitter(log)
	if observability.Enabled() {
		emit = metagen.NewMultiEmitter(emit, observability.NewTraceEmitter())
	}

	builder, err := metagen.NewBuilder(cfg.Generation.PromptTemplatePath)
	if err != nil {
		return nil, err
	}

	loader := metagen.NewLoader(
		repos.NewCurriculumReferenceRepo(gdb, log),
		repos.NewEducationalModuleRepo(gdb, log),
		log,
	)

	var gen metagen.Generator
	switch cfg.Generation.Mode {
	case config.ModeMock:
		gen = metagen.NewMockGenerator()
	case config.ModeReal:
		gw, err := openrouter.New(cfg.Gateway)
		if err != nil {
			return nil, err
		}
		pricing := metagen.NewPricingCache(gw, cfg.Pricing.TTL.Duration, log)
		gen = metagen.NewLLMGenerator(gw, pricing, cfg.Generation, emit, log)
	default:
		return nil, fmt.Errorf("unsupported generation mode %q", cfg.Generation.Mode)
	}

	var validator metagen.Validator
	switch cfg.Generation.Validation {
	case config.ValidationStrict:
		validator = metagen.NewStrictValidator(emit)
	default:
		validator = metagen.NewLenientValidator(emit)
	}

	return metagen.NewPipeline(loader, builder, gen, validator, emit, cfg.Generation.MaxRetries, log), nil
}

func (a *App) Run(ctx context.Context) error {
	a.Log.Info("server listening",
		"addr", a.Config.HTTP.Addr,
		"mode", a.Config.Generation.Mode,
		"validation", a.Config.Generation.Validation,
	)

	errCh := make(chan error, 1)
	go func() {
		errCh <- a.server.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), a.Config.HTTP.ShutdownTimeout.Duration)
		defer cancel()
		_ = a.server.Shutdown(shutdownCtx)
		if a.otelShutdown != nil {
			_ = a.otelShutdown(shutdownCtx)
		}
		return nil
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}
