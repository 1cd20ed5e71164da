package main

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/redis/go-redis/v9"

	"github.com/watchtowerhq/watchtower-api/internal/api"
	"github.com/watchtowerhq/watchtower-api/internal/cache"
	"github.com/watchtowerhq/watchtower-api/internal/config"
	"github.com/watchtowerhq/watchtower-api/internal/events"
	"github.com/watchtowerhq/watchtower-api/internal/github"
	"github.com/watchtowerhq/watchtower-api/internal/insight"
	"github.com/watchtowerhq/watchtower-api/internal/platform/gemini"
	"github.com/watchtowerhq/watchtower-api/internal/platform/postgres"
	"github.com/watchtowerhq/watchtower-api/internal/schedule"
	"github.com/watchtowerhq/watchtower-api/internal/service"
	"github.com/watchtowerhq/watchtower-api/internal/store"
	"github.com/watchtowerhq/watchtower-api/internal/task"
)

// application holds the long-lived dependencies of the server process.
type application struct {
	config      *config.Config
	logger      *slog.Logger
	db          *sql.DB
	redis       *redis.Client
	reportStore store.ReportStore
	runner      *task.TaskRunner
	scheduler   *schedule.Scheduler
	router      http.Handler
}

// newApplication wires the full dependency graph: database and migrations,
// the GitHub fetcher with its optional Redis cache, the analysis agents,
// stores, the task pipeline, services, and the HTTP router.
func newApplication(cfg *config.Config) (*application, error) {
	logger := slog.Default()

	db, err := setupDatabase(cfg, logger)
	if err != nil {
		return nil, err
	}

	if err := postgres.RunMigrations(db); err != nil {
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	app := &application{
		config: cfg,
		logger: logger,
		db:     db,
	}

	// GitHub response cache. Caching is disabled entirely when no Redis
	// address is configured.
	var responseCache github.ResponseCache
	if cfg.Redis.Addr != "" {
		app.redis = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		responseCache = cache.NewManager(app.redis)
		logger.Info("github response cache enabled", "redis_addr", cfg.Redis.Addr)
	} else {
		logger.Warn("github response cache disabled, every request hits the API")
	}

	githubClient, err := github.NewClient(githubConfig(cfg.GitHub), responseCache, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to create github client: %w", err)
	}

	analyzer, generator, fallbackAnalyzer, fallbackGenerator, err := setupAgents(cfg, logger)
	if err != nil {
		return nil, err
	}

	competitorStore := postgres.NewPostgresCompetitorStore(db, logger)
	reportStore := postgres.NewPostgresReportStore(db, logger)
	taskStore := postgres.NewPostgresTaskStore(db, logger)
	app.reportStore = reportStore

	factory := task.NewReportGenerationTaskFactory(
		reportStore,
		competitorStore,
		githubClient,
		analyzer,
		generator,
		fallbackAnalyzer,
		fallbackGenerator,
		logger,
	)

	app.runner = task.NewTaskRunner(taskStore, factory, runnerConfig(cfg.Task), logger)

	emitter := events.NewInMemoryEventEmitter(logger)
	emitter.RegisterHandler(task.NewTaskFactoryEventHandler(factory, app.runner, logger))

	competitorService, err := service.NewCompetitorService(competitorStore, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to create competitor service: %w", err)
	}

	intelligenceService, err := service.NewIntelligenceService(reportStore, emitter, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to create intelligence service: %w", err)
	}

	if cfg.Schedule.Enabled {
		app.scheduler, err = schedule.NewScheduler(intelligenceService, logger,
			schedule.WithSpec(cfg.Schedule.Spec))
		if err != nil {
			return nil, fmt.Errorf("failed to create scheduler: %w", err)
		}
	}

	app.router = api.NewRouter(api.RouterDeps{
		CompetitorService:   competitorService,
		IntelligenceService: intelligenceService,
	})

	return app, nil
}

// setupDatabase establishes the database connection and configures the pool.
func setupDatabase(cfg *config.Config, logger *slog.Logger) (*sql.DB, error) {
	db, err := sql.Open("pgx", cfg.Database.URL)
	if err != nil {
		return nil, fmt.Errorf("failed to open database connection: %w", err)
	}

	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := db.PingContext(ctx); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	logger.Info("database connection established")
	return db, nil
}

// setupAgents selects the analysis pipeline. With a Gemini key configured
// the LLM agent is primary and the heuristic analyzer is the fallback;
// without one the heuristic analyzer runs alone.
func setupAgents(cfg *config.Config, logger *slog.Logger) (
	insight.Analyzer, insight.ReportGenerator, insight.Analyzer, insight.ReportGenerator, error,
) {
	heuristic, err := insight.NewHeuristicAnalyzer(logger)
	if err != nil {
		return nil, nil, nil, nil, fmt.Errorf("failed to create heuristic analyzer: %w", err)
	}

	if cfg.LLM.GeminiAPIKey == "" {
		logger.Warn("no gemini api key configured, using heuristic analysis only")
		return heuristic, heuristic, nil, nil, nil
	}

	agent, err := gemini.NewAgent(context.Background(), logger, cfg.LLM)
	if err != nil {
		return nil, nil, nil, nil, fmt.Errorf("failed to create gemini agent: %w", err)
	}

	logger.Info("gemini agent enabled", "model", cfg.LLM.ModelName)
	return agent, agent, heuristic, heuristic, nil
}

// githubConfig translates the loaded configuration into the client config.
func githubConfig(cfg config.GitHubConfig) github.Config {
	out := github.DefaultConfig(cfg.Token)
	out.BaseURL = cfg.BaseURL
	out.UserAgent = cfg.UserAgent
	out.IssueWindow = time.Duration(cfg.IssueWindowDays) * 24 * time.Hour
	out.MaxReleases = cfg.MaxReleases
	out.IssuesPerPage = cfg.IssuesPerPage
	out.MaxRetries = cfg.MaxRetries
	out.Timeout = time.Duration(cfg.TimeoutSeconds) * time.Second
	return out
}

// runnerConfig translates the loaded configuration into the runner config,
// keeping the defaults for anything unset.
func runnerConfig(cfg config.TaskConfig) task.TaskRunnerConfig {
	out := task.DefaultTaskRunnerConfig()
	if cfg.WorkerCount > 0 {
		out.WorkerCount = cfg.WorkerCount
	}
	if cfg.QueueSize > 0 {
		out.QueueSize = cfg.QueueSize
	}
	if cfg.StuckTaskAgeMinutes > 0 {
		out.StuckTaskAge = time.Duration(cfg.StuckTaskAgeMinutes) * time.Minute
	}
	if cfg.StuckCheckIntMinutes > 0 {
		out.StuckTaskCheckInterval = time.Duration(cfg.StuckCheckIntMinutes) * time.Minute
	}
	return out
}

// Cleanup releases the application's long-lived resources.
func (app *application) Cleanup() {
	if app.redis != nil {
		if err := app.redis.Close(); err != nil {
			app.logger.Error("failed to close redis client", "error", err)
		}
	}
	if app.db != nil {
		if err := app.db.Close(); err != nil {
			app.logger.Error("failed to close database connection", "error", err)
		}
	}
}
