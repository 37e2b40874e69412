// Package main is the entry point for the BlackReaper progression engine.
//
// The engine owns the RC cell economy of the app: the per-user ledger,
// reward grants, achievement unlocks and battles. All state changes go
// through optimistic ledger transactions; projections (activity feed,
// leaderboard, notifications) follow from domain events and are best-effort.
//
// The layout follows Clean Architecture and DDD:
//   - Domain: ledger, progression, achievements, battles
//   - Application: use case orchestration (Commands/Queries/EventHandlers)
//   - Infrastructure: PostgreSQL, Redis, event bus, webhook delivery
//   - Interface: REST API
package main

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/blackreaper-app/blackreaper-engine/config"

	"github.com/blackreaper-app/blackreaper-engine/internal/application/command"
	"github.com/blackreaper-app/blackreaper-engine/internal/application/eventhandler"
	"github.com/blackreaper-app/blackreaper-engine/internal/application/query"

	"github.com/blackreaper-app/blackreaper-engine/internal/domain/achievement"
	"github.com/blackreaper-app/blackreaper-engine/internal/domain/activity"
	"github.com/blackreaper-app/blackreaper-engine/internal/domain/battle"
	"github.com/blackreaper-app/blackreaper-engine/internal/domain/notification"
	"github.com/blackreaper-app/blackreaper-engine/internal/domain/progress"
	"github.com/blackreaper-app/blackreaper-engine/internal/domain/shared"

	"github.com/blackreaper-app/blackreaper-engine/internal/infrastructure/external/webhook"
	"github.com/blackreaper-app/blackreaper-engine/internal/infrastructure/messaging"
	"github.com/blackreaper-app/blackreaper-engine/internal/infrastructure/persistence/memory"
	"github.com/blackreaper-app/blackreaper-engine/internal/infrastructure/persistence/postgres"
	"github.com/blackreaper-app/blackreaper-engine/internal/infrastructure/persistence/redis"
	"github.com/blackreaper-app/blackreaper-engine/internal/infrastructure/scheduler"
	"github.com/blackreaper-app/blackreaper-engine/internal/infrastructure/scheduler/jobs"
	"github.com/blackreaper-app/blackreaper-engine/internal/infrastructure/seed"

	httpserver "github.com/blackreaper-app/blackreaper-engine/internal/interface/http"
	"github.com/blackreaper-app/blackreaper-engine/internal/interface/http/handlers"

	"github.com/blackreaper-app/blackreaper-engine/pkg/logger"
)

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := run(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "fatal error: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context) error {
	// ─────────────────────────────────────────────────────────────────────────
	// 1. CONFIGURATION
	// ─────────────────────────────────────────────────────────────────────────
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	// ─────────────────────────────────────────────────────────────────────────
	// 2. LOGGING
	// ─────────────────────────────────────────────────────────────────────────
	logOpts := logger.DefaultOptions()
	logOpts.Level = logger.ParseLevel(cfg.Observability.LogLevel)
	if cfg.App.Debug {
		logOpts.Level = logger.LevelDebug
	}
	log := logger.New(logOpts)

	log.Info("starting BlackReaper engine",
		logger.String("env", string(cfg.App.Environment)),
		logger.String("version", cfg.App.Version),
		logger.Bool("debug", cfg.App.Debug),
	)

	// ─────────────────────────────────────────────────────────────────────────
	// 3. PERSISTENCE
	// ─────────────────────────────────────────────────────────────────────────
	var (
		ledger       progress.Ledger
		battleRepo   battle.Repository
		activityRepo activity.Repository
		dbConn       *postgres.Connection
	)

	useMemory := cfg.Database.InMemory || (cfg.Database.URL == "" && cfg.IsDevelopment())

	if useMemory {
		log.Warn("using in-memory persistence, state will not survive restarts")
		ledger = memory.NewLedger()
		battleRepo = memory.NewBattleRepository()
		activityRepo = memory.NewActivityRepository()
	} else {
		log.Info("connecting to database")
		dbConn, err = postgres.NewConnectionFromURL(ctx, cfg.Database.URL)
		if err != nil {
			return fmt.Errorf("failed to connect to database: %w", err)
		}
		defer func() {
			log.Info("closing database connection")
			dbConn.Close()
		}()

		if err := dbConn.Ping(ctx); err != nil {
			return fmt.Errorf("database ping failed: %w", err)
		}

		if cfg.Database.MigrateOnStart {
			log.Info("running database migrations")
			migrator := postgres.NewMigrator(dbConn)
			if err := migrator.Migrate(ctx); err != nil {
				return fmt.Errorf("failed to run migrations: %w", err)
			}
		}

		if cfg.Database.SeedOnStart {
			log.Info("seeding reference catalogs")
			if err := seed.NewSeeder(dbConn, log).Run(ctx); err != nil {
				return fmt.Errorf("failed to seed catalogs: %w", err)
			}
		}

		ledger = postgres.NewLedgerRepository(dbConn)
		battleRepo = postgres.NewBattleRepository(dbConn)
		activityRepo = postgres.NewActivityRepository(dbConn)
	}

	// ─────────────────────────────────────────────────────────────────────────
	// 4. REDIS (optional)
	// ─────────────────────────────────────────────────────────────────────────
	var (
		redisCache       *redis.Cache
		leaderboardCache *redis.LeaderboardCache
	)

	if !cfg.Redis.Disabled {
		log.Info("connecting to Redis")
		redisCfg := redis.DefaultConfig()
		redisCfg.Host = cfg.Redis.Host
		redisCfg.Port = cfg.Redis.Port
		redisCfg.Password = cfg.Redis.Password
		redisCfg.DB = cfg.Redis.DB
		redisCfg.PoolSize = cfg.Redis.PoolSize
		redisCfg.MinIdleConns = cfg.Redis.MinIdleConns
		redisCfg.DialTimeout = cfg.Redis.DialTimeout
		redisCfg.ReadTimeout = cfg.Redis.ReadTimeout
		redisCfg.WriteTimeout = cfg.Redis.WriteTimeout

		redisCache, err = redis.NewCache(redisCfg)
		if err != nil {
			log.Warn("failed to connect to Redis, leaderboard disabled", logger.Err(err))
			redisCache = nil
		} else {
			defer redisCache.Close()
			leaderboardCache = redis.NewLeaderboardCache(redisCache)
		}
	}

	// ─────────────────────────────────────────────────────────────────────────
	// 5. EVENT BUS
	// ─────────────────────────────────────────────────────────────────────────
	busCfg := messaging.DefaultInMemoryEventBusConfig()
	busCfg.AsyncMode = cfg.EventBus.Async
	busCfg.WorkerPoolSize = cfg.EventBus.WorkerPool
	busCfg.Logger = log

	var bus interface {
		shared.EventPublisher
		shared.EventSubscriber
		Close() error
	}

	useBridge := redisCache != nil &&
		cfg.Features.IsEnabled(config.FeatureExperimentalEventBridge, nil)
	if useBridge {
		redisBus, err := messaging.NewRedisEventBus(messaging.RedisEventBusConfig{
			Client:         redis.NewEventBridge(redisCache),
			ChannelName:    cfg.EventBus.Channel,
			LocalBusConfig: busCfg,
			Logger:         log,
		})
		if err != nil {
			return fmt.Errorf("failed to create event bus: %w", err)
		}
		bus = redisBus
	} else {
		bus = messaging.NewInMemoryEventBus(busCfg)
	}
	defer func() {
		log.Info("closing event bus")
		_ = bus.Close()
	}()

	// ─────────────────────────────────────────────────────────────────────────
	// 6. REFERENCE CATALOGS
	// A failed load degrades the feature instead of crashing: the evaluator
	// and resolver accept nil catalogs and report unavailability per call.
	// ─────────────────────────────────────────────────────────────────────────
	var (
		achievementCatalog *achievement.Catalog
		opponentCatalog    *battle.Catalog
	)

	if useMemory {
		achievementCatalog, err = seed.DefaultAchievementCatalog()
		if err != nil {
			return fmt.Errorf("built-in achievement catalog invalid: %w", err)
		}
		opponentCatalog, err = seed.DefaultOpponentCatalog()
		if err != nil {
			return fmt.Errorf("built-in opponent catalog invalid: %w", err)
		}
	} else {
		catalogRepo := postgres.NewCatalogRepository(dbConn)

		achievementCatalog, err = catalogRepo.LoadAchievements(ctx)
		if err != nil {
			log.Error("achievement catalog load failed, achievements disabled", logger.Err(err))
			achievementCatalog = nil
		}

		opponentCatalog, err = catalogRepo.LoadOpponents(ctx)
		if err != nil {
			log.Error("opponent catalog load failed, battles disabled", logger.Err(err))
			opponentCatalog = nil
		}
	}

	if !cfg.Features.IsEnabled(config.FeatureAchievements, nil) {
		log.Info("achievements disabled by feature flag")
		achievementCatalog = nil
	}
	if !cfg.Features.IsEnabled(config.FeatureBattles, nil) {
		log.Info("battles disabled by feature flag")
		opponentCatalog = nil
	}

	// ─────────────────────────────────────────────────────────────────────────
	// 7. DOMAIN SERVICES
	// ─────────────────────────────────────────────────────────────────────────
	engine := progress.NewEngine(ledger, bus, log)

	evaluator := achievement.NewEvaluator(achievementCatalog, ledger, engine, bus, log)
	engine.SetObserver(evaluator)

	rng := rand.New(rand.NewSource(time.Now().UnixNano()))
	resolver := battle.NewResolver(opponentCatalog, engine, battleRepo, bus, battle.DefaultTuning(), rng, log)

	// ─────────────────────────────────────────────────────────────────────────
	// 8. APPLICATION LAYER
	// ─────────────────────────────────────────────────────────────────────────
	completeTask := command.NewCompleteTaskHandler(engine, cfg.Economy.TaskRewardRC, log)
	finishPomodoro := command.NewFinishPomodoroHandler(engine, log)
	recordJournal := command.NewRecordJournalEntryHandler(engine, log)
	recordLogin := command.NewRecordLoginHandler(engine, log)
	fightBattle := command.NewFightBattleHandler(resolver, log)

	getProgress := query.NewGetProgressHandler(ledger, achievementCatalog)
	getBattleHistory := query.NewGetBattleHistoryHandler(battleRepo)
	getActivityFeed := query.NewGetActivityFeedHandler(activityRepo)

	var getLeaderboard *query.GetLeaderboardHandler
	if leaderboardCache != nil && cfg.Features.IsEnabled(config.FeatureLeaderboard, nil) {
		getLeaderboard = query.NewGetLeaderboardHandler(leaderboardCache)
	}

	// ─────────────────────────────────────────────────────────────────────────
	// 9. EVENT HANDLERS (best-effort projections)
	// ─────────────────────────────────────────────────────────────────────────
	if cfg.Features.IsEnabled(config.FeatureActivityFeed, nil) {
		if err := eventhandler.NewActivityLogger(activityRepo, log).Register(bus); err != nil {
			return fmt.Errorf("failed to register activity logger: %w", err)
		}
	}

	if leaderboardCache != nil && cfg.Features.IsEnabled(config.FeatureLeaderboard, nil) {
		if err := eventhandler.NewLeaderboardProjector(leaderboardCache, log).Register(bus); err != nil {
			return fmt.Errorf("failed to register leaderboard projector: %w", err)
		}
	}

	var sender notification.Notifier
	if cfg.Webhook.URL != "" {
		sender = webhook.NewClient(webhook.ClientConfig{
			URL:       cfg.Webhook.URL,
			AuthToken: cfg.Webhook.AuthToken,
			Timeout:   cfg.Webhook.Timeout,
		}, log)
		if err := eventhandler.NewNotifierHandler(sender, log).Register(bus); err != nil {
			return fmt.Errorf("failed to register notifier: %w", err)
		}
	}

	// ─────────────────────────────────────────────────────────────────────────
	// 10. MAINTENANCE JOBS
	// ─────────────────────────────────────────────────────────────────────────
	if cfg.Scheduler.Enabled {
		sched := scheduler.New(log)

		balances, _ := ledger.(jobs.BalanceSource)
		if balances != nil && leaderboardCache != nil && cfg.Features.IsEnabled(config.FeatureLeaderboard, nil) {
			job := jobs.NewRebuildLeaderboard(balances, leaderboardCache, log)
			if err := sched.Register(job, scheduler.Every(cfg.Scheduler.LeaderboardRebuildInterval)); err != nil {
				return fmt.Errorf("failed to register leaderboard rebuild: %w", err)
			}
		}
		if balances != nil && sender != nil && cfg.Features.IsEnabled(config.FeatureActivityFeed, nil) {
			job := jobs.NewDailyDigest(balances, activityRepo, sender, log)
			if err := sched.Register(job, scheduler.DailyAt(cfg.Scheduler.DigestHour, 0)); err != nil {
				return fmt.Errorf("failed to register daily digest: %w", err)
			}
		}

		if err := sched.Start(ctx); err != nil {
			return fmt.Errorf("failed to start scheduler: %w", err)
		}
		defer func() {
			log.Info("stopping scheduler")
			_ = sched.Stop()
		}()
	}

	// ─────────────────────────────────────────────────────────────────────────
	// 11. HTTP SERVER
	// ─────────────────────────────────────────────────────────────────────────
	health := handlers.NewCompositeHealthChecker(cfg.App.Version)
	if dbConn != nil {
		health.AddCheck("database", handlers.NewDatabaseCheck(dbConn))
	}
	if redisCache != nil {
		health.AddCheck("cache", handlers.NewCacheCheck(redisCache))
	}

	httpCfg := httpserver.DefaultConfig()
	httpCfg.Host = cfg.HTTP.Host
	httpCfg.Port = cfg.HTTP.Port
	httpCfg.ReadTimeout = cfg.HTTP.ReadTimeout
	httpCfg.WriteTimeout = cfg.HTTP.WriteTimeout
	httpCfg.IdleTimeout = cfg.HTTP.IdleTimeout
	httpCfg.RequestTimeout = cfg.HTTP.RequestTimeout
	httpCfg.EnableCORS = cfg.HTTP.EnableCORS
	httpCfg.AllowedOrigins = cfg.HTTP.AllowedOrigins
	httpCfg.RateLimitPerMinute = cfg.HTTP.RateLimitPerMinute
	httpCfg.APIKeyHeader = cfg.HTTP.APIKeyHeader
	httpCfg.APIKeys = cfg.HTTP.APIKeys

	server := httpserver.NewServer(httpCfg, httpserver.Dependencies{
		CompleteTask:     completeTask,
		FinishPomodoro:   finishPomodoro,
		RecordJournal:    recordJournal,
		RecordLogin:      recordLogin,
		FightBattle:      fightBattle,
		GetProgress:      getProgress,
		GetBattleHistory: getBattleHistory,
		GetActivityFeed:  getActivityFeed,
		GetLeaderboard:   getLeaderboard,
		Catalogs: catalogProvider{
			achievements: achievementCatalog,
			opponents:    opponentCatalog,
		},
		Logger:        log,
		HealthChecker: health,
	})

	errCh := make(chan error, 1)
	go func() {
		log.Info("starting HTTP server", logger.String("address", server.Address()))
		if err := server.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- fmt.Errorf("http server error: %w", err)
		}
	}()

	// ─────────────────────────────────────────────────────────────────────────
	// 12. GRACEFUL SHUTDOWN
	// ─────────────────────────────────────────────────────────────────────────
	log.Info("BlackReaper engine is running",
		logger.String("address", server.Address()),
		logger.Bool("achievements", evaluator.Enabled()),
		logger.Bool("battles", resolver.Enabled()),
		logger.Bool("leaderboard", getLeaderboard != nil),
	)

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM, syscall.SIGHUP)

	select {
	case sig := <-sigCh:
		log.Info("received shutdown signal", logger.String("signal", sig.String()))
	case err := <-errCh:
		log.Error("service error", logger.Err(err))
		return err
	case <-ctx.Done():
		log.Info("context cancelled")
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.App.ShutdownTimeout)
	defer shutdownCancel()

	log.Info("stopping HTTP server")
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error("failed to stop HTTP server gracefully", logger.Err(err))
		return err
	}

	// Event bus, Redis and database close via defers.
	log.Info("shutdown completed")
	return nil
}

// catalogProvider exposes the loaded reference catalogs to the HTTP layer.
// A nil catalog renders the corresponding feature as unavailable.
type catalogProvider struct {
	achievements *achievement.Catalog
	opponents    *battle.Catalog
}

func (p catalogProvider) Achievements() *achievement.Catalog { return p.achievements }
func (p catalogProvider) Opponents() *battle.Catalog         { return p.opponents }
