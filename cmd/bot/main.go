// Package main - точка входа трекера вокальной практики.
//
// Бот ведёт недельный журнал отметок небольшой вокальной группы: три
// слота занятий в неделю на участника, строго по порядку, не больше
// одной отметки в день. Вокруг журнала - рейтинг, серии полных недель,
// геймификация и персональные напоминания.
//
// Архитектура следует принципам Clean Architecture и DDD:
// - Domain: чистая бизнес-логика без внешних зависимостей
// - Application: оркестрация use cases (Commands/Queries/Events)
// - Infrastructure: репозитории, планировщик, внешние API
//
// Диспетчер команд чата - внешний компонент: он импортирует модуль и
// транслирует каждую команду в вызов обработчика из application.App.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/vocal-hub/vocal-practice-hub/config"
	"github.com/vocal-hub/vocal-practice-hub/internal/application"
	"github.com/vocal-hub/vocal-practice-hub/internal/application/command"
	"github.com/vocal-hub/vocal-practice-hub/internal/application/query"
	"github.com/vocal-hub/vocal-practice-hub/internal/domain/gamification"
	"github.com/vocal-hub/vocal-practice-hub/internal/domain/member"
	"github.com/vocal-hub/vocal-practice-hub/internal/domain/program"
	"github.com/vocal-hub/vocal-practice-hub/internal/domain/reminder"
	"github.com/vocal-hub/vocal-practice-hub/internal/domain/shared"
	"github.com/vocal-hub/vocal-practice-hub/internal/infrastructure/external/sheets"
	"github.com/vocal-hub/vocal-practice-hub/internal/infrastructure/external/telegram"
	"github.com/vocal-hub/vocal-practice-hub/internal/infrastructure/messaging"
	"github.com/vocal-hub/vocal-practice-hub/internal/infrastructure/persistence/postgres"
	"github.com/vocal-hub/vocal-practice-hub/internal/infrastructure/persistence/redis"
	"github.com/vocal-hub/vocal-practice-hub/internal/infrastructure/scheduler"
	"github.com/vocal-hub/vocal-practice-hub/internal/infrastructure/scheduler/jobs"
)

// eventBus is the slice of the bus surface main cares about. Both the
// in-memory bus and the Redis-backed bus satisfy it.
type eventBus interface {
	shared.EventPublisher
	Subscribe(eventType shared.EventType, handler shared.EventHandler) error
	Close() error
}

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
	// 1. ЗАГРУЗКА КОНФИГУРАЦИИ
	// ─────────────────────────────────────────────────────────────────────────
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	// ─────────────────────────────────────────────────────────────────────────
	// 2. НАСТРОЙКА ЛОГИРОВАНИЯ
	// ─────────────────────────────────────────────────────────────────────────
	log := setupLogger(cfg)
	log.Info("starting vocal practice hub",
		"env", string(cfg.App.Environment),
		"version", cfg.App.Version,
		"timezone", cfg.App.Timezone,
		"roster_size", len(cfg.Roster.Names),
	)

	// ─────────────────────────────────────────────────────────────────────────
	// 3. ПОДКЛЮЧЕНИЕ К БАЗЕ ДАННЫХ
	// ─────────────────────────────────────────────────────────────────────────
	log.Info("connecting to database...")
	dbConn, err := postgres.NewConnectionFromURL(ctx, cfg.Database.URL)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer func() {
		log.Info("closing database connection...")
		dbConn.Close()
	}()

	if err := dbConn.Ping(ctx); err != nil {
		return fmt.Errorf("database ping failed: %w", err)
	}
	log.Info("database connection established")

	// ─────────────────────────────────────────────────────────────────────────
	// 4. МИГРАЦИИ
	// ─────────────────────────────────────────────────────────────────────────
	log.Info("running database migrations...")
	migrator := postgres.NewMigrator(dbConn)
	if err := migrator.Migrate(ctx); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	status, err := migrator.Status(ctx)
	if err != nil {
		log.Warn("failed to get migration status", "error", err)
	} else {
		applied := 0
		for _, m := range status {
			if m.IsApplied {
				applied++
			}
		}
		log.Info("migrations completed", "applied", applied, "total", len(status))
	}

	// ─────────────────────────────────────────────────────────────────────────
	// 5. РЕПОЗИТОРИИ И РОСТЕР
	// ─────────────────────────────────────────────────────────────────────────
	memberRepo := postgres.NewMemberRepository(dbConn)
	checkinRepo := postgres.NewCheckinRepository(dbConn, cfg.App.Location)
	gamificationRepo := postgres.NewGamificationRepository(dbConn, cfg.App.Location)
	scheduleRepo := postgres.NewScheduleRepository(dbConn)
	programRepo := postgres.NewProgramRepository(dbConn)

	roster, err := member.NewRoster(cfg.Roster.Names)
	if err != nil {
		return fmt.Errorf("invalid roster: %w", err)
	}

	if err := programRepo.SavePrograms(ctx, builtinPrograms()); err != nil {
		log.Warn("failed to seed practice programs", "error", err)
	}

	// ─────────────────────────────────────────────────────────────────────────
	// 6. REDIS (опционально: кэш рейтинга)
	// ─────────────────────────────────────────────────────────────────────────
	var redisCache *redis.Cache
	var lbCache query.LeaderboardCache
	var invalidator command.LeaderboardInvalidator

	if !cfg.Redis.Disabled {
		log.Info("connecting to Redis...")
		redisCfg := redis.Config{
			Host:         cfg.Redis.Host,
			Port:         cfg.Redis.Port,
			Password:     cfg.Redis.Password,
			DB:           cfg.Redis.DB,
			PoolSize:     cfg.Redis.PoolSize,
			MaxRetries:   3,
			DialTimeout:  cfg.Redis.DialTimeout,
			ReadTimeout:  cfg.Redis.ReadTimeout,
			WriteTimeout: cfg.Redis.WriteTimeout,
		}
		redisCache, err = redis.NewCache(redisCfg)
		if err != nil {
			log.Warn("failed to connect to Redis, leaderboard cache disabled", "error", err)
			redisCache = nil
		} else {
			defer redisCache.Close()
			cache := redis.NewLeaderboardCache(redisCache)
			lbCache = cache
			invalidator = cache
			log.Info("Redis connection established")
		}
	}

	// ─────────────────────────────────────────────────────────────────────────
	// 7. EVENT BUS
	// ─────────────────────────────────────────────────────────────────────────
	var bus eventBus
	if redisCache != nil {
		redisBus, busErr := messaging.NewRedisEventBus(messaging.RedisEventBusConfig{
			Client:         messaging.NewGoRedisClient(redisCache.Client()),
			LocalBusConfig: messaging.DefaultInMemoryEventBusConfig(),
			Logger:         log,
		})
		if busErr != nil {
			return fmt.Errorf("failed to create event bus: %w", busErr)
		}
		bus = redisBus
	} else {
		busCfg := messaging.DefaultInMemoryEventBusConfig()
		busCfg.Logger = log
		bus = messaging.NewInMemoryEventBus(busCfg)
	}
	defer func() {
		log.Info("closing event bus...")
		_ = bus.Close()
	}()

	// ─────────────────────────────────────────────────────────────────────────
	// 8. ВНЕШНИЕ КЛИЕНТЫ
	// ─────────────────────────────────────────────────────────────────────────
	tgConfig := telegram.DefaultClientConfig(cfg.Telegram.Token)
	tgConfig.Logger = log
	tgClient := telegram.NewClient(tgConfig)
	notifier := telegram.NewNotifier(tgClient)

	var mirror jobs.ArchiveMirror
	var sheetsClient *sheets.Client
	if cfg.Sheets.Enabled() {
		sheetsCfg := sheets.DefaultClientConfig(cfg.Sheets.SpreadsheetID, cfg.Sheets.AccessToken)
		sheetsCfg.SheetName = cfg.Sheets.SheetName
		sheetsCfg.Logger = log
		sheetsClient = sheets.NewClient(sheetsCfg)
		mirror = sheetsClient
		log.Info("sheet mirror enabled", "sheet", cfg.Sheets.SheetName)

		if err := sheetsClient.WriteHeader(ctx); err != nil {
			log.Warn("failed to write mirror header", "error", err)
		}
	}

	// ─────────────────────────────────────────────────────────────────────────
	// 9. ГИДРАТАЦИЯ ИЗ ЗЕРКАЛА
	// База - единственный источник истины; зеркало используется только
	// чтобы восстановить архив после потери базы.
	// ─────────────────────────────────────────────────────────────────────────
	if sheetsClient != nil && cfg.Sheets.HydrateOnStart {
		hydrator := sheets.NewHydrator(sheetsClient, memberRepo, checkinRepo, log)
		if stats, hydrateErr := hydrator.Hydrate(ctx); hydrateErr != nil {
			log.Warn("mirror hydration failed", "error", hydrateErr)
		} else if stats.Restored > 0 {
			log.Info("archive restored from mirror", "rows", stats.Restored)
		}
	}

	// ─────────────────────────────────────────────────────────────────────────
	// 10. ПЛАНИРОВЩИК ТРИГГЕРОВ
	// ─────────────────────────────────────────────────────────────────────────
	sched := scheduler.New(scheduler.Config{
		Logger:   log,
		Timezone: cfg.App.Location,
	})

	installer := scheduler.NewReminderInstaller(sched, memberRepo, checkinRepo, notifier, log)

	// ─────────────────────────────────────────────────────────────────────────
	// 11. СЛОЙ ПРИЛОЖЕНИЯ
	// ─────────────────────────────────────────────────────────────────────────
	app := application.New(application.Dependencies{
		MemberRepo:     memberRepo,
		CheckinRepo:    checkinRepo,
		StateRepo:      gamificationRepo,
		AwardRepo:      gamificationRepo,
		ProgramRepo:    programRepo,
		ScheduleRepo:   scheduleRepo,
		Roster:         roster,
		Invalidator:    invalidator,
		Cache:          lbCache,
		Triggers:       installer,
		EventPublisher: bus,
		Engine:         gamification.NewEngine(cfg.Gamification.StreakThreshold),
		Location:       cfg.App.Location,
		Logger:         log,
	})

	if err := bus.Subscribe(shared.EventCheckinAccepted, app.Events.CheckinAccepted.Handle); err != nil {
		return fmt.Errorf("failed to subscribe event handlers: %w", err)
	}

	// ─────────────────────────────────────────────────────────────────────────
	// 12. СИСТЕМНЫЕ ТРИГГЕРЫ И ВОССТАНОВЛЕНИЕ НАПОМИНАНИЙ
	// ─────────────────────────────────────────────────────────────────────────
	if cfg.Scheduler.Enabled {
		if _, err := installer.RestoreAll(ctx, scheduleRepo); err != nil {
			log.Warn("failed to restore reminder triggers", "error", err)
		}

		rolloverCfg := jobs.DefaultWeekRolloverConfig(cfg.App.Location)
		rolloverCfg.Mode = cfg.Scheduler.RolloverMode
		rolloverCfg.Timeout = cfg.Scheduler.JobTimeout
		rollover := jobs.NewWeekRolloverJob(checkinRepo, mirror, bus, log, rolloverCfg)

		// Rollover runs just past the Monday midnight boundary so the
		// finished week is already closed in local time.
		rolloverAt := reminder.TimeOfDay{Hour: 0, Minute: 5}
		if err := sched.Replace(rollover, scheduler.NewWeeklySchedule(
			reminder.NewWeekdaySet(time.Monday), rolloverAt, cfg.App.Location,
		)); err != nil {
			return fmt.Errorf("failed to install rollover trigger: %w", err)
		}

		if cfg.Telegram.GroupChatID != 0 {
			digestCfg := jobs.DefaultGroupDigestConfig(cfg.Telegram.GroupChatID, cfg.App.Location)
			digest := jobs.NewGroupDigestJob(memberRepo, checkinRepo, notifier, log, digestCfg)

			digestAt := reminder.TimeOfDay{
				Hour:   cfg.Scheduler.DigestHour,
				Minute: cfg.Scheduler.DigestMinute,
			}
			if err := sched.Replace(digest, scheduler.NewWeeklySchedule(
				reminder.NewWeekdaySet(time.Sunday), digestAt, cfg.App.Location,
			)); err != nil {
				return fmt.Errorf("failed to install digest trigger: %w", err)
			}
		} else {
			log.Info("group digest disabled: TELEGRAM_GROUP_CHAT_ID is not set")
		}

		if err := sched.Start(ctx); err != nil {
			return fmt.Errorf("failed to start scheduler: %w", err)
		}
	} else {
		log.Warn("scheduler disabled: reminders, digest and rollover will not fire")
	}

	// ─────────────────────────────────────────────────────────────────────────
	// 13. ОЖИДАНИЕ ЗАВЕРШЕНИЯ
	// ─────────────────────────────────────────────────────────────────────────
	log.Info("vocal practice hub is running",
		"triggers", len(sched.ListJobs()),
		"mirror", cfg.Sheets.Enabled(),
		"cache", lbCache != nil,
	)

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM, syscall.SIGHUP)

	select {
	case sig := <-sigCh:
		log.Info("received shutdown signal", "signal", sig.String())
	case <-ctx.Done():
		log.Info("context cancelled")
	}

	// ─────────────────────────────────────────────────────────────────────────
	// 14. GRACEFUL SHUTDOWN
	// ─────────────────────────────────────────────────────────────────────────
	log.Info("starting graceful shutdown...", "timeout", cfg.App.ShutdownTimeout.String())

	done := make(chan struct{})
	go func() {
		if sched.IsRunning() {
			if err := sched.Stop(); err != nil {
				log.Error("failed to stop scheduler gracefully", "error", err)
			}
		}
		close(done)
	}()

	select {
	case <-done:
		log.Info("shutdown completed successfully")
	case <-time.After(cfg.App.ShutdownTimeout):
		log.Warn("shutdown timed out, exiting anyway")
	}

	return nil
}

// ══════════════════════════════════════════════════════════════════════════════
// HELPERS
// ══════════════════════════════════════════════════════════════════════════════

// setupLogger настраивает структурированное логирование.
func setupLogger(cfg *config.Config) *slog.Logger {
	opts := &slog.HandlerOptions{
		Level: parseLogLevel(cfg.Observability.LogLevel),
	}
	if cfg.App.Debug {
		opts.Level = slog.LevelDebug
	}

	var handler slog.Handler
	if strings.EqualFold(cfg.Observability.LogFormat, "text") || cfg.IsDevelopment() {
		handler = slog.NewTextHandler(os.Stdout, opts)
	} else {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	}

	log := slog.New(handler)
	slog.SetDefault(log)

	return log
}

func parseLogLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// builtinPrograms возвращает стартовый каталог практических программ.
// Seeding is idempotent: SavePrograms upserts by name.
func builtinPrograms() []*program.Program {
	return []*program.Program{
		{
			Name:  "daily-warmup",
			Title: "Ежедневная распевка",
			Steps: []program.Step{
				{Title: "Дыхание и осанка", Minutes: 5},
				{Title: "Lip trills по гамме", Minutes: 5},
				{Title: "Гласные на легато", Minutes: 10},
			},
		},
		{
			Name:  "range-builder",
			Title: "Расширение диапазона",
			Steps: []program.Step{
				{Title: "Сирены снизу вверх", Minutes: 5},
				{Title: "Арпеджио через переходный участок", Minutes: 10},
				{Title: "Верхние ноты на mum", Minutes: 5},
				{Title: "Спуск на humming", Minutes: 5},
			},
		},
		{
			Name:  "harmony-basics",
			Title: "Основы многоголосия",
			Steps: []program.Step{
				{Title: "Интервалы под дрон", Minutes: 10},
				{Title: "Удержание партии в трезвучии", Minutes: 10},
				{Title: "Пение партии против записи", Minutes: 10},
			},
		},
	}
}
