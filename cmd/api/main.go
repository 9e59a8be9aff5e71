package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	charm "github.com/charmbracelet/log"
	"github.com/google/uuid"
	"github.com/robfig/cron/v3"

	"github.com/giftloop/megaphone/internal/api"
	"github.com/giftloop/megaphone/internal/config"
	"github.com/giftloop/megaphone/internal/db"
	"github.com/giftloop/megaphone/internal/logging"
	"github.com/giftloop/megaphone/internal/models"
	"github.com/giftloop/megaphone/internal/queue"
	"github.com/giftloop/megaphone/internal/services"
	"github.com/giftloop/megaphone/internal/storage"
	"github.com/giftloop/megaphone/internal/worker"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logging.Fatal("failed to load config", "err", err)
	}
	logging.Setup(cfg.LogLevel)
	log := logging.Component("api")

	log.Info("starting megaphone API")

	database, err := db.New(cfg.DatabaseURL)
	if err != nil {
		log.Fatal("failed to connect to database", "err", err)
	}
	defer database.Close()
	log.Info("connected to database")

	q, err := queue.New(cfg.RedisURL)
	if err != nil {
		log.Fatal("failed to connect to queue", "err", err)
	}
	defer q.Close()
	log.Info("connected to Redis queue")

	stor := storage.New(cfg.SupabaseURL, cfg.SupabaseServiceKey, cfg.SupabaseStorageBucket)

	telegramSvc := services.NewTelegramService(cfg.TelegramBotToken, cfg.TelegramChatID)

	handler := api.NewHandler(database, q, stor, telegramSvc, cfg)
	router := api.NewRouter(handler, api.RouterConfig{
		BackendAPIKey:      cfg.BackendAPIKey,
		CorsAllowedOrigins: cfg.CorsAllowedOrigins,
	})

	if cfg.BackendAPIKey != "" {
		log.Info("API key authentication enabled")
	} else {
		log.Warn("no BACKEND_API_KEY set, API is unprotected (dev mode)")
	}

	bootCtx, bootCancel := context.WithTimeout(context.Background(), time.Minute)
	seedTopics(bootCtx, database, log)

	server := &http.Server{
		Addr:    ":" + cfg.APIPort,
		Handler: router,
	}

	var workerCtx context.Context
	var workerCancel context.CancelFunc
	if cfg.WorkerEnabled {
		log.Info("worker enabled, starting background processing", "concurrency", cfg.MaxConcurrentJobs)

		w := worker.FromConfig(cfg, database, q, stor)
		w.IndexClipLibrary(bootCtx)
		workerCtx, workerCancel = context.WithCancel(context.Background())
		go w.Start(workerCtx, cfg.MaxConcurrentJobs)
	}
	bootCancel()

	var scheduler *cron.Cron
	if cfg.SchedulerEnabled {
		scheduler = startScheduler(database, q, telegramSvc, cfg, log)
	}

	go func() {
		log.Info("API server listening", "port", cfg.APIPort)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("server error", "err", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down")

	if scheduler != nil {
		scheduler.Stop()
	}
	if workerCancel != nil {
		workerCancel()
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		log.Fatal("server forced to shutdown", "err", err)
	}

	log.Info("server exited")
}

// startScheduler registers the recurring jobs. Cron entries enqueue
// through the same bookkeeping path as the API so the jobs table stays
// complete; the analytics reminder is a plain send, no job row.
func startScheduler(database *db.DB, q *queue.Queue, telegram *services.TelegramService, cfg *config.Config, log *charm.Logger) *cron.Cron {
	c := cron.New()

	if _, err := c.AddFunc(cfg.DailyRunCron, func() {
		enqueueScheduled(database, "daily_run", func(ctx context.Context, jobID uuid.UUID) error {
			return q.EnqueueDailyRun(ctx, cfg.DailyVideoCount, jobID)
		}, log)
	}); err != nil {
		log.Error("invalid daily run cron", "expr", cfg.DailyRunCron, "err", err)
	}

	if _, err := c.AddFunc(cfg.DistributionCron, func() {
		enqueueScheduled(database, "distribute_daily", q.EnqueueDistributeDaily, log)
	}); err != nil {
		log.Error("invalid distribution cron", "expr", cfg.DistributionCron, "err", err)
	}

	if _, err := c.AddFunc(cfg.AnalyticsReminderCron, func() {
		sendAnalyticsReminders(database, telegram, cfg, log)
	}); err != nil {
		log.Error("invalid analytics reminder cron", "expr", cfg.AnalyticsReminderCron, "err", err)
	}

	c.Start()
	log.Info("scheduler started", "daily_run", cfg.DailyRunCron, "distribution", cfg.DistributionCron)
	return c
}

// sendAnalyticsReminders nudges every operator chat to log yesterday's
// numbers, falling back to the default chat when none are registered.
func sendAnalyticsReminders(database *db.DB, telegram *services.TelegramService, cfg *config.Config, log *charm.Logger) {
	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	chats := []string{cfg.TelegramChatID}
	if operators, err := database.ListActiveOperators(ctx); err == nil && len(operators) > 0 {
		chats = chats[:0]
		for _, op := range operators {
			chats = append(chats, op.ChatID)
		}
	}

	for _, chat := range chats {
		if err := telegram.SendAnalyticsReminder(ctx, chat); err != nil {
			log.Warn("analytics reminder failed", "chat_id", chat, "err", err)
		}
	}
}

func enqueueScheduled(database *db.DB, jobType string, push func(context.Context, uuid.UUID) error, log *charm.Logger) {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	job := &models.Job{
		ID:     uuid.New(),
		Type:   jobType,
		Status: models.JobStatusQueued,
	}
	if err := database.CreateJob(ctx, job); err != nil {
		log.Error("scheduled job bookkeeping failed", "type", jobType, "err", err)
		return
	}
	if err := push(ctx, job.ID); err != nil {
		log.Error("scheduled enqueue failed", "type", jobType, "err", err)
		return
	}
	log.Info("scheduled job enqueued", "type", jobType, "job", job.ID)
}

func seedTopics(ctx context.Context, database *db.DB, log *charm.Logger) {
	inserted, err := database.SeedTopics(ctx, models.StarterTopics)
	if err != nil {
		log.Warn("topic seeding failed", "err", err)
		return
	}
	if inserted > 0 {
		log.Info("topic catalog seeded", "topics", inserted)
	}
}
