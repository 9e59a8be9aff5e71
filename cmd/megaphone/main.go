package main

import (
	"context"
	"flag"
	"fmt"
	"math/rand"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	charm "github.com/charmbracelet/log"

	"github.com/giftloop/megaphone/internal/config"
	"github.com/giftloop/megaphone/internal/db"
	"github.com/giftloop/megaphone/internal/logging"
	"github.com/giftloop/megaphone/internal/models"
	"github.com/giftloop/megaphone/internal/services"
	"github.com/giftloop/megaphone/internal/storage"
	"github.com/giftloop/megaphone/internal/worker"
)

// The one-shot CLI runs the same pipelines as the server worker, but
// in-process and without Redis. Useful for cron-less deployments and for
// producing a single package by hand.
func main() {
	mode := flag.String("mode", "daily", "daily | single | batch | test-telegram | test-features")
	topic := flag.String("topic", "", "topic for -mode single")
	occasion := flag.String("occasion", "general", "occasion for -mode single")
	platform := flag.String("platform", "tiktok", "platform for -mode single")
	count := flag.Int("count", 0, "batch size for -mode batch, 0 uses DAILY_VIDEO_COUNT")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		logging.Fatal("failed to load config", "err", err)
	}
	logging.Setup(cfg.LogLevel)
	log := logging.Component("cli")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	switch *mode {
	case "daily":
		runBatch(ctx, cfg, 0, log)
	case "batch":
		runBatch(ctx, cfg, *count, log)
	case "single":
		runSingle(ctx, cfg, *topic, *occasion, *platform, log)
	case "test-telegram":
		runTelegramTest(ctx, cfg, log)
	case "test-features":
		printFeatureReport(cfg)
	default:
		fmt.Fprintf(os.Stderr, "unknown mode %q\n\n", *mode)
		flag.Usage()
		os.Exit(1)
	}
}

// openPipeline connects the stores and builds an in-process worker. The
// queue stays nil because pipeline runs never enqueue.
func openPipeline(ctx context.Context, cfg *config.Config, log *charm.Logger) (*worker.Worker, *db.DB) {
	database, err := db.New(cfg.DatabaseURL)
	if err != nil {
		log.Fatal("failed to connect to database", "err", err)
	}
	stor := storage.New(cfg.SupabaseURL, cfg.SupabaseServiceKey, cfg.SupabaseStorageBucket)

	if inserted, err := database.SeedTopics(ctx, models.StarterTopics); err != nil {
		log.Warn("topic seeding failed", "err", err)
	} else if inserted > 0 {
		log.Info("topic catalog seeded", "topics", inserted)
	}

	w := worker.FromConfig(cfg, database, nil, stor)
	w.IndexClipLibrary(ctx)
	return w, database
}

func runBatch(ctx context.Context, cfg *config.Config, count int, log *charm.Logger) {
	w, database := openPipeline(ctx, cfg, log)
	defer database.Close()

	runDate, succeeded, planned, err := w.RunDailyBatch(ctx, count)
	if err != nil {
		log.Fatal("daily batch failed", "err", err)
	}
	if planned == 0 {
		log.Info("every topic already covered today", "run_date", runDate)
		return
	}
	if succeeded == 0 {
		log.Fatal("all packages failed", "run_date", runDate, "planned", planned)
	}
}

func runSingle(ctx context.Context, cfg *config.Config, topic, occasion, platform string, log *charm.Logger) {
	if strings.TrimSpace(topic) == "" {
		log.Fatal("-topic is required for -mode single")
	}
	occ := models.Occasion(strings.ToLower(occasion))
	if !occ.Valid() {
		log.Fatal("invalid occasion", "occasion", occasion)
	}
	plat := models.Platform(strings.ToLower(platform))
	if !plat.Valid() {
		log.Fatal("invalid platform", "platform", platform)
	}

	w, database := openPipeline(ctx, cfg, log)
	defer database.Close()

	pkg, err := w.NewPackage(ctx, topic, occ, plat)
	if err != nil {
		log.Fatal("package creation failed", "err", err)
	}
	log.Info("package created", "package", pkg.ID, "topic", pkg.Topic)

	if err := w.RunPackagePipeline(ctx, pkg.ID); err != nil {
		log.Fatal("pipeline failed", "package", pkg.ID, "err", err)
	}
	log.Info("package delivered", "package", pkg.ID)
}

func runTelegramTest(ctx context.Context, cfg *config.Config, log *charm.Logger) {
	tg := services.NewTelegramService(cfg.TelegramBotToken, cfg.TelegramChatID)
	if err := tg.SendTest(ctx); err != nil {
		log.Fatal("telegram test failed", "err", err)
	}
	log.Info("telegram test message sent", "chat", cfg.TelegramChatID)
}

// printFeatureReport shows which integrations the current environment can
// reach, then exercises the template copy path, which needs no API keys.
func printFeatureReport(cfg *config.Config) {
	rng := rand.New(rand.NewSource(time.Now().UnixNano()))

	fmt.Println("megaphone feature report")
	fmt.Println()
	fmt.Println("core:")
	fmt.Printf("  database        %s\n", readiness(cfg.DatabaseURL != ""))
	fmt.Printf("  redis queue     %s\n", readiness(cfg.RedisURL != ""))
	fmt.Printf("  storage         %s\n", readiness(cfg.SupabaseURL != "" && cfg.SupabaseServiceKey != ""))
	fmt.Println("text generation:")
	fmt.Printf("  openai          %s (model %s)\n", readiness(cfg.OpenAIKey != ""), cfg.OpenAIModel)
	fmt.Printf("  gemini          %s\n", readiness(cfg.GeminiKey != ""))
	fmt.Println("voice:")
	fmt.Printf("  elevenlabs      %s\n", readiness(cfg.ElevenLabsKey != ""))
	fmt.Printf("  cartesia        %s\n", readiness(cfg.CartesiaKey != ""))
	fmt.Println("visuals:")
	fmt.Printf("  overlay cards   %s\n", readiness(cfg.HTMLToImageUserID != "" && cfg.HTMLToImageAPIKey != ""))
	fmt.Printf("  unsplash        %s\n", readiness(cfg.UnsplashAccessKey != ""))
	fmt.Printf("  pexels          %s\n", readiness(cfg.PexelsAPIKey != ""))
	fmt.Printf("  pixabay         %s\n", readiness(cfg.PixabayAPIKey != ""))
	fmt.Printf("  veo b-roll      %s (model %s)\n", readiness(cfg.VeoEnabled && cfg.GeminiKey != ""), cfg.VeoModel)
	fmt.Printf("  xai b-roll      %s\n", readiness(cfg.XAIEnabled && cfg.XAIAPIKey != ""))
	fmt.Println("distribution:")
	fmt.Printf("  telegram        %s\n", readiness(cfg.TelegramBotToken != "" && cfg.TelegramChatID != ""))
	fmt.Printf("  medium          %s\n", readiness(cfg.MediumToken != ""))
	fmt.Printf("  pinterest       %s\n", readiness(cfg.PinterestToken != ""))
	fmt.Printf("  linkedin        %s\n", readiness(cfg.LinkedInToken != ""))
	fmt.Printf("  reddit          %s\n", readiness(cfg.RedditClientID != "" && cfg.RedditClientSecret != ""))
	fmt.Println("outreach:")
	fmt.Printf("  google places   %s\n", readiness(cfg.GoogleMapsAPIKey != ""))
	fmt.Println()

	gen := services.NewGenerator(nil, cfg.BrandName, cfg.BrandURL)
	sample := gen.FallbackPackage("personalised birthday gifts", models.OccasionBirthday, models.PlatformTikTok, rng)
	persona := services.PickPersona(rng.Int63())

	fmt.Println("template copy sample:")
	fmt.Printf("  hook:     %s\n", sample.Hook)
	fmt.Printf("  caption:  %s\n", sample.Caption)
	fmt.Printf("  hashtags: %s\n", strings.Join(sample.Hashtags, " "))
	fmt.Printf("  cta:      %s\n", sample.CTA)
	fmt.Printf("  persona:  %s\n", persona.Name)
}

func readiness(ok bool) string {
	if ok {
		return "ready"
	}
	return "not configured"
}
