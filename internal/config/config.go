package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

type Config struct {
	// Server
	APIPort            string
	WorkerEnabled      bool
	BackendAPIKey      string // API key for authenticating requests (empty = no auth, dev mode)
	CorsAllowedOrigins string // Comma-separated allowed origins (empty = *, dev mode)
	LogLevel           string

	// Database
	DatabaseURL string

	// Redis
	RedisURL string

	// Supabase storage (rendered videos, images, article HTML)
	SupabaseURL           string
	SupabaseServiceKey    string
	SupabaseStorageBucket string

	// Text generation cascade: OpenAI first, Gemini next, templates last.
	OpenAIKey   string
	OpenAIModel string
	GeminiKey   string

	// Telegram delivery
	TelegramBotToken string
	TelegramChatID   string // Fallback chat when no operators are registered

	// TTS providers
	ElevenLabsKey     string
	ElevenLabsVoiceID string
	CartesiaKey       string
	CartesiaURL       string
	CartesiaVoiceID   string

	// B-roll synthesis (backfills empty clip-library categories)
	VeoEnabled bool
	VeoModel   string
	XAIEnabled bool
	XAIAPIKey  string

	// HTML-to-image overlay rendering
	HTMLToImageUserID string
	HTMLToImageAPIKey string
	OverlayFontPath   string // Font file for the ffmpeg drawtext fallback

	// Stock photo providers
	UnsplashAccessKey string
	PexelsAPIKey      string
	PixabayAPIKey     string

	// Branding
	BrandName        string
	BrandURL         string
	BrandLogoPath    string
	WatermarkOpacity float64

	// Outreach (Google Maps Places)
	GoogleMapsAPIKey    string
	OutreachLat         float64
	OutreachLng         float64
	OutreachRadiusMeter int

	// Tier-1 publishers
	MediumToken         string
	MediumUserID        string
	MediumAutoPublish   bool
	PinterestToken      string
	PinterestBoardID    string
	LinkedInToken       string
	LinkedInAuthorURN   string
	LinkedInAutoPublish bool

	// Reddit monitor
	RedditClientID     string
	RedditClientSecret string
	RedditUserAgent    string

	// Media pipeline
	ClipsDir            string
	BackgroundMusicPath string
	OutputDir           string
	DailyVideoCount     int
	MaxConcurrentJobs   int

	// Scheduler
	SchedulerEnabled      bool
	DailyRunCron          string
	DistributionCron      string
	AnalyticsReminderCron string
}

func Load() (*Config, error) {
	// Load .env file if it exists (ignore error in production)
	_ = godotenv.Load()

	cfg := &Config{
		APIPort:            getEnv("API_PORT", "8080"),
		WorkerEnabled:      getEnvBool("WORKER_ENABLED", true),
		BackendAPIKey:      getEnv("BACKEND_API_KEY", ""),
		CorsAllowedOrigins: getEnv("CORS_ALLOWED_ORIGINS", ""),
		LogLevel:           getEnv("LOG_LEVEL", "info"),

		DatabaseURL: getEnv("DATABASE_URL", ""),
		RedisURL:    getEnv("REDIS_URL", "redis://localhost:6379"),

		SupabaseURL:           getEnv("SUPABASE_URL", ""),
		SupabaseServiceKey:    getEnv("SUPABASE_SERVICE_KEY", ""),
		SupabaseStorageBucket: getEnv("SUPABASE_STORAGE_BUCKET", "megaphone-media"),

		OpenAIKey:   getEnv("OPENAI_API_KEY", ""),
		OpenAIModel: getEnv("OPENAI_MODEL", "gpt-4o-mini"),
		GeminiKey:   getEnv("GEMINI_API_KEY", ""),

		TelegramBotToken: getEnv("TELEGRAM_BOT_TOKEN", ""),
		TelegramChatID:   getEnv("TELEGRAM_CHAT_ID", ""),

		ElevenLabsKey:     getEnv("ELEVENLABS_API_KEY", ""),
		ElevenLabsVoiceID: getEnv("ELEVENLABS_VOICE_ID", ""),
		CartesiaKey:       getEnv("CARTESIA_API_KEY", ""),
		CartesiaURL:       getEnv("CARTESIA_API_URL", "https://api.cartesia.ai"),
		CartesiaVoiceID:   getEnv("CARTESIA_VOICE_ID", ""),

		VeoEnabled: getEnvBool("VEO_ENABLED", false),
		VeoModel:   getEnv("VEO_MODEL", "veo-3.1-generate-preview"),
		XAIEnabled: getEnvBool("XAI_VIDEO_ENABLED", false),
		XAIAPIKey:  getEnv("XAI_API_KEY", ""),

		HTMLToImageUserID: getEnv("HTML2IMAGE_USER_ID", ""),
		HTMLToImageAPIKey: getEnv("HTML2IMAGE_API_KEY", ""),
		OverlayFontPath:   getEnv("OVERLAY_FONT_PATH", "assets/fonts/Montserrat-Bold.ttf"),

		UnsplashAccessKey: getEnv("UNSPLASH_ACCESS_KEY", ""),
		PexelsAPIKey:      getEnv("PEXELS_API_KEY", ""),
		PixabayAPIKey:     getEnv("PIXABAY_API_KEY", ""),

		BrandName:        getEnv("BRAND_NAME", "Giftloop"),
		BrandURL:         getEnv("BRAND_URL", "https://giftloop.co"),
		BrandLogoPath:    getEnv("BRAND_LOGO_PATH", "assets/brand/logo.png"),
		WatermarkOpacity: getEnvFloat("WATERMARK_OPACITY", 0.35),

		GoogleMapsAPIKey:    getEnv("GOOGLE_MAPS_API_KEY", ""),
		OutreachLat:         getEnvFloat("OUTREACH_LAT", 51.5074),
		OutreachLng:         getEnvFloat("OUTREACH_LNG", -0.1278),
		OutreachRadiusMeter: getEnvInt("OUTREACH_RADIUS_METERS", 10000),

		MediumToken:         getEnv("MEDIUM_TOKEN", ""),
		MediumUserID:        getEnv("MEDIUM_USER_ID", ""),
		MediumAutoPublish:   getEnvBool("MEDIUM_AUTO_PUBLISH", false),
		PinterestToken:      getEnv("PINTEREST_TOKEN", ""),
		PinterestBoardID:    getEnv("PINTEREST_BOARD_ID", ""),
		LinkedInToken:       getEnv("LINKEDIN_TOKEN", ""),
		LinkedInAuthorURN:   getEnv("LINKEDIN_AUTHOR_URN", ""),
		LinkedInAutoPublish: getEnvBool("LINKEDIN_AUTO_PUBLISH", false),

		RedditClientID:     getEnv("REDDIT_CLIENT_ID", ""),
		RedditClientSecret: getEnv("REDDIT_CLIENT_SECRET", ""),
		RedditUserAgent:    getEnv("REDDIT_USER_AGENT", "megaphone-monitor/1.0"),

		ClipsDir:            getEnv("CLIPS_DIR", "assets/clips"),
		BackgroundMusicPath: getEnv("BACKGROUND_MUSIC_PATH", "assets/music/base.mp3"),
		OutputDir:           getEnv("OUTPUT_DIR", "output"),
		DailyVideoCount:     getEnvInt("DAILY_VIDEO_COUNT", 3),
		MaxConcurrentJobs:   getEnvInt("MAX_CONCURRENT_JOBS", 5),

		SchedulerEnabled:      getEnvBool("SCHEDULER_ENABLED", true),
		DailyRunCron:          getEnv("DAILY_RUN_CRON", "0 9 * * *"),
		DistributionCron:      getEnv("DISTRIBUTION_CRON", "0 11 * * *"),
		AnalyticsReminderCron: getEnv("ANALYTICS_REMINDER_CRON", "0 10 * * 1"),
	}

	// Validate required fields
	if cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL is required")
	}

	if cfg.TelegramBotToken == "" || cfg.TelegramChatID == "" {
		return nil, fmt.Errorf("TELEGRAM_BOT_TOKEN and TELEGRAM_CHAT_ID are required for safe delivery")
	}

	// At least one text provider must be configured; the template fallback
	// alone is an emergency path, not a deployment mode.
	if cfg.OpenAIKey == "" && cfg.GeminiKey == "" {
		return nil, fmt.Errorf("either OPENAI_API_KEY or GEMINI_API_KEY is required for text generation")
	}

	if cfg.SupabaseURL == "" || cfg.SupabaseServiceKey == "" {
		return nil, fmt.Errorf("SUPABASE_URL and SUPABASE_SERVICE_KEY are required")
	}

	return cfg, nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		b, err := strconv.ParseBool(value)
		if err == nil {
			return b
		}
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		i, err := strconv.Atoi(value)
		if err == nil {
			return i
		}
	}
	return defaultValue
}

func getEnvFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		f, err := strconv.ParseFloat(value, 64)
		if err == nil {
			return f
		}
	}
	return defaultValue
}
