package worker

import (
	"github.com/giftloop/megaphone/internal/config"
	"github.com/giftloop/megaphone/internal/db"
	"github.com/giftloop/megaphone/internal/distribution"
	"github.com/giftloop/megaphone/internal/logging"
	"github.com/giftloop/megaphone/internal/queue"
	"github.com/giftloop/megaphone/internal/services"
	"github.com/giftloop/megaphone/internal/storage"
)

// FromConfig builds a Worker with the full service graph derived from
// configuration. Both binaries use it so the wiring lives in one place.
// q may be nil for in-process pipeline runs that never enqueue.
func FromConfig(cfg *config.Config, database *db.DB, q *queue.Queue, stor *storage.Storage) *Worker {
	log := logging.Component("worker")

	// Gemini serves two roles: text fallback and image generation. Nil
	// when unconfigured so downstream cascades skip it cleanly.
	var geminiSvc *services.GeminiService
	if cfg.GeminiKey != "" {
		geminiSvc = services.NewGeminiService(cfg.GeminiKey, "")
	}

	var providers []services.TextProvider
	if cfg.OpenAIKey != "" {
		providers = append(providers, services.NewOpenAIService(cfg.OpenAIKey, cfg.OpenAIModel))
	}
	if geminiSvc != nil {
		providers = append(providers, geminiSvc)
	}
	gen := services.NewGenerator(providers, cfg.BrandName, cfg.BrandURL)
	articles := services.NewArticleWriter(gen)

	var ttsSvc services.TTSService
	switch {
	case cfg.ElevenLabsKey != "":
		ttsSvc = services.NewElevenLabsService(cfg.ElevenLabsKey, cfg.ElevenLabsVoiceID)
		log.Info("TTS provider: ElevenLabs")
	case cfg.CartesiaKey != "":
		ttsSvc = services.NewCartesiaService(cfg.CartesiaKey, cfg.CartesiaURL, cfg.CartesiaVoiceID)
		log.Info("TTS provider: Cartesia")
	default:
		log.Warn("no TTS provider configured, packages will render silent")
	}

	telegramSvc := services.NewTelegramService(cfg.TelegramBotToken, cfg.TelegramChatID)
	ffmpegSvc := services.NewFFmpegService(cfg.OutputDir)

	photosSvc := services.NewPhotoService(
		cfg.UnsplashAccessKey,
		cfg.PexelsAPIKey,
		cfg.PixabayAPIKey,
		geminiSvc,
		cfg.BrandLogoPath,
		cfg.WatermarkOpacity,
	)
	overlaySvc := services.NewOverlayService(cfg.HTMLToImageUserID, cfg.HTMLToImageAPIKey)
	placesSvc := services.NewPlacesService(cfg.GoogleMapsAPIKey)

	veoSvc := services.NewVeoService(cfg.GeminiKey, cfg.VeoModel, cfg.VeoEnabled)
	xaiSvc := services.NewXAIVideoService(cfg.XAIAPIKey, cfg.XAIEnabled)
	brollSvc := services.NewBrollService(
		[]services.BrollGenerator{veoSvc, xaiSvc},
		ffmpegSvc,
		photosSvc,
		cfg.ClipsDir,
	)

	workflow := distribution.NewWorkflow(
		database,
		gen,
		services.NewMediumService(cfg.MediumToken, cfg.MediumUserID, cfg.MediumAutoPublish),
		services.NewPinterestService(cfg.PinterestToken, cfg.PinterestBoardID),
		services.NewLinkedInService(cfg.LinkedInToken, cfg.LinkedInAuthorURN, cfg.LinkedInAutoPublish),
		services.NewRedditService(cfg.RedditClientID, cfg.RedditClientSecret, cfg.RedditUserAgent),
		services.NewMumsnetService(),
		telegramSvc,
		stor,
		cfg.BrandURL,
	)

	return New(database, q, stor, cfg, gen, articles, ttsSvc, ffmpegSvc, overlaySvc, photosSvc, placesSvc, telegramSvc, brollSvc, workflow)
}
