package services

import (
	"context"
	"fmt"
	"math/rand"
	"os"
	"path/filepath"
	"time"

	charm "github.com/charmbracelet/log"

	"github.com/giftloop/megaphone/internal/logging"
	"github.com/giftloop/megaphone/internal/models"
)

// ---------------------------------------------------------------------------
// B-roll backfill
// When the clip library has no footage for a category, synthesize a clip:
// Veo → xAI → stock photo with a Ken Burns move. Generated clips are written
// into the library directory so they get tracked like any other source clip.
// ---------------------------------------------------------------------------

// brollFallbackSeconds is the length of a Ken Burns clip built from a still.
const brollFallbackSeconds = 6.0

// BrollGenerator produces a short portrait video clip from a scene prompt.
type BrollGenerator interface {
	Name() string
	Enabled() bool
	GenerateClip(ctx context.Context, scenePrompt string) ([]byte, error)
}

type BrollService struct {
	generators []BrollGenerator
	ffmpeg     *FFmpegService
	photos     *PhotoService
	clipsDir   string
	log        *charm.Logger
}

// NewBrollService wires the generator cascade. Generators are tried in the
// order given; a nil photos service disables the stills fallback.
func NewBrollService(generators []BrollGenerator, ffmpeg *FFmpegService, photos *PhotoService, clipsDir string) *BrollService {
	return &BrollService{
		generators: generators,
		ffmpeg:     ffmpeg,
		photos:     photos,
		clipsDir:   clipsDir,
		log:        logging.Component("broll"),
	}
}

// brollScenePrompt describes the footage each clip category should show.
// Faces stay out of frame so the clips can be recombined across packages.
func brollScenePrompt(category models.ClipCategory, topic string) string {
	switch category {
	case models.ClipCategorySticking:
		return fmt.Sprintf("Slow macro close-up of a beautifully wrapped gift related to %s, ribbon and textured paper in sharp focus, the camera drifting slightly closer.", topic)
	case models.ClipCategoryScanning:
		return fmt.Sprintf("Smooth overhead pan across a curated flat lay of gift ideas for %s, arranged on a clean neutral surface with small decorative props.", topic)
	case models.ClipCategoryReaction:
		return fmt.Sprintf("Hands untying a ribbon and lifting the lid of an elegant gift box for %s, shot from above the shoulders so no face is visible.", topic)
	default:
		return fmt.Sprintf("Cinematic product footage of gifts related to %s on a softly lit surface.", topic)
	}
}

// brollImageQuery is the stock-photo search used by the stills fallback.
func brollImageQuery(category models.ClipCategory, topic string) string {
	switch category {
	case models.ClipCategorySticking:
		return topic + " gift close up"
	case models.ClipCategoryScanning:
		return topic + " gifts flat lay"
	case models.ClipCategoryReaction:
		return "opening gift box hands"
	default:
		return topic + " gift"
	}
}

// BackfillClip synthesizes one clip for an empty category and writes it into
// the library directory. Returns the clip path and its probed duration.
func (s *BrollService) BackfillClip(ctx context.Context, category models.ClipCategory, topic string, rng *rand.Rand) (string, float64, error) {
	categoryDir := filepath.Join(s.clipsDir, string(category))
	if err := os.MkdirAll(categoryDir, 0755); err != nil {
		return "", 0, fmt.Errorf("failed to create clip category dir: %w", err)
	}

	prompt := brollScenePrompt(category, topic)

	for _, gen := range s.generators {
		if gen == nil || !gen.Enabled() {
			continue
		}

		s.log.Info("backfilling clip", "category", category, "generator", gen.Name())

		data, err := gen.GenerateClip(ctx, prompt)
		if err != nil {
			s.log.Warn("b-roll generator failed, trying next", "generator", gen.Name(), "error", err)
			continue
		}

		clipPath := filepath.Join(categoryDir, fmt.Sprintf("broll_%s_%d.mp4", gen.Name(), time.Now().UnixNano()))
		if err := os.WriteFile(clipPath, data, 0644); err != nil {
			return "", 0, fmt.Errorf("failed to write generated clip: %w", err)
		}

		durSec := s.probeDuration(ctx, clipPath)
		s.log.Info("clip backfilled", "category", category, "generator", gen.Name(), "path", clipPath, "durationSec", durSec)
		return clipPath, durSec, nil
	}

	// Last rung: stock photo animated with a Ken Burns move.
	return s.backfillFromStill(ctx, category, topic, rng, categoryDir)
}

func (s *BrollService) backfillFromStill(ctx context.Context, category models.ClipCategory, topic string, rng *rand.Rand, categoryDir string) (string, float64, error) {
	if s.photos == nil {
		return "", 0, fmt.Errorf("no b-roll generator available for category %s and stills fallback is not configured", category)
	}

	query := brollImageQuery(category, topic)
	s.log.Info("backfilling clip from still", "category", category, "query", query)

	spec, _ := SpecByName("pinterest") // portrait, closest to the 9:16 render frame
	imgData, provider, err := s.photos.FetchImage(ctx, query, spec, rng)
	if err != nil {
		return "", 0, fmt.Errorf("stills fallback failed for category %s: %w", category, err)
	}

	imagePath := s.ffmpeg.CreateTempFile(fmt.Sprintf("broll_still_%d.jpg", time.Now().UnixNano()))
	if err := os.WriteFile(imagePath, imgData, 0644); err != nil {
		return "", 0, fmt.Errorf("failed to write still image: %w", err)
	}
	defer s.ffmpeg.Cleanup(imagePath)

	clipPath := filepath.Join(categoryDir, fmt.Sprintf("broll_still_%d.mp4", time.Now().UnixNano()))
	effect := RandomEffect(rng)
	if err := s.ffmpeg.KenBurnsSegment(ctx, imagePath, clipPath, brollFallbackSeconds, effect); err != nil {
		return "", 0, fmt.Errorf("failed to animate still: %w", err)
	}

	s.log.Info("clip backfilled from still", "category", category, "provider", provider, "effect", effect, "path", clipPath)
	return clipPath, brollFallbackSeconds, nil
}

// probeDuration reads the clip duration, falling back to the generator
// default when ffprobe cannot parse the file.
func (s *BrollService) probeDuration(ctx context.Context, clipPath string) float64 {
	durSec, err := s.ffmpeg.GetVideoDuration(ctx, clipPath)
	if err != nil || durSec <= 0 {
		s.log.Warn("could not probe generated clip duration, using default", "path", clipPath, "error", err)
		return float64(xaiBrollDuration)
	}
	return float64(durSec)
}
