package worker

import (
	"context"
	"fmt"
	"math/rand"
	"os"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/giftloop/megaphone/internal/models"
	"github.com/giftloop/megaphone/internal/queue"
	"github.com/giftloop/megaphone/internal/services"
)

// segmentSeconds is the target length of each hash-broken segment. Three
// segments put the assembled video near the voiceover's fifteen seconds.
const segmentSeconds = 5.0

// silenceLeadMs pads the narration so the first word is never clipped.
const silenceLeadMs = 500

// renderClip is one selected source clip. id is nil when the clip exists
// on disk but could not be registered in the library.
type renderClip struct {
	id          *uuid.UUID
	path        string
	durationSec float64
}

// handleRenderVideo assembles the final vertical video for a package:
// visual and audio lanes run concurrently and converge at the mix.
func (w *Worker) handleRenderVideo(ctx context.Context, job *queue.Job) error {
	if job.PackageID == nil {
		return fmt.Errorf("package ID missing")
	}

	pkg, err := w.db.GetPackage(ctx, *job.PackageID)
	if err != nil {
		return fmt.Errorf("failed to get package: %w", err)
	}

	if err := w.db.UpdatePackageStatus(ctx, pkg.ID, models.PackageStatusRendering); err != nil {
		return fmt.Errorf("failed to update package status: %w", err)
	}

	if err := w.renderPackage(ctx, pkg); err != nil {
		w.db.UpdatePackageError(ctx, pkg.ID, err.Error())
		return err
	}

	return w.enqueueNext(ctx, pkg.ID, "deliver_package", w.queue.EnqueueDeliverPackage)
}

func (w *Worker) renderPackage(ctx context.Context, pkg *models.ContentPackage) error {
	rng := packageRNG(pkg.ID)
	// The lanes run concurrently, so each gets its own deterministic
	// stream instead of racing on one.
	visualRng := rand.New(rand.NewSource(rng.Int63()))
	audioRng := rand.New(rand.NewSource(rng.Int63()))

	short := pkg.ID.String()[:8]
	basePath := w.ffmpeg.CreateTempFile(fmt.Sprintf("base_%s.mp4", short))
	voicePath := w.ffmpeg.CreateTempFile(fmt.Sprintf("voice_%s.mp3", short))
	mixedPath := w.ffmpeg.CreateTempFile(fmt.Sprintf("mixed_%s.mp4", short))
	finalPath := w.ffmpeg.CreateTempFile(fmt.Sprintf("final_%s.mp4", short))
	defer w.ffmpeg.Cleanup(basePath, voicePath, mixedPath, finalPath)

	var (
		clips    []renderClip
		hasVoice bool
	)

	g, gctx := errgroup.WithContext(ctx)

	// Visual lane: select, hash-break, and concatenate three segments
	g.Go(func() error {
		var err error
		clips, err = w.selectClips(gctx, pkg, visualRng)
		if err != nil {
			return err
		}
		return w.assembleBase(gctx, pkg, clips, basePath, visualRng)
	})

	// Audio lane: narration with per-render voice variation
	g.Go(func() error {
		var err error
		hasVoice, err = w.synthesizeNarration(gctx, pkg, voicePath, audioRng)
		return err
	})

	if err := g.Wait(); err != nil {
		return err
	}

	// Converge: lay the narration and music under the base track
	videoPath := basePath
	if hasVoice {
		if err := w.ffmpeg.MixNarration(ctx, basePath, voicePath, w.cfg.BackgroundMusicPath, mixedPath); err != nil {
			return fmt.Errorf("failed to mix narration: %w", err)
		}
		videoPath = mixedPath
	}

	durMs, err := w.ffmpeg.GetVideoDuration(ctx, videoPath)
	if err != nil {
		return fmt.Errorf("failed to probe video duration: %w", err)
	}

	if err := w.applyOverlays(ctx, pkg, videoPath, finalPath, float64(durMs)/1000.0); err != nil {
		return err
	}

	if err := w.publishVideo(ctx, pkg, finalPath); err != nil {
		return err
	}

	marked := make(map[uuid.UUID]bool)
	for _, clip := range clips {
		if clip.id == nil || marked[*clip.id] {
			continue
		}
		marked[*clip.id] = true
		if err := w.db.MarkClipUsed(ctx, *clip.id); err != nil {
			w.log.Warn("clip usage update failed", "clip", *clip.id, "err", err)
		}
	}

	return nil
}

// selectClips picks one source clip per category, least-recently-used
// first. An empty category is backfilled by the b-roll cascade; when that
// fails too, an already-selected clip is duplicated so the video still
// gets its three segments.
func (w *Worker) selectClips(ctx context.Context, pkg *models.ContentPackage, rng *rand.Rand) ([]renderClip, error) {
	var selected []renderClip

	for _, category := range models.ClipCategories {
		clip, err := w.db.GetLeastUsedClip(ctx, category)
		if err == nil {
			var dur float64
			if clip.DurationSec != nil {
				dur = *clip.DurationSec
			}
			selected = append(selected, renderClip{id: &clip.ID, path: clip.FilePath, durationSec: dur})
			continue
		}

		w.log.Warn("no clip in category, backfilling", "category", category, "err", err)

		path, dur, bErr := w.broll.BackfillClip(ctx, category, pkg.Topic, rng)
		if bErr != nil {
			w.log.Warn("b-roll backfill failed, category will be reused from another",
				"category", category, "err", bErr)
			continue
		}

		sc := &models.SourceClip{
			ID:          uuid.New(),
			FilePath:    path,
			Category:    category,
			DurationSec: floatPtr(dur),
		}
		if regErr := w.db.RegisterSourceClip(ctx, sc); regErr != nil {
			w.log.Warn("backfilled clip registration failed", "path", path, "err", regErr)
			selected = append(selected, renderClip{path: path, durationSec: dur})
		} else {
			selected = append(selected, renderClip{id: &sc.ID, path: path, durationSec: dur})
		}
	}

	if len(selected) == 0 {
		return nil, fmt.Errorf("no source clips available in any category")
	}

	// Top up with duplicates when whole categories came up empty
	for len(selected) < len(models.ClipCategories) {
		selected = append(selected, selected[rng.Intn(len(selected))])
	}

	return selected, nil
}

// assembleBase cuts a hash-broken segment from each clip and concatenates
// them into the silent base track.
func (w *Worker) assembleBase(ctx context.Context, pkg *models.ContentPackage, clips []renderClip, outPath string, rng *rand.Rand) error {
	short := pkg.ID.String()[:8]
	segPaths := make([]string, 0, len(clips))
	defer func() { w.ffmpeg.Cleanup(segPaths...) }()

	for i, clip := range clips {
		segPath := w.ffmpeg.CreateTempFile(fmt.Sprintf("seg_%s_%d.mp4", short, i))

		start := 0.0
		if clip.durationSec > segmentSeconds {
			start = rng.Float64() * (clip.durationSec - segmentSeconds)
		}

		hb := services.RandomHashBreak(rng)
		if err := w.ffmpeg.CutSegment(ctx, clip.path, segPath, start, segmentSeconds, hb); err != nil {
			return fmt.Errorf("failed to cut segment %d: %w", i, err)
		}
		segPaths = append(segPaths, segPath)
	}

	if err := w.ffmpeg.ConcatenateClips(ctx, segPaths, outPath); err != nil {
		return fmt.Errorf("failed to concatenate segments: %w", err)
	}
	return nil
}

// synthesizeNarration produces the padded, rate-and-pitch-varied voice
// track at outPath. Returns false without error when the package renders
// silent: no TTS configured, no script, or synthesis failed.
func (w *Worker) synthesizeNarration(ctx context.Context, pkg *models.ContentPackage, outPath string, rng *rand.Rand) (bool, error) {
	script := deref(pkg.VoiceoverScript)
	if w.tts == nil || script == "" {
		w.log.Warn("no narration available, rendering silent", "package", pkg.ID)
		return false, nil
	}

	persona := services.PersonaByName(deref(pkg.VoicePersona))

	speech, err := w.tts.GenerateSpeech(ctx, script, persona)
	if err != nil {
		w.log.Warn("speech synthesis failed, rendering silent", "package", pkg.ID, "err", err)
		return false, nil
	}

	rawPath := outPath + ".raw.mp3"
	variedPath := outPath + ".varied.mp3"
	defer w.ffmpeg.Cleanup(rawPath, variedPath)

	if err := os.WriteFile(rawPath, speech.AudioData, 0644); err != nil {
		return false, fmt.Errorf("failed to stage narration: %w", err)
	}

	vv := services.RandomVoiceVariation(rng)
	if err := w.ffmpeg.VaryVoice(ctx, rawPath, variedPath, vv); err != nil {
		w.log.Warn("voice variation failed, using flat narration", "package", pkg.ID, "err", err)
		variedPath = rawPath
	}

	if err := w.ffmpeg.PrependSilence(ctx, variedPath, outPath, silenceLeadMs); err != nil {
		w.log.Warn("silence padding failed, using unpadded narration", "package", pkg.ID, "err", err)
		if err := os.Rename(variedPath, outPath); err != nil {
			return false, fmt.Errorf("failed to stage narration: %w", err)
		}
	}

	// The mix stops at video end, so an overlong narration loses its tail.
	if ms, err := w.ffmpeg.GetAudioDuration(ctx, outPath); err == nil {
		budget := segmentSeconds * float64(len(models.ClipCategories))
		if sec := float64(ms) / 1000.0; sec > budget {
			w.log.Warn("narration longer than the video, tail will be cut",
				"package", pkg.ID, "narration_sec", sec, "video_sec", budget)
		}
	}

	w.uploadAudioAsset(ctx, pkg, outPath)
	return true, nil
}

// uploadAudioAsset stores the narration track for audit. Failures are
// logged, not fatal: the mix already has the file it needs locally.
func (w *Worker) uploadAudioAsset(ctx context.Context, pkg *models.ContentPackage, path string) {
	data, err := os.ReadFile(path)
	if err != nil {
		w.log.Warn("voiceover read failed, skipping asset upload", "package", pkg.ID, "err", err)
		return
	}

	storagePath := w.storage.GenerateStoragePath(pkg.ID, "voiceover.mp3")
	if err := w.uploadWithLimit(ctx, "voiceover "+pkg.ID.String(), func() error {
		return w.storage.Upload(ctx, storagePath, data, "audio/mpeg")
	}); err != nil {
		w.log.Warn("voiceover upload failed", "package", pkg.ID, "err", err)
		return
	}

	asset := &models.Asset{
		ID:            uuid.New(),
		PackageID:     &pkg.ID,
		Type:          models.AssetTypeAudio,
		StorageBucket: w.storage.Bucket,
		StoragePath:   storagePath,
		ContentType:   strPtr("audio/mpeg"),
		ByteSize:      int64Ptr(int64(len(data))),
	}
	if err := w.db.CreateAsset(ctx, asset); err != nil {
		w.log.Warn("voiceover asset record failed", "package", pkg.ID, "err", err)
	}
}

// applyOverlays burns the hook and CTA cards into the video. The HTML
// card renderer is preferred; drawtext takes over when it is missing or
// fails, so a dead card service never stops the batch.
func (w *Worker) applyOverlays(ctx context.Context, pkg *models.ContentPackage, inPath, outPath string, totalDurSec float64) error {
	hook := deref(pkg.Hook)
	cta := deref(pkg.CTA)

	if w.overlay != nil && w.overlay.Enabled() {
		hookCard, ctaCard := w.renderCards(ctx, pkg, hook, cta)
		if hookCard != "" || ctaCard != "" {
			defer w.ffmpeg.Cleanup(hookCard, ctaCard)
			err := w.ffmpeg.OverlayCards(ctx, inPath, hookCard, ctaCard, outPath, totalDurSec)
			if err == nil {
				return nil
			}
			w.log.Warn("card overlay failed, falling back to drawtext", "package", pkg.ID, "err", err)
		}
	}

	if err := w.ffmpeg.DrawTextCards(ctx, inPath, outPath, w.cfg.OverlayFontPath, hook, cta, totalDurSec); err != nil {
		return fmt.Errorf("failed to draw overlay text: %w", err)
	}
	return nil
}

// renderCards renders the overlay PNGs, returning an empty path for
// whichever card failed.
func (w *Worker) renderCards(ctx context.Context, pkg *models.ContentPackage, hook, cta string) (string, string) {
	var hookPath, ctaPath string

	if hook != "" {
		if data, err := w.overlay.RenderHookCard(ctx, hook, pkg.Platform); err != nil {
			w.log.Warn("hook card render failed", "package", pkg.ID, "err", err)
		} else {
			hookPath = w.stageCard(ctx, pkg, "hook.png", data)
		}
	}

	if cta != "" {
		if data, err := w.overlay.RenderCTACard(ctx, cta, pkg.Platform); err != nil {
			w.log.Warn("cta card render failed", "package", pkg.ID, "err", err)
		} else {
			ctaPath = w.stageCard(ctx, pkg, "cta.png", data)
		}
	}

	return hookPath, ctaPath
}

// stageCard writes card bytes to a temp file for ffmpeg and records them
// as an overlay asset. Returns "" only when the local write failed.
func (w *Worker) stageCard(ctx context.Context, pkg *models.ContentPackage, name string, data []byte) string {
	path := w.ffmpeg.CreateTempFile(fmt.Sprintf("%s_%s", pkg.ID.String()[:8], name))
	if err := os.WriteFile(path, data, 0644); err != nil {
		w.log.Warn("card staging failed", "package", pkg.ID, "card", name, "err", err)
		return ""
	}

	storagePath := w.storage.GenerateStoragePath(pkg.ID, name)
	if err := w.uploadWithLimit(ctx, "card "+name, func() error {
		return w.storage.Upload(ctx, storagePath, data, "image/png")
	}); err != nil {
		w.log.Warn("card upload failed", "package", pkg.ID, "card", name, "err", err)
		return path
	}

	asset := &models.Asset{
		ID:            uuid.New(),
		PackageID:     &pkg.ID,
		Type:          models.AssetTypeOverlay,
		StorageBucket: w.storage.Bucket,
		StoragePath:   storagePath,
		ContentType:   strPtr("image/png"),
		ByteSize:      int64Ptr(int64(len(data))),
	}
	if err := w.db.CreateAsset(ctx, asset); err != nil {
		w.log.Warn("card asset record failed", "package", pkg.ID, "card", name, "err", err)
	}
	return path
}

// publishVideo uploads the finished render and points the package at it.
func (w *Worker) publishVideo(ctx context.Context, pkg *models.ContentPackage, path string) error {
	info, err := os.Stat(path)
	if err != nil {
		return fmt.Errorf("failed to stat final video: %w", err)
	}

	storagePath := w.storage.GenerateStoragePath(pkg.ID, "final.mp4")
	if err := w.uploadWithLimit(ctx, "video "+pkg.ID.String(), func() error {
		return w.storage.UploadFile(ctx, storagePath, path, "video/mp4")
	}); err != nil {
		return fmt.Errorf("failed to upload video: %w", err)
	}

	asset := &models.Asset{
		ID:            uuid.New(),
		PackageID:     &pkg.ID,
		Type:          models.AssetTypeVideo,
		StorageBucket: w.storage.Bucket,
		StoragePath:   storagePath,
		ContentType:   strPtr("video/mp4"),
		ByteSize:      int64Ptr(info.Size()),
	}
	if err := w.db.CreateAsset(ctx, asset); err != nil {
		return fmt.Errorf("failed to record video asset: %w", err)
	}

	if err := w.db.SetPackageVideo(ctx, pkg.ID, asset.ID); err != nil {
		return fmt.Errorf("failed to link video asset: %w", err)
	}

	w.log.Info("video rendered", "package", pkg.ID, "bytes", info.Size(), "path", storagePath)
	return nil
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
