package services

import (
	"context"
	"fmt"
	"math/rand"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	charm "github.com/charmbracelet/log"

	"github.com/giftloop/megaphone/internal/logging"
)

// Output / rendering constants — portrait 1080x1920 at 30fps
const (
	outputWidth  = 1080
	outputHeight = 1920
	videoFPS     = 30

	// Overlay timing: the hook card is shown over the opening seconds, the
	// CTA card over the closing ones.
	hookDisplaySeconds = 5.0
	ctaDisplaySeconds  = 3.0

	// Audio mix levels. Narration must stay dominant over music.
	voiceoverVolume = 0.9
	musicVolume     = 0.3
)

// ---------------------------------------------------------------------------
// Hash breaking
// Every rendered video gets small randomized transforms so no two uploads
// of the same source material produce identical files or perceptual hashes.
// The ranges are deliberately tight — imperceptible to a viewer.
// ---------------------------------------------------------------------------

// HashBreakParams holds the per-render transform set.
type HashBreakParams struct {
	SpeedFactor float64 // playback speed, 0.99–1.01
	Saturation  float64 // color saturation, 0.98–1.02
	CropPx      int     // pixels cropped from each edge, 0–10
	HFlip       bool    // horizontal mirror, 50% of renders
}

// RandomHashBreak draws a parameter set from the run's rng so a rerun of
// the same seed reproduces the same transforms.
func RandomHashBreak(rng *rand.Rand) HashBreakParams {
	return HashBreakParams{
		SpeedFactor: 0.99 + rng.Float64()*0.02,
		Saturation:  0.98 + rng.Float64()*0.04,
		CropPx:      rng.Intn(11),
		HFlip:       rng.Float64() < 0.5,
	}
}

// VoiceVariation holds the per-render narration transform. Rate and pitch
// wander slightly so repeated uploads don't carry an identical audio track.
type VoiceVariation struct {
	Rate  float64 // playback rate, 0.95–1.05
	Pitch float64 // pitch factor, 0.97–1.03
}

func RandomVoiceVariation(rng *rand.Rand) VoiceVariation {
	return VoiceVariation{
		Rate:  0.95 + rng.Float64()*0.10,
		Pitch: 0.97 + rng.Float64()*0.06,
	}
}

// ---------------------------------------------------------------------------
// FFmpegService
// ---------------------------------------------------------------------------

type FFmpegService struct {
	tempDir string
	log     *charm.Logger
}

func NewFFmpegService(tempDir string) *FFmpegService {
	if err := os.MkdirAll(tempDir, 0755); err != nil {
		panic(fmt.Sprintf("failed to create temp dir: %v", err))
	}

	return &FFmpegService{
		tempDir: tempDir,
		log:     logging.Component("ffmpeg"),
	}
}

// CutSegment extracts [startSec, startSec+durSec] from a source clip,
// applies the hash-break transforms, and normalizes to portrait
// 1080x1920@30 with no audio. Segments produced this way share a codec
// profile, so the final concat can stream-copy.
func (s *FFmpegService) CutSegment(ctx context.Context, srcPath, outPath string, startSec, durSec float64, hb HashBreakParams) error {
	vf := buildHashBreakFilter(hb)

	s.log.Debug("cutting segment", "src", filepath.Base(srcPath), "start", startSec, "dur", durSec,
		"speed", hb.SpeedFactor, "sat", hb.Saturation, "crop", hb.CropPx, "hflip", hb.HFlip)

	args := []string{
		"-ss", fmt.Sprintf("%.2f", startSec),
		"-t", fmt.Sprintf("%.2f", durSec),
		"-i", srcPath,
		"-vf", vf,
		"-an", // narration and music are mixed in later
		"-c:v", "libx264",
		"-preset", "fast",
		"-pix_fmt", "yuv420p",
		"-y",
		outPath,
	}

	cmd := exec.CommandContext(ctx, "ffmpeg", args...)
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr

	if err := cmd.Run(); err != nil {
		return fmt.Errorf("ffmpeg cut segment failed: %w", err)
	}

	return nil
}

// buildHashBreakFilter constructs the -vf chain for one segment.
//
// Pipeline: optional hflip → edge crop → scale+crop to portrait frame →
// saturation shift → speed change → fps/sar normalize.
func buildHashBreakFilter(hb HashBreakParams) string {
	var parts []string

	if hb.HFlip {
		parts = append(parts, "hflip")
	}

	if hb.CropPx > 0 {
		parts = append(parts, fmt.Sprintf("crop=iw-%d:ih-%d:%d:%d", 2*hb.CropPx, 2*hb.CropPx, hb.CropPx, hb.CropPx))
	}

	// Fill the portrait frame: scale up to cover, then center-crop
	parts = append(parts, fmt.Sprintf("scale=%d:%d:force_original_aspect_ratio=increase", outputWidth, outputHeight))
	parts = append(parts, fmt.Sprintf("crop=%d:%d", outputWidth, outputHeight))

	parts = append(parts, fmt.Sprintf("eq=saturation=%.3f", hb.Saturation))
	parts = append(parts, fmt.Sprintf("setpts=PTS/%.4f", hb.SpeedFactor))
	parts = append(parts, fmt.Sprintf("fps=%d", videoFPS))
	parts = append(parts, "setsar=1")

	return strings.Join(parts, ",")
}

// ConcatenateClips combines normalized segments into one video. Segments
// share the same codec profile, so this is a stream copy.
func (s *FFmpegService) ConcatenateClips(ctx context.Context, clipPaths []string, outputPath string) error {
	if len(clipPaths) == 0 {
		return fmt.Errorf("no clips to concatenate")
	}

	// Create a concat list file
	listPath := filepath.Join(s.tempDir, fmt.Sprintf("concat_%d.txt", rand.Int()))
	f, err := os.Create(listPath)
	if err != nil {
		return fmt.Errorf("failed to create concat list: %w", err)
	}

	for _, path := range clipPaths {
		// FFmpeg concat demuxer format
		fmt.Fprintf(f, "file '%s'\n", path)
	}
	f.Close()
	defer os.Remove(listPath)

	args := []string{
		"-f", "concat",
		"-safe", "0",
		"-i", listPath,
		"-c", "copy",
		"-y",
		outputPath,
	}

	cmd := exec.CommandContext(ctx, "ffmpeg", args...)
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr

	if err := cmd.Run(); err != nil {
		return fmt.Errorf("ffmpeg concatenate failed: %w", err)
	}

	return nil
}

// OverlayCards composites the hook card over the opening seconds and the
// CTA card over the closing ones. Either path may be empty, in which case
// that card is skipped. totalDurSec anchors the CTA window to the end.
func (s *FFmpegService) OverlayCards(ctx context.Context, videoPath, hookPath, ctaPath, outputPath string, totalDurSec float64) error {
	if hookPath == "" && ctaPath == "" {
		return fmt.Errorf("no overlay cards provided")
	}

	inputs := []string{"-i", videoPath}
	var filters []string
	current := "[0:v]"
	inputIdx := 1

	if hookPath != "" {
		inputs = append(inputs, "-i", hookPath)
		filters = append(filters, fmt.Sprintf("%s[%d:v]overlay=(W-w)/2:140:enable='between(t,0,%.1f)'[v%d]",
			current, inputIdx, hookDisplaySeconds, inputIdx))
		current = fmt.Sprintf("[v%d]", inputIdx)
		inputIdx++
	}

	if ctaPath != "" {
		inputs = append(inputs, "-i", ctaPath)
		filters = append(filters, fmt.Sprintf("%s[%d:v]overlay=(W-w)/2:H-h-180:enable='gte(t,%.1f)'[v%d]",
			current, inputIdx, totalDurSec-ctaDisplaySeconds, inputIdx))
		current = fmt.Sprintf("[v%d]", inputIdx)
	}

	args := append(inputs,
		"-filter_complex", strings.Join(filters, ";"),
		"-map", current,
		"-map", "0:a?", // keep audio if the input already has it
		"-c:v", "libx264",
		"-c:a", "copy",
		"-pix_fmt", "yuv420p",
		"-movflags", "+faststart",
		"-y",
		outputPath,
	)

	cmd := exec.CommandContext(ctx, "ffmpeg", args...)
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr

	if err := cmd.Run(); err != nil {
		return fmt.Errorf("ffmpeg overlay cards failed: %w", err)
	}

	return nil
}

// DrawTextCards burns the hook and CTA as styled drawtext instead of image
// cards. This is the fallback path when the card renderer is unavailable.
func (s *FFmpegService) DrawTextCards(ctx context.Context, videoPath, outputPath, fontPath, hookText, ctaText string, totalDurSec float64) error {
	var filters []string

	font := escapeFFmpegFilterPath(fontPath)

	if hookText != "" {
		filters = append(filters, fmt.Sprintf(
			"drawtext=fontfile='%s':text='%s':fontcolor=white:fontsize=68:borderw=5:bordercolor=black:x=(w-text_w)/2:y=160:enable='between(t,0,%.1f)'",
			font, escapeDrawtext(hookText), hookDisplaySeconds))
	}

	if ctaText != "" {
		filters = append(filters, fmt.Sprintf(
			"drawtext=fontfile='%s':text='%s':fontcolor=white:fontsize=52:borderw=4:bordercolor=black:x=(w-text_w)/2:y=h-text_h-200:enable='gte(t,%.1f)'",
			font, escapeDrawtext(ctaText), totalDurSec-ctaDisplaySeconds))
	}

	if len(filters) == 0 {
		return fmt.Errorf("no overlay text provided")
	}

	args := []string{
		"-i", videoPath,
		"-vf", strings.Join(filters, ","),
		"-c:v", "libx264",
		"-c:a", "copy",
		"-pix_fmt", "yuv420p",
		"-movflags", "+faststart",
		"-y",
		outputPath,
	}

	cmd := exec.CommandContext(ctx, "ffmpeg", args...)
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr

	if err := cmd.Run(); err != nil {
		return fmt.Errorf("ffmpeg drawtext cards failed: %w", err)
	}

	return nil
}

// MixNarration lays the voiceover and looping background music under the
// video. Narration at voiceoverVolume, music at musicVolume, ended with the
// video. musicPath may be empty or missing, in which case only the
// narration is mixed.
func (s *FFmpegService) MixNarration(ctx context.Context, videoPath, voiceoverPath, musicPath, outputPath string) error {
	useMusic := musicPath != ""
	if useMusic {
		if _, err := os.Stat(musicPath); os.IsNotExist(err) {
			s.log.Warn("background music file not found, mixing narration only", "path", musicPath)
			useMusic = false
		}
	}

	var args []string
	if useMusic {
		// [1:a] narration, [2:a] looping music, mixed until the video ends
		filterComplex := fmt.Sprintf(
			"[1:a]volume=%.2f[vo];[2:a]volume=%.2f[music];[vo][music]amix=inputs=2:duration=first:dropout_transition=2[aout]",
			voiceoverVolume, musicVolume)

		args = []string{
			"-i", videoPath,
			"-i", voiceoverPath,
			"-stream_loop", "-1",
			"-i", musicPath,
			"-filter_complex", filterComplex,
			"-map", "0:v",
			"-map", "[aout]",
			"-c:v", "copy",
			"-c:a", "aac",
			"-b:a", "192k",
			"-shortest",
			"-movflags", "+faststart",
			"-y",
			outputPath,
		}
	} else {
		filterComplex := fmt.Sprintf("[1:a]volume=%.2f[aout]", voiceoverVolume)

		args = []string{
			"-i", videoPath,
			"-i", voiceoverPath,
			"-filter_complex", filterComplex,
			"-map", "0:v",
			"-map", "[aout]",
			"-c:v", "copy",
			"-c:a", "aac",
			"-b:a", "192k",
			"-shortest",
			"-movflags", "+faststart",
			"-y",
			outputPath,
		}
	}

	cmd := exec.CommandContext(ctx, "ffmpeg", args...)
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr

	if err := cmd.Run(); err != nil {
		return fmt.Errorf("ffmpeg mix narration failed: %w", err)
	}

	return nil
}

// PrependSilence adds a silence buffer at the start of an audio file so the
// first word is never clipped.
func (s *FFmpegService) PrependSilence(ctx context.Context, inputAudioPath, outputAudioPath string, silenceMs int) error {
	delayFilter := fmt.Sprintf("adelay=%d|%d", silenceMs, silenceMs)

	args := []string{
		"-i", inputAudioPath,
		"-af", delayFilter,
		"-y",
		outputAudioPath,
	}

	cmd := exec.CommandContext(ctx, "ffmpeg", args...)
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr

	if err := cmd.Run(); err != nil {
		return fmt.Errorf("ffmpeg prepend silence failed: %w", err)
	}

	return nil
}

// VaryVoice applies the rate and pitch variation to a narration track.
// Pitch is shifted by resampling and the tempo compensated so the combined
// playback rate still lands on vv.Rate.
func (s *FFmpegService) VaryVoice(ctx context.Context, inputPath, outputPath string, vv VoiceVariation) error {
	// asetrate shifts pitch and speed together; atempo corrects the speed
	// so only the pitch shift remains, then applies the target rate.
	tempo := vv.Rate / vv.Pitch
	af := fmt.Sprintf("asetrate=44100*%.4f,aresample=44100,atempo=%.4f", vv.Pitch, tempo)

	s.log.Debug("varying voice", "rate", vv.Rate, "pitch", vv.Pitch, "tempo", tempo)

	args := []string{
		"-i", inputPath,
		"-af", af,
		"-y",
		outputPath,
	}

	cmd := exec.CommandContext(ctx, "ffmpeg", args...)
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr

	if err := cmd.Run(); err != nil {
		return fmt.Errorf("ffmpeg vary voice failed: %w", err)
	}

	return nil
}

// ---------------------------------------------------------------------------
// Ken Burns backfill
// When a clip category has nothing usable and no AI b-roll is available,
// a still image is animated into a segment so assembly can still proceed.
// ---------------------------------------------------------------------------

type ClipEffect string

const (
	EffectZoomIn  ClipEffect = "zoom_in"
	EffectZoomOut ClipEffect = "zoom_out"
	EffectPanUp   ClipEffect = "pan_up"
	EffectPanDown ClipEffect = "pan_down"
)

var allEffects = []ClipEffect{EffectZoomIn, EffectZoomOut, EffectPanUp, EffectPanDown}

func RandomEffect(rng *rand.Rand) ClipEffect {
	return allEffects[rng.Intn(len(allEffects))]
}

// KenBurnsSegment renders a still image into a portrait video segment with
// a slow zoom or pan, matching the codec profile of CutSegment output.
func (s *FFmpegService) KenBurnsSegment(ctx context.Context, imagePath, outPath string, durSec float64, effect ClipEffect) error {
	totalFrames := int(durSec * videoFPS)
	if totalFrames < videoFPS {
		totalFrames = videoFPS
	}

	var zExpr, yExpr string
	xExpr := "iw/2-(iw/zoom/2)"

	switch effect {
	case EffectZoomIn:
		zExpr = fmt.Sprintf("1.0+0.3*on/%d", totalFrames)
		yExpr = "ih/2-(ih/zoom/2)"
	case EffectZoomOut:
		zExpr = fmt.Sprintf("1.3-0.3*on/%d", totalFrames)
		yExpr = "ih/2-(ih/zoom/2)"
	case EffectPanUp:
		zExpr = "1.2"
		yExpr = fmt.Sprintf("(ih-ih/zoom)*(1-on/%d)", totalFrames)
	case EffectPanDown:
		zExpr = "1.2"
		yExpr = fmt.Sprintf("(ih-ih/zoom)*on/%d", totalFrames)
	default:
		zExpr = fmt.Sprintf("1.0+0.3*on/%d", totalFrames)
		yExpr = "ih/2-(ih/zoom/2)"
	}

	vf := fmt.Sprintf("zoompan=z='%s':x='%s':y='%s':d=%d:s=%dx%d:fps=%d,setsar=1",
		zExpr, xExpr, yExpr, totalFrames, outputWidth, outputHeight, videoFPS)

	args := []string{
		"-i", imagePath,
		"-vf", vf,
		"-frames:v", fmt.Sprintf("%d", totalFrames),
		"-an",
		"-c:v", "libx264",
		"-preset", "fast",
		"-pix_fmt", "yuv420p",
		"-y",
		outPath,
	}

	cmd := exec.CommandContext(ctx, "ffmpeg", args...)
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr

	if err := cmd.Run(); err != nil {
		return fmt.Errorf("ffmpeg ken burns segment failed (effect=%s): %w", effect, err)
	}

	return nil
}

// ---------------------------------------------------------------------------
// Probing and temp files
// ---------------------------------------------------------------------------

// GetAudioDuration returns the duration of an audio file in milliseconds
func (s *FFmpegService) GetAudioDuration(ctx context.Context, audioPath string) (int, error) {
	args := []string{
		"-v", "error",
		"-show_entries", "format=duration",
		"-of", "default=noprint_wrappers=1:nokey=1",
		audioPath,
	}

	cmd := exec.CommandContext(ctx, "ffprobe", args...)
	output, err := cmd.Output()
	if err != nil {
		return 0, fmt.Errorf("ffprobe failed: %w", err)
	}

	var durationSec float64
	if _, err := fmt.Sscanf(strings.TrimSpace(string(output)), "%f", &durationSec); err != nil {
		return 0, fmt.Errorf("failed to parse duration: %w", err)
	}

	return int(durationSec * 1000), nil
}

// GetVideoDuration returns the duration of a video file in milliseconds using ffprobe.
func (s *FFmpegService) GetVideoDuration(ctx context.Context, videoPath string) (int, error) {
	args := []string{
		"-v", "error",
		"-show_entries", "format=duration",
		"-of", "default=noprint_wrappers=1:nokey=1",
		videoPath,
	}

	cmd := exec.CommandContext(ctx, "ffprobe", args...)
	output, err := cmd.Output()
	if err != nil {
		return 0, fmt.Errorf("ffprobe video duration failed: %w", err)
	}

	var durationSec float64
	if _, err := fmt.Sscanf(strings.TrimSpace(string(output)), "%f", &durationSec); err != nil {
		return 0, fmt.Errorf("failed to parse video duration: %w", err)
	}

	return int(durationSec * 1000), nil
}

// CreateTempFile creates a temporary file path in the service's temp directory
func (s *FFmpegService) CreateTempFile(filename string) string {
	return filepath.Join(s.tempDir, filename)
}

// Cleanup removes temporary files
func (s *FFmpegService) Cleanup(paths ...string) {
	for _, path := range paths {
		os.Remove(path)
	}
}

// escapeFFmpegFilterPath escapes special characters in file paths for FFmpeg filter syntax.
// FFmpeg filter strings treat colons, backslashes, and single quotes specially.
func escapeFFmpegFilterPath(path string) string {
	path = strings.ReplaceAll(path, "\\", "\\\\")
	path = strings.ReplaceAll(path, ":", "\\:")
	path = strings.ReplaceAll(path, "'", "'\\''")
	return path
}

// escapeDrawtext escapes text for use inside a drawtext filter expression.
func escapeDrawtext(text string) string {
	text = strings.ReplaceAll(text, "\\", "\\\\")
	text = strings.ReplaceAll(text, ":", "\\:")
	text = strings.ReplaceAll(text, "'", "")
	text = strings.ReplaceAll(text, "%", "\\%")
	text = strings.ReplaceAll(text, ",", "\\,")
	return text
}
