package worker

import (
	"context"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"github.com/giftloop/megaphone/internal/models"
)

// IndexClipLibrary registers every video file under CLIPS_DIR/<category>/
// so renders can draw on footage dropped in by hand. Registration is an
// upsert keyed on file path, so repeated scans are harmless.
func (w *Worker) IndexClipLibrary(ctx context.Context) int {
	registered := 0
	for _, category := range models.ClipCategories {
		dir := filepath.Join(w.cfg.ClipsDir, string(category))
		entries, err := os.ReadDir(dir)
		if err != nil {
			// Absent category folders are normal on fresh installs
			continue
		}

		for _, entry := range entries {
			if entry.IsDir() || !isVideoFile(entry.Name()) {
				continue
			}

			path := filepath.Join(dir, entry.Name())
			clip := &models.SourceClip{
				ID:       uuid.New(),
				FilePath: path,
				Category: category,
			}
			if ms, err := w.ffmpeg.GetVideoDuration(ctx, path); err == nil {
				d := float64(ms) / 1000.0
				clip.DurationSec = &d
			}

			if err := w.db.RegisterSourceClip(ctx, clip); err != nil {
				w.log.Warn("clip registration failed", "path", path, "err", err)
				continue
			}
			registered++
		}
	}

	if registered > 0 {
		w.log.Info("clip library indexed", "clips", registered)
	}
	return registered
}

func isVideoFile(name string) bool {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".mp4", ".mov", ".m4v", ".webm":
		return true
	}
	return false
}
