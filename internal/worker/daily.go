package worker

import (
	"context"
	"crypto/md5"
	"encoding/binary"
	"fmt"
	"math/rand"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/giftloop/megaphone/internal/db"
	"github.com/giftloop/megaphone/internal/models"
	"github.com/giftloop/megaphone/internal/queue"
)

var categoryOccasions = map[string]models.Occasion{
	"wedding":     models.OccasionWedding,
	"christmas":   models.OccasionChristmas,
	"birthday":    models.OccasionBirthday,
	"anniversary": models.OccasionAnniversary,
}

func occasionForCategory(category string) models.Occasion {
	if occ, ok := categoryOccasions[strings.ToLower(category)]; ok {
		return occ
	}
	return models.OccasionGeneral
}

// handleDailyRun plans the day's batch and enqueues a generate job per
// package. The pick is seeded by the run date, so a crashed run replays
// the same plan and the dedup check drops whatever already got through.
func (w *Worker) handleDailyRun(ctx context.Context, job *queue.Job) error {
	count := w.cfg.DailyVideoCount
	if raw, ok := job.Data["count"].(float64); ok && int(raw) > 0 {
		count = int(raw)
	}

	runDate, planned, err := w.planDaily(ctx, count)
	if err != nil {
		return err
	}

	for _, pkg := range planned {
		if err := w.enqueueNext(ctx, pkg.ID, "generate_package", w.queue.EnqueueGeneratePackage); err != nil {
			return err
		}
	}

	w.log.Info("daily run planned", "run_date", runDate, "requested", count, "enqueued", len(planned))
	return nil
}

// planDaily picks topics from the pool and creates the pending package
// rows, without enqueueing anything.
func (w *Worker) planDaily(ctx context.Context, count int) (string, []*models.ContentPackage, error) {
	runDate := time.Now().Format("2006-01-02")
	sum := md5.Sum([]byte(runDate))
	rng := rand.New(rand.NewSource(int64(binary.BigEndian.Uint64(sum[:8]))))

	topics, err := w.db.ListActiveTopics(ctx)
	if err != nil {
		return "", nil, fmt.Errorf("failed to list topics: %w", err)
	}
	if len(topics) == 0 {
		return "", nil, fmt.Errorf("no active topics in pool")
	}

	var planned []*models.ContentPackage
	for _, topic := range diversityOrder(topics, rng) {
		if len(planned) >= count {
			break
		}

		hash := models.TopicHash(topic.Title)
		dup, err := w.db.IsDuplicateTopicHash(ctx, hash)
		if err != nil {
			return "", nil, fmt.Errorf("failed to check topic dedup: %w", err)
		}
		if dup {
			w.log.Info("topic already covered, skipping", "topic", topic.Title)
			continue
		}

		pkg := &models.ContentPackage{
			ID:        uuid.New(),
			Topic:     topic.Title,
			Occasion:  occasionForCategory(topic.Category),
			Platform:  models.Platforms[len(planned)%len(models.Platforms)],
			Status:    models.PackageStatusPending,
			TopicHash: hash,
			RunDate:   &runDate,
		}
		if err := w.db.CreatePackage(ctx, pkg); err != nil {
			if db.IsUniqueViolation(err) {
				w.log.Info("topic taken by a concurrent run, skipping", "topic", topic.Title)
				continue
			}
			return "", nil, fmt.Errorf("failed to create package: %w", err)
		}
		planned = append(planned, pkg)
	}

	return runDate, planned, nil
}

// diversityOrder shuffles the pool, then moves the first topic of each
// category to the front. Later entries repeat categories and serve as
// spillover when dedup rejects an earlier pick.
func diversityOrder(topics []models.Topic, rng *rand.Rand) []models.Topic {
	shuffled := make([]models.Topic, len(topics))
	copy(shuffled, topics)
	rng.Shuffle(len(shuffled), func(i, j int) { shuffled[i], shuffled[j] = shuffled[j], shuffled[i] })

	seen := make(map[string]bool)
	front := make([]models.Topic, 0, len(shuffled))
	var back []models.Topic
	for _, t := range shuffled {
		if seen[t.Category] {
			back = append(back, t)
			continue
		}
		seen[t.Category] = true
		front = append(front, t)
	}
	return append(front, back...)
}
