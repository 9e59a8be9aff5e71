package worker

import (
	"context"
	"encoding/binary"
	"fmt"
	"math/rand"
	"time"

	charm "github.com/charmbracelet/log"
	"github.com/google/uuid"

	"github.com/giftloop/megaphone/internal/config"
	"github.com/giftloop/megaphone/internal/db"
	"github.com/giftloop/megaphone/internal/distribution"
	"github.com/giftloop/megaphone/internal/logging"
	"github.com/giftloop/megaphone/internal/models"
	"github.com/giftloop/megaphone/internal/queue"
	"github.com/giftloop/megaphone/internal/services"
	"github.com/giftloop/megaphone/internal/storage"
)

// jobTimeout caps a single job. Video renders dominate; everything else
// finishes in seconds.
const jobTimeout = 15 * time.Minute

type Worker struct {
	db      *db.DB
	queue   *queue.Queue
	storage *storage.Storage
	cfg     *config.Config

	gen      *services.Generator
	articles *services.ArticleWriter
	tts      services.TTSService // nil means silent-video mode
	ffmpeg   *services.FFmpegService
	overlay  *services.OverlayService
	photos   *services.PhotoService
	places   *services.PlacesService
	telegram *services.TelegramService
	broll    *services.BrollService
	workflow *distribution.Workflow

	uploadSem chan struct{} // limits concurrent storage uploads
	log       *charm.Logger
}

func New(
	database *db.DB,
	q *queue.Queue,
	stor *storage.Storage,
	cfg *config.Config,
	gen *services.Generator,
	articles *services.ArticleWriter,
	ttsSvc services.TTSService,
	ffmpegSvc *services.FFmpegService,
	overlaySvc *services.OverlayService,
	photosSvc *services.PhotoService,
	placesSvc *services.PlacesService,
	telegramSvc *services.TelegramService,
	brollSvc *services.BrollService,
	workflow *distribution.Workflow,
) *Worker {
	return &Worker{
		db:        database,
		queue:     q,
		storage:   stor,
		cfg:       cfg,
		gen:       gen,
		articles:  articles,
		tts:       ttsSvc,
		ffmpeg:    ffmpegSvc,
		overlay:   overlaySvc,
		photos:    photosSvc,
		places:    placesSvc,
		telegram:  telegramSvc,
		broll:     brollSvc,
		workflow:  workflow,
		uploadSem: make(chan struct{}, 4),
		log:       logging.Component("worker"),
	}
}

// uploadWithLimit wraps an upload in a semaphore so a batch of renders
// finishing together doesn't saturate the storage connection.
func (w *Worker) uploadWithLimit(ctx context.Context, label string, fn func() error) error {
	select {
	case w.uploadSem <- struct{}{}:
	case <-ctx.Done():
		return fmt.Errorf("upload cancelled while waiting for slot: %w", ctx.Err())
	}
	defer func() { <-w.uploadSem }()

	w.log.Debug("uploading", "label", label)
	return fn()
}

// Start launches the consumer pool and blocks until ctx is cancelled.
// Every consumer pulls from all queues; priority comes from the BLPop
// key order, not from dedicated goroutines per queue.
func (w *Worker) Start(ctx context.Context, concurrency int) {
	if concurrency < 1 {
		concurrency = 1
	}
	w.log.Info("worker started", "concurrency", concurrency)

	for i := 0; i < concurrency; i++ {
		go w.consume(ctx)
	}

	<-ctx.Done()
	w.log.Info("worker shutting down")
}

func (w *Worker) consume(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		default:
			job, err := w.queue.Dequeue(ctx, 5*time.Second)
			if err != nil {
				if ctx.Err() != nil {
					return
				}
				w.log.Error("dequeue failed", "err", err)
				continue
			}
			if job == nil {
				continue
			}
			w.process(ctx, job)
		}
	}
}

// process runs one job with a timeout and keeps the jobs table current.
// Bookkeeping writes use the outer ctx so a timed-out job can still
// record its failure.
func (w *Worker) process(ctx context.Context, job *queue.Job) {
	w.log.Info("job started", "id", job.ID, "type", job.Type)

	if err := w.db.UpdateJobStatus(ctx, job.ID, models.JobStatusRunning); err != nil {
		w.log.Warn("job status update failed", "id", job.ID, "err", err)
	}

	jobCtx, cancel := context.WithTimeout(ctx, jobTimeout)
	err := w.dispatch(jobCtx, job)
	cancel()

	if err != nil {
		w.log.Error("job failed", "id", job.ID, "type", job.Type, "err", err)
		if dbErr := w.db.UpdateJobError(ctx, job.ID, err.Error()); dbErr != nil {
			w.log.Warn("job error update failed", "id", job.ID, "err", dbErr)
		}
		return
	}

	w.log.Info("job completed", "id", job.ID, "type", job.Type)
	if err := w.db.UpdateJobStatus(ctx, job.ID, models.JobStatusSucceeded); err != nil {
		w.log.Warn("job status update failed", "id", job.ID, "err", err)
	}
}

func (w *Worker) dispatch(ctx context.Context, job *queue.Job) error {
	switch job.Type {
	case "generate_package":
		return w.handleGeneratePackage(ctx, job)
	case "render_video":
		return w.handleRenderVideo(ctx, job)
	case "deliver_package":
		return w.handleDeliverPackage(ctx, job)
	case "daily_run":
		return w.handleDailyRun(ctx, job)
	case "write_article":
		return w.handleWriteArticle(ctx, job)
	case "generate_image_set":
		return w.handleGenerateImageSet(ctx, job)
	case "scan_leads":
		return w.handleScanLeads(ctx, job)
	case "distribute_daily":
		return w.handleDistributeDaily(ctx, job)
	case "scan_opportunities":
		return w.handleScanOpportunities(ctx, job)
	default:
		return fmt.Errorf("unknown job type %q", job.Type)
	}
}

// enqueueNext creates the jobs row for a follow-on package job and pushes
// it, keeping the row and the queue entry under the same id.
func (w *Worker) enqueueNext(ctx context.Context, packageID uuid.UUID, jobType string, push func(context.Context, uuid.UUID, uuid.UUID) error) error {
	jobID := uuid.New()
	row := &models.Job{
		ID:        jobID,
		PackageID: &packageID,
		Type:      jobType,
		Status:    models.JobStatusQueued,
	}
	if err := w.db.CreateJob(ctx, row); err != nil {
		return fmt.Errorf("failed to create %s job: %w", jobType, err)
	}
	if err := push(ctx, packageID, jobID); err != nil {
		return fmt.Errorf("failed to enqueue %s job: %w", jobType, err)
	}
	return nil
}

// packageRNG derives a deterministic rng from a package id so a re-run of
// the same package reproduces its transforms and copy choices.
func packageRNG(id uuid.UUID) *rand.Rand {
	seed := int64(binary.BigEndian.Uint64(id[:8]))
	return rand.New(rand.NewSource(seed))
}

func strPtr(s string) *string {
	return &s
}

func int64Ptr(i int64) *int64 {
	return &i
}

func floatPtr(f float64) *float64 {
	return &f
}
