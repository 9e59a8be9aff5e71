package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/google/uuid"
)

const (
	QueueGeneratePackage   = "queue:generate_package"
	QueueRenderVideo       = "queue:render_video"
	QueueDeliverPackage    = "queue:deliver_package"
	QueueDailyRun          = "queue:daily_run"
	QueueWriteArticle      = "queue:write_article"
	QueueGenerateImageSet  = "queue:generate_image_set"
	QueueScanLeads         = "queue:scan_leads"
	QueueDistributeDaily   = "queue:distribute_daily"
	QueueScanOpportunities = "queue:scan_opportunities"
)

// AllQueues lists every queue the worker consumes, in priority order.
var AllQueues = []string{
	QueueDailyRun,
	QueueGeneratePackage,
	QueueRenderVideo,
	QueueDeliverPackage,
	QueueWriteArticle,
	QueueGenerateImageSet,
	QueueScanLeads,
	QueueDistributeDaily,
	QueueScanOpportunities,
}

type Queue struct {
	client *redis.Client
}

type Job struct {
	ID        uuid.UUID              `json:"id"`
	Type      string                 `json:"type"`
	PackageID *uuid.UUID             `json:"package_id,omitempty"`
	ArticleID *uuid.UUID             `json:"article_id,omitempty"`
	Data      map[string]interface{} `json:"data,omitempty"`
	CreatedAt time.Time              `json:"created_at"`
}

func New(redisURL string) (*Queue, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse redis URL: %w", err)
	}

	client := redis.NewClient(opts)

	// Test connection
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	return &Queue{client: client}, nil
}

func (q *Queue) Close() error {
	return q.client.Close()
}

func (q *Queue) Enqueue(ctx context.Context, queueName string, job *Job) error {
	job.CreatedAt = time.Now()

	data, err := json.Marshal(job)
	if err != nil {
		return fmt.Errorf("failed to marshal job: %w", err)
	}

	return q.client.RPush(ctx, queueName, data).Err()
}

// Dequeue blocks on all queues at once; BLPop checks them in AllQueues order,
// which gives daily-run jobs priority over everything behind them.
func (q *Queue) Dequeue(ctx context.Context, timeout time.Duration) (*Job, error) {
	result, err := q.client.BLPop(ctx, timeout, AllQueues...).Result()
	if err == redis.Nil {
		return nil, nil // No job available
	}
	if err != nil {
		return nil, fmt.Errorf("failed to dequeue: %w", err)
	}

	if len(result) != 2 {
		return nil, fmt.Errorf("unexpected redis response")
	}

	var job Job
	if err := json.Unmarshal([]byte(result[1]), &job); err != nil {
		return nil, fmt.Errorf("failed to unmarshal job: %w", err)
	}

	return &job, nil
}

func (q *Queue) GetQueueLength(ctx context.Context, queueName string) (int64, error) {
	return q.client.LLen(ctx, queueName).Result()
}

// Callers create the matching jobs row first and pass its ID, so worker
// status updates always land on a real row.

// EnqueueGeneratePackage enqueues content generation for a package
func (q *Queue) EnqueueGeneratePackage(ctx context.Context, packageID, jobID uuid.UUID) error {
	job := &Job{
		ID:        jobID,
		Type:      "generate_package",
		PackageID: &packageID,
	}
	return q.Enqueue(ctx, QueueGeneratePackage, job)
}

// EnqueueRenderVideo enqueues video assembly for a generated package
func (q *Queue) EnqueueRenderVideo(ctx context.Context, packageID, jobID uuid.UUID) error {
	job := &Job{
		ID:        jobID,
		Type:      "render_video",
		PackageID: &packageID,
	}
	return q.Enqueue(ctx, QueueRenderVideo, job)
}

// EnqueueDeliverPackage enqueues Telegram delivery of a rendered package
func (q *Queue) EnqueueDeliverPackage(ctx context.Context, packageID, jobID uuid.UUID) error {
	job := &Job{
		ID:        jobID,
		Type:      "deliver_package",
		PackageID: &packageID,
	}
	return q.Enqueue(ctx, QueueDeliverPackage, job)
}

// EnqueueDailyRun enqueues the daily content run (topic pick + fan-out)
func (q *Queue) EnqueueDailyRun(ctx context.Context, count int, jobID uuid.UUID) error {
	job := &Job{
		ID:   jobID,
		Type: "daily_run",
		Data: map[string]interface{}{"count": count},
	}
	return q.Enqueue(ctx, QueueDailyRun, job)
}

// EnqueueWriteArticle enqueues blog article generation
func (q *Queue) EnqueueWriteArticle(ctx context.Context, articleID, jobID uuid.UUID) error {
	job := &Job{
		ID:        jobID,
		Type:      "write_article",
		ArticleID: &articleID,
	}
	return q.Enqueue(ctx, QueueWriteArticle, job)
}

// EnqueueGenerateImageSet enqueues image set generation
func (q *Queue) EnqueueGenerateImageSet(ctx context.Context, imageSetID uuid.UUID, specs []string, jobID uuid.UUID) error {
	data := map[string]interface{}{"image_set_id": imageSetID.String()}
	if len(specs) > 0 {
		data["specs"] = specs
	}
	job := &Job{
		ID:   jobID,
		Type: "generate_image_set",
		Data: data,
	}
	return q.Enqueue(ctx, QueueGenerateImageSet, job)
}

// EnqueueScanLeads enqueues an outreach lead scan
func (q *Queue) EnqueueScanLeads(ctx context.Context, categories []string, radius int, jobID uuid.UUID) error {
	data := map[string]interface{}{}
	if len(categories) > 0 {
		data["categories"] = categories
	}
	if radius > 0 {
		data["radius"] = radius
	}
	job := &Job{
		ID:   jobID,
		Type: "scan_leads",
		Data: data,
	}
	return q.Enqueue(ctx, QueueScanLeads, job)
}

// EnqueueDistributeDaily enqueues the daily distribution workflow
func (q *Queue) EnqueueDistributeDaily(ctx context.Context, jobID uuid.UUID) error {
	job := &Job{
		ID:   jobID,
		Type: "distribute_daily",
	}
	return q.Enqueue(ctx, QueueDistributeDaily, job)
}

// EnqueueScanOpportunities enqueues a standalone monitor sweep outside the
// daily distribution workflow
func (q *Queue) EnqueueScanOpportunities(ctx context.Context, jobID uuid.UUID) error {
	job := &Job{
		ID:   jobID,
		Type: "scan_opportunities",
	}
	return q.Enqueue(ctx, QueueScanOpportunities, job)
}
