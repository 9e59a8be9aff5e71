package models

import (
	"crypto/md5"
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Enums

type PackageStatus string

const (
	PackageStatusPending    PackageStatus = "pending"
	PackageStatusGenerating PackageStatus = "generating"
	PackageStatusRendering  PackageStatus = "rendering"
	PackageStatusDelivering PackageStatus = "delivering"
	PackageStatusDelivered  PackageStatus = "delivered"
	PackageStatusFailed     PackageStatus = "failed"
)

type Occasion string

const (
	OccasionGeneral     Occasion = "general"
	OccasionBirthday    Occasion = "birthday"
	OccasionWedding     Occasion = "wedding"
	OccasionAnniversary Occasion = "anniversary"
	OccasionChristmas   Occasion = "christmas"
)

// Occasions lists every supported occasion, in catalog order.
var Occasions = []Occasion{
	OccasionGeneral,
	OccasionBirthday,
	OccasionWedding,
	OccasionAnniversary,
	OccasionChristmas,
}

func (o Occasion) Valid() bool {
	for _, occ := range Occasions {
		if o == occ {
			return true
		}
	}
	return false
}

type Platform string

const (
	PlatformTikTok    Platform = "tiktok"
	PlatformInstagram Platform = "instagram"
	PlatformYouTube   Platform = "youtube"
)

var Platforms = []Platform{PlatformTikTok, PlatformInstagram, PlatformYouTube}

func (p Platform) Valid() bool {
	for _, pl := range Platforms {
		if p == pl {
			return true
		}
	}
	return false
}

// ClipCategory classifies source clips by the kind of footage they show.
// Selection takes one clip per category when the library allows it.
type ClipCategory string

const (
	ClipCategorySticking ClipCategory = "sticking"
	ClipCategoryScanning ClipCategory = "scanning"
	ClipCategoryReaction ClipCategory = "reaction"
)

var ClipCategories = []ClipCategory{
	ClipCategorySticking,
	ClipCategoryScanning,
	ClipCategoryReaction,
}

type AssetType string

const (
	AssetTypeVideo       AssetType = "video"
	AssetTypeAudio       AssetType = "audio"
	AssetTypeImage       AssetType = "image"
	AssetTypeOverlay     AssetType = "overlay"
	AssetTypeArticleHTML AssetType = "article_html"
)

type JobStatus string

const (
	JobStatusQueued    JobStatus = "queued"
	JobStatusRunning   JobStatus = "running"
	JobStatusSucceeded JobStatus = "succeeded"
	JobStatusFailed    JobStatus = "failed"
)

type ArticleStatus string

const (
	ArticleStatusPending ArticleStatus = "pending"
	ArticleStatusWriting ArticleStatus = "writing"
	ArticleStatusReady   ArticleStatus = "ready"
	ArticleStatusFailed  ArticleStatus = "failed"
)

type LeadStatus string

const (
	LeadStatusNew     LeadStatus = "new"
	LeadStatusDrafted LeadStatus = "drafted"
	LeadStatusSent    LeadStatus = "sent"
	LeadStatusSkipped LeadStatus = "skipped"
)

// BusinessStyle is the aesthetic classification assigned to an outreach lead.
type BusinessStyle string

const (
	StyleLuxury      BusinessStyle = "luxury"
	StyleRustic      BusinessStyle = "rustic"
	StyleModern      BusinessStyle = "modern"
	StyleTraditional BusinessStyle = "traditional"
	StyleEco         BusinessStyle = "eco"
)

// Tier is the automation level the distribution planner assigns per platform.
type Tier int

const (
	TierAutoSafe    Tier = 1 // direct publishing tolerated by the platform
	TierSemiAuto    Tier = 2 // monitor + draft, human posts
	TierApproval    Tier = 3 // nothing leaves without explicit approval
	TierMonitorOnly Tier = 4 // intelligence gathering, no engagement
)

// DistributionAction values record what the planner actually did.
type DistributionActionType string

const (
	ActionPublished         DistributionActionType = "published"
	ActionDrafted           DistributionActionType = "drafted"
	ActionQueuedForApproval DistributionActionType = "queued_for_approval"
	ActionMonitored         DistributionActionType = "monitored"
	ActionSkipped           DistributionActionType = "skipped"
)

type OpportunitySource string

const (
	OpportunitySourceReddit  OpportunitySource = "reddit"
	OpportunitySourceMumsnet OpportunitySource = "mumsnet"
)

type OpportunityStatus string

const (
	OpportunityStatusFound           OpportunityStatus = "found"
	OpportunityStatusSentForApproval OpportunityStatus = "sent_for_approval"
	OpportunityStatusApproved        OpportunityStatus = "approved"
	OpportunityStatusRejected        OpportunityStatus = "rejected"
)

// JSONB is a custom type for PostgreSQL JSONB columns
type JSONB map[string]interface{}

func (j JSONB) Value() (driver.Value, error) {
	return json.Marshal(j)
}

func (j *JSONB) Scan(value interface{}) error {
	if value == nil {
		*j = nil
		return nil
	}
	bytes, ok := value.([]byte)
	if !ok {
		return nil
	}
	return json.Unmarshal(bytes, j)
}

// StringList stores an ordered list of strings as JSONB (hashtags, outlines).
type StringList []string

func (l StringList) Value() (driver.Value, error) {
	if l == nil {
		return json.Marshal([]string{})
	}
	return json.Marshal(l)
}

func (l *StringList) Scan(value interface{}) error {
	if value == nil {
		*l = nil
		return nil
	}
	bytes, ok := value.([]byte)
	if !ok {
		return nil
	}
	return json.Unmarshal(bytes, l)
}

// Models

// TopicHash normalizes a topic for dedup: whitespace and case never make
// two runs of the same idea look distinct.
func TopicHash(topic string) string {
	return fmt.Sprintf("%x", md5.Sum([]byte(strings.ToLower(strings.TrimSpace(topic)))))
}

// ContentPackage is one ready-to-post bundle: a rendered video plus every
// text field the operator needs to publish it by hand.
type ContentPackage struct {
	ID              uuid.UUID     `json:"id"`
	Topic           string        `json:"topic"`
	Occasion        Occasion      `json:"occasion"`
	Platform        Platform      `json:"platform"`
	Status          PackageStatus `json:"status"`
	Hook            *string       `json:"hook,omitempty"`
	Caption         *string       `json:"caption,omitempty"`
	Hashtags        StringList    `json:"hashtags,omitempty"`
	CTA             *string       `json:"cta,omitempty"`
	VoiceoverScript *string       `json:"voiceover_script,omitempty"`
	VoicePersona    *string       `json:"voice_persona,omitempty"`
	VideoAssetID    *uuid.UUID    `json:"video_asset_id,omitempty"`
	TopicHash       string        `json:"topic_hash"`
	RunDate         *string       `json:"run_date,omitempty"` // YYYY-MM-DD of the daily run that created it
	ErrorMessage    *string       `json:"error_message,omitempty"`
	CreatedAt       time.Time     `json:"created_at"`
	UpdatedAt       time.Time     `json:"updated_at"`
}

type Asset struct {
	ID            uuid.UUID  `json:"id"`
	PackageID     *uuid.UUID `json:"package_id,omitempty"`
	ArticleID     *uuid.UUID `json:"article_id,omitempty"`
	ImageSetID    *uuid.UUID `json:"image_set_id,omitempty"`
	Type          AssetType  `json:"type"`
	StorageBucket string     `json:"storage_bucket"`
	StoragePath   string     `json:"storage_path"`
	ContentType   *string    `json:"content_type,omitempty"`
	ByteSize      *int64     `json:"byte_size,omitempty"`
	CreatedAt     time.Time  `json:"created_at"`
}

// SourceClip is one file in the local b-roll library.
type SourceClip struct {
	ID          uuid.UUID    `json:"id"`
	FilePath    string       `json:"file_path"`
	Category    ClipCategory `json:"category"`
	DurationSec *float64     `json:"duration_sec,omitempty"`
	TimesUsed   int          `json:"times_used"`
	LastUsedAt  *time.Time   `json:"last_used_at,omitempty"`
	CreatedAt   time.Time    `json:"created_at"`
}

type Article struct {
	ID               uuid.UUID     `json:"id"`
	Topic            string        `json:"topic"`
	Keyword          string        `json:"keyword"`
	Title            *string       `json:"title,omitempty"`
	Slug             *string       `json:"slug,omitempty"`
	Outline          StringList    `json:"outline,omitempty"`
	Markdown         *string       `json:"markdown,omitempty"`
	HTML             *string       `json:"html,omitempty"`
	WordCount        int           `json:"word_count"`
	ReadingMinutes   int           `json:"reading_minutes"`
	EpisodeNumber    int           `json:"episode_number"`
	Status           ArticleStatus `json:"status"`
	HeroImageAssetID *uuid.UUID    `json:"hero_image_asset_id,omitempty"`
	ErrorMessage     *string       `json:"error_message,omitempty"`
	CreatedAt        time.Time     `json:"created_at"`
	UpdatedAt        time.Time     `json:"updated_at"`
}

type ImageSet struct {
	ID           uuid.UUID `json:"id"`
	Topic        string    `json:"topic"`
	SpecsUsed    JSONB     `json:"specs_used,omitempty"`
	Status       string    `json:"status"` // pending | generating | ready | failed
	ErrorMessage *string   `json:"error_message,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

type Lead struct {
	ID               uuid.UUID     `json:"id"`
	Name             string        `json:"name"`
	Category         string        `json:"category"`
	Address          *string       `json:"address,omitempty"`
	Rating           *float64      `json:"rating,omitempty"`
	UserRatingsTotal *int          `json:"user_ratings_total,omitempty"`
	PlaceID          string        `json:"place_id"`
	Style            BusinessStyle `json:"style"`
	EmailDraft       *string       `json:"email_draft,omitempty"`
	Status           LeadStatus    `json:"status"`
	CreatedAt        time.Time     `json:"created_at"`
	UpdatedAt        time.Time     `json:"updated_at"`
}

// DistributionAction is one row in the planner's ledger.
type DistributionAction struct {
	ID          uuid.UUID              `json:"id"`
	ContentType string                 `json:"content_type"` // article | video | email | reply
	ContentRef  *string                `json:"content_ref,omitempty"`
	Platform    string                 `json:"platform"`
	Tier        Tier                   `json:"tier"`
	Action      DistributionActionType `json:"action"`
	Detail      *string                `json:"detail,omitempty"`
	CreatedAt   time.Time              `json:"created_at"`
}

// Opportunity is a monitor finding awaiting human action.
type Opportunity struct {
	ID             uuid.UUID         `json:"id"`
	Source         OpportunitySource `json:"source"`
	SourceRef      string            `json:"source_ref"` // subreddit or forum name
	Title          string            `json:"title"`
	URL            string            `json:"url"`
	Score          float64           `json:"score"`
	DangerLevel    int               `json:"danger_level"`
	SuggestedReply *string           `json:"suggested_reply,omitempty"`
	Status         OpportunityStatus `json:"status"`
	CreatedAt      time.Time         `json:"created_at"`
}

// Operator is a Telegram recipient for deliveries and digests.
type Operator struct {
	ID        uuid.UUID `json:"id"`
	Name      string    `json:"name"`
	ChatID    string    `json:"chat_id"`
	Active    bool      `json:"active"`
	CreatedAt time.Time `json:"created_at"`
}

// Topic is one entry in the content catalog.
type Topic struct {
	ID           uuid.UUID `json:"id"`
	Keyword      string    `json:"keyword"`
	Category     string    `json:"category"`
	Title        string    `json:"title"`
	Angle        string    `json:"angle"`
	SearchVolume int       `json:"search_volume"`
	Active       bool      `json:"active"`
	CreatedAt    time.Time `json:"created_at"`
}

type Job struct {
	ID           uuid.UUID  `json:"id"`
	PackageID    *uuid.UUID `json:"package_id,omitempty"`
	Type         string     `json:"type"`
	Status       JobStatus  `json:"status"`
	Attempts     int        `json:"attempts"`
	StartedAt    *time.Time `json:"started_at,omitempty"`
	FinishedAt   *time.Time `json:"finished_at,omitempty"`
	ErrorMessage *string    `json:"error_message,omitempty"`
	CreatedAt    time.Time  `json:"created_at"`
}

// DTOs for API responses

type PackageResponse struct {
	ContentPackage
	Assets   []Asset `json:"assets,omitempty"`
	Jobs     []Job   `json:"jobs,omitempty"`
	VideoURL *string `json:"video_url,omitempty"`
}

// PackageSummary is a lightweight DTO for the list endpoint.
type PackageSummary struct {
	ID        uuid.UUID     `json:"id"`
	Topic     string        `json:"topic"`
	Occasion  Occasion      `json:"occasion"`
	Platform  Platform      `json:"platform"`
	Status    PackageStatus `json:"status"`
	Hook      *string       `json:"hook,omitempty"`
	VideoURL  *string       `json:"video_url,omitempty"`
	CreatedAt time.Time     `json:"created_at"`
	UpdatedAt time.Time     `json:"updated_at"`
}

type ListPackagesResponse struct {
	Packages []PackageSummary `json:"packages"`
	Total    int              `json:"total"`
	Limit    int              `json:"limit"`
	Offset   int              `json:"offset"`
}

type CreatePackageRequest struct {
	Topic    string    `json:"topic"`
	Occasion *Occasion `json:"occasion,omitempty"` // Default: "general"
	Platform *Platform `json:"platform,omitempty"` // Default: "tiktok"
	Persona  *string   `json:"persona,omitempty"`  // Voice persona override
}

type CreatePackageResponse struct {
	PackageID uuid.UUID     `json:"package_id"`
	Status    PackageStatus `json:"status"`
}

type CreateArticleRequest struct {
	Topic   string  `json:"topic"`
	Keyword *string `json:"keyword,omitempty"` // Default: the topic
}

type CreateArticleResponse struct {
	ArticleID uuid.UUID     `json:"article_id"`
	Status    ArticleStatus `json:"status"`
}

type ArticleResponse struct {
	Article
	HeroImageURL *string `json:"hero_image_url,omitempty"`
	HTMLURL      *string `json:"html_url,omitempty"`
}

type ListArticlesResponse struct {
	Articles []Article `json:"articles"`
	Limit    int       `json:"limit"`
	Offset   int       `json:"offset"`
}

type CreateImageSetRequest struct {
	Topic string   `json:"topic"`
	Specs []string `json:"specs,omitempty"` // Subset of spec names; empty = all
}

type CreateImageSetResponse struct {
	ImageSetID uuid.UUID `json:"image_set_id"`
	Status     string    `json:"status"`
}

type ImageSetResponse struct {
	ImageSet
	Assets []Asset           `json:"assets,omitempty"`
	URLs   map[string]string `json:"urls,omitempty"` // spec name -> public URL
}

type ScanLeadsRequest struct {
	Categories []string `json:"categories,omitempty"` // Empty = all target categories
	Radius     *int     `json:"radius,omitempty"`     // Meters, default from config
}

type DailyRunRequest struct {
	Count *int `json:"count,omitempty"` // Default: DAILY_VIDEO_COUNT
}

// DailyRunResponse acknowledges the trigger; the run itself is planned by
// the worker, so package IDs show up via GET /v1/packages afterwards.
type DailyRunResponse struct {
	RunDate string    `json:"run_date"`
	JobID   uuid.UUID `json:"job_id"`
	Count   int       `json:"count"`
	Status  string    `json:"status"`
}

type CreateOperatorRequest struct {
	Name   string `json:"name"`
	ChatID string `json:"chat_id"`
}

type UpdateOperatorRequest struct {
	Active bool `json:"active"`
}

type UpdateOpportunityRequest struct {
	Status OpportunityStatus `json:"status"`
}

// StatsResponse is the ops snapshot: queue backlogs and clip library
// coverage per category.
type StatsResponse struct {
	Queues map[string]int64     `json:"queues"`
	Clips  map[ClipCategory]int `json:"clips"`
}
