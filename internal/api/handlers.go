package api

import (
	"encoding/json"
	"net/http"
	"path"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/google/uuid"

	"github.com/giftloop/megaphone/internal/config"
	"github.com/giftloop/megaphone/internal/db"
	"github.com/giftloop/megaphone/internal/models"
	"github.com/giftloop/megaphone/internal/queue"
	"github.com/giftloop/megaphone/internal/services"
	"github.com/giftloop/megaphone/internal/storage"
)

type Handler struct {
	db       *db.DB
	queue    *queue.Queue
	storage  *storage.Storage
	telegram *services.TelegramService
	cfg      *config.Config
}

func NewHandler(database *db.DB, q *queue.Queue, stor *storage.Storage, telegram *services.TelegramService, cfg *config.Config) *Handler {
	return &Handler{
		db:       database,
		queue:    q,
		storage:  stor,
		telegram: telegram,
		cfg:      cfg,
	}
}

// CreatePackage handles POST /v1/packages
func (h *Handler) CreatePackage(w http.ResponseWriter, r *http.Request) {
	var req models.CreatePackageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	if err := validation.ValidateStruct(&req,
		validation.Field(&req.Topic, validation.Required, validation.Length(3, 200)),
	); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	occasion := models.OccasionGeneral
	if req.Occasion != nil {
		occasion = *req.Occasion
	}
	if !occasion.Valid() {
		respondError(w, http.StatusBadRequest, "Invalid occasion. Allowed: general, birthday, wedding, anniversary, christmas")
		return
	}

	platform := models.PlatformTikTok
	if req.Platform != nil {
		platform = *req.Platform
	}
	if !platform.Valid() {
		respondError(w, http.StatusBadRequest, "Invalid platform. Allowed: tiktok, instagram, youtube")
		return
	}

	hash := models.TopicHash(req.Topic)
	dup, err := h.db.IsDuplicateTopicHash(r.Context(), hash)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "Failed to check for duplicate topic")
		return
	}
	if dup {
		respondError(w, http.StatusConflict, "A package for this topic already exists")
		return
	}

	pkg := &models.ContentPackage{
		ID:           uuid.New(),
		Topic:        req.Topic,
		Occasion:     occasion,
		Platform:     platform,
		Status:       models.PackageStatusPending,
		VoicePersona: req.Persona,
		TopicHash:    hash,
	}
	if err := h.db.CreatePackage(r.Context(), pkg); err != nil {
		// The dedup pre-check races with the insert; the unique index settles it
		if db.IsUniqueViolation(err) {
			respondError(w, http.StatusConflict, "A package for this topic already exists")
			return
		}
		respondError(w, http.StatusInternalServerError, "Failed to create package")
		return
	}

	jobID, err := h.createJob(r, "generate_package", &pkg.ID)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "Failed to create job")
		return
	}
	if err := h.queue.EnqueueGeneratePackage(r.Context(), pkg.ID, jobID); err != nil {
		respondError(w, http.StatusInternalServerError, "Failed to enqueue job")
		return
	}

	respondJSON(w, http.StatusCreated, models.CreatePackageResponse{
		PackageID: pkg.ID,
		Status:    pkg.Status,
	})
}

// ListPackages handles GET /v1/packages
// Query params:
//   - status: filter by package status
//   - limit:  max results per page (default 20, max 100)
//   - offset: number of results to skip (default 0)
func (h *Handler) ListPackages(w http.ResponseWriter, r *http.Request) {
	statusFilter := r.URL.Query().Get("status")
	if statusFilter != "" {
		switch models.PackageStatus(statusFilter) {
		case models.PackageStatusPending, models.PackageStatusGenerating,
			models.PackageStatusRendering, models.PackageStatusDelivering,
			models.PackageStatusDelivered, models.PackageStatusFailed:
			// valid
		default:
			respondError(w, http.StatusBadRequest, "Invalid status filter. Allowed: pending, generating, rendering, delivering, delivered, failed")
			return
		}
	}

	limit, offset := parsePagination(r)

	total, err := h.db.CountPackages(r.Context(), statusFilter)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "Failed to count packages")
		return
	}

	packages, err := h.db.ListPackages(r.Context(), statusFilter, limit, offset)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "Failed to list packages")
		return
	}

	summaries := make([]models.PackageSummary, 0, len(packages))
	for _, pkg := range packages {
		summary := models.PackageSummary{
			ID:        pkg.ID,
			Topic:     pkg.Topic,
			Occasion:  pkg.Occasion,
			Platform:  pkg.Platform,
			Status:    pkg.Status,
			Hook:      pkg.Hook,
			CreatedAt: pkg.CreatedAt,
			UpdatedAt: pkg.UpdatedAt,
		}

		if pkg.VideoAssetID != nil {
			if asset, err := h.db.GetAsset(r.Context(), *pkg.VideoAssetID); err == nil {
				url := h.storage.GetPublicURL(asset.StoragePath)
				summary.VideoURL = &url
			}
		}

		summaries = append(summaries, summary)
	}

	respondJSON(w, http.StatusOK, models.ListPackagesResponse{
		Packages: summaries,
		Total:    total,
		Limit:    limit,
		Offset:   offset,
	})
}

// GetPackage handles GET /v1/packages/{id}
func (h *Handler) GetPackage(w http.ResponseWriter, r *http.Request) {
	packageID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		respondError(w, http.StatusBadRequest, "Invalid package ID")
		return
	}

	pkg, err := h.db.GetPackage(r.Context(), packageID)
	if err != nil {
		respondError(w, http.StatusNotFound, "Package not found")
		return
	}

	assets, err := h.db.GetPackageAssets(r.Context(), packageID)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "Failed to get assets")
		return
	}

	response := models.PackageResponse{
		ContentPackage: *pkg,
		Assets:         assets,
	}

	if jobs, err := h.db.GetPackageJobs(r.Context(), packageID); err == nil {
		response.Jobs = jobs
	}

	if pkg.VideoAssetID != nil {
		if asset, err := h.db.GetAsset(r.Context(), *pkg.VideoAssetID); err == nil {
			url := h.storage.GetPublicURL(asset.StoragePath)
			response.VideoURL = &url
		}
	}

	respondJSON(w, http.StatusOK, response)
}

// DownloadPackage handles GET /v1/packages/{id}/download.
// Returns a short-lived signed URL for the rendered video, which works
// even when the bucket is not public.
func (h *Handler) DownloadPackage(w http.ResponseWriter, r *http.Request) {
	packageID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		respondError(w, http.StatusBadRequest, "Invalid package ID")
		return
	}

	pkg, err := h.db.GetPackage(r.Context(), packageID)
	if err != nil {
		respondError(w, http.StatusNotFound, "Package not found")
		return
	}
	if pkg.VideoAssetID == nil {
		respondError(w, http.StatusConflict, "Package has no rendered video yet")
		return
	}

	asset, err := h.db.GetAsset(r.Context(), *pkg.VideoAssetID)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "Failed to get video asset")
		return
	}

	const expiresIn = 3600
	url, err := h.storage.GetSignedURL(r.Context(), asset.StoragePath, expiresIn)
	if err != nil {
		respondError(w, http.StatusBadGateway, "Failed to sign download URL: "+err.Error())
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"url":        url,
		"expires_in": expiresIn,
	})
}

// GetJob handles GET /v1/jobs/{id}. Trigger endpoints return a job ID;
// this is where callers poll it.
func (h *Handler) GetJob(w http.ResponseWriter, r *http.Request) {
	jobID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		respondError(w, http.StatusBadRequest, "Invalid job ID")
		return
	}

	job, err := h.db.GetJob(r.Context(), jobID)
	if err != nil {
		respondError(w, http.StatusNotFound, "Job not found")
		return
	}

	respondJSON(w, http.StatusOK, job)
}

// RedeliverPackage handles POST /v1/packages/{id}/deliver
func (h *Handler) RedeliverPackage(w http.ResponseWriter, r *http.Request) {
	packageID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		respondError(w, http.StatusBadRequest, "Invalid package ID")
		return
	}

	pkg, err := h.db.GetPackage(r.Context(), packageID)
	if err != nil {
		respondError(w, http.StatusNotFound, "Package not found")
		return
	}
	if pkg.VideoAssetID == nil {
		respondError(w, http.StatusConflict, "Package has no rendered video yet")
		return
	}

	jobID, err := h.createJob(r, "deliver_package", &pkg.ID)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "Failed to create job")
		return
	}
	if err := h.queue.EnqueueDeliverPackage(r.Context(), pkg.ID, jobID); err != nil {
		respondError(w, http.StatusInternalServerError, "Failed to enqueue job")
		return
	}

	respondJSON(w, http.StatusAccepted, map[string]string{
		"job_id": jobID.String(),
		"status": "queued",
	})
}

// TriggerDailyRun handles POST /v1/runs/daily
func (h *Handler) TriggerDailyRun(w http.ResponseWriter, r *http.Request) {
	count := h.cfg.DailyVideoCount
	if r.Body != nil && r.ContentLength > 0 {
		var req models.DailyRunRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			respondError(w, http.StatusBadRequest, "Invalid request body")
			return
		}
		if req.Count != nil {
			if *req.Count < 1 || *req.Count > 20 {
				respondError(w, http.StatusBadRequest, "Count must be between 1 and 20")
				return
			}
			count = *req.Count
		}
	}

	jobID, err := h.createJob(r, "daily_run", nil)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "Failed to create job")
		return
	}
	if err := h.queue.EnqueueDailyRun(r.Context(), count, jobID); err != nil {
		respondError(w, http.StatusInternalServerError, "Failed to enqueue job")
		return
	}

	respondJSON(w, http.StatusAccepted, models.DailyRunResponse{
		RunDate: time.Now().Format("2006-01-02"),
		JobID:   jobID,
		Count:   count,
		Status:  "queued",
	})
}

// CreateArticle handles POST /v1/articles
func (h *Handler) CreateArticle(w http.ResponseWriter, r *http.Request) {
	var req models.CreateArticleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	if err := validation.ValidateStruct(&req,
		validation.Field(&req.Topic, validation.Required, validation.Length(3, 200)),
	); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	keyword := req.Topic
	if req.Keyword != nil && *req.Keyword != "" {
		keyword = *req.Keyword
	}

	dup, err := h.db.IsDuplicateArticleTopic(r.Context(), models.TopicHash(req.Topic))
	if err != nil {
		respondError(w, http.StatusInternalServerError, "Failed to check for duplicate topic")
		return
	}
	if dup {
		respondError(w, http.StatusConflict, "An article for this topic already exists")
		return
	}

	article := &models.Article{
		ID:      uuid.New(),
		Topic:   req.Topic,
		Keyword: keyword,
		Status:  models.ArticleStatusPending,
	}
	if err := h.db.CreateArticle(r.Context(), article); err != nil {
		respondError(w, http.StatusInternalServerError, "Failed to create article")
		return
	}

	jobID, err := h.createJob(r, "write_article", nil)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "Failed to create job")
		return
	}
	if err := h.queue.EnqueueWriteArticle(r.Context(), article.ID, jobID); err != nil {
		respondError(w, http.StatusInternalServerError, "Failed to enqueue job")
		return
	}

	respondJSON(w, http.StatusCreated, models.CreateArticleResponse{
		ArticleID: article.ID,
		Status:    article.Status,
	})
}

// ListArticles handles GET /v1/articles
func (h *Handler) ListArticles(w http.ResponseWriter, r *http.Request) {
	statusFilter := r.URL.Query().Get("status")
	if statusFilter != "" {
		switch models.ArticleStatus(statusFilter) {
		case models.ArticleStatusPending, models.ArticleStatusWriting,
			models.ArticleStatusReady, models.ArticleStatusFailed:
			// valid
		default:
			respondError(w, http.StatusBadRequest, "Invalid status filter. Allowed: pending, writing, ready, failed")
			return
		}
	}

	limit, offset := parsePagination(r)

	articles, err := h.db.ListArticles(r.Context(), statusFilter, limit, offset)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "Failed to list articles")
		return
	}

	respondJSON(w, http.StatusOK, models.ListArticlesResponse{
		Articles: articles,
		Limit:    limit,
		Offset:   offset,
	})
}

// GetArticle handles GET /v1/articles/{id}
func (h *Handler) GetArticle(w http.ResponseWriter, r *http.Request) {
	articleID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		respondError(w, http.StatusBadRequest, "Invalid article ID")
		return
	}

	article, err := h.db.GetArticle(r.Context(), articleID)
	if err != nil {
		respondError(w, http.StatusNotFound, "Article not found")
		return
	}

	response := models.ArticleResponse{Article: *article}

	if article.HeroImageAssetID != nil {
		if asset, err := h.db.GetAsset(r.Context(), *article.HeroImageAssetID); err == nil {
			url := h.storage.GetPublicURL(asset.StoragePath)
			response.HeroImageURL = &url
		}
	}

	if assets, err := h.db.GetArticleAssets(r.Context(), articleID); err == nil {
		for _, asset := range assets {
			if asset.Type == models.AssetTypeArticleHTML {
				url := h.storage.GetPublicURL(asset.StoragePath)
				response.HTMLURL = &url
			}
		}
	}

	respondJSON(w, http.StatusOK, response)
}

// CreateImageSet handles POST /v1/images
func (h *Handler) CreateImageSet(w http.ResponseWriter, r *http.Request) {
	var req models.CreateImageSetRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	if err := validation.ValidateStruct(&req,
		validation.Field(&req.Topic, validation.Required, validation.Length(3, 200)),
	); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	for _, name := range req.Specs {
		if _, ok := services.SpecByName(name); !ok {
			respondError(w, http.StatusBadRequest, "Unknown image spec: "+name)
			return
		}
	}

	set := &models.ImageSet{
		ID:     uuid.New(),
		Topic:  req.Topic,
		Status: "pending",
	}
	if err := h.db.CreateImageSet(r.Context(), set); err != nil {
		respondError(w, http.StatusInternalServerError, "Failed to create image set")
		return
	}

	jobID, err := h.createJob(r, "generate_image_set", nil)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "Failed to create job")
		return
	}
	if err := h.queue.EnqueueGenerateImageSet(r.Context(), set.ID, req.Specs, jobID); err != nil {
		respondError(w, http.StatusInternalServerError, "Failed to enqueue job")
		return
	}

	respondJSON(w, http.StatusCreated, models.CreateImageSetResponse{
		ImageSetID: set.ID,
		Status:     set.Status,
	})
}

// ScanLeads handles POST /v1/leads/scan
func (h *Handler) ScanLeads(w http.ResponseWriter, r *http.Request) {
	var req models.ScanLeadsRequest
	if r.Body != nil && r.ContentLength > 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			respondError(w, http.StatusBadRequest, "Invalid request body")
			return
		}
	}

	for _, category := range req.Categories {
		if !validCategory(category) {
			respondError(w, http.StatusBadRequest, "Unknown category: "+category)
			return
		}
	}

	radius := 0
	if req.Radius != nil {
		if *req.Radius < 100 || *req.Radius > 50000 {
			respondError(w, http.StatusBadRequest, "Radius must be between 100 and 50000 meters")
			return
		}
		radius = *req.Radius
	}

	jobID, err := h.createJob(r, "scan_leads", nil)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "Failed to create job")
		return
	}
	if err := h.queue.EnqueueScanLeads(r.Context(), req.Categories, radius, jobID); err != nil {
		respondError(w, http.StatusInternalServerError, "Failed to enqueue job")
		return
	}

	respondJSON(w, http.StatusAccepted, map[string]string{
		"job_id": jobID.String(),
		"status": "queued",
	})
}

// ListLeads handles GET /v1/leads
func (h *Handler) ListLeads(w http.ResponseWriter, r *http.Request) {
	statusFilter := r.URL.Query().Get("status")
	if statusFilter != "" {
		switch models.LeadStatus(statusFilter) {
		case models.LeadStatusNew, models.LeadStatusDrafted,
			models.LeadStatusSent, models.LeadStatusSkipped:
			// valid
		default:
			respondError(w, http.StatusBadRequest, "Invalid status filter. Allowed: new, drafted, sent, skipped")
			return
		}
	}

	limit, offset := parsePagination(r)

	leads, err := h.db.ListLeads(r.Context(), statusFilter, limit, offset)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "Failed to list leads")
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"leads":  leads,
		"limit":  limit,
		"offset": offset,
	})
}

// GetLead handles GET /v1/leads/{id}
func (h *Handler) GetLead(w http.ResponseWriter, r *http.Request) {
	leadID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		respondError(w, http.StatusBadRequest, "Invalid lead ID")
		return
	}

	lead, err := h.db.GetLead(r.Context(), leadID)
	if err != nil {
		respondError(w, http.StatusNotFound, "Lead not found")
		return
	}

	respondJSON(w, http.StatusOK, lead)
}

// TriggerDistribution handles POST /v1/distribution/daily
func (h *Handler) TriggerDistribution(w http.ResponseWriter, r *http.Request) {
	jobID, err := h.createJob(r, "distribute_daily", nil)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "Failed to create job")
		return
	}
	if err := h.queue.EnqueueDistributeDaily(r.Context(), jobID); err != nil {
		respondError(w, http.StatusInternalServerError, "Failed to enqueue job")
		return
	}

	respondJSON(w, http.StatusAccepted, map[string]string{
		"job_id": jobID.String(),
		"status": "queued",
	})
}

// ListDistributionActions handles GET /v1/distribution/actions
func (h *Handler) ListDistributionActions(w http.ResponseWriter, r *http.Request) {
	days := 7
	if d := r.URL.Query().Get("days"); d != "" {
		if parsed, err := strconv.Atoi(d); err == nil && parsed > 0 {
			days = parsed
		}
	}
	if days > 90 {
		days = 90
	}

	actions, err := h.db.ListDistributionActions(r.Context(), days)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "Failed to list actions")
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"actions": actions,
		"days":    days,
	})
}

// ListOpportunities handles GET /v1/opportunities
func (h *Handler) ListOpportunities(w http.ResponseWriter, r *http.Request) {
	statusFilter := r.URL.Query().Get("status")
	if statusFilter != "" {
		switch models.OpportunityStatus(statusFilter) {
		case models.OpportunityStatusFound, models.OpportunityStatusSentForApproval,
			models.OpportunityStatusApproved, models.OpportunityStatusRejected:
			// valid
		default:
			respondError(w, http.StatusBadRequest, "Invalid status filter. Allowed: found, sent_for_approval, approved, rejected")
			return
		}
	}

	limit := 50
	if l := r.URL.Query().Get("limit"); l != "" {
		if parsed, err := strconv.Atoi(l); err == nil && parsed > 0 {
			limit = parsed
		}
	}
	if limit > 200 {
		limit = 200
	}

	opportunities, err := h.db.ListOpportunities(r.Context(), statusFilter, limit)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "Failed to list opportunities")
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"opportunities": opportunities,
		"limit":         limit,
	})
}

// UpdateOpportunity handles PATCH /v1/opportunities/{id}.
// This is the human half of the approval loop: drafted replies stay
// parked until an operator approves or rejects them here.
func (h *Handler) UpdateOpportunity(w http.ResponseWriter, r *http.Request) {
	oppID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		respondError(w, http.StatusBadRequest, "Invalid opportunity ID")
		return
	}

	var req models.UpdateOpportunityRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	switch req.Status {
	case models.OpportunityStatusApproved, models.OpportunityStatusRejected:
		// valid operator actions
	default:
		respondError(w, http.StatusBadRequest, "Status must be approved or rejected")
		return
	}

	if err := h.db.UpdateOpportunityStatus(r.Context(), oppID, req.Status); err != nil {
		respondError(w, http.StatusNotFound, "Opportunity not found")
		return
	}

	respondJSON(w, http.StatusOK, map[string]string{
		"id":     oppID.String(),
		"status": string(req.Status),
	})
}

// ScanOpportunities handles POST /v1/opportunities/scan. Runs the
// monitors alone, without the rest of the daily distribution workflow.
func (h *Handler) ScanOpportunities(w http.ResponseWriter, r *http.Request) {
	jobID, err := h.createJob(r, "scan_opportunities", nil)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "Failed to create job")
		return
	}
	if err := h.queue.EnqueueScanOpportunities(r.Context(), jobID); err != nil {
		respondError(w, http.StatusInternalServerError, "Failed to enqueue job")
		return
	}

	respondJSON(w, http.StatusAccepted, map[string]string{
		"job_id": jobID.String(),
		"status": "queued",
	})
}

// ListOperators handles GET /v1/operators
func (h *Handler) ListOperators(w http.ResponseWriter, r *http.Request) {
	operators, err := h.db.ListActiveOperators(r.Context())
	if err != nil {
		respondError(w, http.StatusInternalServerError, "Failed to list operators")
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"operators": operators,
	})
}

// CreateOperator handles POST /v1/operators. Registering an existing
// chat ID refreshes the name and reactivates the operator.
func (h *Handler) CreateOperator(w http.ResponseWriter, r *http.Request) {
	var req models.CreateOperatorRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	if err := validation.ValidateStruct(&req,
		validation.Field(&req.Name, validation.Required, validation.Length(1, 100)),
		validation.Field(&req.ChatID, validation.Required, validation.Length(1, 32)),
	); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	op := &models.Operator{
		ID:     uuid.New(),
		Name:   req.Name,
		ChatID: req.ChatID,
		Active: true,
	}
	if err := h.db.CreateOperator(r.Context(), op); err != nil {
		respondError(w, http.StatusInternalServerError, "Failed to create operator")
		return
	}

	// The upsert keeps the original row ID on re-registration, so fetch
	// the canonical row instead of echoing the request back.
	stored, err := h.db.GetOperatorByChatID(r.Context(), req.ChatID)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "Failed to load operator")
		return
	}

	respondJSON(w, http.StatusCreated, stored)
}

// UpdateOperator handles PATCH /v1/operators/{id}
func (h *Handler) UpdateOperator(w http.ResponseWriter, r *http.Request) {
	operatorID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		respondError(w, http.StatusBadRequest, "Invalid operator ID")
		return
	}

	var req models.UpdateOperatorRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	if err := h.db.SetOperatorActive(r.Context(), operatorID, req.Active); err != nil {
		respondError(w, http.StatusNotFound, "Operator not found")
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"id":     operatorID.String(),
		"active": req.Active,
	})
}

// ListClips handles GET /v1/clips
func (h *Handler) ListClips(w http.ResponseWriter, r *http.Request) {
	clips, err := h.db.ListSourceClips(r.Context())
	if err != nil {
		respondError(w, http.StatusInternalServerError, "Failed to list clips")
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"clips": clips,
		"total": len(clips),
	})
}

// GetImageSet handles GET /v1/images/{id}
func (h *Handler) GetImageSet(w http.ResponseWriter, r *http.Request) {
	setID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		respondError(w, http.StatusBadRequest, "Invalid image set ID")
		return
	}

	set, err := h.db.GetImageSet(r.Context(), setID)
	if err != nil {
		respondError(w, http.StatusNotFound, "Image set not found")
		return
	}

	response := models.ImageSetResponse{ImageSet: *set}

	if assets, err := h.db.GetImageSetAssets(r.Context(), setID); err == nil {
		response.Assets = assets
		response.URLs = make(map[string]string, len(assets))
		for _, asset := range assets {
			name := strings.TrimSuffix(path.Base(asset.StoragePath), ".jpg")
			response.URLs[name] = h.storage.GetPublicURL(asset.StoragePath)
		}
	}

	respondJSON(w, http.StatusOK, response)
}

// Stats handles GET /v1/stats
func (h *Handler) Stats(w http.ResponseWriter, r *http.Request) {
	stats := models.StatsResponse{
		Queues: make(map[string]int64, len(queue.AllQueues)),
		Clips:  make(map[models.ClipCategory]int, len(models.ClipCategories)),
	}

	for _, name := range queue.AllQueues {
		if length, err := h.queue.GetQueueLength(r.Context(), name); err == nil {
			stats.Queues[strings.TrimPrefix(name, "queue:")] = length
		}
	}

	for _, category := range models.ClipCategories {
		if count, err := h.db.CountClipsInCategory(r.Context(), category); err == nil {
			stats.Clips[category] = count
		}
	}

	respondJSON(w, http.StatusOK, stats)
}

// TelegramTest handles POST /v1/telegram/test
func (h *Handler) TelegramTest(w http.ResponseWriter, r *http.Request) {
	if err := h.telegram.SendTest(r.Context()); err != nil {
		respondError(w, http.StatusBadGateway, "Telegram send failed: "+err.Error())
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"status": "sent"})
}

// Helper methods

// createJob persists the bookkeeping row whose ID rides along in the
// queue envelope, so worker status updates always land on a real row.
func (h *Handler) createJob(r *http.Request, jobType string, packageID *uuid.UUID) (uuid.UUID, error) {
	job := &models.Job{
		ID:        uuid.New(),
		PackageID: packageID,
		Type:      jobType,
		Status:    models.JobStatusQueued,
	}
	if err := h.db.CreateJob(r.Context(), job); err != nil {
		return uuid.Nil, err
	}
	return job.ID, nil
}

func parsePagination(r *http.Request) (limit, offset int) {
	limit = 20
	if l := r.URL.Query().Get("limit"); l != "" {
		if parsed, err := strconv.Atoi(l); err == nil && parsed > 0 {
			limit = parsed
		}
	}
	if limit > 100 {
		limit = 100
	}

	offset = 0
	if o := r.URL.Query().Get("offset"); o != "" {
		if parsed, err := strconv.Atoi(o); err == nil && parsed >= 0 {
			offset = parsed
		}
	}
	return limit, offset
}

func validCategory(category string) bool {
	for _, c := range services.TargetCategories {
		if c == category {
			return true
		}
	}
	return false
}

func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{"error": message})
}

// Health check
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
