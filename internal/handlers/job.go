package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/yukikurage/daily-tracker/internal/dto"
	apierrors "github.com/yukikurage/daily-tracker/internal/errors"
	"github.com/yukikurage/daily-tracker/internal/middleware"
	"github.com/yukikurage/daily-tracker/internal/models"
	"github.com/yukikurage/daily-tracker/internal/repository"
	"github.com/yukikurage/daily-tracker/internal/services"
	"github.com/yukikurage/daily-tracker/internal/utils"
)

const (
	entityJob = "job"

	// jobKey holds the job loaded by the ownership middleware.
	jobKey = "job"
)

type JobHandler struct {
	jobService *services.JobService
	events     Broadcaster
}

func NewJobHandler(jobService *services.JobService, events Broadcaster) *JobHandler {
	return &JobHandler{
		jobService: jobService,
		events:     events,
	}
}

// LoadJob is the ownership loader for /jobs/:id routes.
func (h *JobHandler) LoadJob() gin.HandlerFunc {
	return middleware.RequireOwnership(jobKey, h.jobService.Get)
}

// ListJobs returns one page of the user's jobs, newest first.
func (h *JobHandler) ListJobs(c *gin.Context) {
	jobs, err := h.jobService.List(c.Request.Context(), currentUserID(c))
	if err != nil {
		respondError(c, err)
		return
	}

	params := utils.GetPaginationParams(c)
	page := utils.Paginate(jobs, params)
	c.JSON(http.StatusOK, dto.ToJobListResponse(page, params.Page, params.Limit, int64(len(jobs))))
}

func (h *JobHandler) CreateJob(c *gin.Context) {
	type CreateJobRequest struct {
		URL         string `json:"url"`
		Title       string `json:"title" binding:"required"`
		Company     string `json:"company"`
		Location    string `json:"location"`
		Type        string `json:"type"`
		Description string `json:"description"`
		PostedDate  string `json:"postedDate"`
	}

	var req CreateJobRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.BadRequest(c, "Invalid request body")
		return
	}

	job, err := h.jobService.Create(c.Request.Context(), currentUserID(c), services.CreateJobInput{
		URL:         req.URL,
		Title:       req.Title,
		Company:     req.Company,
		Location:    req.Location,
		Type:        req.Type,
		Description: req.Description,
		PostedDate:  req.PostedDate,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	h.events.Broadcast(event(entityJob, actionCreated), job)
	c.JSON(http.StatusCreated, job)
}

func (h *JobHandler) GetJob(c *gin.Context) {
	job, ok := middleware.Loaded[models.Job](c, jobKey)
	if !ok {
		apierrors.NotFound(c, "")
		return
	}
	c.JSON(http.StatusOK, job)
}

func (h *JobHandler) UpdateJob(c *gin.Context) {
	var patch repository.JobPatch
	if err := c.ShouldBindJSON(&patch); err != nil {
		apierrors.BadRequest(c, "Invalid request body")
		return
	}

	job, err := h.jobService.Update(c.Request.Context(), currentUserID(c), c.Param("id"), patch)
	if err != nil {
		respondError(c, err)
		return
	}

	h.events.Broadcast(event(entityJob, actionUpdated), job)
	c.JSON(http.StatusOK, job)
}

func (h *JobHandler) DeleteJob(c *gin.Context) {
	id := c.Param("id")
	if err := h.jobService.Delete(c.Request.Context(), currentUserID(c), id); err != nil {
		respondError(c, err)
		return
	}

	h.events.Broadcast(event(entityJob, actionDeleted), deletedPayload{ID: id})
	c.JSON(http.StatusOK, gin.H{
		"message": "Job deleted successfully",
	})
}

// AnalyzeJob scores a resume against the job description and stamps the
// job's analysis date.
func (h *JobHandler) AnalyzeJob(c *gin.Context) {
	type AnalyzeJobRequest struct {
		Resume string `json:"resume" binding:"required"`
	}

	var req AnalyzeJobRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.BadRequest(c, "Invalid request body")
		return
	}

	job, analysis, err := h.jobService.Analyze(c.Request.Context(), currentUserID(c), c.Param("id"), req.Resume)
	if err != nil {
		respondAIError(c, err)
		return
	}

	h.events.Broadcast(event(entityJob, actionUpdated), job)
	c.JSON(http.StatusOK, dto.JobAnalysisResponse{Job: *job, Analysis: *analysis})
}
