package dto

import (
	"github.com/yukikurage/daily-tracker/internal/models"
	"github.com/yukikurage/daily-tracker/internal/services"
)

// JobListResponse represents a paginated list of jobs
type JobListResponse struct {
	Jobs       []models.Job `json:"jobs"`
	Page       int          `json:"page"`
	PageSize   int          `json:"pageSize"`
	TotalCount int64        `json:"totalCount"`
	TotalPages int          `json:"totalPages"`
}

// ToJobListResponse wraps one page of jobs with its pagination metadata.
func ToJobListResponse(jobs []models.Job, page, pageSize int, totalCount int64) JobListResponse {
	totalPages := int(totalCount) / pageSize
	if int(totalCount)%pageSize > 0 {
		totalPages++
	}

	return JobListResponse{
		Jobs:       jobs,
		Page:       page,
		PageSize:   pageSize,
		TotalCount: totalCount,
		TotalPages: totalPages,
	}
}

// JobAnalysisResponse is returned by the job analysis endpoint.
type JobAnalysisResponse struct {
	Job      models.Job              `json:"job"`
	Analysis services.ResumeAnalysis `json:"analysis"`
}

// ChatResponse is returned by the chat endpoint.
type ChatResponse struct {
	Reply string               `json:"reply"`
	Quota services.QuotaStatus `json:"quota"`
}
