package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/yukikurage/daily-tracker/internal/models"
	"github.com/yukikurage/daily-tracker/internal/repository"
)

// JobService manages tracked job applications.
type JobService struct {
	store     *repository.Store
	aiService *AIService
}

func NewJobService(store *repository.Store, aiService *AIService) *JobService {
	return &JobService{store: store, aiService: aiService}
}

type CreateJobInput struct {
	URL         string
	Title       string
	Company     string
	Location    string
	Type        string
	Description string
	PostedDate  string
}

func (s *JobService) Create(ctx context.Context, userID string, input CreateJobInput) (*models.Job, error) {
	title := strings.TrimSpace(input.Title)
	if title == "" {
		return nil, ErrTitleRequired
	}

	job := &models.Job{
		UserID:      userID,
		URL:         strings.TrimSpace(input.URL),
		Title:       title,
		Company:     input.Company,
		Location:    input.Location,
		Type:        input.Type,
		Description: input.Description,
		PostedDate:  input.PostedDate,
	}
	if err := s.store.CreateJob(ctx, job); err != nil {
		return nil, fmt.Errorf("failed to create job: %w", err)
	}
	return job, nil
}

func (s *JobService) Get(ctx context.Context, userID, id string) (*models.Job, error) {
	job, err := s.store.GetJob(ctx, id)
	return owned(job, err, func(j *models.Job) string { return j.UserID }, userID)
}

func (s *JobService) List(ctx context.Context, userID string) ([]models.Job, error) {
	return s.store.ListJobs(ctx, userID)
}

func (s *JobService) Update(ctx context.Context, userID, id string, patch repository.JobPatch) (*models.Job, error) {
	if _, err := s.Get(ctx, userID, id); err != nil {
		return nil, err
	}
	if patch.Title != nil && strings.TrimSpace(*patch.Title) == "" {
		return nil, ErrTitleRequired
	}
	patch.AnalyzedDate = nil

	job, err := s.store.UpdateJob(ctx, id, patch)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, ErrNotFound
	}
	return job, err
}

func (s *JobService) Delete(ctx context.Context, userID, id string) error {
	if _, err := s.Get(ctx, userID, id); err != nil {
		return err
	}
	if err := s.store.DeleteJob(ctx, id); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrNotFound
		}
		return err
	}
	return nil
}

// Analyze compares resume with the job's description and records when the
// analysis happened.
func (s *JobService) Analyze(ctx context.Context, userID, id, resume string) (*models.Job, *ResumeAnalysis, error) {
	if !s.aiService.Configured() {
		return nil, nil, ErrAIServiceNotConfigured
	}
	job, err := s.Get(ctx, userID, id)
	if err != nil {
		return nil, nil, err
	}

	description := job.Description
	if strings.TrimSpace(description) == "" {
		description = fmt.Sprintf("%s at %s (%s)", job.Title, job.Company, job.Location)
	}

	analysis, err := s.aiService.AnalyzeResume(ctx, resume, description)
	if err != nil {
		return nil, nil, err
	}

	now := s.store.Now()
	job, err = s.store.UpdateJob(ctx, id, repository.JobPatch{AnalyzedDate: &now})
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, nil, ErrNotFound
		}
		return nil, nil, err
	}
	return job, analysis, nil
}
