package services

import (
	"context"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yukikurage/daily-tracker/internal/repository"
)

func TestJobService_CRUD(t *testing.T) {
	ctx := context.Background()
	svc := NewJobService(newTestStore(newTestClock()), nil)

	_, err := svc.Create(ctx, "u1", CreateJobInput{})
	assert.ErrorIs(t, err, ErrTitleRequired)

	job, err := svc.Create(ctx, "u1", CreateJobInput{Title: "Platform Engineer", Company: "Acme", URL: " https://acme.dev/jobs/1 "})
	require.NoError(t, err)
	assert.Equal(t, "https://acme.dev/jobs/1", job.URL)
	assert.Nil(t, job.AnalyzedDate)

	location := "Remote"
	updated, err := svc.Update(ctx, "u1", job.ID, repository.JobPatch{Location: &location})
	require.NoError(t, err)
	assert.Equal(t, "Remote", updated.Location)
	assert.Equal(t, "Acme", updated.Company)

	_, err = svc.Get(ctx, "u2", job.ID)
	assert.ErrorIs(t, err, ErrNotFound)

	jobs, err := svc.List(ctx, "u1")
	require.NoError(t, err)
	assert.Len(t, jobs, 1)

	require.NoError(t, svc.Delete(ctx, "u1", job.ID))
	_, err = svc.Get(ctx, "u1", job.ID)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestJobService_Analyze(t *testing.T) {
	ctx := context.Background()
	clock := newTestClock()
	ai, requests := newTestAIService(t, http.StatusOK, func(map[string]any) string {
		return `{"matchScore": 140, "summary": "Strong fit", "strengths": ["Go"], "gaps": ["Kubernetes"], "suggestions": ["Mention gRPC"]}`
	})
	svc := NewJobService(newTestStore(clock), ai)

	job, err := svc.Create(ctx, "u1", CreateJobInput{Title: "Go Developer", Description: "Build services in Go"})
	require.NoError(t, err)

	clock.Advance(time.Hour)
	analyzed, analysis, err := svc.Analyze(ctx, "u1", job.ID, "Five years of Go")
	require.NoError(t, err)

	assert.Equal(t, 100, analysis.MatchScore, "score is clamped")
	assert.Equal(t, []string{"Go"}, analysis.Strengths)
	require.NotNil(t, analyzed.AnalyzedDate)
	assert.True(t, analyzed.AnalyzedDate.Equal(clock.Now()))

	require.Len(t, *requests, 1)
	req := (*requests)[0]
	assert.Equal(t, "gpt-4o-mini", req["model"])
	messages := req["messages"].([]any)
	prompt := messages[0].(map[string]any)["content"].(string)
	assert.True(t, strings.Contains(prompt, "Five years of Go"))
	assert.True(t, strings.Contains(prompt, "Build services in Go"))

	_, _, err = svc.Analyze(ctx, "u2", job.ID, "resume")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestJobService_AnalyzeWithoutAI(t *testing.T) {
	svc := NewJobService(newTestStore(newTestClock()), NewAIService("", "", ""))
	_, _, err := svc.Analyze(context.Background(), "u1", "any", "resume")
	assert.ErrorIs(t, err, ErrAIServiceNotConfigured)
}
