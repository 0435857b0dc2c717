package services

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/sashabaranov/go-openai"
)

const chatSystemPrompt = `You are the Daily Tracker assistant. You help the user plan their job search, ` +
	`prepare for interviews, and organise their daily tasks. Answer concisely.`

type AIService struct {
	client *openai.Client
	model  string
}

// ResumeAnalysis is the structured result of comparing a resume to a job.
type ResumeAnalysis struct {
	MatchScore  int      `json:"matchScore"`
	Summary     string   `json:"summary"`
	Strengths   []string `json:"strengths"`
	Gaps        []string `json:"gaps"`
	Suggestions []string `json:"suggestions"`
}

// ChatMessage is one turn of a chat conversation.
type ChatMessage struct {
	Role    string `json:"role" binding:"required,oneof=user assistant"`
	Content string `json:"content" binding:"required"`
}

// NewAIService returns nil when apiKey is empty. baseURL may point at any
// OpenAI compatible endpoint.
func NewAIService(apiKey, model, baseURL string) *AIService {
	if apiKey == "" {
		return nil
	}
	cfg := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		cfg.BaseURL = baseURL
	}
	if model == "" {
		model = openai.GPT4oMini
	}
	return &AIService{
		client: openai.NewClientWithConfig(cfg),
		model:  model,
	}
}

// Configured is safe to call on a nil receiver.
func (s *AIService) Configured() bool {
	return s != nil && s.client != nil
}

// AnalyzeResume scores how well resume fits jobDescription.
func (s *AIService) AnalyzeResume(ctx context.Context, resume, jobDescription string) (*ResumeAnalysis, error) {
	if !s.Configured() {
		return nil, ErrAIServiceNotConfigured
	}

	prompt := fmt.Sprintf(`Compare the resume with the job description below.

Resume:
%s

Job description:
%s

Respond with a JSON object of this shape:
{
  "matchScore": integer from 0 to 100,
  "summary": "two or three sentences",
  "strengths": ["..."],
  "gaps": ["..."],
  "suggestions": ["concrete resume improvements"]
}
Return JSON only.`, resume, jobDescription)

	content, err := s.complete(ctx, openai.ChatCompletionRequest{
		Model: s.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleUser, Content: prompt},
		},
		Temperature: 0.3,
		ResponseFormat: &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		},
	})
	if err != nil {
		return nil, err
	}

	var analysis ResumeAnalysis
	if err := json.Unmarshal([]byte(content), &analysis); err != nil {
		return nil, fmt.Errorf("failed to parse AI response: %w (response: %s)", err, content)
	}
	analysis.MatchScore = min(max(analysis.MatchScore, 0), 100)
	return &analysis, nil
}

// Chat answers message given the earlier turns of the conversation.
func (s *AIService) Chat(ctx context.Context, history []ChatMessage, message string) (string, error) {
	if !s.Configured() {
		return "", ErrAIServiceNotConfigured
	}

	messages := make([]openai.ChatCompletionMessage, 0, len(history)+2)
	messages = append(messages, openai.ChatCompletionMessage{Role: openai.ChatMessageRoleSystem, Content: chatSystemPrompt})
	for _, m := range history {
		messages = append(messages, openai.ChatCompletionMessage{Role: m.Role, Content: m.Content})
	}
	messages = append(messages, openai.ChatCompletionMessage{Role: openai.ChatMessageRoleUser, Content: message})

	return s.complete(ctx, openai.ChatCompletionRequest{
		Model:       s.model,
		Messages:    messages,
		Temperature: 0.7,
	})
}

func (s *AIService) complete(ctx context.Context, req openai.ChatCompletionRequest) (string, error) {
	resp, err := s.client.CreateChatCompletion(ctx, req)
	if err != nil {
		return "", fmt.Errorf("OpenAI API error: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", ErrAIEmptyResponse
	}

	content := strings.TrimSpace(resp.Choices[0].Message.Content)
	if content == "" {
		return "", ErrAIEmptyResponse
	}
	return content, nil
}
