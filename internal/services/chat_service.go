package services

import (
	"context"
	"strings"

	"github.com/yukikurage/daily-tracker/internal/quota"
)

// ChatService enforces the per-user daily chat limit in front of the AI
// service.
type ChatService struct {
	ai      *AIService
	counter *quota.Counter
	limit   int
}

func NewChatService(ai *AIService, counter *quota.Counter, limit int) *ChatService {
	return &ChatService{ai: ai, counter: counter, limit: limit}
}

// QuotaStatus is the user's chat usage.
type QuotaStatus struct {
	Used      int `json:"used"`
	Limit     int `json:"limit"`
	Remaining int `json:"remaining"`
}

func (s *ChatService) Quota(userID string) QuotaStatus {
	used := s.counter.Get(userID)
	return QuotaStatus{
		Used:      used,
		Limit:     s.limit,
		Remaining: max(s.limit-used, 0),
	}
}

// Send rejects the message once the limit is reached. Only successful calls
// count against the quota.
func (s *ChatService) Send(ctx context.Context, userID string, history []ChatMessage, message string) (string, QuotaStatus, error) {
	if !s.ai.Configured() {
		return "", QuotaStatus{}, ErrAIServiceNotConfigured
	}
	if strings.TrimSpace(message) == "" {
		return "", QuotaStatus{}, ErrMessageRequired
	}
	if !s.counter.Reserve(userID, s.limit) {
		return "", s.Quota(userID), ErrQuotaExceeded
	}

	reply, err := s.ai.Chat(ctx, history, message)
	if err != nil {
		s.counter.Release(userID)
		return "", s.Quota(userID), err
	}

	s.counter.Commit(userID)
	return reply, s.Quota(userID), nil
}

// ResetQuota is called when the user's session ends.
func (s *ChatService) ResetQuota(userID string) {
	s.counter.Reset(userID)
}
