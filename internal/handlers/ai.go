package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/yukikurage/daily-tracker/internal/dto"
	apierrors "github.com/yukikurage/daily-tracker/internal/errors"
	"github.com/yukikurage/daily-tracker/internal/services"
)

type AIHandler struct {
	aiService   *services.AIService
	chatService *services.ChatService
}

func NewAIHandler(aiService *services.AIService, chatService *services.ChatService) *AIHandler {
	return &AIHandler{
		aiService:   aiService,
		chatService: chatService,
	}
}

// AnalyzeResume scores a resume against a free-form job description.
func (h *AIHandler) AnalyzeResume(c *gin.Context) {
	type AnalyzeResumeRequest struct {
		Resume         string `json:"resume" binding:"required"`
		JobDescription string `json:"jobDescription" binding:"required"`
	}

	if !h.aiService.Configured() {
		respondError(c, services.ErrAIServiceNotConfigured)
		return
	}

	var req AnalyzeResumeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.BadRequest(c, "Invalid request body")
		return
	}

	analysis, err := h.aiService.AnalyzeResume(c.Request.Context(), req.Resume, req.JobDescription)
	if err != nil {
		respondAIError(c, err)
		return
	}
	c.JSON(http.StatusOK, analysis)
}

// Chat sends one message with the prior conversation. Once the daily limit is
// reached it answers 429 with the current quota.
func (h *AIHandler) Chat(c *gin.Context) {
	type ChatRequest struct {
		Message string                 `json:"message" binding:"required"`
		History []services.ChatMessage `json:"history" binding:"omitempty,dive"`
	}

	var req ChatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.BadRequest(c, "Invalid request body")
		return
	}

	reply, status, err := h.chatService.Send(c.Request.Context(), currentUserID(c), req.History, req.Message)
	if err != nil {
		if errors.Is(err, services.ErrQuotaExceeded) {
			apierrors.QuotaExceeded(c, "Daily chat limit reached", status)
			return
		}
		respondAIError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.ChatResponse{Reply: reply, Quota: status})
}

func (h *AIHandler) GetQuota(c *gin.Context) {
	c.JSON(http.StatusOK, h.chatService.Quota(currentUserID(c)))
}
