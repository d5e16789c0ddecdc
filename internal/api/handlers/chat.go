package handlers

import (
	"net/http"

	"github.com/SOE-YoungS/cosmosdb-chatgpt/internal/service/chat"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type ChatHandler struct {
	chatService *chat.Service
	logger      *zap.Logger
}

func NewChatHandler(chatService *chat.Service, logger *zap.Logger) *ChatHandler {
	return &ChatHandler{
		chatService: chatService,
		logger:      logger,
	}
}

type CompletionRequest struct {
	UserID     string `json:"user_id" binding:"required"`
	Prompt     string `json:"prompt" binding:"required"`
	Deployment string `json:"deployment,omitempty"`
}

type CompletionResponse struct {
	MessageID      string `json:"message_id"`
	Response       string `json:"response"`
	SessionID      string `json:"session_id"`
	PromptTokens   int    `json:"prompt_tokens"`
	ResponseTokens int    `json:"response_tokens"`
	ProcessingTime string `json:"processing_time"`
}

type SummarizeNameRequest struct {
	Prompt string `json:"prompt" binding:"required"`
}

// POST /sessions/:session_id/completion - completion over the conversation window
func (h *ChatHandler) Completion(c *gin.Context) {
	h.handleCompletion(c, true)
}

// POST /sessions/:session_id/prompt - single-shot completion, no history
func (h *ChatHandler) CompletionWithoutHistory(c *gin.Context) {
	h.handleCompletion(c, false)
}

func (h *ChatHandler) handleCompletion(c *gin.Context, withHistory bool) {
	sessionID := c.Param("session_id")

	var req CompletionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "Invalid request format",
			Code:    "INVALID_REQUEST",
			Details: err.Error(),
		})
		return
	}

	serviceReq := chat.CompletionRequest{
		SessionID:  sessionID,
		UserID:     req.UserID,
		Prompt:     req.Prompt,
		Deployment: req.Deployment,
	}

	var (
		resp *chat.CompletionResponse
		err  error
	)
	if withHistory {
		resp, err = h.chatService.GetChatCompletion(c.Request.Context(), serviceReq)
	} else {
		resp, err = h.chatService.GetCompletion(c.Request.Context(), serviceReq)
	}
	if err != nil {
		h.logger.Error("Failed to process completion",
			zap.Error(err),
			zap.String("session_id", sessionID),
			zap.Bool("with_history", withHistory),
		)
		c.JSON(statusFromError(err), ErrorResponse{
			Error:   "Failed to process completion",
			Code:    "COMPLETION_ERROR",
			Details: err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, CompletionResponse{
		MessageID:      resp.MessageID,
		Response:       resp.Response,
		SessionID:      resp.SessionID,
		PromptTokens:   resp.PromptTokens,
		ResponseTokens: resp.ResponseTokens,
		ProcessingTime: resp.ProcessingTime.String(),
	})
}

// POST /sessions/:session_id/summarize-name - rename the session to an
// AI-generated summary of the prompt
func (h *ChatHandler) SummarizeName(c *gin.Context) {
	sessionID := c.Param("session_id")

	var req SummarizeNameRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "Invalid request format",
			Code:    "INVALID_REQUEST",
			Details: err.Error(),
		})
		return
	}

	name, err := h.chatService.SummarizeSessionName(c.Request.Context(), sessionID, req.Prompt)
	if err != nil {
		h.logger.Error("Failed to summarize session name",
			zap.Error(err),
			zap.String("session_id", sessionID),
		)
		c.JSON(statusFromError(err), ErrorResponse{
			Error:   "Failed to summarize session name",
			Code:    "SUMMARIZE_ERROR",
			Details: err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"session_id": sessionID,
		"name":       name,
	})
}
