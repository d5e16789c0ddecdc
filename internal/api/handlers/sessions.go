package handlers

import (
	"errors"
	"net/http"

	"github.com/SOE-YoungS/cosmosdb-chatgpt/internal/service/chat"
	"github.com/SOE-YoungS/cosmosdb-chatgpt/internal/storage/models"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type SessionsHandler struct {
	chatService *chat.Service
	logger      *zap.Logger
}

func NewSessionsHandler(chatService *chat.Service, logger *zap.Logger) *SessionsHandler {
	return &SessionsHandler{
		chatService: chatService,
		logger:      logger,
	}
}

type SessionListResponse struct {
	UserID   string           `json:"user_id"`
	Sessions []models.Session `json:"sessions"`
	Total    int              `json:"total"`
}

type MessageListResponse struct {
	SessionID string           `json:"session_id"`
	Messages  []models.Message `json:"messages"`
	Total     int              `json:"total"`
}

type RenameRequest struct {
	Name string `json:"name" binding:"required"`
}

type SwitchModelRequest struct {
	ModelID string `json:"model_id" binding:"required"`
}

type CreateSessionRequest struct {
	UserID string `json:"user_id" binding:"required"`
}

type ErrorResponse struct {
	Error   string `json:"error"`
	Code    string `json:"code,omitempty"`
	Details string `json:"details,omitempty"`
}

// GET /sessions?user_id= - list all sessions for a user
func (h *SessionsHandler) List(c *gin.Context) {
	userID := c.Query("user_id")

	sessions, err := h.chatService.ListSessions(c.Request.Context(), userID)
	if err != nil {
		h.writeError(c, err, "LIST_ERROR", "Failed to list sessions")
		return
	}

	c.JSON(http.StatusOK, SessionListResponse{
		UserID:   userID,
		Sessions: sessions,
		Total:    len(sessions),
	})
}

// POST /sessions - create a new session
func (h *SessionsHandler) Create(c *gin.Context) {
	var req CreateSessionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "Invalid request format",
			Code:    "INVALID_REQUEST",
			Details: err.Error(),
		})
		return
	}

	session, err := h.chatService.CreateSession(c.Request.Context(), req.UserID)
	if err != nil {
		h.writeError(c, err, "CREATE_ERROR", "Failed to create session")
		return
	}

	c.JSON(http.StatusCreated, session)
}

// GET /sessions/:session_id/messages?user_id= - session message history
func (h *SessionsHandler) GetMessages(c *gin.Context) {
	sessionID := c.Param("session_id")
	userID := c.Query("user_id")

	messages, err := h.chatService.GetMessages(c.Request.Context(), sessionID, userID)
	if err != nil {
		h.writeError(c, err, "HISTORY_ERROR", "Failed to get messages")
		return
	}

	c.JSON(http.StatusOK, MessageListResponse{
		SessionID: sessionID,
		Messages:  messages,
		Total:     len(messages),
	})
}

// PUT /sessions/:session_id/name - rename a session
func (h *SessionsHandler) Rename(c *gin.Context) {
	sessionID := c.Param("session_id")

	var req RenameRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "Invalid request format",
			Code:    "INVALID_REQUEST",
			Details: err.Error(),
		})
		return
	}

	session, err := h.chatService.RenameSession(c.Request.Context(), sessionID, req.Name)
	if err != nil {
		h.writeError(c, err, "RENAME_ERROR", "Failed to rename session")
		return
	}

	c.JSON(http.StatusOK, session)
}

// PUT /sessions/:session_id/model - switch the session's model
func (h *SessionsHandler) SwitchModel(c *gin.Context) {
	sessionID := c.Param("session_id")

	var req SwitchModelRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "Invalid request format",
			Code:    "INVALID_REQUEST",
			Details: err.Error(),
		})
		return
	}

	session, err := h.chatService.SwitchModel(c.Request.Context(), sessionID, req.ModelID)
	if err != nil {
		h.writeError(c, err, "SWITCH_MODEL_ERROR", "Failed to switch model")
		return
	}

	c.JSON(http.StatusOK, session)
}

// DELETE /sessions/:session_id - delete a session and its messages
func (h *SessionsHandler) Delete(c *gin.Context) {
	sessionID := c.Param("session_id")

	if err := h.chatService.DeleteSession(c.Request.Context(), sessionID); err != nil {
		h.writeError(c, err, "DELETE_ERROR", "Failed to delete session")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message":    "Session deleted successfully",
		"session_id": sessionID,
	})
}

func (h *SessionsHandler) writeError(c *gin.Context, err error, code, message string) {
	h.logger.Error(message,
		zap.Error(err),
		zap.String("path", c.Request.URL.Path),
	)

	c.JSON(statusFromError(err), ErrorResponse{
		Error:   message,
		Code:    code,
		Details: err.Error(),
	})
}

// statusFromError maps service error kinds to HTTP statuses: validation
// failures are 400, a missing session is 404, everything else is an upstream
// failure surfaced as 502.
func statusFromError(err error) int {
	switch {
	case errors.Is(err, chat.ErrSessionNotFound):
		return http.StatusNotFound
	case errors.Is(err, chat.ErrEmptySessionID),
		errors.Is(err, chat.ErrEmptyUserID),
		errors.Is(err, chat.ErrEmptyPrompt),
		errors.Is(err, chat.ErrEmptySessionName),
		errors.Is(err, chat.ErrEmptyModelID),
		errors.Is(err, chat.ErrPromptTooLong),
		errors.Is(err, chat.ErrInvalidSessionID):
		return http.StatusBadRequest
	default:
		return http.StatusBadGateway
	}
}
