package chat

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/SOE-YoungS/cosmosdb-chatgpt/internal/service/window"
	"github.com/SOE-YoungS/cosmosdb-chatgpt/internal/storage/interfaces"
	"github.com/SOE-YoungS/cosmosdb-chatgpt/internal/storage/models"
	"github.com/SOE-YoungS/cosmosdb-chatgpt/pkg/llm"

	"go.uber.org/zap"
)

// Service orchestrates the session cache, the conversation window builder,
// the document store and the completion provider into the session lifecycle
// and completion operations exposed to the consumer layer.
//
// Write ordering is cache first, store second: a store failure leaves the
// cache ahead of the store, which is tolerated and self-heals on the next
// ListSessions (wholesale cache replace from the store).
type Service struct {
	store   interfaces.ChatStore
	client  llm.CompletionClient
	cache   *Cache
	window  *window.Builder
	logger  *zap.Logger
	metrics *Metrics
}

func NewService(
	store interfaces.ChatStore,
	client llm.CompletionClient,
	cache *Cache,
	windowBuilder *window.Builder,
	logger *zap.Logger,
) *Service {
	return &Service{
		store:   store,
		client:  client,
		cache:   cache,
		window:  windowBuilder,
		logger:  logger,
		metrics: NewMetrics(),
	}
}

type CompletionRequest struct {
	SessionID  string
	UserID     string
	Prompt     string
	Deployment string // optional override of the session's model
}

type CompletionResponse struct {
	MessageID      string
	Response       string
	SessionID      string
	PromptTokens   int
	ResponseTokens int
	ProcessingTime time.Duration
}

// ListSessions reads all of a user's sessions from the store and installs
// them as the new cache working set, discarding whatever was cached before.
func (s *Service) ListSessions(ctx context.Context, userID string) ([]models.Session, error) {
	if strings.TrimSpace(userID) == "" {
		return nil, ErrEmptyUserID
	}

	sessions, err := s.store.ListSessions(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list sessions: %w", err)
	}

	s.cache.ReplaceAll(userID, sessions)

	s.logger.Debug("Session cache replaced",
		zap.String("user_id", userID),
		zap.Int("sessions", len(sessions)),
	)

	return sessions, nil
}

// GetMessages returns a session's message history, lazily loading it from
// the store on first access and serving the cached list afterwards. A session
// that cannot be resolved in the cache yields an empty list, not an error:
// an unpopulated cache means "needs reload", not a failure.
func (s *Service) GetMessages(ctx context.Context, sessionID, userID string) ([]models.Message, error) {
	if err := validateSessionID(sessionID); err != nil {
		return nil, err
	}

	// The lazy load mutates the cache entry, so it takes the same
	// per-session lock as the write paths; an interleaved completion must
	// not be overwritten by a stale snapshot.
	unlock := s.cache.Lock(sessionID, userID)
	defer unlock()

	session, err := s.cache.Find(sessionID, userID)
	if err != nil {
		return []models.Message{}, nil
	}

	if len(session.Messages) > 0 {
		return session.Messages, nil
	}

	messages, err := s.store.ListMessages(ctx, sessionID, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to load messages: %w", err)
	}

	session.Messages = messages
	s.cache.Upsert(session)

	s.logger.Debug("Messages lazily loaded",
		zap.String("session_id", sessionID),
		zap.Int("messages", len(messages)),
	)

	return messages, nil
}

// CreateSession constructs a new empty session with the default model,
// caches it and persists it.
func (s *Service) CreateSession(ctx context.Context, userID string) (models.Session, error) {
	if strings.TrimSpace(userID) == "" {
		return models.Session{}, ErrEmptyUserID
	}

	session := models.NewSession(userID, s.client.DefaultDeployment())
	s.cache.Upsert(session)

	if err := s.store.InsertSession(ctx, session); err != nil {
		return models.Session{}, fmt.Errorf("failed to persist session: %w", err)
	}

	s.logger.Info("Session created",
		zap.String("session_id", session.ID),
		zap.String("user_id", userID),
		zap.String("model_id", session.ModelID),
	)

	return session, nil
}

// RenameSession changes a session's display name. This path is keyed by
// sessionID alone: it is also used by the server-side rename that follows
// summarization, where ownership has already been established.
func (s *Service) RenameSession(ctx context.Context, sessionID, name string) (models.Session, error) {
	if err := validateSessionID(sessionID); err != nil {
		return models.Session{}, err
	}
	if strings.TrimSpace(name) == "" {
		return models.Session{}, ErrEmptySessionName
	}

	return s.updateSession(ctx, sessionID, func(session *models.Session) {
		session.Name = name
	})
}

// SwitchModel changes the completion deployment a session uses.
func (s *Service) SwitchModel(ctx context.Context, sessionID, modelID string) (models.Session, error) {
	if err := validateSessionID(sessionID); err != nil {
		return models.Session{}, err
	}
	if strings.TrimSpace(modelID) == "" {
		return models.Session{}, ErrEmptyModelID
	}

	return s.updateSession(ctx, sessionID, func(session *models.Session) {
		session.ModelID = modelID
	})
}

func (s *Service) updateSession(ctx context.Context, sessionID string, mutate func(*models.Session)) (models.Session, error) {
	session, err := s.cache.FindByID(sessionID)
	if err != nil {
		return models.Session{}, err
	}

	unlock := s.cache.Lock(session.ID, session.UserID)
	defer unlock()

	// Re-read under the lock in case another request got in first.
	session, err = s.cache.FindByID(sessionID)
	if err != nil {
		return models.Session{}, err
	}

	mutate(&session)
	session.UpdatedAt = time.Now().UTC()
	s.cache.Upsert(session)

	if err := s.store.UpdateSession(ctx, session); err != nil {
		return models.Session{}, fmt.Errorf("failed to persist session update: %w", err)
	}

	return session, nil
}

// DeleteSession removes a session from the cache and deletes the session and
// all of its messages at the store as one unit. Deleting a session that is
// no longer cached resolves as not found.
func (s *Service) DeleteSession(ctx context.Context, sessionID string) error {
	if err := validateSessionID(sessionID); err != nil {
		return err
	}

	session, err := s.cache.FindByID(sessionID)
	if err != nil {
		return err
	}

	s.cache.Remove(session.ID, session.UserID)

	if err := s.store.DeleteSessionAndMessages(ctx, sessionID); err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}

	s.logger.Info("Session deleted",
		zap.String("session_id", sessionID),
		zap.String("user_id", session.UserID),
	)

	return nil
}

// GetChatCompletion runs one completion round trip: persist the prompt,
// build the token-bounded conversation window, call the provider, append the
// completion, resolve the prompt's token count, update the running total, and
// persist the prompt, completion and session as one atomic batch.
func (s *Service) GetChatCompletion(ctx context.Context, req CompletionRequest) (*CompletionResponse, error) {
	return s.complete(ctx, req, true)
}

// GetCompletion is identical to GetChatCompletion except the provider is
// given only the raw prompt, not the windowed conversation. Used for
// single-shot tasks that must not be influenced by prior turns.
func (s *Service) GetCompletion(ctx context.Context, req CompletionRequest) (*CompletionResponse, error) {
	return s.complete(ctx, req, false)
}

func (s *Service) complete(ctx context.Context, req CompletionRequest, withHistory bool) (*CompletionResponse, error) {
	startTime := time.Now()

	if err := ValidateCompletionRequest(req); err != nil {
		return nil, err
	}

	unlock := s.cache.Lock(req.SessionID, req.UserID)
	defer unlock()

	session, err := s.cache.Find(req.SessionID, req.UserID)
	if err != nil {
		return nil, err
	}

	// History may not be loaded yet. The window needs it, and the cached
	// list must hold every persisted turn before the new pair is appended,
	// or a later read would serve the partial list as complete.
	if len(session.Messages) == 0 {
		messages, err := s.store.ListMessages(ctx, req.SessionID, req.UserID)
		if err != nil {
			return nil, fmt.Errorf("failed to load messages: %w", err)
		}
		session.Messages = messages
	}

	// 1. Append the prompt with a pending token count and persist it on its
	// own, so the turn survives a provider failure.
	prompt := models.NewPromptMessage(req.SessionID, req.UserID, req.Prompt)
	session.AddMessage(prompt)
	s.cache.Upsert(session)

	saved, err := s.store.InsertMessage(ctx, prompt)
	if err != nil {
		return nil, fmt.Errorf("failed to persist prompt message: %w", err)
	}
	prompt = saved

	// 2. Assemble the provider input.
	providerInput := req.Prompt
	if withHistory {
		providerInput = s.window.Build(session.Messages)
	}

	// 3. Call the provider. Failures propagate unchanged; no local retry.
	var result *llm.CompletionResult
	if withHistory {
		result, err = s.client.GetChatCompletion(ctx, req.SessionID, providerInput, req.Deployment)
	} else {
		result, err = s.client.GetCompletion(ctx, req.SessionID, providerInput, req.Deployment)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get completion: %w", err)
	}

	// 4-6. Append the completion, resolve the prompt's token count and
	// update the running total.
	completion := models.NewCompletionMessage(req.SessionID, req.UserID, result.Text, result.ResponseTokens)
	prompt.Tokens = models.ResolvedTokens(result.PromptTokens)

	session.ReplaceMessage(prompt)
	session.AddMessage(completion)
	session.TokensUsed += result.PromptTokens + result.ResponseTokens
	s.cache.Upsert(session)

	// 7. One atomic batch: prompt, completion and session land together or
	// not at all. On failure the cache stays ahead of the store and heals on
	// the next ListSessions.
	if err := s.store.UpsertBatch(ctx, prompt, completion, session); err != nil {
		return nil, fmt.Errorf("failed to persist completion batch: %w", err)
	}

	processingTime := time.Since(startTime)
	s.metrics.RecordCompletion(result.PromptTokens, result.ResponseTokens, processingTime)

	s.logger.Info("Completion processed",
		zap.String("session_id", req.SessionID),
		zap.String("message_id", completion.ID),
		zap.Int("prompt_tokens", result.PromptTokens),
		zap.Int("response_tokens", result.ResponseTokens),
		zap.Int("tokens_used", session.TokensUsed),
		zap.Bool("with_history", withHistory),
		zap.Duration("processing_time", processingTime),
	)

	return &CompletionResponse{
		MessageID:      completion.ID,
		Response:       result.Text,
		SessionID:      req.SessionID,
		PromptTokens:   result.PromptTokens,
		ResponseTokens: result.ResponseTokens,
		ProcessingTime: processingTime,
	}, nil
}

// SummarizeSessionName asks the provider for a short label for the prompt and
// renames the session to it, replacing the initial placeholder name after the
// first exchange.
func (s *Service) SummarizeSessionName(ctx context.Context, sessionID, prompt string) (string, error) {
	if err := validateSessionID(sessionID); err != nil {
		return "", err
	}
	if strings.TrimSpace(prompt) == "" {
		return "", ErrEmptyPrompt
	}

	name, err := s.client.Summarize(ctx, sessionID, prompt)
	if err != nil {
		return "", fmt.Errorf("failed to summarize session name: %w", err)
	}

	if _, err := s.RenameSession(ctx, sessionID, name); err != nil {
		return "", err
	}

	s.logger.Info("Session renamed from summary",
		zap.String("session_id", sessionID),
		zap.String("name", name),
	)

	return name, nil
}

// Stats exposes the service counters.
func (s *Service) Stats() (completions, promptTokens, responseTokens int64, avgTime time.Duration) {
	return s.metrics.Stats()
}
