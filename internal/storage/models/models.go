package models

import (
	"bytes"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Sender identifies which side of the conversation produced a message.
type Sender string

const (
	SenderUser      Sender = "user"
	SenderAssistant Sender = "assistant"
)

// DefaultSessionName is the placeholder assigned to a new session until it is
// renamed to an AI-generated summary.
const DefaultSessionName = "New Chat"

// TokenCount is the token cost of a message as reported by the completion
// provider. A prompt message starts out pending and is resolved once the
// provider reports usage for the exchange; a resolved count is never cleared.
type TokenCount struct {
	count    int
	resolved bool
}

func PendingTokens() TokenCount {
	return TokenCount{}
}

func ResolvedTokens(count int) TokenCount {
	return TokenCount{count: count, resolved: true}
}

// Resolved reports whether the provider has reported a count yet.
func (t TokenCount) Resolved() bool {
	return t.resolved
}

// Value returns the reported count and whether it has been resolved.
func (t TokenCount) Value() (int, bool) {
	return t.count, t.resolved
}

// OrZero returns the reported count, or zero while the count is pending.
func (t TokenCount) OrZero() int {
	return t.count
}

// MarshalJSON encodes a pending count as null so the wire and store
// representations keep the pending state distinct from an actual zero.
func (t TokenCount) MarshalJSON() ([]byte, error) {
	if !t.resolved {
		return []byte("null"), nil
	}
	return json.Marshal(t.count)
}

func (t *TokenCount) UnmarshalJSON(data []byte) error {
	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		*t = PendingTokens()
		return nil
	}
	var count int
	if err := json.Unmarshal(data, &count); err != nil {
		return fmt.Errorf("invalid token count: %w", err)
	}
	*t = ResolvedTokens(count)
	return nil
}

// Message is one turn in a conversation. Messages are append-only: the only
// mutation after creation is resolving the token count of a prompt message
// once the matching completion arrives.
type Message struct {
	ID        string     `json:"id"`
	SessionID string     `json:"session_id"`
	UserID    string     `json:"user_id"`
	Sender    Sender     `json:"sender"`
	Tokens    TokenCount `json:"tokens"`
	Text      string     `json:"text"`
	Timestamp time.Time  `json:"timestamp"`
}

// NewPromptMessage creates a user message with a pending token count.
func NewPromptMessage(sessionID, userID, text string) Message {
	return Message{
		ID:        uuid.New().String(),
		SessionID: sessionID,
		UserID:    userID,
		Sender:    SenderUser,
		Tokens:    PendingTokens(),
		Text:      text,
		Timestamp: time.Now().UTC(),
	}
}

// NewCompletionMessage creates an assistant message with its token count
// already resolved from provider usage.
func NewCompletionMessage(sessionID, userID, text string, tokens int) Message {
	return Message{
		ID:        uuid.New().String(),
		SessionID: sessionID,
		UserID:    userID,
		Sender:    SenderAssistant,
		Tokens:    ResolvedTokens(tokens),
		Text:      text,
		Timestamp: time.Now().UTC(),
	}
}

// Session is one conversation thread owned by a user. Messages stays empty
// until lazily loaded from the store or populated by the first
// prompt/completion pair.
type Session struct {
	ID         string    `json:"id"`
	UserID     string    `json:"user_id"`
	Name       string    `json:"name"`
	ModelID    string    `json:"model_id"`
	TokensUsed int       `json:"tokens_used"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
	Messages   []Message `json:"messages,omitempty"`
}

func NewSession(userID, modelID string) Session {
	now := time.Now().UTC()
	return Session{
		ID:        uuid.New().String(),
		UserID:    userID,
		Name:      DefaultSessionName,
		ModelID:   modelID,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// AddMessage appends a message in chronological order.
func (s *Session) AddMessage(msg Message) {
	s.Messages = append(s.Messages, msg)
	s.UpdatedAt = time.Now().UTC()
}

// ReplaceMessage swaps the stored message with the same ID, used to rewrite a
// prompt message once its token count resolves.
func (s *Session) ReplaceMessage(msg Message) bool {
	for i := range s.Messages {
		if s.Messages[i].ID == msg.ID {
			s.Messages[i] = msg
			return true
		}
	}
	return false
}

// Clone returns a deep copy so cache readers never alias the cached slice.
func (s Session) Clone() Session {
	out := s
	if s.Messages != nil {
		out.Messages = make([]Message, len(s.Messages))
		copy(out.Messages, s.Messages)
	}
	return out
}
