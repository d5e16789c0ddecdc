package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/SOE-YoungS/cosmosdb-chatgpt/internal/storage/interfaces"
	"github.com/SOE-YoungS/cosmosdb-chatgpt/internal/storage/models"

	"github.com/google/uuid"
)

// MemoryStorage is a mutex-guarded in-memory document store. It backs tests
// and the no-database mode; both multi-write operations hold the lock for
// their full duration, which gives them the same atomicity the SQL store gets
// from transactions.
type MemoryStorage struct {
	sessions map[string]models.Session   // sessionID -> session metadata
	messages map[string][]models.Message // sessionID -> messages, insertion order
	mu       sync.RWMutex
}

func New() *MemoryStorage {
	return &MemoryStorage{
		sessions: make(map[string]models.Session),
		messages: make(map[string][]models.Message),
	}
}

// SessionStore implementation

func (m *MemoryStorage) ListSessions(ctx context.Context, userID string) ([]models.Session, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	sessions := make([]models.Session, 0)
	for _, session := range m.sessions {
		if session.UserID == userID {
			session.Messages = nil
			sessions = append(sessions, session)
		}
	}

	sort.Slice(sessions, func(i, j int) bool {
		return sessions[i].CreatedAt.Before(sessions[j].CreatedAt)
	})

	return sessions, nil
}

func (m *MemoryStorage) InsertSession(ctx context.Context, session models.Session) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.sessions[session.ID]; exists {
		return fmt.Errorf("session %s already exists", session.ID)
	}

	session.Messages = nil
	m.sessions[session.ID] = session
	return nil
}

func (m *MemoryStorage) UpdateSession(ctx context.Context, session models.Session) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.sessions[session.ID]; !exists {
		return fmt.Errorf("session not found: %s", session.ID)
	}

	session.Messages = nil
	m.sessions[session.ID] = session
	return nil
}

// MessageStore implementation

func (m *MemoryStorage) ListMessages(ctx context.Context, sessionID, userID string) ([]models.Message, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	stored, exists := m.messages[sessionID]
	if !exists {
		return []models.Message{}, nil
	}

	messages := make([]models.Message, 0, len(stored))
	for _, msg := range stored {
		if userID == "" || msg.UserID == userID {
			messages = append(messages, msg)
		}
	}

	sort.SliceStable(messages, func(i, j int) bool {
		return messages[i].Timestamp.Before(messages[j].Timestamp)
	})

	return messages, nil
}

func (m *MemoryStorage) InsertMessage(ctx context.Context, msg models.Message) (models.Message, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if msg.ID == "" {
		msg.ID = uuid.New().String()
	}
	if msg.Timestamp.IsZero() {
		msg.Timestamp = time.Now().UTC()
	}

	m.messages[msg.SessionID] = append(m.messages[msg.SessionID], msg)
	return msg, nil
}

// Atomic operations

func (m *MemoryStorage) DeleteSessionAndMessages(ctx context.Context, sessionID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.sessions, sessionID)
	delete(m.messages, sessionID)
	return nil
}

func (m *MemoryStorage) UpsertBatch(ctx context.Context, prompt, completion models.Message, session models.Session) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.upsertMessageLocked(prompt)
	m.upsertMessageLocked(completion)

	session.Messages = nil
	m.sessions[session.ID] = session
	return nil
}

func (m *MemoryStorage) upsertMessageLocked(msg models.Message) {
	stored := m.messages[msg.SessionID]
	for i := range stored {
		if stored[i].ID == msg.ID {
			stored[i] = msg
			return
		}
	}
	m.messages[msg.SessionID] = append(stored, msg)
}

var _ interfaces.ChatStore = (*MemoryStorage)(nil)
