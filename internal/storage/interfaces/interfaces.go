package interfaces

import (
	"context"

	"github.com/SOE-YoungS/cosmosdb-chatgpt/internal/storage/models"
)

type SessionStore interface {
	// ListSessions returns all sessions belonging to a user, without their
	// message history, ordered by creation time.
	ListSessions(ctx context.Context, userID string) ([]models.Session, error)
	InsertSession(ctx context.Context, session models.Session) error
	UpdateSession(ctx context.Context, session models.Session) error
}

type MessageStore interface {
	// ListMessages returns a session's messages in chronological order.
	ListMessages(ctx context.Context, sessionID, userID string) ([]models.Message, error)

	// InsertMessage persists a single message and returns it with any
	// store-assigned fields filled in.
	InsertMessage(ctx context.Context, msg models.Message) (models.Message, error)
}

// ChatStore combines the storage interfaces and adds the two operations that
// must be atomic at the store boundary.
type ChatStore interface {
	SessionStore
	MessageStore

	// DeleteSessionAndMessages removes a session and all of its messages as
	// one unit; a partial delete must not be observable.
	DeleteSessionAndMessages(ctx context.Context, sessionID string) error

	// UpsertBatch writes the resolved prompt message, the completion message
	// and the updated session as one unit so token accounting never diverges
	// between the three.
	UpsertBatch(ctx context.Context, prompt, completion models.Message, session models.Session) error
}
