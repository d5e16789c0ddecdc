package memory

import (
	"context"
	"testing"
	"time"

	"github.com/SOE-YoungS/cosmosdb-chatgpt/internal/storage/models"
)

func TestSessionCRUD(t *testing.T) {
	storage := New()
	ctx := context.Background()

	session := models.NewSession("alice", "gpt-4o-mini")
	if err := storage.InsertSession(ctx, session); err != nil {
		t.Fatalf("insert: %v", err)
	}
	if err := storage.InsertSession(ctx, session); err == nil {
		t.Error("expected duplicate insert to fail")
	}

	session.Name = "Renamed"
	session.TokensUsed = 42
	if err := storage.UpdateSession(ctx, session); err != nil {
		t.Fatalf("update: %v", err)
	}

	sessions, err := storage.ListSessions(ctx, "alice")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(sessions) != 1 {
		t.Fatalf("expected 1 session, got %d", len(sessions))
	}
	if sessions[0].Name != "Renamed" || sessions[0].TokensUsed != 42 {
		t.Errorf("expected updated session, got %+v", sessions[0])
	}
}

func TestUpdateSession_NotFound(t *testing.T) {
	storage := New()

	session := models.NewSession("alice", "gpt-4o-mini")
	if err := storage.UpdateSession(context.Background(), session); err == nil {
		t.Error("expected update of missing session to fail")
	}
}

func TestListSessions_FilteredByUserAndOrdered(t *testing.T) {
	storage := New()
	ctx := context.Background()

	first := models.NewSession("alice", "gpt-4o-mini")
	first.CreatedAt = time.Now().UTC().Add(-time.Hour)
	second := models.NewSession("alice", "gpt-4o-mini")
	other := models.NewSession("bob", "gpt-4o-mini")

	for _, s := range []models.Session{second, first, other} {
		if err := storage.InsertSession(ctx, s); err != nil {
			t.Fatalf("insert: %v", err)
		}
	}

	sessions, err := storage.ListSessions(ctx, "alice")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(sessions) != 2 {
		t.Fatalf("expected 2 sessions for alice, got %d", len(sessions))
	}
	if sessions[0].ID != first.ID {
		t.Errorf("expected oldest session first, got %s", sessions[0].ID)
	}
}

func TestMessages_InsertAndList(t *testing.T) {
	storage := New()
	ctx := context.Background()

	older := models.NewPromptMessage("s1", "alice", "first")
	older.Timestamp = time.Now().UTC().Add(-time.Minute)
	newer := models.NewPromptMessage("s1", "alice", "second")

	for _, msg := range []models.Message{newer, older} {
		if _, err := storage.InsertMessage(ctx, msg); err != nil {
			t.Fatalf("insert: %v", err)
		}
	}

	messages, err := storage.ListMessages(ctx, "s1", "alice")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(messages) != 2 {
		t.Fatalf("expected 2 messages, got %d", len(messages))
	}
	if messages[0].Text != "first" || messages[1].Text != "second" {
		t.Errorf("expected chronological order, got %q then %q", messages[0].Text, messages[1].Text)
	}
}

func TestListMessages_UserFilter(t *testing.T) {
	storage := New()
	ctx := context.Background()

	if _, err := storage.InsertMessage(ctx, models.NewPromptMessage("s1", "alice", "mine")); err != nil {
		t.Fatalf("insert: %v", err)
	}
	if _, err := storage.InsertMessage(ctx, models.NewPromptMessage("s1", "bob", "theirs")); err != nil {
		t.Fatalf("insert: %v", err)
	}

	messages, err := storage.ListMessages(ctx, "s1", "alice")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(messages) != 1 || messages[0].Text != "mine" {
		t.Errorf("expected only alice's message, got %v", messages)
	}

	all, err := storage.ListMessages(ctx, "s1", "")
	if err != nil {
		t.Fatalf("list all: %v", err)
	}
	if len(all) != 2 {
		t.Errorf("expected unfiltered list of 2, got %d", len(all))
	}
}

func TestListMessages_UnknownSession(t *testing.T) {
	storage := New()

	messages, err := storage.ListMessages(context.Background(), "missing", "alice")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(messages) != 0 {
		t.Errorf("expected empty list, got %d", len(messages))
	}
}

func TestInsertMessage_FillsDefaults(t *testing.T) {
	storage := New()

	saved, err := storage.InsertMessage(context.Background(), models.Message{
		SessionID: "s1",
		UserID:    "alice",
		Sender:    models.SenderUser,
		Text:      "hello",
	})
	if err != nil {
		t.Fatalf("insert: %v", err)
	}
	if saved.ID == "" {
		t.Error("expected generated message ID")
	}
	if saved.Timestamp.IsZero() {
		t.Error("expected generated timestamp")
	}
}

func TestDeleteSessionAndMessages(t *testing.T) {
	storage := New()
	ctx := context.Background()

	session := models.NewSession("alice", "gpt-4o-mini")
	if err := storage.InsertSession(ctx, session); err != nil {
		t.Fatalf("insert session: %v", err)
	}
	if _, err := storage.InsertMessage(ctx, models.NewPromptMessage(session.ID, "alice", "hello")); err != nil {
		t.Fatalf("insert message: %v", err)
	}

	if err := storage.DeleteSessionAndMessages(ctx, session.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}

	sessions, _ := storage.ListSessions(ctx, "alice")
	if len(sessions) != 0 {
		t.Errorf("expected session deleted, got %d", len(sessions))
	}
	messages, _ := storage.ListMessages(ctx, session.ID, "alice")
	if len(messages) != 0 {
		t.Errorf("expected messages deleted, got %d", len(messages))
	}

	// Deleting again is a no-op.
	if err := storage.DeleteSessionAndMessages(ctx, session.ID); err != nil {
		t.Errorf("expected idempotent delete, got %v", err)
	}
}

func TestUpsertBatch(t *testing.T) {
	storage := New()
	ctx := context.Background()

	session := models.NewSession("alice", "gpt-4o-mini")
	if err := storage.InsertSession(ctx, session); err != nil {
		t.Fatalf("insert session: %v", err)
	}

	// The prompt is inserted first with a pending count, as the service does.
	prompt := models.NewPromptMessage(session.ID, "alice", "hello")
	if _, err := storage.InsertMessage(ctx, prompt); err != nil {
		t.Fatalf("insert prompt: %v", err)
	}

	prompt.Tokens = models.ResolvedTokens(10)
	completion := models.NewCompletionMessage(session.ID, "alice", "hi back", 5)
	session.TokensUsed = 15

	if err := storage.UpsertBatch(ctx, prompt, completion, session); err != nil {
		t.Fatalf("upsert batch: %v", err)
	}

	messages, err := storage.ListMessages(ctx, session.ID, "alice")
	if err != nil {
		t.Fatalf("list messages: %v", err)
	}
	if len(messages) != 2 {
		t.Fatalf("expected prompt replaced in place plus completion, got %d messages", len(messages))
	}
	if !messages[0].Tokens.Resolved() {
		t.Error("expected prompt token count resolved after batch")
	}
	if got := messages[0].Tokens.OrZero(); got != 10 {
		t.Errorf("expected prompt tokens 10, got %d", got)
	}

	sessions, err := storage.ListSessions(ctx, "alice")
	if err != nil {
		t.Fatalf("list sessions: %v", err)
	}
	if sessions[0].TokensUsed != 15 {
		t.Errorf("expected running total persisted, got %d", sessions[0].TokensUsed)
	}
}
