package chat

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/employeevirtual/backend/internal/llm"
	"github.com/employeevirtual/backend/internal/storage/database"
	"github.com/employeevirtual/backend/internal/storage/models"
	"github.com/employeevirtual/backend/pkg/apperr"
)

type mockResponder struct {
	reply       string
	err         error
	calls       int
	lastSystem  string
	lastHistory []llm.Message
	lastTemp    *float32
}

func (m *mockResponder) ChatReply(ctx context.Context, systemPrompt string, history []llm.Message, temperature *float32) (*llm.ChatResult, error) {
	m.calls++
	m.lastSystem = systemPrompt
	m.lastHistory = append([]llm.Message(nil), history...)
	m.lastTemp = temperature
	if m.err != nil {
		return nil, m.err
	}
	reply := m.reply
	if reply == "" {
		reply = "mock-reply"
	}
	return &llm.ChatResult{Content: reply, TokensUsed: 42}, nil
}

func newTestStore(t *testing.T) *database.Client {
	t.Helper()

	store, err := database.NewClient(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("failed to create test store: %v", err)
	}
	t.Cleanup(func() { store.Close() })

	if err := store.Migrate(); err != nil {
		t.Fatalf("failed to migrate test store: %v", err)
	}
	return store
}

func TestSendMessageStoresExchange(t *testing.T) {
	store := newTestStore(t)
	responder := &mockResponder{reply: "hello there"}
	service := NewService(store, responder)
	ctx := context.Background()

	session, err := service.CreateSession(ctx, "user-1", CreateSessionInput{Title: "Support"})
	if err != nil {
		t.Fatalf("create session failed: %v", err)
	}

	exchange, err := service.SendMessage(ctx, "user-1", session.ID, "hi")
	if err != nil {
		t.Fatalf("send message failed: %v", err)
	}

	if exchange.UserMessage.Role != models.RoleUser || exchange.UserMessage.Content != "hi" {
		t.Errorf("unexpected user message: %+v", exchange.UserMessage)
	}
	if exchange.AssistantMessage.Role != models.RoleAssistant || exchange.AssistantMessage.Content != "hello there" {
		t.Errorf("unexpected assistant message: %+v", exchange.AssistantMessage)
	}
	if exchange.AssistantMessage.TokensUsed != 42 {
		t.Errorf("expected token usage recorded, got %d", exchange.AssistantMessage.TokensUsed)
	}

	messages, err := service.ListMessages(ctx, "user-1", session.ID)
	if err != nil {
		t.Fatalf("list messages failed: %v", err)
	}
	if len(messages) != 2 {
		t.Fatalf("expected 2 stored messages, got %d", len(messages))
	}
}

func TestSendMessageReplaysHistory(t *testing.T) {
	store := newTestStore(t)
	responder := &mockResponder{}
	service := NewService(store, responder)
	ctx := context.Background()

	session, err := service.CreateSession(ctx, "user-1", CreateSessionInput{})
	if err != nil {
		t.Fatalf("create session failed: %v", err)
	}

	if _, err := service.SendMessage(ctx, "user-1", session.ID, "first"); err != nil {
		t.Fatalf("send failed: %v", err)
	}
	if _, err := service.SendMessage(ctx, "user-1", session.ID, "second"); err != nil {
		t.Fatalf("send failed: %v", err)
	}

	// first user turn + assistant reply + second user turn
	if len(responder.lastHistory) != 3 {
		t.Fatalf("expected 3 history turns, got %d", len(responder.lastHistory))
	}
	if responder.lastHistory[2].Content != "second" {
		t.Errorf("expected latest turn last, got %q", responder.lastHistory[2].Content)
	}
}

func TestSendMessageUsesAgentPrompt(t *testing.T) {
	store := newTestStore(t)
	responder := &mockResponder{}
	service := NewService(store, responder)
	ctx := context.Background()

	now := time.Now().UTC()
	agent := &models.Agent{
		ID:           uuid.NewString(),
		UserID:       "user-1",
		Name:         "Helper",
		SystemPrompt: "You are a helpful assistant.",
		Temperature:  0.4,
		Status:       models.AgentActive,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := store.CreateAgent(ctx, agent); err != nil {
		t.Fatalf("create agent failed: %v", err)
	}

	session, err := service.CreateSession(ctx, "user-1", CreateSessionInput{AgentID: agent.ID})
	if err != nil {
		t.Fatalf("create session failed: %v", err)
	}

	if _, err := service.SendMessage(ctx, "user-1", session.ID, "hi"); err != nil {
		t.Fatalf("send failed: %v", err)
	}

	if responder.lastSystem != agent.SystemPrompt {
		t.Errorf("expected agent system prompt, got %q", responder.lastSystem)
	}
	if responder.lastTemp == nil || *responder.lastTemp != agent.Temperature {
		t.Errorf("expected agent temperature, got %v", responder.lastTemp)
	}
}

func TestSendMessageHonorsZeroTemperature(t *testing.T) {
	store := newTestStore(t)
	responder := &mockResponder{}
	service := NewService(store, responder)
	ctx := context.Background()

	now := time.Now().UTC()
	agent := &models.Agent{
		ID:           uuid.NewString(),
		UserID:       "user-1",
		Name:         "Deterministic",
		SystemPrompt: "Answer tersely.",
		Temperature:  0,
		Status:       models.AgentActive,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := store.CreateAgent(ctx, agent); err != nil {
		t.Fatalf("create agent failed: %v", err)
	}

	session, err := service.CreateSession(ctx, "user-1", CreateSessionInput{AgentID: agent.ID})
	if err != nil {
		t.Fatalf("create session failed: %v", err)
	}
	if _, err := service.SendMessage(ctx, "user-1", session.ID, "hi"); err != nil {
		t.Fatalf("send failed: %v", err)
	}

	if responder.lastTemp == nil || *responder.lastTemp != 0 {
		t.Errorf("expected explicit zero temperature forwarded, got %v", responder.lastTemp)
	}
}

func TestSendMessageWithoutAgentUsesDefaultTemperature(t *testing.T) {
	store := newTestStore(t)
	responder := &mockResponder{}
	service := NewService(store, responder)
	ctx := context.Background()

	session, err := service.CreateSession(ctx, "user-1", CreateSessionInput{})
	if err != nil {
		t.Fatalf("create session failed: %v", err)
	}
	if _, err := service.SendMessage(ctx, "user-1", session.ID, "hi"); err != nil {
		t.Fatalf("send failed: %v", err)
	}

	if responder.lastTemp != nil {
		t.Errorf("expected nil temperature without an agent, got %v", *responder.lastTemp)
	}
}

func TestSendMessageFailuresKeepUserTurn(t *testing.T) {
	store := newTestStore(t)
	responder := &mockResponder{err: errors.New("model unavailable")}
	service := NewService(store, responder)
	ctx := context.Background()

	session, err := service.CreateSession(ctx, "user-1", CreateSessionInput{})
	if err != nil {
		t.Fatalf("create session failed: %v", err)
	}

	if _, err := service.SendMessage(ctx, "user-1", session.ID, "hi"); err == nil {
		t.Fatal("expected error from responder")
	}

	messages, err := service.ListMessages(ctx, "user-1", session.ID)
	if err != nil {
		t.Fatalf("list messages failed: %v", err)
	}
	if len(messages) != 1 || messages[0].Role != models.RoleUser {
		t.Fatalf("expected only the user turn stored, got %+v", messages)
	}
}

func TestArchivedSessionRejectsMessages(t *testing.T) {
	service := NewService(newTestStore(t), &mockResponder{})
	ctx := context.Background()

	session, err := service.CreateSession(ctx, "user-1", CreateSessionInput{})
	if err != nil {
		t.Fatalf("create session failed: %v", err)
	}

	status := "archived"
	if _, err := service.UpdateSession(ctx, "user-1", session.ID, UpdateSessionInput{Status: &status}); err != nil {
		t.Fatalf("archive failed: %v", err)
	}

	if _, err := service.SendMessage(ctx, "user-1", session.ID, "hi"); !apperr.IsValidation(err) {
		t.Errorf("expected validation error, got %v", err)
	}
}

func TestSessionOwnershipIsolation(t *testing.T) {
	service := NewService(newTestStore(t), &mockResponder{})
	ctx := context.Background()

	session, err := service.CreateSession(ctx, "user-1", CreateSessionInput{})
	if err != nil {
		t.Fatalf("create session failed: %v", err)
	}

	if _, err := service.GetSession(ctx, "user-2", session.ID); !apperr.IsNotFound(err) {
		t.Errorf("expected not-found for foreign session, got %v", err)
	}
	if _, err := service.SendMessage(ctx, "user-2", session.ID, "hi"); !apperr.IsNotFound(err) {
		t.Errorf("expected not-found messaging foreign session, got %v", err)
	}
}

func TestDeleteSessionCascadesMessages(t *testing.T) {
	store := newTestStore(t)
	service := NewService(store, &mockResponder{})
	ctx := context.Background()

	session, err := service.CreateSession(ctx, "user-1", CreateSessionInput{})
	if err != nil {
		t.Fatalf("create session failed: %v", err)
	}
	if _, err := service.SendMessage(ctx, "user-1", session.ID, "hi"); err != nil {
		t.Fatalf("send failed: %v", err)
	}

	if err := service.DeleteSession(ctx, "user-1", session.ID); err != nil {
		t.Fatalf("delete failed: %v", err)
	}

	messages, err := store.ListChatMessages(ctx, session.ID, 0)
	if err != nil {
		t.Fatalf("list messages failed: %v", err)
	}
	if len(messages) != 0 {
		t.Errorf("expected messages removed with session, got %d", len(messages))
	}
}
