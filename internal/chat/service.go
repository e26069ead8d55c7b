package chat

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/employeevirtual/backend/internal/llm"
	"github.com/employeevirtual/backend/internal/storage/database"
	"github.com/employeevirtual/backend/internal/storage/models"
	"github.com/employeevirtual/backend/pkg/apperr"
	"github.com/employeevirtual/backend/pkg/logger"
)

// historyWindow bounds how many prior turns are replayed to the model.
const historyWindow = 40

// Responder generates the assistant turn; satisfied by *llm.Client.
type Responder interface {
	ChatReply(ctx context.Context, systemPrompt string, history []llm.Message, temperature *float32) (*llm.ChatResult, error)
}

type Service struct {
	store     *database.Client
	responder Responder
}

func NewService(store *database.Client, responder Responder) *Service {
	return &Service{store: store, responder: responder}
}

type CreateSessionInput struct {
	Title   string `json:"title"`
	AgentID string `json:"agent_id"`
}

type UpdateSessionInput struct {
	Title  *string `json:"title"`
	Status *string `json:"status"`
}

type Exchange struct {
	UserMessage      *models.ChatMessage `json:"user_message"`
	AssistantMessage *models.ChatMessage `json:"assistant_message"`
}

func (s *Service) CreateSession(ctx context.Context, userID string, input CreateSessionInput) (*models.ChatSession, error) {
	title := strings.TrimSpace(input.Title)
	if title == "" {
		title = "New chat"
	}
	if len(title) > 200 {
		return nil, apperr.Validation("title", "must be at most 200 characters")
	}

	if input.AgentID != "" {
		if _, err := s.store.GetAgent(ctx, userID, input.AgentID); err != nil {
			return nil, err
		}
	}

	now := time.Now().UTC()
	session := &models.ChatSession{
		ID:        uuid.NewString(),
		UserID:    userID,
		AgentID:   input.AgentID,
		Title:     title,
		Status:    models.SessionActive,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := s.store.CreateChatSession(ctx, session); err != nil {
		return nil, err
	}
	return session, nil
}

func (s *Service) GetSession(ctx context.Context, userID, id string) (*models.ChatSession, error) {
	return s.store.GetChatSession(ctx, userID, id)
}

func (s *Service) ListSessions(ctx context.Context, userID string) ([]models.ChatSession, error) {
	return s.store.ListChatSessions(ctx, userID)
}

func (s *Service) UpdateSession(ctx context.Context, userID, id string, input UpdateSessionInput) (*models.ChatSession, error) {
	session, err := s.store.GetChatSession(ctx, userID, id)
	if err != nil {
		return nil, err
	}

	if input.Title != nil {
		title := strings.TrimSpace(*input.Title)
		if title == "" || len(title) > 200 {
			return nil, apperr.Validation("title", "must be between 1 and 200 characters")
		}
		session.Title = title
	}
	if input.Status != nil {
		status := models.SessionStatus(*input.Status)
		if status != models.SessionActive && status != models.SessionArchived {
			return nil, apperr.Validation("status", "must be active or archived")
		}
		session.Status = status
	}

	session.UpdatedAt = time.Now().UTC()
	if err := s.store.UpdateChatSession(ctx, session); err != nil {
		return nil, err
	}
	return session, nil
}

func (s *Service) DeleteSession(ctx context.Context, userID, id string) error {
	return s.store.DeleteChatSession(ctx, userID, id)
}

func (s *Service) ListMessages(ctx context.Context, userID, sessionID string) ([]models.ChatMessage, error) {
	if _, err := s.store.GetChatSession(ctx, userID, sessionID); err != nil {
		return nil, err
	}
	return s.store.ListChatMessages(ctx, sessionID, 0)
}

// SendMessage stores the user turn, generates the assistant reply from
// the session history and the session agent's system prompt, and stores
// that too. The user turn is kept even when the model call fails so the
// client can retry without losing input.
func (s *Service) SendMessage(ctx context.Context, userID, sessionID, content string) (*Exchange, error) {
	content = strings.TrimSpace(content)
	if content == "" {
		return nil, apperr.Validation("content", "message content is required")
	}

	session, err := s.store.GetChatSession(ctx, userID, sessionID)
	if err != nil {
		return nil, err
	}
	if session.Status == models.SessionArchived {
		return nil, apperr.Validation("status", "archived sessions cannot receive messages")
	}

	systemPrompt := ""
	var temperature *float32
	if session.AgentID != "" {
		agent, err := s.store.GetAgent(ctx, userID, session.AgentID)
		if err == nil {
			systemPrompt = agent.SystemPrompt
			t := agent.Temperature
			temperature = &t
		} else {
			logger.Warn("Session agent unavailable", zap.String("session_id", sessionID), zap.Error(err))
		}
	}

	prior, err := s.store.ListChatMessages(ctx, sessionID, historyWindow)
	if err != nil {
		return nil, err
	}

	userMessage := &models.ChatMessage{
		ID:        uuid.NewString(),
		SessionID: sessionID,
		Role:      models.RoleUser,
		Content:   content,
		CreatedAt: time.Now().UTC(),
	}
	if err := s.store.CreateChatMessage(ctx, userMessage); err != nil {
		return nil, err
	}

	history := make([]llm.Message, 0, len(prior)+1)
	for _, m := range prior {
		history = append(history, llm.Message{Role: string(m.Role), Content: m.Content})
	}
	history = append(history, llm.Message{Role: string(models.RoleUser), Content: content})

	reply, err := s.responder.ChatReply(ctx, systemPrompt, history, temperature)
	if err != nil {
		return nil, err
	}

	assistantMessage := &models.ChatMessage{
		ID:         uuid.NewString(),
		SessionID:  sessionID,
		Role:       models.RoleAssistant,
		Content:    reply.Content,
		TokensUsed: reply.TokensUsed,
		CreatedAt:  time.Now().UTC(),
	}
	if err := s.store.CreateChatMessage(ctx, assistantMessage); err != nil {
		return nil, err
	}

	session.UpdatedAt = time.Now().UTC()
	if err := s.store.UpdateChatSession(ctx, session); err != nil {
		logger.Warn("Failed to touch session timestamp", zap.String("session_id", sessionID), zap.Error(err))
	}

	return &Exchange{UserMessage: userMessage, AssistantMessage: assistantMessage}, nil
}
