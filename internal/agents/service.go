package agents

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/employeevirtual/backend/internal/storage/database"
	"github.com/employeevirtual/backend/internal/storage/models"
	"github.com/employeevirtual/backend/pkg/apperr"
)

type Service struct {
	store *database.Client
}

func NewService(store *database.Client) *Service {
	return &Service{store: store}
}

type CreateInput struct {
	Name         string   `json:"name"`
	Description  string   `json:"description"`
	Model        string   `json:"model"`
	SystemPrompt string   `json:"system_prompt"`
	Temperature  float32  `json:"temperature"`
	Tags         []string `json:"tags"`
}

type UpdateInput struct {
	Name         *string   `json:"name"`
	Description  *string   `json:"description"`
	Model        *string   `json:"model"`
	SystemPrompt *string   `json:"system_prompt"`
	Temperature  *float32  `json:"temperature"`
	Status       *string   `json:"status"`
	Tags         *[]string `json:"tags"`
}

func (s *Service) Create(ctx context.Context, userID string, input CreateInput) (*models.Agent, error) {
	name := strings.TrimSpace(input.Name)
	if name == "" || len(name) > 120 {
		return nil, apperr.Validation("name", "must be between 1 and 120 characters")
	}
	if input.Temperature < 0 || input.Temperature > 2 {
		return nil, apperr.Validation("temperature", "must be between 0 and 2")
	}

	now := time.Now().UTC()
	agent := &models.Agent{
		ID:           uuid.NewString(),
		UserID:       userID,
		Name:         name,
		Description:  input.Description,
		Model:        input.Model,
		SystemPrompt: input.SystemPrompt,
		Temperature:  input.Temperature,
		Status:       models.AgentActive,
		Tags:         normalizeTags(input.Tags),
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if err := s.store.CreateAgent(ctx, agent); err != nil {
		return nil, err
	}
	return agent, nil
}

func (s *Service) Get(ctx context.Context, userID, id string) (*models.Agent, error) {
	return s.store.GetAgent(ctx, userID, id)
}

func (s *Service) List(ctx context.Context, userID string) ([]models.Agent, error) {
	return s.store.ListAgents(ctx, userID)
}

func (s *Service) Update(ctx context.Context, userID, id string, input UpdateInput) (*models.Agent, error) {
	agent, err := s.store.GetAgent(ctx, userID, id)
	if err != nil {
		return nil, err
	}

	if input.Name != nil {
		name := strings.TrimSpace(*input.Name)
		if name == "" || len(name) > 120 {
			return nil, apperr.Validation("name", "must be between 1 and 120 characters")
		}
		agent.Name = name
	}
	if input.Description != nil {
		agent.Description = *input.Description
	}
	if input.Model != nil {
		agent.Model = *input.Model
	}
	if input.SystemPrompt != nil {
		agent.SystemPrompt = *input.SystemPrompt
	}
	if input.Temperature != nil {
		if *input.Temperature < 0 || *input.Temperature > 2 {
			return nil, apperr.Validation("temperature", "must be between 0 and 2")
		}
		agent.Temperature = *input.Temperature
	}
	if input.Status != nil {
		status := models.AgentStatus(*input.Status)
		if status != models.AgentActive && status != models.AgentArchived {
			return nil, apperr.Validation("status", "must be active or archived")
		}
		agent.Status = status
	}
	if input.Tags != nil {
		agent.Tags = normalizeTags(*input.Tags)
	}

	agent.UpdatedAt = time.Now().UTC()
	if err := s.store.UpdateAgent(ctx, agent); err != nil {
		return nil, err
	}
	return agent, nil
}

func (s *Service) Delete(ctx context.Context, userID, id string) error {
	return s.store.DeleteAgent(ctx, userID, id)
}

func normalizeTags(tags []string) []string {
	out := make([]string, 0, len(tags))
	seen := make(map[string]struct{}, len(tags))
	for _, tag := range tags {
		tag = strings.TrimSpace(tag)
		if tag == "" {
			continue
		}
		if _, ok := seen[tag]; ok {
			continue
		}
		seen[tag] = struct{}{}
		out = append(out, tag)
	}
	return out
}
