package flows

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/employeevirtual/backend/internal/storage/database"
	"github.com/employeevirtual/backend/internal/storage/models"
	"github.com/employeevirtual/backend/pkg/apperr"
	"github.com/employeevirtual/backend/pkg/logger"
)

type Service struct {
	store *database.Client
}

func NewService(store *database.Client) *Service {
	return &Service{store: store}
}

type CreateInput struct {
	Name        string           `json:"name"`
	Description string           `json:"description"`
	Status      string           `json:"status"`
	Steps       []map[string]any `json:"steps"`
	Triggers    []map[string]any `json:"triggers"`
	Tags        []string         `json:"tags"`
}

type UpdateInput struct {
	Name        *string           `json:"name"`
	Description *string           `json:"description"`
	Status      *string           `json:"status"`
	Steps       *[]map[string]any `json:"steps"`
	Triggers    *[]map[string]any `json:"triggers"`
	Tags        *[]string         `json:"tags"`
}

func validStatus(status models.FlowStatus) bool {
	switch status {
	case models.FlowDraft, models.FlowActive, models.FlowPaused, models.FlowArchived:
		return true
	}
	return false
}

func (s *Service) Create(ctx context.Context, userID string, input CreateInput) (*models.Flow, error) {
	name := strings.TrimSpace(input.Name)
	if name == "" || len(name) > 120 {
		return nil, apperr.Validation("name", "must be between 1 and 120 characters")
	}

	status := models.FlowDraft
	if input.Status != "" {
		status = models.FlowStatus(input.Status)
		if !validStatus(status) {
			return nil, apperr.Validation("status", "must be draft, active, paused, or archived")
		}
	}

	now := time.Now().UTC()
	flow := &models.Flow{
		ID:          uuid.NewString(),
		UserID:      userID,
		Name:        name,
		Description: input.Description,
		Status:      status,
		Steps:       input.Steps,
		Triggers:    input.Triggers,
		Tags:        dedupe(input.Tags),
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if err := s.store.CreateFlow(ctx, flow); err != nil {
		return nil, err
	}
	return flow, nil
}

func (s *Service) Get(ctx context.Context, userID, id string) (*models.Flow, error) {
	return s.store.GetFlow(ctx, userID, id)
}

func (s *Service) List(ctx context.Context, userID string) ([]models.Flow, error) {
	return s.store.ListFlows(ctx, userID)
}

func (s *Service) Update(ctx context.Context, userID, id string, input UpdateInput) (*models.Flow, error) {
	flow, err := s.store.GetFlow(ctx, userID, id)
	if err != nil {
		return nil, err
	}

	if input.Name != nil {
		name := strings.TrimSpace(*input.Name)
		if name == "" || len(name) > 120 {
			return nil, apperr.Validation("name", "must be between 1 and 120 characters")
		}
		flow.Name = name
	}
	if input.Description != nil {
		flow.Description = *input.Description
	}
	if input.Status != nil {
		status := models.FlowStatus(*input.Status)
		if !validStatus(status) {
			return nil, apperr.Validation("status", "must be draft, active, paused, or archived")
		}
		flow.Status = status
	}
	if input.Steps != nil {
		flow.Steps = *input.Steps
	}
	if input.Triggers != nil {
		flow.Triggers = *input.Triggers
	}
	if input.Tags != nil {
		flow.Tags = dedupe(*input.Tags)
	}

	flow.UpdatedAt = time.Now().UTC()
	if err := s.store.UpdateFlow(ctx, flow); err != nil {
		return nil, err
	}
	return flow, nil
}

func (s *Service) Delete(ctx context.Context, userID, id string) error {
	return s.store.DeleteFlow(ctx, userID, id)
}

// AddTag is a no-op when the tag is already present.
func (s *Service) AddTag(ctx context.Context, userID, id, tag string) (*models.Flow, error) {
	tag = strings.TrimSpace(tag)
	if tag == "" || len(tag) > 64 {
		return nil, apperr.Validation("tag", "must be between 1 and 64 characters")
	}

	flow, err := s.store.GetFlow(ctx, userID, id)
	if err != nil {
		return nil, err
	}

	for _, existing := range flow.Tags {
		if existing == tag {
			return flow, nil
		}
	}

	flow.Tags = append(flow.Tags, tag)
	flow.UpdatedAt = time.Now().UTC()
	if err := s.store.UpdateFlow(ctx, flow); err != nil {
		return nil, err
	}
	return flow, nil
}

// RemoveTag is a no-op when the tag is absent.
func (s *Service) RemoveTag(ctx context.Context, userID, id, tag string) (*models.Flow, error) {
	flow, err := s.store.GetFlow(ctx, userID, id)
	if err != nil {
		return nil, err
	}

	kept := flow.Tags[:0]
	removed := false
	for _, existing := range flow.Tags {
		if existing == tag {
			removed = true
			continue
		}
		kept = append(kept, existing)
	}
	if !removed {
		return flow, nil
	}

	flow.Tags = kept
	flow.UpdatedAt = time.Now().UTC()
	if err := s.store.UpdateFlow(ctx, flow); err != nil {
		return nil, err
	}
	return flow, nil
}

// Execute records one execution of the flow. Steps and triggers are
// opaque to the server, so the execution itself is a completion record:
// the trigger data is stored as received and the result envelope reports
// how many steps the flow carried. There is no scheduling or retry here.
func (s *Service) Execute(ctx context.Context, userID, id string, triggerData map[string]any) (*models.FlowExecution, error) {
	flow, err := s.store.GetFlow(ctx, userID, id)
	if err != nil {
		return nil, err
	}

	if flow.Status == models.FlowArchived {
		return nil, apperr.Validation("status", "archived flows cannot be executed")
	}

	started := time.Now().UTC()
	execution := &models.FlowExecution{
		ID:          uuid.NewString(),
		FlowID:      flow.ID,
		UserID:      userID,
		Status:      "completed",
		TriggerData: triggerData,
		Result: map[string]any{
			"flow_id":         flow.ID,
			"steps_total":     len(flow.Steps),
			"steps_completed": len(flow.Steps),
			"status":          "completed",
		},
		StartedAt:  started,
		FinishedAt: time.Now().UTC(),
	}

	if err := s.store.CreateFlowExecution(ctx, execution); err != nil {
		return nil, err
	}

	logger.Info("Flow executed",
		zap.String("flow_id", flow.ID),
		zap.String("execution_id", execution.ID),
	)

	return execution, nil
}

func (s *Service) ListExecutions(ctx context.Context, userID, id string, limit int) ([]models.FlowExecution, error) {
	if _, err := s.store.GetFlow(ctx, userID, id); err != nil {
		return nil, err
	}
	return s.store.ListFlowExecutions(ctx, userID, id, limit)
}

func dedupe(tags []string) []string {
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
