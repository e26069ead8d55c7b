package database

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"github.com/employeevirtual/backend/internal/storage/models"
)

func (c *Client) CreateAgent(ctx context.Context, agent *models.Agent) error {
	if err := c.db.WithContext(ctx).Create(agent).Error; err != nil {
		return fmt.Errorf("failed to create agent: %w", err)
	}
	return nil
}

func (c *Client) GetAgent(ctx context.Context, userID, id string) (*models.Agent, error) {
	var agent models.Agent
	err := c.db.WithContext(ctx).First(&agent, "id = ? AND user_id = ?", id, userID).Error
	if err != nil {
		return nil, wrapNotFound(err)
	}
	return &agent, nil
}

func (c *Client) ListAgents(ctx context.Context, userID string) ([]models.Agent, error) {
	var agents []models.Agent
	err := c.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Find(&agents).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list agents: %w", err)
	}
	return agents, nil
}

func (c *Client) UpdateAgent(ctx context.Context, agent *models.Agent) error {
	if err := c.db.WithContext(ctx).Save(agent).Error; err != nil {
		return fmt.Errorf("failed to update agent: %w", err)
	}
	return nil
}

func (c *Client) DeleteAgent(ctx context.Context, userID, id string) error {
	result := c.db.WithContext(ctx).Where("id = ? AND user_id = ?", id, userID).Delete(&models.Agent{})
	if result.Error != nil {
		return fmt.Errorf("failed to delete agent: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return wrapNotFound(gorm.ErrRecordNotFound)
	}
	return nil
}
