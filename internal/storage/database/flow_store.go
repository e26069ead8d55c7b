package database

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"github.com/employeevirtual/backend/internal/storage/models"
)

func (c *Client) CreateFlow(ctx context.Context, flow *models.Flow) error {
	if err := c.db.WithContext(ctx).Create(flow).Error; err != nil {
		return fmt.Errorf("failed to create flow: %w", err)
	}
	return nil
}

func (c *Client) GetFlow(ctx context.Context, userID, id string) (*models.Flow, error) {
	var flow models.Flow
	err := c.db.WithContext(ctx).First(&flow, "id = ? AND user_id = ?", id, userID).Error
	if err != nil {
		return nil, wrapNotFound(err)
	}
	return &flow, nil
}

func (c *Client) ListFlows(ctx context.Context, userID string) ([]models.Flow, error) {
	var flows []models.Flow
	err := c.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Find(&flows).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list flows: %w", err)
	}
	return flows, nil
}

func (c *Client) UpdateFlow(ctx context.Context, flow *models.Flow) error {
	if err := c.db.WithContext(ctx).Save(flow).Error; err != nil {
		return fmt.Errorf("failed to update flow: %w", err)
	}
	return nil
}

// DeleteFlow removes the flow and its execution history together.
func (c *Client) DeleteFlow(ctx context.Context, userID, id string) error {
	return c.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		result := tx.Where("id = ? AND user_id = ?", id, userID).Delete(&models.Flow{})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return wrapNotFound(gorm.ErrRecordNotFound)
		}
		return tx.Where("flow_id = ?", id).Delete(&models.FlowExecution{}).Error
	})
}

func (c *Client) CreateFlowExecution(ctx context.Context, execution *models.FlowExecution) error {
	if err := c.db.WithContext(ctx).Create(execution).Error; err != nil {
		return fmt.Errorf("failed to create flow execution: %w", err)
	}
	return nil
}

func (c *Client) ListFlowExecutions(ctx context.Context, userID, flowID string, limit int) ([]models.FlowExecution, error) {
	var executions []models.FlowExecution
	query := c.db.WithContext(ctx).
		Where("flow_id = ? AND user_id = ?", flowID, userID).
		Order("started_at DESC")
	if limit > 0 {
		query = query.Limit(limit)
	}
	if err := query.Find(&executions).Error; err != nil {
		return nil, fmt.Errorf("failed to list flow executions: %w", err)
	}
	return executions, nil
}
