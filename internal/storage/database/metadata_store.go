package database

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"github.com/employeevirtual/backend/internal/storage/models"
)

func (c *Client) CreateExtraction(ctx context.Context, extraction *models.MetadataExtraction) error {
	if err := c.db.WithContext(ctx).Create(extraction).Error; err != nil {
		return fmt.Errorf("failed to create metadata extraction: %w", err)
	}
	return nil
}

func (c *Client) GetExtraction(ctx context.Context, userID, id string) (*models.MetadataExtraction, error) {
	var extraction models.MetadataExtraction
	err := c.db.WithContext(ctx).First(&extraction, "id = ? AND user_id = ?", id, userID).Error
	if err != nil {
		return nil, wrapNotFound(err)
	}
	return &extraction, nil
}

func (c *Client) ListExtractions(ctx context.Context, userID string, limit int) ([]models.MetadataExtraction, error) {
	var extractions []models.MetadataExtraction
	query := c.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC")
	if limit > 0 {
		query = query.Limit(limit)
	}
	if err := query.Find(&extractions).Error; err != nil {
		return nil, fmt.Errorf("failed to list metadata extractions: %w", err)
	}
	return extractions, nil
}

func (c *Client) DeleteExtraction(ctx context.Context, userID, id string) error {
	result := c.db.WithContext(ctx).Where("id = ? AND user_id = ?", id, userID).Delete(&models.MetadataExtraction{})
	if result.Error != nil {
		return fmt.Errorf("failed to delete metadata extraction: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return wrapNotFound(gorm.ErrRecordNotFound)
	}
	return nil
}
