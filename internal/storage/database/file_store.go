package database

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"github.com/employeevirtual/backend/internal/storage/models"
)

func (c *Client) CreateFile(ctx context.Context, file *models.File) error {
	if err := c.db.WithContext(ctx).Create(file).Error; err != nil {
		return fmt.Errorf("failed to create file: %w", err)
	}
	return nil
}

func (c *Client) GetFile(ctx context.Context, userID, id string) (*models.File, error) {
	var file models.File
	err := c.db.WithContext(ctx).First(&file, "id = ? AND user_id = ?", id, userID).Error
	if err != nil {
		return nil, wrapNotFound(err)
	}
	return &file, nil
}

func (c *Client) ListFiles(ctx context.Context, userID string) ([]models.File, error) {
	var files []models.File
	err := c.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Find(&files).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list files: %w", err)
	}
	return files, nil
}

func (c *Client) UpdateFile(ctx context.Context, file *models.File) error {
	if err := c.db.WithContext(ctx).Save(file).Error; err != nil {
		return fmt.Errorf("failed to update file: %w", err)
	}
	return nil
}

// DeleteFile removes the file row and every dependent processing,
// orion call, and data lake row in one transaction.
func (c *Client) DeleteFile(ctx context.Context, userID, id string) error {
	return c.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		result := tx.Where("id = ? AND user_id = ?", id, userID).Delete(&models.File{})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return wrapNotFound(gorm.ErrRecordNotFound)
		}
		for _, dep := range []any{&models.FileProcessingRecord{}, &models.OrionCall{}, &models.DataLakeObject{}} {
			if err := tx.Where("file_id = ?", id).Delete(dep).Error; err != nil {
				return err
			}
		}
		return nil
	})
}

func (c *Client) CreateFileProcessing(ctx context.Context, record *models.FileProcessingRecord) error {
	if err := c.db.WithContext(ctx).Create(record).Error; err != nil {
		return fmt.Errorf("failed to create file processing record: %w", err)
	}
	return nil
}

func (c *Client) UpdateFileProcessing(ctx context.Context, record *models.FileProcessingRecord) error {
	if err := c.db.WithContext(ctx).Save(record).Error; err != nil {
		return fmt.Errorf("failed to update file processing record: %w", err)
	}
	return nil
}

func (c *Client) ListFileProcessing(ctx context.Context, fileID string) ([]models.FileProcessingRecord, error) {
	var records []models.FileProcessingRecord
	err := c.db.WithContext(ctx).
		Where("file_id = ?", fileID).
		Order("created_at DESC").
		Find(&records).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list file processing records: %w", err)
	}
	return records, nil
}

func (c *Client) CreateOrionCall(ctx context.Context, call *models.OrionCall) error {
	if err := c.db.WithContext(ctx).Create(call).Error; err != nil {
		return fmt.Errorf("failed to create orion call record: %w", err)
	}
	return nil
}

func (c *Client) CreateDataLakeObject(ctx context.Context, object *models.DataLakeObject) error {
	if err := c.db.WithContext(ctx).Create(object).Error; err != nil {
		return fmt.Errorf("failed to create data lake object: %w", err)
	}
	return nil
}

func (c *Client) GetDataLakeObject(ctx context.Context, fileID string) (*models.DataLakeObject, error) {
	var object models.DataLakeObject
	err := c.db.WithContext(ctx).First(&object, "file_id = ?", fileID).Error
	if err != nil {
		return nil, wrapNotFound(err)
	}
	return &object, nil
}
