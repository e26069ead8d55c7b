package database

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/employeevirtual/backend/internal/storage/models"
	"github.com/employeevirtual/backend/pkg/apperr"
)

func (c *Client) CreateUser(ctx context.Context, user *models.User) error {
	if err := c.db.WithContext(ctx).Create(user).Error; err != nil {
		// The email unique index is the last line of defense against two
		// concurrent registrations passing the EmailTaken check.
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return apperr.Validation("email", "already registered")
		}
		return fmt.Errorf("failed to create user: %w", err)
	}
	return nil
}

func (c *Client) GetUser(ctx context.Context, id string) (*models.User, error) {
	var user models.User
	err := c.db.WithContext(ctx).First(&user, "id = ?", id).Error
	if err != nil {
		return nil, wrapNotFound(err)
	}
	return &user, nil
}

func (c *Client) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	var user models.User
	err := c.db.WithContext(ctx).First(&user, "email = ?", email).Error
	if err != nil {
		return nil, wrapNotFound(err)
	}
	return &user, nil
}

func (c *Client) EmailTaken(ctx context.Context, email string) (bool, error) {
	_, err := c.GetUserByEmail(ctx, email)
	switch {
	case err == nil:
		return true, nil
	case apperr.IsNotFound(err):
		return false, nil
	default:
		return false, err
	}
}

func (c *Client) UpdateUser(ctx context.Context, user *models.User) error {
	if err := c.db.WithContext(ctx).Save(user).Error; err != nil {
		return fmt.Errorf("failed to update user: %w", err)
	}
	return nil
}

// DeleteUser removes the user together with every row the user owns.
func (c *Client) DeleteUser(ctx context.Context, id string) error {
	return c.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var sessionIDs []string
		if err := tx.Model(&models.ChatSession{}).Where("user_id = ?", id).Pluck("id", &sessionIDs).Error; err != nil {
			return err
		}
		if len(sessionIDs) > 0 {
			if err := tx.Where("session_id IN ?", sessionIDs).Delete(&models.ChatMessage{}).Error; err != nil {
				return err
			}
		}

		var fileIDs []string
		if err := tx.Model(&models.File{}).Where("user_id = ?", id).Pluck("id", &fileIDs).Error; err != nil {
			return err
		}
		if len(fileIDs) > 0 {
			for _, dep := range []any{&models.FileProcessingRecord{}, &models.OrionCall{}, &models.DataLakeObject{}} {
				if err := tx.Where("file_id IN ?", fileIDs).Delete(dep).Error; err != nil {
					return err
				}
			}
		}

		for _, owned := range []any{
			&models.FlowExecution{},
			&models.Flow{},
			&models.Agent{},
			&models.ChatSession{},
			&models.File{},
			&models.MetadataExtraction{},
		} {
			if err := tx.Where("user_id = ?", id).Delete(owned).Error; err != nil {
				return err
			}
		}

		result := tx.Delete(&models.User{}, "id = ?", id)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return wrapNotFound(gorm.ErrRecordNotFound)
		}
		return nil
	})
}
