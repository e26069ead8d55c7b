package database

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"github.com/employeevirtual/backend/internal/storage/models"
)

func (c *Client) CreateChatSession(ctx context.Context, session *models.ChatSession) error {
	if err := c.db.WithContext(ctx).Create(session).Error; err != nil {
		return fmt.Errorf("failed to create chat session: %w", err)
	}
	return nil
}

func (c *Client) GetChatSession(ctx context.Context, userID, id string) (*models.ChatSession, error) {
	var session models.ChatSession
	err := c.db.WithContext(ctx).First(&session, "id = ? AND user_id = ?", id, userID).Error
	if err != nil {
		return nil, wrapNotFound(err)
	}
	return &session, nil
}

func (c *Client) ListChatSessions(ctx context.Context, userID string) ([]models.ChatSession, error) {
	var sessions []models.ChatSession
	err := c.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("updated_at DESC").
		Find(&sessions).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list chat sessions: %w", err)
	}
	return sessions, nil
}

func (c *Client) UpdateChatSession(ctx context.Context, session *models.ChatSession) error {
	if err := c.db.WithContext(ctx).Save(session).Error; err != nil {
		return fmt.Errorf("failed to update chat session: %w", err)
	}
	return nil
}

func (c *Client) DeleteChatSession(ctx context.Context, userID, id string) error {
	return c.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		result := tx.Where("id = ? AND user_id = ?", id, userID).Delete(&models.ChatSession{})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return wrapNotFound(gorm.ErrRecordNotFound)
		}
		return tx.Where("session_id = ?", id).Delete(&models.ChatMessage{}).Error
	})
}

func (c *Client) CreateChatMessage(ctx context.Context, message *models.ChatMessage) error {
	if err := c.db.WithContext(ctx).Create(message).Error; err != nil {
		return fmt.Errorf("failed to create chat message: %w", err)
	}
	return nil
}

// ListChatMessages returns messages oldest first. A positive limit keeps
// only the most recent messages, still in chronological order.
func (c *Client) ListChatMessages(ctx context.Context, sessionID string, limit int) ([]models.ChatMessage, error) {
	var messages []models.ChatMessage
	query := c.db.WithContext(ctx).Where("session_id = ?", sessionID)

	if limit > 0 {
		if err := query.Order("created_at DESC").Limit(limit).Find(&messages).Error; err != nil {
			return nil, fmt.Errorf("failed to list chat messages: %w", err)
		}
		for i, j := 0, len(messages)-1; i < j; i, j = i+1, j-1 {
			messages[i], messages[j] = messages[j], messages[i]
		}
		return messages, nil
	}

	if err := query.Order("created_at ASC").Find(&messages).Error; err != nil {
		return nil, fmt.Errorf("failed to list chat messages: %w", err)
	}
	return messages, nil
}
