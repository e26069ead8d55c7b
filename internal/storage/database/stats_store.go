package database

import (
	"context"
	"fmt"

	"github.com/employeevirtual/backend/internal/storage/models"
)

type UserStats struct {
	Agents       int64 `json:"agents"`
	Flows        int64 `json:"flows"`
	Executions   int64 `json:"executions"`
	Files        int64 `json:"files"`
	StorageBytes int64 `json:"storage_bytes"`
	ChatSessions int64 `json:"chat_sessions"`
	ChatMessages int64 `json:"chat_messages"`
	Extractions  int64 `json:"extractions"`
}

func (c *Client) GetUserStats(ctx context.Context, userID string) (*UserStats, error) {
	db := c.db.WithContext(ctx)
	var stats UserStats

	counts := []struct {
		model any
		dest  *int64
	}{
		{&models.Agent{}, &stats.Agents},
		{&models.Flow{}, &stats.Flows},
		{&models.FlowExecution{}, &stats.Executions},
		{&models.File{}, &stats.Files},
		{&models.ChatSession{}, &stats.ChatSessions},
		{&models.MetadataExtraction{}, &stats.Extractions},
	}
	for _, count := range counts {
		if err := db.Model(count.model).Where("user_id = ?", userID).Count(count.dest).Error; err != nil {
			return nil, fmt.Errorf("failed to count user rows: %w", err)
		}
	}

	err := db.Model(&models.ChatMessage{}).
		Joins("JOIN chat_sessions ON chat_sessions.id = chat_messages.session_id").
		Where("chat_sessions.user_id = ?", userID).
		Count(&stats.ChatMessages).Error
	if err != nil {
		return nil, fmt.Errorf("failed to count chat messages: %w", err)
	}

	var storage struct{ Total int64 }
	err = db.Model(&models.File{}).
		Select("COALESCE(SUM(size), 0) AS total").
		Where("user_id = ?", userID).
		Scan(&storage).Error
	if err != nil {
		return nil, fmt.Errorf("failed to sum storage bytes: %w", err)
	}
	stats.StorageBytes = storage.Total

	return &stats, nil
}
