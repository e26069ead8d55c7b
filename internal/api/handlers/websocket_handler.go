package handlers

import (
	"context"
	"strings"

	"github.com/gofiber/websocket/v2"
	"go.uber.org/zap"

	"github.com/employeevirtual/backend/internal/chat"
	"github.com/employeevirtual/backend/pkg/apperr"
	"github.com/employeevirtual/backend/pkg/logger"
)

type WebSocketHandler struct {
	service *chat.Service
}

func NewWebSocketHandler(service *chat.Service) *WebSocketHandler {
	return &WebSocketHandler{service: service}
}

// HandleConnection serves one chat connection. The caller identity was
// resolved by the auth middleware during the upgrade request.
func (h *WebSocketHandler) HandleConnection(c *websocket.Conn) {
	userID, _ := c.Locals("user_id").(string)

	logger.Info("WebSocket connection established", zap.String("user_id", userID))

	defer func() {
		c.Close()
		logger.Info("WebSocket connection closed", zap.String("user_id", userID))
	}()

	for {
		var msg struct {
			Type      string `json:"type"`
			SessionID string `json:"session_id"`
			Content   string `json:"content"`
		}

		err := c.ReadJSON(&msg)
		if err != nil {
			break
		}

		if msg.Type != "message" {
			continue
		}

		err = h.streamReply(c, userID, msg.SessionID, msg.Content)
		if err != nil {
			logger.Error("Failed to stream chat reply", zap.Error(err))
			h.sendError(c, errorText(err))
		}
	}
}

func (h *WebSocketHandler) streamReply(c *websocket.Conn, userID, sessionID, content string) error {
	ctx := context.Background()

	h.sendChunk(c, "status", "Generating reply...")

	exchange, err := h.service.SendMessage(ctx, userID, sessionID, content)
	if err != nil {
		return err
	}

	words := strings.Fields(exchange.AssistantMessage.Content)
	for i, word := range words {
		chunk := word
		if i < len(words)-1 {
			chunk += " "
		}
		h.sendChunk(c, "chunk", chunk)
	}

	return c.WriteJSON(map[string]string{
		"type":       "done",
		"message_id": exchange.AssistantMessage.ID,
	})
}

func (h *WebSocketHandler) sendChunk(c *websocket.Conn, chunkType, content string) {
	err := c.WriteJSON(map[string]string{
		"type":    chunkType,
		"content": content,
	})
	if err != nil {
		logger.Warn("Failed to send WebSocket chunk", zap.Error(err))
	}
}

func (h *WebSocketHandler) sendError(c *websocket.Conn, message string) {
	h.sendChunk(c, "error", message)
}

func errorText(err error) string {
	switch {
	case apperr.IsValidation(err):
		return err.Error()
	case apperr.IsNotFound(err):
		return "Session not found"
	default:
		return "Failed to process message"
	}
}
