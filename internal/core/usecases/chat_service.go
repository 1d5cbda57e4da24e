package usecases

import (
	"context"
	"fmt"
	"time"

	"github.com/jiljuapp/jilju/internal/core/domain"
	"github.com/jiljuapp/jilju/internal/core/ports"
)

// ChatService processes support-chat messages: persist, then broadcast.
type ChatService struct {
	messages  ports.ChatRepository
	publisher ports.EventPublisher
	now       func() time.Time
}

// NewChatService creates a new ChatService. A nil clock means time.Now.
func NewChatService(messages ports.ChatRepository, publisher ports.EventPublisher, now func() time.Time) *ChatService {
	if now == nil {
		now = time.Now
	}
	return &ChatService{messages: messages, publisher: publisher, now: now}
}

// Post stores a message and relays it to the room's subscribers.
func (s *ChatService) Post(ctx context.Context, msg *domain.ChatMessage) error {
	if msg.RoomID == "" || msg.Sender == "" {
		return fmt.Errorf("room ID and sender are required")
	}
	if msg.Body == "" {
		return fmt.Errorf("message body must not be empty")
	}

	msg.SentAt = s.now()

	if err := s.messages.Insert(ctx, msg); err != nil {
		return fmt.Errorf("insert chat message: %w", err)
	}

	// Broadcast to WebSocket clients; best-effort.
	if s.publisher != nil {
		_ = s.publisher.PublishChatMessage(ctx, msg)
	}

	return nil
}

// History returns the most recent messages in a room.
func (s *ChatService) History(ctx context.Context, roomID string, limit int) ([]domain.ChatMessage, error) {
	if roomID == "" {
		return nil, fmt.Errorf("room ID must not be empty")
	}
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	return s.messages.ListByRoom(ctx, roomID, limit)
}
