package postgres

import (
	"context"

	"github.com/jiljuapp/jilju/internal/core/domain"
)

// ChatRepo implements ports.ChatRepository with pgx.
type ChatRepo struct {
	db *DB
}

// NewChatRepo creates a new ChatRepo.
func NewChatRepo(db *DB) *ChatRepo {
	return &ChatRepo{db: db}
}

// Insert stores a chat message and fills in its generated UUID.
func (r *ChatRepo) Insert(ctx context.Context, msg *domain.ChatMessage) error {
	return r.db.Pool.QueryRow(ctx, `
		INSERT INTO chat_messages (room_id, sender, body, sent_at)
		VALUES ($1, $2, $3, $4)
		RETURNING id
	`, msg.RoomID, msg.Sender, msg.Body, msg.SentAt).Scan(&msg.ID)
}

// ListByRoom returns the most recent messages in a room, oldest first so the
// client can render them top to bottom.
func (r *ChatRepo) ListByRoom(ctx context.Context, roomID string, limit int) ([]domain.ChatMessage, error) {
	rows, err := r.db.Pool.Query(ctx, `
		SELECT id, room_id, sender, body, sent_at
		FROM (
			SELECT id, room_id, sender, body, sent_at
			FROM chat_messages
			WHERE room_id = $1
			ORDER BY sent_at DESC
			LIMIT $2
		) recent
		ORDER BY sent_at
	`, roomID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var messages []domain.ChatMessage
	for rows.Next() {
		var m domain.ChatMessage
		if err := rows.Scan(&m.ID, &m.RoomID, &m.Sender, &m.Body, &m.SentAt); err != nil {
			return nil, err
		}
		messages = append(messages, m)
	}
	return messages, rows.Err()
}
