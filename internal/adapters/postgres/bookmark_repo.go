package postgres

import (
	"context"

	"github.com/jiljuapp/jilju/internal/core/domain"
)

// BookmarkRepo implements ports.BookmarkRepository with pgx.
type BookmarkRepo struct {
	db *DB
}

// NewBookmarkRepo creates a new BookmarkRepo.
func NewBookmarkRepo(db *DB) *BookmarkRepo {
	return &BookmarkRepo{db: db}
}

// Add stores a bookmark. Adding twice is a no-op.
func (r *BookmarkRepo) Add(ctx context.Context, userID, benefitID string) error {
	_, err := r.db.Pool.Exec(ctx, `
		INSERT INTO bookmarks (user_id, benefit_id)
		VALUES ($1, $2)
		ON CONFLICT (user_id, benefit_id) DO NOTHING
	`, userID, benefitID)
	return err
}

// Remove deletes a bookmark. Removing a missing one is a no-op.
func (r *BookmarkRepo) Remove(ctx context.Context, userID, benefitID string) error {
	_, err := r.db.Pool.Exec(ctx, `
		DELETE FROM bookmarks WHERE user_id = $1 AND benefit_id = $2
	`, userID, benefitID)
	return err
}

// ListByUser returns the user's bookmarks, newest first.
func (r *BookmarkRepo) ListByUser(ctx context.Context, userID string) ([]domain.Bookmark, error) {
	rows, err := r.db.Pool.Query(ctx, `
		SELECT user_id, benefit_id, created_at
		FROM bookmarks
		WHERE user_id = $1
		ORDER BY created_at DESC
	`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var bookmarks []domain.Bookmark
	for rows.Next() {
		var b domain.Bookmark
		if err := rows.Scan(&b.UserID, &b.BenefitID, &b.CreatedAt); err != nil {
			return nil, err
		}
		bookmarks = append(bookmarks, b)
	}
	return bookmarks, rows.Err()
}
