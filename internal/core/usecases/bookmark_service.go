package usecases

import (
	"context"
	"fmt"

	"github.com/jiljuapp/jilju/internal/core/domain"
	"github.com/jiljuapp/jilju/internal/core/ports"
)

// BookmarkService handles user bookmarks on benefits.
type BookmarkService struct {
	bookmarks ports.BookmarkRepository
	benefits  ports.BenefitRepository
}

// NewBookmarkService creates a new BookmarkService.
func NewBookmarkService(bookmarks ports.BookmarkRepository, benefits ports.BenefitRepository) *BookmarkService {
	return &BookmarkService{bookmarks: bookmarks, benefits: benefits}
}

// Add bookmarks a benefit for the user. Bookmarking an unknown benefit fails;
// bookmarking twice is a no-op at the repository level.
func (s *BookmarkService) Add(ctx context.Context, userID, benefitID string) error {
	if userID == "" || benefitID == "" {
		return fmt.Errorf("user ID and benefit ID are required")
	}
	if _, err := s.benefits.GetByID(ctx, benefitID); err != nil {
		return fmt.Errorf("benefit lookup: %w", err)
	}
	return s.bookmarks.Add(ctx, userID, benefitID)
}

// Remove deletes a bookmark. Removing a bookmark that does not exist is a
// no-op, not an error.
func (s *BookmarkService) Remove(ctx context.Context, userID, benefitID string) error {
	if userID == "" || benefitID == "" {
		return fmt.Errorf("user ID and benefit ID are required")
	}
	return s.bookmarks.Remove(ctx, userID, benefitID)
}

// ListForUser returns the user's bookmarks, newest first.
func (s *BookmarkService) ListForUser(ctx context.Context, userID string) ([]domain.Bookmark, error) {
	if userID == "" {
		return nil, fmt.Errorf("user ID must not be empty")
	}
	return s.bookmarks.ListByUser(ctx, userID)
}
