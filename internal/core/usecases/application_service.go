package usecases

import (
	"context"
	"fmt"
	"time"

	"github.com/jiljuapp/jilju/internal/core/domain"
	"github.com/jiljuapp/jilju/internal/core/ports"
	"github.com/jiljuapp/jilju/internal/pkg/geo"
)

// ApplicationService manages merchant onboarding applications through the
// operator review board.
type ApplicationService struct {
	applications ports.ApplicationRepository
	merchants    ports.MerchantRepository
	now          func() time.Time
}

// NewApplicationService creates a new ApplicationService. A nil clock means time.Now.
func NewApplicationService(applications ports.ApplicationRepository, merchants ports.MerchantRepository, now func() time.Time) *ApplicationService {
	if now == nil {
		now = time.Now
	}
	return &ApplicationService{applications: applications, merchants: merchants, now: now}
}

// Submit files a new application in the submitted state.
func (s *ApplicationService) Submit(ctx context.Context, app *domain.MerchantApplication) error {
	if app.BusinessName == "" || app.OwnerName == "" {
		return fmt.Errorf("business name and owner name are required")
	}
	if err := geo.Validate(app.Location.Lat, app.Location.Lon); err != nil {
		return fmt.Errorf("application location: %w", err)
	}

	app.Status = domain.ApplicationSubmitted
	app.SubmittedAt = s.now()
	return s.applications.Create(ctx, app)
}

// ListByStatus returns a review-board column.
func (s *ApplicationService) ListByStatus(ctx context.Context, status domain.ApplicationStatus, limit int) ([]domain.MerchantApplication, error) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	return s.applications.ListByStatus(ctx, status, limit)
}

// Transition moves an application between review states. An approval also
// creates the merchant row.
func (s *ApplicationService) Transition(ctx context.Context, id string, to domain.ApplicationStatus, note string) (*domain.MerchantApplication, error) {
	app, err := s.applications.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get application: %w", err)
	}

	if !app.Status.CanTransition(to) {
		return nil, fmt.Errorf("cannot move application from %s to %s", app.Status, to)
	}

	now := s.now()
	if err := s.applications.UpdateStatus(ctx, id, to, note, now); err != nil {
		return nil, fmt.Errorf("update status: %w", err)
	}
	app.Status = to
	app.ReviewNote = note
	app.ReviewedAt = &now

	if to == domain.ApplicationApproved {
		merchant := &domain.Merchant{
			Slug:     slugify(app.BusinessName),
			Name:     app.BusinessName,
			Category: app.Category,
			Location: app.Location,
			Address:  app.Address,
			Phone:    app.Phone,
		}
		if err := s.merchants.Upsert(ctx, merchant); err != nil {
			return nil, fmt.Errorf("create merchant: %w", err)
		}
	}

	return app, nil
}

// slugify builds a URL-safe slug from a business name. Non-ASCII names keep
// their runes; only spaces are folded.
func slugify(name string) string {
	out := make([]rune, 0, len(name))
	for _, r := range name {
		switch {
		case r == ' ' || r == '\t':
			out = append(out, '-')
		case r >= 'A' && r <= 'Z':
			out = append(out, r+('a'-'A'))
		default:
			out = append(out, r)
		}
	}
	return string(out)
}
