package usecases

import (
	"context"
	"fmt"
	"time"

	"github.com/jiljuapp/jilju/internal/core/domain"
	"github.com/jiljuapp/jilju/internal/core/ports"
)

// MerchantService handles merchant-related business logic, including the
// dashboard statistics.
type MerchantService struct {
	merchants ports.MerchantRepository
	coupons   ports.CouponRepository
	now       func() time.Time
}

// NewMerchantService creates a new MerchantService. A nil clock means time.Now.
func NewMerchantService(merchants ports.MerchantRepository, coupons ports.CouponRepository, now func() time.Time) *MerchantService {
	if now == nil {
		now = time.Now
	}
	return &MerchantService{merchants: merchants, coupons: coupons, now: now}
}

// List returns all merchants.
func (s *MerchantService) List(ctx context.Context) ([]domain.Merchant, error) {
	return s.merchants.List(ctx)
}

// GetBySlug returns a merchant by slug.
func (s *MerchantService) GetBySlug(ctx context.Context, slug string) (*domain.Merchant, error) {
	return s.merchants.GetBySlug(ctx, slug)
}

// Stats summarizes the merchant's coupon activity over the trailing window.
func (s *MerchantService) Stats(ctx context.Context, merchantID string, window time.Duration) (*domain.MerchantStats, error) {
	if merchantID == "" {
		return nil, fmt.Errorf("merchant ID must not be empty")
	}
	if window <= 0 || window > 90*24*time.Hour {
		window = 30 * 24 * time.Hour
	}

	end := s.now()
	start := end.Add(-window)

	issued, redeemed, err := s.coupons.CountByMerchant(ctx, merchantID, start, end)
	if err != nil {
		return nil, fmt.Errorf("count coupons: %w", err)
	}

	stats := &domain.MerchantStats{
		MerchantID:  merchantID,
		WindowStart: start,
		WindowEnd:   end,
		Issued:      issued,
		Redeemed:    redeemed,
		// At the default 10-minute TTL, anything unredeemed in the trailing
		// window has long expired.
		Expired: issued - redeemed,
	}
	if issued > 0 {
		stats.RedemptionRate = float64(redeemed) / float64(issued)
	}
	return stats, nil
}
