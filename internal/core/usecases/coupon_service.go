package usecases

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"math/big"
	"time"

	"github.com/jiljuapp/jilju/internal/core/domain"
	"github.com/jiljuapp/jilju/internal/core/ports"
	"github.com/jiljuapp/jilju/internal/pkg/metrics"
)

// CouponService handles coupon issuance and redemption.
type CouponService struct {
	coupons   ports.CouponRepository
	benefits  ports.BenefitRepository
	publisher ports.EventPublisher
	notifier  ports.NotificationService

	defaultTTL time.Duration
	now        func() time.Time
}

// NewCouponService creates a new CouponService. A nil clock means time.Now.
func NewCouponService(
	coupons ports.CouponRepository,
	benefits ports.BenefitRepository,
	publisher ports.EventPublisher,
	notifier ports.NotificationService,
	defaultTTL time.Duration,
	now func() time.Time,
) *CouponService {
	if now == nil {
		now = time.Now
	}
	if defaultTTL <= 0 {
		defaultTTL = 10 * time.Minute
	}
	return &CouponService{
		coupons:    coupons,
		benefits:   benefits,
		publisher:  publisher,
		notifier:   notifier,
		defaultTTL: defaultTTL,
		now:        now,
	}
}

// Issue creates a coupon for the benefit with a fresh token and offline PIN.
func (s *CouponService) Issue(ctx context.Context, userID, benefitID string) (*domain.Coupon, error) {
	benefit, err := s.benefits.GetByID(ctx, benefitID)
	if err != nil {
		return nil, fmt.Errorf("get benefit: %w", err)
	}
	if !benefit.Active {
		return nil, fmt.Errorf("benefit %s is not active", benefitID)
	}

	now := s.now()
	if now.Before(benefit.ValidFrom) || now.After(benefit.ValidUntil) {
		return nil, fmt.Errorf("benefit %s is outside its validity window", benefitID)
	}

	token, err := generateToken()
	if err != nil {
		return nil, fmt.Errorf("generate token: %w", err)
	}
	pin, err := generatePIN()
	if err != nil {
		return nil, fmt.Errorf("generate pin: %w", err)
	}

	ttl := benefit.CouponTTL
	if ttl <= 0 {
		ttl = s.defaultTTL
	}

	coupon := &domain.Coupon{
		Token:      token,
		PIN:        pin,
		BenefitID:  benefit.ID,
		MerchantID: benefit.MerchantID,
		UserID:     userID,
		IssuedAt:   now,
		ExpiresAt:  now.Add(ttl),
	}

	if err := s.coupons.Create(ctx, coupon); err != nil {
		return nil, fmt.Errorf("create coupon: %w", err)
	}

	metrics.CouponsIssued.WithLabelValues(string(benefit.Kind)).Inc()

	// Best-effort event
	if s.publisher != nil {
		_ = s.publisher.PublishCouponIssued(ctx, coupon)
	}

	return coupon, nil
}

// RedeemByToken marks a coupon as redeemed after verifying it is still active.
func (s *CouponService) RedeemByToken(ctx context.Context, token string) (*domain.Coupon, error) {
	coupon, err := s.coupons.GetByToken(ctx, token)
	if err != nil {
		return nil, fmt.Errorf("get coupon: %w", err)
	}
	return s.redeem(ctx, coupon, "token")
}

// RedeemByPIN redeems with the offline fallback PIN. The benefit ID scopes the
// lookup: PINs are only unique per benefit.
func (s *CouponService) RedeemByPIN(ctx context.Context, benefitID, pin string) (*domain.Coupon, error) {
	coupon, err := s.coupons.GetByPIN(ctx, benefitID, pin)
	if err != nil {
		return nil, fmt.Errorf("get coupon by pin: %w", err)
	}
	return s.redeem(ctx, coupon, "pin")
}

func (s *CouponService) redeem(ctx context.Context, coupon *domain.Coupon, method string) (*domain.Coupon, error) {
	now := s.now()
	switch coupon.StatusAt(now) {
	case domain.CouponRedeemed:
		return nil, domain.ErrCouponRedeemed
	case domain.CouponExpired:
		metrics.CouponsExpiredAtRedeem.Inc()
		return nil, domain.ErrCouponExpired
	}

	if err := s.coupons.MarkRedeemed(ctx, coupon.Token, now); err != nil {
		return nil, fmt.Errorf("mark redeemed: %w", err)
	}
	coupon.RedeemedAt = &now

	metrics.CouponsRedeemed.WithLabelValues(method).Inc()

	if s.publisher != nil {
		_ = s.publisher.PublishCouponRedeemed(ctx, coupon)
	}

	return coupon, nil
}

// ListForUser returns a user's coupons, newest first.
func (s *CouponService) ListForUser(ctx context.Context, userID string, limit int) ([]domain.Coupon, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	return s.coupons.ListByUser(ctx, userID, limit)
}

// GetByToken returns a coupon by its opaque token.
func (s *CouponService) GetByToken(ctx context.Context, token string) (*domain.Coupon, error) {
	return s.coupons.GetByToken(ctx, token)
}

// Revoke deletes a coupon (saga compensation when a downstream step fails).
func (s *CouponService) Revoke(ctx context.Context, token string) error {
	return s.coupons.Delete(ctx, token)
}

// Now exposes the service clock; the countdown ticker shares it.
func (s *CouponService) Now() time.Time {
	return s.now()
}

func generateToken() (string, error) {
	b := make([]byte, 16)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return "JJ-" + hex.EncodeToString(b), nil
}

// generatePIN returns a 6-digit numeric PIN with leading zeros preserved.
func generatePIN() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(1000000))
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%06d", n.Int64()), nil
}
