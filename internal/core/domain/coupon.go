package domain

import (
	"errors"
	"fmt"
	"time"
)

// CouponStatus is the derived lifecycle state of an issued coupon.
type CouponStatus string

const (
	CouponActive   CouponStatus = "active"
	CouponExpired  CouponStatus = "expired"
	CouponRedeemed CouponStatus = "redeemed"
)

var (
	// ErrCouponExpired is returned when redeeming a coupon past its expiry.
	ErrCouponExpired = errors.New("coupon expired")
	// ErrCouponRedeemed is returned when redeeming an already-redeemed coupon.
	ErrCouponRedeemed = errors.New("coupon already redeemed")
)

// Coupon is a time-boxed, user-specific redemption instance of a benefit.
// Status is never stored: it is always derived from the three timestamps
// against a caller-supplied clock.
type Coupon struct {
	ID         string     `json:"id"`
	Token      string     `json:"token"` // opaque, for electronic validation
	PIN        string     `json:"pin"`   // 6 digits, offline fallback
	BenefitID  string     `json:"benefit_id"`
	MerchantID string     `json:"merchant_id"`
	UserID     string     `json:"user_id"`
	IssuedAt   time.Time  `json:"issued_at"`
	ExpiresAt  time.Time  `json:"expires_at"`
	RedeemedAt *time.Time `json:"redeemed_at,omitempty"`
}

// StatusAt derives the coupon status at the given instant. Redemption wins
// over expiry regardless of when it happened.
func (c *Coupon) StatusAt(now time.Time) CouponStatus {
	if c.RedeemedAt != nil {
		return CouponRedeemed
	}
	if !now.Before(c.ExpiresAt) {
		return CouponExpired
	}
	return CouponActive
}

// RemainingAt returns the time left until expiry, floored to the second.
// Zero for terminal states.
func (c *Coupon) RemainingAt(now time.Time) time.Duration {
	if c.StatusAt(now) != CouponActive {
		return 0
	}
	return c.ExpiresAt.Sub(now).Truncate(time.Second)
}

// ShowPIN reports whether the offline fallback PIN should be displayed.
// The PIN is only shown while the coupon is active.
func (c *Coupon) ShowPIN(now time.Time) bool {
	return c.StatusAt(now) == CouponActive
}

// FormatRemaining renders a duration as zero-padded MM:SS, floored to the second.
func FormatRemaining(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	total := int(d / time.Second)
	return fmt.Sprintf("%02d:%02d", total/60, total%60)
}
