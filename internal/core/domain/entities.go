package domain

import (
	"time"
)

// BenefitKind enumerates the promotion types merchants can offer.
type BenefitKind string

const (
	BenefitPercent    BenefitKind = "percent"
	BenefitAmount     BenefitKind = "amount"
	BenefitGift       BenefitKind = "gift"
	BenefitMembership BenefitKind = "membership"
)

// Merchant represents a participating Jeju merchant.
type Merchant struct {
	ID        string         `json:"id"`
	Slug      string         `json:"slug"`
	Name      string         `json:"name"`
	Category  string         `json:"category,omitempty"`
	Location  GeoPoint       `json:"location"`
	Address   string         `json:"address,omitempty"`
	Phone     string         `json:"phone,omitempty"`
	Metadata  map[string]any `json:"metadata,omitempty"`
	CreatedAt time.Time      `json:"created_at"`
}

// Benefit represents a merchant-offered promotion.
type Benefit struct {
	ID              string         `json:"id"`
	MerchantID      string         `json:"merchant_id"`
	Title           string         `json:"title"`
	Kind            BenefitKind    `json:"kind"`
	DiscountPercent int            `json:"discount_percent,omitempty"`
	DiscountAmount  int            `json:"discount_amount,omitempty"` // KRW
	GiftDescription string         `json:"gift_description,omitempty"`
	Location        GeoPoint       `json:"location"`
	RegionID        string         `json:"region_id,omitempty"`
	CouponTTL       time.Duration  `json:"coupon_ttl"` // validity window of an issued coupon
	ValidFrom       time.Time      `json:"valid_from"`
	ValidUntil      time.Time      `json:"valid_until"`
	Active          bool           `json:"active"`
	Metadata        map[string]any `json:"metadata,omitempty"`
	Distance        *float64       `json:"distance,omitempty"` // computed field
	CreatedAt       time.Time      `json:"created_at"`
}

// Bookmark links a user to a benefit they saved.
type Bookmark struct {
	UserID    string    `json:"user_id"`
	BenefitID string    `json:"benefit_id"`
	CreatedAt time.Time `json:"created_at"`
}

// ApplicationStatus is the review state of a merchant application.
type ApplicationStatus string

const (
	ApplicationSubmitted ApplicationStatus = "submitted"
	ApplicationReviewing ApplicationStatus = "reviewing"
	ApplicationApproved  ApplicationStatus = "approved"
	ApplicationRejected  ApplicationStatus = "rejected"
)

// CanTransition reports whether a status change is allowed on the review board.
// Approved and rejected are terminal.
func (s ApplicationStatus) CanTransition(to ApplicationStatus) bool {
	switch s {
	case ApplicationSubmitted:
		return to == ApplicationReviewing || to == ApplicationRejected
	case ApplicationReviewing:
		return to == ApplicationApproved || to == ApplicationRejected
	default:
		return false
	}
}

// MerchantApplication is a merchant onboarding submission awaiting review.
type MerchantApplication struct {
	ID           string            `json:"id"`
	BusinessName string            `json:"business_name"`
	OwnerName    string            `json:"owner_name"`
	Phone        string            `json:"phone"`
	Category     string            `json:"category,omitempty"`
	Location     GeoPoint          `json:"location"`
	Address      string            `json:"address,omitempty"`
	Status       ApplicationStatus `json:"status"`
	ReviewNote   string            `json:"review_note,omitempty"`
	SubmittedAt  time.Time         `json:"submitted_at"`
	ReviewedAt   *time.Time        `json:"reviewed_at,omitempty"`
}

// ChatMessage is a single support-chat message.
type ChatMessage struct {
	ID     string    `json:"id"`
	RoomID string    `json:"room_id"`
	Sender string    `json:"sender"` // user ID or "support"
	Body   string    `json:"body"`
	SentAt time.Time `json:"sent_at"`
}

// MerchantStats summarizes coupon activity for the merchant dashboard.
type MerchantStats struct {
	MerchantID     string    `json:"merchant_id"`
	WindowStart    time.Time `json:"window_start"`
	WindowEnd      time.Time `json:"window_end"`
	Issued         int       `json:"issued"`
	Redeemed       int       `json:"redeemed"`
	Expired        int       `json:"expired"`
	RedemptionRate float64   `json:"redemption_rate"`
}
