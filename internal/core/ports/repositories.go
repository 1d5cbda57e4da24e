package ports

import (
	"context"
	"time"

	"github.com/jiljuapp/jilju/internal/core/domain"
)

// MerchantRepository persists merchants.
type MerchantRepository interface {
	Upsert(ctx context.Context, m *domain.Merchant) error
	GetBySlug(ctx context.Context, slug string) (*domain.Merchant, error)
	GetByID(ctx context.Context, id string) (*domain.Merchant, error)
	List(ctx context.Context) ([]domain.Merchant, error)
}

// BenefitRepository persists benefits.
type BenefitRepository interface {
	Upsert(ctx context.Context, b *domain.Benefit) error
	UpsertBatch(ctx context.Context, benefits []domain.Benefit) error
	GetByID(ctx context.Context, id string) (*domain.Benefit, error)
	FindNearby(ctx context.Context, lat, lon, radiusMeters float64, limit int) ([]domain.Benefit, error)
	ListByRegion(ctx context.Context, regionID string, limit int) ([]domain.Benefit, error)
	ListByMerchant(ctx context.Context, merchantID string) ([]domain.Benefit, error)
	Search(ctx context.Context, query string, near *domain.GeoPoint, limit int) ([]domain.Benefit, error)
}

// CouponRepository persists issued coupons.
type CouponRepository interface {
	Create(ctx context.Context, c *domain.Coupon) error
	GetByToken(ctx context.Context, token string) (*domain.Coupon, error)
	GetByPIN(ctx context.Context, benefitID, pin string) (*domain.Coupon, error)
	ListByUser(ctx context.Context, userID string, limit int) ([]domain.Coupon, error)
	MarkRedeemed(ctx context.Context, token string, at time.Time) error
	Delete(ctx context.Context, token string) error
	CountByMerchant(ctx context.Context, merchantID string, from, to time.Time) (issued, redeemed int, err error)
}

// BookmarkRepository persists user bookmarks.
type BookmarkRepository interface {
	Add(ctx context.Context, userID, benefitID string) error
	Remove(ctx context.Context, userID, benefitID string) error
	ListByUser(ctx context.Context, userID string) ([]domain.Bookmark, error)
}

// ApplicationRepository persists merchant onboarding applications.
type ApplicationRepository interface {
	Create(ctx context.Context, app *domain.MerchantApplication) error
	GetByID(ctx context.Context, id string) (*domain.MerchantApplication, error)
	ListByStatus(ctx context.Context, status domain.ApplicationStatus, limit int) ([]domain.MerchantApplication, error)
	UpdateStatus(ctx context.Context, id string, status domain.ApplicationStatus, note string, at time.Time) error
}

// ChatRepository persists support-chat messages.
type ChatRepository interface {
	Insert(ctx context.Context, msg *domain.ChatMessage) error
	ListByRoom(ctx context.Context, roomID string, limit int) ([]domain.ChatMessage, error)
}
