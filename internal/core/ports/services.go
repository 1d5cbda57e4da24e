package ports

import (
	"context"
	"errors"
	"time"

	"github.com/jiljuapp/jilju/internal/core/domain"
)

// EventPublisher publishes domain events to a message broker.
type EventPublisher interface {
	PublishCouponIssued(ctx context.Context, c *domain.Coupon) error
	PublishCouponRedeemed(ctx context.Context, c *domain.Coupon) error
	PublishChatMessage(ctx context.Context, msg *domain.ChatMessage) error
}

// EventSubscriber subscribes to domain events from a message broker.
type EventSubscriber interface {
	SubscribeCouponEvents(ctx context.Context, handler func(ctx context.Context, c *domain.Coupon) error) error
	SubscribeChatRoom(ctx context.Context, roomID string, handler func(ctx context.Context, msg *domain.ChatMessage) error) error
}

// CacheService provides read-through caching.
type CacheService interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte, ttlSeconds int) error
	Delete(ctx context.Context, key string) error
}

// KeyValueStore is durable storage for small session snapshots. Writes are
// fire-and-forget from the caller's perspective: the stored value is a
// disposable cache, not a source of truth.
type KeyValueStore interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
}

// NotificationService sends notifications (push, email, etc.).
type NotificationService interface {
	SendPush(ctx context.Context, userID, title, body string) error
}

// Geolocation acquisition failures. All of them are converted into a usable
// fallback state by the location session; none propagate as fatal.
var (
	ErrPermissionDenied    = errors.New("geolocation permission denied")
	ErrPositionUnavailable = errors.New("position unavailable")
	ErrPositionTimeout     = errors.New("geolocation timed out")
	ErrUnsupported         = errors.New("geolocation not supported")
)

// PositionOptions tunes a geolocation request.
type PositionOptions struct {
	HighAccuracy bool
	Timeout      time.Duration
	MaxCacheAge  time.Duration
}

// Position is a raw geolocation fix.
type Position struct {
	Location       domain.GeoPoint
	AccuracyMeters float64
}

// GeolocationProvider acquires the device position. RequestPosition blocks up
// to the configured timeout and returns one of the Err* sentinels on failure.
type GeolocationProvider interface {
	RequestPosition(ctx context.Context, opts PositionOptions) (Position, error)
}

// ReverseGeocoder converts a coordinate into a human-readable address.
type ReverseGeocoder interface {
	ReverseGeocode(ctx context.Context, point domain.GeoPoint) (string, error)
}
