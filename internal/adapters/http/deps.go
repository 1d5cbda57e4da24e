package http

import (
	"github.com/nats-io/nats.go"

	"github.com/jiljuapp/jilju/internal/adapters/postgres"
	"github.com/jiljuapp/jilju/internal/adapters/valkey"
	"github.com/jiljuapp/jilju/internal/core/usecases"
)

// Dependencies holds all services needed by HTTP handlers.
type Dependencies struct {
	Benefits     *usecases.BenefitService
	Coupons      *usecases.CouponService
	Merchants    *usecases.MerchantService
	Bookmarks    *usecases.BookmarkService
	Applications *usecases.ApplicationService
	Chat         *usecases.ChatService
	Location     *usecases.LocationService
	NATS         *nats.Conn
	DB           *postgres.DB
	Cache        *valkey.Cache
}
