package http

import (
	"context"
	"errors"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/jiljuapp/jilju/internal/core/domain"
	"github.com/jiljuapp/jilju/internal/core/regions"
	"github.com/jiljuapp/jilju/internal/pkg/geo"
)

// CatalogStats holds row counts from the catalog tables.
type CatalogStats struct {
	Merchants    int    `json:"merchants"`
	Benefits     int    `json:"benefits"`
	Coupons      int    `json:"coupons"`
	Applications int    `json:"applications"`
	LastUpdate   string `json:"last_update,omitempty"`
}

// CatalogStatsHandler returns row counts from the catalog tables.
func CatalogStatsHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if deps.DB == nil {
			return errInternal(c, "database not available")
		}

		var stats CatalogStats
		row := deps.DB.Pool.QueryRow(c.Context(), `
			SELECT
				(SELECT count(*) FROM merchants),
				(SELECT count(*) FROM benefits),
				(SELECT count(*) FROM coupons),
				(SELECT count(*) FROM merchant_applications),
				COALESCE((SELECT max(created_at)::text FROM benefits), '')
		`)
		if err := row.Scan(&stats.Merchants, &stats.Benefits, &stats.Coupons,
			&stats.Applications, &stats.LastUpdate); err != nil {
			return errInternal(c, err.Error())
		}

		c.Set("Cache-Control", "public, max-age=60")
		return c.JSON(stats)
	}
}

// benefitView augments a benefit with a formatted distance label.
type benefitView struct {
	domain.Benefit
	DistanceLabel string `json:"distance_label,omitempty"`
}

func benefitViews(benefits []domain.Benefit) []benefitView {
	views := make([]benefitView, len(benefits))
	for i, b := range benefits {
		views[i].Benefit = b
		if b.Distance != nil {
			views[i].DistanceLabel = geo.FormatDistance(*b.Distance)
		}
	}
	return views
}

// NearbyBenefitsHandler returns benefits within a radius of a point.
func NearbyBenefitsHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if c.Query("lat") == "" || c.Query("lon") == "" {
			return errBadRequest(c, "lat and lon are required")
		}
		lat := c.QueryFloat("lat", 0)
		lon := c.QueryFloat("lon", 0)
		radius := c.QueryFloat("radius", 3000)
		limit := c.QueryInt("limit", 20)

		if err := geo.Validate(lat, lon); err != nil {
			return errBadRequest(c, err.Error())
		}
		if radius <= 0 || radius > 30000 {
			return errBadRequest(c, "radius must be between 1 and 30000 meters")
		}

		benefits, err := deps.Benefits.FindNearby(c.Context(), lat, lon, radius, limit)
		if err != nil {
			return errInternal(c, err.Error())
		}

		c.Set("Cache-Control", "public, max-age=300")
		return c.JSON(benefitViews(benefits))
	}
}

// SearchBenefitsHandler performs fuzzy search on benefit titles.
func SearchBenefitsHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		query := c.Query("q")
		if query == "" {
			return errBadRequest(c, "q query parameter is required")
		}
		if len(query) > 200 {
			return errBadRequest(c, "query too long (max 200 characters)")
		}
		limit := c.QueryInt("limit", 20)

		var near *domain.GeoPoint
		lat := c.QueryFloat("lat", 0)
		lon := c.QueryFloat("lon", 0)
		if lat != 0 && lon != 0 {
			if err := geo.Validate(lat, lon); err != nil {
				return errBadRequest(c, err.Error())
			}
			near = &domain.GeoPoint{Lat: lat, Lon: lon}
		}

		benefits, err := deps.Benefits.Search(c.Context(), query, near, limit)
		if err != nil {
			return errInternal(c, err.Error())
		}

		return c.JSON(benefitViews(benefits))
	}
}

// GetBenefitHandler returns a single benefit by ID.
func GetBenefitHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id := c.Params("id")
		if id == "" {
			return errBadRequest(c, "benefit id is required")
		}
		benefit, err := deps.Benefits.GetByID(c.Context(), id)
		if err != nil {
			return errNotFound(c, "benefit not found")
		}
		return c.JSON(benefit)
	}
}

// ListRegionsHandler returns the fixed region table.
func ListRegionsHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		c.Set("Cache-Control", "public, max-age=3600")
		return c.JSON(regions.Table)
	}
}

// ResolveRegionHandler maps a coordinate onto the region table.
// Outside every region is a valid answer, not an error.
func ResolveRegionHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		if c.Query("lat") == "" || c.Query("lon") == "" {
			return errBadRequest(c, "lat and lon are required")
		}
		lat := c.QueryFloat("lat", 0)
		lon := c.QueryFloat("lon", 0)
		if err := geo.Validate(lat, lon); err != nil {
			return errBadRequest(c, err.Error())
		}

		r := regions.Find(domain.GeoPoint{Lat: lat, Lon: lon}, regions.Table)
		if r == nil {
			return c.JSON(fiber.Map{"region": nil})
		}
		return c.JSON(fiber.Map{"region": r})
	}
}

// RegionBenefitsHandler returns benefits in a region, addressed by ID, name,
// or area name.
func RegionBenefitsHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		region := c.Params("region")
		if region == "" {
			return errBadRequest(c, "region is required")
		}
		limit := c.QueryInt("limit", 50)

		benefits, err := deps.Benefits.ListByRegion(c.Context(), region, limit)
		if err != nil {
			return errNotFound(c, err.Error())
		}

		c.Set("Cache-Control", "public, max-age=300")
		return c.JSON(benefitViews(benefits))
	}
}

// issueCouponRequest is the body for coupon issuance.
type issueCouponRequest struct {
	UserID    string `json:"user_id"`
	BenefitID string `json:"benefit_id"`
}

// IssueCouponHandler issues a coupon for a benefit.
func IssueCouponHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var req issueCouponRequest
		if err := c.BodyParser(&req); err != nil {
			return errBadRequest(c, "invalid request body")
		}
		if req.UserID == "" || req.BenefitID == "" {
			return errBadRequest(c, "user_id and benefit_id are required")
		}

		coupon, err := deps.Coupons.Issue(c.Context(), req.UserID, req.BenefitID)
		if err != nil {
			return errBadRequest(c, err.Error())
		}

		return c.Status(201).JSON(couponView(coupon, deps.Coupons.Now()))
	}
}

// couponView renders a coupon the way the app displays it: derived status,
// an MM:SS countdown, and the PIN only while the coupon is active.
func couponView(coupon *domain.Coupon, now time.Time) fiber.Map {
	status := coupon.StatusAt(now)
	view := fiber.Map{
		"token":      coupon.Token,
		"benefit_id": coupon.BenefitID,
		"status":     status,
		"issued_at":  coupon.IssuedAt,
		"expires_at": coupon.ExpiresAt,
		"remaining":  domain.FormatRemaining(coupon.RemainingAt(now)),
	}
	if coupon.ShowPIN(now) {
		view["pin"] = coupon.PIN
	}
	if coupon.RedeemedAt != nil {
		view["redeemed_at"] = coupon.RedeemedAt
	}
	return view
}

// GetCouponHandler returns the display state of a coupon.
func GetCouponHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		token := c.Params("token")
		if token == "" {
			return errBadRequest(c, "coupon token is required")
		}
		coupon, err := deps.Coupons.GetByToken(c.Context(), token)
		if err != nil {
			return errNotFound(c, "coupon not found")
		}
		c.Set("Cache-Control", "no-store")
		return c.JSON(couponView(coupon, deps.Coupons.Now()))
	}
}

// RedeemCouponHandler redeems a coupon by its token.
func RedeemCouponHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		token := c.Params("token")
		if token == "" {
			return errBadRequest(c, "coupon token is required")
		}

		coupon, err := deps.Coupons.RedeemByToken(c.Context(), token)
		if err != nil {
			return redeemError(c, err)
		}
		return c.JSON(couponView(coupon, deps.Coupons.Now()))
	}
}

// redeemPINRequest is the body for offline PIN redemption.
type redeemPINRequest struct {
	BenefitID string `json:"benefit_id"`
	PIN       string `json:"pin"`
}

// RedeemByPINHandler redeems with the offline fallback PIN.
func RedeemByPINHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var req redeemPINRequest
		if err := c.BodyParser(&req); err != nil {
			return errBadRequest(c, "invalid request body")
		}
		if req.BenefitID == "" || req.PIN == "" {
			return errBadRequest(c, "benefit_id and pin are required")
		}

		coupon, err := deps.Coupons.RedeemByPIN(c.Context(), req.BenefitID, req.PIN)
		if err != nil {
			return redeemError(c, err)
		}
		return c.JSON(couponView(coupon, deps.Coupons.Now()))
	}
}

func redeemError(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, domain.ErrCouponRedeemed):
		return errConflict(c, "coupon_redeemed", "coupon has already been redeemed")
	case errors.Is(err, domain.ErrCouponExpired):
		return errGone(c, "coupon_expired", "coupon has expired")
	default:
		return errNotFound(c, "coupon not found")
	}
}

// UserCouponsHandler returns a user's coupons, newest first.
func UserCouponsHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		userID := c.Params("id")
		if userID == "" {
			return errBadRequest(c, "user id is required")
		}
		limit := c.QueryInt("limit", 20)

		coupons, err := deps.Coupons.ListForUser(c.Context(), userID, limit)
		if err != nil {
			return errInternal(c, err.Error())
		}

		now := deps.Coupons.Now()
		views := make([]fiber.Map, len(coupons))
		for i := range coupons {
			views[i] = couponView(&coupons[i], now)
		}
		c.Set("Cache-Control", "no-store")
		return c.JSON(views)
	}
}

// ListMerchantsHandler returns all merchants with offset pagination.
func ListMerchantsHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		merchants, err := deps.Merchants.List(c.Context())
		if err != nil {
			return errInternal(c, err.Error())
		}

		offset := c.QueryInt("offset", 0)
		limit := c.QueryInt("limit", 100)
		if offset < 0 {
			offset = 0
		}
		if limit <= 0 || limit > 200 {
			limit = 100
		}

		total := len(merchants)
		if offset >= total {
			merchants = nil
		} else {
			end := offset + limit
			if end > total {
				end = total
			}
			merchants = merchants[offset:end]
		}

		pg := Pagination{Offset: offset, Limit: limit, Total: total}
		SetLinkHeaders(c, pg)
		return c.JSON(PaginatedResponse{Data: merchants, Pagination: pg})
	}
}

// GetMerchantHandler returns a single merchant by slug.
func GetMerchantHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		slug := c.Params("slug")
		if slug == "" {
			return errBadRequest(c, "merchant slug is required")
		}
		merchant, err := deps.Merchants.GetBySlug(c.Context(), slug)
		if err != nil {
			return errNotFound(c, "merchant not found")
		}
		return c.JSON(merchant)
	}
}

// MerchantBenefitsHandler returns a merchant's benefits (by slug).
func MerchantBenefitsHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		slug := c.Params("slug")
		if slug == "" {
			return errBadRequest(c, "merchant slug is required")
		}

		merchant, err := deps.Merchants.GetBySlug(c.Context(), slug)
		if err != nil {
			return errNotFound(c, "merchant not found")
		}

		benefits, err := deps.Benefits.ListByMerchant(c.Context(), merchant.ID)
		if err != nil {
			return errInternal(c, err.Error())
		}
		return c.JSON(benefits)
	}
}

// MerchantStatsHandler returns dashboard stats for a merchant.
func MerchantStatsHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		slug := c.Params("slug")
		if slug == "" {
			return errBadRequest(c, "merchant slug is required")
		}

		merchant, err := deps.Merchants.GetBySlug(c.Context(), slug)
		if err != nil {
			return errNotFound(c, "merchant not found")
		}

		windowDays := c.QueryInt("window_days", 30)
		stats, err := deps.Merchants.Stats(c.Context(), merchant.ID, time.Duration(windowDays)*24*time.Hour)
		if err != nil {
			return errInternal(c, err.Error())
		}

		return c.JSON(fiber.Map{
			"merchant": merchant,
			"stats":    stats,
		})
	}
}

// bookmarkRequest is the body for bookmark add/remove.
type bookmarkRequest struct {
	UserID    string `json:"user_id"`
	BenefitID string `json:"benefit_id"`
}

// AddBookmarkHandler saves a benefit for a user.
func AddBookmarkHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var req bookmarkRequest
		if err := c.BodyParser(&req); err != nil {
			return errBadRequest(c, "invalid request body")
		}
		if err := deps.Bookmarks.Add(c.Context(), req.UserID, req.BenefitID); err != nil {
			return errBadRequest(c, err.Error())
		}
		return c.SendStatus(204)
	}
}

// RemoveBookmarkHandler deletes a saved benefit. Idempotent.
func RemoveBookmarkHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var req bookmarkRequest
		if err := c.BodyParser(&req); err != nil {
			return errBadRequest(c, "invalid request body")
		}
		if err := deps.Bookmarks.Remove(c.Context(), req.UserID, req.BenefitID); err != nil {
			return errBadRequest(c, err.Error())
		}
		return c.SendStatus(204)
	}
}

// UserBookmarksHandler returns a user's bookmarks.
func UserBookmarksHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		userID := c.Params("id")
		if userID == "" {
			return errBadRequest(c, "user id is required")
		}
		bookmarks, err := deps.Bookmarks.ListForUser(c.Context(), userID)
		if err != nil {
			return errInternal(c, err.Error())
		}
		c.Set("Cache-Control", "no-store")
		return c.JSON(bookmarks)
	}
}

// SubmitApplicationHandler files a merchant onboarding application.
func SubmitApplicationHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var app domain.MerchantApplication
		if err := c.BodyParser(&app); err != nil {
			return errBadRequest(c, "invalid request body")
		}
		if err := deps.Applications.Submit(c.Context(), &app); err != nil {
			return errBadRequest(c, err.Error())
		}
		return c.Status(201).JSON(app)
	}
}

// ListApplicationsHandler returns one review-board column.
func ListApplicationsHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		status := domain.ApplicationStatus(c.Query("status", string(domain.ApplicationSubmitted)))
		limit := c.QueryInt("limit", 50)

		apps, err := deps.Applications.ListByStatus(c.Context(), status, limit)
		if err != nil {
			return errInternal(c, err.Error())
		}
		c.Set("Cache-Control", "no-store")
		return c.JSON(apps)
	}
}

// transitionRequest is the body for review-board moves.
type transitionRequest struct {
	Status domain.ApplicationStatus `json:"status"`
	Note   string                   `json:"note"`
}

// TransitionApplicationHandler moves an application between review states.
func TransitionApplicationHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id := c.Params("id")
		if id == "" {
			return errBadRequest(c, "application id is required")
		}
		var req transitionRequest
		if err := c.BodyParser(&req); err != nil {
			return errBadRequest(c, "invalid request body")
		}

		app, err := deps.Applications.Transition(c.Context(), id, req.Status, req.Note)
		if err != nil {
			return errConflict(c, "illegal_transition", err.Error())
		}
		return c.JSON(app)
	}
}

// locationView renders a resolved location with its region.
func locationView(deps *Dependencies, st domain.LocationState) fiber.Map {
	view := fiber.Map{
		"location":    st.Location,
		"address":     st.Address,
		"captured_at": st.CapturedAt,
		"fallback":    st.Fallback,
	}
	if st.AccuracyMeters != nil {
		view["accuracy_meters"] = *st.AccuracyMeters
	}
	if r := deps.Location.Region(); r != nil {
		view["region"] = r
	}
	return view
}

// CurrentLocationHandler returns the session's resolved location.
func CurrentLocationHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		st, ok := deps.Location.Current()
		if !ok {
			return errNotFound(c, "no location resolved yet")
		}
		c.Set("Cache-Control", "no-store")
		return c.JSON(locationView(deps, st))
	}
}

// ResolveLocationHandler performs a single-shot location acquisition. Always
// succeeds: failures resolve to the configured default location.
func ResolveLocationHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		st := deps.Location.Resolve(c.Context())
		return c.JSON(locationView(deps, st))
	}
}

// StartWatchHandler begins periodic location refresh.
func StartWatchHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		// The watch outlives the request, so it gets its own context.
		if err := deps.Location.Watch(context.Background()); err != nil {
			return errConflict(c, "watch_active", err.Error())
		}
		return c.SendStatus(202)
	}
}

// StopWatchHandler cancels the location watch. Idempotent.
func StopWatchHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		deps.Location.CancelWatch()
		return c.SendStatus(204)
	}
}

// ChatHistoryHandler returns the most recent messages in a room.
func ChatHistoryHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		room := c.Params("room")
		if room == "" {
			return errBadRequest(c, "room id is required")
		}
		limit := c.QueryInt("limit", 50)

		messages, err := deps.Chat.History(c.Context(), room, limit)
		if err != nil {
			return errInternal(c, err.Error())
		}
		c.Set("Cache-Control", "no-store")
		return c.JSON(messages)
	}
}
