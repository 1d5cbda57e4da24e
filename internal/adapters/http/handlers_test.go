package http_test

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"

	handler "github.com/jiljuapp/jilju/internal/adapters/http"
	"github.com/jiljuapp/jilju/internal/core/domain"
	"github.com/jiljuapp/jilju/internal/core/ports"
	"github.com/jiljuapp/jilju/internal/core/usecases"
)

// ---- Mock repositories ----

type mockBenefitRepo struct {
	findNearbyFn     func(ctx context.Context, lat, lon, radius float64, limit int) ([]domain.Benefit, error)
	getByIDFn        func(ctx context.Context, id string) (*domain.Benefit, error)
	listByRegionFn   func(ctx context.Context, regionID string, limit int) ([]domain.Benefit, error)
	listByMerchantFn func(ctx context.Context, merchantID string) ([]domain.Benefit, error)
	searchFn         func(ctx context.Context, query string, near *domain.GeoPoint, limit int) ([]domain.Benefit, error)
}

func (m *mockBenefitRepo) Upsert(ctx context.Context, b *domain.Benefit) error       { return nil }
func (m *mockBenefitRepo) UpsertBatch(ctx context.Context, b []domain.Benefit) error { return nil }
func (m *mockBenefitRepo) FindNearby(ctx context.Context, lat, lon, radius float64, limit int) ([]domain.Benefit, error) {
	if m.findNearbyFn != nil {
		return m.findNearbyFn(ctx, lat, lon, radius, limit)
	}
	return nil, nil
}
func (m *mockBenefitRepo) GetByID(ctx context.Context, id string) (*domain.Benefit, error) {
	if m.getByIDFn != nil {
		return m.getByIDFn(ctx, id)
	}
	return nil, fmt.Errorf("not found")
}
func (m *mockBenefitRepo) ListByRegion(ctx context.Context, regionID string, limit int) ([]domain.Benefit, error) {
	if m.listByRegionFn != nil {
		return m.listByRegionFn(ctx, regionID, limit)
	}
	return nil, nil
}
func (m *mockBenefitRepo) ListByMerchant(ctx context.Context, merchantID string) ([]domain.Benefit, error) {
	if m.listByMerchantFn != nil {
		return m.listByMerchantFn(ctx, merchantID)
	}
	return nil, nil
}
func (m *mockBenefitRepo) Search(ctx context.Context, query string, near *domain.GeoPoint, limit int) ([]domain.Benefit, error) {
	if m.searchFn != nil {
		return m.searchFn(ctx, query, near, limit)
	}
	return nil, nil
}

type mockCouponRepo struct {
	createFn       func(ctx context.Context, c *domain.Coupon) error
	getByTokenFn   func(ctx context.Context, token string) (*domain.Coupon, error)
	markRedeemedFn func(ctx context.Context, token string, at time.Time) error
}

func (m *mockCouponRepo) Create(ctx context.Context, c *domain.Coupon) error {
	if m.createFn != nil {
		return m.createFn(ctx, c)
	}
	return nil
}
func (m *mockCouponRepo) GetByToken(ctx context.Context, token string) (*domain.Coupon, error) {
	if m.getByTokenFn != nil {
		return m.getByTokenFn(ctx, token)
	}
	return nil, fmt.Errorf("not found")
}
func (m *mockCouponRepo) GetByPIN(ctx context.Context, benefitID, pin string) (*domain.Coupon, error) {
	return nil, fmt.Errorf("not found")
}
func (m *mockCouponRepo) ListByUser(ctx context.Context, userID string, limit int) ([]domain.Coupon, error) {
	return nil, nil
}
func (m *mockCouponRepo) MarkRedeemed(ctx context.Context, token string, at time.Time) error {
	if m.markRedeemedFn != nil {
		return m.markRedeemedFn(ctx, token, at)
	}
	return nil
}
func (m *mockCouponRepo) Delete(ctx context.Context, token string) error { return nil }
func (m *mockCouponRepo) CountByMerchant(ctx context.Context, merchantID string, from, to time.Time) (int, int, error) {
	return 0, 0, nil
}

type mockMerchantRepo struct {
	listFn      func(ctx context.Context) ([]domain.Merchant, error)
	getBySlugFn func(ctx context.Context, slug string) (*domain.Merchant, error)
}

func (m *mockMerchantRepo) Upsert(ctx context.Context, mer *domain.Merchant) error { return nil }
func (m *mockMerchantRepo) GetBySlug(ctx context.Context, slug string) (*domain.Merchant, error) {
	if m.getBySlugFn != nil {
		return m.getBySlugFn(ctx, slug)
	}
	return nil, fmt.Errorf("not found")
}
func (m *mockMerchantRepo) GetByID(ctx context.Context, id string) (*domain.Merchant, error) {
	return nil, fmt.Errorf("not found")
}
func (m *mockMerchantRepo) List(ctx context.Context) ([]domain.Merchant, error) {
	if m.listFn != nil {
		return m.listFn(ctx)
	}
	return nil, nil
}

type mockBookmarkRepo struct {
	addFn func(ctx context.Context, userID, benefitID string) error
}

func (m *mockBookmarkRepo) Add(ctx context.Context, userID, benefitID string) error {
	if m.addFn != nil {
		return m.addFn(ctx, userID, benefitID)
	}
	return nil
}
func (m *mockBookmarkRepo) Remove(ctx context.Context, userID, benefitID string) error { return nil }
func (m *mockBookmarkRepo) ListByUser(ctx context.Context, userID string) ([]domain.Bookmark, error) {
	return nil, nil
}

type mockApplicationRepo struct {
	getByIDFn func(ctx context.Context, id string) (*domain.MerchantApplication, error)
}

func (m *mockApplicationRepo) Create(ctx context.Context, app *domain.MerchantApplication) error {
	return nil
}
func (m *mockApplicationRepo) GetByID(ctx context.Context, id string) (*domain.MerchantApplication, error) {
	if m.getByIDFn != nil {
		return m.getByIDFn(ctx, id)
	}
	return nil, fmt.Errorf("not found")
}
func (m *mockApplicationRepo) ListByStatus(ctx context.Context, status domain.ApplicationStatus, limit int) ([]domain.MerchantApplication, error) {
	return nil, nil
}
func (m *mockApplicationRepo) UpdateStatus(ctx context.Context, id string, status domain.ApplicationStatus, note string, at time.Time) error {
	return nil
}

type mockChatRepo struct{}

func (m *mockChatRepo) Insert(ctx context.Context, msg *domain.ChatMessage) error { return nil }
func (m *mockChatRepo) ListByRoom(ctx context.Context, roomID string, limit int) ([]domain.ChatMessage, error) {
	return nil, nil
}

type mockProvider struct {
	requestFn func(ctx context.Context, opts ports.PositionOptions) (ports.Position, error)
}

func (m *mockProvider) RequestPosition(ctx context.Context, opts ports.PositionOptions) (ports.Position, error) {
	if m.requestFn != nil {
		return m.requestFn(ctx, opts)
	}
	return ports.Position{}, ports.ErrPositionUnavailable
}

// ---- Test helpers ----

var issuedAt = time.Date(2026, 5, 1, 14, 0, 0, 0, time.UTC)

func setupApp(deps *handler.Dependencies) *fiber.App {
	app := fiber.New(fiber.Config{DisableStartupMessage: true})
	handler.SetupRoutes(app, deps)
	return app
}

func makeDeps(opts ...func(*handler.Dependencies)) *handler.Dependencies {
	locParams := usecases.LocationParams{
		DefaultLocation: domain.GeoPoint{Lat: 33.4996, Lon: 126.5312},
		DefaultAddress:  "제주시청",
		RequestTimeout:  time.Second,
	}
	d := &handler.Dependencies{
		Benefits:     usecases.NewBenefitService(&mockBenefitRepo{}, nil),
		Coupons:      usecases.NewCouponService(&mockCouponRepo{}, &mockBenefitRepo{}, nil, nil, 0, nil),
		Merchants:    usecases.NewMerchantService(&mockMerchantRepo{}, &mockCouponRepo{}, nil),
		Bookmarks:    usecases.NewBookmarkService(&mockBookmarkRepo{}, &mockBenefitRepo{}),
		Applications: usecases.NewApplicationService(&mockApplicationRepo{}, &mockMerchantRepo{}, nil),
		Chat:         usecases.NewChatService(&mockChatRepo{}, nil, nil),
		Location:     usecases.NewLocationService(context.Background(), &mockProvider{}, nil, nil, locParams, nil, nil),
	}
	for _, o := range opts {
		o(d)
	}
	return d
}

func readBody(t *testing.T, body io.Reader) []byte {
	t.Helper()
	b, err := io.ReadAll(body)
	if err != nil {
		t.Fatalf("read body: %v", err)
	}
	return b
}

// ---- Benefit handler tests ----

func TestNearbyBenefits_Success(t *testing.T) {
	deps := makeDeps(func(d *handler.Dependencies) {
		dist := 450.0
		d.Benefits = usecases.NewBenefitService(&mockBenefitRepo{
			findNearbyFn: func(ctx context.Context, lat, lon, radius float64, limit int) ([]domain.Benefit, error) {
				return []domain.Benefit{
					{ID: "b1", Title: "한라봉 주스 1+1", Distance: &dist},
				}, nil
			},
		}, nil)
	})
	app := setupApp(deps)

	req := httptest.NewRequest("GET", "/v1/benefits/nearby?lat=33.4996&lon=126.5312&radius=3000", nil)
	resp, err := app.Test(req, -1)
	if err != nil {
		t.Fatal(err)
	}
	if resp.StatusCode != 200 {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}

	var benefits []struct {
		ID            string `json:"id"`
		DistanceLabel string `json:"distance_label"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&benefits); err != nil {
		t.Fatal(err)
	}
	if len(benefits) != 1 {
		t.Fatalf("expected 1 benefit, got %d", len(benefits))
	}
	if benefits[0].DistanceLabel != "450m" {
		t.Errorf("expected distance label 450m, got %q", benefits[0].DistanceLabel)
	}
}

func TestNearbyBenefits_MissingParams(t *testing.T) {
	app := setupApp(makeDeps())

	req := httptest.NewRequest("GET", "/v1/benefits/nearby", nil)
	resp, _ := app.Test(req, -1)
	if resp.StatusCode != 400 {
		t.Fatalf("expected 400, got %d", resp.StatusCode)
	}

	var apiErr struct {
		Status int    `json:"status"`
		Code   string `json:"code"`
	}
	json.NewDecoder(resp.Body).Decode(&apiErr)
	if apiErr.Code != "bad_request" {
		t.Errorf("expected bad_request error, got %s", apiErr.Code)
	}
}

func TestNearbyBenefits_ZeroCoordinateIsValid(t *testing.T) {
	app := setupApp(makeDeps())

	req := httptest.NewRequest("GET", "/v1/benefits/nearby?lat=0&lon=0", nil)
	resp, _ := app.Test(req, -1)
	if resp.StatusCode != 200 {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
}

func TestNearbyBenefits_BadRadius(t *testing.T) {
	app := setupApp(makeDeps())

	req := httptest.NewRequest("GET", "/v1/benefits/nearby?lat=33.49&lon=126.53&radius=99999", nil)
	resp, _ := app.Test(req, -1)
	if resp.StatusCode != 400 {
		t.Fatalf("expected 400, got %d", resp.StatusCode)
	}
}

func TestGetBenefit_NotFound(t *testing.T) {
	app := setupApp(makeDeps())

	req := httptest.NewRequest("GET", "/v1/benefits/nope", nil)
	resp, _ := app.Test(req, -1)
	if resp.StatusCode != 404 {
		t.Fatalf("expected 404, got %d", resp.StatusCode)
	}
}

// ---- Region handler tests ----

func TestListRegions(t *testing.T) {
	app := setupApp(makeDeps())

	req := httptest.NewRequest("GET", "/v1/regions", nil)
	resp, _ := app.Test(req, -1)
	if resp.StatusCode != 200 {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}

	var regionList []struct {
		ID string `json:"id"`
	}
	json.NewDecoder(resp.Body).Decode(&regionList)
	if len(regionList) < 5 {
		t.Errorf("expected the full region table, got %d entries", len(regionList))
	}
}

func TestResolveRegion_Ara(t *testing.T) {
	app := setupApp(makeDeps())

	req := httptest.NewRequest("GET", "/v1/regions/resolve?lat=33.4636&lon=126.5579", nil)
	resp, _ := app.Test(req, -1)
	if resp.StatusCode != 200 {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}

	var result struct {
		Region *struct {
			ID   string `json:"id"`
			Name string `json:"name"`
		} `json:"region"`
	}
	json.NewDecoder(resp.Body).Decode(&result)
	if result.Region == nil || result.Region.ID != "ara" {
		t.Fatalf("expected ara, got %+v", result.Region)
	}
	if result.Region.Name != "아라권" {
		t.Errorf("expected 아라권, got %q", result.Region.Name)
	}
}

func TestResolveRegion_Outside(t *testing.T) {
	app := setupApp(makeDeps())

	// Busan is nowhere near Jeju: outside is null, not an error.
	req := httptest.NewRequest("GET", "/v1/regions/resolve?lat=35.1796&lon=129.0756", nil)
	resp, _ := app.Test(req, -1)
	if resp.StatusCode != 200 {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}

	body := readBody(t, resp.Body)
	if !strings.Contains(string(body), `"region":null`) {
		t.Errorf("expected null region, got %s", body)
	}
}

func TestResolveRegion_ZeroCoordinateIsValid(t *testing.T) {
	app := setupApp(makeDeps())

	// (0, 0) is a legitimate coordinate, not a missing parameter.
	req := httptest.NewRequest("GET", "/v1/regions/resolve?lat=0&lon=0", nil)
	resp, _ := app.Test(req, -1)
	if resp.StatusCode != 200 {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}

	body := readBody(t, resp.Body)
	if !strings.Contains(string(body), `"region":null`) {
		t.Errorf("expected null region, got %s", body)
	}
}

func TestRegionBenefits_KoreanName(t *testing.T) {
	var gotRegionID string
	deps := makeDeps(func(d *handler.Dependencies) {
		d.Benefits = usecases.NewBenefitService(&mockBenefitRepo{
			listByRegionFn: func(ctx context.Context, regionID string, limit int) ([]domain.Benefit, error) {
				gotRegionID = regionID
				return []domain.Benefit{{ID: "b1", RegionID: regionID}}, nil
			},
		}, nil)
	})
	app := setupApp(deps)

	req := httptest.NewRequest("GET", "/v1/regions/"+"아라권"+"/benefits", nil)
	resp, _ := app.Test(req, -1)
	if resp.StatusCode != 200 {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	if gotRegionID != "ara" {
		t.Errorf("expected region resolved to ara, got %q", gotRegionID)
	}
}

// ---- Coupon handler tests ----

func activeBenefit() *domain.Benefit {
	return &domain.Benefit{
		ID:         "b1",
		MerchantID: "m1",
		Title:      "아메리카노 10% 할인",
		Kind:       domain.BenefitPercent,
		ValidFrom:  issuedAt.Add(-time.Hour),
		ValidUntil: issuedAt.Add(time.Hour),
		Active:     true,
	}
}

func couponDeps(now time.Time, coupon *domain.Coupon) *handler.Dependencies {
	return makeDeps(func(d *handler.Dependencies) {
		d.Coupons = usecases.NewCouponService(
			&mockCouponRepo{
				getByTokenFn: func(ctx context.Context, token string) (*domain.Coupon, error) {
					if coupon != nil && coupon.Token == token {
						cp := *coupon
						return &cp, nil
					}
					return nil, fmt.Errorf("not found")
				},
			},
			&mockBenefitRepo{
				getByIDFn: func(ctx context.Context, id string) (*domain.Benefit, error) {
					return activeBenefit(), nil
				},
			},
			nil, nil, 10*time.Minute,
			func() time.Time { return now },
		)
	})
}

func TestIssueCoupon_ShowsPINAndCountdown(t *testing.T) {
	app := setupApp(couponDeps(issuedAt, nil))

	req := httptest.NewRequest("POST", "/v1/coupons",
		strings.NewReader(`{"user_id":"u1","benefit_id":"b1"}`))
	req.Header.Set("Content-Type", "application/json")
	resp, _ := app.Test(req, -1)
	if resp.StatusCode != 201 {
		t.Fatalf("expected 201, got %d: %s", resp.StatusCode, readBody(t, resp.Body))
	}

	var view struct {
		Token     string `json:"token"`
		Status    string `json:"status"`
		Remaining string `json:"remaining"`
		PIN       string `json:"pin"`
	}
	json.NewDecoder(resp.Body).Decode(&view)
	if view.Status != "active" {
		t.Errorf("expected active, got %q", view.Status)
	}
	if view.Remaining != "10:00" {
		t.Errorf("expected 10:00 remaining, got %q", view.Remaining)
	}
	if len(view.PIN) != 6 {
		t.Errorf("active coupon must expose its 6-digit PIN, got %q", view.PIN)
	}
	if !strings.HasPrefix(view.Token, "JJ-") {
		t.Errorf("unexpected token %q", view.Token)
	}
}

func TestGetCoupon_ExpiredHidesPIN(t *testing.T) {
	coupon := &domain.Coupon{
		Token:     "JJ-expired",
		PIN:       "123456",
		BenefitID: "b1",
		IssuedAt:  issuedAt,
		ExpiresAt: issuedAt.Add(10 * time.Minute),
	}
	app := setupApp(couponDeps(issuedAt.Add(11*time.Minute), coupon))

	req := httptest.NewRequest("GET", "/v1/coupons/JJ-expired", nil)
	resp, _ := app.Test(req, -1)
	if resp.StatusCode != 200 {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}

	body := readBody(t, resp.Body)
	var view struct {
		Status    string `json:"status"`
		Remaining string `json:"remaining"`
		PIN       string `json:"pin"`
	}
	json.Unmarshal(body, &view)
	if view.Status != "expired" {
		t.Errorf("expected expired, got %q", view.Status)
	}
	if view.Remaining != "00:00" {
		t.Errorf("countdown must clamp at 00:00, got %q", view.Remaining)
	}
	if view.PIN != "" {
		t.Errorf("expired coupon must not expose its PIN")
	}
}

func TestRedeemCoupon_Success(t *testing.T) {
	coupon := &domain.Coupon{
		Token:     "JJ-live",
		PIN:       "123456",
		BenefitID: "b1",
		IssuedAt:  issuedAt,
		ExpiresAt: issuedAt.Add(10 * time.Minute),
	}
	app := setupApp(couponDeps(issuedAt.Add(3*time.Minute), coupon))

	req := httptest.NewRequest("POST", "/v1/coupons/JJ-live/redeem", nil)
	resp, _ := app.Test(req, -1)
	if resp.StatusCode != 200 {
		t.Fatalf("expected 200, got %d: %s", resp.StatusCode, readBody(t, resp.Body))
	}

	var view struct {
		Status string `json:"status"`
	}
	json.NewDecoder(resp.Body).Decode(&view)
	if view.Status != "redeemed" {
		t.Errorf("expected redeemed, got %q", view.Status)
	}
}

func TestRedeemCoupon_TwiceConflicts(t *testing.T) {
	redeemedAt := issuedAt.Add(2 * time.Minute)
	coupon := &domain.Coupon{
		Token:      "JJ-used",
		BenefitID:  "b1",
		IssuedAt:   issuedAt,
		ExpiresAt:  issuedAt.Add(10 * time.Minute),
		RedeemedAt: &redeemedAt,
	}
	app := setupApp(couponDeps(issuedAt.Add(3*time.Minute), coupon))

	req := httptest.NewRequest("POST", "/v1/coupons/JJ-used/redeem", nil)
	resp, _ := app.Test(req, -1)
	if resp.StatusCode != 409 {
		t.Fatalf("expected 409, got %d", resp.StatusCode)
	}

	var apiErr struct {
		Code string `json:"code"`
	}
	json.NewDecoder(resp.Body).Decode(&apiErr)
	if apiErr.Code != "coupon_redeemed" {
		t.Errorf("expected coupon_redeemed, got %q", apiErr.Code)
	}
}

func TestRedeemCoupon_ExpiredGone(t *testing.T) {
	coupon := &domain.Coupon{
		Token:     "JJ-old",
		BenefitID: "b1",
		IssuedAt:  issuedAt,
		ExpiresAt: issuedAt.Add(10 * time.Minute),
	}
	// Redemption exactly at expiry already fails.
	app := setupApp(couponDeps(issuedAt.Add(10*time.Minute), coupon))

	req := httptest.NewRequest("POST", "/v1/coupons/JJ-old/redeem", nil)
	resp, _ := app.Test(req, -1)
	if resp.StatusCode != 410 {
		t.Fatalf("expected 410, got %d", resp.StatusCode)
	}
}

// ---- Merchant handler tests ----

func TestListMerchants_Pagination(t *testing.T) {
	merchants := make([]domain.Merchant, 5)
	for i := range merchants {
		merchants[i] = domain.Merchant{ID: fmt.Sprintf("m%d", i), Name: fmt.Sprintf("가게 %d", i)}
	}

	deps := makeDeps(func(d *handler.Dependencies) {
		d.Merchants = usecases.NewMerchantService(&mockMerchantRepo{
			listFn: func(ctx context.Context) ([]domain.Merchant, error) { return merchants, nil },
		}, &mockCouponRepo{}, nil)
	})
	app := setupApp(deps)

	req := httptest.NewRequest("GET", "/v1/merchants?offset=2&limit=2", nil)
	resp, _ := app.Test(req, -1)
	if resp.StatusCode != 200 {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}

	var result struct {
		Data       []domain.Merchant `json:"data"`
		Pagination struct {
			Offset int `json:"offset"`
			Total  int `json:"total"`
		} `json:"pagination"`
	}
	json.NewDecoder(resp.Body).Decode(&result)
	if result.Pagination.Total != 5 {
		t.Errorf("expected total 5, got %d", result.Pagination.Total)
	}
	if len(result.Data) != 2 {
		t.Errorf("expected 2 merchants in page, got %d", len(result.Data))
	}
	if result.Pagination.Offset != 2 {
		t.Errorf("expected offset 2, got %d", result.Pagination.Offset)
	}
}

// ---- Bookmark handler tests ----

func TestAddBookmark(t *testing.T) {
	added := false
	deps := makeDeps(func(d *handler.Dependencies) {
		d.Bookmarks = usecases.NewBookmarkService(
			&mockBookmarkRepo{
				addFn: func(ctx context.Context, userID, benefitID string) error {
					added = true
					return nil
				},
			},
			&mockBenefitRepo{
				getByIDFn: func(ctx context.Context, id string) (*domain.Benefit, error) {
					return &domain.Benefit{ID: id}, nil
				},
			},
		)
	})
	app := setupApp(deps)

	req := httptest.NewRequest("POST", "/v1/bookmarks",
		strings.NewReader(`{"user_id":"u1","benefit_id":"b1"}`))
	req.Header.Set("Content-Type", "application/json")
	resp, _ := app.Test(req, -1)
	if resp.StatusCode != 204 {
		t.Fatalf("expected 204, got %d", resp.StatusCode)
	}
	if !added {
		t.Error("bookmark was not stored")
	}
}

// ---- Application handler tests ----

func TestTransitionApplication_IllegalMove(t *testing.T) {
	deps := makeDeps(func(d *handler.Dependencies) {
		d.Applications = usecases.NewApplicationService(
			&mockApplicationRepo{
				getByIDFn: func(ctx context.Context, id string) (*domain.MerchantApplication, error) {
					return &domain.MerchantApplication{ID: id, Status: domain.ApplicationRejected}, nil
				},
			},
			&mockMerchantRepo{}, nil,
		)
	})
	app := setupApp(deps)

	req := httptest.NewRequest("POST", "/v1/applications/a1/transition",
		strings.NewReader(`{"status":"reviewing"}`))
	req.Header.Set("Content-Type", "application/json")
	resp, _ := app.Test(req, -1)
	if resp.StatusCode != 409 {
		t.Fatalf("expected 409, got %d", resp.StatusCode)
	}
}

// ---- Location handler tests ----

func TestResolveLocation_FallsBackToDefault(t *testing.T) {
	deps := makeDeps(func(d *handler.Dependencies) {
		locParams := usecases.LocationParams{
			DefaultLocation: domain.GeoPoint{Lat: 33.4996, Lon: 126.5312},
			DefaultAddress:  "제주시청",
			RequestTimeout:  time.Second,
		}
		d.Location = usecases.NewLocationService(context.Background(), &mockProvider{
			requestFn: func(ctx context.Context, opts ports.PositionOptions) (ports.Position, error) {
				return ports.Position{}, ports.ErrPermissionDenied
			},
		}, nil, nil, locParams, nil, nil)
	})
	app := setupApp(deps)

	req := httptest.NewRequest("POST", "/v1/location/resolve", nil)
	resp, _ := app.Test(req, -1)
	if resp.StatusCode != 200 {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}

	var view struct {
		Fallback bool   `json:"fallback"`
		Address  string `json:"address"`
		Region   *struct {
			ID string `json:"id"`
		} `json:"region"`
	}
	json.NewDecoder(resp.Body).Decode(&view)
	if !view.Fallback {
		t.Error("expected fallback state")
	}
	if view.Address != "제주시청" {
		t.Errorf("expected default address, got %q", view.Address)
	}
	if view.Region == nil || view.Region.ID != "jeju-city" {
		t.Errorf("default location should resolve to jeju-city, got %+v", view.Region)
	}
}

func TestCurrentLocation_NotResolved(t *testing.T) {
	app := setupApp(makeDeps())

	req := httptest.NewRequest("GET", "/v1/location", nil)
	resp, _ := app.Test(req, -1)
	if resp.StatusCode != 404 {
		t.Fatalf("expected 404, got %d", resp.StatusCode)
	}
}

func TestStopWatch_Idempotent(t *testing.T) {
	app := setupApp(makeDeps())

	for i := 0; i < 2; i++ {
		req := httptest.NewRequest("DELETE", "/v1/location/watch", nil)
		resp, _ := app.Test(req, -1)
		if resp.StatusCode != 204 {
			t.Fatalf("expected 204, got %d", resp.StatusCode)
		}
	}
}

// ---- Health ----

func TestHealth(t *testing.T) {
	app := setupApp(makeDeps())

	req := httptest.NewRequest("GET", "/v1/health", nil)
	resp, _ := app.Test(req, -1)
	if resp.StatusCode != 200 {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}

	var result struct {
		Status string `json:"status"`
	}
	json.NewDecoder(resp.Body).Decode(&result)
	if result.Status != "healthy" {
		t.Errorf("expected healthy, got %q", result.Status)
	}
}
