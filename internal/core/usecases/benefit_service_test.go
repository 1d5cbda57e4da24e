package usecases_test

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/jiljuapp/jilju/internal/core/domain"
	"github.com/jiljuapp/jilju/internal/core/usecases"
)

type mockCache struct {
	data map[string][]byte
	sets int
}

func newMockCache() *mockCache {
	return &mockCache{data: map[string][]byte{}}
}

func (m *mockCache) Get(ctx context.Context, key string) ([]byte, error) {
	if data, ok := m.data[key]; ok {
		return data, nil
	}
	return nil, errors.New("cache miss")
}

func (m *mockCache) Set(ctx context.Context, key string, value []byte, ttlSeconds int) error {
	m.data[key] = value
	m.sets++
	return nil
}

func (m *mockCache) Delete(ctx context.Context, key string) error {
	delete(m.data, key)
	return nil
}

func TestBenefitService_FindNearbyCaches(t *testing.T) {
	repoCalls := 0
	repo := &mockBenefitRepo{
		findNearbyFn: func(ctx context.Context, lat, lon, radiusMeters float64, limit int) ([]domain.Benefit, error) {
			repoCalls++
			return []domain.Benefit{{ID: "b1", Title: "흑돼지 2인 세트 5천원 할인"}}, nil
		},
	}
	cache := newMockCache()
	svc := usecases.NewBenefitService(repo, cache)

	for i := 0; i < 3; i++ {
		benefits, err := svc.FindNearby(context.Background(), 33.4996, 126.5312, 3000, 20)
		if err != nil {
			t.Fatalf("find nearby: %v", err)
		}
		if len(benefits) != 1 || benefits[0].ID != "b1" {
			t.Fatalf("unexpected result: %v", benefits)
		}
	}

	if repoCalls != 1 {
		t.Errorf("expected 1 repository call, got %d", repoCalls)
	}
	if cache.sets != 1 {
		t.Errorf("expected 1 cache fill, got %d", cache.sets)
	}
}

func TestBenefitService_FindNearbyClampsLimit(t *testing.T) {
	var gotLimit int
	repo := &mockBenefitRepo{
		findNearbyFn: func(ctx context.Context, lat, lon, radiusMeters float64, limit int) ([]domain.Benefit, error) {
			gotLimit = limit
			return nil, nil
		},
	}
	svc := usecases.NewBenefitService(repo, nil)

	if _, err := svc.FindNearby(context.Background(), 33.5, 126.5, 1000, 500); err != nil {
		t.Fatalf("find nearby: %v", err)
	}
	if gotLimit != 50 {
		t.Errorf("limit should clamp to 50, got %d", gotLimit)
	}
}

func TestBenefitService_ListByRegionResolvesName(t *testing.T) {
	var gotRegionID string
	repo := &mockBenefitRepo{
		listByRegionFn: func(ctx context.Context, regionID string, limit int) ([]domain.Benefit, error) {
			gotRegionID = regionID
			return []domain.Benefit{{ID: "b2", RegionID: regionID}}, nil
		},
	}
	svc := usecases.NewBenefitService(repo, nil)

	// Korean display name resolves to the region ID.
	if _, err := svc.ListByRegion(context.Background(), "아라권", 10); err != nil {
		t.Fatalf("list by region: %v", err)
	}
	if gotRegionID != "ara" {
		t.Errorf("expected ara, got %q", gotRegionID)
	}

	if _, err := svc.ListByRegion(context.Background(), "atlantis", 10); err == nil {
		t.Error("unknown region should fail")
	}
	if _, err := svc.ListByRegion(context.Background(), "", 10); err == nil {
		t.Error("empty region should fail")
	}
}

func TestBenefitService_GetByIDCacheRoundTrip(t *testing.T) {
	repo := &mockBenefitRepo{
		getByIDFn: func(ctx context.Context, id string) (*domain.Benefit, error) {
			return &domain.Benefit{ID: id, Title: "감귤 체험 1+1", Kind: domain.BenefitGift}, nil
		},
	}
	cache := newMockCache()
	svc := usecases.NewBenefitService(repo, cache)

	if _, err := svc.GetByID(context.Background(), "b3"); err != nil {
		t.Fatalf("get: %v", err)
	}

	data, ok := cache.data["benefits:id:b3"]
	if !ok {
		t.Fatal("benefit was not cached")
	}
	var cached domain.Benefit
	if err := json.Unmarshal(data, &cached); err != nil {
		t.Fatalf("cached payload: %v", err)
	}
	if cached.Title != "감귤 체험 1+1" {
		t.Errorf("cached wrong benefit: %+v", cached)
	}

	// Second read is served from cache even if the repository now errors.
	repo.getByIDFn = func(ctx context.Context, id string) (*domain.Benefit, error) {
		return nil, errors.New("db down")
	}
	b, err := svc.GetByID(context.Background(), "b3")
	if err != nil {
		t.Fatalf("cached get: %v", err)
	}
	if b.Kind != domain.BenefitGift {
		t.Errorf("unexpected cached kind %v", b.Kind)
	}
}

func TestBenefitService_SearchValidation(t *testing.T) {
	repo := &mockBenefitRepo{
		searchFn: func(ctx context.Context, query string, near *domain.GeoPoint, limit int) ([]domain.Benefit, error) {
			return nil, nil
		},
	}
	svc := usecases.NewBenefitService(repo, nil)

	if _, err := svc.Search(context.Background(), "", nil, 10); err == nil {
		t.Error("empty query should fail")
	}
	if _, err := svc.Search(context.Background(), "떡볶이", nil, 10); err != nil {
		t.Errorf("search: %v", err)
	}
}
