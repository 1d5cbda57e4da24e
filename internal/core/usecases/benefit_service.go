package usecases

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jiljuapp/jilju/internal/core/domain"
	"github.com/jiljuapp/jilju/internal/core/ports"
	"github.com/jiljuapp/jilju/internal/core/regions"
	"github.com/jiljuapp/jilju/internal/pkg/metrics"
)

// BenefitService handles benefit-catalog business logic.
type BenefitService struct {
	benefits ports.BenefitRepository
	cache    ports.CacheService
}

// NewBenefitService creates a new BenefitService.
func NewBenefitService(benefits ports.BenefitRepository, cache ports.CacheService) *BenefitService {
	return &BenefitService{benefits: benefits, cache: cache}
}

// FindNearby returns active benefits within radiusMeters of the given point,
// nearest first.
func (s *BenefitService) FindNearby(ctx context.Context, lat, lon, radiusMeters float64, limit int) ([]domain.Benefit, error) {
	if limit <= 0 || limit > 50 {
		limit = 50
	}

	// Try cache
	cacheKey := fmt.Sprintf("benefits:nearby:%.4f:%.4f:%.0f:%d", lat, lon, radiusMeters, limit)
	if s.cache != nil {
		if data, err := s.cache.Get(ctx, cacheKey); err == nil {
			var benefits []domain.Benefit
			if err := json.Unmarshal(data, &benefits); err == nil {
				metrics.CacheHits.WithLabelValues("benefits_nearby").Inc()
				return benefits, nil
			}
		}
		metrics.CacheMisses.WithLabelValues("benefits_nearby").Inc()
	}

	benefits, err := s.benefits.FindNearby(ctx, lat, lon, radiusMeters, limit)
	if err != nil {
		return nil, err
	}

	// Cache for 5 minutes (the catalog changes slowly)
	if s.cache != nil {
		if data, err := json.Marshal(benefits); err == nil {
			_ = s.cache.Set(ctx, cacheKey, data, 300)
		}
	}

	return benefits, nil
}

// ListByRegion returns active benefits labeled with the given region. The
// region name or an area name is accepted as well as the region ID.
func (s *BenefitService) ListByRegion(ctx context.Context, region string, limit int) ([]domain.Benefit, error) {
	if region == "" {
		return nil, fmt.Errorf("region must not be empty")
	}
	if limit <= 0 || limit > 100 {
		limit = 50
	}

	r := regions.FindByName(region, regions.Table)
	if r == nil {
		return nil, fmt.Errorf("unknown region: %s", region)
	}

	cacheKey := fmt.Sprintf("benefits:region:%s:%d", r.ID, limit)
	if s.cache != nil {
		if data, err := s.cache.Get(ctx, cacheKey); err == nil {
			var benefits []domain.Benefit
			if err := json.Unmarshal(data, &benefits); err == nil {
				metrics.CacheHits.WithLabelValues("benefits_region").Inc()
				return benefits, nil
			}
		}
		metrics.CacheMisses.WithLabelValues("benefits_region").Inc()
	}

	benefits, err := s.benefits.ListByRegion(ctx, r.ID, limit)
	if err != nil {
		return nil, err
	}

	if s.cache != nil {
		if data, err := json.Marshal(benefits); err == nil {
			_ = s.cache.Set(ctx, cacheKey, data, 300)
		}
	}

	return benefits, nil
}

// Search performs fuzzy + full-text search on benefit titles.
func (s *BenefitService) Search(ctx context.Context, query string, near *domain.GeoPoint, limit int) ([]domain.Benefit, error) {
	if query == "" {
		return nil, fmt.Errorf("search query must not be empty")
	}
	if limit <= 0 || limit > 50 {
		limit = 20
	}

	return s.benefits.Search(ctx, query, near, limit)
}

// GetByID returns a single benefit.
func (s *BenefitService) GetByID(ctx context.Context, id string) (*domain.Benefit, error) {
	cacheKey := "benefits:id:" + id
	if s.cache != nil {
		if data, err := s.cache.Get(ctx, cacheKey); err == nil {
			var b domain.Benefit
			if err := json.Unmarshal(data, &b); err == nil {
				metrics.CacheHits.WithLabelValues("benefits_id").Inc()
				return &b, nil
			}
		}
		metrics.CacheMisses.WithLabelValues("benefits_id").Inc()
	}

	b, err := s.benefits.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if s.cache != nil {
		if data, err := json.Marshal(b); err == nil {
			_ = s.cache.Set(ctx, cacheKey, data, 600)
		}
	}

	return b, nil
}

// ListByMerchant returns a merchant's benefits.
func (s *BenefitService) ListByMerchant(ctx context.Context, merchantID string) ([]domain.Benefit, error) {
	if merchantID == "" {
		return nil, fmt.Errorf("merchant ID must not be empty")
	}
	return s.benefits.ListByMerchant(ctx, merchantID)
}
