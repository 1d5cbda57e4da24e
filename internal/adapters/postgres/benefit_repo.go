package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/jiljuapp/jilju/internal/core/domain"
)

// BenefitRepo implements ports.BenefitRepository with pgx.
type BenefitRepo struct {
	db *DB
}

// NewBenefitRepo creates a new BenefitRepo.
func NewBenefitRepo(db *DB) *BenefitRepo {
	return &BenefitRepo{db: db}
}

const benefitUpsert = `
	INSERT INTO benefits (id, merchant_id, title, kind, discount_percent, discount_amount,
	                      gift_description, location, region_id, coupon_ttl_seconds,
	                      valid_from, valid_until, active, metadata)
	VALUES ($1, $2, $3, $4, $5, $6, $7,
	        ST_SetSRID(ST_MakePoint($8, $9), 4326)::geography,
	        $10, $11, $12, $13, $14, $15)
	ON CONFLICT (id) DO UPDATE
	SET title = EXCLUDED.title, kind = EXCLUDED.kind,
	    discount_percent = EXCLUDED.discount_percent,
	    discount_amount = EXCLUDED.discount_amount,
	    gift_description = EXCLUDED.gift_description,
	    location = EXCLUDED.location,
	    region_id = EXCLUDED.region_id,
	    coupon_ttl_seconds = EXCLUDED.coupon_ttl_seconds,
	    valid_from = EXCLUDED.valid_from, valid_until = EXCLUDED.valid_until,
	    active = EXCLUDED.active, metadata = EXCLUDED.metadata
`

func benefitUpsertArgs(b *domain.Benefit) []any {
	return []any{
		b.ID, b.MerchantID, b.Title, string(b.Kind),
		b.DiscountPercent, b.DiscountAmount, b.GiftDescription,
		b.Location.Lon, b.Location.Lat,
		b.RegionID, int(b.CouponTTL.Seconds()),
		b.ValidFrom, b.ValidUntil, b.Active, b.Metadata,
	}
}

// Upsert inserts or updates a single benefit.
func (r *BenefitRepo) Upsert(ctx context.Context, b *domain.Benefit) error {
	_, err := r.db.Pool.Exec(ctx, benefitUpsert, benefitUpsertArgs(b)...)
	return err
}

// UpsertBatch inserts many benefits using pgx.Batch.
func (r *BenefitRepo) UpsertBatch(ctx context.Context, benefits []domain.Benefit) error {
	batch := &pgx.Batch{}
	for i := range benefits {
		batch.Queue(benefitUpsert, benefitUpsertArgs(&benefits[i])...)
	}
	br := r.db.Pool.SendBatch(ctx, batch)
	defer br.Close()
	for range benefits {
		if _, err := br.Exec(); err != nil {
			return fmt.Errorf("batch exec: %w", err)
		}
	}
	return nil
}

const benefitColumns = `
	id, merchant_id, title, kind, discount_percent, discount_amount,
	COALESCE(gift_description, ''),
	ST_Y(location::geometry) as lat,
	ST_X(location::geometry) as lon,
	COALESCE(region_id, ''), coupon_ttl_seconds,
	valid_from, valid_until, active, COALESCE(metadata, '{}'), created_at
`

func scanBenefit(row pgx.Row) (*domain.Benefit, error) {
	var b domain.Benefit
	var kind string
	var ttlSeconds int
	err := row.Scan(
		&b.ID, &b.MerchantID, &b.Title, &kind,
		&b.DiscountPercent, &b.DiscountAmount, &b.GiftDescription,
		&b.Location.Lat, &b.Location.Lon,
		&b.RegionID, &ttlSeconds,
		&b.ValidFrom, &b.ValidUntil, &b.Active, &b.Metadata, &b.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	b.Kind = domain.BenefitKind(kind)
	b.CouponTTL = secondsToDuration(ttlSeconds)
	return &b, nil
}

// GetByID returns a benefit by ID.
func (r *BenefitRepo) GetByID(ctx context.Context, id string) (*domain.Benefit, error) {
	row := r.db.Pool.QueryRow(ctx,
		`SELECT `+benefitColumns+` FROM benefits WHERE id = $1`, id)
	return scanBenefit(row)
}

// FindNearby returns active benefits within radiusMeters using PostGIS
// ST_DWithin, nearest first.
func (r *BenefitRepo) FindNearby(ctx context.Context, lat, lon, radiusMeters float64, limit int) ([]domain.Benefit, error) {
	rows, err := r.db.Pool.Query(ctx, `
		SELECT `+benefitColumns+`,
		       ST_Distance(location, ST_SetSRID(ST_MakePoint($1, $2), 4326)::geography) as distance
		FROM benefits
		WHERE active
		  AND now() BETWEEN valid_from AND valid_until
		  AND ST_DWithin(location, ST_SetSRID(ST_MakePoint($1, $2), 4326)::geography, $3)
		ORDER BY distance
		LIMIT $4
	`, lon, lat, radiusMeters, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var benefits []domain.Benefit
	for rows.Next() {
		var b domain.Benefit
		var kind string
		var ttlSeconds int
		var dist float64
		if err := rows.Scan(
			&b.ID, &b.MerchantID, &b.Title, &kind,
			&b.DiscountPercent, &b.DiscountAmount, &b.GiftDescription,
			&b.Location.Lat, &b.Location.Lon,
			&b.RegionID, &ttlSeconds,
			&b.ValidFrom, &b.ValidUntil, &b.Active, &b.Metadata, &b.CreatedAt,
			&dist,
		); err != nil {
			return nil, err
		}
		b.Kind = domain.BenefitKind(kind)
		b.CouponTTL = secondsToDuration(ttlSeconds)
		b.Distance = &dist
		benefits = append(benefits, b)
	}
	return benefits, rows.Err()
}

// ListByRegion returns active benefits labeled with the region ID.
func (r *BenefitRepo) ListByRegion(ctx context.Context, regionID string, limit int) ([]domain.Benefit, error) {
	rows, err := r.db.Pool.Query(ctx, `
		SELECT `+benefitColumns+`
		FROM benefits
		WHERE region_id = $1 AND active
		  AND now() BETWEEN valid_from AND valid_until
		ORDER BY created_at DESC
		LIMIT $2
	`, regionID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectBenefits(rows)
}

// ListByMerchant returns all benefits of a merchant, including inactive ones.
func (r *BenefitRepo) ListByMerchant(ctx context.Context, merchantID string) ([]domain.Benefit, error) {
	rows, err := r.db.Pool.Query(ctx, `
		SELECT `+benefitColumns+`
		FROM benefits
		WHERE merchant_id = $1
		ORDER BY created_at DESC
	`, merchantID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectBenefits(rows)
}

// Search performs fuzzy + full-text search on benefit titles. When a point is
// given, proximity breaks similarity ties.
func (r *BenefitRepo) Search(ctx context.Context, query string, near *domain.GeoPoint, limit int) ([]domain.Benefit, error) {
	if near != nil {
		rows, err := r.db.Pool.Query(ctx, `
			SELECT `+benefitColumns+`,
			       similarity(title, $1) as sim,
			       ST_Distance(location, ST_SetSRID(ST_MakePoint($2, $3), 4326)::geography) as distance
			FROM benefits
			WHERE active
			  AND (title_vector @@ plainto_tsquery('simple', $1) OR title %> $1)
			ORDER BY sim DESC, distance
			LIMIT $4
		`, query, near.Lon, near.Lat, limit)
		if err != nil {
			return nil, err
		}
		defer rows.Close()

		var benefits []domain.Benefit
		for rows.Next() {
			var b domain.Benefit
			var kind string
			var ttlSeconds int
			var sim, dist float64
			if err := rows.Scan(
				&b.ID, &b.MerchantID, &b.Title, &kind,
				&b.DiscountPercent, &b.DiscountAmount, &b.GiftDescription,
				&b.Location.Lat, &b.Location.Lon,
				&b.RegionID, &ttlSeconds,
				&b.ValidFrom, &b.ValidUntil, &b.Active, &b.Metadata, &b.CreatedAt,
				&sim, &dist,
			); err != nil {
				return nil, err
			}
			b.Kind = domain.BenefitKind(kind)
			b.CouponTTL = secondsToDuration(ttlSeconds)
			b.Distance = &dist
			benefits = append(benefits, b)
		}
		return benefits, rows.Err()
	}

	rows, err := r.db.Pool.Query(ctx, `
		SELECT `+benefitColumns+`,
		       similarity(title, $1) as sim
		FROM benefits
		WHERE active
		  AND (title_vector @@ plainto_tsquery('simple', $1) OR title %> $1)
		ORDER BY sim DESC
		LIMIT $2
	`, query, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var benefits []domain.Benefit
	for rows.Next() {
		var b domain.Benefit
		var kind string
		var ttlSeconds int
		var sim float64
		if err := rows.Scan(
			&b.ID, &b.MerchantID, &b.Title, &kind,
			&b.DiscountPercent, &b.DiscountAmount, &b.GiftDescription,
			&b.Location.Lat, &b.Location.Lon,
			&b.RegionID, &ttlSeconds,
			&b.ValidFrom, &b.ValidUntil, &b.Active, &b.Metadata, &b.CreatedAt,
			&sim,
		); err != nil {
			return nil, err
		}
		b.Kind = domain.BenefitKind(kind)
		b.CouponTTL = secondsToDuration(ttlSeconds)
		benefits = append(benefits, b)
	}
	return benefits, rows.Err()
}

func secondsToDuration(s int) time.Duration {
	return time.Duration(s) * time.Second
}

func collectBenefits(rows pgx.Rows) ([]domain.Benefit, error) {
	var benefits []domain.Benefit
	for rows.Next() {
		var b domain.Benefit
		var kind string
		var ttlSeconds int
		if err := rows.Scan(
			&b.ID, &b.MerchantID, &b.Title, &kind,
			&b.DiscountPercent, &b.DiscountAmount, &b.GiftDescription,
			&b.Location.Lat, &b.Location.Lon,
			&b.RegionID, &ttlSeconds,
			&b.ValidFrom, &b.ValidUntil, &b.Active, &b.Metadata, &b.CreatedAt,
		); err != nil {
			return nil, err
		}
		b.Kind = domain.BenefitKind(kind)
		b.CouponTTL = secondsToDuration(ttlSeconds)
		benefits = append(benefits, b)
	}
	return benefits, rows.Err()
}
