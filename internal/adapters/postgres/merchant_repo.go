package postgres

import (
	"context"

	"github.com/jiljuapp/jilju/internal/core/domain"
)

// MerchantRepo implements ports.MerchantRepository with pgx.
type MerchantRepo struct {
	db *DB
}

// NewMerchantRepo creates a new MerchantRepo.
func NewMerchantRepo(db *DB) *MerchantRepo {
	return &MerchantRepo{db: db}
}

// Upsert inserts or updates a merchant keyed by slug and fills in its UUID.
func (r *MerchantRepo) Upsert(ctx context.Context, m *domain.Merchant) error {
	return r.db.Pool.QueryRow(ctx, `
		INSERT INTO merchants (slug, name, category, location, address, phone, metadata)
		VALUES ($1, $2, $3, ST_SetSRID(ST_MakePoint($4, $5), 4326)::geography, $6, $7, $8)
		ON CONFLICT (slug) DO UPDATE
		SET name = EXCLUDED.name, category = EXCLUDED.category,
		    location = EXCLUDED.location, address = EXCLUDED.address,
		    phone = EXCLUDED.phone, metadata = EXCLUDED.metadata
		RETURNING id
	`, m.Slug, m.Name, m.Category, m.Location.Lon, m.Location.Lat,
		m.Address, m.Phone, m.Metadata).Scan(&m.ID)
}

const merchantColumns = `
	id, slug, name, COALESCE(category, ''),
	ST_Y(location::geometry) as lat,
	ST_X(location::geometry) as lon,
	COALESCE(address, ''), COALESCE(phone, ''), COALESCE(metadata, '{}'), created_at
`

// GetBySlug returns a merchant by slug.
func (r *MerchantRepo) GetBySlug(ctx context.Context, slug string) (*domain.Merchant, error) {
	var m domain.Merchant
	err := r.db.Pool.QueryRow(ctx,
		`SELECT `+merchantColumns+` FROM merchants WHERE slug = $1`, slug,
	).Scan(
		&m.ID, &m.Slug, &m.Name, &m.Category,
		&m.Location.Lat, &m.Location.Lon,
		&m.Address, &m.Phone, &m.Metadata, &m.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &m, nil
}

// GetByID returns a merchant by UUID.
func (r *MerchantRepo) GetByID(ctx context.Context, id string) (*domain.Merchant, error) {
	var m domain.Merchant
	err := r.db.Pool.QueryRow(ctx,
		`SELECT `+merchantColumns+` FROM merchants WHERE id = $1`, id,
	).Scan(
		&m.ID, &m.Slug, &m.Name, &m.Category,
		&m.Location.Lat, &m.Location.Lon,
		&m.Address, &m.Phone, &m.Metadata, &m.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &m, nil
}

// List returns all merchants ordered by name.
func (r *MerchantRepo) List(ctx context.Context) ([]domain.Merchant, error) {
	rows, err := r.db.Pool.Query(ctx,
		`SELECT `+merchantColumns+` FROM merchants ORDER BY name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var merchants []domain.Merchant
	for rows.Next() {
		var m domain.Merchant
		if err := rows.Scan(
			&m.ID, &m.Slug, &m.Name, &m.Category,
			&m.Location.Lat, &m.Location.Lon,
			&m.Address, &m.Phone, &m.Metadata, &m.CreatedAt,
		); err != nil {
			return nil, err
		}
		merchants = append(merchants, m)
	}
	return merchants, rows.Err()
}
