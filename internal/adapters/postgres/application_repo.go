package postgres

import (
	"context"
	"time"

	"github.com/jiljuapp/jilju/internal/core/domain"
)

// ApplicationRepo implements ports.ApplicationRepository with pgx.
type ApplicationRepo struct {
	db *DB
}

// NewApplicationRepo creates a new ApplicationRepo.
func NewApplicationRepo(db *DB) *ApplicationRepo {
	return &ApplicationRepo{db: db}
}

// Create inserts a new application and fills in its generated UUID.
func (r *ApplicationRepo) Create(ctx context.Context, app *domain.MerchantApplication) error {
	return r.db.Pool.QueryRow(ctx, `
		INSERT INTO merchant_applications
			(business_name, owner_name, phone, category, location, address, status, submitted_at)
		VALUES ($1, $2, $3, $4, ST_SetSRID(ST_MakePoint($5, $6), 4326)::geography, $7, $8, $9)
		RETURNING id
	`, app.BusinessName, app.OwnerName, app.Phone, app.Category,
		app.Location.Lon, app.Location.Lat, app.Address,
		string(app.Status), app.SubmittedAt).Scan(&app.ID)
}

const applicationColumns = `
	id, business_name, owner_name, phone, COALESCE(category, ''),
	ST_Y(location::geometry) as lat,
	ST_X(location::geometry) as lon,
	COALESCE(address, ''), status, COALESCE(review_note, ''), submitted_at, reviewed_at
`

// GetByID returns an application by UUID.
func (r *ApplicationRepo) GetByID(ctx context.Context, id string) (*domain.MerchantApplication, error) {
	var app domain.MerchantApplication
	var status string
	err := r.db.Pool.QueryRow(ctx,
		`SELECT `+applicationColumns+` FROM merchant_applications WHERE id = $1`, id,
	).Scan(
		&app.ID, &app.BusinessName, &app.OwnerName, &app.Phone, &app.Category,
		&app.Location.Lat, &app.Location.Lon,
		&app.Address, &status, &app.ReviewNote, &app.SubmittedAt, &app.ReviewedAt,
	)
	if err != nil {
		return nil, err
	}
	app.Status = domain.ApplicationStatus(status)
	return &app, nil
}

// ListByStatus returns one review-board column, oldest submission first.
func (r *ApplicationRepo) ListByStatus(ctx context.Context, status domain.ApplicationStatus, limit int) ([]domain.MerchantApplication, error) {
	rows, err := r.db.Pool.Query(ctx, `
		SELECT `+applicationColumns+`
		FROM merchant_applications
		WHERE status = $1
		ORDER BY submitted_at
		LIMIT $2
	`, string(status), limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var apps []domain.MerchantApplication
	for rows.Next() {
		var app domain.MerchantApplication
		var st string
		if err := rows.Scan(
			&app.ID, &app.BusinessName, &app.OwnerName, &app.Phone, &app.Category,
			&app.Location.Lat, &app.Location.Lon,
			&app.Address, &st, &app.ReviewNote, &app.SubmittedAt, &app.ReviewedAt,
		); err != nil {
			return nil, err
		}
		app.Status = domain.ApplicationStatus(st)
		apps = append(apps, app)
	}
	return apps, rows.Err()
}

// UpdateStatus moves an application to a new review state.
func (r *ApplicationRepo) UpdateStatus(ctx context.Context, id string, status domain.ApplicationStatus, note string, at time.Time) error {
	_, err := r.db.Pool.Exec(ctx, `
		UPDATE merchant_applications
		SET status = $2, review_note = $3, reviewed_at = $4
		WHERE id = $1
	`, id, string(status), note, at)
	return err
}
