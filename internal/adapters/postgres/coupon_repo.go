package postgres

import (
	"context"
	"time"

	"github.com/jiljuapp/jilju/internal/core/domain"
)

// CouponRepo implements ports.CouponRepository with pgx.
type CouponRepo struct {
	db *DB
}

// NewCouponRepo creates a new CouponRepo.
func NewCouponRepo(db *DB) *CouponRepo {
	return &CouponRepo{db: db}
}

// Create inserts a new coupon and fills in its generated UUID.
func (r *CouponRepo) Create(ctx context.Context, c *domain.Coupon) error {
	return r.db.Pool.QueryRow(ctx, `
		INSERT INTO coupons (token, pin, benefit_id, merchant_id, user_id, issued_at, expires_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id
	`, c.Token, c.PIN, c.BenefitID, c.MerchantID, c.UserID, c.IssuedAt, c.ExpiresAt).Scan(&c.ID)
}

const couponColumns = `
	id, token, pin, benefit_id, merchant_id, user_id, issued_at, expires_at, redeemed_at
`

// GetByToken returns a coupon by its opaque token.
func (r *CouponRepo) GetByToken(ctx context.Context, token string) (*domain.Coupon, error) {
	var c domain.Coupon
	err := r.db.Pool.QueryRow(ctx,
		`SELECT `+couponColumns+` FROM coupons WHERE token = $1`, token,
	).Scan(
		&c.ID, &c.Token, &c.PIN, &c.BenefitID, &c.MerchantID, &c.UserID,
		&c.IssuedAt, &c.ExpiresAt, &c.RedeemedAt,
	)
	if err != nil {
		return nil, err
	}
	return &c, nil
}

// GetByPIN returns an unredeemed coupon by benefit and PIN. PINs are only
// unique within a benefit, and a redeemed one must not be redeemable again
// through a different coupon row.
func (r *CouponRepo) GetByPIN(ctx context.Context, benefitID, pin string) (*domain.Coupon, error) {
	var c domain.Coupon
	err := r.db.Pool.QueryRow(ctx, `
		SELECT `+couponColumns+`
		FROM coupons
		WHERE benefit_id = $1 AND pin = $2
		ORDER BY redeemed_at NULLS FIRST, issued_at DESC
		LIMIT 1
	`, benefitID, pin).Scan(
		&c.ID, &c.Token, &c.PIN, &c.BenefitID, &c.MerchantID, &c.UserID,
		&c.IssuedAt, &c.ExpiresAt, &c.RedeemedAt,
	)
	if err != nil {
		return nil, err
	}
	return &c, nil
}

// ListByUser returns a user's coupons, newest first.
func (r *CouponRepo) ListByUser(ctx context.Context, userID string, limit int) ([]domain.Coupon, error) {
	rows, err := r.db.Pool.Query(ctx, `
		SELECT `+couponColumns+`
		FROM coupons
		WHERE user_id = $1
		ORDER BY issued_at DESC
		LIMIT $2
	`, userID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var coupons []domain.Coupon
	for rows.Next() {
		var c domain.Coupon
		if err := rows.Scan(
			&c.ID, &c.Token, &c.PIN, &c.BenefitID, &c.MerchantID, &c.UserID,
			&c.IssuedAt, &c.ExpiresAt, &c.RedeemedAt,
		); err != nil {
			return nil, err
		}
		coupons = append(coupons, c)
	}
	return coupons, rows.Err()
}

// MarkRedeemed stamps the redemption time. The WHERE clause keeps the write
// race-free: a coupon already redeemed stays untouched.
func (r *CouponRepo) MarkRedeemed(ctx context.Context, token string, at time.Time) error {
	tag, err := r.db.Pool.Exec(ctx, `
		UPDATE coupons SET redeemed_at = $2
		WHERE token = $1 AND redeemed_at IS NULL
	`, token, at)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrCouponRedeemed
	}
	return nil
}

// Delete removes a coupon by token. Used as saga compensation.
func (r *CouponRepo) Delete(ctx context.Context, token string) error {
	_, err := r.db.Pool.Exec(ctx, `DELETE FROM coupons WHERE token = $1`, token)
	return err
}

// CountByMerchant returns issued and redeemed counts in the window.
func (r *CouponRepo) CountByMerchant(ctx context.Context, merchantID string, from, to time.Time) (int, int, error) {
	var issued, redeemed int
	err := r.db.Pool.QueryRow(ctx, `
		SELECT COUNT(*), COUNT(redeemed_at)
		FROM coupons
		WHERE merchant_id = $1 AND issued_at BETWEEN $2 AND $3
	`, merchantID, from, to).Scan(&issued, &redeemed)
	if err != nil {
		return 0, 0, err
	}
	return issued, redeemed, nil
}
