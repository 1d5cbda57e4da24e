package workflows

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/jiljuapp/jilju/internal/core/ports"
	"github.com/jiljuapp/jilju/internal/core/usecases"
)

// IssuedCoupon carries the coupon fields the workflow needs between steps.
type IssuedCoupon struct {
	Token        string
	PIN          string
	BenefitTitle string
	ExpiresAt    time.Time
}

// IssuanceActivities holds the activity implementations for the issuance workflow.
type IssuanceActivities struct {
	CouponService *usecases.CouponService
	Benefits      ports.BenefitRepository
	Notifier      ports.NotificationService
}

// IssueCoupon issues a coupon through the CouponService, which already
// handles token and PIN generation, persistence, and the issued event.
func (a *IssuanceActivities) IssueCoupon(ctx context.Context, userID, benefitID string) (IssuedCoupon, error) {
	coupon, err := a.CouponService.Issue(ctx, userID, benefitID)
	if err != nil {
		return IssuedCoupon{}, fmt.Errorf("issue coupon: %w", err)
	}

	title := benefitID
	if b, err := a.Benefits.GetByID(ctx, benefitID); err == nil {
		title = b.Title
	}

	return IssuedCoupon{
		Token:        coupon.Token,
		PIN:          coupon.PIN,
		BenefitTitle: title,
		ExpiresAt:    coupon.ExpiresAt,
	}, nil
}

// SendCouponNotification pushes the coupon to the user's device.
func (a *IssuanceActivities) SendCouponNotification(ctx context.Context, userID string, issued IssuedCoupon) error {
	if a.Notifier == nil {
		log.Printf("PUSH (no notifier) → user=%s benefit=%s token=%s", userID, issued.BenefitTitle, issued.Token)
		return nil
	}
	title := "쿠폰이 발급되었어요"
	body := fmt.Sprintf("%s 쿠폰이 %s까지 유효해요. 매장에서 바코드를 보여주세요.",
		issued.BenefitTitle, issued.ExpiresAt.In(koreaTZ()).Format("15:04"))
	return a.Notifier.SendPush(ctx, userID, title, body)
}

// RevokeCoupon deletes a coupon (saga compensation / rollback).
func (a *IssuanceActivities) RevokeCoupon(ctx context.Context, token string) error {
	if err := a.CouponService.Revoke(ctx, token); err != nil {
		return fmt.Errorf("revoke coupon %s: %w", token, err)
	}
	log.Printf("Coupon %s revoked (saga compensation)", token)
	return nil
}

func koreaTZ() *time.Location {
	loc, err := time.LoadLocation("Asia/Seoul")
	if err != nil {
		return time.UTC
	}
	return loc
}
