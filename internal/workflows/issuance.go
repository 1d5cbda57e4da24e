package workflows

import (
	"time"

	"go.temporal.io/sdk/temporal"
	"go.temporal.io/sdk/workflow"
)

// IssuanceTaskQueue is the Temporal task queue for coupon issuance.
const IssuanceTaskQueue = "coupon-issuance-queue"

// IssuanceInput is the input for the coupon issuance workflow.
type IssuanceInput struct {
	UserID    string
	BenefitID string
}

// IssuanceWorkflow orchestrates issuing a coupon and notifying the user. If
// the notification fails, the coupon is revoked (saga compensation), so a
// user never holds a coupon they were not told about.
func IssuanceWorkflow(ctx workflow.Context, input IssuanceInput) error {
	logger := workflow.GetLogger(ctx)
	logger.Info("Starting coupon issuance workflow", "benefitID", input.BenefitID)

	actOpts := workflow.ActivityOptions{
		StartToCloseTimeout: 30 * time.Second,
		RetryPolicy: &temporal.RetryPolicy{
			MaximumAttempts: 3,
		},
	}
	ctx = workflow.WithActivityOptions(ctx, actOpts)

	// Step 1: Issue the coupon
	var issued IssuedCoupon
	err := workflow.ExecuteActivity(ctx, "IssueCoupon", input.UserID, input.BenefitID).Get(ctx, &issued)
	if err != nil {
		return err
	}

	// Step 2: Notify the user
	err = workflow.ExecuteActivity(ctx, "SendCouponNotification", input.UserID, issued).Get(ctx, nil)
	if err != nil {
		logger.Warn("push notification failed, revoking coupon", "error", err)
		// Compensate: revoke the unannounced coupon
		_ = workflow.ExecuteActivity(ctx, "RevokeCoupon", issued.Token).Get(ctx, nil)
		return err
	}

	logger.Info("Coupon issued", "token", issued.Token)
	return nil
}
