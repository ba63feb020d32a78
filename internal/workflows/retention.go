package workflows

import (
	"time"

	"go.temporal.io/sdk/temporal"
	"go.temporal.io/sdk/workflow"
)

// RetentionInput is the input for the retention workflow.
type RetentionInput struct {
	SessionID string
}

// RetentionWorkflow resolves the user's retention preference and purges
// chat threads older than the resulting window. A "forever" preference
// makes the run a no-op.
func RetentionWorkflow(ctx workflow.Context, input RetentionInput) error {
	logger := workflow.GetLogger(ctx)
	logger.Info("Starting retention workflow", "sessionID", input.SessionID)

	actOpts := workflow.ActivityOptions{
		StartToCloseTimeout: 30 * time.Second,
		RetryPolicy: &temporal.RetryPolicy{
			MaximumAttempts: 3,
		},
	}
	ctx = workflow.WithActivityOptions(ctx, actOpts)

	// Step 1: resolve the retention window from stored settings
	var windowSeconds int64
	err := workflow.ExecuteActivity(ctx, "ResolveRetentionWindow").Get(ctx, &windowSeconds)
	if err != nil {
		return err
	}
	if windowSeconds == 0 {
		logger.Info("Retention set to forever, nothing to purge")
		return nil
	}

	// Step 2: purge threads older than the cutoff
	cutoff := workflow.Now(ctx).Add(-time.Duration(windowSeconds) * time.Second)
	var purged int
	err = workflow.ExecuteActivity(ctx, "PurgeThreads", cutoff).Get(ctx, &purged)
	if err != nil {
		return err
	}

	logger.Info("Retention purge complete", "purged", purged)
	return nil
}
