package workflows

import (
	"time"

	"go.temporal.io/sdk/temporal"
	"go.temporal.io/sdk/workflow"
)

// RefreshInput is the input for the neighborhood refresh workflow.
type RefreshInput struct {
	PageSize int
}

// RefreshResult summarizes a completed refresh sweep.
type RefreshResult struct {
	Scanned int
	Updated int
	Failed  int
}

// NeighborhoodRefreshWorkflow walks every stored spot and re-resolves its
// neighborhood set against the provider. Spots submitted before provider
// coverage existed for their area pick up neighborhoods on the next sweep.
// Individual spot failures are counted, not fatal.
func NeighborhoodRefreshWorkflow(ctx workflow.Context, input RefreshInput) (RefreshResult, error) {
	logger := workflow.GetLogger(ctx)

	pageSize := input.PageSize
	if pageSize <= 0 {
		pageSize = 100
	}
	logger.Info("Starting neighborhood refresh sweep", "pageSize", pageSize)

	actOpts := workflow.ActivityOptions{
		StartToCloseTimeout: 2 * time.Minute,
		RetryPolicy: &temporal.RetryPolicy{
			MaximumAttempts: 3,
		},
	}
	ctx = workflow.WithActivityOptions(ctx, actOpts)

	var result RefreshResult
	offset := 0
	for {
		var ids []string
		err := workflow.ExecuteActivity(ctx, "ListSpotIDs", offset, pageSize).Get(ctx, &ids)
		if err != nil {
			return result, err
		}
		if len(ids) == 0 {
			break
		}

		for _, id := range ids {
			var updated bool
			if err := workflow.ExecuteActivity(ctx, "RefreshSpotNeighborhoods", id).Get(ctx, &updated); err != nil {
				logger.Warn("spot refresh failed", "spot", id, "error", err)
				result.Failed++
				continue
			}
			if updated {
				result.Updated++
			}
		}
		result.Scanned += len(ids)
		offset += len(ids)
	}

	logger.Info("Neighborhood refresh sweep finished",
		"scanned", result.Scanned, "updated", result.Updated, "failed", result.Failed)
	return result, nil
}
