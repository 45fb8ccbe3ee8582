package workflows

import (
	"context"
	"fmt"

	"github.com/jcroft/spots/internal/core/ports"
	"github.com/jcroft/spots/internal/core/usecases"
)

// RefreshActivities holds the activity implementations for the neighborhood
// refresh workflow.
type RefreshActivities struct {
	Spots       ports.SpotRepository
	SpotService *usecases.SpotService
}

// ListSpotIDs returns one page of spot IDs, oldest first. Stable ordering
// keeps the paging loop from skipping rows while spots are created mid-sweep.
func (a *RefreshActivities) ListSpotIDs(ctx context.Context, offset, limit int) ([]string, error) {
	spots, err := a.Spots.ListAll(ctx, offset, limit)
	if err != nil {
		return nil, fmt.Errorf("list spots at offset %d: %w", offset, err)
	}
	ids := make([]string, len(spots))
	for i, s := range spots {
		ids[i] = s.ID
	}
	return ids, nil
}

// RefreshSpotNeighborhoods re-resolves one spot's neighborhood set. Returns
// true when the spot ended up with at least one neighborhood attached.
func (a *RefreshActivities) RefreshSpotNeighborhoods(ctx context.Context, spotID string) (bool, error) {
	spot, err := a.SpotService.RefreshNeighborhoods(ctx, spotID)
	if err != nil {
		return false, fmt.Errorf("refresh spot %s: %w", spotID, err)
	}
	return spot != nil && len(spot.Neighborhoods) > 0, nil
}
