// Package tracker holds the issue tracker collaborators used by the poker
// services: the edit capability check and the estimate field write.
package tracker

import (
	"context"

	"github.com/openclaw/poker-server-go/internal/model"
)

type PermissionChecker interface {
	CanEditItem(ctx context.Context, identity model.Identity, itemKey string) (bool, error)
}

type EstimateField interface {
	SetEstimate(ctx context.Context, itemKey string, value float64) error
}
