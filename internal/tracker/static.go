package tracker

import (
	"context"
	"sync"

	"github.com/rs/zerolog/log"

	"github.com/openclaw/poker-server-go/internal/model"
)

// StaticTracker stands in for a real tracker. With an empty allow-list every
// identified user may edit every item; estimates are only kept in memory.
type StaticTracker struct {
	editors map[model.Identity]bool

	mu        sync.RWMutex
	estimates map[string]float64
}

var (
	_ PermissionChecker = (*StaticTracker)(nil)
	_ EstimateField     = (*StaticTracker)(nil)
)

func NewStaticTracker(allowedEditors []string) *StaticTracker {
	editors := make(map[model.Identity]bool, len(allowedEditors))
	for _, e := range allowedEditors {
		if e != "" {
			editors[model.Identity(e)] = true
		}
	}
	return &StaticTracker{
		editors:   editors,
		estimates: make(map[string]float64),
	}
}

func (t *StaticTracker) CanEditItem(_ context.Context, identity model.Identity, _ string) (bool, error) {
	if identity.IsAnonymous() {
		return false, nil
	}
	if len(t.editors) == 0 {
		return true, nil
	}
	return t.editors[identity], nil
}

func (t *StaticTracker) SetEstimate(_ context.Context, itemKey string, value float64) error {
	t.mu.Lock()
	t.estimates[itemKey] = value
	t.mu.Unlock()

	log.Info().
		Str("itemKey", itemKey).
		Float64("value", value).
		Msg("estimate recorded (static tracker)")
	return nil
}

func (t *StaticTracker) Estimate(itemKey string) (float64, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	v, ok := t.estimates[itemKey]
	return v, ok
}
