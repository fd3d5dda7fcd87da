package service

import (
	"context"
	"math"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/openclaw/poker-server-go/internal/audit"
	apperrors "github.com/openclaw/poker-server-go/internal/errors"
	"github.com/openclaw/poker-server-go/internal/model"
	"github.com/openclaw/poker-server-go/internal/tracker"
)

var estimatePattern = regexp.MustCompile(`^[+-]?([0-9]+(\.[0-9]*)?|\.[0-9]+)$`)

// EstimateService writes the agreed estimate of an ended session back onto
// the work item.
type EstimateService struct {
	field tracker.EstimateField
}

func NewEstimateService(field tracker.EstimateField) *EstimateService {
	return &EstimateService{field: field}
}

// ApplyEstimate validates everything before touching the estimate field,
// which is the only external side effect.
func (s *EstimateService) ApplyEstimate(ctx context.Context, session model.Session, requester model.Identity, finalValue string, now time.Time) (float64, error) {
	if !session.IsAuthor(requester) {
		audit.Log(ctx, audit.Event{
			Type:      audit.EventPermissionDenied,
			Identity:  requester.String(),
			ItemKey:   session.ItemKey,
			SessionID: session.ID,
			Details:   map[string]interface{}{"action": "apply_estimate"},
		})
		return 0, apperrors.PermissionDenied("Only the session author can apply the estimate")
	}
	if session.StatusAt(now) != model.SessionStatusEnded {
		return 0, apperrors.SessionStillOpen()
	}

	value, err := ParseEstimate(finalValue)
	if err != nil {
		return 0, err
	}

	if err := s.field.SetEstimate(ctx, session.ItemKey, value); err != nil {
		log.Error().
			Err(err).
			Str("itemKey", session.ItemKey).
			Float64("estimate", value).
			Msg("failed to write estimate")
		return 0, apperrors.External("tracker", err)
	}

	log.Info().
		Str("sessionId", session.ID).
		Str("itemKey", session.ItemKey).
		Float64("estimate", value).
		Msg("estimate applied")
	audit.Log(ctx, audit.Event{
		Type:      audit.EventEstimateApply,
		Identity:  requester.String(),
		ItemKey:   session.ItemKey,
		SessionID: session.ID,
		Details:   map[string]interface{}{"estimate": value},
	})

	return value, nil
}

// ParseEstimate accepts plain decimal numbers with an optional sign.
func ParseEstimate(finalValue string) (float64, error) {
	trimmed := strings.TrimSpace(finalValue)
	if !estimatePattern.MatchString(trimmed) {
		return 0, apperrors.InvalidEstimate(finalValue)
	}
	value, err := strconv.ParseFloat(trimmed, 64)
	if err != nil || math.IsInf(value, 0) || math.IsNaN(value) {
		return 0, apperrors.InvalidEstimate(finalValue)
	}
	return value, nil
}
