// Package handler exposes the poker services over HTTP. Each capability
// (open, vote, end, estimate) has its own handler composed from the shared
// services; none of them keeps session state between requests.
package handler

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"

	"github.com/openclaw/poker-server-go/internal/audit"
	apperrors "github.com/openclaw/poker-server-go/internal/errors"
	"github.com/openclaw/poker-server-go/internal/model"
	"github.com/openclaw/poker-server-go/internal/service"
	"github.com/openclaw/poker-server-go/internal/tracker"
)

// Services are shared by all poker handlers.
type Services struct {
	Sessions     *service.SessionService
	Votes        *service.VoteService
	Estimates    *service.EstimateService
	Permissions  tracker.PermissionChecker
	AllowedVotes []string
	Now          func() time.Time
}

func (s Services) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

// PokerRoutes mounts the handlers below /v1/items/{itemKey}/poker. The
// caller installs the identity middleware; voteLimit wraps vote casting.
func PokerRoutes(svc Services, voteLimit func(http.Handler) http.Handler) chi.Router {
	sessionHandler := NewSessionHandler(svc)
	voteHandler := NewVoteHandler(svc)
	endHandler := NewEndSessionHandler(svc)
	estimateHandler := NewEstimateHandler(svc)

	r := chi.NewRouter()

	r.Post("/session", sessionHandler.Open)
	r.Get("/session", sessionHandler.Get)

	if voteLimit != nil {
		r.With(voteLimit).Post("/votes", voteHandler.Cast)
	} else {
		r.Post("/votes", voteHandler.Cast)
	}
	r.Get("/votes", voteHandler.List)
	r.Get("/voters", voteHandler.Voters)

	r.Post("/end", endHandler.End)
	r.Post("/estimate", estimateHandler.Apply)

	return r
}

// requireEditor asks the tracker whether identity may edit itemKey.
func requireEditor(r *http.Request, permissions tracker.PermissionChecker, identity model.Identity, itemKey, action string) error {
	ok, err := permissions.CanEditItem(r.Context(), identity, itemKey)
	if err != nil {
		log.Error().Err(err).Str("itemKey", itemKey).Msg("permission check failed")
		return apperrors.External("tracker", err)
	}
	if !ok {
		audit.LogFromRequest(r, audit.Event{
			Type:     audit.EventPermissionDenied,
			Identity: identity.String(),
			ItemKey:  itemKey,
			Details:  map[string]interface{}{"action": action},
		})
		return apperrors.PermissionDenied("You don't have permission to edit this item")
	}
	return nil
}
