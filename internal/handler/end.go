package handler

import (
	"net/http"

	"github.com/openclaw/poker-server-go/internal/middleware"
)

type EndSessionHandler struct {
	svc Services
}

func NewEndSessionHandler(svc Services) *EndSessionHandler {
	return &EndSessionHandler{svc: svc}
}

// POST /v1/items/{itemKey}/poker/end
func (h *EndSessionHandler) End(w http.ResponseWriter, r *http.Request) {
	itemKey, err := itemKeyParam(r)
	if err != nil {
		writeError(w, err)
		return
	}

	ctx := r.Context()
	identity := middleware.GetIdentity(ctx)
	now := h.svc.now()

	session, err := h.svc.Sessions.MustGet(ctx, itemKey)
	if err != nil {
		writeError(w, err)
		return
	}

	ended, err := h.svc.Sessions.EndNow(ctx, *session, identity, now)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, newSessionView(ended, identity, now, h.svc.AllowedVotes, nil))
}
