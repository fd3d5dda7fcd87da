package handler

import (
	"net/http"

	"github.com/openclaw/poker-server-go/internal/middleware"
)

type SessionHandler struct {
	svc Services
}

func NewSessionHandler(svc Services) *SessionHandler {
	return &SessionHandler{svc: svc}
}

// POST /v1/items/{itemKey}/poker/session
// Instant mode: reuses the live session, creates one, or restarts an ended one.
func (h *SessionHandler) Open(w http.ResponseWriter, r *http.Request) {
	itemKey, err := itemKeyParam(r)
	if err != nil {
		writeError(w, err)
		return
	}

	ctx := r.Context()
	identity := middleware.GetIdentity(ctx)
	now := h.svc.now()

	existing, err := h.svc.Sessions.Get(ctx, itemKey)
	if err != nil {
		writeError(w, err)
		return
	}
	if existing == nil || !existing.IsAuthor(identity) {
		if err := requireEditor(r, h.svc.Permissions, identity, itemKey, "open_session"); err != nil {
			writeError(w, err)
			return
		}
	}

	session, err := h.svc.Sessions.GetOrCreate(ctx, itemKey, identity, now)
	if err != nil {
		writeError(w, err)
		return
	}

	prior, err := h.svc.Votes.VoteOf(ctx, *session, identity)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, newSessionView(session, identity, now, h.svc.AllowedVotes, prior))
}

// GET /v1/items/{itemKey}/poker/session
func (h *SessionHandler) Get(w http.ResponseWriter, r *http.Request) {
	itemKey, err := itemKeyParam(r)
	if err != nil {
		writeError(w, err)
		return
	}

	ctx := r.Context()
	identity := middleware.GetIdentity(ctx)

	session, err := h.svc.Sessions.MustGet(ctx, itemKey)
	if err != nil {
		writeError(w, err)
		return
	}

	prior, err := h.svc.Votes.VoteOf(ctx, *session, identity)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, newSessionView(session, identity, h.svc.now(), h.svc.AllowedVotes, prior))
}
