package handler

import (
	"net/http"

	"github.com/rs/zerolog/log"

	apperrors "github.com/openclaw/poker-server-go/internal/errors"
	"github.com/openclaw/poker-server-go/internal/middleware"
	"github.com/openclaw/poker-server-go/internal/service"
	"github.com/openclaw/poker-server-go/internal/util"
)

type VoteHandler struct {
	svc Services
}

func NewVoteHandler(svc Services) *VoteHandler {
	return &VoteHandler{svc: svc}
}

type castVoteRequest struct {
	Value   string `json:"value"`
	Comment string `json:"comment"`
}

// POST /v1/items/{itemKey}/poker/votes
func (h *VoteHandler) Cast(w http.ResponseWriter, r *http.Request) {
	itemKey, err := itemKeyParam(r)
	if err != nil {
		writeError(w, err)
		return
	}

	var req castVoteRequest
	if err := decodeJSON(r, &req); err != nil {
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

	if err := h.svc.Sessions.CheckVotingWindow(*session, now); err != nil {
		writeError(w, err)
		return
	}

	if err := requireEditor(r, h.svc.Permissions, identity, itemKey, "cast_vote"); err != nil {
		writeError(w, err)
		return
	}

	if len(h.svc.AllowedVotes) > 0 && !util.IsValidEnum(req.Value, h.svc.AllowedVotes) {
		writeError(w, apperrors.InvalidInput("value", "not an allowed vote").
			WithDetails(map[string]any{"allowedVotes": h.svc.AllowedVotes}))
		return
	}

	vote, err := h.svc.Votes.CastVote(ctx, *session, identity, req.Value, req.Comment, now)
	if err != nil {
		writeError(w, err)
		return
	}

	log.Info().
		Str("itemKey", itemKey).
		Str("voter", identity.String()).
		Msg("vote saved")

	writeJSON(w, http.StatusOK, map[string]any{
		"vote":    newVoteView(*vote),
		"message": "Your vote has been successfully saved.",
	})
}

// GET /v1/items/{itemKey}/poker/votes
// Votes stay hidden until the scheduled end is reached.
func (h *VoteHandler) List(w http.ResponseWriter, r *http.Request) {
	itemKey, err := itemKeyParam(r)
	if err != nil {
		writeError(w, err)
		return
	}

	ctx := r.Context()
	session, err := h.svc.Sessions.MustGet(ctx, itemKey)
	if err != nil {
		writeError(w, err)
		return
	}

	if !session.EndReached(h.svc.now()) {
		writeError(w, apperrors.SessionStillOpen())
		return
	}

	votes, err := h.svc.Votes.VotesFor(ctx, *session)
	if err != nil {
		writeError(w, err)
		return
	}

	views := make([]voteView, 0, len(votes))
	for _, vote := range votes {
		views = append(views, newVoteView(vote))
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"votes": views,
		"total": len(views),
		"stats": service.ComputeStats(votes),
	})
}

// GET /v1/items/{itemKey}/poker/voters
func (h *VoteHandler) Voters(w http.ResponseWriter, r *http.Request) {
	itemKey, err := itemKeyParam(r)
	if err != nil {
		writeError(w, err)
		return
	}

	ctx := r.Context()
	session, err := h.svc.Sessions.MustGet(ctx, itemKey)
	if err != nil {
		writeError(w, err)
		return
	}

	voters, err := h.svc.Votes.VotersFor(ctx, *session)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"voters": voters,
		"total":  len(voters),
	})
}
