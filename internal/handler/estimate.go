package handler

import (
	"net/http"

	"github.com/openclaw/poker-server-go/internal/middleware"
)

type EstimateHandler struct {
	svc Services
}

func NewEstimateHandler(svc Services) *EstimateHandler {
	return &EstimateHandler{svc: svc}
}

type applyEstimateRequest struct {
	FinalValue string `json:"finalValue"`
}

// POST /v1/items/{itemKey}/poker/estimate
func (h *EstimateHandler) Apply(w http.ResponseWriter, r *http.Request) {
	itemKey, err := itemKeyParam(r)
	if err != nil {
		writeError(w, err)
		return
	}

	var req applyEstimateRequest
	if err := decodeJSON(r, &req); err != nil {
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

	value, err := h.svc.Estimates.ApplyEstimate(ctx, *session, identity, req.FinalValue, h.svc.now())
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"itemKey":  itemKey,
		"estimate": value,
	})
}
