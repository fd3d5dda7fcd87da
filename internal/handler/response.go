package handler

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	apperrors "github.com/openclaw/poker-server-go/internal/errors"
	"github.com/openclaw/poker-server-go/internal/httputil"
	"github.com/openclaw/poker-server-go/internal/model"
	"github.com/openclaw/poker-server-go/internal/util"
)

func writeJSON(w http.ResponseWriter, status int, data any) {
	httputil.WriteJSON(w, status, data)
}

func writeError(w http.ResponseWriter, err error) {
	httputil.WriteError(w, err)
}

func decodeJSON(r *http.Request, dst any) error {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		return apperrors.ValidationError("Invalid request body")
	}
	return nil
}

func itemKeyParam(r *http.Request) (string, error) {
	itemKey := chi.URLParam(r, "itemKey")
	if itemKey == "" {
		return "", apperrors.MissingRequired("itemKey")
	}
	if !util.IsValidItemKey(itemKey) {
		return "", apperrors.InvalidInput("itemKey", "unsupported characters")
	}
	return itemKey, nil
}

type sessionView struct {
	ID           string              `json:"id"`
	ItemKey      string              `json:"itemKey"`
	Author       model.Identity      `json:"author"`
	Created      time.Time           `json:"created"`
	Start        time.Time           `json:"start"`
	End          time.Time           `json:"end"`
	Status       model.SessionStatus `json:"status"`
	IsCreator    bool                `json:"isCreator"`
	IsEnded      bool                `json:"isEnded"`
	AllowedVotes []string            `json:"allowedVotes"`
	MyVote       string              `json:"myVote,omitempty"`
	MyComment    string              `json:"myComment,omitempty"`
}

func newSessionView(session *model.Session, viewer model.Identity, now time.Time, allowedVotes []string, prior *model.Vote) sessionView {
	status := session.StatusAt(now)
	view := sessionView{
		ID:           session.ID,
		ItemKey:      session.ItemKey,
		Author:       session.Author,
		Created:      session.Created,
		Start:        session.Start,
		End:          session.End,
		Status:       status,
		IsCreator:    session.IsAuthor(viewer),
		IsEnded:      session.EndReached(now),
		AllowedVotes: allowedVotes,
	}
	if view.AllowedVotes == nil {
		view.AllowedVotes = []string{}
	}
	if prior != nil {
		view.MyVote = prior.Value
		view.MyComment = prior.CommentText()
	}
	return view
}

type voteView struct {
	Voter     model.Identity `json:"voter"`
	Value     string         `json:"value"`
	Comment   string         `json:"comment,omitempty"`
	UpdatedAt time.Time      `json:"updatedAt"`
}

func newVoteView(vote model.Vote) voteView {
	return voteView{
		Voter:     vote.Voter,
		Value:     vote.Value,
		Comment:   vote.CommentText(),
		UpdatedAt: vote.UpdatedAt,
	}
}
