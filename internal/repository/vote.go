package repository

import (
	"context"

	"github.com/openclaw/poker-server-go/internal/database"
	"github.com/openclaw/poker-server-go/internal/model"
)

type VoteRepository interface {
	// Upsert records the vote of params.Voter in params.SessionID, replacing
	// value and comment of an earlier vote while keeping its ID and order.
	Upsert(ctx context.Context, params model.UpsertVoteParams) (*model.Vote, error)
	ListBySession(ctx context.Context, sessionID string) ([]model.Vote, error)
	FindBySessionAndVoter(ctx context.Context, sessionID string, voter model.Identity) (*model.Vote, error)
}

type voteRepo struct {
	db database.DBTX
}

func NewVoteRepository(db database.DBTX) VoteRepository {
	return &voteRepo{db: db}
}

func (r *voteRepo) Upsert(ctx context.Context, params model.UpsertVoteParams) (*model.Vote, error) {
	var vote model.Vote
	err := r.db.GetContext(ctx, &vote, `
		INSERT INTO poker_votes (id, session_id, voter, value, comment, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $6)
		ON CONFLICT (session_id, voter) DO UPDATE SET
			value = EXCLUDED.value,
			comment = EXCLUDED.comment,
			updated_at = EXCLUDED.updated_at
		RETURNING *
	`, params.ID, params.SessionID, params.Voter, params.Value, params.Comment, params.Now)
	if err != nil {
		return nil, err
	}
	return &vote, nil
}

func (r *voteRepo) ListBySession(ctx context.Context, sessionID string) ([]model.Vote, error) {
	votes := []model.Vote{}
	err := r.db.SelectContext(ctx, &votes, `
		SELECT * FROM poker_votes
		WHERE session_id = $1
		ORDER BY seq ASC
	`, sessionID)
	if err != nil {
		return nil, err
	}
	return votes, nil
}

func (r *voteRepo) FindBySessionAndVoter(ctx context.Context, sessionID string, voter model.Identity) (*model.Vote, error) {
	var vote model.Vote
	err := r.db.GetContext(ctx, &vote, `
		SELECT * FROM poker_votes WHERE session_id = $1 AND voter = $2
	`, sessionID, voter)
	return HandleNotFound(&vote, err)
}
