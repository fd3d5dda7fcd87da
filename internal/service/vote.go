package service

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/openclaw/poker-server-go/internal/audit"
	apperrors "github.com/openclaw/poker-server-go/internal/errors"
	"github.com/openclaw/poker-server-go/internal/model"
	"github.com/openclaw/poker-server-go/internal/repository"
)

// VoteService records and aggregates votes. It trusts its callers to have
// checked the voting window and the voter's permission.
type VoteService struct {
	voteRepo repository.VoteRepository
}

func NewVoteService(voteRepo repository.VoteRepository) *VoteService {
	return &VoteService{voteRepo: voteRepo}
}

func (s *VoteService) CastVote(ctx context.Context, session model.Session, voter model.Identity, value, comment string, now time.Time) (*model.Vote, error) {
	if voter.IsAnonymous() {
		return nil, apperrors.ValidationError("Voter is required")
	}
	if value == "" {
		return nil, apperrors.MissingRequired("value")
	}

	var commentPtr *string
	if comment != "" {
		commentPtr = &comment
	}

	vote, err := s.voteRepo.Upsert(ctx, model.UpsertVoteParams{
		ID:        uuid.NewString(),
		SessionID: session.ID,
		Voter:     voter,
		Value:     value,
		Comment:   commentPtr,
		Now:       now,
	})
	if err != nil {
		return nil, apperrors.Database(err)
	}

	log.Debug().
		Str("sessionId", session.ID).
		Str("voter", voter.String()).
		Msg("vote recorded")
	audit.Log(ctx, audit.Event{
		Type:      audit.EventVoteCast,
		Identity:  voter.String(),
		ItemKey:   session.ItemKey,
		SessionID: session.ID,
	})

	return vote, nil
}

// VotesFor lists the votes of session in first-cast order.
func (s *VoteService) VotesFor(ctx context.Context, session model.Session) ([]model.Vote, error) {
	votes, err := s.voteRepo.ListBySession(ctx, session.ID)
	if err != nil {
		return nil, apperrors.Database(err)
	}
	return votes, nil
}

func (s *VoteService) VotersFor(ctx context.Context, session model.Session) ([]model.Identity, error) {
	votes, err := s.VotesFor(ctx, session)
	if err != nil {
		return nil, err
	}

	seen := make(map[model.Identity]struct{}, len(votes))
	voters := make([]model.Identity, 0, len(votes))
	for _, vote := range votes {
		if _, ok := seen[vote.Voter]; ok {
			continue
		}
		seen[vote.Voter] = struct{}{}
		voters = append(voters, vote.Voter)
	}
	return voters, nil
}

// VoteOf returns the vote of voter or nil when they have not voted.
func (s *VoteService) VoteOf(ctx context.Context, session model.Session, voter model.Identity) (*model.Vote, error) {
	if voter.IsAnonymous() {
		return nil, nil
	}
	vote, err := s.voteRepo.FindBySessionAndVoter(ctx, session.ID, voter)
	if err != nil {
		return nil, apperrors.Database(err)
	}
	return vote, nil
}

func (s *VoteService) ValueOf(ctx context.Context, session model.Session, voter model.Identity) (string, error) {
	vote, err := s.VoteOf(ctx, session, voter)
	if err != nil || vote == nil {
		return "", err
	}
	return vote.Value, nil
}

func (s *VoteService) CommentOf(ctx context.Context, session model.Session, voter model.Identity) (string, error) {
	vote, err := s.VoteOf(ctx, session, voter)
	if err != nil || vote == nil {
		return "", err
	}
	return vote.CommentText(), nil
}

func (s *VoteService) StatsFor(ctx context.Context, session model.Session) (*model.Stats, error) {
	votes, err := s.VotesFor(ctx, session)
	if err != nil {
		return nil, err
	}
	return ComputeStats(votes), nil
}

// ComputeStats aggregates the numeric votes. It returns nil when none of the
// votes is numeric.
func ComputeStats(votes []model.Vote) *model.Stats {
	var stats *model.Stats
	var sum float64

	for i := range votes {
		value, ok := votes[i].NumericValue()
		if !ok {
			continue
		}
		if stats == nil {
			stats = &model.Stats{Min: value, Max: value}
		}
		stats.Count++
		sum += value
		if value < stats.Min {
			stats.Min = value
		}
		if value > stats.Max {
			stats.Max = value
		}
	}

	if stats != nil {
		stats.Average = sum / float64(stats.Count)
	}
	return stats
}
