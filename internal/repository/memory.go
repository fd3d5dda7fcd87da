package repository

import (
	"context"
	"sync"
	"time"

	"github.com/openclaw/poker-server-go/internal/model"
)

// MemoryStore keeps sessions and votes in process. It satisfies both
// SessionRepository and VoteRepository and is used by STORE_DRIVER=memory
// and by tests.
type MemoryStore struct {
	mu       sync.RWMutex
	sessions map[string]model.Session // item key -> session
	votes    map[string][]model.Vote  // session id -> votes in first-cast order
	seq      int64
}

var (
	_ SessionRepository = (*MemoryStore)(nil)
	_ VoteRepository    = (*MemoryStore)(nil)
)

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		sessions: make(map[string]model.Session),
		votes:    make(map[string][]model.Vote),
	}
}

func (s *MemoryStore) FindByItemKey(_ context.Context, itemKey string) (*model.Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	session, ok := s.sessions[itemKey]
	if !ok {
		return nil, nil
	}
	return &session, nil
}

func (s *MemoryStore) InsertIfAbsent(_ context.Context, session model.Session) (*model.Session, bool, error) {
	if !session.ValidWindow() {
		return nil, false, ErrInvalidWindow
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if existing, ok := s.sessions[session.ItemKey]; ok {
		return &existing, false, nil
	}
	s.sessions[session.ItemKey] = session
	return &session, true, nil
}

func (s *MemoryStore) UpdateWindow(_ context.Context, session model.Session, expectedEnd time.Time) (*model.Session, error) {
	if !session.ValidWindow() {
		return nil, ErrInvalidWindow
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	stored, ok := s.sessions[session.ItemKey]
	if !ok || stored.ID != session.ID || !stored.End.Equal(expectedEnd) {
		return nil, nil
	}
	stored.Start = session.Start
	stored.End = session.End
	s.sessions[session.ItemKey] = stored
	return &stored, nil
}

func (s *MemoryStore) DeleteEndedBefore(_ context.Context, cutoff time.Time) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var deleted int64
	for key, session := range s.sessions {
		if session.End.Before(cutoff) {
			delete(s.sessions, key)
			delete(s.votes, session.ID)
			deleted++
		}
	}
	return deleted, nil
}

func (s *MemoryStore) Upsert(_ context.Context, params model.UpsertVoteParams) (*model.Vote, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	votes := s.votes[params.SessionID]
	for i := range votes {
		if votes[i].Voter == params.Voter {
			votes[i].Value = params.Value
			votes[i].Comment = copyString(params.Comment)
			votes[i].UpdatedAt = params.Now
			vote := votes[i]
			return &vote, nil
		}
	}

	s.seq++
	vote := model.Vote{
		ID:        params.ID,
		SessionID: params.SessionID,
		Voter:     params.Voter,
		Value:     params.Value,
		Comment:   copyString(params.Comment),
		Seq:       s.seq,
		CreatedAt: params.Now,
		UpdatedAt: params.Now,
	}
	s.votes[params.SessionID] = append(votes, vote)
	return &vote, nil
}

func (s *MemoryStore) ListBySession(_ context.Context, sessionID string) ([]model.Vote, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	votes := make([]model.Vote, len(s.votes[sessionID]))
	copy(votes, s.votes[sessionID])
	return votes, nil
}

func (s *MemoryStore) FindBySessionAndVoter(_ context.Context, sessionID string, voter model.Identity) (*model.Vote, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, vote := range s.votes[sessionID] {
		if vote.Voter == voter {
			return &vote, nil
		}
	}
	return nil, nil
}

func copyString(s *string) *string {
	if s == nil {
		return nil
	}
	v := *s
	return &v
}
