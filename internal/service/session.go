package service

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/openclaw/poker-server-go/internal/audit"
	apperrors "github.com/openclaw/poker-server-go/internal/errors"
	"github.com/openclaw/poker-server-go/internal/model"
	"github.com/openclaw/poker-server-go/internal/repository"
)

const (
	DefaultSessionWindow = time.Hour
	maxWindowAttempts    = 3
)

// ItemLocker serializes check-then-act sequences on a single item across
// server instances. Implementations return a release func.
type ItemLocker interface {
	Lock(ctx context.Context, itemKey string) (func(), error)
}

type SessionService struct {
	sessionRepo repository.SessionRepository
	locker      ItemLocker
	window      time.Duration
}

// NewSessionService creates the session manager. locker may be nil, in which
// case the conditional store operations alone guard against races.
func NewSessionService(sessionRepo repository.SessionRepository, locker ItemLocker, window time.Duration) *SessionService {
	if window <= 0 {
		window = DefaultSessionWindow
	}
	return &SessionService{
		sessionRepo: sessionRepo,
		locker:      locker,
		window:      window,
	}
}

func (s *SessionService) Window() time.Duration {
	return s.window
}

// GetOrCreate returns the live session for itemKey, creating one when none
// exists and restarting the window when the stored one has ended.
func (s *SessionService) GetOrCreate(ctx context.Context, itemKey string, requester model.Identity, now time.Time) (*model.Session, error) {
	if itemKey == "" {
		return nil, apperrors.MissingRequired("itemKey")
	}
	if requester.IsAnonymous() {
		return nil, apperrors.Unauthorized("Identity required")
	}

	unlock, err := s.lock(ctx, itemKey)
	if err != nil {
		return nil, err
	}
	defer unlock()

	for attempt := 0; attempt < maxWindowAttempts; attempt++ {
		session, err := s.sessionRepo.FindByItemKey(ctx, itemKey)
		if err != nil {
			return nil, apperrors.Database(err)
		}

		if session == nil {
			candidate := model.Session{
				ID:      uuid.NewString(),
				ItemKey: itemKey,
				Author:  requester,
				Created: now,
				Start:   now,
				End:     now.Add(s.window),
			}
			stored, created, err := s.sessionRepo.InsertIfAbsent(ctx, candidate)
			if err != nil {
				return nil, apperrors.Database(err)
			}
			if stored == nil {
				// Winner was removed before we could read it back.
				continue
			}
			if created {
				log.Info().
					Str("sessionId", stored.ID).
					Str("itemKey", itemKey).
					Str("author", requester.String()).
					Time("end", stored.End).
					Msg("poker session created")
				audit.Log(ctx, audit.Event{
					Type:      audit.EventSessionCreate,
					Identity:  requester.String(),
					ItemKey:   itemKey,
					SessionID: stored.ID,
				})
				return stored, nil
			}
			session = stored
		}

		if session.StatusAt(now) != model.SessionStatusEnded {
			return session, nil
		}

		extended := *session
		extended.Start = now
		extended.End = now.Add(s.window)
		updated, err := s.sessionRepo.UpdateWindow(ctx, extended, session.End)
		if err != nil {
			return nil, apperrors.Database(err)
		}
		if updated == nil {
			log.Debug().
				Str("itemKey", itemKey).
				Int("attempt", attempt+1).
				Msg("session changed during extension, retrying")
			continue
		}

		log.Info().
			Str("sessionId", updated.ID).
			Str("itemKey", itemKey).
			Time("previousEnd", session.End).
			Time("end", updated.End).
			Msg("poker session extended")
		audit.Log(ctx, audit.Event{
			Type:      audit.EventSessionExtend,
			Identity:  requester.String(),
			ItemKey:   itemKey,
			SessionID: updated.ID,
			Details:   map[string]interface{}{"previous_end": session.End},
		})
		return updated, nil
	}

	return nil, apperrors.Conflict("Session is being modified concurrently, try again")
}

// Get returns the session for itemKey or nil when there is none.
func (s *SessionService) Get(ctx context.Context, itemKey string) (*model.Session, error) {
	session, err := s.sessionRepo.FindByItemKey(ctx, itemKey)
	if err != nil {
		return nil, apperrors.Database(err)
	}
	return session, nil
}

func (s *SessionService) MustGet(ctx context.Context, itemKey string) (*model.Session, error) {
	session, err := s.Get(ctx, itemKey)
	if err != nil {
		return nil, err
	}
	if session == nil {
		return nil, apperrors.NotFound("Session")
	}
	return session, nil
}

// EndNow closes voting immediately. It works on the stored session rather
// than the given copy; the end is never moved forward and never before the
// start.
func (s *SessionService) EndNow(ctx context.Context, session model.Session, requester model.Identity, now time.Time) (*model.Session, error) {
	if !session.IsAuthor(requester) {
		audit.Log(ctx, audit.Event{
			Type:      audit.EventPermissionDenied,
			Identity:  requester.String(),
			ItemKey:   session.ItemKey,
			SessionID: session.ID,
			Details:   map[string]interface{}{"action": "end_session"},
		})
		return nil, apperrors.PermissionDenied("Only the session author can end voting")
	}

	unlock, err := s.lock(ctx, session.ItemKey)
	if err != nil {
		return nil, err
	}
	defer unlock()

	for attempt := 0; attempt < maxWindowAttempts; attempt++ {
		current, err := s.sessionRepo.FindByItemKey(ctx, session.ItemKey)
		if err != nil {
			return nil, apperrors.Database(err)
		}
		if current == nil || current.ID != session.ID {
			return nil, apperrors.NotFound("Session")
		}

		end := closingEnd(*current, now)
		if end.Equal(current.End) {
			return current, nil
		}

		closed := *current
		closed.End = end
		updated, err := s.sessionRepo.UpdateWindow(ctx, closed, current.End)
		if err != nil {
			return nil, apperrors.Database(err)
		}
		if updated != nil {
			log.Info().
				Str("sessionId", updated.ID).
				Str("itemKey", updated.ItemKey).
				Time("end", updated.End).
				Msg("poker session ended")
			audit.Log(ctx, audit.Event{
				Type:      audit.EventSessionEnd,
				Identity:  requester.String(),
				ItemKey:   updated.ItemKey,
				SessionID: updated.ID,
			})
			return updated, nil
		}
	}

	return nil, apperrors.Conflict("Session is being modified concurrently, try again")
}

// CheckVotingWindow fails unless now lies within the inclusive voting window.
func (s *SessionService) CheckVotingWindow(session model.Session, now time.Time) error {
	switch session.StatusAt(now) {
	case model.SessionStatusPending:
		return apperrors.SessionNotStarted()
	case model.SessionStatusEnded:
		return apperrors.SessionEnded()
	default:
		return nil
	}
}

func (s *SessionService) lock(ctx context.Context, itemKey string) (func(), error) {
	if s.locker == nil {
		return func() {}, nil
	}
	unlock, err := s.locker.Lock(ctx, itemKey)
	if err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return nil, err
		}
		return nil, apperrors.Conflict("Session is busy, try again").WithCause(err)
	}
	return unlock, nil
}

func closingEnd(session model.Session, now time.Time) time.Time {
	end := session.End
	if now.Before(end) {
		end = now
	}
	if end.Before(session.Start) {
		end = session.Start
	}
	return end
}
