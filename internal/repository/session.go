package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/openclaw/poker-server-go/internal/database"
	"github.com/openclaw/poker-server-go/internal/model"
)

var ErrInvalidWindow = errors.New("session start is after end")

type SessionRepository interface {
	FindByItemKey(ctx context.Context, itemKey string) (*model.Session, error)
	// InsertIfAbsent stores session unless one already exists for its item
	// key. It returns the stored row and whether this call created it.
	InsertIfAbsent(ctx context.Context, session model.Session) (*model.Session, bool, error)
	// UpdateWindow writes the start/end of session only if the stored end
	// still equals expectedEnd. A nil result means the row changed underneath.
	UpdateWindow(ctx context.Context, session model.Session, expectedEnd time.Time) (*model.Session, error)
	DeleteEndedBefore(ctx context.Context, cutoff time.Time) (int64, error)
}

type sessionRepo struct {
	db database.DBTX
}

func NewSessionRepository(db database.DBTX) SessionRepository {
	return &sessionRepo{db: db}
}

func (r *sessionRepo) FindByItemKey(ctx context.Context, itemKey string) (*model.Session, error) {
	var session model.Session
	err := r.db.GetContext(ctx, &session, `
		SELECT * FROM poker_sessions WHERE item_key = $1
	`, itemKey)
	return HandleNotFound(&session, err)
}

func (r *sessionRepo) InsertIfAbsent(ctx context.Context, session model.Session) (*model.Session, bool, error) {
	if !session.ValidWindow() {
		return nil, false, ErrInvalidWindow
	}

	var created model.Session
	err := r.db.GetContext(ctx, &created, `
		INSERT INTO poker_sessions (id, item_key, author, created_at, start_at, end_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (item_key) DO NOTHING
		RETURNING *
	`, session.ID, session.ItemKey, session.Author, session.Created, session.Start, session.End)
	if err == nil {
		return &created, true, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return nil, false, err
	}

	existing, err := r.FindByItemKey(ctx, session.ItemKey)
	return existing, false, err
}

func (r *sessionRepo) UpdateWindow(ctx context.Context, session model.Session, expectedEnd time.Time) (*model.Session, error) {
	if !session.ValidWindow() {
		return nil, ErrInvalidWindow
	}

	var updated model.Session
	err := r.db.GetContext(ctx, &updated, `
		UPDATE poker_sessions SET
			start_at = $2,
			end_at = $3
		WHERE id = $1 AND end_at = $4
		RETURNING *
	`, session.ID, session.Start, session.End, expectedEnd)
	return HandleNotFound(&updated, err)
}

func (r *sessionRepo) DeleteEndedBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	result, err := r.db.ExecContext(ctx, `
		DELETE FROM poker_sessions WHERE end_at < $1
	`, cutoff)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}
