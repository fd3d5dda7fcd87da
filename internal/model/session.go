package model

import "time"

type Session struct {
	ID      string    `db:"id" json:"id"`
	ItemKey string    `db:"item_key" json:"itemKey"`
	Author  Identity  `db:"author" json:"author"`
	Created time.Time `db:"created_at" json:"created"`
	Start   time.Time `db:"start_at" json:"start"`
	End     time.Time `db:"end_at" json:"end"`
}

// StatusAt derives the session status from now against the inclusive
// [Start, End] window.
func (s *Session) StatusAt(now time.Time) SessionStatus {
	switch {
	case now.Before(s.Start):
		return SessionStatusPending
	case now.After(s.End):
		return SessionStatusEnded
	default:
		return SessionStatusOpen
	}
}

// EndReached reports whether the scheduled end is at or before now. Unlike
// StatusAt it treats the end instant itself as reached.
func (s *Session) EndReached(now time.Time) bool {
	return !now.Before(s.End)
}

func (s *Session) IsAuthor(identity Identity) bool {
	return identity != "" && s.Author == identity
}

// ValidWindow reports whether the session may be persisted.
func (s *Session) ValidWindow() bool {
	return !s.Start.After(s.End)
}
