package model

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestSessionStatusAt(t *testing.T) {
	start := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	session := &Session{Start: start, End: start.Add(time.Hour)}

	tests := []struct {
		name string
		now  time.Time
		want SessionStatus
	}{
		{"before start is pending", start.Add(-time.Second), SessionStatusPending},
		{"exactly at start is open", start, SessionStatusOpen},
		{"inside window is open", start.Add(30 * time.Minute), SessionStatusOpen},
		{"exactly at end is open", start.Add(time.Hour), SessionStatusOpen},
		{"after end is ended", start.Add(time.Hour + time.Nanosecond), SessionStatusEnded},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, session.StatusAt(tc.now))
		})
	}
}

func TestSessionEndReached(t *testing.T) {
	end := time.Date(2026, 3, 1, 11, 0, 0, 0, time.UTC)
	session := &Session{Start: end.Add(-time.Hour), End: end}

	assert.False(t, session.EndReached(end.Add(-time.Nanosecond)))
	assert.True(t, session.EndReached(end))
	assert.True(t, session.EndReached(end.Add(time.Minute)))
}

func TestSessionIsAuthor(t *testing.T) {
	session := &Session{Author: "alice"}

	assert.True(t, session.IsAuthor("alice"))
	assert.False(t, session.IsAuthor("bob"))
	assert.False(t, session.IsAuthor(Anonymous))
}

func TestSessionValidWindow(t *testing.T) {
	now := time.Now()

	assert.True(t, (&Session{Start: now, End: now}).ValidWindow())
	assert.True(t, (&Session{Start: now, End: now.Add(time.Minute)}).ValidWindow())
	assert.False(t, (&Session{Start: now, End: now.Add(-time.Minute)}).ValidWindow())
}

func TestIsNumericVote(t *testing.T) {
	numeric := []string{"0", "5", "13", "0.5", "8.25", "100"}
	for _, v := range numeric {
		assert.True(t, IsNumericVote(v), v)
	}

	nonNumeric := []string{"", "?", "coffee", "-1", "+3", "1e3", "1,000", ".5", "5.", "1.2.3", " 5", "∞"}
	for _, v := range nonNumeric {
		assert.False(t, IsNumericVote(v), v)
	}
}

func TestVoteNumericValue(t *testing.T) {
	t.Run("parses decimal vote", func(t *testing.T) {
		v := &Vote{Value: "8.5"}
		f, ok := v.NumericValue()
		assert.True(t, ok)
		assert.Equal(t, 8.5, f)
	})

	t.Run("rejects non numeric vote", func(t *testing.T) {
		v := &Vote{Value: "?"}
		_, ok := v.NumericValue()
		assert.False(t, ok)
	})
}

func TestVoteCommentText(t *testing.T) {
	comment := "needs a spike"

	assert.Equal(t, "", (&Vote{}).CommentText())
	assert.Equal(t, comment, (&Vote{Comment: &comment}).CommentText())
}
