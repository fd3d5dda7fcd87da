package model

import (
	"regexp"
	"strconv"
	"time"
)

var numericVotePattern = regexp.MustCompile(`^[0-9]+(\.[0-9]+)?$`)

type Vote struct {
	ID        string    `db:"id" json:"id"`
	SessionID string    `db:"session_id" json:"sessionId"`
	Voter     Identity  `db:"voter" json:"voter"`
	Value     string    `db:"value" json:"value"`
	Comment   *string   `db:"comment" json:"comment,omitempty"`
	Seq       int64     `db:"seq" json:"-"`
	CreatedAt time.Time `db:"created_at" json:"createdAt"`
	UpdatedAt time.Time `db:"updated_at" json:"updatedAt"`
}

type UpsertVoteParams struct {
	ID        string
	SessionID string
	Voter     Identity
	Value     string
	Comment   *string
	Now       time.Time
}

// CommentText returns the comment or "" when none was given.
func (v *Vote) CommentText() string {
	if v.Comment == nil {
		return ""
	}
	return *v.Comment
}

// NumericValue returns the vote as a number when it matches the strict
// numeric pattern: digits with an optional fractional part, no sign, no
// exponent.
func (v *Vote) NumericValue() (float64, bool) {
	return ParseNumericVote(v.Value)
}

func IsNumericVote(value string) bool {
	return numericVotePattern.MatchString(value)
}

func ParseNumericVote(value string) (float64, bool) {
	if !IsNumericVote(value) {
		return 0, false
	}
	f, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return 0, false
	}
	return f, true
}

// Stats summarises the numeric votes of a session. A nil *Stats means no
// numeric vote has been cast.
type Stats struct {
	Count   int     `json:"count"`
	Min     float64 `json:"min"`
	Max     float64 `json:"max"`
	Average float64 `json:"average"`
}
