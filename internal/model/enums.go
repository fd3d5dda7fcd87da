package model

type SessionStatus string

const (
	SessionStatusPending SessionStatus = "pending"
	SessionStatusOpen    SessionStatus = "open"
	SessionStatusEnded   SessionStatus = "ended"
)
