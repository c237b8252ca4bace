package models

import "time"

// Match is the PostgreSQL summary row of one finished match.
type Match struct {
	ID         string    `json:"id"`
	CreatedAt  time.Time `json:"created_at"`
	FinishedAt time.Time `json:"finished_at"`
	UserIDs    []string  `json:"user_ids"`
}

// MatchEvent is one gameplay signal the authority observed during a
// match, as stored in the MongoDB event log.
type MatchEvent struct {
	Kind      string `bson:"kind" json:"kind"`
	Payload   any    `bson:"payload,omitempty" json:"payload,omitempty"`
	Timestamp int64  `bson:"timestamp" json:"timestamp"`
}

// MatchLog is the full event log of one match.
type MatchLog struct {
	MatchID string       `bson:"matchId" json:"matchId"`
	Events  []MatchEvent `bson:"events" json:"events"`
}

// MatchRecord is everything the session hands to persistence when a
// match ends.
type MatchRecord struct {
	ID         string
	StartedAt  time.Time
	FinishedAt time.Time
	UserIDs    []string
	Events     []MatchEvent
}
