package domain

import "time"

// Candidate is an entity that can receive votes, keyed by its unique name.
type Candidate struct {
	Name      string
	Symbol    string
	Votes     int64
	CreatedAt time.Time
}

// VoteRecord is the append-only fact that a voter chose a candidate.
// At most one record may ever exist per voter.
type VoteRecord struct {
	VoterID       string
	CandidateName string
	CastAt        time.Time
}

// VoteReceipt confirms a committed vote back to the caller.
type VoteReceipt struct {
	VoterID       string    `json:"voter_id"`
	CandidateName string    `json:"candidate"`
	CastAt        time.Time `json:"cast_at"`
}
