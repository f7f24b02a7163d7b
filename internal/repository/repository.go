package repository

import (
	"context"

	"github.com/websubhamdevloper/votecore/internal/domain"
)

// UserRepository persists registered voters.
type UserRepository interface {
	CreateUser(ctx context.Context, user *domain.User) error
	GetUserByEmail(ctx context.Context, email string) (*domain.User, error)
}

// CandidateRepository reads the candidate roster and tallies.
type CandidateRepository interface {
	ListCandidates(ctx context.Context) ([]domain.Candidate, error)
}

// VoteRepository records votes. CastVote must execute as a single atomic unit:
// lock and re-read the voter's voted flag, verify the candidate, append the
// vote record, increment the candidate counter, and set the flag — committing
// all of it or none. Implementations back the flag check with a uniqueness
// constraint on voter id in the vote table.
type VoteRepository interface {
	CastVote(ctx context.Context, voterID, candidateName string) (*domain.VoteRecord, error)
	CountVotes(ctx context.Context) (int64, error)
}
