package vote

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"log/slog"

	"github.com/websubhamdevloper/votecore/internal/domain"
	"github.com/websubhamdevloper/votecore/internal/repository"
)

var (
	ErrUnauthenticated  = errors.New("vote: authenticated session required")
	ErrMissingCandidate = errors.New("vote: no candidate selected")
	ErrUnknownCandidate = errors.New("vote: unknown candidate")
	ErrAlreadyVoted     = errors.New("vote: voter has already cast a vote")
	// ErrStorage marks transient failures; the whole Cast call may be
	// retried, never an individual step.
	ErrStorage = errors.New("vote: storage failure")
)

// Service coordinates vote casting. All serialization lives in the store's
// transaction; the service holds no mutable state of its own.
type Service struct {
	votes  repository.VoteRepository
	logger *slog.Logger
}

// New constructs a Service.
func New(votes repository.VoteRepository, logger *slog.Logger) Service {
	return Service{votes: votes, logger: logger}
}

// Cast records the session's vote for candidateName. Eligibility is
// re-checked inside the store transaction; the session's cached flag is
// advisory and only updated after a commit. Under concurrent casts for the
// same voter exactly one succeeds and the rest observe ErrAlreadyVoted.
func (s Service) Cast(ctx context.Context, session *domain.Session, candidateName string) (*domain.VoteReceipt, error) {
	if session == nil || session.VoterID == "" {
		return nil, ErrUnauthenticated
	}
	candidateName = strings.TrimSpace(candidateName)
	if candidateName == "" {
		return nil, ErrMissingCandidate
	}

	record, err := s.votes.CastVote(ctx, session.VoterID, candidateName)
	if err != nil {
		switch {
		case errors.Is(err, repository.ErrAlreadyVoted):
			return nil, ErrAlreadyVoted
		case errors.Is(err, repository.ErrUnknownCandidate):
			return nil, ErrUnknownCandidate
		case errors.Is(err, repository.ErrNotFound):
			// Session points at a voter the store no longer knows.
			return nil, ErrUnauthenticated
		default:
			s.logger.Error("vote transaction failed", "voter_id", session.VoterID, "error", err)
			return nil, fmt.Errorf("%w: %v", ErrStorage, err)
		}
	}

	session.Voted = true
	s.logger.Info("vote cast", "voter_id", record.VoterID, "candidate", record.CandidateName)
	return &domain.VoteReceipt{
		VoterID:       record.VoterID,
		CandidateName: record.CandidateName,
		CastAt:        record.CastAt,
	}, nil
}
