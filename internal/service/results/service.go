package results

import (
	"context"
	"fmt"
	"math"
	"sort"

	"log/slog"

	"github.com/websubhamdevloper/votecore/internal/domain"
	"github.com/websubhamdevloper/votecore/internal/repository"
)

// Service computes ranked election results. Read-only; read-committed is
// enough, it never takes locks.
type Service struct {
	candidates repository.CandidateRepository
	votes      repository.VoteRepository
	logger     *slog.Logger
}

// New constructs a Service.
func New(candidates repository.CandidateRepository, votes repository.VoteRepository, logger *slog.Logger) Service {
	return Service{candidates: candidates, votes: votes, logger: logger}
}

// Compute returns all candidates ranked by votes descending, ties broken by
// name ascending. Percentages are rounded to one decimal. With zero votes the
// result signals NoVotes instead of dividing by zero.
func (s Service) Compute(ctx context.Context) (*domain.RankedResult, error) {
	candidates, err := s.candidates.ListCandidates(ctx)
	if err != nil {
		s.logger.Error("listing candidates", "error", err)
		return nil, err
	}

	var total int64
	for _, c := range candidates {
		total += c.Votes
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		if candidates[i].Votes != candidates[j].Votes {
			return candidates[i].Votes > candidates[j].Votes
		}
		return candidates[i].Name < candidates[j].Name
	})

	entries := make([]domain.Standing, 0, len(candidates))
	for _, c := range candidates {
		var pct float64
		if total > 0 {
			pct = math.Round(float64(c.Votes)/float64(total)*1000) / 10
		}
		entries = append(entries, domain.Standing{
			Name:       c.Name,
			Symbol:     c.Symbol,
			Votes:      c.Votes,
			Percentage: pct,
		})
	}

	return &domain.RankedResult{
		Entries:    entries,
		TotalVotes: total,
		NoVotes:    total == 0,
	}, nil
}

// CheckCounters verifies the candidate counters add up to the number of
// recorded ballots. A mismatch means a write escaped the cast transaction
// and the tally can no longer be trusted.
func (s Service) CheckCounters(ctx context.Context) error {
	recorded, err := s.votes.CountVotes(ctx)
	if err != nil {
		return err
	}
	candidates, err := s.candidates.ListCandidates(ctx)
	if err != nil {
		return err
	}
	var counted int64
	for _, c := range candidates {
		counted += c.Votes
	}
	if counted != recorded {
		s.logger.Error("tally drift detected", "counted", counted, "recorded", recorded)
		return fmt.Errorf("tally drift: %d counted, %d recorded", counted, recorded)
	}
	return nil
}
