package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/sethvargo/go-retry"

	"github.com/websubhamdevloper/votecore/internal/domain"
	"github.com/websubhamdevloper/votecore/internal/repository"
)

const (
	// castVoteTimeout bounds the whole cast transaction; on expiry the
	// transaction rolls back and the caller sees a retryable storage error.
	castVoteTimeout = 5 * time.Second

	castVoteMaxRetries uint64 = 3
	castVoteRetryDelay        = 50 * time.Millisecond
)

// Repository implements persistence interfaces on PostgreSQL.
type Repository struct {
	pool *pgxpool.Pool
}

// New constructs a Repository.
func New(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// ensure Repository satisfies interfaces.
var (
	_ repository.UserRepository      = (*Repository)(nil)
	_ repository.CandidateRepository = (*Repository)(nil)
	_ repository.VoteRepository      = (*Repository)(nil)
)

// CreateUser inserts a voter record.
func (r *Repository) CreateUser(ctx context.Context, user *domain.User) error {
	const query = `INSERT INTO users (id, full_name, email, password_hash, voted, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)`
	_, err := r.pool.Exec(ctx, query, user.ID, user.FullName, user.Email, user.PasswordHash, user.Voted, user.CreatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return repository.ErrConflict
		}
		return err
	}
	return nil
}

// GetUserByEmail fetches a voter by email.
func (r *Repository) GetUserByEmail(ctx context.Context, email string) (*domain.User, error) {
	const query = `SELECT id, full_name, email, password_hash, voted, created_at FROM users WHERE email = $1`
	return r.scanUser(r.pool.QueryRow(ctx, query, email))
}

func (r *Repository) scanUser(row pgx.Row) (*domain.User, error) {
	var u domain.User
	if err := row.Scan(&u.ID, &u.FullName, &u.Email, &u.PasswordHash, &u.Voted, &u.CreatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	return &u, nil
}

// ListCandidates returns the roster in name order. Ranking is the
// aggregator's job, not the store's.
func (r *Repository) ListCandidates(ctx context.Context) ([]domain.Candidate, error) {
	const query = `SELECT name, symbol, votes, created_at FROM candidates ORDER BY name ASC`
	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	candidates := make([]domain.Candidate, 0)
	for rows.Next() {
		var c domain.Candidate
		if err := rows.Scan(&c.Name, &c.Symbol, &c.Votes, &c.CreatedAt); err != nil {
			return nil, err
		}
		candidates = append(candidates, c)
	}
	return candidates, rows.Err()
}

// CountVotes returns the number of committed vote records.
func (r *Repository) CountVotes(ctx context.Context) (int64, error) {
	var count int64
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(1) FROM votes`).Scan(&count); err != nil {
		return 0, err
	}
	return count, nil
}

// CastVote records a vote as one atomic unit: lock the voter row and re-read
// the voted flag, verify the candidate, append the vote record, bump the
// candidate counter, mark the voter spent. Serialization conflicts are retried
// as whole transactions; everything else rolls back and surfaces once.
func (r *Repository) CastVote(ctx context.Context, voterID, candidateName string) (*domain.VoteRecord, error) {
	var record *domain.VoteRecord
	backoff := retry.WithMaxRetries(castVoteMaxRetries, retry.NewConstant(castVoteRetryDelay))
	err := retry.Do(ctx, backoff, func(ctx context.Context) error {
		rec, err := r.castVoteTx(ctx, voterID, candidateName)
		if err != nil {
			if isSerializationFailure(err) {
				return retry.RetryableError(err)
			}
			return err
		}
		record = rec
		return nil
	})
	if err != nil {
		return nil, mapStorageError(err)
	}
	return record, nil
}

func (r *Repository) castVoteTx(ctx context.Context, voterID, candidateName string) (*domain.VoteRecord, error) {
	ctx, cancel := context.WithTimeout(ctx, castVoteTimeout)
	defer cancel()

	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	// Row lock excludes every concurrent cast for the same voter until we
	// commit or roll back. The login-time flag is never trusted here.
	var voted bool
	if err := tx.QueryRow(ctx, `SELECT voted FROM users WHERE id = $1 FOR UPDATE`, voterID).Scan(&voted); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	if voted {
		return nil, repository.ErrAlreadyVoted
	}

	var exists bool
	if err := tx.QueryRow(ctx, `SELECT EXISTS(SELECT 1 FROM candidates WHERE name = $1)`, candidateName).Scan(&exists); err != nil {
		return nil, err
	}
	if !exists {
		return nil, repository.ErrUnknownCandidate
	}

	// The UNIQUE constraint on votes.voter_id is the structural backstop:
	// even with the flag check misbehaving, a second record cannot land.
	var castAt time.Time
	const insert = `INSERT INTO votes (voter_id, candidate_name, cast_at) VALUES ($1, $2, NOW()) RETURNING cast_at`
	if err := tx.QueryRow(ctx, insert, voterID, candidateName).Scan(&castAt); err != nil {
		if isUniqueViolation(err) {
			return nil, repository.ErrAlreadyVoted
		}
		return nil, err
	}

	tag, err := tx.Exec(ctx, `UPDATE candidates SET votes = votes + 1 WHERE name = $1`, candidateName)
	if err != nil {
		return nil, err
	}
	if tag.RowsAffected() != 1 {
		return nil, repository.ErrUnknownCandidate
	}

	if _, err := tx.Exec(ctx, `UPDATE users SET voted = TRUE WHERE id = $1`, voterID); err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}
	return &domain.VoteRecord{VoterID: voterID, CandidateName: candidateName, CastAt: castAt}, nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}

func isSerializationFailure(err error) bool {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return false
	}
	// 40001 serialization_failure, 40P01 deadlock_detected
	return pgErr.Code == "40001" || pgErr.Code == "40P01"
}

// mapStorageError folds timeouts and connection loss into the retryable
// ErrUnavailable kind; domain sentinels pass through untouched.
func mapStorageError(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, repository.ErrNotFound),
		errors.Is(err, repository.ErrAlreadyVoted),
		errors.Is(err, repository.ErrUnknownCandidate),
		errors.Is(err, repository.ErrConflict):
		return err
	default:
		return fmt.Errorf("%w: %v", repository.ErrUnavailable, err)
	}
}
