package sqlite

import (
	"time"

	"log/slog"

	"github.com/cosminimum/theregistry/internal/db"
	"github.com/cosminimum/theregistry/pkg/repository"
)

// SQLiteRepo implements repository interfaces using the internal DB wrapper.
type SQLiteRepo struct {
	conn   *db.DB
	logger *slog.Logger
}

// Ensure SQLiteRepo implements the public interfaces.
var _ repository.AgentRepo = (*SQLiteRepo)(nil)
var _ repository.ApplicationRepo = (*SQLiteRepo)(nil)
var _ repository.InterviewRepo = (*SQLiteRepo)(nil)
var _ repository.MessageRepo = (*SQLiteRepo)(nil)
var _ repository.VoteRepo = (*SQLiteRepo)(nil)
var _ repository.VerdictRepo = (*SQLiteRepo)(nil)

func New(conn *db.DB, logger *slog.Logger) *SQLiteRepo {
	if logger == nil {
		logger = slog.Default()
	}
	return &SQLiteRepo{conn: conn, logger: logger}
}

// Aggregate wraps a single SQLiteRepo as the repository aggregate.
func Aggregate(r *SQLiteRepo) *repository.Repository {
	return &repository.Repository{
		Agents:       r,
		Applications: r,
		Interviews:   r,
		Messages:     r,
		Votes:        r,
		Verdicts:     r,
	}
}

func now() int64 {
	return time.Now().UTC().Unix()
}
