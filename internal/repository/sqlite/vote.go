package sqlite

import (
	"context"

	"github.com/cosminimum/theregistry/internal/models"
)

// InsertVote records a judge's deliberation vote. The UNIQUE(interview_id,
// judge_name) constraint plus ON CONFLICT DO NOTHING keeps the one-vote-per-
// judge invariant when a deliberation pass is retried.
func (r *SQLiteRepo) InsertVote(ctx context.Context, v *models.CouncilVote) (int64, error) {
	if v.Created == 0 {
		v.Created = now()
	}
	res, err := r.conn.Exec(ctx, `INSERT INTO council_votes (interview_id, judge_name, vote, statement, created) VALUES (?, ?, ?, ?, ?) ON CONFLICT(interview_id, judge_name) DO NOTHING`,
		v.InterviewID, string(v.JudgeName), string(v.Vote), v.Statement, v.Created)
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

func (r *SQLiteRepo) ListVotes(ctx context.Context, interviewID string) ([]models.CouncilVote, error) {
	rows, err := r.conn.QueryRows(ctx, `SELECT id, interview_id, judge_name, vote, statement, created FROM council_votes WHERE interview_id = ? ORDER BY id ASC`, interviewID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.CouncilVote
	for rows.Next() {
		var (
			v     models.CouncilVote
			judge string
			vote  string
		)
		if err := rows.Scan(&v.ID, &v.InterviewID, &judge, &vote, &v.Statement, &v.Created); err != nil {
			return nil, err
		}
		v.JudgeName = models.JudgeName(judge)
		v.Vote = models.VoteType(vote)
		out = append(out, v)
	}
	return out, rows.Err()
}

func (r *SQLiteRepo) CountVotes(ctx context.Context, interviewID string) (int, error) {
	var count int
	row := r.conn.QueryRow(ctx, `SELECT COUNT(1) FROM council_votes WHERE interview_id = ?`, interviewID)
	if err := row.Scan(&count); err != nil {
		return 0, err
	}
	return count, nil
}
