package sqlite

import (
	"context"
	"database/sql"

	"github.com/cosminimum/theregistry/internal/models"
)

func (r *SQLiteRepo) InsertVerdict(ctx context.Context, v *models.Verdict) (int64, error) {
	if v.Created == 0 {
		v.Created = now()
	}
	res, err := r.conn.Exec(ctx, `INSERT INTO verdicts (interview_id, verdict, teaser_quote, teaser_author, claim_token_hash, claimed, created) VALUES (?, ?, ?, ?, ?, ?, ?)`,
		v.InterviewID, string(v.Verdict), v.TeaserQuote, string(v.TeaserAuthor), v.ClaimTokenHash, boolToInt(v.Claimed), v.Created)
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

func (r *SQLiteRepo) GetVerdictByInterview(ctx context.Context, interviewID string) (*models.Verdict, error) {
	row := r.conn.QueryRow(ctx, `SELECT id, interview_id, verdict, teaser_quote, teaser_author, claim_token_hash, claimed, created FROM verdicts WHERE interview_id = ?`, interviewID)
	var (
		v       models.Verdict
		verdict string
		author  string
		hash    sql.NullString
		claimed int
	)
	if err := row.Scan(&v.ID, &v.InterviewID, &verdict, &v.TeaserQuote, &author, &hash, &claimed, &v.Created); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	v.Verdict = models.VerdictType(verdict)
	v.TeaserAuthor = models.JudgeName(author)
	if hash.Valid && hash.String != "" {
		v.ClaimTokenHash = &hash.String
	}
	v.Claimed = claimed != 0
	return &v, nil
}

func (r *SQLiteRepo) MarkVerdictClaimed(ctx context.Context, interviewID string) error {
	_, err := r.conn.Exec(ctx, `UPDATE verdicts SET claimed = 1 WHERE interview_id = ?`, interviewID)
	return err
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
