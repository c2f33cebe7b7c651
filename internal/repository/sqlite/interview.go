package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/cosminimum/theregistry/internal/models"
)

const interviewCols = `id, application_id, status, turn_count, current_judge, started_at, completed_at, created, metadata`

func (r *SQLiteRepo) CreateInterview(ctx context.Context, iv *models.Interview) error {
	if iv.Created == 0 {
		iv.Created = now()
	}
	if iv.Status == "" {
		iv.Status = models.InterviewPending
	}
	blob, err := iv.Metadata.MarshalBlob()
	if err != nil {
		return fmt.Errorf("marshal metadata: %w", err)
	}
	_, err = r.conn.Exec(ctx, `INSERT INTO interviews (id, application_id, status, turn_count, started_at, completed_at, created, metadata) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		iv.ID, iv.ApplicationID, string(iv.Status), iv.TurnCount, iv.StartedAt, iv.CompletedAt, iv.Created, blob)
	return err
}

func (r *SQLiteRepo) GetInterview(ctx context.Context, id string) (*models.Interview, error) {
	row := r.conn.QueryRow(ctx, `SELECT `+interviewCols+` FROM interviews WHERE id = ?`, id)
	return scanInterview(row.Scan)
}

func (r *SQLiteRepo) GetInterviewByApplication(ctx context.Context, applicationID string) (*models.Interview, error) {
	row := r.conn.QueryRow(ctx, `SELECT `+interviewCols+` FROM interviews WHERE application_id = ? ORDER BY created DESC LIMIT 1`, applicationID)
	return scanInterview(row.Scan)
}

func (r *SQLiteRepo) ListInterviewsByStatus(ctx context.Context, status models.InterviewStatus) ([]models.Interview, error) {
	rows, err := r.conn.QueryRows(ctx, `SELECT `+interviewCols+` FROM interviews WHERE status = ? ORDER BY created ASC`, string(status))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.Interview
	for rows.Next() {
		iv, err := scanInterview(rows.Scan)
		if err != nil {
			return nil, err
		}
		out = append(out, *iv)
	}
	return out, rows.Err()
}

func (r *SQLiteRepo) UpdateTurnState(ctx context.Context, id string, turn int, judge models.JudgeName, status models.InterviewStatus, startedAt *int64) error {
	if startedAt != nil {
		_, err := r.conn.Exec(ctx, `UPDATE interviews SET turn_count = ?, current_judge = ?, status = ?, started_at = ? WHERE id = ?`,
			turn, string(judge), string(status), *startedAt, id)
		return err
	}
	_, err := r.conn.Exec(ctx, `UPDATE interviews SET turn_count = ?, current_judge = ?, status = ? WHERE id = ?`,
		turn, string(judge), string(status), id)
	return err
}

func (r *SQLiteRepo) SetInterviewStatus(ctx context.Context, id string, status models.InterviewStatus, completedAt *int64) error {
	if completedAt != nil {
		_, err := r.conn.Exec(ctx, `UPDATE interviews SET status = ?, completed_at = ? WHERE id = ?`, string(status), *completedAt, id)
		return err
	}
	_, err := r.conn.Exec(ctx, `UPDATE interviews SET status = ? WHERE id = ?`, string(status), id)
	return err
}

func (r *SQLiteRepo) UpdateInterviewMetadata(ctx context.Context, id string, md models.InterviewMetadata) error {
	blob, err := md.MarshalBlob()
	if err != nil {
		return fmt.Errorf("marshal metadata: %w", err)
	}
	_, err = r.conn.Exec(ctx, `UPDATE interviews SET metadata = ? WHERE id = ?`, blob, id)
	return err
}

func scanInterview(scan func(...any) error) (*models.Interview, error) {
	var (
		iv        models.Interview
		status    string
		judge     sql.NullString
		startedAt sql.NullInt64
		completed sql.NullInt64
		metaBlob  string
	)
	if err := scan(&iv.ID, &iv.ApplicationID, &status, &iv.TurnCount, &judge, &startedAt, &completed, &iv.Created, &metaBlob); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	iv.Status = models.InterviewStatus(status)
	if judge.Valid && judge.String != "" {
		j := models.JudgeName(judge.String)
		iv.CurrentJudge = &j
	}
	if startedAt.Valid {
		iv.StartedAt = &startedAt.Int64
	}
	if completed.Valid {
		iv.CompletedAt = &completed.Int64
	}
	iv.Metadata = models.NewInterviewMetadata()
	if metaBlob != "" {
		if err := json.Unmarshal([]byte(metaBlob), &iv.Metadata); err != nil {
			return nil, fmt.Errorf("unmarshal metadata: %w", err)
		}
	}
	if iv.Metadata.KeyClaims == nil {
		iv.Metadata.KeyClaims = map[string]string{}
	}
	if iv.Metadata.RedFlags == nil {
		iv.Metadata.RedFlags = []models.RedFlag{}
	}
	return &iv, nil
}
