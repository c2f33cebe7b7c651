package sqlite

import (
	"context"
	"database/sql"

	"github.com/cosminimum/theregistry/internal/models"
)

func (r *SQLiteRepo) AppendMessage(ctx context.Context, m *models.Message) (int64, error) {
	if m.Created == 0 {
		m.Created = now()
	}
	var judge *string
	if m.JudgeName != nil {
		s := string(*m.JudgeName)
		judge = &s
	}
	res, err := r.conn.Exec(ctx, `INSERT INTO interview_messages (interview_id, role, judge_name, content, turn_number, created) VALUES (?, ?, ?, ?, ?, ?)`,
		m.InterviewID, string(m.Role), judge, m.Content, m.TurnNumber, m.Created)
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

func (r *SQLiteRepo) ListMessages(ctx context.Context, interviewID string) ([]models.Message, error) {
	rows, err := r.conn.QueryRows(ctx, `SELECT id, interview_id, role, judge_name, content, turn_number, created FROM interview_messages WHERE interview_id = ? ORDER BY turn_number ASC, created ASC, id ASC`, interviewID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.Message
	for rows.Next() {
		m, err := scanMessage(rows.Scan)
		if err != nil {
			return nil, err
		}
		out = append(out, *m)
	}
	return out, rows.Err()
}

func (r *SQLiteRepo) LastMessage(ctx context.Context, interviewID string) (*models.Message, error) {
	row := r.conn.QueryRow(ctx, `SELECT id, interview_id, role, judge_name, content, turn_number, created FROM interview_messages WHERE interview_id = ? ORDER BY turn_number DESC, created DESC, id DESC LIMIT 1`, interviewID)
	m, err := scanMessage(row.Scan)
	if err != nil {
		return nil, err
	}
	return m, nil
}

func scanMessage(scan func(...any) error) (*models.Message, error) {
	var (
		m     models.Message
		role  string
		judge sql.NullString
	)
	if err := scan(&m.ID, &m.InterviewID, &role, &judge, &m.Content, &m.TurnNumber, &m.Created); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	m.Role = models.MessageRole(role)
	if judge.Valid && judge.String != "" {
		j := models.JudgeName(judge.String)
		m.JudgeName = &j
	}
	return &m, nil
}
