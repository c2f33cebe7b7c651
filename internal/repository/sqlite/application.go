package sqlite

import (
	"context"
	"database/sql"

	"github.com/cosminimum/theregistry/internal/models"
)

func (r *SQLiteRepo) CreateApplication(ctx context.Context, a *models.Application) error {
	if a.Submitted == 0 {
		a.Submitted = now()
	}
	if a.Status == "" {
		a.Status = models.ApplicationSubmitted
	}
	_, err := r.conn.Exec(ctx, `INSERT INTO applications (id, agent_id, status, submitted, decided) VALUES (?, ?, ?, ?, ?)`,
		a.ID, a.AgentID, string(a.Status), a.Submitted, a.Decided)
	return err
}

func (r *SQLiteRepo) GetApplication(ctx context.Context, id string) (*models.Application, error) {
	row := r.conn.QueryRow(ctx, `SELECT id, agent_id, status, submitted, decided FROM applications WHERE id = ?`, id)
	return scanApplication(row)
}

func (r *SQLiteRepo) UpdateApplicationStatus(ctx context.Context, id string, status models.ApplicationStatus, decidedAt *int64) error {
	if decidedAt != nil {
		_, err := r.conn.Exec(ctx, `UPDATE applications SET status = ?, decided = ? WHERE id = ?`, string(status), *decidedAt, id)
		return err
	}
	_, err := r.conn.Exec(ctx, `UPDATE applications SET status = ? WHERE id = ?`, string(status), id)
	return err
}

func (r *SQLiteRepo) CountApplicationsByAgent(ctx context.Context, agentID string) (int64, error) {
	var count int64
	row := r.conn.QueryRow(ctx, `SELECT COUNT(1) FROM applications WHERE agent_id = ?`, agentID)
	if err := row.Scan(&count); err != nil {
		return 0, err
	}
	return count, nil
}

func (r *SQLiteRepo) GetActiveApplicationByAgent(ctx context.Context, agentID string) (*models.Application, error) {
	row := r.conn.QueryRow(ctx, `SELECT id, agent_id, status, submitted, decided FROM applications WHERE agent_id = ? AND status IN ('submitted', 'interviewing') LIMIT 1`, agentID)
	return scanApplication(row)
}

func (r *SQLiteRepo) GetLatestDecidedApplicationByAgent(ctx context.Context, agentID string) (*models.Application, error) {
	row := r.conn.QueryRow(ctx, `SELECT id, agent_id, status, submitted, decided FROM applications WHERE agent_id = ? AND status = 'decided' ORDER BY decided DESC LIMIT 1`, agentID)
	return scanApplication(row)
}

func scanApplication(row *sql.Row) (*models.Application, error) {
	var (
		a       models.Application
		status  string
		decided sql.NullInt64
	)
	if err := row.Scan(&a.ID, &a.AgentID, &status, &a.Submitted, &decided); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	a.Status = models.ApplicationStatus(status)
	if decided.Valid {
		a.Decided = &decided.Int64
	}
	return &a, nil
}
