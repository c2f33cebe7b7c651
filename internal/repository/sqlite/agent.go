package sqlite

import (
	"context"
	"database/sql"

	"github.com/cosminimum/theregistry/internal/models"
)

func (r *SQLiteRepo) CreateAgent(ctx context.Context, a *models.Agent) error {
	if a.Created == 0 {
		a.Created = now()
	}
	_, err := r.conn.Exec(ctx, `INSERT INTO agents (id, name, human_handle, created) VALUES (?, ?, ?, ?)`,
		a.ID, a.Name, a.HumanHandle, a.Created)
	return err
}

func (r *SQLiteRepo) GetAgentByID(ctx context.Context, id string) (*models.Agent, error) {
	row := r.conn.QueryRow(ctx, `SELECT id, name, human_handle, created FROM agents WHERE id = ?`, id)
	return scanAgent(row)
}

func (r *SQLiteRepo) GetAgentByHandle(ctx context.Context, handle string) (*models.Agent, error) {
	row := r.conn.QueryRow(ctx, `SELECT id, name, human_handle, created FROM agents WHERE human_handle = ?`, handle)
	return scanAgent(row)
}

func scanAgent(row *sql.Row) (*models.Agent, error) {
	var a models.Agent
	if err := row.Scan(&a.ID, &a.Name, &a.HumanHandle, &a.Created); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	return &a, nil
}
