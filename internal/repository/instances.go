package repository

import (
	"context"
	"encoding/json"
	"time"

	"github.com/sysu-ecnc-dev/eaplanner/internal/domain"
	"github.com/sysu-ecnc-dev/eaplanner/internal/schedule"
)

func (r *Repository) CreateInstance(instance *domain.Instance) error {
	query := `
		INSERT INTO instances (name, description, source, assignments, constraints, original_penalty, original_makespan, tables)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id, created_at, version
	`

	tables, err := json.Marshal(instance.Tables)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(r.cfg.Database.QueryTimeout)*time.Second)
	defer cancel()

	args := []any{
		instance.Name,
		instance.Description,
		instance.Source,
		instance.Assignments,
		instance.Constraints,
		instance.OriginalPenalty,
		instance.OriginalMakespan,
		tables,
	}
	dst := []any{&instance.ID, &instance.CreatedAt, &instance.Version}
	return r.dbpool.QueryRowContext(ctx, query, args...).Scan(dst...)
}

// GetAllInstances 返回所有实例，不包含排程表
func (r *Repository) GetAllInstances() ([]*domain.Instance, error) {
	query := `
		SELECT id, name, description, source, assignments, constraints, original_penalty, original_makespan, created_at, version
		FROM instances
		ORDER BY id
	`

	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(r.cfg.Database.QueryTimeout)*time.Second)
	defer cancel()

	rows, err := r.dbpool.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	instances := make([]*domain.Instance, 0)
	for rows.Next() {
		instance := &domain.Instance{}
		dst := []any{
			&instance.ID,
			&instance.Name,
			&instance.Description,
			&instance.Source,
			&instance.Assignments,
			&instance.Constraints,
			&instance.OriginalPenalty,
			&instance.OriginalMakespan,
			&instance.CreatedAt,
			&instance.Version,
		}
		if err := rows.Scan(dst...); err != nil {
			return nil, err
		}
		instances = append(instances, instance)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return instances, nil
}

func (r *Repository) GetInstanceByID(id int64) (*domain.Instance, error) {
	query := `
		SELECT name, description, source, assignments, constraints, original_penalty, original_makespan, tables, created_at, version
		FROM instances WHERE id = $1
	`

	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(r.cfg.Database.QueryTimeout)*time.Second)
	defer cancel()

	instance := &domain.Instance{
		ID: id,
	}

	var tables []byte
	dst := []any{
		&instance.Name,
		&instance.Description,
		&instance.Source,
		&instance.Assignments,
		&instance.Constraints,
		&instance.OriginalPenalty,
		&instance.OriginalMakespan,
		&tables,
		&instance.CreatedAt,
		&instance.Version,
	}
	if err := r.dbpool.QueryRowContext(ctx, query, id).Scan(dst...); err != nil {
		return nil, err
	}

	instance.Tables = &schedule.Tables{}
	if err := json.Unmarshal(tables, instance.Tables); err != nil {
		return nil, err
	}

	return instance, nil
}

func (r *Repository) DeleteInstance(id int64) error {
	query := `DELETE FROM instances WHERE id = $1`

	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(r.cfg.Database.QueryTimeout)*time.Second)
	defer cancel()

	_, err := r.dbpool.ExecContext(ctx, query, id)
	return err
}
