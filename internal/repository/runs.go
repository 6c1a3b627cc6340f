package repository

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/sysu-ecnc-dev/eaplanner/internal/domain"
)

const runColumns = `
	id, instance_id, algorithm, settings, parameters, status, error, evaluations,
	best_penalty, best_makespan, folder, created_at, started_at, finished_at, version
`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRun(row rowScanner) (*domain.Run, error) {
	run := &domain.Run{}
	var settings, parameters []byte
	dst := []any{
		&run.ID,
		&run.InstanceID,
		&run.Algorithm,
		&settings,
		&parameters,
		&run.Status,
		&run.Error,
		&run.Evaluations,
		&run.BestPenalty,
		&run.BestMakespan,
		&run.Folder,
		&run.CreatedAt,
		&run.StartedAt,
		&run.FinishedAt,
		&run.Version,
	}
	if err := row.Scan(dst...); err != nil {
		return nil, err
	}
	run.Settings = json.RawMessage(settings)
	run.Parameters = json.RawMessage(parameters)

	return run, nil
}

func (r *Repository) CreateRun(run *domain.Run) error {
	query := `
		INSERT INTO runs (id, instance_id, algorithm, settings, parameters, status)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING created_at, version
	`

	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(r.cfg.Database.QueryTimeout)*time.Second)
	defer cancel()

	if run.ID == uuid.Nil {
		run.ID = uuid.New()
	}
	if run.Status == "" {
		run.Status = domain.RunStatusQueued
	}

	args := []any{
		run.ID,
		run.InstanceID,
		run.Algorithm,
		[]byte(run.Settings),
		[]byte(run.Parameters),
		run.Status,
	}
	return r.dbpool.QueryRowContext(ctx, query, args...).Scan(&run.CreatedAt, &run.Version)
}

// GetAllRuns 返回所有运行，instanceID 不为 0 时只返回该实例的运行
func (r *Repository) GetAllRuns(instanceID int64) ([]*domain.Run, error) {
	query := `SELECT ` + runColumns + ` FROM runs WHERE $1::BIGINT = 0 OR instance_id = $1 ORDER BY created_at DESC`

	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(r.cfg.Database.QueryTimeout)*time.Second)
	defer cancel()

	rows, err := r.dbpool.QueryContext(ctx, query, instanceID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	runs := make([]*domain.Run, 0)
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, run)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return runs, nil
}

func (r *Repository) GetRunByID(id uuid.UUID) (*domain.Run, error) {
	query := `SELECT ` + runColumns + ` FROM runs WHERE id = $1`

	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(r.cfg.Database.QueryTimeout)*time.Second)
	defer cancel()

	return scanRun(r.dbpool.QueryRowContext(ctx, query, id))
}

// MarkRunRunning 只会更新排队中的运行，其他状态返回 sql.ErrNoRows
func (r *Repository) MarkRunRunning(run *domain.Run) error {
	query := `
		UPDATE runs
		SET status = $1, started_at = NOW(), version = version + 1
		WHERE id = $2 AND status = $3 AND version = $4
		RETURNING started_at, version
	`

	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(r.cfg.Database.QueryTimeout)*time.Second)
	defer cancel()

	args := []any{domain.RunStatusRunning, run.ID, domain.RunStatusQueued, run.Version}
	if err := r.dbpool.QueryRowContext(ctx, query, args...).Scan(&run.StartedAt, &run.Version); err != nil {
		return err
	}
	run.Status = domain.RunStatusRunning

	return nil
}

func (r *Repository) FinishRun(run *domain.Run) error {
	query := `
		UPDATE runs
		SET status = $1, evaluations = $2, best_penalty = $3, best_makespan = $4, folder = $5, finished_at = NOW(), version = version + 1
		WHERE id = $6 AND version = $7
		RETURNING finished_at, version
	`

	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(r.cfg.Database.QueryTimeout)*time.Second)
	defer cancel()

	args := []any{domain.RunStatusFinished, run.Evaluations, run.BestPenalty, run.BestMakespan, run.Folder, run.ID, run.Version}
	if err := r.dbpool.QueryRowContext(ctx, query, args...).Scan(&run.FinishedAt, &run.Version); err != nil {
		return err
	}
	run.Status = domain.RunStatusFinished

	return nil
}

func (r *Repository) FailRun(run *domain.Run, reason string) error {
	query := `
		UPDATE runs
		SET status = $1, error = $2, folder = $3, finished_at = NOW(), version = version + 1
		WHERE id = $4
		RETURNING finished_at, version
	`

	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(r.cfg.Database.QueryTimeout)*time.Second)
	defer cancel()

	if err := r.dbpool.QueryRowContext(ctx, query, domain.RunStatusFailed, reason, run.Folder, run.ID).Scan(&run.FinishedAt, &run.Version); err != nil {
		return err
	}
	run.Status = domain.RunStatusFailed
	run.Error = reason

	return nil
}

// InsertLogRecords 在一个事务中写入若干代的统计信息
func (r *Repository) InsertLogRecords(records []*domain.LogRecord) error {
	if len(records) == 0 {
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(r.cfg.Database.TransactionTimeout)*time.Second)
	defer cancel()

	tx, err := r.dbpool.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		_ = tx.Rollback()
	}()

	query := `
		INSERT INTO run_log_records (run_id, gen, nevals, evals, avg, std, min, max)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`

	for _, record := range records {
		stats := make([][]byte, 0, 4)
		for _, v := range [][]float64{record.Avg, record.Std, record.Min, record.Max} {
			data, err := json.Marshal(v)
			if err != nil {
				return err
			}
			stats = append(stats, data)
		}

		args := []any{record.RunID, record.Gen, record.NEvals, record.Evals, stats[0], stats[1], stats[2], stats[3]}
		if _, err := tx.ExecContext(ctx, query, args...); err != nil {
			return err
		}
	}

	if err := tx.Commit(); err != nil {
		return err
	}

	return nil
}

func (r *Repository) GetLogbook(runID uuid.UUID) ([]*domain.LogRecord, error) {
	query := `
		SELECT gen, nevals, evals, avg, std, min, max
		FROM run_log_records
		WHERE run_id = $1
		ORDER BY gen
	`

	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(r.cfg.Database.QueryTimeout)*time.Second)
	defer cancel()

	rows, err := r.dbpool.QueryContext(ctx, query, runID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	records := make([]*domain.LogRecord, 0)
	for rows.Next() {
		record := &domain.LogRecord{RunID: runID}
		var avg, std, lo, hi []byte
		if err := rows.Scan(&record.Gen, &record.NEvals, &record.Evals, &avg, &std, &lo, &hi); err != nil {
			return nil, err
		}

		targets := []*[]float64{&record.Avg, &record.Std, &record.Min, &record.Max}
		for i, data := range [][]byte{avg, std, lo, hi} {
			if err := json.Unmarshal(data, targets[i]); err != nil {
				return nil, err
			}
		}
		records = append(records, record)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return records, nil
}

func (r *Repository) InsertSolution(solution *domain.Solution) error {
	query := `
		INSERT INTO run_solutions (run_id, individual, scores, original_scores, schedule)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (run_id) DO UPDATE
		SET individual = EXCLUDED.individual, scores = EXCLUDED.scores,
			original_scores = EXCLUDED.original_scores, schedule = EXCLUDED.schedule
	`

	columns := make([][]byte, 0, 3)
	for _, v := range []any{solution.Individual, solution.Scores, solution.OriginalScores} {
		data, err := json.Marshal(v)
		if err != nil {
			return err
		}
		columns = append(columns, data)
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(r.cfg.Database.QueryTimeout)*time.Second)
	defer cancel()

	args := []any{solution.RunID, columns[0], columns[1], columns[2], []byte(solution.Schedule)}
	_, err := r.dbpool.ExecContext(ctx, query, args...)
	return err
}

func (r *Repository) GetSolution(runID uuid.UUID) (*domain.Solution, error) {
	query := `
		SELECT individual, scores, original_scores, schedule
		FROM run_solutions WHERE run_id = $1
	`

	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(r.cfg.Database.QueryTimeout)*time.Second)
	defer cancel()

	var individual, scores, originalScores, schedule []byte
	if err := r.dbpool.QueryRowContext(ctx, query, runID).Scan(&individual, &scores, &originalScores, &schedule); err != nil {
		return nil, err
	}

	solution := &domain.Solution{
		RunID:    runID,
		Schedule: json.RawMessage(schedule),
	}
	if err := json.Unmarshal(individual, &solution.Individual); err != nil {
		return nil, err
	}
	if err := json.Unmarshal(scores, &solution.Scores); err != nil {
		return nil, err
	}
	if err := json.Unmarshal(originalScores, &solution.OriginalScores); err != nil {
		return nil, err
	}

	return solution, nil
}

// CountActiveRuns 返回实例中排队或正在执行的运行数量
func (r *Repository) CountActiveRuns(instanceID int64) (int, error) {
	query := `SELECT COUNT(*) FROM runs WHERE instance_id = $1 AND status IN ($2, $3)`

	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(r.cfg.Database.QueryTimeout)*time.Second)
	defer cancel()

	var count int
	err := r.dbpool.QueryRowContext(ctx, query, instanceID, domain.RunStatusQueued, domain.RunStatusRunning).Scan(&count)
	return count, err
}
