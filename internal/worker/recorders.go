package worker

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/sysu-ecnc-dev/eaplanner/internal/domain"
	"github.com/sysu-ecnc-dev/eaplanner/internal/scheduler"
)

// ProgressRecorder 把每一代的进度写到 redis，写入失败只记录日志
type ProgressRecorder struct {
	client     redis.Cmdable
	key        string
	budget     int
	timeout    time.Duration
	expiration time.Duration
}

func NewProgressRecorder(client redis.Cmdable, runID uuid.UUID, budget int, timeout, expiration time.Duration) *ProgressRecorder {
	return &ProgressRecorder{
		client:     client,
		key:        domain.RunProgressKey(runID),
		budget:     budget,
		timeout:    timeout,
		expiration: expiration,
	}
}

func (r *ProgressRecorder) Start(*scheduler.RunInfo) error {
	return nil
}

func (r *ProgressRecorder) Generation(record scheduler.Record, _ []*scheduler.Individual) error {
	data, err := json.Marshal(newProgress(record, r.budget, time.Now()))
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), r.timeout)
	defer cancel()

	if err := r.client.Set(ctx, r.key, data, r.expiration).Err(); err != nil {
		slog.Warn("无法写入运行进度", "key", r.key, "error", err)
	}
	return nil
}

func (r *ProgressRecorder) Finish(*scheduler.Result) error {
	return nil
}

func newProgress(record scheduler.Record, budget int, now time.Time) *domain.RunProgress {
	return &domain.RunProgress{
		Gen:         record.Gen,
		Evaluations: record.Evals,
		Budget:      budget,
		Min:         record.Min,
		Avg:         record.Avg,
		UpdatedAt:   now,
	}
}

type LogbookStore interface {
	InsertLogRecords(records []*domain.LogRecord) error
}

// LogbookRecorder 攒够 batch 代后批量写入数据库，运行结束时写入剩余部分
type LogbookRecorder struct {
	store   LogbookStore
	runID   uuid.UUID
	batch   int
	pending []*domain.LogRecord
}

func NewLogbookRecorder(store LogbookStore, runID uuid.UUID, batch int) *LogbookRecorder {
	return &LogbookRecorder{
		store: store,
		runID: runID,
		batch: max(batch, 1),
	}
}

func (r *LogbookRecorder) Start(*scheduler.RunInfo) error {
	r.pending = r.pending[:0]
	return nil
}

func (r *LogbookRecorder) Generation(record scheduler.Record, _ []*scheduler.Individual) error {
	r.pending = append(r.pending, &domain.LogRecord{
		RunID:  r.runID,
		Gen:    record.Gen,
		NEvals: record.NEvals,
		Evals:  record.Evals,
		Avg:    record.Avg,
		Std:    record.Std,
		Min:    record.Min,
		Max:    record.Max,
	})
	if len(r.pending) < r.batch {
		return nil
	}
	return r.flush()
}

func (r *LogbookRecorder) Finish(*scheduler.Result) error {
	return r.flush()
}

func (r *LogbookRecorder) flush() error {
	if len(r.pending) == 0 {
		return nil
	}
	if err := r.store.InsertLogRecords(r.pending); err != nil {
		return err
	}
	r.pending = nil
	return nil
}
