package worker

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sysu-ecnc-dev/eaplanner/internal/domain"
	"github.com/sysu-ecnc-dev/eaplanner/internal/schedule"
	"github.com/sysu-ecnc-dev/eaplanner/internal/scheduler"
)

type memoryStore struct {
	batches [][]*domain.LogRecord
	err     error
}

func (s *memoryStore) InsertLogRecords(records []*domain.LogRecord) error {
	if s.err != nil {
		return s.err
	}
	s.batches = append(s.batches, records)
	return nil
}

func record(gen int) scheduler.Record {
	return scheduler.Record{
		Gen:    gen,
		NEvals: 10,
		Evals:  10 * (gen + 1),
		Avg:    []float64{5, 50},
		Std:    []float64{1, 2},
		Min:    []float64{3, 40},
		Max:    []float64{9, 60},
	}
}

func TestLogbookRecorderBatches(t *testing.T) {
	store := &memoryStore{}
	runID := uuid.New()
	r := NewLogbookRecorder(store, runID, 3)

	require.NoError(t, r.Start(nil))
	for gen := range 7 {
		require.NoError(t, r.Generation(record(gen), nil))
	}
	require.Len(t, store.batches, 2)

	require.NoError(t, r.Finish(nil))
	require.Len(t, store.batches, 3)
	assert.Len(t, store.batches[0], 3)
	assert.Len(t, store.batches[1], 3)
	assert.Len(t, store.batches[2], 1)

	last := store.batches[2][0]
	assert.Equal(t, runID, last.RunID)
	assert.Equal(t, 6, last.Gen)
	assert.Equal(t, 70, last.Evals)
	assert.Equal(t, []float64{3, 40}, last.Min)

	// 没有剩余记录时不会写入
	require.NoError(t, r.Finish(nil))
	assert.Len(t, store.batches, 3)
}

func TestLogbookRecorderPropagatesErrors(t *testing.T) {
	store := &memoryStore{err: errors.New("数据库不可用")}
	r := NewLogbookRecorder(store, uuid.New(), 1)

	assert.Error(t, r.Generation(record(0), nil))
}

func TestNewProgress(t *testing.T) {
	now := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)
	p := newProgress(record(4), 1000, now)

	assert.Equal(t, 4, p.Gen)
	assert.Equal(t, 50, p.Evaluations)
	assert.Equal(t, 1000, p.Budget)
	assert.Equal(t, []float64{3, 40}, p.Min)
	assert.Equal(t, []float64{5, 50}, p.Avg)
	assert.Equal(t, now, p.UpdatedAt)

	data, err := json.Marshal(p)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"budget":1000`)
}

func testSchedule() *schedule.Schedule {
	ids := schedule.NewIDAllocator(0)
	a := ids.New(20).Set(0, 2)
	b := ids.New(10).Set(0, 1)
	c := ids.New(30).Set(4, 3)

	s := schedule.New()
	s.AddAssignment(a, b, c)
	s.AddConstraint(
		schedule.NewRelationConstraint(schedule.FinishToStart, a, b),
		schedule.NewRelationConstraint(schedule.FinishToStart, b, c),
		schedule.NewResourceConstraint(schedule.NewResource("Resource 0", 10), a, c),
	)
	return s
}

func runEngine(t *testing.T) *scheduler.Result {
	t.Helper()

	seed := int64(7)
	params := scheduler.DefaultParameters()
	params.MaxEvaluations = 30
	params.PMin, params.PMax = -2, 2
	params.Seed = &seed

	engine, err := scheduler.New(testSchedule(), params)
	require.NoError(t, err)
	st, err := scheduler.NewStrategy("shc", json.RawMessage(`{"mu": 3}`))
	require.NoError(t, err)

	result, err := engine.Run(context.Background(), st)
	require.NoError(t, err)
	return result
}

func TestNewSolution(t *testing.T) {
	result := runEngine(t)
	runID := uuid.New()

	solution, err := NewSolution(runID, result)
	require.NoError(t, err)
	assert.Equal(t, runID, solution.RunID)
	assert.Equal(t, []float64(result.Best.Genes), solution.Individual)
	assert.Equal(t, result.Best.Fitness[0], solution.Scores["penalty"])
	assert.Equal(t, result.OriginalScores[1], solution.OriginalScores["makespan"])

	// 保存的排程表可以重建出与最优解一致的排程
	tables := &schedule.Tables{}
	require.NoError(t, json.Unmarshal(solution.Schedule, tables))
	s, err := tables.Build()
	require.NoError(t, err)
	assert.Equal(t, result.BestSchedule.Len(), s.Len())
	assert.Equal(t, result.BestSchedule.TotalPenalty(), s.TotalPenalty())
	assert.Equal(t, result.BestSchedule.TotalMakespan(), s.TotalMakespan())
}

func TestRunMails(t *testing.T) {
	result := runEngine(t)
	run := &domain.Run{ID: uuid.New(), Algorithm: "shc", Status: domain.RunStatusFinished}
	instance := &domain.Instance{Name: "random_3_abcd1234"}

	finished := NewRunFinishedMail(run, instance, result)
	assert.Equal(t, run.ID.String(), finished.RunID)
	assert.Equal(t, "random_3_abcd1234", finished.InstanceName)
	assert.Equal(t, result.Evaluations, finished.Evaluations)
	assert.Contains(t, finished.Scores, "makespan")
	assert.Empty(t, finished.Error)

	run.Status = domain.RunStatusFailed
	run.Error = "运行被中断"
	failed := NewRunFailedMail(run, instance)
	assert.Equal(t, domain.RunStatusFailed, failed.Status)
	assert.Equal(t, "运行被中断", failed.Error)
	assert.Nil(t, failed.Scores)
}
