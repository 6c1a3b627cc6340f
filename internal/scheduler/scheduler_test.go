package scheduler

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sysu-ecnc-dev/eaplanner/internal/interpreter"
	"github.com/sysu-ecnc-dev/eaplanner/internal/ranking"
	"github.com/sysu-ecnc-dev/eaplanner/internal/schedule"
)

func testSchedule() *schedule.Schedule {
	ids := schedule.NewIDAllocator(0)
	a := ids.New(20).Set(0, 2)
	b := ids.New(10).Set(0, 1)
	c := ids.New(30).Set(5, 3)
	d := ids.New(5).Set(2, 1)

	s := schedule.New()
	s.AddAssignment(a, b, c, d)
	s.AddConstraint(
		schedule.NewRelationConstraint(schedule.FinishToStart, a, b),
		schedule.NewRelationConstraint(schedule.FinishToStart, b, c),
		schedule.NewRelationConstraint(schedule.StartToStart, a, d),
		schedule.NewResourceConstraint(schedule.NewResource("Resource 0", 10), a, c),
		schedule.NewDateConstraint(schedule.MustStartOn, d, 3),
	)
	return s
}

func testParameters(neval int) Parameters {
	seed := int64(42)
	p := DefaultParameters()
	p.MaxEvaluations = neval
	p.PMin, p.PMax = -3, 3
	p.Seed = &seed
	return p
}

type countingRecorder struct {
	started     int
	generations []Record
	finished    *Result
}

func (r *countingRecorder) Start(*RunInfo) error {
	r.started++
	return nil
}

func (r *countingRecorder) Generation(record Record, population []*Individual) error {
	r.generations = append(r.generations, record)
	return nil
}

func (r *countingRecorder) Finish(result *Result) error {
	r.finished = result
	return nil
}

func TestNewRejectsInvalidParameters(t *testing.T) {
	tests := []struct {
		name   string
		modify func(p *Parameters)
	}{
		{"评估次数为 0", func(p *Parameters) { p.MaxEvaluations = 0 }},
		{"pmax 不大于 pmin", func(p *Parameters) { p.PMax = p.PMin }},
		{"修复比例超出范围", func(p *Parameters) { p.RepairPct = 1.5 }},
		{"精英档案为空", func(p *Parameters) { p.HallOfFameSize = 0 }},
		{"并行度为负数", func(p *Parameters) { p.Parallelism = -1 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := testParameters(10)
			tt.modify(&p)
			_, err := New(testSchedule(), p)
			assert.ErrorIs(t, err, ErrInvalidParameters)
		})
	}

	_, err := New(schedule.New(), testParameters(10))
	assert.ErrorIs(t, err, ErrInvalidParameters)
}

func TestEngineDoesNotMutateInstance(t *testing.T) {
	s := testSchedule()
	before := s.Tables()

	e, err := New(s, testParameters(10))
	require.NoError(t, err)

	population := e.NewPopulation(5)
	_, err = e.Evaluate(context.Background(), population)
	require.NoError(t, err)

	assert.Equal(t, before, s.Tables())
	assert.Equal(t, interpreter.Scores{s.TotalPenalty(), float64(s.TotalMakespan())}, e.OriginalScores())
}

func TestEngineEvaluateOnlyInvalid(t *testing.T) {
	e, err := New(testSchedule(), testParameters(10))
	require.NoError(t, err)

	population := e.NewPopulation(4)
	population[0].Fitness = interpreter.Scores{-1, -1}

	n, err := e.Evaluate(context.Background(), population)
	require.NoError(t, err)
	assert.Equal(t, 3, n)
	assert.Equal(t, interpreter.Scores{-1, -1}, population[0].Fitness)
	for _, ind := range population[1:] {
		assert.True(t, ind.Valid())
		assert.Len(t, ind.Genes, 8)
	}

	n, err = e.Evaluate(context.Background(), population)
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestPoolMapperMatchesSequential(t *testing.T) {
	sequential := testParameters(10)
	sequential.RepairPct = 0
	parallel := sequential
	parallel.Parallelism = 4

	es, err := New(testSchedule(), sequential)
	require.NoError(t, err)
	ep, err := New(testSchedule(), parallel)
	require.NoError(t, err)
	require.IsType(t, &PoolMapper{}, ep.mapper)

	population := es.NewPopulation(50)
	copies := make([]*Individual, 0, len(population))
	for _, ind := range population {
		copies = append(copies, ind.Clone())
	}

	_, err = es.Evaluate(context.Background(), population)
	require.NoError(t, err)
	_, err = ep.Evaluate(context.Background(), copies)
	require.NoError(t, err)

	for i := range population {
		assert.Equal(t, population[i].Fitness, copies[i].Fitness)
		assert.Equal(t, population[i].Genes, copies[i].Genes)
	}
}

func TestRunAllStrategies(t *testing.T) {
	small := map[string]string{
		"ga":  `{"mu": 8, "lambda": 8}`,
		"ppa": `{"mu": 8, "lambda": 4}`,
		"pso": `{"mu": 8}`,
		"shc": `{"mu": 2}`,
		"sa":  `{"mu": 2, "temp": 10}`,
	}

	for _, name := range Algorithms {
		t.Run(name, func(t *testing.T) {
			st, err := NewStrategy(name, json.RawMessage(small[name]))
			require.NoError(t, err)
			assert.Equal(t, name, st.Name())

			recorder := &countingRecorder{}
			params := testParameters(60)
			params.HallOfFameSize = 3
			e, err := New(testSchedule(), params, recorder)
			require.NoError(t, err)

			result, err := e.Run(context.Background(), st)
			require.NoError(t, err)

			assert.Equal(t, 1, recorder.started)
			assert.Same(t, result, recorder.finished)
			assert.GreaterOrEqual(t, result.Evaluations, 60)
			assert.Equal(t, result.Evaluations, e.Evaluations())
			require.NotEmpty(t, recorder.generations)
			assert.Equal(t, 0, recorder.generations[0].Gen)
			assert.Equal(t, result.Logbook.Len(), len(recorder.generations))
			assert.Equal(t, result.Evaluations, result.Logbook.Last().Evals)

			// 预算只在两代之间检查，倒数第二代结束时必然还没用完
			if n := result.Logbook.Len(); n > 1 {
				assert.Less(t, result.Logbook.Records[n-2].Evals, 60)
			}

			total := 0
			for _, r := range result.Logbook.Records {
				total += r.NEvals
			}
			assert.Equal(t, result.Evaluations, total)

			require.NotNil(t, result.Best)
			assert.LessOrEqual(t, len(result.HallOfFame), 3)
			for _, ind := range result.HallOfFame {
				assert.True(t, ranking.LessOrEqual(result.Best.Fitness, ind.Fitness))
			}
			for _, r := range result.Logbook.Records {
				assert.LessOrEqual(t, result.Best.Fitness.Penalty(), r.Min[0])
			}

			require.NotNil(t, result.BestSchedule)
			assert.Equal(t, result.Best.Fitness.Penalty(), result.BestSchedule.TotalPenalty())
			assert.Equal(t, result.Best.Fitness.Makespan(), float64(result.BestSchedule.TotalMakespan()))

			solution := result.Solution()
			assert.Equal(t, []float64(result.Best.Genes), solution.Individual)
			assert.Equal(t, result.Best.Fitness.Named(), solution.Scores)
		})
	}
}

func TestRunIsReproducibleWithSeed(t *testing.T) {
	run := func() *Result {
		st, err := NewStrategy("ga", json.RawMessage(`{"mu": 6, "lambda": 6}`))
		require.NoError(t, err)
		e, err := New(testSchedule(), testParameters(40))
		require.NoError(t, err)
		result, err := e.Run(context.Background(), st)
		require.NoError(t, err)
		return result
	}

	a, b := run(), run()
	assert.Equal(t, a.Best.Genes, b.Best.Genes)
	assert.Equal(t, a.Logbook.Records, b.Logbook.Records)
}

func TestRunStopsOnCancelledContext(t *testing.T) {
	st, err := NewStrategy("shc", nil)
	require.NoError(t, err)
	e, err := New(testSchedule(), testParameters(100))
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err = e.Run(ctx, st)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestSeedPopulation(t *testing.T) {
	s := testSchedule()
	params := testParameters(10)
	params.PMin, params.PMax = 0, 1

	e, err := New(s, params)
	require.NoError(t, err)

	original := interpreter.New(s, 0, nil).Encode()
	for _, ind := range e.NewPopulation(3) {
		assert.Equal(t, original, ind.Genes)
	}

	params.SeedPopulation = false
	e, err = New(s, params)
	require.NoError(t, err)
	for _, ind := range e.NewPopulation(3) {
		for _, g := range ind.Genes {
			assert.Zero(t, g)
		}
	}
}
