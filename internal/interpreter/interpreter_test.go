package interpreter

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sysu-ecnc-dev/eaplanner/internal/schedule"
)

func newSchedule(assignments ...*schedule.Assignment) *schedule.Schedule {
	s := schedule.New()
	s.AddAssignment(assignments...)
	return s
}

func TestDecode(t *testing.T) {
	assignments := []*schedule.Assignment{
		schedule.NewAssignment(0, 0),
		schedule.NewAssignment(1, 0),
		schedule.NewAssignment(2, 0),
	}
	s := newSchedule(assignments...)
	in := New(s, 0, rand.New(rand.NewSource(1)))

	require.NoError(t, in.Decode(Chromosome{0, 1, 9, 1, 3, 1}))

	assert.Equal(t, 0, assignments[0].Start)
	assert.Equal(t, 1, assignments[0].Duration())
	assert.Equal(t, 9, assignments[1].Start)
	assert.Equal(t, 1, assignments[1].Duration())
	assert.Equal(t, 3, assignments[2].Start)
	assert.Equal(t, 1, assignments[2].Duration())
	assert.Equal(t, 10, s.TotalMakespan())
	assert.Zero(t, s.TotalPenalty())
}

func TestDecodeRoundsAndClamps(t *testing.T) {
	a := schedule.NewAssignment(0, 10)
	b := schedule.NewAssignment(1, 10)
	in := New(newSchedule(a, b), 0, rand.New(rand.NewSource(1)))

	require.NoError(t, in.Decode(Chromosome{2.4, -3, 2.5, 3.6}))

	assert.Equal(t, 2, a.Start)
	assert.Equal(t, 1, a.Duration())
	// 与 numpy 一致，.5 舍入到偶数
	assert.Equal(t, 2, b.Start)
	assert.Equal(t, 4, b.Duration())
	assert.Equal(t, 3, b.HoursPerDay())
}

func TestDecodeUsesIDOrder(t *testing.T) {
	late := schedule.NewAssignment(5, 0)
	early := schedule.NewAssignment(2, 0)
	in := New(newSchedule(late, early), 0, rand.New(rand.NewSource(1)))

	require.NoError(t, in.Decode(Chromosome{1, 2, 7, 3}))

	assert.Equal(t, 1, early.Start)
	assert.Equal(t, 7, late.Start)
	assert.Equal(t, Chromosome{1, 2, 7, 3}, in.Encode())
}

func TestDecodeLengthMismatch(t *testing.T) {
	in := New(newSchedule(schedule.NewAssignment(0, 0)), 0, rand.New(rand.NewSource(1)))

	assert.ErrorIs(t, in.Decode(Chromosome{1}), ErrLengthMismatch)

	_, _, err := in.Evaluate(Chromosome{1, 2, 3})
	assert.ErrorIs(t, err, ErrLengthMismatch)
}

func TestDecodeIdempotent(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	ids := schedule.NewIDAllocator(0)
	s := schedule.New()
	for range 20 {
		s.AddAssignment(ids.New(rng.Intn(50)).Set(rng.Intn(30)-10, rng.Intn(6)))
	}
	in := New(s, 0, rng)

	encoded := in.Encode()
	require.NoError(t, in.Decode(encoded))

	assert.Equal(t, encoded, in.Encode())
}

func TestEvaluateWithoutRepair(t *testing.T) {
	a := schedule.NewAssignment(0, 0)
	b := schedule.NewAssignment(1, 0)
	s := newSchedule(a, b)
	s.AddConstraint(schedule.NewRelationConstraint(schedule.FinishToStart, a, b))
	in := New(s, 0, rand.New(rand.NewSource(1)))

	scores, genes, err := in.Evaluate(Chromosome{4, 2, 0, 1})
	require.NoError(t, err)

	assert.Equal(t, Scores{6, 6}, scores)
	assert.Equal(t, 6.0, scores.Penalty())
	assert.Equal(t, 6.0, scores.Makespan())
	assert.Equal(t, Chromosome{4, 2, 0, 1}, genes)
}

func TestEvaluateWithRepair(t *testing.T) {
	a := schedule.NewAssignment(0, 0)
	b := schedule.NewAssignment(1, 0)
	s := newSchedule(a, b)
	s.AddConstraint(schedule.NewRelationConstraint(schedule.FinishToStart, a, b))
	in := New(s, 1, rand.New(rand.NewSource(1)))

	scores, genes, err := in.Evaluate(Chromosome{4, 2, 0, 1})
	require.NoError(t, err)

	// 修复的结果会反映在返回的染色体中
	assert.Equal(t, Scores{0, 3}, scores)
	assert.Equal(t, Chromosome{4, 2, 6, 1}, genes)
}

func TestClone(t *testing.T) {
	a := schedule.NewAssignment(0, 0)
	in := New(newSchedule(a), 0, rand.New(rand.NewSource(1)))

	clone := in.Clone(2)
	require.NoError(t, clone.Decode(Chromosome{8, 3}))

	assert.Equal(t, 0, a.Start)
	assert.Equal(t, Chromosome{8, 3}, clone.Encode())
	assert.NotSame(t, in.Schedule(), clone.Schedule())
}

func TestScoresNamed(t *testing.T) {
	assert.Equal(t, map[string]float64{"penalty": 3, "makespan": 12}, Scores{3, 12}.Named())
}
