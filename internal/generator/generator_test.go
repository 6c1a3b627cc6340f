package generator

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sysu-ecnc-dev/eaplanner/internal/schedule"
)

func seeded(p Params, seed int64) Params {
	p.Seed = &seed
	return p
}

func TestGenerate(t *testing.T) {
	for _, n := range []int{1, 5, 40, 120} {
		s, err := Generate(seeded(DefaultParams(n), 3))
		require.NoError(t, err)

		require.Equal(t, n, s.Len())
		assert.Equal(t, 0, s.Start())

		for i, a := range s.Assignments {
			assert.Equal(t, i, a.ID)
			assert.GreaterOrEqual(t, a.Hours, 1)
			assert.GreaterOrEqual(t, a.Duration(), 1)
		}

		groups := s.ConstraintsPerGroup()
		for _, c := range groups[schedule.RelationGroup] {
			r := c.(*schedule.RelationConstraint)
			assert.Zero(t, r.Penalty())
		}
		for _, c := range groups[schedule.DateGroup] {
			assert.Zero(t, c.Penalty())
		}

		// 资源约束划分了全部活动
		members := 0
		for _, c := range groups[schedule.ResourceGroup] {
			r := c.(*schedule.ResourceConstraint)
			assert.GreaterOrEqual(t, r.Resource.TotalCapacity(), 1.0)
			members += len(r.Members)
		}
		assert.Equal(t, n, members)
		assert.LessOrEqual(t, len(groups[schedule.ResourceGroup]), AutoResourceCount(n))

		for _, c := range s.Constraints {
			assert.False(t, c.IsEmpty())
		}
	}
}

func TestGenerateWithoutRelationsOrResources(t *testing.T) {
	p := DefaultParams(30)
	p.K = 0
	p.Resources = 0
	p.PDate = 0

	s, err := Generate(seeded(p, 1))
	require.NoError(t, err)

	assert.Equal(t, 30, s.Len())
	assert.Empty(t, s.Constraints)
}

func TestGenerateFixedResources(t *testing.T) {
	p := DefaultParams(23)
	p.Resources = 4

	s, err := Generate(seeded(p, 8))
	require.NoError(t, err)

	resources := s.ConstraintsPerGroup()[schedule.ResourceGroup]
	require.Len(t, resources, 4)

	sizes := make([]int, 0, 4)
	for i, c := range resources {
		r := c.(*schedule.ResourceConstraint)
		assert.Equal(t, "Resource "+string(rune('0'+i)), r.Resource.Name)
		sizes = append(sizes, len(r.Members))
	}
	assert.Equal(t, []int{6, 6, 6, 5}, sizes)
}

func TestGenerateAllDates(t *testing.T) {
	p := DefaultParams(50)
	p.PDate = 1
	p.Resources = 0

	s, err := Generate(seeded(p, 2))
	require.NoError(t, err)

	dates := s.ConstraintsPerGroup()[schedule.DateGroup]
	require.Len(t, dates, 50)
	for _, c := range dates {
		d := c.(*schedule.DateConstraint)
		// 权重为 0 的类型不会被选中
		assert.Contains(t, []schedule.DateType{schedule.AsLateAsPossible, schedule.MustStartOn, schedule.MustFinishOn}, d.Type)
	}
}

func TestGenerateInvalidParams(t *testing.T) {
	_, err := Generate(DefaultParams(0))
	assert.ErrorIs(t, err, ErrInvalidParams)

	p := DefaultParams(10)
	p.Resources = -2
	_, err = Generate(p)
	assert.ErrorIs(t, err, ErrInvalidParams)

	_, err = Generate(DefaultParams(MaxAssignments + 1))
	assert.ErrorIs(t, err, ErrInvalidParams)
}

func TestGenerateDropIsolated(t *testing.T) {
	p := DefaultParams(40)
	p.K = 0
	p.Resources = 0
	p.PDate = 0.5
	p.DropIsolated = true

	s, err := Generate(seeded(p, 5))
	require.NoError(t, err)

	dates := s.ConstraintsPerGroup()[schedule.DateGroup]
	require.Len(t, s.Assignments, len(dates))
	assert.Less(t, s.Len(), 40)
	for i, a := range s.Assignments {
		assert.Equal(t, i, a.ID)
	}
	for _, c := range dates {
		d := c.(*schedule.DateConstraint)
		assert.Contains(t, s.Assignments, d.Assignment)
	}
}

func TestAutoResourceCount(t *testing.T) {
	assert.Equal(t, 1, AutoResourceCount(1))
	assert.Equal(t, 6, AutoResourceCount(10))
	assert.Equal(t, 12, AutoResourceCount(100))
}

func TestSplit(t *testing.T) {
	chunks := split([]int{1, 2, 3, 4, 5, 6, 7}, 3)
	assert.Equal(t, [][]int{{1, 2, 3}, {4, 5}, {6, 7}}, chunks)

	chunks = split([]int{1, 2}, 4)
	assert.Equal(t, [][]int{{1}, {2}, {}, {}}, chunks)
}

func TestChoose(t *testing.T) {
	rng := rand.New(rand.NewSource(4))
	counts := make([]int, len(relationWeights))
	for range 10000 {
		counts[choose(rng.Float64(), relationWeights)]++
	}

	assert.Zero(t, counts[schedule.StartToFinish])
	assert.InDelta(t, 0.73, float64(counts[schedule.FinishToStart])/10000, 0.03)

	assert.Equal(t, 1, choose(0.5, dateWeights))
	assert.Equal(t, 2, choose(0.95, dateWeights))
	assert.Equal(t, 3, choose(0.9999999, dateWeights))
	assert.Equal(t, 1, choose(0, dateWeights))
}
