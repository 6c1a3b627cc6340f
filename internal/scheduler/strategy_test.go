package scheduler

import (
	"context"
	"encoding/json"
	"math"
	"slices"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sysu-ecnc-dev/eaplanner/internal/interpreter"
	"github.com/sysu-ecnc-dev/eaplanner/internal/ranking"
)

func TestPPAFitness(t *testing.T) {
	assert.InDeltaSlice(t, []float64{0.5 * (math.Tanh(2) + 1)}, ppaFitness([]int{1}), 1e-12)

	fitness := ppaFitness([]int{1, 2, 3})
	assert.InDelta(t, 0.98201379, fitness[0], 1e-8)
	assert.InDelta(t, 0.5, fitness[1], 1e-12)
	assert.InDelta(t, 0.01798621, fitness[2], 1e-8)

	// 同一前沿共享适应度
	fitness = ppaFitness([]int{1, 1, 2})
	assert.Equal(t, fitness[0], fitness[1])
	assert.Greater(t, fitness[0], fitness[2])
}

func TestSelectBest(t *testing.T) {
	population := []*Individual{
		individual([]float64{0}, 5, 5),
		individual([]float64{1}, 10, 10),
		individual([]float64{2}, 0, 9),
		individual([]float64{3}, 6, 1),
		individual([]float64{4}, 5, 5),
	}

	selected := selectBest(population, 4)
	require.Len(t, selected, 4)
	// 第一层前沿按字典序，相同目标值保持原有先后
	assert.Same(t, population[2], selected[0])
	assert.Same(t, population[0], selected[1])
	assert.Same(t, population[4], selected[2])
	assert.Same(t, population[3], selected[3])

	assert.Len(t, selectBest(population, 10), 5)
}

func TestPPAOffspringCount(t *testing.T) {
	ppa, err := NewPPA(PPAParameters{Mu: 4, Lambda: 5, MutationIndProb: 1, MutationSigma: 1})
	require.NoError(t, err)
	e, err := New(testSchedule(), testParameters(10))
	require.NoError(t, err)

	population := []*Individual{
		individual([]float64{0, 0}, 0, 0),
		individual([]float64{0, 0}, 1, 1),
	}
	offspring := ppa.offspring(e, population)

	// 最好的个体至多产生 ceil(5 * 0.98) 个后代，最差的至多 1 个
	assert.LessOrEqual(t, len(offspring), 5+1)
	for _, child := range offspring {
		assert.False(t, child.Valid())
		for _, g := range child.Genes {
			assert.LessOrEqual(t, math.Abs(g), 2.0)
		}
	}
}

func TestPSOPersonalBestKeptOnTie(t *testing.T) {
	pso, err := NewPSO(PSOParameters{Mu: 1, Phi1: 1, Phi2: 1, SMin: -1, SMax: 1, Weight: 0.5})
	require.NoError(t, err)
	e, err := New(testSchedule(), testParameters(10))
	require.NoError(t, err)

	part := e.NewPopulation(1)[0]
	_, err = e.Evaluate(context.Background(), []*Individual{part})
	require.NoError(t, err)
	previous := &Individual{Genes: make(interpreter.Chromosome, len(part.Genes)), Fitness: slices.Clone(part.Fitness)}
	part.Best = previous

	_, err = pso.Step(context.Background(), e, []*Individual{part})
	require.NoError(t, err)

	assert.Same(t, previous, part.Best)
	for _, v := range part.Velocity {
		assert.GreaterOrEqual(t, v, -1.0)
		assert.LessOrEqual(t, v, 1.0)
	}
	assert.True(t, part.Valid())
}

func TestPSOGlobalBestIsCopy(t *testing.T) {
	pso, err := NewPSO(DefaultPSOParameters())
	require.NoError(t, err)
	e, err := New(testSchedule(), testParameters(10))
	require.NoError(t, err)

	population := pso.Populate(e)
	for _, part := range population {
		require.Len(t, part.Velocity, len(part.Genes))
	}
	_, err = e.Evaluate(context.Background(), population)
	require.NoError(t, err)

	order := ranking.Order(fitnesses(population))
	bestScores := slices.Clone(population[order[0]].Fitness)

	_, err = pso.Step(context.Background(), e, population)
	require.NoError(t, err)

	assert.Equal(t, bestScores, pso.best.Fitness)
	for _, part := range population {
		assert.NotSame(t, part, pso.best)
	}
}

func TestHillClimbNeverGetsWorse(t *testing.T) {
	shc, err := NewSHC(SHCParameters{Mu: 3, MutationIndProb: 0.5, MutationSigma: 2})
	require.NoError(t, err)
	e, err := New(testSchedule(), testParameters(10))
	require.NoError(t, err)

	population := shc.Populate(e)
	_, err = e.Evaluate(context.Background(), population)
	require.NoError(t, err)

	for range 20 {
		g, err := shc.Step(context.Background(), e, population)
		require.NoError(t, err)
		assert.Equal(t, 3, g.Evaluated)
		for i := range population {
			assert.True(t, ranking.LessOrEqual(g.Population[i].Fitness, population[i].Fitness))
		}
		population = g.Population
	}
}

func TestTransitionProbability(t *testing.T) {
	assert.InDelta(t, 1, transitionProbability([]float64{1, 1}, []float64{1, 1}, 10), 1e-12)
	assert.InDelta(t, math.Exp(-0.5), transitionProbability([]float64{5, 5}, []float64{3, 2}, 10), 1e-12)
	// 各目标的差值直接相加，一个目标变差另一个目标变好时可能相互抵消
	assert.InDelta(t, 1, transitionProbability([]float64{0, 10}, []float64{5, 5}, 10), 1e-12)
}

func TestSATemperatureDecays(t *testing.T) {
	sa, err := NewSA(SAParameters{SHCParameters: SHCParameters{Mu: 1, MutationIndProb: 0.1, MutationSigma: 1}, Temperature: 100, Alpha: 0.5})
	require.NoError(t, err)
	e, err := New(testSchedule(), testParameters(10))
	require.NoError(t, err)

	population := sa.Populate(e)
	_, err = e.Evaluate(context.Background(), population)
	require.NoError(t, err)

	_, err = sa.Step(context.Background(), e, population)
	require.NoError(t, err)
	assert.Equal(t, 50.0, sa.Temperature())
}

func TestNewStrategy(t *testing.T) {
	st, err := NewStrategy("ga", nil)
	require.NoError(t, err)
	assert.Equal(t, DefaultGAParameters(), st.(*GA).params)

	st, err = NewStrategy("sa", json.RawMessage(`{"mu": 4, "alpha": 0.9}`))
	require.NoError(t, err)
	sa := st.(*SA)
	assert.Equal(t, 4, sa.params.Mu)
	assert.Equal(t, 0.9, sa.params.Alpha)
	assert.Equal(t, 100.0, sa.params.Temperature)

	_, err = NewStrategy("nsga", nil)
	assert.ErrorIs(t, err, ErrUnknownAlgorithm)

	_, err = NewStrategy("ga", json.RawMessage(`{"cxpb": 0.8, "mutpb": 0.5}`))
	assert.ErrorIs(t, err, ErrInvalidParameters)

	_, err = NewStrategy("pso", json.RawMessage(`{"mu": "many"}`))
	assert.ErrorIs(t, err, ErrInvalidParameters)

	for _, name := range Algorithms {
		p, err := DefaultStrategyParameters(name)
		require.NoError(t, err)
		assert.NotNil(t, p)
	}
}

func TestParseParameters(t *testing.T) {
	p, err := ParseParameters("pso", json.RawMessage(`{"mu": 12, "smax": 3}`))
	require.NoError(t, err)
	pso, ok := p.(*PSOParameters)
	require.True(t, ok)
	assert.Equal(t, 12, pso.Mu)
	assert.Equal(t, 3.0, pso.SMax)
	assert.Equal(t, DefaultPSOParameters().Phi1, pso.Phi1)

	p, err = ParseParameters("shc", nil)
	require.NoError(t, err)
	assert.Equal(t, DefaultSHCParameters(), *p.(*SHCParameters))

	_, err = ParseParameters("tabu", nil)
	assert.ErrorIs(t, err, ErrUnknownAlgorithm)
}
