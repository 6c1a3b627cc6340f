package scheduler

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRandomIndividual(t *testing.T) {
	rng := rand.New(rand.NewSource(1))

	ind := randomIndividual(rng, 100, -5, 5, nil)
	require.Len(t, ind.Genes, 100)
	assert.False(t, ind.Valid())
	for _, g := range ind.Genes {
		assert.GreaterOrEqual(t, g, -5.0)
		assert.Less(t, g, 5.0)
		assert.Equal(t, float64(int(g)), g)
	}

	seed := make([]float64, 100)
	for i := range seed {
		seed[i] = 1000
	}
	seeded := randomIndividual(rng, 100, -5, 5, seed)
	for _, g := range seeded.Genes {
		assert.GreaterOrEqual(t, g, 995.0)
		assert.Less(t, g, 1005.0)
	}
}

func TestCxUniform(t *testing.T) {
	rng := rand.New(rand.NewSource(1))

	a := individual([]float64{1, 2, 3})
	b := individual([]float64{4, 5, 6})
	cxUniform(rng, a, b, 1)
	assert.Equal(t, []float64{4, 5, 6}, []float64(a.Genes))
	assert.Equal(t, []float64{1, 2, 3}, []float64(b.Genes))

	cxUniform(rng, a, b, 0)
	assert.Equal(t, []float64{4, 5, 6}, []float64(a.Genes))
}

func TestMutations(t *testing.T) {
	rng := rand.New(rand.NewSource(1))

	ind := individual([]float64{1, 2, 3})
	mutGaussian(rng, ind, 0, 1, 0)
	mutUniform(rng, ind, 1, 0)
	assert.Equal(t, []float64{1, 2, 3}, []float64(ind.Genes))

	mutUniform(rng, ind, 0.5, 1)
	for i, g := range ind.Genes {
		assert.InDelta(t, float64(i+1), g, 0.5)
	}

	ind = individual([]float64{0, 0})
	mutGaussian(rng, ind, 10, 0, 1)
	assert.Equal(t, []float64{10, 10}, []float64(ind.Genes))
}

func TestClampNegative(t *testing.T) {
	ind := individual([]float64{-1, 0, 2.5, -0.1})
	clampNegative(ind)
	assert.Equal(t, []float64{0, 0, 2.5, 0}, []float64(ind.Genes))
}

func TestVarOr(t *testing.T) {
	rng := rand.New(rand.NewSource(3))
	population := []*Individual{
		individual([]float64{-1, 2}, 0, 1),
		individual([]float64{3, -4}, 1, 0),
	}

	t.Run("只复制", func(t *testing.T) {
		p := DefaultGAParameters()
		p.CrossoverProb, p.MutationProb = 0, 0

		offspring := varOr(rng, population, 10, &p)
		require.Len(t, offspring, 10)
		for _, child := range offspring {
			assert.True(t, child.Valid())
			assert.Contains(t, [][]float64{{-1, 2}, {3, -4}}, []float64(child.Genes))
		}
		offspring[0].Genes[0] = 99
		assert.Equal(t, -1.0, population[0].Genes[0])
	})

	t.Run("只交叉", func(t *testing.T) {
		p := DefaultGAParameters()
		p.CrossoverProb, p.MutationProb = 1, 0

		offspring := varOr(rng, population, 10, &p)
		require.Len(t, offspring, 10)
		for _, child := range offspring {
			assert.False(t, child.Valid())
			for _, g := range child.Genes {
				assert.GreaterOrEqual(t, g, 0.0)
			}
		}
	})

	t.Run("只变异", func(t *testing.T) {
		p := DefaultGAParameters()
		p.CrossoverProb, p.MutationProb = 0, 1

		offspring := varOr(rng, population[:1], 5, &p)
		require.Len(t, offspring, 5)
		for _, child := range offspring {
			assert.False(t, child.Valid())
			assert.Len(t, child.Genes, 2)
		}
	})
}

func TestSample(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	for range 20 {
		picked := sample(rng, 5, 2)
		require.Len(t, picked, 2)
		assert.NotEqual(t, picked[0], picked[1])
	}
}
