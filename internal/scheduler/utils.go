package scheduler

import (
	"math/rand"
	"slices"
)

// clampNegative 把负的基因截断为 0
func clampNegative(ind *Individual) {
	for i, g := range ind.Genes {
		if g < 0 {
			ind.Genes[i] = 0
		}
	}
}

// sample 从 [0, n) 中不放回地随机抽取 k 个下标
func sample(rng *rand.Rand, n, k int) []int {
	return slices.Clone(rng.Perm(n)[:k])
}

func uniform(rng *rand.Rand, a, b float64) float64 {
	return a + (b-a)*rng.Float64()
}
