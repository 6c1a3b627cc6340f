package scheduler

import "math/rand"

// randomIndividual 在 [pmin, pmax) 内随机生成基因，seed 不为空时叠加到 seed 上
func randomIndividual(rng *rand.Rand, size, pmin, pmax int, seed []float64) *Individual {
	genes := make([]float64, size)
	for i := range genes {
		genes[i] = float64(pmin + rng.Intn(pmax-pmin))
		if seed != nil {
			genes[i] += seed[i]
		}
	}
	return NewIndividual(genes)
}

// 均匀交叉：每个位置以 indpb 的概率交换两个染色体的基因
func cxUniform(rng *rand.Rand, ind1, ind2 *Individual, indpb float64) {
	for i := range min(len(ind1.Genes), len(ind2.Genes)) {
		if rng.Float64() < indpb {
			ind1.Genes[i], ind2.Genes[i] = ind2.Genes[i], ind1.Genes[i]
		}
	}
}

// 高斯变异：每个位置以 indpb 的概率加上 N(mu, sigma) 的扰动
func mutGaussian(rng *rand.Rand, ind *Individual, mu, sigma, indpb float64) {
	for i := range ind.Genes {
		if rng.Float64() < indpb {
			ind.Genes[i] += mu + sigma*rng.NormFloat64()
		}
	}
}

// 均匀变异：每个位置以 indpb 的概率加上 U(-sigma, sigma) 的扰动
func mutUniform(rng *rand.Rand, ind *Individual, sigma, indpb float64) {
	for i := range ind.Genes {
		if rng.Float64() < indpb {
			ind.Genes[i] += uniform(rng, -sigma, sigma)
		}
	}
}

/**
 * varOr 产生 lambda 个后代，每个后代只经历交叉、变异、复制三者之一
 * 交叉：随机取两个不同的父代，均匀交叉后保留第一个子代
 * 变异：随机取一个父代进行高斯变异
 * 复制：随机取一个父代的副本，保留其目标值
 */
func varOr(rng *rand.Rand, population []*Individual, lambda int, p *GAParameters) []*Individual {
	offspring := make([]*Individual, 0, lambda)

	for range lambda {
		op := rng.Float64()
		switch {
		case op < p.CrossoverProb && len(population) > 1:
			picked := sample(rng, len(population), 2)
			ind1 := population[picked[0]].Clone()
			ind2 := population[picked[1]].Clone()
			cxUniform(rng, ind1, ind2, p.CrossoverIndProb)
			ind1.Invalidate()
			clampNegative(ind1)
			offspring = append(offspring, ind1)
		case op < p.CrossoverProb+p.MutationProb:
			ind := population[rng.Intn(len(population))].Clone()
			mutGaussian(rng, ind, p.MutationMu, p.MutationSigma, p.MutationIndProb)
			ind.Invalidate()
			clampNegative(ind)
			offspring = append(offspring, ind)
		default:
			offspring = append(offspring, population[rng.Intn(len(population))].Clone())
		}
	}

	return offspring
}
