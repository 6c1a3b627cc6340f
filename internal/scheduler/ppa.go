package scheduler

import (
	"context"
	"fmt"
	"math"
	"slices"

	"github.com/sysu-ecnc-dev/eaplanner/internal/ranking"
)

type PPAParameters struct {
	Mu              int     `json:"mu" validate:"required,min=1"`
	Lambda          int     `json:"lambda" validate:"required,min=1"`
	MutationIndProb float64 `json:"mutIndpb" validate:"min=0,max=1"`
	MutationSigma   float64 `json:"mutSigma" validate:"min=0"`
}

func DefaultPPAParameters() PPAParameters {
	return PPAParameters{
		Mu:              200,
		Lambda:          10,
		MutationIndProb: 0.5,
		MutationSigma:   2,
	}
}

func (p PPAParameters) check() error {
	switch {
	case p.Mu < 1 || p.Lambda < 1:
		return fmt.Errorf("%w: mu 和 lambda 必须大于 0", ErrInvalidParameters)
	case p.MutationIndProb < 0 || p.MutationIndProb > 1:
		return fmt.Errorf("%w: mut_indpb 必须在 [0, 1] 之间", ErrInvalidParameters)
	case p.MutationSigma < 0:
		return fmt.Errorf("%w: mut_sigma 不能为负数", ErrInvalidParameters)
	}
	return nil
}

/**
 * PPA 是植物繁殖算法
 * 越好的个体产生越多的后代，后代离父代越近；较差的个体产生少量但变化更大的后代。
 */
type PPA struct {
	params PPAParameters
}

func NewPPA(params PPAParameters) (*PPA, error) {
	if err := params.check(); err != nil {
		return nil, err
	}
	return &PPA{params: params}, nil
}

func (ppa *PPA) Name() string {
	return "ppa"
}

func (ppa *PPA) String() string {
	p := ppa.params
	return fmt.Sprintf("PPA(mu=%d, lambda=%d, mut_indpb=%g, mut_sigma=%g)", p.Mu, p.Lambda, p.MutationIndProb, p.MutationSigma)
}

func (ppa *PPA) Populate(e *Engine) []*Individual {
	return e.NewPopulation(ppa.params.Mu)
}

func (ppa *PPA) Step(ctx context.Context, e *Engine, population []*Individual) (*Generation, error) {
	offspring := ppa.offspring(e, population)

	evaluated, err := e.Evaluate(ctx, offspring)
	if err != nil {
		return nil, err
	}

	pool := make([]*Individual, 0, len(population)+len(offspring))
	pool = append(pool, population...)
	pool = append(pool, offspring...)

	return &Generation{
		Population: selectBest(pool, ppa.params.Mu),
		Evaluated:  evaluated,
		Candidates: offspring,
	}, nil
}

func (ppa *PPA) offspring(e *Engine, population []*Individual) []*Individual {
	rng := e.Rand()
	fitness := ppaFitness(ranking.ParetoRank(fitnesses(population)))

	offspring := make([]*Individual, 0)
	for i, ind := range population {
		n := int(math.Ceil(float64(ppa.params.Lambda) * fitness[i] * rng.Float64()))
		for range n {
			child := ind.Clone()
			for j := range child.Genes {
				// 先抽取扰动再判断是否生效，两者相互独立
				delta := 2 * uniform(rng, -ppa.params.MutationSigma, ppa.params.MutationSigma) * (1 - fitness[i])
				if rng.Float64() < ppa.params.MutationIndProb {
					child.Genes[j] += delta
				}
			}
			child.Invalidate()
			offspring = append(offspring, child)
		}
	}

	return offspring
}

// ppaFitness 把帕累托等级归一化到 [0, 1]，再用 S 形曲线放大头部个体的优势
func ppaFitness(ranks []int) []float64 {
	n := len(ranks)
	fitness := make([]float64, n)
	for i, rank := range ranks {
		f := 1.0
		if n > 1 {
			f = float64(n-rank) / float64(n-1)
		}
		fitness[i] = 0.5 * (math.Tanh(4*f-2) + 1)
	}
	return fitness
}

// selectBest 按帕累托等级选出最好的 k 个个体，等级相同时按字典序
func selectBest(individuals []*Individual, k int) []*Individual {
	values := fitnesses(individuals)
	ranks := ranking.ParetoRank(values)

	order := make([]int, len(individuals))
	for i := range order {
		order[i] = i
	}
	slices.SortStableFunc(order, func(i, j int) int {
		if ranks[i] != ranks[j] {
			return ranks[i] - ranks[j]
		}
		return ranking.Compare(values[i], values[j])
	})

	selected := make([]*Individual, 0, min(k, len(order)))
	for _, i := range order[:min(k, len(order))] {
		selected = append(selected, individuals[i])
	}
	return selected
}
