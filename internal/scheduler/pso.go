package scheduler

import (
	"context"
	"fmt"
	"slices"

	"github.com/sysu-ecnc-dev/eaplanner/internal/ranking"
)

type PSOParameters struct {
	Mu     int     `json:"mu" validate:"required,min=1"`
	Phi1   float64 `json:"phi1" validate:"min=0"`
	Phi2   float64 `json:"phi2" validate:"min=0"`
	SMin   float64 `json:"smin"`
	SMax   float64 `json:"smax" validate:"gtefield=SMin"`
	Weight float64 `json:"weight"`
}

func DefaultPSOParameters() PSOParameters {
	return PSOParameters{
		Mu:     200,
		Phi1:   4,
		Phi2:   6,
		SMin:   -2,
		SMax:   2,
		Weight: 1,
	}
}

func (p PSOParameters) check() error {
	switch {
	case p.Mu < 1:
		return fmt.Errorf("%w: mu 必须大于 0", ErrInvalidParameters)
	case p.Phi1 < 0 || p.Phi2 < 0:
		return fmt.Errorf("%w: phi1 和 phi2 不能为负数", ErrInvalidParameters)
	case p.SMax < p.SMin:
		return fmt.Errorf("%w: smax 不能小于 smin", ErrInvalidParameters)
	}
	return nil
}

// PSO 是粒子群算法，位置即基因，每个粒子记录自己的速度和历史最优
type PSO struct {
	params PSOParameters
	best   *Individual // 全局最优
}

func NewPSO(params PSOParameters) (*PSO, error) {
	if err := params.check(); err != nil {
		return nil, err
	}
	return &PSO{params: params}, nil
}

func (pso *PSO) Name() string {
	return "pso"
}

func (pso *PSO) String() string {
	p := pso.params
	return fmt.Sprintf("PSO(mu=%d, phi1=%g, phi2=%g, smin=%g, smax=%g, weight=%g)", p.Mu, p.Phi1, p.Phi2, p.SMin, p.SMax, p.Weight)
}

func (pso *PSO) Populate(e *Engine) []*Individual {
	rng := e.Rand()
	population := e.NewPopulation(pso.params.Mu)
	for _, part := range population {
		part.Velocity = make([]float64, len(part.Genes))
		for i := range part.Velocity {
			part.Velocity[i] = uniform(rng, pso.params.SMin, pso.params.SMax)
		}
	}
	return population
}

func (pso *PSO) Step(ctx context.Context, e *Engine, population []*Individual) (*Generation, error) {
	// 只有严格更好时才替换个体最优
	for _, part := range population {
		if part.Best == nil || ranking.Compare(part.Fitness, part.Best.Fitness) < 0 {
			part.Best = &Individual{
				Genes:   part.Genes.Clone(),
				Fitness: slices.Clone(part.Fitness),
			}
		}
	}

	candidates := slices.Clone(population)
	if pso.best != nil {
		candidates = append(candidates, pso.best)
	}
	order := ranking.Order(fitnesses(candidates))
	pso.best = &Individual{
		Genes:   candidates[order[0]].Genes.Clone(),
		Fitness: slices.Clone(candidates[order[0]].Fitness),
	}

	for _, part := range population {
		pso.move(e, part)
	}

	evaluated, err := e.Evaluate(ctx, population)
	if err != nil {
		return nil, err
	}

	return &Generation{
		Population: population,
		Evaluated:  evaluated,
		Candidates: population,
	}, nil
}

// move 更新粒子的速度并移动位置，速度逐分量截断到 [smin, smax]
func (pso *PSO) move(e *Engine, part *Individual) {
	rng := e.Rand()
	p := pso.params

	if part.Velocity == nil {
		part.Velocity = make([]float64, len(part.Genes))
	}

	for i := range part.Genes {
		u1 := uniform(rng, 0, p.Phi1)
		u2 := uniform(rng, 0, p.Phi2)
		v := p.Weight*part.Velocity[i] +
			u1*(part.Best.Genes[i]-part.Genes[i]) +
			u2*(pso.best.Genes[i]-part.Genes[i])
		part.Velocity[i] = min(max(v, p.SMin), p.SMax)
		part.Genes[i] += part.Velocity[i]
	}

	part.Invalidate()
}
