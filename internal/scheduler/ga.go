package scheduler

import (
	"context"
	"fmt"
)

type GAParameters struct {
	Mu               int     `json:"mu" validate:"required,min=1"`
	Lambda           int     `json:"lambda" validate:"required,min=1"`
	CrossoverProb    float64 `json:"cxpb" validate:"min=0,max=1"`
	CrossoverIndProb float64 `json:"cxIndpb" validate:"min=0,max=1"`
	MutationProb     float64 `json:"mutpb" validate:"min=0,max=1"`
	MutationIndProb  float64 `json:"mutIndpb" validate:"min=0,max=1"`
	MutationMu       float64 `json:"mutMu"`
	MutationSigma    float64 `json:"mutSigma" validate:"min=0"`
}

func DefaultGAParameters() GAParameters {
	return GAParameters{
		Mu:               200,
		Lambda:           200,
		CrossoverProb:    0.5,
		CrossoverIndProb: 0.5,
		MutationProb:     0.1,
		MutationIndProb:  0.5,
		MutationMu:       0,
		MutationSigma:    2,
	}
}

func (p GAParameters) check() error {
	switch {
	case p.Mu < 1 || p.Lambda < 1:
		return fmt.Errorf("%w: mu 和 lambda 必须大于 0", ErrInvalidParameters)
	case p.CrossoverProb < 0 || p.MutationProb < 0:
		return fmt.Errorf("%w: 交叉概率和变异概率不能为负数", ErrInvalidParameters)
	case p.CrossoverProb+p.MutationProb > 1:
		return fmt.Errorf("%w: 交叉概率与变异概率之和不能大于 1", ErrInvalidParameters)
	case p.CrossoverProb+p.MutationProb == 0:
		return fmt.Errorf("%w: 交叉概率与变异概率不能同时为 0", ErrInvalidParameters)
	}
	return nil
}

/**
 * GA 是 (mu + lambda) 遗传算法
 * 每代用 varOr 产生 lambda 个后代，再用带记忆的 NSGA-III 从父代和后代中选出 mu 个个体。
 */
type GA struct {
	params   GAParameters
	selector *NSGA3Selector
}

func NewGA(params GAParameters) (*GA, error) {
	if err := params.check(); err != nil {
		return nil, err
	}
	return &GA{
		params:   params,
		selector: NewNSGA3Selector(UniformReferencePoints(2, 4)),
	}, nil
}

func (ga *GA) Name() string {
	return "ga"
}

func (ga *GA) String() string {
	p := ga.params
	return fmt.Sprintf("GA(mu=%d, lambda=%d, cxpb=%g, cx_indpb=%g, mutpb=%g, mut_indpb=%g, mut_mu=%g, mut_sigma=%g)",
		p.Mu, p.Lambda, p.CrossoverProb, p.CrossoverIndProb, p.MutationProb, p.MutationIndProb, p.MutationMu, p.MutationSigma)
}

func (ga *GA) Populate(e *Engine) []*Individual {
	return e.NewPopulation(ga.params.Mu)
}

func (ga *GA) Step(ctx context.Context, e *Engine, population []*Individual) (*Generation, error) {
	offspring := varOr(e.Rand(), population, ga.params.Lambda, &ga.params)

	evaluated, err := e.Evaluate(ctx, offspring)
	if err != nil {
		return nil, err
	}

	pool := make([]*Individual, 0, len(population)+len(offspring))
	pool = append(pool, population...)
	pool = append(pool, offspring...)

	return &Generation{
		Population: ga.selector.Select(e.Rand(), pool, ga.params.Mu),
		Evaluated:  evaluated,
		Candidates: offspring,
	}, nil
}
