package scheduler

import (
	"context"
	"fmt"
	"math"

	"github.com/sysu-ecnc-dev/eaplanner/internal/ranking"
)

type SHCParameters struct {
	Mu              int     `json:"mu" validate:"required,min=1"`
	MutationIndProb float64 `json:"mutIndpb" validate:"min=0,max=1"`
	MutationSigma   float64 `json:"mutSigma" validate:"min=0"`
}

func DefaultSHCParameters() SHCParameters {
	return SHCParameters{
		Mu:              1,
		MutationIndProb: 0.4,
		MutationSigma:   1,
	}
}

func (p SHCParameters) check() error {
	switch {
	case p.Mu < 1:
		return fmt.Errorf("%w: mu 必须大于 0", ErrInvalidParameters)
	case p.MutationIndProb < 0 || p.MutationIndProb > 1:
		return fmt.Errorf("%w: mut_indpb 必须在 [0, 1] 之间", ErrInvalidParameters)
	case p.MutationSigma < 0:
		return fmt.Errorf("%w: mut_sigma 不能为负数", ErrInvalidParameters)
	}
	return nil
}

// SHC 是随机爬山法，mu 个爬山者互相独立，只接受不差于当前解的邻居
type SHC struct {
	params SHCParameters
}

func NewSHC(params SHCParameters) (*SHC, error) {
	if err := params.check(); err != nil {
		return nil, err
	}
	return &SHC{params: params}, nil
}

func (shc *SHC) Name() string {
	return "shc"
}

func (shc *SHC) String() string {
	p := shc.params
	return fmt.Sprintf("SHC(mu=%d, mut_indpb=%g, mut_sigma=%g)", p.Mu, p.MutationIndProb, p.MutationSigma)
}

func (shc *SHC) Populate(e *Engine) []*Individual {
	return e.NewPopulation(shc.params.Mu)
}

func (shc *SHC) Step(ctx context.Context, e *Engine, population []*Individual) (*Generation, error) {
	return climb(ctx, e, population, &shc.params, func(_, _ *Individual) bool { return false })
}

/**
 * climb 为每个个体产生一个邻居并评估
 * 邻居不差于当前个体（字典序 <=）时替换，否则交给 accept 决定是否替换。
 */
func climb(ctx context.Context, e *Engine, population []*Individual, p *SHCParameters, accept func(current, neighbour *Individual) bool) (*Generation, error) {
	rng := e.Rand()

	offspring := make([]*Individual, 0, len(population))
	for _, ind := range population {
		child := ind.Clone()
		mutUniform(rng, child, p.MutationSigma, p.MutationIndProb)
		child.Invalidate()
		offspring = append(offspring, child)
	}

	evaluated, err := e.Evaluate(ctx, offspring)
	if err != nil {
		return nil, err
	}

	next := make([]*Individual, len(population))
	for i, ind := range population {
		next[i] = ind
		if ranking.LessOrEqual(offspring[i].Fitness, ind.Fitness) || accept(ind, offspring[i]) {
			next[i] = offspring[i]
		}
	}

	return &Generation{
		Population: next,
		Evaluated:  evaluated,
		Candidates: offspring,
	}, nil
}

type SAParameters struct {
	SHCParameters
	Temperature float64 `json:"temp" validate:"gt=0"`
	Alpha       float64 `json:"alpha" validate:"gt=0,max=1"`
}

func DefaultSAParameters() SAParameters {
	return SAParameters{
		SHCParameters: SHCParameters{
			Mu:              1,
			MutationIndProb: 0.1,
			MutationSigma:   1,
		},
		Temperature: 100,
		Alpha:       0.99,
	}
}

func (p SAParameters) check() error {
	if err := p.SHCParameters.check(); err != nil {
		return err
	}
	switch {
	case p.Temperature <= 0:
		return fmt.Errorf("%w: 初始温度必须大于 0", ErrInvalidParameters)
	case p.Alpha <= 0 || p.Alpha > 1:
		return fmt.Errorf("%w: alpha 必须在 (0, 1] 之间", ErrInvalidParameters)
	}
	return nil
}

/**
 * SA 是模拟退火，在爬山法的基础上以一定概率接受更差的邻居
 * 接受概率为 exp(sum(new - old) / temp)，各目标的差值直接相加，没有加权。
 * 每代结束后温度乘以 alpha。
 */
type SA struct {
	params SAParameters
	temp   float64
}

func NewSA(params SAParameters) (*SA, error) {
	if err := params.check(); err != nil {
		return nil, err
	}
	return &SA{params: params, temp: params.Temperature}, nil
}

func (sa *SA) Name() string {
	return "sa"
}

func (sa *SA) String() string {
	p := sa.params
	return fmt.Sprintf("SA(mu=%d, mut_indpb=%g, mut_sigma=%g, temp=%g, alpha=%g)", p.Mu, p.MutationIndProb, p.MutationSigma, p.Temperature, p.Alpha)
}

// Temperature 返回当前温度
func (sa *SA) Temperature() float64 {
	return sa.temp
}

func (sa *SA) Populate(e *Engine) []*Individual {
	return e.NewPopulation(sa.params.Mu)
}

func (sa *SA) Step(ctx context.Context, e *Engine, population []*Individual) (*Generation, error) {
	rng := e.Rand()
	g, err := climb(ctx, e, population, &sa.params.SHCParameters, func(current, neighbour *Individual) bool {
		return rng.Float64() < transitionProbability(current.Fitness, neighbour.Fitness, sa.temp)
	})
	if err != nil {
		return nil, err
	}

	sa.temp *= sa.params.Alpha
	return g, nil
}

func transitionProbability(current, neighbour []float64, temp float64) float64 {
	sum := 0.0
	for i := range current {
		sum += neighbour[i] - current[i]
	}
	return math.Exp(sum / temp)
}
