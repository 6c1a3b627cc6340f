package scheduler

import (
	"context"
	"math/rand"

	"github.com/sourcegraph/conc/pool"
	"github.com/sysu-ecnc-dev/eaplanner/internal/interpreter"
)

// Outcome 是一次评估的结果，Genes 是修复后的染色体
type Outcome struct {
	Individual *Individual
	Scores     interpreter.Scores
	Genes      interpreter.Chromosome
}

// Mapper 对一批个体执行评估，返回结果的顺序不做保证
type Mapper interface {
	Map(ctx context.Context, individuals []*Individual) ([]Outcome, error)
}

// SequentialMapper 在当前 goroutine 中逐个评估
type SequentialMapper struct {
	interp *interpreter.Interpreter
}

func NewSequentialMapper(interp *interpreter.Interpreter) *SequentialMapper {
	return &SequentialMapper{interp: interp}
}

func (m *SequentialMapper) Map(ctx context.Context, individuals []*Individual) ([]Outcome, error) {
	outcomes := make([]Outcome, 0, len(individuals))
	for _, ind := range individuals {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		scores, genes, err := m.interp.Evaluate(ind.Genes)
		if err != nil {
			return nil, err
		}
		outcomes = append(outcomes, Outcome{Individual: ind, Scores: scores, Genes: genes})
	}
	return outcomes, nil
}

/**
 * PoolMapper 使用 goroutine 池并行评估
 * 解码会修改排程，所以每个 goroutine 从通道中借用一个独立的解释器副本，用完再归还。
 */
type PoolMapper struct {
	size    int
	interps chan *interpreter.Interpreter
}

func NewPoolMapper(base *interpreter.Interpreter, size int, rng *rand.Rand) *PoolMapper {
	interps := make(chan *interpreter.Interpreter, size)
	for range size {
		interps <- base.Clone(rng.Int63())
	}
	return &PoolMapper{size: size, interps: interps}
}

func (m *PoolMapper) Map(ctx context.Context, individuals []*Individual) ([]Outcome, error) {
	p := pool.NewWithResults[Outcome]().
		WithContext(ctx).
		WithCancelOnError().
		WithMaxGoroutines(m.size)

	for _, ind := range individuals {
		p.Go(func(ctx context.Context) (Outcome, error) {
			if err := ctx.Err(); err != nil {
				return Outcome{}, err
			}

			interp := <-m.interps
			defer func() { m.interps <- interp }()

			scores, genes, err := interp.Evaluate(ind.Genes)
			if err != nil {
				return Outcome{}, err
			}
			return Outcome{Individual: ind, Scores: scores, Genes: genes}, nil
		})
	}

	return p.Wait()
}
