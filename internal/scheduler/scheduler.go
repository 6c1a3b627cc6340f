package scheduler

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand"
	"time"

	"github.com/sysu-ecnc-dev/eaplanner/internal/interpreter"
	"github.com/sysu-ecnc-dev/eaplanner/internal/schedule"
)

var ErrInvalidParameters = errors.New("算法参数不合法")

// Generation 是策略执行一代后的结果
type Generation struct {
	Population []*Individual // 下一代种群
	Evaluated  int           // 本代实际评估的个体数
	Candidates []*Individual // 用于更新精英档案的个体
}

// Strategy 是一种进化策略，每次运行都应使用新的实例
type Strategy interface {
	Name() string
	// Populate 生成尚未评估的初始种群
	Populate(e *Engine) []*Individual
	// Step 执行一代，返回的种群中所有个体都必须已评估
	Step(ctx context.Context, e *Engine, population []*Individual) (*Generation, error)
}

// RunInfo 描述一次运行，在运行开始时交给记录器
type RunInfo struct {
	Algorithm  string
	Schedule   *schedule.Schedule
	Parameters Parameters
	Strategy   Strategy
	StartedAt  time.Time
}

// Recorder 接收运行过程中的事件，任何一个方法返回错误都会中止运行
type Recorder interface {
	Start(info *RunInfo) error
	Generation(record Record, population []*Individual) error
	Finish(result *Result) error
}

type Result struct {
	Algorithm      string
	Best           *Individual
	HallOfFame     []*Individual
	Logbook        *Logbook
	Evaluations    int
	OriginalScores interpreter.Scores
	BestSchedule   *schedule.Schedule // 最优个体解码后的排程
	Duration       time.Duration
}

// Solution 是结果文件中保存的最优解
type Solution struct {
	Individual     []float64          `json:"individual"`
	Scores         map[string]float64 `json:"scores"`
	OriginalScores map[string]float64 `json:"originalScores,omitempty"`
}

func (r *Result) Solution() *Solution {
	return &Solution{
		Individual:     r.Best.Genes,
		Scores:         r.Best.Fitness.Named(),
		OriginalScores: r.OriginalScores.Named(),
	}
}

// Engine 持有一次运行共享的状态：解释器、评估器、随机数源和评估计数
type Engine struct {
	schedule  *schedule.Schedule // 原始实例的副本，不会被解码修改
	params    Parameters
	interp    *interpreter.Interpreter
	mapper    Mapper
	rng       *rand.Rand
	recorders []Recorder

	original    interpreter.Scores
	seed        interpreter.Chromosome
	evaluations int
}

func (p Parameters) check() error {
	switch {
	case p.MaxEvaluations < 1:
		return fmt.Errorf("%w: 评估次数必须大于 0", ErrInvalidParameters)
	case p.PMax <= p.PMin:
		return fmt.Errorf("%w: pmax 必须大于 pmin", ErrInvalidParameters)
	case p.RepairPct < 0 || p.RepairPct > 1:
		return fmt.Errorf("%w: 修复比例必须在 [0, 1] 之间", ErrInvalidParameters)
	case p.HallOfFameSize < 1:
		return fmt.Errorf("%w: 精英档案的容量必须大于 0", ErrInvalidParameters)
	case p.Parallelism < 0:
		return fmt.Errorf("%w: 并行度不能为负数", ErrInvalidParameters)
	}
	return nil
}

func New(s *schedule.Schedule, params Parameters, recorders ...Recorder) (*Engine, error) {
	if err := params.check(); err != nil {
		return nil, err
	}
	if s.Len() == 0 {
		return nil, fmt.Errorf("%w: 实例中没有活动", ErrInvalidParameters)
	}

	var rng *rand.Rand
	if params.Seed != nil {
		rng = rand.New(rand.NewSource(*params.Seed))
	} else {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}

	pristine := s.Clone()
	interp := interpreter.New(s.Clone(), params.RepairPct, rand.New(rand.NewSource(rng.Int63())))

	var mapper Mapper
	if params.Parallelism <= 1 {
		mapper = NewSequentialMapper(interp)
	} else {
		mapper = NewPoolMapper(interp, params.Parallelism, rng)
	}

	e := &Engine{
		schedule:  pristine,
		params:    params,
		interp:    interp,
		mapper:    mapper,
		rng:       rng,
		recorders: recorders,
		original:  interp.Scores(),
	}
	if params.SeedPopulation {
		e.seed = interp.Encode()
	}

	return e, nil
}

func (e *Engine) Rand() *rand.Rand {
	return e.rng
}

func (e *Engine) Parameters() Parameters {
	return e.params
}

// Evaluations 返回至今为止的评估次数
func (e *Engine) Evaluations() int {
	return e.evaluations
}

// OriginalScores 返回实例原始排程的目标值
func (e *Engine) OriginalScores() interpreter.Scores {
	return e.original
}

// ChromosomeLen 返回染色体长度
func (e *Engine) ChromosomeLen() int {
	return e.interp.Len()
}

// NewPopulation 随机生成 n 个尚未评估的个体
func (e *Engine) NewPopulation(n int) []*Individual {
	population := make([]*Individual, 0, n)
	for range n {
		population = append(population, randomIndividual(e.rng, e.interp.Len(), e.params.PMin, e.params.PMax, e.seed))
	}
	return population
}

/**
 * Evaluate 评估所有目标值失效的个体，返回评估的个数
 * 评估后个体的基因会被替换为修复后的染色体。
 */
func (e *Engine) Evaluate(ctx context.Context, individuals []*Individual) (int, error) {
	invalid := make([]*Individual, 0, len(individuals))
	for _, ind := range individuals {
		if !ind.Valid() {
			invalid = append(invalid, ind)
		}
	}
	if len(invalid) == 0 {
		return 0, nil
	}

	outcomes, err := e.mapper.Map(ctx, invalid)
	if err != nil {
		return 0, err
	}
	for _, o := range outcomes {
		o.Individual.Fitness = o.Scores
		o.Individual.Genes = o.Genes
	}

	return len(invalid), nil
}

// Run 执行策略直到评估次数用完，ctx 只在两代之间检查
func (e *Engine) Run(ctx context.Context, st Strategy) (*Result, error) {
	startedAt := time.Now()
	info := &RunInfo{
		Algorithm:  st.Name(),
		Schedule:   e.schedule,
		Parameters: e.params,
		Strategy:   st,
		StartedAt:  startedAt,
	}
	for _, r := range e.recorders {
		if err := r.Start(info); err != nil {
			return nil, err
		}
	}

	hof := NewHallOfFame(e.params.HallOfFameSize)
	logbook := &Logbook{}

	population := st.Populate(e)
	evaluated, err := e.Evaluate(ctx, population)
	if err != nil {
		return nil, err
	}
	e.evaluations = evaluated
	hof.Update(population)

	if err := e.record(logbook, Compile(0, evaluated, e.evaluations, population), population); err != nil {
		return nil, err
	}

	for gen := 1; e.evaluations < e.params.MaxEvaluations; gen++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		g, err := st.Step(ctx, e, population)
		if err != nil {
			return nil, err
		}
		e.evaluations += g.Evaluated
		population = g.Population

		if err := e.record(logbook, Compile(gen, g.Evaluated, e.evaluations, population), population); err != nil {
			return nil, err
		}
		hof.Update(g.Candidates)
	}

	result := &Result{
		Algorithm:      st.Name(),
		Best:           hof.Best(),
		HallOfFame:     hof.Items(),
		Logbook:        logbook,
		Evaluations:    e.evaluations,
		OriginalScores: e.original,
		Duration:       time.Since(startedAt),
	}
	if result.BestSchedule, err = e.decode(result.Best.Genes); err != nil {
		return nil, err
	}

	slog.Debug("运行结束", "algorithm", st.Name(), "evaluations", e.evaluations, "generations", logbook.Len(), "best", result.Best.Fitness.Named())

	for _, r := range e.recorders {
		if err := r.Finish(result); err != nil {
			return nil, err
		}
	}

	return result, nil
}

func (e *Engine) record(logbook *Logbook, record Record, population []*Individual) error {
	logbook.Append(record)
	for _, r := range e.recorders {
		if err := r.Generation(record, population); err != nil {
			return err
		}
	}
	return nil
}

// decode 把染色体写入原始实例的一个新副本
func (e *Engine) decode(genes interpreter.Chromosome) (*schedule.Schedule, error) {
	s := e.schedule.Clone()
	if err := interpreter.New(s, 0, nil).Decode(genes); err != nil {
		return nil, err
	}
	return s, nil
}
