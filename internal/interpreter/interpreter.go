package interpreter

import (
	"cmp"
	"errors"
	"fmt"
	"math"
	"math/rand"
	"slices"

	"github.com/sysu-ecnc-dev/eaplanner/internal/schedule"
)

// ErrLengthMismatch 表示染色体长度不是活动数量的两倍
var ErrLengthMismatch = errors.New("染色体长度与活动数量不匹配")

// ScoreNames 是目标值各分量的名字，按优先级排列
var ScoreNames = []string{"penalty", "makespan"}

// Chromosome 由 N 对 (开始日, 工期) 组成，按活动 ID 升序排列
type Chromosome []float64

func (c Chromosome) Clone() Chromosome {
	return slices.Clone(c)
}

// Scores 是需要最小化的目标值：(总罚分, 总工期)，罚分优先
type Scores []float64

func (s Scores) Penalty() float64 {
	return s[0]
}

func (s Scores) Makespan() float64 {
	return s[1]
}

// Named 返回以分量名为键的目标值
func (s Scores) Named() map[string]float64 {
	named := make(map[string]float64, len(s))
	for i, v := range s {
		named[ScoreNames[i]] = v
	}
	return named
}

// Interpreter 在染色体和排程状态之间相互转换。
// 每次解码都会原地修改排程，因此同一个 Interpreter 不能被并发使用，
// 并发评估时每个 goroutine 需要通过 Clone 拿到自己的副本。
type Interpreter struct {
	schedule  *schedule.Schedule
	repairPct float64
	rng       *rand.Rand

	// 按 ID 升序排列的活动
	order []*schedule.Assignment
}

func New(s *schedule.Schedule, repairPct float64, rng *rand.Rand) *Interpreter {
	order := slices.Clone(s.Assignments)
	slices.SortStableFunc(order, func(a, b *schedule.Assignment) int {
		return cmp.Compare(a.ID, b.ID)
	})

	return &Interpreter{
		schedule:  s,
		repairPct: repairPct,
		rng:       rng,
		order:     order,
	}
}

func (in *Interpreter) Schedule() *schedule.Schedule {
	return in.schedule
}

func (in *Interpreter) RepairPct() float64 {
	return in.repairPct
}

// Len 返回染色体的长度
func (in *Interpreter) Len() int {
	return 2 * len(in.order)
}

// Decode 把染色体四舍五入后写回每个活动的开始日和工期
func (in *Interpreter) Decode(chromosome Chromosome) error {
	if len(chromosome) != in.Len() {
		return fmt.Errorf("%w: 需要 %d，实际 %d", ErrLengthMismatch, in.Len(), len(chromosome))
	}

	for i, a := range in.order {
		start := math.RoundToEven(chromosome[2*i])
		duration := math.RoundToEven(chromosome[2*i+1])
		a.Set(int(start), int(duration))
	}

	return nil
}

// Encode 从当前排程状态生成染色体
func (in *Interpreter) Encode() Chromosome {
	chromosome := make(Chromosome, 0, in.Len())
	for _, a := range in.order {
		chromosome = append(chromosome, float64(a.Start), float64(a.Duration()))
	}
	return chromosome
}

// Scores 返回当前排程状态的目标值
func (in *Interpreter) Scores() Scores {
	return Scores{in.schedule.TotalPenalty(), float64(in.schedule.TotalMakespan())}
}

// Evaluate 解码染色体，按需修复约束，然后返回目标值和反映修复结果的新染色体
func (in *Interpreter) Evaluate(chromosome Chromosome) (Scores, Chromosome, error) {
	if err := in.Decode(chromosome); err != nil {
		return nil, nil, err
	}

	if in.repairPct > 0 {
		in.schedule.RepairConstraints(in.rng, true, in.repairPct, 1)
	}

	return in.Scores(), in.Encode(), nil
}

// Clone 返回一个拥有私有排程副本和独立随机数源的解释器
func (in *Interpreter) Clone(seed int64) *Interpreter {
	return New(in.schedule.Clone(), in.repairPct, rand.New(rand.NewSource(seed)))
}
