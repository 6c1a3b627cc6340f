package generator

import (
	"errors"
	"fmt"
	"log/slog"
	"math"
	"math/rand"

	"github.com/sysu-ecnc-dev/eaplanner/internal/schedule"
)

// AutoResources 表示资源数量根据活动数量自动计算
const AutoResources = -1

// MaxAssignments 是单个实例允许的最大活动数量
const MaxAssignments = 2000

// 生成过程中各个步骤的固定参数
const (
	repairPasses     = 10
	repairMaxLoops   = 100
	hoursPerDuration = 10
)

var (
	// 按 FF, FS, SF, SS 的顺序
	relationWeights = []float64{0.09, 0.73, 0.0, 0.18}
	// 按 DateType 的顺序，原始权重之和为 0.99，抽样前会归一化
	dateWeights = []float64{0.0, 0.89, 0.09, 0.01, 0.0, 0.0, 0.0, 0.0}
)

var ErrInvalidParams = errors.New("生成参数不合法")

// Params 是随机实例的生成参数
type Params struct {
	Assignments  int     `json:"assignments" validate:"required,min=1,max=2000"`
	K            int     `json:"k" validate:"min=0"`
	Resources    int     `json:"resources" validate:"min=-1"`
	PDate        float64 `json:"pDate" validate:"min=0,max=1"`
	MuHours      float64 `json:"muHours"`
	StdHours     float64 `json:"stdHours" validate:"min=0"`
	MuResources  float64 `json:"muResources"`
	StdResources float64 `json:"stdResources" validate:"min=0"`
	// 删除没有任何约束的活动并重新编号
	DropIsolated bool `json:"dropIsolated"`
	// 为空时使用随机种子
	Seed *int64 `json:"seed,omitempty"`
}

func DefaultParams(n int) Params {
	return Params{
		Assignments:  n,
		K:            2,
		Resources:    AutoResources,
		PDate:        0.16,
		MuHours:      50,
		StdHours:     150,
		MuResources:  100,
		StdResources: 30,
	}
}

func (p Params) check() error {
	switch {
	case p.Assignments < 1:
		return fmt.Errorf("%w: 活动数量必须大于 0", ErrInvalidParams)
	case p.Assignments > MaxAssignments:
		return fmt.Errorf("%w: 活动数量不能超过 %d", ErrInvalidParams, MaxAssignments)
	case p.K < 0:
		return fmt.Errorf("%w: k 不能为负数", ErrInvalidParams)
	case p.Resources < AutoResources:
		return fmt.Errorf("%w: 资源数量只能为 -1（自动）或非负数", ErrInvalidParams)
	case p.PDate < 0 || p.PDate > 1:
		return fmt.Errorf("%w: p_date 必须在 [0, 1] 之间", ErrInvalidParams)
	}
	return nil
}

/**
 * Generate 生成一个随机实例
 * 种子只控制图的结构、修复、日期约束的选取和资源的划分；
 * 活动工时、先后关系类型和日期约束类型使用全局随机数源，即使种子相同也不保证可复现。
 */
func Generate(p Params) (*schedule.Schedule, error) {
	if err := p.check(); err != nil {
		return nil, err
	}

	var rng *rand.Rand
	if p.Seed != nil {
		rng = rand.New(rand.NewSource(*p.Seed))
	} else {
		rng = rand.New(rand.NewSource(rand.Int63()))
	}

	g := BuildGraph(p.Assignments, p.K, rng)
	g = g.Relabel(g.TopologicalSort())

	s := schedule.New()
	addAssignments(s, g, p.MuHours, p.StdHours)
	addRelations(s, g)
	s.SortAssignments()

	for range repairPasses {
		if s.TotalPenalty() == 0 {
			break
		}

		s.RepairConstraints(rng, true, 1, repairMaxLoops)
		flipViolatedRelations(s)
	}

	removed := removeViolatedRelations(s)
	resetStarts(s)
	addDates(s, p.PDate, rng)

	if p.Resources == AutoResources || p.Resources > 0 {
		n := p.Resources
		if n == AutoResources {
			n = AutoResourceCount(s.Len())
		}
		addResources(s, n, p.MuResources, p.StdResources, rng)
	}

	s.PruneEmptyConstraints()
	if p.DropIsolated {
		s.RemoveAssignmentsWithoutConstraints()
		s.ResetAssignmentIDs()
	}

	slog.Debug("生成实例完成",
		"assignments", s.Len(),
		"constraints", len(s.Constraints),
		"removed_relations", removed,
	)

	return s, nil
}

// BuildGraph 生成平均出度约为 k 的随机有向无环图，并经过传递约简
func BuildGraph(n int, k int, rng *rand.Rand) *Digraph {
	p := 0.0
	if n > 1 {
		p = max(0, float64(k)/float64(n-1))
	}

	g := RandomDigraph(n, p, rng)
	g.RemoveCycles()
	g.TransitiveReduction()

	if k != 0 {
		g.ConnectIsolates(rng)
	}

	return g
}

// AutoResourceCount 是根据活动数量估计的资源数量（对数回归得到的系数）
func AutoResourceCount(n int) int {
	if n < 1 {
		return 1
	}
	return max(1, int(math.Ceil(2.55*math.Log(float64(n))+0.11)))
}

func addAssignments(s *schedule.Schedule, g *Digraph, mu float64, std float64) {
	for node := range g.Len() {
		// 自由度为 1 的卡方分布
		z := rand.NormFloat64()
		hours := max(1, int(z*z*std+mu))

		a := schedule.NewAssignment(node, hours)
		a.SetDuration(hours / hoursPerDuration)
		s.AddAssignment(a)
	}
}

func addRelations(s *schedule.Schedule, g *Digraph) {
	for _, e := range g.Edges() {
		predecessor, _ := s.AssignmentByID(e.From)
		successor, _ := s.AssignmentByID(e.To)
		kind := schedule.RelationType(choose(rand.Float64(), relationWeights))
		s.AddConstraint(schedule.NewRelationConstraint(kind, predecessor, successor))
	}
}

func flipViolatedRelations(s *schedule.Schedule) int {
	n := 0
	for _, c := range s.Constraints {
		if r, ok := c.(*schedule.RelationConstraint); ok && r.Penalty() > 0 {
			r.Flip()
			n++
		}
	}
	return n
}

func removeViolatedRelations(s *schedule.Schedule) int {
	var violated []schedule.Constraint
	for _, c := range s.Constraints {
		if r, ok := c.(*schedule.RelationConstraint); ok && r.Penalty() > 0 {
			violated = append(violated, c)
		}
	}

	for _, c := range violated {
		s.RemoveConstraint(c)
	}
	return len(violated)
}

// resetStarts 平移所有活动，使最早的开始日为 0
func resetStarts(s *schedule.Schedule) {
	if s.Len() == 0 {
		return
	}

	start := s.Start()
	for _, a := range s.Assignments {
		a.Start -= start
	}
}

// addDates 以概率 pDate 为活动添加日期约束，约束日期取活动当前的参考日，因此一开始就是满足的
func addDates(s *schedule.Schedule, pDate float64, rng *rand.Rand) {
	for _, a := range s.Assignments {
		if rng.Float64() >= pDate {
			continue
		}

		kind := schedule.DateType(choose(rand.Float64(), dateWeights))
		c := schedule.NewDateConstraint(kind, a, 0)
		c.Day = c.ReferenceDay()
		s.AddConstraint(c)
	}
}

// addResources 把打乱后的活动划分为 n 组连续的块，每组共享一个资源
func addResources(s *schedule.Schedule, n int, mu float64, std float64, rng *rand.Rand) {
	shuffled := make([]*schedule.Assignment, len(s.Assignments))
	copy(shuffled, s.Assignments)
	rng.Shuffle(len(shuffled), func(i, j int) {
		shuffled[i], shuffled[j] = shuffled[j], shuffled[i]
	})

	for i, chunk := range split(shuffled, n) {
		capacity := max(1, math.Ceil(rng.NormFloat64()*std+mu))
		resource := schedule.NewResource(fmt.Sprintf("Resource %d", i), capacity)
		s.AddConstraint(schedule.NewResourceConstraint(resource, chunk...))
	}
}

// split 把切片划分为 n 段连续的块，前 len%n 段各多一个元素
func split[T any](items []T, n int) [][]T {
	chunks := make([][]T, 0, n)
	size, extra := len(items)/n, len(items)%n

	offset := 0
	for i := range n {
		length := size
		if i < extra {
			length++
		}
		chunk := make([]T, length)
		copy(chunk, items[offset:offset+length])
		chunks = append(chunks, chunk)
		offset += length
	}

	return chunks
}

// choose 按权重选出一个下标，u 是 [0, 1) 上的均匀随机数，权重会先归一化
func choose(u float64, weights []float64) int {
	total := 0.0
	for _, w := range weights {
		total += w
	}

	target := u * total
	cumulative := 0.0
	last := 0
	for i, w := range weights {
		if w <= 0 {
			continue
		}
		cumulative += w
		last = i
		if target < cumulative {
			return i
		}
	}

	return last
}
