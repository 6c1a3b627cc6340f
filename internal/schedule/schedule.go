package schedule

import (
	"cmp"
	"fmt"
	"math"
	"math/rand"
	"slices"
)

// Schedule 拥有全部活动，约束只引用这些活动而不拥有它们
type Schedule struct {
	Assignments []*Assignment
	Constraints []Constraint
}

func New() *Schedule {
	return &Schedule{}
}

func (s *Schedule) Len() int {
	return len(s.Assignments)
}

func (s *Schedule) AddAssignment(a ...*Assignment) {
	s.Assignments = append(s.Assignments, a...)
}

func (s *Schedule) AddConstraint(c ...Constraint) {
	s.Constraints = append(s.Constraints, c...)
}

/**********************************************
 * 目标值
 **********************************************/

func (s *Schedule) TotalPenalty() float64 {
	penalty := 0.0
	for _, c := range s.Constraints {
		penalty += c.Penalty()
	}
	return penalty
}

// TotalMakespan 返回最晚结束日与最早开始日之差，没有活动时为 0
func (s *Schedule) TotalMakespan() int {
	if len(s.Assignments) == 0 {
		return 0
	}
	return s.End() - s.Start()
}

// Start 返回最早开始日，没有活动时为 0
func (s *Schedule) Start() int {
	if len(s.Assignments) == 0 {
		return 0
	}
	start := s.Assignments[0].Start
	for _, a := range s.Assignments[1:] {
		start = min(start, a.Start)
	}
	return start
}

// End 返回最晚结束日，没有活动时为 0
func (s *Schedule) End() int {
	if len(s.Assignments) == 0 {
		return 0
	}
	end := s.Assignments[0].End()
	for _, a := range s.Assignments[1:] {
		end = max(end, a.End())
	}
	return end
}

/**********************************************
 * 活动管理
 **********************************************/

func (s *Schedule) AssignmentByID(id int) (*Assignment, bool) {
	for _, a := range s.Assignments {
		if a.ID == id {
			return a, true
		}
	}
	return nil, false
}

// SortAssignments 按 ID 升序排列活动
func (s *Schedule) SortAssignments() {
	slices.SortStableFunc(s.Assignments, func(a, b *Assignment) int {
		return cmp.Compare(a.ID, b.ID)
	})
}

// ResetAssignmentIDs 按原有 ID 的顺序把 ID 重新编号为 0..N-1
func (s *Schedule) ResetAssignmentIDs() {
	s.SortAssignments()
	for i, a := range s.Assignments {
		a.ID = i
	}
}

// RemoveAssignment 删除活动并解除所有约束对它的引用，被解除引用的约束会变为空约束
func (s *Schedule) RemoveAssignment(id int) bool {
	idx := slices.IndexFunc(s.Assignments, func(a *Assignment) bool { return a.ID == id })
	if idx < 0 {
		return false
	}

	removed := s.Assignments[idx]
	s.Assignments = slices.Delete(s.Assignments, idx, idx+1)

	for _, c := range s.Constraints {
		switch c := c.(type) {
		case *RelationConstraint:
			if c.Predecessor == removed {
				c.Predecessor = nil
			}
			if c.Successor == removed {
				c.Successor = nil
			}
		case *DateConstraint:
			if c.Assignment == removed {
				c.Assignment = nil
			}
		case *ResourceConstraint:
			c.Members = slices.DeleteFunc(c.Members, func(a *Assignment) bool { return a == removed })
		default:
			panic(InvariantViolation{What: "Constraint", Value: fmt.Sprintf("%T", c)})
		}
	}

	return true
}

// RemoveAssignmentsWithoutConstraints 删除没有被任何约束引用的活动，返回删除的数量
func (s *Schedule) RemoveAssignmentsWithoutConstraints() int {
	referenced := make(map[*Assignment]struct{})
	for _, c := range s.Constraints {
		for _, a := range c.Assignments() {
			referenced[a] = struct{}{}
		}
	}

	var orphans []int
	for _, a := range s.Assignments {
		if _, ok := referenced[a]; !ok {
			orphans = append(orphans, a.ID)
		}
	}
	for _, id := range orphans {
		s.RemoveAssignment(id)
	}
	return len(orphans)
}

// PruneEmptyConstraints 删除不再引用任何活动的约束
func (s *Schedule) PruneEmptyConstraints() {
	s.Constraints = slices.DeleteFunc(s.Constraints, func(c Constraint) bool {
		return c.IsEmpty()
	})
}

// RemoveConstraint 删除指定的约束（按引用比较）
func (s *Schedule) RemoveConstraint(target Constraint) bool {
	idx := slices.IndexFunc(s.Constraints, func(c Constraint) bool { return c == target })
	if idx < 0 {
		return false
	}
	s.Constraints = slices.Delete(s.Constraints, idx, idx+1)
	return true
}

/**********************************************
 * 修复
 **********************************************/

// RepairConstraints 进行至多 maxLoops 轮贪心修复。
// 每轮以概率 pct 独立地挑选约束，可选地打乱顺序后依次尝试修复，
// 某一轮没有任何约束被修改时提前结束。修复不保证可行。
func (s *Schedule) RepairConstraints(rng *rand.Rand, shuffle bool, pct float64, maxLoops int) {
	for range maxLoops {
		active := make([]Constraint, 0, len(s.Constraints))
		for _, c := range s.Constraints {
			if rng.Float64() <= pct {
				active = append(active, c)
			}
		}

		if shuffle {
			rng.Shuffle(len(active), func(i, j int) {
				active[i], active[j] = active[j], active[i]
			})
		}

		// 每个被选中的约束都要尝试修复，不能在第一次成功后短路
		repaired := false
		for _, c := range active {
			if c.AttemptRepair() {
				repaired = true
			}
		}

		if !repaired {
			return
		}
	}
}

/**********************************************
 * 统计
 **********************************************/

// PossibleCombinations 估计给定工期内所有活动起止组合的数量，溢出时返回 +Inf
func (s *Schedule) PossibleCombinations(duration int) float64 {
	d := float64(duration)
	combinations := math.Pow(d*(d-1)/2, float64(len(s.Assignments)))
	if math.IsNaN(combinations) || math.IsInf(combinations, 0) {
		return math.Inf(1)
	}
	return combinations
}

// ConstraintGroup 是约束的种类名，用于分组统计
type ConstraintGroup string

const (
	RelationGroup ConstraintGroup = "RelationConstraint"
	DateGroup     ConstraintGroup = "DateConstraint"
	ResourceGroup ConstraintGroup = "ResourceConstraint"
)

func GroupOf(c Constraint) ConstraintGroup {
	switch c.(type) {
	case *RelationConstraint:
		return RelationGroup
	case *DateConstraint:
		return DateGroup
	case *ResourceConstraint:
		return ResourceGroup
	default:
		panic(InvariantViolation{What: "Constraint", Value: fmt.Sprintf("%T", c)})
	}
}

func (s *Schedule) ConstraintsPerGroup() map[ConstraintGroup][]Constraint {
	groups := make(map[ConstraintGroup][]Constraint)
	for _, c := range s.Constraints {
		group := GroupOf(c)
		groups[group] = append(groups[group], c)
	}
	return groups
}

// Summary 是排程的概览统计
type Summary struct {
	Assignments  int     `json:"assignments"`
	Constraints  int     `json:"constraints"`
	Start        int     `json:"start"`
	End          int     `json:"end"`
	Makespan     int     `json:"makespan"`
	Penalty      float64 `json:"penalty"`
	PeakHours    float64 `json:"peakHours"`
	Combinations float64 `json:"combinations"`
}

// Summarize 统计排程，Combinations 按当前工期估计，溢出时为 +Inf
func (s *Schedule) Summarize() Summary {
	peak := 0.0
	for _, hours := range s.TotalHoursPerDay() {
		peak = max(peak, hours)
	}

	makespan := s.TotalMakespan()
	return Summary{
		Assignments:  s.Len(),
		Constraints:  len(s.Constraints),
		Start:        s.Start(),
		End:          s.End(),
		Makespan:     makespan,
		Penalty:      s.TotalPenalty(),
		PeakHours:    peak,
		Combinations: s.PossibleCombinations(makespan),
	}
}

// TotalHoursPerDay 返回所有活动在每一天所需的工时之和
func (s *Schedule) TotalHoursPerDay() map[int]float64 {
	hours := make(map[int]float64)
	for _, a := range s.Assignments {
		for day := a.Start; day < a.End(); day++ {
			hours[day] += float64(a.HoursPerDay())
		}
	}
	return hours
}

/**********************************************
 * 复制
 **********************************************/

// Clone 深拷贝排程，约束对活动和资源的引用会指向新的副本
func (s *Schedule) Clone() *Schedule {
	assignments := make(map[*Assignment]*Assignment, len(s.Assignments))
	resources := make(map[*Resource]*Resource)

	clone := &Schedule{
		Assignments: make([]*Assignment, 0, len(s.Assignments)),
		Constraints: make([]Constraint, 0, len(s.Constraints)),
	}

	for _, a := range s.Assignments {
		c := a.Clone()
		assignments[a] = c
		clone.Assignments = append(clone.Assignments, c)
	}

	remap := func(a *Assignment) *Assignment {
		if a == nil {
			return nil
		}
		if c, ok := assignments[a]; ok {
			return c
		}
		// 约束引用了不在排程中的活动，同样复制一份以免共享状态
		c := a.Clone()
		assignments[a] = c
		return c
	}

	for _, c := range s.Constraints {
		switch c := c.(type) {
		case *RelationConstraint:
			clone.Constraints = append(clone.Constraints, &RelationConstraint{
				Type:        c.Type,
				Predecessor: remap(c.Predecessor),
				Successor:   remap(c.Successor),
			})
		case *DateConstraint:
			clone.Constraints = append(clone.Constraints, &DateConstraint{
				Type:       c.Type,
				Assignment: remap(c.Assignment),
				Day:        c.Day,
			})
		case *ResourceConstraint:
			r, ok := resources[c.Resource]
			if !ok {
				copied := *c.Resource
				r = &copied
				resources[c.Resource] = r
			}
			members := make([]*Assignment, 0, len(c.Members))
			for _, m := range c.Members {
				members = append(members, remap(m))
			}
			clone.Constraints = append(clone.Constraints, &ResourceConstraint{Resource: r, Members: members})
		default:
			panic(InvariantViolation{What: "Constraint", Value: fmt.Sprintf("%T", c)})
		}
	}

	return clone
}
