package schedule

import (
	"math"
)

// Constraint 是三种约束（先后关系、日期、资源）的公共能力。
// 这是一个封闭的集合，只有本包中的类型可以实现它。
type Constraint interface {
	// Penalty 返回违反约束的程度，0 表示满足
	Penalty() float64
	// Assignments 返回约束引用的活动
	Assignments() []*Assignment
	// AttemptRepair 尝试修改引用的活动使约束满足，返回是否做了修改
	AttemptRepair() bool
	// IsEmpty 表示引用的活动已被从排程中移除
	IsEmpty() bool

	sealed()
}

/**********************************************
 * 先后关系约束
 **********************************************/

type RelationConstraint struct {
	Type        RelationType
	Predecessor *Assignment
	Successor   *Assignment
}

func NewRelationConstraint(t RelationType, predecessor, successor *Assignment) *RelationConstraint {
	return &RelationConstraint{Type: t, Predecessor: predecessor, Successor: successor}
}

func (c *RelationConstraint) sealed() {}

// violation 返回带符号的违反量，正数表示违反
func (c *RelationConstraint) violation() int {
	switch c.Type {
	case FinishToFinish:
		return c.Predecessor.End() - c.Successor.End()
	case FinishToStart:
		return c.Predecessor.End() - c.Successor.Start
	case StartToFinish:
		return c.Successor.End() - c.Predecessor.Start
	case StartToStart:
		return c.Predecessor.Start - c.Successor.Start
	default:
		panic(InvariantViolation{What: "RelationType", Value: int(c.Type)})
	}
}

func (c *RelationConstraint) Penalty() float64 {
	if c.IsEmpty() {
		return 0
	}
	return float64(max(0, c.violation()))
}

func (c *RelationConstraint) Assignments() []*Assignment {
	assignments := make([]*Assignment, 0, 2)
	if c.Predecessor != nil {
		assignments = append(assignments, c.Predecessor)
	}
	if c.Successor != nil {
		assignments = append(assignments, c.Successor)
	}
	return assignments
}

func (c *RelationConstraint) AttemptRepair() bool {
	if c.IsEmpty() || c.violation() <= 0 {
		return false
	}

	switch c.Type {
	case FinishToFinish:
		c.Successor.SetEnd(c.Predecessor.End())
	case FinishToStart:
		c.Successor.Start = c.Predecessor.End()
	case StartToFinish:
		// 只有这一种关系移动的是前置活动
		c.Predecessor.Start = c.Successor.End()
	case StartToStart:
		c.Successor.Start = c.Predecessor.Start
	default:
		panic(InvariantViolation{What: "RelationType", Value: int(c.Type)})
	}

	return true
}

func (c *RelationConstraint) IsEmpty() bool {
	return c.Predecessor == nil || c.Successor == nil
}

// Flip 交换前置活动和后续活动
func (c *RelationConstraint) Flip() {
	c.Predecessor, c.Successor = c.Successor, c.Predecessor
}

/**********************************************
 * 日期约束
 **********************************************/

type DateConstraint struct {
	Type       DateType
	Assignment *Assignment
	Day        int
}

func NewDateConstraint(t DateType, assignment *Assignment, day int) *DateConstraint {
	return &DateConstraint{Type: t, Assignment: assignment, Day: day}
}

func (c *DateConstraint) sealed() {}

// ReferenceDay 返回约束自然作用的那一天（开始日或结束日）
func (c *DateConstraint) ReferenceDay() int {
	if c.Type.IsStart() {
		return c.Assignment.Start
	}
	return c.Assignment.End()
}

func (c *DateConstraint) Penalty() float64 {
	if c.IsEmpty() {
		return 0
	}

	a := c.Assignment
	var penalty int

	switch c.Type {
	case AsSoonAsPossible:
		penalty = a.Start - c.Day
	case AsLateAsPossible:
		penalty = c.Day - a.End()
	case MustStartOn:
		penalty = abs(a.Start - c.Day)
	case MustFinishOn:
		penalty = abs(c.Day - a.End())
	case StartNoEarlierThan:
		penalty = c.Day - a.Start
	case StartNoLaterThan:
		penalty = a.Start - c.Day
	case FinishNoEarlierThan:
		penalty = c.Day - a.End()
	case FinishNoLaterThan:
		penalty = a.End() - c.Day
	default:
		panic(InvariantViolation{What: "DateType", Value: int(c.Type)})
	}

	return float64(max(0, penalty))
}

func (c *DateConstraint) Assignments() []*Assignment {
	if c.Assignment == nil {
		return nil
	}
	return []*Assignment{c.Assignment}
}

func (c *DateConstraint) AttemptRepair() bool {
	if c.IsEmpty() {
		return false
	}

	a := c.Assignment

	switch c.Type {
	case AsSoonAsPossible, StartNoLaterThan:
		if a.Start > c.Day {
			a.Start = c.Day
			return true
		}
	case AsLateAsPossible, FinishNoEarlierThan:
		if a.End() < c.Day {
			a.SetEnd(c.Day)
			return true
		}
	case MustStartOn:
		if a.Start != c.Day {
			a.Start = c.Day
			return true
		}
	case MustFinishOn:
		if a.End() != c.Day {
			a.SetEnd(c.Day)
			return true
		}
	case StartNoEarlierThan:
		if a.Start < c.Day {
			a.Start = c.Day
			return true
		}
	case FinishNoLaterThan:
		if a.End() > c.Day {
			a.SetEnd(c.Day)
			return true
		}
	default:
		panic(InvariantViolation{What: "DateType", Value: int(c.Type)})
	}

	return false
}

func (c *DateConstraint) IsEmpty() bool {
	return c.Assignment == nil
}

/**********************************************
 * 资源约束
 **********************************************/

type ResourceConstraint struct {
	Resource *Resource
	Members  []*Assignment
}

func NewResourceConstraint(resource *Resource, members ...*Assignment) *ResourceConstraint {
	return &ResourceConstraint{Resource: resource, Members: members}
}

func (c *ResourceConstraint) sealed() {}

// DailyRequiredCapacity 返回每一天所需的工时，没有出现的日期需求为 0
func (c *ResourceConstraint) DailyRequiredCapacity() map[int]float64 {
	daily := make(map[int]float64)

	for _, a := range c.Members {
		hours := float64(a.HoursPerDay())
		for day := a.Start; day < a.End(); day++ {
			daily[day] += hours
		}
	}

	return daily
}

func (c *ResourceConstraint) Penalty() float64 {
	capacity := c.Resource.TotalCapacity()

	// 所有活动同时进行都不超过容量时，无需逐日检查
	total := 0.0
	for _, a := range c.Members {
		total += float64(a.HoursPerDay())
	}
	if total <= capacity {
		return 0
	}

	penalty := 0.0
	for _, required := range c.DailyRequiredCapacity() {
		if required > capacity {
			penalty += required - capacity
		}
	}

	return penalty
}

func (c *ResourceConstraint) Assignments() []*Assignment {
	return c.Members
}

// AttemptRepair 将每个单独超出容量的活动的工期拉长到刚好不超出容量的最小值
func (c *ResourceConstraint) AttemptRepair() bool {
	if c.Penalty() <= 0 {
		return false
	}

	capacity := c.Resource.TotalCapacity()
	// 每天所需工时是整数，所以只有容量的整数部分是可用的
	usable := math.Floor(capacity)
	if usable < 1 {
		return false
	}

	corrected := false
	for _, a := range c.Members {
		if float64(a.HoursPerDay()) > capacity {
			a.SetDuration(int(math.Ceil(float64(a.Hours) / usable)))
			corrected = true
		}
	}

	return corrected
}

func (c *ResourceConstraint) IsEmpty() bool {
	return len(c.Members) == 0
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
