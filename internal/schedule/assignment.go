package schedule

import "math"

// Assignment 是一个需要被安排在时间轴上的活动
type Assignment struct {
	ID    int
	Hours int
	Start int

	duration    int
	hoursPerDay int
}

func NewAssignment(id int, hours int) *Assignment {
	a := &Assignment{ID: id, Hours: hours}
	a.SetDuration(1)
	return a
}

func (a *Assignment) Duration() int {
	if a.duration < 1 {
		return 1
	}
	return a.duration
}

// SetDuration 设置工期（最小为 1），同时重新计算每天所需工时
func (a *Assignment) SetDuration(duration int) {
	if duration > 1 {
		a.duration = duration
	} else {
		a.duration = 1
	}
	a.hoursPerDay = ceilDiv(a.Hours, a.duration)
}

func (a *Assignment) HoursPerDay() int {
	if a.duration < 1 {
		return ceilDiv(a.Hours, 1)
	}
	return a.hoursPerDay
}

func (a *Assignment) End() int {
	return a.Start + a.Duration()
}

// SetEnd 保持工期不变，反推开始日
func (a *Assignment) SetEnd(end int) {
	a.Start = end - a.Duration()
}

// Set 同时设置开始日和工期，返回自身方便链式调用
func (a *Assignment) Set(start int, duration int) *Assignment {
	a.Start = start
	a.SetDuration(duration)
	return a
}

func (a *Assignment) Clone() *Assignment {
	c := *a
	return &c
}

func ceilDiv(hours int, duration int) int {
	return int(math.Ceil(float64(hours) / float64(duration)))
}

// IDAllocator 为新建的活动分配递增的 ID，由构造活动的组件显式持有
type IDAllocator struct {
	next int
}

func NewIDAllocator(start int) *IDAllocator {
	return &IDAllocator{next: start}
}

func (g *IDAllocator) Next() int {
	id := g.next
	g.next++
	return id
}

// New 创建一个带有新 ID 的活动
func (g *IDAllocator) New(hours int) *Assignment {
	return NewAssignment(g.Next(), hours)
}
