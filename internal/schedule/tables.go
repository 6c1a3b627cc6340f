package schedule

import (
	"fmt"
	"slices"
)

// 四张（外加可选的日期约束）交换表中的文件名
const (
	ActivitiesFile          = "activities.csv"
	SequenceConstraintsFile = "sequence_constraints.csv"
	ResourcesFile           = "resources.csv"
	ResourceConstraintsFile = "resource_constraints.csv"
	DateConstraintsFile     = "date_constraints.csv"
)

type ActivityRow struct {
	ID       int `json:"id"`
	Hours    int `json:"hours" validate:"min=0"`
	Start    int `json:"start"`
	Duration int `json:"duration"`
}

type SequenceRow struct {
	PredecessorID int `json:"predecessorId"`
	SuccessorID   int `json:"successorId"`
	Type          int `json:"type" validate:"min=0,max=3"`
}

type ResourceRow struct {
	Name          string  `json:"name" validate:"required"`
	TotalCapacity float64 `json:"totalCapacity" validate:"min=0"`
}

type ResourceGroupRow struct {
	ResourceName  string `json:"resourceName" validate:"required"`
	AssignmentIDs []int  `json:"assignmentIds"`
}

type DateRow struct {
	AssignmentID int `json:"assignmentId"`
	Type         int `json:"type" validate:"min=0,max=7"`
	Day          int `json:"day"`
}

// Tables 是排程的扁平表示，用于 CSV、数据库和 HTTP 之间的交换
type Tables struct {
	Activities     []ActivityRow      `json:"activities" validate:"dive"`
	Sequences      []SequenceRow      `json:"sequenceConstraints" validate:"dive"`
	Resources      []ResourceRow      `json:"resources" validate:"dive"`
	ResourceGroups []ResourceGroupRow `json:"resourceConstraints" validate:"dive"`
	Dates          []DateRow          `json:"dateConstraints,omitempty" validate:"dive"`
}

// Tables 把排程展开为交换表，资源按名字去重
func (s *Schedule) Tables() *Tables {
	t := &Tables{
		Activities:     make([]ActivityRow, 0, len(s.Assignments)),
		Sequences:      make([]SequenceRow, 0),
		Resources:      make([]ResourceRow, 0),
		ResourceGroups: make([]ResourceGroupRow, 0),
		Dates:          make([]DateRow, 0),
	}

	for _, a := range s.Assignments {
		t.Activities = append(t.Activities, ActivityRow{
			ID:       a.ID,
			Hours:    a.Hours,
			Start:    a.Start,
			Duration: a.Duration(),
		})
	}

	seen := make(map[string]struct{})
	for _, c := range s.Constraints {
		if c.IsEmpty() {
			continue
		}

		switch c := c.(type) {
		case *RelationConstraint:
			t.Sequences = append(t.Sequences, SequenceRow{
				PredecessorID: c.Predecessor.ID,
				SuccessorID:   c.Successor.ID,
				Type:          int(c.Type),
			})
		case *DateConstraint:
			t.Dates = append(t.Dates, DateRow{
				AssignmentID: c.Assignment.ID,
				Type:         int(c.Type),
				Day:          c.Day,
			})
		case *ResourceConstraint:
			ids := make([]int, 0, len(c.Members))
			for _, m := range c.Members {
				ids = append(ids, m.ID)
			}
			t.ResourceGroups = append(t.ResourceGroups, ResourceGroupRow{
				ResourceName:  c.Resource.Name,
				AssignmentIDs: ids,
			})
			if _, ok := seen[c.Resource.Name]; !ok {
				seen[c.Resource.Name] = struct{}{}
				t.Resources = append(t.Resources, ResourceRow{
					Name:          c.Resource.Name,
					TotalCapacity: c.Resource.TotalCapacity(),
				})
			}
		default:
			panic(InvariantViolation{What: "Constraint", Value: fmt.Sprintf("%T", c)})
		}
	}

	return t
}

// Build 根据交换表重建排程。
// 重复的 ID、未知的类型编码以及引用不存在的活动或资源都会返回 DataFormatError。
// 行号按带表头的 CSV 计算，即第一条数据是第 2 行。
func (t *Tables) Build() (*Schedule, error) {
	s := New()

	byID := make(map[int]*Assignment, len(t.Activities))
	for i, row := range t.Activities {
		if _, ok := byID[row.ID]; ok {
			return nil, formatErrorf(ActivitiesFile, i+2, "活动 ID %d 重复", row.ID)
		}
		if row.Hours < 0 {
			return nil, formatErrorf(ActivitiesFile, i+2, "工时 %d 不能为负数", row.Hours)
		}

		a := NewAssignment(row.ID, row.Hours).Set(row.Start, row.Duration)
		byID[row.ID] = a
		s.AddAssignment(a)
	}

	lookup := func(file string, line int, id int) (*Assignment, error) {
		a, ok := byID[id]
		if !ok {
			return nil, formatErrorf(file, line, "活动 ID %d 不存在", id)
		}
		return a, nil
	}

	for i, row := range t.Sequences {
		line := i + 2
		kind := RelationType(row.Type)
		if !kind.Valid() {
			return nil, formatErrorf(SequenceConstraintsFile, line, "未知的先后关系类型 %d", row.Type)
		}
		predecessor, err := lookup(SequenceConstraintsFile, line, row.PredecessorID)
		if err != nil {
			return nil, err
		}
		successor, err := lookup(SequenceConstraintsFile, line, row.SuccessorID)
		if err != nil {
			return nil, err
		}
		s.AddConstraint(NewRelationConstraint(kind, predecessor, successor))
	}

	resources := make(map[string]*Resource, len(t.Resources))
	for i, row := range t.Resources {
		if _, ok := resources[row.Name]; ok {
			return nil, formatErrorf(ResourcesFile, i+2, "资源 %q 重复", row.Name)
		}
		if row.TotalCapacity < 0 {
			return nil, formatErrorf(ResourcesFile, i+2, "资源容量 %v 不能为负数", row.TotalCapacity)
		}
		resources[row.Name] = NewResource(row.Name, row.TotalCapacity)
	}

	for i, row := range t.ResourceGroups {
		line := i + 2
		r, ok := resources[row.ResourceName]
		if !ok {
			return nil, formatErrorf(ResourceConstraintsFile, line, "资源 %q 不存在", row.ResourceName)
		}
		members := make([]*Assignment, 0, len(row.AssignmentIDs))
		for _, id := range row.AssignmentIDs {
			a, err := lookup(ResourceConstraintsFile, line, id)
			if err != nil {
				return nil, err
			}
			if slices.Contains(members, a) {
				return nil, formatErrorf(ResourceConstraintsFile, line, "活动 ID %d 重复", id)
			}
			members = append(members, a)
		}
		s.AddConstraint(NewResourceConstraint(r, members...))
	}

	for i, row := range t.Dates {
		line := i + 2
		kind := DateType(row.Type)
		if !kind.Valid() {
			return nil, formatErrorf(DateConstraintsFile, line, "未知的日期约束类型 %d", row.Type)
		}
		a, err := lookup(DateConstraintsFile, line, row.AssignmentID)
		if err != nil {
			return nil, err
		}
		s.AddConstraint(NewDateConstraint(kind, a, row.Day))
	}

	return s, nil
}
