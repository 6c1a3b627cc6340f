package schedule

import "strings"

// RelationType 表示两个活动之间的先后关系
type RelationType int

const (
	FinishToFinish RelationType = iota
	FinishToStart
	StartToFinish
	StartToStart
)

var relationTypeNames = [...]string{
	"FINISH_TO_FINISH",
	"FINISH_TO_START",
	"START_TO_FINISH",
	"START_TO_START",
}

func (t RelationType) Valid() bool {
	return t >= FinishToFinish && t <= StartToStart
}

func (t RelationType) String() string {
	if !t.Valid() {
		panic(InvariantViolation{What: "RelationType", Value: int(t)})
	}
	return relationTypeNames[t]
}

// ShortName 返回诸如 FS、SS 的缩写
func (t RelationType) ShortName() string {
	short := ""
	for _, part := range strings.Split(t.String(), "_TO_") {
		short += part[:1]
	}
	return short
}

// DateType 表示单个活动的日期约束类型
type DateType int

const (
	AsSoonAsPossible DateType = iota
	AsLateAsPossible
	MustStartOn
	MustFinishOn
	StartNoEarlierThan
	StartNoLaterThan
	FinishNoEarlierThan
	FinishNoLaterThan
)

var dateTypeNames = [...]string{
	"AS_SOON_AS_POSSIBLE",
	"AS_LATE_AS_POSSIBLE",
	"MUST_START_ON",
	"MUST_FINISH_ON",
	"START_NO_EARLIER_THAN",
	"START_NO_LATER_THAN",
	"FINISH_NO_EARLIER_THAN",
	"FINISH_NO_LATER_THAN",
}

func (t DateType) Valid() bool {
	return t >= AsSoonAsPossible && t <= FinishNoLaterThan
}

func (t DateType) String() string {
	if !t.Valid() {
		panic(InvariantViolation{What: "DateType", Value: int(t)})
	}
	return dateTypeNames[t]
}

// ShortName 返回诸如 MSO、FNLT 的缩写
func (t DateType) ShortName() string {
	short := ""
	for _, part := range strings.Split(t.String(), "_") {
		short += part[:1]
	}
	return short
}

// IsStart 判断约束作用在活动的开始日（true）还是结束日（false）
func (t DateType) IsStart() bool {
	switch t {
	case AsSoonAsPossible, MustStartOn, StartNoEarlierThan, StartNoLaterThan:
		return true
	case AsLateAsPossible, MustFinishOn, FinishNoEarlierThan, FinishNoLaterThan:
		return false
	default:
		panic(InvariantViolation{What: "DateType", Value: int(t)})
	}
}
