package domain

import (
	"regexp"
	"time"

	"github.com/sysu-ecnc-dev/eaplanner/internal/schedule"
)

type InstanceSource string

const (
	InstanceSourceUpload    InstanceSource = "upload"
	InstanceSourceGenerated InstanceSource = "generated"
	InstanceSourceImported  InstanceSource = "imported"
)

// 实例名由 / 分隔的若干段组成，每段以字母或数字开头
var instanceNameRegexp = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9_.-]*(/[A-Za-z0-9][A-Za-z0-9_.-]*)*$`)

func ValidInstanceName(name string) bool {
	return instanceNameRegexp.MatchString(name)
}

type Instance struct {
	ID               int64            `json:"id"`
	Name             string           `json:"name"`
	Description      string           `json:"description"`
	Source           InstanceSource   `json:"source"`
	Assignments      int              `json:"assignments"`
	Constraints      int              `json:"constraints"`
	OriginalPenalty  float64          `json:"originalPenalty"`
	OriginalMakespan int              `json:"originalMakespan"`
	Tables           *schedule.Tables `json:"tables,omitempty"` // 列表接口中为空
	CreatedAt        time.Time        `json:"createdAt"`
	Version          int32            `json:"-"`
}

// NewInstance 根据排程填充实例的统计信息
func NewInstance(name, description string, source InstanceSource, s *schedule.Schedule) *Instance {
	return &Instance{
		Name:             name,
		Description:      description,
		Source:           source,
		Assignments:      s.Len(),
		Constraints:      len(s.Constraints),
		OriginalPenalty:  s.TotalPenalty(),
		OriginalMakespan: s.TotalMakespan(),
		Tables:           s.Tables(),
	}
}
