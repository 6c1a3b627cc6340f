package domain

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

type RunStatus string

const (
	RunStatusQueued   RunStatus = "queued"
	RunStatusRunning  RunStatus = "running"
	RunStatusFinished RunStatus = "finished"
	RunStatusFailed   RunStatus = "failed"
)

type Run struct {
	ID           uuid.UUID       `json:"id"`
	InstanceID   int64           `json:"instanceID"`
	Algorithm    string          `json:"algorithm"`
	Settings     json.RawMessage `json:"settings"`   // 所有算法共用的参数
	Parameters   json.RawMessage `json:"parameters"` // 算法自己的参数
	Status       RunStatus       `json:"status"`
	Error        string          `json:"error,omitempty"`
	Evaluations  int             `json:"evaluations"`
	BestPenalty  *float64        `json:"bestPenalty"`
	BestMakespan *float64        `json:"bestMakespan"`
	Folder       string          `json:"folder,omitempty"`
	CreatedAt    time.Time       `json:"createdAt"`
	StartedAt    *time.Time      `json:"startedAt"`
	FinishedAt   *time.Time      `json:"finishedAt"`
	Version      int32           `json:"-"`
}

// RunProgress 是运行中的实时进度，只保存在 redis 中
type RunProgress struct {
	Gen         int       `json:"gen"`
	Evaluations int       `json:"evaluations"`
	Budget      int       `json:"budget"`
	Min         []float64 `json:"min"`
	Avg         []float64 `json:"avg"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// RunMessage 是 run_queue 中的消息
type RunMessage struct {
	RunID uuid.UUID `json:"runID"`
}

// RunProgressKey 返回运行进度在 redis 中的键
func RunProgressKey(id uuid.UUID) string {
	return fmt.Sprintf("run_progress_%s", id)
}
