package domain

import (
	"encoding/json"

	"github.com/google/uuid"
)

type LogRecord struct {
	RunID  uuid.UUID `json:"-"`
	Gen    int       `json:"gen"`
	NEvals int       `json:"nevals"`
	Evals  int       `json:"evals"`
	Avg    []float64 `json:"avg"`
	Std    []float64 `json:"std"`
	Min    []float64 `json:"min"`
	Max    []float64 `json:"max"`
}

type Solution struct {
	RunID          uuid.UUID          `json:"runID"`
	Individual     []float64          `json:"individual"`
	Scores         map[string]float64 `json:"scores"`
	OriginalScores map[string]float64 `json:"originalScores"`
	Schedule       json.RawMessage    `json:"schedule"` // 最优个体解码后的排程表
}
