package worker

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/sysu-ecnc-dev/eaplanner/internal/domain"
	"github.com/sysu-ecnc-dev/eaplanner/internal/scheduler"
)

// NewSolution 把最优个体和解码后的排程表转换为数据库记录
func NewSolution(runID uuid.UUID, result *scheduler.Result) (*domain.Solution, error) {
	tables, err := json.Marshal(result.BestSchedule.Tables())
	if err != nil {
		return nil, err
	}

	solution := result.Solution()
	return &domain.Solution{
		RunID:          runID,
		Individual:     solution.Individual,
		Scores:         solution.Scores,
		OriginalScores: solution.OriginalScores,
		Schedule:       tables,
	}, nil
}

func NewRunFinishedMail(run *domain.Run, instance *domain.Instance, result *scheduler.Result) *domain.RunFinishedMailData {
	return &domain.RunFinishedMailData{
		RunID:          run.ID.String(),
		InstanceName:   instance.Name,
		Algorithm:      run.Algorithm,
		Status:         run.Status,
		Evaluations:    result.Evaluations,
		Scores:         result.Best.Fitness.Named(),
		OriginalScores: result.OriginalScores.Named(),
		Duration:       result.Duration.Round(time.Millisecond).String(),
	}
}

func NewRunFailedMail(run *domain.Run, instance *domain.Instance) *domain.RunFinishedMailData {
	return &domain.RunFinishedMailData{
		RunID:        run.ID.String(),
		InstanceName: instance.Name,
		Algorithm:    run.Algorithm,
		Status:       run.Status,
		Error:        run.Error,
		Evaluations:  run.Evaluations,
	}
}
