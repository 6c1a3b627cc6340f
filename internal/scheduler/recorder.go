package scheduler

import "log/slog"

// LogRecorder 把运行过程输出到 slog，每隔 Every 代输出一次
type LogRecorder struct {
	Logger *slog.Logger
	Every  int
}

func NewLogRecorder(logger *slog.Logger, every int) *LogRecorder {
	return &LogRecorder{Logger: logger, Every: max(every, 1)}
}

func (r *LogRecorder) Start(info *RunInfo) error {
	r.Logger.Info("开始运行", "algorithm", info.Algorithm, "assignments", info.Schedule.Len(), "neval", info.Parameters.MaxEvaluations)
	return nil
}

func (r *LogRecorder) Generation(record Record, _ []*Individual) error {
	if record.Gen%r.Every != 0 {
		return nil
	}
	r.Logger.Info("迭代", "gen", record.Gen, "nevals", record.NEvals, "min", record.Min, "avg", record.Avg)
	return nil
}

func (r *LogRecorder) Finish(result *Result) error {
	r.Logger.Info("运行完成",
		"algorithm", result.Algorithm,
		"evaluations", result.Evaluations,
		"scores", result.Best.Fitness.Named(),
		"original", result.OriginalScores.Named(),
		"duration", result.Duration,
	)
	return nil
}
