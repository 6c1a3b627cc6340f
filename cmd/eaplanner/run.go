package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/sysu-ecnc-dev/eaplanner/internal/artifact"
	"github.com/sysu-ecnc-dev/eaplanner/internal/schedule"
	"github.com/sysu-ecnc-dev/eaplanner/internal/scheduler"
	"github.com/sysu-ecnc-dev/eaplanner/internal/utils"
)

func runCmd() *cobra.Command {
	params := scheduler.DefaultParameters()
	var (
		algorithm      string
		rawParams      string
		seed           int64
		resultsDir     string
		savePopulation bool
		logEvery       int
		quiet          bool
	)

	cmd := &cobra.Command{
		Use:   "run <实例路径>",
		Short: "在一个实例上运行算法",
		Long: fmt.Sprintf(`在 CSV 目录或 .gob 快照表示的实例上运行算法，结果写到 --results 目录。
可用的算法: %s`, strings.Join(scheduler.Algorithms, ", ")),
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if cmd.Flags().Changed("seed") {
				params.Seed = &seed
			}

			v, err := utils.NewValidator()
			if err != nil {
				return err
			}
			if err := v.Struct(params); err != nil {
				return err
			}

			p, err := scheduler.ParseParameters(algorithm, json.RawMessage(rawParams))
			if err != nil {
				return err
			}
			if err := v.Struct(p); err != nil {
				return err
			}
			raw, err := json.Marshal(p)
			if err != nil {
				return err
			}
			st, err := scheduler.NewStrategy(algorithm, raw)
			if err != nil {
				return err
			}

			s, err := schedule.Load(args[0])
			if err != nil {
				return err
			}
			if err := utils.ValidateSchedule(s); err != nil {
				return err
			}

			name := strings.TrimSuffix(filepath.Base(filepath.Clean(args[0])), schedule.SnapshotExt)
			files := artifact.NewFileRecorder(resultsDir, name, savePopulation)
			recorders := []scheduler.Recorder{files}
			if !quiet {
				recorders = append(recorders, scheduler.NewLogRecorder(slog.Default(), logEvery))
			}

			engine, err := scheduler.New(s, params, recorders...)
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			result, err := engine.Run(ctx, st)
			if err != nil {
				return err
			}

			fmt.Printf("算法:     %s\n", result.Algorithm)
			fmt.Printf("评估次数: %d\n", result.Evaluations)
			fmt.Printf("耗时:     %s\n", result.Duration)
			fmt.Printf("原始排程: penalty=%v makespan=%v\n", result.OriginalScores.Penalty(), result.OriginalScores.Makespan())
			fmt.Printf("最优解:   penalty=%v makespan=%v\n", result.Best.Fitness.Penalty(), result.Best.Fitness.Makespan())
			fmt.Printf("结果目录: %s\n", files.Folder())
			return nil
		},
	}

	cmd.Flags().StringVarP(&algorithm, "algorithm", "a", "ga", "算法名")
	cmd.Flags().StringVarP(&rawParams, "params", "p", "", `JSON 格式的算法参数，例如 '{"mu": 100}'`)
	cmd.Flags().IntVarP(&params.MaxEvaluations, "neval", "n", params.MaxEvaluations, "评估次数预算")
	cmd.Flags().IntVar(&params.PMin, "pmin", params.PMin, "初始基因偏移的下界（含）")
	cmd.Flags().IntVar(&params.PMax, "pmax", params.PMax, "初始基因偏移的上界（不含）")
	cmd.Flags().Float64Var(&params.RepairPct, "repair-pct", params.RepairPct, "每个约束被选中修复的概率")
	cmd.Flags().BoolVar(&params.SeedPopulation, "seed-population", params.SeedPopulation, "以实例本身的排程为基础初始化种群")
	cmd.Flags().IntVar(&params.HallOfFameSize, "hof", params.HallOfFameSize, "精英档案的容量")
	cmd.Flags().IntVarP(&params.Parallelism, "parallelism", "j", params.Parallelism, "并行评估的 goroutine 数量")
	cmd.Flags().Int64Var(&seed, "seed", 0, "随机数种子，不指定时随机")
	cmd.Flags().StringVar(&resultsDir, "results", "results", "结果目录")
	cmd.Flags().BoolVar(&savePopulation, "save-population", false, "保存每一代的种群")
	cmd.Flags().IntVar(&logEvery, "log-every", 10, "每隔多少代输出一次日志")
	cmd.Flags().BoolVarP(&quiet, "quiet", "q", false, "不输出每一代的日志")

	return cmd
}
