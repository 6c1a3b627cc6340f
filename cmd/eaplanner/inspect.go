package main

import (
	"fmt"
	"os"
	"path/filepath"
	"slices"

	"github.com/spf13/cobra"
	"github.com/sysu-ecnc-dev/eaplanner/internal/artifact"
	"github.com/sysu-ecnc-dev/eaplanner/internal/schedule"
)

func inspectCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "inspect <路径>",
		Short: "查看实例或者一次运行的结果",
		Long: `路径是实例（CSV 目录或 .gob 快照）时输出实例的统计信息，
是运行结果目录（包含 solution.json）时输出最优解。`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := args[0]
			if _, err := os.Stat(filepath.Join(path, artifact.SolutionFile)); err == nil {
				return inspectResult(path)
			}
			return inspectInstance(path)
		},
	}

	return cmd
}

func inspectInstance(path string) error {
	s, err := schedule.Load(path)
	if err != nil {
		return err
	}

	summary := s.Summarize()
	fmt.Printf("活动数量: %d\n", summary.Assignments)
	fmt.Printf("约束数量: %d\n", summary.Constraints)
	fmt.Printf("开始日:   %d\n", summary.Start)
	fmt.Printf("结束日:   %d\n", summary.End)
	fmt.Printf("总罚分:   %v\n", summary.Penalty)
	fmt.Printf("总工期:   %d\n", summary.Makespan)
	fmt.Printf("单日峰值: %v 工时\n", summary.PeakHours)
	fmt.Printf("组合数:   %g\n", summary.Combinations)

	groups := s.ConstraintsPerGroup()
	names := make([]string, 0, len(groups))
	for group := range groups {
		names = append(names, string(group))
	}
	slices.Sort(names)
	for _, name := range names {
		constraints := groups[schedule.ConstraintGroup(name)]
		violated := 0
		for _, c := range constraints {
			if c.Penalty() > 0 {
				violated++
			}
		}
		fmt.Printf("%-20s %d 个，违反 %d 个\n", name, len(constraints), violated)
	}

	return nil
}

func inspectResult(folder string) error {
	solution, err := artifact.ReadSolution(folder)
	if err != nil {
		return err
	}

	for _, name := range []string{"penalty", "makespan"} {
		fmt.Printf("%-9s 原始 %v，最优 %v\n", name, solution.OriginalScores[name], solution.Scores[name])
	}
	fmt.Printf("染色体长度: %d\n", len(solution.Individual))

	s, err := schedule.LoadCSV(filepath.Join(folder, artifact.ScheduleDir))
	if err != nil {
		return err
	}
	fmt.Printf("最优排程:   %d 个活动，第 %d 天至第 %d 天\n", s.Len(), s.Start(), s.End())

	return nil
}
