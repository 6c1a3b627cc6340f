package main

import (
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"github.com/sysu-ecnc-dev/eaplanner/internal/generator"
	"github.com/sysu-ecnc-dev/eaplanner/internal/schedule"
)

func generateCmd() *cobra.Command {
	p := generator.DefaultParams(0)
	var seed int64
	var out string

	cmd := &cobra.Command{
		Use:   "generate <活动数量>",
		Short: "生成一个随机实例",
		Long: `生成一个随机实例并保存到 --out。
以 .gob 结尾时保存为二进制快照，否则保存为 CSV 目录。`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, err := fmt.Sscan(args[0], &p.Assignments); err != nil {
				return fmt.Errorf("活动数量无效: %w", err)
			}
			if cmd.Flags().Changed("seed") {
				p.Seed = &seed
			}
			if out == "" {
				out = fmt.Sprintf("random_%d", p.Assignments)
			}

			s, err := generator.Generate(p)
			if err != nil {
				return err
			}

			if strings.EqualFold(filepath.Ext(out), schedule.SnapshotExt) {
				err = s.SaveSnapshot(out)
			} else {
				err = s.SaveCSV(out)
			}
			if err != nil {
				return err
			}

			slog.Info("已生成实例",
				"out", out,
				"assignments", s.Len(),
				"constraints", len(s.Constraints),
				"penalty", s.TotalPenalty(),
				"makespan", s.TotalMakespan(),
			)
			return nil
		},
	}

	cmd.Flags().IntVar(&p.K, "k", p.K, "随机图中每个节点的平均出度")
	cmd.Flags().IntVar(&p.Resources, "resources", p.Resources, "资源数量，-1 表示根据活动数量自动计算")
	cmd.Flags().Float64Var(&p.PDate, "p-date", p.PDate, "活动带有日期约束的概率")
	cmd.Flags().Float64Var(&p.MuHours, "mu-hours", p.MuHours, "活动工时的均值")
	cmd.Flags().Float64Var(&p.StdHours, "std-hours", p.StdHours, "活动工时的标准差")
	cmd.Flags().Float64Var(&p.MuResources, "mu-resources", p.MuResources, "资源容量的均值")
	cmd.Flags().Float64Var(&p.StdResources, "std-resources", p.StdResources, "资源容量的标准差")
	cmd.Flags().BoolVar(&p.DropIsolated, "drop-isolated", false, "删除没有任何约束的活动并重新编号")
	cmd.Flags().Int64Var(&seed, "seed", 0, "随机数种子，不指定时随机")
	cmd.Flags().StringVarP(&out, "out", "o", "", "输出路径，默认为 random_<活动数量>")

	return cmd
}
