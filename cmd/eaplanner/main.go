package main

import (
	"log/slog"
	"os"

	"github.com/spf13/cobra"
)

var flagDebug bool

func main() {
	rootCmd := &cobra.Command{
		Use:   "eaplanner",
		Short: "用进化算法优化带约束的项目排程",
		Long: `eaplanner 在本地生成随机实例、运行进化算法并查看结果，
不需要数据库和消息队列。`,
		SilenceUsage: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			level := slog.LevelInfo
			if flagDebug {
				level = slog.LevelDebug
			}
			slog.SetDefault(slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: level})))
		},
	}

	rootCmd.PersistentFlags().BoolVar(&flagDebug, "debug", false, "输出调试日志")

	rootCmd.AddCommand(generateCmd())
	rootCmd.AddCommand(runCmd())
	rootCmd.AddCommand(inspectCmd())

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
