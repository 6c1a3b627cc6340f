package main

import (
	"context"
	"database/sql"
	"flag"
	"log/slog"
	"os"
	"time"

	"github.com/sysu-ecnc-dev/eaplanner/internal/config"
	"github.com/sysu-ecnc-dev/eaplanner/internal/repository"
	"github.com/sysu-ecnc-dev/eaplanner/internal/seed"

	_ "github.com/jackc/pgx/v5/stdlib"
)

func main() {
	var op int
	var n int
	var dir string

	flag.IntVar(&op, "op", 0, "要执行的操作 (1: 插入随机实例, 2: 导入 CSV 实例目录)")
	flag.IntVar(&n, "n", 0, "要插入的随机实例数量，为 0 时使用配置中的数量")
	flag.StringVar(&dir, "dir", "", "要导入的实例目录，为空时使用配置中的目录")
	flag.Parse()

	logger := slog.New(slog.NewTextHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	// 读取配置文件
	cfg, err := config.LoadConfig()
	if err != nil {
		logger.Error("无法读取配置文件", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// 创建数据库连接池
	dbpool, err := sql.Open("pgx", cfg.Database.DSN)
	if err != nil {
		logger.Error("无法创建数据库连接池", "error", err)
		return
	}
	defer dbpool.Close()

	dbpool.SetMaxOpenConns(cfg.Database.MaxOpenConns)
	dbpool.SetMaxIdleConns(cfg.Database.MaxIdleConns)
	dbpool.SetConnMaxIdleTime(time.Duration(cfg.Database.MaxIdleTime) * time.Second)

	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.Database.ConnectTimeout)*time.Second)
	defer cancel()

	// sql.Open 只是创建数据库连接池对象，并不会立即连接到数据库，因此需要显式地 ping 一下
	if err := dbpool.PingContext(ctx); err != nil {
		logger.Error("无法连接到数据库", "error", err)
		return
	}

	// 创建 repository
	repo := repository.NewRepository(cfg, dbpool)

	// 执行操作
	switch op {
	case 0:
		slog.Error("未指定操作")
	case 1:
		if n == 0 {
			n = cfg.Seed.Instances
		}
		if n < 0 {
			slog.Error("请输入合法的实例数量")
			return
		}

		cnt := seed.SeedRandomInstances(repo, cfg.GeneratorParams, cfg.Seed.Assignments, n)
		slog.Info("插入随机实例成功", slog.Int("count", cnt))
	case 2:
		if dir == "" {
			dir = cfg.Seed.ImportDir
		}

		cnt, err := seed.ImportInstances(repo, dir)
		if err != nil {
			slog.Error("导入实例失败", "dir", dir, "error", err)
			return
		}
		slog.Info("导入实例成功", slog.Int("count", cnt))
	default:
		slog.Error("指定的操作非法")
	}
}
