package main

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/redis/go-redis/v9"
	"github.com/sysu-ecnc-dev/eaplanner/internal/config"
	"github.com/sysu-ecnc-dev/eaplanner/internal/repository"
	"github.com/sysu-ecnc-dev/eaplanner/internal/worker"

	_ "github.com/jackc/pgx/v5/stdlib"
)

func main() {
	/**********************************************
	 * 创建 logger
	 **********************************************/
	logger := slog.New(slog.NewTextHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	/**********************************************
	 * 加载配置
	 **********************************************/
	cfg, err := config.LoadConfig()
	if err != nil {
		logger.Error("无法加载配置文件", "error", err)
		return
	}

	/**********************************************
	 * 连接数据库
	 **********************************************/
	dbpool, err := sql.Open("pgx", cfg.Database.DSN)
	if err != nil {
		logger.Error("无法创建数据库连接池", "error", err)
		return
	}
	defer dbpool.Close()

	dbpool.SetMaxOpenConns(cfg.Database.MaxOpenConns)
	dbpool.SetMaxIdleConns(cfg.Database.MaxIdleConns)
	dbpool.SetConnMaxIdleTime(time.Duration(cfg.Database.MaxIdleTime) * time.Second)

	pingCtx, pingCancel := context.WithTimeout(context.Background(), time.Duration(cfg.Database.ConnectTimeout)*time.Second)
	defer pingCancel()

	if err := dbpool.PingContext(pingCtx); err != nil {
		logger.Error("无法连接到数据库", "error", err)
		return
	}

	repo := repository.NewRepository(cfg, dbpool)

	/**********************************************
	 * 连接 redis
	 **********************************************/
	rdb := redis.NewClient(&redis.Options{
		Addr:     fmt.Sprintf("%s:%d", cfg.Redis.Host, cfg.Redis.Port),
		Password: cfg.Redis.Password,
		DB:       0,
	})
	defer rdb.Close()

	/**********************************************
	 * 连接 rabbitmq
	 **********************************************/
	conn, err := amqp.Dial(cfg.RabbitMQ.DSN)
	if err != nil {
		logger.Error("无法连接到 rabbitmq", "error", err)
		return
	}
	defer conn.Close()

	// 运行队列和邮件队列分别使用一个通道
	runCh, err := conn.Channel()
	if err != nil {
		logger.Error("无法建立通道", "error", err)
		return
	}
	defer runCh.Close()

	mailCh, err := conn.Channel()
	if err != nil {
		logger.Error("无法建立通道", "error", err)
		return
	}
	defer mailCh.Close()

	q, err := runCh.QueueDeclare(
		cfg.RabbitMQ.RunQueue, // 队列名称
		true,                  // 是否持久化
		false,                 // 是否自动删除
		false,                 // 是否独占
		false,                 // 是否不等待
		nil,                   // 额外参数
	)
	if err != nil {
		logger.Error("无法声明队列", "error", err)
		return
	}

	if _, err := mailCh.QueueDeclare(cfg.RabbitMQ.MailQueue, true, false, false, false, nil); err != nil {
		logger.Error("无法声明队列", "error", err)
		return
	}

	// 每个 worker 最多同时持有 Concurrency 条未确认的消息
	if err := runCh.Qos(max(cfg.Algorithm.Concurrency, 1), 0, false); err != nil {
		logger.Error("无法设置预取数量", "error", err)
		return
	}

	msgs, err := runCh.Consume(
		q.Name, // 队列
		"",     // 消费者标识，由 RabbitMQ 自动分配
		false,  // 手动确认
		false,  // 是否独占队列
		false,  // 必须为 false
		false,  // 等待 RabbitMQ 响应
		nil,    // 额外参数
	)
	if err != nil {
		logger.Error("无法消费消息", "error", err)
		return
	}

	/**********************************************
	 * 启动 worker
	 **********************************************/
	w := worker.NewWorker(cfg, repo, mailCh, rdb, logger)

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	// 取消后正在执行的运行会在当前代结束时停止并标记为失败
	ctx, cancel := context.WithCancel(context.Background())
	wg := sync.WaitGroup{}

	wg.Add(1)
	go func() {
		defer wg.Done()
		w.Consume(ctx, msgs)
	}()

	logger.Info("等待运行任务...（按 CTRL+C 退出）", "concurrency", cfg.Algorithm.Concurrency)
	<-sigChan

	logger.Info("正在关闭 worker...")
	cancel()
	wg.Wait()
	logger.Info("worker 已成功关闭")
}
