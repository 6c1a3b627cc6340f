// Package worker 从运行队列中取出任务，执行算法并保存结果。
package worker

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/redis/go-redis/v9"
	"github.com/sourcegraph/conc/pool"
	"github.com/sysu-ecnc-dev/eaplanner/internal/artifact"
	"github.com/sysu-ecnc-dev/eaplanner/internal/config"
	"github.com/sysu-ecnc-dev/eaplanner/internal/domain"
	"github.com/sysu-ecnc-dev/eaplanner/internal/repository"
	"github.com/sysu-ecnc-dev/eaplanner/internal/scheduler"
)

// 每攒够这么多代就写一次数据库
const logbookBatch = 50

type Worker struct {
	config      *config.Config
	repository  *repository.Repository
	mailChannel *amqp.Channel
	redisClient *redis.Client
	logger      *slog.Logger
}

func NewWorker(cfg *config.Config, repo *repository.Repository, mailCh *amqp.Channel, rdb *redis.Client, logger *slog.Logger) *Worker {
	return &Worker{
		config:      cfg,
		repository:  repo,
		mailChannel: mailCh,
		redisClient: rdb,
		logger:      logger,
	}
}

/**
 * Consume 处理队列中的消息直到 ctx 被取消或者通道关闭
 * 同时执行的运行数由 ALGORITHM_CONCURRENCY 决定，返回前会等待所有运行结束。
 */
func (w *Worker) Consume(ctx context.Context, msgs <-chan amqp.Delivery) {
	p := pool.New().WithMaxGoroutines(max(w.config.Algorithm.Concurrency, 1))
	defer p.Wait()

	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-msgs:
			if !ok {
				w.logger.Warn("运行队列已关闭")
				return
			}
			p.Go(func() {
				w.handle(ctx, msg)
			})
		}
	}
}

func (w *Worker) handle(ctx context.Context, msg amqp.Delivery) {
	w.logger.Info("收到消息", "message", string(msg.Body))

	runMessage := domain.RunMessage{}
	if err := json.Unmarshal(msg.Body, &runMessage); err != nil {
		w.logger.Error("运行信息反序列化失败", "error", err)
		_ = msg.Nack(false, false)
		return
	}

	if err := w.Process(ctx, runMessage.RunID); err != nil {
		w.logger.Error("无法处理运行", "run", runMessage.RunID, "error", err)
		_ = msg.Nack(false, false)
		return
	}

	_ = msg.Ack(false)
}

// Process 执行一次排队中的运行，其他状态的运行会被跳过
func (w *Worker) Process(ctx context.Context, runID uuid.UUID) error {
	run, err := w.repository.GetRunByID(runID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			w.logger.Warn("运行不存在，已跳过", "run", runID)
			return nil
		}
		return err
	}
	if run.Status != domain.RunStatusQueued {
		w.logger.Warn("运行不在排队中，已跳过", "run", runID, "status", run.Status)
		return nil
	}

	instance, err := w.repository.GetInstanceByID(run.InstanceID)
	if err != nil {
		return w.fail(run, nil, err)
	}

	if err := w.repository.MarkRunRunning(run); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			// 已经被其他 worker 取走
			return nil
		}
		return err
	}

	result, err := w.execute(ctx, run, instance)
	if err != nil {
		if errors.Is(err, context.Canceled) {
			err = errors.New("运行被中断")
		}
		return w.fail(run, instance, err)
	}

	solution, err := NewSolution(run.ID, result)
	if err != nil {
		return w.fail(run, instance, err)
	}
	if err := w.repository.InsertSolution(solution); err != nil {
		return w.fail(run, instance, err)
	}

	penalty, makespan := result.Best.Fitness[0], result.Best.Fitness[1]
	run.Evaluations = result.Evaluations
	run.BestPenalty = &penalty
	run.BestMakespan = &makespan
	if err := w.repository.FinishRun(run); err != nil {
		return err
	}

	w.notify(NewRunFinishedMail(run, instance, result))
	return nil
}

func (w *Worker) execute(ctx context.Context, run *domain.Run, instance *domain.Instance) (*scheduler.Result, error) {
	s, err := instance.Tables.Build()
	if err != nil {
		return nil, err
	}

	params := w.config.SchedulerParameters()
	if err := json.Unmarshal(run.Settings, &params); err != nil {
		return nil, fmt.Errorf("%w: %v", scheduler.ErrInvalidParameters, err)
	}

	st, err := scheduler.NewStrategy(run.Algorithm, run.Parameters)
	if err != nil {
		return nil, err
	}

	files := artifact.NewFileRecorder(w.config.Algorithm.ResultsDir, instance.Name, w.config.Algorithm.SavePopulation).WithRunID(run.ID)
	recorders := []scheduler.Recorder{
		files,
		NewProgressRecorder(
			w.redisClient,
			run.ID,
			params.MaxEvaluations,
			time.Duration(w.config.Redis.OperationExpiration)*time.Second,
			time.Duration(w.config.Redis.ProgressExpiration)*time.Second,
		),
		NewLogbookRecorder(w.repository, run.ID, logbookBatch),
	}
	if w.config.Algorithm.Verbose {
		recorders = append(recorders, scheduler.NewLogRecorder(w.logger.With("run", run.ID), w.config.Algorithm.LogEvery))
	}

	engine, err := scheduler.New(s, params, recorders...)
	if err != nil {
		return nil, err
	}

	result, err := engine.Run(ctx, st)
	run.Folder = files.Folder()
	return result, err
}

// fail 把运行标记为失败，运行本身的错误不会返回给队列
func (w *Worker) fail(run *domain.Run, instance *domain.Instance, cause error) error {
	w.logger.Error("运行失败", "run", run.ID, "error", cause)

	if err := w.repository.FailRun(run, cause.Error()); err != nil {
		return err
	}

	if instance != nil {
		w.notify(NewRunFailedMail(run, instance))
	}
	return nil
}

// notify 把通知邮件发送到邮件队列，未配置收件人时不发送
func (w *Worker) notify(data *domain.RunFinishedMailData) {
	if w.config.Email.NotifyAddress == "" || w.mailChannel == nil {
		return
	}

	mailData, err := json.Marshal(domain.MailMessage{
		Type: domain.MailTypeRunFinished,
		To:   w.config.Email.NotifyAddress,
		Data: data,
	})
	if err != nil {
		w.logger.Error("无法序列化邮件", "error", err)
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(w.config.RabbitMQ.PublishTimeout)*time.Second)
	defer cancel()

	if err := w.mailChannel.PublishWithContext(
		ctx,
		"",
		w.config.RabbitMQ.MailQueue,
		true,
		false,
		amqp.Publishing{
			ContentType: "application/json",
			Body:        mailData,
		},
	); err != nil {
		w.logger.Error("无法发送邮件到消息队列", "run", data.RunID, "error", err)
	}
}
