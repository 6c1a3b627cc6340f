package handler

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/redis/go-redis/v9"
	"github.com/sysu-ecnc-dev/eaplanner/internal/domain"
	"github.com/sysu-ecnc-dev/eaplanner/internal/scheduler"
)

type algorithmInfo struct {
	Name       string `json:"name"`
	Parameters any    `json:"parameters"`
}

func (h *Handler) GetAllAlgorithms(w http.ResponseWriter, r *http.Request) {
	algorithms := make([]algorithmInfo, 0, len(scheduler.Algorithms))
	for _, name := range scheduler.Algorithms {
		p, err := scheduler.DefaultStrategyParameters(name)
		if err != nil {
			h.internalServerError(w, r, err)
			return
		}
		algorithms = append(algorithms, algorithmInfo{Name: name, Parameters: p})
	}

	h.successResponse(w, r, "获取所有算法成功", map[string]any{
		"settings":   h.config.SchedulerParameters(),
		"algorithms": algorithms,
	})
}

func (h *Handler) CreateRun(w http.ResponseWriter, r *http.Request) {
	var req struct {
		InstanceID int64           `json:"instanceID" validate:"required,min=1"`
		Algorithm  string          `json:"algorithm" validate:"required,oneof=ga ppa pso shc sa"`
		Settings   json.RawMessage `json:"settings"`
		Parameters json.RawMessage `json:"parameters"`
	}

	if err := h.readJSON(w, r, &req); err != nil {
		h.badRequest(w, r, err)
		return
	}
	if err := h.validator.Struct(req); err != nil {
		h.badRequest(w, r, err)
		return
	}

	// 公共参数以配置为默认值
	settings := h.config.SchedulerParameters()
	if len(req.Settings) > 0 {
		if err := json.Unmarshal(req.Settings, &settings); err != nil {
			h.badRequest(w, r, err)
			return
		}
	}
	if err := h.validator.Struct(settings); err != nil {
		h.badRequest(w, r, err)
		return
	}

	params, err := scheduler.ParseParameters(req.Algorithm, req.Parameters)
	if err != nil {
		h.badRequest(w, r, err)
		return
	}
	if err := h.validator.Struct(params); err != nil {
		h.badRequest(w, r, err)
		return
	}

	settingsData, err := json.Marshal(settings)
	if err != nil {
		h.internalServerError(w, r, err)
		return
	}
	paramsData, err := json.Marshal(params)
	if err != nil {
		h.internalServerError(w, r, err)
		return
	}
	// 参数之间的约束由策略自己检查
	if _, err := scheduler.NewStrategy(req.Algorithm, paramsData); err != nil {
		h.badRequest(w, r, err)
		return
	}

	if _, err := h.repository.GetInstanceByID(req.InstanceID); err != nil {
		switch {
		case errors.Is(err, sql.ErrNoRows):
			h.errorResponse(w, r, "实例不存在")
		default:
			h.internalServerError(w, r, err)
		}
		return
	}

	run := &domain.Run{
		InstanceID: req.InstanceID,
		Algorithm:  req.Algorithm,
		Settings:   settingsData,
		Parameters: paramsData,
		Status:     domain.RunStatusQueued,
	}
	if err := h.repository.CreateRun(run); err != nil {
		h.internalServerError(w, r, err)
		return
	}

	// 发送到运行队列中，由 worker 执行
	body, err := json.Marshal(domain.RunMessage{RunID: run.ID})
	if err != nil {
		h.internalServerError(w, r, err)
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(h.config.RabbitMQ.PublishTimeout)*time.Second)
	defer cancel()

	if err := h.runChannel.PublishWithContext(
		ctx,
		"",
		h.config.RabbitMQ.RunQueue,
		true,
		false,
		amqp.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp.Persistent,
			Body:         body,
		},
	); err != nil {
		if failErr := h.repository.FailRun(run, "无法发送到运行队列"); failErr != nil {
			slog.Error("无法将运行标记为失败", "run", run.ID, "error", failErr)
		}
		h.internalServerError(w, r, err)
		return
	}

	h.successResponse(w, r, "创建运行成功", run)
}

func (h *Handler) GetAllRuns(w http.ResponseWriter, r *http.Request) {
	var instanceID int64
	if param := r.URL.Query().Get("instance"); param != "" {
		id, err := strconv.ParseInt(param, 10, 64)
		if err != nil {
			h.errorResponse(w, r, "实例ID无效")
			return
		}
		instanceID = id
	}

	runs, err := h.repository.GetAllRuns(instanceID)
	if err != nil {
		h.internalServerError(w, r, err)
		return
	}

	h.successResponse(w, r, "获取所有运行成功", runs)
}

type runWithProgress struct {
	*domain.Run
	Progress *domain.RunProgress `json:"progress"`
}

func (h *Handler) GetRun(w http.ResponseWriter, r *http.Request) {
	run := r.Context().Value(RunCtx).(*domain.Run)

	resp := runWithProgress{Run: run}

	// 进度只在运行中才有意义
	if run.Status == domain.RunStatusRunning {
		ctx, cancel := context.WithTimeout(r.Context(), time.Duration(h.config.Redis.OperationExpiration)*time.Second)
		defer cancel()

		data, err := h.redisClient.Get(ctx, domain.RunProgressKey(run.ID)).Bytes()
		switch {
		case errors.Is(err, redis.Nil):
		case err != nil:
			h.internalServerError(w, r, err)
			return
		default:
			progress := &domain.RunProgress{}
			if err := json.Unmarshal(data, progress); err != nil {
				h.internalServerError(w, r, err)
				return
			}
			resp.Progress = progress
		}
	}

	h.successResponse(w, r, "获取运行成功", resp)
}

func (h *Handler) GetRunLogbook(w http.ResponseWriter, r *http.Request) {
	run := r.Context().Value(RunCtx).(*domain.Run)

	records, err := h.repository.GetLogbook(run.ID)
	if err != nil {
		h.internalServerError(w, r, err)
		return
	}

	h.successResponse(w, r, "获取运行日志成功", records)
}

func (h *Handler) GetRunSolution(w http.ResponseWriter, r *http.Request) {
	run := r.Context().Value(RunCtx).(*domain.Run)

	if run.Status != domain.RunStatusFinished {
		h.errorResponse(w, r, "运行尚未完成")
		return
	}

	solution, err := h.repository.GetSolution(run.ID)
	if err != nil {
		switch {
		case errors.Is(err, sql.ErrNoRows):
			h.errorResponse(w, r, "运行结果不存在")
		default:
			h.internalServerError(w, r, err)
		}
		return
	}

	h.successResponse(w, r, "获取运行结果成功", solution)
}
