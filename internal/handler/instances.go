package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/sysu-ecnc-dev/eaplanner/internal/domain"
	"github.com/sysu-ecnc-dev/eaplanner/internal/generator"
	"github.com/sysu-ecnc-dev/eaplanner/internal/schedule"
	"github.com/sysu-ecnc-dev/eaplanner/internal/utils"
)

func (h *Handler) GetAllInstances(w http.ResponseWriter, r *http.Request) {
	instances, err := h.repository.GetAllInstances()
	if err != nil {
		h.internalServerError(w, r, err)
		return
	}

	h.successResponse(w, r, "获取所有实例成功", instances)
}

func (h *Handler) CreateInstance(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name        string           `json:"name" validate:"required,max=128,instancename"`
		Description string           `json:"description"`
		Tables      *schedule.Tables `json:"tables" validate:"required"`
	}

	if err := h.readJSON(w, r, &req); err != nil {
		h.badRequest(w, r, err)
		return
	}
	if err := h.validator.Struct(req); err != nil {
		h.badRequest(w, r, err)
		return
	}

	s, err := req.Tables.Build()
	if err != nil {
		h.badRequest(w, r, err)
		return
	}
	if err := utils.ValidateSchedule(s); err != nil {
		h.badRequest(w, r, err)
		return
	}

	h.saveInstance(w, r, domain.NewInstance(req.Name, req.Description, domain.InstanceSourceUpload, s))
}

func (h *Handler) GenerateInstance(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name        string          `json:"name" validate:"omitempty,max=128,instancename"`
		Description string          `json:"description"`
		Params      json.RawMessage `json:"params"`
	}

	if err := h.readJSON(w, r, &req); err != nil {
		h.badRequest(w, r, err)
		return
	}

	// 请求中的参数覆盖配置中的默认值
	params := h.config.GeneratorParams(0)
	if len(req.Params) > 0 {
		if err := json.Unmarshal(req.Params, &params); err != nil {
			h.badRequest(w, r, err)
			return
		}
	}
	if err := h.validator.Struct(req); err != nil {
		h.badRequest(w, r, err)
		return
	}
	if err := h.validator.Struct(params); err != nil {
		h.badRequest(w, r, err)
		return
	}

	s, err := generator.Generate(params)
	if err != nil {
		switch {
		case errors.Is(err, generator.ErrInvalidParams):
			h.badRequest(w, r, err)
		default:
			h.internalServerError(w, r, err)
		}
		return
	}

	if req.Name == "" {
		req.Name = utils.GenerateRandomInstanceName(params.Assignments)
	}

	h.saveInstance(w, r, domain.NewInstance(req.Name, req.Description, domain.InstanceSourceGenerated, s))
}

func (h *Handler) saveInstance(w http.ResponseWriter, r *http.Request, instance *domain.Instance) {
	if err := h.repository.CreateInstance(instance); err != nil {
		var pgErr *pgconn.PgError
		switch {
		case errors.As(err, &pgErr):
			switch pgErr.ConstraintName {
			case "instances_name_key":
				h.errorResponse(w, r, "实例名称已存在")
			default:
				h.internalServerError(w, r, err)
			}
		default:
			h.internalServerError(w, r, err)
		}
		return
	}

	h.successResponse(w, r, "创建实例成功", instance)
}

func (h *Handler) GetInstance(w http.ResponseWriter, r *http.Request) {
	instance := r.Context().Value(InstanceCtx).(*domain.Instance)

	h.successResponse(w, r, "获取实例成功", instance)
}

func (h *Handler) DeleteInstance(w http.ResponseWriter, r *http.Request) {
	instance := r.Context().Value(InstanceCtx).(*domain.Instance)

	active, err := h.repository.CountActiveRuns(instance.ID)
	if err != nil {
		h.internalServerError(w, r, err)
		return
	}
	if active > 0 {
		h.errorResponse(w, r, "该实例还有未结束的运行，无法删除")
		return
	}

	if err := h.repository.DeleteInstance(instance.ID); err != nil {
		h.internalServerError(w, r, err)
		return
	}

	h.successResponse(w, r, "删除实例成功", nil)
}
