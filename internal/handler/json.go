package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"github.com/go-playground/validator/v10"
)

// 上传的实例可能有上万个活动
const maxBodyBytes = 32 << 20

type Response struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	Data    any    `json:"data"`
}

func (h *Handler) logInternalServerError(r *http.Request, err error) {
	slog.Error("服务器内部错误", "method", r.Method, "path", r.URL.Path, "error", err)
}

// readJSON 解码请求体，解码错误会被转换为面向用户的中文信息
func (h *Handler) readJSON(w http.ResponseWriter, r *http.Request, v any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)

	err := json.NewDecoder(r.Body).Decode(v)
	if err == nil {
		return nil
	}

	var syntaxError *json.SyntaxError
	var typeError *json.UnmarshalTypeError
	var maxBytesError *http.MaxBytesError
	switch {
	case errors.Is(err, io.EOF):
		return errors.New("请求体不能为空")
	case errors.Is(err, io.ErrUnexpectedEOF):
		return errors.New("请求体不是合法的 JSON")
	case errors.As(err, &syntaxError):
		return fmt.Errorf("请求体不是合法的 JSON（第 %d 个字节）", syntaxError.Offset)
	case errors.As(err, &typeError):
		if typeError.Field != "" {
			return fmt.Errorf("字段 %s 的类型错误", typeError.Field)
		}
		return errors.New("请求体的类型错误")
	case errors.As(err, &maxBytesError):
		return fmt.Errorf("请求体不能超过 %d 字节", maxBytesError.Limit)
	default:
		return err
	}
}

func (h *Handler) writeJSON(w http.ResponseWriter, r *http.Request, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(v); err != nil {
		h.logInternalServerError(r, err)
	}
}

func (h *Handler) successResponse(w http.ResponseWriter, r *http.Request, msg string, data any) {
	h.writeJSON(w, r, http.StatusOK, Response{Success: true, Message: msg, Data: data})
}

// errorResponse 用于业务上的失败，HTTP 状态码仍然是 200
func (h *Handler) errorResponse(w http.ResponseWriter, r *http.Request, msg string) {
	h.writeJSON(w, r, http.StatusOK, Response{Success: false, Message: msg})
}

func (h *Handler) badRequest(w http.ResponseWriter, r *http.Request, err error) {
	var validationErrors validator.ValidationErrors
	if errors.As(err, &validationErrors) {
		h.errorResponse(w, r, validationErrors[0].Translate(h.validator.Translator))
		return
	}

	h.errorResponse(w, r, err.Error())
}

func (h *Handler) internalServerError(w http.ResponseWriter, r *http.Request, err error) {
	h.logInternalServerError(r, err)
	h.writeJSON(w, r, http.StatusInternalServerError, Response{Success: false, Message: "服务器内部错误"})
}
