package handler

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/sysu-ecnc-dev/eaplanner/internal/config"
)

func testHandler(t *testing.T) *Handler {
	t.Helper()

	cfg := &config.Config{Environment: "development"}
	cfg.Admin.Username = "admin"
	cfg.Admin.Password = "secret"
	cfg.JWT.Secret = "jwt-secret"
	cfg.JWT.Expiration = 1
	cfg.Algorithm.Neval = 100
	cfg.Algorithm.PMin = -5
	cfg.Algorithm.PMax = 5
	cfg.Algorithm.RepairPct = 1
	cfg.Algorithm.HallOfFameSize = 1

	h, err := NewHandler(cfg, nil, nil, nil)
	require.NoError(t, err)
	h.RegisterRoutes()
	return h
}

func do(t *testing.T, h *Handler, method, path string, body any, cookies ...*http.Cookie) (*httptest.ResponseRecorder, Response) {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	for _, c := range cookies {
		req.AddCookie(c)
	}

	rec := httptest.NewRecorder()
	h.Mux.ServeHTTP(rec, req)

	var resp Response
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	return rec, resp
}

func login(t *testing.T, h *Handler) *http.Cookie {
	t.Helper()

	rec, resp := do(t, h, http.MethodPost, "/auth/login", map[string]string{"username": "admin", "password": "secret"})
	require.True(t, resp.Success, resp.Message)

	for _, c := range rec.Result().Cookies() {
		if c.Name == tokenCookieName {
			return c
		}
	}
	t.Fatal("登录后没有设置 cookie")
	return nil
}

func TestLogin(t *testing.T) {
	h := testHandler(t)

	_, resp := do(t, h, http.MethodPost, "/auth/login", map[string]string{"username": "admin", "password": "wrong"})
	assert.False(t, resp.Success)
	assert.Equal(t, "用户名不存在或密码错误", resp.Message)

	_, resp = do(t, h, http.MethodPost, "/auth/login", map[string]string{"username": "root", "password": "secret"})
	assert.False(t, resp.Success)

	_, resp = do(t, h, http.MethodPost, "/auth/login", map[string]string{"username": "admin"})
	assert.False(t, resp.Success)

	_, resp = do(t, h, http.MethodPost, "/auth/login", nil)
	assert.False(t, resp.Success)
	assert.Equal(t, "请求体不能为空", resp.Message)

	_, resp = do(t, h, http.MethodPost, "/auth/login", map[string]any{"username": 1, "password": "secret"})
	assert.False(t, resp.Success)
	assert.Equal(t, "字段 username 的类型错误", resp.Message)

	cookie := login(t, h)
	assert.True(t, cookie.HttpOnly)
	assert.NotEmpty(t, cookie.Value)
}

func TestAuthRequired(t *testing.T) {
	h := testHandler(t)

	_, resp := do(t, h, http.MethodGet, "/algorithms", nil)
	assert.False(t, resp.Success)
	assert.Equal(t, "用户未登录", resp.Message)

	_, resp = do(t, h, http.MethodGet, "/algorithms", nil, &http.Cookie{Name: tokenCookieName, Value: "garbage"})
	assert.False(t, resp.Success)
	assert.Equal(t, "无效的令牌", resp.Message)
}

func TestGetAllAlgorithms(t *testing.T) {
	h := testHandler(t)
	cookie := login(t, h)

	_, resp := do(t, h, http.MethodGet, "/algorithms", nil, cookie)
	require.True(t, resp.Success, resp.Message)

	data := resp.Data.(map[string]any)
	algorithms := data["algorithms"].([]any)
	require.Len(t, algorithms, 5)

	names := make([]string, 0, len(algorithms))
	for _, a := range algorithms {
		names = append(names, a.(map[string]any)["name"].(string))
	}
	assert.Equal(t, []string{"ga", "ppa", "pso", "shc", "sa"}, names)

	settings := data["settings"].(map[string]any)
	assert.Equal(t, 100.0, settings["neval"])
}

func TestCreateRunRejectsInvalidRequests(t *testing.T) {
	h := testHandler(t)
	cookie := login(t, h)

	cases := map[string]any{
		"未知算法":   map[string]any{"instanceID": 1, "algorithm": "tabu"},
		"缺少实例":   map[string]any{"algorithm": "ga"},
		"种群为零":   map[string]any{"instanceID": 1, "algorithm": "ga", "parameters": map[string]any{"mu": 0}},
		"概率之和为零": map[string]any{"instanceID": 1, "algorithm": "ga", "parameters": map[string]any{"cxpb": 0, "mutpb": 0}},
		"上下界颠倒":  map[string]any{"instanceID": 1, "algorithm": "shc", "settings": map[string]any{"pmin": 5, "pmax": 1}},
		"参数类型错误": map[string]any{"instanceID": 1, "algorithm": "pso", "parameters": map[string]any{"mu": "many"}},
	}

	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			rec, resp := do(t, h, http.MethodPost, "/runs", body, cookie)
			assert.Equal(t, http.StatusOK, rec.Code)
			assert.False(t, resp.Success)
			assert.NotEmpty(t, resp.Message)
		})
	}
}

func TestCreateInstanceRejectsBrokenTables(t *testing.T) {
	h := testHandler(t)
	cookie := login(t, h)

	body := map[string]any{
		"name": "broken",
		"tables": map[string]any{
			"activities":          []map[string]any{{"id": 1, "hours": 10, "start": 0, "duration": 1}},
			"sequenceConstraints": []map[string]any{{"predecessorId": 1, "successorId": 2, "type": 1}},
		},
	}

	_, resp := do(t, h, http.MethodPost, "/instances", body, cookie)
	assert.False(t, resp.Success)
	assert.Contains(t, resp.Message, "2")

	_, resp = do(t, h, http.MethodPost, "/instances", map[string]any{"tables": map[string]any{}}, cookie)
	assert.False(t, resp.Success)
}

func TestInstanceNamesMustBeSafePaths(t *testing.T) {
	h := testHandler(t)
	cookie := login(t, h)

	tables := map[string]any{
		"activities": []map[string]any{{"id": 0, "hours": 10, "start": 0, "duration": 1}},
	}
	_, resp := do(t, h, http.MethodPost, "/instances", map[string]any{"name": "../../escaped", "tables": tables}, cookie)
	assert.False(t, resp.Success)
	assert.Contains(t, resp.Message, "只能包含字母")

	_, resp = do(t, h, http.MethodPost, "/instances/generate", map[string]any{"name": "/tmp/x"}, cookie)
	assert.False(t, resp.Success)
	assert.Contains(t, resp.Message, "只能包含字母")
}

func TestGenerateInstanceRejectsHugeInstances(t *testing.T) {
	h := testHandler(t)
	cookie := login(t, h)

	body := map[string]any{"params": map[string]any{"assignments": 1_000_000}}
	_, resp := do(t, h, http.MethodPost, "/instances/generate", body, cookie)
	assert.False(t, resp.Success)
}

func TestInvalidIDs(t *testing.T) {
	h := testHandler(t)
	cookie := login(t, h)

	_, resp := do(t, h, http.MethodGet, "/instances/abc", nil, cookie)
	assert.False(t, resp.Success)
	assert.Equal(t, "实例ID无效", resp.Message)

	_, resp = do(t, h, http.MethodGet, "/runs/42", nil, cookie)
	assert.False(t, resp.Success)
	assert.Equal(t, "运行ID无效", resp.Message)

	_, resp = do(t, h, http.MethodGet, "/runs?instance=x", nil, cookie)
	assert.False(t, resp.Success)
	assert.Equal(t, "实例ID无效", resp.Message)
}
