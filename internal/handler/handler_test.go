package handler

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/sysu-ecnc-dev/seat-planner/backend/internal/config"
	"github.com/sysu-ecnc-dev/seat-planner/backend/internal/domain"
	"github.com/sysu-ecnc-dev/seat-planner/backend/internal/seating"
)

const testSecret = "test-secret"

// 以下请求都在访问数据库之前就返回，因此不需要 repository
func newTestHandler(t *testing.T) *Handler {
	t.Helper()

	cfg := &config.Config{}
	cfg.JWT.Secret = testSecret
	cfg.RabbitMQ.PublishTimeout = 1
	cfg.Redis.ProgressExpiration = 60
	cfg.Redis.OperationExpiration = 1

	h, err := NewHandler(cfg, nil, nil, nil)
	require.NoError(t, err)
	h.RegisterRoutes()
	return h
}

func signToken(t *testing.T, role domain.Role, secret string) string {
	t.Helper()

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, AuthClaims{
		Role: string(role),
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "1",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
		},
	})
	s, err := token.SignedString([]byte(secret))
	require.NoError(t, err)
	return s
}

func doRequest(t *testing.T, h *Handler, method, path, body, token string) (*httptest.ResponseRecorder, Response) {
	t.Helper()

	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if token != "" {
		req.AddCookie(&http.Cookie{Name: tokenCookieName, Value: token})
	}
	rec := httptest.NewRecorder()
	h.Mux.ServeHTTP(rec, req)

	var resp Response
	if strings.HasPrefix(rec.Header().Get("Content-Type"), "application/json") {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	}
	return rec, resp
}

func TestAuthRequired(t *testing.T) {
	h := newTestHandler(t)

	_, resp := doRequest(t, h, http.MethodGet, "/desks/floor", "", "")
	assert.False(t, resp.Success)
	assert.Equal(t, "用户未登录", resp.Message)

	_, resp = doRequest(t, h, http.MethodGet, "/desks/floor", "", signToken(t, domain.RoleStaff, "other-secret"))
	assert.False(t, resp.Success)
	assert.Equal(t, "无效的令牌", resp.Message)
}

func TestGetFloorPlan(t *testing.T) {
	h := newTestHandler(t)

	rec, resp := doRequest(t, h, http.MethodGet, "/desks/floor", "", signToken(t, domain.RoleStaff, testSecret))
	assert.Equal(t, http.StatusOK, rec.Code)
	require.True(t, resp.Success)

	desks, ok := resp.Data.([]any)
	require.True(t, ok)
	assert.Len(t, desks, seating.TotalDesks)
}

func TestPlannerOnlyRoutes(t *testing.T) {
	h := newTestHandler(t)
	staff := signToken(t, domain.RoleStaff, testSecret)

	tests := []struct {
		method string
		path   string
	}{
		{http.MethodPut, "/desks"},
		{http.MethodPut, "/employees"},
		{http.MethodPost, "/conflicts"},
		{http.MethodDelete, "/conflicts/1"},
		{http.MethodPost, "/seating-jobs"},
		{http.MethodDelete, "/seating-jobs/" + uuid.NewString()},
	}

	for _, tt := range tests {
		t.Run(tt.method+" "+tt.path, func(t *testing.T) {
			_, resp := doRequest(t, h, tt.method, tt.path, "{}", staff)
			assert.False(t, resp.Success)
			assert.Equal(t, "权限不足", resp.Message)
		})
	}
}

func TestReplaceDesksValidation(t *testing.T) {
	h := newTestHandler(t)
	planner := signToken(t, domain.RolePlanner, testSecret)

	_, resp := doRequest(t, h, http.MethodPut, "/desks", `{"desks":[]}`, planner)
	assert.False(t, resp.Success)
	assert.NotEmpty(t, resp.Message)

	_, resp = doRequest(t, h, http.MethodPut, "/desks", `{"desks":`, planner)
	assert.False(t, resp.Success)
}

func TestInvalidPathParameters(t *testing.T) {
	h := newTestHandler(t)
	staff := signToken(t, domain.RoleStaff, testSecret)

	_, resp := doRequest(t, h, http.MethodGet, "/seating-jobs/not-a-uuid", "", staff)
	assert.Equal(t, "任务ID无效", resp.Message)

	_, resp = doRequest(t, h, http.MethodGet, "/seating-layouts/yesterday", "", staff)
	assert.Equal(t, "无效的选项", resp.Message)
}

func TestTextResponse(t *testing.T) {
	h := newTestHandler(t)

	rec := httptest.NewRecorder()
	h.textResponse(rec, httptest.NewRequest(http.MethodGet, "/", nil), []byte("A01 张伟\n"))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "text/plain; charset=utf-8", rec.Header().Get("Content-Type"))
	assert.Equal(t, "A01 张伟\n", rec.Body.String())
}

func TestOwnSeatingJob(t *testing.T) {
	h := newTestHandler(t)
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		h.successResponse(w, r, "ok", nil)
	})

	tests := []struct {
		name        string
		requestedBy int64
		success     bool
		message     string
	}{
		{"提交者本人", 7, true, "ok"},
		{"其他排座管理员", 8, false, "只能操作自己提交的排座任务"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := context.WithValue(context.Background(), MyInfoCtx, &domain.User{ID: 7, Role: domain.RolePlanner, IsActive: true})
			ctx = context.WithValue(ctx, SeatingJobCtx, &domain.SeatingJob{ID: uuid.NewString(), RequestedBy: tt.requestedBy})
			req := httptest.NewRequest(http.MethodDelete, "/", nil).WithContext(ctx)
			rec := httptest.NewRecorder()

			h.ownSeatingJob(next).ServeHTTP(rec, req)

			var resp Response
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
			assert.Equal(t, tt.success, resp.Success)
			assert.Equal(t, tt.message, resp.Message)
		})
	}
}

func TestUserConstraintMessage(t *testing.T) {
	tests := []struct {
		constraint string
		want       string
	}{
		{"users_username_key", "用户名已存在"},
		{"users_email_key", "邮箱已被占用"},
		{"seating_jobs_requested_by_fkey", "该用户提交过排座任务，请改为停用"},
		{"employees_code_key", ""},
	}

	for _, tt := range tests {
		t.Run(tt.constraint, func(t *testing.T) {
			err := fmt.Errorf("wrapped: %w", &pgconn.PgError{ConstraintName: tt.constraint})
			assert.Equal(t, tt.want, userConstraintMessage(err))
		})
	}

	assert.Empty(t, userConstraintMessage(errors.New("connection refused")))
}

// 以下情况不需要查询排座管理员数量
func TestKeepsLastPlannerWithoutCount(t *testing.T) {
	h := newTestHandler(t)

	planner := &domain.User{Role: domain.RolePlanner, IsActive: true}
	inactivePlanner := &domain.User{Role: domain.RolePlanner}
	staff := &domain.User{Role: domain.RoleStaff, IsActive: true}

	tests := []struct {
		name   string
		before *domain.User
		after  *domain.User
	}{
		{"普通职员被删除", staff, nil},
		{"已停用的排座管理员被删除", inactivePlanner, nil},
		{"排座管理员只改了姓名", planner, &domain.User{Role: domain.RolePlanner, IsActive: true, FullName: "李明"}},
		{"普通职员升为排座管理员", staff, planner},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			last, err := h.keepsLastPlanner(tt.before, tt.after)
			require.NoError(t, err)
			assert.False(t, last)
		})
	}
}

func TestOTPKey(t *testing.T) {
	assert.Equal(t, "otp_alice_reset_password", otpKey(otpResetPassword, "alice", ""))
	assert.Equal(t, "otp_alice_change_email_to_a@example.com", otpKey(otpChangeEmail, "alice", "a@example.com"))
	assert.NotEqual(t,
		otpKey(otpChangeEmail, "alice", "a@example.com"),
		otpKey(otpChangeEmail, "alice", "b@example.com"),
	)
}

func TestParseTokenRejectsOtherAlgorithms(t *testing.T) {
	h := newTestHandler(t)

	token := jwt.NewWithClaims(jwt.SigningMethodHS512, AuthClaims{
		Role: string(domain.RolePlanner),
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "1",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	})
	s, err := token.SignedString([]byte(testSecret))
	require.NoError(t, err)

	_, err = h.parseToken(s)
	assert.Error(t, err)

	claims, err := h.parseToken(signToken(t, domain.RolePlanner, testSecret))
	require.NoError(t, err)
	assert.Equal(t, string(domain.RolePlanner), claims.Role)
}

func TestLogoutClearsCookie(t *testing.T) {
	h := newTestHandler(t)

	rec, resp := doRequest(t, h, http.MethodPost, "/auth/logout", "", "")
	require.True(t, resp.Success)

	cookies := rec.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.Equal(t, tokenCookieName, cookies[0].Name)
	assert.Empty(t, cookies[0].Value)
	assert.True(t, cookies[0].HttpOnly)
	assert.True(t, cookies[0].Expires.Before(time.Now()))
}
