package handler

import (
	"database/sql"
	"errors"
	"net/http"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/sysu-ecnc-dev/seat-planner/backend/internal/domain"
	"github.com/sysu-ecnc-dev/seat-planner/backend/internal/utils"
	"golang.org/x/crypto/bcrypt"
)

// userConstraintMessage 把与用户相关的约束冲突翻译成提示，无法识别时返回空字符串
func userConstraintMessage(err error) string {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return ""
	}

	switch pgErr.ConstraintName {
	case "users_username_key":
		return "用户名已存在"
	case "users_email_key":
		return "邮箱已被占用"
	case "seating_jobs_requested_by_fkey":
		return "该用户提交过排座任务，请改为停用"
	default:
		return ""
	}
}

// isActivePlanner 判断用户是否能够提交排座任务
func isActivePlanner(u *domain.User) bool {
	return u.Role == domain.RolePlanner && u.IsActive
}

// keepsLastPlanner 在 before 是唯一可用的排座管理员且 after 不再是时返回 true
func (h *Handler) keepsLastPlanner(before, after *domain.User) (bool, error) {
	if !isActivePlanner(before) || (after != nil && isActivePlanner(after)) {
		return false, nil
	}

	count, err := h.repository.CountActiveUsersByRole(domain.RolePlanner)
	if err != nil {
		return false, err
	}
	return count <= 1, nil
}

func (h *Handler) GetAllUserInfo(w http.ResponseWriter, r *http.Request) {
	users, err := h.repository.GetAllUsers()
	if err != nil {
		h.internalServerError(w, r, err)
		return
	}

	h.successResponse(w, r, "获取用户列表成功", users)
}

func (h *Handler) CreateUser(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Username string `json:"username" validate:"required"`
		FullName string `json:"fullName" validate:"required"`
		Email    string `json:"email" validate:"required,email"`
		Role     string `json:"role" validate:"required,oneof=普通职员 排座管理员"`
	}

	if err := h.readJSON(r, &req); err != nil {
		h.badRequest(w, r, err)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		h.badRequest(w, r, err)
		return
	}

	password := utils.GenerateRandomPassword(h.config.NewUser.PasswordLength)
	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		h.internalServerError(w, r, err)
		return
	}

	user := &domain.User{
		Username:     req.Username,
		PasswordHash: string(hashedPassword),
		FullName:     req.FullName,
		Email:        req.Email,
		Role:         domain.Role(req.Role),
	}

	if err := h.repository.CreateUser(user); err != nil {
		if msg := userConstraintMessage(err); msg != "" {
			h.errorResponse(w, r, msg)
			return
		}
		h.internalServerError(w, r, err)
		return
	}

	// 初始密码只出现在这封邮件里
	data := domain.CreateUserMailData{
		FullName: user.FullName,
		Username: user.Username,
		Password: password,
	}
	if err := h.sendMail(domain.MailTypeCreateUser, user.Email, data); err != nil {
		h.internalServerError(w, r, err)
		return
	}

	h.successResponse(w, r, "用户创建成功", user)
}

func (h *Handler) GetUserInfo(w http.ResponseWriter, r *http.Request) {
	user := r.Context().Value(UserInfoCtx).(*domain.User)
	h.successResponse(w, r, "获取用户信息成功", user)
}

func (h *Handler) UpdateUser(w http.ResponseWriter, r *http.Request) {
	var req struct {
		FullName *string `json:"fullName" validate:"omitempty,min=1"`
		Email    *string `json:"email" validate:"omitempty,email"`
		Role     *string `json:"role" validate:"omitempty,oneof=普通职员 排座管理员"`
		IsActive *bool   `json:"isActive"`
	}

	if err := h.readJSON(r, &req); err != nil {
		h.badRequest(w, r, err)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		h.badRequest(w, r, err)
		return
	}

	user := r.Context().Value(UserInfoCtx).(*domain.User)
	before := *user

	if req.FullName != nil {
		user.FullName = *req.FullName
	}
	if req.Email != nil {
		user.Email = *req.Email
	}
	if req.Role != nil {
		user.Role = domain.Role(*req.Role)
	}
	if req.IsActive != nil {
		user.IsActive = *req.IsActive
	}

	last, err := h.keepsLastPlanner(&before, user)
	if err != nil {
		h.internalServerError(w, r, err)
		return
	}
	if last {
		h.errorResponse(w, r, "至少保留一名排座管理员")
		return
	}

	if err := h.repository.UpdateUser(user); err != nil {
		if msg := userConstraintMessage(err); msg != "" {
			h.errorResponse(w, r, msg)
			return
		}
		switch {
		case errors.Is(err, sql.ErrNoRows):
			h.errorResponse(w, r, "更新用户信息失败，请重试")
		default:
			h.internalServerError(w, r, err)
		}
		return
	}

	h.successResponse(w, r, "更新用户信息成功", user)
}

// DeleteUser 只能删除没有提交过排座任务的用户，其余用户应当停用
func (h *Handler) DeleteUser(w http.ResponseWriter, r *http.Request) {
	user := r.Context().Value(UserInfoCtx).(*domain.User)

	last, err := h.keepsLastPlanner(user, nil)
	if err != nil {
		h.internalServerError(w, r, err)
		return
	}
	if last {
		h.errorResponse(w, r, "至少保留一名排座管理员")
		return
	}

	if err := h.repository.DeleteUser(user.ID); err != nil {
		if msg := userConstraintMessage(err); msg != "" {
			h.errorResponse(w, r, msg)
			return
		}
		h.internalServerError(w, r, err)
		return
	}

	h.successResponse(w, r, "删除用户成功", nil)
}
