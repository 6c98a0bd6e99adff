package handler

import (
	"database/sql"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/sysu-ecnc-dev/seat-planner/backend/internal/domain"
	"github.com/sysu-ecnc-dev/seat-planner/backend/internal/utils"
)

func (h *Handler) GetAllEmployees(w http.ResponseWriter, r *http.Request) {
	employees, err := h.repository.GetAllEmployees()
	if err != nil {
		h.internalServerError(w, r, err)
		return
	}

	h.successResponse(w, r, "获取员工列表成功", employees)
}

// SetTodayRoster 提交今天需要座位的员工名单
func (h *Handler) SetTodayRoster(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Employees []struct {
			Name string `json:"name" validate:"required"`
			Team int32  `json:"team" validate:"min=0,max=2"`
		} `json:"employees" validate:"required,dive"`
	}

	if err := h.readJSON(r, &req); err != nil {
		h.badRequest(w, r, err)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		h.badRequest(w, r, err)
		return
	}

	employees := make([]*domain.Employee, 0, len(req.Employees))
	for _, e := range req.Employees {
		employees = append(employees, &domain.Employee{Name: e.Name, Team: e.Team})
	}

	desks, err := h.repository.GetAllDesks()
	if err != nil {
		h.internalServerError(w, r, err)
		return
	}

	if err := utils.ValidateEmployeeRoster(employees, len(desks)); err != nil {
		h.badRequest(w, r, err)
		return
	}

	if err := h.repository.SetTodayRoster(employees); err != nil {
		h.internalServerError(w, r, err)
		return
	}

	h.successResponse(w, r, "更新今日名单成功", employees)
}

func (h *Handler) GetEmployee(w http.ResponseWriter, r *http.Request) {
	e := r.Context().Value(EmployeeCtx).(*domain.Employee)
	h.successResponse(w, r, "获取员工信息成功", e)
}

func (h *Handler) UpdateEmployee(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name      *string `json:"name" validate:"omitempty,min=1"`
		Team      *int32  `json:"team" validate:"omitempty,min=0,max=2"`
		IsPresent *bool   `json:"isPresent"`
	}

	if err := h.readJSON(r, &req); err != nil {
		h.badRequest(w, r, err)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		h.badRequest(w, r, err)
		return
	}

	e := r.Context().Value(EmployeeCtx).(*domain.Employee)

	if req.Name != nil {
		e.Name = *req.Name
	}
	if req.Team != nil {
		e.Team = *req.Team
	}
	if req.IsPresent != nil {
		e.IsPresent = *req.IsPresent
	}

	if err := h.repository.UpdateEmployee(e); err != nil {
		var pgErr *pgconn.PgError
		switch {
		case errors.As(err, &pgErr):
			switch {
			case pgErr.ConstraintName == "employees_name_key":
				h.badRequest(w, r, errors.New("员工姓名已存在"))
			default:
				h.internalServerError(w, r, err)
			}
		case errors.Is(err, sql.ErrNoRows):
			h.errorResponse(w, r, "更新员工信息失败，请重试")
		default:
			h.internalServerError(w, r, err)
		}
		return
	}

	h.successResponse(w, r, "更新员工信息成功", e)
}

func (h *Handler) DeleteEmployee(w http.ResponseWriter, r *http.Request) {
	e := r.Context().Value(EmployeeCtx).(*domain.Employee)

	if err := h.repository.DeleteEmployee(e.ID); err != nil {
		h.internalServerError(w, r, err)
		return
	}

	h.successResponse(w, r, "删除员工成功", nil)
}

func (h *Handler) GetAllConflicts(w http.ResponseWriter, r *http.Request) {
	conflicts, err := h.repository.GetAllConflicts()
	if err != nil {
		h.internalServerError(w, r, err)
		return
	}

	h.successResponse(w, r, "获取冲突关系成功", conflicts)
}

func (h *Handler) CreateConflict(w http.ResponseWriter, r *http.Request) {
	var req struct {
		EmployeeName   string `json:"employeeName" validate:"required"`
		ConflictorName string `json:"conflictorName" validate:"required,nefield=EmployeeName"`
	}

	if err := h.readJSON(r, &req); err != nil {
		h.badRequest(w, r, err)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		h.badRequest(w, r, err)
		return
	}

	employees := make([]*domain.Employee, 0, 2)
	for _, name := range []string{req.EmployeeName, req.ConflictorName} {
		e, err := h.repository.GetEmployeeByName(name)
		if err != nil {
			switch {
			case errors.Is(err, sql.ErrNoRows):
				h.errorResponse(w, r, "员工 "+name+" 不存在")
			default:
				h.internalServerError(w, r, err)
			}
			return
		}
		employees = append(employees, e)
	}

	if err := utils.ValidateConflictPair(employees[0], employees[1]); err != nil {
		h.badRequest(w, r, err)
		return
	}

	c := &domain.Conflict{
		EmployeeID:     employees[0].ID,
		EmployeeName:   employees[0].Name,
		ConflictorID:   employees[1].ID,
		ConflictorName: employees[1].Name,
	}

	if err := h.repository.CreateConflict(c); err != nil {
		var pgErr *pgconn.PgError
		switch {
		case errors.As(err, &pgErr):
			switch {
			case pgErr.ConstraintName == "conflicts_pair_key":
				h.badRequest(w, r, errors.New("冲突关系已存在"))
			default:
				h.internalServerError(w, r, err)
			}
		default:
			h.internalServerError(w, r, err)
		}
		return
	}

	h.successResponse(w, r, "添加冲突关系成功", c)
}

func (h *Handler) DeleteConflict(w http.ResponseWriter, r *http.Request) {
	conflictID, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		h.errorResponse(w, r, "冲突关系ID无效")
		return
	}

	deleted, err := h.repository.DeleteConflict(conflictID)
	if err != nil {
		h.internalServerError(w, r, err)
		return
	}

	if !deleted {
		h.errorResponse(w, r, "冲突关系不存在")
		return
	}

	h.successResponse(w, r, "删除冲突关系成功", nil)
}
