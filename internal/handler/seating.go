package handler

import (
	"bytes"
	"database/sql"
	"errors"
	"net/http"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/sysu-ecnc-dev/seat-planner/backend/internal/domain"
	"github.com/sysu-ecnc-dev/seat-planner/backend/internal/progress"
	"github.com/sysu-ecnc-dev/seat-planner/backend/internal/seating"
)

// CreateSeatingJob 创建排座任务并投递到排座队列，由 worker 异步执行
func (h *Handler) CreateSeatingJob(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name            string `json:"name" validate:"required"`
		PriorLayoutID   *int64 `json:"priorLayoutID" validate:"omitempty,min=1"`
		UseLatestLayout bool   `json:"useLatestLayout"`
		Parameters      *struct {
			MaxGenerations      int    `json:"maxGenerations" validate:"min=1"`
			PopulationSize      int    `json:"populationSize" validate:"min=2"`
			UpdateFrequency     int    `json:"updateFrequency" validate:"min=1"`
			MinSwaps            int    `json:"minSwaps" validate:"min=0"`
			MaxSwaps            int    `json:"maxSwaps" validate:"gtefield=MinSwaps"`
			ConflictShiftRadius int    `json:"conflictShiftRadius" validate:"min=0"`
			CrossoverMode       string `json:"crossoverMode" validate:"oneof=single-cut double-cut uniform clone"`
			Runs                int    `json:"runs" validate:"min=1,max=64"`
			Seed                int64  `json:"seed"`
		} `json:"parameters"`
	}

	if err := h.readJSON(r, &req); err != nil {
		h.badRequest(w, r, err)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		h.badRequest(w, r, err)
		return
	}

	// 未指定参数时使用配置中的默认值
	params := h.config.DefaultPlannerParameters()
	if req.Parameters != nil {
		params = domain.PlannerParameters(*req.Parameters)
	}
	if _, err := seating.ParametersFromDomain(params); err != nil {
		h.badRequest(w, r, err)
		return
	}

	myInfo := r.Context().Value(MyInfoCtx).(*domain.User)

	job := &domain.SeatingJob{
		ID:            uuid.NewString(),
		Name:          req.Name,
		Status:        domain.JobStatusPending,
		Parameters:    params,
		PriorLayoutID: req.PriorLayoutID,
		RequestedBy:   myInfo.ID,
	}

	if job.PriorLayoutID == nil && req.UseLatestLayout {
		latestID, err := h.repository.GetLatestSeatingLayoutID()
		switch {
		case err == nil:
			job.PriorLayoutID = &latestID
		case errors.Is(err, sql.ErrNoRows):
			// 还没有历史座位表，从随机种群开始
		default:
			h.internalServerError(w, r, err)
			return
		}
	}

	if err := h.repository.CreateSeatingJob(job); err != nil {
		var pgErr *pgconn.PgError
		switch {
		case errors.As(err, &pgErr):
			switch {
			case pgErr.ConstraintName == "seating_jobs_prior_layout_id_fkey":
				h.badRequest(w, r, errors.New("参考的座位表不存在"))
			default:
				h.internalServerError(w, r, err)
			}
		default:
			h.internalServerError(w, r, err)
		}
		return
	}

	if err := h.publish(h.config.RabbitMQ.SeatingQueue, domain.SeatingJobMessage{JobID: job.ID}); err != nil {
		job.Status = domain.JobStatusFailed
		job.Error = "无法投递任务"
		if updateErr := h.repository.UpdateSeatingJobStatus(job); updateErr != nil {
			h.logInternalServerError(r, updateErr)
		}
		h.internalServerError(w, r, err)
		return
	}

	h.successResponse(w, r, "排座任务已提交", job)
}

func (h *Handler) GetAllSeatingJobs(w http.ResponseWriter, r *http.Request) {
	jobs, err := h.repository.GetAllSeatingJobs()
	if err != nil {
		h.internalServerError(w, r, err)
		return
	}

	h.successResponse(w, r, "获取排座任务列表成功", jobs)
}

// GetSeatingJob 返回任务本身以及 redis 中记录的最新进度
func (h *Handler) GetSeatingJob(w http.ResponseWriter, r *http.Request) {
	job := r.Context().Value(SeatingJobCtx).(*domain.SeatingJob)

	p, err := h.progress.Load(r.Context(), job.ID)
	if err != nil {
		h.internalServerError(w, r, err)
		return
	}

	h.successResponse(w, r, "获取排座任务成功", struct {
		*domain.SeatingJob
		Progress *progress.Progress `json:"progress"`
	}{job, p})
}

// CancelSeatingJob 只能取消还在排队的任务，worker 取到已取消的任务会直接跳过
func (h *Handler) CancelSeatingJob(w http.ResponseWriter, r *http.Request) {
	job := r.Context().Value(SeatingJobCtx).(*domain.SeatingJob)

	if job.Status != domain.JobStatusPending {
		h.errorResponse(w, r, "只能取消排队中的排座任务")
		return
	}

	job.Status = domain.JobStatusCancelled
	if err := h.repository.UpdateSeatingJobStatus(job); err != nil {
		switch {
		case errors.Is(err, sql.ErrNoRows):
			h.errorResponse(w, r, "任务状态已变化，请重试")
		default:
			h.internalServerError(w, r, err)
		}
		return
	}

	h.successResponse(w, r, "排座任务已取消", job)
}

func (h *Handler) GetAllSeatingLayouts(w http.ResponseWriter, r *http.Request) {
	metas, err := h.repository.GetAllSeatingLayoutMetas()
	if err != nil {
		h.internalServerError(w, r, err)
		return
	}

	h.successResponse(w, r, "获取座位表列表成功", metas)
}

func (h *Handler) GetSeatingLayout(w http.ResponseWriter, r *http.Request) {
	layout := r.Context().Value(SeatingLayoutCtx).(*domain.SeatingLayout)
	h.successResponse(w, r, "获取座位表成功", layout)
}

// RenderSeatingLayout 以纯文本输出座位表，冲突统计使用当前的冲突关系
func (h *Handler) RenderSeatingLayout(w http.ResponseWriter, r *http.Request) {
	layout := r.Context().Value(SeatingLayoutCtx).(*domain.SeatingLayout)

	conflicts, err := h.repository.GetAllConflicts()
	if err != nil {
		h.internalServerError(w, r, err)
		return
	}

	pairs := make([]seating.ConflictPair, 0, len(conflicts))
	for _, c := range conflicts {
		pairs = append(pairs, seating.ConflictPair{First: c.EmployeeName, Second: c.ConflictorName})
	}

	world, c, err := seating.Restore(layout, pairs)
	if err != nil {
		h.internalServerError(w, r, err)
		return
	}

	var buf bytes.Buffer
	if err := seating.Render(&buf, seating.NewEvaluator(world, nil), c, false); err != nil {
		h.internalServerError(w, r, err)
		return
	}
	if r.URL.Query().Get("conflicts") == "true" {
		buf.WriteString("\n")
		if err := seating.RenderConflicts(&buf, world); err != nil {
			h.internalServerError(w, r, err)
			return
		}
	}

	h.textResponse(w, r, buf.Bytes())
}

func (h *Handler) DeleteSeatingLayout(w http.ResponseWriter, r *http.Request) {
	layout := r.Context().Value(SeatingLayoutCtx).(*domain.SeatingLayout)

	if err := h.repository.DeleteSeatingLayout(layout.ID); err != nil {
		var pgErr *pgconn.PgError
		switch {
		case errors.As(err, &pgErr):
			switch {
			case pgErr.ConstraintName == "seating_jobs_prior_layout_id_fkey":
				h.badRequest(w, r, errors.New("有排座任务正在参考该座位表"))
			default:
				h.internalServerError(w, r, err)
			}
		default:
			h.internalServerError(w, r, err)
		}
		return
	}

	h.successResponse(w, r, "删除座位表成功", nil)
}
