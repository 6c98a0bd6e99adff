package handler

import (
	"net/http"

	"github.com/sysu-ecnc-dev/seat-planner/backend/internal/domain"
	"github.com/sysu-ecnc-dev/seat-planner/backend/internal/seating"
	"github.com/sysu-ecnc-dev/seat-planner/backend/internal/utils"
)

func (h *Handler) GetAllDesks(w http.ResponseWriter, r *http.Request) {
	desks, err := h.repository.GetAllDesks()
	if err != nil {
		h.internalServerError(w, r, err)
		return
	}

	h.successResponse(w, r, "获取座位列表成功", desks)
}

// GetFloorPlan 返回整层楼所有合法的座位，前端据此选择启用哪些座位
func (h *Handler) GetFloorPlan(w http.ResponseWriter, r *http.Request) {
	h.successResponse(w, r, "获取楼层平面成功", seating.AllDesks())
}

func (h *Handler) ReplaceDesks(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Desks []struct {
			Row  int32 `json:"row" validate:"required"`
			Col  int32 `json:"col" validate:"required"`
			Team int32 `json:"team" validate:"min=0,max=2"`
		} `json:"desks" validate:"required,min=1,dive"`
	}

	if err := h.readJSON(r, &req); err != nil {
		h.badRequest(w, r, err)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		h.badRequest(w, r, err)
		return
	}

	desks := make([]*domain.Desk, 0, len(req.Desks))
	for _, d := range req.Desks {
		desks = append(desks, &domain.Desk{Row: d.Row, Col: d.Col, Team: d.Team})
	}

	if err := utils.ValidateDeskRoster(desks); err != nil {
		h.badRequest(w, r, err)
		return
	}

	if err := h.repository.ReplaceDesks(desks); err != nil {
		h.internalServerError(w, r, err)
		return
	}

	h.successResponse(w, r, "更新座位成功", desks)
}
