package domain

import "time"

type LayoutEmployee struct {
	Name  string `json:"name"`
	Index int    `json:"index"`
	Team  int    `json:"team"`
}

type LayoutDesk struct {
	Row   int `json:"row"`
	Col   int `json:"col"`
	Index int `json:"index"`
	Team  int `json:"team"`
}

// SeatingLayout 是一次排座结果的快照，写入后不再修改
// Slots[i] 是坐在 Desks[i] 上的员工在 Employees 中的编号
type SeatingLayout struct {
	ID             int64            `json:"id"`
	JobID          *string          `json:"jobID"`
	Name           string           `json:"name"`
	Employees      []LayoutEmployee `json:"employees"`
	Desks          []LayoutDesk     `json:"desks"`
	Slots          []int            `json:"slots"`
	Fitness        float64          `json:"fitness"`
	ConflictRatio  float64          `json:"conflictRatio"`
	TeamSeatRatio  float64          `json:"teamSeatRatio"`
	PriorSeatRatio float64          `json:"priorSeatRatio"`
	CreatedAt      time.Time        `json:"createdAt"`
}

// SeatingLayoutMeta 是列表页使用的摘要
type SeatingLayoutMeta struct {
	ID        int64     `json:"id"`
	JobID     *string   `json:"jobID"`
	Name      string    `json:"name"`
	Fitness   float64   `json:"fitness"`
	CreatedAt time.Time `json:"createdAt"`
}
