package domain

import "time"

type JobStatus string

const (
	JobStatusPending   JobStatus = "pending"
	JobStatusRunning   JobStatus = "running"
	JobStatusFinished  JobStatus = "finished"
	JobStatusFailed    JobStatus = "failed"
	JobStatusCancelled JobStatus = "cancelled"
)

// Done 表示任务不会再被执行
func (s JobStatus) Done() bool {
	return s == JobStatusFinished || s == JobStatusFailed || s == JobStatusCancelled
}

// PlannerParameters 是遗传算法的运行参数，随任务一起存储和投递
type PlannerParameters struct {
	MaxGenerations      int    `json:"maxGenerations"`
	PopulationSize      int    `json:"populationSize"`
	UpdateFrequency     int    `json:"updateFrequency"`
	MinSwaps            int    `json:"minSwaps"`
	MaxSwaps            int    `json:"maxSwaps"`
	ConflictShiftRadius int    `json:"conflictShiftRadius"`
	CrossoverMode       string `json:"crossoverMode"`
	Runs                int    `json:"runs"`
	Seed                int64  `json:"seed"`
}

type SeatingJob struct {
	ID            string            `json:"id"`
	Name          string            `json:"name"`
	Status        JobStatus         `json:"status"`
	Parameters    PlannerParameters `json:"parameters"`
	PriorLayoutID *int64            `json:"priorLayoutID"`
	LayoutID      *int64            `json:"layoutID"`
	RequestedBy   int64             `json:"requestedBy"`
	Error         string            `json:"error"`
	CreatedAt     time.Time         `json:"createdAt"`
	UpdatedAt     time.Time         `json:"updatedAt"`
	Version       int32             `json:"-"`
}

// SeatingJobMessage 是投递到 seating_queue 的消息体
type SeatingJobMessage struct {
	JobID string `json:"jobID"`
}
