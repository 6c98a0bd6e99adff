package domain

import "time"

type Employee struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	Team      int32     `json:"team"`      // 0 表示不关心团队
	IsPresent bool      `json:"isPresent"` // 今天是否需要座位
	CreatedAt time.Time `json:"createdAt"`
	Version   int32     `json:"-"`
}

type Conflict struct {
	ID             int64     `json:"id"`
	EmployeeID     int64     `json:"employeeID"`
	EmployeeName   string    `json:"employeeName"`
	ConflictorID   int64     `json:"conflictorID"`
	ConflictorName string    `json:"conflictorName"`
	CreatedAt      time.Time `json:"createdAt"`
}
