package utils

import (
	"fmt"
	"sort"

	"github.com/sysu-ecnc-dev/seat-planner/backend/internal/domain"
	"github.com/sysu-ecnc-dev/seat-planner/backend/internal/seating"
)

// ValidateDeskRoster 检查每个座位的坐标和团队，计算线性编号并按编号排序
func ValidateDeskRoster(desks []*domain.Desk) error {
	seen := make(map[int32]bool, len(desks))

	for i, desk := range desks {
		d, err := seating.NewDesk(int(desk.Row), int(desk.Col), int(desk.Team))
		if err != nil {
			return fmt.Errorf("第 %d 个座位: %w", i+1, err)
		}

		desk.Index = int32(d.Index)
		if seen[desk.Index] {
			return fmt.Errorf("座位 (%d, %d) 重复出现", desk.Row, desk.Col)
		}
		seen[desk.Index] = true
	}

	sort.Slice(desks, func(i, j int) bool {
		return desks[i].Index < desks[j].Index
	})

	return nil
}

// ValidateEmployeeRoster 检查名单中的名字是否重复以及团队是否合法，deskCount 为当前的座位数
func ValidateEmployeeRoster(employees []*domain.Employee, deskCount int) error {
	if len(employees) > deskCount {
		return fmt.Errorf("今天有 %d 名员工，但只有 %d 个座位", len(employees), deskCount)
	}

	seen := make(map[string]bool, len(employees))
	for _, e := range employees {
		if e.Name == seating.EmptyDeskName {
			return fmt.Errorf("员工不能命名为 %s", seating.EmptyDeskName)
		}
		if e.Team < 0 || e.Team > 2 {
			return fmt.Errorf("员工 %s 的团队编号只能为 0、1、2", e.Name)
		}
		if seen[e.Name] {
			return fmt.Errorf("员工 %s 重复出现", e.Name)
		}
		seen[e.Name] = true
	}

	return nil
}

// ValidateConflictPair 检查冲突关系的两端是否为不同的员工
func ValidateConflictPair(employee, conflictor *domain.Employee) error {
	if employee.ID == conflictor.ID {
		return fmt.Errorf("%s 不能与自己冲突", employee.Name)
	}
	return nil
}
