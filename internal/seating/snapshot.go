package seating

import (
	"fmt"
	"strconv"

	"github.com/sysu-ecnc-dev/seat-planner/backend/internal/domain"
)

// Snapshot 将染色体连同当天的员工和座位信息一起保存下来，供第二天的 Remap 使用
// 染色体必须已经被评估过
func Snapshot(world *World, c *Chromosome) *domain.SeatingLayout {
	layout := &domain.SeatingLayout{
		Employees: make([]domain.LayoutEmployee, 0, len(world.persons)),
		Desks:     make([]domain.LayoutDesk, 0, len(world.desks)),
		Slots:     c.Slots(),
	}

	for _, p := range world.persons {
		layout.Employees = append(layout.Employees, domain.LayoutEmployee{
			Name:  p.Name,
			Index: p.Index,
			Team:  p.Team,
		})
	}

	for _, d := range world.desks {
		layout.Desks = append(layout.Desks, domain.LayoutDesk{
			Row:   d.Row,
			Col:   d.Col,
			Index: d.Index,
			Team:  d.Team,
		})
	}

	b := c.Breakdown()
	layout.Fitness = b.Fitness
	layout.ConflictRatio = b.ConflictRatio
	layout.TeamSeatRatio = b.TeamSeatRatio()
	layout.PriorSeatRatio = b.ContinuityRatio

	return layout
}

// Restore 从保存的座位表重建 World 和染色体
// 冲突关系使用调用方传入的当前记录，因此冲突统计可能与保存时不同
func Restore(layout *domain.SeatingLayout, conflicts []ConflictPair) (*World, *Chromosome, error) {
	n := len(layout.Desks)
	if len(layout.Slots) != n || len(layout.Employees) != n {
		return nil, nil, fmt.Errorf("%w: %d 个座位，%d 名员工，%d 个位置", ErrCorruptLayout, n, len(layout.Employees), len(layout.Slots))
	}

	desks := make([]Desk, 0, n)
	for i, d := range layout.Desks {
		desk, err := NewDesk(d.Row, d.Col, d.Team)
		if err != nil {
			return nil, nil, fmt.Errorf("%w: %w", ErrCorruptLayout, err)
		}
		if i > 0 && desk.Index <= desks[i-1].Index {
			return nil, nil, fmt.Errorf("%w: 座位没有按编号排列", ErrCorruptLayout)
		}
		desks = append(desks, desk)
	}

	// 空座位总是排在真实员工之后
	people := make([]PersonSpec, 0, n)
	for i, e := range layout.Employees {
		if e.Index != i {
			return nil, nil, fmt.Errorf("%w: 第 %d 名员工的编号为 %d", ErrCorruptLayout, i, e.Index)
		}
		if e.Name == EmptyDeskName {
			continue
		}
		if len(people) != i {
			return nil, nil, fmt.Errorf("%w: 员工 %s 排在空座位之后", ErrCorruptLayout, e.Name)
		}
		people = append(people, PersonSpec{Name: e.Name, Team: e.Team})
	}

	for _, slot := range layout.Slots {
		if slot < 0 || slot >= n {
			return nil, nil, fmt.Errorf("%w: 员工编号 %d 超出范围", ErrCorruptLayout, slot)
		}
	}

	world, err := NewWorld(desks, people, conflicts)
	if err != nil {
		return nil, nil, err
	}

	return world, NewChromosome(layout.Slots), nil
}

// FormatPercentage 将比例格式化为保留两位小数的百分数
func FormatPercentage(ratio float64) string {
	return strconv.FormatFloat(ratio*100, 'f', 2, 64) + "%"
}
