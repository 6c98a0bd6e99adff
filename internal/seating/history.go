package seating

import (
	"fmt"
	"log/slog"

	"github.com/agnivade/levenshtein"
	"github.com/sysu-ecnc-dev/seat-planner/backend/internal/domain"
)

const (
	// Unassigned 表示前一天的座位表在这个位置上没有可以沿用的员工
	Unassigned = -1

	// 名字相差不超过这个编辑距离时给出提示，多半是录入时打错了字
	nameHintDistance = 3
)

// Target 是用今天的员工编号重写过的前一天座位表
type Target struct {
	Slots     []int `json:"slots"`
	CarryOver int   `json:"carryOver"`
}

// Aligned 返回长度恰好为 n 的座位表副本，多出的部分截断，缺少的部分填充 Unassigned
func (t *Target) Aligned(n int) []int {
	slots := make([]int, n)
	for i := range slots {
		slots[i] = Unassigned
		if i < len(t.Slots) {
			slots[i] = t.Slots[i]
		}
	}
	return slots
}

type personKey struct {
	name string
	team int
}

// Remap 将前一天的座位表映射到今天的员工编号上
// 员工按 (名字, 团队) 匹配，编号每天都可能变化所以不可靠
// 快照中带有完整的座位信息时按 (行, 列) 放到今天对应的座位上，否则按原来的位置顺序放置
func Remap(prior *domain.SeatingLayout, world *World) (*Target, error) {
	today := make(map[personKey]int, len(world.persons))
	for _, p := range world.persons {
		if p.Empty {
			continue
		}
		if _, exists := today[personKey{p.Name, p.Team}]; !exists {
			today[personKey{p.Name, p.Team}] = p.Index
		}
	}

	// 前一天的编号 -> 今天的编号
	mapping := make(map[int]int, len(prior.Employees))
	for _, e := range prior.Employees {
		if e.Name == EmptyDeskName {
			mapping[e.Index] = Unassigned
			continue
		}

		index, ok := today[personKey{e.Name, e.Team}]
		if !ok {
			logMissingPartner(e, world)
			index = Unassigned
		}
		mapping[e.Index] = index
	}

	resolve := func(p int) (int, error) {
		if p < 0 {
			return Unassigned, nil
		}
		index, ok := mapping[p]
		if !ok {
			return 0, fmt.Errorf("%w: 座位表中出现了不存在的员工编号 %d", ErrCorruptLayout, p)
		}
		return index, nil
	}

	var slots []int
	if len(prior.Desks) > 0 && len(prior.Desks) == len(prior.Slots) {
		slotOf := make(map[[2]int]int, len(world.desks))
		for i, d := range world.desks {
			slotOf[[2]int{d.Row, d.Col}] = i
		}

		slots = make([]int, len(world.desks))
		for i := range slots {
			slots[i] = Unassigned
		}
		for i, d := range prior.Desks {
			slot, ok := slotOf[[2]int{d.Row, d.Col}]
			if !ok {
				// 这个座位今天不可用
				continue
			}
			index, err := resolve(prior.Slots[i])
			if err != nil {
				return nil, err
			}
			slots[slot] = index
		}
	} else {
		// 没有座位信息时按位置对应，超出今天座位数的部分无法沿用
		slots = make([]int, min(len(prior.Slots), world.Size()))
		for i, p := range prior.Slots[:len(slots)] {
			index, err := resolve(p)
			if err != nil {
				return nil, err
			}
			slots[i] = index
		}
	}

	// 同一个人不能被安排两次
	seen := make(map[int]bool, len(slots))
	target := &Target{Slots: slots}
	for i, p := range slots {
		if p == Unassigned {
			continue
		}
		if seen[p] {
			slots[i] = Unassigned
			continue
		}
		seen[p] = true
		target.CarryOver++
	}

	return target, nil
}

func logMissingPartner(e domain.LayoutEmployee, world *World) {
	closest, distance := "", nameHintDistance+1
	for _, p := range world.persons {
		if p.Empty {
			continue
		}
		if d := levenshtein.ComputeDistance(e.Name, p.Name); d < distance {
			closest, distance = p.Name, d
		}
	}

	if closest == "" {
		slog.Info("前一天的员工今天不在", "name", e.Name, "team", e.Team)
		return
	}
	slog.Info("前一天的员工今天不在", "name", e.Name, "team", e.Team, "closest", closest, "distance", distance)
}
