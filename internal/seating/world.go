package seating

import (
	"fmt"
	"log/slog"
	"sort"

	"github.com/sysu-ecnc-dev/seat-planner/backend/internal/domain"
)

// PersonSpec 是构建 World 时输入的员工信息
type PersonSpec struct {
	Name string
	Team int
}

// ConflictPair 用名字描述一条冲突关系
type ConflictPair struct {
	First  string
	Second string
}

// World 是一次排座所需的全部只读数据：座位、员工以及冲突关系
// 构建完成后在所有种群和评估器之间共享，不允许再修改
type World struct {
	desks      []Desk
	persons    []*Person
	emptyDesks int
}

// NewWorld 构建 World
// 座位的坐标和编号必须合法；座位按线性编号排序，染色体的第 i 位对应排序后的第 i 个座位；
// 员工不足座位数时用空座位占位补齐；冲突中出现的未知名字会被忽略（说明此人今天没来）
func NewWorld(desks []Desk, people []PersonSpec, conflicts []ConflictPair) (*World, error) {
	if len(people) > len(desks) {
		return nil, fmt.Errorf("%w: %d 个座位，%d 名员工", ErrNotEnoughDesks, len(desks), len(people))
	}

	w := &World{
		desks:   make([]Desk, len(desks)),
		persons: make([]*Person, 0, len(desks)),
	}

	for i, d := range desks {
		checked, err := NewDesk(d.Row, d.Col, d.Team)
		if err != nil {
			return nil, err
		}
		if checked.Index != d.Index {
			return nil, fmt.Errorf("%w: 座位 (%d, %d) 的编号应为 %d，实际为 %d", ErrInvalidGeometry, d.Row, d.Col, checked.Index, d.Index)
		}
		w.desks[i] = checked
	}
	sort.Slice(w.desks, func(i, j int) bool {
		return w.desks[i].Index < w.desks[j].Index
	})
	for i := 1; i < len(w.desks); i++ {
		if w.desks[i].Index == w.desks[i-1].Index {
			return nil, fmt.Errorf("%w: 座位 (%d, %d) 重复出现", ErrInvalidGeometry, w.desks[i].Row, w.desks[i].Col)
		}
	}

	byName := make(map[string]*Person, len(people))
	for i, spec := range people {
		if err := validateTeam(spec.Team); err != nil {
			return nil, fmt.Errorf("员工 %s: %w", spec.Name, err)
		}
		p := NewPerson(spec.Name, i, spec.Team)
		w.persons = append(w.persons, p)
		if _, exists := byName[spec.Name]; !exists {
			byName[spec.Name] = p
		}
	}

	for len(w.persons) < len(w.desks) {
		w.persons = append(w.persons, NewEmptyDesk(len(w.persons)))
		w.emptyDesks++
	}

	for _, pair := range conflicts {
		first, ok1 := byName[pair.First]
		second, ok2 := byName[pair.Second]
		if !ok1 || !ok2 {
			slog.Debug("冲突关系中的员工今天不在，忽略", "first", pair.First, "second", pair.Second)
			continue
		}
		if _, err := first.AddConflict(second); err != nil {
			return nil, err
		}
	}

	return w, nil
}

// BuildWorld 从数据库中的记录构建 World，只有今天在岗的员工会被安排座位
func BuildWorld(desks []*domain.Desk, employees []*domain.Employee, conflicts []*domain.Conflict) (*World, error) {
	seatingDesks := make([]Desk, 0, len(desks))
	for _, d := range desks {
		desk, err := NewDesk(int(d.Row), int(d.Col), int(d.Team))
		if err != nil {
			return nil, err
		}
		seatingDesks = append(seatingDesks, desk)
	}

	people := make([]PersonSpec, 0, len(employees))
	for _, e := range employees {
		if !e.IsPresent {
			continue
		}
		people = append(people, PersonSpec{Name: e.Name, Team: int(e.Team)})
	}

	pairs := make([]ConflictPair, 0, len(conflicts))
	for _, c := range conflicts {
		pairs = append(pairs, ConflictPair{First: c.EmployeeName, Second: c.ConflictorName})
	}

	return NewWorld(seatingDesks, people, pairs)
}

func (w *World) Desks() []Desk {
	return w.desks
}

func (w *World) Desk(slot int) Desk {
	return w.desks[slot]
}

func (w *World) Persons() []*Person {
	return w.persons
}

func (w *World) Person(index int) *Person {
	return w.persons[index]
}

// Size 返回座位数量，也就是染色体长度
func (w *World) Size() int {
	return len(w.desks)
}

// EmptyDesks 返回占位用的空座位数量
func (w *World) EmptyDesks() int {
	return w.emptyDesks
}

// PersonIndexes 返回 [0, 1, ..., n-1]
func (w *World) PersonIndexes() []int {
	indexes := make([]int, len(w.persons))
	for i := range indexes {
		indexes[i] = i
	}
	return indexes
}
