package seating

import "fmt"

// EmptyDeskName 是用于填充空座位的虚拟员工的名字
const EmptyDeskName = "EMPTY DESK"

// Person 是一个需要分配座位的员工（或空座位占位）
type Person struct {
	Name  string `json:"name"`
	Index int    `json:"index"`
	Team  int    `json:"team"` // 0 表示不关心团队
	Empty bool   `json:"empty"`

	conflicts []*Person
}

func NewPerson(name string, index, team int) *Person {
	return &Person{
		Name:      name,
		Index:     index,
		Team:      team,
		conflicts: make([]*Person, 0),
	}
}

// NewEmptyDesk 创建一个空座位占位：团队为 0，且没有任何冲突
func NewEmptyDesk(index int) *Person {
	p := NewPerson(EmptyDeskName, index, 0)
	p.Empty = true
	return p
}

// Conflicts 返回与此人冲突的所有人，调用方不能修改返回的切片
func (p *Person) Conflicts() []*Person {
	return p.conflicts
}

func (p *Person) ConflictsWith(other *Person) bool {
	for _, c := range p.conflicts {
		if c.Index == other.Index {
			return true
		}
	}
	return false
}

// AddConflict 在双方之间建立冲突关系
// 关系已存在时不做任何修改并返回 false
func (p *Person) AddConflict(other *Person) (bool, error) {
	if p.Index == other.Index {
		return false, fmt.Errorf("%w: %s (编号 %d)", ErrSelfConflict, p.Name, p.Index)
	}

	if p.ConflictsWith(other) {
		return false, nil
	}

	// 双向记录，这样冲突扫描只需要向后查找
	p.conflicts = append(p.conflicts, other)
	if !other.ConflictsWith(p) {
		other.conflicts = append(other.conflicts, p)
	}
	return true, nil
}
