package seating

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/sysu-ecnc-dev/seat-planner/backend/internal/domain"
)

// 两个座位在第 30 行，两个座位在第 1 行，两行之间有 13 条过道
func newTestDesks(t *testing.T) []Desk {
	t.Helper()

	desks := make([]Desk, 0, 4)
	for _, rc := range [][2]int{{30, 1}, {30, 2}, {1, 1}, {1, 2}} {
		d, err := NewDesk(rc[0], rc[1], 0)
		require.NoError(t, err)
		desks = append(desks, d)
	}
	return desks
}

// A 与 B 冲突
func newTestWorld(t *testing.T) *World {
	t.Helper()

	people := []PersonSpec{{"A", 1}, {"B", 1}, {"C", 2}, {"D", 2}}
	w, err := NewWorld(newTestDesks(t), people, []ConflictPair{{"A", "B"}})
	require.NoError(t, err)
	return w
}

func TestAddConflict(t *testing.T) {
	a := NewPerson("A", 0, 1)
	b := NewPerson("B", 1, 1)

	added, err := a.AddConflict(b)
	require.NoError(t, err)
	assert.True(t, added)
	assert.True(t, a.ConflictsWith(b))
	assert.True(t, b.ConflictsWith(a))

	added, err = b.AddConflict(a)
	require.NoError(t, err)
	assert.False(t, added)
	assert.Len(t, a.Conflicts(), 1)
	assert.Len(t, b.Conflicts(), 1)

	_, err = a.AddConflict(a)
	assert.ErrorIs(t, err, ErrSelfConflict)
}

func TestNewWorld(t *testing.T) {
	desks := newTestDesks(t)
	// 打乱输入顺序，World 应该按线性编号排序
	desks[0], desks[3] = desks[3], desks[0]

	w, err := NewWorld(desks, []PersonSpec{{"A", 1}, {"B", 2}}, []ConflictPair{{"A", "B"}, {"A", "Nobody"}})
	require.NoError(t, err)

	assert.Equal(t, 4, w.Size())
	assert.Equal(t, 2, w.EmptyDesks())
	for i := 1; i < w.Size(); i++ {
		assert.Less(t, w.Desk(i-1).Index, w.Desk(i).Index)
	}

	require.Len(t, w.Persons(), 4)
	assert.Equal(t, EmptyDeskName, w.Person(2).Name)
	assert.True(t, w.Person(3).Empty)
	assert.Empty(t, w.Person(3).Conflicts())
	assert.True(t, w.Person(0).ConflictsWith(w.Person(1)))
	assert.Equal(t, []int{0, 1, 2, 3}, w.PersonIndexes())
}

func TestNewWorldErrors(t *testing.T) {
	desks := newTestDesks(t)

	_, err := NewWorld(desks[:1], []PersonSpec{{"A", 1}, {"B", 1}}, nil)
	assert.ErrorIs(t, err, ErrNotEnoughDesks)

	_, err = NewWorld(append(desks, desks[0]), nil, nil)
	assert.ErrorIs(t, err, ErrInvalidGeometry)

	_, err = NewWorld(append(desks[:1:1], Desk{Row: 40, Col: 1, Index: -1}), nil, nil)
	assert.ErrorIs(t, err, ErrInvalidGeometry)

	_, err = NewWorld(append(desks[:1:1], Desk{Row: 1, Col: 4, Index: 5}), nil, nil)
	assert.ErrorIs(t, err, ErrInvalidGeometry)

	// 坐标合法但编号与坐标不符
	wrongIndex := desks[2]
	wrongIndex.Index++
	_, err = NewWorld(append(desks[:1:1], wrongIndex), nil, nil)
	assert.ErrorIs(t, err, ErrInvalidGeometry)

	_, err = NewWorld(append(desks[:1:1], Desk{Row: 30, Col: 2, Team: 3, Index: desks[1].Index}), nil, nil)
	assert.ErrorIs(t, err, ErrInvalidTeam)

	_, err = NewWorld(desks, []PersonSpec{{"A", 5}}, nil)
	assert.ErrorIs(t, err, ErrInvalidTeam)

	_, err = NewWorld(desks, []PersonSpec{{"A", 1}}, []ConflictPair{{"A", "A"}})
	assert.ErrorIs(t, err, ErrSelfConflict)
}

func TestBuildWorldSkipsAbsentEmployees(t *testing.T) {
	desks := []*domain.Desk{
		{Row: 30, Col: 1, Team: 1},
		{Row: 30, Col: 2, Team: 2},
	}
	employees := []*domain.Employee{
		{Name: "张三", Team: 1, IsPresent: true},
		{Name: "李四", Team: 2, IsPresent: false},
	}
	conflicts := []*domain.Conflict{
		{EmployeeName: "张三", ConflictorName: "李四"},
	}

	w, err := BuildWorld(desks, employees, conflicts)
	require.NoError(t, err)

	assert.Equal(t, 2, w.Size())
	assert.Equal(t, 1, w.EmptyDesks())
	assert.Equal(t, "张三", w.Person(0).Name)
	assert.Empty(t, w.Person(0).Conflicts())
	assert.Equal(t, 1, w.Desk(0).Team)
}
