package seating

import (
	"fmt"
)

const (
	zoneAFirstRow = 1
	zoneALastRow  = 30

	zoneBFirstRow     = 60
	zoneBLastRow      = 77
	zoneBSeatsPerRow  = 3
	zoneBRowCount     = zoneBLastRow - zoneBFirstRow + 1
	minSafeSeparators = 2
)

// A 区每行的座位数，顺序与线性编号的遍历顺序一致：从第 30 行到第 1 行
var zoneASeatCounts = [zoneALastRow]int{
	4, 4, // 30, 29
	5, 5, 5, 5, 5, 5, // 28 - 23
	3, 3, 3, 3, 3, 3, 3, 3, // 22 - 15
	2, 2, 2, 2, 2, 2, 2, 2, 2, 2, 2, 2, // 14 - 3
	3, 3, // 2, 1
}

const (
	// A 区座位总数，B 区的编号从这里开始
	zoneASeatTotal = 92

	// TotalDesks 是整层楼合法座位的数量
	TotalDesks = zoneASeatTotal + zoneBRowCount*zoneBSeatsPerRow
)

// Desk 表示一个物理座位
type Desk struct {
	Row   int `json:"row"`
	Col   int `json:"col"`
	Team  int `json:"team"` // 0 表示公共座位
	Index int `json:"index"`
}

// NewDesk 校验座位坐标并计算线性编号
func NewDesk(row, col, team int) (Desk, error) {
	if err := validateTeam(team); err != nil {
		return Desk{}, err
	}

	index, err := DeskToIndex(row, col)
	if err != nil {
		return Desk{}, err
	}

	return Desk{Row: row, Col: col, Team: team, Index: index}, nil
}

// Separators 返回两个座位之间的过道数量
func (d Desk) Separators(other Desk) int {
	return SeparatorCount(d.Row, other.Row)
}

func inZoneA(row int) bool {
	return row >= zoneAFirstRow && row <= zoneALastRow
}

func inZoneB(row int) bool {
	return row >= zoneBFirstRow && row <= zoneBLastRow
}

// SeatsInRow 返回某一行的座位数
func SeatsInRow(row int) (int, error) {
	switch {
	case inZoneA(row):
		return zoneASeatCounts[zoneALastRow-row], nil
	case inZoneB(row):
		return zoneBSeatsPerRow, nil
	default:
		return 0, fmt.Errorf("%w: 行号必须在 %d-%d 或 %d-%d 之间，实际为 %d",
			ErrInvalidGeometry, zoneAFirstRow, zoneALastRow, zoneBFirstRow, zoneBLastRow, row)
	}
}

// DeskToIndex 将 (行, 列) 转换为线性编号
// 编号等于遍历顺序中此前所有行的座位数之和，再加上 col-1
func DeskToIndex(row, col int) (int, error) {
	seats, err := SeatsInRow(row)
	if err != nil {
		return 0, err
	}
	if col < 1 || col > seats {
		return 0, fmt.Errorf("%w: 第 %d 行只有 %d 个座位，实际列号为 %d", ErrInvalidGeometry, row, seats, col)
	}

	if inZoneB(row) {
		return zoneASeatTotal + (zoneBLastRow-row)*zoneBSeatsPerRow + col - 1, nil
	}

	index := 0
	for i := 0; i < zoneALastRow-row; i++ {
		index += zoneASeatCounts[i]
	}
	return index + col - 1, nil
}

// IndexToDesk 沿同样的累计表找出线性编号对应的 (行, 列)
func IndexToDesk(index int) (row, col int, err error) {
	if index < 0 || index >= TotalDesks {
		return 0, 0, fmt.Errorf("%w: 座位编号必须在 0-%d 之间，实际为 %d", ErrInvalidGeometry, TotalDesks-1, index)
	}

	current := 0
	for i, seats := range zoneASeatCounts {
		current += seats
		if current > index {
			return zoneALastRow - i, seats - (current - index) + 1, nil
		}
	}

	for r := zoneBLastRow; r >= zoneBFirstRow; r-- {
		current += zoneBSeatsPerRow
		if current > index {
			return r, zoneBSeatsPerRow - (current - index) + 1, nil
		}
	}

	// 前面已经检查过范围，不会运行到这里
	return 0, 0, fmt.Errorf("%w: 无法定位座位编号 %d", ErrInvalidGeometry, index)
}

// AllDesks 按线性编号顺序列出整层楼的所有座位（团队均为 0）
func AllDesks() []Desk {
	desks := make([]Desk, 0, TotalDesks)
	for i := 0; i < TotalDesks; i++ {
		row, col, _ := IndexToDesk(i)
		desks = append(desks, Desk{Row: row, Col: col, Index: i})
	}
	return desks
}

// SeparatorCount 返回两行之间的过道数量，任一行号不合法时返回 0
// 同一区内每两行共用一条过道；跨区时第 1 行与第 77 行首尾相接
func SeparatorCount(rowA, rowB int) int {
	switch {
	case inZoneA(rowA) && inZoneA(rowB):
		return max(0, zoneASeparators(rowA, rowB))
	case inZoneB(rowA) && inZoneB(rowB):
		return max(0, zoneBSeparators(rowA, rowB))
	}

	if inZoneB(rowA) {
		rowA, rowB = rowB, rowA
	}
	if !inZoneA(rowA) || !inZoneB(rowB) {
		// 非法行号视为相邻，World 不会接受这样的座位
		return 0
	}
	// A 区到第 1 行的距离 + 连接处 + 第 77 行到 B 区目标行的距离
	return 1 + max(0, zoneASeparators(rowA, zoneAFirstRow)) + (zoneBLastRow-rowB)/2
}

func zoneASeparators(rowA, rowB int) int {
	first, second := max(rowA, rowB), min(rowA, rowB)
	if first%2 == 0 {
		return (first - second - 2) / 2
	}
	return (first - second - 1) / 2
}

func zoneBSeparators(rowA, rowB int) int {
	first, second := max(rowA, rowB), min(rowA, rowB)
	if first%2 == 1 {
		return (first - second - 2) / 2
	}
	return (first - second - 1) / 2
}

func validateTeam(team int) error {
	if team < 0 || team > 2 {
		return fmt.Errorf("%w: 团队编号只能为 0、1、2，实际为 %d", ErrInvalidTeam, team)
	}
	return nil
}
