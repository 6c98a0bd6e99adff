package seating

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestZoneASeatTotal(t *testing.T) {
	sum := 0
	for _, seats := range zoneASeatCounts {
		sum += seats
	}
	assert.Equal(t, zoneASeatTotal, sum)
	assert.Equal(t, 146, TotalDesks)
}

func TestDeskToIndex(t *testing.T) {
	tests := []struct {
		row, col int
		index    int
	}{
		{30, 1, 0},
		{30, 4, 3},
		{29, 1, 4},
		{28, 1, 8},
		{1, 1, 89},
		{1, 3, 91},
		{77, 1, 92},
		{76, 2, 96},
		{60, 3, 145},
	}

	for _, tt := range tests {
		index, err := DeskToIndex(tt.row, tt.col)
		require.NoError(t, err)
		assert.Equal(t, tt.index, index, "row %d col %d", tt.row, tt.col)
	}
}

func TestDeskIndexRoundTrip(t *testing.T) {
	for i := 0; i < TotalDesks; i++ {
		row, col, err := IndexToDesk(i)
		require.NoError(t, err)

		index, err := DeskToIndex(row, col)
		require.NoError(t, err)
		assert.Equal(t, i, index)
	}

	desks := AllDesks()
	require.Len(t, desks, TotalDesks)
	for i, d := range desks {
		assert.Equal(t, i, d.Index)
	}
}

func TestInvalidGeometry(t *testing.T) {
	for _, rc := range [][2]int{{0, 1}, {31, 1}, {59, 1}, {78, 1}, {30, 0}, {30, 5}, {14, 3}, {60, 4}} {
		_, err := DeskToIndex(rc[0], rc[1])
		assert.ErrorIs(t, err, ErrInvalidGeometry, "row %d col %d", rc[0], rc[1])

		_, err = NewDesk(rc[0], rc[1], 0)
		assert.ErrorIs(t, err, ErrInvalidGeometry)
	}

	for _, index := range []int{-1, TotalDesks, 1000} {
		_, _, err := IndexToDesk(index)
		assert.ErrorIs(t, err, ErrInvalidGeometry)
	}

	_, err := NewDesk(30, 1, 3)
	assert.ErrorIs(t, err, ErrInvalidTeam)
}

func TestSeparatorCount(t *testing.T) {
	tests := []struct {
		a, b int
		want int
	}{
		{30, 30, 0},
		{30, 29, 0},
		{29, 28, 0},
		{30, 27, 0},
		{30, 26, 1},
		{30, 1, 13},
		{1, 1, 0},
		{77, 77, 0},
		{77, 76, 0},
		{77, 73, 1},
		{1, 77, 1},
		{30, 60, 22},
		// 非法行号不会无限递归
		{40, 1, 0},
		{1, 40, 0},
		{40, 60, 0},
		{60, 40, 0},
		{0, 78, 0},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, SeparatorCount(tt.a, tt.b), "rows %d and %d", tt.a, tt.b)
	}
}

func TestSeparatorCountSymmetric(t *testing.T) {
	rows := make([]int, 0)
	for r := zoneAFirstRow; r <= zoneALastRow; r++ {
		rows = append(rows, r)
	}
	for r := zoneBFirstRow; r <= zoneBLastRow; r++ {
		rows = append(rows, r)
	}

	for _, a := range rows {
		for _, b := range rows {
			n := SeparatorCount(a, b)
			assert.Equal(t, n, SeparatorCount(b, a), "rows %d and %d", a, b)
			assert.GreaterOrEqual(t, n, 0)
		}
	}
}
