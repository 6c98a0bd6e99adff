package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/sysu-ecnc-dev/seat-planner/backend/internal/domain"
	"github.com/sysu-ecnc-dev/seat-planner/backend/internal/seating"
)

func TestValidateDeskRoster(t *testing.T) {
	desks := []*domain.Desk{
		{Row: 1, Col: 1, Team: 2},
		{Row: 30, Col: 1, Team: 1},
		{Row: 60, Col: 3, Team: 0},
	}

	require.NoError(t, ValidateDeskRoster(desks))

	// 按线性编号排序
	assert.Equal(t, int32(30), desks[0].Row)
	assert.Equal(t, int32(0), desks[0].Index)
	assert.Equal(t, int32(1), desks[1].Row)
	assert.Equal(t, int32(60), desks[2].Row)
	assert.Less(t, desks[1].Index, desks[2].Index)
}

func TestValidateDeskRosterRejects(t *testing.T) {
	tests := []struct {
		name  string
		desks []*domain.Desk
	}{
		{"row between zones", []*domain.Desk{{Row: 45, Col: 1}}},
		{"column too large", []*domain.Desk{{Row: 1, Col: 4}}},
		{"bad team", []*domain.Desk{{Row: 1, Col: 1, Team: 3}}},
		{"duplicate", []*domain.Desk{{Row: 1, Col: 1}, {Row: 1, Col: 1, Team: 1}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Error(t, ValidateDeskRoster(tt.desks))
		})
	}
}

func TestValidateEmployeeRoster(t *testing.T) {
	employees := []*domain.Employee{{Name: "张伟", Team: 1}, {Name: "李娜", Team: 0}}
	assert.NoError(t, ValidateEmployeeRoster(employees, 2))

	assert.Error(t, ValidateEmployeeRoster(employees, 1))
	assert.Error(t, ValidateEmployeeRoster([]*domain.Employee{{Name: "张伟"}, {Name: "张伟"}}, 5))
	assert.Error(t, ValidateEmployeeRoster([]*domain.Employee{{Name: "张伟", Team: 3}}, 5))
	assert.Error(t, ValidateEmployeeRoster([]*domain.Employee{{Name: seating.EmptyDeskName}}, 5))
}

func TestValidateConflictPair(t *testing.T) {
	a := &domain.Employee{ID: 1, Name: "张伟"}
	b := &domain.Employee{ID: 2, Name: "李娜"}

	assert.NoError(t, ValidateConflictPair(a, b))
	assert.Error(t, ValidateConflictPair(a, a))
}

func TestGenerateRandomEmployees(t *testing.T) {
	employees := GenerateRandomEmployees(200)
	require.Len(t, employees, 200)

	names := make(map[string]bool)
	for _, e := range employees {
		assert.False(t, names[e.Name], "重复的名字 %s", e.Name)
		names[e.Name] = true
		assert.GreaterOrEqual(t, e.Team, int32(0))
		assert.LessOrEqual(t, e.Team, int32(2))
		assert.True(t, e.IsPresent)
	}
}

func TestGenerateRandomConflicts(t *testing.T) {
	employees := GenerateRandomEmployees(4)

	conflicts := GenerateRandomConflicts(employees, 100)
	// 4 名员工之间最多只有 6 对
	require.Len(t, conflicts, 6)

	pairs := make(map[[2]string]bool)
	for _, c := range conflicts {
		assert.NotEqual(t, c.EmployeeName, c.ConflictorName)
		pair := [2]string{c.EmployeeName, c.ConflictorName}
		reversed := [2]string{c.ConflictorName, c.EmployeeName}
		assert.False(t, pairs[pair] || pairs[reversed])
		pairs[pair] = true
	}

	assert.Empty(t, GenerateRandomConflicts(employees[:1], 3))
}

func TestGenerateRandomOTPAndPassword(t *testing.T) {
	otp := GenerateRandomOTP()
	assert.Len(t, otp, 6)
	assert.Regexp(t, `^\d{6}$`, otp)

	assert.Len(t, []rune(GenerateRandomPassword(12)), 12)
}

func TestGenerateUsernameFromChineseName(t *testing.T) {
	username := GenerateUsernameFromChineseName("张伟")
	assert.Regexp(t, `^z[a-z]*w[a-z]*\d{1,3}$`, username)
}
