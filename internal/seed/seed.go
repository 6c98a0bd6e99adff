package seed

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strconv"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/sysu-ecnc-dev/seat-planner/backend/internal/domain"
	"github.com/sysu-ecnc-dev/seat-planner/backend/internal/repository"
	"github.com/sysu-ecnc-dev/seat-planner/backend/internal/seating"
)

const RosterPath = "./internal/seed/data/roster.csv"

// 名单文件必须包含的列
const (
	nameHeader      = "姓名"
	teamHeader      = "团队"
	conflictsHeader = "冲突"
)

// Roster 是从名单文件中读出的员工和冲突关系
type Roster struct {
	Employees []*domain.Employee
	Conflicts [][2]string
}

// ParseRoster 读取 CSV 格式的名单，冲突列中的多个名字用顿号或逗号分隔
func ParseRoster(r io.Reader) (*Roster, error) {
	reader := csv.NewReader(r)

	// 读取表头
	headers, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("读取表头失败: %w", err)
	}

	columns := make(map[string]int, len(headers))
	for i, header := range headers {
		columns[strings.TrimSpace(header)] = i
	}
	for _, header := range []string{nameHeader, teamHeader} {
		if _, ok := columns[header]; !ok {
			return nil, fmt.Errorf("没有找到 %s 列", header)
		}
	}

	roster := &Roster{
		Employees: make([]*domain.Employee, 0),
		Conflicts: make([][2]string, 0),
	}

	for line := 2; ; line++ {
		row, err := reader.Read()
		if err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			return nil, fmt.Errorf("读取第 %d 行失败: %w", line, err)
		}

		name := strings.TrimSpace(row[columns[nameHeader]])
		if name == "" {
			slog.Warn("名单中有空白的名字，跳过", "line", line)
			continue
		}

		team, err := strconv.Atoi(strings.TrimSpace(row[columns[teamHeader]]))
		if err != nil {
			return nil, fmt.Errorf("第 %d 行的团队编号无效: %w", line, err)
		}

		roster.Employees = append(roster.Employees, &domain.Employee{
			Name:      name,
			Team:      int32(team),
			IsPresent: true,
		})

		i, ok := columns[conflictsHeader]
		if !ok {
			continue
		}
		others := strings.FieldsFunc(row[i], func(r rune) bool {
			return r == '、' || r == ',' || r == '，'
		})
		for _, other := range others {
			if other = strings.TrimSpace(other); other != "" {
				roster.Conflicts = append(roster.Conflicts, [2]string{name, other})
			}
		}
	}

	return roster, nil
}

// SeedRoster 将名单文件写入数据库，名单中的员工成为今天在岗的员工
func SeedRoster(r *repository.Repository, path string) {
	file, err := os.Open(path)
	if err != nil {
		slog.Error("打开文件失败", "error", err)
		return
	}
	defer file.Close()

	roster, err := ParseRoster(file)
	if err != nil {
		slog.Error("解析名单失败", "error", err)
		return
	}

	if err := r.SetTodayRoster(roster.Employees); err != nil {
		slog.Error("插入员工失败", "error", err)
		return
	}

	byName := make(map[string]*domain.Employee, len(roster.Employees))
	for _, e := range roster.Employees {
		byName[e.Name] = e
	}

	cnt := 0
	for _, pair := range roster.Conflicts {
		first, ok1 := byName[pair[0]]
		second, ok2 := byName[pair[1]]
		if !ok1 || !ok2 || first.ID == second.ID {
			slog.Warn("冲突关系中的员工不在名单中，跳过", "first", pair[0], "second", pair[1])
			continue
		}

		c := &domain.Conflict{
			EmployeeID:     first.ID,
			EmployeeName:   first.Name,
			ConflictorID:   second.ID,
			ConflictorName: second.Name,
		}
		if err := r.CreateConflict(c); err != nil {
			var pgErr *pgconn.PgError
			if errors.As(err, &pgErr) && pgErr.ConstraintName == "conflicts_pair_key" {
				continue
			}
			slog.Error("插入冲突关系失败", "error", err)
			continue
		}
		cnt++
	}

	slog.Info("插入名单完成", "employees", len(roster.Employees), "conflicts", cnt)
}

// ZonedDesks 列出整层楼的座位并划分团队：
// A 区第 15 行及以后归团队 1，第 14 行及以前归团队 2，B 区为公共座位
func ZonedDesks() []*domain.Desk {
	floor := seating.AllDesks()
	desks := make([]*domain.Desk, 0, len(floor))

	for _, d := range floor {
		team := int32(0)
		switch {
		case d.Row >= 15 && d.Row <= 30:
			team = 1
		case d.Row < 15:
			team = 2
		}

		desks = append(desks, &domain.Desk{
			Row:   int32(d.Row),
			Col:   int32(d.Col),
			Team:  team,
			Index: int32(d.Index),
		})
	}

	return desks
}

// SeedFloor 用整层楼的座位替换数据库中的座位
func SeedFloor(r *repository.Repository) {
	desks := ZonedDesks()
	if err := r.ReplaceDesks(desks); err != nil {
		slog.Error("插入座位失败", "error", err)
		return
	}

	slog.Info("插入座位完成", "count", len(desks))
}
