package main

import (
	"flag"
	"log/slog"
	"os"

	"github.com/sysu-ecnc-dev/seat-planner/backend/internal/config"
	"github.com/sysu-ecnc-dev/seat-planner/backend/internal/repository"
	"github.com/sysu-ecnc-dev/seat-planner/backend/internal/seed"
	"github.com/sysu-ecnc-dev/seat-planner/backend/internal/utils"
)

func main() {
	var op int
	var n int
	var rosterPath string

	flag.IntVar(&op, "op", 0, "要执行的操作 (1: 插入随机用户, 2: 插入整层楼的座位, 3: 插入随机员工名单, 4: 插入随机冲突关系, 5: 从文件插入名单)")
	flag.IntVar(&n, "n", 5, "要插入的记录数量")
	flag.StringVar(&rosterPath, "roster", seed.RosterPath, "名单文件的路径")
	flag.Parse()

	logger := slog.New(slog.NewTextHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	// 读取配置文件
	cfg, err := config.LoadConfig()
	if err != nil {
		logger.Error("无法读取配置文件", slog.String("error", err.Error()))
		os.Exit(1)
	}

	dbpool, err := repository.Open(cfg)
	if err != nil {
		logger.Error("无法连接到数据库", "error", err)
		return
	}
	defer dbpool.Close()

	repo := repository.NewRepository(cfg, dbpool)

	// 执行操作
	switch op {
	case 0:
		slog.Error("未指定操作")
	case 1:
		if n <= 0 {
			slog.Error("请输入合法的用户数量")
			return
		}

		cnt := 0
		for i := 0; i < n; i++ {
			user, err := utils.GenerateRandomUser(cfg.Seed.User.Password, cfg.Email.UserDomain)
			if err != nil {
				slog.Error("无法生成随机用户", slog.String("error", err.Error()))
				continue
			}

			if err := repo.CreateUser(user); err != nil {
				slog.Error("无法插入用户", slog.String("error", err.Error()))
				continue
			}

			cnt++
		}

		slog.Info("插入用户成功", slog.Int("count", cnt))
	case 2:
		seed.SeedFloor(repo)
	case 3:
		desks, err := repo.GetAllDesks()
		if err != nil {
			slog.Error("无法获取座位", slog.String("error", err.Error()))
			return
		}

		employees := utils.GenerateRandomEmployees(n)
		if err := utils.ValidateEmployeeRoster(employees, len(desks)); err != nil {
			slog.Error("无法生成名单", slog.String("error", err.Error()))
			return
		}

		if err := repo.SetTodayRoster(employees); err != nil {
			slog.Error("无法插入员工", slog.String("error", err.Error()))
			return
		}

		slog.Info("插入员工成功", slog.Int("count", len(employees)))
	case 4:
		employees, err := repo.GetAllEmployees()
		if err != nil {
			slog.Error("无法获取员工", slog.String("error", err.Error()))
			return
		}

		cnt := 0
		for _, c := range utils.GenerateRandomConflicts(employees, n) {
			if err := repo.CreateConflict(c); err != nil {
				slog.Error("无法插入冲突关系", slog.String("error", err.Error()))
				continue
			}
			cnt++
		}

		slog.Info("插入冲突关系成功", slog.Int("count", cnt))
	case 5:
		seed.SeedRoster(repo, rosterPath)
	default:
		slog.Error("指定的操作非法")
	}
}
