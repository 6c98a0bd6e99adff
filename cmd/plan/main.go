package main

import (
	"context"
	"database/sql"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/schollz/progressbar/v3"
	"github.com/sysu-ecnc-dev/seat-planner/backend/internal/config"
	"github.com/sysu-ecnc-dev/seat-planner/backend/internal/domain"
	"github.com/sysu-ecnc-dev/seat-planner/backend/internal/repository"
	"github.com/sysu-ecnc-dev/seat-planner/backend/internal/seating"
	"github.com/sysu-ecnc-dev/seat-planner/backend/internal/seed"
	"github.com/sysu-ecnc-dev/seat-planner/backend/internal/utils"
)

// 离线排座工具：从数据库或随机数据构建当天的员工和座位，在终端中运行遗传算法并输出座位表
func main() {
	defaults := seating.DefaultParameters()

	var (
		source        string
		employeeCount int
		conflictCount int
		usePrior      bool
		save          bool
		colored       bool
		showConflicts bool
		mode          string
		params        = *defaults
	)

	flag.StringVar(&source, "source", "random", "数据来源 (random: 随机生成, db: 读取数据库)")
	flag.IntVar(&employeeCount, "employees", 120, "随机生成的员工数量")
	flag.IntVar(&conflictCount, "conflicts", 40, "随机生成的冲突关系数量")
	flag.BoolVar(&usePrior, "prior", false, "以数据库中最新的座位表为参考 (仅 db)")
	flag.BoolVar(&save, "save", false, "将结果保存到数据库 (仅 db)")
	flag.BoolVar(&colored, "color", true, "使用彩色输出")
	flag.BoolVar(&showConflicts, "show-conflicts", false, "输出每个员工的冲突关系")
	flag.IntVar(&params.MaxGenerations, "generations", defaults.MaxGenerations, "每次运行的最大迭代次数")
	flag.IntVar(&params.PopulationSize, "population", defaults.PopulationSize, "种群大小，必须为偶数")
	flag.IntVar(&params.UpdateFrequency, "update-frequency", defaults.UpdateFrequency, "每隔多少代输出一次日志")
	flag.IntVar(&params.MinSwaps, "min-swaps", defaults.MinSwaps, "每次变异最少的随机交换次数")
	flag.IntVar(&params.MaxSwaps, "max-swaps", defaults.MaxSwaps, "每次变异最多的随机交换次数")
	flag.IntVar(&params.ConflictShiftRadius, "shift-radius", defaults.ConflictShiftRadius, "有冲突的人可以被移动的距离")
	flag.StringVar(&mode, "crossover", defaults.CrossoverMode.String(), "交叉方式 (single-cut, double-cut, uniform, clone)")
	flag.IntVar(&params.Runs, "runs", defaults.Runs, "并行的独立运行次数")
	flag.Int64Var(&params.Seed, "seed", 0, "随机数种子，为 0 时使用当前时间")
	flag.Parse()

	// 进度条占用终端，日志只输出警告以上的级别
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn}))
	slog.SetDefault(logger)

	crossover, err := seating.ParseCrossoverMode(mode)
	if err != nil {
		logger.Error("交叉方式无效", "error", err)
		os.Exit(1)
	}
	params.CrossoverMode = crossover

	if err := params.Validate(); err != nil {
		logger.Error("参数无效", "error", err)
		os.Exit(1)
	}

	/**********************************************
	 * 构建 World
	 **********************************************/
	var (
		world  *seating.World
		target *seating.Target
		repo   *repository.Repository
	)

	switch source {
	case "random":
		employees := utils.GenerateRandomEmployees(employeeCount)
		world, err = seating.BuildWorld(seed.ZonedDesks(), employees, utils.GenerateRandomConflicts(employees, conflictCount))
	case "db":
		repo, err = openRepository()
		if err != nil {
			logger.Error("无法连接到数据库", "error", err)
			os.Exit(1)
		}
		world, target, err = loadWorld(repo, usePrior)
	default:
		err = fmt.Errorf("未知的数据来源 %s", source)
	}
	if err != nil {
		logger.Error("无法构建排座数据", "error", err)
		os.Exit(1)
	}

	fmt.Printf("座位 %d 个，员工 %d 名，空座位 %d 个\n", world.Size(), world.Size()-world.EmptyDesks(), world.EmptyDesks())

	/**********************************************
	 * 运行遗传算法
	 **********************************************/
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	bar := progressbar.Default(int64(params.Runs*params.MaxGenerations), "排座中")
	best := seating.NewBestHolder()
	driver := seating.NewDriver(world, target, &params, best, func(seating.GenerationReport) {
		_ = bar.Add(1)
	})

	start := time.Now()
	if err := driver.Run(ctx); err != nil {
		if !errors.Is(err, context.Canceled) {
			logger.Error("排座失败", "error", err)
			os.Exit(1)
		}
		fmt.Println("\n已中断，输出当前最优结果")
	}
	_ = bar.Finish()

	_, c, ok := best.Best()
	if !ok {
		logger.Error("没有得到任何座位表")
		os.Exit(1)
	}

	/**********************************************
	 * 输出结果
	 **********************************************/
	fmt.Println()
	if err := seating.Render(os.Stdout, driver.Evaluator(), c, colored); err != nil {
		logger.Error("无法输出座位表", "error", err)
		os.Exit(1)
	}
	if showConflicts {
		fmt.Println()
		if err := seating.RenderConflicts(os.Stdout, world); err != nil {
			logger.Error("无法输出冲突关系", "error", err)
			os.Exit(1)
		}
	}

	b := c.Breakdown()
	fmt.Printf("\n适应度 %.4f，冲突 %s，坐在本团队座位 %s，保持前一天座位 %s，耗时 %s\n",
		b.Fitness,
		seating.FormatPercentage(b.ConflictRatio),
		seating.FormatPercentage(b.TeamSeatRatio()),
		seating.FormatPercentage(b.ContinuityRatio),
		time.Since(start).Round(time.Millisecond),
	)

	if save && repo != nil {
		layout := seating.Snapshot(world, c)
		layout.Name = "离线排座 " + time.Now().Format("2006-01-02 15:04")
		if err := repo.InsertSeatingLayout(layout); err != nil {
			logger.Error("无法保存座位表", "error", err)
			os.Exit(1)
		}
		fmt.Printf("座位表已保存，编号 %d\n", layout.ID)
	}
}

func openRepository() (*repository.Repository, error) {
	cfg, err := config.LoadConfig()
	if err != nil {
		return nil, err
	}

	dbpool, err := repository.Open(cfg)
	if err != nil {
		return nil, err
	}

	return repository.NewRepository(cfg, dbpool), nil
}

func loadWorld(repo *repository.Repository, usePrior bool) (*seating.World, *seating.Target, error) {
	desks, err := repo.GetAllDesks()
	if err != nil {
		return nil, nil, err
	}
	employees, err := repo.GetAllEmployees()
	if err != nil {
		return nil, nil, err
	}
	conflicts, err := repo.GetAllConflicts()
	if err != nil {
		return nil, nil, err
	}

	world, err := seating.BuildWorld(desks, employees, conflicts)
	if err != nil {
		return nil, nil, err
	}
	if !usePrior {
		return world, nil, nil
	}

	var prior *domain.SeatingLayout
	id, err := repo.GetLatestSeatingLayoutID()
	switch {
	case errors.Is(err, sql.ErrNoRows):
		return world, nil, nil
	case err != nil:
		return nil, nil, err
	}
	if prior, err = repo.GetSeatingLayoutByID(id); err != nil {
		return nil, nil, err
	}

	target, err := seating.Remap(prior, world)
	if err != nil {
		return nil, nil, err
	}
	return world, target, nil
}
