package seating

import (
	"context"
	"log/slog"
	"math"
	"math/rand"
	"time"

	"golang.org/x/sync/errgroup"
)

// 每个运行的随机数种子之间的间隔
const seedStride = 7919

// GenerationReport 是一代结束后的统计
type GenerationReport struct {
	Run        int     `json:"run" msgpack:"run"`
	Generation int     `json:"generation" msgpack:"generation"`
	Max        float64 `json:"max" msgpack:"max"`
	Average    float64 `json:"average" msgpack:"average"`
	Min        float64 `json:"min" msgpack:"min"`
}

// ReportFunc 会被多个运行并发调用
type ReportFunc func(GenerationReport)

// Driver 并行地进行多次独立的搜索，所有运行共享同一个 BestHolder
type Driver struct {
	world     *World
	evaluator *Evaluator
	params    *Parameters
	target    *Target
	best      *BestHolder
	report    ReportFunc
}

// NewDriver 创建 Driver，target 和 report 都可以为 nil
func NewDriver(world *World, target *Target, params *Parameters, best *BestHolder, report ReportFunc) *Driver {
	if report == nil {
		report = func(GenerationReport) {}
	}

	return &Driver{
		world:     world,
		evaluator: NewEvaluator(world, target),
		params:    params,
		target:    target,
		best:      best,
		report:    report,
	}
}

func (d *Driver) Evaluator() *Evaluator {
	return d.evaluator
}

func (d *Driver) Best() *BestHolder {
	return d.best
}

// Run 阻塞直到所有运行结束
// ctx 被取消时在当前这一代结束后停止，已经找到的最优结果仍然可以通过 Best 获取
func (d *Driver) Run(ctx context.Context) error {
	if err := d.params.Validate(); err != nil {
		return err
	}

	base := d.params.Seed
	if base == 0 {
		base = time.Now().UnixNano()
	}

	g, ctx := errgroup.WithContext(ctx)
	for run := 0; run < d.params.Runs; run++ {
		seed := base + int64(run)*seedStride
		g.Go(func() error {
			return d.run(ctx, run, rand.New(rand.NewSource(seed)))
		})
	}

	return g.Wait()
}

func (d *Driver) run(ctx context.Context, run int, rng *rand.Rand) error {
	var pop *Population
	if d.target != nil && d.target.CarryOver > 0 {
		pop = NewHistoricPopulation(d.world, d.target, d.params.PopulationSize, rng)
	} else {
		pop = NewRandomPopulation(d.world, d.params.PopulationSize, rng)
	}

	localBest := math.Inf(-1)
	for gen := 0; gen < d.params.MaxGenerations; gen++ {
		if err := ctx.Err(); err != nil {
			return err
		}

		if err := pop.Evaluate(d.evaluator); err != nil {
			return err
		}

		fittest := pop.Fittest()
		if pop.MaxFitness() > localBest {
			localBest = pop.MaxFitness()
			b := fittest.Breakdown()
			slog.Debug("找到更好的座位表",
				"run", run,
				"generation", gen,
				"fitness", b.Fitness,
				"conflict", FormatPercentage(b.ConflictRatio),
				"teamSeat", FormatPercentage(b.TeamSeatRatio()),
				"priorSeat", FormatPercentage(b.ContinuityRatio),
			)
		}
		d.best.Offer(pop.MaxFitness(), fittest)

		d.report(GenerationReport{
			Run:        run,
			Generation: gen,
			Max:        pop.MaxFitness(),
			Average:    pop.AverageFitness(),
			Min:        pop.MinFitness(),
		})

		if gen%d.params.UpdateFrequency == 0 {
			slog.Info("排座进度",
				"run", run,
				"generation", gen,
				"max", pop.MaxFitness(),
				"average", pop.AverageFitness(),
				"min", pop.MinFitness(),
			)
		}

		next, err := pop.NextGeneration(d.evaluator, d.params, rng)
		if err != nil {
			return err
		}
		pop = next
	}

	// 最后一代还没有被评估过
	if err := pop.Evaluate(d.evaluator); err != nil {
		return err
	}
	d.best.Offer(pop.MaxFitness(), pop.Fittest())

	slog.Info("运行结束", "run", run, "best", max(localBest, pop.MaxFitness()))
	return nil
}
