package seating

import (
	"fmt"

	"github.com/go-playground/validator/v10"
	"github.com/sysu-ecnc-dev/seat-planner/backend/internal/domain"
)

var validate = validator.New(validator.WithRequiredStructEnabled())

// Parameters 是遗传算法的运行参数
type Parameters struct {
	MaxGenerations      int           `json:"maxGenerations" validate:"min=1"`         // 每次运行的最大迭代次数
	PopulationSize      int           `json:"populationSize" validate:"min=2"`         // 种群大小，必须为偶数
	UpdateFrequency     int           `json:"updateFrequency" validate:"min=1"`        // 每隔多少代输出一次日志
	MinSwaps            int           `json:"minSwaps" validate:"min=0"`               // 每次变异最少的随机交换次数
	MaxSwaps            int           `json:"maxSwaps" validate:"gtefield=MinSwaps"`   // 每次变异最多的随机交换次数
	ConflictShiftRadius int           `json:"conflictShiftRadius" validate:"min=0"`    // 有冲突的人可以被移动的距离
	CrossoverMode       CrossoverMode `json:"crossoverMode" validate:"oneof=single-cut double-cut uniform clone"`
	Runs                int           `json:"runs" validate:"min=1"` // 并行的独立运行次数
	Seed                int64         `json:"seed"`                  // 为 0 时使用当前时间
}

func DefaultParameters() *Parameters {
	return &Parameters{
		MaxGenerations:      1000,
		PopulationSize:      100,
		UpdateFrequency:     100,
		MinSwaps:            1,
		MaxSwaps:            5,
		ConflictShiftRadius: 10,
		CrossoverMode:       CrossoverDoubleCut,
		Runs:                8,
	}
}

func (p *Parameters) Validate() error {
	if err := validate.Struct(p); err != nil {
		return err
	}
	if p.PopulationSize%2 != 0 {
		return fmt.Errorf("%w: %d", ErrOddPopulation, p.PopulationSize)
	}
	return nil
}

func (p *Parameters) Mutation() MutationParams {
	return MutationParams{
		MinSwaps:            p.MinSwaps,
		MaxSwaps:            p.MaxSwaps,
		ConflictShiftRadius: p.ConflictShiftRadius,
	}
}

func ParametersFromDomain(dp domain.PlannerParameters) (*Parameters, error) {
	mode, err := ParseCrossoverMode(dp.CrossoverMode)
	if err != nil {
		return nil, err
	}

	p := &Parameters{
		MaxGenerations:      dp.MaxGenerations,
		PopulationSize:      dp.PopulationSize,
		UpdateFrequency:     dp.UpdateFrequency,
		MinSwaps:            dp.MinSwaps,
		MaxSwaps:            dp.MaxSwaps,
		ConflictShiftRadius: dp.ConflictShiftRadius,
		CrossoverMode:       mode,
		Runs:                dp.Runs,
		Seed:                dp.Seed,
	}
	if err := p.Validate(); err != nil {
		return nil, err
	}

	return p, nil
}

func (p *Parameters) ToDomain() domain.PlannerParameters {
	return domain.PlannerParameters{
		MaxGenerations:      p.MaxGenerations,
		PopulationSize:      p.PopulationSize,
		UpdateFrequency:     p.UpdateFrequency,
		MinSwaps:            p.MinSwaps,
		MaxSwaps:            p.MaxSwaps,
		ConflictShiftRadius: p.ConflictShiftRadius,
		CrossoverMode:       p.CrossoverMode.String(),
		Runs:                p.Runs,
		Seed:                p.Seed,
	}
}
