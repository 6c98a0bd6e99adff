package seating

import (
	"fmt"
	"math/rand"
)

const (
	unsetFitness = -1

	// 极少数情况下整体重排，为种群注入多样性
	reshuffleProbability = 0.001
	// 约 10% 的变异会让所有没有冲突的人和邻座交换
	neighbourShuffleOdds = 10
)

// Breakdown 记录适应度的各项组成
type Breakdown struct {
	ConflictRatio   float64 `json:"conflictRatio" msgpack:"conflict_ratio"`
	WrongTeamRatio  float64 `json:"wrongTeamRatio" msgpack:"wrong_team_ratio"`
	ContinuityRatio float64 `json:"continuityRatio" msgpack:"continuity_ratio"`
	Fitness         float64 `json:"fitness" msgpack:"fitness"`
}

// TeamSeatRatio 是坐在本团队（或公共）座位上的比例
func (b Breakdown) TeamSeatRatio() float64 {
	return 1 - b.WrongTeamRatio
}

// MutationParams 控制变异的强度
type MutationParams struct {
	MinSwaps            int
	MaxSwaps            int
	ConflictShiftRadius int
}

// Chromosome 是一个完整的座位表：slots[i] 是坐在第 i 个座位上的员工编号
// 染色体只属于创建它的种群，逃逸到其他地方（全局最优、快照）时必须先 Clone
type Chromosome struct {
	slots     []int
	fitness   float64
	breakdown Breakdown
}

func NewChromosome(slots []int) *Chromosome {
	c := &Chromosome{
		slots:   make([]int, len(slots)),
		fitness: unsetFitness,
	}
	copy(c.slots, slots)
	return c
}

func (c *Chromosome) Len() int {
	return len(c.slots)
}

func (c *Chromosome) At(slot int) int {
	return c.slots[slot]
}

// Slots 返回座位表的副本
func (c *Chromosome) Slots() []int {
	slots := make([]int, len(c.slots))
	copy(slots, c.slots)
	return slots
}

func (c *Chromosome) Clone() *Chromosome {
	clone := NewChromosome(c.slots)
	clone.fitness = c.fitness
	clone.breakdown = c.breakdown
	return clone
}

func (c *Chromosome) Fitness() (float64, error) {
	if c.fitness < 0 {
		return 0, ErrUnsetFitness
	}
	return c.fitness, nil
}

func (c *Chromosome) SetFitness(fitness float64) error {
	if fitness < 0 {
		return fmt.Errorf("%w: %f", ErrNegativeFitness, fitness)
	}
	c.fitness = fitness
	return nil
}

func (c *Chromosome) Breakdown() Breakdown {
	return c.breakdown
}

// 座位表被修改后，之前的评估结果作废
func (c *Chromosome) invalidate() {
	c.fitness = unsetFitness
	c.breakdown = Breakdown{}
}

// Crossover 生成两个新的子代，父代本身不会被修改
// 子代的每一位都来自两个父代中的某一个，因此可能出现重复的员工，需要随后调用 Repair
func (c *Chromosome) Crossover(partner *Chromosome, mode CrossoverMode, rng *rand.Rand) (*Chromosome, *Chromosome) {
	n := len(c.slots)
	if n != len(partner.slots) {
		// 按理来说同一个 World 下的染色体长度一定相等，这里只是以防万一
		return NewChromosome(c.slots), NewChromosome(partner.slots)
	}

	var swap func(i int) bool
	switch {
	case mode == CrossoverSingleCut && n >= 2:
		cut := 1
		if n > 2 {
			cut = 1 + rng.Intn(n-2) // [1, n-1)
		}
		swap = func(i int) bool { return i >= cut }
	case mode == CrossoverDoubleCut && n >= 4:
		first := 1 + rng.Intn(n-3)                  // [1, n-2)
		second := first + 1 + rng.Intn(n-2-first) // [first+1, n-1)
		swap = func(i int) bool { return i >= first && i < second }
	case mode == CrossoverDoubleCut && n >= 2:
		// 太短的染色体没有中间段可以交换，退化为单点交叉
		swap = func(i int) bool { return i >= n-1 }
	case mode == CrossoverUniform:
		swap = func(int) bool { return rng.Intn(2) == 0 }
	default:
		swap = func(int) bool { return false }
	}

	child1 := &Chromosome{slots: make([]int, n), fitness: unsetFitness}
	child2 := &Chromosome{slots: make([]int, n), fitness: unsetFitness}
	for i := 0; i < n; i++ {
		if swap(i) {
			child1.slots[i], child2.slots[i] = partner.slots[i], c.slots[i]
		} else {
			child1.slots[i], child2.slots[i] = c.slots[i], partner.slots[i]
		}
	}

	return child1, child2
}

// Repair 去除重复的员工：每个多次出现的位置用一个尚未出现的员工替换
// 候选员工先打乱，避免编号小的员工总是被放在靠前的位置
func (c *Chromosome) Repair(personCount int, rng *rand.Rand) {
	occurrences := make([]int, personCount)
	for _, p := range c.slots {
		if p >= 0 && p < personCount {
			occurrences[p]++
		}
	}

	unused := make([]int, 0)
	for p, n := range occurrences {
		if n == 0 {
			unused = append(unused, p)
		}
	}
	rng.Shuffle(len(unused), func(i, j int) {
		unused[i], unused[j] = unused[j], unused[i]
	})

	next := 0
	for i, p := range c.slots {
		if p < 0 || p >= personCount || occurrences[p] <= 1 {
			continue
		}
		if next >= len(unused) {
			break
		}

		replacement := unused[next]
		next++
		c.slots[i] = replacement
		// 更新计数，避免同一个人的其他副本也被替换掉
		occurrences[replacement]++
		occurrences[p]--
	}

	if next > 0 {
		c.invalidate()
	}
}

// Mutate 原地修改染色体，只能对自己持有的染色体调用
// 依次执行：小概率整体重排、若干次任意位置交换、针对冲突的局部交换
func (c *Chromosome) Mutate(ev *Evaluator, p MutationParams, rng *rand.Rand) {
	n := len(c.slots)
	if n < 2 {
		return
	}
	defer c.invalidate()

	if rng.Float64() < reshuffleProbability {
		rng.Shuffle(n, c.swap)
	}

	swaps := p.MinSwaps
	if p.MaxSwaps > p.MinSwaps {
		swaps += rng.Intn(p.MaxSwaps - p.MinSwaps + 1)
	}
	for i := 0; i < swaps; i++ {
		c.swap(rng.Intn(n), rng.Intn(n))
	}

	neighbourShuffle := rng.Intn(neighbourShuffleOdds) == 0
	conflicts := ev.ConflictCounts(c)
	for i := 0; i < n; i++ {
		if conflicts[i] > 1 {
			lo, hi := max(0, i-p.ConflictShiftRadius), min(i+p.ConflictShiftRadius, n)
			if hi > lo {
				c.swap(i, lo+rng.Intn(hi-lo))
			}
		} else if neighbourShuffle {
			// 左右两格以内大多还在同一行，让没有冲突的人慢慢向自己的团队靠拢
			lo, hi := max(0, i-1), min(i+2, n)
			c.swap(i, lo+rng.Intn(hi-lo))
		}
	}
}

func (c *Chromosome) swap(i, j int) {
	c.slots[i], c.slots[j] = c.slots[j], c.slots[i]
}
