package seating

import (
	"fmt"
	"math"
	"math/rand"
)

// 连续抽到同一个父本的次数超过这个值时，直接从其余染色体中均匀选择另一个父本
const maxParentRedraws = 100

// Population 是一代染色体以及这一代的适应度统计
type Population struct {
	chromosomes []*Chromosome

	maxFitness   float64
	minFitness   float64
	totalFitness float64
	fittest      *Chromosome
}

// NewRandomPopulation 每个染色体都独立地打乱所有员工，然后取前 desk 数量个
func NewRandomPopulation(world *World, size int, rng *rand.Rand) *Population {
	pop := &Population{chromosomes: make([]*Chromosome, 0, size)}

	persons := world.PersonIndexes()
	for i := 0; i < size; i++ {
		rng.Shuffle(len(persons), func(i, j int) {
			persons[i], persons[j] = persons[j], persons[i]
		})
		pop.chromosomes = append(pop.chromosomes, NewChromosome(persons[:world.Size()]))
	}

	return pop
}

// NewHistoricPopulation 以前一天的座位表为基础：沿用的位置保持不变，其余位置用剩下的员工随机填充
func NewHistoricPopulation(world *World, target *Target, size int, rng *rand.Rand) *Population {
	pop := &Population{chromosomes: make([]*Chromosome, 0, size)}

	base := target.Aligned(world.Size())
	used := make([]bool, len(world.persons))
	for slot, p := range base {
		if p < 0 || p >= len(used) || used[p] {
			base[slot] = Unassigned
			continue
		}
		used[p] = true
	}

	pool := make([]int, 0, len(world.persons))
	for p, ok := range used {
		if !ok {
			pool = append(pool, p)
		}
	}

	for i := 0; i < size; i++ {
		rng.Shuffle(len(pool), func(i, j int) {
			pool[i], pool[j] = pool[j], pool[i]
		})

		c := NewChromosome(base)
		next := 0
		for slot, p := range c.slots {
			if p != Unassigned {
				continue
			}
			c.slots[slot] = pool[next]
			next++
		}
		pop.chromosomes = append(pop.chromosomes, c)
	}

	return pop
}

// Evaluate 计算所有染色体的适应度并更新统计，适应度相同时取第一个
func (pop *Population) Evaluate(ev *Evaluator) error {
	pop.maxFitness = math.Inf(-1)
	pop.minFitness = math.Inf(1)
	pop.totalFitness = 0
	pop.fittest = nil

	for _, c := range pop.chromosomes {
		fitness, err := ev.Evaluate(c)
		if err != nil {
			return err
		}

		pop.totalFitness += fitness
		if fitness > pop.maxFitness {
			pop.maxFitness = fitness
			pop.fittest = c
		}
		if fitness < pop.minFitness {
			pop.minFitness = fitness
		}
	}

	return nil
}

// Select 使用轮盘赌来进行选择
func (pop *Population) Select(rng *rand.Rand) *Chromosome {
	bound := rng.Float64() * pop.totalFitness

	for _, c := range pop.chromosomes {
		bound -= c.fitness
		if bound <= 0 {
			return c
		}
	}

	// 浮点误差可能导致走到这里
	return pop.chromosomes[len(pop.chromosomes)-1]
}

// NextGeneration 生成同样大小的下一代，调用前必须先 Evaluate
// 子代总是成对加入，所以种群大小必须是偶数
func (pop *Population) NextGeneration(ev *Evaluator, p *Parameters, rng *rand.Rand) (*Population, error) {
	size := len(pop.chromosomes)
	if size < 2 || size%2 != 0 {
		return nil, fmt.Errorf("%w: %d", ErrOddPopulation, size)
	}
	if pop.fittest == nil {
		return nil, ErrUnsetFitness
	}

	next := &Population{chromosomes: make([]*Chromosome, 0, size)}
	personCount := len(ev.world.persons)
	mutation := p.Mutation()

	for len(next.chromosomes) < size {
		p1, p2 := pop.selectParents(rng)

		c1, c2 := p1.Crossover(p2, p.CrossoverMode, rng)
		c1.Repair(personCount, rng)
		c2.Repair(personCount, rng)
		c1.Mutate(ev, mutation, rng)
		c2.Mutate(ev, mutation, rng)

		next.chromosomes = append(next.chromosomes, c1, c2)
	}

	return next, nil
}

// 两个父本必须是不同的染色体
func (pop *Population) selectParents(rng *rand.Rand) (*Chromosome, *Chromosome) {
	p1 := pop.Select(rng)
	for i := 0; i < maxParentRedraws; i++ {
		if p2 := pop.Select(rng); p2 != p1 {
			return p1, p2
		}
	}

	// 适应度几乎全部集中在 p1 上
	others := make([]*Chromosome, 0, len(pop.chromosomes)-1)
	for _, c := range pop.chromosomes {
		if c != p1 {
			others = append(others, c)
		}
	}
	return p1, others[rng.Intn(len(others))]
}

func (pop *Population) Size() int {
	return len(pop.chromosomes)
}

func (pop *Population) Chromosomes() []*Chromosome {
	return pop.chromosomes
}

func (pop *Population) MaxFitness() float64 {
	return pop.maxFitness
}

func (pop *Population) MinFitness() float64 {
	return pop.minFitness
}

func (pop *Population) TotalFitness() float64 {
	return pop.totalFitness
}

func (pop *Population) AverageFitness() float64 {
	if len(pop.chromosomes) == 0 {
		return 0
	}
	return pop.totalFitness / float64(len(pop.chromosomes))
}

// Fittest 返回本代适应度最高的染色体，它仍属于本种群
func (pop *Population) Fittest() *Chromosome {
	return pop.fittest
}
