package seating

// Evaluator 计算染色体的适应度，构建后只读，可以在多个 goroutine 之间共享
type Evaluator struct {
	world  *World
	target *Target
}

// NewEvaluator 创建评估器，target 为 nil 表示没有前一天的座位表
func NewEvaluator(world *World, target *Target) *Evaluator {
	return &Evaluator{world: world, target: target}
}

func (ev *Evaluator) World() *World {
	return ev.world
}

func (ev *Evaluator) Target() *Target {
	return ev.target
}

func (ev *Evaluator) person(c *Chromosome, slot int) *Person {
	p := c.slots[slot]
	if p < 0 || p >= len(ev.world.persons) {
		return nil
	}
	return ev.world.persons[p]
}

// ConflictCounts 返回每个座位上的人当前有多少条生效的冲突
// 冲突关系是对称的，所以只需要向后扫描：与前面座位的冲突在以前面座位为起点时已经计算过了
func (ev *Evaluator) ConflictCounts(c *Chromosome) []int {
	n := min(len(c.slots), len(ev.world.desks))
	counts := make([]int, len(c.slots))

	for i := 0; i < n; i++ {
		p := ev.person(c, i)
		if p == nil || len(p.conflicts) == 0 {
			continue
		}

		for j := i + 1; j < n; j++ {
			other := ev.person(c, j)
			if other == nil || !p.ConflictsWith(other) {
				continue
			}
			if ev.world.desks[i].Separators(ev.world.desks[j]) < minSafeSeparators {
				counts[i]++
				counts[j]++
			}
		}
	}

	return counts
}

// OccurrenceCounts 返回每个员工在染色体中出现的次数
func (ev *Evaluator) OccurrenceCounts(c *Chromosome) []int {
	counts := make([]int, len(ev.world.persons))
	for _, p := range c.slots {
		if p >= 0 && p < len(counts) {
			counts[p]++
		}
	}
	return counts
}

// IsValid 检查是否有员工被安排了多个座位
func (ev *Evaluator) IsValid(c *Chromosome) bool {
	for _, n := range ev.OccurrenceCounts(c) {
		if n > 1 {
			return false
		}
	}
	return true
}

// Score 计算适应度的各项组成，不修改染色体
// 没有任何冲突的座位表总是比有冲突的座位表得分更高
func (ev *Evaluator) Score(c *Chromosome) Breakdown {
	conflicts := ev.ConflictCounts(c)

	active, possible := 0, 0
	for i := range c.slots {
		p := ev.person(c, i)
		if p == nil {
			continue
		}
		active += conflicts[i]
		possible += len(p.conflicts)
	}

	wrongTeam := 0
	for i := 0; i < min(len(c.slots), len(ev.world.desks)); i++ {
		p := ev.person(c, i)
		desk := ev.world.desks[i]
		if p != nil && desk.Team != 0 && p.Team != 0 && p.Team != desk.Team {
			wrongTeam++
		}
	}

	b := Breakdown{
		ConflictRatio:   ratio(active, possible),
		WrongTeamRatio:  ratio(wrongTeam, len(ev.world.desks)-ev.world.emptyDesks),
		ContinuityRatio: ev.continuity(c),
	}

	preference := 0.5 * ((1 - b.WrongTeamRatio) + b.ContinuityRatio)
	if b.ConflictRatio == 0 {
		b.Fitness = 10 + preference
	} else {
		b.Fitness = (1 - b.ConflictRatio) + preference
	}

	return b
}

// Evaluate 计算适应度并记录在染色体上
func (ev *Evaluator) Evaluate(c *Chromosome) (float64, error) {
	b := ev.Score(c)
	if err := c.SetFitness(b.Fitness); err != nil {
		return 0, err
	}
	c.breakdown = b
	return b.Fitness, nil
}

func (ev *Evaluator) continuity(c *Chromosome) float64 {
	if ev.target == nil || ev.target.CarryOver == 0 {
		return 1
	}

	kept := 0
	for i, p := range ev.target.Slots {
		if i >= len(c.slots) {
			break
		}
		if p != Unassigned && c.slots[i] == p {
			kept++
		}
	}

	return ratio(kept, ev.target.CarryOver)
}

// 分母为 0 时返回 0
func ratio(numerator, denominator int) float64 {
	if denominator <= 0 {
		return 0
	}
	return float64(numerator) / float64(denominator)
}
