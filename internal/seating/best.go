package seating

import "sync"

// BestHolder 保存所有运行共享的最优结果
// 适应度和染色体必须一起更新，所以用一把锁保护整个二元组
type BestHolder struct {
	mu         sync.Mutex
	fitness    float64
	chromosome *Chromosome
}

func NewBestHolder() *BestHolder {
	return &BestHolder{}
}

// Offer 在 fitness 严格更高时保存染色体的副本，返回是否发生了替换
func (b *BestHolder) Offer(fitness float64, c *Chromosome) bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.chromosome != nil && fitness <= b.fitness {
		return false
	}

	b.fitness = fitness
	b.chromosome = c.Clone()
	return true
}

// Best 返回当前最优结果的副本，还没有任何结果时 ok 为 false
func (b *BestHolder) Best() (fitness float64, c *Chromosome, ok bool) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.chromosome == nil {
		return 0, nil, false
	}
	return b.fitness, b.chromosome.Clone(), true
}
