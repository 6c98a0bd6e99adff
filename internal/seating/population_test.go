package seating

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newFixedPopulation(t *testing.T, fitness ...float64) *Population {
	t.Helper()

	pop := &Population{}
	for i, f := range fitness {
		c := NewChromosome([]int{i})
		require.NoError(t, c.SetFitness(f))
		pop.chromosomes = append(pop.chromosomes, c)
		pop.totalFitness += f
	}
	pop.fittest = pop.chromosomes[0]
	return pop
}

func TestRouletteSelectionBias(t *testing.T) {
	rng := rand.New(rand.NewSource(8))
	pop := newFixedPopulation(t, 1, 3)

	counts := make(map[*Chromosome]int)
	for i := 0; i < 40000; i++ {
		counts[pop.Select(rng)]++
	}

	ratio := float64(counts[pop.chromosomes[1]]) / float64(counts[pop.chromosomes[0]])
	assert.InDelta(t, 3.0, ratio, 0.3)
}

func TestSelectParentsAreDistinct(t *testing.T) {
	rng := rand.New(rand.NewSource(9))
	// 几乎所有的适应度都集中在一个染色体上
	pop := newFixedPopulation(t, 0, 1000, 0, 0)

	for i := 0; i < 200; i++ {
		p1, p2 := pop.selectParents(rng)
		assert.NotSame(t, p1, p2)
	}
}

func TestRandomPopulation(t *testing.T) {
	rng := rand.New(rand.NewSource(10))
	w := newTestWorld(t)

	pop := NewRandomPopulation(w, 6, rng)
	require.Equal(t, 6, pop.Size())
	for _, c := range pop.Chromosomes() {
		assertPermutation(t, c.Slots(), w.Size())
	}
}

func TestHistoricPopulation(t *testing.T) {
	rng := rand.New(rand.NewSource(11))
	w := newTestWorld(t)
	target := &Target{Slots: []int{1, Unassigned}, CarryOver: 1}

	pop := NewHistoricPopulation(w, target, 10, rng)
	require.Equal(t, 10, pop.Size())
	for _, c := range pop.Chromosomes() {
		assert.Equal(t, 1, c.At(0))
		assertPermutation(t, c.Slots(), w.Size())
	}
}

func TestEvaluatePopulation(t *testing.T) {
	w := newTestWorld(t)
	ev := NewEvaluator(w, nil)
	pop := &Population{chromosomes: []*Chromosome{
		NewChromosome([]int{0, 1, 2, 3}), // 1
		NewChromosome([]int{0, 2, 1, 3}), // 11
		NewChromosome([]int{2, 0, 3, 1}), // 11
	}}

	require.NoError(t, pop.Evaluate(ev))
	assert.InDelta(t, 11.0, pop.MaxFitness(), 1e-9)
	assert.InDelta(t, 1.0, pop.MinFitness(), 1e-9)
	assert.InDelta(t, 23.0, pop.TotalFitness(), 1e-9)
	assert.InDelta(t, 23.0/3.0, pop.AverageFitness(), 1e-9)
	// 适应度相同时取第一个
	assert.Same(t, pop.chromosomes[1], pop.Fittest())

	// 再次评估时统计会被重置
	require.NoError(t, pop.Evaluate(ev))
	assert.InDelta(t, 23.0, pop.TotalFitness(), 1e-9)
}

func TestNextGeneration(t *testing.T) {
	rng := rand.New(rand.NewSource(12))
	w := newTestWorld(t)
	ev := NewEvaluator(w, nil)
	params := DefaultParameters()
	params.ConflictShiftRadius = 2

	pop := NewRandomPopulation(w, 8, rng)
	_, err := pop.NextGeneration(ev, params, rng)
	assert.ErrorIs(t, err, ErrUnsetFitness)

	for gen := 0; gen < 20; gen++ {
		require.NoError(t, pop.Evaluate(ev))

		next, err := pop.NextGeneration(ev, params, rng)
		require.NoError(t, err)
		require.Equal(t, pop.Size(), next.Size())

		for _, c := range next.Chromosomes() {
			assertPermutation(t, c.Slots(), w.Size())
			for _, old := range pop.Chromosomes() {
				assert.NotSame(t, old, c)
			}
		}
		pop = next
	}
}

func TestNextGenerationRejectsOddSize(t *testing.T) {
	rng := rand.New(rand.NewSource(13))
	w := newTestWorld(t)
	ev := NewEvaluator(w, nil)

	pop := NewRandomPopulation(w, 3, rng)
	require.NoError(t, pop.Evaluate(ev))

	_, err := pop.NextGeneration(ev, DefaultParameters(), rng)
	assert.ErrorIs(t, err, ErrOddPopulation)
}
