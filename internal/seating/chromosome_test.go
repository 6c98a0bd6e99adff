package seating

import (
	"math/rand"
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sequence(from, n int) []int {
	s := make([]int, n)
	for i := range s {
		s[i] = from + i
	}
	return s
}

func assertPermutation(t *testing.T, slots []int, n int) {
	t.Helper()

	sorted := append([]int(nil), slots...)
	sort.Ints(sorted)
	assert.Equal(t, sequence(0, n), sorted)
}

func TestChromosomeFitness(t *testing.T) {
	c := NewChromosome([]int{0, 1, 2})

	_, err := c.Fitness()
	assert.ErrorIs(t, err, ErrUnsetFitness)

	assert.ErrorIs(t, c.SetFitness(-0.5), ErrNegativeFitness)
	_, err = c.Fitness()
	assert.ErrorIs(t, err, ErrUnsetFitness)

	require.NoError(t, c.SetFitness(0))
	f, err := c.Fitness()
	require.NoError(t, err)
	assert.Equal(t, 0.0, f)
}

func TestChromosomeCopiesInput(t *testing.T) {
	slots := []int{0, 1, 2}
	c := NewChromosome(slots)
	slots[0] = 2
	assert.Equal(t, 0, c.At(0))

	out := c.Slots()
	out[1] = 0
	assert.Equal(t, 1, c.At(1))

	clone := c.Clone()
	clone.swap(0, 1)
	assert.Equal(t, []int{0, 1, 2}, c.Slots())
}

func TestCrossoverProvenance(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	const n = 10

	for _, mode := range crossoverModes {
		for i := 0; i < 50; i++ {
			p1 := NewChromosome(sequence(0, n))
			p2 := NewChromosome(sequence(100, n))

			c1, c2 := p1.Crossover(p2, mode, rng)
			require.Equal(t, n, c1.Len())
			require.Equal(t, n, c2.Len())

			// 父代不会被修改
			assert.Equal(t, sequence(0, n), p1.Slots())
			assert.Equal(t, sequence(100, n), p2.Slots())

			for slot := 0; slot < n; slot++ {
				if c1.At(slot) == p1.At(slot) {
					assert.Equal(t, p2.At(slot), c2.At(slot), "mode %s slot %d", mode, slot)
				} else {
					assert.Equal(t, p2.At(slot), c1.At(slot), "mode %s slot %d", mode, slot)
					assert.Equal(t, p1.At(slot), c2.At(slot), "mode %s slot %d", mode, slot)
				}
			}

			switch mode {
			case CrossoverSingleCut:
				assert.Equal(t, p1.At(0), c1.At(0))
				assert.Equal(t, p2.At(n-1), c1.At(n-1))
			case CrossoverDoubleCut:
				assert.Equal(t, p1.At(0), c1.At(0))
				assert.Equal(t, p1.At(n-1), c1.At(n-1))
				assert.NotEqual(t, p1.Slots(), c1.Slots())
			case CrossoverClone:
				assert.Equal(t, p1.Slots(), c1.Slots())
				assert.Equal(t, p2.Slots(), c2.Slots())
			}
		}
	}
}

func TestCrossoverReturnsFreshChildren(t *testing.T) {
	rng := rand.New(rand.NewSource(2))
	p1 := NewChromosome(sequence(0, 4))
	p2 := NewChromosome(sequence(4, 4))

	c1, _ := p1.Crossover(p2, CrossoverClone, rng)
	c1.swap(0, 1)
	assert.Equal(t, sequence(0, 4), p1.Slots())
}

func TestCrossoverShortChromosomes(t *testing.T) {
	rng := rand.New(rand.NewSource(3))

	// 长度不足 4 时两点交叉退化为单点交叉
	c1, c2 := NewChromosome([]int{0, 1, 2}).Crossover(NewChromosome([]int{3, 4, 5}), CrossoverDoubleCut, rng)
	assert.Equal(t, []int{0, 1, 5}, c1.Slots())
	assert.Equal(t, []int{3, 4, 2}, c2.Slots())

	c1, c2 = NewChromosome([]int{0, 1}).Crossover(NewChromosome([]int{2, 3}), CrossoverSingleCut, rng)
	assert.Equal(t, []int{0, 3}, c1.Slots())
	assert.Equal(t, []int{2, 1}, c2.Slots())

	// 长度不同时不交换
	c1, c2 = NewChromosome([]int{0, 1, 2}).Crossover(NewChromosome([]int{3, 4}), CrossoverUniform, rng)
	assert.Equal(t, []int{0, 1, 2}, c1.Slots())
	assert.Equal(t, []int{3, 4}, c2.Slots())
}

func TestRepair(t *testing.T) {
	rng := rand.New(rand.NewSource(4))

	c := NewChromosome([]int{0, 0, 1, 1})
	require.NoError(t, c.SetFitness(1))
	c.Repair(4, rng)
	assertPermutation(t, c.Slots(), 4)

	_, err := c.Fitness()
	assert.ErrorIs(t, err, ErrUnsetFitness)

	// 已经合法的染色体保持不变
	c = NewChromosome([]int{3, 2, 1, 0})
	c.Repair(4, rng)
	assert.Equal(t, []int{3, 2, 1, 0}, c.Slots())
}

func TestRepairAfterCrossover(t *testing.T) {
	rng := rand.New(rand.NewSource(5))
	const n = 30

	for i := 0; i < 200; i++ {
		s1, s2 := rng.Perm(n), rng.Perm(n)
		for _, mode := range crossoverModes {
			c1, c2 := NewChromosome(s1).Crossover(NewChromosome(s2), mode, rng)
			c1.Repair(n, rng)
			c2.Repair(n, rng)
			assertPermutation(t, c1.Slots(), n)
			assertPermutation(t, c2.Slots(), n)
		}
	}
}

func TestMutateKeepsPermutation(t *testing.T) {
	rng := rand.New(rand.NewSource(6))
	w := newTestWorld(t)
	ev := NewEvaluator(w, nil)
	params := MutationParams{MinSwaps: 1, MaxSwaps: 3, ConflictShiftRadius: 2}

	for i := 0; i < 500; i++ {
		c := NewChromosome(rng.Perm(w.Size()))
		_, err := ev.Evaluate(c)
		require.NoError(t, err)

		c.Mutate(ev, params, rng)
		assertPermutation(t, c.Slots(), w.Size())

		_, err = c.Fitness()
		assert.ErrorIs(t, err, ErrUnsetFitness)
	}
}

func TestMutateWithoutSwapsOnlyTouchesConflicts(t *testing.T) {
	w := newTestWorld(t)
	ev := NewEvaluator(w, nil)

	// 没有冲突，也没有随机交换，除非触发整体重排或邻座交换，否则座位表不变
	unchanged := 0
	for seed := int64(0); seed < 100; seed++ {
		rng := rand.New(rand.NewSource(seed))
		c := NewChromosome([]int{0, 2, 1, 3})
		c.Mutate(ev, MutationParams{}, rng)
		if assert.ObjectsAreEqual([]int{0, 2, 1, 3}, c.Slots()) {
			unchanged++
		}
	}
	assert.Greater(t, unchanged, 70)
}

// scriptedSource 先按顺序返回给定的值，用完后交给 fallback
type scriptedSource struct {
	values   []int64
	fallback rand.Source
}

func (s *scriptedSource) Int63() int64 {
	if len(s.values) == 0 {
		return s.fallback.Int63()
	}
	v := s.values[0]
	s.values = s.values[1:]
	return v
}

func (s *scriptedSource) Seed(seed int64) {
	s.fallback.Seed(seed)
}

func newScriptedRand(values ...int64) *rand.Rand {
	return rand.New(&scriptedSource{values: values, fallback: rand.NewSource(1)})
}

func TestMutateReshuffle(t *testing.T) {
	w := newTestWorld(t)
	ev := NewEvaluator(w, nil)

	// Float64 为 0 触发整体重排；Uint32 为 1 时每一步都与第 0 位交换；
	// Intn(10) 为 1 时不做邻座交换
	rng := newScriptedRand(0, 1<<31, 1<<31, 1<<31, 1<<32)

	c := NewChromosome([]int{0, 1, 2, 3})
	c.Mutate(ev, MutationParams{}, rng)

	assertPermutation(t, c.Slots(), w.Size())
	assert.Equal(t, []int{1, 2, 3, 0}, c.Slots())
}

func TestMutateNeighbourShuffle(t *testing.T) {
	w := newTestWorld(t)
	ev := NewEvaluator(w, nil)

	// Float64 为 0.5 不重排；Intn(10) 为 0 触发邻座交换；
	// 之后每一位依次与 1、2、3、3 号位交换
	rng := newScriptedRand(1<<62, 0, 1<<32, 2<<32, 2<<32, 1<<32)

	c := NewChromosome([]int{0, 2, 1, 3})
	c.Mutate(ev, MutationParams{}, rng)

	assertPermutation(t, c.Slots(), w.Size())
	assert.Equal(t, []int{2, 1, 3, 0}, c.Slots())
}
