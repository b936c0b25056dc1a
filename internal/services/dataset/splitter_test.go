package dataset

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"FinTrain/internal/domain/models"
)

func makeExamples(n int) []models.Example {
	out := make([]models.Example, n)
	for i := range out {
		out[i] = models.Example{Features: []float64{float64(i)}, Labels: []float64{float64(i) * 10}}
	}
	return out
}

func TestSplit_Completeness(t *testing.T) {
	for _, n := range []int{0, 1, 4, 5, 6, 10, 17, 101} {
		train, val, err := Split(makeExamples(n), 0.8, NewRand(1))
		require.NoError(t, err)

		assert.Equal(t, n, len(train)+len(val), "n=%d", n)
		assert.Equal(t, int(math.Floor(0.8*float64(n))), len(train), "n=%d", n)
	}
}

func TestSplit_EveryExampleExactlyOnceAndPaired(t *testing.T) {
	examples := makeExamples(23)
	train, val, err := Split(examples, 0.8, NewRand(42))
	require.NoError(t, err)

	seen := make(map[float64]int)
	for _, ex := range append(append([]models.Example{}, train...), val...) {
		assert.Equal(t, ex.Features[0]*10, ex.Labels[0], "pairing broken")
		seen[ex.Features[0]]++
	}
	assert.Len(t, seen, 23)
	for k, c := range seen {
		assert.Equal(t, 1, c, "example %v", k)
	}
}

func TestSplit_DeterministicWithSeed(t *testing.T) {
	a1, b1, err := Split(makeExamples(30), 0.8, NewRand(7))
	require.NoError(t, err)
	a2, b2, err := Split(makeExamples(30), 0.8, NewRand(7))
	require.NoError(t, err)

	assert.Equal(t, a1, a2)
	assert.Equal(t, b1, b2)
}

func TestSplit_DoesNotMutateInput(t *testing.T) {
	examples := makeExamples(10)
	_, _, err := Split(examples, 0.8, NewRand(3))
	require.NoError(t, err)
	for i, ex := range examples {
		assert.Equal(t, float64(i), ex.Features[0])
	}
}

func TestSplit_RejectsBadRatio(t *testing.T) {
	for _, r := range []float64{0, 1, -0.5, 1.2} {
		_, _, err := Split(makeExamples(10), r, NewRand(1))
		assert.Error(t, err, "ratio %v", r)
	}
}

func TestBatches_CoversAllIndices(t *testing.T) {
	batches := Batches(23, 10, NewRand(5))
	require.Len(t, batches, 3)
	assert.Len(t, batches[0], 10)
	assert.Len(t, batches[1], 10)
	assert.Len(t, batches[2], 3)

	seen := make(map[int]bool)
	for _, b := range batches {
		for _, i := range b {
			seen[i] = true
		}
	}
	assert.Len(t, seen, 23)
	assert.Nil(t, Batches(0, 10, NewRand(5)))
}
