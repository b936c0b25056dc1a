package dataset

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seq(from, to int) []float64 {
	out := make([]float64, 0, to-from+1)
	for i := from; i <= to; i++ {
		out = append(out, float64(i))
	}
	return out
}

func TestNewWindower_RejectsNonPositiveArity(t *testing.T) {
	_, err := NewWindower(0, 5)
	assert.Error(t, err)
	_, err = NewWindower(15, 0)
	assert.Error(t, err)
}

func TestWindower_ShortStreamEmitsNothing(t *testing.T) {
	w, err := NewWindower(15, 5)
	require.NoError(t, err)

	assert.Empty(t, w.Process(nil))
	assert.Empty(t, w.Process(seq(1, 19)))
}

func TestWindower_EmitsKPlusOne(t *testing.T) {
	w, err := NewWindower(15, 5)
	require.NoError(t, err)

	for k := 0; k < 12; k++ {
		got := w.Process(seq(1, 20+k))
		assert.Len(t, got, k+1, "stream length %d", 20+k)
	}
}

func TestWindower_SequentialIntegers(t *testing.T) {
	w, err := NewWindower(15, 5)
	require.NoError(t, err)

	got := w.Process(seq(1, 25))
	require.Len(t, got, 6)

	assert.Equal(t, seq(1, 15), got[0].Features)
	assert.Equal(t, seq(16, 20), got[0].Labels)
	assert.Equal(t, seq(6, 20), got[5].Features)
	assert.Equal(t, seq(21, 25), got[5].Labels)
}

func TestWindower_NegativePricesAreRealObservations(t *testing.T) {
	// The fill counter, not a marker value, decides validity.
	w, err := NewWindower(2, 1)
	require.NoError(t, err)

	got := w.Process([]float64{-1, -1, -1, -1})
	require.Len(t, got, 2)
	assert.Equal(t, []float64{-1, -1}, got[0].Features)
	assert.Equal(t, []float64{-1}, got[0].Labels)
}

func TestWindower_EmittedExamplesDoNotAlias(t *testing.T) {
	w, err := NewWindower(2, 1)
	require.NoError(t, err)

	got := w.Process(seq(1, 5))
	require.Len(t, got, 3)
	got[0].Features[0] = 100
	assert.Equal(t, []float64{2, 3}, got[1].Features)
	assert.Equal(t, []float64{3, 4}, got[2].Features)
}

func TestWindower_PushIncremental(t *testing.T) {
	w, err := NewWindower(2, 1)
	require.NoError(t, err)

	_, ok := w.Push(1)
	assert.False(t, ok)
	_, ok = w.Push(2)
	assert.False(t, ok)
	ex, ok := w.Push(3)
	require.True(t, ok)
	assert.Equal(t, []float64{1, 2}, ex.Features)
	assert.Equal(t, []float64{3}, ex.Labels)

	w.Reset()
	_, ok = w.Push(4)
	assert.False(t, ok)
}
