package dataset

import (
	"errors"
	"fmt"
	"math"
	"math/rand"
	"time"

	"FinTrain/internal/domain/models"
)

// ErrEmptyDataset is returned when a split leaves nothing to train or validate on.
var ErrEmptyDataset = errors.New("dataset: empty training or validation set")

// NewRand returns a seeded source; seed 0 seeds from the clock.
func NewRand(seed int64) *rand.Rand {
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	return rand.New(rand.NewSource(seed))
}

// Split shuffles examples with rng and cuts them at floor(ratio*N).
// The input slice is left untouched.
func Split(examples []models.Example, ratio float64, rng *rand.Rand) (train, val []models.Example, err error) {
	if ratio <= 0 || ratio >= 1 {
		return nil, nil, fmt.Errorf("dataset: split ratio must be in (0,1), got %v", ratio)
	}
	shuffled := make([]models.Example, len(examples))
	copy(shuffled, examples)
	rng.Shuffle(len(shuffled), func(i, j int) {
		shuffled[i], shuffled[j] = shuffled[j], shuffled[i]
	})

	cut := int(math.Floor(ratio * float64(len(shuffled))))
	return shuffled[:cut], shuffled[cut:], nil
}

// Batches returns a shuffled partition of [0,n) into chunks of size (last may be smaller).
func Batches(n, size int, rng *rand.Rand) [][]int {
	if n <= 0 || size <= 0 {
		return nil
	}
	idx := rng.Perm(n)
	out := make([][]int, 0, (n+size-1)/size)
	for start := 0; start < n; start += size {
		end := start + size
		if end > n {
			end = n
		}
		out = append(out, idx[start:end])
	}
	return out
}
