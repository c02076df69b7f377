package dutil

import (
	"fmt"
	"math/rand"
)

// Sampler generates an ordering of dataset indexes for one epoch.
type Sampler interface {
	// Sample returns the epoch's index order.
	Sample() []int

	// BatchSize returns the number of indexes per step.
	BatchSize() int
}

// SequentialSampler yields indexes 0..n-1 one at a time.
type SequentialSampler struct {
	n int
}

// NewSequentialSampler creates a SequentialSampler.
func NewSequentialSampler(n int) (*SequentialSampler, error) {
	if n <= 0 {
		return nil, fmt.Errorf("Invalid dataset size: %v\n", n)
	}
	return &SequentialSampler{n}, nil
}

// Sample implements Sampler interface for SequentialSampler.
func (s *SequentialSampler) Sample() []int {
	indexes := make([]int, s.n)
	for i := range indexes {
		indexes[i] = i
	}
	return indexes
}

// BatchSize implements Sampler interface for SequentialSampler.
func (s *SequentialSampler) BatchSize() int { return 1 }

// RandSampler yields indexes 0..n-1 in random order.
type RandSampler struct {
	n int
}

// NewRandSampler creates a RandSampler.
func NewRandSampler(n int) (*RandSampler, error) {
	if n <= 0 {
		return nil, fmt.Errorf("Invalid dataset size: %v\n", n)
	}
	return &RandSampler{n}, nil
}

// Sample implements Sampler interface for RandSampler.
func (s *RandSampler) Sample() []int {
	return rand.Perm(s.n)
}

// BatchSize implements Sampler interface for RandSampler.
func (s *RandSampler) BatchSize() int { return 1 }

// BatchSampler yields batches of indexes, optionally shuffled, optionally
// dropping a trailing partial batch.
type BatchSampler struct {
	n        int
	size     int
	dropLast bool
	shuffle  bool
}

// NewBatchSampler creates a BatchSampler.
func NewBatchSampler(n, size int, dropLast bool, shuffleOpt ...bool) (*BatchSampler, error) {
	shuffle := false
	if len(shuffleOpt) > 0 {
		shuffle = shuffleOpt[0]
	}

	if n <= 0 {
		return nil, fmt.Errorf("Invalid dataset size: %v\n", n)
	}
	if size <= 0 || size > n {
		return nil, fmt.Errorf("Invalid batch size: %v (dataset size: %v)\n", size, n)
	}

	return &BatchSampler{
		n:        n,
		size:     size,
		dropLast: dropLast,
		shuffle:  shuffle,
	}, nil
}

// Sample implements Sampler interface for BatchSampler.
func (s *BatchSampler) Sample() []int {
	indexes := make([]int, s.n)
	for i := range indexes {
		indexes[i] = i
	}
	if s.shuffle {
		rand.Shuffle(s.n, func(i, j int) {
			indexes[i], indexes[j] = indexes[j], indexes[i]
		})
	}
	if s.dropLast {
		indexes = indexes[:(s.n/s.size)*s.size]
	}
	return indexes
}

// BatchSize implements Sampler interface for BatchSampler.
func (s *BatchSampler) BatchSize() int { return s.size }
