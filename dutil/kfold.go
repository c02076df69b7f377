package dutil

import (
	"fmt"
	"math/rand"
)

// Fold is one train/test partition of dataset indexes.
type Fold struct {
	Train []int
	Test  []int
}

// KFold splits n dataset indexes into k folds.
type KFold struct {
	n       int
	k       int
	shuffle bool
}

// NewKFold creates a KFold splitter.
func NewKFold(n, k int, shuffle bool) (*KFold, error) {
	if k < 2 || k > n {
		return nil, fmt.Errorf("Invalid number of folds: %v (dataset size: %v)\n", k, n)
	}

	return &KFold{n: n, k: k, shuffle: shuffle}, nil
}

// Split returns k folds. Each index appears in exactly one test set.
func (kf *KFold) Split() []Fold {
	indexes := make([]int, kf.n)
	for i := range indexes {
		indexes[i] = i
	}
	if kf.shuffle {
		rand.Shuffle(kf.n, func(i, j int) {
			indexes[i], indexes[j] = indexes[j], indexes[i]
		})
	}

	foldSizes := make([]int, kf.k)
	for i := range foldSizes {
		foldSizes[i] = kf.n / kf.k
	}
	for i := 0; i < kf.n%kf.k; i++ {
		foldSizes[i]++
	}

	var folds []Fold
	start := 0
	for _, size := range foldSizes {
		stop := start + size
		test := append([]int{}, indexes[start:stop]...)
		train := append([]int{}, indexes[:start]...)
		train = append(train, indexes[stop:]...)
		folds = append(folds, Fold{Train: train, Test: test})
		start = stop
	}

	return folds
}
