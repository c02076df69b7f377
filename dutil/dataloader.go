package dutil

import (
	"fmt"
	"reflect"
)

// DataLoader iterates a Dataset in the order produced by a Sampler.
type DataLoader struct {
	dataset Dataset
	sampler Sampler
	indexes []int
	curr    int
	batched bool
}

// NewDataLoader creates a DataLoader.
func NewDataLoader(ds Dataset, s Sampler) (*DataLoader, error) {
	if ds == nil {
		return nil, fmt.Errorf("Dataset is nil.\n")
	}
	if s == nil {
		var err error
		s, err = NewSequentialSampler(ds.Len())
		if err != nil {
			return nil, err
		}
	}

	_, batched := s.(*BatchSampler)

	return &DataLoader{
		dataset: ds,
		sampler: s,
		indexes: s.Sample(),
		curr:    0,
		batched: batched,
	}, nil
}

// HasNext reports whether another step remains in the epoch.
func (dl *DataLoader) HasNext() bool {
	return dl.curr < len(dl.indexes)
}

// Next returns the next sample, or for a BatchSampler a typed slice of
// samples.
//
// E.g. a dataset whose Item returns ImageMask values yields []ImageMask
// batches: `batch.([]ImageMask)`.
func (dl *DataLoader) Next() (interface{}, error) {
	if !dl.HasNext() {
		return nil, fmt.Errorf("Data loader is exhausted. Call Reset() to start a new epoch.\n")
	}

	size := dl.sampler.BatchSize()
	if !dl.batched {
		item, err := dl.dataset.Item(dl.indexes[dl.curr])
		if err != nil {
			return nil, err
		}
		dl.curr++
		return item, nil
	}

	if remaining := len(dl.indexes) - dl.curr; size > remaining {
		size = remaining
	}

	first, err := dl.dataset.Item(dl.indexes[dl.curr])
	if err != nil {
		return nil, err
	}
	batch := reflect.MakeSlice(reflect.SliceOf(reflect.TypeOf(first)), 0, size)
	batch = reflect.Append(batch, reflect.ValueOf(first))

	for i := 1; i < size; i++ {
		item, err := dl.dataset.Item(dl.indexes[dl.curr+i])
		if err != nil {
			return nil, err
		}
		batch = reflect.Append(batch, reflect.ValueOf(item))
	}
	dl.curr += size

	return batch.Interface(), nil
}

// Reset starts a new epoch, resampling the index order.
func (dl *DataLoader) Reset() {
	dl.indexes = dl.sampler.Sample()
	dl.curr = 0
}

// Len returns the number of steps per epoch.
func (dl *DataLoader) Len() int {
	size := dl.sampler.BatchSize()
	n := len(dl.indexes)

	return (n + size - 1) / size
}
