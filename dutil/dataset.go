// Package dutil provides dataset, sampler and data-loader primitives for
// feeding training loops.
package dutil

// Dataset is a map-style collection of samples addressable by index.
type Dataset interface {
	// Item returns the sample at idx.
	Item(idx int) (interface{}, error)

	// Len returns the number of samples.
	Len() int
}
