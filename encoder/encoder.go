package encoder

import (
	ts "github.com/sugarme/gotch/tensor"
)

// Encoder extracts a feature pyramid from an input image batch for a
// segmentation model. ForwardAll returns the stages from shallowest
// (input resolution) to deepest.
type Encoder interface {
	ForwardAll(x *ts.Tensor, train bool) []*ts.Tensor

	// Channels reports the channel count of every returned stage.
	Channels() []int64
}
