package base

import "github.com/sugarme/gotch/nn"

// NewSegmentationHead creates a segmentation head (nn.SequentialT) that maps
// decoder features to per-class logits.
func NewSegmentationHead(p *nn.Path, cIn, classes, ksize int64) *nn.SequentialT {
	seq := nn.SeqT()
	seq.Add(Conv2d(p, cIn, classes, ksize, ksize/2, 1))

	return seq
}
