package unet

import (
	"github.com/sugarme/gotch/nn"
	ts "github.com/sugarme/gotch/tensor"

	"github.com/yarlsen/eoseg/base"
	"github.com/yarlsen/eoseg/encoder"
)

// UNet is a UNET model struct.
// Ref: https://arxiv.org/abs/1505.04597
type UNet struct {
	encoder encoder.Encoder
	decoder *UNetDecoder
	segHead *nn.SequentialT
}

// ForwardT implements ts.ModuleT for UNet struct.
func (n *UNet) ForwardT(x *ts.Tensor, train bool) *ts.Tensor {
	features := n.encoder.ForwardAll(x, train)
	out := n.decoder.ForwardFeatures(features, train)
	logit := n.segHead.ForwardT(out, train)
	masks := upsample(logit, x)

	for _, f := range features {
		f.MustDrop()
	}
	out.MustDrop()
	logit.MustDrop()

	return masks
}

// NewUNet creates a UNet from an encoder with the given decoder channels
// and number of output classes.
func NewUNet(p *nn.Path, enc encoder.Encoder, decoderChannels []int64, classes int64) *UNet {
	dec := NewUNetDecoder(p, enc.Channels(), decoderChannels)
	head := base.NewSegmentationHead(p.Sub("logit"), decoderChannels[len(decoderChannels)-1], classes, 3)

	return &UNet{
		encoder: enc,
		decoder: dec,
		segHead: head,
	}
}

// DefaultUNet creates a single-class UNet with a ResNet34 encoder.
func DefaultUNet(p *nn.Path) *UNet {
	enc := encoder.NewResNet34Encoder(p)
	return NewUNet(p, enc, []int64{256, 128, 64, 32, 16}, 1)
}
