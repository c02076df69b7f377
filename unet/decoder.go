package unet

import (
	"fmt"
	"log"
	"reflect"

	"github.com/sugarme/gotch/nn"
	ts "github.com/sugarme/gotch/tensor"

	"github.com/yarlsen/eoseg/base"
)

// DecoderLayer is a single skip-connected decode step.
type DecoderLayer struct {
	Conv1 *nn.SequentialT
	Attn1 *base.Attention
	Conv2 *nn.SequentialT
	Attn2 *base.Attention
}

// interpolation using `nearest` algorithm
func upsample(x, ref *ts.Tensor) *ts.Tensor {
	xSize := x.MustSize()
	refSize := ref.MustSize()
	if reflect.DeepEqual(xSize[2:], refSize[2:]) {
		return x.MustDetach(false)
	}

	return x.MustUpsampleNearest2d(refSize[2:], nil, nil, false)
}

// ForwardSkip concatenates input with skip features (if any) and decodes.
func (d *DecoderLayer) ForwardSkip(x, skip *ts.Tensor, train bool) *ts.Tensor {
	var cat *ts.Tensor
	if skip != nil {
		cat = ts.MustCat([]ts.Tensor{*x, *skip}, 1)
	} else {
		cat = ts.MustCat([]ts.Tensor{*x}, 1)
	}
	attn1 := d.Attn1.ForwardT(cat, train)
	cat.MustDrop()
	conv1 := d.Conv1.ForwardT(attn1, train)
	attn1.MustDrop()
	conv2 := d.Conv2.ForwardT(conv1, train)
	conv1.MustDrop()
	res := d.Attn2.ForwardT(conv2, train)
	conv2.MustDrop()

	return res
}

// NewDecoderLayer creates a DecoderLayer.
func NewDecoderLayer(p *nn.Path, cIn, skip, cOut int64) *DecoderLayer {
	conv1 := base.Conv2dRelu(p.Sub("conv1"), cIn+skip, cOut, 3, 1, 1)
	attn1 := base.NewAttention(base.NewSCSE(p.Sub("attn1"), cIn+skip))
	conv2 := base.Conv2dRelu(p.Sub("conv2"), cOut, cOut, 3, 1, 1)
	attn2 := base.NewAttention(base.NewSCSE(p.Sub("attn2"), cOut))

	return &DecoderLayer{
		Conv1: conv1,
		Attn1: attn1,
		Conv2: conv2,
		Attn2: attn2,
	}
}

// UNetDecoder is the decoder half of a UNet model: a center block followed
// by one skip-connected DecoderLayer per encoder stage.
type UNetDecoder struct {
	center  *nn.SequentialT
	decodes []*DecoderLayer
}

// NewUNetDecoder creates a UNetDecoder.
//
// encoderChannels are the pyramid channels from shallow to deep (the deepest
// feeds the center block); decoderChannels are one output size per decode
// step. The last decode step takes no skip features.
func NewUNetDecoder(p *nn.Path, encoderChannels, decoderChannels []int64) *UNetDecoder {
	if len(decoderChannels) != len(encoderChannels)-1 {
		log.Fatalf("Mismatched channels: %v encoder stages need %v decoder steps. Got %v\n",
			len(encoderChannels), len(encoderChannels)-1, len(decoderChannels))
	}

	deepest := encoderChannels[len(encoderChannels)-1]
	center := base.DoubleConv(p.Sub("center"), deepest, deepest)

	var decodes []*DecoderLayer
	cIn := deepest
	for i, cOut := range decoderChannels {
		var skip int64
		if i < len(decoderChannels)-1 {
			skip = encoderChannels[len(encoderChannels)-2-i]
		}
		decodes = append(decodes, NewDecoderLayer(p.Sub(fmt.Sprintf("decoder%v", i)), cIn, skip, cOut))
		cIn = cOut
	}

	return &UNetDecoder{
		center:  center,
		decodes: decodes,
	}
}

// ForwardFeatures decodes an encoder feature pyramid into a feature map at
// input resolution.
func (n *UNetDecoder) ForwardFeatures(features []*ts.Tensor, train bool) *ts.Tensor {
	if len(features) != len(n.decodes)+1 {
		log.Fatalf("Expected features of %v tensors. Got %v\n", len(n.decodes)+1, len(features))
	}

	deepest := features[len(features)-1]
	x := n.center.ForwardT(deepest, train)

	for i, dec := range n.decodes {
		if i < len(n.decodes)-1 {
			skip := features[len(features)-2-i]
			up := upsample(x, skip)
			x.MustDrop()
			z := dec.ForwardSkip(skip, up, train)
			up.MustDrop()
			x = z
		} else {
			// last step: upsample toward input resolution, no skip
			up := upsample(x, features[0])
			x.MustDrop()
			z := dec.ForwardSkip(up, nil, train)
			up.MustDrop()
			x = z
		}
	}

	return x
}
