package unet

import (
	"reflect"

	"github.com/sugarme/gotch/nn"
	ts "github.com/sugarme/gotch/tensor"

	"github.com/yarlsen/eoseg/base"
)

// Down halves spatial size with maxpool then applies a double conv.
type Down struct {
	maxpoolConv *nn.SequentialT
}

// NewDown creates a Down layer.
func NewDown(p *nn.Path, cIn, cOut int64, cMidOpt ...int64) *Down {
	down := nn.SeqT()
	down.AddFn(nn.NewFunc(func(x *ts.Tensor) *ts.Tensor {
		// [B C H W] => [B C H/2 W/2]
		return x.MustMaxPool2d([]int64{2, 2}, []int64{2, 2}, []int64{0, 0}, []int64{1, 1}, false, false)
	}))
	down.Add(base.DoubleConv(p, cIn, cOut, cMidOpt...))

	return &Down{down}
}

// ForwardT implements ts.ModuleT for Down struct.
func (l *Down) ForwardT(x *ts.Tensor, train bool) *ts.Tensor {
	return l.maxpoolConv.ForwardT(x, train)
}

// Up upsamples, concatenates skip features and applies a double conv.
type Up struct {
	doubleConv *nn.SequentialT
}

// NewUp creates an Up layer.
func NewUp(p *nn.Path, cIn, cOut int64) *Up {
	return &Up{base.DoubleConv(p, cIn, cOut)}
}

// UpForward upsamples x1 to x2's size, concatenates and decodes.
// x1, x2 should be in shape [B C H W].
func (l *Up) UpForward(x1, x2 *ts.Tensor, train bool) *ts.Tensor {
	x2Size := x2.MustSize()
	xUp := upsampleBilinear(x1, x2Size[2:])

	x := ts.MustCat([]ts.Tensor{*x2, *xUp}, 1)
	xUp.MustDrop()

	out := l.doubleConv.ForwardT(x, train)
	x.MustDrop()

	return out
}

// interpolation using `bilinear` algorithm
func upsampleBilinear(x *ts.Tensor, outSize []int64) *ts.Tensor {
	xSize := x.MustSize()
	if reflect.DeepEqual(xSize[2:], outSize) {
		return x.MustDetach(false)
	}

	return x.MustUpsampleBilinear2d(outSize, false, nil, nil, false)
}

// OutConv creates the 1x1 output layer.
func OutConv(p *nn.Path, cIn, cOut int64) *nn.Conv2D {
	return nn.NewConv2D(p, cIn, cOut, 1, nn.DefaultConv2DConfig())
}

// UNetClassic is the original UNet without a pretrained backbone.
// Ref: https://arxiv.org/abs/1505.04597
type UNetClassic struct {
	inc *nn.SequentialT

	down1 *Down
	down2 *Down
	down3 *Down
	down4 *Down

	up1 *Up
	up2 *Up
	up3 *Up
	up4 *Up

	outC *nn.Conv2D
}

// NewUNetClassic creates a UNet with 3 input channels and one output
// class, using bilinear upsampling.
func NewUNetClassic(p *nn.Path) *UNetClassic {
	return &UNetClassic{
		inc:   base.DoubleConv(p.Sub("inc"), 3, 64),
		down1: NewDown(p.Sub("down1"), 64, 128),
		down2: NewDown(p.Sub("down2"), 128, 256),
		down3: NewDown(p.Sub("down3"), 256, 512),
		down4: NewDown(p.Sub("down4"), 512, 512), // bilinear: 1024/2
		up1:   NewUp(p.Sub("up1"), 1024, 256),    // bilinear: 512/2
		up2:   NewUp(p.Sub("up2"), 512, 128),
		up3:   NewUp(p.Sub("up3"), 256, 64),
		up4:   NewUp(p.Sub("up4"), 128, 64),
		outC:  OutConv(p.Sub("outc"), 64, 1),
	}
}

// ForwardT implements ts.ModuleT for UNetClassic struct.
func (m *UNetClassic) ForwardT(x *ts.Tensor, train bool) *ts.Tensor {
	x1 := m.inc.ForwardT(x, train)    // [B  64 H    W   ]
	x2 := m.down1.ForwardT(x1, train) // [B 128 H/2  W/2 ]
	x3 := m.down2.ForwardT(x2, train) // [B 256 H/4  W/4 ]
	x4 := m.down3.ForwardT(x3, train) // [B 512 H/8  W/8 ]
	x5 := m.down4.ForwardT(x4, train) // [B 512 H/16 W/16]

	z1 := m.up1.UpForward(x5, x4, train) // [B 256 H/8 W/8]
	z2 := m.up2.UpForward(z1, x3, train) // [B 128 H/4 W/4]
	z3 := m.up3.UpForward(z2, x2, train) // [B  64 H/2 W/2]
	z4 := m.up4.UpForward(z3, x1, train) // [B  64 H   W  ]

	logits := m.outC.ForwardT(z4, train) // [B   1 H   W  ]

	x1.MustDrop()
	x2.MustDrop()
	x3.MustDrop()
	x4.MustDrop()
	x5.MustDrop()
	z1.MustDrop()
	z2.MustDrop()
	z3.MustDrop()
	z4.MustDrop()

	return logits
}
