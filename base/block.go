package base

import (
	"github.com/sugarme/gotch/nn"
	ts "github.com/sugarme/gotch/tensor"
)

// Identity is a nn.Module placeholder.
// It forwards the input tensor as such.
type Identity struct{}

// Forward implements ts.Module for Identity struct.
func (i *Identity) Forward(x *ts.Tensor) *ts.Tensor {
	return x.MustDetach(false)
}

// ForwardT implements ts.ModuleT for Identity struct.
func (i *Identity) ForwardT(x *ts.Tensor, train bool) *ts.Tensor {
	return x.MustDetach(false)
}

// NewIdentity creates a new Identity struct.
func NewIdentity() *Identity {
	return &Identity{}
}

// Conv2d creates a Conv2D module.
func Conv2d(p *nn.Path, cIn, cOut, ksize, padding, stride int64) *nn.Conv2D {
	config := nn.DefaultConv2DConfig()
	config.Stride = []int64{stride, stride}
	config.Padding = []int64{padding, padding}

	return nn.NewConv2D(p, cIn, cOut, ksize, config)
}

// Conv2dNoBias creates a Conv2D module with no bias.
func Conv2dNoBias(p *nn.Path, cIn, cOut, ksize, padding, stride int64) *nn.Conv2D {
	config := nn.DefaultConv2DConfig()
	config.Bias = false
	config.Stride = []int64{stride, stride}
	config.Padding = []int64{padding, padding}

	return nn.NewConv2D(p, cIn, cOut, ksize, config)
}

// Conv2dRelu creates a SequentialT composed of a no-bias Conv2D, a batch
// norm and a ReLU activation.
func Conv2dRelu(p *nn.Path, cIn, cOut, ksize, padding, stride int64) *nn.SequentialT {
	bnConfig := nn.DefaultBatchNormConfig()
	bnConfig.Eps = 0.001

	seq := nn.SeqT()
	seq.Add(Conv2dNoBias(p.Sub("conv"), cIn, cOut, ksize, padding, stride))
	seq.Add(nn.BatchNorm2D(p.Sub("bn"), cOut, bnConfig))
	seq.AddFn(nn.NewFunc(func(xs *ts.Tensor) *ts.Tensor {
		return xs.MustRelu(false)
	}))

	return seq
}

// DoubleConv stacks two conv-bn-relu blocks keeping spatial size.
func DoubleConv(p *nn.Path, cIn, cOut int64, cMidOpt ...int64) *nn.SequentialT {
	cMid := cOut
	if len(cMidOpt) > 0 {
		cMid = cMidOpt[0]
	}

	seq := nn.SeqT()
	seq.Add(Conv2dRelu(p.Sub("conv1"), cIn, cMid, 3, 1, 1))
	seq.Add(Conv2dRelu(p.Sub("conv2"), cMid, cOut, 3, 1, 1))

	return seq
}
