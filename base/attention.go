package base

import (
	"github.com/sugarme/gotch/nn"
	ts "github.com/sugarme/gotch/tensor"
)

// SCSE is concurrent spatial and channel squeeze and excitement module.
// Ref. https://arxiv.org/abs/1808.08127
type SCSE struct {
	cSE *nn.SequentialT
	sSE *nn.SequentialT
}

// ForwardT implements ts.ModuleT for SCSE struct.
func (m *SCSE) ForwardT(x *ts.Tensor, train bool) *ts.Tensor {
	cse := m.cSE.ForwardT(x, train)
	sse := m.sSE.ForwardT(x, train)
	cmul := x.MustMul(cse, false)
	smul := x.MustMul(sse, false)
	res := cmul.MustAdd(smul, false)

	cse.MustDrop()
	sse.MustDrop()
	cmul.MustDrop()
	smul.MustDrop()

	return res
}

// NewSCSE creates a new SCSE.
func NewSCSE(p *nn.Path, cIn int64, reductionOpt ...int64) *SCSE {
	var reduction int64 = 16
	if len(reductionOpt) > 0 {
		reduction = reductionOpt[0]
	}

	// Channel squeeze excite
	chanSeq := nn.SeqT()
	chanSeq.AddFn(nn.NewFunc(func(xs *ts.Tensor) *ts.Tensor {
		return xs.MustAdaptiveAvgPool2d([]int64{1, 1}, false)
	}))
	chanSeq.Add(Conv2d(p.Sub("sqzconv1"), cIn, cIn/reduction, 1, 0, 1))
	chanSeq.AddFn(nn.NewFunc(func(xs *ts.Tensor) *ts.Tensor {
		return xs.MustRelu(false)
	}))
	chanSeq.Add(Conv2d(p.Sub("sqzconv2"), cIn/reduction, cIn, 1, 0, 1))
	chanSeq.AddFn(nn.NewFunc(func(xs *ts.Tensor) *ts.Tensor {
		return xs.MustSigmoid(false)
	}))

	// Spatial squeeze excite
	spatSeq := nn.SeqT()
	spatSeq.Add(Conv2d(p.Sub("spatconv"), cIn, 1, 1, 0, 1))
	spatSeq.AddFn(nn.NewFunc(func(xs *ts.Tensor) *ts.Tensor {
		return xs.MustSigmoid(false)
	}))

	return &SCSE{
		cSE: chanSeq,
		sSE: spatSeq,
	}
}

// Attention wraps an optional attention module. A zero-value option
// falls back to Identity.
type Attention struct {
	attn ts.ModuleT
}

// ForwardT implements ts.ModuleT for Attention struct.
func (a *Attention) ForwardT(x *ts.Tensor, train bool) *ts.Tensor {
	return a.attn.ForwardT(x, train)
}

// NewAttention creates a new Attention.
func NewAttention(moduleOpt ...ts.ModuleT) *Attention {
	var attention ts.ModuleT = &Identity{}
	if len(moduleOpt) > 0 && moduleOpt[0] != nil {
		attention = moduleOpt[0]
	}

	return &Attention{attention}
}
