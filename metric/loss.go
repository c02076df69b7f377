package metric

import (
	"github.com/sugarme/gotch"
	ts "github.com/sugarme/gotch/tensor"
)

// BCEWithLogitsLoss is binary cross entropy loss taking raw logits.
// It applies the sigmoid internally for numerical stability and reduces
// with the mean.
func BCEWithLogitsLoss(logit, mask *ts.Tensor) *ts.Tensor {
	logitR := logit.MustReshape([]int64{-1}, false)
	maskR := mask.MustReshape([]int64{-1}, false)

	// NOTE: reduction: none = 0; mean = 1; sum = 2. Default=mean
	// ref. https://pytorch.org/docs/master/nn.functional.html#torch.nn.functional.binary_cross_entropy_with_logits
	retVal := logitR.MustBinaryCrossEntropyWithLogits(maskR, ts.NewTensor(), ts.NewTensor(), 1, true).MustView([]int64{-1}, true)
	maskR.MustDrop()

	return retVal
}

// BCELoss is binary cross entropy loss over probabilities, with inputs
// clipped away from 0 and 1.
func BCELoss(probability, mask *ts.Tensor) *ts.Tensor {
	p := probability.MustView([]int64{-1}, false)
	t := mask.MustView([]int64{-1}, false)

	// 1-p
	p1 := p.MustMul1(ts.FloatScalar(-1), false).MustAdd1(ts.FloatScalar(1), true)
	// 1-t
	t1 := t.MustMul1(ts.FloatScalar(-1), false).MustAdd1(ts.FloatScalar(1), true)

	pclip := p.MustClip(ts.FloatScalar(1e-6), ts.FloatScalar(1), false)
	logp := pclip.MustLog(true)
	p1clip := p1.MustClip(ts.FloatScalar(1e-6), ts.FloatScalar(1), true)
	logn := p1clip.MustLog(true)

	// t * logp
	tlogp := t.MustMul(logp, true)
	// (1-t)*logn
	t1logn := t1.MustMul(logn, true)

	loss := tlogp.MustAdd(t1logn, true)
	t1logn.MustDrop()
	p.MustDrop()

	lossMean := loss.MustMean(gotch.Double, true)
	retVal := lossMean.MustMul1(ts.FloatScalar(-1), true)

	return retVal
}

// SoftDiceLoss is 1 - smoothed dice coefficient over probabilities. It is
// differentiable and usable as a training criterion.
// Ref. http://campar.in.tum.de/pub/milletari2016Vnet/milletari2016Vnet.pdf
func SoftDiceLoss(x, y *ts.Tensor) *ts.Tensor {
	dims := []int64{-2, -1}
	smooth := 1.0

	xyMul := x.MustMul(y, false)
	tp := xyMul.MustSum1(dims, false, gotch.Double, true)

	// 1-y
	y1 := y.MustMul1(ts.FloatScalar(-1), false).MustAdd1(ts.FloatScalar(1), true)
	xy1Mul := y1.MustMul(x, true)
	fp := xy1Mul.MustSum1(dims, false, gotch.Double, true)

	// 1-x
	x1 := x.MustMul1(ts.FloatScalar(-1), false).MustAdd1(ts.FloatScalar(1), true)
	x1yMul := x1.MustMul(y, true)
	fn := x1yMul.MustSum1(dims, false, gotch.Double, true)

	numerator := tp.MustMul1(ts.FloatScalar(2.0), false).MustAdd1(ts.FloatScalar(smooth), true)
	denominator := numerator.MustAdd(fp, false).MustAdd(fn, true)

	dc := numerator.MustDiv(denominator, true)

	tp.MustDrop()
	fp.MustDrop()
	fn.MustDrop()
	denominator.MustDrop()

	mean := dc.MustMean(gotch.Double, true)

	retVal := mean.MustMul1(ts.FloatScalar(-1), true).MustAdd1(ts.FloatScalar(1), true)

	return retVal
}

// ComboLoss combines BCE with logits (0.8) and soft dice (0.2).
// Ref. https://www.kaggle.com/finlay/pytorch-fcn-resnet50-in-20-minute
func ComboLoss(logit, mask *ts.Tensor) *ts.Tensor {
	bce := BCEWithLogitsLoss(logit, mask).MustMul1(ts.FloatScalar(0.8), true)
	prob := logit.MustSigmoid(false)
	dice := SoftDiceLoss(prob, mask).MustMul1(ts.FloatScalar(0.2), true)
	prob.MustDrop()

	retVal := bce.MustAdd(dice, true)
	dice.MustDrop()

	return retVal
}
