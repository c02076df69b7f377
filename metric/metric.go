package metric

import (
	"github.com/sugarme/gotch"
	ts "github.com/sugarme/gotch/tensor"
)

const threshold = 0.5
const eps = 1e-7

// IoU computes intersection over union of a predicted mask against the
// ground truth, both thresholded at 0.5.
func IoU(input, target *ts.Tensor) float64 {
	iflat := input.MustView([]int64{-1}, false)
	tflat := target.MustView([]int64{-1}, false)
	p := iflat.MustGt(ts.FloatScalar(threshold), true)
	t := tflat.MustGt(ts.FloatScalar(threshold), true)
	ptMul := p.MustMul(t, false)

	overlap := ptMul.MustSum(gotch.Double, true).Float64Values()[0]
	total := p.MustSum(gotch.Double, true).Float64Values()[0] + t.MustSum(gotch.Double, true).Float64Values()[0]
	union := total - overlap

	return overlap / (union + eps)
}

// DiceCoeff computes the dice coefficient of a predicted mask against the
// ground truth, both thresholded at 0.5.
func DiceCoeff(input, target *ts.Tensor) float64 {
	iflat := input.MustView([]int64{-1}, false)
	tflat := target.MustView([]int64{-1}, false)
	p := iflat.MustGt(ts.FloatScalar(threshold), true)
	t := tflat.MustGt(ts.FloatScalar(threshold), true)
	ptMul := p.MustMul(t, false)

	overlap := ptMul.MustSum(gotch.Double, true).Float64Values()[0]
	total := p.MustSum(gotch.Double, true).Float64Values()[0] + t.MustSum(gotch.Double, true).Float64Values()[0]

	return (2 * overlap) / (total + eps)
}

// DiceCoeffBatch averages the dice coefficient over the leading (batch)
// dimension.
func DiceCoeffBatch(input, target *ts.Tensor) float64 {
	n := input.MustSize()[0]

	iflat := input.MustView([]int64{n, -1}, false)
	tflat := target.MustView([]int64{n, -1}, false)
	p := iflat.MustGt(ts.FloatScalar(threshold), true).MustTotype(gotch.Double, true)
	t := tflat.MustGt(ts.FloatScalar(threshold), true).MustTotype(gotch.Double, true)
	ptMul := p.MustMul(t, false)

	overlaps := ptMul.MustSum1([]int64{1}, false, gotch.Double, true).Float64Values()
	pSums := p.MustSum1([]int64{1}, false, gotch.Double, true).Float64Values()
	tSums := t.MustSum1([]int64{1}, false, gotch.Double, true).Float64Values()

	var sum float64
	for i := 0; i < int(n); i++ {
		sum += (2 * overlaps[i]) / (pSums[i] + tSums[i] + eps)
	}

	return sum / float64(n)
}

// JaccardIndex averages per-class IoU over nClasses. Inputs are class
// indices (binary masks use nClasses = 2).
func JaccardIndex(input, target *ts.Tensor, nClasses int64) float64 {
	iflat := input.MustView([]int64{-1}, false)
	tflat := target.MustView([]int64{-1}, false)
	pVals := iflat.MustTotype(gotch.Double, true).Float64Values()
	tVals := tflat.MustTotype(gotch.Double, true).Float64Values()

	var sum float64
	for c := int64(0); c < nClasses; c++ {
		var overlap, union float64
		for i := range pVals {
			p := int64(pVals[i]) == c
			t := int64(tVals[i]) == c
			if p && t {
				overlap++
			}
			if p || t {
				union++
			}
		}
		if union > 0 {
			sum += overlap / union
		} else {
			// absent class counts as perfect agreement
			sum++
		}
	}

	return sum / float64(nClasses)
}

// Accuracy calculates true positive and true negative rates of a predicted
// mask, thresholded at 0.5.
func Accuracy(input, target *ts.Tensor) (tp, tn float64) {
	iflat := input.MustView([]int64{-1}, false)
	tflat := target.MustView([]int64{-1}, false)
	pVals := iflat.MustGt(ts.FloatScalar(threshold), true).MustTotype(gotch.Double, true).Float64Values()
	tVals := tflat.MustGt(ts.FloatScalar(threshold), true).MustTotype(gotch.Double, true).Float64Values()

	var tpCount, tnCount, posCount, negCount float64
	for i := range pVals {
		if tVals[i] > 0 {
			posCount++
			if pVals[i] > 0 {
				tpCount++
			}
		} else {
			negCount++
			if pVals[i] == 0 {
				tnCount++
			}
		}
	}

	tp = tpCount / (posCount + eps)
	tn = tnCount / (negCount + eps)

	return tp, tn
}
