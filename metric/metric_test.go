package metric_test

import (
	"math"
	"testing"

	ts "github.com/sugarme/gotch/tensor"

	"github.com/yarlsen/eoseg/metric"
)

func near(got, want float64) bool {
	return math.Abs(got-want) < 1e-3
}

func TestIoU(t *testing.T) {
	pslice := []int64{1, 0, 0, 1, 0, 0, 1, 0, 0}
	tslice := []int64{1, 0, 0, 1, 1, 0, 1, 0, 0}

	pred := ts.MustOfSlice(pslice).MustView([]int64{1, 3, 3}, true)
	target := ts.MustOfSlice(tslice).MustView([]int64{1, 3, 3}, true)

	iou := metric.IoU(pred, target)
	if !near(iou, 0.75) { // overlap 3, union 4
		t.Errorf("Want IoU 0.7500. Got %0.4f\n", iou)
	}
}

func TestDiceCoeff(t *testing.T) {
	pslice := []int64{1, 0, 0, 1, 0, 0, 1, 0, 0}
	tslice := []int64{1, 0, 0, 1, 1, 0, 1, 0, 0}

	pred := ts.MustOfSlice(pslice).MustView([]int64{1, 3, 3}, true)
	target := ts.MustOfSlice(tslice).MustView([]int64{1, 3, 3}, true)

	dice := metric.DiceCoeff(pred, target)
	if !near(dice, 0.8571) { // 2*3/(3+4)
		t.Errorf("Want dice 0.8571. Got %0.4f\n", dice)
	}
}

func TestDiceCoeffBatch(t *testing.T) {
	pslice := []int64{1, 0, 0, 1, 0, 0, 1, 0, 0, 1, 0, 0, 1, 1, 0, 1, 0, 0}
	tslice := []int64{1, 0, 0, 1, 1, 0, 1, 0, 0, 1, 0, 0, 1, 1, 0, 1, 0, 0}

	pred := ts.MustOfSlice(pslice).MustView([]int64{2, 3, 3}, true)
	target := ts.MustOfSlice(tslice).MustView([]int64{2, 3, 3}, true)

	// sample 0: 2*3/7; sample 1: perfect overlap
	dice := metric.DiceCoeffBatch(pred, target)
	if !near(dice, (0.8571+1.0)/2) {
		t.Errorf("Want dice 0.9286. Got %0.4f\n", dice)
	}
}

func TestJaccardIndex(t *testing.T) {
	pslice := []int64{1, 0, 0, 1, 0, 0, 1, 0, 0}
	tslice := []int64{1, 0, 0, 1, 1, 0, 1, 0, 0}

	pred := ts.MustOfSlice(pslice).MustView([]int64{1, 3, 3}, true)
	target := ts.MustOfSlice(tslice).MustView([]int64{1, 3, 3}, true)

	// class 1: 3/4; class 0: 5/6
	iou := metric.JaccardIndex(pred, target, 2)
	if !near(iou, (0.75+5.0/6.0)/2) {
		t.Errorf("Want Jaccard 0.7917. Got %0.4f\n", iou)
	}
}

func TestAccuracy(t *testing.T) {
	pslice := []int64{1, 0, 0, 1, 0, 0, 1, 0, 0}
	tslice := []int64{1, 0, 0, 1, 1, 0, 1, 0, 0}

	pred := ts.MustOfSlice(pslice).MustView([]int64{1, 3, 3}, true)
	target := ts.MustOfSlice(tslice).MustView([]int64{1, 3, 3}, true)

	tp, tn := metric.Accuracy(pred, target)
	if !near(tp, 0.75) {
		t.Errorf("Want tp 0.7500. Got %0.4f\n", tp)
	}
	if !near(tn, 1.0) {
		t.Errorf("Want tn 1.0000. Got %0.4f\n", tn)
	}
}

func TestBCEWithLogitsLoss(t *testing.T) {
	logit := ts.MustOfSlice([]float64{0.0, 0.0})
	target := ts.MustOfSlice([]float64{1.0, 0.0})

	loss := metric.BCEWithLogitsLoss(logit, target)
	lossVal := loss.Float64Values()[0]
	loss.MustDrop()

	// -log(sigmoid(0)) = log(2) for both elements
	if !near(lossVal, math.Log(2)) {
		t.Errorf("Want loss %0.4f. Got %0.4f\n", math.Log(2), lossVal)
	}
}

func TestSoftDiceLoss(t *testing.T) {
	prob := ts.MustOfSlice([]float64{1, 0, 0, 1, 1, 0, 1, 0, 0}).MustView([]int64{1, 3, 3}, true)
	mask := ts.MustOfSlice([]float64{1, 0, 0, 1, 1, 0, 1, 0, 0}).MustView([]int64{1, 3, 3}, true)

	loss := metric.SoftDiceLoss(prob, mask)
	lossVal := loss.Float64Values()[0]
	loss.MustDrop()

	// perfect overlap: 1 - (2*4+1)/(2*4+1) = 0
	if !near(lossVal, 0.0) {
		t.Errorf("Want loss 0.0000. Got %0.4f\n", lossVal)
	}
}

func TestSoftDiceLossPartialOverlap(t *testing.T) {
	// one false positive: tp=3, fp=1, fn=0
	prob := ts.MustOfSlice([]float64{1, 0, 0, 1, 0, 0, 1, 1, 0}).MustView([]int64{1, 3, 3}, true)
	mask := ts.MustOfSlice([]float64{1, 0, 0, 1, 0, 0, 1, 0, 0}).MustView([]int64{1, 3, 3}, true)

	loss := metric.SoftDiceLoss(prob, mask)
	lossVal := loss.Float64Values()[0]
	loss.MustDrop()

	// 1 - (2*3+1)/(2*3+1+1+0) = 1 - 7/8
	if !near(lossVal, 0.125) {
		t.Errorf("Want loss 0.1250. Got %0.4f\n", lossVal)
	}

	// one false negative: tp=3, fp=0, fn=1
	prob = ts.MustOfSlice([]float64{1, 0, 0, 1, 0, 0, 1, 0, 0}).MustView([]int64{1, 3, 3}, true)
	mask = ts.MustOfSlice([]float64{1, 0, 0, 1, 1, 0, 1, 0, 0}).MustView([]int64{1, 3, 3}, true)

	loss = metric.SoftDiceLoss(prob, mask)
	lossVal = loss.Float64Values()[0]
	loss.MustDrop()

	if !near(lossVal, 0.125) {
		t.Errorf("Want loss 0.1250. Got %0.4f\n", lossVal)
	}
}

func TestComboLoss(t *testing.T) {
	logit := ts.MustOfSlice([]float64{0, 0, 0, 0, 0, 0, 0, 0, 0}).MustView([]int64{1, 3, 3}, true)
	mask := ts.MustOfSlice([]float64{1, 0, 0, 1, 1, 0, 1, 0, 0}).MustView([]int64{1, 3, 3}, true)

	loss := metric.ComboLoss(logit, mask)
	lossVal := loss.Float64Values()[0]
	loss.MustDrop()

	// bce = log(2) for every element; sigmoid(0) = 0.5 everywhere, so
	// tp=2, fp=2.5, fn=2 and dice = (2*2+1)/(2*2+1+2.5+2)
	want := 0.8*math.Log(2) + 0.2*(1.0-5.0/9.5)
	if !near(lossVal, want) {
		t.Errorf("Want loss %0.4f. Got %0.4f\n", want, lossVal)
	}
}
