package task_test

import (
	"math"
	"reflect"
	"testing"

	"github.com/sugarme/gotch"
	"github.com/sugarme/gotch/nn"
	ts "github.com/sugarme/gotch/tensor"

	"github.com/yarlsen/eoseg/base"
	"github.com/yarlsen/eoseg/dutil"
	"github.com/yarlsen/eoseg/metric"
	"github.com/yarlsen/eoseg/task"
)

// zeroDataset yields n identical zero image/mask pairs.
type zeroDataset struct {
	n int
}

func (d *zeroDataset) Len() int { return d.n }

func (d *zeroDataset) Item(idx int) (interface{}, error) {
	return task.Batch{
		"image": ts.MustZeros([]int64{1, 2, 2}, gotch.Double, gotch.CPU),
		"mask":  ts.MustZeros([]int64{1, 2, 2}, gotch.Double, gotch.CPU),
	}, nil
}

func TestNewImageSegmentationDefaults(t *testing.T) {
	vs := nn.NewVarStore(gotch.CPU)
	seg := task.NewImageSegmentation(vs, base.NewIdentity())

	hp := seg.HParams()
	if hp.Optimizer != "Adam" {
		t.Errorf("Want default optimizer Adam. Got %v\n", hp.Optimizer)
	}
	if hp.LR != 0.001 {
		t.Errorf("Want default lr 0.001. Got %v\n", hp.LR)
	}
	if want := []string{"image"}; !reflect.DeepEqual(seg.Inputs(), want) {
		t.Errorf("Want default inputs %v. Got %v\n", want, seg.Inputs())
	}
	if want := []string{"mask"}; !reflect.DeepEqual(seg.Outputs(), want) {
		t.Errorf("Want default outputs %v. Got %v\n", want, seg.Outputs())
	}
	if _, ok := seg.Metrics()["iou"]; !ok || len(seg.Metrics()) != 1 {
		t.Errorf("Want default metrics {iou}. Got %v\n", seg.Metrics())
	}
}

func TestNewImageSegmentationOptions(t *testing.T) {
	vs := nn.NewVarStore(gotch.CPU)
	seg := task.NewImageSegmentation(vs, base.NewIdentity(),
		task.WithLoss(metric.ComboLoss),
		task.WithMetrics(map[string]task.MetricFn{"dice": metric.DiceCoeff}),
		task.WithHParams(&task.HParams{Optimizer: "SGD", LR: 0.01, Epochs: 3}),
	)

	if seg.HParams().Optimizer != "SGD" {
		t.Errorf("Want optimizer SGD. Got %v\n", seg.HParams().Optimizer)
	}
	if _, ok := seg.Metrics()["dice"]; !ok {
		t.Errorf("Want metrics {dice}. Got %v\n", seg.Metrics())
	}
}

func TestFitInvalidOptimizer(t *testing.T) {
	vs := nn.NewVarStore(gotch.CPU)
	seg := task.NewImageSegmentation(vs, base.NewIdentity(),
		task.WithHParams(&task.HParams{Optimizer: "AdaGrad", LR: 0.001, Epochs: 1}),
	)

	if err := seg.Fit(nil, nil); err == nil {
		t.Error("Want error for unknown optimizer. Got nil\n")
	}
}

func TestComputeLoss(t *testing.T) {
	vs := nn.NewVarStore(gotch.CPU)
	seg := task.NewImageSegmentation(vs, base.NewIdentity())

	logit := ts.MustOfSlice([]float64{0.0, 0.0})
	mask := ts.MustOfSlice([]float64{1.0, 0.0})

	loss := seg.ComputeLoss(logit, task.Batch{"mask": mask})
	lossVal := loss.Float64Values()[0]
	loss.MustDrop()

	if math.Abs(lossVal-math.Log(2)) > 1e-3 {
		t.Errorf("Want BCE loss %0.4f. Got %0.4f\n", math.Log(2), lossVal)
	}
}

func TestComputeMetrics(t *testing.T) {
	vs := nn.NewVarStore(gotch.CPU)
	seg := task.NewImageSegmentation(vs, base.NewIdentity())

	pred := ts.MustOfSlice([]int64{1, 0, 0, 1, 0, 0, 1, 0, 0})
	mask := ts.MustOfSlice([]int64{1, 0, 0, 1, 1, 0, 1, 0, 0})

	scores := seg.ComputeMetrics(pred, task.Batch{"mask": mask})
	if math.Abs(scores["iou"]-0.75) > 1e-3 {
		t.Errorf("Want iou 0.7500. Got %0.4f\n", scores["iou"])
	}
}

func TestPredict(t *testing.T) {
	vs := nn.NewVarStore(gotch.CPU)
	seg := task.NewImageSegmentation(vs, base.NewIdentity())

	image := ts.MustZeros([]int64{1, 4}, gotch.Float, gotch.CPU)
	prob := seg.Predict(task.Batch{"image": image})

	// sigmoid(0) = 0.5 elementwise
	for _, v := range prob.Float64Values() {
		if math.Abs(v-0.5) > 1e-6 {
			t.Errorf("Want probability 0.5. Got %v\n", v)
			break
		}
	}

	prob.MustDrop()
	image.MustDrop()
}

func TestEvaluatePlainSampler(t *testing.T) {
	// nil sampler defaults to a SequentialSampler, which yields single
	// samples rather than slices.
	dl, err := dutil.NewDataLoader(&zeroDataset{n: 3}, nil)
	if err != nil {
		t.Fatal(err)
	}

	vs := nn.NewVarStore(gotch.CPU)
	seg := task.NewImageSegmentation(vs, base.NewIdentity())

	loss, scores, err := seg.Evaluate(dl)
	if err != nil {
		t.Fatal(err)
	}

	// logit 0, target 0: loss = log(2)
	if math.Abs(loss-math.Log(2)) > 1e-3 {
		t.Errorf("Want loss %0.4f. Got %0.4f\n", math.Log(2), loss)
	}
	if _, ok := scores["iou"]; !ok {
		t.Errorf("Want iou score. Got %v\n", scores)
	}
}

func TestEvaluateBatchSampler(t *testing.T) {
	s, err := dutil.NewBatchSampler(4, 2, false)
	if err != nil {
		t.Fatal(err)
	}
	dl, err := dutil.NewDataLoader(&zeroDataset{n: 4}, s)
	if err != nil {
		t.Fatal(err)
	}

	vs := nn.NewVarStore(gotch.CPU)
	seg := task.NewImageSegmentation(vs, base.NewIdentity())

	loss, _, err := seg.Evaluate(dl)
	if err != nil {
		t.Fatal(err)
	}
	if math.Abs(loss-math.Log(2)) > 1e-3 {
		t.Errorf("Want loss %0.4f. Got %0.4f\n", math.Log(2), loss)
	}
}

func TestCollate(t *testing.T) {
	a := task.Batch{"image": ts.MustOfSlice([]float64{1, 2})}
	b := task.Batch{"image": ts.MustOfSlice([]float64{3, 4})}

	batch := task.Collate([]task.Batch{a, b})
	want := []int64{2, 2}
	if got := batch["image"].MustSize(); !reflect.DeepEqual(want, got) {
		t.Errorf("Want stacked shape %v. Got %v\n", want, got)
	}

	vals := batch["image"].Float64Values()
	if !reflect.DeepEqual(vals, []float64{1, 2, 3, 4}) {
		t.Errorf("Want values [1 2 3 4]. Got %v\n", vals)
	}

	batch["image"].MustDrop()
}
