package task

import (
	"github.com/sugarme/gotch"
	"github.com/sugarme/gotch/nn"
	ts "github.com/sugarme/gotch/tensor"

	"github.com/yarlsen/eoseg/metric"
)

// ImageSegmentation is a task adapter for binary mask prediction. It keeps
// the base Task's training loop and fills in segmentation defaults: BCE
// with logits as loss, Adam as optimizer and IoU as metric, with "image"
// batches as inputs and "mask" batches as targets.
type ImageSegmentation struct {
	*Task
}

// NewImageSegmentation assembles a segmentation task around a model. Any
// default can be overridden with options.
func NewImageSegmentation(vs *nn.VarStore, model ts.ModuleT, opts ...Option) *ImageSegmentation {
	t := &Task{
		model:   model,
		vs:      vs,
		device:  gotch.CPU,
		inputs:  []string{"image"},
		outputs: []string{"mask"},
		lossFn:  metric.BCEWithLogitsLoss,
		metrics: map[string]MetricFn{
			"iou": metric.IoU,
		},
		hparams: DefaultHParams(),
	}
	for _, opt := range opts {
		opt(t)
	}

	seg := &ImageSegmentation{t}
	t.objective = seg

	return seg
}

// ComputeLoss forwards model output and the batch's mask to the loss
// function.
func (t *ImageSegmentation) ComputeLoss(yHat *ts.Tensor, y Batch) *ts.Tensor {
	return t.lossFn(yHat, y["mask"])
}

// ComputeMetrics applies every configured metric to model output and the
// batch's mask.
func (t *ImageSegmentation) ComputeMetrics(yHat *ts.Tensor, y Batch) map[string]float64 {
	scores := make(map[string]float64, len(t.metrics))
	for name, m := range t.metrics {
		scores[name] = m(yHat, y["mask"])
	}

	return scores
}

// Predict runs inference on a batch: the input tensors are moved to the
// task device, forwarded with gradients disabled, and the logits squashed
// to probabilities.
func (t *ImageSegmentation) Predict(batch Batch) *ts.Tensor {
	var prob *ts.Tensor
	ts.NoGrad(func() {
		logit := t.forward(batch, false)
		prob = logit.MustSigmoid(true)
	})

	return prob
}
