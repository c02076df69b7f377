// Package task binds segmentation models into a generic training loop:
// a base Task owns optimizer wiring, device placement, the epoch loop and
// checkpointing, while thin adapters define how to compute a loss, how to
// compute evaluation metrics and how to run inference.
package task

import (
	"fmt"
	"log"
	"time"

	"github.com/sugarme/gotch"
	"github.com/sugarme/gotch/nn"
	ts "github.com/sugarme/gotch/tensor"

	"github.com/yarlsen/eoseg/dutil"
)

// Batch maps sample keys (e.g. "image", "mask") to tensors.
type Batch map[string]*ts.Tensor

// LossFn computes a loss tensor from model output and target.
type LossFn func(yHat, y *ts.Tensor) *ts.Tensor

// MetricFn computes an evaluation score from model output and target.
type MetricFn func(yHat, y *ts.Tensor) float64

// Objective is the part of a task its adapters override.
type Objective interface {
	// ComputeLoss computes the training criterion from model output and
	// the target tensors of a batch.
	ComputeLoss(yHat *ts.Tensor, y Batch) *ts.Tensor

	// ComputeMetrics computes every configured metric, keyed by name.
	ComputeMetrics(yHat *ts.Tensor, y Batch) map[string]float64
}

// HParams are the hyperparameters a task hands to its optimizer and
// training loop.
type HParams struct {
	Optimizer string  // "Adam" or "SGD"
	LR        float64 // learning rate
	Epochs    int
}

// DefaultHParams returns the default hyperparameters (Adam, lr 1e-3).
func DefaultHParams() *HParams {
	return &HParams{
		Optimizer: "Adam",
		LR:        0.001,
		Epochs:    1,
	}
}

// Task composes a model with loss and metric functions over a training
// loop. Adapters embed Task and override the Objective methods.
type Task struct {
	model     ts.ModuleT
	vs        *nn.VarStore
	device    gotch.Device
	inputs    []string
	outputs   []string
	lossFn    LossFn
	metrics   map[string]MetricFn
	hparams   *HParams
	objective Objective

	lossHistory []float64
}

// Model returns the bound model.
func (t *Task) Model() ts.ModuleT { return t.model }

// HParams returns the task hyperparameters.
func (t *Task) HParams() *HParams { return t.hparams }

// Inputs returns the batch keys forwarded to the model.
func (t *Task) Inputs() []string { return t.inputs }

// Outputs returns the batch keys used as targets.
func (t *Task) Outputs() []string { return t.outputs }

// Metrics returns the configured metric functions keyed by name.
func (t *Task) Metrics() map[string]MetricFn { return t.metrics }

// LossHistory returns the mean train loss of every epoch run so far.
func (t *Task) LossHistory() []float64 { return t.lossHistory }

// ComputeLoss implements Objective with the configured loss on the first
// output key.
func (t *Task) ComputeLoss(yHat *ts.Tensor, y Batch) *ts.Tensor {
	return t.lossFn(yHat, y[t.outputs[0]])
}

// ComputeMetrics implements Objective with the configured metrics on the
// first output key.
func (t *Task) ComputeMetrics(yHat *ts.Tensor, y Batch) map[string]float64 {
	target := y[t.outputs[0]]
	scores := make(map[string]float64, len(t.metrics))
	for name, m := range t.metrics {
		scores[name] = m(yHat, target)
	}

	return scores
}

// buildOptimizer constructs the optimizer named by the hyperparameters.
func (t *Task) buildOptimizer() (*nn.Optimizer, error) {
	switch t.hparams.Optimizer {
	case "SGD":
		return nn.DefaultSGDConfig().Build(t.vs, t.hparams.LR)
	case "Adam":
		return nn.DefaultAdamConfig().Build(t.vs, t.hparams.LR)
	default:
		return nil, fmt.Errorf("Unspecified/Invalid Optimizer option: '%v'.\n", t.hparams.Optimizer)
	}
}

// forward moves the first input tensor of a batch to the task device and
// forwards the model. Returned logits are Double typed.
func (t *Task) forward(b Batch, train bool) *ts.Tensor {
	input := b[t.inputs[0]].MustTo(t.device, false)
	logit := t.model.ForwardT(input, train)
	input.MustDrop()

	return logit.MustTotype(gotch.Double, true)
}

// targets moves the output tensors of a batch to the task device.
func (t *Task) targets(b Batch) Batch {
	y := make(Batch, len(t.outputs))
	for _, k := range t.outputs {
		y[k] = b[k].MustTo(t.device, false)
	}

	return y
}

func dropBatch(b Batch) {
	for _, x := range b {
		x.MustDrop()
	}
}

// collate turns a data loader sample into one stacked batch. Batch
// samplers yield []Batch; plain samplers yield a single Batch, which is
// wrapped as a batch of one.
func collate(s interface{}) (Batch, error) {
	switch v := s.(type) {
	case []Batch:
		return Collate(v), nil
	case Batch:
		return Collate([]Batch{v}), nil
	default:
		return nil, fmt.Errorf("Invalid sample type: %T. Dataset items must be of type 'task.Batch'.\n", s)
	}
}

// Fit runs the configured number of epochs over trainDL, validating on
// validDL (if non-nil) at the end of every epoch.
func (t *Task) Fit(trainDL, validDL *dutil.DataLoader) error {
	opt, err := t.buildOptimizer()
	if err != nil {
		return err
	}

	for e := 0; e < t.hparams.Epochs; e++ {
		start := time.Now()
		trainDL.Reset()

		var losses []float64
		for trainDL.HasNext() {
			s, err := trainDL.Next()
			if err != nil {
				return err
			}

			batch, err := collate(s)
			if err != nil {
				return err
			}
			logit := t.forward(batch, true)
			y := t.targets(batch)
			dropBatch(batch)

			loss := t.objective.ComputeLoss(logit, y)
			opt.BackwardStep(loss)

			losses = append(losses, loss.Float64Values()[0])
			loss.MustDrop()
			logit.MustDrop()
			dropBatch(y)
		}

		t.lossHistory = append(t.lossHistory, avg(losses))

		if validDL == nil {
			log.Printf("Epoch %02d\t train loss: %6.4f\t Taken time: %0.2fMin\n", e, avg(losses), time.Since(start).Minutes())
			continue
		}

		vloss, scores, err := t.Evaluate(validDL)
		if err != nil {
			return err
		}
		log.Printf("Epoch %02d\t train loss: %6.4f\t valid loss: %6.4f\t %v\t Taken time: %0.2fMin\n",
			e, avg(losses), vloss, formatScores(scores), time.Since(start).Minutes())
	}

	return nil
}

// Evaluate runs the objective's loss and metrics over a data loader with
// gradients disabled, returning per-step averages.
func (t *Task) Evaluate(dl *dutil.DataLoader) (loss float64, scores map[string]float64, err error) {
	dl.Reset()

	var losses []float64
	sums := make(map[string]float64)
	steps := 0
	for dl.HasNext() {
		s, err := dl.Next()
		if err != nil {
			return 0, nil, err
		}

		batch, err := collate(s)
		if err != nil {
			return 0, nil, err
		}
		var logit *ts.Tensor
		ts.NoGrad(func() {
			logit = t.forward(batch, false)
		})
		y := t.targets(batch)
		dropBatch(batch)

		l := t.objective.ComputeLoss(logit, y)
		losses = append(losses, l.Float64Values()[0])
		l.MustDrop()

		prob := logit.MustSigmoid(false)
		for name, score := range t.objective.ComputeMetrics(prob, y) {
			sums[name] += score
		}
		prob.MustDrop()

		logit.MustDrop()
		dropBatch(y)
		steps++
	}

	scores = make(map[string]float64, len(sums))
	for name, sum := range sums {
		scores[name] = sum / float64(steps)
	}

	return avg(losses), scores, nil
}

// Save writes all trainable variables to a checkpoint file.
func (t *Task) Save(path string) error {
	return t.vs.Save(path)
}

// Load restores all trainable variables from a checkpoint file.
func (t *Task) Load(path string) error {
	return t.vs.Load(path)
}

// LoadPartial restores the variables present in a weight file, leaving the
// rest initialized. Used to start from pretrained encoder weights.
func (t *Task) LoadPartial(path string) ([]string, error) {
	return t.vs.LoadPartial(path)
}

// Collate stacks per-sample batches along a new leading dimension. The
// per-sample tensors are dropped.
func Collate(items []Batch) Batch {
	if len(items) == 0 {
		return Batch{}
	}

	out := make(Batch, len(items[0]))
	for k := range items[0] {
		xs := make([]ts.Tensor, 0, len(items))
		for _, it := range items {
			xs = append(xs, *it[k])
		}
		out[k] = ts.MustStack(xs, 0)
		for _, x := range xs {
			x.MustDrop()
		}
	}

	return out
}

func avg(input []float64) float64 {
	if len(input) == 0 {
		return 0
	}

	var sum float64
	for _, v := range input {
		sum += v
	}

	return sum / float64(len(input))
}

func formatScores(scores map[string]float64) string {
	out := ""
	for name, score := range scores {
		out += fmt.Sprintf("%v: %6.4f ", name, score)
	}

	return out
}
