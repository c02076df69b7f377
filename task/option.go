package task

import (
	"github.com/sugarme/gotch"
)

// Option overrides one default of a task's assembly.
type Option func(*Task)

// WithLoss replaces the default loss function.
func WithLoss(fn LossFn) Option {
	return func(t *Task) { t.lossFn = fn }
}

// WithMetrics replaces the default metric set.
func WithMetrics(metrics map[string]MetricFn) Option {
	return func(t *Task) { t.metrics = metrics }
}

// WithHParams replaces the default hyperparameters.
func WithHParams(hp *HParams) Option {
	return func(t *Task) { t.hparams = hp }
}

// WithInputs replaces the default input batch keys.
func WithInputs(keys ...string) Option {
	return func(t *Task) { t.inputs = keys }
}

// WithOutputs replaces the default target batch keys.
func WithOutputs(keys ...string) Option {
	return func(t *Task) { t.outputs = keys }
}

// WithDevice places the task on a device. Defaults to CPU.
func WithDevice(device gotch.Device) Option {
	return func(t *Task) { t.device = device }
}
