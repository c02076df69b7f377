package encoder

import (
	"fmt"

	"github.com/sugarme/gotch/nn"
	ts "github.com/sugarme/gotch/tensor"

	"github.com/yarlsen/eoseg/base"
)

// ResNetEncoder is a ResNet34 backbone exposed as a feature pyramid.
// Variable naming follows the torchvision layout so that pretrained
// `.ot` weights load with VarStore.LoadPartial.
type ResNetEncoder struct {
	layer0 ts.ModuleT
	layer1 ts.ModuleT
	layer2 ts.ModuleT
	layer3 ts.ModuleT
	layer4 ts.ModuleT
}

// ForwardAll implements Encoder interface for ResNetEncoder.
func (e *ResNetEncoder) ForwardAll(x *ts.Tensor, train bool) []*ts.Tensor {
	xn := rgbNormalize(x)
	x0 := e.layer0.ForwardT(xn, train)
	x1 := e.layer1.ForwardT(x0, train)
	x2 := e.layer2.ForwardT(x1, train)
	x3 := e.layer3.ForwardT(x2, train)
	x4 := e.layer4.ForwardT(x3, train)

	return []*ts.Tensor{xn, x0, x1, x2, x3, x4}
}

// Channels implements Encoder interface for ResNetEncoder.
func (e *ResNetEncoder) Channels() []int64 {
	return []int64{3, 64, 64, 128, 256, 512}
}

// NewResNet34Encoder creates a ResNet34 encoder.
func NewResNet34Encoder(p *nn.Path) *ResNetEncoder {
	return &ResNetEncoder{
		layer0: layerZero(p), // NOTE. `conv1` and `bn1` are at root of pretrained model
		layer1: basicLayer(p.Sub("layer1"), 64, 64, 1, 3),
		layer2: basicLayer(p.Sub("layer2"), 64, 128, 2, 4),
		layer3: basicLayer(p.Sub("layer3"), 128, 256, 2, 6),
		layer4: basicLayer(p.Sub("layer4"), 256, 512, 2, 3),
	}
}

func rgbNormalize(x *ts.Tensor) *ts.Tensor {
	meanVals := []float32{0.485, 0.456, 0.406} // image RGB mean
	sdVals := []float32{0.229, 0.224, 0.225}   // image RGB standard error

	mean := ts.MustOfSlice(meanVals).MustView([]int64{1, 3, 1, 1}, true)
	sd := ts.MustOfSlice(sdVals).MustView([]int64{1, 3, 1, 1}, true)

	// x = (x - mean)/sd
	n := x.MustSub(mean, false).MustDiv(sd, true)
	mean.MustDrop()
	sd.MustDrop()

	return n
}

func layerZero(p *nn.Path) ts.ModuleT {
	layer0 := nn.SeqT()
	layer0.Add(base.Conv2dNoBias(p.Sub("conv1"), 3, 64, 7, 3, 2))
	layer0.Add(nn.BatchNorm2D(p.Sub("bn1"), 64, nn.DefaultBatchNormConfig()))
	layer0.AddFn(nn.NewFunc(func(xs *ts.Tensor) *ts.Tensor {
		return xs.MustRelu(false)
	}))
	layer0.AddFn(nn.NewFunc(func(xs *ts.Tensor) *ts.Tensor {
		return xs.MustMaxPool2d([]int64{3, 3}, []int64{2, 2}, []int64{1, 1}, []int64{1, 1}, false, false)
	}))

	return layer0
}

func basicLayer(p *nn.Path, cIn, cOut, stride, cnt int64) ts.ModuleT {
	layer := nn.SeqT()
	layer.Add(NewBasicBlock(p.Sub("0"), cIn, cOut, stride))
	for blockIndex := 1; blockIndex < int(cnt); blockIndex++ {
		layer.Add(NewBasicBlock(p.Sub(fmt.Sprint(blockIndex)), cOut, cOut, 1))
	}

	return layer
}

func downSample(p *nn.Path, cIn, cOut, stride int64) ts.ModuleT {
	if stride != 1 || cIn != cOut {
		seq := nn.SeqT()
		seq.Add(base.Conv2dNoBias(p.Sub("0"), cIn, cOut, 1, 0, stride))
		seq.Add(nn.BatchNorm2D(p.Sub("1"), cOut, nn.DefaultBatchNormConfig()))

		return seq
	}

	return nn.SeqT()
}

// BasicBlock is a 2-conv residual block.
type BasicBlock struct {
	Conv1      *nn.Conv2D
	Bn1        *nn.BatchNorm
	Conv2      *nn.Conv2D
	Bn2        *nn.BatchNorm
	Downsample ts.ModuleT
}

// NewBasicBlock creates a BasicBlock.
func NewBasicBlock(p *nn.Path, cIn, cOut, stride int64) *BasicBlock {
	return &BasicBlock{
		Conv1:      base.Conv2dNoBias(p.Sub("conv1"), cIn, cOut, 3, 1, stride),
		Bn1:        nn.BatchNorm2D(p.Sub("bn1"), cOut, nn.DefaultBatchNormConfig()),
		Conv2:      base.Conv2dNoBias(p.Sub("conv2"), cOut, cOut, 3, 1, 1),
		Bn2:        nn.BatchNorm2D(p.Sub("bn2"), cOut, nn.DefaultBatchNormConfig()),
		Downsample: downSample(p.Sub("downsample"), cIn, cOut, stride),
	}
}

// ForwardT implements ts.ModuleT for BasicBlock struct.
func (bb *BasicBlock) ForwardT(x *ts.Tensor, train bool) *ts.Tensor {
	c1 := bb.Conv1.ForwardT(x, train)
	bn1 := bb.Bn1.ForwardT(c1, train)
	c1.MustDrop()
	relu := bn1.MustRelu(true)
	c2 := bb.Conv2.ForwardT(relu, train)
	relu.MustDrop()
	bn2 := bb.Bn2.ForwardT(c2, train)
	c2.MustDrop()
	dsl := bb.Downsample.ForwardT(x, train)
	sum := dsl.MustAdd(bn2, true)
	bn2.MustDrop()
	res := sum.MustRelu(true)

	return res
}
