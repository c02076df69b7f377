package main

import (
	"fmt"
	"log"
	"time"

	"github.com/sugarme/gotch"
	"github.com/sugarme/gotch/nn"
	ts "github.com/sugarme/gotch/tensor"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"

	"github.com/yarlsen/eoseg/dutil"
	"github.com/yarlsen/eoseg/metric"
	"github.com/yarlsen/eoseg/task"
	"github.com/yarlsen/eoseg/unet"
)

func newNet(p *nn.Path) ts.ModuleT {
	switch NetStr {
	case "classic":
		return unet.NewUNetClassic(p)
	case "resnet34":
		return unet.DefaultUNet(p)
	default:
		err := fmt.Errorf("Invalid net option. Expected 'resnet34' or 'classic'. Got: %v\n", NetStr)
		panic(err)
	}
}

func loadWeights(seg *task.ImageSegmentation, fpath, from string) {
	switch from {
	case "checkpoint":
		if err := seg.Load(fpath); err != nil {
			log.Fatal(err)
		}
	case "scratch":
		// pretrained ResNet34 backbone only
		if _, err := seg.LoadPartial(fpath); err != nil {
			log.Fatal(err)
		}
	default:
		err := fmt.Errorf("Invalid load option. Expected 'checkpoint' or 'scratch'. Got: %v\n", from)
		panic(err)
	}
}

func runTrain() {
	fnames, err := tileNames()
	if err != nil {
		log.Fatal(err)
	}

	kf, err := dutil.NewKFold(len(fnames), 5, true)
	if err != nil {
		log.Fatal(err)
	}
	fold := kf.Split()[0]

	var trainFiles, validFiles []string
	for _, i := range fold.Train {
		trainFiles = append(trainFiles, fnames[i])
	}
	for _, i := range fold.Test {
		validFiles = append(validFiles, fnames[i])
	}

	trainDS := NewShipDataset(trainFiles)
	trainSampler, err := dutil.NewBatchSampler(trainDS.Len(), BatchSize, true, true)
	if err != nil {
		log.Fatal(err)
	}
	trainDL, err := dutil.NewDataLoader(trainDS, trainSampler)
	if err != nil {
		log.Fatal(err)
	}

	validDS := NewShipDataset(validFiles)
	validSampler, err := dutil.NewBatchSampler(validDS.Len(), BatchSize, false) // no shuffle
	if err != nil {
		log.Fatal(err)
	}
	validDL, err := dutil.NewDataLoader(validDS, validSampler)
	if err != nil {
		log.Fatal(err)
	}

	varStore := nn.NewVarStore(Device)
	net := newNet(varStore.Root())

	seg := task.NewImageSegmentation(varStore, net,
		task.WithDevice(Device),
		task.WithLoss(metric.ComboLoss),
		task.WithMetrics(map[string]task.MetricFn{
			"iou":  metric.IoU,
			"dice": metric.DiceCoeffBatch,
		}),
		task.WithHParams(&task.HParams{
			Optimizer: OptStr,
			LR:        LR,
			Epochs:    Epochs,
		}),
	)

	loadWeights(seg, ModelPath, ModelFrom)

	if err := seg.Fit(trainDL, validDL); err != nil {
		log.Fatal(err)
	}

	weightFile := fmt.Sprintf("%v/airbus-%v.gt", CheckpointPath, time.Now().Unix())
	if err := seg.Save(weightFile); err != nil {
		log.Fatal(err)
	}
	fmt.Printf("Saved checkpoint: %v\n", weightFile)

	lossFile := fmt.Sprintf("%v/loss-history.png", CheckpointPath)
	if err := plotLossHistory(seg.LossHistory(), lossFile); err != nil {
		log.Fatal(err)
	}
	fmt.Printf("Saved loss history: %v\n", lossFile)
}

// plotLossHistory plots the mean train loss per epoch to a PNG file.
func plotLossHistory(losses []float64, outFile string) error {
	pts := make(plotter.XYs, len(losses))
	for i, l := range losses {
		pts[i].X = float64(i)
		pts[i].Y = l
	}

	p, err := plot.New()
	if err != nil {
		return err
	}

	line, err := plotter.NewLine(pts)
	if err != nil {
		return err
	}
	p.Title.Text = "Train loss"
	p.X.Label.Text = "epoch"
	p.Y.Label.Text = "loss"
	p.Add(line)

	return p.Save(4*vg.Inch, 4*vg.Inch, outFile)
}

// runCheckModel forwards random batches through the model to verify shapes
// and memory behaviour.
func runCheckModel() {
	varStore := nn.NewVarStore(Device)
	net := newNet(varStore.Root())

	batchSize := int64(4)
	imageSize := int64(TileSize)
	image := ts.MustRand([]int64{batchSize, 3, imageSize, imageSize}, gotch.Float, gotch.CPU)

	for i := 0; i < 10; i++ {
		ts.NoGrad(func() {
			logit := net.ForwardT(image, false)
			fmt.Printf("%02d - logit shape: %v\n", i, logit.MustSize())
			logit.MustDrop()
		})
	}
	image.MustDrop()
}
