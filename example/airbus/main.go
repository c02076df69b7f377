package main

import (
	"flag"
	"fmt"
	"log"
	"path/filepath"

	"github.com/sugarme/gotch"
)

// flag variables
var (
	DataPath       string
	ModelPath      string
	ModelFrom      string
	CheckpointPath string
	OptStr         string
	NetStr         string
	Cuda           bool
	task           string
	Device         gotch.Device
)

// hyperparameters
var (
	LR        float64 // learning rate
	Epochs    int     // number of training epochs
	BatchSize int     // batch size
	TileSize  int     // image tile size
	Reduction int     // scene resolution reduction times
	Threshold float64 // mask probability threshold for submission
)

func init() {
	flag.StringVar(&DataPath, "data", "./input", "specify input data directory")
	flag.StringVar(&ModelPath, "model", "./model/resnet34.ot", "specify full path to model weight '.ot' file.")
	flag.StringVar(&ModelFrom, "from", "scratch", "specify weight loading mode: 'scratch' or 'checkpoint'")
	flag.StringVar(&CheckpointPath, "checkpoint", "./checkpoint", "specify checkpoint directory")
	flag.BoolVar(&Cuda, "cuda", false, "specify whether using CUDA or not.")
	flag.StringVar(&task, "task", "train", "specify task to run")
	flag.Float64Var(&LR, "lr", 0.001, "specify learning rate")
	flag.IntVar(&Epochs, "epochs", 5, "specify number of epochs")
	flag.IntVar(&BatchSize, "batch", 16, "specify batch size")
	flag.IntVar(&TileSize, "tile", 256, "specify tile image size")
	flag.IntVar(&Reduction, "reduction", 1, "specify scene resolution reduction times")
	flag.Float64Var(&Threshold, "threshold", 0.5, "specify mask probability threshold")
	flag.StringVar(&OptStr, "opt", "Adam", "specify optimizer type")
	flag.StringVar(&NetStr, "net", "resnet34", "specify model type: 'resnet34' or 'classic'")
}

func main() {
	flag.Parse()

	DataPath = absPath(DataPath)
	ModelPath = absPath(ModelPath)

	Device = gotch.CPU
	if Cuda {
		Device = gotch.NewCuda().CudaIfAvailable()
	}

	switch task {
	case "train":
		runTrain()
	case "predict":
		runPredict()
	case "image":
		processImages()
	case "eda":
		runEDA()
	case "model":
		runCheckModel()
	default:
		err := fmt.Errorf("Unknown 'task' name. Please specify valid 'task' flag to run.\n")
		panic(err)
	}
}

// helper to get absolute file path
func absPath(p string) string {
	fullpath, err := filepath.Abs(p)
	if err != nil {
		log.Fatal(err)
	}
	return fullpath
}
