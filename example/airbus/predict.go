package main

import (
	"fmt"
	"io/ioutil"
	"log"
	"os"

	"github.com/go-gota/gota/dataframe"
	"github.com/go-gota/gota/series"
	"github.com/sugarme/gotch/nn"
	ts "github.com/sugarme/gotch/tensor"
	"github.com/sugarme/gotch/vision"

	"github.com/yarlsen/eoseg/task"
)

// runPredict runs inference over the test scene directory and writes a
// submission CSV of run-length encoded masks.
func runPredict() {
	testPath := fmt.Sprintf("%v/test", DataPath)
	files, err := ioutil.ReadDir(testPath)
	if err != nil {
		log.Fatal(err)
	}

	varStore := nn.NewVarStore(Device)
	seg := task.NewImageSegmentation(varStore, newNet(varStore.Root()), task.WithDevice(Device))
	loadWeights(seg, ModelPath, "checkpoint")

	records := [][]string{{"ImageId", "EncodedPixels"}}
	for _, f := range files {
		imgPath := fmt.Sprintf("%v/%v", testPath, f.Name())
		imgTs, err := vision.Load(imgPath)
		if err != nil {
			log.Fatal(err)
		}
		img := imgTs.MustDiv1(ts.FloatScalar(255.0), true).MustUnsqueeze(0, true)

		prob := seg.Predict(task.Batch{"image": img})
		img.MustDrop()

		rle := probToRLE(prob)
		prob.MustDrop()

		records = append(records, []string{f.Name(), rleString(rle)})
	}

	df := dataframe.LoadRecords(
		records,
		dataframe.DetectTypes(false),
		dataframe.DefaultType(series.String),
	)

	outFile := fmt.Sprintf("%v/submission.csv", DataPath)
	f, err := os.Create(outFile)
	if err != nil {
		log.Fatal(err)
	}
	defer f.Close()

	if err := df.WriteCSV(f); err != nil {
		log.Fatal(err)
	}
	fmt.Printf("Wrote %v predictions to %v\n", len(records)-1, outFile)
}

// probToRLE thresholds a probability map [1 1 H W] and encodes it in
// column-major run-length pairs.
func probToRLE(prob *ts.Tensor) []int {
	// [1 1 H W] -> [H W] -> [W H] so that row-major reads column-major
	hw := prob.MustReshape([]int64{-1, prob.MustSize()[3]}, false)
	wh := hw.MustTranspose(0, 1, true)
	vals := wh.Float64Values()
	wh.MustDrop()

	pixels := make([]uint8, len(vals))
	for i, v := range vals {
		if v > Threshold {
			pixels[i] = 255
		}
	}

	return mask2RLE(pixels)
}
