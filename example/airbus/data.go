package main

import (
	"fmt"
	"io/ioutil"

	ts "github.com/sugarme/gotch/tensor"
	"github.com/sugarme/gotch/vision"

	"github.com/yarlsen/eoseg/task"
)

// ShipDataset implements dutil.Dataset over tiled image/mask PNG pairs.
type ShipDataset struct {
	fnames []string
}

func NewShipDataset(fnames []string) *ShipDataset {
	return &ShipDataset{fnames: fnames}
}

func (ds *ShipDataset) Len() int {
	return len(ds.fnames)
}

// Item implements dutil.Dataset. Samples are task batches holding an
// "image" tensor [3 H W] and a "mask" tensor [1 H W], both scaled to [0 1].
func (ds *ShipDataset) Item(idx int) (interface{}, error) {
	fname := ds.fnames[idx]
	imgPath := fmt.Sprintf("%v/tile/image/%v", DataPath, fname)
	maskPath := fmt.Sprintf("%v/tile/mask/%v", DataPath, fname)

	imgTs, err := vision.Load(imgPath)
	if err != nil {
		return nil, err
	}
	img := imgTs.MustDiv1(ts.FloatScalar(255.0), true)

	maskTs, err := vision.Load(maskPath)
	if err != nil {
		return nil, err
	}
	maskGray, err := rgb2GrayScale(maskTs)
	if err != nil {
		return nil, err
	}
	maskTs.MustDrop()
	mask := maskGray.MustDiv1(ts.FloatScalar(255.0), true).MustUnsqueeze(0, true)

	return task.Batch{
		"image": img,
		"mask":  mask,
	}, nil
}

// tileNames lists the tiled PNG pairs available for training.
func tileNames() ([]string, error) {
	tileImgPath := fmt.Sprintf("%v/tile/image", DataPath)
	files, err := ioutil.ReadDir(tileImgPath)
	if err != nil {
		return nil, err
	}

	var fnames []string
	for _, f := range files {
		fnames = append(fnames, f.Name())
	}
	if len(fnames) == 0 {
		return nil, fmt.Errorf("No tiles found in %v. Run with -task image first.\n", tileImgPath)
	}

	return fnames, nil
}
