package main

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/go-gota/gota/dataframe"
	ts "github.com/sugarme/gotch/tensor"
	"github.com/sugarme/gotch/vision"
)

// emptyRLE reports whether a CSV cell holds no encoding. gota renders
// missing cells as "NaN".
func emptyRLE(enc string) bool {
	enc = strings.TrimSpace(enc)
	return enc == "" || enc == "NaN"
}

// readRLE reads run-length encodings from the segmentation CSV and returns a
// map of image id to decoded runs. An image appears once per ship; runs are
// merged. Images without ships map to an empty slice.
func readRLE(filename string) (map[string][]int, error) {
	f, err := os.Open(filename)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	df := dataframe.ReadCSV(f, dataframe.HasHeader(true))
	ids := df.Col("ImageId").Records()
	encodings := df.Col("EncodedPixels").Records()

	rleMap := make(map[string][]int)
	for idx, id := range ids {
		if _, ok := rleMap[id]; !ok {
			rleMap[id] = nil
		}

		if emptyRLE(encodings[idx]) {
			continue
		}

		for _, s := range strings.Fields(encodings[idx]) {
			num, err := strconv.Atoi(s)
			if err != nil {
				return nil, fmt.Errorf("Invalid RLE for %v: %v\n", id, err)
			}
			rleMap[id] = append(rleMap[id], num)
		}
	}

	return rleMap, nil
}

// rle2Pixels decodes run-length pairs (1-based start, length; column-major
// order) into a flat pixel slice for a width x height mask.
func rle2Pixels(rle []int, width, height int) ([]uint8, error) {
	if len(rle)%2 != 0 {
		return nil, fmt.Errorf("RLE has odd number of values: %v\n", len(rle))
	}

	pixels := make([]uint8, width*height)
	for i := 0; i < len(rle); i += 2 {
		start := rle[i] - 1
		end := start + rle[i+1]
		if start < 0 || end > len(pixels) {
			return nil, fmt.Errorf("RLE run [%v %v] out of bounds for %vx%v mask\n", rle[i], rle[i+1], width, height)
		}
		for p := start; p < end; p++ {
			pixels[p] = 255
		}
	}

	return pixels, nil
}

// rle2Mask decodes run-length pairs into a mask tensor of shape [1 H W].
func rle2Mask(rle []int, width, height int) (*ts.Tensor, error) {
	pixels, err := rle2Pixels(rle, width, height)
	if err != nil {
		return nil, err
	}

	imgTs, err := ts.NewTensorFromData(pixels, []int64{int64(width), int64(height)})
	if err != nil {
		return nil, err
	}

	// runs are column-major
	return imgTs.MustTranspose(0, 1, true).MustUnsqueeze(0, true), nil
}

// mask2RLE encodes a flat, column-major pixel slice back into run-length
// pairs (1-based start, length).
func mask2RLE(pixels []uint8) []int {
	var rle []int
	run := 0
	for i, p := range pixels {
		if p > 0 {
			if run == 0 {
				rle = append(rle, i+1)
			}
			run++
		} else if run > 0 {
			rle = append(rle, run)
			run = 0
		}
	}
	if run > 0 {
		rle = append(rle, run)
	}

	return rle
}

// rleString formats run-length pairs the way the submission format expects.
func rleString(rle []int) string {
	parts := make([]string, len(rle))
	for i, v := range rle {
		parts[i] = strconv.Itoa(v)
	}

	return strings.Join(parts, " ")
}

// saveMask decodes an RLE into a PNG mask file.
func saveMask(rle []int, width, height int, filePath string) error {
	mask, err := rle2Mask(rle, width, height)
	if err != nil {
		return err
	}

	err = vision.Save(mask, filePath)
	mask.MustDrop()

	return err
}
