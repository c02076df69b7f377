package main

import (
	"fmt"
	"log"
	"os"

	"github.com/go-gota/gota/dataframe"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
)

// runEDA plots the ships-per-image distribution of the training CSV.
func runEDA() {
	fname := fmt.Sprintf("%v/train_ship_segmentations.csv", DataPath)
	f, err := os.Open(fname)
	if err != nil {
		log.Fatal(err)
	}
	defer f.Close()

	df := dataframe.ReadCSV(f, dataframe.HasHeader(true))
	ids := df.Col("ImageId").Records()
	encodings := df.Col("EncodedPixels").Records()

	counts := make(map[string]int)
	for i, id := range ids {
		if _, ok := counts[id]; !ok {
			counts[id] = 0
		}
		if !emptyRLE(encodings[i]) {
			counts[id]++
		}
	}

	v := make(plotter.Values, 0, len(counts))
	for _, n := range counts {
		v = append(v, float64(n))
	}

	p, err := plot.New()
	if err != nil {
		log.Fatal(err)
	}

	h, err := plotter.NewHist(v, 16)
	if err != nil {
		log.Fatal(err)
	}
	p.Title.Text = "Ships per image"
	p.Add(h)

	outFile := fmt.Sprintf("%v/ship-histo.png", DataPath)
	if err := p.Save(4*vg.Inch, 4*vg.Inch, outFile); err != nil {
		log.Fatal(err)
	}

	fmt.Printf("Images: %v\n", len(counts))
	fmt.Printf("Histogram: %v\n", outFile)
}
