package main

import (
	"os"
	"path/filepath"
	"testing"
)

func TestPlotLossHistory(t *testing.T) {
	out := filepath.Join(t.TempDir(), "loss-history.png")
	if err := plotLossHistory([]float64{0.9, 0.5, 0.3}, out); err != nil {
		t.Fatal(err)
	}

	info, err := os.Stat(out)
	if err != nil {
		t.Fatal(err)
	}
	if info.Size() == 0 {
		t.Error("Want non-empty plot file.\n")
	}
}
