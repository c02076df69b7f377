package main

import (
	"reflect"
	"testing"
)

func TestRLE2Pixels(t *testing.T) {
	// 3x3 mask, runs are 1-based column-major
	rle := []int{1, 2, 5, 1}
	pixels, err := rle2Pixels(rle, 3, 3)
	if err != nil {
		t.Fatal(err)
	}

	want := []uint8{255, 255, 0, 0, 255, 0, 0, 0, 0}
	if !reflect.DeepEqual(pixels, want) {
		t.Errorf("Want pixels %v. Got %v\n", want, pixels)
	}
}

func TestRLE2PixelsInvalid(t *testing.T) {
	if _, err := rle2Pixels([]int{1, 2, 5}, 3, 3); err == nil {
		t.Error("Want error for odd RLE length. Got nil\n")
	}
	if _, err := rle2Pixels([]int{8, 3}, 3, 3); err == nil {
		t.Error("Want error for out-of-bounds run. Got nil\n")
	}
}

func TestMask2RLERoundTrip(t *testing.T) {
	rle := []int{1, 2, 5, 1, 7, 3}
	pixels, err := rle2Pixels(rle, 3, 3)
	if err != nil {
		t.Fatal(err)
	}

	got := mask2RLE(pixels)
	if !reflect.DeepEqual(got, rle) {
		t.Errorf("Want round-tripped RLE %v. Got %v\n", rle, got)
	}
}

func TestMask2RLEEmpty(t *testing.T) {
	if got := mask2RLE(make([]uint8, 9)); got != nil {
		t.Errorf("Want nil RLE for empty mask. Got %v\n", got)
	}
}

func TestRLEString(t *testing.T) {
	if got := rleString([]int{1, 2, 5, 1}); got != "1 2 5 1" {
		t.Errorf("Want '1 2 5 1'. Got %q\n", got)
	}
	if got := rleString(nil); got != "" {
		t.Errorf("Want empty string for no runs. Got %q\n", got)
	}
}

func TestEmptyRLE(t *testing.T) {
	for _, s := range []string{"", "  ", "NaN", " NaN "} {
		if !emptyRLE(s) {
			t.Errorf("Want %q treated as empty encoding.\n", s)
		}
	}
	if emptyRLE("1 2 5 1") {
		t.Error("Want '1 2 5 1' treated as an encoding.\n")
	}
}

func TestSaturation(t *testing.T) {
	if s := Saturation(128, 128, 128); s != 0 {
		t.Errorf("Want zero saturation for gray. Got %v\n", s)
	}
	if s := Saturation(255, 0, 0); s <= 0.9 {
		t.Errorf("Want high saturation for pure red. Got %v\n", s)
	}
}
