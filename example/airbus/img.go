package main

import (
	"fmt"
	"image"
	"image/jpeg"
	"image/png"
	"log"
	"math"
	"os"
	"path/filepath"
	"time"

	"github.com/chai2010/tiff"
	"github.com/disintegration/imaging"
	"github.com/nfnt/resize"
	ts "github.com/sugarme/gotch/tensor"
	"golang.org/x/image/draw"
)

// readImage reads an image from file.
func readImage(filename string) (image.Image, error) {
	ext := filepath.Ext(filename)
	f, err := os.Open(filename)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	switch ext {
	case ".png", ".PNG":
		return png.Decode(f)
	case ".jpg", ".jpeg", ".JPG", ".JPEG":
		return jpeg.Decode(f)
	case ".tiff", ".tif", ".TIFF", ".TIF":
		return tiff.Decode(f)
	default:
		err = fmt.Errorf("Unsupported image format: %v\n", ext)
		return nil, err
	}
}

// writePNG encodes an image to a PNG file.
func writePNG(img image.Image, filePath string) error {
	f, err := os.Create(filePath)
	if err != nil {
		return err
	}
	defer f.Close()

	return png.Encode(f, img)
}

// Saturation calculates intensity of a hue.
//
// Ref.
// - https://en.wikipedia.org/wiki/Colorfulness
func Saturation(r, g, b float64) float64 {
	r = r / 255
	g = g / 255
	b = b / 255

	max := math.Max(math.Max(r, g), b)
	min := math.Min(math.Min(r, g), b)

	if max == 0 {
		return 0
	}

	lum := max - min

	if lum < 0.5 {
		return (max - min) / (max + min)
	}
	return (max - min) / (2 - max - min)
}

// isBlank checks whether an image tile is open water or cloud haze based on
// a saturation threshold. Blank tiles are skipped during tiling.
func isBlank(img image.Image) bool {
	var satThreshold float64 = 0.4
	pixelThreshold := 200

	maxY := img.Bounds().Size().Y
	maxX := img.Bounds().Size().X
	rec := image.Rectangle{image.ZP, image.Point{maxX, maxY}}
	imgSrc := image.NewNRGBA(rec)
	draw.Copy(imgSrc, image.ZP, img, img.Bounds(), draw.Src, nil)

	satSum := 0 // pixels with saturation > threshold
	for y := 0; y < maxY; y++ {
		for x := 0; x < maxX; x++ {
			c := imgSrc.NRGBAAt(x, y)
			s := Saturation(float64(c.R), float64(c.G), float64(c.B))
			if s > satThreshold {
				satSum++
			}
		}
	}

	return satSum <= pixelThreshold
}

// tileScene crops a scene and its mask into aligned tiles and saves any tile
// that is not blank. Returns the number of tiles written.
func tileScene(img, mask image.Image, sampleId string, tileW, tileH int) (int, error) {
	tileImgPath := fmt.Sprintf("%v/tile/image", DataPath)
	tileMaskPath := fmt.Sprintf("%v/tile/mask", DataPath)
	for _, p := range []string{tileImgPath, tileMaskPath} {
		if _, err := os.Stat(p); os.IsNotExist(err) {
			if err := os.MkdirAll(p, 0755); err != nil {
				return 0, err
			}
		}
	}

	w := img.Bounds().Max.X
	h := img.Bounds().Max.Y
	cols := int(math.Ceil(float64(w) / float64(tileW)))
	rows := int(math.Ceil(float64(h) / float64(tileH)))

	count := 0
	for n := 0; n < rows; n++ {
		for m := 0; m < cols; m++ {
			rec := image.Rect(m*tileW, n*tileH, (m+1)*tileW, (n+1)*tileH).Intersect(img.Bounds())
			if rec.Empty() {
				continue
			}

			subImg := imaging.Crop(img, rec)
			if isBlank(subImg) {
				continue
			}
			subMask := imaging.Crop(mask, rec)

			outImage := fmt.Sprintf("%v/%v_%03d.png", tileImgPath, sampleId, count)
			if err := writePNG(subImg, outImage); err != nil {
				return count, err
			}
			outMask := fmt.Sprintf("%v/%v_%03d.png", tileMaskPath, sampleId, count)
			if err := writePNG(subMask, outMask); err != nil {
				return count, err
			}

			count++
		}
	}

	return count, nil
}

// reduceScene downsamples a scene for prototyping.
func reduceScene(img image.Image, reduction int) image.Image {
	if reduction <= 1 {
		return img
	}

	reducedW := img.Bounds().Max.X / reduction
	reducedH := img.Bounds().Max.Y / reduction

	return resize.Resize(uint(reducedW), uint(reducedH), img, resize.Lanczos3)
}

// rgb2GrayScale converts a RGB (3xHxW) tensor to grayscale (HxW).
// ref. https://github.com/pytorch/vision/blob/master/torchvision/transforms/functional_tensor.py#L196-L234
// (0.2989 * r + 0.587 * g + 0.114 * b)
func rgb2GrayScale(x *ts.Tensor) (*ts.Tensor, error) {
	size := x.MustSize()
	if len(size) < 3 {
		return nil, fmt.Errorf("Expect at least 3D tensor. Got %v dimensions.\n", len(size))
	}

	chanSize := size[len(size)-3]
	if chanSize != 3 {
		return nil, fmt.Errorf("Expect image of 3 channels for RGB. Got %v.\n", chanSize)
	}

	channels := x.MustUnbind(-3, false)
	r := channels[0].MustMul1(ts.FloatScalar(0.2989), true)
	g := channels[1].MustMul1(ts.FloatScalar(0.587), true)
	b := channels[2].MustMul1(ts.FloatScalar(0.114), true)

	rg := r.MustAdd(g, true)
	g.MustDrop()
	gray := rg.MustAdd(b, true)
	b.MustDrop()

	return gray, nil
}

// processImages decodes every RLE mask from the segmentation CSV, then tiles
// scenes and masks into training-size PNG pairs.
func processImages() {
	start := time.Now()

	segFile := fmt.Sprintf("%v/train_ship_segmentations.csv", DataPath)
	rleMap, err := readRLE(segFile)
	if err != nil {
		log.Fatal(err)
	}

	maskPath := fmt.Sprintf("%v/mask", DataPath)
	if _, err := os.Stat(maskPath); os.IsNotExist(err) {
		if err := os.MkdirAll(maskPath, 0755); err != nil {
			log.Fatal(err)
		}
	}

	for sampleId, rle := range rleMap {
		imgFile := fmt.Sprintf("%v/train/%v", DataPath, sampleId)
		img, err := readImage(imgFile)
		if err != nil {
			log.Fatal(err)
		}

		w := img.Bounds().Max.X
		h := img.Bounds().Max.Y
		maskFile := fmt.Sprintf("%v/%v.png", maskPath, sampleId)
		if err := saveMask(rle, w, h, maskFile); err != nil {
			log.Fatalf("Processing sampleId %v error: %v\n", sampleId, err)
		}

		mask, err := readImage(maskFile)
		if err != nil {
			log.Fatal(err)
		}

		img = reduceScene(img, Reduction)
		mask = reduceScene(mask, Reduction)

		n, err := tileScene(img, mask, sampleId, TileSize, TileSize)
		if err != nil {
			log.Fatalf("Processing sampleId %v error: %v\n", sampleId, err)
		}
		fmt.Printf("Processed %v: %v tiles\n", sampleId, n)
	}

	fmt.Println("Image processing: completed.")
	fmt.Printf("Duration: %.2f (min)\n", time.Since(start).Minutes())
}
