package unet_test

import (
	"reflect"
	"testing"

	"github.com/sugarme/gotch"
	"github.com/sugarme/gotch/nn"
	ts "github.com/sugarme/gotch/tensor"

	"github.com/yarlsen/eoseg/unet"
)

func TestDefaultUNet(t *testing.T) {
	vs := nn.NewVarStore(gotch.CPU)
	net := unet.DefaultUNet(vs.Root())

	batchSize := int64(2)
	imageSize := int64(256)
	image := ts.MustRand([]int64{batchSize, 3, imageSize, imageSize}, gotch.Float, gotch.CPU)

	logit := net.ForwardT(image, false)

	want := []int64{batchSize, 1, imageSize, imageSize}
	got := logit.MustSize()
	if !reflect.DeepEqual(want, got) {
		t.Errorf("Want logit shape %v. Got %v\n", want, got)
	}

	logit.MustDrop()
	image.MustDrop()
}

func TestUNetClassic(t *testing.T) {
	vs := nn.NewVarStore(gotch.CPU)
	net := unet.NewUNetClassic(vs.Root())

	batchSize := int64(2)
	imageSize := int64(128)
	image := ts.MustRand([]int64{batchSize, 3, imageSize, imageSize}, gotch.Float, gotch.CPU)

	logit := net.ForwardT(image, false)

	want := []int64{batchSize, 1, imageSize, imageSize}
	got := logit.MustSize()
	if !reflect.DeepEqual(want, got) {
		t.Errorf("Want logit shape %v. Got %v\n", want, got)
	}

	logit.MustDrop()
	image.MustDrop()
}
