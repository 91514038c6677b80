package processor

import (
	"math"
	"testing"

	"github.com/oresund-atlas/bathyprep/utils"
)

func testRaster(width, height int, noData float64) *utils.FlexRaster {
	bbox := utils.BoundingBox{MinLon: 0, MinLat: 0, MaxLon: float64(width), MaxLat: float64(height)}
	r := utils.NewFlexRaster(width, height, bbox, noData)
	for i := range r.Data {
		r.Data[i] = float32(i + 1)
	}
	return r
}

func TestResampleIdentity(t *testing.T) {
	src := testRaster(4, 4, -9999)
	for _, kernel := range []Kernel{KernelNearest, KernelBilinear, KernelLanczos} {
		dst, err := Resample(src, 4, 4, kernel)
		if err != nil {
			t.Fatalf("%v: unexpected error: %v", kernel, err)
		}
		for i := range src.Data {
			if math.Abs(float64(dst.Data[i]-src.Data[i])) > 1e-4 {
				t.Errorf("%v: sample %d changed on identity resize: got %v, want %v",
					kernel, i, dst.Data[i], src.Data[i])
			}
		}
		gotBBox := dst.BBox()
		wantBBox := src.BBox()
		if gotBBox != wantBBox {
			t.Errorf("%v: extent changed: got %v, want %v", kernel, gotBBox, wantBBox)
		}
	}
}

func TestResampleNearestUpsample(t *testing.T) {
	src := testRaster(2, 2, -9999)
	dst, err := Resample(src, 4, 4, KernelNearest)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// 2x upsampling with nearest replicates each source cell into a 2x2 block.
	for row := 0; row < 4; row++ {
		for col := 0; col < 4; col++ {
			want := src.Data[(row/2)*2+col/2]
			got := dst.Data[row*4+col]
			if got != want {
				t.Errorf("cell (%d,%d): got %v, want %v", row, col, got, want)
			}
		}
	}
}

func TestResampleNearestPreservesNoDataBlock(t *testing.T) {
	bbox := utils.BoundingBox{MinLon: 0, MinLat: 0, MaxLon: 2, MaxLat: 2}
	src := utils.NewFlexRaster(4, 4, bbox, -9999)
	for i := range src.Data {
		src.Data[i] = 10
	}
	src.Data[0] = -9999

	dst, err := Resample(src, 8, 8, KernelNearest)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for row := 0; row < 8; row++ {
		for col := 0; col < 8; col++ {
			got := dst.Data[row*8+col]
			if row < 2 && col < 2 {
				if got != -9999 {
					t.Errorf("cell (%d,%d): got %v, want nodata block", row, col, got)
				}
			} else if got != 10 {
				t.Errorf("cell (%d,%d): got %v, want 10", row, col, got)
			}
		}
	}
}

func TestResampleExcludesNoData(t *testing.T) {
	src := testRaster(4, 4, -9999)
	src.Data[5] = -9999
	src.Data[6] = -9999

	dst, err := Resample(src, 8, 8, KernelBilinear)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	for i, v := range dst.Data {
		if utils.IsNoData(v, dst.NoData) {
			continue
		}
		// All valid source samples are in 1..16; a value outside that
		// range means the nodata sentinel leaked into a kernel sum.
		if v < 1 || v > 16 {
			t.Errorf("sample %d: value %v polluted by nodata", i, v)
		}
	}
}

func TestResampleAllNoData(t *testing.T) {
	bbox := utils.BoundingBox{MinLon: 0, MinLat: 0, MaxLon: 4, MaxLat: 4}
	src := utils.NewFlexRaster(4, 4, bbox, -9999)
	for i := range src.Data {
		src.Data[i] = -9999
	}

	dst, err := Resample(src, 8, 8, KernelLanczos)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for i, v := range dst.Data {
		if !utils.IsNoData(v, dst.NoData) {
			t.Errorf("sample %d: got %v, want nodata", i, v)
		}
	}
}

func TestResampleInvalidGrid(t *testing.T) {
	src := testRaster(4, 4, -9999)
	for _, dims := range [][2]int{{0, 4}, {4, 0}, {-1, 4}} {
		_, err := Resample(src, dims[0], dims[1], KernelNearest)
		if _, ok := err.(*InvalidGridError); !ok {
			t.Errorf("dims %v: got %v, want InvalidGridError", dims, err)
		}
	}
}

func TestSelectKernel(t *testing.T) {
	kernel, err := SelectKernel("nearest", 10, 10, 100, 100)
	if err != nil || kernel != KernelNearest {
		t.Errorf("explicit name should win: got %v, %v", kernel, err)
	}

	kernel, err = SelectKernel("", 100, 100, 500, 500)
	if err != nil || kernel != KernelLanczos {
		t.Errorf("heavy upsampling should pick lanczos: got %v, %v", kernel, err)
	}

	kernel, err = SelectKernel("", 100, 100, 150, 150)
	if err != nil || kernel != KernelBilinear {
		t.Errorf("mild resize should pick bilinear: got %v, %v", kernel, err)
	}

	if _, err = SelectKernel("cubic", 10, 10, 10, 10); err == nil {
		t.Errorf("unknown kernel name should fail")
	}
}

func TestCheckExtent(t *testing.T) {
	src := testRaster(4, 4, -9999)
	if err := CheckExtent(src, src.BBox(), 1e-6); err != nil {
		t.Errorf("matching extent should pass: %v", err)
	}

	shifted := src.BBox()
	shifted.MinLon += 0.5
	err := CheckExtent(src, shifted, 1e-6)
	if _, ok := err.(*SourceExtentMismatch); !ok {
		t.Errorf("got %v, want SourceExtentMismatch", err)
	}
}
