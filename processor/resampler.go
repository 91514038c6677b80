package processor

import (
	"math"

	"github.com/oresund-atlas/bathyprep/utils"
)

const (
	lanczosA        = 3.0
	validWeightEps  = 1e-9
	extentTolerance = 1e-6
)

// SelectKernel resolves the kernel for a resize. An explicit config name
// wins; otherwise Lanczos is used when the upsampling factor on either axis
// exceeds 4, bilinear for everything else.
func SelectKernel(name string, srcWidth, srcHeight, dstWidth, dstHeight int) (Kernel, error) {
	if name != "" {
		return ParseKernel(name)
	}
	xFactor := float64(dstWidth) / float64(srcWidth)
	yFactor := float64(dstHeight) / float64(srcHeight)
	if xFactor > 4 || yFactor > 4 {
		return KernelLanczos, nil
	}
	return KernelBilinear, nil
}

// CheckExtent verifies that the raster extent matches bbox within tol on
// every edge.
func CheckExtent(r *utils.FlexRaster, bbox utils.BoundingBox, tol float64) error {
	actual := r.BBox()
	if math.Abs(actual.MinLon-bbox.MinLon) > tol ||
		math.Abs(actual.MinLat-bbox.MinLat) > tol ||
		math.Abs(actual.MaxLon-bbox.MaxLon) > tol ||
		math.Abs(actual.MaxLat-bbox.MaxLat) > tol {
		return &SourceExtentMismatch{Requested: bbox, Actual: actual}
	}
	return nil
}

// Resample resizes src onto a width by height grid spanning the same extent.
// Nodata cells never contribute to kernel sums; the remaining weights are
// renormalised, and a destination cell with no valid contribution at all
// becomes nodata. The source raster is left untouched.
func Resample(src *utils.FlexRaster, width, height int, kernel Kernel) (*utils.FlexRaster, error) {
	if width <= 0 || height <= 0 {
		return nil, &InvalidGridError{Width: width, Height: height}
	}

	dst := utils.NewFlexRaster(width, height, src.BBox(), src.NoData)
	if kernel == KernelNearest {
		resampleNearest(src, dst)
		return dst, nil
	}

	var kf func(float64) float64
	var support float64
	switch kernel {
	case KernelBilinear:
		kf, support = triangleKernel, 1.0
	case KernelLanczos:
		kf, support = lanczosKernel, lanczosA
	default:
		return nil, &InvalidGridError{Width: width, Height: height}
	}

	xContribs := buildContributions(src.Width, width, support, kf)
	yContribs := buildContributions(src.Height, height, support, kf)

	noData := src.NoData
	for row := 0; row < height; row++ {
		yc := yContribs[row]
		for col := 0; col < width; col++ {
			xc := xContribs[col]
			var sum, weightSum float64
			for j, wy := range yc.weights {
				srcRow := (yc.start + j) * src.Width
				for i, wx := range xc.weights {
					v := src.Data[srcRow+xc.start+i]
					if utils.IsNoData(v, noData) {
						continue
					}
					w := wx * wy
					sum += w * float64(v)
					weightSum += w
				}
			}
			if math.Abs(weightSum) < validWeightEps {
				dst.Data[row*width+col] = float32(noData)
			} else {
				dst.Data[row*width+col] = float32(sum / weightSum)
			}
		}
	}
	return dst, nil
}

func resampleNearest(src, dst *utils.FlexRaster) {
	xScale := float64(src.Width) / float64(dst.Width)
	yScale := float64(src.Height) / float64(dst.Height)
	for row := 0; row < dst.Height; row++ {
		srcRow := clampIndex(int((float64(row)+0.5)*yScale), src.Height)
		for col := 0; col < dst.Width; col++ {
			srcCol := clampIndex(int((float64(col)+0.5)*xScale), src.Width)
			dst.Data[row*dst.Width+col] = src.Data[srcRow*src.Width+srcCol]
		}
	}
}

func clampIndex(i, size int) int {
	if i < 0 {
		return 0
	}
	if i >= size {
		return size - 1
	}
	return i
}

type contribution struct {
	start   int
	weights []float64
}

// buildContributions precomputes, per destination index, the source window
// and kernel weights along one axis. When downsampling the kernel is widened
// by the scale factor so every source cell under a destination cell is
// sampled.
func buildContributions(srcSize, dstSize int, support float64, kf func(float64) float64) []contribution {
	scale := float64(srcSize) / float64(dstSize)
	filterScale := scale
	if filterScale < 1 {
		filterScale = 1
	}
	radius := support * filterScale

	contribs := make([]contribution, dstSize)
	for i := 0; i < dstSize; i++ {
		center := (float64(i)+0.5)*scale - 0.5
		left := clampIndex(int(math.Ceil(center-radius)), srcSize)
		right := clampIndex(int(math.Floor(center+radius)), srcSize)

		weights := make([]float64, right-left+1)
		for j := left; j <= right; j++ {
			weights[j-left] = kf((float64(j) - center) / filterScale)
		}
		contribs[i] = contribution{start: left, weights: weights}
	}
	return contribs
}

func triangleKernel(x float64) float64 {
	x = math.Abs(x)
	if x >= 1 {
		return 0
	}
	return 1 - x
}

func lanczosKernel(x float64) float64 {
	x = math.Abs(x)
	if x >= lanczosA {
		return 0
	}
	return sinc(x) * sinc(x/lanczosA)
}

func sinc(x float64) float64 {
	if x == 0 {
		return 1
	}
	px := math.Pi * x
	return math.Sin(px) / px
}
