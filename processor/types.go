package processor

import (
	"fmt"

	"github.com/oresund-atlas/bathyprep/utils"
)

// GeoCoverageRequest describes one GetCoverage call against the WCS endpoint.
type GeoCoverageRequest struct {
	BBox   utils.BoundingBox
	CRS    string
	Width  int
	Height int
	Format string
}

// KeepMode selects which side of a polygon set survives masking.
type KeepMode int

const (
	KeepInside KeepMode = iota
	KeepOutside
)

func (m KeepMode) String() string {
	if m == KeepInside {
		return "inside"
	}
	return "outside"
}

// Kernel identifies a resampling method.
type Kernel int

const (
	KernelNearest Kernel = iota
	KernelBilinear
	KernelLanczos
)

func (k Kernel) String() string {
	switch k {
	case KernelNearest:
		return "nearest"
	case KernelBilinear:
		return "bilinear"
	case KernelLanczos:
		return "lanczos"
	}
	return fmt.Sprintf("kernel(%d)", int(k))
}

// ParseKernel maps a config kernel name to its Kernel value. The empty string
// is not a valid name here, automatic selection happens in SelectKernel.
func ParseKernel(name string) (Kernel, error) {
	switch name {
	case "nearest":
		return KernelNearest, nil
	case "bilinear":
		return KernelBilinear, nil
	case "lanczos":
		return KernelLanczos, nil
	}
	return KernelNearest, fmt.Errorf("unknown resampling kernel %q", name)
}

// UpstreamError reports a remote response that was not the payload asked
// for: a non-200 status, or a service exception document from the WCS.
type UpstreamError struct {
	URL        string
	HTTPStatus int
	Body       string
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("upstream error: status %d from %s: %s", e.HTTPStatus, e.URL, e.Body)
}

// InvalidGridError reports a requested grid with non-positive dimensions.
type InvalidGridError struct {
	Width  int
	Height int
}

func (e *InvalidGridError) Error() string {
	return fmt.Sprintf("invalid grid dimensions %dx%d", e.Width, e.Height)
}

// SourceExtentMismatch reports a decoded coverage whose georeferenced extent
// disagrees with the requested bounding box beyond tolerance.
type SourceExtentMismatch struct {
	Requested utils.BoundingBox
	Actual    utils.BoundingBox
}

func (e *SourceExtentMismatch) Error() string {
	return fmt.Sprintf("coverage extent %s does not match requested extent %s",
		e.Actual.String(), e.Requested.String())
}

// EmptyPolygonSetError reports a keep-inside mask with no polygons, which
// would blank the whole raster.
type EmptyPolygonSetError struct{}

func (e *EmptyPolygonSetError) Error() string {
	return "empty polygon set for keep-inside mask"
}
