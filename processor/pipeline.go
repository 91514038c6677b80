package processor

import (
	"fmt"
	"io/ioutil"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"golang.org/x/net/context"

	"github.com/oresund-atlas/bathyprep/metrics"
	"github.com/oresund-atlas/bathyprep/utils"
)

// Summary holds the per-job figures reported after a successful run.
type Summary struct {
	JobName       string
	MinDepth      float64
	MaxDepth      float64
	MeanDepth     float64
	SeaCells      int
	LandFeatures  int
	PlaceFeatures int
	Outputs       utils.OutputPaths
}

// Pipeline runs one bathymetry prep job end to end: fetch the coverage,
// resample, apply the value expression, mask out land, and emit the raster,
// vector and tabular artifacts.
type Pipeline struct {
	Service   *utils.ServiceConfig
	Job       *utils.Job
	Collector *metrics.MetricsCollector
	Verbose   bool
}

func NewPipeline(svc *utils.ServiceConfig, job *utils.Job, collector *metrics.MetricsCollector, verbose bool) *Pipeline {
	return &Pipeline{Service: svc, Job: job, Collector: collector, Verbose: verbose}
}

func (p *Pipeline) Run(ctx context.Context) (*Summary, error) {
	job := p.Job
	info := p.Collector.Info
	info.JobName = job.Name
	info.StartTime = time.Now().Format(time.RFC3339)
	runStart := time.Now()
	defer func() { info.RunDuration = time.Since(runStart) }()

	// Coverage fetch at the source resolution.
	nativeWidth, nativeHeight := NativeSize(job.Extent, job.NativeRes)
	fetcher := NewCoverageFetcher(p.Service, p.Verbose)
	req := GeoCoverageRequest{
		BBox:   job.Extent,
		CRS:    p.Service.CRS,
		Width:  nativeWidth,
		Height: nativeHeight,
		Format: "GeoTIFF",
	}

	fetchStart := time.Now()
	raster, reqURL, err := fetcher.Fetch(ctx, req)
	info.Coverage.Duration = time.Since(fetchStart)
	info.Coverage.URL.RawURL = reqURL
	if err != nil {
		if ue, ok := err.(*UpstreamError); ok {
			info.Coverage.HTTPStatus = ue.HTTPStatus
		}
		return nil, err
	}
	info.Coverage.HTTPStatus = 200
	info.Coverage.Width = raster.Width
	info.Coverage.Height = raster.Height
	info.Coverage.BytesRead = int64(len(raster.Data)) * 4

	normaliseNoData(raster, job.NoData)
	if err := CheckExtent(raster, job.Extent, extentTolerance); err != nil {
		return nil, err
	}

	// Resample onto the output grid.
	kernel, err := SelectKernel(job.ResamplingKernel, raster.Width, raster.Height, job.OutputWidth, job.OutputHeight)
	if err != nil {
		return nil, err
	}
	resampleStart := time.Now()
	resampled, err := Resample(raster, job.OutputWidth, job.OutputHeight, kernel)
	if err != nil {
		return nil, err
	}
	info.Resample.Duration = time.Since(resampleStart)
	info.Resample.Kernel = kernel.String()
	info.Resample.Width = resampled.Width
	info.Resample.Height = resampled.Height

	expr, err := ParseValueExpression(job.ValueExpression)
	if err != nil {
		return nil, err
	}
	if err := ApplyExpression(resampled, expr); err != nil {
		return nil, err
	}

	epsg := epsgCode(p.Service.CRS)
	if err := writeRaster(resampled, epsg, job.Outputs.Raster); err != nil {
		return nil, err
	}

	// Shoreline polygons clipped to the job extent.
	landStart := time.Now()
	shorelinePath, err := EnsureShapefile(ctx, p.Service.ShorelineURL, p.Service.DataDir,
		p.Service.ShorelineStem, "shoreline", p.Verbose)
	if err != nil {
		return nil, err
	}
	landPolys, err := LoadLandPolygons(shorelinePath, job.Extent)
	if err != nil {
		return nil, err
	}
	landFC, err := LandFeatureCollection(landPolys)
	if err != nil {
		return nil, err
	}
	if err := writeFeatureCollection(landFC, job.Outputs.Land); err != nil {
		return nil, err
	}
	info.Land.Duration = time.Since(landStart)
	info.Land.NumFeatures = len(landFC.Features)

	// Mask out land, keeping sea cells only.
	maskStart := time.Now()
	sea, err := MaskPolygons(resampled, landPolys, KeepOutside, job.NoData)
	if err != nil {
		return nil, err
	}
	info.Mask.Duration = time.Since(maskStart)
	info.Mask.NumPolygons = len(landPolys)
	info.Mask.CroppedWidth = sea.Width
	info.Mask.CroppedHeight = sea.Height

	if err := writeRaster(sea, epsg, job.Outputs.SeaRaster); err != nil {
		return nil, err
	}

	points := ToPoints(sea)
	info.Mask.NumMaskedCells = sea.Width*sea.Height - len(points)
	if err := writePointTable(points, job.Outputs.Table); err != nil {
		return nil, err
	}

	// Populated places inside the extent.
	placesStart := time.Now()
	placesPath, err := EnsureShapefile(ctx, p.Service.PlacesURL, p.Service.DataDir,
		p.Service.PlacesStem, "populated places", p.Verbose)
	if err != nil {
		return nil, err
	}
	placesFC, err := LoadPopulatedPlaces(placesPath, job.Extent)
	if err != nil {
		return nil, err
	}
	if err := writeFeatureCollection(placesFC, job.Outputs.Places); err != nil {
		return nil, err
	}
	info.Places.Duration = time.Since(placesStart)
	info.Places.NumFeatures = len(placesFC.Features)

	summary := &Summary{
		JobName:       job.Name,
		SeaCells:      len(points),
		LandFeatures:  len(landFC.Features),
		PlaceFeatures: len(placesFC.Features),
		Outputs:       job.Outputs,
	}
	fillDepthStats(summary, points)

	info.Success = true
	return summary, nil
}

// normaliseNoData rewrites the source nodata marker to the job's value so
// every downstream stage compares against a single sentinel.
func normaliseNoData(r *utils.FlexRaster, noData float64) {
	if r.NoData == noData {
		return
	}
	for i, v := range r.Data {
		if utils.IsNoData(v, r.NoData) {
			r.Data[i] = float32(noData)
		}
	}
	r.NoData = noData
}

func fillDepthStats(s *Summary, points []utils.PointRecord) {
	if len(points) == 0 {
		return
	}
	min, max := math.Inf(1), math.Inf(-1)
	var sum float64
	for _, p := range points {
		v := float64(p.Value)
		if v < min {
			min = v
		}
		if v > max {
			max = v
		}
		sum += v
	}
	s.MinDepth = min
	s.MaxDepth = max
	s.MeanDepth = math.Round(sum/float64(len(points))*10) / 10
}

func epsgCode(crs string) int {
	parts := strings.Split(crs, ":")
	if len(parts) == 2 {
		if code, err := strconv.Atoi(parts[1]); err == nil {
			return code
		}
	}
	return 4326
}

func writeRaster(r *utils.FlexRaster, epsg int, path string) error {
	data, err := utils.EncodeGeoTIFF(r, epsg)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}
	return ioutil.WriteFile(path, data, 0644)
}

func writeFeatureCollection(fc *utils.FeatureCollection, path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}
	return fc.WriteFile(path)
}

func writePointTable(points []utils.PointRecord, path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	if err := utils.EncodeCSV(f, points); err != nil {
		return fmt.Errorf("writing point table %s: %v", path, err)
	}
	return nil
}
