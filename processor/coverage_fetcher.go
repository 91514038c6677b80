package processor

import (
	"io/ioutil"
	"log"
	"math"
	"net/http"
	"regexp"
	"strings"
	"time"

	"golang.org/x/net/context"

	"github.com/oresund-atlas/bathyprep/utils"
)

// CoverageFetcher downloads bathymetry coverages from a WCS 1.0.0 endpoint
// and decodes them into FlexRasters.
type CoverageFetcher struct {
	Endpoint string
	Coverage string
	Timeout  time.Duration
	Verbose  bool

	client *http.Client
	reMap  map[string]*regexp.Regexp
}

func NewCoverageFetcher(svc *utils.ServiceConfig, verbose bool) *CoverageFetcher {
	timeout := 180 * time.Second
	return &CoverageFetcher{
		Endpoint: svc.WCSURL,
		Coverage: svc.Coverage,
		Timeout:  timeout,
		Verbose:  verbose,
		client:   &http.Client{Timeout: timeout},
		reMap:    utils.CompileWCSRegexMap(),
	}
}

// Fetch issues a GetCoverage request for req and decodes the GeoTIFF body.
// Non-200 responses and XML bodies, which is how OGC services report
// exceptions, surface as UpstreamError with a body excerpt attached.
func (f *CoverageFetcher) Fetch(ctx context.Context, req GeoCoverageRequest) (*utils.FlexRaster, string, error) {
	if req.Width <= 0 || req.Height <= 0 {
		return nil, "", &InvalidGridError{Width: req.Width, Height: req.Height}
	}

	params := utils.WCSParams{
		Service:  "WCS",
		Version:  "1.0.0",
		Request:  "GetCoverage",
		Coverage: f.Coverage,
		CRS:      req.CRS,
		BBox:     req.BBox,
		Width:    req.Width,
		Height:   req.Height,
		Format:   req.Format,
	}
	reqURL, err := utils.BuildGetCoverageURL(f.Endpoint, params, f.reMap)
	if err != nil {
		return nil, "", err
	}
	if f.Verbose {
		log.Printf("GetCoverage %s", reqURL)
	}

	httpReq, err := http.NewRequest("GET", reqURL, nil)
	if err != nil {
		return nil, reqURL, err
	}
	httpReq = httpReq.WithContext(ctx)

	resp, err := f.client.Do(httpReq)
	if err != nil {
		return nil, reqURL, err
	}
	defer resp.Body.Close()

	body, err := ioutil.ReadAll(resp.Body)
	if err != nil {
		return nil, reqURL, err
	}

	contentType := resp.Header.Get("Content-Type")
	if resp.StatusCode != 200 || strings.Contains(strings.ToLower(contentType), "xml") {
		return nil, reqURL, &UpstreamError{
			URL:        reqURL,
			HTTPStatus: resp.StatusCode,
			Body:       bodyExcerpt(body),
		}
	}

	raster, err := utils.DecodeGeoTIFF(body)
	if err != nil {
		return nil, reqURL, err
	}
	return raster, reqURL, nil
}

func bodyExcerpt(body []byte) string {
	const maxExcerpt = 500
	if len(body) > maxExcerpt {
		body = body[:maxExcerpt]
	}
	return string(body)
}

// NativeSize computes the grid dimensions covering bbox at the source
// resolution, rounding each axis to the nearest whole cell.
func NativeSize(bbox utils.BoundingBox, res float64) (int, int) {
	width := int(math.Round(bbox.Width() / res))
	height := int(math.Round(bbox.Height() / res))
	return width, height
}
