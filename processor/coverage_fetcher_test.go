package processor

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"golang.org/x/net/context"

	"github.com/oresund-atlas/bathyprep/utils"
)

func testServiceConfig(wcsURL string) *utils.ServiceConfig {
	return &utils.ServiceConfig{
		WCSURL:   wcsURL,
		Coverage: "emodnet:mean",
		CRS:      "EPSG:4326",
	}
}

func testCoverageRequest() GeoCoverageRequest {
	return GeoCoverageRequest{
		BBox:   utils.BoundingBox{MinLon: 0, MinLat: 0, MaxLon: 4, MaxLat: 4},
		CRS:    "EPSG:4326",
		Width:  4,
		Height: 4,
		Format: "GeoTIFF",
	}
}

func TestCoverageFetcher(t *testing.T) {
	src := testRaster(4, 4, -9999)
	encoded, err := utils.EncodeGeoTIFF(src, 4326)
	if err != nil {
		t.Fatalf("encoding test coverage: %v", err)
	}

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		query := r.URL.Query()
		if query.Get("request") != "GetCoverage" || query.Get("coverage") != "emodnet:mean" {
			t.Errorf("unexpected query: %v", query)
		}
		w.Header().Set("Content-Type", "image/tiff")
		w.Write(encoded)
	}))
	defer server.Close()

	fetcher := NewCoverageFetcher(testServiceConfig(server.URL), false)
	raster, _, err := fetcher.Fetch(context.Background(), testCoverageRequest())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if raster.Width != 4 || raster.Height != 4 {
		t.Errorf("wrong raster size: %dx%d", raster.Width, raster.Height)
	}
	if raster.Data[0] != src.Data[0] {
		t.Errorf("wrong first sample: got %v, want %v", raster.Data[0], src.Data[0])
	}
}

func TestCoverageFetcherServiceException(t *testing.T) {
	exception := `<?xml version="1.0"?><ServiceExceptionReport><ServiceException>boom</ServiceException></ServiceExceptionReport>`
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/vnd.ogc.se_xml")
		w.Write([]byte(exception))
	}))
	defer server.Close()

	fetcher := NewCoverageFetcher(testServiceConfig(server.URL), false)
	_, _, err := fetcher.Fetch(context.Background(), testCoverageRequest())
	ue, ok := err.(*UpstreamError)
	if !ok {
		t.Fatalf("got %v, want UpstreamError", err)
	}
	if ue.HTTPStatus != 200 {
		t.Errorf("wrong status in error: %d", ue.HTTPStatus)
	}
	if ue.Body == "" {
		t.Errorf("error should carry a body excerpt")
	}
}

func TestCoverageFetcherHTTPError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "internal error", http.StatusInternalServerError)
	}))
	defer server.Close()

	fetcher := NewCoverageFetcher(testServiceConfig(server.URL), false)
	_, _, err := fetcher.Fetch(context.Background(), testCoverageRequest())
	ue, ok := err.(*UpstreamError)
	if !ok {
		t.Fatalf("got %v, want UpstreamError", err)
	}
	if ue.HTTPStatus != http.StatusInternalServerError {
		t.Errorf("wrong status in error: %d", ue.HTTPStatus)
	}
}

func TestCoverageFetcherInvalidGrid(t *testing.T) {
	fetcher := NewCoverageFetcher(testServiceConfig("http://localhost:1"), false)
	req := testCoverageRequest()
	req.Width = 0
	_, _, err := fetcher.Fetch(context.Background(), req)
	if _, ok := err.(*InvalidGridError); !ok {
		t.Errorf("got %v, want InvalidGridError", err)
	}
}

func TestNativeSize(t *testing.T) {
	bbox := utils.BoundingBox{MinLon: 11.95, MinLat: 54.9, MaxLon: 13.35, MaxLat: 56.5}
	width, height := NativeSize(bbox, 1.0/480.0)
	if width != 672 || height != 768 {
		t.Errorf("got %dx%d, want 672x768", width, height)
	}
}
