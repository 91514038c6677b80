package processor

import (
	"archive/zip"
	"bytes"
	"io/ioutil"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"golang.org/x/net/context"
)

func buildTestArchive(t *testing.T, stem string) []byte {
	t.Helper()
	buf := new(bytes.Buffer)
	zw := zip.NewWriter(buf)
	members := map[string]string{
		"gshhg-shp/" + stem + ".shp": "shp bytes",
		"gshhg-shp/" + stem + ".shx": "shx bytes",
		"gshhg-shp/" + stem + ".dbf": "dbf bytes",
		"gshhg-shp/README.TXT":       "readme",
	}
	for name, content := range members {
		w, err := zw.Create(name)
		if err != nil {
			t.Fatalf("creating zip member: %v", err)
		}
		w.Write([]byte(content))
	}
	if err := zw.Close(); err != nil {
		t.Fatalf("closing zip: %v", err)
	}
	return buf.Bytes()
}

func TestEnsureShapefile(t *testing.T) {
	const stem = "GSHHS_f_L1"
	archive := buildTestArchive(t, stem)

	downloads := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		downloads++
		w.Write(archive)
	}))
	defer server.Close()

	dataDir := t.TempDir()
	shpPath, err := EnsureShapefile(context.Background(), server.URL, dataDir, stem, "shoreline", false)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if shpPath != filepath.Join(dataDir, stem+".shp") {
		t.Errorf("wrong shapefile path: %s", shpPath)
	}

	content, err := ioutil.ReadFile(shpPath)
	if err != nil || string(content) != "shp bytes" {
		t.Errorf("shapefile not extracted correctly: %q, %v", content, err)
	}
	for _, ext := range []string{".shx", ".dbf"} {
		if _, err := os.Stat(filepath.Join(dataDir, stem+ext)); err != nil {
			t.Errorf("sidecar %s not extracted: %v", ext, err)
		}
	}
	if _, err := os.Stat(filepath.Join(dataDir, "README.TXT")); !os.IsNotExist(err) {
		t.Errorf("unrelated archive members should not be extracted")
	}

	// Second call must hit the cache, not the server.
	if _, err := EnsureShapefile(context.Background(), server.URL, dataDir, stem, "shoreline", false); err != nil {
		t.Fatalf("cached call failed: %v", err)
	}
	if downloads != 1 {
		t.Errorf("archive downloaded %d times, want 1", downloads)
	}
}

func TestEnsureShapefileMissingMember(t *testing.T) {
	archive := buildTestArchive(t, "SOMETHING_ELSE")
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write(archive)
	}))
	defer server.Close()

	_, err := EnsureShapefile(context.Background(), server.URL, t.TempDir(), "GSHHS_f_L1", "shoreline", false)
	if err == nil {
		t.Errorf("archive without the expected shapefile should fail")
	}
}

func TestEnsureShapefileHTTPError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "not found", http.StatusNotFound)
	}))
	defer server.Close()

	_, err := EnsureShapefile(context.Background(), server.URL, t.TempDir(), "GSHHS_f_L1", "shoreline", false)
	ue, ok := err.(*UpstreamError)
	if !ok {
		t.Fatalf("got %v, want UpstreamError", err)
	}
	if ue.HTTPStatus != http.StatusNotFound {
		t.Errorf("wrong status in error: %d", ue.HTTPStatus)
	}
	if ue.Body == "" {
		t.Errorf("error should carry a body excerpt")
	}
}
