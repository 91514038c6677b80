package processor

import (
	"archive/zip"
	"bytes"
	"fmt"
	"io"
	"io/ioutil"
	"log"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"golang.org/x/net/context"
)

const archiveTimeout = 300 * time.Second

// EnsureShapefile makes the shapefile named by stem available under dataDir,
// downloading and unpacking zipURL on a cache miss. The stem is the shapefile
// base name without extension, e.g. "GSHHS_f_L1"; members of the archive
// whose base name starts with stem followed by a dot are extracted flat into
// dataDir. Returns the path of the .shp file.
func EnsureShapefile(ctx context.Context, zipURL, dataDir, stem, label string, verbose bool) (string, error) {
	shpPath := filepath.Join(dataDir, stem+".shp")
	if _, err := os.Stat(shpPath); err == nil {
		if verbose {
			log.Printf("Using cached %s at %s", label, shpPath)
		}
		return shpPath, nil
	}

	if err := os.MkdirAll(dataDir, 0755); err != nil {
		return "", err
	}
	if verbose {
		log.Printf("Downloading %s from %s", label, zipURL)
	}

	req, err := http.NewRequest("GET", zipURL, nil)
	if err != nil {
		return "", err
	}
	req = req.WithContext(ctx)

	client := &http.Client{Timeout: archiveTimeout}
	resp, err := client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	archive, err := ioutil.ReadAll(resp.Body)
	if err != nil {
		return "", err
	}
	if resp.StatusCode != 200 {
		return "", &UpstreamError{
			URL:        zipURL,
			HTTPStatus: resp.StatusCode,
			Body:       bodyExcerpt(archive),
		}
	}

	if err := extractShapefile(archive, dataDir, stem); err != nil {
		return "", fmt.Errorf("%s archive: %v", label, err)
	}
	if _, err := os.Stat(shpPath); err != nil {
		return "", fmt.Errorf("%s archive from %s contains no %s.shp", label, zipURL, stem)
	}
	return shpPath, nil
}

func extractShapefile(archive []byte, dataDir, stem string) error {
	zr, err := zip.NewReader(bytes.NewReader(archive), int64(len(archive)))
	if err != nil {
		return err
	}

	prefix := stem + "."
	for _, member := range zr.File {
		base := filepath.Base(member.Name)
		if !strings.HasPrefix(base, prefix) {
			continue
		}
		if err := extractMember(member, filepath.Join(dataDir, base)); err != nil {
			return err
		}
	}
	return nil
}

func extractMember(member *zip.File, dstPath string) error {
	rc, err := member.Open()
	if err != nil {
		return err
	}
	defer rc.Close()

	dst, err := os.Create(dstPath)
	if err != nil {
		return err
	}
	defer dst.Close()

	_, err = io.Copy(dst, rc)
	return err
}
