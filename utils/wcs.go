package utils

import (
	"fmt"
	"net/url"
	"regexp"
	"strconv"
)

// WCSParams holds the parameters of a WCS 1.0.0 GetCoverage request.
type WCSParams struct {
	Service  string
	Version  string
	Request  string
	Coverage string
	CRS      string
	BBox     BoundingBox
	Width    int
	Height   int
	Format   string
}

// WCSRegexpMap maps WCS request parameters to regular expressions used for
// validation before a request leaves this process.
// --- These regexp do not avoid every case of
// --- invalid code but filter most of the malformed
// --- cases.
var WCSRegexpMap = map[string]string{"service": `^WCS$`,
	"request":  `^GetCapabilities$|^DescribeCoverage$|^GetCoverage$`,
	"coverage": `^[A-Za-z.:0-9\s_-]+$`,
	"crs":      `^(?i)(?:[A-Z]+):(?:[0-9]+)$`,
	"bbox":     `^[-+]?[0-9]*\.?[0-9]*([eE][-+]?[0-9]+)?(,[-+]?[0-9]*\.?[0-9]*([eE][-+]?[0-9]+)?){3}$`,
	"width":    `^[0-9]+$`,
	"height":   `^[0-9]+$`,
	"format":   `^(?i)(GeoTIFF|image/tiff)$`}

func CompileWCSRegexMap() map[string]*regexp.Regexp {
	REMap := make(map[string]*regexp.Regexp)
	for key, re := range WCSRegexpMap {
		REMap[key] = regexp.MustCompile(re)
	}

	return REMap
}

// BuildGetCoverageURL serialises params into a KVP GetCoverage URL against
// endpoint, validating every field against the WCS regexp map first.
func BuildGetCoverageURL(endpoint string, params WCSParams, compREMap map[string]*regexp.Regexp) (string, error) {
	fields := map[string]string{
		"service":  params.Service,
		"request":  params.Request,
		"coverage": params.Coverage,
		"crs":      params.CRS,
		"bbox":     params.BBox.String(),
		"width":    strconv.Itoa(params.Width),
		"height":   strconv.Itoa(params.Height),
		"format":   params.Format,
	}
	for key, value := range fields {
		if !compREMap[key].MatchString(value) {
			return "", fmt.Errorf("invalid WCS %s parameter: %q", key, value)
		}
	}
	if params.Version != "1.0.0" {
		return "", fmt.Errorf("unsupported WCS version: %q", params.Version)
	}

	query := url.Values{}
	query.Set("service", params.Service)
	query.Set("version", params.Version)
	query.Set("request", params.Request)
	query.Set("coverage", params.Coverage)
	query.Set("crs", params.CRS)
	query.Set("bbox", params.BBox.String())
	query.Set("width", strconv.Itoa(params.Width))
	query.Set("height", strconv.Itoa(params.Height))
	query.Set("format", params.Format)

	base, err := url.Parse(endpoint)
	if err != nil {
		return "", fmt.Errorf("invalid WCS endpoint %q: %v", endpoint, err)
	}
	base.RawQuery = query.Encode()
	return base.String(), nil
}
