package metrics

import (
	"bytes"
	"encoding/json"
	"fmt"
	"log"
	"net/url"
	"time"
)

type URLInfo struct {
	RawURL string            `json:"raw_url"`
	Host   string            `json:"host"`
	Path   string            `json:"path"`
	Query  map[string]string `json:"query"`
}

type FetchInfo struct {
	Duration   time.Duration `json:"duration"`
	URL        URLInfo       `json:"url"`
	HTTPStatus int           `json:"http_status"`
	BytesRead  int64         `json:"bytes_read"`
	Width      int           `json:"width"`
	Height     int           `json:"height"`
}

type ResampleInfo struct {
	Duration time.Duration `json:"duration"`
	Kernel   string        `json:"kernel"`
	Width    int           `json:"width"`
	Height   int           `json:"height"`
}

type MaskInfo struct {
	Duration       time.Duration `json:"duration"`
	NumPolygons    int           `json:"num_polygons"`
	NumMaskedCells int           `json:"num_masked_cells"`
	CroppedWidth   int           `json:"cropped_width"`
	CroppedHeight  int           `json:"cropped_height"`
}

type VectorInfo struct {
	Duration    time.Duration `json:"duration"`
	NumFeatures int           `json:"num_features"`
}

type RunInfo struct {
	JobName     string        `json:"job_name"`
	StartTime   string        `json:"start_time"`
	RunDuration time.Duration `json:"run_duration"`
	Coverage    *FetchInfo    `json:"coverage"`
	Resample    *ResampleInfo `json:"resample"`
	Mask        *MaskInfo     `json:"mask"`
	Land        *VectorInfo   `json:"land"`
	Places      *VectorInfo   `json:"places"`
	Success     bool          `json:"success"`
}

type MetricsCollector struct {
	Info   *RunInfo
	logger Logger
}

func NewMetricsCollector(logger Logger) *MetricsCollector {
	return &MetricsCollector{
		Info: &RunInfo{
			Coverage: &FetchInfo{},
			Resample: &ResampleInfo{},
			Mask:     &MaskInfo{},
			Land:     &VectorInfo{},
			Places:   &VectorInfo{},
		},
		logger: logger,
	}
}

func (m *MetricsCollector) Log() {
	if m.logger != nil {
		m.logger.Log(m.Info)
	}
}

func (i *RunInfo) ToJSON() (string, error) {
	i.normaliseURLs()

	buf := new(bytes.Buffer)
	enc := json.NewEncoder(buf)
	enc.SetEscapeHTML(false)
	err := enc.Encode(i)
	if err == nil {
		return buf.String(), nil
	} else {
		return "", err
	}
}

func (i *RunInfo) normaliseURLs() {
	if i.Coverage != nil {
		err := normaliseURL(&i.Coverage.URL)
		if err != nil {
			log.Printf("metrics: normaliseURL() error: %v", err)
		}
	}
}

func normaliseURL(u *URLInfo) error {
	r, err := url.Parse(u.RawURL)
	if err != nil {
		return err
	}

	u.Host = r.Host
	u.Path = r.Path
	query, err := url.ParseQuery(r.RawQuery)
	if err != nil {
		return err
	}

	if u.Query == nil {
		u.Query = make(map[string]string)
	}
	for k, v := range query {
		if len(v) == 1 {
			u.Query[k] = v[0]
		} else if len(v) > 1 {
			u.Query[k] = fmt.Sprintf("%v", v)
		} else {
			u.Query[k] = ""
		}
	}
	return nil
}
