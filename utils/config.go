package utils

import (
	"encoding/json"
	"fmt"
	"io/ioutil"
	"path/filepath"
	"strings"

	yaml "gopkg.in/yaml.v2"
)

// ServiceConfig describes the remote collaborators every job talks to: the
// WCS coverage endpoint and the two cached shapefile archives.
type ServiceConfig struct {
	WCSURL        string `json:"wcs_url" yaml:"wcs_url"`
	Coverage      string `json:"coverage" yaml:"coverage"`
	CRS           string `json:"crs" yaml:"crs"`
	ShorelineURL  string `json:"shoreline_url" yaml:"shoreline_url"`
	ShorelineStem string `json:"shoreline_stem" yaml:"shoreline_stem"`
	PlacesURL     string `json:"places_url" yaml:"places_url"`
	PlacesStem    string `json:"places_stem" yaml:"places_stem"`
	DataDir       string `json:"data_dir" yaml:"data_dir"`
}

// OutputPaths lists the artifacts a job writes. Empty entries are filled
// with defaults derived from the job name.
type OutputPaths struct {
	Raster    string `json:"raster" yaml:"raster"`
	SeaRaster string `json:"sea_raster" yaml:"sea_raster"`
	Land      string `json:"land" yaml:"land"`
	Places    string `json:"places" yaml:"places"`
	Table     string `json:"table" yaml:"table"`
}

// Job contains all the details one pipeline run needs: the extent, the fetch
// and output resolutions, the kernel and the artifact set.
type Job struct {
	Name             string      `json:"name" yaml:"name"`
	BBox             string      `json:"bbox" yaml:"bbox"`
	NativeRes        float64     `json:"native_res" yaml:"native_res"`
	OutputWidth      int         `json:"output_width" yaml:"output_width"`
	OutputHeight     int         `json:"output_height" yaml:"output_height"`
	ResamplingKernel string      `json:"resampling_kernel" yaml:"resampling_kernel"`
	NoDataValue      *float64    `json:"nodata_value" yaml:"nodata_value"`
	ValueExpression  string      `json:"value_expression" yaml:"value_expression"`
	Outputs          OutputPaths `json:"outputs" yaml:"outputs"`

	// Derived during load.
	Extent BoundingBox `json:"-" yaml:"-"`
	NoData float64     `json:"-" yaml:"-"`
}

// Config is the struct representing the whole pipeline configuration: the
// service endpoints plus the list of jobs to run, one after the other.
type Config struct {
	ServiceConfig ServiceConfig `json:"service_config" yaml:"service_config"`
	Jobs          []Job         `json:"jobs" yaml:"jobs"`
}

const DefaultNoData = -9999.0

var kernelNames = map[string]bool{"": true, "nearest": true, "bilinear": true, "lanczos": true}

// LoadConfigFile unmarshals the config document returning an instance of a
// Config variable containing all the values. JSON is the native format;
// .yaml/.yml files go through yaml.v2.
func (config *Config) LoadConfigFile(configFile string) error {
	*config = Config{}
	cfg, err := ioutil.ReadFile(configFile)
	if err != nil {
		return fmt.Errorf("Error while reading config file: %s. Error: %v", configFile, err)
	}

	switch strings.ToLower(filepath.Ext(configFile)) {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(cfg, config)
	default:
		err = json.Unmarshal(cfg, config)
	}
	if err != nil {
		return fmt.Errorf("Error at parsing config document: %s. Error: %v", configFile, err)
	}

	return config.applyDefaults()
}

func (config *Config) applyDefaults() error {
	svc := &config.ServiceConfig
	if svc.WCSURL == "" {
		return fmt.Errorf("service_config.wcs_url is required")
	}
	if svc.Coverage == "" {
		return fmt.Errorf("service_config.coverage is required")
	}
	if svc.CRS == "" {
		svc.CRS = "EPSG:4326"
	}
	if svc.DataDir == "" {
		svc.DataDir = "./data"
	}

	if len(config.Jobs) == 0 {
		return fmt.Errorf("config contains no jobs")
	}

	for i := range config.Jobs {
		job := &config.Jobs[i]
		if job.Name == "" {
			job.Name = fmt.Sprintf("job%d", i)
		}

		bbox, err := ParseBBox(job.BBox)
		if err != nil {
			return fmt.Errorf("job %s: %v", job.Name, err)
		}
		job.Extent = bbox

		if job.NativeRes <= 0 {
			return fmt.Errorf("job %s: native_res must be positive, got %v", job.Name, job.NativeRes)
		}
		if job.OutputWidth <= 0 || job.OutputHeight <= 0 {
			return fmt.Errorf("job %s: output dimensions must be positive, got %dx%d",
				job.Name, job.OutputWidth, job.OutputHeight)
		}
		if !kernelNames[strings.ToLower(job.ResamplingKernel)] {
			return fmt.Errorf("job %s: unknown resampling_kernel %q", job.Name, job.ResamplingKernel)
		}
		job.ResamplingKernel = strings.ToLower(job.ResamplingKernel)

		if job.NoDataValue != nil {
			job.NoData = *job.NoDataValue
		} else {
			job.NoData = DefaultNoData
		}

		out := &job.Outputs
		if out.Raster == "" {
			out.Raster = filepath.Join(svc.DataDir, job.Name+"_bathymetry.tif")
		}
		if out.SeaRaster == "" {
			out.SeaRaster = filepath.Join(svc.DataDir, job.Name+"_bathymetry_sea.tif")
		}
		if out.Land == "" {
			out.Land = filepath.Join(svc.DataDir, job.Name+"_land.geojson")
		}
		if out.Places == "" {
			out.Places = filepath.Join(svc.DataDir, job.Name+"_populated_places.geojson")
		}
		if out.Table == "" {
			out.Table = filepath.Join(svc.DataDir, job.Name+"_depths.csv")
		}
	}
	return nil
}

// DumpConfig returns the parsed configuration as indented JSON.
func DumpConfig(config *Config) (string, error) {
	configJson, err := json.MarshalIndent(config, "", "    ")
	if err != nil {
		return "", err
	}
	return string(configJson), nil
}
