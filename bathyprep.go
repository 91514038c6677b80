package main

/* bathyprep is a batch pipeline preparing bathymetric map data
   for the Öresund strait region. For each configured job it
   fetches a depth coverage from a WCS endpoint, resamples it to
   the target grid, masks out land using GSHHG shoreline polygons
   and writes GeoTIFF, GeoJSON and CSV artifacts alongside a
   populated places overlay.
   Configuration of the pipeline is specified in the config.json
   file where the service endpoints and the jobs to run are
   defined. */

import (
	"flag"
	"log"
	"os"

	"golang.org/x/net/context"

	"github.com/oresund-atlas/bathyprep/metrics"
	proc "github.com/oresund-atlas/bathyprep/processor"
	"github.com/oresund-atlas/bathyprep/utils"
)

// Global variable to hold the values specified
// on the config.json document.
var config utils.Config

var (
	configFile     = flag.String("conf", "config.json", "Pipeline config file.")
	dataDir        = flag.String("data_dir", "", "Override for the data directory.")
	logDir         = flag.String("log_dir", "", "Metrics log directory.")
	templateDir    = flag.String("template_dir", "templates", "Report template directory.")
	validateConfig = flag.Bool("check_conf", false, "Validate the config file.")
	dumpConfig     = flag.Bool("dump_conf", false, "Dump the parsed config file.")
	verbose        = flag.Bool("v", false, "Verbose mode for more pipeline outputs.")
)

var (
	Error *log.Logger
	Info  *log.Logger
)

var metricsLogger metrics.Logger

// init initialises the loggers and sets the Config struct.
// This is the first function to be called in main.
func init() {
	Error = log.New(os.Stderr, "BATHYPREP: ", log.Ldate|log.Ltime|log.Lshortfile)
	Info = log.New(os.Stdout, "BATHYPREP: ", log.Ldate|log.Ltime|log.Lshortfile)

	flag.Parse()

	err := config.LoadConfigFile(*configFile)
	if err != nil {
		Error.Printf("Error in loading config file: %v\n", err)
		os.Exit(1)
	}
	if *dataDir != "" {
		config.ServiceConfig.DataDir = *dataDir
	}

	if *validateConfig {
		os.Exit(0)
	}

	if *dumpConfig {
		configJson, err := utils.DumpConfig(&config)
		if err != nil {
			Error.Printf("Error in dumping config: %v\n", err)
		} else {
			log.Print(configJson)
		}
		os.Exit(0)
	}

	if *logDir != "" {
		metricsLogger = metrics.NewFileLogger(*logDir, 0, 0, *verbose)
	} else {
		metricsLogger = metrics.NewStdoutLogger()
	}
}

func main() {
	ctx := context.Background()

	for i := range config.Jobs {
		job := &config.Jobs[i]
		Info.Printf("Running job %s over %s\n", job.Name, job.Extent.String())

		collector := metrics.NewMetricsCollector(metricsLogger)
		pipeline := proc.NewPipeline(&config.ServiceConfig, job, collector, *verbose)
		summary, err := pipeline.Run(ctx)
		collector.Log()
		if err != nil {
			Error.Printf("Job %s failed: %v\n", job.Name, err)
			os.Exit(1)
		}

		reportSummary(summary)
	}
}

func reportSummary(summary *proc.Summary) {
	tplPath := *templateDir + "/summary.tpl"
	if _, err := os.Stat(tplPath); err == nil {
		err = utils.ExecuteWriteTemplateFile(os.Stdout, summary, tplPath)
		if err == nil {
			return
		}
		Error.Printf("Error rendering summary template: %v\n", err)
	}

	Info.Printf("Job %s: %d sea cells, depth %.2f..%.2f (mean %.1f), %d land features, %d places\n",
		summary.JobName, summary.SeaCells, summary.MinDepth, summary.MaxDepth,
		summary.MeanDepth, summary.LandFeatures, summary.PlaceFeatures)
}
