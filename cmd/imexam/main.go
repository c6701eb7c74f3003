package main

import (
	"context"
	"flag"
	"io"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/cdeil/imexam/internal/bridge"
	"github.com/cdeil/imexam/internal/config"
	"github.com/cdeil/imexam/internal/examine"
	"github.com/cdeil/imexam/internal/output"
	"github.com/cdeil/imexam/internal/registry"
	"github.com/cdeil/imexam/internal/session"
	"github.com/cdeil/imexam/internal/viewer"
)

func main() {
	var (
		viewerName = flag.String("viewer", viewer.DS9, "Viewer backend: ds9, web or sim")
		endpoint   = flag.String("endpoint", "tcp://localhost:7001", "CBOR socket endpoint of the ds9 bridge")
		bridgeURL  = flag.String("bridge-url", "http://localhost:7002", "HTTP control endpoint of the ds9 bridge")
		port       = flag.Int("port", 8988, "HTTP port for the web viewer backend")
		wait       = flag.Duration("wait", 10*time.Second, "Time to wait for the viewer connection and first image")
		load       = flag.String("load", "", "FITS file to load into the viewer before the session")
		paramsFile = flag.String("params", "", "YAML file with analysis parameter overrides")
		plotDir    = flag.String("plot-dir", "plots", "Directory for plot output")
		plotBase   = flag.String("plot-base", "imexam", "Base name for plot files")
		reportDir  = flag.String("report-dir", "", "Directory for textual reports (empty disables)")
		record     = flag.Bool("record", false, "Record raw viewer messages to disk")
		recordDir  = flag.String("record-dir", "eventlog", "Directory for recorded viewer messages")
		logFile    = flag.String("log", "", "Append the session log to this file")
		simFile    = flag.String("sim-file", "", "FITS file for the sim viewer (empty: synthetic field)")
		simScript  = flag.String("sim-script", "", "Cursor event script for the sim viewer (empty: stdin)")
	)
	flag.Parse()

	cfg := config.AppConfig{
		Viewer:        *viewerName,
		Endpoint:      *endpoint,
		BridgeBaseURL: *bridgeURL,
		Port:          *port,
		ConnectWait:   *wait,
		LogFile:       *logFile,
		ParamsFile:    *paramsFile,
		PlotDir:       *plotDir,
		PlotBase:      *plotBase,
		ReportDir:     *reportDir,
		RecordEnabled: *record,
		RecordDir:     *recordDir,
		SimFile:       *simFile,
		SimScript:     *simScript,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger := log.Default()
	if cfg.LogFile != "" {
		f, err := os.OpenFile(cfg.LogFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			log.Fatalf("open log file: %v", err)
		}
		defer f.Close()
		logger = log.New(io.MultiWriter(os.Stderr, f), "", log.LstdFlags)
	}

	var recorder viewer.Recorder
	if cfg.RecordEnabled {
		writer, err := output.NewEventLogWriter(cfg.RecordDir)
		if err != nil {
			log.Fatalf("start event log: %v", err)
		}
		defer func() {
			if err := writer.Close(); err != nil {
				logger.Printf("event log close failed: %v", err)
			}
		}()
		logger.Printf("recording viewer messages to %s", writer.Name())
		recorder = writer
	}

	if cfg.Viewer == viewer.DS9 && cfg.BridgeBaseURL != "" {
		status := bridge.GetStatus(ctx, cfg.BridgeBaseURL)
		logger.Printf("bridge status: bridge=%s viewer=%s", status.Bridge, status.Viewer)
		if *load != "" {
			if err := bridge.CommandAsync(cfg.BridgeBaseURL, "load", *load); err != nil {
				log.Fatalf("load %s: %v", *load, err)
			}
		}
	}

	v, err := viewer.New(ctx, cfg, recorder)
	if err != nil {
		log.Fatalf("connect to viewer: %v", err)
	}
	waitForImage(ctx, v, cfg.ConnectWait)

	plots, err := output.NewPlotNamer(cfg.PlotDir, cfg.PlotBase)
	if err != nil {
		log.Fatalf("plot output: %v", err)
	}
	var reports *output.ReportWriter
	if cfg.ReportDir != "" {
		reports, err = output.NewReportWriter(cfg.ReportDir)
		if err != nil {
			log.Fatalf("report output: %v", err)
		}
		defer reports.Close()
		logger.Printf("writing reports to %s", reports.Name())
	}

	reg := registry.New()
	exam := examine.New(plots, reports, os.Stdout)
	if err := reg.Register(exam.DefaultBindings()); err != nil {
		log.Fatalf("register built-in keys: %v", err)
	}
	if cfg.ParamsFile != "" {
		overrides, err := config.LoadParamOverrides(cfg.ParamsFile)
		if err != nil {
			log.Fatalf("parameter overrides: %v", err)
		}
		for key, settings := range overrides {
			if err := reg.SetParameters(key, registry.Params(settings)); err != nil {
				logger.Printf("parameter overrides: %v", err)
			}
		}
	}

	if err := session.New(v, reg, session.WithLogger(logger)).Run(); err != nil {
		log.Fatalf("imexam: %v", err)
	}
}

// waitForImage polls until the viewer reports a loaded image, so a
// freshly started bridge or a browser viewer that has not connected
// yet gets a grace period before the no-image check.
func waitForImage(ctx context.Context, v viewer.Adapter, wait time.Duration) {
	if wait <= 0 {
		return
	}
	deadline := time.Now().Add(wait)
	for time.Now().Before(deadline) {
		name, err := v.Filename()
		if err == nil && name != "" {
			return
		}
		select {
		case <-ctx.Done():
			return
		case <-time.After(500 * time.Millisecond):
		}
	}
}
