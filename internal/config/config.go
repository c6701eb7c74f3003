package config

import "time"

type AppConfig struct {
	Viewer        string
	Endpoint      string
	BridgeBaseURL string
	Port          int
	ConnectWait   time.Duration
	LogFile       string
	ParamsFile    string
	PlotDir       string
	PlotBase      string
	ReportDir     string
	RecordEnabled bool
	RecordDir     string
	SimFile       string
	SimScript     string
}
