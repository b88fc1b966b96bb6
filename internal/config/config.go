// Package config loads the process configuration from an ini file,
// following the teacher's Cfg-with-defaults convention.
package config

import (
	"fmt"
	"time"

	"gopkg.in/ini.v1"
)

// Cfg is the process-wide configuration. Zero value is usable with
// sensible defaults applied by Load.
type Cfg struct {
	Raw *ini.File

	BindAddress string
	Port        int
	AdminPort   int
	DataDir     string
	TempDir     string

	SessionTimeout         string
	SessionTimeoutDuration time.Duration
	MaxSessions            int

	LogInfoPath  string
	LogErrorPath string
	LogLevel     string

	// BuildWorkerPoolSize is read from build_worker_pool_size, default 4
	// per spec §5. No code passes it to catalog.NewBuildPool, so it
	// bounds nothing at run time.
	BuildWorkerPoolSize int

	// SecondaryIndexPartCapacity defaults to 1<<20 and is neither read
	// from the ini file nor used: secondary-index part capacity comes
	// from each CreateIndex request.
	SecondaryIndexPartCapacity int

	// PostingSkipInterval defaults to 128 and is neither read from the
	// ini file nor used: the fulltext doc-list encoder emits skip
	// entries at its own fixed interval of 128 documents.
	PostingSkipInterval int
}

func defaults() Cfg {
	return Cfg{
		BindAddress:                "0.0.0.0",
		Port:                       23817,
		AdminPort:                  23818,
		DataDir:                    "data",
		TempDir:                    "tmp",
		SessionTimeout:             "60s",
		SessionTimeoutDuration:     60 * time.Second,
		MaxSessions:                1000,
		LogInfoPath:                "log/infinidb.log",
		LogErrorPath:               "log/infinidb.error.log",
		LogLevel:                   "info",
		BuildWorkerPoolSize:        4,
		SecondaryIndexPartCapacity: 1 << 20,
		PostingSkipInterval:        128,
	}
}

// Load reads path if non-empty, overlaying onto defaults; an empty path
// returns defaults unmodified.
func Load(path string) (*Cfg, error) {
	cfg := defaults()
	if path == "" {
		return &cfg, nil
	}

	raw, err := ini.Load(path)
	if err != nil {
		return nil, fmt.Errorf("load config %s: %w", path, err)
	}
	cfg.Raw = raw

	sec := raw.Section("")
	if v := sec.Key("bind_address").String(); v != "" {
		cfg.BindAddress = v
	}
	if v := sec.Key("port").MustInt(cfg.Port); v != 0 {
		cfg.Port = v
	}
	if v := sec.Key("admin_port").MustInt(cfg.AdminPort); v != 0 {
		cfg.AdminPort = v
	}
	if v := sec.Key("data_dir").String(); v != "" {
		cfg.DataDir = v
	}
	if v := sec.Key("temp_dir").String(); v != "" {
		cfg.TempDir = v
	}
	if v := sec.Key("session_timeout").String(); v != "" {
		cfg.SessionTimeout = v
	}
	if v := sec.Key("max_sessions").MustInt(cfg.MaxSessions); v != 0 {
		cfg.MaxSessions = v
	}
	if v := sec.Key("log_info").String(); v != "" {
		cfg.LogInfoPath = v
	}
	if v := sec.Key("log_error").String(); v != "" {
		cfg.LogErrorPath = v
	}
	if v := sec.Key("log_level").String(); v != "" {
		cfg.LogLevel = v
	}
	if v := sec.Key("build_worker_pool_size").MustInt(cfg.BuildWorkerPoolSize); v != 0 {
		cfg.BuildWorkerPoolSize = v
	}

	d, err := time.ParseDuration(cfg.SessionTimeout)
	if err != nil {
		return nil, fmt.Errorf("invalid session_timeout %q: %w", cfg.SessionTimeout, err)
	}
	cfg.SessionTimeoutDuration = d

	return &cfg, nil
}
