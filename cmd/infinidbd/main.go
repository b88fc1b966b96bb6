// Command infinidbd is the process entrypoint: load config, init
// logging, build the catalog-backed engine, and serve the binary
// protocol and admin HTTP ports (grounded on the teacher's main.go
// config->logger->server wiring).
package main

import (
	"flag"
	"fmt"
	"net"
	"time"

	"github.com/infinidb-io/infinidb/internal/admin"
	"github.com/infinidb-io/infinidb/internal/config"
	"github.com/infinidb-io/infinidb/internal/dispatcher"
	"github.com/infinidb-io/infinidb/internal/engine"
	"github.com/infinidb-io/infinidb/internal/logging"
)

func main() {
	var configPath string
	flag.StringVar(&configPath, "configPath", "", "path to the ini configuration file")
	flag.Parse()

	cfg, err := config.Load(configPath)
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	if err := logging.Init(logging.Config{
		InfoLogPath:  cfg.LogInfoPath,
		ErrorLogPath: cfg.LogErrorPath,
		Level:        cfg.LogLevel,
	}); err != nil {
		panic("failed to initialize logger: " + err.Error())
	}

	logging.Log.Infof("infinidbd starting: data_dir=%s bind=%s:%d admin=%d", cfg.DataDir, cfg.BindAddress, cfg.Port, cfg.AdminPort)

	eng := engine.New(cfg)
	d := dispatcher.NewWithTempDir(eng, cfg.TempDir)
	ln := dispatcher.NewListener(d)

	adminSrv := admin.New(eng)
	go func() {
		addr := fmt.Sprintf("%s:%d", cfg.BindAddress, cfg.AdminPort)
		logging.Log.Infof("admin HTTP listening on %s", addr)
		if err := adminSrv.Run(addr); err != nil {
			logging.WithError(err).Error("admin server exited")
		}
	}()

	stop := make(chan struct{})
	go eng.Sess.RunCleanupLoop(time.Minute, stop)

	addr := fmt.Sprintf("%s:%d", cfg.BindAddress, cfg.Port)
	listener, err := net.Listen("tcp", addr)
	if err != nil {
		panic("failed to bind " + addr + ": " + err.Error())
	}
	logging.Log.Infof("binary protocol listening on %s", addr)

	if err := ln.Serve(listener); err != nil {
		logging.WithError(err).Error("listener exited")
	}
}
