// Package main is the spacebuild server process entry point.
//
// Architecture:
//   - Configuration: flags > environment variables > .env file > defaults
//   - Structured logging: JSON + console, module-based tracing
//   - Engine: one World + one Pool behind one mutex
//   - Transport: websocket upgrade behind an http.Server, optional TLS
//   - Server loop: fixed-tick world step, periodic save, session admission
//   - Admin: /healthz and /stats over the same http.Server
package main

import (
	"bufio"
	"context"
	"fmt"
	"net/http"
	"os"
	"strings"

	"github.com/neotene/spacebuild/admin"
	"github.com/neotene/spacebuild/config"
	"github.com/neotene/spacebuild/engine"
	"github.com/neotene/spacebuild/logging"
	"github.com/neotene/spacebuild/serverloop"
	"github.com/neotene/spacebuild/store"
	"github.com/neotene/spacebuild/syncpool"
	"github.com/neotene/spacebuild/transport"
	"github.com/neotene/spacebuild/universegen"
	"github.com/neotene/spacebuild/world"
)

func main() {
	os.Exit(run())
}

// run builds and drives the server process, returning the process exit
// code: 0 on a clean stop, non-zero on any critical startup or shutdown
// failure.
func run() int {
	cfg, err := config.Load(os.Args[1:])
	if err != nil {
		fmt.Fprintf(os.Stderr, "FATAL: configuration failed: %v\n", err)
		return 1
	}

	if err := logging.ApplyConfig(&logging.Config{
		Level:        cfg.Logging.Level,
		TraceModules: cfg.Logging.TraceModules,
		LogDir:       cfg.Logging.LogDir,
	}); err != nil {
		fmt.Fprintf(os.Stderr, "FATAL: logging initialization failed: %v\n", err)
		return 1
	}

	db, err := store.Open(cfg.Server.InstancePath)
	if err != nil {
		logging.Fatal("failed to open instance database", map[string]interface{}{
			"path":  cfg.Server.InstancePath,
			"error": err.Error(),
		})
		return 1
	}
	defer db.Close()

	if err := db.InitializeSchema(); err != nil {
		logging.Fatal("failed to initialize schema", map[string]interface{}{"error": err.Error()})
		return 1
	}

	pool, err := syncpool.New(db)
	if err != nil {
		logging.Fatal("failed to initialize sync pool", map[string]interface{}{"error": err.Error()})
		return 1
	}

	tunables, err := universegen.LoadTunables(cfg.Universe.TunablesPath)
	if err != nil {
		logging.Fatal("failed to load universe tunables", map[string]interface{}{"error": err.Error()})
		return 1
	}

	w := world.New(1000)
	step := world.StepConfig{
		TickScalingFactor:         cfg.Simulation.TickScalingFactor,
		VisibilityRadius:          cfg.Simulation.VisibilityRadius,
		BatchSize:                 cfg.Simulation.BatchSize,
		TranslateRotatingChildren: cfg.Simulation.TranslateRotatingChildren,
	}
	eng := engine.New(w, pool, tunables, step)

	listener := transport.NewWebSocketListener()
	stats := &admin.Stats{}

	httpMux := http.NewServeMux()
	httpMux.Handle("/ws", listener)
	httpMux.Handle("/", admin.Router(db, eng, stats))

	httpServer := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Server.Port),
		Handler: httpMux,
	}

	httpErrors := make(chan error, 1)
	go func() {
		var err error
		if cfg.Server.TLSCertPath != "" && cfg.Server.TLSKeyPath != "" {
			err = httpServer.ListenAndServeTLS(cfg.Server.TLSCertPath, cfg.Server.TLSKeyPath)
		} else {
			err = httpServer.ListenAndServe()
		}
		if err != nil && err != http.ErrServerClosed {
			httpErrors <- err
		}
	}()

	loop := serverloop.New(eng, listener, cfg.Simulation.TickInterval, cfg.Simulation.SaveInterval, stats)
	ctx, cancel := context.WithCancel(context.Background())
	loopDone := make(chan struct{})
	go func() {
		loop.Run(ctx)
		close(loopDone)
	}()

	logging.Info("spacebuild server listening", map[string]interface{}{
		"port":     cfg.Server.Port,
		"tls":      cfg.Server.TLSCertPath != "",
		"instance": cfg.Server.InstancePath,
	})

	stopRequested := make(chan struct{})
	go watchStdinForStop(stopRequested)

	select {
	case <-stopRequested:
		logging.Info("stop received on stdin, shutting down", nil)
	case err := <-httpErrors:
		logging.Error("http server failed", map[string]interface{}{"error": err.Error()})
		cancel()
		<-loopDone
		return 1
	}

	cancel()
	<-loopDone
	httpServer.Shutdown(context.Background())

	if err := eng.Save(); err != nil {
		logging.Error("final save failed", map[string]interface{}{"error": err.Error()})
		return 1
	}

	logging.Info("spacebuild server stopped cleanly", nil)
	return 0
}

// watchStdinForStop closes stopped when it reads a "stop" line, following
// the spec's minimal operator control surface.
func watchStdinForStop(stopped chan<- struct{}) {
	scanner := bufio.NewScanner(os.Stdin)
	for scanner.Scan() {
		if strings.TrimSpace(scanner.Text()) == "stop" {
			close(stopped)
			return
		}
	}
}
