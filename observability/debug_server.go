package observability

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"
)

// DebugServer exposes the stats snapshot as JSON on /stats. It is a
// supervised worker: Run serves until the context ends, then shuts the
// listener down.
type DebugServer struct {
	log     *slog.Logger
	monitor *Monitor
	port    int
}

func NewDebugServer(monitor *Monitor, port int, log *slog.Logger) *DebugServer {
	return &DebugServer{log: log, monitor: monitor, port: port}
}

func (d *DebugServer) Run(ctx context.Context) error {
	mux := http.NewServeMux()
	mux.HandleFunc("/stats", d.handleStats)

	server := &http.Server{
		Addr:    fmt.Sprintf(":%d", d.port),
		Handler: mux,
	}

	errChan := make(chan error, 1)
	go func() {
		d.log.Info("Debug server listening", "port", d.port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errChan <- err
		}
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	case err := <-errChan:
		return err
	}
}

func (d *DebugServer) handleStats(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(d.monitor.Snapshot()); err != nil {
		d.log.Warn("Stats encoding failed", "error", err)
	}
}
