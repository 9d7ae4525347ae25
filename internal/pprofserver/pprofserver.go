// Package pprofserver serves the runtime profiling endpoints on a loopback
// listener, kept off the API port so a deployment never exposes them.
package pprofserver

import (
	"fmt"
	"log/slog"
	"net/http"
	"net/http/pprof"
	"os"
)

// Handle registers the profiling handlers on the given mux.
func Handle(mux *http.ServeMux) {
	mux.HandleFunc("/debug/pprof/", pprof.Index)
	mux.HandleFunc("/debug/pprof/trace", pprof.Trace)
	mux.HandleFunc("/debug/pprof/profile", pprof.Profile)
	mux.HandleFunc("/debug/pprof/symbol", pprof.Symbol)
	mux.HandleFunc("/debug/pprof/cmdline", pprof.Cmdline)
}

// Launch starts a profiling server on the IPv6 loopback at the given port,
// e.g. ":6060". It serves in a background goroutine; a listen failure stops
// the process.
func Launch(port string, logger *slog.Logger) {
	mux := http.NewServeMux()
	Handle(mux)
	addr := fmt.Sprintf("[::1]%s", port)
	server := &http.Server{ //nolint:exhaustruct // loopback-only, defaults are fine
		Addr:    addr,
		Handler: mux,
	}
	go func() {
		logger.Info("starting pprof server", "addr", addr)
		err := server.ListenAndServe()
		logger.Error(err.Error())
		os.Exit(0)
	}()
}
