// Command catalog-sim serves a deterministic synthetic catalog over the
// upstream API's wire shape, for local development and load testing
// without an API key.
package main

import (
	"context"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/okian/gamefeed/internal/catalogsim"
	"github.com/okian/gamefeed/pkg/logger"
)

// Default configuration constants.
const (
	defaultAddr       = ":9091"
	defaultTotalItems = 2000
	defaultSeed       = "catalog-sim"

	readTimeout       = 10 * time.Second
	writeTimeout      = 30 * time.Second
	readHeaderTimeout = 5 * time.Second
	shutdownTimeout   = 10 * time.Second
)

func main() {
	var (
		addr  = flag.String("addr", defaultAddr, "Listen address")
		items = flag.Int("items", defaultTotalItems, "Number of items in the synthetic catalog")
		seed  = flag.String("seed", defaultSeed, "Generation seed; same seed, same catalog")
		help  = flag.Bool("help", false, "Show help")
	)
	flag.Parse()

	if *help {
		showHelp()
		return
	}

	if err := logger.Init(); err != nil {
		os.Stderr.WriteString("failed to initialize logging: " + err.Error() + "\n")
		return
	}
	log := logger.Get().Named("catalog-sim")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cat := catalogsim.New(
		catalogsim.WithSeed(*seed),
		catalogsim.WithTotalItems(*items),
	)

	srv := &http.Server{
		Addr:              *addr,
		Handler:           cat.Handler(),
		ReadTimeout:       readTimeout,
		WriteTimeout:      writeTimeout,
		ReadHeaderTimeout: readHeaderTimeout,
	}

	go func() {
		log.Info(ctx, "serving synthetic catalog",
			logger.String("addr", *addr),
			logger.String("seed", *seed),
			logger.Int("items", *items))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			os.Stderr.WriteString("catalog-sim server failed: " + err.Error() + "\n")
		}
	}()

	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error(ctx, "shutdown failed", logger.Error(err))
	}
	log.Info(ctx, "catalog-sim stopped")
}

func showHelp() {
	os.Stdout.WriteString(`Gamefeed Catalog Simulator
==========================

Serves a deterministic synthetic game catalog with the upstream API's
routes, so the feed service can run without an API key.

Usage:
  go run cmd/catalog-sim/main.go [options]

Options:
  -addr string
        Listen address (default ":9091")
  -items int
        Number of items in the synthetic catalog (default 2000)
  -seed string
        Generation seed; same seed, same catalog (default "catalog-sim")
  -help
        Show this help message

Examples:
  # Serve the default catalog
  go run cmd/catalog-sim/main.go

  # Point the feed service at it
  GAMEFEED_CATALOG_BASE_URL=http://localhost:9091/api go run cmd/main.go
`)
}
