// PURPOSE: Entry point for the inventory server.
//
// Wires config, logging, the SQLite store, the ledger engine, the scan
// resolver, and the HTTP API, then serves until SIGINT/SIGTERM with a
// graceful drain.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/stockroom/inventory-engine/api"
	"github.com/stockroom/inventory-engine/config"
	"github.com/stockroom/inventory-engine/logger"
	"github.com/stockroom/inventory-engine/scan"
	"github.com/stockroom/inventory-engine/store/sqlite"
)

func main() {
	cfg := config.Load()

	// Flags override the environment for quick local runs.
	port := flag.Int("port", cfg.Port, "HTTP listen port")
	dbPath := flag.String("db", cfg.DBPath, "SQLite database path")
	flag.Parse()
	cfg.Port = *port
	cfg.DBPath = *dbPath

	log, err := logger.New(cfg.LogLevel, cfg.Development)
	if err != nil {
		fmt.Fprintf(os.Stderr, "logger init: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	store, err := sqlite.New(cfg.DBPath)
	if err != nil {
		log.Fatalw("open store", "path", cfg.DBPath, "error", err)
	}
	defer store.Close()

	queue := scan.NewQueue(cfg.ScanQueueSize)
	defer queue.Close()

	h := api.NewHandler(store, queue, log.WithComponent("api"))
	h.BarcodeDir = cfg.BarcodeDir

	ctx, stop := signal.NotifyContext(context.Background(),
		syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	resolver := scan.NewResolver(queue, store, func(ev scan.ScanEvent) {
		if ev.Item != nil {
			log.Infow("scanned item",
				"barcode", ev.Code,
				"name", ev.Item.Name,
				"quantity", ev.Item.Quantity)
		}
	}, log.WithComponent("scan"))
	go resolver.Run(ctx)

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           api.NewRouter(h),
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Infow("listening", "addr", srv.Addr, "db", cfg.DBPath)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		log.Infow("shutdown signal received")
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalw("server error", "error", err)
		}
		return
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Errorw("shutdown", "error", err)
	}
	log.Infow("stopped")
}
