/*
main.go - Application entry point

PURPOSE:
  Initializes and starts the attendance reporting server. Handles
  configuration, dependency injection, and graceful shutdown.

STARTUP SEQUENCE:
  1. Parse command-line flags
  2. Configure logging
  3. Initialize the KV store (SQLite by default, Redis if -redis set)
  4. Assemble stores, verification service and notification sink
  5. Configure HTTP router
  6. Start server with graceful shutdown

COMMAND-LINE FLAGS:
  -port               HTTP server port (default: 8080)
  -db                 SQLite database path (default: kintai.db)
  -redis              Redis address; overrides -db when set
  -redis-password     Redis password
  -line-token         LINE channel access token
  -line-group         LINE group ID for notifications
  -tolerance          Allowed CBO/self-report gap in hours (default: 0.5)
  -holiday-threshold  Min employees with punch data for a working day (default: 5)
  -log-level          trace|debug|info|warn|error (default: info)

GRACEFUL SHUTDOWN:
  On SIGINT/SIGTERM:
  1. Stop accepting new connections
  2. Wait for active requests to complete (30s timeout)
  3. Close the store
  4. Exit

EXAMPLES:
  # Run with file database
  ./server -db="./data/kintai.db"

  # Run against Redis with LINE notifications
  ./server -redis=localhost:6379 -line-token=$TOKEN -line-group=$GROUP

SEE ALSO:
  - api/server.go: Router configuration
  - api/handlers.go: HTTP handlers
  - kvstore/: Store implementations
*/
package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"github.com/kensei/kintai-engine/api"
	"github.com/kensei/kintai-engine/kvstore"
	kvredis "github.com/kensei/kintai-engine/kvstore/redis"
	kvsqlite "github.com/kensei/kintai-engine/kvstore/sqlite"
	"github.com/kensei/kintai-engine/notify"
	"github.com/kensei/kintai-engine/report"
	"github.com/kensei/kintai-engine/roster"
	"github.com/kensei/kintai-engine/verify"
)

func main() {
	// Flags
	port := flag.Int("port", 8080, "HTTP server port")
	dbPath := flag.String("db", "kintai.db", "SQLite database path")
	redisAddr := flag.String("redis", "", "Redis address (overrides -db)")
	redisPassword := flag.String("redis-password", "", "Redis password")
	lineToken := flag.String("line-token", os.Getenv("LINE_CHANNEL_ACCESS_TOKEN"), "LINE channel access token")
	lineGroup := flag.String("line-group", os.Getenv("LINE_GROUP_ID"), "LINE group ID for notifications")
	tolerance := flag.Float64("tolerance", 0.5, "allowed CBO/self-report gap in hours")
	holidayThreshold := flag.Int("holiday-threshold", 5, "min employees with punch data for a working day")
	logLevel := flag.String("log-level", "info", "log level")
	flag.Parse()

	// Logging
	log := logrus.New()
	log.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	if level, err := logrus.ParseLevel(*logLevel); err == nil {
		log.SetLevel(level)
	}

	// Store
	var (
		kv  kvstore.Store
		err error
	)
	if *redisAddr != "" {
		rdb := kvredis.New(*redisAddr, *redisPassword)
		if err := rdb.Ping(context.Background()); err != nil {
			log.WithError(err).Fatal("redis unreachable")
		}
		kv = rdb
		log.WithField("addr", *redisAddr).Info("using redis store")
	} else {
		kv, err = kvsqlite.New(*dbPath)
		if err != nil {
			log.WithError(err).Fatal("failed to initialize database")
		}
		log.WithField("path", *dbPath).Info("using sqlite store")
	}
	defer kv.Close()

	// Domain stores and services
	rosterStore := roster.NewStore(kv)
	reports := report.NewStore(kv)
	settings := notify.NewSettings(kv)

	engine := verify.NewEngine()
	engine.Tolerance = decimal.NewFromFloat(*tolerance)
	engine.HolidayThreshold = *holidayThreshold

	verifier := verify.NewService(
		engine,
		verify.NewDataStore(kv),
		verify.NewCache(kv),
		verify.NewCheckStore(kv),
		verify.NewWorkdayStore(kv),
		rosterStore,
		reports,
		log,
	)

	var sink notify.Sink = notify.Noop{}
	if *lineToken != "" && *lineGroup != "" {
		sink = notify.NewLineSink(*lineToken, *lineGroup, log)
		log.Info("line notifications enabled")
	}

	// Router
	handler := api.NewHandler(rosterStore, reports, verifier, settings, sink, log)
	router := api.NewRouter(handler)

	// Server
	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", *port),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Infof("server starting on http://localhost:%d", *port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.WithError(err).Fatal("server failed")
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		log.WithError(err).Fatal("server forced to shutdown")
	}

	log.Info("server stopped")
}
