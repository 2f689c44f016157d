// Command uploaderd is the connector's standalone host: it reads raw
// demodulator bytes from stdin (and, if FEED_ENABLED, from an HTTP feed),
// frames and parses them into UKHAS sentences, and drives every upload
// through a single-worker action queue. spec.md §1 treats everything
// upstream of the byte stream as out of scope; this binary is the minimal
// concrete host SPEC_FULL.md adds so the connector is runnable on its own.
package main

import (
	"bufio"
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"

	"github.com/ukhas/habitat-connector/internal/boundary"
	"github.com/ukhas/habitat-connector/internal/boundary/httpfeed"
	"github.com/ukhas/habitat-connector/internal/config"
	"github.com/ukhas/habitat-connector/internal/queue"
	"github.com/ukhas/habitat-connector/internal/sentence"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	slog.SetDefault(logger)

	runID := uuid.NewString()
	slog.Info("starting uploaderd", "run_id", runID)

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "run_id", runID, "error", err)
		os.Exit(1)
	}

	worker := queue.NewWorker()
	worker.Start()

	worker.Settings(&queue.Settings{
		Callsign:         cfg.Callsign,
		CouchURI:         cfg.CouchURI,
		CouchDB:          cfg.CouchDB,
		MaxMergeAttempts: cfg.MaxMergeAttempts,
		HTTPTimeout:      cfg.HTTPRequestTimeout,
	})

	conn := boundary.NewWithSkippedClamp(worker, cfg.SkippedByteClamp)
	conn.OnStatus = func(msg string) {
		slog.Debug("connector status", "run_id", runID, "message", msg)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var srv *http.Server
	if cfg.FeedEnabled {
		srv = &http.Server{
			Addr:    cfg.Addr(),
			Handler: httpfeed.NewRouter(conn),
		}
		go func() {
			slog.Info("starting feed server", "run_id", runID, "addr", cfg.Addr())
			if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				slog.Error("feed server error", "run_id", runID, "error", err)
			}
		}()
	}

	go readStdin(ctx, conn, runID)

	<-ctx.Done()
	slog.Info("shutting down uploaderd", "run_id", runID)

	if srv != nil {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			slog.Error("feed server shutdown error", "run_id", runID, "error", err)
		}
	}

	worker.Shutdown()
	slog.Info("uploaderd stopped", "run_id", runID)
}

func readStdin(ctx context.Context, conn *boundary.Connector, runID string) {
	reader := bufio.NewReaderSize(os.Stdin, 4096)

	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		b, err := reader.ReadByte()
		if err != nil {
			if !errors.Is(err, io.EOF) {
				slog.Error("stdin read error", "run_id", runID, "error", err)
			}
			time.Sleep(100 * time.Millisecond)
			continue
		}
		conn.Push(b, sentence.FlagNone)
	}
}
