// Package httpfeed exposes an optional HTTP ingestion front-end for raw
// demodulator bytes, so the connector can sit behind a ground-station's
// HTTP relay instead of only reading from stdin. Router setup mirrors the
// teacher's cmd/server/main.go (chi.NewRouter, middleware.RequestID,
// middleware.RealIP, middleware.Recoverer).
package httpfeed

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/ukhas/habitat-connector/internal/sentence"
)

// maxFeedBytes bounds a single POST /v1/feed body so a misbehaving relay
// can't exhaust memory with one request.
const maxFeedBytes = 1 << 20 // 1 MiB

// pusher is the slice of boundary.Connector's API the feed handler needs.
type pusher interface {
	Push(b byte, flags sentence.Flags)
}

// NewRouter builds the chi router for the feed endpoint and a health
// check, pushing every byte of a fed chunk through c.
func NewRouter(c pusher) chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)

	r.Get("/healthz", handleHealthz)
	r.Post("/v1/feed", handleFeed(c))

	return r
}

func handleHealthz(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	fmt.Fprint(w, `{"status":"ok"}`)
}

func handleFeed(c pusher) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		body, err := io.ReadAll(io.LimitReader(r.Body, maxFeedBytes+1))
		if err != nil {
			slog.Error("httpfeed: failed to read request body", "error", err)
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		if len(body) > maxFeedBytes {
			w.WriteHeader(http.StatusRequestEntityTooLarge)
			return
		}

		for _, b := range body {
			c.Push(b, sentence.FlagNone)
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusAccepted)
		json.NewEncoder(w).Encode(map[string]int{"accepted": len(body)})
	}
}
