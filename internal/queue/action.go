// Package queue implements the single-worker action queue (spec.md §9)
// that serializes every upload operation onto one goroutine, so the
// Uploader and the document store HTTP client never see concurrent calls.
package queue

import (
	"fmt"
	"time"

	"github.com/ukhas/habitat-connector/internal/couch"
	"github.com/ukhas/habitat-connector/internal/uploader"
)

// Action is one unit of work submitted to the queue. Apply runs on the
// worker goroutine only; Describe is used for logging when an action is
// queued and when it runs.
type Action interface {
	Describe() string
	Apply(w *Worker) (result string, err error)
}

func checkUploader(w *Worker) error {
	if w.uploader == nil {
		return fmt.Errorf("queue: uploader settings were not initialized")
	}
	return nil
}

// Settings (re)configures the worker's Uploader. It must be the first
// action processed before any upload action.
type Settings struct {
	Callsign         string
	CouchURI         string
	CouchDB          string
	MaxMergeAttempts int
	HTTPTimeout      time.Duration
}

func (a *Settings) Describe() string {
	return fmt.Sprintf("Uploader(%q, %q, %q, %d)", a.Callsign, a.CouchURI, a.CouchDB, a.MaxMergeAttempts)
}

func (a *Settings) Apply(w *Worker) (string, error) {
	client := couch.NewHTTPClient(a.HTTPTimeout)
	server := couch.NewServer(a.CouchURI, client)
	db := couch.NewDatabase(server, a.CouchURI, a.CouchDB, client)

	u, err := uploader.New(a.Callsign, db, a.MaxMergeAttempts)
	if err != nil {
		return "", err
	}

	w.uploader = u
	return "Success", nil
}

// Reset destroys the worker's current Uploader and calls its OnResetDone
// callback, if set. A Settings action must run again before any upload
// action will succeed.
type Reset struct{}

func (a *Reset) Describe() string { return "Reset" }

func (a *Reset) Apply(w *Worker) (string, error) {
	w.uploader = nil
	if w.OnResetDone != nil {
		w.OnResetDone()
	}
	return "Success", nil
}

// PayloadTelemetry uploads raw sentence bytes as a payload_telemetry
// document.
type PayloadTelemetry struct {
	Data        []byte
	Metadata    map[string]interface{}
	TimeCreated time.Time
}

func (a *PayloadTelemetry) Describe() string {
	return fmt.Sprintf("Uploader.payload_telemetry(%d bytes, %v, %s)", len(a.Data), a.Metadata, a.TimeCreated)
}

func (a *PayloadTelemetry) Apply(w *Worker) (string, error) {
	if err := checkUploader(w); err != nil {
		return "", err
	}
	return w.uploader.PayloadTelemetry(a.Data, a.Metadata, a.TimeCreated)
}

// ListenerTelemetry uploads a listener_telemetry document.
type ListenerTelemetry struct {
	Data        map[string]interface{}
	TimeCreated time.Time
}

func (a *ListenerTelemetry) Describe() string {
	return fmt.Sprintf("Uploader.listener_telemetry(%v, %s)", a.Data, a.TimeCreated)
}

func (a *ListenerTelemetry) Apply(w *Worker) (string, error) {
	if err := checkUploader(w); err != nil {
		return "", err
	}
	return w.uploader.ListenerTelemetry(a.Data, a.TimeCreated)
}

// ListenerInfo uploads a listener_info document.
type ListenerInfo struct {
	Data        map[string]interface{}
	TimeCreated time.Time
}

func (a *ListenerInfo) Describe() string {
	return fmt.Sprintf("Uploader.listener_info(%v, %s)", a.Data, a.TimeCreated)
}

func (a *ListenerInfo) Apply(w *Worker) (string, error) {
	if err := checkUploader(w); err != nil {
		return "", err
	}
	return w.uploader.ListenerInfo(a.Data, a.TimeCreated)
}

// Flights fetches the currently active flight documents and hands them to
// the worker's configured callback.
type Flights struct {
	At time.Time
}

func (a *Flights) Describe() string { return "Uploader.flights()" }

func (a *Flights) Apply(w *Worker) (string, error) {
	if err := checkUploader(w); err != nil {
		return "", err
	}
	flights, err := w.uploader.Flights(a.At)
	if err != nil {
		return "", err
	}
	if w.OnFlights != nil {
		w.OnFlights(flights)
	}
	return "Success", nil
}

// Shutdown drains the queue (it is always the last action run) and stops
// the worker loop. It is a plain Action rather than exception-based control
// flow: Worker.run recognizes it by type after Apply returns.
type Shutdown struct{}

func (a *Shutdown) Describe() string { return "Shutdown" }

func (a *Shutdown) Apply(w *Worker) (string, error) { return "Shutdown", nil }
