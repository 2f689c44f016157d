package queue

import (
	"errors"
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/ukhas/habitat-connector/internal/couch"
	"github.com/ukhas/habitat-connector/internal/uploader"
)

// Worker runs every queued Action on a single goroutine, in submission
// order, so the Uploader and document store client it owns never observe
// concurrent calls (spec.md §9). It is the Go counterpart of the original
// connector's UploaderThread.
type Worker struct {
	queue    *fifo
	uploader *uploader.Uploader

	// OnFlights receives the result of a Flights action. Unlike the
	// original connector's got_flights (which "bins silently"), leaving
	// this nil just means flight results are dropped; callers that care
	// should set it.
	OnFlights func([]couch.Document)

	// OnResetDone, if set, is called after a Reset action has cleared the
	// current Uploader.
	OnResetDone func()

	shuttingDown atomic.Bool
	done         chan struct{}
	startOnce    sync.Once
}

// NewWorker creates a Worker. Call Start to launch its goroutine.
func NewWorker() *Worker {
	return &Worker{
		queue: newFIFO(),
		done:  make(chan struct{}),
	}
}

// Start launches the worker goroutine. Calling Start more than once has no
// additional effect.
func (w *Worker) Start() {
	w.startOnce.Do(func() {
		go w.run()
	})
}

// queueAction submits action unless the worker is already shutting down, in
// which case it is discarded (spec.md §9: "queued-after-shutdown actions
// are discarded").
func (w *Worker) queueAction(action Action) {
	if w.shuttingDown.Load() {
		slog.Warn("queue: dropping action submitted after shutdown", "action", action.Describe())
		return
	}
	slog.Debug("queue: queuing action", "action", action.Describe())
	w.queue.put(action)
}

// Settings submits a Settings action.
func (w *Worker) Settings(a *Settings) { w.queueAction(a) }

// Reset submits a Reset action.
func (w *Worker) Reset(a *Reset) { w.queueAction(a) }

// PayloadTelemetry submits a PayloadTelemetry action.
func (w *Worker) PayloadTelemetry(a *PayloadTelemetry) { w.queueAction(a) }

// ListenerTelemetry submits a ListenerTelemetry action.
func (w *Worker) ListenerTelemetry(a *ListenerTelemetry) { w.queueAction(a) }

// ListenerInfo submits a ListenerInfo action.
func (w *Worker) ListenerInfo(a *ListenerInfo) { w.queueAction(a) }

// Flights submits a Flights action.
func (w *Worker) Flights(a *Flights) { w.queueAction(a) }

// Shutdown queues a Shutdown action (unless one is already queued) and
// blocks until the worker goroutine has exited. It is idempotent: calling
// it multiple times, concurrently or not, always waits for the same exit.
func (w *Worker) Shutdown() {
	if w.shuttingDown.CompareAndSwap(false, true) {
		slog.Debug("queue: queuing action", "action", (&Shutdown{}).Describe())
		w.queue.put(&Shutdown{})
	}
	<-w.done
}

// run is the worker loop: pop an action, run it, isolate whatever it
// returns, and log the outcome. A Shutdown action always stops the loop
// after being applied.
func (w *Worker) run() {
	defer close(w.done)

	for {
		action := w.queue.get()
		slog.Debug("queue: running action", "action", action.Describe())

		result, err := action.Apply(w)
		if err != nil {
			logActionError(action, err)
			continue
		}

		if _, isShutdown := action.(*Shutdown); isShutdown {
			slog.Info("queue: shutting down")
			return
		}

		slog.Info("queue: finished action", "action", action.Describe(), "result", result)
	}
}

// logActionError isolates a failed action: an InvalidArgumentError is a
// caller mistake (caught_exception_invalid in the original connector's
// terms), logged at warn; anything else is an unexpected runtime failure
// (caught_exception_runtime), logged at error. Either way the worker loop
// continues to the next action.
func logActionError(action Action, err error) {
	var invalid *couch.InvalidArgumentError
	if errors.As(err, &invalid) {
		slog.Warn("queue: caught invalid argument", "action", action.Describe(), "error", err)
		return
	}
	slog.Error("queue: caught runtime error", "action", action.Describe(), "error", err)
}
