package queue

import (
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/ukhas/habitat-connector/internal/couch"
)

// recordingAction lets a test observe exactly when Apply ran, and inject a
// result or error.
type recordingAction struct {
	name    string
	applied chan<- string
	err     error
}

func (a *recordingAction) Describe() string { return "recording(" + a.name + ")" }

func (a *recordingAction) Apply(w *Worker) (string, error) {
	if a.applied != nil {
		a.applied <- a.name
	}
	if a.err != nil {
		return "", a.err
	}
	return "ok", nil
}

func TestWorker_RunsActionsInSubmissionOrder(t *testing.T) {
	w := NewWorker()
	w.Start()

	order := make(chan string, 3)
	w.queueAction(&recordingAction{name: "one", applied: order})
	w.queueAction(&recordingAction{name: "two", applied: order})
	w.queueAction(&recordingAction{name: "three", applied: order})
	w.Shutdown()
	close(order)

	var got []string
	for name := range order {
		got = append(got, name)
	}
	want := []string{"one", "two", "three"}
	if len(got) != len(want) {
		t.Fatalf("expected %d actions run, got %d: %v", len(want), len(got), got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("expected order %v, got %v", want, got)
			break
		}
	}
}

func TestWorker_ShutdownIsIdempotent(t *testing.T) {
	w := NewWorker()
	w.Start()

	var wg sync.WaitGroup
	for i := 0; i < 5; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			w.Shutdown()
		}()
	}
	wg.Wait() // must not hang or panic
}

func TestWorker_ActionsAfterShutdownAreDiscarded(t *testing.T) {
	w := NewWorker()
	w.Start()
	w.Shutdown()

	applied := make(chan string, 1)
	w.queueAction(&recordingAction{name: "late", applied: applied})

	select {
	case <-applied:
		t.Error("expected action queued after shutdown to be discarded, but it ran")
	case <-time.After(50 * time.Millisecond):
		// expected: never applied
	}
}

func TestWorker_ErrorInOneActionDoesNotStopTheLoop(t *testing.T) {
	w := NewWorker()
	w.Start()

	applied := make(chan string, 2)
	w.queueAction(&recordingAction{name: "fails", applied: applied, err: fmt.Errorf("boom")})
	w.queueAction(&recordingAction{name: "after", applied: applied})
	w.Shutdown()
	close(applied)

	var got []string
	for name := range applied {
		got = append(got, name)
	}
	if len(got) != 2 || got[0] != "fails" || got[1] != "after" {
		t.Errorf("expected both actions to run despite the first erroring, got %v", got)
	}
}

func TestResetAction_ClearsUploaderAndCallsHook(t *testing.T) {
	w := &Worker{}
	u, err := newStubUploaderWithFlights(t)
	if err != nil {
		t.Fatalf("setup: %v", err)
	}
	w.uploader = u

	called := false
	w.OnResetDone = func() { called = true }

	action := &Reset{}
	if _, err := action.Apply(w); err != nil {
		t.Fatalf("Apply: %v", err)
	}
	if w.uploader != nil {
		t.Error("expected Reset to clear the worker's uploader")
	}
	if !called {
		t.Error("expected OnResetDone to be called")
	}
}

func TestSettingsAction_ConfiguresUploader(t *testing.T) {
	w := NewWorker()
	w.Start()
	defer w.Shutdown()

	done := make(chan error, 1)
	go func() {
		action := &Settings{
			Callsign:         "M0TEST",
			CouchURI:         "http://example.invalid/",
			CouchDB:          "habitat",
			MaxMergeAttempts: 20,
			HTTPTimeout:      time.Second,
		}
		w.Settings(action)
		done <- nil
	}()
	<-done

	// Give the worker a moment to apply the Settings action before we
	// check. A subsequent action that requires an uploader would fail
	// with checkUploader's error if Settings hadn't run yet.
	time.Sleep(20 * time.Millisecond)
	if w.uploader == nil {
		t.Error("expected Settings to configure the worker's uploader")
	}
}

func TestPayloadTelemetryAction_FailsCleanlyWithoutSettings(t *testing.T) {
	w := &Worker{}
	action := &PayloadTelemetry{Data: []byte("x")}
	if _, err := action.Apply(w); err == nil {
		t.Error("expected an error when no Settings action has configured the uploader")
	}
}

func TestFlightsAction_InvokesCallback(t *testing.T) {
	w := &Worker{}
	var got []couch.Document
	w.OnFlights = func(docs []couch.Document) { got = docs }

	u, err := newStubUploaderWithFlights(t)
	if err != nil {
		t.Fatalf("setup: %v", err)
	}
	w.uploader = u

	action := &Flights{At: time.Now()}
	if _, err := action.Apply(w); err != nil {
		t.Fatalf("Apply: %v", err)
	}
	if got == nil {
		t.Error("expected OnFlights to be invoked")
	}
}
