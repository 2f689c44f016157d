// Package boundary wires the sentence extractor manager to the action
// queue: every framed raw sentence becomes a PayloadTelemetry action, and
// every parsed/status event is forwarded to the caller. It mirrors the
// thin glue the original dl-fldigi plugin kept between its UKHAS extractor
// and its UploaderThread (spec.md §9).
package boundary

import (
	"log/slog"
	"time"

	"github.com/ukhas/habitat-connector/internal/queue"
	"github.com/ukhas/habitat-connector/internal/sentence"
)

// actionQueue is the slice of *queue.Worker's API the boundary needs. A
// small interface rather than a concrete *queue.Worker lets tests observe
// queued actions without running a real worker goroutine.
type actionQueue interface {
	PayloadTelemetry(*queue.PayloadTelemetry)
}

// Connector is the byte-at-a-time public entry point: push demodulated
// bytes (or report a gap with Skipped) and it takes care of framing,
// parsing, and queuing uploads. Push and Skipped may be called from more
// than one goroutine: the sentence Manager it wraps delivers one byte at a
// time to its extractors and guards the payload configuration with its own
// mutex. OnStatus and OnData run synchronously inside Push and Skipped
// while that delivery is serialized, so a Push or Skipped made from inside
// them deadlocks.
type Connector struct {
	manager  *sentence.Manager
	worker   actionQueue
	Metadata map[string]interface{}

	// OnStatus and OnData, if set, are called in addition to the default
	// debug logging for status messages and parsed sentences.
	OnStatus func(msg string)
	OnData   func(obj map[string]interface{})
}

// New creates a Connector that frames bytes with a UKHASExtractor (using
// sentence.DefaultSkippedClamp) and queues every raw sentence it extracts as
// a PayloadTelemetry action on worker. Status messages and parsed documents
// are logged at debug level; set OnStatus/OnData after construction to also
// observe them directly.
func New(worker actionQueue) *Connector {
	return NewWithSkippedClamp(worker, sentence.DefaultSkippedClamp)
}

// NewWithSkippedClamp is like New but lets the caller configure the
// extractor's Skipped replay clamp, e.g. from process configuration.
func NewWithSkippedClamp(worker actionQueue, skippedClamp int) *Connector {
	c := &Connector{worker: worker}

	c.manager = sentence.NewManager(
		func(msg string) {
			slog.Debug("boundary: status", "message", msg)
			if c.OnStatus != nil {
				c.OnStatus(msg)
			}
		},
		func(obj map[string]interface{}) {
			slog.Debug("boundary: parsed sentence", "data", obj)
			if c.OnData != nil {
				c.OnData(obj)
			}
		},
		func(raw []byte) {
			worker.PayloadTelemetry(&queue.PayloadTelemetry{
				Data:        raw,
				Metadata:    c.Metadata,
				TimeCreated: time.Now(),
			})
		},
	)
	c.manager.Add(sentence.NewUKHASExtractorWithClamp(skippedClamp))

	return c
}

// Push feeds one demodulated byte through the extractor pipeline.
func (c *Connector) Push(b byte, flags sentence.Flags) {
	c.manager.Push(b, flags)
}

// Skipped reports n consecutive bytes that could not be demodulated.
func (c *Connector) Skipped(n int) {
	c.manager.Skipped(n)
}

// Payload replaces the active payload configuration used to crudely parse
// extracted sentences. It does not affect which bytes get queued for
// upload — every extracted sentence is uploaded regardless of whether it
// parses against a configured candidate.
func (c *Connector) Payload(raw interface{}) error {
	return c.manager.Payload(raw)
}
