package sentence

import "sync"

// Host is the callback surface an Extractor uses to report status messages,
// parsed data, and raw sentence bytes, and to read the currently configured
// candidates. Manager is the only production implementation; tests can
// supply their own.
type Host interface {
	Status(msg string)
	Data(obj map[string]interface{})
	RawSentence(buf []byte)
	Candidates() []Candidate
}

// Extractor consumes a byte stream one byte (or skipped-byte run) at a time
// and reports frames it finds back through its bound Host.
type Extractor interface {
	Push(b byte, flags Flags)
	Skipped(n int)
}

type hostBinder interface {
	bindHost(Host)
}

// StatusFunc receives human-readable progress and diagnostic messages.
type StatusFunc func(msg string)

// DataFunc receives a successfully parsed (or basic) sentence document.
type DataFunc func(obj map[string]interface{})

// RawSentenceFunc receives the raw bytes of a framed sentence, for
// content-addressed upload regardless of parse outcome.
type RawSentenceFunc func(raw []byte)

// Manager owns the set of registered Extractors and the current payload
// configuration, and fans out byte pushes to every extractor, one Push or
// Skipped call at a time. It implements Host so extractors can report back
// through it.
//
// The payload configuration is replaced atomically — never mutated in
// place — so a read taken mid-parse always sees a fully formed set of
// candidates (spec.md §9).
type Manager struct {
	mu         sync.Mutex
	extractors []Extractor
	candidates []Candidate

	// pushMu serializes delivery to the extractors across Push and Skipped.
	pushMu sync.Mutex

	OnStatus      StatusFunc
	OnData        DataFunc
	OnRawSentence RawSentenceFunc
}

// NewManager creates an empty Manager with the given callbacks. Any
// callback may be nil, in which case that channel of output is dropped.
func NewManager(onStatus StatusFunc, onData DataFunc, onRawSentence RawSentenceFunc) *Manager {
	return &Manager{
		OnStatus:      onStatus,
		OnData:        onData,
		OnRawSentence: onRawSentence,
	}
}

// Add registers e and binds it to this Manager as its Host.
func (m *Manager) Add(e Extractor) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if hb, ok := e.(hostBinder); ok {
		hb.bindHost(m)
	}
	m.extractors = append(m.extractors, e)
}

// Payload replaces the current payload configuration. raw is the decoded
// JSON document (object or array) described by NormalizeConfig; a nil raw
// clears the configuration back to "no candidates" (every sentence is
// parsed as basic).
func (m *Manager) Payload(raw interface{}) error {
	var candidates []Candidate
	if raw != nil {
		var err error
		candidates, err = NormalizeConfig(raw)
		if err != nil {
			return err
		}
	}

	m.mu.Lock()
	m.candidates = candidates
	m.mu.Unlock()
	return nil
}

// Push delivers one byte to every registered extractor, in registration
// order.
func (m *Manager) Push(b byte, flags Flags) {
	m.pushMu.Lock()
	defer m.pushMu.Unlock()

	m.mu.Lock()
	extractors := m.extractors
	m.mu.Unlock()

	for _, e := range extractors {
		e.Push(b, flags)
	}
}

// Skipped reports n consecutive bytes the caller could not demodulate, to
// every registered extractor.
func (m *Manager) Skipped(n int) {
	m.pushMu.Lock()
	defer m.pushMu.Unlock()

	m.mu.Lock()
	extractors := m.extractors
	m.mu.Unlock()

	for _, e := range extractors {
		e.Skipped(n)
	}
}

// Status implements Host.
func (m *Manager) Status(msg string) {
	if m.OnStatus != nil {
		m.OnStatus(msg)
	}
}

// Data implements Host.
func (m *Manager) Data(obj map[string]interface{}) {
	if m.OnData != nil {
		m.OnData(obj)
	}
}

// RawSentence implements Host.
func (m *Manager) RawSentence(buf []byte) {
	if m.OnRawSentence != nil {
		m.OnRawSentence(append([]byte(nil), buf...))
	}
}

// Candidates implements Host, returning a snapshot of the current payload
// configuration. Since candidates are replaced wholesale rather than
// mutated, returning the slice itself (not a copy) is safe.
func (m *Manager) Candidates() []Candidate {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.candidates
}
