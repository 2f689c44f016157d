package sentence

const (
	// bufferHardLimit is the hard byte cap on an in-progress sentence
	// buffer (spec.md §4.4); a frame that grows past it without a
	// terminating newline is abandoned as garbage.
	bufferHardLimit = 1000

	// bufferCapacityHint is the initial capacity reserved for a new
	// buffer, sized for a typical UKHAS sentence to avoid reallocation.
	bufferCapacityHint = 256

	// garbageLimit is the number of non-printable bytes tolerated inside
	// an in-progress frame before it is abandoned.
	garbageLimit = 16

	// DefaultSkippedClamp bounds how many synthetic zero bytes Skipped
	// will replay for a single gap report, so a huge reported gap can't
	// make one Skipped call scan megabytes of garbage.
	DefaultSkippedClamp = 20
)

// UKHASExtractor implements the UKHAS sentence protocol: frames start at a
// "$$" delimiter and end at the next "\n", with an optional baudot
// translation of '#' into '*' while extracting (spec.md §4.4 and
// glossary). It satisfies both Extractor and hostBinder.
type UKHASExtractor struct {
	host         Host
	extracting   bool
	last         byte
	buffer       []byte
	garbageCount int
	skippedClamp int
}

// NewUKHASExtractor creates a UKHASExtractor ready to be registered with a
// Manager via Manager.Add, using DefaultSkippedClamp.
func NewUKHASExtractor() *UKHASExtractor {
	return NewUKHASExtractorWithClamp(DefaultSkippedClamp)
}

// NewUKHASExtractorWithClamp is like NewUKHASExtractor but lets the caller
// bound Skipped's replay count explicitly (spec.md §9 open question: the
// clamp is a deployment choice, not a fixed protocol constant).
func NewUKHASExtractorWithClamp(skippedClamp int) *UKHASExtractor {
	return &UKHASExtractor{
		buffer:       make([]byte, 0, bufferCapacityHint),
		skippedClamp: skippedClamp,
	}
}

func (e *UKHASExtractor) bindHost(h Host) {
	e.host = h
}

func (e *UKHASExtractor) resetBuffer() {
	e.buffer = e.buffer[:0]
	e.garbageCount = 0
}

// Skipped replays up to skippedClamp zero bytes for a reported gap of n
// unreadable bytes, so the extractor's garbage/length bookkeeping still
// sees the gap without scanning an unbounded run.
func (e *UKHASExtractor) Skipped(n int) {
	if n > e.skippedClamp {
		n = e.skippedClamp
	}
	for i := 0; i < n; i++ {
		e.Push(0x00, FlagNone)
	}
}

// Push feeds one byte (after substitution flags are applied) through the
// framing state machine.
func (e *UKHASExtractor) Push(b byte, flags Flags) {
	switch {
	case e.last == '$' && b == '$':
		e.buffer = e.buffer[:0]
		e.buffer = append(e.buffer, '$', '$')
		e.garbageCount = 0
		e.extracting = true
		e.status("found start delimiter")

	case e.extracting && b == '\n':
		e.buffer = append(e.buffer, '\n')
		raw := append([]byte(nil), e.buffer...)
		e.resetBuffer()
		e.extracting = false

		if e.host != nil {
			e.host.RawSentence(raw)
		}
		e.status("extracted string")
		e.parse(raw)

	case e.extracting:
		if flags&FlagBaudotHack != 0 && b == '#' {
			b = '*'
		}
		e.buffer = append(e.buffer, b)
		if b < 0x20 || b > 0x7E {
			e.garbageCount++
		}
		if len(e.buffer) > bufferHardLimit || e.garbageCount > garbageLimit {
			e.status("giving up")
			e.resetBuffer()
			e.extracting = false
		}
	}

	e.last = b
}

func (e *UKHASExtractor) status(msg string) {
	if e.host != nil {
		e.host.Status("UKHAS Extractor: " + msg)
	}
}

func (e *UKHASExtractor) parse(raw []byte) {
	if e.host == nil {
		return
	}

	parsed, err := CrudeParse(raw, e.host.Candidates(), e.status)
	if err != nil {
		e.status(err.Error())
		e.host.Data(map[string]interface{}{"_sentence": string(raw)})
		return
	}
	e.host.Data(parsed)
}
