package sentence

import "testing"

type fakeHost struct {
	statuses    []string
	data        []map[string]interface{}
	rawSentence [][]byte
	candidates  []Candidate
}

func (f *fakeHost) Status(msg string)               { f.statuses = append(f.statuses, msg) }
func (f *fakeHost) Data(obj map[string]interface{}) { f.data = append(f.data, obj) }
func (f *fakeHost) RawSentence(buf []byte)          { f.rawSentence = append(f.rawSentence, append([]byte(nil), buf...)) }
func (f *fakeHost) Candidates() []Candidate         { return f.candidates }

func feed(e *UKHASExtractor, s string) {
	for i := 0; i < len(s); i++ {
		e.Push(s[i], FlagNone)
	}
}

func TestUKHASExtractor_FramesOneSentence(t *testing.T) {
	host := &fakeHost{}
	e := NewUKHASExtractor()
	e.bindHost(host)

	feed(e, "garbage$$CALLSIGN,1,2,3*0D\nmore garbage")

	if len(host.rawSentence) != 1 {
		t.Fatalf("expected exactly 1 framed sentence, got %d", len(host.rawSentence))
	}
	if string(host.rawSentence[0]) != "$$CALLSIGN,1,2,3*0D\n" {
		t.Errorf("unexpected framed sentence: %q", host.rawSentence[0])
	}
	if len(host.data) != 1 {
		t.Fatalf("expected exactly 1 parsed document, got %d", len(host.data))
	}
	if host.data[0]["payload"] != "CALLSIGN" {
		t.Errorf("expected payload CALLSIGN, got %v", host.data[0]["payload"])
	}
}

func TestUKHASExtractor_StatusMessagesMatchSpecLiterally(t *testing.T) {
	host := &fakeHost{}
	e := NewUKHASExtractor()
	e.bindHost(host)

	feed(e, "garbage$$ABC,1,2*07\n")

	if len(host.statuses) < 2 {
		t.Fatalf("expected at least 2 status messages, got %d: %v", len(host.statuses), host.statuses)
	}
	if host.statuses[0] != "UKHAS Extractor: found start delimiter" {
		t.Errorf("expected literal start-delimiter status, got %q", host.statuses[0])
	}
	if host.statuses[1] != "UKHAS Extractor: extracted string" {
		t.Errorf("expected literal extracted-string status, got %q", host.statuses[1])
	}
}

func TestUKHASExtractor_RestartsOnNewStartDelimiterMidFrame(t *testing.T) {
	host := &fakeHost{}
	e := NewUKHASExtractor()
	e.bindHost(host)

	feed(e, "$$ABANDONED,x$$CALLSIGN,1,2,3*0D\n")

	if len(host.rawSentence) != 1 {
		t.Fatalf("expected exactly 1 framed sentence, got %d", len(host.rawSentence))
	}
	if string(host.rawSentence[0]) != "$$CALLSIGN,1,2,3*0D\n" {
		t.Errorf("expected only the second frame to be extracted, got %q", host.rawSentence[0])
	}
}

func TestUKHASExtractor_GivesUpPastHardLimit(t *testing.T) {
	host := &fakeHost{}
	e := NewUKHASExtractor()
	e.bindHost(host)

	feed(e, "$$")
	for i := 0; i < bufferHardLimit+10; i++ {
		e.Push('A', FlagNone)
	}
	if e.extracting {
		t.Error("expected extractor to give up once the buffer passed the hard limit")
	}
}

func TestUKHASExtractor_GivesUpOnGarbage(t *testing.T) {
	host := &fakeHost{}
	e := NewUKHASExtractor()
	e.bindHost(host)

	feed(e, "$$")
	for i := 0; i < garbageLimit+1; i++ {
		e.Push(0x01, FlagNone)
	}
	if e.extracting {
		t.Error("expected extractor to give up once garbageCount passed the limit")
	}
	last := host.statuses[len(host.statuses)-1]
	if last != "UKHAS Extractor: giving up" {
		t.Errorf("expected literal giving-up status, got %q", last)
	}
}

func TestUKHASExtractor_BaudotHackSubstitutesChecksumDelimiter(t *testing.T) {
	host := &fakeHost{}
	e := NewUKHASExtractor()
	e.bindHost(host)

	e.Push('$', FlagNone)
	e.Push('$', FlagNone)
	for _, b := range []byte("CALLSIGN,1,2,3") {
		e.Push(b, FlagNone)
	}
	e.Push('#', FlagBaudotHack)
	for _, b := range []byte("0D") {
		e.Push(b, FlagNone)
	}
	e.Push('\n', FlagNone)

	if len(host.rawSentence) != 1 {
		t.Fatalf("expected exactly 1 framed sentence, got %d", len(host.rawSentence))
	}
	if string(host.rawSentence[0]) != "$$CALLSIGN,1,2,3*0D\n" {
		t.Errorf("expected '#' to be translated to '*', got %q", host.rawSentence[0])
	}
}

func TestUKHASExtractor_Skipped(t *testing.T) {
	host := &fakeHost{}
	e := NewUKHASExtractor()
	e.bindHost(host)

	feed(e, "$$CALLSIGN")
	e.Skipped(5) // a short gap shouldn't trip the garbage limit
	feed(e, ",1,2,3*0D\n")

	if len(host.rawSentence) != 1 {
		t.Fatalf("expected exactly 1 framed sentence, got %d", len(host.rawSentence))
	}
}

func TestUKHASExtractor_SkippedIsClampedAndCanAbortTheFrame(t *testing.T) {
	host := &fakeHost{}
	e := NewUKHASExtractor()
	e.bindHost(host)

	feed(e, "$$CALLSIGN")
	e.Skipped(10000) // clamped to skippedClamp, which exceeds garbageLimit
	if e.extracting {
		t.Error("expected a long reported gap (even clamped) to abandon the in-progress frame")
	}
}
