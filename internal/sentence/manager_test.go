package sentence

import "testing"

func TestManager_PushDeliversToAllExtractors(t *testing.T) {
	var statuses []string
	var data []map[string]interface{}
	m := NewManager(
		func(msg string) { statuses = append(statuses, msg) },
		func(obj map[string]interface{}) { data = append(data, obj) },
		nil,
	)
	m.Add(NewUKHASExtractor())

	for _, b := range []byte("junk$$CALLSIGN,1,2,3*0D\n") {
		m.Push(b, FlagNone)
	}

	if len(data) != 1 {
		t.Fatalf("expected exactly 1 parsed document, got %d", len(data))
	}
	if data[0]["payload"] != "CALLSIGN" {
		t.Errorf("expected payload CALLSIGN, got %v", data[0]["payload"])
	}
	if len(statuses) == 0 {
		t.Error("expected at least one status message")
	}
}

func TestManager_PayloadReplacesConfigurationAtomically(t *testing.T) {
	m := NewManager(nil, nil, nil)

	if got := m.Candidates(); got != nil {
		t.Errorf("expected nil candidates before any Payload call, got %v", got)
	}

	cfg := map[string]interface{}{
		"payload":  "CALLSIGN",
		"checksum": "xor",
		"fields":   []interface{}{map[string]interface{}{"name": "a"}},
	}
	if err := m.Payload(cfg); err != nil {
		t.Fatalf("Payload: %v", err)
	}
	if got := m.Candidates(); len(got) != 1 {
		t.Fatalf("expected 1 candidate after Payload, got %d", len(got))
	}

	if err := m.Payload(nil); err != nil {
		t.Fatalf("Payload(nil): %v", err)
	}
	if got := m.Candidates(); got != nil {
		t.Errorf("expected Payload(nil) to clear candidates, got %v", got)
	}
}

func TestManager_PayloadRejectsInvalidConfiguration(t *testing.T) {
	m := NewManager(nil, nil, nil)
	if err := m.Payload("not an object"); err == nil {
		t.Error("expected an error for an invalid payload configuration")
	}
	// A rejected Payload call must not clobber the existing configuration.
	if got := m.Candidates(); got != nil {
		t.Errorf("expected candidates to remain nil after a rejected Payload call, got %v", got)
	}
}

func TestManager_RawSentenceCallback(t *testing.T) {
	var raws [][]byte
	m := NewManager(nil, nil, func(raw []byte) { raws = append(raws, raw) })
	m.Add(NewUKHASExtractor())

	for _, b := range []byte("$$CALLSIGN,1,2,3*0D\n") {
		m.Push(b, FlagNone)
	}

	if len(raws) != 1 {
		t.Fatalf("expected exactly 1 raw sentence callback, got %d", len(raws))
	}
	if string(raws[0]) != "$$CALLSIGN,1,2,3*0D\n" {
		t.Errorf("unexpected raw sentence: %q", raws[0])
	}
}
