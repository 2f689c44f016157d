package httpfeed

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/ukhas/habitat-connector/internal/sentence"
)

type fakePusher struct {
	pushed []byte
}

func (f *fakePusher) Push(b byte, flags sentence.Flags) { f.pushed = append(f.pushed, b) }

func TestHealthz(t *testing.T) {
	r := NewRouter(&fakePusher{})
	srv := httptest.NewServer(r)
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/healthz")
	if err != nil {
		t.Fatalf("GET /healthz: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Errorf("expected 200, got %d", resp.StatusCode)
	}
}

func TestFeed_PushesEveryByte(t *testing.T) {
	pusher := &fakePusher{}
	r := NewRouter(pusher)
	srv := httptest.NewServer(r)
	defer srv.Close()

	body := "$$CALLSIGN,1,2,3*0D\n"
	resp, err := http.Post(srv.URL+"/v1/feed", "application/octet-stream", strings.NewReader(body))
	if err != nil {
		t.Fatalf("POST /v1/feed: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusAccepted {
		t.Errorf("expected 202, got %d", resp.StatusCode)
	}
	if string(pusher.pushed) != body {
		t.Errorf("expected every byte pushed in order, got %q", pusher.pushed)
	}
}

func TestFeed_RejectsOversizedBody(t *testing.T) {
	pusher := &fakePusher{}
	r := NewRouter(pusher)
	srv := httptest.NewServer(r)
	defer srv.Close()

	oversized := bytes.Repeat([]byte("A"), maxFeedBytes+10)
	resp, err := http.Post(srv.URL+"/v1/feed", "application/octet-stream", bytes.NewReader(oversized))
	if err != nil {
		t.Fatalf("POST /v1/feed: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusRequestEntityTooLarge {
		t.Errorf("expected 413, got %d", resp.StatusCode)
	}
}
