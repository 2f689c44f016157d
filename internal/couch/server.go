package couch

import (
	"encoding/json"
	"fmt"
	"strings"
	"sync"
)

// Server holds the document store's base URL, the shared serialized HTTP
// client, and a FIFO cache of pre-fetched UUIDs for server-assigned document
// ids (spec.md §3, "UUID cache").
type Server struct {
	baseURL string
	http    *HTTPClient

	uuidMu    sync.Mutex
	uuidCache []string
}

// NewServer creates a Server for the document store at baseURL. The URL is
// normalized to always end with "/".
func NewServer(baseURL string, client *HTTPClient) *Server {
	if !strings.HasSuffix(baseURL, "/") {
		baseURL += "/"
	}
	return &Server{baseURL: baseURL, http: client}
}

type uuidsResponse struct {
	UUIDs []string `json:"uuids"`
}

// NextUUID returns a server-assigned document id. It pops from the FIFO
// cache if non-empty; otherwise it refills the cache with a single
// "_uuids?count=100" request, holding uuidMu across that HTTP call. This is
// safe only because NextUUID is called exclusively by the action-queue
// worker thread (spec.md §9): the cache is never shared with another
// goroutine that could contend for the mutex during the request.
func (s *Server) NextUUID() (string, error) {
	s.uuidMu.Lock()
	defer s.uuidMu.Unlock()

	if len(s.uuidCache) > 0 {
		uuid := s.uuidCache[0]
		s.uuidCache = s.uuidCache[1:]
		return uuid, nil
	}

	body, err := s.http.Get(s.baseURL + "_uuids?count=100")
	if err != nil {
		return "", err
	}

	var parsed uuidsResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return "", &ProtocolError{Message: fmt.Sprintf("invalid _uuids response: %v", err)}
	}
	if len(parsed.UUIDs) == 0 {
		return "", &ProtocolError{Message: "_uuids response contained no uuids"}
	}

	uuid := parsed.UUIDs[0]
	s.uuidCache = append(s.uuidCache, parsed.UUIDs[1:]...)
	return uuid, nil
}
