package queue

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/ukhas/habitat-connector/internal/couch"
	"github.com/ukhas/habitat-connector/internal/uploader"
)

// newStubUploaderWithFlights builds an Uploader backed by an httptest
// server that answers any view query with one flight document.
func newStubUploaderWithFlights(t *testing.T) (*uploader.Uploader, error) {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]interface{}{
			"rows": []interface{}{
				map[string]interface{}{
					"doc": map[string]interface{}{"_id": "flight1", "type": "flight"},
				},
			},
		})
	}))
	t.Cleanup(srv.Close)

	client := couch.NewHTTPClient(2 * time.Second)
	server := couch.NewServer(srv.URL, client)
	db := couch.NewDatabase(server, srv.URL, "habitat", client)
	return uploader.New("M0TEST", db, 20)
}
