// Package uploader implements the content-addressed, conflict-merging
// upload protocol (spec.md §4.3) against a document store.
package uploader

import (
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/ukhas/habitat-connector/internal/couch"
)

var forbiddenMetadataKeys = []string{
	"time_created", "time_uploaded", "latest_listener_info", "latest_listener_telemetry",
}

// Uploader is a single connector's view of a callsign and the document
// store it uploads to. All state mutation — including the latest listener
// doc ids recorded on every subsequent payload_telemetry upload — happens
// under mu, and in production is driven exclusively by the action-queue
// worker goroutine (spec.md §9), mirroring the original connector's
// single-mutex, single-thread design.
type Uploader struct {
	mu sync.Mutex

	callsign         string
	database         *couch.Database
	maxMergeAttempts int

	latestListenerInfo      string
	latestListenerTelemetry string
}

// New creates an Uploader for callsign, uploading to database. callsign
// must be non-empty. maxMergeAttempts bounds the payload_telemetry
// conflict-merge retry loop (spec.md default: 20).
func New(callsign string, database *couch.Database, maxMergeAttempts int) (*Uploader, error) {
	if callsign == "" {
		return nil, &couch.InvalidArgumentError{Message: "callsign of zero length"}
	}
	return &Uploader{
		callsign:         callsign,
		database:         database,
		maxMergeAttempts: maxMergeAttempts,
	}, nil
}

func sha256Hex(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

func setTime(doc map[string]interface{}, timeCreated time.Time) {
	doc["time_uploaded"] = time.Now().Unix()
	doc["time_created"] = timeCreated.Unix()
}

// PayloadTelemetry uploads data (the raw sentence bytes) as a
// payload_telemetry document, merging into any existing document with the
// same content-addressed id instead of overwriting it. It returns the
// document id (the lowercase hex SHA-256 of data).
func (u *Uploader) PayloadTelemetry(data []byte, metadata map[string]interface{}, timeCreated time.Time) (string, error) {
	u.mu.Lock()
	defer u.mu.Unlock()

	if len(data) == 0 {
		return "", &couch.InvalidArgumentError{Message: "cannot upload zero-length data"}
	}

	for _, key := range forbiddenMetadataKeys {
		if _, present := metadata[key]; present {
			return "", &couch.InvalidArgumentError{Message: fmt.Sprintf("found forbidden key %q in metadata", key)}
		}
	}

	docID := sha256Hex(data)
	dataB64 := base64.StdEncoding.EncodeToString(data)

	receiverInfo := make(map[string]interface{}, len(metadata)+2)
	for k, v := range metadata {
		receiverInfo[k] = v
	}
	if u.latestListenerInfo != "" {
		receiverInfo["latest_listener_info"] = u.latestListenerInfo
	}
	if u.latestListenerTelemetry != "" {
		receiverInfo["latest_listener_telemetry"] = u.latestListenerTelemetry
	}

	setTime(receiverInfo, timeCreated)
	doc := couch.Document{
		"_id":  docID,
		"type": "payload_telemetry",
		"data": map[string]interface{}{"_raw": dataB64},
		"receivers": map[string]interface{}{
			u.callsign: receiverInfo,
		},
	}

	err := u.database.SaveDoc(doc)
	if err == nil {
		return docID, nil
	}

	var conflict *couch.ConflictError
	if !errors.As(err, &conflict) {
		return "", err
	}

	for attempt := 0; attempt < u.maxMergeAttempts; attempt++ {
		existing, err := u.database.GetDoc(docID)
		if err != nil {
			return "", err
		}

		if err := mergePayloadTelemetry(existing, dataB64, u.callsign, receiverInfo, timeCreated); err != nil {
			return "", err
		}

		err = u.database.SaveDoc(existing)
		if err == nil {
			return docID, nil
		}
		if !errors.As(err, &conflict) {
			return "", err
		}
	}

	return "", &UnmergeableError{DocID: docID, Attempts: u.maxMergeAttempts}
}

func mergePayloadTelemetry(doc couch.Document, dataB64, callsign string, receiverInfo map[string]interface{}, timeCreated time.Time) error {
	existingData, _ := doc["data"].(map[string]interface{})
	otherB64, _ := existingData["_raw"].(string)
	if otherB64 == "" || otherB64 != dataB64 {
		id, _ := doc["_id"].(string)
		return &CollisionError{DocID: id}
	}

	receivers, ok := doc["receivers"].(map[string]interface{})
	if !ok {
		return &couch.ProtocolError{Message: "server returned an invalid payload_telemetry document: receivers is not an object"}
	}

	setTime(receiverInfo, timeCreated)
	receivers[callsign] = receiverInfo
	doc["receivers"] = receivers
	return nil
}

// listenerDoc uploads data tagged with the uploader's callsign as a
// listener_telemetry or listener_info document (docType), and returns its
// assigned id.
func (u *Uploader) listenerDoc(docType string, data map[string]interface{}, timeCreated time.Time) (string, error) {
	if data == nil {
		return "", &couch.InvalidArgumentError{Message: "data must be an object"}
	}
	if _, present := data["callsign"]; present {
		return "", &couch.InvalidArgumentError{Message: "forbidden key \"callsign\" in data"}
	}

	copied := make(map[string]interface{}, len(data)+1)
	for k, v := range data {
		copied[k] = v
	}
	copied["callsign"] = u.callsign

	doc := couch.Document{
		"type": docType,
		"data": copied,
	}
	setTime(doc, timeCreated)

	if err := u.database.SaveDoc(doc); err != nil {
		return "", err
	}
	return doc["_id"].(string), nil
}

// ListenerTelemetry uploads a listener_telemetry document and remembers its
// id so subsequent PayloadTelemetry uploads can reference it.
func (u *Uploader) ListenerTelemetry(data map[string]interface{}, timeCreated time.Time) (string, error) {
	u.mu.Lock()
	defer u.mu.Unlock()

	id, err := u.listenerDoc("listener_telemetry", data, timeCreated)
	if err != nil {
		return "", err
	}
	u.latestListenerTelemetry = id
	return id, nil
}

// ListenerInfo uploads a listener_info document and remembers its id so
// subsequent PayloadTelemetry uploads can reference it.
func (u *Uploader) ListenerInfo(data map[string]interface{}, timeCreated time.Time) (string, error) {
	u.mu.Lock()
	defer u.mu.Unlock()

	id, err := u.listenerDoc("listener_info", data, timeCreated)
	if err != nil {
		return "", err
	}
	u.latestListenerInfo = id
	return id, nil
}

// Flights returns the flight documents active at the given time, querying
// the "flight" design document's "end_start_including_payloads" view — the
// same view the upstream habitat web UI uses to resolve which flight a
// payload belongs to (supplemented from the original connector's
// Uploader::flights, whose body was not present in the retrieved source).
func (u *Uploader) Flights(at time.Time) ([]couch.Document, error) {
	options := map[string]string{
		"include_docs": "true",
		"startkey":     fmt.Sprintf("[%d]", at.Unix()),
		"endkey":       fmt.Sprintf("[%d,{}]", at.Unix()),
	}

	result, err := u.database.View("flight", "end_start_including_payloads", options)
	if err != nil {
		return nil, err
	}

	rows, _ := result["rows"].([]interface{})
	docs := make([]couch.Document, 0, len(rows))
	for _, row := range rows {
		robj, ok := row.(map[string]interface{})
		if !ok {
			continue
		}
		if doc, ok := robj["doc"].(map[string]interface{}); ok {
			docs = append(docs, couch.Document(doc))
		}
	}
	return docs, nil
}
