package couch

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// Document is a JSON document as stored in the document store. Its shape is
// dynamic (receivers, listener data, etc. vary per spec.md §3), so it is
// represented as a generic map rather than a fixed struct.
type Document map[string]interface{}

// Database is a reference to a single database on a Server.
type Database struct {
	server *Server
	http   *HTTPClient
	url    string // server_url + escape(db) + "/"
}

// NewDatabase opens a Database handle for db on the given Server.
func NewDatabase(server *Server, baseURL, db string, client *HTTPClient) *Database {
	if !strings.HasSuffix(baseURL, "/") {
		baseURL += "/"
	}
	return &Database{
		server: server,
		http:   client,
		url:    baseURL + escape(db) + "/",
	}
}

// GetDoc fetches the document with the given id.
func (d *Database) GetDoc(id string) (Document, error) {
	body, err := d.http.Get(d.url + escape(id))
	if err != nil {
		return nil, err
	}

	var doc Document
	if err := json.Unmarshal(body, &doc); err != nil {
		return nil, &ProtocolError{Message: fmt.Sprintf("invalid document JSON for %q: %v", id, err)}
	}
	return doc, nil
}

type saveDocResponse struct {
	ID  string `json:"id"`
	Rev string `json:"rev"`
}

// SaveDoc assigns doc a server UUID if it has no "_id", validates the id,
// PUTs the serialized document, and on success writes the server-assigned
// "_rev" back into doc. An HTTP 409 is translated into ConflictError so
// callers (the uploader's merge loop) can recover from it locally.
func (d *Database) SaveDoc(doc Document) error {
	id, hasID := doc["_id"]
	if !hasID || id == nil {
		newID, err := d.server.NextUUID()
		if err != nil {
			return err
		}
		doc["_id"] = newID
		id = newID
	}

	idStr, ok := id.(string)
	if !ok {
		return &InvalidArgumentError{Message: "_id must be a string if set"}
	}
	if idStr == "" {
		return &InvalidArgumentError{Message: "_id cannot be an empty string"}
	}
	if strings.HasPrefix(idStr, "_") {
		return &InvalidArgumentError{Message: "_id cannot start with _"}
	}

	body, err := json.Marshal(doc)
	if err != nil {
		return &InvalidArgumentError{Message: fmt.Sprintf("document is not serializable: %v", err)}
	}

	respBody, err := d.http.Put(d.url+escape(idStr), body)
	if err != nil {
		var statusErr *HTTPStatusError
		if errors.As(err, &statusErr) && statusErr.Code == 409 {
			return &ConflictError{DocID: idStr}
		}
		return err
	}

	var info saveDocResponse
	if err := json.Unmarshal(respBody, &info); err != nil {
		return &ProtocolError{Message: fmt.Sprintf("invalid save response: %v", err)}
	}
	if info.ID == "" || info.Rev == "" {
		return &ProtocolError{Message: "save response missing id or rev"}
	}
	if info.ID != idStr {
		return &ProtocolError{Message: "server echoed back the wrong _id"}
	}

	doc["_rev"] = info.Rev
	return nil
}

// View queries a design-document view (or, when designDoc is empty, a
// top-level view name directly under the database) with the given query
// options, and returns the parsed result.
func (d *Database) View(designDoc, viewName string, options map[string]string) (map[string]interface{}, error) {
	var viewURL string
	if designDoc != "" {
		viewURL = d.url + "_design/" + escape(designDoc) + "/_view/" + viewName + queryString(options, true)
	} else {
		viewURL = d.url + viewName + queryString(options, true)
	}

	body, err := d.http.Get(viewURL)
	if err != nil {
		return nil, err
	}

	var result map[string]interface{}
	if err := json.Unmarshal(body, &result); err != nil {
		return nil, &ProtocolError{Message: fmt.Sprintf("invalid view response: %v", err)}
	}
	return result, nil
}
