package couch

import "fmt"

// InvalidArgumentError signals a caller-side precondition violation, e.g. an
// empty document id or a metadata field the caller was forbidden to set.
type InvalidArgumentError struct {
	Message string
}

func (e *InvalidArgumentError) Error() string {
	return "invalid argument: " + e.Message
}

// ProtocolError signals the document store returned a response shape we
// don't understand: non-JSON, a missing field, a mismatched echoed id.
type ProtocolError struct {
	Message string
}

func (e *ProtocolError) Error() string {
	return "protocol: " + e.Message
}

// HTTPStatusError is returned for any non-2xx response other than the 409
// that save_doc translates into Conflict.
type HTTPStatusError struct {
	Code int
	URL  string
}

func (e *HTTPStatusError) Error() string {
	return fmt.Sprintf("http status %d from %s", e.Code, e.URL)
}

// TransportError wraps an underlying HTTP client failure (DNS, dial, TLS,
// timeout) that never reached the document store.
type TransportError struct {
	Op     string
	Detail string
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("transport error during %s: %s", e.Op, e.Detail)
}

// ConflictError is the translated form of an HTTP 409 from a document PUT.
// It is a control-flow signal recovered locally by the uploader's merge
// loop; see internal/uploader.
type ConflictError struct {
	DocID string
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("conflict saving document %q", e.DocID)
}
