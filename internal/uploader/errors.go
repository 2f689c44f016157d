package uploader

// CollisionError indicates that a payload_telemetry document already exists
// under the content-addressed id, but its "_raw" data differs from what we
// tried to upload. A correct SHA-256 implementation makes this exceedingly
// unlikely outside of an actual hash collision or a corrupted document.
type CollisionError struct {
	DocID string
}

func (e *CollisionError) Error() string {
	return "uploader: hash collision or data mismatch for document " + e.DocID
}

// UnmergeableError indicates that the optimistic-concurrency merge loop for
// payload_telemetry exhausted its retry budget without a successful save.
type UnmergeableError struct {
	DocID    string
	Attempts int
}

func (e *UnmergeableError) Error() string {
	return "uploader: could not merge into document " + e.DocID + " after retry attempts exhausted"
}
