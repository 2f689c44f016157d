// Package sentence implements the byte-level extractor pipeline: framing
// UKHAS telemetry sentences out of a noisy demodulator byte stream and
// crudely parsing them against an optional payload configuration.
package sentence

// Flags modify how a single byte is interpreted by an Extractor.
type Flags int

const (
	// FlagNone is the default, no special handling.
	FlagNone Flags = 0

	// FlagBaudotHack makes the extractor store a '#' as '*' — needed on
	// baudot-restricted links that cannot transmit the checksum delimiter
	// and send '#' in its place (spec.md glossary).
	FlagBaudotHack Flags = 1 << iota
)
