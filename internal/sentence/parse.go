package sentence

import (
	"fmt"
	"strings"
)

// CrudeParse implements the UKHAS "crude parse" (spec.md §4.4): verify
// framing and checksum, split the data section on commas, and — if any
// candidate sentence descriptor matches — assign field values by position.
//
// A framing or checksum failure is a genuine error: the caller should emit
// a status with err.Error() and fall back to a minimal {"_sentence": ...}
// document. A checksum pass with no matching candidate is NOT an error: the
// returned map carries "_basic": true, and statusFn (if non-nil) receives
// one diagnostic per rejected candidate.
func CrudeParse(buffer []byte, candidates []Candidate, statusFn func(string)) (map[string]interface{}, error) {
	raw := string(buffer)
	if !strings.HasSuffix(raw, "\n") {
		return nil, fmt.Errorf("sentence: buffer does not end with a newline")
	}
	raw = strings.TrimSuffix(raw, "\n")

	if !strings.HasPrefix(raw, "$$") {
		return nil, fmt.Errorf("sentence: buffer does not start with \"$$\"")
	}

	star := strings.LastIndexByte(raw, '*')
	if star < 2 {
		return nil, fmt.Errorf("sentence: buffer has no checksum delimiter \"*\"")
	}

	data := raw[2:star]
	checksum := strings.ToUpper(raw[star+1:])

	var checksumName, expected string
	switch len(checksum) {
	case 2:
		checksumName = "xor"
		expected = xorChecksum([]byte(data))
	case 4:
		checksumName = "crc16-ccitt"
		expected = crc16CCITT([]byte(data))
	default:
		return nil, fmt.Errorf("sentence: checksum %q is neither 2 nor 4 hex digits", checksum)
	}
	if checksum != expected {
		return nil, fmt.Errorf("sentence: checksum mismatch: sentence says %s, expected %s (%s)", checksum, expected, checksumName)
	}

	parts := strings.Split(data, ",")
	callsign := parts[0]
	if callsign == "" {
		return nil, fmt.Errorf("sentence: empty callsign")
	}

	if configured := configuredCallsign(candidates); configured != "" && configured != callsign {
		return nil, fmt.Errorf("sentence: callsign %q does not match configured payload %q", callsign, configured)
	}

	basic := map[string]interface{}{
		"_sentence": string(buffer),
		"_protocol": "UKHAS",
		"_parsed":   true,
		"payload":   callsign,
	}

	fieldValues := parts[1:]
	for _, candidate := range candidates {
		if candidate.Checksum != "" && candidate.Checksum != checksumName {
			if statusFn != nil {
				statusFn(fmt.Sprintf("sentence: candidate for %q expects checksum %q, sentence used %q", candidate.Payload, candidate.Checksum, checksumName))
			}
			continue
		}
		if len(candidate.Fields) != len(fieldValues) {
			if statusFn != nil {
				statusFn(fmt.Sprintf("sentence: candidate for %q expects %d fields, sentence has %d", candidate.Payload, len(candidate.Fields), len(fieldValues)))
			}
			continue
		}

		parsed := make(map[string]interface{}, len(basic)+len(candidate.Fields))
		for k, v := range basic {
			parsed[k] = v
		}
		for i, field := range candidate.Fields {
			value := fieldValues[i]
			if value == "" {
				continue
			}
			if field.Sensor == "stdtelem.coordinate" && isCoordinateFormat(field.Format) {
				converted, err := convertCoordinate(value)
				if err != nil {
					if statusFn != nil {
						statusFn(err.Error())
					}
					parsed[field.Name] = value
					continue
				}
				parsed[field.Name] = converted
				continue
			}
			parsed[field.Name] = value
		}
		return parsed, nil
	}

	if len(candidates) > 0 && statusFn != nil {
		statusFn("sentence: no configured candidate matched, falling back to basic parse")
	}
	basic["_basic"] = true
	return basic, nil
}

// configuredCallsign returns the first non-empty Payload among candidates,
// used as the single "configured callsign" the extracted callsign must
// match (spec.md §4.4). A configuration listing several payloads with no
// shared callsign is unusual; in that case we match against whichever
// candidate names one first rather than rejecting every sentence outright.
func configuredCallsign(candidates []Candidate) string {
	for _, c := range candidates {
		if c.Payload != "" {
			return c.Payload
		}
	}
	return ""
}
