package sentence

import "fmt"

// Field describes one comma-separated value in a UKHAS sentence.
type Field struct {
	Name   string
	Sensor string
	Format string
}

// Candidate is one sentence descriptor to try during a crude parse: the
// payload (callsign) it applies to, the checksum algorithm it expects, and
// the ordered field list it expects after the callsign.
type Candidate struct {
	Payload  string
	Checksum string
	Fields   []Field
}

// NormalizeConfig resolves a raw payload configuration document (spec.md §3)
// into the Candidates a crude parse should try, in order. The document may
// take any of these shapes:
//
//   - a single object {payload, checksum, sentence: {fields: [...]}}
//   - an array of such objects, each describing a distinct payload
//   - a single object whose "sentence" key is itself an array of
//     {fields: [...]}, i.e. several sentence formats for one payload
//   - a bare object that carries "fields" directly, with no "sentence"
//     wrapper — the top-level object is then the descriptor itself
//     (Open Question: resolved in favor of this fallback so a minimal
//     configuration doesn't require redundant nesting)
func NormalizeConfig(raw interface{}) ([]Candidate, error) {
	switch v := raw.(type) {
	case []interface{}:
		var out []Candidate
		for _, item := range v {
			c, err := candidatesFromObject(item)
			if err != nil {
				return nil, err
			}
			out = append(out, c...)
		}
		return out, nil
	case map[string]interface{}:
		return candidatesFromObject(v)
	default:
		return nil, fmt.Errorf("sentence: payload configuration must be an object or an array of objects")
	}
}

func candidatesFromObject(raw interface{}) ([]Candidate, error) {
	obj, ok := raw.(map[string]interface{})
	if !ok {
		return nil, fmt.Errorf("sentence: candidate descriptor must be an object")
	}
	payload, _ := obj["payload"].(string)
	checksum, _ := obj["checksum"].(string)

	if s, ok := obj["sentence"]; ok {
		switch sv := s.(type) {
		case map[string]interface{}:
			fields, err := fieldsFromObject(sv)
			if err != nil {
				return nil, err
			}
			return []Candidate{{Payload: payload, Checksum: checksum, Fields: fields}}, nil
		case []interface{}:
			var out []Candidate
			for _, item := range sv {
				iobj, ok := item.(map[string]interface{})
				if !ok {
					return nil, fmt.Errorf("sentence: \"sentence\" array item must be an object")
				}
				fields, err := fieldsFromObject(iobj)
				if err != nil {
					return nil, err
				}
				out = append(out, Candidate{Payload: payload, Checksum: checksum, Fields: fields})
			}
			return out, nil
		default:
			return nil, fmt.Errorf("sentence: \"sentence\" must be an object or an array")
		}
	}

	if _, ok := obj["fields"]; ok {
		fields, err := fieldsFromObject(obj)
		if err != nil {
			return nil, err
		}
		return []Candidate{{Payload: payload, Checksum: checksum, Fields: fields}}, nil
	}

	return nil, fmt.Errorf("sentence: candidate descriptor has neither \"sentence\" nor \"fields\"")
}

func fieldsFromObject(obj map[string]interface{}) ([]Field, error) {
	raw, ok := obj["fields"]
	if !ok {
		return nil, fmt.Errorf("sentence: descriptor missing \"fields\"")
	}
	arr, ok := raw.([]interface{})
	if !ok {
		return nil, fmt.Errorf("sentence: \"fields\" must be an array")
	}

	fields := make([]Field, 0, len(arr))
	for _, item := range arr {
		fobj, ok := item.(map[string]interface{})
		if !ok {
			return nil, fmt.Errorf("sentence: field entry must be an object")
		}
		name, _ := fobj["name"].(string)
		sensor, _ := fobj["sensor"].(string)
		format, _ := fobj["format"].(string)
		if name == "" {
			return nil, fmt.Errorf("sentence: field entry missing \"name\"")
		}
		fields = append(fields, Field{Name: name, Sensor: sensor, Format: format})
	}
	return fields, nil
}
