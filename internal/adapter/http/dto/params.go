package dto

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/GiantDole/okayokayokay/internal/core/domain"
)

// OrderedParams decodes a JSON params object into an ordered pair list.
// encoding/json maps would lose both insertion order and duplicate keys, and
// the upstream query string must reproduce the caller's exact order, so the
// object is walked token by token instead.
type OrderedParams []domain.QueryParam

// UnmarshalJSON accepts null, or an object whose values are strings, numbers
// or booleans. Nested objects and arrays are rejected.
func (p *OrderedParams) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if tok == nil {
		*p = nil
		return nil
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return fmt.Errorf("params must be an object")
	}

	out := make([]domain.QueryParam, 0, 4)
	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return err
		}
		key := keyTok.(string)

		valTok, err := dec.Token()
		if err != nil {
			return err
		}

		var value string
		switch v := valTok.(type) {
		case string:
			value = v
		case json.Number:
			value = v.String()
		case bool:
			if v {
				value = "true"
			} else {
				value = "false"
			}
		case nil:
			value = ""
		default:
			return fmt.Errorf("param %q: value must be a string, number or boolean", key)
		}
		out = append(out, domain.QueryParam{Key: key, Value: value})
	}

	// consume the closing brace
	if _, err := dec.Token(); err != nil {
		return err
	}
	*p = out
	return nil
}

// MarshalJSON renders the pairs back as an object in insertion order.
// Duplicate keys are written as-is so the echo matches the original input.
func (p OrderedParams) MarshalJSON() ([]byte, error) {
	if p == nil {
		return []byte("null"), nil
	}
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, kv := range p {
		if i > 0 {
			buf.WriteByte(',')
		}
		k, err := json.Marshal(kv.Key)
		if err != nil {
			return nil, err
		}
		v, err := json.Marshal(kv.Value)
		if err != nil {
			return nil, err
		}
		buf.Write(k)
		buf.WriteByte(':')
		buf.Write(v)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}
