package parser

import (
	"bytes"
	"encoding/json"
)

// Record is one structured extraction result: an ordered mapping from
// rule name to extracted value. Its key set always equals the rule set
// that produced it; a key with no match and no fallback holds no value.
type Record struct {
	names  []string
	values map[string]string
}

// newRecord creates an empty record over the given rule names. The
// slice is shared across the records of one extraction call.
func newRecord(names []string) Record {
	return Record{
		names:  names,
		values: make(map[string]string, len(names)),
	}
}

// Names returns the rule names in rule-set order.
func (r Record) Names() []string {
	return r.names
}

// Get returns the value for a rule name and whether it is present.
func (r Record) Get(name string) (string, bool) {
	v, ok := r.values[name]
	return v, ok
}

// Complete reports whether every rule has a value (matched or
// fallback). Only complete records survive the "successful" filter.
func (r Record) Complete() bool {
	return len(r.values) == len(r.names)
}

func (r Record) set(name, value string) {
	r.values[name] = value
}

// Map returns the present values as a plain map.
func (r Record) Map() map[string]string {
	out := make(map[string]string, len(r.values))
	for k, v := range r.values {
		out[k] = v
	}
	return out
}

// MarshalJSON writes the record as an object with keys in rule-set
// order, omitting absent values.
func (r Record) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	first := true
	for _, name := range r.names {
		value, ok := r.values[name]
		if !ok {
			continue
		}
		if !first {
			buf.WriteByte(',')
		}
		first = false

		key, err := json.Marshal(name)
		if err != nil {
			return nil, err
		}
		val, err := json.Marshal(value)
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')
		buf.Write(val)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}
