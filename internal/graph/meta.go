package graph

import "encoding/json"

// Meta is an ordered string->string map. Iteration order follows insertion
// order so that two merges of the same proposals in the same order produce a
// byte-identical serialization (§5 determinism).
type Meta struct {
	keys   []string
	values map[string]string
}

// NewMeta returns an empty ordered map.
func NewMeta() *Meta {
	return &Meta{values: map[string]string{}}
}

// Set inserts or overwrites key. The key keeps its original position on
// overwrite.
func (m *Meta) Set(key, value string) {
	if m.values == nil {
		m.values = map[string]string{}
	}
	if _, ok := m.values[key]; !ok {
		m.keys = append(m.keys, key)
	}
	m.values[key] = value
}

// Get returns the value and whether key was present.
func (m *Meta) Get(key string) (string, bool) {
	if m == nil || m.values == nil {
		return "", false
	}
	v, ok := m.values[key]
	return v, ok
}

// Keys returns keys in insertion order.
func (m *Meta) Keys() []string {
	if m == nil {
		return nil
	}
	out := make([]string, len(m.keys))
	copy(out, m.keys)
	return out
}

// Len reports the number of entries.
func (m *Meta) Len() int {
	if m == nil {
		return 0
	}
	return len(m.keys)
}

// Clone returns a deep copy.
func (m *Meta) Clone() *Meta {
	if m == nil {
		return NewMeta()
	}
	out := &Meta{
		keys:   append([]string(nil), m.keys...),
		values: make(map[string]string, len(m.values)),
	}
	for k, v := range m.values {
		out.values[k] = v
	}
	return out
}

// MarshalJSON renders Meta as a plain object with its keys in
// lexicographic order (not insertion order), which is deterministic for
// equal contents.
func (m *Meta) MarshalJSON() ([]byte, error) {
	if m == nil {
		return []byte("{}"), nil
	}
	out := make(map[string]string, len(m.keys))
	for _, k := range m.keys {
		out[k] = m.values[k]
	}
	// json.Marshal on a map sorts keys lexicographically, which is
	// deterministic but not insertion order; callers that need insertion
	// order should use Keys()/Get() directly rather than round-tripping
	// through JSON.
	return json.Marshal(out)
}

// UnmarshalJSON restores a Meta from an object, in the key order Go's
// encoding/json decoder produces (ECMA-404 object member order), which for
// map[string]string via Decoder is unspecified; precise insertion order is
// not recoverable from JSON and is not required for Meta's consumers
// (dumped graphs are a terminal output, never re-ingested as a Meta).
func (m *Meta) UnmarshalJSON(data []byte) error {
	var raw map[string]string
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	m.keys = nil
	m.values = make(map[string]string, len(raw))
	for k, v := range raw {
		m.keys = append(m.keys, k)
		m.values[k] = v
	}
	return nil
}

// MergeFrom unions other's entries into m without disturbing m's existing
// key order, appending any keys m does not already have. Used by
// Backend.AddNode's "union meta" merge rule.
func (m *Meta) MergeFrom(other *Meta) {
	if other == nil {
		return
	}
	for _, k := range other.keys {
		if _, ok := m.Get(k); !ok {
			v, _ := other.Get(k)
			m.Set(k, v)
		}
	}
}
