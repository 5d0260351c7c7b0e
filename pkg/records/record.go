// Package records turns JSON input into a lazy sequence of raw records.
//
// Two layouts are understood: newline-delimited objects (one record per
// line) and a single top-level array of objects. A malformed line only
// costs that line; a syntax error inside an array ends the stream because
// the element boundaries can no longer be found.
package records

// Record is one raw JSON object with its keys in document order. Values are
// what the JSON decoder produces with UseNumber: nil, bool, json.Number,
// string, []interface{} or map[string]interface{}.
type Record struct {
	Keys   []string
	Values []interface{}
	// Position is the 1-based line number for line-delimited input and the
	// 1-based element index for array input.
	Position int64

	index map[string]int
}

// NewRecord builds a record from parallel key and value slices. A repeated
// key keeps its first position and its last value.
func NewRecord(keys []string, values []interface{}) *Record {
	r := &Record{
		Keys:   make([]string, 0, len(keys)),
		Values: make([]interface{}, 0, len(values)),
	}
	for i, k := range keys {
		r.set(k, values[i])
	}
	return r
}

func (r *Record) set(key string, value interface{}) {
	if r.index == nil {
		r.index = make(map[string]int, 8)
	}
	if i, ok := r.index[key]; ok {
		r.Values[i] = value
		return
	}
	r.index[key] = len(r.Keys)
	r.Keys = append(r.Keys, key)
	r.Values = append(r.Values, value)
}

// Len returns the number of distinct keys.
func (r *Record) Len() int {
	return len(r.Keys)
}

// Get returns the value stored under key.
func (r *Record) Get(key string) (interface{}, bool) {
	if r.index == nil {
		return nil, false
	}
	i, ok := r.index[key]
	if !ok {
		return nil, false
	}
	return r.Values[i], true
}
