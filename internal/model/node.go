package model

import (
	"bytes"
	"encoding/json"
	"reflect"
	"sort"
)

// nodeState keeps whatever a lenient decode could not map onto the typed
// fields of a node, so encoding the node again reproduces the stored content.
// It stays zero for well-formed nodes.
type nodeState struct {
	raw    json.RawMessage            // the node was not a JSON object
	extra  map[string]json.RawMessage // unknown keys, and known keys of the wrong type
	absent map[string]bool            // required keys missing from the stored object
}

// field describes one known key of a node
type field struct {
	key      string
	ptr      any  // pointer to the typed value
	optional bool // omitted when zero, never recorded as absent
	children bool // a slice of child nodes; a set value replaces a kept raw one
}

// decodeNode fills the typed fields from data. It never fails: values that do
// not fit their field are kept in st instead.
func decodeNode(data []byte, st *nodeState, fields []field) {
	*st = nodeState{}

	var obj map[string]json.RawMessage
	if err := json.Unmarshal(data, &obj); err != nil || obj == nil {
		st.raw = compact(data)
		return
	}

	known := make(map[string]bool, len(fields))
	for _, f := range fields {
		known[f.key] = true
		value, ok := obj[f.key]
		if !ok {
			if !f.optional {
				st.markAbsent(f.key)
			}
			continue
		}
		if err := json.Unmarshal(value, f.ptr); err != nil {
			reflect.ValueOf(f.ptr).Elem().SetZero()
			st.keep(f.key, value)
		}
	}
	for key, value := range obj {
		if !known[key] {
			st.keep(key, value)
		}
	}
}

// encodeNode writes known keys in field order, then the remaining kept keys
// sorted by name.
func encodeNode(st *nodeState, fields []field) ([]byte, error) {
	if st.raw != nil {
		return st.raw, nil
	}

	var buf bytes.Buffer
	buf.WriteByte('{')
	n := 0
	write := func(key string, value []byte) {
		if n > 0 {
			buf.WriteByte(',')
		}
		n++
		k, _ := json.Marshal(key)
		buf.Write(k)
		buf.WriteByte(':')
		buf.Write(value)
	}

	known := make(map[string]bool, len(fields))
	for _, f := range fields {
		known[f.key] = true
		v := reflect.ValueOf(f.ptr).Elem()
		kept, isKept := st.extra[f.key]
		switch {
		case f.children && !v.IsNil():
		case isKept:
			write(f.key, kept)
			continue
		case st.absent[f.key], f.optional && v.IsZero():
			continue
		}
		data, err := json.Marshal(v.Interface())
		if err != nil {
			return nil, err
		}
		write(f.key, data)
	}

	rest := make([]string, 0, len(st.extra))
	for key := range st.extra {
		if !known[key] {
			rest = append(rest, key)
		}
	}
	sort.Strings(rest)
	for _, key := range rest {
		write(key, st.extra[key])
	}

	buf.WriteByte('}')
	return buf.Bytes(), nil
}

func (st *nodeState) keep(key string, value json.RawMessage) {
	if st.extra == nil {
		st.extra = make(map[string]json.RawMessage)
	}
	st.extra[key] = compact(value)
}

func (st *nodeState) markAbsent(key string) {
	if st.absent == nil {
		st.absent = make(map[string]bool)
	}
	st.absent[key] = true
}

// set records that the typed values of keys are authoritative again
func (st *nodeState) set(keys ...string) {
	for _, key := range keys {
		delete(st.extra, key)
		delete(st.absent, key)
	}
	if len(st.extra) == 0 {
		st.extra = nil
	}
	if len(st.absent) == 0 {
		st.absent = nil
	}
}

func (st nodeState) clone() nodeState {
	out := nodeState{raw: st.raw}
	if st.extra != nil {
		out.extra = make(map[string]json.RawMessage, len(st.extra))
		for k, v := range st.extra {
			out.extra[k] = v
		}
	}
	if st.absent != nil {
		out.absent = make(map[string]bool, len(st.absent))
		for k, v := range st.absent {
			out.absent[k] = v
		}
	}
	return out
}

func compact(data []byte) json.RawMessage {
	var buf bytes.Buffer
	if err := json.Compact(&buf, data); err != nil {
		return append(json.RawMessage(nil), data...)
	}
	return buf.Bytes()
}
