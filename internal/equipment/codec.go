package equipment

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"strconv"

	"github.com/Odenfis/sedimApp/internal/model"
	"github.com/cespare/xxhash/v2"
)

var seedDocument = []byte("{\n  \"areas\": []\n}\n")

// ParseDocument decodes data and checks the root shape. Nested nodes are not
// validated: values that do not fit the model are kept as they were stored.
func ParseDocument(data []byte) (*model.Document, error) {
	var root map[string]json.RawMessage
	if err := json.Unmarshal(data, &root); err != nil {
		return nil, &FormatError{Err: err}
	}
	raw, ok := root["areas"]
	if !ok {
		return nil, &FormatError{Err: errors.New(`missing "areas"`)}
	}
	if trimmed := bytes.TrimSpace(raw); len(trimmed) == 0 || trimmed[0] != '[' {
		return nil, &FormatError{Err: errors.New(`"areas" is not an array`)}
	}

	var doc model.Document
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, &FormatError{Err: err}
	}
	return &doc, nil
}

// encodeDocument serializes the whole document before anything is written so
// a write never starts with a partial payload.
func encodeDocument(doc *model.Document) ([]byte, error) {
	if doc == nil {
		return nil, &FormatError{Err: errors.New("nil document")}
	}
	if doc.Areas == nil {
		doc = &model.Document{Areas: []model.Area{}}
	}
	var buf bytes.Buffer
	if err := writeIndented(&buf, doc); err != nil {
		return nil, &FormatError{Err: err}
	}
	return buf.Bytes(), nil
}

func writeIndented(w io.Writer, data interface{}) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(data)
}

// Version returns a token identifying the content of doc. Structurally equal
// documents share a version; it is not stored inside the document.
func Version(doc *model.Document) string {
	if doc == nil {
		return ""
	}
	if doc.Areas == nil {
		doc = &model.Document{Areas: []model.Area{}}
	}
	data, err := json.Marshal(doc)
	if err != nil {
		return ""
	}
	return strconv.FormatUint(xxhash.Sum64(data), 16)
}
