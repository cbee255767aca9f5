// Package jsonutil provides a JSON encoding/decoding wrapper around
// github.com/go-json-experiment/json.
//
// Besides the encoding/json-like helpers it exposes Raw, an undecoded JSON
// value, which lets callers keep loosely typed documents at the boundary and
// decide per field how to coerce each value.
//
// Usage:
//
//	var doc map[string]jsonutil.Raw
//	err := jsonutil.Unmarshal(body, &doc)
//	if jsonutil.KindOf(doc["bytes"]) == jsonutil.KindNumber { ... }
package jsonutil

import (
	"bytes"
	"io"

	"github.com/go-json-experiment/json"
	"github.com/go-json-experiment/json/jsontext"
)

// Raw is an undecoded JSON value.
type Raw = jsontext.Value

// Kind classifies a raw JSON value by its leading token.
type Kind byte

const (
	KindAbsent Kind = 0
	KindNull   Kind = 'n'
	KindBool   Kind = 'b'
	KindString Kind = '"'
	KindNumber Kind = '0'
	KindObject Kind = '{'
	KindArray  Kind = '['
)

// KindOf returns the kind of v. An empty value (a key missing from the
// document) reports KindAbsent.
func KindOf(v Raw) Kind {
	b := bytes.TrimLeft(v, " \t\r\n")
	if len(b) == 0 {
		return KindAbsent
	}
	switch c := b[0]; {
	case c == 'n':
		return KindNull
	case c == 't' || c == 'f':
		return KindBool
	case c == '"':
		return KindString
	case c == '{':
		return KindObject
	case c == '[':
		return KindArray
	case c == '-' || (c >= '0' && c <= '9'):
		return KindNumber
	}
	return KindAbsent
}

// Unmarshal parses the JSON-encoded data and stores the result in v.
func Unmarshal(data []byte, v any) error {
	return json.Unmarshal(data, v)
}

// Marshal returns the JSON encoding of v. Map keys are emitted in sorted
// order so identical inputs always produce identical bytes.
func Marshal(v any) ([]byte, error) {
	return json.Marshal(v, json.Deterministic(true))
}

// MarshalIndent returns the indented JSON encoding of v.
func MarshalIndent(v any, prefix, indent string) ([]byte, error) {
	return json.Marshal(v, json.Deterministic(true), jsontext.WithIndentPrefix(prefix), jsontext.WithIndent(indent))
}

// Valid reports whether data is a valid JSON encoding.
func Valid(data []byte) bool {
	return jsontext.Value(data).IsValid()
}

// Encoder provides a streaming JSON encoder compatible with encoding/json.Encoder.
type Encoder struct {
	w      io.Writer
	indent string
}

// NewStreamEncoder creates an encoder that writes to w.
func NewStreamEncoder(w io.Writer) *Encoder {
	return &Encoder{w: w}
}

// Encode writes the JSON encoding of v to the stream, followed by a newline.
func (e *Encoder) Encode(v any) error {
	var err error
	if e.indent != "" {
		err = json.MarshalWrite(e.w, v, json.Deterministic(true), jsontext.WithIndent(e.indent))
	} else {
		err = json.MarshalWrite(e.w, v, json.Deterministic(true))
	}
	if err != nil {
		return err
	}
	_, err = e.w.Write([]byte{'\n'})
	return err
}

// SetIndent instructs the encoder to format each subsequent encoded value
// with the given indentation.
func (e *Encoder) SetIndent(prefix, indent string) {
	e.indent = indent
}
