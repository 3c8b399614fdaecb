// Package codec turns an ordered list of log entries into a self-describing
// text document and back.
//
// Every codec writes the same logical document, {"entries":[...]}, with each
// entry carrying timestamp, priority, file, line, message and counter.
package codec

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/coffersTech/tierlog/internal/model"
)

var ErrUnknownCodec = errors.New("unknown codec")

// Encoder produces the text encoding of a list of entries.
type Encoder interface {
	Name() string
	Encode(entries []model.LogEntry) ([]byte, error)
	// Monotonic reports whether the encoded length never shrinks when an
	// entry is appended to the input. Size-bounded callers rely on it to
	// binary-search the number of entries that fit.
	Monotonic() bool
}

// Decoder reverses an Encoder.
type Decoder interface {
	Decode(data []byte) ([]model.LogEntry, error)
}

// Codec is a matching Encoder/Decoder pair.
type Codec interface {
	Encoder
	Decoder
}

// document is the wrapper every codec encodes.
type document struct {
	Entries []model.LogEntry `json:"entries" cbor:"entries"`
}

func newDocument(entries []model.LogEntry) document {
	if entries == nil {
		entries = []model.LogEntry{}
	}
	return document{Entries: entries}
}

var registry = map[string]Codec{}

func register(c Codec) {
	registry[c.Name()] = c
}

// Lookup returns the codec registered under name (case-insensitive).
func Lookup(name string) (Codec, error) {
	c, ok := registry[strings.ToLower(name)]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownCodec, name)
	}
	return c, nil
}

// Names lists the registered codecs in sorted order.
func Names() []string {
	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
