package codec

import (
	"encoding/json"
	"fmt"
	"math"

	"github.com/valyala/fastjson"

	"github.com/coffersTech/tierlog/internal/model"
)

// JSON is the canonical codec.
var JSON Codec = jsonCodec{}

func init() {
	register(JSON)
}

type jsonCodec struct{}

func (jsonCodec) Name() string    { return "json" }
func (jsonCodec) Monotonic() bool { return true }

func (jsonCodec) Encode(entries []model.LogEntry) ([]byte, error) {
	return json.Marshal(newDocument(entries))
}

var parserPool fastjson.ParserPool

func (jsonCodec) Decode(data []byte) ([]model.LogEntry, error) {
	p := parserPool.Get()
	defer parserPool.Put(p)

	v, err := p.ParseBytes(data)
	if err != nil {
		return nil, fmt.Errorf("json: %w", err)
	}
	return decodeDocument(v)
}

func decodeDocument(v *fastjson.Value) ([]model.LogEntry, error) {
	list := v.Get("entries")
	if list == nil {
		return nil, fmt.Errorf("json: missing %q", "entries")
	}
	items, err := list.Array()
	if err != nil {
		return nil, fmt.Errorf("json: entries: %w", err)
	}

	entries := make([]model.LogEntry, 0, len(items))
	for i, item := range items {
		e, err := DecodeEntry(item)
		if err != nil {
			return nil, fmt.Errorf("json: entry %d: %w", i, err)
		}
		entries = append(entries, e)
	}
	return entries, nil
}

// DecodeEntry reads one field-labeled entry object.
func DecodeEntry(v *fastjson.Value) (model.LogEntry, error) {
	var e model.LogEntry
	var err error

	if e.Timestamp, err = uintField(v, "timestamp"); err != nil {
		return e, err
	}
	if e.Counter, err = uintField(v, "counter"); err != nil {
		return e, err
	}
	line, err := uintField(v, "line")
	if err != nil {
		return e, err
	}
	if line > math.MaxUint32 {
		return e, fmt.Errorf("line %d out of range", line)
	}
	e.Line = uint32(line)

	prio, err := stringField(v, "priority")
	if err != nil {
		return e, err
	}
	if e.Priority, err = model.ParsePriority(prio); err != nil {
		return e, err
	}
	if e.File, err = stringField(v, "file"); err != nil {
		return e, err
	}
	if e.Message, err = stringField(v, "message"); err != nil {
		return e, err
	}
	return e, nil
}

func uintField(v *fastjson.Value, key string) (uint64, error) {
	f := v.Get(key)
	if f == nil {
		return 0, fmt.Errorf("missing %q", key)
	}
	n, err := f.Uint64()
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	return n, nil
}

func stringField(v *fastjson.Value, key string) (string, error) {
	f := v.Get(key)
	if f == nil {
		return "", fmt.Errorf("missing %q", key)
	}
	b, err := f.StringBytes()
	if err != nil {
		return "", fmt.Errorf("%s: %w", key, err)
	}
	return string(b), nil
}
