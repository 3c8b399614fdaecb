package codec

import (
	"encoding/base64"
	"fmt"

	"github.com/fxamacker/cbor/v2"

	"github.com/coffersTech/tierlog/internal/model"
)

// CBOR writes the document in Core Deterministic CBOR, base64-encoded so
// the payload stays text.
var CBOR Codec

var (
	cborEnc cbor.EncMode
	cborDec cbor.DecMode
)

func init() {
	var err error

	encOptions := cbor.CoreDetEncOptions()
	// Priorities travel by name, as in the JSON form.
	encOptions.TextMarshaler = cbor.TextMarshalerTextString
	cborEnc, err = encOptions.EncMode()
	if err != nil {
		panic("codec: CBOR encoder initialization failed: " + err.Error())
	}

	cborDec, err = cbor.DecOptions{
		TextUnmarshaler: cbor.TextUnmarshalerTextString,
	}.DecMode()
	if err != nil {
		panic("codec: CBOR decoder initialization failed: " + err.Error())
	}

	CBOR = cborCodec{}
	register(CBOR)
}

type cborCodec struct{}

func (cborCodec) Name() string { return "cbor" }

// Monotonic holds: CBOR array headers only grow with the item count and
// base64 length is non-decreasing in its input length.
func (cborCodec) Monotonic() bool { return true }

func (cborCodec) Encode(entries []model.LogEntry) ([]byte, error) {
	raw, err := cborEnc.Marshal(newDocument(entries))
	if err != nil {
		return nil, err
	}
	out := make([]byte, base64.StdEncoding.EncodedLen(len(raw)))
	base64.StdEncoding.Encode(out, raw)
	return out, nil
}

func (cborCodec) Decode(data []byte) ([]model.LogEntry, error) {
	raw := make([]byte, base64.StdEncoding.DecodedLen(len(data)))
	n, err := base64.StdEncoding.Decode(raw, data)
	if err != nil {
		return nil, fmt.Errorf("cbor: %w", err)
	}

	var doc document
	if err := cborDec.Unmarshal(raw[:n], &doc); err != nil {
		return nil, fmt.Errorf("cbor: %w", err)
	}
	return doc.Entries, nil
}
