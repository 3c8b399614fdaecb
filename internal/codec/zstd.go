package codec

import (
	"encoding/base64"
	"encoding/json"
	"fmt"

	"github.com/klauspost/compress/zstd"

	"github.com/coffersTech/tierlog/internal/model"
)

// Zstd compresses the JSON document with zstd and base64-encodes the frame.
// Compressed size can shrink when an entry is added, so it is not
// monotonic.
var Zstd Codec

func init() {
	enc, err := zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedDefault))
	if err != nil {
		panic("codec: zstd encoder initialization failed: " + err.Error())
	}
	dec, err := zstd.NewReader(nil)
	if err != nil {
		panic("codec: zstd decoder initialization failed: " + err.Error())
	}
	Zstd = &zstdCodec{encoder: enc, decoder: dec}
	register(Zstd)
}

type zstdCodec struct {
	encoder *zstd.Encoder
	decoder *zstd.Decoder
}

func (*zstdCodec) Name() string    { return "zstd" }
func (*zstdCodec) Monotonic() bool { return false }

func (c *zstdCodec) Encode(entries []model.LogEntry) ([]byte, error) {
	raw, err := json.Marshal(newDocument(entries))
	if err != nil {
		return nil, err
	}
	compressed := c.encoder.EncodeAll(raw, make([]byte, 0, len(raw)))

	out := make([]byte, base64.StdEncoding.EncodedLen(len(compressed)))
	base64.StdEncoding.Encode(out, compressed)
	return out, nil
}

func (c *zstdCodec) Decode(data []byte) ([]model.LogEntry, error) {
	compressed := make([]byte, base64.StdEncoding.DecodedLen(len(data)))
	n, err := base64.StdEncoding.Decode(compressed, data)
	if err != nil {
		return nil, fmt.Errorf("zstd: %w", err)
	}

	raw, err := c.decoder.DecodeAll(compressed[:n], nil)
	if err != nil {
		return nil, fmt.Errorf("zstd: %w", err)
	}
	return JSON.Decode(raw)
}
