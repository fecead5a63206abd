package session

import (
	"encoding/binary"
	"fmt"

	"github.com/gocql/gocql"
	"github.com/pierrec/lz4/v4"
	"github.com/pkg/errors"
)

func compressor(name string) (gocql.Compressor, error) {
	switch name {
	case "", "none":
		return nil, nil
	case "snappy":
		return gocql.SnappyCompressor{}, nil
	case "lz4":
		return LZ4Compressor{}, nil
	}
	return nil, fmt.Errorf("unknown compression %q, expected none, snappy or lz4", name)
}

// LZ4Compressor compresses frame bodies with lz4. A compressed body is the
// uncompressed length as a big endian int32 followed by one lz4 block.
type LZ4Compressor struct{}

func (LZ4Compressor) Name() string { return "lz4" }

func (LZ4Compressor) Encode(data []byte) ([]byte, error) {
	buf := make([]byte, 4+lz4.CompressBlockBound(len(data)))
	binary.BigEndian.PutUint32(buf, uint32(len(data)))
	if len(data) == 0 {
		return buf[:4], nil
	}
	var c lz4.Compressor
	n, err := c.CompressBlock(data, buf[4:])
	if err != nil {
		return nil, errors.Wrap(err, "lz4 compress")
	}
	return buf[:4+n], nil
}

func (LZ4Compressor) Decode(data []byte) ([]byte, error) {
	if len(data) < 4 {
		return nil, fmt.Errorf("lz4 frame of %d bytes is too short", len(data))
	}
	size := binary.BigEndian.Uint32(data)
	if size > maxFrameBody {
		return nil, fmt.Errorf("lz4 frame declares %d bytes, more than %d", size, maxFrameBody)
	}
	out := make([]byte, size)
	if size == 0 {
		return out, nil
	}
	n, err := lz4.UncompressBlock(data[4:], out)
	if err != nil {
		return nil, errors.Wrap(err, "lz4 decompress")
	}
	if n != int(size) {
		return nil, fmt.Errorf("lz4 frame declares %d bytes, got %d", size, n)
	}
	return out, nil
}

// maxFrameBody is the largest frame body the native protocol allows.
const maxFrameBody = 256 << 20
