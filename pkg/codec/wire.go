package codec

import (
	"encoding/binary"
	"math"
	"math/big"
	"math/bits"
)

func appendInt32(dst []byte, n int32) []byte {
	return binary.BigEndian.AppendUint32(dst, uint32(n))
}

func appendCount(dst []byte, n int) ([]byte, error) {
	if n > math.MaxInt32 {
		return dst, Newf(ErrNumericOverflow, "%d elements do not fit a collection", n)
	}
	return appendInt32(dst, int32(n)), nil
}

// AppendCell appends cell as one [bytes] item, with a nil cell written as
// null.
func AppendCell(dst, cell []byte) []byte {
	if cell == nil {
		return appendInt32(dst, -1)
	}
	return append(appendInt32(dst, int32(len(cell))), cell...)
}

// ReadCell reads one [bytes] item: a big-endian int32 length followed by
// that many bytes. A negative length is null and yields a nil cell. The
// returned cell aliases b.
func ReadCell(b []byte) (cell, rest []byte, err error) {
	if len(b) < 4 {
		return nil, nil, Newf(ErrMalformedBytes, "need 4 bytes for a length, have %d", len(b))
	}
	n := int32(binary.BigEndian.Uint32(b))
	b = b[4:]
	if n < 0 {
		return nil, b, nil
	}
	if int(n) > len(b) {
		return nil, nil, Newf(ErrMalformedBytes, "length %d exceeds the %d remaining bytes", n, len(b))
	}
	return b[:n:n], b[n:], nil
}

func readCount(b []byte) (int, []byte, error) {
	if len(b) < 4 {
		return 0, nil, Newf(ErrMalformedBytes, "need 4 bytes for an element count, have %d", len(b))
	}
	n := int32(binary.BigEndian.Uint32(b))
	if n < 0 {
		return 0, nil, Newf(ErrMalformedBytes, "negative element count %d", n)
	}
	return int(n), b[4:], nil
}

// appendVarint appends the shortest big-endian two's complement encoding
// of n.
func appendVarint(dst []byte, n *big.Int) []byte {
	switch n.Sign() {
	case 0:
		return append(dst, 0)
	case 1:
		b := n.Bytes()
		if b[0]&0x80 != 0 {
			dst = append(dst, 0)
		}
		return append(dst, b...)
	}
	// For negative n the two's complement bytes are the complement of |n|-1.
	m := new(big.Int).Add(n, big.NewInt(1))
	b := m.Neg(m).Bytes()
	for i := range b {
		b[i] = ^b[i]
	}
	if len(b) == 0 || b[0]&0x80 == 0 {
		dst = append(dst, 0xff)
	}
	return append(dst, b...)
}

func zigzag(n int64) uint64 {
	return uint64((n >> 63) ^ (n << 1))
}

func unzigzag(n uint64) int64 {
	return int64(n>>1) ^ -int64(n&1)
}

// appendVint appends n as a zig-zag encoded unsigned vint: the number of
// leading one bits of the first byte is the number of extra bytes.
func appendVint(dst []byte, n int64) []byte {
	u := zigzag(n)
	size := (639 - bits.LeadingZeros64(u)*9) >> 6
	if size <= 1 {
		return append(dst, byte(u))
	}
	extra := size - 1
	start := len(dst)
	for i := 0; i < size; i++ {
		dst = append(dst, 0)
	}
	for i := extra; i >= 0; i-- {
		dst[start+i] = byte(u)
		u >>= 8
	}
	dst[start] |= ^byte(0xff >> uint(extra))
	return dst
}

func readVint(b []byte) (int64, []byte, bool) {
	if len(b) == 0 {
		return 0, nil, false
	}
	first := b[0]
	if first&0x80 == 0 {
		return unzigzag(uint64(first)), b[1:], true
	}
	extra := bits.LeadingZeros8(^first)
	if len(b) < extra+1 {
		return 0, nil, false
	}
	u := uint64(first & (0xff >> uint(extra)))
	for i := 1; i <= extra; i++ {
		u = u<<8 | uint64(b[i])
	}
	return unzigzag(u), b[extra+1:], true
}
