package wire

import (
	"bytes"
	"encoding/binary"
	"errors"
	"hash/crc32"
)

const (
	version   byte = 1
	kindEntry byte = 1

	headerLen = 4 + 1 + 1 + 4 + 4
)

var (
	ErrCorrupt = errors.New("batchload: corrupt cache entry")
	magic4     = [...]byte{'B', 'L', 'D', 'C'}
)

func hasMagic(b []byte) bool {
	return len(b) >= 4 && bytes.Equal(b[:4], magic4[:])
}

// Entry: magic(4) | ver(1) | kind(1=entry) | crc32(u32 be) | vlen(u32 be) | payload(vlen)
//
// The checksum is IEEE CRC-32 over the payload.
func EncodeEntry(payload []byte) []byte {
	var buf bytes.Buffer
	buf.Grow(headerLen + len(payload))

	buf.Write(magic4[:])
	buf.WriteByte(version)
	buf.WriteByte(kindEntry)

	var u4 [4]byte
	binary.BigEndian.PutUint32(u4[:], crc32.ChecksumIEEE(payload))
	buf.Write(u4[:])

	binary.BigEndian.PutUint32(u4[:], uint32(len(payload)))
	buf.Write(u4[:])

	buf.Write(payload)
	return buf.Bytes()
}

// DecodeEntry returns the payload as a subslice of b; it does not copy.
func DecodeEntry(b []byte) ([]byte, error) {
	if len(b) < headerLen || !hasMagic(b) || b[4] != version || b[5] != kindEntry {
		return nil, ErrCorrupt
	}

	off := 6
	sum := binary.BigEndian.Uint32(b[off : off+4])
	off += 4

	vlen := int(binary.BigEndian.Uint32(b[off : off+4]))
	off += 4
	if vlen < 0 || vlen != len(b)-off { // truncated or trailing bytes
		return nil, ErrCorrupt
	}

	payload := b[off:]
	if crc32.ChecksumIEEE(payload) != sum {
		return nil, ErrCorrupt
	}
	return payload, nil
}
