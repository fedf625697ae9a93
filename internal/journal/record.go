package journal

import (
	"bytes"
	"encoding/binary"
	"hash/crc32"

	"github.com/google/uuid"

	"assetverse/internal/errors"
	"assetverse/internal/schema"
)

// Record layout, little endian:
//
//	0  magic "JNL1"
//	4  record version
//	6  header size
//	8  event type
//	10 schema version
//	12 payload length
//	16 sequence
//	24 event time (unix nanos)
//	32 event id (16 bytes)
//	48 payload, then a CRC32C over header and payload
const (
	recordVersion      uint16 = 1
	recordHeaderSize          = 48
	recordChecksumSize        = 4
)

var (
	recordMagic = [4]byte{'J', 'N', 'L', '1'}
	crcTable    = crc32.MakeTable(crc32.Castagnoli)
)

var (
	ErrInvalidMagic            = errors.New("journal invalid magic")
	ErrUnsupportedRecordVer    = errors.New("journal unsupported record version")
	ErrInvalidRecordHeaderSize = errors.New("journal invalid header size")
	ErrChecksumMismatch        = errors.New("journal checksum mismatch")
	ErrPayloadTooLarge         = errors.New("journal payload too large")
)

const maxPayloadLen = uint64(^uint32(0))

// header is the fixed part of a journal record.
type header struct {
	Type       schema.EventType
	Version    uint16
	PayloadLen uint32
	Seq        uint64
	Time       int64
	ID         uuid.UUID
}

func encodeHeader(dst []byte, h header) {
	_ = dst[recordHeaderSize-1]
	copy(dst[0:4], recordMagic[:])
	binary.LittleEndian.PutUint16(dst[4:6], recordVersion)
	binary.LittleEndian.PutUint16(dst[6:8], uint16(recordHeaderSize))
	binary.LittleEndian.PutUint16(dst[8:10], uint16(h.Type))
	binary.LittleEndian.PutUint16(dst[10:12], h.Version)
	binary.LittleEndian.PutUint32(dst[12:16], h.PayloadLen)
	binary.LittleEndian.PutUint64(dst[16:24], h.Seq)
	binary.LittleEndian.PutUint64(dst[24:32], uint64(h.Time))
	copy(dst[32:48], h.ID[:])
}

func decodeHeader(src []byte) (header, error) {
	if len(src) < recordHeaderSize {
		return header{}, ErrInvalidRecordHeaderSize
	}
	if !bytes.Equal(src[0:4], recordMagic[:]) {
		return header{}, ErrInvalidMagic
	}
	if ver := binary.LittleEndian.Uint16(src[4:6]); ver != recordVersion {
		return header{}, ErrUnsupportedRecordVer
	}
	if size := binary.LittleEndian.Uint16(src[6:8]); size != recordHeaderSize {
		return header{}, ErrInvalidRecordHeaderSize
	}
	h := header{
		Type:       schema.EventType(binary.LittleEndian.Uint16(src[8:10])),
		Version:    binary.LittleEndian.Uint16(src[10:12]),
		PayloadLen: binary.LittleEndian.Uint32(src[12:16]),
		Seq:        binary.LittleEndian.Uint64(src[16:24]),
		Time:       int64(binary.LittleEndian.Uint64(src[24:32])),
	}
	copy(h.ID[:], src[32:48])
	return h, nil
}

func checksum(header []byte, payload []byte) uint32 {
	crc := crc32.Update(0, crcTable, header)
	return crc32.Update(crc, crcTable, payload)
}
