package journal

import (
	"bufio"
	"encoding/binary"
	"io"

	"assetverse/internal/codec"
	"assetverse/internal/errors"
	"assetverse/internal/schema"
)

// ReaderOptions controls record decoding.
type ReaderOptions struct {
	DisableChecksum bool
	MaxPayloadSize  int
}

// Reader decodes journal records sequentially.
type Reader struct {
	r         *bufio.Reader
	opts      ReaderOptions
	headerBuf []byte
	payload   []byte
}

// NewReader wraps an io.Reader with journal decoding.
func NewReader(r io.Reader, opts ReaderOptions) *Reader {
	return &Reader{
		r:         bufio.NewReader(r),
		opts:      opts,
		headerBuf: make([]byte, recordHeaderSize),
	}
}

// Next returns the next event. It returns io.EOF at a clean record boundary
// and io.ErrUnexpectedEOF for a truncated record.
func (r *Reader) Next() (schema.Event, error) {
	n, err := io.ReadFull(r.r, r.headerBuf)
	if err != nil {
		if err == io.EOF && n == 0 {
			return schema.Event{}, io.EOF
		}
		return schema.Event{}, err
	}

	h, err := decodeHeader(r.headerBuf)
	if err != nil {
		return schema.Event{}, err
	}
	if r.opts.MaxPayloadSize > 0 && h.PayloadLen > uint32(r.opts.MaxPayloadSize) {
		return schema.Event{}, ErrPayloadTooLarge
	}

	if cap(r.payload) < int(h.PayloadLen) {
		r.payload = make([]byte, h.PayloadLen)
	}
	r.payload = r.payload[:h.PayloadLen]
	if _, err := io.ReadFull(r.r, r.payload); err != nil {
		return schema.Event{}, noEOF(err)
	}

	var checksumBuf [recordChecksumSize]byte
	if _, err := io.ReadFull(r.r, checksumBuf[:]); err != nil {
		return schema.Event{}, noEOF(err)
	}
	if !r.opts.DisableChecksum {
		if checksum(r.headerBuf, r.payload) != binary.LittleEndian.Uint32(checksumBuf[:]) {
			return schema.Event{}, ErrChecksumMismatch
		}
	}

	rec, err := codec.DecodeRecord(h.Type, r.payload)
	if err != nil {
		return schema.Event{}, errors.Wrapf(err, "decode seq %d", h.Seq)
	}
	return schema.Event{
		ID:      h.ID,
		Seq:     h.Seq,
		Time:    h.Time,
		Version: h.Version,
		Payload: rec,
	}, nil
}

func noEOF(err error) error {
	if err == io.EOF {
		return io.ErrUnexpectedEOF
	}
	return err
}
