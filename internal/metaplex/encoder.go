// Package metaplex encodes instructions for the Metaplex token metadata program.
package metaplex

import (
	"encoding/binary"
	"unicode/utf8"

	"solana-cert-mint/internal/domain"
)

// Encoder appends little-endian, length-prefixed fields to a buffer in call order.
// There is no padding and no decode counterpart.
type Encoder struct {
	buf []byte
}

// NewEncoder creates an encoder with capacity hint n.
func NewEncoder(n int) *Encoder {
	return &Encoder{buf: make([]byte, 0, n)}
}

// WriteU8 appends one byte.
func (e *Encoder) WriteU8(v uint8) {
	e.buf = append(e.buf, v)
}

// WriteBool appends 1 for true, 0 for false.
func (e *Encoder) WriteBool(v bool) {
	if v {
		e.WriteU8(1)
		return
	}
	e.WriteU8(0)
}

// WriteU16 appends a little-endian uint16.
func (e *Encoder) WriteU16(v uint16) {
	e.buf = binary.LittleEndian.AppendUint16(e.buf, v)
}

// WriteU32 appends a little-endian uint32.
func (e *Encoder) WriteU32(v uint32) {
	e.buf = binary.LittleEndian.AppendUint32(e.buf, v)
}

// WriteString appends a u32 byte length followed by the UTF-8 bytes of s.
func (e *Encoder) WriteString(field, s string) error {
	if !utf8.ValidString(s) {
		return &domain.EncodingError{Field: field, Reason: "invalid UTF-8"}
	}
	e.WriteU32(uint32(len(s)))
	e.buf = append(e.buf, s...)
	return nil
}

// WriteOptionNone appends the absent tag of an optional field.
func (e *Encoder) WriteOptionNone() {
	e.WriteU8(0)
}

// WriteOptionSome appends the present tag; the caller then writes the value.
func (e *Encoder) WriteOptionSome() {
	e.WriteU8(1)
}

// WriteFixedBytes appends b as-is, requiring exactly n bytes.
func (e *Encoder) WriteFixedBytes(field string, b []byte, n int) error {
	if len(b) != n {
		return &domain.EncodingError{Field: field, Reason: "unexpected length"}
	}
	e.buf = append(e.buf, b...)
	return nil
}

// Len returns the number of bytes written so far.
func (e *Encoder) Len() int {
	return len(e.buf)
}

// Bytes returns the encoded buffer.
func (e *Encoder) Bytes() []byte {
	return e.buf
}
