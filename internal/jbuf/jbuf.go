// Package jbuf provides an append-only byte builder for wire text.
//
// Every append computes the exact number of additional bytes it needs and
// grows the buffer before writing. Centralizing the check-then-grow
// discipline here means codec call sites can never write past capacity.
package jbuf

import "strconv"

// MaxNumLength is the worst-case decimal length of a 64-bit value,
// including a sign. Codecs use it to pre-size numeric appends.
const MaxNumLength = 20

// Builder accumulates wire text with amortized geometric growth.
// The zero value is ready to use; New pre-sizes the first allocation.
type Builder struct {
	buf []byte
}

func New(capacity int) *Builder {
	return &Builder{buf: make([]byte, 0, capacity)}
}

// Grow ensures room for at least n more bytes.
func (b *Builder) Grow(n int) {
	if n <= 0 {
		return
	}
	need := len(b.buf) + n
	if need <= cap(b.buf) {
		return
	}
	newCap := 2 * cap(b.buf)
	if newCap < need {
		newCap = need
	}
	next := make([]byte, len(b.buf), newCap)
	copy(next, b.buf)
	b.buf = next
}

func (b *Builder) Len() int {
	return len(b.buf)
}

func (b *Builder) Bytes() []byte {
	return b.buf
}

func (b *Builder) String() string {
	return string(b.buf)
}

func (b *Builder) Reset() {
	b.buf = b.buf[:0]
}

func (b *Builder) Byte(c byte) {
	b.Grow(1)
	b.buf = append(b.buf, c)
}

func (b *Builder) Str(s string) {
	b.Grow(len(s))
	b.buf = append(b.buf, s...)
}

// Quoted appends s wrapped in double quotes with JSON escaping.
func (b *Builder) Quoted(s string) {
	b.Grow(2*len(s) + 2)
	b.buf = strconv.AppendQuote(b.buf, s)
}

func (b *Builder) Int(v int64) {
	b.Grow(MaxNumLength)
	b.buf = strconv.AppendInt(b.buf, v, 10)
}

func (b *Builder) Uint(v uint64) {
	b.Grow(MaxNumLength)
	b.buf = strconv.AppendUint(b.buf, v, 10)
}

func (b *Builder) Float(v float64) {
	b.Grow(32)
	b.buf = strconv.AppendFloat(b.buf, v, 'g', -1, 64)
}
