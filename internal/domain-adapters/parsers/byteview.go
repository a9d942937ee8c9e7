// Package parsers decodes executable container formats directly from raw bytes.
//
// Inputs are treated as adversarial: every offset-based access goes through
// byteView, which checks the full range against the buffer before reading.
package parsers

import (
	"bytes"
	"encoding/binary"
)

// byteView is a read-only, bounds-checked window over a buffer
type byteView struct {
	data  []byte
	order binary.ByteOrder
}

func newByteView(data []byte, order binary.ByteOrder) byteView {
	return byteView{data: data, order: order}
}

func (v byteView) size() uint64 {
	return uint64(len(v.data))
}

// has reports whether [off, off+n) lies inside the buffer, without overflowing
func (v byteView) has(off, n uint64) bool {
	size := v.size()
	return off <= size && n <= size-off
}

func (v byteView) bytes(off, n uint64) ([]byte, bool) {
	if !v.has(off, n) {
		return nil, false
	}
	return v.data[off : off+n], true
}

func (v byteView) u8(off uint64) (uint8, bool) {
	if !v.has(off, 1) {
		return 0, false
	}
	return v.data[off], true
}

func (v byteView) u16(off uint64) (uint16, bool) {
	b, ok := v.bytes(off, 2)
	if !ok {
		return 0, false
	}
	return v.order.Uint16(b), true
}

func (v byteView) u32(off uint64) (uint32, bool) {
	b, ok := v.bytes(off, 4)
	if !ok {
		return 0, false
	}
	return v.order.Uint32(b), true
}

func (v byteView) u64(off uint64) (uint64, bool) {
	b, ok := v.bytes(off, 8)
	if !ok {
		return 0, false
	}
	return v.order.Uint64(b), true
}

// word reads a 4- or 8-byte unsigned value depending on width
func (v byteView) word(off uint64, width int) (uint64, bool) {
	if width == 8 {
		return v.u64(off)
	}
	w, ok := v.u32(off)
	return uint64(w), ok
}

// cstring reads a NUL-terminated string of at most maxLen bytes.
// The terminator may be missing when the string runs into maxLen, but not into the buffer end.
func (v byteView) cstring(off uint64, maxLen int) (string, bool) {
	if off >= v.size() {
		return "", false
	}
	end := v.size()
	if limit := off + uint64(maxLen); limit < end {
		end = limit
	}
	window := v.data[off:end]
	if i := bytes.IndexByte(window, 0); i >= 0 {
		return string(window[:i]), true
	}
	if end == v.size() {
		return "", false
	}
	return string(window), true
}

// window copies up to n bytes starting at off; it returns nil when off is outside the buffer
func (v byteView) window(off uint64, n int) []byte {
	if n <= 0 || off >= v.size() {
		return nil
	}
	end := v.size()
	if limit := off + uint64(n); limit < end {
		end = limit
	}
	out := make([]byte, end-off)
	copy(out, v.data[off:end])
	return out
}

// addOK adds two offsets, reporting overflow
func addOK(a, b uint64) (uint64, bool) {
	s := a + b
	return s, s >= a
}

// mulOK multiplies two counts, reporting overflow
func mulOK(a, b uint64) (uint64, bool) {
	if a == 0 || b == 0 {
		return 0, true
	}
	p := a * b
	return p, p/b == a
}
