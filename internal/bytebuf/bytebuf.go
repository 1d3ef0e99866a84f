// Package bytebuf implements a small growable byte vector, the kind of
// utility a node buffer is built on top of. It is intentionally thin:
// reserve, append, truncate, nothing else. Node page logic in package
// btree is the only thing that should know what the bytes mean.
package bytebuf

// Buffer is a growable byte vector. The zero value is an empty buffer
// ready to use.
type Buffer struct {
	buf []byte
}

// New returns an empty buffer with capacity hinted by cap.
func New(cap int) *Buffer {
	return &Buffer{buf: make([]byte, 0, cap)}
}

// FromBytes wraps an existing slice without copying it.
func FromBytes(b []byte) *Buffer {
	return &Buffer{buf: b}
}

// Len returns the current length in bytes.
func (b *Buffer) Len() int { return len(b.buf) }

// Bytes returns the underlying slice. Callers may mutate it in place;
// they must not retain it past the buffer's next Reserve/SetLen/Grow.
func (b *Buffer) Bytes() []byte { return b.buf }

// Append appends p to the buffer, growing as needed.
func (b *Buffer) Append(p []byte) {
	b.buf = append(b.buf, p...)
}

// Reserve ensures the buffer has room for at least n more bytes beyond
// its current length without reallocating on the next append, and
// returns the (possibly reallocated) backing slice at its current
// length. It does not change Len().
func (b *Buffer) Reserve(n int) []byte {
	if cap(b.buf)-len(b.buf) >= n {
		return b.buf
	}
	grown := make([]byte, len(b.buf), len(b.buf)+n)
	copy(grown, b.buf)
	b.buf = grown
	return b.buf
}

// Grow extends the buffer by n zero bytes and returns the new length.
func (b *Buffer) Grow(n int) int {
	b.Reserve(n)
	old := len(b.buf)
	b.buf = b.buf[:old+n]
	clear(b.buf[old:])
	return len(b.buf)
}

// SetLen truncates or extends (with zero bytes) the buffer to exactly
// n bytes. Extending beyond current capacity reallocates.
func (b *Buffer) SetLen(n int) {
	if n <= len(b.buf) {
		b.buf = b.buf[:n]
		return
	}
	old := len(b.buf)
	b.Reserve(n - old)
	b.buf = b.buf[:n]
	clear(b.buf[old:])
}
