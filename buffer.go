package dnp3

// C3: a non-owning cursor over a byte slice. Buffer never copies the
// underlying data; every Take/Peek returns a sub-slice of the original
// fragment, so the parser and the lazy iterables it hands out stay
// allocation-free on the read path.
type Buffer struct {
	data []byte
	pos  int
}

// NewBuffer wraps data for sequential, bounds-checked reads starting at
// position 0.
func NewBuffer(data []byte) *Buffer {
	return &Buffer{data: data}
}

// Remaining is the number of unread bytes left in the buffer.
func (b *Buffer) Remaining() int {
	return len(b.data) - b.pos
}

// Empty reports whether the buffer has no unread bytes.
func (b *Buffer) Empty() bool {
	return b.Remaining() == 0
}

// Peek returns the next n bytes without advancing the cursor. ok is false
// if fewer than n bytes remain.
func (b *Buffer) Peek(n int) (out []byte, ok bool) {
	if n < 0 || b.Remaining() < n {
		return nil, false
	}
	return b.data[b.pos : b.pos+n], true
}

// Take returns the next n bytes and advances the cursor past them. ok is
// false (and the cursor is left unmoved) if fewer than n bytes remain.
func (b *Buffer) Take(n int) (out []byte, ok bool) {
	out, ok = b.Peek(n)
	if !ok {
		return nil, false
	}
	b.pos += n
	return out, true
}

// TakeByte returns the next single byte and advances the cursor.
func (b *Buffer) TakeByte() (byte, bool) {
	out, ok := b.Take(1)
	if !ok {
		return 0, false
	}
	return out[0], true
}

// Skip advances the cursor by n bytes without returning them. ok is false
// (and the cursor is left unmoved) if fewer than n bytes remain.
func (b *Buffer) Skip(n int) (ok bool) {
	_, ok = b.Take(n)
	return ok
}
