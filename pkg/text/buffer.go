package text

import (
	"fmt"
	"strconv"
	"unicode/utf8"

	"github.com/aretw0/threadbare/pkg/domain"
)

// Buffer is a fixed-capacity text accumulator with its markup and a
// condition gate used by generated code for conditional lines.
type Buffer struct {
	text      []byte
	Markup    Markup
	Condition bool
}

// NewBuffer allocates a buffer holding at most capacity bytes of text.
func NewBuffer(capacity int, ml domain.MarkupLimits) *Buffer {
	b := &Buffer{}
	b.init(capacity, ml)
	return b
}

func (b *Buffer) init(capacity int, ml domain.MarkupLimits) {
	b.text = make([]byte, 0, capacity)
	b.Markup = NewMarkup(ml)
	b.Condition = true
}

// StartNewLine resets text, markup and condition for reuse.
func (b *Buffer) StartNewLine() {
	b.text = b.text[:0]
	b.Markup.Clear()
	b.Condition = true
}

// Write implements io.Writer. Overflowing the capacity panics.
func (b *Buffer) Write(p []byte) (int, error) {
	b.grow(len(p))
	b.text = append(b.text, p...)
	return len(p), nil
}

// WriteString implements io.StringWriter. Overflowing the capacity panics.
func (b *Buffer) WriteString(s string) (int, error) {
	b.grow(len(s))
	b.text = append(b.text, s...)
	return len(s), nil
}

func (b *Buffer) grow(n int) {
	if len(b.text)+n > cap(b.text) {
		domain.Violate("TextBuffer.Write", domain.ErrBufferOverflow,
			"%d bytes + %d exceeds capacity %d", len(b.text), n, cap(b.text))
	}
}

// Text appends s and returns the buffer for chaining.
func (b *Buffer) Text(s string) *Buffer {
	_, _ = b.WriteString(s)
	return b
}

// Int appends the decimal form of v.
func (b *Buffer) Int(v int) *Buffer {
	var scratch [24]byte
	_, _ = b.Write(strconv.AppendInt(scratch[:0], int64(v), 10))
	return b
}

// Float appends the shortest decimal form of v.
func (b *Buffer) Float(v float64) *Buffer {
	var scratch [32]byte
	_, _ = b.Write(strconv.AppendFloat(scratch[:0], v, 'f', -1, 64))
	return b
}

// Bool appends "true" or "false".
func (b *Buffer) Bool(v bool) *Buffer {
	return b.Text(strconv.FormatBool(v))
}

// Printf appends formatted text.
func (b *Buffer) Printf(format string, args ...any) *Buffer {
	_, _ = fmt.Fprintf(b, format, args...)
	return b
}

// Tag appends a line tag to the markup.
func (b *Buffer) Tag(tag domain.LineTag, params ...int) *Buffer {
	b.Markup.AddTag(tag, params...)
	return b
}

// Mark records an attribute starting at the current end of the text.
func (b *Buffer) Mark(attr domain.Attribute, params ...AttributeParam) *Buffer {
	b.Markup.AddAttribute(attr, b.Position(), params...)
	return b
}

// String returns a copy of the accumulated text.
func (b *Buffer) String() string { return string(b.text) }

// Bytes returns the accumulated text. It aliases the buffer until the next write.
func (b *Buffer) Bytes() []byte { return b.text }

// Len returns the text length in bytes.
func (b *Buffer) Len() int { return len(b.text) }

// Cap returns the capacity in bytes.
func (b *Buffer) Cap() int { return cap(b.text) }

// Position returns the length of the text in runes, the unit of attribute positions.
func (b *Buffer) Position() int { return utf8.RuneCount(b.text) }
