package bot

import (
	"fmt"
	"strings"
)

// Format is a type of message formatting in Telegram in HTML format.
type Format string

const (
	Bold   Format = "<b>"
	Italic Format = "<i>"
	Code   Format = "<code>"

	boldEnd   = "</b>"
	italicEnd = "</i>"
	codeEnd   = "</code>"
)

// F returns a formatted string.
func F(msg string, formats ...Format) string {
	for _, f := range formats {
		switch f {
		case Bold:
			msg = string(Bold) + msg + boldEnd
		case Italic:
			msg = string(Italic) + msg + italicEnd
		case Code:
			msg = string(Code) + msg + codeEnd
		}
	}
	return msg
}

// Builder builds a message from lines.
type Builder struct {
	b strings.Builder
}

// NewBuilder creates a new message builder.
func NewBuilder() *Builder {
	return &Builder{}
}

// Writef writes a formatted string.
func (b *Builder) Writef(format string, args ...any) {
	b.b.WriteString(fmt.Sprintf(format, args...))
}

// Writeln writes a string with a trailing newline.
func (b *Builder) Writeln(s string) {
	b.b.WriteString(s)
	b.b.WriteString("\n")
}

// String returns the built message.
func (b *Builder) String() string {
	return b.b.String()
}
