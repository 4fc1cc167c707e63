package pdf

import (
	"bytes"
	"fmt"
	"time"

	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/unicode"
)

// escapeLiteral writes s as a literal string, escaping the delimiters and
// any byte a reader could mistake for a line ending.
func escapeLiteral(s []byte) []byte {
	var buf bytes.Buffer
	buf.Grow(len(s) + 2)
	buf.WriteByte('(')
	for _, b := range s {
		switch b {
		case '\\', '(', ')':
			buf.WriteByte('\\')
			buf.WriteByte(b)
		case '\r':
			buf.WriteString(`\r`)
		case '\n':
			buf.WriteString(`\n`)
		case '\t':
			buf.WriteString(`\t`)
		case '\b':
			buf.WriteString(`\b`)
		case '\f':
			buf.WriteString(`\f`)
		default:
			if b < 0x20 {
				fmt.Fprintf(&buf, `\%03o`, b)
			} else {
				buf.WriteByte(b)
			}
		}
	}
	buf.WriteByte(')')
	return buf.Bytes()
}

func isDelimiter(c byte) bool {
	switch c {
	case '(', ')', '<', '>', '[', ']', '{', '}', '/', '%':
		return true
	}
	return false
}

// escapeName writes n with a leading slash. Bytes outside the regular
// character range and the '#' itself are written as #xx.
func escapeName(n Name) []byte {
	var buf bytes.Buffer
	buf.Grow(len(n) + 1)
	buf.WriteByte('/')
	for i := 0; i < len(n); i++ {
		c := n[i]
		if c < 0x21 || c > 0x7e || c == '#' || isDelimiter(c) {
			fmt.Fprintf(&buf, "#%02X", c)
			continue
		}
		buf.WriteByte(c)
	}
	return buf.Bytes()
}

// TextString encodes s as a PDF text string. Text that fits the Latin-1
// subset of PDFDocEncoding is stored byte for byte, everything else as
// UTF-16BE with a byte order mark.
func TextString(s string) String {
	if b, ok := pdfDocEncode(s); ok {
		return String{Value: b}
	}
	enc := unicode.UTF16(unicode.BigEndian, unicode.UseBOM).NewEncoder()
	b, err := enc.Bytes([]byte(s))
	if err != nil {
		// the UTF-16 encoder replaces invalid input, it does not fail
		panic(err)
	}
	return String{Value: b}
}

func pdfDocEncode(s string) ([]byte, bool) {
	for _, r := range s {
		switch {
		case r == '\t' || r == '\n' || r == '\r':
		case r >= 0x20 && r < 0x7f:
		case r >= 0xa1 && r <= 0xff && r != 0xad:
		default:
			return nil, false
		}
	}
	b, err := charmap.ISO8859_1.NewEncoder().Bytes([]byte(s))
	if err != nil {
		return nil, false
	}
	return b, true
}

// Date creates a PDF String object encoding the given date and time.
func Date(t time.Time) String {
	s := t.Format("D:20060102150405-0700")
	k := len(s) - 2
	s = s[:k] + "'" + s[k:] + "'"
	return String{Value: []byte(s)}
}
