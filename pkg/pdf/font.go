package pdf

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrFontNotFound is returned when a family name resolves to no file.
	ErrFontNotFound = errors.New("pdf: font not found")
	// ErrFontInit is returned when a font object cannot be initialized.
	ErrFontInit = errors.New("pdf: cannot initialize font")
)

// WinAnsi code range covered by the /Widths array of a simple font.
const (
	firstChar = 32
	lastChar  = 255
)

// font descriptor flags, PDF 32000-1 table 123
const (
	flagFixedPitch  = 1 << 0
	flagNonsymbolic = 1 << 5
	flagItalic      = 1 << 6
)

// Font is a /Type /Font object backed by a font file.
type Font struct {
	*IndirectObject
	metrics    *FontMetrics
	descriptor *IndirectObject
	file       *IndirectObject
	embedded   bool
}

func newFont(obj *IndirectObject) *Font {
	return &Font{IndirectObject: obj}
}

// Metrics returns the glyph metrics the font was built from.
func (f *Font) Metrics() *FontMetrics { return f.metrics }

// Path returns the resolved font file path.
func (f *Font) Path() string {
	if f.metrics == nil {
		return ""
	}
	return f.metrics.Filename
}

// Embedded reports whether the font program is part of the document.
func (f *Font) Embedded() bool { return f.embedded }

// BaseFont returns the PostScript name written to /BaseFont.
func (f *Font) BaseFont() Name {
	n, _ := f.IndirectObject.dict.GetName("BaseFont")
	return n
}

// Init fills in the font dictionary from the metrics and, when embed is
// set, stores the compressed font program in the document.
func (f *Font) Init(m *FontMetrics, store *ObjectStore, embed bool, compress bool) error {
	if m == nil {
		return fmt.Errorf("%w: no metrics", ErrFontInit)
	}
	if m.UnitsPerEm <= 0 {
		return fmt.Errorf("%w: %s: invalid units per em %d", ErrFontInit, m.Filename, m.UnitsPerEm)
	}
	if embed && len(m.Data()) == 0 {
		return fmt.Errorf("%w: %s: no font data to embed", ErrFontInit, m.Filename)
	}
	f.metrics = m

	baseFont := Name(baseFontName(m))
	f.Set("Subtype", Name("TrueType"))
	f.Set("BaseFont", baseFont)
	f.Set("FirstChar", Integer(firstChar))
	f.Set("LastChar", Integer(lastChar))
	f.Set("Encoding", Name("WinAnsiEncoding"))

	widths := make(Array, 0, lastChar-firstChar+1)
	for _, w := range m.Widths(firstChar, lastChar) {
		widths = append(widths, Integer(w))
	}
	f.Set("Widths", widths)

	f.descriptor = store.CreateObject("FontDescriptor")
	d := f.descriptor
	d.Set("FontName", baseFont)
	d.Set("Flags", Integer(descriptorFlags(m)))
	d.Set("FontBBox", Array{
		Integer(m.scale(m.BBox[0])), Integer(m.scale(m.BBox[1])),
		Integer(m.scale(m.BBox[2])), Integer(m.scale(m.BBox[3])),
	})
	d.Set("ItalicAngle", Real(m.ItalicAngle))
	d.Set("Ascent", Integer(m.scale(m.Ascent)))
	d.Set("Descent", Integer(m.scale(m.Descent)))
	d.Set("CapHeight", Integer(m.scale(m.CapHeight)))
	d.Set("StemV", Integer(80))
	d.Set("MissingWidth", Integer(m.MissingWidth()))

	if embed {
		if err := f.embed(store, compress); err != nil {
			return fmt.Errorf("%w: %s: %v", ErrFontInit, m.Filename, err)
		}
	}
	f.Set("FontDescriptor", d.Reference())
	return nil
}

func (f *Font) embed(store *ObjectStore, compress bool) error {
	data := f.metrics.Data()
	f.file = store.CreateObject("")
	key := Name("FontFile2")
	if f.metrics.Format == FormatOpenType {
		key = "FontFile3"
		f.file.Set("Subtype", Name("OpenType"))
	} else {
		f.file.Set("Length1", Integer(len(data)))
	}
	if compress {
		var err error
		if data, err = deflate(data); err != nil {
			return err
		}
		f.file.Set("Filter", Name("FlateDecode"))
	}
	f.file.SetStream(data)
	f.descriptor.Set(key, f.file.Reference())
	f.embedded = true
	return nil
}

func descriptorFlags(m *FontMetrics) int {
	flags := flagNonsymbolic
	if m.FixedPitch {
		flags |= flagFixedPitch
	}
	if m.ItalicAngle != 0 {
		flags |= flagItalic
	}
	return flags
}

// baseFontName derives a PostScript name without spaces.
func baseFontName(m *FontMetrics) string {
	name := m.PostScriptName
	if name == "" {
		name = m.Family
	}
	if name == "" {
		name = "Font"
	}
	return strings.Map(func(r rune) rune {
		if r <= ' ' || r > '~' || isDelimiter(byte(r)) {
			return -1
		}
		return r
	}, name)
}
