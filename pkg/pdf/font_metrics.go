package pdf

import (
	"bytes"
	"errors"
	"fmt"
	"os"

	"github.com/golang/freetype/truetype"
	"golang.org/x/image/font"
	"golang.org/x/image/font/sfnt"
	"golang.org/x/image/math/fixed"
	"golang.org/x/text/encoding/charmap"
)

// ErrEngineInit is returned when the glyph metrics engine cannot be started.
var ErrEngineInit = errors.New("pdf: cannot initialize metrics engine")

// FontFormat identifies the outline format of a font file.
type FontFormat int

const (
	FormatTrueType FontFormat = iota
	FormatOpenType            // CFF outlines
)

func (f FontFormat) String() string {
	if f == FormatOpenType {
		return "OpenType"
	}
	return "TrueType"
}

// MetricsEngine loads glyph metrics for font files. An engine is opened once
// per Writer and closed when the Writer is closed.
type MetricsEngine interface {
	Open() error
	Load(path string) (*FontMetrics, error)
	Close() error
}

// FontMetrics holds the metrics of one font file, in font units unless noted.
type FontMetrics struct {
	Filename       string
	PostScriptName string
	Family         string
	Format         FontFormat
	UnitsPerEm     int
	Ascent         int
	Descent        int // negative below the baseline
	CapHeight      int
	BBox           [4]int
	ItalicAngle    float64
	FixedPitch     bool

	data    []byte
	advance func(r rune) (int, bool)
}

// Data returns the raw font file.
func (m *FontMetrics) Data() []byte { return m.data }

// Advance returns the advance width of r in font units and whether the font
// has a glyph for it.
func (m *FontMetrics) Advance(r rune) (int, bool) {
	if m.advance == nil {
		return 0, false
	}
	return m.advance(r)
}

// scale converts font units to the 1000 unit glyph space used by PDF.
func (m *FontMetrics) scale(v int) int {
	if m.UnitsPerEm <= 0 {
		return v
	}
	if v < 0 {
		return -((-v*1000 + m.UnitsPerEm/2) / m.UnitsPerEm)
	}
	return (v*1000 + m.UnitsPerEm/2) / m.UnitsPerEm
}

// Widths returns the glyph widths, in 1000ths of an em, for the WinAnsi codes
// first to last inclusive. Codes without a glyph get the missing width.
func (m *FontMetrics) Widths(first, last int) []int {
	if last < first {
		return nil
	}
	missing := m.MissingWidth()
	widths := make([]int, 0, last-first+1)
	for code := first; code <= last; code++ {
		r := charmap.Windows1252.DecodeByte(byte(code))
		w, ok := m.Advance(r)
		if !ok {
			widths = append(widths, missing)
			continue
		}
		widths = append(widths, m.scale(w))
	}
	return widths
}

// MissingWidth returns the width used for codes without a glyph.
func (m *FontMetrics) MissingWidth() int {
	w, _ := m.Advance(0)
	return m.scale(w)
}

// StringWidth returns the width of s at the given font size, in points.
func (m *FontMetrics) StringWidth(s string, size float64) float64 {
	total := 0
	for _, r := range s {
		w, ok := m.Advance(r)
		if !ok {
			w, _ = m.Advance(0)
		}
		total += w
	}
	if m.UnitsPerEm <= 0 {
		return 0
	}
	return float64(total) * size / float64(m.UnitsPerEm)
}

// FreetypeEngine loads TrueType fonts with freetype and falls back to the
// sfnt parser for fonts with CFF outlines.
type FreetypeEngine struct {
	// MaxFileSize limits the size of font files read by Load. Zero means
	// no limit.
	MaxFileSize int64

	open   bool
	closed bool
}

// NewFreetypeEngine returns an engine that has not been opened yet.
func NewFreetypeEngine() *FreetypeEngine {
	return &FreetypeEngine{}
}

// Open implements MetricsEngine.
func (e *FreetypeEngine) Open() error {
	if e.closed {
		return fmt.Errorf("%w: engine already closed", ErrEngineInit)
	}
	e.open = true
	return nil
}

// Close implements MetricsEngine.
func (e *FreetypeEngine) Close() error {
	e.open = false
	e.closed = true
	return nil
}

// Load implements MetricsEngine.
func (e *FreetypeEngine) Load(path string) (*FontMetrics, error) {
	if !e.open {
		return nil, errors.New("metrics engine is not open")
	}
	if e.MaxFileSize > 0 {
		st, err := os.Stat(path)
		if err != nil {
			return nil, err
		}
		if st.Size() > e.MaxFileSize {
			return nil, fmt.Errorf("font file %s is %d bytes, limit is %d", path, st.Size(), e.MaxFileSize)
		}
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return ParseFontMetrics(path, data)
}

// ParseFontMetrics reads the metrics of a font file already in memory.
func ParseFontMetrics(path string, data []byte) (*FontMetrics, error) {
	if ttf, err := truetype.Parse(data); err == nil {
		return trueTypeMetrics(path, data, ttf), nil
	}
	otf, err := sfnt.Parse(data)
	if err != nil {
		return nil, fmt.Errorf("parse font %s: %w", path, err)
	}
	return sfntMetrics(path, data, otf)
}

func trueTypeMetrics(path string, data []byte, f *truetype.Font) *FontMetrics {
	upm := int(f.FUnitsPerEm())
	scale := fixed.Int26_6(upm)

	b := f.Bounds(scale)
	ascent, descent := verticalMetrics(data, upm, b)
	m := &FontMetrics{
		Filename:       path,
		PostScriptName: f.Name(truetype.NameIDPostscriptName),
		Family:         f.Name(truetype.NameIDFontFamily),
		Format:         FormatTrueType,
		UnitsPerEm:     upm,
		Ascent:         ascent,
		Descent:        descent,
		BBox:           [4]int{int(b.Min.X), int(b.Min.Y), int(b.Max.X), int(b.Max.Y)},
		data:           data,
	}
	m.CapHeight = trueTypeCapHeight(f, scale)
	if m.CapHeight == 0 {
		m.CapHeight = m.Ascent * 7 / 10
	}
	m.advance = func(r rune) (int, bool) {
		idx := f.Index(r)
		hm := f.HMetric(scale, idx)
		return int(hm.AdvanceWidth), idx != 0 || r == 0
	}
	m.FixedPitch = isFixedPitch(m)
	return m
}

func sfntMetrics(path string, data []byte, f *sfnt.Font) (*FontMetrics, error) {
	var buf sfnt.Buffer
	upm := int(f.UnitsPerEm())
	ppem := fixed.Int26_6(upm)

	fm, err := f.Metrics(&buf, ppem, font.HintingNone)
	if err != nil {
		return nil, fmt.Errorf("read metrics of %s: %w", path, err)
	}
	b, err := f.Bounds(&buf, ppem, font.HintingNone)
	if err != nil {
		return nil, fmt.Errorf("read bounds of %s: %w", path, err)
	}
	psName, _ := f.Name(&buf, sfnt.NameIDPostScript)
	family, _ := f.Name(&buf, sfnt.NameIDFamily)

	format := FormatTrueType
	if bytes.HasPrefix(data, []byte("OTTO")) {
		format = FormatOpenType
	}
	m := &FontMetrics{
		Filename:       path,
		PostScriptName: psName,
		Family:         family,
		Format:         format,
		UnitsPerEm:     upm,
		Ascent:         int(fm.Ascent),
		Descent:        -int(fm.Descent),
		CapHeight:      int(fm.CapHeight),
		BBox:           [4]int{int(b.Min.X), -int(b.Max.Y), int(b.Max.X), -int(b.Min.Y)},
		data:           data,
	}
	m.advance = func(r rune) (int, bool) {
		var buf sfnt.Buffer
		idx, err := f.GlyphIndex(&buf, r)
		if err != nil {
			return 0, false
		}
		adv, err := f.GlyphAdvance(&buf, idx, ppem, font.HintingNone)
		if err != nil {
			return 0, false
		}
		return int(adv), idx != 0 || r == 0
	}
	if m.CapHeight == 0 {
		m.CapHeight = m.Ascent * 7 / 10
	}
	m.FixedPitch = isFixedPitch(m)
	return m, nil
}

// verticalMetrics reads the hhea ascent and descent in font units. Fonts
// the sfnt parser rejects fall back to the bounding box.
func verticalMetrics(data []byte, upm int, b fixed.Rectangle26_6) (ascent, descent int) {
	if f, err := sfnt.Parse(data); err == nil {
		var buf sfnt.Buffer
		if fm, err := f.Metrics(&buf, fixed.Int26_6(upm), font.HintingNone); err == nil {
			return int(fm.Ascent), -int(fm.Descent)
		}
	}
	return int(b.Max.Y), int(b.Min.Y)
}

// trueTypeCapHeight measures the top of the 'H' glyph.
func trueTypeCapHeight(f *truetype.Font, scale fixed.Int26_6) int {
	idx := f.Index('H')
	if idx == 0 {
		return 0
	}
	var g truetype.GlyphBuf
	if err := g.Load(f, scale, idx, font.HintingNone); err != nil {
		return 0
	}
	return int(g.Bounds.Max.Y)
}

func isFixedPitch(m *FontMetrics) bool {
	wi, ok1 := m.Advance('i')
	ww, ok2 := m.Advance('W')
	return ok1 && ok2 && wi == ww
}
