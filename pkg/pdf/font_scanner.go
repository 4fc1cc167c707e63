package pdf

import (
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"strings"

	"github.com/golang/freetype/truetype"
	"golang.org/x/image/font/sfnt"
)

// FontLocator maps a font family name to the absolute path of a font file.
// Resolve returns the empty string when no file matches.
type FontLocator interface {
	Resolve(family string) string
	Close() error
}

// SystemFontInfo contains information about a scanned font file
type SystemFontInfo struct {
	Path       string
	Family     string
	Style      string
	FullName   string
	PostScript string
}

func (info *SystemFontInfo) isRegular() bool {
	switch strings.ToLower(info.Style) {
	case "", "regular", "normal", "book", "roman":
		return true
	}
	return false
}

// FontScanner scans font directories and resolves family names to files.
// Directories are scanned lazily on the first lookup.
type FontScanner struct {
	dirs    []string
	scanned bool
	closed  bool
	fonts   map[string]*SystemFontInfo // key: normalized font name
	files   []*SystemFontInfo
}

// NewFontScanner creates a scanner over the given directories.
func NewFontScanner(dirs ...string) *FontScanner {
	return &FontScanner{
		dirs:  dirs,
		fonts: make(map[string]*SystemFontInfo),
	}
}

// NewSystemFontScanner creates a scanner over the font directories of the
// current operating system.
func NewSystemFontScanner() *FontScanner {
	return NewFontScanner(SystemFontDirectories()...)
}

// SystemFontDirectories returns system font directories
func SystemFontDirectories() []string {
	home, _ := os.UserHomeDir()
	switch runtime.GOOS {
	case "windows":
		windir := os.Getenv("WINDIR")
		if windir == "" {
			windir = "C:\\Windows"
		}
		dirs := []string{filepath.Join(windir, "Fonts")}
		if local := os.Getenv("LOCALAPPDATA"); local != "" {
			dirs = append(dirs, filepath.Join(local, "Microsoft", "Windows", "Fonts"))
		}
		return dirs
	case "darwin":
		return []string{
			"/System/Library/Fonts",
			"/Library/Fonts",
			filepath.Join(home, "Library", "Fonts"),
		}
	default: // linux
		return []string{
			"/usr/share/fonts",
			"/usr/local/share/fonts",
			filepath.Join(home, ".fonts"),
			filepath.Join(home, ".local", "share", "fonts"),
		}
	}
}

// Resolve implements FontLocator. An existing font file path is accepted
// as is.
func (fs *FontScanner) Resolve(family string) string {
	if fs.closed || strings.TrimSpace(family) == "" {
		return ""
	}
	if filepath.IsAbs(family) && isFontFile(family) {
		if st, err := os.Stat(family); err == nil && !st.IsDir() {
			return filepath.Clean(family)
		}
	}
	if !fs.scanned {
		fs.Scan()
	}
	if info, ok := fs.fonts[normalizeFontName(family)]; ok {
		return info.Path
	}
	return ""
}

// Close implements FontLocator and drops the index.
func (fs *FontScanner) Close() error {
	fs.closed = true
	fs.fonts = nil
	fs.files = nil
	return nil
}

// Fonts returns the scanned font files sorted by path.
func (fs *FontScanner) Fonts() []*SystemFontInfo {
	if !fs.scanned && !fs.closed {
		fs.Scan()
	}
	out := append([]*SystemFontInfo(nil), fs.files...)
	sort.Slice(out, func(i, j int) bool { return out[i].Path < out[j].Path })
	return out
}

// Scan walks all directories and indexes the font files found.
func (fs *FontScanner) Scan() {
	fs.scanned = true
	for _, dir := range fs.dirs {
		if _, err := os.Stat(dir); err != nil {
			continue
		}
		abs, err := filepath.Abs(dir)
		if err != nil {
			continue
		}
		filepath.Walk(abs, func(path string, info os.FileInfo, err error) error {
			if err != nil {
				return nil // Skip errors
			}
			if info.IsDir() || !isFontFile(path) {
				return nil
			}
			fs.scanFont(path)
			return nil
		})
	}
}

func isFontFile(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".ttf", ".otf":
		return true
	}
	return false
}

// scanFont indexes a single font file
func (fs *FontScanner) scanFont(path string) {
	fontBytes, err := os.ReadFile(path)
	if err != nil {
		return
	}
	info, ok := readFontNames(path, fontBytes)
	if !ok {
		return
	}
	fs.files = append(fs.files, info)

	basename := filepath.Base(path)
	stem := strings.TrimSuffix(basename, filepath.Ext(basename))

	// exact names first, they never get displaced
	for _, name := range []string{info.FullName, info.PostScript, stem} {
		key := normalizeFontName(name)
		if key == "" {
			continue
		}
		if _, exists := fs.fonts[key]; !exists {
			fs.fonts[key] = info
		}
	}

	// a family name resolves to its regular style when there is one
	key := normalizeFontName(info.Family)
	if key == "" {
		return
	}
	if prev, exists := fs.fonts[key]; !exists || (!prev.isRegular() && info.isRegular()) {
		fs.fonts[key] = info
	}
}

func readFontNames(path string, data []byte) (*SystemFontInfo, bool) {
	info := &SystemFontInfo{Path: path}
	if f, err := truetype.Parse(data); err == nil {
		info.Family = f.Name(truetype.NameIDFontFamily)
		info.Style = f.Name(truetype.NameIDFontSubfamily)
		info.FullName = f.Name(truetype.NameIDFontFullName)
		info.PostScript = f.Name(truetype.NameIDPostscriptName)
		return info, true
	}
	f, err := sfnt.Parse(data)
	if err != nil {
		return nil, false
	}
	var buf sfnt.Buffer
	info.Family, _ = f.Name(&buf, sfnt.NameIDFamily)
	info.Style, _ = f.Name(&buf, sfnt.NameIDSubfamily)
	info.FullName, _ = f.Name(&buf, sfnt.NameIDFull)
	info.PostScript, _ = f.Name(&buf, sfnt.NameIDPostScript)
	return info, true
}

// normalizeFontName folds case and drops spaces, dashes and underscores, so
// "Liberation Sans", "liberation-sans" and "LiberationSans" are one key.
func normalizeFontName(name string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(name) {
		switch r {
		case ' ', '-', '_', '\t':
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

// MapFontLocator resolves family names from a fixed table.
type MapFontLocator map[string]string

// Resolve implements FontLocator.
func (m MapFontLocator) Resolve(family string) string {
	if p, ok := m[family]; ok {
		return p
	}
	return m[normalizeFontName(family)]
}

// Close implements FontLocator.
func (MapFontLocator) Close() error { return nil }
