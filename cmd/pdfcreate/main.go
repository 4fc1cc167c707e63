// pdfcreate - build a PDF document from text lines
package main

import (
	"bufio"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	"golang.org/x/text/encoding/charmap"

	"github.com/novvoo/go-pdfwriter/pkg/observability"
	"github.com/novvoo/go-pdfwriter/pkg/pdf"
)

var (
	outputFile   string
	numPages     int
	paperSize    string
	fontFamily   string
	fontSize     float64
	embedFont    bool
	compress     bool
	imageFile    string
	title        string
	author       string
	subject      string
	keywords     string
	fontDirs     string
	logLevel     string
	printVersion bool
	printHelp    bool
)

func init() {
	flag.StringVar(&outputFile, "o", "out.pdf", "output PDF file")
	flag.IntVar(&numPages, "pages", 1, "number of pages when no text input is given")
	flag.StringVar(&paperSize, "size", "A4", "paper size (A3, A4, A5, Letter, Legal)")
	flag.StringVar(&fontFamily, "font", "", "font family used for the text")
	flag.Float64Var(&fontSize, "fontsize", 12, "font size in points")
	flag.BoolVar(&embedFont, "embed", false, "embed the font program")
	flag.BoolVar(&compress, "z", true, "compress embedded font files")
	flag.StringVar(&imageFile, "image", "", "image placed on the first page")
	flag.StringVar(&title, "title", "", "document title")
	flag.StringVar(&author, "author", "", "document author")
	flag.StringVar(&subject, "subject", "", "document subject")
	flag.StringVar(&keywords, "keywords", "", "document keywords")
	flag.StringVar(&fontDirs, "fontdir", "", "colon separated font directories (default: system fonts)")
	flag.StringVar(&logLevel, "log", "warn", "log level (debug, info, warn, error)")
	flag.BoolVar(&printVersion, "v", false, "print copyright and version info")
	flag.BoolVar(&printHelp, "h", false, "print usage information")

	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "pdfcreate version 0.1.0\n")
		fmt.Fprintf(os.Stderr, "Copyright 2024 go-pdfwriter authors\n")
		fmt.Fprintf(os.Stderr, "Usage: pdfcreate [options] [<text-file>]\n\n")
		fmt.Fprintf(os.Stderr, "Each line of the text file becomes a line on a page; a form feed\n")
		fmt.Fprintf(os.Stderr, "starts a new page. Use - to read standard input.\n\n")
		fmt.Fprintf(os.Stderr, "Options:\n")
		flag.PrintDefaults()
	}
}

func main() {
	flag.Parse()

	if printVersion {
		fmt.Println("pdfcreate version 0.1.0")
		os.Exit(0)
	}
	if printHelp {
		flag.Usage()
		os.Exit(0)
	}

	if err := run(flag.Args()); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run(args []string) error {
	level, err := observability.ParseLevel(logLevel)
	if err != nil {
		return err
	}
	logger := observability.NewTextLogger(os.Stderr, level)

	size, ok := pdf.PaperSize(paperSize)
	if !ok {
		return fmt.Errorf("unknown paper size %q", paperSize)
	}

	var pages [][]string
	if len(args) > 0 {
		pages, err = readPages(args[0])
		if err != nil {
			return err
		}
	} else {
		for i := 0; i < numPages; i++ {
			pages = append(pages, []string{fmt.Sprintf("Page %d of %d", i+1, numPages)})
		}
	}
	if len(pages) == 0 {
		pages = append(pages, nil)
	}

	opts := []pdf.Option{
		pdf.WithLogger(logger),
		pdf.WithCompression(compress),
	}
	if fontDirs != "" {
		opts = append(opts, pdf.WithLocator(pdf.NewFontScanner(strings.Split(fontDirs, ":")...)))
	}

	w, err := pdf.NewWriter(opts...)
	if err != nil {
		return err
	}
	defer w.Close()

	w.SetCreator("pdfcreate")
	if title != "" {
		w.SetTitle(title)
	}
	if author != "" {
		w.SetAuthor(author)
	}
	if subject != "" {
		w.SetSubject(subject)
	}
	if keywords != "" {
		w.SetKeywords(keywords)
	}

	var font *pdf.Font
	if fontFamily != "" {
		font, err = w.CreateFont(fontFamily, embedFont)
		if err != nil {
			return err
		}
	}

	if font == nil && len(args) > 0 {
		logger.Warn("no font given, text omitted", observability.String("input", args[0]))
	}

	var img *pdf.Image
	if imageFile != "" {
		img = w.CreateImage()
		if err := img.LoadFile(imageFile); err != nil {
			return err
		}
	}

	for i, lines := range pages {
		page, err := w.CreatePage(size)
		if err != nil {
			return err
		}
		var content strings.Builder
		if i == 0 && img != nil {
			name := page.AddImageResource(img)
			writeImage(&content, name, img, size)
		}
		if font != nil && len(lines) > 0 {
			name := page.AddFontResource(font)
			writeText(&content, name, lines, size)
		}
		page.SetContents([]byte(content.String()))
	}

	if err := w.WriteFile(outputFile); err != nil {
		return err
	}
	logger.Info("document written",
		observability.String("file", outputFile),
		observability.Int("pages", len(pages)),
		observability.Int("objects", w.Store().Len()))
	return nil
}

// readPages splits the input into pages at form feeds.
func readPages(path string) ([][]string, error) {
	var r io.Reader = os.Stdin
	if path != "-" {
		f, err := os.Open(path)
		if err != nil {
			return nil, err
		}
		defer f.Close()
		r = f
	}

	pages := [][]string{nil}
	sc := bufio.NewScanner(r)
	for sc.Scan() {
		parts := strings.Split(sc.Text(), "\f")
		for j, part := range parts {
			if j > 0 {
				pages = append(pages, nil)
			}
			if part == "" && len(parts) > 1 {
				continue
			}
			pages[len(pages)-1] = append(pages[len(pages)-1], part)
		}
	}
	return pages, sc.Err()
}

func writeText(b *strings.Builder, font pdf.Name, lines []string, size pdf.Rectangle) {
	const margin = 72
	leading := fontSize * 1.2
	fmt.Fprintf(b, "BT\n%s %s Tf\n%s TL\n%s %s Td\n",
		font, pdf.Real(fontSize), pdf.Real(leading),
		pdf.Real(size.LLX+margin), pdf.Real(size.URY-margin))
	y := size.URY - margin
	for _, line := range lines {
		if y < size.LLY+margin {
			break
		}
		fmt.Fprintf(b, "%s Tj T*\n", winAnsi(line))
		y -= leading
	}
	b.WriteString("ET\n")
}

func writeImage(b *strings.Builder, name pdf.Name, img *pdf.Image, size pdf.Rectangle) {
	w, h := float64(img.Width()), float64(img.Height())
	maxW := size.Width() - 144
	if w > maxW {
		h = h * maxW / w
		w = maxW
	}
	x := size.LLX + 72
	y := size.LLY + 72
	fmt.Fprintf(b, "q\n%s 0 0 %s %s %s cm\n%s Do\nQ\n",
		pdf.Real(w), pdf.Real(h), pdf.Real(x), pdf.Real(y), name)
}

// winAnsi encodes a line for a font using WinAnsiEncoding. Characters
// outside the encoding become question marks.
func winAnsi(s string) pdf.String {
	var out []byte
	for _, r := range s {
		b, ok := charmap.Windows1252.EncodeRune(r)
		if !ok {
			b = '?'
		}
		out = append(out, b)
	}
	return pdf.String{Value: out}
}
