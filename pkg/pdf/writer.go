package pdf

import (
	"errors"
	"fmt"
	"time"

	"github.com/novvoo/go-pdfwriter/pkg/observability"
)

// DefaultProducer is written to /Producer in the document information
// dictionary.
const DefaultProducer = "go-pdfwriter"

// ErrBaseWriterInit is returned when the catalog or information dictionary
// cannot be created.
var ErrBaseWriterInit = errors.New("pdf: cannot initialize document structure")

// Option configures a Writer.
type Option func(*Writer)

// WithLogger sets the diagnostics sink.
func WithLogger(l observability.Logger) Option {
	return func(w *Writer) { w.log = l }
}

// WithLocator sets the font locator. The Writer closes it on Close.
func WithLocator(l FontLocator) Option {
	return func(w *Writer) { w.locator = l }
}

// WithMetricsEngine sets the glyph metrics engine. The Writer opens it
// during construction and closes it on Close.
func WithMetricsEngine(e MetricsEngine) Option {
	return func(w *Writer) { w.engine = e }
}

// WithProducer overrides the /Producer string.
func WithProducer(p string) Option {
	return func(w *Writer) { w.producer = p }
}

// WithClock sets the function used for /CreationDate.
func WithClock(now func() time.Time) Option {
	return func(w *Writer) { w.now = now }
}

// WithCompression enables or disables FlateDecode for embedded font files.
func WithCompression(on bool) Option {
	return func(w *Writer) { w.compress = on }
}

// WithObjectStore builds the document in s instead of a new store. The
// store must not have handed out any object number yet.
func WithObjectStore(s *ObjectStore) Option {
	return func(w *Writer) { w.store = s }
}

// Writer assembles a PDF document. It owns the object store, the page tree
// and the font cache. A Writer must be used from a single goroutine.
type Writer struct {
	store    *ObjectStore
	catalog  *IndirectObject
	info     *IndirectObject
	pageTree *IndirectObject

	pageRefs []Reference
	pages    []*Page
	fonts    *FontCache

	engine   MetricsEngine
	locator  FontLocator
	log      observability.Logger
	producer string
	now      func() time.Time
	compress bool

	engineOpen bool
	closed     bool
}

// NewWriter creates a Writer with catalog, information dictionary and an
// empty page tree. On error every resource acquired so far is released.
func NewWriter(opts ...Option) (*Writer, error) {
	w := &Writer{
		store:    NewObjectStore(),
		fonts:    NewFontCache(),
		log:      observability.NopLogger{},
		producer: DefaultProducer,
		now:      time.Now,
		compress: true,
	}
	for _, opt := range opts {
		opt(w)
	}
	if w.engine == nil {
		w.engine = NewFreetypeEngine()
	}
	if w.locator == nil {
		w.locator = NewSystemFontScanner()
	}

	if err := w.init(); err != nil {
		w.Close()
		return nil, err
	}
	return w, nil
}

func (w *Writer) init() error {
	if err := w.engine.Open(); err != nil {
		if errors.Is(err, ErrEngineInit) {
			return err
		}
		return fmt.Errorf("%w: %v", ErrEngineInit, err)
	}
	w.engineOpen = true

	if err := w.initBase(); err != nil {
		return err
	}

	w.pageTree = w.store.CreateObject("Pages")
	w.pageTree.Set("Kids", Array{})
	w.pageTree.Set("Count", Integer(0))
	w.catalog.Set("Pages", w.pageTree.Reference())

	w.info.Set("Producer", TextString(w.producer))
	w.info.Set("CreationDate", Date(w.now()))

	w.log.Debug("writer initialized",
		observability.Int("catalog", w.catalog.Number()),
		observability.Int("pages", w.pageTree.Number()))
	return nil
}

// initBase creates the document catalog and information dictionary.
func (w *Writer) initBase() error {
	if w.store == nil {
		return fmt.Errorf("%w: no object store", ErrBaseWriterInit)
	}
	if w.store.NextNumber() != 1 {
		return fmt.Errorf("%w: object store already holds %d objects", ErrBaseWriterInit, w.store.NextNumber()-1)
	}
	w.catalog = w.store.CreateObject("Catalog")
	w.info = w.store.CreateObject("")
	return nil
}

// Close releases the metrics engine and the font locator. It is safe to
// call Close more than once.
func (w *Writer) Close() error {
	if w.closed {
		return nil
	}
	w.closed = true

	var errs []error
	if w.engine != nil && w.engineOpen {
		errs = append(errs, w.engine.Close())
		w.engineOpen = false
	}
	if w.locator != nil {
		errs = append(errs, w.locator.Close())
	}
	return errors.Join(errs...)
}

// Store returns the object store.
func (w *Writer) Store() *ObjectStore { return w.store }

// Catalog returns the document catalog.
func (w *Writer) Catalog() *IndirectObject { return w.catalog }

// Info returns the document information dictionary.
func (w *Writer) Info() *IndirectObject { return w.info }

// PageTree returns the root of the page tree.
func (w *Writer) PageTree() *IndirectObject { return w.pageTree }

// Pages returns the pages created so far, in order.
func (w *Writer) Pages() []*Page { return append([]*Page(nil), w.pages...) }

// Fonts returns the font cache.
func (w *Writer) Fonts() *FontCache { return w.fonts }

// CreatePage adds a page of the given size to the end of the page tree.
//
// The page tree is updated before the page is initialized. If
// initialization fails the page stays in the store and in /Kids, and the
// error wraps ErrPageInit.
func (w *Writer) CreatePage(size Rectangle) (*Page, error) {
	page := createTyped(w.store, "Page", newPage)

	w.pageRefs = append(w.pageRefs, page.Reference())
	count := len(w.pageRefs)

	kids := make(Array, 0, count)
	for _, ref := range w.pageRefs {
		kids = append(kids, ref)
	}

	w.pageTree.Set("Count", Integer(count))
	w.pageTree.Set("Kids", kids)

	page.Set("Parent", w.pageTree.Reference())
	if err := page.Init(size, w.store); err != nil {
		w.log.Error("cannot initialize page",
			observability.Int("object", page.Number()),
			observability.Error("err", err))
		return nil, err
	}
	w.pages = append(w.pages, page)

	w.log.Debug("page created",
		observability.Int("object", page.Number()),
		observability.Int("count", count))
	return page, nil
}

// CreateFont returns the font object for the given family. Families that
// resolve to the same font file share one object; the file is loaded and
// embedded only once.
func (w *Writer) CreateFont(family string, embed bool) (*Font, error) {
	path := w.locator.Resolve(family)
	if path == "" {
		w.log.Error("no path was found for the specified font name",
			observability.String("font", family),
			observability.Bool("critical", true))
		return nil, fmt.Errorf("%w: %s", ErrFontNotFound, family)
	}

	if f, ok := w.fonts.Lookup(path); ok {
		return f, nil
	}

	metrics, err := w.engine.Load(path)
	if err != nil {
		w.log.Error("cannot initialize font",
			observability.String("font", family),
			observability.String("path", path),
			observability.Error("err", err))
		return nil, fmt.Errorf("%w: %s: %v", ErrFontInit, family, err)
	}

	f := createTyped(w.store, "Font", newFont)
	w.fonts.Insert(path, f)

	if err := f.Init(metrics, w.store, embed, w.compress); err != nil {
		w.fonts.Remove(path)
		w.log.Error("cannot initialize font",
			observability.String("font", family),
			observability.String("path", path),
			observability.Error("err", err))
		return nil, err
	}

	w.log.Debug("font created",
		observability.String("font", family),
		observability.String("path", path),
		observability.Int("object", f.Number()),
		observability.Bool("embedded", f.Embedded()))
	return f, nil
}

// CreateImage returns a new, empty image object. Images are not shared.
func (w *Writer) CreateImage() *Image {
	return createTyped(w.store, "XObject", func(obj *IndirectObject) *Image {
		return newImage(obj, w.store)
	})
}

// SetAuthor sets /Author in the information dictionary.
func (w *Writer) SetAuthor(s string) { w.info.Set("Author", TextString(s)) }

// SetCreator sets /Creator in the information dictionary.
func (w *Writer) SetCreator(s string) { w.info.Set("Creator", TextString(s)) }

// SetKeywords sets /Keywords in the information dictionary.
func (w *Writer) SetKeywords(s string) { w.info.Set("Keywords", TextString(s)) }

// SetSubject sets /Subject in the information dictionary.
func (w *Writer) SetSubject(s string) { w.info.Set("Subject", TextString(s)) }

// SetTitle sets /Title in the information dictionary.
func (w *Writer) SetTitle(s string) { w.info.Set("Title", TextString(s)) }
