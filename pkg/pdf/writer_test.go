package pdf

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func newTestWriter(t *testing.T, opts ...Option) *Writer {
	t.Helper()
	opts = append([]Option{
		WithClock(testClock),
		WithLocator(MapFontLocator{}),
	}, opts...)
	w, err := NewWriter(opts...)
	if err != nil {
		t.Fatalf("NewWriter: %v", err)
	}
	t.Cleanup(func() { w.Close() })
	return w
}

func TestNewWriterStructure(t *testing.T) {
	w := newTestWriter(t)

	if v, _ := w.Catalog().Get("Type"); v != Name("Catalog") {
		t.Errorf("Expected /Type /Catalog, got %v", v)
	}
	if v, _ := w.Catalog().Get("Pages"); v != w.PageTree().Reference() {
		t.Errorf("Expected /Pages %s, got %v", w.PageTree().Reference(), v)
	}
	if v, _ := w.PageTree().Get("Type"); v != Name("Pages") {
		t.Errorf("Expected /Type /Pages, got %v", v)
	}
	kids, _ := w.PageTree().Get("Kids")
	if diff := cmp.Diff(Object(Array{}), kids); diff != "" {
		t.Errorf("Expected empty /Kids (-want +got):\n%s", diff)
	}

	producer, _ := w.Info().Get("Producer")
	if string(producer.(String).Value) != DefaultProducer {
		t.Errorf("Expected producer %q, got %v", DefaultProducer, producer)
	}
	date, _ := w.Info().Get("CreationDate")
	if string(date.(String).Value) != "D:20240305140709+00'00'" {
		t.Errorf("Unexpected creation date %v", date)
	}
	if err := w.Store().Validate(); err != nil {
		t.Errorf("Expected valid graph, got %v", err)
	}
}

func TestNewWriterProducerOverride(t *testing.T) {
	w := newTestWriter(t, WithProducer("reports"))
	producer, _ := w.Info().Get("Producer")
	if string(producer.(String).Value) != "reports" {
		t.Errorf("Expected producer 'reports', got %v", producer)
	}
}

func TestNewWriterEngineFailure(t *testing.T) {
	engine := newCountingEngine()
	engine.openErr = errBoom
	loc := &closeRecorder{MapFontLocator: MapFontLocator{}}

	w, err := NewWriter(WithMetricsEngine(engine), WithLocator(loc))
	if w != nil {
		t.Error("Expected no writer on failure")
	}
	if !errors.Is(err, ErrEngineInit) {
		t.Errorf("Expected ErrEngineInit, got %v", err)
	}
	if loc.closed != 1 {
		t.Errorf("Expected locator to be closed once, got %d", loc.closed)
	}
	if engine.closed != 0 {
		t.Errorf("Expected engine that failed to open not to be closed, got %d", engine.closed)
	}
}

func TestNewWriterBaseInitFailure(t *testing.T) {
	used := NewObjectStore()
	used.CreateObject("")

	for name, store := range map[string]*ObjectStore{"nil": nil, "used": used} {
		engine := newCountingEngine()
		loc := &closeRecorder{MapFontLocator: MapFontLocator{}}
		w, err := NewWriter(WithObjectStore(store), WithMetricsEngine(engine), WithLocator(loc))
		if w != nil {
			t.Errorf("%s: Expected no writer on failure", name)
		}
		if !errors.Is(err, ErrBaseWriterInit) {
			t.Errorf("%s: Expected ErrBaseWriterInit, got %v", name, err)
		}
		if engine.opened != 1 || engine.closed != 1 {
			t.Errorf("%s: Expected engine opened and closed once, got %d/%d", name, engine.opened, engine.closed)
		}
		if loc.closed != 1 {
			t.Errorf("%s: Expected locator closed once, got %d", name, loc.closed)
		}
	}
	if used.Len() != 1 {
		t.Errorf("Expected the used store to be left alone, got %d objects", used.Len())
	}
}

func TestNewWriterWithObjectStore(t *testing.T) {
	s := NewObjectStore()
	w := newTestWriter(t, WithObjectStore(s))
	if w.Store() != s {
		t.Fatal("Expected the writer to use the given store")
	}
	if w.Catalog().Number() != 1 {
		t.Errorf("Expected catalog to be object 1, got %d", w.Catalog().Number())
	}
}

func TestWriterCloseReleasesResources(t *testing.T) {
	engine := newCountingEngine()
	loc := &closeRecorder{MapFontLocator: MapFontLocator{}}
	w, err := NewWriter(WithMetricsEngine(engine), WithLocator(loc))
	if err != nil {
		t.Fatal(err)
	}
	if err := w.Close(); err != nil {
		t.Fatal(err)
	}
	if err := w.Close(); err != nil {
		t.Fatal(err)
	}
	if engine.opened != 1 || engine.closed != 1 {
		t.Errorf("Expected engine opened and closed once, got %d/%d", engine.opened, engine.closed)
	}
	if loc.closed != 1 {
		t.Errorf("Expected locator closed once, got %d", loc.closed)
	}
}

func TestCreatePagesKeepsTreeInSync(t *testing.T) {
	w := newTestWriter(t)

	var created []*Page
	for i := 1; i <= 5; i++ {
		p, err := w.CreatePage(A4)
		if err != nil {
			t.Fatalf("CreatePage %d: %v", i, err)
		}
		created = append(created, p)

		count, _ := w.PageTree().Get("Count")
		if count != Integer(i) {
			t.Errorf("after %d pages: Count = %v", i, count)
		}
		kids, _ := w.PageTree().Get("Kids")
		want := Array{}
		for _, c := range created {
			want = append(want, c.Reference())
		}
		if diff := cmp.Diff(Object(want), kids); diff != "" {
			t.Errorf("after %d pages: Kids mismatch (-want +got):\n%s", i, diff)
		}
	}

	if got := len(w.Pages()); got != 5 {
		t.Errorf("Expected 5 pages, got %d", got)
	}
	if err := w.Store().Validate(); err != nil {
		t.Errorf("Expected valid graph, got %v", err)
	}
}

func TestCreateThreeA4Pages(t *testing.T) {
	w := newTestWriter(t)
	for i := 0; i < 3; i++ {
		if _, err := w.CreatePage(A4); err != nil {
			t.Fatal(err)
		}
	}

	count, _ := w.PageTree().Get("Count")
	if count != Integer(3) {
		t.Errorf("Expected Count 3, got %v", count)
	}
	kids, _ := w.PageTree().Get("Kids")
	if kids.(Array).Len() != 3 {
		t.Errorf("Expected 3 kids, got %v", kids)
	}
	for _, p := range w.Pages() {
		parent, ok := p.Parent()
		if !ok || parent != w.PageTree().Reference() {
			t.Errorf("page %d: Parent = %v, want %v", p.Number(), parent, w.PageTree().Reference())
		}
		if p.MediaBox() != A4 {
			t.Errorf("page %d: MediaBox = %v", p.Number(), p.MediaBox())
		}
		if v, _ := p.Get("Type"); v != Name("Page") {
			t.Errorf("page %d: Type = %v", p.Number(), v)
		}
	}
}

func TestCreatePageInitFailureKeepsTreeEntry(t *testing.T) {
	log := &memLogger{}
	w := newTestWriter(t, WithLogger(log))

	good, err := w.CreatePage(Letter)
	if err != nil {
		t.Fatal(err)
	}
	bad, err := w.CreatePage(Rectangle{})
	if bad != nil {
		t.Error("Expected no page on failure")
	}
	if !errors.Is(err, ErrPageInit) {
		t.Fatalf("Expected ErrPageInit, got %v", err)
	}
	if log.count("ERROR") != 1 {
		t.Errorf("Expected one error record, got %v", log.records)
	}

	count, _ := w.PageTree().Get("Count")
	if count != Integer(2) {
		t.Errorf("Expected Count 2 after failed init, got %v", count)
	}
	kids, _ := w.PageTree().Get("Kids")
	if kids.(Array).Len() != 2 || kids.(Array)[0] != good.Reference() {
		t.Errorf("Unexpected kids %v", kids)
	}
	if len(w.Pages()) != 1 {
		t.Errorf("Expected one initialized page, got %d", len(w.Pages()))
	}
	// the orphaned page still resolves
	if err := w.Store().Validate(); err != nil {
		t.Errorf("Expected valid graph, got %v", err)
	}

	third, err := w.CreatePage(A5)
	if err != nil {
		t.Fatal(err)
	}
	kids, _ = w.PageTree().Get("Kids")
	if kids.(Array)[2] != third.Reference() {
		t.Errorf("Expected third kid %v, got %v", third.Reference(), kids)
	}
}

func TestCreateFontSamePathSharesObject(t *testing.T) {
	_, regular, _ := writeTestFonts(t)
	engine := newCountingEngine()
	w := newTestWriter(t,
		WithMetricsEngine(engine),
		WithLocator(MapFontLocator{"Arial": regular, "arial-alias": regular}))

	f1, err := w.CreateFont("Arial", true)
	if err != nil {
		t.Fatalf("CreateFont: %v", err)
	}
	f2, err := w.CreateFont("Arial", true)
	if err != nil {
		t.Fatalf("CreateFont: %v", err)
	}
	f3, err := w.CreateFont("arial-alias", false)
	if err != nil {
		t.Fatalf("CreateFont: %v", err)
	}

	if f1 != f2 || f1 != f3 {
		t.Errorf("Expected one font object, got %d, %d, %d", f1.Number(), f2.Number(), f3.Number())
	}
	if engine.loads[regular] != 1 {
		t.Errorf("Expected metrics to be loaded once, got %d", engine.loads[regular])
	}
	if w.Fonts().Len() != 1 {
		t.Errorf("Expected one cache entry, got %d", w.Fonts().Len())
	}
	if !f1.Embedded() {
		t.Error("Expected font to be embedded")
	}
}

func TestCreateFontDistinctFiles(t *testing.T) {
	_, regular, mono := writeTestFonts(t)
	w := newTestWriter(t, WithLocator(MapFontLocator{"Sans": regular, "Mono": mono}))

	sans, err := w.CreateFont("Sans", false)
	if err != nil {
		t.Fatal(err)
	}
	m, err := w.CreateFont("Mono", false)
	if err != nil {
		t.Fatal(err)
	}
	if sans == m || sans.Number() == m.Number() {
		t.Error("Expected distinct font objects for distinct files")
	}

	entries := w.Fonts().Entries()
	if len(entries) != 2 {
		t.Fatalf("Expected 2 cache entries, got %d", len(entries))
	}
	if entries[0].Path > entries[1].Path {
		t.Errorf("Expected entries sorted by path, got %q before %q", entries[0].Path, entries[1].Path)
	}
	if !m.Metrics().FixedPitch || sans.Metrics().FixedPitch {
		t.Error("Expected only the mono font to be fixed pitch")
	}
}

func TestCreateFontNotFound(t *testing.T) {
	log := &memLogger{}
	w := newTestWriter(t, WithLogger(log))
	before := w.Store().Len()

	f, err := w.CreateFont("NoSuchFont123", false)
	if f != nil {
		t.Error("Expected no font")
	}
	if !errors.Is(err, ErrFontNotFound) {
		t.Errorf("Expected ErrFontNotFound, got %v", err)
	}
	if w.Fonts().Len() != 0 {
		t.Errorf("Expected empty cache, got %d", w.Fonts().Len())
	}
	if w.Store().Len() != before {
		t.Errorf("Expected no new objects, store grew from %d to %d", before, w.Store().Len())
	}
	if log.count("ERROR") != 1 {
		t.Errorf("Expected one error record, got %v", log.records)
	}

	// the document stays usable
	if _, err := w.CreatePage(A4); err != nil {
		t.Errorf("CreatePage after font failure: %v", err)
	}
}

func TestCreateFontInitFailure(t *testing.T) {
	_, regular, _ := writeTestFonts(t)
	engine := newCountingEngine()
	engine.mangle = func(m *FontMetrics) { m.UnitsPerEm = 0 }
	log := &memLogger{}
	w := newTestWriter(t,
		WithMetricsEngine(engine),
		WithLogger(log),
		WithLocator(MapFontLocator{"Go": regular}))

	f, err := w.CreateFont("Go", true)
	if f != nil {
		t.Error("Expected no font")
	}
	if !errors.Is(err, ErrFontInit) {
		t.Errorf("Expected ErrFontInit, got %v", err)
	}
	if w.Fonts().Len() != 0 {
		t.Errorf("Expected failed font to be dropped from the cache, got %d entries", w.Fonts().Len())
	}
	if log.count("ERROR") != 1 {
		t.Errorf("Expected one error record, got %v", log.records)
	}

	// a later call tries again
	engine.mangle = nil
	f, err = w.CreateFont("Go", true)
	if err != nil {
		t.Fatalf("retry: %v", err)
	}
	if engine.loads[regular] != 2 {
		t.Errorf("Expected a second metrics load, got %d", engine.loads[regular])
	}
	if err := w.Store().Validate(); err != nil {
		t.Errorf("Expected valid graph, got %v", err)
	}
}

func TestCreateFontLoadFailure(t *testing.T) {
	w := newTestWriter(t, WithLocator(MapFontLocator{"Ghost": "/nonexistent/ghost.ttf"}))
	before := w.Store().Len()

	_, err := w.CreateFont("Ghost", false)
	if !errors.Is(err, ErrFontInit) {
		t.Errorf("Expected ErrFontInit, got %v", err)
	}
	if w.Store().Len() != before {
		t.Errorf("Expected no objects for an unreadable font, store grew by %d", w.Store().Len()-before)
	}
}

func TestCreateImageIsNeverShared(t *testing.T) {
	w := newTestWriter(t)
	a := w.CreateImage()
	b := w.CreateImage()
	if a.Number() == b.Number() {
		t.Error("Expected distinct image objects")
	}
	if v, _ := a.Get("Subtype"); v != Name("Image") {
		t.Errorf("Expected /Subtype /Image, got %v", v)
	}
	if v, _ := a.Get("Type"); v != Name("XObject") {
		t.Errorf("Expected /Type /XObject, got %v", v)
	}
}

func TestDocumentInformation(t *testing.T) {
	w := newTestWriter(t)
	w.SetAuthor("Ada")
	w.SetCreator("unit test")
	w.SetKeywords("pdf, go")
	w.SetSubject("Grüße")
	w.SetTitle("日本")

	want := map[Name]string{
		"Author":   "Ada",
		"Creator":  "unit test",
		"Keywords": "pdf, go",
	}
	for k, v := range want {
		got, _ := w.Info().Get(k)
		if string(got.(String).Value) != v {
			t.Errorf("/%s = %v, want %q", k, got, v)
		}
	}
	subject, _ := w.Info().Get("Subject")
	if diff := cmp.Diff(TextString("Grüße"), subject); diff != "" {
		t.Errorf("/Subject mismatch (-want +got):\n%s", diff)
	}
	title, _ := w.Info().Get("Title")
	if v := title.(String).Value; len(v) < 2 || v[0] != 0xFE || v[1] != 0xFF {
		t.Errorf("Expected UTF-16 title, got % X", v)
	}
}
