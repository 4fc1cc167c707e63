package pdf

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// ErrPageInit is returned when a new page cannot be initialized.
var ErrPageInit = errors.New("pdf: cannot initialize page")

// Rectangle represents a PDF rectangle in points
type Rectangle struct {
	LLX, LLY, URX, URY float64
}

// Width returns the horizontal extent.
func (r Rectangle) Width() float64 { return r.URX - r.LLX }

// Height returns the vertical extent.
func (r Rectangle) Height() float64 { return r.URY - r.LLY }

// Array returns r as a PDF rectangle array.
func (r Rectangle) Array() Array {
	return Array{Real(r.LLX), Real(r.LLY), Real(r.URX), Real(r.URY)}
}

func (r Rectangle) valid() bool {
	for _, v := range []float64{r.LLX, r.LLY, r.URX, r.URY} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return r.Width() > 0 && r.Height() > 0
}

// Standard paper sizes in points (1 inch = 72 points).
var (
	A3     = Rectangle{URX: 841.89, URY: 1190.55}
	A4     = Rectangle{URX: 595.28, URY: 841.89}
	A5     = Rectangle{URX: 419.53, URY: 595.28}
	Letter = Rectangle{URX: 612, URY: 792}
	Legal  = Rectangle{URX: 612, URY: 1008}
)

var paperSizes = map[string]Rectangle{
	"a3":     A3,
	"a4":     A4,
	"a5":     A5,
	"letter": Letter,
	"legal":  Legal,
}

// PaperSize looks up a paper size by name, case-insensitively.
func PaperSize(name string) (Rectangle, bool) {
	r, ok := paperSizes[strings.ToLower(name)]
	return r, ok
}

// Page is a /Type /Page object.
type Page struct {
	*IndirectObject
	store     *ObjectStore
	contents  *IndirectObject
	resources Dictionary
	fontNum   int
	imageNum  int
}

func newPage(obj *IndirectObject) *Page {
	return &Page{IndirectObject: obj}
}

// Init sets the media box and creates the empty content stream and resource
// dictionary of the page.
func (p *Page) Init(size Rectangle, store *ObjectStore) error {
	if !size.valid() {
		return fmt.Errorf("%w: invalid media box %v", ErrPageInit, size)
	}
	if store == nil {
		return fmt.Errorf("%w: no object store", ErrPageInit)
	}
	p.store = store
	p.Set("MediaBox", size.Array())

	p.resources = Dictionary{
		"ProcSet": Array{Name("PDF"), Name("Text"), Name("ImageB"), Name("ImageC"), Name("ImageI")},
	}
	p.Set("Resources", p.resources)

	p.contents = store.CreateObject("")
	p.contents.SetStream(nil)
	p.Set("Contents", p.contents.Reference())
	return nil
}

// MediaBox returns the page size.
func (p *Page) MediaBox() Rectangle {
	obj, _ := p.Get("MediaBox")
	a, _ := obj.(Array)
	var v [4]float64
	for i := 0; i < len(a) && i < 4; i++ {
		switch x := a[i].(type) {
		case Real:
			v[i] = float64(x)
		case Integer:
			v[i] = float64(x)
		}
	}
	return Rectangle{v[0], v[1], v[2], v[3]}
}

// Parent returns the reference to the page tree node holding p.
func (p *Page) Parent() (Reference, bool) {
	obj, ok := p.Get("Parent")
	if !ok {
		return Reference{}, false
	}
	r, ok := obj.(Reference)
	return r, ok
}

// SetContents replaces the page content stream.
func (p *Page) SetContents(data []byte) {
	if p.contents == nil {
		return
	}
	p.contents.SetStream(data)
}

// Contents returns the content stream object.
func (p *Page) Contents() *IndirectObject { return p.contents }

// AddFontResource registers f in the page's /Font resources and returns
// the resource name to use in the content stream. Adding the same font
// twice returns the same name.
func (p *Page) AddFontResource(f *Font) Name {
	return p.addResource("Font", "F", &p.fontNum, f.Reference())
}

// AddImageResource registers img in the page's /XObject resources.
func (p *Page) AddImageResource(img *Image) Name {
	return p.addResource("XObject", "Im", &p.imageNum, img.Reference())
}

func (p *Page) addResource(category Name, prefix string, counter *int, ref Reference) Name {
	if p.resources == nil {
		p.resources = Dictionary{}
	}
	sub, _ := p.resources[category].(Dictionary)
	if sub == nil {
		sub = Dictionary{}
		p.resources[category] = sub
	}
	for _, k := range sub.Keys() {
		if sub[k] == Object(ref) {
			return k
		}
	}
	*counter++
	name := Name(prefix + strconv.Itoa(*counter))
	sub[name] = ref
	p.Set("Resources", p.resources)
	return name
}
