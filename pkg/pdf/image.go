package pdf

import (
	"bytes"
	"compress/zlib"
	"errors"
	"fmt"
	"image"
	"image/color"
	_ "image/gif"
	"image/jpeg"
	_ "image/png"
	"os"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
)

// ErrImageData is returned when image samples cannot be stored.
var ErrImageData = errors.New("pdf: invalid image data")

// Image is a /Type /XObject /Subtype /Image object.
type Image struct {
	*IndirectObject
	store  *ObjectStore
	width  int
	height int
	smask  *IndirectObject
}

func newImage(obj *IndirectObject, store *ObjectStore) *Image {
	obj.Set("Subtype", Name("Image"))
	return &Image{IndirectObject: obj, store: store}
}

// Width returns the width in samples.
func (img *Image) Width() int { return img.width }

// Height returns the height in samples.
func (img *Image) Height() int { return img.height }

// SetJPEG stores JPEG data unchanged, using DCTDecode.
func (img *Image) SetJPEG(data []byte) error {
	cfg, err := jpeg.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return fmt.Errorf("%w: %v", ErrImageData, err)
	}
	cs := Name("DeviceRGB")
	switch cfg.ColorModel {
	case color.GrayModel:
		cs = "DeviceGray"
	case color.CMYKModel:
		cs = "DeviceCMYK"
		// Adobe writes inverted CMYK JPEGs
		img.Set("Decode", Array{Integer(1), Integer(0), Integer(1), Integer(0), Integer(1), Integer(0), Integer(1), Integer(0)})
	}
	img.setHeader(cfg.Width, cfg.Height, cs)
	img.Set("Filter", Name("DCTDecode"))
	img.SetStream(data)
	return nil
}

// SetImage stores the pixels of src as 8 bit samples compressed with
// FlateDecode. Grayscale sources are stored as DeviceGray, everything else
// as DeviceRGB. A non-opaque source gets a soft mask.
func (img *Image) SetImage(src image.Image) error {
	b := src.Bounds()
	w, h := b.Dx(), b.Dy()
	if w <= 0 || h <= 0 {
		return fmt.Errorf("%w: empty image", ErrImageData)
	}

	gray := isGray(src)
	ncomp := 3
	cs := Name("DeviceRGB")
	if gray {
		ncomp = 1
		cs = "DeviceGray"
	}
	samples := make([]byte, 0, w*h*ncomp)
	alpha := make([]byte, 0, w*h)
	opaque := true
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			c := color.NRGBAModel.Convert(src.At(x, y)).(color.NRGBA)
			if gray {
				g := color.GrayModel.Convert(c).(color.Gray)
				samples = append(samples, g.Y)
			} else {
				samples = append(samples, c.R, c.G, c.B)
			}
			alpha = append(alpha, c.A)
			if c.A != 0xff {
				opaque = false
			}
		}
	}

	data, err := deflate(samples)
	if err != nil {
		return err
	}
	img.setHeader(w, h, cs)
	img.Set("Filter", Name("FlateDecode"))
	img.SetStream(data)

	if opaque {
		img.Delete("SMask")
		return nil
	}
	mask, err := deflate(alpha)
	if err != nil {
		return err
	}
	if img.smask == nil {
		img.smask = img.store.CreateObject("XObject")
	}
	img.smask.Set("Subtype", Name("Image"))
	img.smask.Set("Width", Integer(w))
	img.smask.Set("Height", Integer(h))
	img.smask.Set("ColorSpace", Name("DeviceGray"))
	img.smask.Set("BitsPerComponent", Integer(8))
	img.smask.Set("Filter", Name("FlateDecode"))
	img.smask.SetStream(mask)
	img.Set("SMask", img.smask.Reference())
	return nil
}

// LoadFile reads an image file. JPEG files are embedded as is, other formats
// (PNG, GIF, BMP, TIFF, WebP) are decoded and stored as samples.
func (img *Image) LoadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	_, format, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return fmt.Errorf("%w: %s: %v", ErrImageData, path, err)
	}
	if format == "jpeg" {
		return img.SetJPEG(data)
	}
	src, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return fmt.Errorf("%w: %s: %v", ErrImageData, path, err)
	}
	return img.SetImage(src)
}

func (img *Image) setHeader(w, h int, cs Name) {
	img.width, img.height = w, h
	img.Set("Width", Integer(w))
	img.Set("Height", Integer(h))
	img.Set("ColorSpace", cs)
	img.Set("BitsPerComponent", Integer(8))
}

func isGray(src image.Image) bool {
	switch src.ColorModel() {
	case color.GrayModel, color.Gray16Model:
		return true
	}
	return false
}

func deflate(data []byte) ([]byte, error) {
	var buf bytes.Buffer
	zw := zlib.NewWriter(&buf)
	if _, err := zw.Write(data); err != nil {
		return nil, err
	}
	if err := zw.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
