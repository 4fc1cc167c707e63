package pdf

import (
	"bufio"
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"golang.org/x/crypto/blake2b"
)

// Version is the PDF version written to the file header.
const Version = "1.4"

// countingWriter tracks the byte offset needed for the xref table.
type countingWriter struct {
	w   io.Writer
	pos int64
	err error
}

func (cw *countingWriter) Write(p []byte) (int, error) {
	if cw.err != nil {
		return 0, cw.err
	}
	n, err := cw.w.Write(p)
	cw.pos += int64(n)
	cw.err = err
	return n, err
}

func (cw *countingWriter) printf(format string, args ...interface{}) {
	fmt.Fprintf(cw, format, args...)
}

// WriteTo serializes the document. Every reference in the store must
// resolve, otherwise nothing is written and the error wraps
// ErrDanglingReference.
func (w *Writer) WriteTo(out io.Writer) (int64, error) {
	if err := w.store.Validate(); err != nil {
		return 0, err
	}

	var body bytes.Buffer
	cw := &countingWriter{w: &body}
	cw.printf("%%PDF-%s\n%%\xe2\xe3\xcf\xd3\n", Version)

	objects := w.store.Objects()
	size := w.store.NextNumber()
	offsets := make([]int64, size)
	for _, obj := range objects {
		offsets[obj.number] = cw.pos
		writeIndirect(cw, obj)
	}

	// the file identifier is a digest of everything before the xref table
	sum := blake2b.Sum256(body.Bytes())
	id := String{Value: sum[:16], IsHex: true}

	// free entries form a list: each one names the next free number,
	// the last one names 0
	nextFree := make([]int, size)
	last := 0
	for num := 1; num < size; num++ {
		if _, ok := w.store.objects[num]; !ok {
			nextFree[last] = num
			last = num
		}
	}

	xref := cw.pos
	cw.printf("xref\n0 %d\n", size)
	cw.printf("%010d %05d f\r\n", nextFree[0], 65535)
	for num := 1; num < size; num++ {
		if _, ok := w.store.objects[num]; ok {
			cw.printf("%010d %05d n\r\n", offsets[num], 0)
		} else {
			cw.printf("%010d %05d f\r\n", nextFree[num], 1)
		}
	}

	trailer := Dictionary{
		"Size": Integer(size),
		"Root": w.catalog.Reference(),
		"Info": w.info.Reference(),
		"ID":   Array{id, id},
	}
	cw.printf("trailer\n%s\nstartxref\n%d\n%%%%EOF\n", trailer.String(), xref)
	if cw.err != nil {
		return 0, cw.err
	}

	return body.WriteTo(out)
}

func writeIndirect(cw *countingWriter, obj *IndirectObject) {
	cw.printf("%d %d obj\n", obj.number, obj.generation)
	data, isStream := obj.Stream()
	if !isStream {
		io.WriteString(cw, obj.dict.String())
		cw.printf("\nendobj\n")
		return
	}
	dict := Clone(obj.dict).(Dictionary)
	dict["Length"] = Integer(len(data))
	io.WriteString(cw, dict.String())
	cw.printf("\nstream\n")
	cw.Write(data)
	cw.printf("\nendstream\nendobj\n")
}

// WriteFile serializes the document to path. The file is written to a
// temporary name first and renamed once complete.
func (w *Writer) WriteFile(path string) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), ".pdfwriter-*")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())

	bw := bufio.NewWriter(tmp)
	if _, err := w.WriteTo(bw); err != nil {
		tmp.Close()
		return err
	}
	if err := bw.Flush(); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	if err := os.Chmod(tmp.Name(), 0644); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), path)
}
