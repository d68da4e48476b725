package nbt

import (
	"bytes"
	"fmt"
	"io"
	"os"
)

// Document is a named root tag, the unit of (de-)serialization.
type Document struct {
	// Name is the name of the root tag, usually empty.
	Name string
	// Root is the root tag, usually a compound.
	Root Tag
}

// NewDocument creates a document with an empty compound root in a new
// arena.
func NewDocument() *Document {
	return &Document{Root: NewArena().NewCompound()}
}

// Parse decompresses data and decodes the NBT stream into a document
// allocated in a new arena. SchemeAuto detects the compression, see
// Decompress.
func Parse(data []byte, scheme Scheme) (*Document, error) {
	plain, err := Decompress(scheme, data)
	if err != nil {
		return nil, err
	}

	d := new(Document)
	if err := d.UnmarshalBinary(plain); err != nil {
		return nil, err
	}
	return d, nil
}

// ParseRegionChunk parses the chunk at x, z of a region using the
// scheme recorded in the chunk header. Absent chunks fail with
// ErrNotFound.
func ParseRegionChunk(r *Region, x, z int) (*Document, error) {
	data, err := r.ChunkBytes(x, z)
	if err != nil {
		return nil, err
	}
	scheme, err := r.CompressionScheme(x, z)
	if err != nil {
		return nil, err
	}
	return Parse(data, scheme)
}

// ReadFile reads and parses a standalone NBT file. Gzip and zlib files
// are detected, anything else is parsed as uncompressed NBT.
func ReadFile(name string) (*Document, error) {
	data, err := os.ReadFile(name)
	if err != nil {
		return nil, ioError("read file", err)
	}

	return parseDetected(data)
}

// parseDetected parses gzip or zlib compressed data, or plain NBT if no
// compression is detected.
func parseDetected(data []byte) (*Document, error) {
	scheme := DetectScheme(data)
	if scheme == SchemeUnknown {
		scheme = SchemeNone
	}
	return Parse(data, scheme)
}

// ReadFrom reads an NBT stream from r until EOF and replaces
// the document contents. It implements io.ReaderFrom.
func (d *Document) ReadFrom(r io.Reader) (int64, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return int64(len(data)), ioError("read", err)
	}

	nd, err := parseDetected(data)
	if err != nil {
		return int64(len(data)), err
	}
	*d = *nd
	return int64(len(data)), nil
}

// UnmarshalBinary decodes a raw, uncompressed NBT stream into a new arena
// and replaces the document contents. It implements
// encoding.BinaryUnmarshaler.
func (d *Document) UnmarshalBinary(data []byte) error {
	name, root, err := Decode(NewArena(), data)
	if err != nil {
		return err
	}
	d.Name, d.Root = name, root
	return nil
}

// MarshalBinary returns the raw, uncompressed NBT encoding of the
// document. It implements encoding.BinaryMarshaler.
func (d *Document) MarshalBinary() ([]byte, error) {
	return Encode(d.Name, d.Root)
}

// Serialize encodes and compresses the document.
func (d *Document) Serialize(scheme Scheme) ([]byte, error) {
	plain, err := d.MarshalBinary()
	if err != nil {
		return nil, err
	}
	return Compress(scheme, plain)
}

// WriteTo writes the gzip compressed document to w. It implements
// io.WriterTo.
func (d *Document) WriteTo(w io.Writer) (int64, error) {
	data, err := d.Serialize(SchemeGzip)
	if err != nil {
		return 0, err
	}
	n, err := w.Write(data)
	if err != nil {
		return int64(n), ioError("write", err)
	}
	return int64(n), nil
}

// WriteFile writes the document to a standalone file, compressed with
// scheme. SchemeAuto selects gzip.
func (d *Document) WriteFile(name string, scheme Scheme) error {
	if scheme == SchemeAuto {
		scheme = SchemeGzip
	}
	data, err := d.Serialize(scheme)
	if err != nil {
		return err
	}
	if err := os.WriteFile(name, data, 0o644); err != nil {
		return ioError("write file", err)
	}
	return nil
}

// WriteRegionChunk serializes the document with zlib and stores it at
// x, z of a writable region.
func (d *Document) WriteRegionChunk(r *Region, x, z int) error {
	if _, err := slot(x, z); err != nil {
		return err
	}
	if !r.Writable() {
		return ErrReadOnly
	}

	data, err := d.Serialize(SchemeZlib)
	if err != nil {
		return err
	}
	return r.SetChunk(x, z, data, SchemeZlib)
}

// Release releases the root tag and its subtree.
func (d *Document) Release() error {
	if err := d.Root.Detach(); err != nil {
		return err
	}
	return d.Root.Release()
}

// --------------------------------------------------------------------

// Get is a shortcut for d.Root.Get.
func (d *Document) Get(key string) (Tag, error) { return d.Root.Get(key) }

// Set is a shortcut for d.Root.Set.
func (d *Document) Set(key string, v Tag) error { return d.Root.Set(key, v) }

// Remove is a shortcut for d.Root.Remove.
func (d *Document) Remove(key string) error { return d.Root.Remove(key) }

// Find is a shortcut for d.Root.Find.
func (d *Document) Find(name string) (Tag, error) { return d.Root.Find(name) }

// Path is a shortcut for d.Root.Path.
func (d *Document) Path(keys ...string) (Tag, error) { return d.Root.Path(keys...) }

// Len is a shortcut for d.Root.Len.
func (d *Document) Len() (int, error) { return d.Root.Len() }

// Iter is a shortcut for d.Root.Iter.
func (d *Document) Iter() (*Iterator, error) { return d.Root.Iter() }

// Equal returns true if both documents have the same name and
// structurally equal roots.
func (d *Document) Equal(o *Document) bool {
	return d.Name == o.Name && Equal(d.Root, o.Root)
}

// PrettyPrint writes an indented rendering of the document, labelled
// with the root name.
func (d *Document) PrettyPrint(w io.Writer) error {
	return d.Root.prettyPrint(w, &d.Name)
}

// String returns the compact rendering of the root tag.
func (d *Document) String() string {
	if d.Name == "" {
		return d.Root.String()
	}
	var buf bytes.Buffer
	fmt.Fprintf(&buf, "%s:", quoteKey(d.Name))
	_ = d.Root.Print(&buf)
	return buf.String()
}
