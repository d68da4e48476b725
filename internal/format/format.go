// Package format renders NBT documents for humans and foreign tools.
package format

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"sort"

	"github.com/bsm/nbt"
	"github.com/fxamacker/cbor/v2"
	"gopkg.in/yaml.v3"
)

// ErrUnknownFormat is returned by Lookup for unsupported format names.
var ErrUnknownFormat = errors.New("format: unknown format")

// Writer writes a document to w.
type Writer func(w io.Writer, doc *nbt.Document) error

var writers = map[string]Writer{
	"pretty":  writePretty,
	"compact": writeCompact,
	"json":    writeJSON,
	"yaml":    writeYAML,
	"cbor":    writeCBOR,
}

// cborMode uses core deterministic encoding, equal documents produce
// identical bytes.
var cborMode cbor.EncMode

func init() {
	var err error
	if cborMode, err = cbor.CoreDetEncOptions().EncMode(); err != nil {
		panic("format: CBOR encoder initialization failed: " + err.Error())
	}
}

// Names returns the supported format names, sorted.
func Names() []string {
	names := make([]string, 0, len(writers))
	for name := range writers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Lookup returns the writer for a format name.
func Lookup(name string) (Writer, error) {
	if fn, ok := writers[name]; ok {
		return fn, nil
	}
	return nil, fmt.Errorf("%w %q", ErrUnknownFormat, name)
}

// Plain converts a tag into a tree of plain Go values: int64, float64,
// string, []byte, []int32, []any and map[string]any. Type information
// beyond that is lost.
func Plain(t nbt.Tag) (any, error) {
	v, err := t.Value()
	if err != nil {
		return nil, err
	}

	switch vv := v.(type) {
	case []nbt.Tag:
		res := make([]any, 0, len(vv))
		for _, el := range vv {
			p, err := Plain(el)
			if err != nil {
				return nil, err
			}
			res = append(res, p)
		}
		return res, nil
	case map[string]nbt.Tag:
		res := make(map[string]any, len(vv))
		for key, el := range vv {
			p, err := Plain(el)
			if err != nil {
				return nil, err
			}
			res[key] = p
		}
		return res, nil
	}
	return v, nil
}

// plainDocument wraps the root of named documents in a single-key map.
func plainDocument(doc *nbt.Document) (any, error) {
	root, err := Plain(doc.Root)
	if err != nil {
		return nil, err
	}
	if doc.Name == "" {
		return root, nil
	}
	return map[string]any{doc.Name: root}, nil
}

// --------------------------------------------------------------------

func writePretty(w io.Writer, doc *nbt.Document) error {
	return doc.PrettyPrint(w)
}

func writeCompact(w io.Writer, doc *nbt.Document) error {
	_, err := io.WriteString(w, doc.String()+"\n")
	return err
}

func writeJSON(w io.Writer, doc *nbt.Document) error {
	v, err := plainDocument(doc)
	if err != nil {
		return err
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func writeYAML(w io.Writer, doc *nbt.Document) error {
	v, err := plainDocument(doc)
	if err != nil {
		return err
	}

	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(v); err != nil {
		return err
	}
	return enc.Close()
}

func writeCBOR(w io.Writer, doc *nbt.Document) error {
	v, err := plainDocument(doc)
	if err != nil {
		return err
	}
	return cborMode.NewEncoder(w).Encode(v)
}
