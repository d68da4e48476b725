package nbt

import (
	"encoding/binary"
	"fmt"
	"math"
)

// Encode returns the raw, uncompressed NBT encoding of the named root tag.
func Encode(name string, root Tag) ([]byte, error) {
	return AppendEncode(nil, name, root)
}

// AppendEncode appends the raw NBT encoding of the named root tag to dst.
// Trees that cannot be represented fail with ErrUnencodable, in which
// case dst is returned unchanged.
func AppendEncode(dst []byte, name string, root Tag) ([]byte, error) {
	nd, err := root.node()
	if err != nil {
		return dst, err
	}

	w := &writer{a: root.a, buf: dst}
	w.buf = append(w.buf, byte(nd.typ))
	if err := w.writeString(name); err != nil {
		return dst, err
	}
	if err := w.writePayload(root.id); err != nil {
		return dst, err
	}
	return w.buf, nil
}

// --------------------------------------------------------------------

type writer struct {
	a     *Arena
	buf   []byte
	depth int
}

func (w *writer) enter() error {
	if w.depth++; w.depth > MaxDepth {
		return fmt.Errorf("%w: nesting exceeds %d levels", ErrUnencodable, MaxDepth)
	}
	return nil
}

func (w *writer) writeString(s string) error {
	if len(s) > math.MaxUint16 {
		return fmt.Errorf("%w: string of %d bytes exceeds %d", ErrUnencodable, len(s), math.MaxUint16)
	}
	w.buf = binary.BigEndian.AppendUint16(w.buf, uint16(len(s)))
	w.buf = append(w.buf, s...)
	return nil
}

func (w *writer) writeCount(n int) error {
	if n > math.MaxInt32 {
		return fmt.Errorf("%w: length %d exceeds %d", ErrUnencodable, n, math.MaxInt32)
	}
	w.buf = binary.BigEndian.AppendUint32(w.buf, uint32(n))
	return nil
}

func (w *writer) writePayload(id uint32) error {
	nd := &w.a.nodes[id]

	switch nd.typ {
	case TagByte:
		w.buf = append(w.buf, byte(nd.num))
	case TagShort:
		w.buf = binary.BigEndian.AppendUint16(w.buf, uint16(nd.num))
	case TagInt:
		w.buf = binary.BigEndian.AppendUint32(w.buf, uint32(nd.num))
	case TagLong:
		w.buf = binary.BigEndian.AppendUint64(w.buf, uint64(nd.num))
	case TagFloat:
		w.buf = binary.BigEndian.AppendUint32(w.buf, math.Float32bits(float32(nd.flt)))
	case TagDouble:
		w.buf = binary.BigEndian.AppendUint64(w.buf, math.Float64bits(nd.flt))
	case TagString:
		return w.writeString(nd.str)
	case TagByteArray:
		if err := w.writeCount(len(nd.raw)); err != nil {
			return err
		}
		w.buf = append(w.buf, nd.raw...)
	case TagIntArray:
		if err := w.writeCount(len(nd.ints)); err != nil {
			return err
		}
		for _, v := range nd.ints {
			w.buf = binary.BigEndian.AppendUint32(w.buf, uint32(v))
		}
	case TagList:
		if err := w.enter(); err != nil {
			return err
		}
		defer func() { w.depth-- }()

		if nd.elem == TagEnd && len(nd.items) != 0 {
			return fmt.Errorf("%w: list of %d elements without a type", ErrUnencodable, len(nd.items))
		}
		w.buf = append(w.buf, byte(nd.elem))
		if err := w.writeCount(len(nd.items)); err != nil {
			return err
		}
		for _, c := range nd.items {
			if typ := w.a.nodes[c].typ; typ != nd.elem {
				return fmt.Errorf("%w: %s element in list of %s", ErrUnencodable, typ, nd.elem)
			}
			if err := w.writePayload(c); err != nil {
				return err
			}
		}
	case TagCompound:
		if err := w.enter(); err != nil {
			return err
		}
		defer func() { w.depth-- }()

		for i, c := range nd.items {
			w.buf = append(w.buf, byte(w.a.nodes[c].typ))
			if err := w.writeString(nd.keys[i]); err != nil {
				return err
			}
			if err := w.writePayload(c); err != nil {
				return err
			}
		}
		w.buf = append(w.buf, byte(TagEnd))
	default:
		return fmt.Errorf("%w: cannot encode %s", ErrUnencodable, nd.typ)
	}
	return nil
}
