package nbt

import (
	"encoding/binary"
	"fmt"
	"math"
)

// MaxDepth is the maximum nesting of lists and compounds accepted by
// Decode.
const MaxDepth = 512

// minPayload is the smallest encoded payload size of each tag type, used
// to reject impossible element counts before allocating.
var minPayload = [...]int{
	TagEnd:       0,
	TagByte:      1,
	TagShort:     2,
	TagInt:       4,
	TagLong:      8,
	TagFloat:     4,
	TagDouble:    8,
	TagByteArray: 4,
	TagString:    2,
	TagList:      5,
	TagCompound:  1,
	TagIntArray:  4,
}

// Decode parses a raw, uncompressed NBT stream into a tree allocated in
// a. It returns the root name and the unowned root tag. Truncated input,
// unknown tag types, nesting beyond MaxDepth and trailing bytes after the
// root fail with ErrSyntax. Nothing is left allocated on failure.
func Decode(a *Arena, data []byte) (string, Tag, error) {
	r := &reader{a: a, buf: data}

	typ, err := r.readType()
	if err != nil {
		return "", Tag{}, err
	}
	if typ == TagEnd {
		return "", Tag{}, r.errorf("root must not be %s", typ)
	}
	name, err := r.readString()
	if err != nil {
		return "", Tag{}, err
	}

	id, err := r.readPayload(typ)
	if err != nil {
		return "", Tag{}, err
	}
	if r.pos != len(r.buf) {
		a.release(id)
		return "", Tag{}, r.errorf("%d trailing bytes", len(r.buf)-r.pos)
	}
	return name, a.handle(id), nil
}

// --------------------------------------------------------------------

type reader struct {
	a     *Arena
	buf   []byte
	pos   int
	depth int
}

func (r *reader) errorf(format string, args ...any) error {
	return fmt.Errorf("%w: offset %d: %s", ErrSyntax, r.pos, fmt.Sprintf(format, args...))
}

func (r *reader) remaining() int { return len(r.buf) - r.pos }

func (r *reader) next(n int) ([]byte, error) {
	if n < 0 || n > r.remaining() {
		return nil, r.errorf("unexpected end of data, need %d bytes, have %d", n, r.remaining())
	}
	p := r.buf[r.pos : r.pos+n]
	r.pos += n
	return p, nil
}

func (r *reader) readType() (TagType, error) {
	p, err := r.next(1)
	if err != nil {
		return TagEnd, err
	}
	if typ := TagType(p[0]); typ.isValid() {
		return typ, nil
	}
	return TagEnd, r.errorf("unknown tag type %d", p[0])
}

func (r *reader) readString() (string, error) {
	p, err := r.next(2)
	if err != nil {
		return "", err
	}
	if p, err = r.next(int(binary.BigEndian.Uint16(p))); err != nil {
		return "", err
	}
	return string(p), nil
}

// readCount reads a signed 4-byte length and checks that count elements
// of at least size bytes each can still be present. Negative lengths are
// malformed unless empty is true, in which case they read as zero.
func (r *reader) readCount(size int, empty bool) (int, error) {
	p, err := r.next(4)
	if err != nil {
		return 0, err
	}
	n := int(int32(binary.BigEndian.Uint32(p)))
	if n < 0 && empty {
		n = 0
	} else if n < 0 {
		return 0, r.errorf("negative length %d", n)
	}
	if size > 0 && n > r.remaining()/size {
		return 0, r.errorf("length %d exceeds remaining %d bytes", n, r.remaining())
	}
	return n, nil
}

// readPayload reads the payload of a tag of type typ into a new, unowned
// node. On error the partially built node is released.
func (r *reader) readPayload(typ TagType) (uint32, error) {
	switch typ {
	case TagByte, TagShort, TagInt, TagLong:
		p, err := r.next(minPayload[typ])
		if err != nil {
			return 0, err
		}
		var v int64
		switch typ {
		case TagByte:
			v = int64(int8(p[0]))
		case TagShort:
			v = int64(int16(binary.BigEndian.Uint16(p)))
		case TagInt:
			v = int64(int32(binary.BigEndian.Uint32(p)))
		default:
			v = int64(binary.BigEndian.Uint64(p))
		}
		return r.a.newInt(typ, v).id, nil

	case TagFloat:
		p, err := r.next(4)
		if err != nil {
			return 0, err
		}
		return r.a.NewFloat(math.Float32frombits(binary.BigEndian.Uint32(p))).id, nil

	case TagDouble:
		p, err := r.next(8)
		if err != nil {
			return 0, err
		}
		return r.a.NewDouble(math.Float64frombits(binary.BigEndian.Uint64(p))).id, nil

	case TagString:
		s, err := r.readString()
		if err != nil {
			return 0, err
		}
		return r.a.NewString(s).id, nil

	case TagByteArray:
		n, err := r.readCount(1, false)
		if err != nil {
			return 0, err
		}
		p, err := r.next(n)
		if err != nil {
			return 0, err
		}
		return r.a.NewByteArray(append(make([]byte, 0, n), p...)).id, nil

	case TagIntArray:
		n, err := r.readCount(4, false)
		if err != nil {
			return 0, err
		}
		p, err := r.next(4 * n)
		if err != nil {
			return 0, err
		}
		ints := make([]int32, n)
		for i := range ints {
			ints[i] = int32(binary.BigEndian.Uint32(p[4*i:]))
		}
		return r.a.NewIntArray(ints).id, nil

	case TagList:
		return r.readList()

	case TagCompound:
		return r.readCompound()
	}
	return 0, r.errorf("unexpected %s payload", typ)
}

func (r *reader) enter() error {
	if r.depth++; r.depth > MaxDepth {
		return r.errorf("nesting exceeds %d levels", MaxDepth)
	}
	return nil
}

func (r *reader) readList() (uint32, error) {
	if err := r.enter(); err != nil {
		return 0, err
	}
	defer func() { r.depth-- }()

	elem, err := r.readType()
	if err != nil {
		return 0, err
	}
	n, err := r.readCount(minPayload[elem], true)
	if err != nil {
		return 0, err
	}
	if elem == TagEnd && n != 0 {
		return 0, r.errorf("list of %d elements without a type", n)
	}

	t, _ := r.a.NewList(elem)
	r.a.nodes[t.id].items = make([]uint32, 0, n)
	for i := 0; i < n; i++ {
		cid, err := r.readPayload(elem)
		if err != nil {
			r.a.release(t.id)
			return 0, err
		}
		r.link(t.id, cid)
		nd := &r.a.nodes[t.id]
		nd.items = append(nd.items, cid)
	}
	return t.id, nil
}

func (r *reader) readCompound() (uint32, error) {
	if err := r.enter(); err != nil {
		return 0, err
	}
	defer func() { r.depth-- }()

	t := r.a.NewCompound()
	for {
		typ, err := r.readType()
		if err != nil {
			r.a.release(t.id)
			return 0, err
		}
		if typ == TagEnd {
			return t.id, nil
		}

		key, err := r.readString()
		if err != nil {
			r.a.release(t.id)
			return 0, err
		}
		cid, err := r.readPayload(typ)
		if err != nil {
			r.a.release(t.id)
			return 0, err
		}
		r.link(t.id, cid)

		// a repeated key replaces the earlier value
		nd := &r.a.nodes[t.id]
		if pos, ok := nd.index[key]; ok {
			old := nd.items[pos]
			nd.items[pos] = cid
			r.a.release(old)
			continue
		}
		nd.index[key] = len(nd.items)
		nd.items = append(nd.items, cid)
		nd.keys = append(nd.keys, key)
	}
}

func (r *reader) link(parent, child uint32) {
	cn := &r.a.nodes[child]
	cn.owned = true
	cn.up = parent
}
