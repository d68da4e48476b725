package nbt

import (
	"fmt"
	"math"
)

// Tag is a handle to a node in an Arena. Tags returned by lookups alias
// the node, they do not copy it. The zero Tag is invalid.
type Tag struct {
	a   *Arena
	id  uint32
	gen uint32
}

// New creates an empty, unowned tag of the given type. Integer and float
// tags are zero, strings and arrays empty, lists have no element type.
func (a *Arena) New(typ TagType) (Tag, error) {
	if typ == TagEnd || !typ.isValid() {
		return Tag{}, fmt.Errorf("%w: cannot create a %s", ErrTypeMismatch, typ)
	}
	return a.alloc(typ), nil
}

// NewByte creates a TAG_Byte.
func (a *Arena) NewByte(v int8) Tag { return a.newInt(TagByte, int64(v)) }

// NewShort creates a TAG_Short.
func (a *Arena) NewShort(v int16) Tag { return a.newInt(TagShort, int64(v)) }

// NewInt creates a TAG_Int.
func (a *Arena) NewInt(v int32) Tag { return a.newInt(TagInt, int64(v)) }

// NewLong creates a TAG_Long.
func (a *Arena) NewLong(v int64) Tag { return a.newInt(TagLong, v) }

// NewFloat creates a TAG_Float.
func (a *Arena) NewFloat(v float32) Tag {
	t := a.alloc(TagFloat)
	a.nodes[t.id].flt = float64(v)
	return t
}

// NewDouble creates a TAG_Double.
func (a *Arena) NewDouble(v float64) Tag {
	t := a.alloc(TagDouble)
	a.nodes[t.id].flt = v
	return t
}

// NewString creates a TAG_String.
func (a *Arena) NewString(s string) Tag {
	t := a.alloc(TagString)
	a.nodes[t.id].str = s
	return t
}

// NewByteArray creates a TAG_Byte_Array. The tag takes ownership of p.
func (a *Arena) NewByteArray(p []byte) Tag {
	t := a.alloc(TagByteArray)
	a.nodes[t.id].raw = p
	return t
}

// NewIntArray creates a TAG_Int_Array. The tag takes ownership of p.
func (a *Arena) NewIntArray(p []int32) Tag {
	t := a.alloc(TagIntArray)
	a.nodes[t.id].ints = p
	return t
}

// NewList creates an empty TAG_List with the given element type. Pass
// TagEnd to leave the element type unset until the first insert.
func (a *Arena) NewList(elem TagType) (Tag, error) {
	if !elem.isValid() {
		return Tag{}, fmt.Errorf("%w: invalid list element type %s", ErrTypeMismatch, elem)
	}
	t := a.alloc(TagList)
	a.nodes[t.id].elem = elem
	return t, nil
}

// NewCompound creates an empty TAG_Compound.
func (a *Arena) NewCompound() Tag { return a.alloc(TagCompound) }

func (a *Arena) newInt(typ TagType, v int64) Tag {
	t := a.alloc(typ)
	a.nodes[t.id].num = v
	return t
}

// --------------------------------------------------------------------

func (t Tag) node() (*node, error) {
	if t.a == nil {
		return nil, ErrReleased
	}
	return t.a.lookup(t.id, t.gen)
}

func (t Tag) expect(op string, ok func(TagType) bool) (*node, error) {
	nd, err := t.node()
	if err != nil {
		return nil, err
	}
	if !ok(nd.typ) {
		return nil, fmt.Errorf("%w: %s on %s", ErrTypeMismatch, op, nd.typ)
	}
	return nd, nil
}

func (t Tag) expectType(op string, typ TagType) (*node, error) {
	return t.expect(op, func(x TagType) bool { return x == typ })
}

// Arena returns the arena the tag lives in.
func (t Tag) Arena() *Arena { return t.a }

// Valid returns true if the handle refers to a live node.
func (t Tag) Valid() bool {
	_, err := t.node()
	return err == nil
}

// Type returns the tag type, or TagEnd if the handle is not valid.
func (t Tag) Type() TagType {
	nd, err := t.node()
	if err != nil {
		return TagEnd
	}
	return nd.typ
}

// Parent returns the list or compound that owns the tag. The second
// return value is false for unowned roots and invalid handles.
func (t Tag) Parent() (Tag, bool) {
	nd, err := t.node()
	if err != nil || !nd.owned {
		return Tag{}, false
	}
	return t.a.handle(nd.up), true
}

// Release frees an unowned tag and its subtree. Owned tags must be
// removed from their parent instead, Release fails with ErrInvalidState.
func (t Tag) Release() error {
	nd, err := t.node()
	if err != nil {
		return err
	}
	if nd.owned {
		return fmt.Errorf("%w: cannot release an owned %s", ErrInvalidState, nd.typ)
	}
	t.a.release(t.id)
	return nil
}

// Detach removes the tag from its parent, the caller becomes the owner.
// Detaching an unowned tag is a no-op.
func (t Tag) Detach() error {
	nd, err := t.node()
	if err != nil {
		return err
	}
	if nd.owned {
		t.a.removeAt(nd.up, t.a.position(nd.up, t.id))
	}
	return nil
}

// --------------------------------------------------------------------

// Int returns the value of an integer tag (Byte, Short, Int, Long).
func (t Tag) Int() (int64, error) {
	nd, err := t.expect("Int", TagType.isInteger)
	if err != nil {
		return 0, err
	}
	return nd.num, nil
}

// SetInt sets the value of an integer tag. Values which do not fit the
// tag width fail with ErrOutOfRange.
func (t Tag) SetInt(v int64) error {
	nd, err := t.expect("SetInt", TagType.isInteger)
	if err != nil {
		return err
	}

	var lo, hi int64
	switch nd.typ {
	case TagByte:
		lo, hi = math.MinInt8, math.MaxInt8
	case TagShort:
		lo, hi = math.MinInt16, math.MaxInt16
	case TagInt:
		lo, hi = math.MinInt32, math.MaxInt32
	default:
		lo, hi = math.MinInt64, math.MaxInt64
	}
	if v < lo || v > hi {
		return fmt.Errorf("%w: %d does not fit %s", ErrOutOfRange, v, nd.typ)
	}

	nd.num = v
	return nil
}

// Float returns the value of a Float or Double tag.
func (t Tag) Float() (float64, error) {
	nd, err := t.expect("Float", TagType.isFloat)
	if err != nil {
		return 0, err
	}
	return nd.flt, nil
}

// SetFloat sets the value of a Float or Double tag. Float tags store the
// value with single precision.
func (t Tag) SetFloat(v float64) error {
	nd, err := t.expect("SetFloat", TagType.isFloat)
	if err != nil {
		return err
	}
	if nd.typ == TagFloat {
		v = float64(float32(v))
	}
	nd.flt = v
	return nil
}

// Str returns the value of a String tag.
func (t Tag) Str() (string, error) {
	nd, err := t.expectType("Str", TagString)
	if err != nil {
		return "", err
	}
	return nd.str, nil
}

// SetStr sets the value of a String tag.
func (t Tag) SetStr(s string) error {
	nd, err := t.expectType("SetStr", TagString)
	if err != nil {
		return err
	}
	nd.str = s
	return nil
}

// Bytes returns a read view of a Byte_Array tag. The slice must not be
// modified and is only valid until the next SetBytes.
func (t Tag) Bytes() ([]byte, error) {
	nd, err := t.expectType("Bytes", TagByteArray)
	if err != nil {
		return nil, err
	}
	return nd.raw, nil
}

// SetBytes replaces the contents of a Byte_Array tag. The tag takes
// ownership of p.
func (t Tag) SetBytes(p []byte) error {
	nd, err := t.expectType("SetBytes", TagByteArray)
	if err != nil {
		return err
	}
	nd.raw = p
	return nil
}

// Ints returns a read view of an Int_Array tag.
func (t Tag) Ints() ([]int32, error) {
	nd, err := t.expectType("Ints", TagIntArray)
	if err != nil {
		return nil, err
	}
	return nd.ints, nil
}

// SetInts replaces the contents of an Int_Array tag. The tag takes
// ownership of p.
func (t Tag) SetInts(p []int32) error {
	nd, err := t.expectType("SetInts", TagIntArray)
	if err != nil {
		return err
	}
	nd.ints = p
	return nil
}

// Len returns the number of elements of a Byte_Array, Int_Array, List or
// Compound tag.
func (t Tag) Len() (int, error) {
	nd, err := t.node()
	if err != nil {
		return 0, err
	}

	switch nd.typ {
	case TagByteArray:
		return len(nd.raw), nil
	case TagIntArray:
		return len(nd.ints), nil
	case TagList, TagCompound:
		return len(nd.items), nil
	}
	return 0, fmt.Errorf("%w: Len on %s", ErrTypeMismatch, nd.typ)
}
