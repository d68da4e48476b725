package nbt

import (
	"bytes"
	"fmt"
	"math"
	"slices"
	"sort"
)

// Value returns a materialized native representation of the tag:
//
//	Byte, Short, Int, Long  int64
//	Float, Double           float64
//	Byte_Array              []byte (a copy)
//	Int_Array               []int32 (a copy)
//	String                  string
//	List                    []Tag (aliases)
//	Compound                map[string]Tag (aliases)
func (t Tag) Value() (any, error) {
	nd, err := t.node()
	if err != nil {
		return nil, err
	}

	switch nd.typ {
	case TagByte, TagShort, TagInt, TagLong:
		return nd.num, nil
	case TagFloat, TagDouble:
		return nd.flt, nil
	case TagByteArray:
		return append([]byte{}, nd.raw...), nil
	case TagIntArray:
		return append([]int32{}, nd.ints...), nil
	case TagString:
		return nd.str, nil
	case TagList:
		vals := make([]Tag, 0, len(nd.items))
		for _, id := range nd.items {
			vals = append(vals, t.a.handle(id))
		}
		return vals, nil
	case TagCompound:
		vals := make(map[string]Tag, len(nd.items))
		for i, id := range nd.items {
			vals[nd.keys[i]] = t.a.handle(id)
		}
		return vals, nil
	}
	return nil, fmt.Errorf("%w: Value on %s", ErrTypeMismatch, nd.typ)
}

// SetValue assigns a native value to the tag, see Value for the
// representations. Integer tags accept any Go integer, float tags any
// Go integer or float. Lists accept []Tag or []any, compounds accept
// map[string]Tag or map[string]any; elements which are not tags are
// converted with FromValue.
//
// List and compound assignments are atomic: every element is validated
// before the tag is touched, and on failure the tag is left unchanged.
// Children of the tag itself may be passed back in and are kept, all
// other previous children are released.
func (t Tag) SetValue(v any) error {
	nd, err := t.node()
	if err != nil {
		return err
	}

	switch nd.typ {
	case TagByte, TagShort, TagInt, TagLong:
		n, ok, err := toInt64(v)
		if err != nil {
			return err
		} else if !ok {
			return fmt.Errorf("%w: cannot assign %T to %s", ErrTypeMismatch, v, nd.typ)
		}
		return t.SetInt(n)

	case TagFloat, TagDouble:
		switch f := v.(type) {
		case float32:
			return t.SetFloat(float64(f))
		case float64:
			return t.SetFloat(f)
		}
		n, ok, err := toInt64(v)
		if err != nil {
			return err
		} else if !ok {
			return fmt.Errorf("%w: cannot assign %T to %s", ErrTypeMismatch, v, nd.typ)
		}
		return t.SetFloat(float64(n))

	case TagString:
		if s, ok := v.(string); ok {
			return t.SetStr(s)
		}
	case TagByteArray:
		if p, ok := v.([]byte); ok {
			return t.SetBytes(append([]byte{}, p...))
		}
	case TagIntArray:
		if p, ok := v.([]int32); ok {
			return t.SetInts(append([]int32{}, p...))
		}

	case TagList:
		var (
			vals, created []Tag
			err           error
		)
		switch vv := v.(type) {
		case []Tag:
			vals = vv
		case []any:
			if vals, created, err = t.a.fromValues(vv); err != nil {
				return err
			}
		default:
			return fmt.Errorf("%w: cannot assign %T to %s", ErrTypeMismatch, v, nd.typ)
		}
		if err := t.setChildren(nil, vals); err != nil {
			releaseAll(created)
			return err
		}
		return nil

	case TagCompound:
		keys, vals, created, err := t.a.fromMap(v)
		if err != nil {
			return err
		}
		if err := t.setChildren(keys, vals); err != nil {
			releaseAll(created)
			return err
		}
		return nil
	}
	return fmt.Errorf("%w: cannot assign %T to %s", ErrTypeMismatch, v, nd.typ)
}

// setChildren replaces all children of a list (keys == nil) or compound.
func (t Tag) setChildren(keys []string, vals []Tag) error {
	nd, err := t.node()
	if err != nil {
		return err
	}

	elem := nd.elem
	seen := make(map[Tag]struct{}, len(vals))
	for i, v := range vals {
		vn, err := v.node()
		if err != nil {
			return err
		}
		if _, ok := seen[v]; ok {
			return fmt.Errorf("%w: tag passed twice", ErrInvalidState)
		}
		seen[v] = struct{}{}

		if vn.owned && !(v.a == t.a && vn.up == t.id) {
			return fmt.Errorf("%w: %s already has a parent", ErrInvalidState, vn.typ)
		}
		if !vn.owned && v.a == t.a && t.a.isAncestor(v.id, t.id) {
			return fmt.Errorf("%w: cannot insert a tag into its own subtree", ErrInvalidState)
		}
		if keys == nil {
			if i == 0 {
				elem = vn.typ
			} else if vn.typ != elem {
				return fmt.Errorf("%w: cannot mix %s and %s in a list", ErrTypeMismatch, elem, vn.typ)
			}
		}
	}

	kept := make(map[uint32]struct{}, len(vals))
	ids := make([]uint32, 0, len(vals))
	for _, v := range vals {
		if v.a == t.a && t.a.nodes[v.id].owned {
			kept[v.id] = struct{}{}
			ids = append(ids, v.id)
		} else {
			ids = append(ids, t.a.adopt(t.id, v))
		}
	}

	nd = &t.a.nodes[t.id]
	old := nd.items
	nd.items = ids
	if keys == nil {
		nd.elem = elem
	} else {
		nd.keys = append([]string(nil), keys...)
		nd.index = make(map[string]int, len(keys))
		for i, k := range keys {
			nd.index[k] = i
		}
	}

	for _, id := range old {
		if _, ok := kept[id]; !ok {
			t.a.release(id)
		}
	}
	return nil
}

// --------------------------------------------------------------------

// FromValue creates an unowned tag from a native Go value:
//
//	bool, int8                      Byte
//	uint8, int16                    Short
//	uint16, int32                   Int
//	int                             Int, or Long if it does not fit
//	uint32, int64, uint, uint64     Long
//	float32                         Float
//	float64                         Double
//	string                          String
//	[]byte                          Byte_Array (copied)
//	[]int32                         Int_Array (copied)
//	[]Tag, []any                    List
//	map[string]Tag, map[string]any  Compound
//
// A Tag is returned as is. Unsupported values fail with ErrTypeMismatch.
func FromValue(a *Arena, v any) (Tag, error) {
	switch vv := v.(type) {
	case Tag:
		return vv, nil
	case bool:
		if vv {
			return a.NewByte(1), nil
		}
		return a.NewByte(0), nil
	case int8:
		return a.NewByte(vv), nil
	case uint8:
		return a.NewShort(int16(vv)), nil
	case int16:
		return a.NewShort(vv), nil
	case uint16:
		return a.NewInt(int32(vv)), nil
	case int32:
		return a.NewInt(vv), nil
	case int:
		if vv >= math.MinInt32 && vv <= math.MaxInt32 {
			return a.NewInt(int32(vv)), nil
		}
		return a.NewLong(int64(vv)), nil
	case uint32:
		return a.NewLong(int64(vv)), nil
	case int64:
		return a.NewLong(vv), nil
	case uint, uint64:
		n, _, err := toInt64(vv)
		if err != nil {
			return Tag{}, err
		}
		return a.NewLong(n), nil
	case float32:
		return a.NewFloat(vv), nil
	case float64:
		return a.NewDouble(vv), nil
	case string:
		return a.NewString(vv), nil
	case []byte:
		return a.NewByteArray(append([]byte{}, vv...)), nil
	case []int32:
		return a.NewIntArray(append([]int32{}, vv...)), nil
	case []Tag, []any, map[string]Tag, map[string]any:
		typ := TagList
		if _, ok := v.(map[string]Tag); ok {
			typ = TagCompound
		} else if _, ok := v.(map[string]any); ok {
			typ = TagCompound
		}

		t := a.alloc(typ)
		if err := t.SetValue(v); err != nil {
			_ = t.Release()
			return Tag{}, err
		}
		return t, nil
	}
	return Tag{}, fmt.Errorf("%w: cannot convert %T", ErrTypeMismatch, v)
}

// fromValues converts vals into tags, returning the tags it had to
// create so they can be released on failure.
func (a *Arena) fromValues(vals []any) (tags, created []Tag, err error) {
	tags = make([]Tag, 0, len(vals))
	for _, v := range vals {
		if t, ok := v.(Tag); ok {
			tags = append(tags, t)
			continue
		}

		t, err := FromValue(a, v)
		if err != nil {
			releaseAll(created)
			return nil, nil, err
		}
		created = append(created, t)
		tags = append(tags, t)
	}
	return tags, created, nil
}

// fromMap converts a map value into sorted keys and tags.
func (a *Arena) fromMap(v any) (keys []string, tags, created []Tag, err error) {
	switch m := v.(type) {
	case map[string]Tag:
		keys = sortedKeys(m)
		for _, k := range keys {
			tags = append(tags, m[k])
		}
		return keys, tags, nil, nil
	case map[string]any:
		keys = sortedKeys(m)
		vals := make([]any, 0, len(keys))
		for _, k := range keys {
			vals = append(vals, m[k])
		}
		tags, created, err = a.fromValues(vals)
		return keys, tags, created, err
	}
	return nil, nil, nil, fmt.Errorf("%w: cannot assign %T to %s", ErrTypeMismatch, v, TagCompound)
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func releaseAll(tags []Tag) {
	for _, t := range tags {
		_ = t.Release()
	}
}

func toInt64(v any) (int64, bool, error) {
	switch n := v.(type) {
	case int:
		return int64(n), true, nil
	case int8:
		return int64(n), true, nil
	case int16:
		return int64(n), true, nil
	case int32:
		return int64(n), true, nil
	case int64:
		return n, true, nil
	case uint8:
		return int64(n), true, nil
	case uint16:
		return int64(n), true, nil
	case uint32:
		return int64(n), true, nil
	case uint:
		if uint64(n) > math.MaxInt64 {
			return 0, true, fmt.Errorf("%w: %d does not fit %s", ErrOutOfRange, n, TagLong)
		}
		return int64(n), true, nil
	case uint64:
		if n > math.MaxInt64 {
			return 0, true, fmt.Errorf("%w: %d does not fit %s", ErrOutOfRange, n, TagLong)
		}
		return int64(n), true, nil
	}
	return 0, false, nil
}

// --------------------------------------------------------------------

// Equal reports whether two tags are structurally equal. Tags may live
// in different arenas. Compounds compare regardless of key order, float
// values compare bit by bit. Invalid handles are never equal.
func Equal(a, b Tag) bool {
	an, err := a.node()
	if err != nil {
		return false
	}
	bn, err := b.node()
	if err != nil {
		return false
	}
	return equalNodes(a.a, an, b.a, bn)
}

func equalNodes(aa *Arena, an *node, ba *Arena, bn *node) bool {
	if an.typ != bn.typ {
		return false
	}

	switch an.typ {
	case TagByte, TagShort, TagInt, TagLong:
		return an.num == bn.num
	case TagFloat, TagDouble:
		return math.Float64bits(an.flt) == math.Float64bits(bn.flt)
	case TagByteArray:
		return bytes.Equal(an.raw, bn.raw)
	case TagIntArray:
		return slices.Equal(an.ints, bn.ints)
	case TagString:
		return an.str == bn.str
	case TagList:
		if an.elem != bn.elem || len(an.items) != len(bn.items) {
			return false
		}
		for i := range an.items {
			if !equalNodes(aa, &aa.nodes[an.items[i]], ba, &ba.nodes[bn.items[i]]) {
				return false
			}
		}
		return true
	case TagCompound:
		if len(an.items) != len(bn.items) {
			return false
		}
		for i, k := range an.keys {
			pos, ok := bn.index[k]
			if !ok || !equalNodes(aa, &aa.nodes[an.items[i]], ba, &ba.nodes[bn.items[pos]]) {
				return false
			}
		}
		return true
	}
	return false
}

// Clone deep-copies the tag into dst, or into its own arena if dst is
// nil. The copy is unowned.
func (t Tag) Clone(dst *Arena) (Tag, error) {
	if _, err := t.node(); err != nil {
		return Tag{}, err
	}
	if dst == nil {
		dst = t.a
	}
	return dst.handle(copyNode(dst, t.a, t.id)), nil
}
