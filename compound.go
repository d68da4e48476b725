package nbt

import (
	"errors"
	"fmt"
)

func (t Tag) compound(op string) (*node, error) { return t.expectType(op, TagCompound) }

// Get returns the value stored under key. The returned tag aliases the
// value. Missing keys fail with ErrNotFound.
func (t Tag) Get(key string) (Tag, error) {
	nd, err := t.compound("Get")
	if err != nil {
		return Tag{}, err
	}
	pos, ok := nd.index[key]
	if !ok {
		return Tag{}, fmt.Errorf("%w: key %q", ErrNotFound, key)
	}
	return t.a.handle(nd.items[pos]), nil
}

// Has returns true if the compound contains key.
func (t Tag) Has(key string) (bool, error) {
	nd, err := t.compound("Has")
	if err != nil {
		return false, err
	}
	_, ok := nd.index[key]
	return ok, nil
}

// Keys returns the compound keys in storage order.
func (t Tag) Keys() ([]string, error) {
	nd, err := t.compound("Keys")
	if err != nil {
		return nil, err
	}
	return append([]string(nil), nd.keys...), nil
}

// Set stores v under key, replacing and releasing any previous value.
// v must be an unowned tag, and becomes owned by the compound; tags of
// another arena are moved into this one.
func (t Tag) Set(key string, v Tag) error {
	nd, err := t.compound("Set")
	if err != nil {
		return err
	}
	if pos, ok := nd.index[key]; ok && nd.items[pos] == v.id && v.a == t.a && v.Valid() {
		return nil // already stored
	}
	if _, err := t.a.checkChild(t.id, v); err != nil {
		return err
	}

	id := t.a.adopt(t.id, v)

	nd = &t.a.nodes[t.id]
	if pos, ok := nd.index[key]; ok {
		old := nd.items[pos]
		nd.items[pos] = id
		t.a.release(old)
		return nil
	}
	nd.index[key] = len(nd.items)
	nd.items = append(nd.items, id)
	nd.keys = append(nd.keys, key)
	return nil
}

// Remove deletes and releases the value stored under key. Removing a
// missing key is a no-op.
func (t Tag) Remove(key string) error {
	child, err := t.Take(key)
	if errors.Is(err, ErrNotFound) {
		return nil
	} else if err != nil {
		return err
	}
	t.a.release(child.id)
	return nil
}

// Take removes the value stored under key and returns it. The caller
// becomes the owner of the returned tag. Missing keys fail with
// ErrNotFound.
func (t Tag) Take(key string) (Tag, error) {
	nd, err := t.compound("Take")
	if err != nil {
		return Tag{}, err
	}
	pos, ok := nd.index[key]
	if !ok {
		return Tag{}, fmt.Errorf("%w: key %q", ErrNotFound, key)
	}
	return t.a.handle(t.a.removeAt(t.id, pos)), nil
}

// Path follows a chain of compound keys, e.g. Path("Level", "Sections").
func (t Tag) Path(keys ...string) (Tag, error) {
	cur := t
	for _, key := range keys {
		next, err := cur.Get(key)
		if err != nil {
			return Tag{}, err
		}
		cur = next
	}
	return cur, nil
}

// Find searches the tree depth-first for the first compound entry named
// name, descending into both compounds and lists.
func (t Tag) Find(name string) (Tag, error) {
	if _, err := t.node(); err != nil {
		return Tag{}, err
	}
	if id, ok := t.a.find(t.id, name); ok {
		return t.a.handle(id), nil
	}
	return Tag{}, fmt.Errorf("%w: tag %q", ErrNotFound, name)
}

func (a *Arena) find(id uint32, name string) (uint32, bool) {
	nd := &a.nodes[id]
	if nd.typ == TagCompound {
		if pos, ok := nd.index[name]; ok {
			return nd.items[pos], true
		}
	}
	for _, c := range nd.items {
		if found, ok := a.find(c, name); ok {
			return found, true
		}
	}
	return 0, false
}

// --------------------------------------------------------------------

// Iterator iterates over the elements of a list or the entries of a
// compound. Compound entries are visited in storage order, which is
// not guaranteed to survive a serialization round-trip.
//
// The iterator works on a snapshot of the children taken when it was
// created; children released, taken or detached in the meantime are
// skipped. Releasing the iterated tag itself stops the iteration with
// ErrReleased.
type Iterator struct {
	src   Tag
	a     *Arena
	items []uint32
	gens  []uint32
	keys  []string

	pos int
	cur Tag
	err error
}

// Iter returns an iterator over a list or compound.
func (t Tag) Iter() (*Iterator, error) {
	nd, err := t.expect("Iter", func(x TagType) bool { return x == TagList || x == TagCompound })
	if err != nil {
		return nil, err
	}

	it := &Iterator{
		src:   t,
		a:     t.a,
		items: append([]uint32(nil), nd.items...),
		gens:  make([]uint32, len(nd.items)),
		pos:   -1,
	}
	if nd.typ == TagCompound {
		it.keys = append([]string(nil), nd.keys...)
	}
	for i, id := range it.items {
		it.gens[i] = t.a.nodes[id].gen
	}
	return it, nil
}

// Next advances the iterator and returns true if successful.
func (it *Iterator) Next() bool {
	if it.err != nil {
		return false
	}
	if !it.src.Valid() {
		it.err = ErrReleased
		return false
	}
	for it.pos+1 < len(it.items) {
		it.pos++
		it.cur = Tag{a: it.a, id: it.items[it.pos], gen: it.gens[it.pos]}
		if it.isChild(it.cur) {
			return true
		}
	}
	it.cur = Tag{}
	return false
}

func (it *Iterator) isChild(t Tag) bool {
	if !t.Valid() {
		return false
	}
	nd := &it.a.nodes[t.id]
	return nd.owned && nd.up == it.src.id
}

// Index returns the position of the current element.
func (it *Iterator) Index() int { return it.pos }

// Key returns the key of the current compound entry, or an empty
// string when iterating a list.
func (it *Iterator) Key() string {
	if it.keys == nil || it.pos < 0 || it.pos >= len(it.keys) {
		return ""
	}
	return it.keys[it.pos]
}

// Tag returns the current element. The returned tag aliases the element.
func (it *Iterator) Tag() Tag { return it.cur }

// Err exposes iterator errors, if any.
func (it *Iterator) Err() error { return it.err }
