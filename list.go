package nbt

import "fmt"

func (t Tag) list(op string) (*node, error) { return t.expectType(op, TagList) }

// resolve maps a possibly negative index onto [0, n) or, if insert is
// true, onto [0, n].
func resolve(i, n int, insert bool) (int, error) {
	if i < 0 {
		i += n
	}
	limit := n
	if insert {
		limit++
	}
	if i < 0 || i >= limit {
		return 0, fmt.Errorf("%w: index %d, length %d", ErrOutOfRange, i, n)
	}
	return i, nil
}

// ListType returns the element type of a list, TagEnd if unset.
func (t Tag) ListType() (TagType, error) {
	nd, err := t.list("ListType")
	if err != nil {
		return TagEnd, err
	}
	return nd.elem, nil
}

// SetListType sets the element type of a list. Only empty lists can
// change their type, otherwise ErrInvalidState is returned.
func (t Tag) SetListType(elem TagType) error {
	nd, err := t.list("SetListType")
	if err != nil {
		return err
	}
	if !elem.isValid() {
		return fmt.Errorf("%w: invalid list element type %s", ErrTypeMismatch, elem)
	}
	if len(nd.items) != 0 && elem != nd.elem {
		return fmt.Errorf("%w: cannot change the type of a non-empty list", ErrInvalidState)
	}
	nd.elem = elem
	return nil
}

// Index returns the element at i. Negative indices count from the end.
// The returned tag aliases the element.
func (t Tag) Index(i int) (Tag, error) {
	nd, err := t.list("Index")
	if err != nil {
		return Tag{}, err
	}
	if i, err = resolve(i, len(nd.items), false); err != nil {
		return Tag{}, err
	}
	return t.a.handle(nd.items[i]), nil
}

// Delete removes the element at i and releases it.
func (t Tag) Delete(i int) error {
	child, err := t.Pop(i)
	if err != nil {
		return err
	}
	t.a.release(child.id)
	return nil
}

// Pop removes the element at i and returns it. The caller becomes the
// owner of the returned tag.
func (t Tag) Pop(i int) (Tag, error) {
	nd, err := t.list("Pop")
	if err != nil {
		return Tag{}, err
	}
	if i, err = resolve(i, len(nd.items), false); err != nil {
		return Tag{}, err
	}
	return t.a.handle(t.a.removeAt(t.id, i)), nil
}

// Insert inserts v before position i, shifting subsequent elements.
// i == length appends. v must be an unowned tag, and becomes owned by
// the list; tags of another arena are moved into this one. Inserting
// into an empty list without element type sets the type to v's type.
func (t Tag) Insert(i int, v Tag) error {
	nd, err := t.list("Insert")
	if err != nil {
		return err
	}
	if i, err = resolve(i, len(nd.items), true); err != nil {
		return err
	}

	typ, err := t.a.checkChild(t.id, v)
	if err != nil {
		return err
	}
	if nd.elem != TagEnd && typ != nd.elem {
		return fmt.Errorf("%w: cannot insert %s into list of %s", ErrTypeMismatch, typ, nd.elem)
	}
	if nd.elem == TagEnd && len(nd.items) != 0 {
		return fmt.Errorf("%w: list has elements but no type", ErrInvalidState)
	}

	id := t.a.adopt(t.id, v)

	nd = &t.a.nodes[t.id]
	nd.elem = typ
	nd.items = append(nd.items, 0)
	copy(nd.items[i+1:], nd.items[i:])
	nd.items[i] = id
	return nil
}

// Append appends v to the list, see Insert.
func (t Tag) Append(v Tag) error {
	n, err := t.Len()
	if err != nil {
		return err
	}
	return t.Insert(n, v)
}

// SetIndex replaces the element at i with v, releasing the previous one.
func (t Tag) SetIndex(i int, v Tag) error {
	nd, err := t.list("SetIndex")
	if err != nil {
		return err
	}
	if i, err = resolve(i, len(nd.items), false); err != nil {
		return err
	}

	typ, err := t.a.checkChild(t.id, v)
	if err != nil {
		return err
	}
	if typ != nd.elem {
		return fmt.Errorf("%w: cannot store %s in list of %s", ErrTypeMismatch, typ, nd.elem)
	}

	id := t.a.adopt(t.id, v)

	nd = &t.a.nodes[t.id]
	old := nd.items[i]
	nd.items[i] = id
	t.a.release(old)
	return nil
}

// Reverse reverses the list in place.
func (t Tag) Reverse() error {
	nd, err := t.list("Reverse")
	if err != nil {
		return err
	}
	for i, j := 0, len(nd.items)-1; i < j; i, j = i+1, j-1 {
		nd.items[i], nd.items[j] = nd.items[j], nd.items[i]
	}
	return nil
}
