package nbt

import "fmt"

// Arena owns the nodes of one or more tag trees. Tags are handles into
// an arena: they alias nodes rather than own them. Releasing a node
// bumps its generation, so stale handles fail with ErrReleased instead
// of observing recycled data.
//
// An Arena is not safe for concurrent use.
type Arena struct {
	nodes []node
	free  []uint32
}

type node struct {
	gen   uint32
	live  bool
	owned bool   // true if the node is a child of a list or compound
	up    uint32 // parent index, only meaningful if owned
	typ   TagType

	num  int64
	flt  float64
	str  string
	raw  []byte
	ints []int32

	elem  TagType        // list element type
	items []uint32       // list elements or compound values
	keys  []string       // compound keys, parallel to items
	index map[string]int // compound key -> position in items
}

// NewArena creates an empty arena.
func NewArena() *Arena {
	return &Arena{}
}

// Len returns the number of live nodes in the arena.
func (a *Arena) Len() int {
	return len(a.nodes) - len(a.free)
}

func (a *Arena) alloc(typ TagType) Tag {
	var id uint32
	if n := len(a.free); n != 0 {
		id = a.free[n-1]
		a.free = a.free[:n-1]
	} else {
		id = uint32(len(a.nodes))
		a.nodes = append(a.nodes, node{})
	}

	gen := a.nodes[id].gen + 1
	a.nodes[id] = node{gen: gen, live: true, typ: typ}
	if typ == TagCompound {
		a.nodes[id].index = make(map[string]int)
	}
	return Tag{a: a, id: id, gen: gen}
}

func (a *Arena) lookup(id, gen uint32) (*node, error) {
	if int(id) >= len(a.nodes) {
		return nil, ErrReleased
	}
	nd := &a.nodes[id]
	if !nd.live || nd.gen != gen {
		return nil, ErrReleased
	}
	return nd, nil
}

func (a *Arena) handle(id uint32) Tag {
	return Tag{a: a, id: id, gen: a.nodes[id].gen}
}

// release frees a node and its whole subtree.
func (a *Arena) release(id uint32) {
	children := a.nodes[id].items
	a.nodes[id] = node{gen: a.nodes[id].gen}
	a.free = append(a.free, id)

	for _, c := range children {
		a.release(c)
	}
}

// removeAt unlinks the child at pos from its parent without releasing it.
func (a *Arena) removeAt(parent uint32, pos int) uint32 {
	pn := &a.nodes[parent]
	child := pn.items[pos]
	pn.items = append(pn.items[:pos], pn.items[pos+1:]...)

	if pn.typ == TagCompound {
		delete(pn.index, pn.keys[pos])
		pn.keys = append(pn.keys[:pos], pn.keys[pos+1:]...)
		for i := pos; i < len(pn.keys); i++ {
			pn.index[pn.keys[i]] = i
		}
	}

	cn := &a.nodes[child]
	cn.owned = false
	cn.up = 0
	return child
}

// position returns the position of child within its parent's items.
func (a *Arena) position(parent, child uint32) int {
	for i, id := range a.nodes[parent].items {
		if id == child {
			return i
		}
	}
	return -1
}

// isAncestor reports whether anc is id itself or one of its ancestors.
func (a *Arena) isAncestor(anc, id uint32) bool {
	for {
		if id == anc {
			return true
		}
		nd := &a.nodes[id]
		if !nd.owned {
			return false
		}
		id = nd.up
	}
}

// checkChild validates that v may be inserted below parent, without
// mutating anything. It returns the type of v.
func (a *Arena) checkChild(parent uint32, v Tag) (TagType, error) {
	vn, err := v.node()
	if err != nil {
		return TagEnd, err
	}
	if vn.owned {
		return TagEnd, fmt.Errorf("%w: %s already has a parent", ErrInvalidState, vn.typ)
	}
	if v.a == a && a.isAncestor(v.id, parent) {
		return TagEnd, fmt.Errorf("%w: cannot insert a tag into its own subtree", ErrInvalidState)
	}
	return vn.typ, nil
}

// adopt moves a checked, unowned tag into the arena and links it to
// parent. Tags from other arenas are copied in and released at the
// source.
func (a *Arena) adopt(parent uint32, v Tag) uint32 {
	id := v.id
	if v.a != a {
		id = copyNode(a, v.a, v.id)
		v.a.release(v.id)
	}

	cn := &a.nodes[id]
	cn.owned = true
	cn.up = parent
	return id
}

// copyNode deep-copies node id of src into dst and returns the new,
// unowned node.
func copyNode(dst, src *Arena, id uint32) uint32 {
	sn := src.nodes[id]
	nid := dst.alloc(sn.typ).id

	dn := &dst.nodes[nid]
	dn.num, dn.flt, dn.str, dn.elem = sn.num, sn.flt, sn.str, sn.elem
	if sn.raw != nil {
		dn.raw = append([]byte{}, sn.raw...)
	}
	if sn.ints != nil {
		dn.ints = append([]int32{}, sn.ints...)
	}

	for i, c := range sn.items {
		cid := copyNode(dst, src, c)
		dst.nodes[cid].owned = true
		dst.nodes[cid].up = nid

		dn = &dst.nodes[nid]
		dn.items = append(dn.items, cid)
		if sn.typ == TagCompound {
			dn.keys = append(dn.keys, sn.keys[i])
			dn.index[sn.keys[i]] = i
		}
	}
	return nid
}
