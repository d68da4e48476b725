package nbt_test

import (
	"math"

	"github.com/bsm/nbt"
	. "github.com/onsi/ginkgo"
	. "github.com/onsi/gomega"
)

var _ = Describe("Value", func() {
	var arena *nbt.Arena

	BeforeEach(func() {
		arena = nbt.NewArena()
	})

	It("should materialize scalars", func() {
		Expect(arena.NewByte(-1).Value()).To(Equal(int64(-1)))
		Expect(arena.NewLong(math.MaxInt64).Value()).To(Equal(int64(math.MaxInt64)))
		Expect(arena.NewDouble(2.5).Value()).To(Equal(2.5))
		Expect(arena.NewString("s").Value()).To(Equal("s"))
		Expect(arena.NewByteArray([]byte{1}).Value()).To(Equal([]byte{1}))
		Expect(arena.NewIntArray([]int32{7}).Value()).To(Equal([]int32{7}))
	})

	It("should copy arrays", func() {
		t := arena.NewByteArray([]byte{1, 2})
		v, err := t.Value()
		Expect(err).NotTo(HaveOccurred())
		v.([]byte)[0] = 9
		Expect(t.Bytes()).To(Equal([]byte{1, 2}))
	})

	It("should materialize containers as aliases", func() {
		doc := seedDocument()
		v, err := doc.Root.Value()
		Expect(err).NotTo(HaveOccurred())
		m := v.(map[string]nbt.Tag)
		Expect(m).To(HaveLen(12))
		Expect(m["Short"].Int()).To(Equal(int64(1234)))

		pos, err := m["Pos"].Value()
		Expect(err).NotTo(HaveOccurred())
		Expect(pos).To(HaveLen(3))
		Expect(pos.([]nbt.Tag)[1].Float()).To(Equal(64.0))
	})

	It("should assign scalars", func() {
		b := arena.NewByte(0)
		Expect(b.SetValue(12)).To(Succeed())
		Expect(b.Int()).To(Equal(int64(12)))
		Expect(b.SetValue(uint8(200))).To(MatchError(nbt.ErrOutOfRange))
		Expect(b.SetValue("x")).To(MatchError(nbt.ErrTypeMismatch))

		d := arena.NewDouble(0)
		Expect(d.SetValue(3)).To(Succeed())
		Expect(d.Float()).To(Equal(3.0))
		Expect(d.SetValue(float32(0.5))).To(Succeed())
		Expect(d.Float()).To(Equal(0.5))

		s := arena.NewString("")
		Expect(s.SetValue("abc")).To(Succeed())
		Expect(s.Str()).To(Equal("abc"))
		Expect(s.SetValue(1)).To(MatchError(nbt.ErrTypeMismatch))

		l := arena.NewLong(0)
		Expect(l.SetValue(uint64(math.MaxUint64))).To(MatchError(nbt.ErrOutOfRange))
	})

	It("should assign lists atomically", func() {
		list, err := arena.NewList(nbt.TagEnd)
		Expect(err).NotTo(HaveOccurred())

		Expect(list.SetValue([]any{int32(1), int32(2)})).To(Succeed())
		Expect(list.ListType()).To(Equal(nbt.TagInt))
		Expect(list.Len()).To(Equal(2))

		n := arena.Len()
		Expect(list.SetValue([]any{int32(1), "mixed"})).To(MatchError(nbt.ErrTypeMismatch))
		Expect(list.Len()).To(Equal(2))
		Expect(arena.Len()).To(Equal(n))

		Expect(list.SetValue([]any{struct{}{}})).To(MatchError(nbt.ErrTypeMismatch))
		Expect(arena.Len()).To(Equal(n))
	})

	It("should keep own children on reassignment", func() {
		list, err := arena.NewList(nbt.TagString)
		Expect(err).NotTo(HaveOccurred())
		a, b := arena.NewString("a"), arena.NewString("b")
		Expect(list.Append(a)).To(Succeed())
		Expect(list.Append(b)).To(Succeed())

		Expect(list.SetValue([]nbt.Tag{b, arena.NewString("c")})).To(Succeed())
		Expect(a.Valid()).To(BeFalse())
		Expect(b.Valid()).To(BeTrue())

		first, err := list.Index(0)
		Expect(err).NotTo(HaveOccurred())
		Expect(first.Str()).To(Equal("b"))
	})

	It("should reject foreign owned and duplicate children", func() {
		owner := arena.NewCompound()
		owned := arena.NewInt(1)
		Expect(owner.Set("x", owned)).To(Succeed())

		list, err := arena.NewList(nbt.TagInt)
		Expect(err).NotTo(HaveOccurred())
		Expect(list.SetValue([]nbt.Tag{owned})).To(MatchError(nbt.ErrInvalidState))

		free := arena.NewInt(2)
		Expect(list.SetValue([]nbt.Tag{free, free})).To(MatchError(nbt.ErrInvalidState))
		Expect(list.Len()).To(Equal(0))
	})

	It("should assign compounds", func() {
		c := arena.NewCompound()
		Expect(c.SetValue(map[string]any{
			"b": "two",
			"a": int32(1),
			"c": []any{1.5, 2.5},
			"d": map[string]any{"nested": true},
		})).To(Succeed())

		Expect(c.Keys()).To(Equal([]string{"a", "b", "c", "d"}))
		nested, err := c.Path("d", "nested")
		Expect(err).NotTo(HaveOccurred())
		Expect(nested.Type()).To(Equal(nbt.TagByte))
		Expect(nested.Int()).To(Equal(int64(1)))

		Expect(c.SetValue([]any{})).To(MatchError(nbt.ErrTypeMismatch))
	})

	It("should convert native values", func() {
		for v, typ := range map[any]nbt.TagType{
			true:              nbt.TagByte,
			int8(1):           nbt.TagByte,
			uint8(1):          nbt.TagShort,
			int16(1):          nbt.TagShort,
			uint16(1):         nbt.TagInt,
			int32(1):          nbt.TagInt,
			1:                 nbt.TagInt,
			math.MaxInt32 + 1: nbt.TagLong,
			uint32(1):         nbt.TagLong,
			int64(1):          nbt.TagLong,
			float32(1):        nbt.TagFloat,
			1.0:               nbt.TagDouble,
			"s":               nbt.TagString,
		} {
			t, err := nbt.FromValue(arena, v)
			Expect(err).NotTo(HaveOccurred(), "for %T", v)
			Expect(t.Type()).To(Equal(typ), "for %T", v)
		}

		t, err := nbt.FromValue(arena, []byte("x"))
		Expect(err).NotTo(HaveOccurred())
		Expect(t.Type()).To(Equal(nbt.TagByteArray))

		t, err = nbt.FromValue(arena, []int32{1})
		Expect(err).NotTo(HaveOccurred())
		Expect(t.Type()).To(Equal(nbt.TagIntArray))

		t, err = nbt.FromValue(arena, []any{"a", "b"})
		Expect(err).NotTo(HaveOccurred())
		Expect(t.ListType()).To(Equal(nbt.TagString))

		n := arena.Len()
		_, err = nbt.FromValue(arena, map[string]any{"ok": 1, "bad": complex(1, 1)})
		Expect(err).To(MatchError(nbt.ErrTypeMismatch))
		Expect(arena.Len()).To(Equal(n))
	})
})
