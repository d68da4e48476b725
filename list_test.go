package nbt_test

import (
	"github.com/bsm/nbt"
	. "github.com/onsi/ginkgo"
	. "github.com/onsi/gomega"
)

var _ = Describe("List", func() {
	var arena *nbt.Arena
	var subject nbt.Tag

	values := func(t nbt.Tag) []int64 {
		n, err := t.Len()
		Expect(err).NotTo(HaveOccurred())

		res := make([]int64, 0, n)
		for i := 0; i < n; i++ {
			el, err := t.Index(i)
			Expect(err).NotTo(HaveOccurred())
			v, err := el.Int()
			Expect(err).NotTo(HaveOccurred())
			res = append(res, v)
		}
		return res
	}

	BeforeEach(func() {
		var err error
		arena = nbt.NewArena()
		subject, err = arena.NewList(nbt.TagInt)
		Expect(err).NotTo(HaveOccurred())

		for _, v := range []int32{1, 2, 3} {
			Expect(subject.Append(arena.NewInt(v))).To(Succeed())
		}
	})

	It("should index", func() {
		Expect(subject.Len()).To(Equal(3))
		Expect(values(subject)).To(Equal([]int64{1, 2, 3}))

		last, err := subject.Index(-1)
		Expect(err).NotTo(HaveOccurred())
		Expect(last.Int()).To(Equal(int64(3)))

		_, err = subject.Index(3)
		Expect(err).To(MatchError(nbt.ErrOutOfRange))
		_, err = subject.Index(-4)
		Expect(err).To(MatchError(nbt.ErrOutOfRange))
	})

	It("should return aliases", func() {
		el, err := subject.Index(0)
		Expect(err).NotTo(HaveOccurred())
		Expect(el.SetInt(10)).To(Succeed())
		Expect(values(subject)).To(Equal([]int64{10, 2, 3}))
	})

	It("should insert", func() {
		Expect(subject.Insert(0, arena.NewInt(0))).To(Succeed())
		Expect(subject.Insert(-1, arena.NewInt(9))).To(Succeed())
		Expect(subject.Insert(5, arena.NewInt(4))).To(Succeed())
		Expect(values(subject)).To(Equal([]int64{0, 1, 2, 9, 3, 4}))

		Expect(subject.Insert(7, arena.NewInt(0))).To(MatchError(nbt.ErrOutOfRange))
		Expect(subject.Insert(0, arena.NewByte(0))).To(MatchError(nbt.ErrTypeMismatch))
		Expect(subject.Len()).To(Equal(6))
	})

	It("should adopt the element type of the first insert", func() {
		list, err := arena.NewList(nbt.TagEnd)
		Expect(err).NotTo(HaveOccurred())
		Expect(list.ListType()).To(Equal(nbt.TagEnd))

		Expect(list.Append(arena.NewString("a"))).To(Succeed())
		Expect(list.ListType()).To(Equal(nbt.TagString))
		Expect(list.Append(arena.NewInt(1))).To(MatchError(nbt.ErrTypeMismatch))
	})

	It("should set the element type of empty lists only", func() {
		Expect(subject.SetListType(nbt.TagInt)).To(Succeed())
		Expect(subject.SetListType(nbt.TagLong)).To(MatchError(nbt.ErrInvalidState))
		Expect(subject.ListType()).To(Equal(nbt.TagInt))

		empty, err := arena.NewList(nbt.TagInt)
		Expect(err).NotTo(HaveOccurred())
		Expect(empty.SetListType(nbt.TagLong)).To(Succeed())
		Expect(empty.ListType()).To(Equal(nbt.TagLong))
		Expect(empty.SetListType(nbt.TagType(42))).To(MatchError(nbt.ErrTypeMismatch))
	})

	It("should delete", func() {
		el, err := subject.Index(1)
		Expect(err).NotTo(HaveOccurred())

		Expect(subject.Delete(1)).To(Succeed())
		Expect(values(subject)).To(Equal([]int64{1, 3}))
		Expect(el.Valid()).To(BeFalse())

		Expect(subject.Delete(-1)).To(Succeed())
		Expect(values(subject)).To(Equal([]int64{1}))
		Expect(subject.Delete(1)).To(MatchError(nbt.ErrOutOfRange))
	})

	It("should pop", func() {
		el, err := subject.Pop(0)
		Expect(err).NotTo(HaveOccurred())
		Expect(el.Int()).To(Equal(int64(1)))
		Expect(values(subject)).To(Equal([]int64{2, 3}))

		// popped tags are unowned and may be re-inserted
		Expect(subject.Append(el)).To(Succeed())
		Expect(values(subject)).To(Equal([]int64{2, 3, 1}))
	})

	It("should replace elements", func() {
		old, err := subject.Index(0)
		Expect(err).NotTo(HaveOccurred())

		Expect(subject.SetIndex(0, arena.NewInt(7))).To(Succeed())
		Expect(values(subject)).To(Equal([]int64{7, 2, 3}))
		Expect(old.Valid()).To(BeFalse())

		Expect(subject.SetIndex(0, arena.NewString("x"))).To(MatchError(nbt.ErrTypeMismatch))
		Expect(subject.SetIndex(3, arena.NewInt(1))).To(MatchError(nbt.ErrOutOfRange))
	})

	It("should reverse", func() {
		Expect(subject.Reverse()).To(Succeed())
		Expect(values(subject)).To(Equal([]int64{3, 2, 1}))
	})

	It("should iterate", func() {
		it, err := subject.Iter()
		Expect(err).NotTo(HaveOccurred())

		var seen []int64
		for it.Next() {
			Expect(it.Key()).To(BeEmpty())
			Expect(it.Index()).To(Equal(len(seen)))
			v, err := it.Tag().Int()
			Expect(err).NotTo(HaveOccurred())
			seen = append(seen, v)
		}
		Expect(it.Err()).NotTo(HaveOccurred())
		Expect(seen).To(Equal([]int64{1, 2, 3}))
	})

	It("should reject non-list operations", func() {
		c := arena.NewCompound()
		_, err := c.Index(0)
		Expect(err).To(MatchError(nbt.ErrTypeMismatch))
		Expect(c.Append(arena.NewInt(1))).To(MatchError(nbt.ErrTypeMismatch))
		_, err = subject.Get("x")
		Expect(err).To(MatchError(nbt.ErrTypeMismatch))
	})
})
