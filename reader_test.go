package nbt_test

import (
	"github.com/bsm/nbt"
	. "github.com/onsi/ginkgo"
	. "github.com/onsi/gomega"
)

// helloWorld is the classic minimal NBT test stream.
var helloWorld = []byte("\x0a\x00\x0bhello world\x08\x00\x04name\x00\x09Bananrama\x00")

var _ = Describe("Decode", func() {
	var arena *nbt.Arena

	BeforeEach(func() {
		arena = nbt.NewArena()
	})

	// nestedLists returns a stream of n nested lists.
	nestedLists := func(n int) []byte {
		buf := []byte{byte(nbt.TagList), 0, 0}
		for i := 1; i < n; i++ {
			buf = append(buf, byte(nbt.TagList), 0, 0, 0, 1)
		}
		return append(buf, byte(nbt.TagEnd), 0, 0, 0, 0)
	}

	It("should decode", func() {
		name, root, err := nbt.Decode(arena, helloWorld)
		Expect(err).NotTo(HaveOccurred())
		Expect(name).To(Equal("hello world"))
		Expect(root.Type()).To(Equal(nbt.TagCompound))

		v, err := root.Get("name")
		Expect(err).NotTo(HaveOccurred())
		Expect(v.Str()).To(Equal("Bananrama"))
		Expect(arena.Len()).To(Equal(2))
	})

	It("should decode non-compound roots", func() {
		name, root, err := nbt.Decode(arena, []byte{byte(nbt.TagInt), 0, 1, 'n', 0xff, 0xff, 0xff, 0xfe})
		Expect(err).NotTo(HaveOccurred())
		Expect(name).To(Equal("n"))
		Expect(root.Int()).To(Equal(int64(-2)))
	})

	It("should decode all types", func() {
		src := seedDocument()
		data, err := src.MarshalBinary()
		Expect(err).NotTo(HaveOccurred())

		name, root, err := nbt.Decode(arena, data)
		Expect(err).NotTo(HaveOccurred())
		Expect(name).To(Equal("Level"))
		Expect(nbt.Equal(root, src.Root)).To(BeTrue())
		Expect(root.Keys()).To(Equal([]string{
			"Byte", "Short", "Int", "Long", "Float", "Double",
			"String", "Bytes", "Ints", "Pos", "Inventory", "Data",
		}))
	})

	It("should reject truncated input", func() {
		data, err := seedDocument().MarshalBinary()
		Expect(err).NotTo(HaveOccurred())

		for n := 0; n < len(data); n++ {
			_, _, err := nbt.Decode(arena, data[:n])
			Expect(err).To(MatchError(nbt.ErrSyntax), "for %d bytes", n)
			Expect(err).To(MatchError(nbt.ErrMalformed), "for %d bytes", n)
		}
		Expect(arena.Len()).To(Equal(0))
	})

	It("should reject trailing data", func() {
		_, _, err := nbt.Decode(arena, append(append([]byte{}, helloWorld...), 0))
		Expect(err).To(MatchError(nbt.ErrSyntax))
		Expect(arena.Len()).To(Equal(0))
	})

	It("should reject unknown and end tags", func() {
		_, _, err := nbt.Decode(arena, []byte{12, 0, 0})
		Expect(err).To(MatchError(nbt.ErrSyntax))

		_, _, err = nbt.Decode(arena, []byte{0, 0, 0})
		Expect(err).To(MatchError(nbt.ErrSyntax))

		_, _, err = nbt.Decode(arena, []byte{10, 0, 0, 42, 0, 0, 0})
		Expect(err).To(MatchError(nbt.ErrSyntax))
	})

	It("should reject typeless lists with elements", func() {
		_, _, err := nbt.Decode(arena, []byte{9, 0, 0, 0, 0, 0, 0, 1})
		Expect(err).To(MatchError(nbt.ErrSyntax))

		_, root, err := nbt.Decode(arena, []byte{9, 0, 0, 0, 0, 0, 0, 0})
		Expect(err).NotTo(HaveOccurred())
		Expect(root.ListType()).To(Equal(nbt.TagEnd))
		Expect(root.Len()).To(Equal(0))
	})

	It("should read negative list lengths as empty", func() {
		_, root, err := nbt.Decode(arena, []byte{9, 0, 0, 3, 0xff, 0xff, 0xff, 0xff})
		Expect(err).NotTo(HaveOccurred())
		Expect(root.Len()).To(Equal(0))
		Expect(root.ListType()).To(Equal(nbt.TagInt))

		_, _, err = nbt.Decode(arena, []byte{7, 0, 0, 0xff, 0xff, 0xff, 0xff})
		Expect(err).To(MatchError(nbt.ErrSyntax))
	})

	It("should reject impossible lengths before allocating", func() {
		_, _, err := nbt.Decode(arena, []byte{7, 0, 0, 0x7f, 0xff, 0xff, 0xff, 1, 2, 3})
		Expect(err).To(MatchError(nbt.ErrSyntax))

		_, _, err = nbt.Decode(arena, []byte{11, 0, 0, 0, 0, 0, 2, 0, 0, 0, 1})
		Expect(err).To(MatchError(nbt.ErrSyntax))

		_, _, err = nbt.Decode(arena, []byte{9, 0, 0, 10, 0x7f, 0xff, 0xff, 0xff, 0})
		Expect(err).To(MatchError(nbt.ErrSyntax))
		Expect(arena.Len()).To(Equal(0))
	})

	It("should limit nesting", func() {
		_, _, err := nbt.Decode(arena, nestedLists(nbt.MaxDepth))
		Expect(err).NotTo(HaveOccurred())

		arena = nbt.NewArena()
		_, _, err = nbt.Decode(arena, nestedLists(nbt.MaxDepth+1))
		Expect(err).To(MatchError(nbt.ErrSyntax))
		Expect(arena.Len()).To(Equal(0))
	})

	It("should let repeated keys replace earlier values", func() {
		data := []byte("\x0a\x00\x00\x01\x00\x01k\x01\x01\x00\x01k\x02\x00")
		_, root, err := nbt.Decode(arena, data)
		Expect(err).NotTo(HaveOccurred())
		Expect(root.Len()).To(Equal(1))

		v, err := root.Get("k")
		Expect(err).NotTo(HaveOccurred())
		Expect(v.Type()).To(Equal(nbt.TagByte))
		Expect(v.Int()).To(Equal(int64(2)))
		Expect(arena.Len()).To(Equal(2))
	})
})
