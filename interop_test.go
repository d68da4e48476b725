package nbt_test

import (
	gonbt "github.com/Tnze/go-mc/nbt"

	"github.com/bsm/nbt"
	. "github.com/onsi/ginkgo"
	. "github.com/onsi/gomega"
)

type interopItem struct {
	ID    string `nbt:"id"`
	Count int8   `nbt:"Count"`
}

type interopData struct {
	SpawnX int32 `nbt:"SpawnX"`
}

type interopLevel struct {
	Byte      int8          `nbt:"Byte"`
	Short     int16         `nbt:"Short"`
	Int       int32         `nbt:"Int"`
	Long      int64         `nbt:"Long"`
	Float     float32       `nbt:"Float"`
	Double    float64       `nbt:"Double"`
	String    string        `nbt:"String"`
	Bytes     []byte        `nbt:"Bytes"`
	Ints      []int32       `nbt:"Ints"`
	Pos       []float64     `nbt:"Pos"`
	Inventory []interopItem `nbt:"Inventory"`
	Data      interopData   `nbt:"Data"`
}

var seedLevel = interopLevel{
	Byte:   -7,
	Short:  1234,
	Int:    -123456,
	Long:   1 << 40,
	Float:  0.5,
	Double: 3.25,
	String: "Hello, World!",
	Bytes:  []byte{1, 2, 3, 255},
	Ints:   []int32{-1, 0, 1},
	Pos:    []float64{1.5, 64, -3},
	Inventory: []interopItem{
		{ID: "item-0", Count: 1},
		{ID: "item-1", Count: 2},
	},
	Data: interopData{SpawnX: 10},
}

var _ = Describe("Interoperability", func() {
	It("should be readable by go-mc", func() {
		data, err := seedDocument().MarshalBinary()
		Expect(err).NotTo(HaveOccurred())

		var lvl interopLevel
		Expect(gonbt.Unmarshal(data, &lvl)).To(Succeed())
		Expect(lvl).To(Equal(seedLevel))
	})

	It("should read go-mc output", func() {
		data, err := gonbt.Marshal(seedLevel)
		Expect(err).NotTo(HaveOccurred())

		var doc nbt.Document
		Expect(doc.UnmarshalBinary(data)).To(Succeed())
		Expect(nbt.Equal(doc.Root, seedDocument().Root)).To(BeTrue())
	})
})
