package nbt

import (
	"errors"
	"fmt"
	"sync"
)

// TagType identifies the variant of a tag. Values are the type bytes
// used on the wire.
type TagType byte

// Supported tag types.
const (
	TagEnd TagType = iota
	TagByte
	TagShort
	TagInt
	TagLong
	TagFloat
	TagDouble
	TagByteArray
	TagString
	TagList
	TagCompound
	TagIntArray
)

var tagTypeNames = [...]string{
	TagEnd:       "TAG_End",
	TagByte:      "TAG_Byte",
	TagShort:     "TAG_Short",
	TagInt:       "TAG_Int",
	TagLong:      "TAG_Long",
	TagFloat:     "TAG_Float",
	TagDouble:    "TAG_Double",
	TagByteArray: "TAG_Byte_Array",
	TagString:    "TAG_String",
	TagList:      "TAG_List",
	TagCompound:  "TAG_Compound",
	TagIntArray:  "TAG_Int_Array",
}

// String returns the canonical name, e.g. "TAG_Compound".
func (t TagType) String() string {
	if t.isValid() {
		return tagTypeNames[t]
	}
	return fmt.Sprintf("TAG_Unknown(%d)", byte(t))
}

func (t TagType) isValid() bool { return t <= TagIntArray }

func (t TagType) isInteger() bool { return t >= TagByte && t <= TagLong }

func (t TagType) isFloat() bool { return t == TagFloat || t == TagDouble }

// --------------------------------------------------------------------

// Error taxonomy. All errors returned by this package match one of these
// via errors.Is.
var (
	// ErrTypeMismatch is returned when an operation is invalid for the tag's type.
	ErrTypeMismatch = errors.New("nbt: type mismatch")
	// ErrNotFound is returned for missing compound keys and absent chunks.
	ErrNotFound = errors.New("nbt: not found")
	// ErrOutOfRange is returned for bad list indices, chunk coordinates and
	// values that do not fit their tag width.
	ErrOutOfRange = errors.New("nbt: out of range")
	// ErrMalformed is returned when compressed or binary NBT data cannot be decoded.
	ErrMalformed = errors.New("nbt: malformed data")
	// ErrIO wraps failures of the underlying storage.
	ErrIO = errors.New("nbt: i/o failure")
	// ErrInvalidState is returned when an operation is not allowed in the
	// current state, e.g. changing the element type of a non-empty list.
	ErrInvalidState = errors.New("nbt: invalid state")
)

var (
	// ErrReleased is returned when a tag handle refers to a released node.
	ErrReleased = fmt.Errorf("%w: tag was released", ErrInvalidState)
	// ErrCorruptStream is returned when a compressed stream cannot be decoded.
	ErrCorruptStream = fmt.Errorf("%w: corrupt compressed stream", ErrMalformed)
	// ErrSyntax is returned when a binary NBT stream cannot be parsed.
	ErrSyntax = fmt.Errorf("%w: invalid nbt structure", ErrMalformed)
	// ErrUnencodable is returned when a tree cannot be represented in binary NBT.
	ErrUnencodable = fmt.Errorf("%w: tree cannot be encoded", ErrMalformed)
	// ErrUnknownScheme is returned when a compression scheme cannot be
	// detected or is not valid for the requested operation.
	ErrUnknownScheme = errors.New("nbt: unknown compression scheme")
	// ErrReadOnly is returned on writes to a region opened read-only.
	ErrReadOnly = fmt.Errorf("%w: region is read-only", ErrInvalidState)
	// ErrClosed is returned on any use of a closed region.
	ErrClosed = fmt.Errorf("%w: region is closed", ErrInvalidState)
)

func ioError(op string, err error) error {
	return fmt.Errorf("%w: %s: %w", ErrIO, op, err)
}

// --------------------------------------------------------------------

var bufPool sync.Pool

func fetchBuffer(sz int) []byte {
	if v := bufPool.Get(); v != nil {
		if p := v.([]byte); sz <= cap(p) {
			return p[:sz]
		}
	}
	return make([]byte, sz)
}

func releaseBuffer(p []byte) {
	if cap(p) != 0 {
		bufPool.Put(p)
	}
}
