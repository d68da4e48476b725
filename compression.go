package nbt

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"

	"github.com/golang/snappy"
	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zlib"
	"github.com/klauspost/compress/zstd"
	"github.com/pierrec/lz4/v4"
)

// Scheme identifies a compression scheme.
type Scheme byte

// Supported schemes. SchemeAuto is an input-only sentinel which asks
// Decompress to detect the scheme from the data. SchemeUnknown is
// never a valid encode target.
const (
	SchemeAuto Scheme = iota
	SchemeGzip
	SchemeZlib
	SchemeNone
	SchemeLZ4
	SchemeSnappy
	SchemeZstd
	SchemeUnknown
)

var schemeNames = [...]string{
	SchemeAuto:    "auto",
	SchemeGzip:    "gzip",
	SchemeZlib:    "zlib",
	SchemeNone:    "none",
	SchemeLZ4:     "lz4",
	SchemeSnappy:  "snappy",
	SchemeZstd:    "zstd",
	SchemeUnknown: "unknown",
}

// String returns the scheme name.
func (s Scheme) String() string {
	if s <= SchemeUnknown {
		return schemeNames[s]
	}
	return fmt.Sprintf("unknown(%d)", byte(s))
}

// ParseScheme parses a scheme from its name.
func ParseScheme(name string) (Scheme, error) {
	for s, n := range schemeNames {
		if n == name {
			return Scheme(s), nil
		}
	}
	return SchemeUnknown, fmt.Errorf("%w: %q", ErrUnknownScheme, name)
}

// Scheme codes stored in region chunk headers.
const (
	regionCodeGzip = 1
	regionCodeZlib = 2
	regionCodeNone = 3
)

func (s Scheme) regionCode() (byte, bool) {
	switch s {
	case SchemeGzip:
		return regionCodeGzip, true
	case SchemeZlib:
		return regionCodeZlib, true
	case SchemeNone:
		return regionCodeNone, true
	}
	return 0, false
}

func schemeFromRegionCode(c byte) Scheme {
	switch c {
	case regionCodeGzip:
		return SchemeGzip
	case regionCodeZlib:
		return SchemeZlib
	case regionCodeNone:
		return SchemeNone
	}
	return SchemeUnknown
}

// --------------------------------------------------------------------

var (
	lz4Magic    = []byte{0x04, 0x22, 0x4d, 0x18}
	zstdMagic   = []byte{0x28, 0xb5, 0x2f, 0xfd}
	snappyMagic = []byte("\xff\x06\x00\x00sNaPpY")
)

// DetectScheme inspects the leading magic bytes of data. It returns
// SchemeUnknown if no supported compressed stream header matches;
// uncompressed NBT is never detected.
func DetectScheme(data []byte) Scheme {
	switch {
	case len(data) >= 2 && data[0] == 0x1f && data[1] == 0x8b:
		return SchemeGzip
	case len(data) >= 2 && data[0]&0x0f == 8 && data[0]>>4 <= 7 && binary.BigEndian.Uint16(data)%31 == 0:
		return SchemeZlib
	case bytes.HasPrefix(data, lz4Magic):
		return SchemeLZ4
	case bytes.HasPrefix(data, zstdMagic):
		return SchemeZstd
	case bytes.HasPrefix(data, snappyMagic):
		return SchemeSnappy
	}
	return SchemeUnknown
}

// zstd encoders and decoders are safe for concurrent use and expensive
// to create.
var (
	zstdEncoder *zstd.Encoder
	zstdDecoder *zstd.Decoder
)

func init() {
	var err error
	if zstdEncoder, err = zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedDefault), zstd.WithZeroFrames(true)); err != nil {
		panic("nbt: zstd encoder initialization failed: " + err.Error())
	}
	if zstdDecoder, err = zstd.NewReader(nil); err != nil {
		panic("nbt: zstd decoder initialization failed: " + err.Error())
	}
}

// Compress compresses data with the given scheme and returns a newly
// allocated buffer. SchemeAuto and SchemeUnknown are rejected with
// ErrUnknownScheme.
func Compress(scheme Scheme, data []byte) ([]byte, error) {
	switch scheme {
	case SchemeNone:
		return append([]byte(nil), data...), nil
	case SchemeZstd:
		return zstdEncoder.EncodeAll(data, nil), nil
	case SchemeGzip, SchemeZlib, SchemeLZ4, SchemeSnappy:
	default:
		return nil, fmt.Errorf("%w: cannot compress with %s", ErrUnknownScheme, scheme)
	}

	buf := new(bytes.Buffer)
	var zw io.WriteCloser
	switch scheme {
	case SchemeGzip:
		zw = gzip.NewWriter(buf)
	case SchemeZlib:
		zw = zlib.NewWriter(buf)
	case SchemeLZ4:
		zw = lz4.NewWriter(buf)
	case SchemeSnappy:
		zw = snappy.NewBufferedWriter(buf)
	}

	// always write, even when empty, so every stream carries its header
	if _, err := zw.Write(data); err != nil {
		return nil, fmt.Errorf("nbt: %s compress: %w", scheme, err)
	}
	if err := zw.Close(); err != nil {
		return nil, fmt.Errorf("nbt: %s compress: %w", scheme, err)
	}

	// the snappy writer emits nothing for empty input
	if scheme == SchemeSnappy && buf.Len() == 0 {
		buf.Write(snappyMagic)
	}
	return buf.Bytes(), nil
}

// Decompress decompresses data. With SchemeAuto the scheme is detected
// first and ErrUnknownScheme is returned if detection fails. Malformed
// or truncated streams fail with ErrCorruptStream, an ErrMalformed.
func Decompress(scheme Scheme, data []byte) ([]byte, error) {
	if scheme == SchemeAuto {
		if scheme = DetectScheme(data); scheme == SchemeUnknown {
			return nil, fmt.Errorf("%w: no known header detected", ErrUnknownScheme)
		}
	}

	switch scheme {
	case SchemeNone:
		return append([]byte(nil), data...), nil
	case SchemeZstd:
		plain, err := zstdDecoder.DecodeAll(data, nil)
		if err != nil {
			return nil, fmt.Errorf("%w: zstd: %w", ErrCorruptStream, err)
		}
		return plain, nil
	case SchemeGzip, SchemeZlib, SchemeLZ4, SchemeSnappy:
	default:
		return nil, fmt.Errorf("%w: cannot decompress %s", ErrUnknownScheme, scheme)
	}

	var zr io.Reader
	src := bytes.NewReader(data)
	switch scheme {
	case SchemeGzip:
		gr, err := gzip.NewReader(src)
		if err != nil {
			return nil, fmt.Errorf("%w: gzip: %w", ErrCorruptStream, err)
		}
		defer gr.Close()
		zr = gr
	case SchemeZlib:
		rc, err := zlib.NewReader(src)
		if err != nil {
			return nil, fmt.Errorf("%w: zlib: %w", ErrCorruptStream, err)
		}
		defer rc.Close()
		zr = rc
	case SchemeLZ4:
		zr = lz4.NewReader(src)
	case SchemeSnappy:
		zr = snappy.NewReader(src)
	}

	plain, err := io.ReadAll(zr)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrCorruptStream, scheme, err)
	}
	return plain, nil
}
