package nbt

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"
)

// Region layout constants.
const (
	// SectorSize is the allocation unit of a region file.
	SectorSize = 4096
	// RegionWidth is the number of chunk slots along each axis.
	RegionWidth = 32

	regionSlots       = RegionWidth * RegionWidth
	headerSectors     = 2
	headerSize        = headerSectors * SectorSize
	chunkHeaderSize   = 5
	maxChunkSectors   = 0xff
	maxSectorOffset   = 0xffffff
	defaultRegionPerm = 0o644
)

// RegionOptions define region specific options.
type RegionOptions struct {
	// Log receives warnings about corrupt entries and allocation details.
	// Default: slog.Default().
	Log *slog.Logger

	// Now returns the time used for chunk timestamps.
	// Default: time.Now.
	Now func() time.Time

	// Perm is the permission of newly created region files.
	// Default: 0644.
	Perm os.FileMode
}

func (o *RegionOptions) norm() *RegionOptions {
	var oo RegionOptions
	if o != nil {
		oo = *o
	}

	if oo.Log == nil {
		oo.Log = slog.Default()
	}
	if oo.Now == nil {
		oo.Now = time.Now
	}
	if oo.Perm == 0 {
		oo.Perm = defaultRegionPerm
	}

	return &oo
}

// ChunkPos addresses a chunk slot within a region.
type ChunkPos struct{ X, Z int }

type chunkMeta struct {
	length uint32 // payload bytes, excluding the chunk header
	scheme Scheme
}

// Region is an open region file. Header table changes are buffered in
// memory until Flush or Close, chunk payloads are written immediately.
//
// A Region is not safe for concurrent use.
type Region struct {
	name     string
	f        *os.File
	o        *RegionOptions
	log      *slog.Logger
	writable bool
	closed   bool
	dirty    bool

	locs   [regionSlots]uint32 // offset<<8 | sector count
	stamps [regionSlots]uint32
	meta   [regionSlots]chunkMeta
	used   []bool // sector bitmap, header sectors included
}

// OpenRegion opens the region file name. Writable regions are created if
// missing. Files shorter than the header are accepted, the missing part
// reads as empty slots.
func OpenRegion(name string, writable bool, o *RegionOptions) (*Region, error) {
	o = o.norm()

	flag := os.O_RDONLY
	if writable {
		flag = os.O_RDWR | os.O_CREATE
	}
	f, err := os.OpenFile(name, flag, o.Perm)
	if err != nil {
		return nil, ioError("open region", err)
	}

	r := &Region{
		name:     name,
		f:        f,
		o:        o,
		log:      o.Log.With("component", "region", "file", name),
		writable: writable,
	}
	if err := r.load(); err != nil {
		_ = f.Close()
		return nil, err
	}
	return r, nil
}

func (r *Region) load() error {
	fi, err := r.f.Stat()
	if err != nil {
		return ioError("stat region", err)
	}
	size := fi.Size()

	hdr := make([]byte, headerSize)
	if _, err := r.f.ReadAt(hdr, 0); err != nil && !errors.Is(err, io.EOF) {
		return ioError("read region header", err)
	}
	if size < headerSize && r.writable {
		r.dirty = true
	}

	for i := 0; i < regionSlots; i++ {
		r.locs[i] = binary.BigEndian.Uint32(hdr[4*i:])
		r.stamps[i] = binary.BigEndian.Uint32(hdr[SectorSize+4*i:])
	}

	r.used = make([]bool, max(headerSectors, int((size+SectorSize-1)/SectorSize)))
	for i := 0; i < headerSectors; i++ {
		r.used[i] = true
	}

	var chdr [chunkHeaderSize]byte
	for i, loc := range r.locs {
		if loc == 0 {
			continue
		}
		off, cnt := int64(loc>>8), int64(loc&0xff)
		reason := ""
		switch {
		case off < headerSectors:
			reason = "points into the header"
		case cnt == 0:
			reason = "has no sectors"
		case off*SectorSize+chunkHeaderSize > size:
			reason = "points past the end of file"
		case r.isUsed(off, cnt):
			reason = "overlaps another chunk"
		}

		if reason == "" {
			if _, err := r.f.ReadAt(chdr[:], off*SectorSize); err != nil {
				return ioError("read chunk header", err)
			}
			length := int64(binary.BigEndian.Uint32(chdr[:4]))
			switch {
			case length < 1:
				reason = "has an empty chunk header"
			case 4+length > cnt*SectorSize:
				reason = "is longer than its sectors"
			case off*SectorSize+4+length > size:
				reason = "is truncated"
			}
			if reason == "" {
				r.meta[i] = chunkMeta{length: uint32(length - 1), scheme: schemeFromRegionCode(chdr[4])}
				r.markUsed(off, cnt, true)
				continue
			}
		}

		r.log.Warn("ignoring invalid chunk entry", "x", i%RegionWidth, "z", i/RegionWidth, "reason", reason)
		r.locs[i] = 0
	}
	return nil
}

// Name returns the file name.
func (r *Region) Name() string { return r.name }

// Writable returns true if the region was opened for writing.
func (r *Region) Writable() bool { return r.writable }

func slot(x, z int) (int, error) {
	if x < 0 || x >= RegionWidth || z < 0 || z >= RegionWidth {
		return 0, fmt.Errorf("%w: chunk %d,%d outside of region", ErrOutOfRange, x, z)
	}
	return x + RegionWidth*z, nil
}

func (r *Region) lookup(x, z int) (int, error) {
	if r.closed {
		return 0, ErrClosed
	}
	return slot(x, z)
}

// Timestamp returns the last modification of a chunk in seconds since
// the epoch, 0 for absent chunks.
func (r *Region) Timestamp(x, z int) (uint32, error) {
	i, err := r.lookup(x, z)
	if err != nil {
		return 0, err
	}
	return r.stamps[i], nil
}

// ByteLength returns the compressed payload length of a chunk, 0 for
// absent chunks.
func (r *Region) ByteLength(x, z int) (int, error) {
	i, err := r.lookup(x, z)
	if err != nil {
		return 0, err
	}
	return int(r.meta[i].length), nil
}

// CompressionScheme returns the scheme recorded in the chunk header.
// Absent chunks and unsupported codes report SchemeUnknown.
func (r *Region) CompressionScheme(x, z int) (Scheme, error) {
	i, err := r.lookup(x, z)
	if err != nil {
		return SchemeUnknown, err
	}
	if r.locs[i] == 0 {
		return SchemeUnknown, nil
	}
	return r.meta[i].scheme, nil
}

// Contains returns true if a chunk is present, i.e. it has both a
// non-zero timestamp and a non-zero length.
func (r *Region) Contains(x, z int) (bool, error) {
	i, err := r.lookup(x, z)
	if err != nil {
		return false, err
	}
	return r.contains(i), nil
}

func (r *Region) contains(i int) bool {
	return r.stamps[i] != 0 && r.meta[i].length != 0
}

// Chunks returns the positions of all present chunks in slot order.
func (r *Region) Chunks() ([]ChunkPos, error) {
	if r.closed {
		return nil, ErrClosed
	}

	var res []ChunkPos
	for i := 0; i < regionSlots; i++ {
		if r.contains(i) {
			res = append(res, ChunkPos{X: i % RegionWidth, Z: i / RegionWidth})
		}
	}
	return res, nil
}

// ChunkBytes returns the raw, still compressed payload of a chunk.
// Absent chunks fail with ErrNotFound.
func (r *Region) ChunkBytes(x, z int) ([]byte, error) {
	i, err := r.lookup(x, z)
	if err != nil {
		return nil, err
	}
	if !r.contains(i) {
		return nil, fmt.Errorf("%w: chunk %d,%d", ErrNotFound, x, z)
	}

	off := int64(r.locs[i]>>8)*SectorSize + chunkHeaderSize
	data := make([]byte, r.meta[i].length)
	if _, err := r.f.ReadAt(data, off); err != nil {
		return nil, ioError("read chunk", err)
	}
	return data, nil
}

// SetChunk stores compressed data for a chunk, stamped with the current
// time. See SetChunkTimestamp.
func (r *Region) SetChunk(x, z int, data []byte, scheme Scheme) error {
	return r.SetChunkTimestamp(x, z, data, scheme, uint32(r.o.Now().Unix()))
}

// SetChunkTimestamp stores compressed data for a chunk with an explicit
// timestamp. Only SchemeGzip, SchemeZlib and SchemeNone can be stored.
// The chunk is rewritten in place if its current sectors suffice,
// otherwise it moves to the first free run of sectors or the end of the
// file. On failure the header table is left unchanged.
func (r *Region) SetChunkTimestamp(x, z int, data []byte, scheme Scheme, ts uint32) error {
	i, err := r.lookup(x, z)
	if err != nil {
		return err
	}
	if !r.writable {
		return ErrReadOnly
	}
	code, ok := scheme.regionCode()
	if !ok {
		return fmt.Errorf("%w: %s cannot be stored in a region", ErrUnknownScheme, scheme)
	}

	need := int64(chunkHeaderSize+len(data)+SectorSize-1) / SectorSize
	if need > maxChunkSectors {
		return fmt.Errorf("%w: chunk of %d bytes needs %d sectors, at most %d allowed", ErrOutOfRange, len(data), need, maxChunkSectors)
	}

	oldOff, oldCnt := int64(r.locs[i]>>8), int64(r.locs[i]&0xff)
	off := oldOff
	if r.locs[i] == 0 || oldCnt < need {
		off = r.allocate(need)
		if off+need > maxSectorOffset {
			return fmt.Errorf("%w: region file is full", ErrOutOfRange)
		}
	}

	buf := fetchBuffer(int(need * SectorSize))
	defer releaseBuffer(buf)

	binary.BigEndian.PutUint32(buf, uint32(len(data)+1))
	buf[4] = code
	n := copy(buf[chunkHeaderSize:], data)
	clear(buf[chunkHeaderSize+n:])

	if _, err := r.f.WriteAt(buf, off*SectorSize); err != nil {
		return ioError("write chunk", err)
	}

	if off == oldOff && r.locs[i] != 0 {
		r.markUsed(off+need, oldCnt-need, false)
		r.log.Debug("rewrote chunk in place", "x", x, "z", z, "sectors", need, "freed", oldCnt-need)
	} else {
		if r.locs[i] != 0 {
			r.markUsed(oldOff, oldCnt, false)
		}
		r.log.Debug("allocated chunk sectors", "x", x, "z", z, "offset", off, "sectors", need)
	}
	r.markUsed(off, need, true)

	r.locs[i] = uint32(off)<<8 | uint32(need)
	r.stamps[i] = ts
	r.meta[i] = chunkMeta{length: uint32(len(data)), scheme: scheme}
	r.dirty = true
	return nil
}

// ClearChunk removes a chunk from the table. Its sectors become free
// for later writes, the file is never shrunk.
func (r *Region) ClearChunk(x, z int) error {
	i, err := r.lookup(x, z)
	if err != nil {
		return err
	}
	if !r.writable {
		return ErrReadOnly
	}

	if loc := r.locs[i]; loc != 0 {
		r.markUsed(int64(loc>>8), int64(loc&0xff), false)
	}
	r.locs[i] = 0
	r.stamps[i] = 0
	r.meta[i] = chunkMeta{}
	r.dirty = true
	return nil
}

// Flush writes pending header changes and syncs the file.
func (r *Region) Flush() error {
	if r.closed {
		return ErrClosed
	}
	if !r.writable {
		return nil
	}

	if r.dirty {
		hdr := make([]byte, headerSize)
		for i := 0; i < regionSlots; i++ {
			binary.BigEndian.PutUint32(hdr[4*i:], r.locs[i])
			binary.BigEndian.PutUint32(hdr[SectorSize+4*i:], r.stamps[i])
		}
		if _, err := r.f.WriteAt(hdr, 0); err != nil {
			return ioError("write region header", err)
		}
		r.dirty = false
	}

	if err := r.f.Sync(); err != nil {
		return ioError("sync region", err)
	}
	return nil
}

// Close flushes writable regions and closes the file. The region must
// not be used afterwards.
func (r *Region) Close() error {
	if r.closed {
		return ErrClosed
	}

	err := r.Flush()
	if e := r.f.Close(); e != nil && err == nil {
		err = ioError("close region", e)
	}
	r.closed = true
	return err
}

// --------------------------------------------------------------------

func (r *Region) isUsed(off, cnt int64) bool {
	for s := off; s < off+cnt && s < int64(len(r.used)); s++ {
		if r.used[s] {
			return true
		}
	}
	return false
}

func (r *Region) markUsed(off, cnt int64, v bool) {
	if end := off + cnt; end > int64(len(r.used)) {
		r.used = append(r.used, make([]bool, end-int64(len(r.used)))...)
	}
	for s := off; s < off+cnt; s++ {
		r.used[s] = v
	}
}

// allocate returns the first sector of the first free run of n sectors.
// A free run at the end of the bitmap extends past the end of the file.
func (r *Region) allocate(n int64) int64 {
	var run int64
	for s := int64(headerSectors); s < int64(len(r.used)); s++ {
		if r.used[s] {
			run = 0
			continue
		}
		if run++; run == n {
			return s - n + 1
		}
	}
	return int64(len(r.used)) - run
}

// --------------------------------------------------------------------

// RegionCoords maps world chunk coordinates to the coordinates of the
// containing region and the chunk slot within it.
func RegionCoords(cx, cz int) (rx, rz, x, z int) {
	return cx >> 5, cz >> 5, cx & (RegionWidth - 1), cz & (RegionWidth - 1)
}

// RegionFileName returns the conventional file name of a region,
// e.g. "r.-1.2.mca".
func RegionFileName(rx, rz int) string {
	return fmt.Sprintf("r.%d.%d.mca", rx, rz)
}
