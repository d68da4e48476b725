package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/bsm/nbt"
	"github.com/bsm/nbt/internal/format"
	"github.com/spf13/pflag"
	"github.com/zeebo/blake3"
)

func (c *command) region(args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("%w: region needs one of ls, dump, copy, clear", errUsage)
	}

	switch args[0] {
	case "ls":
		return c.regionList(args[1:])
	case "dump":
		return c.regionDump(args[1:])
	case "copy":
		return c.regionCopy(args[1:])
	case "clear":
		return c.regionClear(args[1:])
	}
	return fmt.Errorf("%w: unknown region command %q", errUsage, args[0])
}

func (c *command) openRegion(name string, writable bool) (*nbt.Region, error) {
	return nbt.OpenRegion(name, writable, &nbt.RegionOptions{Log: c.log})
}

// regionList prints one line per chunk: slot, timestamp, length, scheme
// and a digest of the compressed payload.
func (c *command) regionList(args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("%w: region ls needs exactly one FILE", errUsage)
	}

	reg, err := c.openRegion(args[0], false)
	if err != nil {
		return err
	}
	defer reg.Close()

	chunks, err := reg.Chunks()
	if err != nil {
		return err
	}

	for _, pos := range chunks {
		ts, err := reg.Timestamp(pos.X, pos.Z)
		if err != nil {
			return err
		}
		scheme, err := reg.CompressionScheme(pos.X, pos.Z)
		if err != nil {
			return err
		}
		data, err := reg.ChunkBytes(pos.X, pos.Z)
		if err != nil {
			return err
		}

		sum := blake3.Sum256(data)
		stamp := time.Unix(int64(ts), 0).UTC().Format(time.RFC3339)
		fmt.Fprintf(c.out, "%2d %2d %s %8d %-5s %x\n", pos.X, pos.Z, stamp, len(data), scheme, sum[:8])
	}
	return nil
}

func (c *command) regionDump(args []string) error {
	flags := pflag.NewFlagSet("region dump", pflag.ContinueOnError)
	formatName := flags.StringP("format", "f", "pretty", "output format: "+strings.Join(format.Names(), ", "))
	if err := flags.Parse(args); err != nil {
		return err
	}
	if flags.NArg() != 3 {
		return fmt.Errorf("%w: region dump needs FILE X Z", errUsage)
	}

	write, err := format.Lookup(*formatName)
	if err != nil {
		return err
	}
	x, z, err := parseSlot(flags.Arg(1), flags.Arg(2))
	if err != nil {
		return err
	}

	reg, err := c.openRegion(flags.Arg(0), false)
	if err != nil {
		return err
	}
	defer reg.Close()

	doc, err := nbt.ParseRegionChunk(reg, x, z)
	if err != nil {
		return err
	}
	defer doc.Release()

	return write(c.out, doc)
}

// regionCopy copies all chunks of SRC into DST, keeping timestamps.
// Chunks are written back to back, so the copy of a fragmented region
// is compacted.
func (c *command) regionCopy(args []string) error {
	flags := pflag.NewFlagSet("region copy", pflag.ContinueOnError)
	schemeName := flags.StringP("scheme", "s", "", "recompress chunks with gzip, zlib or none")
	if err := flags.Parse(args); err != nil {
		return err
	}
	if flags.NArg() != 2 {
		return fmt.Errorf("%w: region copy needs SRC DST", errUsage)
	}

	target := nbt.SchemeAuto
	if *schemeName != "" {
		s, err := nbt.ParseScheme(*schemeName)
		if err != nil {
			return err
		}
		target = s
	}

	src, err := c.openRegion(flags.Arg(0), false)
	if err != nil {
		return err
	}
	defer src.Close()

	dst, err := c.openRegion(flags.Arg(1), true)
	if err != nil {
		return err
	}
	defer dst.Close()

	chunks, err := src.Chunks()
	if err != nil {
		return err
	}

	for _, pos := range chunks {
		data, err := src.ChunkBytes(pos.X, pos.Z)
		if err != nil {
			return err
		}
		scheme, err := src.CompressionScheme(pos.X, pos.Z)
		if err != nil {
			return err
		}
		ts, err := src.Timestamp(pos.X, pos.Z)
		if err != nil {
			return err
		}

		if target != nbt.SchemeAuto && target != scheme {
			if data, err = recompress(data, scheme, target); err != nil {
				return fmt.Errorf("chunk %d,%d: %w", pos.X, pos.Z, err)
			}
			scheme = target
		}
		if err := dst.SetChunkTimestamp(pos.X, pos.Z, data, scheme, ts); err != nil {
			return err
		}
	}

	c.log.Info("copied region", "src", src.Name(), "dst", dst.Name(), "chunks", len(chunks))
	return dst.Close()
}

func recompress(data []byte, from, to nbt.Scheme) ([]byte, error) {
	plain, err := nbt.Decompress(from, data)
	if err != nil {
		return nil, err
	}
	return nbt.Compress(to, plain)
}

func (c *command) regionClear(args []string) error {
	if len(args) != 3 {
		return fmt.Errorf("%w: region clear needs FILE X Z", errUsage)
	}
	x, z, err := parseSlot(args[1], args[2])
	if err != nil {
		return err
	}

	reg, err := c.openRegion(args[0], true)
	if err != nil {
		return err
	}
	defer reg.Close()

	if err := reg.ClearChunk(x, z); err != nil {
		return err
	}
	return reg.Close()
}
