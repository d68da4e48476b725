// nbttool inspects and edits NBT files and region files.
//
// Usage:
//
//	nbttool [--verbose] dump [--format FORMAT] [--scheme SCHEME] FILE
//	nbttool [--verbose] region ls FILE
//	nbttool [--verbose] region dump [--format FORMAT] FILE X Z
//	nbttool [--verbose] region copy [--scheme SCHEME] SRC DST
//	nbttool [--verbose] region clear FILE X Z
package main

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strconv"
	"strings"

	"github.com/bsm/nbt"
	"github.com/bsm/nbt/internal/format"
	"github.com/spf13/pflag"
)

var errUsage = errors.New("usage: nbttool [--verbose] dump|region ...")

func main() {
	if err := run(os.Args[1:], os.Stdout, os.Stderr); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

type command struct {
	out io.Writer
	log *slog.Logger
}

func run(args []string, stdout, stderr io.Writer) error {
	flags := pflag.NewFlagSet("nbttool", pflag.ContinueOnError)
	flags.SetOutput(stderr)
	flags.SetInterspersed(false)
	verbose := flags.BoolP("verbose", "v", false, "log region details to stderr")
	if err := flags.Parse(args); err != nil {
		return err
	}

	level := slog.LevelWarn
	if *verbose {
		level = slog.LevelDebug
	}
	c := &command{
		out: stdout,
		log: slog.New(slog.NewTextHandler(stderr, &slog.HandlerOptions{Level: level})),
	}

	rest := flags.Args()
	if len(rest) == 0 {
		return errUsage
	}
	switch rest[0] {
	case "dump":
		return c.dump(rest[1:])
	case "region":
		return c.region(rest[1:])
	}
	return fmt.Errorf("%w: unknown command %q", errUsage, rest[0])
}

// dump prints a standalone NBT file.
func (c *command) dump(args []string) error {
	flags := pflag.NewFlagSet("dump", pflag.ContinueOnError)
	formatName := flags.StringP("format", "f", "pretty", "output format: "+strings.Join(format.Names(), ", "))
	schemeName := flags.StringP("scheme", "s", "auto", "input compression scheme")
	if err := flags.Parse(args); err != nil {
		return err
	}
	if flags.NArg() != 1 {
		return fmt.Errorf("%w: dump needs exactly one FILE", errUsage)
	}

	write, err := format.Lookup(*formatName)
	if err != nil {
		return err
	}
	scheme, err := nbt.ParseScheme(*schemeName)
	if err != nil {
		return err
	}

	var doc *nbt.Document
	if scheme == nbt.SchemeAuto {
		doc, err = nbt.ReadFile(flags.Arg(0))
	} else {
		doc, err = readFile(flags.Arg(0), scheme)
	}
	if err != nil {
		return err
	}
	defer doc.Release()

	return write(c.out, doc)
}

func readFile(name string, scheme nbt.Scheme) (*nbt.Document, error) {
	data, err := os.ReadFile(name)
	if err != nil {
		return nil, err
	}
	return nbt.Parse(data, scheme)
}

// parseSlot parses the X and Z arguments of region sub-commands.
func parseSlot(xs, zs string) (int, int, error) {
	x, err := strconv.Atoi(xs)
	if err != nil {
		return 0, 0, fmt.Errorf("%w: bad X %q", errUsage, xs)
	}
	z, err := strconv.Atoi(zs)
	if err != nil {
		return 0, 0, fmt.Errorf("%w: bad Z %q", errUsage, zs)
	}
	return x, z, nil
}
