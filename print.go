package nbt

import (
	"bytes"
	"io"
	"strconv"
	"strings"
)

// String returns the compact rendering of the tag, see Print.
func (t Tag) String() string {
	var buf bytes.Buffer
	if err := t.Print(&buf); err != nil {
		return "<" + err.Error() + ">"
	}
	return buf.String()
}

// Print writes a compact, single-line rendering of the tag in the
// stringified NBT style, e.g. {name:"Steve",pos:[I;1,64,-3],hp:20.0f}.
func (t Tag) Print(w io.Writer) error {
	nd, err := t.node()
	if err != nil {
		return err
	}

	var buf bytes.Buffer
	t.a.printCompact(&buf, nd)
	_, err = w.Write(buf.Bytes())
	return err
}

// PrettyPrint writes an indented, multi-line rendering of the tag in the
// classic TAG_Compound("name"): N entries layout.
func (t Tag) PrettyPrint(w io.Writer) error {
	return t.prettyPrint(w, nil)
}

func (t Tag) prettyPrint(w io.Writer, name *string) error {
	nd, err := t.node()
	if err != nil {
		return err
	}

	var buf bytes.Buffer
	t.a.printPretty(&buf, nd, name, 0)
	_, err = w.Write(buf.Bytes())
	return err
}

func (a *Arena) printCompact(buf *bytes.Buffer, nd *node) {
	switch nd.typ {
	case TagByte:
		buf.WriteString(strconv.FormatInt(nd.num, 10))
		buf.WriteByte('b')
	case TagShort:
		buf.WriteString(strconv.FormatInt(nd.num, 10))
		buf.WriteByte('s')
	case TagInt:
		buf.WriteString(strconv.FormatInt(nd.num, 10))
	case TagLong:
		buf.WriteString(strconv.FormatInt(nd.num, 10))
		buf.WriteByte('L')
	case TagFloat:
		buf.WriteString(formatFloat(nd.flt, 32))
		buf.WriteByte('f')
	case TagDouble:
		buf.WriteString(formatFloat(nd.flt, 64))
		buf.WriteByte('d')
	case TagString:
		buf.WriteString(strconv.Quote(nd.str))
	case TagByteArray:
		buf.WriteString("[B;")
		for i, b := range nd.raw {
			if i != 0 {
				buf.WriteByte(',')
			}
			buf.WriteString(strconv.Itoa(int(int8(b))))
			buf.WriteByte('b')
		}
		buf.WriteByte(']')
	case TagIntArray:
		buf.WriteString("[I;")
		for i, n := range nd.ints {
			if i != 0 {
				buf.WriteByte(',')
			}
			buf.WriteString(strconv.Itoa(int(n)))
		}
		buf.WriteByte(']')
	case TagList:
		buf.WriteByte('[')
		for i, id := range nd.items {
			if i != 0 {
				buf.WriteByte(',')
			}
			a.printCompact(buf, &a.nodes[id])
		}
		buf.WriteByte(']')
	case TagCompound:
		buf.WriteByte('{')
		for i, id := range nd.items {
			if i != 0 {
				buf.WriteByte(',')
			}
			buf.WriteString(quoteKey(nd.keys[i]))
			buf.WriteByte(':')
			a.printCompact(buf, &a.nodes[id])
		}
		buf.WriteByte('}')
	}
}

func (a *Arena) printPretty(buf *bytes.Buffer, nd *node, name *string, depth int) {
	indent := strings.Repeat("  ", depth)
	buf.WriteString(indent)
	buf.WriteString(nd.typ.String())
	if name != nil {
		buf.WriteString("(" + strconv.Quote(*name) + "): ")
	} else {
		buf.WriteString("(None): ")
	}

	switch nd.typ {
	case TagByte, TagShort, TagInt, TagLong:
		buf.WriteString(strconv.FormatInt(nd.num, 10))
	case TagFloat:
		buf.WriteString(formatFloat(nd.flt, 32))
	case TagDouble:
		buf.WriteString(formatFloat(nd.flt, 64))
	case TagString:
		buf.WriteString(nd.str)
	case TagByteArray:
		buf.WriteString("[" + strconv.Itoa(len(nd.raw)) + " bytes]")
	case TagIntArray:
		buf.WriteString("[" + strconv.Itoa(len(nd.ints)) + " ints]")
	case TagList:
		buf.WriteString(strconv.Itoa(len(nd.items)) + " entries of type " + nd.elem.String() + "\n")
		buf.WriteString(indent + "{\n")
		for _, id := range nd.items {
			a.printPretty(buf, &a.nodes[id], nil, depth+1)
		}
		buf.WriteString(indent + "}")
	case TagCompound:
		buf.WriteString(strconv.Itoa(len(nd.items)) + " entries\n")
		buf.WriteString(indent + "{\n")
		for i, id := range nd.items {
			a.printPretty(buf, &a.nodes[id], &nd.keys[i], depth+1)
		}
		buf.WriteString(indent + "}")
	}
	buf.WriteByte('\n')
}

func formatFloat(f float64, bits int) string {
	s := strconv.FormatFloat(f, 'g', -1, bits)
	if !strings.ContainsAny(s, ".eEnN") {
		s += ".0"
	}
	return s
}

func quoteKey(k string) string {
	if k == "" {
		return `""`
	}
	for _, c := range k {
		if !(c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z' || c >= '0' && c <= '9' || c == '_' || c == '-' || c == '.' || c == '+') {
			return strconv.Quote(k)
		}
	}
	return k
}
