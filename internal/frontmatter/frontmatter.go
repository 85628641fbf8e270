// Package frontmatter splits a note file into its YAML frontmatter block and
// markdown body, and marshals/unmarshals the frontmatter block via
// gopkg.in/yaml.v3 struct (un)marshaling.
//
// The teacher's two hand-rolled frontmatter parsers (a byte-level zero-copy
// scanner and a map-based scalar codec) only support flat scalars and
// string-only lists; neither can represent a list of objects, which qipu's
// `sources` and `links` frontmatter fields require. This package keeps the
// teacher's delimiter-splitting and BOM-handling conventions but hands the
// actual field grammar to yaml.v3, which already supports the nesting qipu
// needs and sorts map keys deterministically (satisfying the determinism
// property the emit path requires).
package frontmatter

import (
	"bytes"
	"fmt"

	"gopkg.in/yaml.v3"
)

const delimiter = "---"

var bom = []byte{0xEF, 0xBB, 0xBF}

// Split separates a leading frontmatter block (delimited by "---" lines)
// from the rest of the document. hasFrontmatter is false when the document
// does not begin with a frontmatter delimiter, in which case fm is nil and
// body is the whole input (with any BOM stripped).
func Split(data []byte) (fm []byte, body []byte, hasFrontmatter bool, err error) {
	data = bytes.TrimPrefix(data, bom)

	if !bytes.HasPrefix(data, []byte(delimiter)) {
		return nil, data, false, nil
	}

	rest := data[len(delimiter):]
	if len(rest) > 0 && rest[0] != '\n' && rest[0] != '\r' {
		// "---xyz" is not a delimiter line.
		return nil, data, false, nil
	}

	rest = trimLineEnd(rest)

	c := findClosingDelimiter(rest)
	if c.start < 0 {
		return nil, nil, false, fmt.Errorf("frontmatter: no closing %q delimiter", delimiter)
	}

	return rest[:c.start], rest[c.end:], true, nil
}

type closing struct{ start, end int }

// findClosingDelimiter locates a line that is exactly "---" (optionally
// followed by \r) and returns the byte offsets of the frontmatter content
// before it and the body content after it. Returns a negative start when
// not found.
func findClosingDelimiter(rest []byte) closing {
	lineStart := 0

	for lineStart <= len(rest) {
		nl := bytes.IndexByte(rest[lineStart:], '\n')

		var line []byte

		var next int

		if nl < 0 {
			line = rest[lineStart:]
			next = len(rest)
		} else {
			line = rest[lineStart : lineStart+nl]
			next = lineStart + nl + 1
		}

		trimmed := bytes.TrimSuffix(line, []byte{'\r'})
		if string(trimmed) == delimiter {
			return closing{start: lineStart, end: next}
		}

		if nl < 0 {
			break
		}

		lineStart = next
	}

	return closing{start: -1}
}

func trimLineEnd(b []byte) []byte {
	if len(b) > 0 && b[0] == '\r' {
		b = b[1:]
	}

	if len(b) > 0 && b[0] == '\n' {
		b = b[1:]
	}

	return b
}

// Unmarshal decodes a frontmatter block into v via yaml.v3.
func Unmarshal(fm []byte, v any) error {
	if len(bytes.TrimSpace(fm)) == 0 {
		return nil
	}

	dec := yaml.NewDecoder(bytes.NewReader(fm))

	err := dec.Decode(v)
	if err != nil {
		return fmt.Errorf("frontmatter: decode: %w", err)
	}

	return nil
}

// Marshal serializes v as a frontmatter block wrapped in "---" delimiters,
// followed by body.
func Marshal(v any, body string) ([]byte, error) {
	fm, err := yaml.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("frontmatter: encode: %w", err)
	}

	var buf bytes.Buffer

	buf.WriteString(delimiter)
	buf.WriteByte('\n')
	buf.Write(fm)
	buf.WriteString(delimiter)
	buf.WriteByte('\n')
	buf.WriteString(body)

	return buf.Bytes(), nil
}
