package pack

import (
	"bufio"
	"bytes"
	"encoding/base64"
	"fmt"
	"strconv"
	"strings"

	"github.com/qipu-dev/qipu/internal/note"
	"github.com/qipu-dev/qipu/internal/qipuerr"
)

// Records form layout (spec §4.8, §6), mode=pack:
//
//	H qipu=1 records=1 mode=pack notes=<n> links=<n> attachments=<n>
//	N <id> <type> "<title>" tags=<csv> path=<path> value=<v> compacts=<csv>
//	B <id>
//	<raw note.Emit(n) bytes>
//	B-END <id>
//	E <from> <link_type> <to>   (no edge source field: a pack Link carries none)
//	S <id> <url>              (pack mode: one source record per Source entry)
//	D <id> source_title=<v> source_accessed=<v>   (free-form annotation for
//	                                                the S record immediately above)
//	A <name> <base64-bytes>   (attachment blob; A is reused from the records
//	                           vocabulary's generic block-carrying convention,
//	                           since spec.md names no separate attachment tag)
//
// The "S" prefix's dual meaning (sources in pack mode, a one-line context
// summary in non-pack modes) is a documented wart (spec §9); this package
// only ever emits/reads mode=pack, and both sides fail loudly if the header
// names a different mode.
const recordsMode = "pack"

// MarshalRecords renders p as the line-oriented records form.
func MarshalRecords(p *Pack) ([]byte, error) {
	var b bytes.Buffer

	fmt.Fprintf(&b, "H qipu=1 records=1 mode=%s notes=%d links=%d attachments=%d\n",
		recordsMode, len(p.Notes), len(p.Links), len(p.Attachments))

	for _, pn := range p.Notes {
		n := pn.Note

		fmt.Fprintf(&b, "N %s %s %s tags=%s path=%s value=%d compacts=%s\n",
			n.ID, n.Type, quote(n.Title), strings.Join(n.Tags, ","), n.Path, n.Value,
			strings.Join(n.Compacts, ","))

		raw, err := note.Emit(n)
		if err != nil {
			return nil, err
		}

		fmt.Fprintf(&b, "B %s\n", n.ID)
		b.Write(escapeBlock(raw))
		fmt.Fprintf(&b, "\nB-END %s\n", n.ID)

		for _, s := range n.Sources {
			fmt.Fprintf(&b, "S %s %s\n", n.ID, s.URL)

			var ann []string
			if s.Title != "" {
				ann = append(ann, "source_title="+quote(s.Title))
			}

			if s.Accessed != "" {
				ann = append(ann, "source_accessed="+s.Accessed)
			}

			if len(ann) > 0 {
				fmt.Fprintf(&b, "D %s %s\n", n.ID, strings.Join(ann, " "))
			}
		}
	}

	for _, l := range p.Links {
		fmt.Fprintf(&b, "E %s %s %s\n", l.From, l.Type, l.To)
	}

	for _, a := range p.Attachments {
		fmt.Fprintf(&b, "A %s %s\n", a.Name, base64.StdEncoding.EncodeToString(a.Data))
	}

	return b.Bytes(), nil
}

// escapeBlock escapes newlines as literal "\n" inside a B/B-END block so the
// block always occupies exactly one line (spec §6 escaping rule).
func escapeBlock(raw []byte) []byte {
	return []byte(strings.ReplaceAll(string(raw), "\n", `\n`))
}

func unescapeBlock(line string) []byte {
	return []byte(strings.ReplaceAll(line, `\n`, "\n"))
}

// quote double-quotes s, doubling embedded quotes (spec §6 escaping rule).
func quote(s string) string {
	return `"` + strings.ReplaceAll(s, `"`, `""`) + `"`
}

func unquote(s string) string {
	s = strings.TrimPrefix(s, `"`)
	s = strings.TrimSuffix(s, `"`)

	return strings.ReplaceAll(s, `""`, `"`)
}

// UnmarshalRecords parses the line-oriented records form produced by
// MarshalRecords.
func UnmarshalRecords(data []byte) (*Pack, error) {
	scanner := bufio.NewScanner(bytes.NewReader(data))
	scanner.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)

	p := &Pack{}

	notesByID := map[string]*note.Note{}
	var order []string

	var pendingBlockID string

	mode := ""

	for scanner.Scan() {
		line := scanner.Text()
		if line == "" {
			continue
		}

		switch {
		case strings.HasPrefix(line, "H "):
			fields := parseFields(line[2:])
			mode = fields["mode"]

			if mode != recordsMode {
				return nil, qipuerr.New(qipuerr.UnknownFormat,
					fmt.Errorf("records mode %q is not %q", mode, recordsMode),
					qipuerr.WithOp("pack_unmarshal_records"))
			}

		case strings.HasPrefix(line, "N "):
			n, err := parseNoteRecord(line[2:])
			if err != nil {
				return nil, err
			}

			notesByID[n.ID] = n
			order = append(order, n.ID)

		case strings.HasPrefix(line, "B-END "):
			pendingBlockID = ""

		case strings.HasPrefix(line, "B "):
			pendingBlockID = strings.TrimSpace(line[2:])

		case pendingBlockID != "":
			n, ok := notesByID[pendingBlockID]
			if !ok {
				return nil, qipuerr.New(qipuerr.ParseError,
					fmt.Errorf("body block for unknown note %s", pendingBlockID),
					qipuerr.WithOp("pack_unmarshal_records"))
			}

			full, err := note.Parse(unescapeBlock(line), n.Path)
			if err != nil {
				return nil, err
			}

			// Sources are rebuilt from the S/D records that follow the block.
			full.Sources = nil
			*n = *full

		case strings.HasPrefix(line, "E "):
			l, err := parseLinkRecord(line[2:])
			if err != nil {
				return nil, err
			}

			p.Links = append(p.Links, l)

		case strings.HasPrefix(line, "S "):
			err := applySourceRecord(notesByID, line[2:])
			if err != nil {
				return nil, err
			}

		case strings.HasPrefix(line, "D "):
			err := applyAnnotationRecord(notesByID, line[2:])
			if err != nil {
				return nil, err
			}

		case strings.HasPrefix(line, "A "):
			a, err := parseAttachmentRecord(line[2:])
			if err != nil {
				return nil, err
			}

			p.Attachments = append(p.Attachments, a)
		}
	}

	if err := scanner.Err(); err != nil {
		return nil, qipuerr.New(qipuerr.ParseError, err, qipuerr.WithOp("pack_unmarshal_records"))
	}

	for _, id := range order {
		p.Notes = append(p.Notes, PackNote{Note: notesByID[id]})
	}

	return p, nil
}

// parseNoteRecord builds a placeholder Note from an "N" line's summary
// fields; the authoritative content arrives via the following B/B-END
// block, which fully replaces these fields once parsed.
func parseNoteRecord(rest string) (*note.Note, error) {
	parts := splitQuoted(rest)
	if len(parts) < 3 {
		return nil, qipuerr.New(qipuerr.ParseError, fmt.Errorf("malformed N record: %q", rest))
	}

	id, typ, title := parts[0], parts[1], unquote(parts[2])

	fields := parseFields(strings.Join(parts[3:], " "))

	n := &note.Note{ID: id, Type: typ, Title: title, Path: fields["path"]}

	if fields["tags"] != "" {
		n.Tags = strings.Split(fields["tags"], ",")
	}

	if fields["compacts"] != "" {
		n.Compacts = strings.Split(fields["compacts"], ",")
	}

	if v, err := strconv.Atoi(fields["value"]); err == nil {
		n.Value = v
	} else {
		n.Value = note.DefaultValue
	}

	return n, nil
}

func parseLinkRecord(rest string) (Link, error) {
	fields := strings.Fields(rest)
	if len(fields) != 3 {
		return Link{}, qipuerr.New(qipuerr.ParseError, fmt.Errorf("malformed E record: %q", rest))
	}

	return Link{From: fields[0], Type: fields[1], To: fields[2]}, nil
}

func applySourceRecord(notesByID map[string]*note.Note, rest string) error {
	fields := strings.SplitN(rest, " ", 2)
	if len(fields) < 1 {
		return qipuerr.New(qipuerr.ParseError, fmt.Errorf("malformed S record: %q", rest))
	}

	n, ok := notesByID[fields[0]]
	if !ok {
		return qipuerr.New(qipuerr.ParseError, fmt.Errorf("S record for unknown note %s", fields[0]))
	}

	url := ""
	if len(fields) == 2 {
		url = fields[1]
	}

	n.Sources = append(n.Sources, note.Source{URL: url})

	return nil
}

func applyAnnotationRecord(notesByID map[string]*note.Note, rest string) error {
	fields := strings.SplitN(rest, " ", 2)
	if len(fields) < 2 {
		return nil
	}

	n, ok := notesByID[fields[0]]
	if !ok || len(n.Sources) == 0 {
		return nil
	}

	kv := parseFields(fields[1])
	last := &n.Sources[len(n.Sources)-1]

	if v, ok := kv["source_title"]; ok {
		last.Title = unquote(v)
	}

	if v, ok := kv["source_accessed"]; ok {
		last.Accessed = v
	}

	return nil
}

func parseAttachmentRecord(rest string) (Attachment, error) {
	fields := strings.Fields(rest)
	if len(fields) != 2 {
		return Attachment{}, qipuerr.New(qipuerr.ParseError, fmt.Errorf("malformed A record: %q", rest))
	}

	data, err := base64.StdEncoding.DecodeString(fields[1])
	if err != nil {
		return Attachment{}, qipuerr.New(qipuerr.ParseError, fmt.Errorf("attachment %s: %w", fields[0], err))
	}

	return Attachment{Name: fields[0], Data: data}, nil
}

// parseFields parses a "key=value key2=value2" tail, where a value may be
// double-quoted to contain spaces.
func parseFields(s string) map[string]string {
	out := map[string]string{}

	for _, tok := range splitQuoted(s) {
		eq := strings.IndexByte(tok, '=')
		if eq < 0 {
			continue
		}

		out[tok[:eq]] = tok[eq+1:]
	}

	return out
}

// splitQuoted splits on spaces outside of double-quoted spans.
func splitQuoted(s string) []string {
	var out []string

	var cur strings.Builder

	inQuote := false

	for i := 0; i < len(s); i++ {
		c := s[i]

		switch {
		case c == '"':
			inQuote = !inQuote
			cur.WriteByte(c)
		case c == ' ' && !inQuote:
			if cur.Len() > 0 {
				out = append(out, cur.String())
				cur.Reset()
			}
		default:
			cur.WriteByte(c)
		}
	}

	if cur.Len() > 0 {
		out = append(out, cur.String())
	}

	return out
}
