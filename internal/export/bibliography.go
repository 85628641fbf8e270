package export

import (
	"encoding/json"
	"time"

	"github.com/qipu-dev/qipu/internal/note"
)

// cslDate is the CSL-JSON "accessed"/"issued" date shape: a single
// [year, month, day] triple nested under date-parts.
type cslDate struct {
	DateParts [][]int `json:"date-parts"`
}

// cslEntry is a minimal CSL-JSON reference, enough to round-trip a note's
// web source into a citation manager. Field order matches json struct
// declaration order, which is what csl-json consumers expect from a
// "webpage" entry.
type cslEntry struct {
	Type     string   `json:"type"`
	URL      string   `json:"URL"`
	Title    string   `json:"title,omitempty"`
	Accessed *cslDate `json:"accessed,omitempty"`
	Note     string   `json:"note"`
}

// Bibliography builds the CSL-JSON array for notes' sources, one entry per
// source across all notes, each tagged with the note it was cited from.
func Bibliography(notes []*note.Note) []byte {
	entries := []cslEntry{}

	for _, n := range notes {
		for _, src := range n.Sources {
			entries = append(entries, cslEntry{
				Type:     "webpage",
				URL:      src.URL,
				Title:    src.Title,
				Accessed: parseAccessed(src.Accessed),
				Note:     "From: " + n.Title,
			})
		}
	}

	out, err := json.MarshalIndent(entries, "", "  ")
	if err != nil {
		return []byte("[]")
	}

	return out
}

// parseAccessed turns a source's "accessed" date string into CSL-JSON
// date-parts, or nil if it's absent or unparseable.
func parseAccessed(accessed string) *cslDate {
	if accessed == "" {
		return nil
	}

	t, err := time.Parse("2006-01-02", accessed)
	if err != nil {
		t, err = time.Parse(time.RFC3339, accessed)
		if err != nil {
			return nil
		}
	}

	return &cslDate{DateParts: [][]int{{t.Year(), int(t.Month()), t.Day()}}}
}
