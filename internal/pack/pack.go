// Package pack implements the self-describing export/import document spec
// §4.8 names: a list of full notes, a redundant list of (from,to,link_type)
// link records that lets a loader cross-check frontmatter, and optional
// base64 attachment blobs. Two wire forms — JSON and a line-oriented
// "records" form — round-trip to the same logical Pack.
//
// New code; the teacher has no pack/bundle analogue. The JSON form's
// tolerant reader reuses github.com/tailscale/hujson the way the teacher's
// internal/ticket/config.go does for its own JSONC config, so a hand-edited
// pack with trailing commas or comments still loads.
package pack

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/tailscale/hujson"

	"github.com/qipu-dev/qipu/internal/note"
	"github.com/qipu-dev/qipu/internal/qipuerr"
)

// PackNote is a full note as carried in a pack: frontmatter fields, body,
// and the path it lived at in the source store (informational only — load
// always recomputes the destination path from id/title/type).
type PackNote struct {
	Note         *note.Note
	OriginalPath string
}

// Link is a pack's redundant (from,to,link_type) cross-check record (spec
// §4.8) — independent of the frontmatter `links` a PackNote carries, so a
// loader can detect drift between a note's frontmatter and what the pack
// claims to have dumped.
type Link struct {
	From string
	To   string
	Type string
}

// Attachment is a binary blob referenced by one or more packed notes' bodies.
type Attachment struct {
	Name string
	Data []byte
}

// Pack is the complete, wire-form-independent logical document.
type Pack struct {
	Notes       []PackNote
	Links       []Link
	Attachments []Attachment
}

// jsonNote/jsonPack mirror Pack's shape for the JSON wire form. A note's
// Sources and Links are copied into the json-tagged jsonSource/jsonLink
// types; []byte attachment data marshals to base64 automatically via
// encoding/json.
type jsonSource struct {
	URL      string `json:"url"`
	Title    string `json:"title,omitempty"`
	Accessed string `json:"accessed,omitempty"`
}

type jsonLink struct {
	Type string `json:"type"`
	ID   string `json:"id"`
}

type jsonNote struct {
	ID           string         `json:"id"`
	Title        string         `json:"title"`
	Type         string         `json:"type"`
	Tags         []string       `json:"tags,omitempty"`
	Created      string         `json:"created,omitempty"`
	Updated      string         `json:"updated,omitempty"`
	Value        int            `json:"value"`
	Sources      []jsonSource   `json:"sources,omitempty"`
	Links        []jsonLink     `json:"links,omitempty"`
	Compacts     []string       `json:"compacts,omitempty"`
	Summary      string         `json:"summary,omitempty"`
	Source       string         `json:"source,omitempty"`
	Author       string         `json:"author,omitempty"`
	GeneratedBy  string         `json:"generated_by,omitempty"`
	PromptHash   string         `json:"prompt_hash,omitempty"`
	Verified     bool           `json:"verified,omitempty"`
	Custom       map[string]any `json:"custom,omitempty"`
	Body         string         `json:"body"`
	OriginalPath string         `json:"original_path,omitempty"`
}

type jsonAttachment struct {
	Name string `json:"name"`
	Data []byte `json:"data"`
}

type jsonPack struct {
	Notes       []jsonNote       `json:"notes"`
	Links       []Link           `json:"links"`
	Attachments []jsonAttachment `json:"attachments,omitempty"`
}

const rfc3339 = "2006-01-02T15:04:05Z07:00"

func toJSONNote(pn PackNote) jsonNote {
	n := pn.Note

	jn := jsonNote{
		ID: n.ID, Title: n.Title, Type: n.Type, Tags: n.Tags,
		Value: n.Value, Compacts: n.Compacts, Summary: n.Summary,
		Source: n.Source, Author: n.Author, GeneratedBy: n.GeneratedBy,
		PromptHash: n.PromptHash, Verified: n.Verified, Custom: n.Custom,
		Body: n.Body, OriginalPath: pn.OriginalPath,
	}

	for _, s := range n.Sources {
		jn.Sources = append(jn.Sources, jsonSource{URL: s.URL, Title: s.Title, Accessed: s.Accessed})
	}

	for _, l := range n.Links {
		jn.Links = append(jn.Links, jsonLink{Type: l.Type, ID: l.ID})
	}

	if n.Created != nil {
		jn.Created = n.Created.UTC().Format(rfc3339)
	}

	if n.Updated != nil {
		jn.Updated = n.Updated.UTC().Format(rfc3339)
	}

	return jn
}

func fromJSONNote(jn jsonNote) (PackNote, error) {
	n := &note.Note{
		ID: jn.ID, Title: jn.Title, Type: jn.Type, Tags: jn.Tags,
		Value: jn.Value, Compacts: jn.Compacts, Summary: jn.Summary,
		Source: jn.Source, Author: jn.Author, GeneratedBy: jn.GeneratedBy,
		PromptHash: jn.PromptHash, Verified: jn.Verified, Custom: jn.Custom,
		Body: jn.Body,
	}

	for _, s := range jn.Sources {
		n.Sources = append(n.Sources, note.Source{URL: s.URL, Title: s.Title, Accessed: s.Accessed})
	}

	for _, l := range jn.Links {
		n.Links = append(n.Links, note.Link{Type: l.Type, ID: l.ID})
	}

	if jn.Created != "" {
		t, err := time.Parse(rfc3339, jn.Created)
		if err != nil {
			return PackNote{}, qipuerr.New(qipuerr.ParseError, fmt.Errorf("created: %w", err), qipuerr.WithID(jn.ID))
		}

		n.Created = &t
	}

	if jn.Updated != "" {
		t, err := time.Parse(rfc3339, jn.Updated)
		if err != nil {
			return PackNote{}, qipuerr.New(qipuerr.ParseError, fmt.Errorf("updated: %w", err), qipuerr.WithID(jn.ID))
		}

		n.Updated = &t
	}

	return PackNote{Note: n, OriginalPath: jn.OriginalPath}, nil
}

// MarshalJSON renders p in the pack JSON wire form: a single
// `{notes, links, attachments}` object (spec §4.8).
func MarshalJSON(p *Pack) ([]byte, error) {
	jp := jsonPack{Links: p.Links}
	if jp.Links == nil {
		jp.Links = []Link{}
	}

	for _, pn := range p.Notes {
		jp.Notes = append(jp.Notes, toJSONNote(pn))
	}

	for _, a := range p.Attachments {
		jp.Attachments = append(jp.Attachments, jsonAttachment{Name: a.Name, Data: a.Data})
	}

	data, err := json.MarshalIndent(jp, "", "  ")
	if err != nil {
		return nil, qipuerr.New(qipuerr.FailedOperation, err, qipuerr.WithOp("pack_marshal_json"))
	}

	return data, nil
}

// UnmarshalJSON parses the pack JSON wire form. The reader is tolerant of
// JSONC (trailing commas, comments) via hujson.Standardize, matching the
// teacher's config-parsing tolerance — hand-edited packs are common.
func UnmarshalJSON(data []byte) (*Pack, error) {
	standardized, err := hujson.Standardize(data)
	if err != nil {
		return nil, qipuerr.New(qipuerr.ParseError, fmt.Errorf("invalid pack JSON: %w", err), qipuerr.WithOp("pack_unmarshal_json"))
	}

	var jp jsonPack

	err = json.Unmarshal(standardized, &jp)
	if err != nil {
		return nil, qipuerr.New(qipuerr.ParseError, err, qipuerr.WithOp("pack_unmarshal_json"))
	}

	p := &Pack{Links: jp.Links}

	for _, jn := range jp.Notes {
		pn, cErr := fromJSONNote(jn)
		if cErr != nil {
			return nil, cErr
		}

		p.Notes = append(p.Notes, pn)
	}

	for _, a := range jp.Attachments {
		p.Attachments = append(p.Attachments, Attachment{Name: a.Name, Data: a.Data})
	}

	return p, nil
}
