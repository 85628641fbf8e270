// Package export turns a selector-resolved note set into shaped output: a
// Markdown bundle/outline and a minimal CSL-JSON bibliography built from
// each note's sources (spec §D export supplement). Selection itself (which
// notes, in what order, transitively expanded through which MOC) is the
// caller's job via internal/selector and internal/traversal; this package
// only shapes what it is handed.
package export

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/qipu-dev/qipu/internal/note"
)

// Mode picks the section heading style. Outline mode is only meaningful
// when the note set came from a MOC (there's an order to preserve). Render
// uses whichever Mode it is given; falling back to bundle when there is no
// MOC is left to the caller (the export command does this).
type Mode string

const (
	ModeBundle  Mode = "bundle"
	ModeOutline Mode = "outline"
)

// LinkMode controls how [[id]] wiki-links (and markdown links that target a
// note id) are rewritten in rendered bodies.
type LinkMode string

const (
	LinkPreserve LinkMode = "preserve"
	LinkMarkdown LinkMode = "markdown"
	LinkAnchors  LinkMode = "anchors"
)

type Options struct {
	Mode     Mode
	LinkMode LinkMode
}

// Render produces the Markdown document for notes, in the given order.
func Render(notes []*note.Note, opts Options) string {
	byID := make(map[string]*note.Note, len(notes))
	for _, n := range notes {
		byID[n.ID] = n
	}

	var b strings.Builder

	for i, n := range notes {
		if opts.LinkMode == LinkAnchors {
			fmt.Fprintf(&b, "<a id=%q></a>\n", anchorID(n.ID))
		}

		switch opts.Mode {
		case ModeOutline:
			fmt.Fprintf(&b, "## %s (%s)\n\n", n.Title, n.ID)
		default:
			fmt.Fprintf(&b, "## Note: %s (%s)\n\n**Type:** %s\n\n", n.Title, n.ID, n.Type)
		}

		b.WriteString(rewriteLinks(n.Body, byID, opts.LinkMode))

		if i < len(notes)-1 {
			b.WriteString("\n\n---\n\n")
		}
	}

	return b.String()
}

func anchorID(id string) string {
	return "note-" + id
}

var (
	wikiLinkPattern = regexp.MustCompile(`\[\[([^\]|]+)(?:\|([^\]]+))?\]\]`)
	mdLinkPattern   = regexp.MustCompile(`\[([^\]]*)\]\(([^)]+)\)`)
)

func looksLikeID(target string) bool {
	return strings.HasPrefix(target, "qp-") && !strings.Contains(target, "://")
}

// rewriteLinks rewrites wiki-links (and, in anchors mode, markdown links
// whose target is a note id) according to mode. Links whose target isn't in
// byID are left untouched — the referenced note simply isn't part of this
// export.
func rewriteLinks(body string, byID map[string]*note.Note, mode LinkMode) string {
	if mode == LinkPreserve {
		return body
	}

	body = wikiLinkPattern.ReplaceAllStringFunc(body, func(m string) string {
		sub := wikiLinkPattern.FindStringSubmatch(m)
		id := strings.TrimSpace(sub[1])

		label := sub[2]
		if label == "" {
			label = id
		}

		target, ok := byID[id]
		if !ok {
			return m
		}

		switch mode {
		case LinkAnchors:
			return fmt.Sprintf("[%s](#%s)", label, anchorID(id))
		case LinkMarkdown:
			return fmt.Sprintf("[%s](%s)", label, target.Path)
		default:
			return m
		}
	})

	if mode == LinkAnchors {
		body = mdLinkPattern.ReplaceAllStringFunc(body, func(m string) string {
			sub := mdLinkPattern.FindStringSubmatch(m)
			label, target := sub[1], sub[2]

			if !looksLikeID(target) {
				return m
			}

			if _, ok := byID[target]; !ok {
				return m
			}

			return fmt.Sprintf("[%s](#%s)", label, anchorID(target))
		})
	}

	return body
}
