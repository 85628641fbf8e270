package note

import "regexp"

// wikiLinkPattern matches `[[id]]` or `[[id|label]]`.
var wikiLinkPattern = regexp.MustCompile(`\[\[([^\]|]*)(?:\|[^\]]*)?\]\]`)

// markdownLinkPattern matches `[label](target)`.
var markdownLinkPattern = regexp.MustCompile(`\[[^\]]*\]\(([^)]+)\)`)

// ExtractWikiLinks returns the trimmed ids referenced by `[[id]]`/`[[id|label]]`
// occurrences in body, in order of appearance, skipping any whose trimmed id
// is empty (spec §3 Edge: "an inline target with an empty id after trimming
// is skipped").
func ExtractWikiLinks(body string) []string {
	matches := wikiLinkPattern.FindAllStringSubmatch(body, -1)

	ids := make([]string, 0, len(matches))

	for _, m := range matches {
		id := trimID(m[1])
		if id == "" {
			continue
		}

		ids = append(ids, id)
	}

	return ids
}

// ExtractMarkdownNoteLinks returns targets of `[label](target)` links whose
// target looks like a note id (used by MOC link extraction, spec §4.9).
// looksLikeID decides whether a markdown link target is a candidate note id
// rather than a URL or file path.
func ExtractMarkdownNoteLinks(body string, looksLikeID func(string) bool) []string {
	matches := markdownLinkPattern.FindAllStringSubmatch(body, -1)

	var ids []string

	for _, m := range matches {
		target := trimID(m[1])
		if target == "" {
			continue
		}

		if looksLikeID(target) {
			ids = append(ids, target)
		}
	}

	return ids
}

func trimID(s string) string {
	start, end := 0, len(s)
	for start < end && isSpace(s[start]) {
		start++
	}

	for end > start && isSpace(s[end-1]) {
		end--
	}

	return s[start:end]
}

func isSpace(b byte) bool {
	return b == ' ' || b == '\t' || b == '\n' || b == '\r'
}
