package note

import (
	"strings"
	"unicode"
)

// Slug produces the filesystem-safe slug half of a note's file name
// (`<id>-<slug(title)>.md`, spec §3). Non-alphanumeric runs collapse to a
// single hyphen; the result is lower-cased and trimmed of leading/trailing
// hyphens. An empty title yields "untitled".
func Slug(title string) string {
	var b strings.Builder

	prevHyphen := false

	for _, r := range title {
		switch {
		case unicode.IsLetter(r) || unicode.IsDigit(r):
			b.WriteRune(unicode.ToLower(r))
			prevHyphen = false
		default:
			if !prevHyphen && b.Len() > 0 {
				b.WriteByte('-')
				prevHyphen = true
			}
		}
	}

	s := strings.TrimRight(b.String(), "-")
	if s == "" {
		return "untitled"
	}

	return s
}

// FileName returns the canonical `<id>-<slug(title)>.md` file name.
func FileName(id, title string) string {
	return id + "-" + Slug(title) + ".md"
}
