// Package parser extracts structured directives from unconstrained generated
// text: navigation links, form fills, narrative notes, and a terminal action
// marker. Parsing is pure, deterministic, and total - the absence of a
// construct yields an empty result, never an error.
//
// The implementation is a small line scanner plus token scanners rather than
// one large regular expression, so each edge case (trailing punctuation,
// bracket group without a value) stays independently testable.
package parser

import "strings"

// FormField is one [name](value) pair found in the text.
type FormField struct {
	// Name and Value are the decomposed parts.
	Name  string
	Value string

	// Raw retains the original [name](value) substring.
	Raw string
}

// ParsedAnswer is the structured directive set derived from one text blob.
// Order and duplicates from the source text are preserved.
type ParsedAnswer struct {
	Notes  []string
	Links  []string
	Fields []FormField

	// HasAction is true iff an "action:" marker line exists anywhere in the
	// text; Action carries whatever follows that line.
	HasAction bool
	Action    string
}

const (
	noteMarker   = "Note:"
	actionMarker = "action:"
)

// Parse runs every extractor over the text and assembles the directive set.
func Parse(text string) ParsedAnswer {
	action, hasAction := extractAction(text)
	return ParsedAnswer{
		Notes:     ExtractNotes(text),
		Links:     CleanLinks(ExtractLinks(text)),
		Fields:    ExtractForm(text),
		HasAction: hasAction,
		Action:    action,
	}
}

// ExtractLinks scans for URL-shaped tokens: either schemed (scheme://...) or
// bare www.-prefixed hosts. Each hit is the greedy run of non-whitespace
// characters from the prefix, right-trimmed of trailing punctuation.
// First-seen order is preserved and duplicates are not removed.
func ExtractLinks(text string) []string {
	var links []string
	for _, token := range strings.Fields(text) {
		link, ok := linkInToken(token)
		if !ok {
			continue
		}
		link = trimLinkTail(link)
		if link != "" {
			links = append(links, link)
		}
	}
	return links
}

// linkInToken locates a URL inside a whitespace-delimited token.
func linkInToken(token string) (string, bool) {
	if i := strings.Index(token, "://"); i > 0 {
		// Walk back over the scheme characters to find where the URL starts.
		start := i
		for start > 0 && isSchemeChar(token[start-1]) {
			start--
		}
		if start == i {
			return "", false // "://" with no scheme in front
		}
		return token[start:], true
	}
	if i := strings.Index(token, "www."); i >= 0 && len(token) > i+len("www.") {
		return token[i:], true
	}
	return "", false
}

func isSchemeChar(c byte) bool {
	switch {
	case c >= 'a' && c <= 'z', c >= 'A' && c <= 'Z':
		return true
	case c >= '0' && c <= '9':
		return true
	case c == '+' || c == '-' || c == '.':
		return true
	}
	return false
}

// CleanLinks strips trailing punctuation not valid at the end of a URL path
// (periods, commas, exclamation marks and friends, plus a dangling slash)
// from the right end of each link. Interior characters are untouched and the
// operation is idempotent.
func CleanLinks(links []string) []string {
	cleaned := make([]string, 0, len(links))
	for _, link := range links {
		cleaned = append(cleaned, trimLinkTail(link))
	}
	return cleaned
}

func trimLinkTail(link string) string {
	for len(link) > 0 {
		switch link[len(link)-1] {
		case '.', ',', '!', '?', ';', ':', ')', '\'', '"', '/':
			link = link[:len(link)-1]
		default:
			return link
		}
	}
	return link
}

// ExtractForm scans for [field_name](field_value) pairs. The bracket group
// must be immediately followed by a parenthesized value; "[random]text" is
// not a form field. Name and value must be non-empty and free of delimiter
// characters. Matches preserve first-seen order.
func ExtractForm(text string) []FormField {
	var fields []FormField
	for i := 0; i < len(text); i++ {
		if text[i] != '[' {
			continue
		}
		name, after, ok := scanDelimited(text[i:], '[', ']')
		if !ok {
			continue
		}
		value, rest, ok := scanDelimited(after, '(', ')')
		if !ok {
			continue
		}
		raw := text[i : len(text)-len(rest)]
		fields = append(fields, FormField{Name: name, Value: value, Raw: raw})
		i = len(text) - len(rest) - 1
	}
	return fields
}

// scanDelimited reads an open-delimiter, a non-empty run free of both
// delimiters, and a close-delimiter from the start of s. Returns the inner
// run and the remainder after the close.
func scanDelimited(s string, open, close byte) (string, string, bool) {
	if len(s) == 0 || s[0] != open {
		return "", "", false
	}
	for j := 1; j < len(s); j++ {
		switch s[j] {
		case close:
			if j == 1 {
				return "", "", false // empty run
			}
			return s[1:j], s[j+1:], true
		case open, '\n':
			return "", "", false
		}
	}
	return "", "", false
}

// ExtractNotes returns, in document order, every line whose stripped content
// begins with the literal "Note:" marker (case-sensitive). The marker is
// retained in each collected note.
func ExtractNotes(text string) []string {
	var notes []string
	for _, line := range strings.Split(text, "\n") {
		stripped := strings.TrimSpace(line)
		if strings.HasPrefix(stripped, noteMarker) {
			notes = append(notes, stripped)
		}
	}
	return notes
}

// extractAction looks for a line beginning with the "action:" marker and
// returns the directive text that follows it (anything after the marker on
// the same line, plus all remaining lines).
func extractAction(text string) (string, bool) {
	lines := strings.Split(text, "\n")
	for i, line := range lines {
		stripped := strings.TrimSpace(line)
		if !strings.HasPrefix(stripped, actionMarker) {
			continue
		}
		parts := []string{strings.TrimSpace(strings.TrimPrefix(stripped, actionMarker))}
		if i+1 < len(lines) {
			parts = append(parts, lines[i+1:]...)
		}
		return strings.TrimSpace(strings.Join(parts, "\n")), true
	}
	return "", false
}
