package delta

import (
	"net/url"
	"regexp"
	"strings"
	"unicode/utf8"
)

const (
	TokenPrefix = "⟦cite:"
	TokenSuffix = "⟧"
)

var tokenPattern = regexp.MustCompile(`⟦cite:([^⟦⟧\s]+)⟧`)

// Token returns the inline citation token for the citation id.
func Token(citationID string) string {
	return TokenPrefix + citationID + TokenSuffix
}

// ValidCitationID reports whether the id can be embedded in a token.
func ValidCitationID(citationID string) bool {
	if citationID == "" {
		return false
	}
	return !strings.ContainsAny(citationID, "⟦⟧ \t\r\n")
}

// InsertCitationToken inserts "<label> ⟦cite:<id>⟧ " at offset at and returns
// the new content with the cursor placed right after the inserted text.
func InsertCitationToken(d Delta, at int, citationID, label string) (Delta, int) {
	text := Token(citationID) + " "
	if label != "" {
		text = label + " " + text
	}
	at = clamp(at, 0, lastOffset(d))
	return Insert(d, at, text, nil), at + utf8.RuneCountInString(text)
}

// RemoveCitationTokens deletes every occurrence of the citation's token and
// a single trailing space. Text before a token is only deleted when it is
// exactly one of labels followed by a space, which is what
// InsertCitationToken produces for that label. Spans are deleted from the
// end of the document towards the start.
func RemoveCitationTokens(d Delta, citationID string, labels ...string) Delta {
	spans := citationSpans(d, citationID, labels)
	if len(spans) == 0 {
		return Sanitize(d)
	}

	ops := d.clone()
	limit := lastOffset(d)
	for i := len(spans) - 1; i >= 0; i-- {
		ops = deleteRange(ops, spans[i][0], spans[i][1]-spans[i][0], limit)
		limit -= spans[i][1] - spans[i][0]
	}

	return canonical(ops)
}

// CountCitationTokens returns how many tokens of the citation appear in d.
func CountCitationTokens(d Delta, citationID string) int {
	return strings.Count(units(d), Token(citationID))
}

// TokenIDs returns the distinct citation ids referenced by tokens, in order
// of first appearance.
func TokenIDs(d Delta) []string {
	seen := make(map[string]bool)
	var ids []string
	for _, m := range tokenPattern.FindAllStringSubmatch(units(d), -1) {
		if !seen[m[1]] {
			seen[m[1]] = true
			ids = append(ids, m[1])
		}
	}
	return ids
}

// citationSpans returns [start, end) unit offsets of every token span.
func citationSpans(d Delta, citationID string, labels []string) [][2]int {
	token := Token(citationID)
	text := units(d)

	var spans [][2]int
	for from := 0; ; {
		i := strings.Index(text[from:], token)
		if i < 0 {
			break
		}
		start := from + i
		end := start + len(token)
		if strings.HasPrefix(text[end:], " ") {
			end++
		}
		for _, label := range labels {
			prefix := label + " "
			if label != "" && start-len(prefix) >= from && strings.HasSuffix(text[:start], prefix) {
				start -= len(prefix)
				break
			}
		}

		runeStart := utf8.RuneCountInString(text[:start])
		spans = append(spans, [2]int{runeStart, runeStart + utf8.RuneCountInString(text[start:end])})
		from = end
	}
	return spans
}

// Label derives the in-text reference placed before a token: "(author, year)"
// when both are known, otherwise the source host, the raw URL when it has no
// host, and "(source)" when there is no URL at all.
func Label(author, year, sourceURL string) string {
	author = strings.TrimSpace(author)
	year = strings.TrimSpace(year)
	if author != "" && year != "" {
		return "(" + author + ", " + year + ")"
	}

	sourceURL = strings.TrimSpace(sourceURL)
	if sourceURL == "" {
		return "(source)"
	}

	u, err := url.Parse(sourceURL)
	if err != nil || u.Hostname() == "" {
		return "(" + sourceURL + ")"
	}

	return "(" + strings.TrimPrefix(u.Hostname(), "www.") + ")"
}
