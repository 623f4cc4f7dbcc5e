package retrieval

import (
	"regexp"
	"strings"
)

var (
	quotedPhraseRe = regexp.MustCompile(`"([^"]+)"`)
	ftsWordRe      = regexp.MustCompile(`[\w*]+`)
)

// SanitizeFTSQuery converts a free-text user query into an FTS5 MATCH
// expression (spec.md §4.5 "FTS query sanitization"): quoted phrases are
// preserved as exact phrases, bare tokens are individually quoted and
// joined with AND, and a trailing "*" on a token enables prefix search. A
// query containing nothing but punctuation sanitizes to "" so the caller
// knows to skip the FTS call entirely and fall through to LIKE.
func SanitizeFTSQuery(query string) string {
	phrases := quotedPhraseRe.FindAllStringSubmatch(query, -1)
	remaining := quotedPhraseRe.ReplaceAllString(query, "")
	words := ftsWordRe.FindAllString(remaining, -1)

	var parts []string
	for _, p := range phrases {
		parts = append(parts, `"`+p[1]+`"`)
	}
	for _, w := range words {
		if strings.HasSuffix(w, "*") {
			parts = append(parts, w)
		} else {
			parts = append(parts, `"`+w+`"`)
		}
	}
	if len(parts) == 0 {
		return ""
	}
	return strings.Join(parts, " AND ")
}
