package markdown

import (
	"path/filepath"
	"regexp"
	"strings"
)

// ParsedNode is what every markdown parser produces: the shape
// internal/graph.AddMemoryInput expects, plus the source path for logging.
type ParsedNode struct {
	Title      string
	Content    string
	Labels     []string
	Properties map[string]interface{}
	SourcePath string
}

// IsTemplate reports whether an extracted ID is a template placeholder
// (spec.md §4.4: "Templates (ids containing NNN) are skipped.").
func IsTemplate(id string) bool {
	return strings.Contains(strings.ToUpper(id), "NNN")
}

var idTokenRe = regexp.MustCompile(`\b([A-Z]+)-(\w+)\b`)

// ExtractID finds the first "<PREFIX>-<id>" token matching the given prefix
// (case-insensitive) anywhere in the candidates (filename, title, body),
// trying each candidate in order. Returns "" if none match.
func ExtractID(prefix string, candidates ...string) string {
	re := regexp.MustCompile(`(?i)\b` + regexp.QuoteMeta(prefix) + `-(\w+)\b`)
	for _, c := range candidates {
		if m := re.FindString(c); m != "" {
			return strings.ToUpper(m)
		}
	}
	return ""
}

// titleFromFilename derives a human-readable title from a file's base name,
// stripping the extension and normalizing separators (teacher's
// internal/importer/markdown.go titleFromPath).
func titleFromFilename(path string) string {
	base := filepath.Base(path)
	name := strings.TrimSuffix(base, filepath.Ext(base))
	name = strings.ReplaceAll(name, "-", " ")
	name = strings.ReplaceAll(name, "_", " ")
	return strings.TrimSpace(name)
}

// sectionValue looks up a section by any of the given normalized keys,
// returning the first non-empty match. Markdown documents in this corpus are
// bilingual (PT/EN headers), so every parser tries both.
func sectionValue(sections map[string]string, keys ...string) string {
	for _, k := range keys {
		if v, ok := sections[k]; ok && strings.TrimSpace(v) != "" {
			return strings.TrimSpace(v)
		}
	}
	return ""
}
