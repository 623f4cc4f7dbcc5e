// Package markdown implements the section-aware markdown extractors spec.md
// §4.4 describes for ADRs, domain glossary/rules/entities/constraints,
// patterns, and experiences. Every parser tolerates both block form
// ("### Contexto\n...") and compact form ("**Contexto**: ...") and returns
// best-effort partial results — unknown sections are kept as raw content
// rather than silently dropped (spec.md §9 "Parser robustness").
package markdown

import (
	"regexp"
	"strings"

	"gopkg.in/yaml.v3"
)

// headingBlockRe matches an ATX heading ("## Contexto") capturing its level
// and text.
var headingBlockRe = regexp.MustCompile(`^(#{1,6})\s+(.+?)\s*$`)

// headingCompactRe matches a bold-label compact heading ("**Contexto**: ...")
// capturing the label and any inline remainder on the same line.
var headingCompactRe = regexp.MustCompile(`^\*\*([^*]+)\*\*:?\s*(.*)$`)

// Heading is one detected section header, block or compact form.
type Heading struct {
	Level int // 1-6 for block headings; 0 for compact ("**Label**:") headings
	Key   string
	Text  string // inline text on the same line (compact form only)
	Line  int    // index into the split-by-line body
}

// SplitFrontmatter separates a leading "---\n...\n---" YAML block from the
// rest of the document (teacher's internal/importer/markdown.go pattern).
// Returns an empty map and the full text when no frontmatter is present.
func SplitFrontmatter(text string) (map[string]interface{}, string) {
	lines := strings.Split(text, "\n")
	if len(lines) == 0 || strings.TrimSpace(lines[0]) != "---" {
		return map[string]interface{}{}, text
	}
	closeIdx := -1
	for i := 1; i < len(lines); i++ {
		if strings.TrimSpace(lines[i]) == "---" {
			closeIdx = i
			break
		}
	}
	if closeIdx == -1 {
		return map[string]interface{}{}, text
	}
	fm := map[string]interface{}{}
	fmText := strings.Join(lines[1:closeIdx], "\n")
	_ = yaml.Unmarshal([]byte(fmText), &fm) // best-effort: malformed frontmatter is kept as empty, not fatal
	body := strings.Join(lines[closeIdx+1:], "\n")
	return fm, body
}

// headings scans body for block and compact headings in document order.
func headings(body string) []Heading {
	lines := strings.Split(body, "\n")
	var out []Heading
	for i, line := range lines {
		trimmed := strings.TrimRight(line, " \t")
		if m := headingBlockRe.FindStringSubmatch(trimmed); m != nil {
			out = append(out, Heading{Level: len(m[1]), Key: normalizeKey(m[2]), Text: m[2], Line: i})
			continue
		}
		if m := headingCompactRe.FindStringSubmatch(trimmed); m != nil {
			out = append(out, Heading{Level: 0, Key: normalizeKey(m[1]), Text: m[2], Line: i})
		}
	}
	return out
}

// Sections splits body into a map of normalized-header-key -> section text,
// honoring both block and compact heading forms. A compact heading's inline
// remainder is included as the first line of its section.
func Sections(body string) map[string]string {
	lines := strings.Split(body, "\n")
	heads := headings(body)
	out := make(map[string]string, len(heads))
	for i, h := range heads {
		end := len(lines)
		if i+1 < len(heads) {
			end = heads[i+1].Line
		}
		start := h.Line + 1
		var parts []string
		if h.Level == 0 && strings.TrimSpace(h.Text) != "" {
			parts = append(parts, h.Text)
		}
		if start < end {
			parts = append(parts, lines[start:end]...)
		}
		out[h.Key] = strings.TrimSpace(strings.Join(parts, "\n"))
	}
	return out
}

// TopLevelBlocks splits body into (heading, content) blocks at the lowest
// heading level present — used by patterns.go/domain.go to separate a
// document's top-level categories (e.g. "## Padrões Aprovados" /
// "## Anti-Padrões") before recursing into each category's own entries.
func TopLevelBlocks(body string) []Heading {
	heads := headings(body)
	minLevel := 99
	for _, h := range heads {
		if h.Level > 0 && h.Level < minLevel {
			minLevel = h.Level
		}
	}
	if minLevel == 99 {
		return nil
	}
	var out []Heading
	for _, h := range heads {
		if h.Level == minLevel {
			out = append(out, h)
		}
	}
	return out
}

// SectionBody returns the raw text between heading h (exclusive) and the
// next heading of level <= h.Level (exclusive), given the full set of
// headings already discovered via headings(body).
func SectionBody(body string, all []Heading, idx int) string {
	lines := strings.Split(body, "\n")
	h := all[idx]
	end := len(lines)
	for j := idx + 1; j < len(all); j++ {
		if all[j].Level > 0 && all[j].Level <= h.Level {
			end = all[j].Line
			break
		}
	}
	start := h.Line + 1
	if start >= end {
		return ""
	}
	return strings.TrimSpace(strings.Join(lines[start:end], "\n"))
}

// headingsRaw exposes headings() to sibling files in this package.
func headingsRaw(body string) []Heading { return headings(body) }

// normalizeKey lowercases a heading and strips diacritics for the common
// Portuguese accented letters ADRs/patterns in this corpus use, so
// "Decisão" and "Decisao" both key as "decisao".
func normalizeKey(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	replacer := strings.NewReplacer(
		"á", "a", "à", "a", "ã", "a", "â", "a",
		"é", "e", "ê", "e",
		"í", "i",
		"ó", "o", "õ", "o", "ô", "o",
		"ú", "u", "ü", "u",
		"ç", "c",
	)
	s = replacer.Replace(s)
	s = strings.TrimRight(s, ":")
	return strings.TrimSpace(s)
}

// StripLeadingTitle removes a document's leading H1 title line so that
// TopLevelBlocks finds the next heading level (its categories) as the
// top level, instead of the solitary title itself. Used by parsers whose
// documents open with "# Catalog Name" before their real category
// headings (patterns.go, domain.go).
func StripLeadingTitle(body string) string {
	heads := headingsRaw(body)
	if len(heads) == 0 || heads[0].Level != 1 {
		return body
	}
	lines := strings.Split(body, "\n")
	lines[heads[0].Line] = ""
	return strings.Join(lines, "\n")
}

// FirstH1 returns the first level-1 heading's text, or "" if none.
func FirstH1(body string) string {
	for _, h := range headings(body) {
		if h.Level == 1 {
			return h.Text
		}
	}
	return ""
}
