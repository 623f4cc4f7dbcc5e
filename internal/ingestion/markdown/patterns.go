package markdown

import (
	"strings"

	"github.com/nullgraph/brain/pkg/types"
)

// ParsePatterns splits a patterns-catalog markdown file into one ParsedNode
// per pattern entry (spec.md §4.4). The document has two top-level
// categories — "Padrões Aprovados"/"Approved Patterns" and
// "Anti-Padrões"/"Anti-Patterns" — each containing individual pattern
// entries as the next heading level down. Entries under the approved
// category get {Pattern, ApprovedPattern}; entries under the anti category
// get {Pattern, AntiPattern}.
func ParsePatterns(path string, raw []byte) ([]ParsedNode, error) {
	_, rawBody := SplitFrontmatter(string(raw))
	body := StripLeadingTitle(rawBody)
	top := TopLevelBlocks(body)
	all := headingsRaw(body)

	var out []ParsedNode
	for i, block := range top {
		anti := isAntiCategory(block.Text)
		blockBody := blockBodyFor(body, all, block)
		entries := headingsRaw(blockBody)
		if len(entries) == 0 {
			// No sub-headings: treat the whole category block as one entry.
			node := buildPatternEntry(path, block.Text, blockBody, anti, i)
			if node != nil {
				out = append(out, *node)
			}
			continue
		}
		for j, e := range entries {
			entryText := SectionBody(blockBody, entries, j)
			node := buildPatternEntry(path, e.Text, entryText, anti, j)
			if node != nil {
				out = append(out, *node)
			}
		}
	}
	return out, nil
}

func isAntiCategory(heading string) bool {
	h := strings.ToLower(heading)
	return strings.Contains(h, "anti")
}

// blockBodyFor extracts the body text of a top-level block (heading text
// through the next heading of the same or lower level) from the full
// document, reusing SectionBody against the document's complete heading set.
func blockBodyFor(body string, all []Heading, block Heading) string {
	idx := -1
	for i, h := range all {
		if h.Line == block.Line {
			idx = i
			break
		}
	}
	if idx == -1 {
		return ""
	}
	return SectionBody(body, all, idx)
}

func buildPatternEntry(path, title, content string, anti bool, idx int) *ParsedNode {
	content = strings.TrimSpace(content)
	if title == "" && content == "" {
		return nil
	}
	patID := ExtractID("PAT", path, title, content)
	if anti && patID == "" {
		patID = ExtractID("ANTI", path, title, content)
	}
	if patID != "" && IsTemplate(patID) {
		return nil
	}

	labels := []string{types.LabelPattern}
	props := map[string]interface{}{}
	if anti {
		labels = append(labels, types.LabelAnti)
	} else {
		labels = append(labels, types.LabelApproved)
	}
	if patID != "" {
		props["pat_id"] = patID
	}

	if title == "" {
		title = titleFromFilename(path)
	}

	return &ParsedNode{
		Title:      title,
		Content:    content,
		Labels:     labels,
		Properties: props,
		SourcePath: path,
	}
}
