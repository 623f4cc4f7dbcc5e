package markdown

import (
	"strings"

	"github.com/nullgraph/brain/pkg/types"
)

// ParseADR parses an architecture-decision-record markdown file into a
// {Decision, ADR} node (spec.md §4.4). Tolerates block form
// ("### Contexto\n...### Decisão\n...") and compact form ("**Contexto**:
// ...\n**Decisão**: ..."). Returns nil, nil for template files (adr_id
// containing "NNN").
func ParseADR(path string, raw []byte) (*ParsedNode, error) {
	fm, body := SplitFrontmatter(string(raw))
	sections := Sections(body)

	title := extractString(fm, "title")
	if title == "" {
		title = FirstH1(body)
	}
	if title == "" {
		title = titleFromFilename(path)
	}

	adrID := extractString(fm, "adr_id")
	if adrID == "" {
		adrID = ExtractID("ADR", path, title, body)
	}
	if adrID != "" && IsTemplate(adrID) {
		return nil, nil
	}

	status := sectionValue(sections, "status", "estado")
	context := sectionValue(sections, "contexto", "context")
	decision := sectionValue(sections, "decisao", "decision")
	consequences := sectionValue(sections, "consequencias", "consequences", "consequencia")

	var parts []string
	if status != "" {
		parts = append(parts, "Status: "+status)
	}
	if context != "" {
		parts = append(parts, "Context: "+context)
	}
	if decision != "" {
		parts = append(parts, "Decision: "+decision)
	}
	if consequences != "" {
		parts = append(parts, "Consequences: "+consequences)
	}
	content := strings.Join(parts, "\n\n")
	if content == "" {
		// Unknown section layout: keep the raw body rather than drop it
		// (spec.md §9 "unknown sections are kept as raw content").
		content = strings.TrimSpace(body)
	}

	props := map[string]interface{}{}
	if adrID != "" {
		props["adr_id"] = adrID
	}
	if status != "" {
		props["status"] = status
	}
	if author := extractString(fm, "author"); author != "" {
		props["author"] = author
	}
	if date := extractString(fm, "date"); date != "" {
		props["date"] = date
	}

	return &ParsedNode{
		Title:      title,
		Content:    content,
		Labels:     []string{types.LabelDecision, types.LabelADR},
		Properties: props,
		SourcePath: path,
	}, nil
}

func extractString(fm map[string]interface{}, key string) string {
	v, ok := fm[key]
	if !ok {
		return ""
	}
	if s, ok := v.(string); ok {
		return strings.TrimSpace(s)
	}
	return ""
}
