package markdown

import (
	"strings"

	"github.com/nullgraph/brain/pkg/types"
)

// domainCategoryLabels maps a normalized top-level category heading keyword
// to the labels its entries get (spec.md §4.4: glossary terms become
// {Concept, Glossary}, business rules become {Rule, BusinessRule}, entities
// become {Entity, Domain}, constraints become {Constraint, Domain}).
var domainCategoryLabels = []struct {
	keyword string
	labels  []string
	idPfx   string
}{
	{"glossario", []string{types.LabelConcept, types.LabelGlossary}, ""},
	{"glossary", []string{types.LabelConcept, types.LabelGlossary}, ""},
	{"regra", []string{types.LabelRule, types.LabelBusinessRule}, "RULE"},
	{"rule", []string{types.LabelRule, types.LabelBusinessRule}, "RULE"},
	{"entidade", []string{types.LabelEntity, types.LabelDomain}, ""},
	{"entity", []string{types.LabelEntity, types.LabelDomain}, ""},
	{"restricao", []string{types.LabelConstraint, types.LabelDomain}, "CONSTRAINT"},
	{"constraint", []string{types.LabelConstraint, types.LabelDomain}, "CONSTRAINT"},
}

// ParseDomain splits a domain-glossary markdown file into one ParsedNode per
// entry, classifying each top-level category by keyword match against its
// heading text (spec.md §4.4 "Domain glossary/business-rules/entities/
// constraints").
func ParseDomain(path string, raw []byte) ([]ParsedNode, error) {
	_, rawBody := SplitFrontmatter(string(raw))
	body := StripLeadingTitle(rawBody)
	top := TopLevelBlocks(body)
	all := headingsRaw(body)

	var out []ParsedNode
	for _, block := range top {
		labels, idPfx := classifyDomainCategory(block.Text)
		if labels == nil {
			continue
		}
		blockBody := blockBodyFor(body, all, block)
		entries := headingsRaw(blockBody)
		if len(entries) == 0 {
			node := buildDomainEntry(path, block.Text, blockBody, labels, idPfx)
			if node != nil {
				out = append(out, *node)
			}
			continue
		}
		for j, e := range entries {
			entryText := SectionBody(blockBody, entries, j)
			node := buildDomainEntry(path, e.Text, entryText, labels, idPfx)
			if node != nil {
				out = append(out, *node)
			}
		}
	}
	return out, nil
}

func classifyDomainCategory(heading string) ([]string, string) {
	h := normalizeKey(heading)
	for _, c := range domainCategoryLabels {
		if strings.Contains(h, c.keyword) {
			return c.labels, c.idPfx
		}
	}
	return nil, ""
}

func buildDomainEntry(path, title, content string, labels []string, idPfx string) *ParsedNode {
	content = strings.TrimSpace(content)
	if title == "" && content == "" {
		return nil
	}
	props := map[string]interface{}{}
	if idPfx != "" {
		if id := ExtractID(idPfx, path, title, content); id != "" {
			if IsTemplate(id) {
				return nil
			}
			props["rule_id"] = id
		}
	}
	if title == "" {
		title = titleFromFilename(path)
	}
	return &ParsedNode{
		Title:      title,
		Content:    content,
		Labels:     append([]string{}, labels...),
		Properties: props,
		SourcePath: path,
	}
}
