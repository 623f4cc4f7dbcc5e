package markdown

import (
	"strings"

	"github.com/nullgraph/brain/pkg/types"
)

// experienceTypeLabels maps a keyword found in an experience entry's title
// or frontmatter "type" field to the episode-subtype label spec.md §4.4
// assigns (bug fix, feature, refactor, performance, testing, documentation).
var experienceTypeLabels = []struct {
	keyword string
	label   string
}{
	{"bug", types.LabelBugFix},
	{"fix", types.LabelBugFix},
	{"feature", types.LabelFeature},
	{"refactor", types.LabelRefactor},
	{"performance", types.LabelPerformance},
	{"perf", types.LabelPerformance},
	{"test", types.LabelTesting},
	{"doc", types.LabelDocumentation},
}

// ParseExperiences splits an experience-log markdown file into one
// ParsedNode per entry (spec.md §4.4). Entries are the top-level headings;
// each gets {Episode, Experience} plus an optional subtype label inferred
// from its title.
func ParseExperiences(path string, raw []byte) ([]ParsedNode, error) {
	_, rawBody := SplitFrontmatter(string(raw))
	body := StripLeadingTitle(rawBody)
	all := headingsRaw(body)
	if len(all) == 0 {
		node := buildExperienceEntry(path, titleFromFilename(path), rawBody)
		if node == nil {
			return nil, nil
		}
		return []ParsedNode{*node}, nil
	}

	top := TopLevelBlocks(body)
	var out []ParsedNode
	for _, block := range top {
		entryText := blockBodyFor(body, all, block)
		node := buildExperienceEntry(path, block.Text, entryText)
		if node != nil {
			out = append(out, *node)
		}
	}
	return out, nil
}

func buildExperienceEntry(path, title, content string) *ParsedNode {
	content = strings.TrimSpace(content)
	if title == "" && content == "" {
		return nil
	}
	expID := ExtractID("EXP", path, title, content)
	if expID != "" && IsTemplate(expID) {
		return nil
	}

	labels := []string{types.LabelEpisode, types.LabelExperience}
	if sub := classifyExperience(title); sub != "" {
		labels = append(labels, sub)
	}

	props := map[string]interface{}{}
	if expID != "" {
		props["exp_id"] = expID
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

func classifyExperience(title string) string {
	h := strings.ToLower(title)
	for _, c := range experienceTypeLabels {
		if strings.Contains(h, c.keyword) {
			return c.label
		}
	}
	return ""
}
