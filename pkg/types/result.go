package types

// Connection describes one edge surfaced in a non-compact retrieval result.
type Connection struct {
	NodeID    string  `json:"node_id"`
	EdgeType  string  `json:"edge_type"`
	Weight    float64 `json:"weight"`
	Direction string  `json:"direction"` // "outgoing" or "incoming"
}

// CompactResult is the ~50-token-per-row shape used for progressive
// disclosure (spec.md §4.5, §6 "retrieve(compact=true)").
type CompactResult struct {
	ID    string  `json:"id"`
	Score float64 `json:"score"`
	Title string  `json:"title"`
	Type  string  `json:"type"`
	Date  string  `json:"date"`
}

// Result is the full ~500-token-per-row shape returned when compact=false.
type Result struct {
	ID          string                 `json:"id"`
	Score       float64                `json:"score"`
	Labels      []string               `json:"labels"`
	Properties  map[string]interface{} `json:"properties"`
	Memory      Memory                 `json:"memory"`
	Connections []Connection           `json:"connections"`
}

// compactTypePriority is the fixed priority list compact results use to
// pick a single representative "type" from a node's label set
// (spec.md §4.5).
var compactTypePriority = []string{
	LabelADR, LabelDecision, LabelPattern, LabelConcept, LabelRule,
	LabelEpisode, LabelCommit, LabelBugFix, LabelExperience, LabelPerson,
}

// CompactType returns the first label from compactTypePriority present on
// the node, or "Memory" if none match.
func CompactType(labels []string) string {
	set := make(map[string]bool, len(labels))
	for _, l := range labels {
		set[l] = true
	}
	for _, t := range compactTypePriority {
		if set[t] {
			return t
		}
	}
	return "Memory"
}
