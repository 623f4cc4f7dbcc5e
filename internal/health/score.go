package health

import (
	"context"

	"github.com/nullgraph/brain/internal/storage"
)

// Status classifies the composite health score (cognitive.py health_check).
type Status string

const (
	StatusHealthy        Status = "healthy"
	StatusNeedsAttention Status = "needs_attention"
	StatusCritical       Status = "critical"
)

const (
	healthyThreshold        = 0.8
	needsAttentionThreshold = 0.5

	weakWeight     = 0.3
	semanticWeight = 0.4
	embedWeight    = 0.3
)

// Report is the result of HealthCheck: a composite score, its status band,
// and the underlying stats that fed it, plus free-form recommendations
// (cognitive.py health_check / get_recommendations).
type Report struct {
	Score           float64            `json:"health_score"`
	Status          Status             `json:"status"`
	Stats           storage.GraphStats `json:"stats"`
	Recommendations []string           `json:"recommendations"`
}

// HealthCheck computes the graph's composite health score from its current
// stats: 30% weak-memory ratio, 40% semantic connectivity, 30% embedding
// coverage (cognitive.py health_check, exact weights and thresholds).
func HealthCheck(ctx context.Context, store storage.GraphStore) (Report, error) {
	stats, err := store.Stats(ctx)
	if err != nil {
		return Report{}, err
	}

	total := stats.TotalNodes
	if total == 0 {
		return Report{
			Score:           1.0,
			Status:          StatusHealthy,
			Stats:           stats,
			Recommendations: []string{"Graph is empty."},
		}, nil
	}

	contentNodes := total - stats.PersonNodes - stats.DomainNodes
	if contentNodes < 0 {
		contentNodes = 0
	}

	weakScore := 1 - float64(stats.WeakMemories)/float64(total)

	semanticRatio := 1.0
	if contentNodes > 0 {
		semanticRatio = float64(stats.SemanticEdges) / float64(contentNodes)
		if semanticRatio > 1 {
			semanticRatio = 1
		}
	}

	embedScore := float64(stats.NodesWithVector) / float64(total)
	if embedScore > 1 {
		embedScore = 1
	}

	score := weakScore*weakWeight + semanticRatio*semanticWeight + embedScore*embedWeight

	status := StatusCritical
	switch {
	case score >= healthyThreshold:
		status = StatusHealthy
	case score >= needsAttentionThreshold:
		status = StatusNeedsAttention
	}

	avgDegree := 0.0
	if total > 0 {
		avgDegree = float64(2*stats.TotalEdges) / float64(total)
	}

	return Report{
		Score:           score,
		Status:          status,
		Stats:           stats,
		Recommendations: recommendations(stats, total, avgDegree),
	}, nil
}

// recommendations mirrors cognitive.py get_recommendations's exact
// threshold literals: weak_count > total*0.3, embeddings_count <
// total*0.5, semantic_edges < total*0.5, avg_degree < 2.
func recommendations(stats storage.GraphStats, total int, avgDegree float64) []string {
	var recs []string

	if float64(stats.WeakMemories) > float64(total)*0.3 {
		recs = append(recs, "Many memories are weak; consider running archive to clear them out.")
	}
	if float64(stats.NodesWithVector) < float64(total)*0.5 {
		recs = append(recs, "Less than half the graph has embeddings; run the embedding backfill.")
	}
	if float64(stats.SemanticEdges) < float64(total)*0.5 {
		recs = append(recs, "Semantic edge coverage is low; run a sleep cycle's connect/relate phases.")
	}
	if avgDegree < 2 {
		recs = append(recs, "Average node degree is low; the graph may be under-connected.")
	}
	if len(recs) == 0 {
		recs = append(recs, "Graph health looks good.")
	}
	return recs
}
