package sleep

import (
	"context"
	"math"
	"math/rand"
	"regexp"
	"strings"

	"github.com/nullgraph/brain/internal/storage"
	"github.com/nullgraph/brain/pkg/types"
)

// relateMaxFraction bounds the TF-vector vocabulary filter's document
// frequency ceiling (sleep.py phase_relate: "2 <= df <= 0.8*N").
const relateMaxFraction = 0.8

var relateWordRe = regexp.MustCompile(`[a-zA-Z]{3,}`)

// phaseRelate creates RELATED_TO edges between content nodes whose
// similarity clears c.Config.RelateThreshold. It prefers stored embeddings
// (cosine similarity via the vector store) and falls back to a bag-of-words
// TF vector comparison over at most RelateMaxCandidates candidates (a random
// sample when there are more), when no
// vector store is configured or too few nodes carry an embedding (sleep.py
// phase_relate).
func phaseRelate(ctx context.Context, c *Cycle) (map[string]interface{}, error) {
	nodes, err := allNodes(ctx, c.Store)
	if err != nil {
		return nil, err
	}
	candidates := relateCandidates(nodes)
	if len(candidates) < 2 {
		return map[string]interface{}{"edges_created": 0, "method": "none"}, nil
	}

	if c.Vec != nil {
		created, err := relateByEmbedding(ctx, c, candidates)
		if err == nil && created >= 0 {
			return map[string]interface{}{"edges_created": created, "method": "embedding"}, nil
		}
	}

	created, err := relateByTF(ctx, c.Store, candidates, c.Config.RelateThreshold, c.Config.RelateMaxCandidates)
	if err != nil {
		return nil, err
	}
	return map[string]interface{}{"edges_created": created, "method": "tf"}, nil
}

// relateCandidates excludes structural bookkeeping nodes (Person, Domain,
// Theme, PatternCluster) from relate's similarity pass; only content nodes
// participate (sleep.py phase_relate's node filter).
func relateCandidates(nodes []*types.Node) []*types.Node {
	var out []*types.Node
	for _, n := range nodes {
		if n.HasLabel(types.LabelPerson) || n.HasLabel(types.LabelDomain) ||
			n.HasLabel(types.LabelTheme) || n.HasLabel(types.LabelPatternCluster) {
			continue
		}
		out = append(out, n)
	}
	return out
}

func relateByEmbedding(ctx context.Context, c *Cycle, candidates []*types.Node) (int, error) {
	ids := make([]string, len(candidates))
	for i, n := range candidates {
		ids[i] = n.ID
	}
	vecs, err := c.Vec.Get(ctx, ids)
	if err != nil {
		return -1, err
	}
	if len(vecs) < 2 {
		return -1, nil
	}

	var withVec []string
	for id := range vecs {
		withVec = append(withVec, id)
	}

	created := 0
	for i := 0; i < len(withVec); i++ {
		for j := i + 1; j < len(withVec); j++ {
			sim := cosineSimilarity(vecs[withVec[i]], vecs[withVec[j]])
			if sim < c.Config.RelateThreshold {
				continue
			}
			has, err := c.Store.HasEdge(ctx, withVec[i], withVec[j], types.EdgeRelatedTo)
			if err != nil {
				return created, err
			}
			if has {
				continue
			}
			if err := c.Store.UpsertEdge(ctx, &types.Edge{
				From: withVec[i], To: withVec[j], Type: types.EdgeRelatedTo, Weight: types.ClampWeight(sim),
			}); err != nil {
				return created, err
			}
			created++
		}
	}
	return created, nil
}

func cosineSimilarity(a, b []float32) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}
	var dot, na, nb float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		na += float64(a[i]) * float64(a[i])
		nb += float64(b[i]) * float64(b[i])
	}
	if na == 0 || nb == 0 {
		return 0
	}
	return dot / (math.Sqrt(na) * math.Sqrt(nb))
}

// relateByTF is the embeddings-free fallback: a bag-of-words term-frequency
// vector per node over a document-frequency-filtered vocabulary, compared
// pairwise by cosine similarity, over at most maxCandidates candidates,
// randomly sampled when there are more (sleep.py phase_relate TF fallback).
func relateByTF(ctx context.Context, store storage.GraphStore, candidates []*types.Node, threshold float64, maxCandidates int) (int, error) {
	if len(candidates) > maxCandidates {
		sampled := append([]*types.Node(nil), candidates...)
		rand.Shuffle(len(sampled), func(i, j int) { sampled[i], sampled[j] = sampled[j], sampled[i] })
		candidates = sampled[:maxCandidates]
	}
	docs := make([]map[string]int, len(candidates))
	df := map[string]int{}
	for i, n := range candidates {
		tf := termFrequencies(n.Content() + " " + n.Title())
		docs[i] = tf
		for term := range tf {
			df[term]++
		}
	}

	n := len(candidates)
	vocab := map[string]bool{}
	maxDF := int(float64(n) * relateMaxFraction)
	for term, count := range df {
		if count >= 2 && count <= maxDF {
			vocab[term] = true
		}
	}

	created := 0
	for i := 0; i < n; i++ {
		for j := i + 1; j < n; j++ {
			sim := tfCosine(docs[i], docs[j], vocab)
			if sim < threshold {
				continue
			}
			has, err := store.HasEdge(ctx, candidates[i].ID, candidates[j].ID, types.EdgeRelatedTo)
			if err != nil {
				return created, err
			}
			if has {
				continue
			}
			if err := store.UpsertEdge(ctx, &types.Edge{
				From: candidates[i].ID, To: candidates[j].ID, Type: types.EdgeRelatedTo, Weight: types.ClampWeight(sim),
			}); err != nil {
				return created, err
			}
			created++
		}
	}
	return created, nil
}

func termFrequencies(text string) map[string]int {
	tf := map[string]int{}
	for _, w := range relateWordRe.FindAllString(strings.ToLower(text), -1) {
		tf[w]++
	}
	return tf
}

func tfCosine(a, b map[string]int, vocab map[string]bool) float64 {
	var dot, na, nb float64
	for term := range vocab {
		av := float64(a[term])
		bv := float64(b[term])
		dot += av * bv
		na += av * av
		nb += bv * bv
	}
	if na == 0 || nb == 0 {
		return 0
	}
	return dot / (math.Sqrt(na) * math.Sqrt(nb))
}
