// Command embeddings manages the vector store directly (spec.md §6
// "Embeddings: build | search <q> | migrate (npz -> ANN)"). build backfills
// vectors for nodes the graph store has but the vector store doesn't;
// search runs a raw ANN query bypassing keyword fusion; migrate promotes
// the brute-force fallback to a fresh primary HNSW index once enough
// vectors have accumulated to make ANN worthwhile again (spec.md §4.2).
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"

	"github.com/nullgraph/brain/internal/brain"
	"github.com/nullgraph/brain/internal/config"
	"github.com/nullgraph/brain/internal/embedding"
	"github.com/nullgraph/brain/internal/storage"
)

func main() {
	log.SetFlags(0)
	if len(os.Args) < 2 {
		log.Fatal("usage: embeddings <build|search|migrate> [query]")
	}

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("embeddings: load config: %v", err)
	}
	ctx := context.Background()
	b, err := brain.Open(ctx, cfg)
	if err != nil {
		log.Fatalf("embeddings: open: %v", err)
	}
	defer b.Close()

	switch os.Args[1] {
	case "build":
		built, skipped := build(ctx, b)
		fmt.Printf("embeddings: %d built, %d skipped (no embedder or empty content)\n", built, skipped)
	case "search":
		if len(os.Args) < 3 {
			log.Fatal("usage: embeddings search <q>")
		}
		vec := b.Embed().Encode(ctx, os.Args[2])
		if len(vec) == 0 {
			log.Fatal("embeddings: no embedder configured (EMBEDDING_PROVIDER)")
		}
		matches, err := b.SearchByEmbedding(ctx, vec, 10)
		if err != nil {
			log.Fatalf("embeddings: search: %v", err)
		}
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		_ = enc.Encode(matches)
	case "migrate":
		if err := b.Vec().PromoteFromFallback(ctx); err != nil {
			log.Fatalf("embeddings: migrate: %v", err)
		}
		fmt.Println("embeddings: promoted brute-force store to primary ANN index")
	default:
		log.Fatalf("embeddings: unknown subcommand %q", os.Args[1])
	}
}

// build walks every node and computes+upserts an embedding for any whose
// vector is missing from the store, using the same canonical text
// (internal/embedding.BuildText) add_memory uses at ingestion time.
func build(ctx context.Context, b *brain.Brain) (built, skipped int) {
	page := 1
	for {
		res, err := b.GetAllNodes(ctx, storage.ListOptions{Page: page, Limit: 500})
		if err != nil {
			log.Fatalf("embeddings: list nodes: %v", err)
		}
		for _, n := range res.Items {
			existing, err := b.Vec().Get(ctx, []string{n.ID})
			if err == nil {
				if _, ok := existing[n.ID]; ok {
					continue
				}
			}
			text := embedding.BuildText(n)
			vec := b.Embed().Encode(ctx, text)
			if len(vec) == 0 {
				skipped++
				continue
			}
			if err := b.Vec().Upsert(ctx, n.ID, vec); err != nil {
				skipped++
				continue
			}
			built++
		}
		if !res.HasMore {
			break
		}
		page++
	}
	return built, skipped
}
