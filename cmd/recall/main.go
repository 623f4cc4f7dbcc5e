// Command recall is the read-only retrieval CLI (spec.md §6 "Recall:
// <query> [--type T] [--author A] [--depth D] [--top K] [--recent Nd|Nh]
// [--since DATE] [--sort score|date] [--format json|human]").
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/nullgraph/brain/internal/brain"
	"github.com/nullgraph/brain/internal/config"
	"github.com/nullgraph/brain/internal/retrieval"
	"github.com/nullgraph/brain/pkg/types"
)

func main() {
	log.SetFlags(0)

	fs := flag.NewFlagSet("recall", flag.ExitOnError)
	typ := fs.String("type", "", "filter by label/type")
	author := fs.String("author", "", "filter by author")
	depth := fs.Int("depth", 0, "spreading activation depth")
	top := fs.Int("top", 0, "max results")
	recent := fs.String("recent", "", "relative window, e.g. 7d or 24h")
	since := fs.String("since", "", "absolute or relative since filter")
	sortBy := fs.String("sort", "score", "score|date")
	format := fs.String("format", "human", "json|human")
	if err := fs.Parse(os.Args[1:]); err != nil {
		os.Exit(1)
	}
	if fs.NArg() < 1 {
		fmt.Fprintln(os.Stderr, "usage: recall <query> [--type T] [--author A] [--depth D] [--top K] [--recent Nd|Nh] [--since DATE] [--sort score|date] [--format json|human]")
		os.Exit(1)
	}

	sinceFilter := *since
	if sinceFilter == "" {
		sinceFilter = *recent
	}

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("recall: load config: %v", err)
	}
	ctx := context.Background()
	b, err := brain.Open(ctx, cfg)
	if err != nil {
		log.Fatalf("recall: open: %v", err)
	}
	defer b.Close()

	opts := retrieval.Options{
		Query:       fs.Arg(0),
		Author:      *author,
		TopK:        *top,
		SpreadDepth: *depth,
		Since:       sinceFilter,
		SortBy:      *sortBy,
		Reinforce:   true,
		Compact:     *format != "json",
	}
	if *typ != "" {
		opts.Labels = []string{*typ}
	}

	full, compact, err := b.Retrieve(ctx, opts)
	if err != nil {
		log.Fatalf("recall: %v", err)
	}

	if *format == "json" {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		_ = enc.Encode(full)
		return
	}
	printHuman(compact)
}

func printHuman(results []types.CompactResult) {
	if len(results) == 0 {
		fmt.Println("no results — try broader terms, or run populate to ingest more content")
		return
	}
	for _, r := range results {
		fmt.Printf("[%.2f] %-10s %-12s %s\n", r.Score, r.Type, r.Date, r.Title)
	}
}
