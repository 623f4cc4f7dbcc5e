// Command brain is the primary thin CLI wrapper over the Query API
// (spec.md §6 "Brain: load | save | stats | search <q> | consolidate |
// decay | add <title> <content> | dev-state | update-dev-state --focus T
// --session T | export"). It holds no business logic of its own — every
// subcommand is a direct call into internal/brain.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/nullgraph/brain/internal/attribution"
	"github.com/nullgraph/brain/internal/brain"
	"github.com/nullgraph/brain/internal/config"
	"github.com/nullgraph/brain/internal/graph"
	"github.com/nullgraph/brain/internal/retrieval"
)

func main() {
	log.SetFlags(0)
	if len(os.Args) < 2 {
		usage()
		os.Exit(1)
	}

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("brain: load config: %v", err)
	}

	ctx := context.Background()
	b, err := brain.Open(ctx, cfg)
	if err != nil {
		log.Fatalf("brain: open: %v", err)
	}
	defer b.Close()

	cmd, args := os.Args[1], os.Args[2:]
	switch cmd {
	case "load":
		exitOn(b.Load(ctx))
	case "save":
		exitOn(b.Save(ctx))
	case "stats":
		stats, err := b.GetStats(ctx)
		exitOn(err)
		printJSON(stats)
	case "search":
		if len(args) < 1 {
			usageErr("search requires a query")
		}
		full, _, err := b.Retrieve(ctx, retrieval.Options{Query: args[0]})
		exitOn(err)
		printJSON(full)
	case "consolidate":
		out, err := b.Consolidate(ctx)
		exitOn(err)
		printJSON(out)
	case "decay":
		out, err := b.ApplyDecay(ctx)
		exitOn(err)
		printJSON(out)
	case "add":
		if len(args) < 2 {
			usageErr("add requires <title> <content>")
		}
		id, err := b.AddMemory(ctx, graph.AddMemoryInput{
			Title:   args[0],
			Content: args[1],
			Author:  attribution.DetectAgent(),
		})
		exitOn(err)
		fmt.Println(id)
	case "dev-state":
		fs := flag.NewFlagSet("dev-state", flag.ExitOnError)
		email := fs.String("email", attribution.DetectAgent(), "developer email")
		_ = fs.Parse(args)
		state, err := b.GetDevState(ctx, *email)
		exitOn(err)
		printJSON(state)
	case "update-dev-state":
		fs := flag.NewFlagSet("update-dev-state", flag.ExitOnError)
		email := fs.String("email", attribution.DetectAgent(), "developer email")
		focus := fs.String("focus", "", "current focus")
		session := fs.String("session", "", "last session summary")
		name := fs.String("name", "", "display name")
		_ = fs.Parse(args)
		state, err := b.UpdateDevState(ctx, *email, *focus, *session, *name)
		exitOn(err)
		printJSON(state)
	case "export":
		path := ""
		if len(args) > 0 {
			path = args[0]
		}
		written, err := b.ExportJSON(ctx, path)
		exitOn(err)
		fmt.Println(written)
	default:
		usage()
		os.Exit(1)
	}
}

func usage() {
	fmt.Fprintln(os.Stderr, "usage: brain <load|save|stats|search|consolidate|decay|add|dev-state|update-dev-state|export> [args]")
}

func usageErr(msg string) {
	fmt.Fprintln(os.Stderr, "brain: "+msg)
	os.Exit(1)
}

func exitOn(err error) {
	if err != nil {
		log.Fatalf("brain: %v", err)
	}
}

func printJSON(v interface{}) {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	_ = enc.Encode(v)
}
