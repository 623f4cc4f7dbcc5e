// Command diffparser is a dev tool that runs the unified-diff analyzer
// standalone (spec.md §6 "Diff parser: <commit_hash> or --stdin"), printing
// the change_shape classification and extracted symbols without touching
// the graph. Useful for checking classification behavior on a specific
// commit while iterating on internal/ingestion/git.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"os"
	"os/exec"

	"github.com/nullgraph/brain/internal/ingestion/git"
)

func main() {
	log.SetFlags(0)
	if len(os.Args) < 2 {
		log.Fatal("usage: diffparser <commit_hash> | --stdin")
	}

	var raw string
	if os.Args[1] == "--stdin" {
		data, err := io.ReadAll(os.Stdin)
		if err != nil {
			log.Fatalf("diffparser: read stdin: %v", err)
		}
		raw = string(data)
	} else {
		cmd := exec.CommandContext(context.Background(), "git", "log", "-p", "-1", os.Args[1])
		out, err := cmd.Output()
		if err != nil {
			log.Fatalf("diffparser: git log -p %s: %v", os.Args[1], err)
		}
		raw = string(out)
	}

	result, err := git.AnalyzeDiff(raw)
	if err != nil {
		log.Fatalf("diffparser: %v", err)
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(result); err != nil {
		fmt.Fprintln(os.Stderr, err)
	}
}
