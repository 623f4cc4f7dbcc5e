// Command sleep runs one or more named consolidation phases directly
// (spec.md §6 "Sleep: <phase…> (default = full ordered cycle)"). It is a
// thinner alternative to `cognitive sleep` for scripts that only ever
// drive the sleep cycle.
package main

import (
	"context"
	"encoding/json"
	"log"
	"os"

	"github.com/nullgraph/brain/internal/brain"
	"github.com/nullgraph/brain/internal/config"
)

func main() {
	log.SetFlags(0)

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("sleep: load config: %v", err)
	}
	ctx := context.Background()
	b, err := brain.Open(ctx, cfg)
	if err != nil {
		log.Fatalf("sleep: open: %v", err)
	}
	defer b.Close()

	phases := os.Args[1:]
	out, err := b.SleepCycle(ctx, phases)
	if err != nil {
		log.Fatalf("sleep: %v", err)
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	_ = enc.Encode(out)
}
