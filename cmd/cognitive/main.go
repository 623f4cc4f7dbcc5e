// Command cognitive wraps the higher-level maintenance operations (spec.md
// §6 "Cognitive: consolidate | decay | archive | sleep [phase…] | daily |
// weekly | health"). daily/weekly are named shortcuts over sleep_cycle's
// phase list; archive and health call internal/health directly since
// add-on maintenance outside the ordered sleep cycle.
package main

import (
	"context"
	"encoding/json"
	"log"
	"os"

	"github.com/nullgraph/brain/internal/brain"
	"github.com/nullgraph/brain/internal/config"
	"github.com/nullgraph/brain/internal/health"
)

// archiveThreshold is the strength below which a node is archived (spec.md
// §4.7 "archive weak, unprotected memories"). 0.1 matches health's own
// decay/archive boundary discussion.
const archiveThreshold = 0.1

// dailyPhases and weeklyPhases are cognitive.py's named shortcuts over
// sleep_cycle's phase registry: daily is the lightweight default cycle,
// weekly adds the heavier dedup/promote/insights/gaps phases.
var (
	dailyPhases  = []string{"connect", "relate", "themes", "calibrate", "decay"}
	weeklyPhases = []string{"dedup", "connect", "relate", "themes", "calibrate", "promote", "insights", "gaps", "decay"}
)

func main() {
	log.SetFlags(0)
	if len(os.Args) < 2 {
		log.Fatal("usage: cognitive <consolidate|decay|archive|sleep|daily|weekly|health> [phase...]")
	}

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("cognitive: load config: %v", err)
	}
	ctx := context.Background()
	b, err := brain.Open(ctx, cfg)
	if err != nil {
		log.Fatalf("cognitive: open: %v", err)
	}
	defer b.Close()

	cmd, args := os.Args[1], os.Args[2:]
	switch cmd {
	case "consolidate":
		out, err := b.Consolidate(ctx)
		exitOn(err)
		printJSON(out)
	case "decay":
		out, err := b.ApplyDecay(ctx)
		exitOn(err)
		printJSON(out)
	case "archive":
		out, err := health.Archive(ctx, b.Store(), archiveThreshold)
		exitOn(err)
		printJSON(out)
	case "sleep":
		out, err := b.SleepCycle(ctx, args)
		exitOn(err)
		printJSON(out)
	case "daily":
		out, err := b.SleepCycle(ctx, dailyPhases)
		exitOn(err)
		printJSON(out)
	case "weekly":
		out, err := b.SleepCycle(ctx, weeklyPhases)
		exitOn(err)
		printJSON(out)
	case "health":
		report, err := health.HealthCheck(ctx, b.Store())
		exitOn(err)
		printJSON(report)
	default:
		log.Fatalf("cognitive: unknown subcommand %q", cmd)
	}
}

func exitOn(err error) {
	if err != nil {
		log.Fatalf("cognitive: %v", err)
	}
}

func printJSON(v interface{}) {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	_ = enc.Encode(v)
}
