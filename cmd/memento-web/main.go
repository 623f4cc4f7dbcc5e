// Command memento-web runs the optional HTTP+WebSocket status/search
// surface (spec.md §6 Environment, Features.EnableServer) in the
// foreground until interrupted. It is a thin wrapper over internal/server
// — the CLIs in the rest of cmd/ talk to the Query API directly and do
// not need this process running.
package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/nullgraph/brain/internal/brain"
	"github.com/nullgraph/brain/internal/config"
	"github.com/nullgraph/brain/internal/server"
)

func main() {
	log.SetFlags(0)

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("memento-web: load config: %v", err)
	}
	if !cfg.Features.EnableServer {
		log.Fatal("memento-web: Features.EnableServer is false; set BRAIN_ENABLE_SERVER=true to run this command")
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	b, err := brain.Open(ctx, cfg)
	if err != nil {
		log.Fatalf("memento-web: open: %v", err)
	}
	defer b.Close()

	addr, _ := server.Start(ctx, cfg, b)
	log.Printf("memento-web: listening on %s", addr)

	<-ctx.Done()
	log.Print("memento-web: shutting down")
}
