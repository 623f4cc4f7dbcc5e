package server_test

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"testing"
	"time"

	"github.com/nullgraph/brain/internal/brain"
	"github.com/nullgraph/brain/internal/config"
	"github.com/nullgraph/brain/internal/server"
	"github.com/stretchr/testify/require"
)

// startTestBrain opens a Brain against a throwaway sqlite data directory and
// registers cleanup. EMBEDDING_PROVIDER is left at its "local" default so no
// network call happens unless a test actually adds a memory.
func startTestBrain(t *testing.T) (*brain.Brain, *config.Config) {
	t.Helper()
	cfg, err := config.LoadConfig()
	require.NoError(t, err)
	cfg.Storage.DataPath = t.TempDir()
	cfg.Server.Host = "127.0.0.1"
	cfg.Server.Port = 0

	b, err := brain.Open(context.Background(), cfg)
	require.NoError(t, err)
	t.Cleanup(func() { _ = b.Close() })
	return b, cfg
}

func startTestServer(t *testing.T) (string, context.CancelFunc) {
	t.Helper()
	b, cfg := startTestBrain(t)

	ctx, cancel := context.WithCancel(context.Background())
	addrCh := make(chan string, 1)
	go func() {
		addr, _ := server.Start(ctx, cfg, b)
		addrCh <- addr
	}()

	var addr string
	select {
	case addr = <-addrCh:
	case <-time.After(5 * time.Second):
		cancel()
		t.Fatal("server did not start within timeout")
	}
	return addr, cancel
}

func TestHealthEndpointRequiresNoAuth(t *testing.T) {
	addr, cancel := startTestServer(t)
	defer cancel()

	resp, err := http.Get("http://" + addr + "/api/health")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	body, _ := io.ReadAll(resp.Body)
	var payload map[string]string
	require.NoError(t, json.Unmarshal(body, &payload))
	require.Equal(t, "healthy", payload["status"])
}

func TestStatsEndpointAllowsInDevelopmentMode(t *testing.T) {
	addr, cancel := startTestServer(t)
	defer cancel()

	resp, err := http.Get("http://" + addr + "/api/stats")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestSearchEndpointReturnsEmptyResultsOnEmptyGraph(t *testing.T) {
	addr, cancel := startTestServer(t)
	defer cancel()

	resp, err := http.Get("http://" + addr + "/api/search?q=anything&compact=true")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	body, _ := io.ReadAll(resp.Body)
	var payload map[string]interface{}
	require.NoError(t, json.Unmarshal(body, &payload))
	results, ok := payload["results"].([]interface{})
	require.True(t, ok)
	require.Empty(t, results)
}

func TestSleepEndpointRejectsGet(t *testing.T) {
	addr, cancel := startTestServer(t)
	defer cancel()

	resp, err := http.Get("http://" + addr + "/api/sleep")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusMethodNotAllowed, resp.StatusCode)
}
