package cmd

import (
	"context"
	"testing"
	"time"
)

// TestServeCmd_StopsOnContextCancel confirms the server shuts down promptly
// once its context is canceled, rather than hanging on its stdio transport.
func TestServeCmd_StopsOnContextCancel(t *testing.T) {
	testDir := t.TempDir()
	writeTestProject(t, testDir)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	serveCmd := NewRootCmd()
	serveCmd.SetArgs([]string{"serve", testDir})

	done := make(chan error, 1)
	go func() {
		done <- serveCmd.ExecuteContext(ctx)
	}()

	// give the server a moment to finish opening the index and start serving
	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case <-done:
		// server stopped
	case <-time.After(5 * time.Second):
		t.Fatal("serve did not return within 5s of context cancellation")
	}
}
