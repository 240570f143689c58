package server

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/funvibe/concepts/internal/config"
)

func TestServeStopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- newTestService(t).Serve(ctx, config.Server{HTTPAddr: "127.0.0.1:0", GRPCAddr: "127.0.0.1:0"}, nil)
	}()

	time.Sleep(50 * time.Millisecond)
	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("Serve did not return after cancel")
	}
}

func TestServeListenError(t *testing.T) {
	err := newTestService(t).Serve(context.Background(), config.Server{HTTPAddr: "256.0.0.1:http"}, nil)
	assert.Error(t, err)
}
