package api

import (
	"context"
	"io"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func TestDefaultServerConfig(t *testing.T) {
	config := DefaultServerConfig(":8080", http.NotFoundHandler())

	assert.Equal(t, ":8080", config.Address)
	assert.Equal(t, 15*time.Second, config.ReadTimeout)
	assert.Equal(t, 15*time.Second, config.WriteTimeout)
	assert.Equal(t, 60*time.Second, config.IdleTimeout)
	assert.Equal(t, 30*time.Second, config.ShutdownTimeout)
}

func TestNewServerErrors(t *testing.T) {
	_, err := NewServer(nil)
	assert.Error(t, err)

	_, err = NewServer(DefaultServerConfig(":8080", nil))
	assert.Error(t, err)
}

func TestServerRunAndShutdown(t *testing.T) {
	store := newTestStore(t)
	config := DefaultServerConfig("127.0.0.1:0", NewRouter(store, Options{}))
	config.Logger = zaptest.NewLogger(t)

	srv, err := NewServer(config)
	require.NoError(t, err)
	require.NoError(t, srv.Listen())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- srv.Run(ctx) }()

	resp, err := http.Get("http://" + srv.Addr() + "/healthz")
	require.NoError(t, err)
	body, err := io.ReadAll(resp.Body)
	resp.Body.Close()
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.JSONEq(t, `{"status":"ok"}`, string(body))

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not shut down")
	}
}

func TestServerListenError(t *testing.T) {
	first, err := NewServer(DefaultServerConfig("127.0.0.1:0", http.NotFoundHandler()))
	require.NoError(t, err)
	require.NoError(t, first.Listen())
	t.Cleanup(func() { first.listener.Close() })

	second, err := NewServer(DefaultServerConfig(first.Addr(), http.NotFoundHandler()))
	require.NoError(t, err)
	assert.Error(t, second.Run(context.Background()))
}
