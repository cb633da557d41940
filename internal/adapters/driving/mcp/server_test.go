package mcp

import (
	"context"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewServer(t *testing.T) {
	t.Run("nil run service returns error", func(t *testing.T) {
		server, err := NewServer(&Ports{})
		require.Error(t, err)
		assert.Nil(t, server)
		assert.ErrorIs(t, err, ErrMissingRunService)
	})

	t.Run("valid ports creates server", func(t *testing.T) {
		server, err := NewServer(&Ports{Runs: &mockRunService{}})
		require.NoError(t, err)
		assert.NotNil(t, server)
		assert.NotNil(t, server.Handler())
	})
}

func TestPorts_Validate(t *testing.T) {
	var nilPorts *Ports
	assert.ErrorIs(t, nilPorts.Validate(), ErrMissingRunService)
	assert.ErrorIs(t, (&Ports{}).Validate(), ErrMissingRunService)
	assert.NoError(t, (&Ports{Runs: &mockRunService{}}).Validate())
}

func TestServer_Serve_StopsOnCancel(t *testing.T) {
	server, err := NewServer(&Ports{Runs: &mockRunService{}})
	require.NoError(t, err)

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() { errCh <- server.Serve(ctx, ln) }()

	require.Eventually(t, func() bool {
		conn, err := net.Dial("tcp", ln.Addr().String())
		if err != nil {
			return false
		}
		conn.Close()
		return true
	}, 2*time.Second, 20*time.Millisecond)

	cancel()

	select {
	case err := <-errCh:
		assert.NoError(t, err)
	case <-time.After(shutdownGrace + time.Second):
		t.Fatal("Serve did not return after cancel")
	}
}

func TestServer_RunHTTP_BadAddress(t *testing.T) {
	server, err := NewServer(&Ports{Runs: &mockRunService{}})
	require.NoError(t, err)

	err = server.RunHTTP(context.Background(), "not-an-address")

	assert.ErrorContains(t, err, "listening on not-an-address")
}
