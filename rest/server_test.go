package rest

import (
	"net"
	"net/http"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestServerStop(t *testing.T) {
	s, err := NewServer(0, nil, nil, nil, nil, nil, nil)
	require.NoError(t, err)

	l, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	served := make(chan error, 1)
	go func() {
		served <- s.Serve(l)
	}()

	// Stop surfaces the shutdown result so callers can report it
	require.NoError(t, s.Stop())
	require.ErrorIs(t, <-served, http.ErrServerClosed)
}
