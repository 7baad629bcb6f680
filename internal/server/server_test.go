package server

import (
	"context"
	"net"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/linetap/linetap/internal/domain"
	"github.com/linetap/linetap/pkg/lifecycle"
)

func startTestServer(t *testing.T, window time.Duration) (*Server, chan []string) {
	t.Helper()

	sinkCh := make(chan []string, 32)
	srv, err := New(Config{
		Port:        0,
		FlushWindow: window,
		Sink:        func(records []string) { sinkCh <- records },
	})
	require.NoError(t, err)
	require.NoError(t, srv.Start(t.Context()))
	t.Cleanup(func() { _ = srv.Stop() })

	return srv, sinkCh
}

func dialTestServer(t *testing.T, srv *Server) net.Conn {
	t.Helper()

	_, port, err := net.SplitHostPort(srv.Addr().String())
	require.NoError(t, err)

	conn, err := net.Dial("tcp", net.JoinHostPort("127.0.0.1", port))
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })
	return conn
}

func waitBatch(t *testing.T, sinkCh chan []string) []string {
	t.Helper()
	select {
	case records := <-sinkCh:
		return records
	case <-time.After(3 * time.Second):
		t.Fatal("timed out waiting for a flushed batch")
		return nil
	}
}

func TestServer_EndToEnd(t *testing.T) {
	srv, sinkCh := startTestServer(t, 30*time.Millisecond)
	conn := dialTestServer(t, srv)

	_, err := conn.Write([]byte("hello\nworld\n"))
	require.NoError(t, err)

	assert.Equal(t, []string{"hello", "world"}, waitBatch(t, sinkCh))
}

func TestServer_SplitWrites(t *testing.T) {
	srv, sinkCh := startTestServer(t, 30*time.Millisecond)
	conn := dialTestServer(t, srv)

	// Record split across two writes must reassemble into one record.
	_, err := conn.Write([]byte("hel"))
	require.NoError(t, err)
	time.Sleep(10 * time.Millisecond)
	_, err = conn.Write([]byte("lo\nworld\n"))
	require.NoError(t, err)

	assert.Equal(t, []string{"hello", "world"}, waitBatch(t, sinkCh))
}

func TestServer_ResidualFlushOnClose(t *testing.T) {
	srv, sinkCh := startTestServer(t, 30*time.Millisecond)
	conn := dialTestServer(t, srv)

	_, err := conn.Write([]byte("orphan"))
	require.NoError(t, err)
	require.NoError(t, conn.Close())

	assert.Equal(t, []string{"orphan"}, waitBatch(t, sinkCh))
}

func TestServer_Inject(t *testing.T) {
	srv, sinkCh := startTestServer(t, 30*time.Millisecond)

	require.NoError(t, srv.Inject("local record"))
	require.NoError(t, srv.Inject("   ")) // dropped by whitespace policy

	assert.Equal(t, []string{"local record"}, waitBatch(t, sinkCh))
}

func TestServer_Inject_NotRunning(t *testing.T) {
	srv, err := New(Config{Sink: func([]string) {}})
	require.NoError(t, err)

	assert.ErrorIs(t, srv.Inject("x"), domain.ErrNotRunning)
}

func TestServer_StartErrors(t *testing.T) {
	srv, _ := startTestServer(t, 30*time.Millisecond)

	err := srv.Start(t.Context())
	assert.ErrorIs(t, err, domain.ErrAlreadyRunning)
	assert.Equal(t, lifecycle.StateRunning, srv.State())
}

func TestServer_StopIdempotent(t *testing.T) {
	srv, err := New(Config{Sink: func([]string) {}})
	require.NoError(t, err)

	// Stopping a never-started server succeeds with no side effects.
	assert.NoError(t, srv.Stop())
	assert.Equal(t, lifecycle.StateStopped, srv.State())

	require.NoError(t, srv.Start(t.Context()))
	assert.NoError(t, srv.Stop())
	assert.NoError(t, srv.Stop())
	assert.Equal(t, lifecycle.StateStopped, srv.State())
}

func TestServer_RestartAfterStop(t *testing.T) {
	srv, sinkCh := startTestServer(t, 30*time.Millisecond)
	require.NoError(t, srv.Stop())

	require.NoError(t, srv.Start(t.Context()))
	conn := dialTestServer(t, srv)
	_, err := conn.Write([]byte("again\n"))
	require.NoError(t, err)

	assert.Equal(t, []string{"again"}, waitBatch(t, sinkCh))
}

func TestServer_BindConflict(t *testing.T) {
	first, _ := startTestServer(t, 30*time.Millisecond)

	_, port, err := net.SplitHostPort(first.Addr().String())
	require.NoError(t, err)

	portNum, err := strconv.Atoi(port)
	require.NoError(t, err)

	second, err := New(Config{
		Port: portNum,
		Sink: func([]string) {},
	})
	require.NoError(t, err)

	err = second.Start(t.Context())
	require.Error(t, err)
	assert.Equal(t, lifecycle.StateStopped, second.State())
	// The first server is unaffected.
	assert.Equal(t, lifecycle.StateRunning, first.State())
}

func TestServer_MultipleProducers(t *testing.T) {
	srv, sinkCh := startTestServer(t, 50*time.Millisecond)

	connA := dialTestServer(t, srv)
	connB := dialTestServer(t, srv)

	_, err := connA.Write([]byte("a1\na2\n"))
	require.NoError(t, err)
	_, err = connB.Write([]byte("b1\n"))
	require.NoError(t, err)

	var all []string
	deadline := time.Now().Add(3 * time.Second)
	for len(all) < 3 && time.Now().Before(deadline) {
		select {
		case records := <-sinkCh:
			all = append(all, records...)
		case <-time.After(100 * time.Millisecond):
		}
	}

	// Interleaving across connections is unspecified, but each
	// connection's records keep their relative order.
	assert.Len(t, all, 3)
	assert.Contains(t, all, "b1")
	assert.Less(t, indexOf(all, "a1"), indexOf(all, "a2"))
}

func TestServer_ConnectionsTracked(t *testing.T) {
	srv, _ := startTestServer(t, 30*time.Millisecond)
	conn := dialTestServer(t, srv)

	require.Eventually(t, func() bool { return srv.Connections() == 1 },
		time.Second, 10*time.Millisecond)

	require.NoError(t, conn.Close())
	require.Eventually(t, func() bool { return srv.Connections() == 0 },
		time.Second, 10*time.Millisecond)
}

func TestServer_StartWhileStoppingRejected(t *testing.T) {
	// A sink blocked on release holds Stop in the Stopping state while it
	// delivers the final batch.
	release := make(chan struct{})
	srv, err := New(Config{
		Port:        0,
		FlushWindow: time.Minute,
		Sink:        func(records []string) { <-release },
	})
	require.NoError(t, err)
	require.NoError(t, srv.Start(t.Context()))

	require.NoError(t, srv.Inject("pending"))

	stopDone := make(chan error, 1)
	go func() { stopDone <- srv.Stop() }()

	require.Eventually(t, func() bool { return srv.State() == lifecycle.StateStopping },
		3*time.Second, 5*time.Millisecond)

	assert.ErrorIs(t, srv.Start(t.Context()), domain.ErrAlreadyStopping)

	close(release)
	select {
	case err := <-stopDone:
		require.NoError(t, err)
	case <-time.After(3 * time.Second):
		t.Fatal("Stop did not finish after the sink was released")
	}
	assert.Equal(t, lifecycle.StateStopped, srv.State())
}

func TestServer_StartCancelledContext(t *testing.T) {
	srv, err := New(Config{Port: 0, Sink: func([]string) {}})
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	require.ErrorIs(t, srv.Start(ctx), context.Canceled)
	assert.Equal(t, lifecycle.StateStopped, srv.State())

	// The rejection must not poison the lifecycle.
	require.NoError(t, srv.Start(t.Context()))
	require.NoError(t, srv.Stop())
}

func indexOf(records []string, want string) int {
	for i, r := range records {
		if r == want {
			return i
		}
	}
	return -1
}
