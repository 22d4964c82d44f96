package probe

import (
	"context"
	"net"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

// listen returns the address of a local listener accepting connections.
func listen(t *testing.T) string {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	t.Cleanup(func() { _ = ln.Close() })
	go func() {
		for {
			c, err := ln.Accept()
			if err != nil {
				return
			}
			_ = c.Close()
		}
	}()
	return ln.Addr().String()
}

// closedAddr returns a local address nobody listens on.
func closedAddr(t *testing.T) string {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	addr := ln.Addr().String()
	require.NoError(t, ln.Close())
	return addr
}

// recordingDialer records every address and delegates to per-address
// behaviour, falling back to a real connect.
type recordingDialer struct {
	mu    sync.Mutex
	calls []string
	hang  map[string]bool
}

func (r *recordingDialer) DialTimeout(ctx context.Context, address string, timeout time.Duration) (net.Conn, error) {
	r.mu.Lock()
	r.calls = append(r.calls, address)
	hang := r.hang[address]
	r.mu.Unlock()
	inner := &AsyncDialer{}
	if hang {
		inner.Dial = blockingDial
	}
	return inner.DialTimeout(ctx, address, timeout)
}

func (r *recordingDialer) Calls() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.calls...)
}

// blockingDial never connects; it returns once ctx is done.
func blockingDial(ctx context.Context, _, _ string) (net.Conn, error) {
	<-ctx.Done()
	return nil, ctx.Err()
}

type fakeResolver struct {
	mu    sync.Mutex
	hosts map[string][]string
	calls int
	hang  bool
}

func (f *fakeResolver) LookupHost(ctx context.Context, host string) ([]string, error) {
	f.mu.Lock()
	f.calls++
	f.mu.Unlock()
	if f.hang {
		<-ctx.Done()
		return nil, ctx.Err()
	}
	addrs, ok := f.hosts[host]
	if !ok {
		return nil, &net.DNSError{Err: "no such host", Name: host, IsNotFound: true}
	}
	return addrs, nil
}

func (f *fakeResolver) Calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

func ms(n int) *time.Duration {
	d := time.Duration(n) * time.Millisecond
	return &d
}
