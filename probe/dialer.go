package probe

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/url"
	"strings"
	"syscall"
	"time"

	"github.com/benbjohnson/clock"
	"golang.org/x/net/proxy"
)

// Dialer opens one TCP connection to address. A timeout <= 0 leaves the
// bound to the OS. When a positive timeout elapses first the dialer returns
// ErrTimedOut; any other failure is returned as is.
type Dialer interface {
	DialTimeout(ctx context.Context, address string, timeout time.Duration) (net.Conn, error)
}

// Strategy names an execution model for the connect primitive.
type Strategy string

const (
	// StrategyBlocking uses the native bounded connect of net.Dialer on the
	// calling goroutine.
	StrategyBlocking Strategy = "blocking"
	// StrategyAsync runs the connect in its own goroutine and races it
	// against a timer.
	StrategyAsync Strategy = "async"
	// StrategyClock races a proxy.ContextDialer against a timer taken from
	// an injectable clock.
	StrategyClock Strategy = "clock"
)

// ParseStrategy maps a configuration string to a Strategy. Empty means blocking.
func ParseStrategy(s string) (Strategy, error) {
	switch st := Strategy(strings.ToLower(strings.TrimSpace(s))); st {
	case "":
		return StrategyBlocking, nil
	case StrategyBlocking, StrategyAsync, StrategyClock:
		return st, nil
	}
	return "", fmt.Errorf("unknown strategy %q", s)
}

type dialerOptions struct {
	clock   clock.Clock
	forward proxy.ContextDialer
}

// DialerOption tunes NewDialer.
type DialerOption func(*dialerOptions)

// WithClock sets the timer source of the clock strategy.
func WithClock(c clock.Clock) DialerOption {
	return func(o *dialerOptions) { o.clock = c }
}

// WithForward sets the connect primitive of the clock strategy.
func WithForward(d proxy.ContextDialer) DialerOption {
	return func(o *dialerOptions) { o.forward = d }
}

// NewDialer builds the Dialer for strategy.
func NewDialer(strategy Strategy, opts ...DialerOption) (Dialer, error) {
	o := dialerOptions{}
	for _, fn := range opts {
		fn(&o)
	}
	switch strategy {
	case StrategyBlocking, "":
		return &BlockingDialer{}, nil
	case StrategyAsync:
		return &AsyncDialer{}, nil
	case StrategyClock:
		return &ClockDialer{Clock: o.clock, Forward: o.forward}, nil
	}
	return nil, fmt.Errorf("unknown strategy %q", strategy)
}

// ProxyDialer returns a connect primitive going through the proxy at raw,
// e.g. "socks5://127.0.0.1:1080".
func ProxyDialer(raw string) (proxy.ContextDialer, error) {
	u, err := url.Parse(raw)
	if err != nil {
		return nil, fmt.Errorf("parse proxy url: %w", err)
	}
	d, err := proxy.FromURL(u, proxy.Direct)
	if err != nil {
		return nil, fmt.Errorf("proxy %s: %w", u.Redacted(), err)
	}
	if cd, ok := d.(proxy.ContextDialer); ok {
		return cd, nil
	}
	return contextless{d}, nil
}

type contextless struct{ proxy.Dialer }

func (c contextless) DialContext(ctx context.Context, network, address string) (net.Conn, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return c.Dial(network, address)
}

// BlockingDialer connects on the calling goroutine using net.Dialer's own timeout.
type BlockingDialer struct {
	// Control, when set, is handed to net.Dialer.Control and runs after the
	// socket is created and before it connects (e.g. to set socket options).
	Control func(network, address string, c syscall.RawConn) error
}

func (b BlockingDialer) DialTimeout(ctx context.Context, address string, timeout time.Duration) (net.Conn, error) {
	d := net.Dialer{Control: b.Control}
	if timeout > 0 {
		d.Timeout = timeout
	}
	conn, err := d.DialContext(ctx, "tcp", address)
	if err != nil && timeout > 0 && ctx.Err() == nil && isTimeout(err) {
		return nil, ErrTimedOut
	}
	return conn, err
}

func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var ne net.Error
	return errors.As(err, &ne) && ne.Timeout()
}

// AsyncDialer runs the connect in a separate goroutine and awaits it with a deadline.
type AsyncDialer struct {
	// Dial defaults to (&net.Dialer{}).DialContext.
	Dial func(ctx context.Context, network, address string) (net.Conn, error)
}

func (a *AsyncDialer) DialTimeout(ctx context.Context, address string, timeout time.Duration) (net.Conn, error) {
	dial := a.Dial
	if dial == nil {
		dial = (&net.Dialer{}).DialContext
	}
	op := func(ctx context.Context) (net.Conn, error) {
		return dial(ctx, "tcp", address)
	}
	var deadline <-chan time.Time
	if timeout > 0 {
		t := time.NewTimer(timeout)
		defer t.Stop()
		deadline = t.C
	}
	return awaitDeadline(ctx, deadline, op, closeConn)
}

// ClockDialer races Forward against a timer from Clock.
type ClockDialer struct {
	// Clock defaults to the wall clock.
	Clock clock.Clock
	// Forward defaults to proxy.Direct.
	Forward proxy.ContextDialer
}

func (c *ClockDialer) DialTimeout(ctx context.Context, address string, timeout time.Duration) (net.Conn, error) {
	clk := c.Clock
	if clk == nil {
		clk = clock.New()
	}
	fwd := c.Forward
	if fwd == nil {
		fwd = proxy.Direct
	}
	var deadline <-chan time.Time
	if timeout > 0 {
		t := clk.Timer(timeout)
		defer t.Stop()
		deadline = t.C
	}
	op := func(ctx context.Context) (net.Conn, error) {
		return fwd.DialContext(ctx, "tcp", address)
	}
	return awaitDeadline(ctx, deadline, op, closeConn)
}

func closeConn(c net.Conn) {
	if c != nil {
		_ = c.Close()
	}
}
