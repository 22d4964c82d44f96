package probe

import (
	"context"
	"errors"
	"fmt"
	"net"
	"time"
)

// Target is a host:port endpoint probed for TCP reachability.
type Target string

const (
	DefaultPrimary Target = "clients3.google.com:80"
	DefaultBackup  Target = "detectportal.firefox.com:80"
)

func (t Target) String() string { return string(t) }

// Resolver looks up the addresses of a host name.
// *net.Resolver satisfies it.
type Resolver interface {
	LookupHost(ctx context.Context, host string) ([]string, error)
}

// Connector makes exactly one bounded connection attempt to a Target.
type Connector struct {
	Dialer   Dialer
	Resolver Resolver
}

// Connect opens and immediately closes a connection to target. A positive
// timeout bounds the whole attempt, name resolution included. Every failure
// is a *TargetError.
func (c *Connector) Connect(ctx context.Context, target Target, timeout time.Duration) error {
	if err := c.connect(ctx, target, timeout); err != nil {
		return newTargetError(target, err)
	}
	return nil
}

func (c *Connector) connect(ctx context.Context, target Target, timeout time.Duration) error {
	host, port, err := net.SplitHostPort(string(target))
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUnresolvable, err)
	}
	if host == "" {
		return fmt.Errorf("%w: missing host in %q", ErrUnresolvable, string(target))
	}

	var expires time.Time
	if timeout > 0 {
		expires = time.Now().Add(timeout)
	}

	addrs, err := c.resolve(ctx, host, timeout)
	if err != nil {
		return err
	}

	var first error
	for _, addr := range addrs {
		budget := timeout
		if timeout > 0 {
			budget = time.Until(expires)
			if budget <= 0 {
				return ErrTimedOut
			}
		}
		conn, err := c.dialer().DialTimeout(ctx, net.JoinHostPort(addr, port), budget)
		if err == nil {
			_ = conn.Close()
			return nil
		}
		if first == nil {
			first = err
		}
		if ctx.Err() != nil || errors.Is(err, ErrTimedOut) {
			break
		}
	}
	return first
}

func (c *Connector) resolve(ctx context.Context, host string, timeout time.Duration) ([]string, error) {
	if ip := net.ParseIP(host); ip != nil {
		return []string{host}, nil
	}

	lctx := ctx
	if timeout > 0 {
		var cancel context.CancelFunc
		lctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}
	addrs, err := c.resolver().LookupHost(lctx, host)
	switch {
	case err != nil && ctx.Err() != nil:
		return nil, ctx.Err()
	case err != nil && lctx.Err() != nil:
		return nil, ErrTimedOut
	case err != nil:
		return nil, fmt.Errorf("%w: %v", ErrUnresolvable, err)
	case len(addrs) == 0:
		return nil, fmt.Errorf("%w: %s", ErrUnresolvable, host)
	}
	return addrs, nil
}

func (c *Connector) dialer() Dialer {
	if c.Dialer == nil {
		return BlockingDialer{}
	}
	return c.Dialer
}

func (c *Connector) resolver() Resolver {
	if c.Resolver == nil {
		return net.DefaultResolver
	}
	return c.Resolver
}
