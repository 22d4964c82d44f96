// Package probe tells whether outbound internet connectivity is available by
// opening a TCP connection to a primary well-known host and, if that fails,
// to a backup one.
package probe

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// Role tells which of the two configured targets an attempt was made against.
type Role string

const (
	RolePrimary Role = "primary"
	RoleBackup  Role = "backup"
)

// Attempt describes one finished connection attempt.
type Attempt struct {
	Target  Target
	Role    Role
	Kind    Kind
	Err     error
	Elapsed time.Duration
}

// Report is the outcome of one Probe call.
type Report struct {
	Online bool
	// Target and Role of the endpoint that answered. Empty when offline.
	Target  Target
	Role    Role
	Latency time.Duration
	Err     error
}

// Prober folds a primary and a backup attempt into a single result.
// A Prober is safe for concurrent use once built.
type Prober struct {
	Primary   Target
	Backup    Target
	Connector *Connector
	Logger    *zap.Logger
	// Observe, when set, is called after every attempt.
	Observe func(Attempt)
}

// Option configures New.
type Option func(*Prober)

func WithTargets(primary, backup Target) Option {
	return func(p *Prober) {
		p.Primary = primary
		p.Backup = backup
	}
}

func WithDialer(d Dialer) Option {
	return func(p *Prober) { p.Connector.Dialer = d }
}

func WithResolver(r Resolver) Option {
	return func(p *Prober) { p.Connector.Resolver = r }
}

func WithLogger(l *zap.Logger) Option {
	return func(p *Prober) { p.Logger = l }
}

func WithObserver(fn func(Attempt)) Option {
	return func(p *Prober) { p.Observe = fn }
}

// New returns a Prober for the default targets using the blocking strategy.
func New(opts ...Option) *Prober {
	p := &Prober{
		Primary:   DefaultPrimary,
		Backup:    DefaultBackup,
		Connector: &Connector{},
		Logger:    zap.NewNop(),
	}
	for _, fn := range opts {
		fn(p)
	}
	if p.Logger == nil {
		p.Logger = zap.NewNop()
	}
	return p
}

var defaultProber = New()

// Check reports whether the default targets are reachable.
// A nil timeout lets the OS bound each attempt.
func Check(ctx context.Context, timeout *time.Duration) error {
	return defaultProber.Check(ctx, timeout)
}

// Check returns nil when the primary or the backup accepted a connection.
//
// A zero timeout fails with ErrInvalidTimeout before any I/O. When both
// attempts fail the result is a *CheckError that unwraps to the primary's
// error.
func (p *Prober) Check(ctx context.Context, timeout *time.Duration) error {
	return p.Probe(ctx, timeout).Err
}

// Probe is Check with the details of the answering endpoint.
func (p *Prober) Probe(ctx context.Context, timeout *time.Duration) Report {
	start := time.Now()
	d, err := NormalizeTimeout(timeout)
	if err != nil {
		return Report{Err: err}
	}

	perr := p.attempt(ctx, p.Primary, RolePrimary, d)
	if perr == nil {
		return Report{Online: true, Target: p.Primary, Role: RolePrimary, Latency: time.Since(start)}
	}
	if ctx.Err() != nil {
		return Report{Err: perr, Latency: time.Since(start)}
	}

	berr := p.attempt(ctx, p.Backup, RoleBackup, d)
	if berr == nil {
		return Report{Online: true, Target: p.Backup, Role: RoleBackup, Latency: time.Since(start)}
	}
	return Report{
		Err:     &CheckError{Primary: perr, Backup: berr},
		Latency: time.Since(start),
	}
}

func (p *Prober) attempt(ctx context.Context, t Target, role Role, timeout time.Duration) error {
	conn := p.Connector
	if conn == nil {
		conn = &Connector{}
	}
	start := time.Now()
	err := conn.Connect(ctx, t, timeout)
	a := Attempt{Target: t, Role: role, Kind: KindOf(err), Err: err, Elapsed: time.Since(start)}

	log := p.Logger
	if log == nil {
		log = zap.NewNop()
	}
	if err != nil {
		log.Debug("attempt_failed",
			zap.String("target", string(t)),
			zap.String("role", string(role)),
			zap.String("kind", string(a.Kind)),
			zap.Duration("elapsed", a.Elapsed),
			zap.Error(err),
		)
	} else {
		log.Debug("attempt_ok",
			zap.String("target", string(t)),
			zap.String("role", string(role)),
			zap.Duration("elapsed", a.Elapsed),
		)
	}
	if p.Observe != nil {
		p.Observe(a)
	}
	return err
}
