package monitor

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/hamed0406/online/internal/domain"
	"github.com/hamed0406/online/internal/repo/memory"
	"github.com/hamed0406/online/probe"
)

// --- fakes ---

type scriptedChecker struct {
	mu       sync.Mutex
	reports  []probe.Report
	i        int
	timeouts []*time.Duration
}

func (s *scriptedChecker) Probe(ctx context.Context, timeout *time.Duration) probe.Report {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.timeouts = append(s.timeouts, timeout)
	if s.i >= len(s.reports) {
		return probe.Report{Err: errors.New("no more")}
	}
	r := s.reports[s.i]
	s.i++
	return r
}

func (s *scriptedChecker) calls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.timeouts)
}

var (
	online  = probe.Report{Online: true, Target: probe.DefaultPrimary, Role: probe.RolePrimary, Latency: time.Millisecond}
	offline = probe.Report{Err: &probe.CheckError{
		Primary: &probe.TargetError{Target: probe.DefaultPrimary, Kind: probe.KindTimedOut, Err: probe.ErrTimedOut},
		Backup:  probe.ErrTimedOut,
	}}
)

// --- tests ---

func TestMonitor_CountStoresResults(t *testing.T) {
	chk := &scriptedChecker{reports: []probe.Report{offline, online, online}}
	store := memory.New(8)
	var seen []domain.CheckResult

	m := NewMonitor(zap.NewNop(), chk, store, time.Millisecond, probe.Seconds(2))
	m.Count = 3
	m.OnResult = func(cr domain.CheckResult) { seen = append(seen, cr) }

	s := m.Run(context.Background())
	if s.Checks != 3 || s.Online != 2 {
		t.Fatalf("unexpected summary: %+v", s)
	}
	if len(seen) != 3 || seen[0].Online || seen[0].Kind != "timed_out" {
		t.Fatalf("unexpected results: %+v", seen)
	}
	h, _ := store.History(context.Background(), 0)
	if len(h) != 3 || !h[0].Online {
		t.Fatalf("store not filled: %+v", h)
	}
	if *chk.timeouts[0] != 2*time.Second {
		t.Fatalf("timeout not forwarded: %v", *chk.timeouts[0])
	}
}

func TestMonitor_StopOnSuccess(t *testing.T) {
	chk := &scriptedChecker{reports: []probe.Report{offline, offline, online, online}}
	m := NewMonitor(nil, chk, nil, time.Millisecond, nil)
	m.StopOnSuccess = true

	s := m.Run(context.Background())
	if s.Checks != 3 || s.Online != 1 {
		t.Fatalf("want stop after third check, got %+v", s)
	}
}

func TestMonitor_DisabledWithoutIntervalOrCount(t *testing.T) {
	chk := &scriptedChecker{reports: []probe.Report{online}}
	s := NewMonitor(nil, chk, nil, 0, nil).Run(context.Background())
	if s.Checks != 0 || chk.calls() != 0 {
		t.Fatalf("disabled monitor should not check: %+v", s)
	}
}

func TestMonitor_StopsOnCancel(t *testing.T) {
	chk := &scriptedChecker{reports: []probe.Report{online, online, online, online, online}}
	m := NewMonitor(nil, chk, nil, time.Hour, nil)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan Summary, 1)
	go func() { done <- m.Run(ctx) }()

	time.Sleep(20 * time.Millisecond)
	cancel()
	select {
	case s := <-done:
		if s.Checks != 1 {
			t.Fatalf("want only the immediate check, got %+v", s)
		}
	case <-time.After(time.Second):
		t.Fatal("monitor did not stop")
	}
}
