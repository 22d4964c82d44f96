package domain

import (
	"time"

	"github.com/hamed0406/online/probe"
)

// CheckResult is one connectivity check as stored and served by the API.
type CheckResult struct {
	ID        int64     `json:"id"`
	Online    bool      `json:"online"`
	Target    string    `json:"target,omitempty"` // endpoint that answered
	Role      string    `json:"role,omitempty"`   // primary | backup
	Kind      string    `json:"kind,omitempty"`   // error label when offline
	Reason    string    `json:"reason,omitempty"`
	LatencyMS float64   `json:"latency_ms"`
	CheckedAt time.Time `json:"checked_at"`
}

// FromReport converts a probe report taken at the given time.
func FromReport(rep probe.Report, at time.Time) CheckResult {
	cr := CheckResult{
		Online:    rep.Online,
		Target:    string(rep.Target),
		Role:      string(rep.Role),
		LatencyMS: rep.Latency.Seconds() * 1000,
		CheckedAt: at.UTC(),
	}
	if rep.Err != nil {
		cr.Kind = string(probe.KindOf(rep.Err))
		cr.Reason = rep.Err.Error()
	}
	return cr
}
