package probe

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
)

// NoTimeout means the connect is not bounded and the OS decides when to give up.
const NoTimeout time.Duration = 0

// MaxSeconds is the largest whole-second bound a time.Duration can hold.
const MaxSeconds = uint64(math.MaxInt64 / int64(time.Second))

// ErrTimeoutTooLarge is returned for a whole-second bound above MaxSeconds.
var ErrTimeoutTooLarge = errors.New("timeout too large")

// NormalizeTimeout validates a caller supplied bound.
//
// A nil bound maps to NoTimeout. Zero (or negative) is a configuration error,
// it never means "wait forever".
func NormalizeTimeout(raw *time.Duration) (time.Duration, error) {
	if raw == nil {
		return NoTimeout, nil
	}
	if *raw == 0 {
		return 0, ErrInvalidTimeout
	}
	if *raw < 0 {
		return 0, fmt.Errorf("%w: got %v", ErrInvalidTimeout, *raw)
	}
	return *raw, nil
}

// NormalizeSeconds is NormalizeTimeout for a bound given in whole seconds.
func NormalizeSeconds(raw *uint64) (time.Duration, error) {
	if raw == nil {
		return NoTimeout, nil
	}
	if *raw == 0 {
		return 0, ErrInvalidTimeout
	}
	return fromSeconds(*raw)
}

func fromSeconds(n uint64) (time.Duration, error) {
	if n > MaxSeconds {
		return 0, fmt.Errorf("%w: %d seconds (max %d)", ErrTimeoutTooLarge, n, MaxSeconds)
	}
	return time.Duration(n) * time.Second, nil
}

// Seconds returns a bound of n whole seconds. Values above MaxSeconds
// saturate at MaxSeconds.
func Seconds(n uint64) *time.Duration {
	d := time.Duration(min(n, MaxSeconds)) * time.Second
	return &d
}

// ParseTimeout reads a bound written as whole seconds ("5") or as a Go
// duration ("1500ms"). Empty input means no bound and yields nil. The result
// is validated like NormalizeTimeout, so "0" fails with ErrInvalidTimeout.
func ParseTimeout(raw string) (*time.Duration, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, nil
	}
	var d time.Duration
	if n, err := strconv.ParseUint(raw, 10, 64); err == nil {
		if d, err = fromSeconds(n); err != nil {
			return nil, err
		}
	} else if d, err = time.ParseDuration(raw); err != nil {
		return nil, fmt.Errorf("timeout %q: %w", raw, err)
	}
	if _, err := NormalizeTimeout(&d); err != nil {
		return nil, err
	}
	return &d, nil
}
