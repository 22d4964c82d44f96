package repo

import (
	"context"

	"github.com/hamed0406/online/internal/domain"
)

// ResultStore keeps the history of connectivity checks.
type ResultStore interface {
	Append(ctx context.Context, r *domain.CheckResult) error
	// Latest returns nil, nil before the first check.
	Latest(ctx context.Context) (*domain.CheckResult, error)
	// History returns up to limit results, newest first.
	History(ctx context.Context, limit int) ([]domain.CheckResult, error)
}
