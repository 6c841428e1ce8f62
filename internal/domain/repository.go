package domain

import (
	"context"
	"time"
)

// ConversionRepository defines persistence for conversion records.
type ConversionRepository interface {
	Create(ctx context.Context, c *Conversion) error
	// Transition moves a pending conversion to a terminal status and stamps
	// completed_at. It returns ErrAlreadyTerminal when the record already
	// left pending.
	Transition(ctx context.Context, id string, status Status, errMsg string, completedAt time.Time) error
	GetByID(ctx context.Context, id string) (*Conversion, error)
	// ListByRequester returns the requester's conversions, newest first.
	ListByRequester(ctx context.Context, r Requester, limit int) ([]Conversion, error)
	CountsByRequester(ctx context.Context, r Requester) (StatsSummary, error)
}
