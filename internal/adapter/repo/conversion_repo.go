package repo

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"converthub/internal/domain"
)

// ConversionRepositoryPG implements domain.ConversionRepository.
type ConversionRepositoryPG struct {
	pool *pgxpool.Pool
}

// NewConversionRepository creates a conversion repository backed by PostgreSQL.
func NewConversionRepository(pool *pgxpool.Pool) *ConversionRepositoryPG {
	return &ConversionRepositoryPG{pool: pool}
}

// Create inserts a new pending conversion record.
func (r *ConversionRepositoryPG) Create(ctx context.Context, c *domain.Conversion) error {
	query := `
INSERT INTO conversions (id, user_id, guest_id, source_category, source_format, target_format, file_name, file_size, status, output_key, created_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11);
`
	_, err := r.pool.Exec(ctx, query,
		c.ID,
		nullableString(c.UserID),
		nullableString(c.GuestID),
		c.SourceCategory,
		c.SourceFormat,
		c.TargetFormat,
		c.FileName,
		c.FileSize,
		c.Status,
		nullableString(c.OutputKey),
		c.CreatedAt,
	)
	return err
}

// Transition moves a pending conversion into a terminal status. The pending
// guard makes the transition single-shot under concurrent updates.
func (r *ConversionRepositoryPG) Transition(ctx context.Context, id string, status domain.Status, errMsg string, completedAt time.Time) error {
	query := `
UPDATE conversions
SET status = $2,
    error_message = $3,
    completed_at = $4
WHERE id = $1 AND status = 'pending';
`
	tag, err := r.pool.Exec(ctx, query, id, status, nullableString(errMsg), completedAt)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrAlreadyTerminal
	}
	return nil
}

// GetByID fetches a conversion by its identifier.
func (r *ConversionRepositoryPG) GetByID(ctx context.Context, id string) (*domain.Conversion, error) {
	query := selectColumns + `
WHERE id = $1;
`
	row := r.pool.QueryRow(ctx, query, id)
	c, err := scanConversion(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return c, nil
}

// ListByRequester returns the requester's conversions, newest first. A
// user-owned row matches only on user_id, a guest-owned row only on guest_id;
// empty identity fields are passed as NULL so they can never match.
func (r *ConversionRepositoryPG) ListByRequester(ctx context.Context, req domain.Requester, limit int) ([]domain.Conversion, error) {
	query := selectColumns + ownershipClause + `
ORDER BY created_at DESC
LIMIT $3;
`
	rows, err := r.pool.Query(ctx, query, nullableString(req.UserID), nullableString(req.GuestID), limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.Conversion
	for rows.Next() {
		c, err := scanConversion(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *c)
	}
	return out, rows.Err()
}

// CountsByRequester aggregates per-category totals for the requester.
func (r *ConversionRepositoryPG) CountsByRequester(ctx context.Context, req domain.Requester) (domain.StatsSummary, error) {
	query := `
SELECT COUNT(*),
       COUNT(*) FILTER (WHERE source_category = 'audio'),
       COUNT(*) FILTER (WHERE source_category = 'video'),
       COUNT(*) FILTER (WHERE source_category = 'image'),
       COUNT(*) FILTER (WHERE source_category = 'document')
FROM conversions
` + ownershipClause + ";"

	var stats domain.StatsSummary
	row := r.pool.QueryRow(ctx, query, nullableString(req.UserID), nullableString(req.GuestID))
	if err := row.Scan(&stats.Total, &stats.Audio, &stats.Video, &stats.Image, &stats.Document); err != nil {
		return domain.StatsSummary{}, err
	}
	return stats, nil
}

const selectColumns = `
SELECT id, user_id, guest_id, source_category, source_format, target_format, file_name, file_size, status, error_message, output_key, created_at, completed_at
FROM conversions
`

const ownershipClause = `
WHERE (user_id IS NOT NULL AND user_id = $1)
   OR (user_id IS NULL AND guest_id = $2)
`

func scanConversion(row pgx.Row) (*domain.Conversion, error) {
	var c domain.Conversion
	var userID, guestID, errMsg, outputKey *string
	var completedAt *time.Time
	if err := row.Scan(
		&c.ID,
		&userID,
		&guestID,
		&c.SourceCategory,
		&c.SourceFormat,
		&c.TargetFormat,
		&c.FileName,
		&c.FileSize,
		&c.Status,
		&errMsg,
		&outputKey,
		&c.CreatedAt,
		&completedAt,
	); err != nil {
		return nil, err
	}
	c.UserID = deref(userID)
	c.GuestID = deref(guestID)
	c.ErrorMessage = deref(errMsg)
	c.OutputKey = deref(outputKey)
	c.CompletedAt = completedAt
	return &c, nil
}

func nullableString(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
