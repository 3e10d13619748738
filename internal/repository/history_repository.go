package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/case-service/internal/domain"
)

// HistoryRepository stores append-only audit entries.
type HistoryRepository interface {
	Create(ctx context.Context, profile *domain.VariantProfile, entry *domain.HistoryEntry) error
	ListByCase(ctx context.Context, profile *domain.VariantProfile, caseID string, limit, offset int) ([]domain.HistoryEntry, error)
}

type historyRepository struct {
	pool *pgxpool.Pool
}

// NewHistoryRepository builds repository.
func NewHistoryRepository(pool *pgxpool.Pool) HistoryRepository {
	return &historyRepository{pool: pool}
}

func (r *historyRepository) Create(ctx context.Context, profile *domain.VariantProfile, entry *domain.HistoryEntry) error {
	query := fmt.Sprintf(`
        INSERT INTO %s (%s, field_name, old_value, new_value, changed_by, description)
        VALUES ($1,$2,$3,$4,$5,$6)
        RETURNING id, created_at`, profile.HistoryTable, profile.ForeignKey)
	return r.pool.QueryRow(ctx, query,
		entry.CaseID,
		entry.FieldName,
		entry.OldValue,
		entry.NewValue,
		entry.ChangedBy,
		entry.Description,
	).Scan(&entry.ID, &entry.CreatedAt)
}

func (r *historyRepository) ListByCase(ctx context.Context, profile *domain.VariantProfile, caseID string, limit, offset int) ([]domain.HistoryEntry, error) {
	if limit <= 0 {
		limit = 100
	}
	if offset < 0 {
		offset = 0
	}
	query := fmt.Sprintf(`
        SELECT id, %s, field_name, old_value, new_value, changed_by, description, created_at
        FROM %s WHERE %s=$1 ORDER BY created_at ASC LIMIT %d OFFSET %d`,
		profile.ForeignKey, profile.HistoryTable, profile.ForeignKey, limit, offset)
	rows, err := r.pool.Query(ctx, query, caseID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.HistoryEntry
	for rows.Next() {
		var entry domain.HistoryEntry
		if err := rows.Scan(
			&entry.ID,
			&entry.CaseID,
			&entry.FieldName,
			&entry.OldValue,
			&entry.NewValue,
			&entry.ChangedBy,
			&entry.Description,
			&entry.CreatedAt,
		); err != nil {
			return nil, err
		}
		result = append(result, entry)
	}
	return result, rows.Err()
}
