package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/case-service/internal/domain"
)

// CaseFilter captures listing parameters shared by all variants.
type CaseFilter struct {
	RequesterID *string
	AssigneeID  *string
	Statuses    []domain.CaseStatus
	Priorities  []domain.CasePriority
	SearchTerm  *string
	CreatedFrom *time.Time
	CreatedTo   *time.Time
	Limit       int
	Offset      int
}

// CaseRepository persists support cases. Every method is parameterized by the
// variant profile, which supplies the table the query runs against.
type CaseRepository interface {
	Create(ctx context.Context, profile *domain.VariantProfile, c *domain.SupportCase) error
	Update(ctx context.Context, profile *domain.VariantProfile, c *domain.SupportCase) error
	GetByID(ctx context.Context, profile *domain.VariantProfile, id string) (*domain.SupportCase, error)
	GetByNumber(ctx context.Context, profile *domain.VariantProfile, number string) (*domain.SupportCase, error)
	ListWithFilter(ctx context.Context, profile *domain.VariantProfile, filter CaseFilter) ([]domain.SupportCase, error)
	NextCaseNumber(ctx context.Context, profile *domain.VariantProfile, year int) (string, error)
}

type caseRepository struct {
	pool *pgxpool.Pool
}

// NewCaseRepository instantiates repository.
func NewCaseRepository(pool *pgxpool.Pool) CaseRepository {
	return &caseRepository{pool: pool}
}

const caseColumns = `id, case_number, subject, description, status, priority,
    requester_id, requester_name, requester_email, assignee_id, channel,
    converted_to_number, created_at, updated_at, resolved_at, closed_at, first_response_at`

func (r *caseRepository) Create(ctx context.Context, profile *domain.VariantProfile, c *domain.SupportCase) error {
	query := fmt.Sprintf(`
        INSERT INTO %s (case_number, subject, description, status, priority,
            requester_id, requester_name, requester_email, assignee_id, channel)
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)
        RETURNING id, created_at, updated_at`, profile.Table)
	c.Variant = profile.Variant
	return r.pool.QueryRow(ctx, query,
		c.CaseNumber,
		c.Subject,
		c.Description,
		c.Status,
		c.Priority,
		c.RequesterID,
		c.RequesterName,
		c.RequesterEmail,
		c.AssigneeID,
		c.Channel,
	).Scan(&c.ID, &c.CreatedAt, &c.UpdatedAt)
}

func (r *caseRepository) Update(ctx context.Context, profile *domain.VariantProfile, c *domain.SupportCase) error {
	query := fmt.Sprintf(`
        UPDATE %s SET subject=$1, description=$2, status=$3, priority=$4,
            assignee_id=$5, converted_to_number=$6, resolved_at=$7, closed_at=$8,
            first_response_at=$9, updated_at=NOW()
        WHERE id=$10`, profile.Table)
	cmd, err := r.pool.Exec(ctx, query,
		c.Subject,
		c.Description,
		c.Status,
		c.Priority,
		c.AssigneeID,
		c.ConvertedToNumber,
		c.ResolvedAt,
		c.ClosedAt,
		c.FirstResponseAt,
		c.ID,
	)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *caseRepository) GetByID(ctx context.Context, profile *domain.VariantProfile, id string) (*domain.SupportCase, error) {
	query := fmt.Sprintf(`SELECT %s FROM %s WHERE id=$1`, caseColumns, profile.Table)
	return r.fetchSingle(ctx, profile, query, id)
}

func (r *caseRepository) GetByNumber(ctx context.Context, profile *domain.VariantProfile, number string) (*domain.SupportCase, error) {
	query := fmt.Sprintf(`SELECT %s FROM %s WHERE case_number=$1`, caseColumns, profile.Table)
	return r.fetchSingle(ctx, profile, query, number)
}

func (r *caseRepository) fetchSingle(ctx context.Context, profile *domain.VariantProfile, query string, arg any) (*domain.SupportCase, error) {
	var c domain.SupportCase
	if err := r.pool.QueryRow(ctx, query, arg).Scan(
		&c.ID,
		&c.CaseNumber,
		&c.Subject,
		&c.Description,
		&c.Status,
		&c.Priority,
		&c.RequesterID,
		&c.RequesterName,
		&c.RequesterEmail,
		&c.AssigneeID,
		&c.Channel,
		&c.ConvertedToNumber,
		&c.CreatedAt,
		&c.UpdatedAt,
		&c.ResolvedAt,
		&c.ClosedAt,
		&c.FirstResponseAt,
	); err != nil {
		return nil, err
	}
	c.Variant = profile.Variant
	return &c, nil
}

func (r *caseRepository) ListWithFilter(ctx context.Context, profile *domain.VariantProfile, filter CaseFilter) ([]domain.SupportCase, error) {
	clauses := []string{"1=1"}
	args := []any{}

	if filter.RequesterID != nil {
		args = append(args, *filter.RequesterID)
		clauses = append(clauses, fmt.Sprintf("requester_id=$%d", len(args)))
	}
	if filter.AssigneeID != nil {
		args = append(args, *filter.AssigneeID)
		clauses = append(clauses, fmt.Sprintf("assignee_id=$%d", len(args)))
	}
	if len(filter.Statuses) > 0 {
		placeholders := make([]string, len(filter.Statuses))
		for i, status := range filter.Statuses {
			args = append(args, status)
			placeholders[i] = fmt.Sprintf("$%d", len(args))
		}
		clauses = append(clauses, fmt.Sprintf("status IN (%s)", strings.Join(placeholders, ",")))
	}
	if len(filter.Priorities) > 0 {
		placeholders := make([]string, len(filter.Priorities))
		for i, pr := range filter.Priorities {
			args = append(args, pr)
			placeholders[i] = fmt.Sprintf("$%d", len(args))
		}
		clauses = append(clauses, fmt.Sprintf("priority IN (%s)", strings.Join(placeholders, ",")))
	}
	if filter.CreatedFrom != nil {
		args = append(args, *filter.CreatedFrom)
		clauses = append(clauses, fmt.Sprintf("created_at >= $%d", len(args)))
	}
	if filter.CreatedTo != nil {
		args = append(args, *filter.CreatedTo)
		clauses = append(clauses, fmt.Sprintf("created_at <= $%d", len(args)))
	}
	if filter.SearchTerm != nil && strings.TrimSpace(*filter.SearchTerm) != "" {
		search := "%" + strings.ToLower(strings.TrimSpace(*filter.SearchTerm)) + "%"
		args = append(args, search)
		placeholder := fmt.Sprintf("$%d", len(args))
		clauses = append(clauses, fmt.Sprintf("(LOWER(subject) LIKE %s OR LOWER(description) LIKE %s)", placeholder, placeholder))
	}

	limit := filter.Limit
	if limit <= 0 {
		limit = 20
	}
	offset := filter.Offset
	if offset < 0 {
		offset = 0
	}

	query := fmt.Sprintf(`SELECT %s FROM %s WHERE %s ORDER BY updated_at DESC LIMIT %d OFFSET %d`,
		caseColumns, profile.Table, strings.Join(clauses, " AND "), limit, offset)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanCases(profile, rows)
}

func (r *caseRepository) NextCaseNumber(ctx context.Context, profile *domain.VariantProfile, year int) (string, error) {
	const query = `
        INSERT INTO case_sequences (variant, year, last_number)
        VALUES ($1,$2,1)
        ON CONFLICT (variant, year)
        DO UPDATE SET last_number = case_sequences.last_number + 1
        RETURNING last_number`
	var n int
	if err := r.pool.QueryRow(ctx, query, profile.Variant, year).Scan(&n); err != nil {
		return "", err
	}
	return fmt.Sprintf("%s-%d-%05d", profile.NumberPrefix, year, n), nil
}

func scanCases(profile *domain.VariantProfile, rows pgx.Rows) ([]domain.SupportCase, error) {
	var result []domain.SupportCase
	for rows.Next() {
		var c domain.SupportCase
		if err := rows.Scan(
			&c.ID,
			&c.CaseNumber,
			&c.Subject,
			&c.Description,
			&c.Status,
			&c.Priority,
			&c.RequesterID,
			&c.RequesterName,
			&c.RequesterEmail,
			&c.AssigneeID,
			&c.Channel,
			&c.ConvertedToNumber,
			&c.CreatedAt,
			&c.UpdatedAt,
			&c.ResolvedAt,
			&c.ClosedAt,
			&c.FirstResponseAt,
		); err != nil {
			return nil, err
		}
		c.Variant = profile.Variant
		result = append(result, c)
	}
	return result, rows.Err()
}
