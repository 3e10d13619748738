package repository

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/case-service/internal/domain"
)

// TemplateRepository reads email templates maintained through administration.
type TemplateRepository interface {
	GetByKey(ctx context.Context, key string) (*domain.EmailTemplate, error)
}

type templateRepository struct {
	pool *pgxpool.Pool
}

// NewTemplateRepository instantiates repository.
func NewTemplateRepository(pool *pgxpool.Pool) TemplateRepository {
	return &templateRepository{pool: pool}
}

func (r *templateRepository) GetByKey(ctx context.Context, key string) (*domain.EmailTemplate, error) {
	const query = `
        SELECT id, template_key, subject, body_html, available_variables, is_active, created_at, updated_at
        FROM email_templates WHERE template_key=$1`
	var tpl domain.EmailTemplate
	if err := r.pool.QueryRow(ctx, query, key).Scan(
		&tpl.ID,
		&tpl.TemplateKey,
		&tpl.Subject,
		&tpl.BodyHTML,
		&tpl.AvailableVariables,
		&tpl.IsActive,
		&tpl.CreatedAt,
		&tpl.UpdatedAt,
	); err != nil {
		return nil, err
	}
	return &tpl, nil
}
