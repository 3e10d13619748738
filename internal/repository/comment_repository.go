package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/case-service/internal/domain"
)

// CommentRepository persists case comments in the variant's comments table.
type CommentRepository interface {
	Create(ctx context.Context, profile *domain.VariantProfile, comment *domain.Comment) error
	GetByID(ctx context.Context, profile *domain.VariantProfile, id string) (*domain.Comment, error)
	ListByCase(ctx context.Context, profile *domain.VariantProfile, caseID string) ([]domain.Comment, error)
}

type commentRepository struct {
	pool *pgxpool.Pool
}

// NewCommentRepository constructs repository.
func NewCommentRepository(pool *pgxpool.Pool) CommentRepository {
	return &commentRepository{pool: pool}
}

func (r *commentRepository) Create(ctx context.Context, profile *domain.VariantProfile, comment *domain.Comment) error {
	query := fmt.Sprintf(`
        INSERT INTO %s (%s, author_id, author_name, body, comment_type, is_system, email_to, email_cc, sent_as_email)
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)
        RETURNING id, created_at`, profile.CommentsTable, profile.ForeignKey)
	return r.pool.QueryRow(ctx, query,
		comment.CaseID,
		comment.AuthorID,
		comment.AuthorName,
		comment.Body,
		comment.Type,
		comment.IsSystem,
		comment.EmailTo,
		comment.EmailCc,
		comment.SentAsEmail,
	).Scan(&comment.ID, &comment.CreatedAt)
}

func (r *commentRepository) GetByID(ctx context.Context, profile *domain.VariantProfile, id string) (*domain.Comment, error) {
	query := fmt.Sprintf(`
        SELECT id, %s, author_id, author_name, body, comment_type, is_system, email_to, email_cc, sent_as_email, created_at
        FROM %s WHERE id=$1`, profile.ForeignKey, profile.CommentsTable)
	var comment domain.Comment
	if err := r.pool.QueryRow(ctx, query, id).Scan(
		&comment.ID,
		&comment.CaseID,
		&comment.AuthorID,
		&comment.AuthorName,
		&comment.Body,
		&comment.Type,
		&comment.IsSystem,
		&comment.EmailTo,
		&comment.EmailCc,
		&comment.SentAsEmail,
		&comment.CreatedAt,
	); err != nil {
		return nil, err
	}
	return &comment, nil
}

func (r *commentRepository) ListByCase(ctx context.Context, profile *domain.VariantProfile, caseID string) ([]domain.Comment, error) {
	query := fmt.Sprintf(`
        SELECT id, %s, author_id, author_name, body, comment_type, is_system, email_to, email_cc, sent_as_email, created_at
        FROM %s WHERE %s=$1 ORDER BY created_at ASC`, profile.ForeignKey, profile.CommentsTable, profile.ForeignKey)
	rows, err := r.pool.Query(ctx, query, caseID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanComments(rows)
}

func scanComments(rows pgx.Rows) ([]domain.Comment, error) {
	var result []domain.Comment
	for rows.Next() {
		var comment domain.Comment
		if err := rows.Scan(
			&comment.ID,
			&comment.CaseID,
			&comment.AuthorID,
			&comment.AuthorName,
			&comment.Body,
			&comment.Type,
			&comment.IsSystem,
			&comment.EmailTo,
			&comment.EmailCc,
			&comment.SentAsEmail,
			&comment.CreatedAt,
		); err != nil {
			return nil, err
		}
		result = append(result, comment)
	}
	return result, rows.Err()
}
