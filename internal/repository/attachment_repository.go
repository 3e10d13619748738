package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/case-service/internal/domain"
)

// AttachmentRepository persists attachment metadata in the variant's table.
type AttachmentRepository interface {
	Create(ctx context.Context, profile *domain.VariantProfile, attachment *domain.Attachment) error
	GetByID(ctx context.Context, profile *domain.VariantProfile, id string) (*domain.Attachment, error)
	ListByCase(ctx context.Context, profile *domain.VariantProfile, caseID string) ([]domain.Attachment, error)
	ListByComment(ctx context.Context, profile *domain.VariantProfile, commentID string) ([]domain.Attachment, error)
	Delete(ctx context.Context, profile *domain.VariantProfile, id string) error
}

type attachmentRepository struct {
	pool *pgxpool.Pool
}

// NewAttachmentRepository constructs repository.
func NewAttachmentRepository(pool *pgxpool.Pool) AttachmentRepository {
	return &attachmentRepository{pool: pool}
}

const attachmentColumns = `stored_filename, original_filename, relative_path, mime_type,
    size_bytes, is_inline, content_id, uploaded_by, sent_as_email`

func (r *attachmentRepository) Create(ctx context.Context, profile *domain.VariantProfile, attachment *domain.Attachment) error {
	query := fmt.Sprintf(`
        INSERT INTO %s (%s, comment_id, %s)
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11)
        RETURNING id, created_at`, profile.AttachmentsTable, profile.ForeignKey, attachmentColumns)
	return r.pool.QueryRow(ctx, query,
		attachment.CaseID,
		attachment.CommentID,
		attachment.StoredFilename,
		attachment.OriginalFilename,
		attachment.RelativePath,
		attachment.MimeType,
		attachment.SizeBytes,
		attachment.IsInline,
		attachment.ContentID,
		attachment.UploadedBy,
		attachment.SentAsEmail,
	).Scan(&attachment.ID, &attachment.CreatedAt)
}

func (r *attachmentRepository) GetByID(ctx context.Context, profile *domain.VariantProfile, id string) (*domain.Attachment, error) {
	query := fmt.Sprintf(`
        SELECT id, %s, comment_id, %s, created_at
        FROM %s WHERE id=$1`, profile.ForeignKey, attachmentColumns, profile.AttachmentsTable)
	var attachment domain.Attachment
	if err := r.pool.QueryRow(ctx, query, id).Scan(
		&attachment.ID,
		&attachment.CaseID,
		&attachment.CommentID,
		&attachment.StoredFilename,
		&attachment.OriginalFilename,
		&attachment.RelativePath,
		&attachment.MimeType,
		&attachment.SizeBytes,
		&attachment.IsInline,
		&attachment.ContentID,
		&attachment.UploadedBy,
		&attachment.SentAsEmail,
		&attachment.CreatedAt,
	); err != nil {
		return nil, err
	}
	return &attachment, nil
}

func (r *attachmentRepository) ListByCase(ctx context.Context, profile *domain.VariantProfile, caseID string) ([]domain.Attachment, error) {
	query := fmt.Sprintf(`
        SELECT id, %s, comment_id, %s, created_at
        FROM %s WHERE %s=$1 ORDER BY created_at ASC`,
		profile.ForeignKey, attachmentColumns, profile.AttachmentsTable, profile.ForeignKey)
	return r.list(ctx, query, caseID)
}

func (r *attachmentRepository) ListByComment(ctx context.Context, profile *domain.VariantProfile, commentID string) ([]domain.Attachment, error) {
	query := fmt.Sprintf(`
        SELECT id, %s, comment_id, %s, created_at
        FROM %s WHERE comment_id=$1 ORDER BY created_at ASC`,
		profile.ForeignKey, attachmentColumns, profile.AttachmentsTable)
	return r.list(ctx, query, commentID)
}

func (r *attachmentRepository) Delete(ctx context.Context, profile *domain.VariantProfile, id string) error {
	query := fmt.Sprintf(`DELETE FROM %s WHERE id=$1`, profile.AttachmentsTable)
	cmd, err := r.pool.Exec(ctx, query, id)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *attachmentRepository) list(ctx context.Context, query string, arg any) ([]domain.Attachment, error) {
	rows, err := r.pool.Query(ctx, query, arg)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.Attachment
	for rows.Next() {
		var attachment domain.Attachment
		if err := rows.Scan(
			&attachment.ID,
			&attachment.CaseID,
			&attachment.CommentID,
			&attachment.StoredFilename,
			&attachment.OriginalFilename,
			&attachment.RelativePath,
			&attachment.MimeType,
			&attachment.SizeBytes,
			&attachment.IsInline,
			&attachment.ContentID,
			&attachment.UploadedBy,
			&attachment.SentAsEmail,
			&attachment.CreatedAt,
		); err != nil {
			return nil, err
		}
		result = append(result, attachment)
	}
	return result, rows.Err()
}
