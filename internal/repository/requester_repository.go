package repository

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/case-service/internal/domain"
)

// RequesterRepository reads registered submitters.
type RequesterRepository interface {
	GetByID(ctx context.Context, id string) (*domain.Requester, error)
	GetByEmail(ctx context.Context, email string) (*domain.Requester, error)
}

type requesterRepository struct {
	pool *pgxpool.Pool
}

// NewRequesterRepository instantiates repository.
func NewRequesterRepository(pool *pgxpool.Pool) RequesterRepository {
	return &requesterRepository{pool: pool}
}

func (r *requesterRepository) GetByID(ctx context.Context, id string) (*domain.Requester, error) {
	const query = `
        SELECT id, name, email, created_at, updated_at
        FROM requesters WHERE id=$1`
	return r.fetchSingle(ctx, query, id)
}

func (r *requesterRepository) GetByEmail(ctx context.Context, email string) (*domain.Requester, error) {
	const query = `
        SELECT id, name, email, created_at, updated_at
        FROM requesters WHERE email=$1`
	return r.fetchSingle(ctx, query, email)
}

func (r *requesterRepository) fetchSingle(ctx context.Context, query string, arg any) (*domain.Requester, error) {
	var requester domain.Requester
	if err := r.pool.QueryRow(ctx, query, arg).Scan(
		&requester.ID,
		&requester.Name,
		&requester.Email,
		&requester.CreatedAt,
		&requester.UpdatedAt,
	); err != nil {
		return nil, err
	}
	return &requester, nil
}
