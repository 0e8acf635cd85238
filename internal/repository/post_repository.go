package repository

import (
	"context"

	"brigade-service/internal/domain/post"

	"gorm.io/gorm"
)

type PostgresPostRepository struct {
	crudRepository[post.Post]
}

func NewPostRepository(db *gorm.DB) PostRepository {
	return &PostgresPostRepository{crudRepository[post.Post]{db: db}}
}

func (r *PostgresPostRepository) Create(ctx context.Context, p *post.Post) error {
	return r.create(ctx, p)
}

func (r *PostgresPostRepository) GetByID(ctx context.Context, id uint) (post.Post, error) {
	return r.getByID(ctx, id, "Images")
}

func (r *PostgresPostRepository) GetAll(ctx context.Context) ([]post.Post, error) {
	return r.getAll(ctx, "created_at DESC, id DESC", "Images")
}

func (r *PostgresPostRepository) Update(ctx context.Context, p post.Post) error {
	return r.updateColumns(ctx, p.ID, map[string]interface{}{
		"title":      p.Title,
		"short_text": p.ShortText,
		"content":    p.Content,
	})
}

func (r *PostgresPostRepository) Delete(ctx context.Context, id uint) error {
	return r.delete(ctx, id)
}

func (r *PostgresPostRepository) Exists(ctx context.Context, id uint) (bool, error) {
	return r.exists(ctx, id)
}
