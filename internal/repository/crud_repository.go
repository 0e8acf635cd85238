package repository

import (
	"context"

	brigade_errors "brigade-service/pkg/errors"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// crudRepository holds the create/read/delete plumbing shared by the aggregate
// repositories. Updates stay per-entity so that associations are never
// written implicitly.
type crudRepository[T any] struct {
	db *gorm.DB
}

func (r crudRepository[T]) create(ctx context.Context, v *T) error {
	return translateError(r.db.WithContext(ctx).Omit(clause.Associations).Create(v).Error)
}

func (r crudRepository[T]) getByID(ctx context.Context, id uint, preloads ...string) (T, error) {
	var v T
	q := r.db.WithContext(ctx)
	for _, p := range preloads {
		q = q.Preload(p)
	}
	if err := q.First(&v, id).Error; err != nil {
		var zero T
		return zero, translateError(err)
	}
	return v, nil
}

func (r crudRepository[T]) getAll(ctx context.Context, order string, preloads ...string) ([]T, error) {
	var items []T
	q := r.db.WithContext(ctx)
	for _, p := range preloads {
		q = q.Preload(p)
	}
	if order != "" {
		q = q.Order(order)
	}
	if err := q.Find(&items).Error; err != nil {
		return nil, translateError(err)
	}
	return items, nil
}

func (r crudRepository[T]) updateColumns(ctx context.Context, id uint, columns map[string]interface{}) error {
	res := r.db.WithContext(ctx).Model(new(T)).Where("id = ?", id).Updates(columns)
	if res.Error != nil {
		return translateError(res.Error)
	}
	if res.RowsAffected == 0 {
		return brigade_errors.ErrNotFound
	}
	return nil
}

func (r crudRepository[T]) delete(ctx context.Context, id uint) error {
	res := r.db.WithContext(ctx).Delete(new(T), id)
	if res.Error != nil {
		return translateError(res.Error)
	}
	if res.RowsAffected == 0 {
		return brigade_errors.ErrNotFound
	}
	return nil
}

func (r crudRepository[T]) exists(ctx context.Context, id uint) (bool, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(new(T)).Where("id = ?", id).Count(&count).Error; err != nil {
		return false, translateError(err)
	}
	return count > 0, nil
}
