package repository

import (
	"context"
	"fmt"
	"time"

	"brigade-service/internal/domain/image"
	brigade_errors "brigade-service/pkg/errors"

	"gorm.io/gorm"
)

// existingKeysBatch bounds the IN list used by ExistingKeys.
const existingKeysBatch = 500

type PostgresImageRepository struct {
	db *gorm.DB
}

func NewImageRepository(db *gorm.DB) ImageRepository {
	return &PostgresImageRepository{db: db}
}

func ownerColumn(kind image.OwnerKind) string {
	switch kind {
	case image.KindCampaign:
		return "campaign_id"
	case image.KindReport:
		return "report_id"
	case image.KindPost:
		return "post_id"
	}
	return ""
}

func (r *PostgresImageRepository) Create(ctx context.Context, img *image.Image) error {
	if _, ok := img.Owner(); !ok {
		return brigade_errors.ErrInvalidInput
	}
	return translateError(r.db.WithContext(ctx).Create(img).Error)
}

func (r *PostgresImageRepository) GetByID(ctx context.Context, id uint) (image.Image, error) {
	var img image.Image
	if err := r.db.WithContext(ctx).First(&img, id).Error; err != nil {
		return image.Image{}, translateError(err)
	}
	return img, nil
}

func (r *PostgresImageRepository) GetByKey(ctx context.Context, key string) (image.Image, error) {
	var img image.Image
	if err := r.db.WithContext(ctx).Where("object_key = ?", key).First(&img).Error; err != nil {
		return image.Image{}, translateError(err)
	}
	return img, nil
}

func (r *PostgresImageRepository) ListByOwner(ctx context.Context, owner image.Owner) ([]image.Image, error) {
	column := ownerColumn(owner.Kind)
	if column == "" || owner.ID == 0 {
		return nil, brigade_errors.ErrInvalidInput
	}
	var images []image.Image
	err := r.db.WithContext(ctx).
		Where(column+" = ?", owner.ID).
		Order("created_at DESC, id DESC").
		Find(&images).Error
	if err != nil {
		return nil, translateError(err)
	}
	return images, nil
}

func (r *PostgresImageRepository) Update(ctx context.Context, img image.Image) error {
	if img.ID == 0 {
		return fmt.Errorf("%w: image id is required", brigade_errors.ErrInvalidInput)
	}
	if _, ok := img.Owner(); !ok {
		return fmt.Errorf("%w: %v", brigade_errors.ErrInvalidInput, image.ErrInvalidOwner)
	}
	// The row itself is the model so the owner guard sees its owner columns.
	res := r.db.WithContext(ctx).
		Model(&img).
		Updates(map[string]interface{}{
			"object_key":   img.ObjectKey,
			"content_type": img.ContentType,
			"size_bytes":   img.SizeBytes,
			"etag":         img.ETag,
			"width":        img.Width,
			"height":       img.Height,
			"status":       img.Status,
			"updated_at":   time.Now(),
		})
	if res.Error != nil {
		return translateError(res.Error)
	}
	if res.RowsAffected == 0 {
		return brigade_errors.ErrNotFound
	}
	return nil
}

func (r *PostgresImageRepository) Remove(ctx context.Context, id uint) error {
	res := r.db.WithContext(ctx).Delete(&image.Image{}, id)
	if res.Error != nil {
		return translateError(res.Error)
	}
	if res.RowsAffected == 0 {
		return brigade_errors.ErrNotFound
	}
	return nil
}

func (r *PostgresImageRepository) ListStalePending(ctx context.Context, olderThan time.Duration) ([]image.Image, error) {
	var images []image.Image
	cutoff := time.Now().Add(-olderThan)
	err := r.db.WithContext(ctx).
		Where("status = ? AND updated_at < ?", image.StatusPending, cutoff).
		Order("id").
		Find(&images).Error
	if err != nil {
		return nil, translateError(err)
	}
	return images, nil
}

func (r *PostgresImageRepository) ExistingKeys(ctx context.Context, keys []string) (map[string]bool, error) {
	found := make(map[string]bool, len(keys))
	for start := 0; start < len(keys); start += existingKeysBatch {
		end := start + existingKeysBatch
		if end > len(keys) {
			end = len(keys)
		}
		var batch []string
		err := r.db.WithContext(ctx).
			Model(&image.Image{}).
			Where("object_key IN ?", keys[start:end]).
			Pluck("object_key", &batch).Error
		if err != nil {
			return nil, translateError(err)
		}
		for _, k := range batch {
			found[k] = true
		}
	}
	return found, nil
}
