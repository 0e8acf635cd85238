package repository

import (
	"context"

	"brigade-service/internal/domain/campaign"
	brigade_errors "brigade-service/pkg/errors"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type PostgresCampaignRepository struct {
	crudRepository[campaign.Campaign]
}

func NewCampaignRepository(db *gorm.DB) CampaignRepository {
	return &PostgresCampaignRepository{crudRepository[campaign.Campaign]{db: db}}
}

func (r *PostgresCampaignRepository) Create(ctx context.Context, c *campaign.Campaign) error {
	return r.create(ctx, c)
}

func (r *PostgresCampaignRepository) GetByID(ctx context.Context, id uint) (campaign.Campaign, error) {
	return r.getByID(ctx, id, "Image")
}

func (r *PostgresCampaignRepository) GetWithChildren(ctx context.Context, id uint) (campaign.Campaign, error) {
	return r.getByID(ctx, id, "Image", "Reports", "Reports.Images")
}

func (r *PostgresCampaignRepository) GetAll(ctx context.Context) ([]campaign.Campaign, error) {
	return r.getAll(ctx, "created_at DESC, id DESC", "Image")
}

func (r *PostgresCampaignRepository) Update(ctx context.Context, c campaign.Campaign) error {
	return r.updateColumns(ctx, c.ID, map[string]interface{}{
		"title":         c.Title,
		"description":   c.Description,
		"goal":          c.Goal,
		"donation_link": c.DonationLink,
	})
}

func (r *PostgresCampaignRepository) Delete(ctx context.Context, id uint) error {
	return r.delete(ctx, id)
}

func (r *PostgresCampaignRepository) Exists(ctx context.Context, id uint) (bool, error) {
	return r.exists(ctx, id)
}

// ToggleCompleted flips is_completed in a single statement and returns the new value.
func (r *PostgresCampaignRepository) ToggleCompleted(ctx context.Context, id uint) (bool, error) {
	var c campaign.Campaign
	res := r.db.WithContext(ctx).
		Model(&c).
		Clauses(clause.Returning{Columns: []clause.Column{{Name: "is_completed"}}}).
		Where("id = ?", id).
		Update("is_completed", gorm.Expr("NOT is_completed"))
	if res.Error != nil {
		return false, translateError(res.Error)
	}
	if res.RowsAffected == 0 {
		return false, brigade_errors.ErrNotFound
	}
	return c.IsCompleted, nil
}
