package repository

import (
	"context"

	"brigade-service/internal/domain/report"

	"gorm.io/gorm"
)

type PostgresReportRepository struct {
	crudRepository[report.Report]
}

func NewReportRepository(db *gorm.DB) ReportRepository {
	return &PostgresReportRepository{crudRepository[report.Report]{db: db}}
}

func (r *PostgresReportRepository) Create(ctx context.Context, rep *report.Report) error {
	return r.create(ctx, rep)
}

func (r *PostgresReportRepository) GetByID(ctx context.Context, id uint) (report.Report, error) {
	return r.getByID(ctx, id, "Images")
}

func (r *PostgresReportRepository) GetAll(ctx context.Context) ([]report.Report, error) {
	return r.getAll(ctx, "created_at DESC, id DESC", "Images")
}

func (r *PostgresReportRepository) ListByCampaign(ctx context.Context, campaignID uint) ([]report.Report, error) {
	var reports []report.Report
	err := r.db.WithContext(ctx).
		Preload("Images").
		Where("campaign_id = ?", campaignID).
		Order("created_at DESC, id DESC").
		Find(&reports).Error
	if err != nil {
		return nil, translateError(err)
	}
	return reports, nil
}

func (r *PostgresReportRepository) Update(ctx context.Context, rep report.Report) error {
	return r.updateColumns(ctx, rep.ID, map[string]interface{}{
		"title":       rep.Title,
		"description": rep.Description,
		"category":    rep.Category,
		"campaign_id": rep.CampaignID,
	})
}

func (r *PostgresReportRepository) Delete(ctx context.Context, id uint) error {
	return r.delete(ctx, id)
}

func (r *PostgresReportRepository) Exists(ctx context.Context, id uint) (bool, error) {
	return r.exists(ctx, id)
}
