package repository

import (
	"context"

	"brigade-service/internal/domain/vacancy"
	brigade_errors "brigade-service/pkg/errors"

	"gorm.io/gorm"
)

type PostgresVacancyRepository struct {
	crudRepository[vacancy.Vacancy]
}

func NewVacancyRepository(db *gorm.DB) VacancyRepository {
	return &PostgresVacancyRepository{crudRepository[vacancy.Vacancy]{db: db}}
}

func (r *PostgresVacancyRepository) Create(ctx context.Context, v *vacancy.Vacancy) error {
	return r.create(ctx, v)
}

func (r *PostgresVacancyRepository) GetByID(ctx context.Context, id uint) (vacancy.Vacancy, error) {
	return r.getByID(ctx, id)
}

func (r *PostgresVacancyRepository) GetAll(ctx context.Context) ([]vacancy.Vacancy, error) {
	return r.getAll(ctx, "posted_date DESC, id DESC")
}

// Update writes every column; Requirements goes through the json serializer.
func (r *PostgresVacancyRepository) Update(ctx context.Context, v vacancy.Vacancy) error {
	res := r.db.WithContext(ctx).
		Model(&vacancy.Vacancy{ID: v.ID}).
		Select("title", "description", "contact_phone", "requirements", "salary", "employment_type", "education_level").
		Updates(&v)
	if res.Error != nil {
		return translateError(res.Error)
	}
	if res.RowsAffected == 0 {
		return brigade_errors.ErrNotFound
	}
	return nil
}

func (r *PostgresVacancyRepository) Delete(ctx context.Context, id uint) error {
	return r.delete(ctx, id)
}
