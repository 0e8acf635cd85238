package repository

import (
	"context"
	"time"

	"brigade-service/internal/domain/campaign"
	"brigade-service/internal/domain/image"
	"brigade-service/internal/domain/post"
	"brigade-service/internal/domain/report"
	"brigade-service/internal/domain/user"
	"brigade-service/internal/domain/vacancy"
)

type CampaignRepository interface {
	Create(ctx context.Context, c *campaign.Campaign) error
	GetByID(ctx context.Context, id uint) (campaign.Campaign, error)
	// GetWithChildren loads the campaign image and every report with its images.
	GetWithChildren(ctx context.Context, id uint) (campaign.Campaign, error)
	GetAll(ctx context.Context) ([]campaign.Campaign, error)
	Update(ctx context.Context, c campaign.Campaign) error
	Delete(ctx context.Context, id uint) error
	Exists(ctx context.Context, id uint) (bool, error)
	ToggleCompleted(ctx context.Context, id uint) (bool, error)
}

type ReportRepository interface {
	Create(ctx context.Context, r *report.Report) error
	GetByID(ctx context.Context, id uint) (report.Report, error)
	GetAll(ctx context.Context) ([]report.Report, error)
	ListByCampaign(ctx context.Context, campaignID uint) ([]report.Report, error)
	Update(ctx context.Context, r report.Report) error
	Delete(ctx context.Context, id uint) error
	Exists(ctx context.Context, id uint) (bool, error)
}

type PostRepository interface {
	Create(ctx context.Context, p *post.Post) error
	GetByID(ctx context.Context, id uint) (post.Post, error)
	GetAll(ctx context.Context) ([]post.Post, error)
	Update(ctx context.Context, p post.Post) error
	Delete(ctx context.Context, id uint) error
	Exists(ctx context.Context, id uint) (bool, error)
}

type VacancyRepository interface {
	Create(ctx context.Context, v *vacancy.Vacancy) error
	GetByID(ctx context.Context, id uint) (vacancy.Vacancy, error)
	GetAll(ctx context.Context) ([]vacancy.Vacancy, error)
	Update(ctx context.Context, v vacancy.Vacancy) error
	Delete(ctx context.Context, id uint) error
}

type UserRepository interface {
	Create(ctx context.Context, u *user.User) error
	GetByID(ctx context.Context, id uint) (user.User, error)
	GetByUsername(ctx context.Context, username string) (user.User, error)
	UpdateRole(ctx context.Context, id uint, role string) error
}

// ImageRepository is the image metadata store.
type ImageRepository interface {
	Create(ctx context.Context, img *image.Image) error
	GetByID(ctx context.Context, id uint) (image.Image, error)
	GetByKey(ctx context.Context, key string) (image.Image, error)
	// ListByOwner returns the owner's rows, newest first.
	ListByOwner(ctx context.Context, owner image.Owner) ([]image.Image, error)
	Update(ctx context.Context, img image.Image) error
	Remove(ctx context.Context, id uint) error
	ListStalePending(ctx context.Context, olderThan time.Duration) ([]image.Image, error)
	// ExistingKeys reports which of keys have a row.
	ExistingKeys(ctx context.Context, keys []string) (map[string]bool, error)
}
