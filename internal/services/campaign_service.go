package services

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	"brigade-service/internal/domain/campaign"
	"brigade-service/internal/domain/image"
	"brigade-service/internal/repository"
	"brigade-service/internal/storage"
	brigade_errors "brigade-service/pkg/errors"
)

// CampaignService manages donations. A donation owns at most one image and
// any number of reports.
type CampaignService struct {
	campaigns   repository.CampaignRepository
	reports     *ReportService
	attachments *AttachmentService
}

func NewCampaignService(campaigns repository.CampaignRepository, reports *ReportService, attachments *AttachmentService) *CampaignService {
	return &CampaignService{
		campaigns:   campaigns,
		reports:     reports,
		attachments: attachments,
	}
}

type CampaignInput struct {
	Title        string
	Description  string
	Goal         float64
	DonationLink string
}

type CampaignView struct {
	ID           uint       `json:"id"`
	Title        string     `json:"title"`
	Description  string     `json:"description"`
	Goal         float64    `json:"goal"`
	CreatedAt    time.Time  `json:"createdAt"`
	DonationLink string     `json:"donationLink"`
	IsCompleted  bool       `json:"isCompleted"`
	Image        *ImageView `json:"image,omitempty"`
}

func (s *CampaignService) List(ctx context.Context) ([]CampaignView, error) {
	campaigns, err := s.campaigns.GetAll(ctx)
	if err != nil {
		return nil, err
	}
	result := make([]CampaignView, 0, len(campaigns))
	for _, c := range campaigns {
		v, err := s.view(ctx, c)
		if err != nil {
			return nil, err
		}
		result = append(result, v)
	}
	return result, nil
}

func (s *CampaignService) Get(ctx context.Context, id uint) (CampaignView, error) {
	c, err := s.campaigns.GetByID(ctx, id)
	if err != nil {
		return CampaignView{}, err
	}
	return s.view(ctx, c)
}

// Create stores the donation and its optional photo. If the photo cannot be
// stored the donation is removed again.
func (s *CampaignService) Create(ctx context.Context, in CampaignInput, photo *storage.FileInput) (CampaignView, error) {
	if err := validateCampaign(in); err != nil {
		return CampaignView{}, err
	}

	var files []storage.FileInput
	if photo != nil {
		files = append(files, *photo)
	}

	res, err := s.attachments.CreateWithImages(ctx, image.KindCampaign,
		func(ctx context.Context) (uint, error) {
			c := &campaign.Campaign{
				Title:        strings.TrimSpace(in.Title),
				Description:  in.Description,
				Goal:         in.Goal,
				DonationLink: strings.TrimSpace(in.DonationLink),
			}
			if err := s.campaigns.Create(ctx, c); err != nil {
				return 0, err
			}
			return c.ID, nil
		},
		s.campaigns.Delete,
		files,
	)
	if err != nil {
		return CampaignView{}, err
	}
	return s.Get(ctx, res.OwnerID)
}

func (s *CampaignService) Update(ctx context.Context, id uint, in CampaignInput) (CampaignView, error) {
	if err := validateCampaign(in); err != nil {
		return CampaignView{}, err
	}
	c, err := s.campaigns.GetByID(ctx, id)
	if err != nil {
		return CampaignView{}, err
	}

	c.Title = strings.TrimSpace(in.Title)
	c.Description = in.Description
	c.Goal = in.Goal
	c.DonationLink = strings.TrimSpace(in.DonationLink)
	if err := s.campaigns.Update(ctx, c); err != nil {
		return CampaignView{}, err
	}
	return s.view(ctx, c)
}

// Delete removes the donation image, then every report with its images, and
// only then the donation row. A failure keeps the donation so the same call
// can be retried.
func (s *CampaignService) Delete(ctx context.Context, id uint) error {
	c, err := s.campaigns.GetWithChildren(ctx, id)
	if err != nil {
		return err
	}

	if c.Image != nil {
		if err := s.attachments.RemoveImage(ctx, c.Image); err != nil {
			return fmt.Errorf("delete donation %d image: %w", id, err)
		}
	}
	for _, r := range c.Reports {
		if err := s.reports.Delete(ctx, r.ID); err != nil {
			return fmt.Errorf("delete donation %d: %w", id, err)
		}
	}
	return s.campaigns.Delete(ctx, id)
}

// ToggleCompletion flips the completion flag and returns the new value.
func (s *CampaignService) ToggleCompletion(ctx context.Context, id uint) (bool, error) {
	return s.campaigns.ToggleCompleted(ctx, id)
}

func (s *CampaignService) CreateReport(ctx context.Context, campaignID uint, in ReportInput, files []storage.FileInput) (ReportView, error) {
	in.CampaignID = campaignID
	return s.reports.Create(ctx, in, files)
}

func (s *CampaignService) ListReports(ctx context.Context, campaignID uint) ([]ReportView, error) {
	return s.reports.ListByCampaign(ctx, campaignID)
}

// DonationLink returns the external link visitors are redirected to.
func (s *CampaignService) DonationLink(ctx context.Context, id uint) (string, error) {
	c, err := s.campaigns.GetByID(ctx, id)
	if err != nil {
		return "", err
	}
	if c.DonationLink == "" {
		return "", fmt.Errorf("donation %d has no link: %w", id, brigade_errors.ErrNotFound)
	}
	return c.DonationLink, nil
}

func (s *CampaignService) view(ctx context.Context, c campaign.Campaign) (CampaignView, error) {
	v := CampaignView{
		ID:           c.ID,
		Title:        c.Title,
		Description:  c.Description,
		Goal:         c.Goal,
		CreatedAt:    c.CreatedAt,
		DonationLink: c.DonationLink,
		IsCompleted:  c.IsCompleted,
	}
	if c.Image != nil && c.Image.IsActive() {
		img, err := s.attachments.View(ctx, *c.Image)
		if err != nil {
			return CampaignView{}, err
		}
		v.Image = &img
	}
	return v, nil
}

func validateCampaign(in CampaignInput) error {
	if strings.TrimSpace(in.Title) == "" {
		return fmt.Errorf("%w: title is required", brigade_errors.ErrInvalidInput)
	}
	if in.Goal < 0 {
		return fmt.Errorf("%w: goal must not be negative", brigade_errors.ErrInvalidInput)
	}
	if link := strings.TrimSpace(in.DonationLink); link != "" {
		u, err := url.Parse(link)
		if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
			return fmt.Errorf("%w: donationLink must be an http(s) URL", brigade_errors.ErrInvalidInput)
		}
	}
	return nil
}
