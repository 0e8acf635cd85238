package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"brigade-service/internal/domain/image"
	"brigade-service/internal/domain/report"
	"brigade-service/internal/repository"
	"brigade-service/internal/storage"
	brigade_errors "brigade-service/pkg/errors"
)

type ReportService struct {
	reports     repository.ReportRepository
	campaigns   repository.CampaignRepository
	attachments *AttachmentService
}

func NewReportService(reports repository.ReportRepository, campaigns repository.CampaignRepository, attachments *AttachmentService) *ReportService {
	return &ReportService{
		reports:     reports,
		campaigns:   campaigns,
		attachments: attachments,
	}
}

type ReportInput struct {
	Title       string
	Description string
	Category    string
	CampaignID  uint
}

type ReportView struct {
	ID          uint        `json:"id"`
	Title       string      `json:"title"`
	Description string      `json:"description"`
	Category    string      `json:"category"`
	CreatedAt   time.Time   `json:"createdAt"`
	DonationID  uint        `json:"donationId"`
	Images      []ImageView `json:"images"`
}

func (s *ReportService) List(ctx context.Context) ([]ReportView, error) {
	reports, err := s.reports.GetAll(ctx)
	if err != nil {
		return nil, err
	}
	return s.views(ctx, reports)
}

func (s *ReportService) ListByCampaign(ctx context.Context, campaignID uint) ([]ReportView, error) {
	if err := s.ensureCampaign(ctx, campaignID); err != nil {
		return nil, err
	}
	reports, err := s.reports.ListByCampaign(ctx, campaignID)
	if err != nil {
		return nil, err
	}
	return s.views(ctx, reports)
}

func (s *ReportService) Get(ctx context.Context, id uint) (ReportView, error) {
	r, err := s.reports.GetByID(ctx, id)
	if err != nil {
		return ReportView{}, err
	}
	return s.view(ctx, r)
}

// Create stores the report and its photos. Nothing is left behind when any
// photo fails.
func (s *ReportService) Create(ctx context.Context, in ReportInput, files []storage.FileInput) (ReportView, error) {
	if err := validateReport(in); err != nil {
		return ReportView{}, err
	}
	if err := s.ensureCampaign(ctx, in.CampaignID); err != nil {
		return ReportView{}, err
	}

	res, err := s.attachments.CreateWithImages(ctx, image.KindReport,
		func(ctx context.Context) (uint, error) {
			r := &report.Report{
				Title:       strings.TrimSpace(in.Title),
				Description: in.Description,
				Category:    strings.TrimSpace(in.Category),
				CampaignID:  in.CampaignID,
			}
			if err := s.reports.Create(ctx, r); err != nil {
				return 0, err
			}
			return r.ID, nil
		},
		s.reports.Delete,
		files,
	)
	if err != nil {
		return ReportView{}, err
	}
	return s.Get(ctx, res.OwnerID)
}

// Update changes the report fields. Moving a report to another campaign is
// allowed as long as that campaign exists.
func (s *ReportService) Update(ctx context.Context, id uint, in ReportInput) (ReportView, error) {
	if err := validateReport(in); err != nil {
		return ReportView{}, err
	}
	r, err := s.reports.GetByID(ctx, id)
	if err != nil {
		return ReportView{}, err
	}
	if in.CampaignID != r.CampaignID {
		if err := s.ensureCampaign(ctx, in.CampaignID); err != nil {
			return ReportView{}, err
		}
	}

	r.Title = strings.TrimSpace(in.Title)
	r.Description = in.Description
	r.Category = strings.TrimSpace(in.Category)
	r.CampaignID = in.CampaignID
	if err := s.reports.Update(ctx, r); err != nil {
		return ReportView{}, err
	}
	return s.Get(ctx, id)
}

// Delete removes every image of the report and then the report itself. When
// an image fails the report stays and the call can be repeated.
func (s *ReportService) Delete(ctx context.Context, id uint) error {
	r, err := s.reports.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if err := s.attachments.RemoveImages(ctx, r.Images); err != nil {
		return fmt.Errorf("delete report %d: %w", id, err)
	}
	return s.reports.Delete(ctx, id)
}

func (s *ReportService) ensureCampaign(ctx context.Context, campaignID uint) error {
	exists, err := s.campaigns.Exists(ctx, campaignID)
	if err != nil {
		return err
	}
	if !exists {
		return fmt.Errorf("donation %d: %w", campaignID, brigade_errors.ErrNotFound)
	}
	return nil
}

func (s *ReportService) view(ctx context.Context, r report.Report) (ReportView, error) {
	images, err := s.attachments.Views(ctx, r.Images)
	if err != nil {
		return ReportView{}, err
	}
	return ReportView{
		ID:          r.ID,
		Title:       r.Title,
		Description: r.Description,
		Category:    r.Category,
		CreatedAt:   r.CreatedAt,
		DonationID:  r.CampaignID,
		Images:      images,
	}, nil
}

func (s *ReportService) views(ctx context.Context, reports []report.Report) ([]ReportView, error) {
	result := make([]ReportView, 0, len(reports))
	for _, r := range reports {
		v, err := s.view(ctx, r)
		if err != nil {
			return nil, err
		}
		result = append(result, v)
	}
	return result, nil
}

func validateReport(in ReportInput) error {
	if strings.TrimSpace(in.Title) == "" {
		return fmt.Errorf("%w: title is required", brigade_errors.ErrInvalidInput)
	}
	if in.CampaignID == 0 {
		return fmt.Errorf("%w: donationId is required", brigade_errors.ErrInvalidInput)
	}
	return nil
}
