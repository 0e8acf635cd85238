package services

import (
	"context"
	"fmt"

	"brigade-service/internal/domain/image"
	"brigade-service/internal/repository"
	"brigade-service/internal/storage"
	brigade_errors "brigade-service/pkg/errors"
)

// ImageService serves the image endpoints. Every call checks that the owner
// exists and that the image belongs to it.
type ImageService struct {
	attachments *AttachmentService
	images      repository.ImageRepository
	owners      map[image.OwnerKind]func(ctx context.Context, id uint) (bool, error)
}

func NewImageService(
	attachments *AttachmentService,
	images repository.ImageRepository,
	campaigns repository.CampaignRepository,
	reports repository.ReportRepository,
	posts repository.PostRepository,
) *ImageService {
	return &ImageService{
		attachments: attachments,
		images:      images,
		owners: map[image.OwnerKind]func(ctx context.Context, id uint) (bool, error){
			image.KindCampaign: campaigns.Exists,
			image.KindReport:   reports.Exists,
			image.KindPost:     posts.Exists,
		},
	}
}

type PresignInput struct {
	FileName    string
	ContentType string
	Size        int64
}

func (s *ImageService) List(ctx context.Context, owner image.Owner) ([]ImageView, error) {
	if err := s.ensureOwner(ctx, owner); err != nil {
		return nil, err
	}
	imgs, err := s.images.ListByOwner(ctx, owner)
	if err != nil {
		return nil, err
	}
	return s.attachments.Views(ctx, imgs)
}

// URL mints a read URL for one active image of owner.
func (s *ImageService) URL(ctx context.Context, owner image.Owner, imageID uint) (string, error) {
	img, err := s.owned(ctx, owner, imageID)
	if err != nil {
		return "", err
	}
	if !img.IsActive() {
		return "", brigade_errors.ErrNotFound
	}
	return s.attachments.URL(ctx, img)
}

func (s *ImageService) Attach(ctx context.Context, owner image.Owner, files []storage.FileInput) ([]ImageView, error) {
	if owner.Kind == image.KindCampaign {
		return nil, fmt.Errorf("%w: a donation holds a single image", brigade_errors.ErrInvalidInput)
	}
	if err := s.ensureOwner(ctx, owner); err != nil {
		return nil, err
	}
	created, err := s.attachments.AttachImages(ctx, owner, files)
	if err != nil {
		return nil, err
	}
	return s.attachments.Views(ctx, created)
}

func (s *ImageService) Remove(ctx context.Context, owner image.Owner, imageID uint) error {
	img, err := s.owned(ctx, owner, imageID)
	if err != nil {
		return err
	}
	return s.attachments.RemoveImage(ctx, &img)
}

func (s *ImageService) Presign(ctx context.Context, owner image.Owner, in PresignInput) (PresignedImage, error) {
	if owner.Kind == image.KindCampaign {
		return PresignedImage{}, fmt.Errorf("%w: direct uploads are for reports and posts", brigade_errors.ErrInvalidInput)
	}
	if err := s.ensureOwner(ctx, owner); err != nil {
		return PresignedImage{}, err
	}
	return s.attachments.PresignImageUpload(ctx, owner, in.FileName, in.ContentType, in.Size)
}

func (s *ImageService) Confirm(ctx context.Context, owner image.Owner, in ConfirmInput) (ImageView, error) {
	if err := s.ensureOwner(ctx, owner); err != nil {
		return ImageView{}, err
	}
	img, err := s.attachments.ConfirmImageUpload(ctx, owner, in)
	if err != nil {
		return ImageView{}, err
	}
	return s.attachments.View(ctx, img)
}

// CampaignImageURL mints a read URL for the donation image.
func (s *ImageService) CampaignImageURL(ctx context.Context, campaignID uint) (string, error) {
	owner := image.CampaignOwner(campaignID)
	if err := s.ensureOwner(ctx, owner); err != nil {
		return "", err
	}
	imgs, err := s.images.ListByOwner(ctx, owner)
	if err != nil {
		return "", err
	}
	for _, img := range imgs {
		if img.IsActive() {
			return s.attachments.URL(ctx, img)
		}
	}
	return "", fmt.Errorf("donation %d image: %w", campaignID, brigade_errors.ErrNotFound)
}

func (s *ImageService) ReplaceCampaignImage(ctx context.Context, campaignID uint, file storage.FileInput) (ImageView, error) {
	if err := s.ensureOwner(ctx, image.CampaignOwner(campaignID)); err != nil {
		return ImageView{}, err
	}
	img, err := s.attachments.ReplaceCampaignImage(ctx, campaignID, file)
	if err != nil {
		return ImageView{}, err
	}
	return s.attachments.View(ctx, img)
}

func (s *ImageService) RemoveCampaignImage(ctx context.Context, campaignID uint) error {
	owner := image.CampaignOwner(campaignID)
	if err := s.ensureOwner(ctx, owner); err != nil {
		return err
	}
	return s.attachments.DeleteImages(ctx, owner)
}

func (s *ImageService) ensureOwner(ctx context.Context, owner image.Owner) error {
	exists, ok := s.owners[owner.Kind]
	if !ok || owner.ID == 0 {
		return fmt.Errorf("%w: %v", brigade_errors.ErrInvalidInput, image.ErrInvalidOwner)
	}
	found, err := exists(ctx, owner.ID)
	if err != nil {
		return err
	}
	if !found {
		return fmt.Errorf("%s: %w", owner, brigade_errors.ErrNotFound)
	}
	return nil
}

func (s *ImageService) owned(ctx context.Context, owner image.Owner, imageID uint) (image.Image, error) {
	if err := s.ensureOwner(ctx, owner); err != nil {
		return image.Image{}, err
	}
	img, err := s.images.GetByID(ctx, imageID)
	if err != nil {
		return image.Image{}, err
	}
	if rowOwner, ok := img.Owner(); !ok || rowOwner != owner {
		return image.Image{}, brigade_errors.ErrNotFound
	}
	return img, nil
}
