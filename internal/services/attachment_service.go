package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"slices"
	"sort"
	"strings"
	"time"

	"brigade-service/internal/domain/image"
	"brigade-service/internal/repository"
	"brigade-service/internal/storage"
	brigade_errors "brigade-service/pkg/errors"
	"brigade-service/pkg/logger"

	"golang.org/x/sync/errgroup"
)

// sniffLimit is how much of a stored object is read to find pixel dimensions.
const sniffLimit = 256 << 10

// ObjectStore is what the orchestrator needs from the object store gateway.
type ObjectStore interface {
	ValidateFile(name, contentType string, size int64) (string, error)
	Prefix() string
	KeyPrefix(owner image.Owner) string
	Upload(ctx context.Context, owner image.Owner, file storage.FileInput) (storage.UploadResult, error)
	Delete(ctx context.Context, key string) error
	PresignedReadURL(ctx context.Context, key string, ttl time.Duration) (string, error)
	PresignedUploadURL(ctx context.Context, owner image.Owner, fileName, contentType string, size int64) (storage.PresignedUpload, error)
	Stat(ctx context.Context, key string) (storage.ObjectInfo, error)
	ReadHead(ctx context.Context, key string, limit int64) (io.ReadCloser, error)
	ListObjects(ctx context.Context, prefix string) ([]storage.ObjectInfo, error)
}

// ImageView is the client-facing shape of an image. It never carries the key.
type ImageView struct {
	ID        uint      `json:"id"`
	URL       string    `json:"url"`
	Width     *int      `json:"width,omitempty"`
	Height    *int      `json:"height,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
}

type CreateResult struct {
	OwnerID uint
	Images  []image.Image
}

// AttachmentService ties object uploads and image rows together and undoes
// partial work when a step fails.
type AttachmentService struct {
	images      repository.ImageRepository
	store       ObjectStore
	logger      *logger.Logger
	concurrency int
	urlTTL      time.Duration
}

func NewAttachmentService(images repository.ImageRepository, store ObjectStore, l *logger.Logger, concurrency int, urlTTL time.Duration) *AttachmentService {
	if concurrency <= 0 {
		concurrency = 1
	}
	if l == nil {
		l = logger.NewNop()
	}
	return &AttachmentService{
		images:      images,
		store:       store,
		logger:      l,
		concurrency: concurrency,
		urlTTL:      urlTTL,
	}
}

// ValidateFiles rejects the whole batch if any file is not an allowed image.
func (s *AttachmentService) ValidateFiles(files []storage.FileInput) error {
	for _, f := range files {
		if _, err := s.store.ValidateFile(f.Name, f.ContentType, f.Size); err != nil {
			return fmt.Errorf("file %q: %w", f.Name, err)
		}
	}
	return nil
}

// CreateWithImages validates files, creates the owner, then uploads every
// file and records an active row for it. On failure the uploaded objects,
// their rows and the owner are removed again; a *PartialFailureError is
// returned when that cleanup itself fails.
func (s *AttachmentService) CreateWithImages(
	ctx context.Context,
	kind image.OwnerKind,
	createOwner func(ctx context.Context) (uint, error),
	deleteOwner func(ctx context.Context, id uint) error,
	files []storage.FileInput,
) (CreateResult, error) {
	if err := s.ValidateFiles(files); err != nil {
		return CreateResult{}, err
	}

	id, err := createOwner(ctx)
	if err != nil {
		return CreateResult{}, err
	}
	owner, err := image.NewOwner(kind, id)
	if err != nil {
		return CreateResult{}, fmt.Errorf("%w: %v", brigade_errors.ErrPersistence, err)
	}

	created, err := s.attach(ctx, owner, files)
	if err == nil {
		return CreateResult{OwnerID: id, Images: created}, nil
	}

	cleanupCtx := context.WithoutCancel(ctx)
	if delErr := deleteOwner(cleanupCtx, id); delErr != nil && !errors.Is(delErr, brigade_errors.ErrNotFound) {
		s.logger.WithContext(ctx).Errorf("compensation: failed to delete %s: %v", owner, delErr)
		var partial *brigade_errors.PartialFailureError
		if errors.As(err, &partial) {
			return CreateResult{}, partial
		}
		return CreateResult{}, &brigade_errors.PartialFailureError{
			Op:  "create " + owner.String(),
			Err: fmt.Errorf("%w (owner not removed: %v)", err, delErr),
		}
	}
	return CreateResult{}, err
}

// AttachImages adds files to an existing owner.
func (s *AttachmentService) AttachImages(ctx context.Context, owner image.Owner, files []storage.FileInput) ([]image.Image, error) {
	if len(files) == 0 {
		return nil, fmt.Errorf("%w: no files", brigade_errors.ErrInvalidInput)
	}
	if err := s.ValidateFiles(files); err != nil {
		return nil, err
	}
	return s.attach(ctx, owner, files)
}

// attempt tracks what one file left behind so it can be undone.
type attempt struct {
	key   string
	image *image.Image
}

func (s *AttachmentService) attach(ctx context.Context, owner image.Owner, files []storage.FileInput) ([]image.Image, error) {
	if len(files) == 0 {
		return nil, nil
	}

	attempts := make([]attempt, len(files))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.concurrency)
	for i, f := range files {
		g.Go(func() error {
			return s.storeOne(gctx, owner, f, &attempts[i])
		})
	}
	err := g.Wait()

	if err == nil {
		created := make([]image.Image, 0, len(attempts))
		for _, a := range attempts {
			created = append(created, *a.image)
		}
		return created, nil
	}

	s.logger.WithContext(ctx).Warnf("attaching images to %s failed, compensating: %v", owner, err)
	if keys, rows := s.compensate(context.WithoutCancel(ctx), attempts); len(keys) > 0 || len(rows) > 0 {
		return nil, &brigade_errors.PartialFailureError{
			Op:           "attach images to " + owner.String(),
			Leftovers:    keys,
			LeftoverRows: rows,
			Err:          err,
		}
	}
	return nil, err
}

func (s *AttachmentService) storeOne(ctx context.Context, owner image.Owner, f storage.FileInput, a *attempt) error {
	width, height := sniffReader(f.Body)

	res, err := s.store.Upload(ctx, owner, f)
	if err != nil {
		return err
	}
	a.key = res.Key

	img := &image.Image{
		ObjectKey:   res.Key,
		ContentType: res.ContentType,
		SizeBytes:   res.Size,
		Width:       width,
		Height:      height,
		Status:      image.StatusActive,
	}
	if res.ETag != "" {
		etag := res.ETag
		img.ETag = &etag
	}
	img.SetOwner(owner)

	if err := s.images.Create(ctx, img); err != nil {
		return err
	}
	a.image = img
	return nil
}

// compensate undoes every attempt, row first and object second, so a failure
// can only leave an orphan object behind. When a row cannot be removed its
// object is kept and the row is reported.
func (s *AttachmentService) compensate(ctx context.Context, attempts []attempt) ([]string, []uint) {
	var keys []string
	var rows []uint
	for _, a := range attempts {
		if a.key == "" {
			continue
		}
		if a.image != nil {
			if err := s.images.Remove(ctx, a.image.ID); err != nil && !errors.Is(err, brigade_errors.ErrNotFound) {
				s.logger.WithContext(ctx).Errorf("compensation: remove image row %d, keeping %s: %v", a.image.ID, a.key, err)
				rows = append(rows, a.image.ID)
				keys = append(keys, a.key)
				continue
			}
		}
		if err := s.store.Delete(ctx, a.key); err != nil {
			s.logger.WithContext(ctx).Errorf("compensation: delete object %s: %v", a.key, err)
			keys = append(keys, a.key)
		}
	}
	sort.Strings(keys)
	slices.Sort(rows)
	return keys, rows
}

// RemoveImage deletes the stored object and then the row. A row that is
// already gone counts as removed so the call can be retried.
func (s *AttachmentService) RemoveImage(ctx context.Context, img *image.Image) error {
	if img == nil {
		return fmt.Errorf("%w: image is required", brigade_errors.ErrInvalidInput)
	}
	if err := s.store.Delete(ctx, img.ObjectKey); err != nil {
		return err
	}
	if err := s.images.Remove(ctx, img.ID); err != nil && !errors.Is(err, brigade_errors.ErrNotFound) {
		return err
	}
	return nil
}

// RemoveImages removes each image in turn and stops at the first failure.
func (s *AttachmentService) RemoveImages(ctx context.Context, imgs []image.Image) error {
	for i := range imgs {
		if err := s.RemoveImage(ctx, &imgs[i]); err != nil {
			return fmt.Errorf("remove image %d: %w", imgs[i].ID, err)
		}
	}
	return nil
}

// DeleteImages removes every image currently recorded for owner.
func (s *AttachmentService) DeleteImages(ctx context.Context, owner image.Owner) error {
	imgs, err := s.images.ListByOwner(ctx, owner)
	if err != nil {
		return err
	}
	return s.RemoveImages(ctx, imgs)
}

// ReplaceCampaignImage stores file as the campaign's only image. The previous
// object is deleted after the row points at the new one.
func (s *AttachmentService) ReplaceCampaignImage(ctx context.Context, campaignID uint, file storage.FileInput) (image.Image, error) {
	owner, err := image.NewOwner(image.KindCampaign, campaignID)
	if err != nil {
		return image.Image{}, fmt.Errorf("%w: %v", brigade_errors.ErrInvalidInput, err)
	}
	if err := s.ValidateFiles([]storage.FileInput{file}); err != nil {
		return image.Image{}, err
	}

	existing, err := s.images.ListByOwner(ctx, owner)
	if err != nil {
		return image.Image{}, err
	}

	if len(existing) == 0 {
		created, err := s.attach(ctx, owner, []storage.FileInput{file})
		if err != nil {
			return image.Image{}, err
		}
		return created[0], nil
	}

	width, height := sniffReader(file.Body)
	res, err := s.store.Upload(ctx, owner, file)
	if err != nil {
		return image.Image{}, err
	}

	old := existing[0]
	updated := old
	updated.ObjectKey = res.Key
	updated.ContentType = res.ContentType
	updated.SizeBytes = res.Size
	updated.Width, updated.Height = width, height
	updated.Status = image.StatusActive
	updated.ETag = nil
	if res.ETag != "" {
		etag := res.ETag
		updated.ETag = &etag
	}

	if err := s.images.Update(ctx, updated); err != nil {
		if delErr := s.store.Delete(context.WithoutCancel(ctx), res.Key); delErr != nil {
			return image.Image{}, &brigade_errors.PartialFailureError{
				Op:        "replace image of " + owner.String(),
				Leftovers: []string{res.Key},
				Err:       err,
			}
		}
		return image.Image{}, err
	}

	if err := s.store.Delete(ctx, old.ObjectKey); err != nil {
		// The row already points at the new object; the sweeper reclaims the old one.
		s.logger.WithContext(ctx).Warnf("replace image of %s: old object %s not deleted: %v", owner, old.ObjectKey, err)
	}
	return updated, nil
}

type PresignedImage struct {
	ImageID   uint              `json:"imageId"`
	UploadURL string            `json:"uploadUrl"`
	Key       string            `json:"key"`
	Headers   map[string]string `json:"headers"`
}

// PresignImageUpload records a pending row and returns a URL the client PUTs
// the file to. The row becomes active on ConfirmImageUpload.
func (s *AttachmentService) PresignImageUpload(ctx context.Context, owner image.Owner, fileName, contentType string, size int64) (PresignedImage, error) {
	normalized, err := s.store.ValidateFile(fileName, contentType, size)
	if err != nil {
		return PresignedImage{}, err
	}
	up, err := s.store.PresignedUploadURL(ctx, owner, fileName, normalized, size)
	if err != nil {
		return PresignedImage{}, err
	}

	img := &image.Image{
		ObjectKey:   up.Key,
		ContentType: normalized,
		SizeBytes:   size,
		Status:      image.StatusPending,
	}
	img.SetOwner(owner)
	if err := s.images.Create(ctx, img); err != nil {
		return PresignedImage{}, err
	}

	return PresignedImage{
		ImageID:   img.ID,
		UploadURL: up.URL,
		Key:       up.Key,
		Headers:   up.Headers,
	}, nil
}

type ConfirmInput struct {
	Key    string
	ETag   string
	Width  *int
	Height *int
}

// ConfirmImageUpload activates a pending row once its object exists.
func (s *AttachmentService) ConfirmImageUpload(ctx context.Context, owner image.Owner, in ConfirmInput) (image.Image, error) {
	key := strings.TrimSpace(in.Key)
	if key == "" || !strings.HasPrefix(key, s.store.KeyPrefix(owner)) {
		return image.Image{}, fmt.Errorf("%w: key does not belong to %s", brigade_errors.ErrInvalidInput, owner)
	}

	img, err := s.images.GetByKey(ctx, key)
	if err != nil {
		return image.Image{}, err
	}
	if rowOwner, ok := img.Owner(); !ok || rowOwner != owner {
		return image.Image{}, brigade_errors.ErrNotFound
	}
	if img.Status == image.StatusActive {
		return img, nil
	}

	info, err := s.store.Stat(ctx, key)
	if err != nil {
		if errors.Is(err, brigade_errors.ErrNotFound) {
			return image.Image{}, brigade_errors.ErrNotUploaded
		}
		return image.Image{}, err
	}
	if _, err := s.store.ValidateFile(key, img.ContentType, info.Size); err != nil {
		if rmErr := s.RemoveImage(ctx, &img); rmErr != nil {
			s.logger.WithContext(ctx).Errorf("confirm: failed to discard invalid upload %s: %v", key, rmErr)
		}
		return image.Image{}, err
	}
	if in.ETag != "" && info.ETag != "" && strings.Trim(in.ETag, `"`) != info.ETag {
		return image.Image{}, fmt.Errorf("%w: etag mismatch", brigade_errors.ErrInvalidInput)
	}

	img.SizeBytes = info.Size
	if info.ETag != "" {
		etag := info.ETag
		img.ETag = &etag
	}
	if validDims(in.Width, in.Height) {
		img.Width, img.Height = in.Width, in.Height
	} else {
		img.Width, img.Height = s.sniffStored(ctx, key)
	}
	img.Status = image.StatusActive

	if err := s.images.Update(ctx, img); err != nil {
		return image.Image{}, err
	}
	return img, nil
}

func (s *AttachmentService) sniffStored(ctx context.Context, key string) (*int, *int) {
	body, err := s.store.ReadHead(ctx, key, sniffLimit)
	if err != nil {
		s.logger.WithContext(ctx).Debugf("confirm: could not read %s for dimensions: %v", key, err)
		return nil, nil
	}
	defer body.Close()
	return sniffDimensions(body)
}

// URL mints a fresh read URL for img.
func (s *AttachmentService) URL(ctx context.Context, img image.Image) (string, error) {
	return s.store.PresignedReadURL(ctx, img.ObjectKey, s.urlTTL)
}

// View projects one image with a freshly signed URL.
func (s *AttachmentService) View(ctx context.Context, img image.Image) (ImageView, error) {
	url, err := s.URL(ctx, img)
	if err != nil {
		return ImageView{}, err
	}
	return ImageView{
		ID:        img.ID,
		URL:       url,
		Width:     img.Width,
		Height:    img.Height,
		CreatedAt: img.CreatedAt,
	}, nil
}

// Views projects the active images newest first.
func (s *AttachmentService) Views(ctx context.Context, imgs []image.Image) ([]ImageView, error) {
	active := make([]image.Image, 0, len(imgs))
	for _, img := range imgs {
		if img.IsActive() {
			active = append(active, img)
		}
	}
	sort.SliceStable(active, func(i, j int) bool {
		if !active[i].CreatedAt.Equal(active[j].CreatedAt) {
			return active[i].CreatedAt.After(active[j].CreatedAt)
		}
		return active[i].ID > active[j].ID
	})

	views := make([]ImageView, 0, len(active))
	for _, img := range active {
		v, err := s.View(ctx, img)
		if err != nil {
			return nil, err
		}
		views = append(views, v)
	}
	return views, nil
}

func validDims(w, h *int) bool {
	return w != nil && h != nil && *w > 0 && *h > 0
}
