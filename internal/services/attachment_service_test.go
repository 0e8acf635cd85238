package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"brigade-service/internal/domain/image"
	"brigade-service/internal/storage"
	brigade_errors "brigade-service/pkg/errors"
	"brigade-service/pkg/logger"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateReport_ThreePhotos(t *testing.T) {
	f := newFixture(t, 4)
	ctx := context.Background()
	campaignID := f.seedCampaigns(t, 7)
	require.Equal(t, uint(7), campaignID)

	view, err := f.reports.Create(ctx, ReportInput{Title: "Generators", Category: "equipment", CampaignID: 7}, []storage.FileInput{
		jpegFile("a.jpg"),
		fileOf("b.png", "image/png", pngBytes(t, 4, 3)),
		fileOf("c.webp", "image/webp", []byte("RIFF....WEBPVP8 ")),
	})
	require.NoError(t, err)
	assert.Equal(t, uint(7), view.DonationID)

	rows := f.db.ImageRows()
	require.Len(t, rows, 3)
	keys := map[string]bool{}
	for _, row := range rows {
		owner, ok := row.Owner()
		require.True(t, ok)
		assert.Equal(t, image.ReportOwner(view.ID), owner)
		assert.Equal(t, image.StatusActive, row.Status)
		assert.True(t, f.mem.Has(row.ObjectKey))
		keys[row.ObjectKey] = true
	}
	assert.Len(t, keys, 3)

	require.Len(t, view.Images, 3)
	for _, img := range view.Images {
		assert.NotEmpty(t, img.URL)
	}

	var pngID uint
	for _, row := range rows {
		if row.ContentType == "image/png" {
			pngID = row.ID
		}
	}
	var pngView *ImageView
	for i := range view.Images {
		if view.Images[i].ID == pngID {
			pngView = &view.Images[i]
		}
	}
	require.NotNil(t, pngView)
	require.NotNil(t, pngView.Width)
	assert.Equal(t, 4, *pngView.Width)
	assert.Equal(t, 3, *pngView.Height)
}

func TestCreateReport_RejectsBadFileWithoutSideEffects(t *testing.T) {
	f := newFixture(t, 4)
	ctx := context.Background()
	campaignID := f.seedCampaigns(t, 1)

	_, err := f.reports.Create(ctx, ReportInput{Title: "Receipts", CampaignID: campaignID}, []storage.FileInput{
		jpegFile("a.jpg"),
		fileOf("b.gif", "image/gif", []byte("GIF89a")),
	})
	require.ErrorIs(t, err, brigade_errors.ErrUnsupportedMediaType)

	_, err = f.reports.Create(ctx, ReportInput{Title: "Receipts", CampaignID: campaignID}, []storage.FileInput{
		fileOf("empty.png", "image/png", nil),
	})
	require.ErrorIs(t, err, brigade_errors.ErrPayloadTooLarge)

	assert.Equal(t, 0, f.db.ReportCount(campaignID))
	assert.Empty(t, f.db.ImageRows())
	assert.Zero(t, f.mem.Len())
}

func TestCreateReport_MissingCampaign(t *testing.T) {
	f := newFixture(t, 4)

	_, err := f.reports.Create(context.Background(), ReportInput{Title: "Orphan", CampaignID: 42}, []storage.FileInput{jpegFile("a.jpg")})
	require.ErrorIs(t, err, brigade_errors.ErrNotFound)
	assert.Zero(t, f.mem.Len())
}

func TestCreateWithImages_CompensatesMidBatchFailure(t *testing.T) {
	f := newFixture(t, 1)
	ctx := context.Background()
	campaignID := f.seedCampaigns(t, 1)

	f.mem.PutHook = func(key string, n int) error {
		if n == 3 {
			return errors.New("connection reset")
		}
		return nil
	}

	_, err := f.reports.Create(ctx, ReportInput{Title: "Fuel", CampaignID: campaignID}, []storage.FileInput{
		jpegFile("1.jpg"), jpegFile("2.jpg"), jpegFile("3.jpg"),
	})
	require.ErrorIs(t, err, brigade_errors.ErrUpstreamStore)
	assert.False(t, errors.Is(err, brigade_errors.ErrPartialFailure))

	assert.Equal(t, 0, f.db.ReportCount(campaignID))
	assert.Empty(t, f.db.ImageRows())
	assert.Zero(t, f.mem.Len())
}

func TestCreateWithImages_CompensatesRowFailure(t *testing.T) {
	f := newFixture(t, 1)
	ctx := context.Background()

	f.db.ImageCreateHook = func(img image.Image) error {
		return brigade_errors.ErrPersistence
	}

	_, err := f.posts.Create(ctx, PostInput{Title: "News"}, []storage.FileInput{jpegFile("1.jpg")})
	require.ErrorIs(t, err, brigade_errors.ErrPersistence)
	assert.Zero(t, f.db.PostCount())
	assert.Zero(t, f.mem.Len())
}

func TestCreateWithImages_ReportsLeftoversWhenCleanupFails(t *testing.T) {
	f := newFixture(t, 1)
	ctx := context.Background()

	f.mem.PutHook = func(key string, n int) error {
		if n == 2 {
			return errors.New("throttled")
		}
		return nil
	}
	f.mem.DeleteHook = func(key string) error {
		return errors.New("access denied")
	}

	_, err := f.posts.Create(ctx, PostInput{Title: "News"}, []storage.FileInput{jpegFile("1.jpg"), jpegFile("2.jpg")})
	require.Error(t, err)

	var partial *brigade_errors.PartialFailureError
	require.ErrorAs(t, err, &partial)
	assert.ErrorIs(t, err, brigade_errors.ErrPartialFailure)
	assert.ErrorIs(t, err, brigade_errors.ErrUpstreamStore)
	require.Len(t, partial.Leftovers, 1)
	assert.True(t, f.mem.Has(partial.Leftovers[0]))

	// The row was removed so the sweeper treats the leftover as an orphan.
	assert.Empty(t, f.db.ImageRows())
	assert.Zero(t, f.db.PostCount())
}

func TestCreateWithImages_RowRemovalFailureKeepsObject(t *testing.T) {
	f := newFixture(t, 1)
	ctx := context.Background()
	campaignID := f.seedCampaigns(t, 2)

	f.mem.PutHook = func(key string, n int) error {
		if n == 2 {
			return errors.New("throttled")
		}
		return nil
	}
	f.db.ImageRemoveHook = func(id uint) error {
		return errors.New("connection reset")
	}

	_, err := f.reports.Create(ctx, ReportInput{Title: "Fuel", CampaignID: campaignID}, []storage.FileInput{
		jpegFile("1.jpg"),
		jpegFile("2.jpg"),
	})
	var partial *brigade_errors.PartialFailureError
	require.ErrorAs(t, err, &partial)

	rows := f.db.ImageRows()
	require.Len(t, rows, 1)
	assert.Equal(t, []uint{rows[0].ID}, partial.LeftoverRows)
	assert.Equal(t, []string{rows[0].ObjectKey}, partial.Leftovers)
	for _, row := range rows {
		if row.Status == image.StatusActive {
			assert.True(t, f.mem.Has(row.ObjectKey), "active row %d points at a missing object", row.ID)
		}
	}
	assert.Equal(t, 1, f.db.ReportCount(campaignID))

	f.db.ImageRemoveHook = nil
	f.mem.PutHook = nil
	sweeper := NewSweeperService(f.db.Images(), f.store, f.attachments, time.Hour, 0, logger.NewNop())
	_, err = sweeper.Sweep(ctx)
	require.NoError(t, err)
	assert.True(t, f.mem.Has(rows[0].ObjectKey))
}

func TestAttachImages_KeysAreUnique(t *testing.T) {
	f := newFixture(t, 2)
	ctx := context.Background()
	post, err := f.posts.Create(ctx, PostInput{Title: "Trip"}, nil)
	require.NoError(t, err)

	data := pngBytes(t, 2, 2)
	created, err := f.attachments.AttachImages(ctx, image.PostOwner(post.ID), []storage.FileInput{
		fileOf("same.png", "image/png", data),
		fileOf("same.png", "image/png", data),
	})
	require.NoError(t, err)
	require.Len(t, created, 2)
	assert.NotEqual(t, created[0].ObjectKey, created[1].ObjectKey)
	assert.Equal(t, 2, f.mem.Len())
}

func TestAttachImages_RequiresFiles(t *testing.T) {
	f := newFixture(t, 1)
	_, err := f.attachments.AttachImages(context.Background(), image.PostOwner(1), nil)
	require.ErrorIs(t, err, brigade_errors.ErrInvalidInput)
}

func TestRemoveImage(t *testing.T) {
	f := newFixture(t, 1)
	ctx := context.Background()
	post, err := f.posts.Create(ctx, PostInput{Title: "Trip"}, []storage.FileInput{jpegFile("a.jpg")})
	require.NoError(t, err)

	rows := f.db.ImageRows()
	require.Len(t, rows, 1)
	img := rows[0]

	require.NoError(t, f.attachments.RemoveImage(ctx, &img))
	assert.Empty(t, f.db.ImageRows())
	assert.False(t, f.mem.Has(img.ObjectKey))

	// Retrying after both are gone is a no-op.
	require.NoError(t, f.attachments.RemoveImage(ctx, &img))

	got, err := f.posts.Get(ctx, post.ID)
	require.NoError(t, err)
	assert.Empty(t, got.Images)
}

func TestRemoveImage_Nil(t *testing.T) {
	f := newFixture(t, 1)
	err := f.attachments.RemoveImage(context.Background(), nil)
	require.ErrorIs(t, err, brigade_errors.ErrInvalidInput)
}

func TestRemoveImage_StoreFailureKeepsRow(t *testing.T) {
	f := newFixture(t, 1)
	ctx := context.Background()
	_, err := f.posts.Create(ctx, PostInput{Title: "Trip"}, []storage.FileInput{jpegFile("a.jpg")})
	require.NoError(t, err)
	img := f.db.ImageRows()[0]

	f.mem.DeleteHook = func(string) error { return errors.New("timeout") }
	err = f.attachments.RemoveImage(ctx, &img)
	require.ErrorIs(t, err, brigade_errors.ErrUpstreamStore)
	assert.Len(t, f.db.ImageRows(), 1)
}

func TestURL_NotCached(t *testing.T) {
	f := newFixture(t, 1)
	ctx := context.Background()
	_, err := f.posts.Create(ctx, PostInput{Title: "Trip"}, []storage.FileInput{jpegFile("a.jpg")})
	require.NoError(t, err)
	img := f.db.ImageRows()[0]

	first, err := f.attachments.URL(ctx, img)
	require.NoError(t, err)
	second, err := f.attachments.URL(ctx, img)
	require.NoError(t, err)

	assert.NotEqual(t, first, second)
	for _, u := range []string{first, second} {
		assert.Contains(t, u, img.ObjectKey)
		assert.Contains(t, u, "X-Amz-Expires=900")
	}
}

func TestViews_ActiveOnlyNewestFirst(t *testing.T) {
	f := newFixture(t, 1)
	ctx := context.Background()
	imgs := []image.Image{
		{ID: 1, ObjectKey: "uploads/post/1/images/a.jpg", Status: image.StatusActive},
		{ID: 2, ObjectKey: "uploads/post/1/images/b.jpg", Status: image.StatusPending},
		{ID: 3, ObjectKey: "uploads/post/1/images/c.jpg", Status: image.StatusActive},
	}
	imgs[0].CreatedAt = f.db.Now()
	imgs[2].CreatedAt = f.db.Now().Add(1)

	views, err := f.attachments.Views(ctx, imgs)
	require.NoError(t, err)
	require.Len(t, views, 2)
	assert.Equal(t, uint(3), views[0].ID)
	assert.Equal(t, uint(1), views[1].ID)
}

func TestReplaceCampaignImage(t *testing.T) {
	f := newFixture(t, 1)
	ctx := context.Background()

	created, err := f.campaigns.Create(ctx, CampaignInput{Title: "Drones"}, ptr(jpegFile("old.jpg")))
	require.NoError(t, err)
	require.NotNil(t, created.Image)
	oldKey := f.db.ImageRows()[0].ObjectKey

	replaced, err := f.attachments.ReplaceCampaignImage(ctx, created.ID, fileOf("new.png", "image/png", pngBytes(t, 8, 5)))
	require.NoError(t, err)
	assert.Equal(t, f.db.ImageRows()[0].ID, replaced.ID)
	assert.NotEqual(t, oldKey, replaced.ObjectKey)
	assert.False(t, f.mem.Has(oldKey))
	assert.True(t, f.mem.Has(replaced.ObjectKey))
	require.NotNil(t, replaced.Width)
	assert.Equal(t, 8, *replaced.Width)
	assert.Len(t, f.db.ImageRows(), 1)
}

func TestReplaceCampaignImage_FirstImage(t *testing.T) {
	f := newFixture(t, 1)
	ctx := context.Background()
	id := f.seedCampaigns(t, 1)

	img, err := f.attachments.ReplaceCampaignImage(ctx, id, jpegFile("first.jpg"))
	require.NoError(t, err)
	owner, ok := img.Owner()
	require.True(t, ok)
	assert.Equal(t, image.CampaignOwner(id), owner)
}

func TestPresignAndConfirm(t *testing.T) {
	f := newFixture(t, 1)
	ctx := context.Background()
	post, err := f.posts.Create(ctx, PostInput{Title: "Trip"}, nil)
	require.NoError(t, err)
	owner := image.PostOwner(post.ID)

	data := pngBytes(t, 6, 4)
	presigned, err := f.attachments.PresignImageUpload(ctx, owner, "photo.png", "image/png", int64(len(data)))
	require.NoError(t, err)
	assert.NotEmpty(t, presigned.UploadURL)
	assert.Equal(t, "image/png", presigned.Headers["Content-Type"])

	row, err := f.db.Images().GetByID(ctx, presigned.ImageID)
	require.NoError(t, err)
	assert.Equal(t, image.StatusPending, row.Status)

	got, err := f.posts.Get(ctx, post.ID)
	require.NoError(t, err)
	assert.Empty(t, got.Images, "pending rows are not projected")

	_, err = f.attachments.ConfirmImageUpload(ctx, owner, ConfirmInput{Key: presigned.Key})
	require.ErrorIs(t, err, brigade_errors.ErrNotUploaded)

	f.mem.Put(presigned.Key, "image/png", data)
	confirmed, err := f.attachments.ConfirmImageUpload(ctx, owner, ConfirmInput{Key: presigned.Key})
	require.NoError(t, err)
	assert.Equal(t, image.StatusActive, confirmed.Status)
	assert.Equal(t, int64(len(data)), confirmed.SizeBytes)
	require.NotNil(t, confirmed.ETag)
	require.NotNil(t, confirmed.Width)
	assert.Equal(t, 6, *confirmed.Width)
	assert.Equal(t, 4, *confirmed.Height)

	// Confirming twice returns the active row.
	again, err := f.attachments.ConfirmImageUpload(ctx, owner, ConfirmInput{Key: presigned.Key})
	require.NoError(t, err)
	assert.Equal(t, confirmed.ID, again.ID)
}

func TestConfirm_RejectsForeignKey(t *testing.T) {
	f := newFixture(t, 1)
	ctx := context.Background()
	a, err := f.posts.Create(ctx, PostInput{Title: "A"}, nil)
	require.NoError(t, err)
	b, err := f.posts.Create(ctx, PostInput{Title: "B"}, nil)
	require.NoError(t, err)

	presigned, err := f.attachments.PresignImageUpload(ctx, image.PostOwner(a.ID), "x.jpg", "image/jpeg", 10)
	require.NoError(t, err)

	_, err = f.attachments.ConfirmImageUpload(ctx, image.PostOwner(b.ID), ConfirmInput{Key: presigned.Key})
	require.ErrorIs(t, err, brigade_errors.ErrInvalidInput)
}

func TestConfirm_UsesClientDimensions(t *testing.T) {
	f := newFixture(t, 1)
	ctx := context.Background()
	post, err := f.posts.Create(ctx, PostInput{Title: "A"}, nil)
	require.NoError(t, err)
	owner := image.PostOwner(post.ID)

	presigned, err := f.attachments.PresignImageUpload(ctx, owner, "x.heic", "image/heic", 5)
	require.NoError(t, err)
	f.mem.Put(presigned.Key, "image/heic", []byte("heic!"))

	w, h := 1920, 1080
	img, err := f.attachments.ConfirmImageUpload(ctx, owner, ConfirmInput{Key: presigned.Key, Width: &w, Height: &h})
	require.NoError(t, err)
	assert.Equal(t, 1920, *img.Width)
	assert.Equal(t, 1080, *img.Height)
}

func ptr[T any](v T) *T { return &v }
