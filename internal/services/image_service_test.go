package services

import (
	"context"
	"testing"

	"brigade-service/internal/domain/image"
	"brigade-service/internal/storage"
	brigade_errors "brigade-service/pkg/errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestImageService_OwnerChecks(t *testing.T) {
	f := newFixture(t, 1)
	ctx := context.Background()
	a, err := f.posts.Create(ctx, PostInput{Title: "A"}, []storage.FileInput{jpegFile("a.jpg")})
	require.NoError(t, err)
	b, err := f.posts.Create(ctx, PostInput{Title: "B"}, nil)
	require.NoError(t, err)
	imageID := a.Images[0].ID

	url, err := f.images.URL(ctx, image.PostOwner(a.ID), imageID)
	require.NoError(t, err)
	assert.NotEmpty(t, url)

	_, err = f.images.URL(ctx, image.PostOwner(b.ID), imageID)
	assert.ErrorIs(t, err, brigade_errors.ErrNotFound)

	_, err = f.images.List(ctx, image.PostOwner(999))
	assert.ErrorIs(t, err, brigade_errors.ErrNotFound)

	err = f.images.Remove(ctx, image.PostOwner(b.ID), imageID)
	assert.ErrorIs(t, err, brigade_errors.ErrNotFound)
	assert.Len(t, f.db.ImageRows(), 1)

	require.NoError(t, f.images.Remove(ctx, image.PostOwner(a.ID), imageID))
	assert.Empty(t, f.db.ImageRows())
}

func TestImageService_AttachAndList(t *testing.T) {
	f := newFixture(t, 2)
	ctx := context.Background()
	campaignID := f.seedCampaigns(t, 1)
	r, err := f.reports.Create(ctx, ReportInput{Title: "R", CampaignID: campaignID}, nil)
	require.NoError(t, err)
	owner := image.ReportOwner(r.ID)

	views, err := f.images.Attach(ctx, owner, []storage.FileInput{jpegFile("a.jpg"), jpegFile("b.jpg")})
	require.NoError(t, err)
	assert.Len(t, views, 2)

	listed, err := f.images.List(ctx, owner)
	require.NoError(t, err)
	require.Len(t, listed, 2)
	assert.True(t, listed[0].CreatedAt.After(listed[1].CreatedAt) || listed[0].ID > listed[1].ID)

	_, err = f.images.Attach(ctx, image.CampaignOwner(campaignID), []storage.FileInput{jpegFile("c.jpg")})
	assert.ErrorIs(t, err, brigade_errors.ErrInvalidInput)
}

func TestImageService_CampaignImage(t *testing.T) {
	f := newFixture(t, 1)
	ctx := context.Background()
	id := f.seedCampaigns(t, 1)

	_, err := f.images.CampaignImageURL(ctx, id)
	assert.ErrorIs(t, err, brigade_errors.ErrNotFound)

	view, err := f.images.ReplaceCampaignImage(ctx, id, jpegFile("cover.jpg"))
	require.NoError(t, err)
	assert.NotEmpty(t, view.URL)

	url, err := f.images.CampaignImageURL(ctx, id)
	require.NoError(t, err)
	assert.NotEmpty(t, url)

	require.NoError(t, f.images.RemoveCampaignImage(ctx, id))
	assert.Zero(t, f.mem.Len())

	_, err = f.images.ReplaceCampaignImage(ctx, id+1, jpegFile("cover.jpg"))
	assert.ErrorIs(t, err, brigade_errors.ErrNotFound)
}

func TestImageService_PresignRules(t *testing.T) {
	f := newFixture(t, 1)
	ctx := context.Background()
	id := f.seedCampaigns(t, 1)

	_, err := f.images.Presign(ctx, image.CampaignOwner(id), PresignInput{FileName: "a.jpg", ContentType: "image/jpeg", Size: 10})
	assert.ErrorIs(t, err, brigade_errors.ErrInvalidInput)

	_, err = f.images.Presign(ctx, image.PostOwner(77), PresignInput{FileName: "a.jpg", ContentType: "image/jpeg", Size: 10})
	assert.ErrorIs(t, err, brigade_errors.ErrNotFound)

	p, err := f.posts.Create(ctx, PostInput{Title: "P"}, nil)
	require.NoError(t, err)
	_, err = f.images.Presign(ctx, image.PostOwner(p.ID), PresignInput{FileName: "a.gif", ContentType: "image/gif", Size: 10})
	assert.ErrorIs(t, err, brigade_errors.ErrUnsupportedMediaType)
	assert.Empty(t, f.db.ImageRows())
}

func TestVacancyService(t *testing.T) {
	f := newFixture(t, 1)
	svc := NewVacancyService(f.db.Vacancies())
	ctx := context.Background()

	_, err := svc.Create(ctx, VacancyInput{})
	require.ErrorIs(t, err, brigade_errors.ErrInvalidInput)

	v, err := svc.Create(ctx, VacancyInput{Title: "Driver", Requirements: []string{" B licence ", ""}})
	require.NoError(t, err)
	assert.Equal(t, []string{"B licence"}, v.Requirements)

	v, err = svc.Update(ctx, v.ID, VacancyInput{Title: "Medic"})
	require.NoError(t, err)
	assert.Equal(t, "Medic", v.Title)
	assert.Equal(t, []string{}, v.Requirements)

	list, err := svc.List(ctx)
	require.NoError(t, err)
	assert.Len(t, list, 1)

	require.NoError(t, svc.Delete(ctx, v.ID))
	_, err = svc.Get(ctx, v.ID)
	assert.ErrorIs(t, err, brigade_errors.ErrNotFound)
}
