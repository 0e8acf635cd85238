package services

import (
	"context"
	"errors"
	"strings"
	"testing"

	"brigade-service/internal/storage"
	brigade_errors "brigade-service/pkg/errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCampaignCreate_WithPhoto(t *testing.T) {
	f := newFixture(t, 1)
	ctx := context.Background()

	view, err := f.campaigns.Create(ctx, CampaignInput{
		Title:        "  Night vision  ",
		Goal:         150000,
		DonationLink: "https://send.monobank.ua/jar/abc",
	}, ptr(jpegFile("cover.jpg")))
	require.NoError(t, err)

	assert.Equal(t, "Night vision", view.Title)
	assert.False(t, view.IsCompleted)
	require.NotNil(t, view.Image)
	assert.NotEmpty(t, view.Image.URL)
	assert.Equal(t, 1, f.mem.Len())
}

func TestCampaignCreate_Validation(t *testing.T) {
	f := newFixture(t, 1)
	ctx := context.Background()

	cases := []CampaignInput{
		{Title: ""},
		{Title: "x", Goal: -1},
		{Title: "x", DonationLink: "javascript:alert(1)"},
		{Title: "x", DonationLink: "not a url"},
	}
	for _, in := range cases {
		_, err := f.campaigns.Create(ctx, in, ptr(jpegFile("a.jpg")))
		assert.ErrorIs(t, err, brigade_errors.ErrInvalidInput, "%+v", in)
	}
	assert.Zero(t, f.db.CampaignCount())
	assert.Zero(t, f.mem.Len())
}

func TestCampaignCreate_PhotoFailureRemovesCampaign(t *testing.T) {
	f := newFixture(t, 1)
	f.mem.PutHook = func(string, int) error { return errors.New("bucket missing") }

	_, err := f.campaigns.Create(context.Background(), CampaignInput{Title: "Cars"}, ptr(jpegFile("a.jpg")))
	require.ErrorIs(t, err, brigade_errors.ErrUpstreamStore)
	assert.Zero(t, f.db.CampaignCount())
}

// seedCascade builds a donation with one image and two reports with two
// images each.
func seedCascade(t *testing.T, f *fixture) uint {
	t.Helper()
	ctx := context.Background()
	c, err := f.campaigns.Create(ctx, CampaignInput{Title: "Medevac"}, ptr(jpegFile("cover.jpg")))
	require.NoError(t, err)
	for i := 0; i < 2; i++ {
		_, err := f.campaigns.CreateReport(ctx, c.ID, ReportInput{Title: "Report"}, []storage.FileInput{
			jpegFile("1.jpg"), jpegFile("2.jpg"),
		})
		require.NoError(t, err)
	}
	require.Len(t, f.db.ImageRows(), 5)
	require.Equal(t, 5, f.mem.Len())
	return c.ID
}

func TestCampaignDelete_Cascade(t *testing.T) {
	f := newFixture(t, 2)
	ctx := context.Background()
	id := seedCascade(t, f)

	require.NoError(t, f.campaigns.Delete(ctx, id))

	assert.Empty(t, f.db.ImageRows())
	assert.Equal(t, 0, f.db.ReportCount(id))
	assert.Zero(t, f.mem.Len())
	assert.Zero(t, f.db.CampaignCount())

	err := f.campaigns.Delete(ctx, id)
	require.ErrorIs(t, err, brigade_errors.ErrNotFound)
}

func TestCampaignDelete_FailureKeepsCampaignAndRetrySucceeds(t *testing.T) {
	f := newFixture(t, 1)
	ctx := context.Background()
	id := seedCascade(t, f)

	var failing string
	for _, row := range f.db.ImageRows() {
		if strings.Contains(row.ObjectKey, "/report/") {
			failing = row.ObjectKey
		}
	}
	require.NotEmpty(t, failing)
	f.mem.DeleteHook = func(key string) error {
		if key == failing {
			return errors.New("slow down")
		}
		return nil
	}

	err := f.campaigns.Delete(ctx, id)
	require.ErrorIs(t, err, brigade_errors.ErrUpstreamStore)
	assert.Equal(t, 1, f.db.CampaignCount())
	assert.True(t, f.mem.Has(failing))

	f.mem.DeleteHook = nil
	require.NoError(t, f.campaigns.Delete(ctx, id))
	assert.Empty(t, f.db.ImageRows())
	assert.Zero(t, f.mem.Len())
	assert.Zero(t, f.db.CampaignCount())
}

func TestToggleCompletion(t *testing.T) {
	f := newFixture(t, 1)
	ctx := context.Background()
	id := f.seedCampaigns(t, 1)

	done, err := f.campaigns.ToggleCompletion(ctx, id)
	require.NoError(t, err)
	assert.True(t, done)

	done, err = f.campaigns.ToggleCompletion(ctx, id)
	require.NoError(t, err)
	assert.False(t, done)

	_, err = f.campaigns.ToggleCompletion(ctx, id+100)
	require.ErrorIs(t, err, brigade_errors.ErrNotFound)
}

func TestCampaignUpdate(t *testing.T) {
	f := newFixture(t, 1)
	ctx := context.Background()
	id := f.seedCampaigns(t, 1)

	view, err := f.campaigns.Update(ctx, id, CampaignInput{Title: "Renamed", Goal: 10, DonationLink: "https://example.org/pay"})
	require.NoError(t, err)
	assert.Equal(t, "Renamed", view.Title)

	link, err := f.campaigns.DonationLink(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "https://example.org/pay", link)

	_, err = f.campaigns.Update(ctx, id+1, CampaignInput{Title: "x"})
	require.ErrorIs(t, err, brigade_errors.ErrNotFound)
}

func TestDonationLink_Missing(t *testing.T) {
	f := newFixture(t, 1)
	id := f.seedCampaigns(t, 1)

	_, err := f.campaigns.DonationLink(context.Background(), id)
	require.ErrorIs(t, err, brigade_errors.ErrNotFound)
}

func TestListReports(t *testing.T) {
	f := newFixture(t, 1)
	ctx := context.Background()
	id := seedCascade(t, f)

	reports, err := f.campaigns.ListReports(ctx, id)
	require.NoError(t, err)
	require.Len(t, reports, 2)
	for _, r := range reports {
		assert.Len(t, r.Images, 2)
		assert.Equal(t, id, r.DonationID)
	}

	_, err = f.campaigns.ListReports(ctx, id+50)
	require.ErrorIs(t, err, brigade_errors.ErrNotFound)
}

func TestPostDelete_RemovesImages(t *testing.T) {
	f := newFixture(t, 2)
	ctx := context.Background()
	p, err := f.posts.Create(ctx, PostInput{Title: "Thanks"}, []storage.FileInput{jpegFile("a.jpg"), jpegFile("b.jpg")})
	require.NoError(t, err)
	require.Len(t, p.Images, 2)

	require.NoError(t, f.posts.Delete(ctx, p.ID))
	assert.Empty(t, f.db.ImageRows())
	assert.Zero(t, f.mem.Len())
	assert.ErrorIs(t, f.posts.Delete(ctx, p.ID), brigade_errors.ErrNotFound)
}
