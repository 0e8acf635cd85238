package services

import (
	"bytes"
	"context"
	stdimage "image"
	"image/color"
	"image/png"
	"testing"
	"time"

	"brigade-service/internal/storage"
	"brigade-service/internal/testutil"
	"brigade-service/pkg/logger"

	"github.com/stretchr/testify/require"
)

type fixture struct {
	db          *testutil.MemoryDB
	mem         *testutil.MemoryS3
	store       *storage.Client
	attachments *AttachmentService
	campaigns   *CampaignService
	reports     *ReportService
	posts       *PostService
	images      *ImageService
}

func newFixture(t *testing.T, concurrency int) *fixture {
	t.Helper()
	db := testutil.NewMemoryDB()
	mem := testutil.NewMemoryS3()
	store := testutil.NewStore(mem)

	attachments := NewAttachmentService(db.Images(), store, logger.NewNop(), concurrency, 15*time.Minute)
	reports := NewReportService(db.Reports(), db.Campaigns(), attachments)
	return &fixture{
		db:          db,
		mem:         mem,
		store:       store,
		attachments: attachments,
		campaigns:   NewCampaignService(db.Campaigns(), reports, attachments),
		reports:     reports,
		posts:       NewPostService(db.Posts(), attachments),
		images:      NewImageService(attachments, db.Images(), db.Campaigns(), db.Reports(), db.Posts()),
	}
}

func fileOf(name, contentType string, data []byte) storage.FileInput {
	return storage.FileInput{
		Name:        name,
		ContentType: contentType,
		Size:        int64(len(data)),
		Body:        bytes.NewReader(data),
	}
}

func pngBytes(t *testing.T, w, h int) []byte {
	t.Helper()
	img := stdimage.NewRGBA(stdimage.Rect(0, 0, w, h))
	img.Set(0, 0, color.RGBA{R: 255, A: 255})
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func jpegFile(name string) storage.FileInput {
	return fileOf(name, "image/jpeg", []byte("\xff\xd8\xff\xe0 not really a jpeg"))
}

// seedCampaigns creates n donations and returns the id of the last one.
func (f *fixture) seedCampaigns(t *testing.T, n int) uint {
	t.Helper()
	var last uint
	for i := 0; i < n; i++ {
		v, err := f.campaigns.Create(context.Background(), CampaignInput{Title: "Donation"}, nil)
		require.NoError(t, err)
		last = v.ID
	}
	return last
}
