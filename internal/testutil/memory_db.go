package testutil

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"brigade-service/internal/domain/campaign"
	"brigade-service/internal/domain/image"
	"brigade-service/internal/domain/post"
	"brigade-service/internal/domain/report"
	"brigade-service/internal/domain/user"
	"brigade-service/internal/domain/vacancy"
	"brigade-service/internal/repository"
	brigade_errors "brigade-service/pkg/errors"
)

// MemoryDB holds every table in memory and enforces the same foreign key and
// unique rules as the Postgres schema. Each insert advances the clock by one
// second so newest-first ordering is deterministic.
type MemoryDB struct {
	mu    sync.Mutex
	clock time.Time
	seq   uint

	campaigns map[uint]campaign.Campaign
	reports   map[uint]report.Report
	posts     map[uint]post.Post
	images    map[uint]image.Image
	vacancies map[uint]vacancy.Vacancy
	users     map[uint]user.User

	// ImageCreateHook runs before an image row is inserted.
	ImageCreateHook func(img image.Image) error
	// ImageRemoveHook runs before an image row is removed.
	ImageRemoveHook func(id uint) error
}

func NewMemoryDB() *MemoryDB {
	return &MemoryDB{
		clock:     time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
		campaigns: make(map[uint]campaign.Campaign),
		reports:   make(map[uint]report.Report),
		posts:     make(map[uint]post.Post),
		images:    make(map[uint]image.Image),
		vacancies: make(map[uint]vacancy.Vacancy),
		users:     make(map[uint]user.User),
	}
}

func (db *MemoryDB) Campaigns() repository.CampaignRepository { return memCampaigns{db} }
func (db *MemoryDB) Reports() repository.ReportRepository     { return memReports{db} }
func (db *MemoryDB) Posts() repository.PostRepository         { return memPosts{db} }
func (db *MemoryDB) Images() repository.ImageRepository       { return memImages{db} }
func (db *MemoryDB) Vacancies() repository.VacancyRepository  { return memVacancies{db} }
func (db *MemoryDB) Users() repository.UserRepository         { return memUsers{db} }

// Now returns the current clock without advancing it.
func (db *MemoryDB) Now() time.Time {
	db.mu.Lock()
	defer db.mu.Unlock()
	return db.clock
}

// Advance moves the clock forward.
func (db *MemoryDB) Advance(d time.Duration) {
	db.mu.Lock()
	defer db.mu.Unlock()
	db.clock = db.clock.Add(d)
}

func (db *MemoryDB) ImageRows() []image.Image {
	db.mu.Lock()
	defer db.mu.Unlock()
	rows := make([]image.Image, 0, len(db.images))
	for _, img := range db.images {
		rows = append(rows, img)
	}
	sort.Slice(rows, func(i, j int) bool { return rows[i].ID < rows[j].ID })
	return rows
}

func (db *MemoryDB) ReportCount(campaignID uint) int {
	db.mu.Lock()
	defer db.mu.Unlock()
	n := 0
	for _, r := range db.reports {
		if r.CampaignID == campaignID {
			n++
		}
	}
	return n
}

func (db *MemoryDB) CampaignCount() int {
	db.mu.Lock()
	defer db.mu.Unlock()
	return len(db.campaigns)
}

func (db *MemoryDB) PostCount() int {
	db.mu.Lock()
	defer db.mu.Unlock()
	return len(db.posts)
}

func (db *MemoryDB) nextLocked() (uint, time.Time) {
	db.seq++
	db.clock = db.clock.Add(time.Second)
	return db.seq, db.clock
}

func (db *MemoryDB) imagesOfLocked(match func(image.Image) bool) []image.Image {
	var out []image.Image
	for _, img := range db.images {
		if match(img) {
			out = append(out, img)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].ID > out[j].ID
	})
	return out
}

func (db *MemoryDB) hasImagesLocked(match func(image.Image) bool) bool {
	for _, img := range db.images {
		if match(img) {
			return true
		}
	}
	return false
}

func ownedBy(col func(image.Image) *uint, id uint) func(image.Image) bool {
	return func(img image.Image) bool {
		v := col(img)
		return v != nil && *v == id
	}
}

func campaignCol(i image.Image) *uint { return i.CampaignID }
func reportCol(i image.Image) *uint   { return i.ReportID }
func postCol(i image.Image) *uint     { return i.PostID }

func fkViolation(table string) error {
	return fmt.Errorf("%w: violates foreign key constraint on %s", brigade_errors.ErrPersistence, table)
}

type memCampaigns struct{ db *MemoryDB }

func (r memCampaigns) Create(_ context.Context, c *campaign.Campaign) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	id, now := r.db.nextLocked()
	c.ID = id
	if c.CreatedAt.IsZero() {
		c.CreatedAt = now
	}
	stored := *c
	stored.Image, stored.Reports = nil, nil
	r.db.campaigns[id] = stored
	return nil
}

func (r memCampaigns) GetByID(_ context.Context, id uint) (campaign.Campaign, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	c, ok := r.db.campaigns[id]
	if !ok {
		return campaign.Campaign{}, brigade_errors.ErrNotFound
	}
	r.loadImageLocked(&c)
	return c, nil
}

func (r memCampaigns) GetWithChildren(ctx context.Context, id uint) (campaign.Campaign, error) {
	c, err := r.GetByID(ctx, id)
	if err != nil {
		return c, err
	}
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	for _, rep := range r.db.reports {
		if rep.CampaignID == id {
			rep.Images = r.db.imagesOfLocked(ownedBy(reportCol, rep.ID))
			c.Reports = append(c.Reports, rep)
		}
	}
	sort.Slice(c.Reports, func(i, j int) bool { return c.Reports[i].ID < c.Reports[j].ID })
	return c, nil
}

func (r memCampaigns) GetAll(_ context.Context) ([]campaign.Campaign, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	out := make([]campaign.Campaign, 0, len(r.db.campaigns))
	for _, c := range r.db.campaigns {
		r.loadImageLocked(&c)
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return out, nil
}

func (r memCampaigns) Update(_ context.Context, c campaign.Campaign) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	stored, ok := r.db.campaigns[c.ID]
	if !ok {
		return brigade_errors.ErrNotFound
	}
	stored.Title = c.Title
	stored.Description = c.Description
	stored.Goal = c.Goal
	stored.DonationLink = c.DonationLink
	r.db.campaigns[c.ID] = stored
	return nil
}

func (r memCampaigns) Delete(_ context.Context, id uint) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	if _, ok := r.db.campaigns[id]; !ok {
		return brigade_errors.ErrNotFound
	}
	for _, rep := range r.db.reports {
		if rep.CampaignID == id {
			return fkViolation("reports")
		}
	}
	if r.db.hasImagesLocked(ownedBy(campaignCol, id)) {
		return fkViolation("images")
	}
	delete(r.db.campaigns, id)
	return nil
}

func (r memCampaigns) Exists(_ context.Context, id uint) (bool, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	_, ok := r.db.campaigns[id]
	return ok, nil
}

func (r memCampaigns) ToggleCompleted(_ context.Context, id uint) (bool, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	c, ok := r.db.campaigns[id]
	if !ok {
		return false, brigade_errors.ErrNotFound
	}
	c.IsCompleted = !c.IsCompleted
	r.db.campaigns[id] = c
	return c.IsCompleted, nil
}

func (r memCampaigns) loadImageLocked(c *campaign.Campaign) {
	c.Image = nil
	if imgs := r.db.imagesOfLocked(ownedBy(campaignCol, c.ID)); len(imgs) > 0 {
		img := imgs[0]
		c.Image = &img
	}
}

type memReports struct{ db *MemoryDB }

func (r memReports) Create(_ context.Context, rep *report.Report) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	if _, ok := r.db.campaigns[rep.CampaignID]; !ok {
		return fkViolation("campaigns")
	}
	id, now := r.db.nextLocked()
	rep.ID = id
	if rep.CreatedAt.IsZero() {
		rep.CreatedAt = now
	}
	stored := *rep
	stored.Images = nil
	r.db.reports[id] = stored
	return nil
}

func (r memReports) GetByID(_ context.Context, id uint) (report.Report, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	rep, ok := r.db.reports[id]
	if !ok {
		return report.Report{}, brigade_errors.ErrNotFound
	}
	rep.Images = r.db.imagesOfLocked(ownedBy(reportCol, id))
	return rep, nil
}

func (r memReports) GetAll(_ context.Context) ([]report.Report, error) {
	return r.list(func(report.Report) bool { return true }), nil
}

func (r memReports) ListByCampaign(_ context.Context, campaignID uint) ([]report.Report, error) {
	return r.list(func(rep report.Report) bool { return rep.CampaignID == campaignID }), nil
}

func (r memReports) list(match func(report.Report) bool) []report.Report {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	out := []report.Report{}
	for _, rep := range r.db.reports {
		if match(rep) {
			rep.Images = r.db.imagesOfLocked(ownedBy(reportCol, rep.ID))
			out = append(out, rep)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return out
}

func (r memReports) Update(_ context.Context, rep report.Report) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	stored, ok := r.db.reports[rep.ID]
	if !ok {
		return brigade_errors.ErrNotFound
	}
	if _, ok := r.db.campaigns[rep.CampaignID]; !ok {
		return fkViolation("campaigns")
	}
	stored.Title = rep.Title
	stored.Description = rep.Description
	stored.Category = rep.Category
	stored.CampaignID = rep.CampaignID
	r.db.reports[rep.ID] = stored
	return nil
}

func (r memReports) Delete(_ context.Context, id uint) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	if _, ok := r.db.reports[id]; !ok {
		return brigade_errors.ErrNotFound
	}
	if r.db.hasImagesLocked(ownedBy(reportCol, id)) {
		return fkViolation("images")
	}
	delete(r.db.reports, id)
	return nil
}

func (r memReports) Exists(_ context.Context, id uint) (bool, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	_, ok := r.db.reports[id]
	return ok, nil
}

type memPosts struct{ db *MemoryDB }

func (r memPosts) Create(_ context.Context, p *post.Post) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	id, now := r.db.nextLocked()
	p.ID = id
	if p.CreatedAt.IsZero() {
		p.CreatedAt = now
	}
	stored := *p
	stored.Images = nil
	r.db.posts[id] = stored
	return nil
}

func (r memPosts) GetByID(_ context.Context, id uint) (post.Post, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	p, ok := r.db.posts[id]
	if !ok {
		return post.Post{}, brigade_errors.ErrNotFound
	}
	p.Images = r.db.imagesOfLocked(ownedBy(postCol, id))
	return p, nil
}

func (r memPosts) GetAll(_ context.Context) ([]post.Post, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	out := make([]post.Post, 0, len(r.db.posts))
	for _, p := range r.db.posts {
		p.Images = r.db.imagesOfLocked(ownedBy(postCol, p.ID))
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return out, nil
}

func (r memPosts) Update(_ context.Context, p post.Post) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	stored, ok := r.db.posts[p.ID]
	if !ok {
		return brigade_errors.ErrNotFound
	}
	stored.Title = p.Title
	stored.ShortText = p.ShortText
	stored.Content = p.Content
	r.db.posts[p.ID] = stored
	return nil
}

func (r memPosts) Delete(_ context.Context, id uint) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	if _, ok := r.db.posts[id]; !ok {
		return brigade_errors.ErrNotFound
	}
	if r.db.hasImagesLocked(ownedBy(postCol, id)) {
		return fkViolation("images")
	}
	delete(r.db.posts, id)
	return nil
}

func (r memPosts) Exists(_ context.Context, id uint) (bool, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	_, ok := r.db.posts[id]
	return ok, nil
}

type memImages struct{ db *MemoryDB }

func (r memImages) Create(_ context.Context, img *image.Image) error {
	owner, ok := img.Owner()
	if !ok {
		return fmt.Errorf("%w: %v", brigade_errors.ErrPersistence, image.ErrInvalidOwner)
	}
	if hook := r.db.ImageCreateHook; hook != nil {
		if err := hook(*img); err != nil {
			return err
		}
	}

	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	if !r.ownerExistsLocked(owner) {
		return fkViolation(string(owner.Kind) + "s")
	}
	for _, existing := range r.db.images {
		if existing.ObjectKey == img.ObjectKey {
			return fmt.Errorf("%w: object key", brigade_errors.ErrAlreadyExists)
		}
		if owner.Kind == image.KindCampaign && existing.CampaignID != nil && *existing.CampaignID == owner.ID {
			return fmt.Errorf("%w: donation image", brigade_errors.ErrAlreadyExists)
		}
	}

	id, now := r.db.nextLocked()
	img.ID = id
	if img.CreatedAt.IsZero() {
		img.CreatedAt = now
	}
	img.UpdatedAt = now
	if img.Status == "" {
		img.Status = image.StatusPending
	}
	r.db.images[id] = *img
	return nil
}

func (r memImages) GetByID(_ context.Context, id uint) (image.Image, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	img, ok := r.db.images[id]
	if !ok {
		return image.Image{}, brigade_errors.ErrNotFound
	}
	return img, nil
}

func (r memImages) GetByKey(_ context.Context, key string) (image.Image, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	for _, img := range r.db.images {
		if img.ObjectKey == key {
			return img, nil
		}
	}
	return image.Image{}, brigade_errors.ErrNotFound
}

func (r memImages) ListByOwner(_ context.Context, owner image.Owner) ([]image.Image, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	var col func(image.Image) *uint
	switch owner.Kind {
	case image.KindCampaign:
		col = campaignCol
	case image.KindReport:
		col = reportCol
	case image.KindPost:
		col = postCol
	default:
		return nil, fmt.Errorf("%w: %v", brigade_errors.ErrInvalidInput, image.ErrInvalidOwner)
	}
	return r.db.imagesOfLocked(ownedBy(col, owner.ID)), nil
}

func (r memImages) Update(_ context.Context, img image.Image) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	stored, ok := r.db.images[img.ID]
	if !ok {
		return brigade_errors.ErrNotFound
	}
	for id, existing := range r.db.images {
		if id != img.ID && existing.ObjectKey == img.ObjectKey {
			return fmt.Errorf("%w: object key", brigade_errors.ErrAlreadyExists)
		}
	}
	stored.ObjectKey = img.ObjectKey
	stored.ContentType = img.ContentType
	stored.SizeBytes = img.SizeBytes
	stored.ETag = img.ETag
	stored.Width = img.Width
	stored.Height = img.Height
	stored.Status = img.Status
	stored.UpdatedAt = r.db.clock
	r.db.images[img.ID] = stored
	return nil
}

func (r memImages) Remove(_ context.Context, id uint) error {
	if hook := r.db.ImageRemoveHook; hook != nil {
		if err := hook(id); err != nil {
			return err
		}
	}
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	if _, ok := r.db.images[id]; !ok {
		return brigade_errors.ErrNotFound
	}
	delete(r.db.images, id)
	return nil
}

func (r memImages) ListStalePending(_ context.Context, olderThan time.Duration) ([]image.Image, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	cutoff := r.db.clock.Add(-olderThan)
	return r.db.imagesOfLocked(func(img image.Image) bool {
		return img.Status == image.StatusPending && img.UpdatedAt.Before(cutoff)
	}), nil
}

func (r memImages) ExistingKeys(_ context.Context, keys []string) (map[string]bool, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	wanted := make(map[string]bool, len(keys))
	for _, k := range keys {
		wanted[k] = true
	}
	found := make(map[string]bool)
	for _, img := range r.db.images {
		if wanted[img.ObjectKey] {
			found[img.ObjectKey] = true
		}
	}
	return found, nil
}

func (r memImages) ownerExistsLocked(owner image.Owner) bool {
	switch owner.Kind {
	case image.KindCampaign:
		_, ok := r.db.campaigns[owner.ID]
		return ok
	case image.KindReport:
		_, ok := r.db.reports[owner.ID]
		return ok
	case image.KindPost:
		_, ok := r.db.posts[owner.ID]
		return ok
	}
	return false
}

type memVacancies struct{ db *MemoryDB }

func (r memVacancies) Create(_ context.Context, v *vacancy.Vacancy) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	id, now := r.db.nextLocked()
	v.ID = id
	if v.PostedDate.IsZero() {
		v.PostedDate = now
	}
	r.db.vacancies[id] = *v
	return nil
}

func (r memVacancies) GetByID(_ context.Context, id uint) (vacancy.Vacancy, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	v, ok := r.db.vacancies[id]
	if !ok {
		return vacancy.Vacancy{}, brigade_errors.ErrNotFound
	}
	return v, nil
}

func (r memVacancies) GetAll(_ context.Context) ([]vacancy.Vacancy, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	out := make([]vacancy.Vacancy, 0, len(r.db.vacancies))
	for _, v := range r.db.vacancies {
		out = append(out, v)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return out, nil
}

func (r memVacancies) Update(_ context.Context, v vacancy.Vacancy) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	if _, ok := r.db.vacancies[v.ID]; !ok {
		return brigade_errors.ErrNotFound
	}
	r.db.vacancies[v.ID] = v
	return nil
}

func (r memVacancies) Delete(_ context.Context, id uint) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	if _, ok := r.db.vacancies[id]; !ok {
		return brigade_errors.ErrNotFound
	}
	delete(r.db.vacancies, id)
	return nil
}

type memUsers struct{ db *MemoryDB }

func (r memUsers) Create(_ context.Context, u *user.User) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	for _, existing := range r.db.users {
		if strings.EqualFold(existing.Username, u.Username) {
			return fmt.Errorf("%w: username", brigade_errors.ErrAlreadyExists)
		}
	}
	id, now := r.db.nextLocked()
	u.ID = id
	u.CreatedAt, u.UpdatedAt = now, now
	if u.Role == "" {
		u.Role = user.RoleUser
	}
	r.db.users[id] = *u
	return nil
}

func (r memUsers) GetByID(_ context.Context, id uint) (user.User, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	u, ok := r.db.users[id]
	if !ok {
		return user.User{}, brigade_errors.ErrNotFound
	}
	return u, nil
}

func (r memUsers) GetByUsername(_ context.Context, username string) (user.User, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	for _, u := range r.db.users {
		if strings.EqualFold(u.Username, username) {
			return u, nil
		}
	}
	return user.User{}, brigade_errors.ErrNotFound
}

func (r memUsers) UpdateRole(_ context.Context, id uint, role string) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	u, ok := r.db.users[id]
	if !ok {
		return brigade_errors.ErrNotFound
	}
	u.Role = role
	u.UpdatedAt = r.db.clock
	r.db.users[id] = u
	return nil
}
