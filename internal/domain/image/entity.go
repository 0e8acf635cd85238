package image

import (
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"
)

// OwnerKind names the aggregate an image belongs to. It is also the second
// segment of the object key.
type OwnerKind string

const (
	KindCampaign OwnerKind = "campaign"
	KindReport   OwnerKind = "report"
	KindPost     OwnerKind = "post"
)

func (k OwnerKind) Valid() bool {
	switch k {
	case KindCampaign, KindReport, KindPost:
		return true
	}
	return false
}

// Owner identifies exactly one owning aggregate.
type Owner struct {
	Kind OwnerKind
	ID   uint
}

var ErrInvalidOwner = errors.New("invalid image owner")

// NewOwner is the only way to build an Owner outside this package.
func NewOwner(kind OwnerKind, id uint) (Owner, error) {
	if !kind.Valid() || id == 0 {
		return Owner{}, fmt.Errorf("%w: %q/%d", ErrInvalidOwner, kind, id)
	}
	return Owner{Kind: kind, ID: id}, nil
}

func CampaignOwner(id uint) Owner { return Owner{Kind: KindCampaign, ID: id} }
func ReportOwner(id uint) Owner   { return Owner{Kind: KindReport, ID: id} }
func PostOwner(id uint) Owner     { return Owner{Kind: KindPost, ID: id} }

func (o Owner) IsZero() bool { return o.ID == 0 }

func (o Owner) String() string {
	return fmt.Sprintf("%s/%d", o.Kind, o.ID)
}

type Status string

const (
	StatusPending Status = "pending"
	StatusActive  Status = "active"
	StatusDeleted Status = "deleted"
)

// Image represents the images table. The owner columns are nullable foreign
// keys; exactly one of them is set, always through SetOwner.
type Image struct {
	ID          uint      `gorm:"primaryKey"`
	ObjectKey   string    `gorm:"type:text;not null;uniqueIndex"`
	ContentType string    `gorm:"type:text;not null"`
	SizeBytes   int64     `gorm:"not null"`
	ETag        *string   `gorm:"column:etag;type:text"`
	Width       *int
	Height      *int
	Status      Status    `gorm:"type:image_status;not null;default:'pending'"`
	CreatedAt   time.Time `gorm:"default:now()"`
	UpdatedAt   time.Time `gorm:"default:now()"`

	CampaignID *uint `gorm:"uniqueIndex"`
	ReportID   *uint `gorm:"index"`
	PostID     *uint `gorm:"index"`
}

func (Image) TableName() string {
	return "images"
}

// SetOwner clears all owner columns and sets the one matching o.
func (i *Image) SetOwner(o Owner) {
	i.CampaignID, i.ReportID, i.PostID = nil, nil, nil
	id := o.ID
	switch o.Kind {
	case KindCampaign:
		i.CampaignID = &id
	case KindReport:
		i.ReportID = &id
	case KindPost:
		i.PostID = &id
	}
}

// Owner reports the owning aggregate. ok is false when the row does not have
// exactly one owner column set.
func (i Image) Owner() (Owner, bool) {
	var owners []Owner
	if i.CampaignID != nil {
		owners = append(owners, CampaignOwner(*i.CampaignID))
	}
	if i.ReportID != nil {
		owners = append(owners, ReportOwner(*i.ReportID))
	}
	if i.PostID != nil {
		owners = append(owners, PostOwner(*i.PostID))
	}
	if len(owners) != 1 || owners[0].ID == 0 {
		return Owner{}, false
	}
	return owners[0], true
}

func (i Image) IsActive() bool {
	return i.Status == StatusActive
}

// BeforeSave rejects rows whose owner columns are not exactly one.
func (i *Image) BeforeSave(tx *gorm.DB) error {
	if _, ok := i.Owner(); !ok {
		return ErrInvalidOwner
	}
	return nil
}
