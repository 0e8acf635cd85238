package campaign

import (
	"time"

	"brigade-service/internal/domain/image"
	"brigade-service/internal/domain/report"
)

// Campaign represents the campaigns table. The public API calls these
// donations.
type Campaign struct {
	ID           uint      `gorm:"primaryKey"`
	Title        string    `gorm:"type:text;not null"`
	Description  string    `gorm:"type:text"`
	Goal         float64   `gorm:"not null;default:0"`
	CreatedAt    time.Time `gorm:"default:now()"`
	DonationLink string    `gorm:"type:text"`
	IsCompleted  bool      `gorm:"not null;default:false"`

	Image   *image.Image    `gorm:"foreignKey:CampaignID"`
	Reports []report.Report `gorm:"foreignKey:CampaignID;constraint:OnDelete:RESTRICT"`
}

func (Campaign) TableName() string {
	return "campaigns"
}
