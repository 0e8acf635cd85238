package report

import (
	"time"

	"brigade-service/internal/domain/image"
)

// Report represents the reports table
type Report struct {
	ID          uint      `gorm:"primaryKey"`
	Title       string    `gorm:"type:text;not null"`
	Description string    `gorm:"type:text"`
	Category    string    `gorm:"type:text"`
	CreatedAt   time.Time `gorm:"default:now()"`
	CampaignID  uint      `gorm:"not null;index"`

	Images []image.Image `gorm:"foreignKey:ReportID"`
}

func (Report) TableName() string {
	return "reports"
}
