package post

import (
	"time"

	"brigade-service/internal/domain/image"
)

// Post represents the posts table
type Post struct {
	ID        uint      `gorm:"primaryKey"`
	Title     string    `gorm:"type:text;not null"`
	ShortText string    `gorm:"type:text"`
	Content   string    `gorm:"type:text"`
	CreatedAt time.Time `gorm:"default:now()"`

	Images []image.Image `gorm:"foreignKey:PostID"`
}

func (Post) TableName() string {
	return "posts"
}
