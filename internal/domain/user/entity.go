package user

import "time"

const (
	RoleAdmin = "Admin"
	RoleUser  = "User"
)

// User represents the users table
type User struct {
	ID           uint      `gorm:"primaryKey"`
	Username     string    `gorm:"type:citext;not null;uniqueIndex"`
	PasswordHash string    `gorm:"type:text;not null"`
	Role         string    `gorm:"type:text;not null;default:'User'"`
	CreatedAt    time.Time `gorm:"default:now()"`
	UpdatedAt    time.Time `gorm:"default:now()"`
}

func (User) TableName() string {
	return "users"
}

func (u User) IsAdmin() bool {
	return u.Role == RoleAdmin
}
