package vacancy

import "time"

// Vacancy represents the vacancies table
type Vacancy struct {
	ID             uint      `gorm:"primaryKey"`
	Title          string    `gorm:"type:text;not null"`
	Description    string    `gorm:"type:text"`
	PostedDate     time.Time `gorm:"default:now()"`
	ContactPhone   string    `gorm:"type:text"`
	Requirements   []string  `gorm:"type:jsonb;serializer:json"`
	Salary         string    `gorm:"type:text"`
	EmploymentType string    `gorm:"type:text"`
	EducationLevel string    `gorm:"type:text"`
}

func (Vacancy) TableName() string {
	return "vacancies"
}
