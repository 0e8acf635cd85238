package database

import (
	"context"
	"errors"
	"fmt"
	"log"

	"brigade-service/internal/domain/campaign"
	"brigade-service/internal/domain/post"
	"brigade-service/internal/domain/user"
	"brigade-service/internal/domain/vacancy"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// SeedAdmin creates the admin account, or promotes an existing user with the
// same username to Admin.
func SeedAdmin(ctx context.Context, db *gorm.DB, username, password string) (*user.User, error) {
	if username == "" || password == "" {
		return nil, errors.New("admin username and password are required")
	}

	var existing user.User
	err := db.WithContext(ctx).Where("username = ?", username).First(&existing).Error
	if err == nil {
		if existing.Role != user.RoleAdmin {
			if err := db.WithContext(ctx).Model(&existing).Update("role", user.RoleAdmin).Error; err != nil {
				return nil, fmt.Errorf("failed to promote user: %w", err)
			}
			existing.Role = user.RoleAdmin
		}
		log.Println("Admin user already exists, skipping creation")
		return &existing, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	admin := &user.User{
		Username:     username,
		PasswordHash: string(hashedPassword),
		Role:         user.RoleAdmin,
	}
	if err := db.WithContext(ctx).Create(admin).Error; err != nil {
		return nil, err
	}

	log.Printf("Admin user seeded: %s (%d)", username, admin.ID)
	return admin, nil
}

// SeedDemo inserts a few image-less rows for local development.
func SeedDemo(ctx context.Context, db *gorm.DB) error {
	return db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		campaigns := []campaign.Campaign{
			{Title: "Night vision for the recon unit", Description: "Two thermal scopes.", Goal: 120000, DonationLink: "https://send.monobank.ua/jar/demo1"},
			{Title: "Pickup truck", Description: "Evacuation vehicle.", Goal: 350000, DonationLink: "https://send.monobank.ua/jar/demo2"},
		}
		if err := tx.Omit("Image", "Reports").Create(&campaigns).Error; err != nil {
			return err
		}
		posts := []post.Post{
			{Title: "Monthly update", ShortText: "What we bought in May.", Content: "Full breakdown of purchases."},
		}
		if err := tx.Omit("Images").Create(&posts).Error; err != nil {
			return err
		}
		vacancies := []vacancy.Vacancy{
			{Title: "Drone operator", Description: "UAV crew.", ContactPhone: "+380000000000", Requirements: []string{"18+", "basic training"}, EmploymentType: "contract"},
		}
		if err := tx.Create(&vacancies).Error; err != nil {
			return err
		}
		log.Printf("Demo data seeded: %d campaigns, %d posts, %d vacancies", len(campaigns), len(posts), len(vacancies))
		return nil
	})
}
