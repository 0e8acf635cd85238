package repository

import (
	"fmt"

	"brigade-service/internal/domain/campaign"
	"brigade-service/internal/domain/image"
	"brigade-service/internal/domain/post"
	"brigade-service/internal/domain/report"
	"brigade-service/internal/domain/user"
	"brigade-service/internal/domain/vacancy"

	"gorm.io/gorm"
)

// Models lists every table the service owns, in dependency order.
func Models() []interface{} {
	return []interface{}{
		&user.User{},
		&campaign.Campaign{},
		&report.Report{},
		&post.Post{},
		&image.Image{},
		&vacancy.Vacancy{},
	}
}

// InitSchema creates extensions, enums and tables, then adds the constraints
// gorm tags cannot express.
func InitSchema(db *gorm.DB) error {
	// Creating extensions usually requires superuser privileges.
	extensions := []string{
		`CREATE EXTENSION IF NOT EXISTS "citext";`,
	}
	for _, ext := range extensions {
		if err := db.Exec(ext).Error; err != nil {
			return fmt.Errorf("failed to create extension: %w", err)
		}
	}

	enums := []string{
		`DO $$ BEGIN
			CREATE TYPE image_status AS ENUM ('pending', 'active', 'deleted');
		EXCEPTION
			WHEN duplicate_object THEN null;
		END $$;`,
	}
	for _, enum := range enums {
		if err := db.Exec(enum).Error; err != nil {
			return fmt.Errorf("failed to create enum: %w", err)
		}
	}

	if err := db.AutoMigrate(Models()...); err != nil {
		return fmt.Errorf("auto-migration failed: %w", err)
	}

	// Exactly one owner per image row.
	ownerCheck := `DO $$ BEGIN
		ALTER TABLE images ADD CONSTRAINT chk_images_single_owner
			CHECK (num_nonnulls(campaign_id, report_id, post_id) = 1);
	EXCEPTION
		WHEN duplicate_object THEN null;
	END $$;`
	if err := db.Exec(ownerCheck).Error; err != nil {
		return fmt.Errorf("failed to create constraint chk_images_single_owner: %w", err)
	}

	return nil
}

// TableNames returns the table names in Models order.
func TableNames() []string {
	return []string{"users", "campaigns", "reports", "posts", "images", "vacancies"}
}
