package storage

import (
	"time"

	appconfig "brigade-service/config"
)

// S3ConfigFrom maps the application settings onto the gateway config.
func S3ConfigFrom(cfg *appconfig.Config) S3Config {
	return S3Config{
		Region:         cfg.S3Region,
		Bucket:         cfg.S3Bucket,
		AccessKey:      cfg.S3AccessKey,
		SecretKey:      cfg.S3SecretKey,
		Endpoint:       cfg.S3Endpoint,
		Prefix:         cfg.S3Prefix,
		MaxUploadBytes: int64(cfg.S3MaxUploadMB) << 20,
		PresignTTL:     time.Duration(cfg.S3PresignTTLMin) * time.Minute,
	}
}
