package config

import (
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	AppPort string
	AppMode string
	LogMode string

	DBHost     string
	DBUser     string
	DBPassword string
	DBName     string
	DBPort     string

	JWTSecret    string
	JWTIssuer    string
	JWTAudience  string
	JWTExpiryMin int

	RedisHost        string
	RedisPort        string
	RedisPassword    string
	RateLimitEnabled bool

	S3Region         string
	S3Bucket         string
	S3AccessKey      string
	S3SecretKey      string
	S3Endpoint       string
	S3Prefix         string
	S3MaxUploadMB    int
	S3PresignTTLMin  int
	UploadConcurrent int
	MaxRequestMB     int

	SweepPendingTTL  time.Duration
	SweepOrphanGrace time.Duration
	SweepInterval    time.Duration

	CORSOrigins []string
}

func LoadConfig() *Config {
	// Load .env file if it exists
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	return &Config{
		AppPort: getEnv("APP_PORT", "8080"),
		AppMode: getEnv("APP_MODE", "debug"),
		LogMode: getEnv("LOG_MODE", "development"),

		DBHost:     getEnv("DB_HOST", "localhost"),
		DBUser:     getEnv("DB_USER", "postgres"),
		DBPassword: getEnv("DB_PASSWORD", "postgres"),
		DBName:     getEnv("DB_NAME", "brigade"),
		DBPort:     getEnv("DB_PORT", "5432"),

		JWTSecret:    getEnv("JWT_SECRET", "change-me"),
		JWTIssuer:    getEnv("JWT_ISSUER", "brigade-service"),
		JWTAudience:  getEnv("JWT_AUDIENCE", "brigade-web"),
		JWTExpiryMin: getEnvAsInt("JWT_EXPIRY_MIN", 60),

		RedisHost:        getEnv("REDIS_HOST", "localhost"),
		RedisPort:        getEnv("REDIS_PORT", "6379"),
		RedisPassword:    getEnv("REDIS_PASSWORD", ""),
		RateLimitEnabled: getEnvAsBool("RATE_LIMIT_ENABLED", true),

		S3Region:         getEnv("S3_REGION", "eu-central-1"),
		S3Bucket:         getEnv("S3_BUCKET", "brigade-images"),
		S3AccessKey:      getEnv("S3_ACCESS_KEY", ""),
		S3SecretKey:      getEnv("S3_SECRET_KEY", ""),
		S3Endpoint:       getEnv("S3_ENDPOINT", ""),
		S3Prefix:         getEnv("S3_PREFIX", "uploads"),
		S3MaxUploadMB:    getEnvAsInt("S3_MAX_UPLOAD_MB", 100),
		S3PresignTTLMin:  getEnvAsInt("S3_PRESIGN_TTL_MIN", 15),
		UploadConcurrent: getEnvAsInt("UPLOAD_CONCURRENCY", 4),
		MaxRequestMB:     getEnvAsInt("MAX_REQUEST_MB", 0),

		SweepPendingTTL:  getEnvAsMinutes("SWEEP_PENDING_TTL_MIN", 60),
		SweepOrphanGrace: getEnvAsMinutes("SWEEP_ORPHAN_GRACE_MIN", 60),
		SweepInterval:    getEnvAsMinutes("SWEEP_INTERVAL_MIN", 0),

		CORSOrigins: getEnvAsList("CORS_ORIGINS", []string{"http://localhost:3000"}),
	}
}

// maxFilesPerRequest sizes the default request cap.
const maxFilesPerRequest = 10

// MaxRequestBytes is the request body cap. Without MAX_REQUEST_MB it leaves
// room for ten files at the upload limit plus 1 MiB of form fields.
func (c *Config) MaxRequestBytes() int64 {
	if c.MaxRequestMB > 0 {
		return int64(c.MaxRequestMB) << 20
	}
	if c.S3MaxUploadMB > 0 {
		return int64(c.S3MaxUploadMB*maxFilesPerRequest+1) << 20
	}
	return 0
}

func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

func getEnvAsInt(key string, fallback int) int {
	valueStr := getEnv(key, "")
	if value, err := strconv.Atoi(valueStr); err == nil {
		return value
	}
	return fallback
}

func getEnvAsBool(key string, fallback bool) bool {
	valueStr := getEnv(key, "")
	if value, err := strconv.ParseBool(valueStr); err == nil {
		return value
	}
	return fallback
}

func getEnvAsMinutes(key string, fallback int) time.Duration {
	return time.Duration(getEnvAsInt(key, fallback)) * time.Minute
}

func getEnvAsList(key string, fallback []string) []string {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return fallback
	}
	var out []string
	for _, part := range strings.Split(valueStr, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
