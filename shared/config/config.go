package config

import (
	"log"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

type Config struct {
	// Database
	DBHost     string
	DBPort     string
	DBUser     string
	DBPassword string
	DBName     string
	DBSSLMode  string

	// Connection pool
	DBMaxOpenConns int
	DBMaxIdleConns int

	// JWT
	JWTSecret            string
	JWTExpireHours       string
	JWTRefreshExpireDays string

	// API
	APIPort     string
	FrontendURL string

	// Redis (membership role cache)
	RedisHost     string
	RedisPort     string
	RedisPassword string
	RedisDB       string

	// MinIO (avatar storage)
	MinIOServerURL    string
	MinIORootUser     string
	MinIORootPassword string
	MinIOUseSSL       bool
	MinIOBucketName   string

	// Seed admin
	AdminEmail    string
	AdminPassword string

	// Login rate limiting
	LoginRateLimitMaxAttempts   string
	LoginRateLimitWindowSeconds string
	LoginRateLimitBlockMinutes  string
}

var cfg *Config

// LoadConfig loads configuration from environment variables
func LoadConfig() {
	envPaths := []string{
		".env",
		"../.env",
		"../../.env",
	}

	envLoaded := false
	for _, path := range envPaths {
		if err := godotenv.Load(path); err == nil {
			log.Printf("Environment loaded from: %s", path)
			envLoaded = true
			break
		}
	}

	if !envLoaded {
		log.Println("Warning: .env file not found, using system environment variables")
	}

	cfg = &Config{
		// Database
		DBHost:     getEnv("DB_HOST", "localhost"),
		DBPort:     getEnv("DB_PORT", "5432"),
		DBUser:     getEnv("DB_USER", "postgres"),
		DBPassword: getEnv("DB_PASSWORD", ""),
		DBName:     getEnv("DB_NAME", "gestao"),
		DBSSLMode:  getEnv("DB_SSLMODE", "disable"),

		// The whole service runs against a small bounded pool
		DBMaxOpenConns: getEnvAsInt("DB_MAX_OPEN_CONNS", 10),
		DBMaxIdleConns: getEnvAsInt("DB_MAX_IDLE_CONNS", 5),

		// JWT
		JWTSecret:            getEnv("JWT_SECRET", "your-secret-key-change-this"),
		JWTExpireHours:       getEnv("JWT_EXPIRE_HOURS", "3"),
		JWTRefreshExpireDays: getEnv("JWT_REFRESH_EXPIRE_DAYS", "7"),

		// API
		APIPort:     getEnv("API_PORT", "8000"),
		FrontendURL: getEnv("FRONTEND_URL", "http://localhost:3000"),

		// Redis
		RedisHost:     getEnv("REDIS_HOST", "localhost"),
		RedisPort:     getEnv("REDIS_PORT", "6379"),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),
		RedisDB:       getEnv("REDIS_DB", "0"),

		// MinIO
		MinIOServerURL:    getEnv("MINIO_SERVER_URL", "http://localhost:9000"),
		MinIORootUser:     getEnv("MINIO_ROOT_USER", "minioadmin"),
		MinIORootPassword: getEnv("MINIO_ROOT_PASSWORD", "minioadmin"),
		MinIOUseSSL:       getEnvAsBool("MINIO_USE_SSL", false),
		MinIOBucketName:   getEnv("MINIO_BUCKET_NAME", "gestao-avatars"),

		// Seed admin
		AdminEmail:    getEnv("ADMIN_EMAIL", "admin@gestao.app"),
		AdminPassword: getEnv("ADMIN_PASSWORD", "admin123"),

		// Login Rate Limiting
		LoginRateLimitMaxAttempts:   getEnv("LOGIN_RATE_LIMIT_MAX_ATTEMPTS", "5"),
		LoginRateLimitWindowSeconds: getEnv("LOGIN_RATE_LIMIT_WINDOW_SECONDS", "300"),
		LoginRateLimitBlockMinutes:  getEnv("LOGIN_RATE_LIMIT_BLOCK_MINUTES", "30"),
	}

	log.Println("Configuration loaded successfully")
}

// GetConfig returns the current configuration
func GetConfig() *Config {
	if cfg == nil {
		LoadConfig()
	}
	return cfg
}

// GetLoginRateLimitMaxAttempts returns the login attempt limit as integer
func (c *Config) GetLoginRateLimitMaxAttempts() int {
	if value, err := strconv.Atoi(c.LoginRateLimitMaxAttempts); err == nil {
		return value
	}
	return 5
}

// GetLoginRateLimitWindowSeconds returns the login attempt window as integer
func (c *Config) GetLoginRateLimitWindowSeconds() int {
	if value, err := strconv.Atoi(c.LoginRateLimitWindowSeconds); err == nil {
		return value
	}
	return 300
}

// GetLoginRateLimitBlockMinutes returns the login block duration as integer
func (c *Config) GetLoginRateLimitBlockMinutes() int {
	if value, err := strconv.Atoi(c.LoginRateLimitBlockMinutes); err == nil {
		return value
	}
	return 30
}

// getEnv gets environment variable with default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvAsInt gets environment variable as integer with default value
func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolValue, err := strconv.ParseBool(value); err == nil {
			return boolValue
		}
	}
	return defaultValue
}
