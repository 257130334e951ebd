package config

import (
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

const defaultDSN = "host=localhost user=postgres password=postgres dbname=logistics port=5432 sslmode=disable"

type Config struct {
	HTTPPort     string
	DBDriver     string // postgres | sqlite
	DatabaseDSN  string
	JWTSecret    string
	CORSOrigins  string
	CookieSecure bool

	StorageDriver string // local | r2
	UploadDir     string
	R2AccountID   string
	R2Bucket      string
	R2AccessKey   string
	R2SecretKey   string
	R2PublicURL   string

	GeocodeURL         string
	GeocodeUserAgent   string
	GeocodeMinInterval time.Duration
	GeofenceRadiusM    float64

	PodAIURL    string
	PodAIAPIKey string
	PodAIModel  string

	ChromePDFEnabled bool
}

func Load() *Config {
	if err := godotenv.Load(); err != nil {
		log.Println("[INFO] no .env file found, using process environment")
	}

	cfg := &Config{
		HTTPPort:     getEnv("HTTP_PORT", "8080"),
		DBDriver:     getEnv("DB_DRIVER", "postgres"),
		DatabaseDSN:  getEnv("DATABASE_DSN", defaultDSN),
		JWTSecret:    getEnv("JWT_SECRET", ""),
		CORSOrigins:  getEnv("CORS_ALLOWED_ORIGINS", "http://localhost:5173"),
		CookieSecure: getEnvBool("COOKIE_SECURE", false),

		StorageDriver: getEnv("STORAGE_DRIVER", "local"),
		UploadDir:     getEnv("UPLOAD_DIR", "./uploads"),
		R2AccountID:   getEnv("R2_ACCOUNT_ID", ""),
		R2Bucket:      getEnv("R2_BUCKET", ""),
		R2AccessKey:   getEnv("R2_ACCESS_KEY_ID", ""),
		R2SecretKey:   getEnv("R2_SECRET_ACCESS_KEY", ""),
		R2PublicURL:   getEnv("R2_PUBLIC_URL", ""),

		GeocodeURL:         getEnv("GEOCODE_URL", "https://nominatim.openstreetmap.org"),
		GeocodeUserAgent:   getEnv("GEOCODE_USER_AGENT", "logistics-backend/1.0"),
		GeocodeMinInterval: getEnvDuration("GEOCODE_MIN_INTERVAL", time.Second),
		GeofenceRadiusM:    getEnvFloat("GEOFENCE_RADIUS_M", 500),

		PodAIURL:    getEnv("POD_AI_URL", "https://api.openai.com/v1"),
		PodAIAPIKey: getEnv("POD_AI_API_KEY", ""),
		PodAIModel:  getEnv("POD_AI_MODEL", "gpt-4o-mini"),

		ChromePDFEnabled: getEnvBool("CHROME_PDF_ENABLED", false),
	}

	if cfg.JWTSecret == "" {
		log.Fatal("[FATAL] JWT_SECRET is not set")
	}
	if len(cfg.JWTSecret) < 32 {
		log.Fatal("[FATAL] JWT_SECRET must be at least 32 characters")
	}
	if cfg.DBDriver == "postgres" && cfg.DatabaseDSN == defaultDSN {
		log.Println("[WARN] DATABASE_DSN is using the local default")
	}
	if cfg.CORSOrigins == "http://localhost:5173" {
		log.Println("[WARN] CORS_ALLOWED_ORIGINS is using the development default")
	}
	if cfg.PodAIAPIKey == "" {
		log.Println("[WARN] POD_AI_API_KEY is empty, POD analysis will always use the simulated fallback")
	}

	return cfg
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getEnvBool(key string, def bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		log.Printf("[WARN] %s=%q is not a boolean, using %v", key, v, def)
		return def
	}
	return b
}

func getEnvFloat(key string, def float64) float64 {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		log.Printf("[WARN] %s=%q is not a number, using %v", key, v, def)
		return def
	}
	return f
}

func getEnvDuration(key string, def time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		log.Printf("[WARN] %s=%q is not a duration, using %v", key, v, def)
		return def
	}
	return d
}
