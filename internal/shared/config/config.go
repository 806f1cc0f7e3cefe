package config

import (
	"log"
	"os"
	"strconv"
	"strings"
)

// Config holds application configuration.
type Config struct {
	Port        string
	Env         string
	DatabaseURL string

	ObjectStoreType string // "local" or "s3"
	LocalStoreDir   string
	AWSRegion       string
	S3Bucket        string
	S3Prefix        string
	SSEKMSKeyID     string

	OCRBaseURL       string
	OCRClientID      string
	OCRClientSecret  string
	OCRTokenURL      string
	OCRTimeoutSecs   int
	OCRDefaultLang   string

	LLMProvider string
	LLMModel    string

	QuotaDefaultLimitBytes int64
	MaxUploadBytes         int64

	AuditQueueURL string

	CORSAllowOrigin []string
}

// Load reads configuration from environment variables.
func Load() Config {
	env := normalizeEnv(getEnv("ENV", "development"))
	dbURL := os.Getenv("DATABASE_URL")

	if env == "production" && dbURL == "" {
		log.Fatal("DATABASE_URL is required in production")
	}

	return Config{
		Port:        getEnv("PORT", "8080"),
		Env:         env,
		DatabaseURL: dbURL,

		ObjectStoreType: strings.ToLower(getEnv("OBJECT_STORE", "local")),
		LocalStoreDir:   getEnv("LOCAL_STORE_DIR", "./data/objects"),
		AWSRegion:       os.Getenv("AWS_REGION"),
		S3Bucket:        os.Getenv("S3_BUCKET"),
		S3Prefix:        getEnv("S3_PREFIX", "records/"),
		SSEKMSKeyID:     os.Getenv("SSE_KMS_KEY_ID"),

		OCRBaseURL:      os.Getenv("OCR_BASE_URL"),
		OCRClientID:     os.Getenv("OCR_CLIENT_ID"),
		OCRClientSecret: os.Getenv("OCR_CLIENT_SECRET"),
		OCRTokenURL:     os.Getenv("OCR_TOKEN_URL"),
		OCRTimeoutSecs:  getEnvInt("OCR_TIMEOUT_SECONDS", 60),
		OCRDefaultLang:  getEnv("OCR_DEFAULT_LANG", "spa"),

		LLMProvider: strings.ToLower(getEnv("LLM_PROVIDER", "")),
		LLMModel:    os.Getenv("LLM_MODEL"),

		QuotaDefaultLimitBytes: getEnvInt64("QUOTA_DEFAULT_LIMIT_BYTES", 1<<30),
		MaxUploadBytes:         getEnvInt64("MAX_UPLOAD_BYTES", 25<<20),

		AuditQueueURL: os.Getenv("AUDIT_SQS_QUEUE_URL"),

		CORSAllowOrigin: splitCSV(os.Getenv("CORS_ALLOW_ORIGIN")),
	}
}

func getEnv(key, def string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return def
}

func getEnvInt(key string, def int) int {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return def
	}
	val, err := strconv.Atoi(raw)
	if err != nil {
		log.Printf("config: %s invalid int: %v", key, err)
		return def
	}
	return val
}

func getEnvInt64(key string, def int64) int64 {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return def
	}
	val, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		log.Printf("config: %s invalid int: %v", key, err)
		return def
	}
	return val
}

func splitCSV(raw string) []string {
	if strings.TrimSpace(raw) == "" {
		return nil
	}
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

func normalizeEnv(raw string) string {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "production", "prod":
		return "production"
	case "staging":
		return "staging"
	default:
		return "development"
	}
}
