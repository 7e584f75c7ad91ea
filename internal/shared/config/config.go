package config

import (
	"log"
	"os"
	"strconv"
	"strings"
)

// Config holds application configuration.
type Config struct {
	Port            string
	Env             string
	CORSAllowOrigin []string
	DatabaseURL     string

	// EncryptionKey is the hex-encoded 32-byte AES key; documents cannot be
	// stored or served without it.
	EncryptionKey string

	ObjectStoreType string
	LocalStoreDir   string
	AWSRegion       string
	S3Bucket        string
	S3Prefix        string

	QueueBackend      string
	SQSQueueURL       string
	WorkerConcurrency int

	OCRProvider   string
	AzureEndpoint string
	AzureAPIKey   string

	AuditBuffer int
}

// Load reads configuration from environment variables with sensible defaults.
func Load() Config {
	// Best-effort load of local env files for dev convenience.
	loadEnvFiles(".env", "cmd/.env")

	env := normalizeEnv(getEnv("ENV", "dev"))
	dbURL := os.Getenv("DATABASE_URL")

	if env == "production" && dbURL == "" {
		log.Printf("DATABASE_URL is required in production")
	}
	encryptionKey := os.Getenv("ENCRYPTION_KEY")
	if env == "production" && encryptionKey == "" {
		log.Printf("ENCRYPTION_KEY is required in production")
	}

	return Config{
		Port:            getEnv("PORT", "8080"),
		Env:             env,
		CORSAllowOrigin: splitAndTrim(getEnv("CORS_ALLOW_ORIGINS", "http://localhost:5173")),
		DatabaseURL:     dbURL,

		EncryptionKey: encryptionKey,

		ObjectStoreType: normalizeStoreType(getEnv("OBJECT_STORE", "local")),
		LocalStoreDir:   getEnv("LOCAL_STORE_DIR", "./data"),
		AWSRegion:       getEnv("AWS_REGION", ""),
		S3Bucket:        getEnv("S3_BUCKET", ""),
		S3Prefix:        getEnv("S3_PREFIX", ""),

		QueueBackend:      normalizeQueueBackend(getEnv("QUEUE_BACKEND", "memory")),
		SQSQueueURL:       getEnv("SQS_QUEUE_URL", ""),
		WorkerConcurrency: getEnvInt("WORKER_CONCURRENCY", 4),

		OCRProvider:   normalizeOCRProvider(getEnv("OCR_PROVIDER", "pdftext")),
		AzureEndpoint: getEnv("AZURE_DI_ENDPOINT", ""),
		AzureAPIKey:   getEnv("AZURE_DI_API_KEY", ""),

		AuditBuffer: getEnvInt("AUDIT_BUFFER", 256),
	}
}

func getEnv(key, def string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return def
}

func getEnvInt(key string, def int) int {
	raw := os.Getenv(key)
	if raw == "" {
		return def
	}
	val, err := strconv.Atoi(raw)
	if err != nil || val <= 0 {
		log.Printf("ignoring invalid %s=%q", key, raw)
		return def
	}
	return val
}

func splitAndTrim(raw string) []string {
	parts := strings.Split(raw, ",")
	var out []string
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
	case "local":
		return "local"
	case "development", "dev":
		return "dev"
	default:
		return "dev"
	}
}

func normalizeStoreType(raw string) string {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "s3":
		return "s3"
	default:
		return "local"
	}
}

func normalizeQueueBackend(raw string) string {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "sqs":
		return "sqs"
	default:
		return "memory"
	}
}

func normalizeOCRProvider(raw string) string {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "azure":
		return "azure"
	default:
		return "pdftext"
	}
}
