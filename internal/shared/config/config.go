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
	LogLevel        string
	CVStoreType     string
	CVDir           string
	AWSRegion       string
	CVS3Bucket      string
	CVS3Prefix      string
	TemplatePath    string
	ExamplePath     string
	OutputDir       string
	RulesPath       string
	RateLimitRPS    float64
	RateLimitBurst  int
}

// Load reads configuration from environment variables with sensible defaults.
func Load() Config {
	// Best-effort load of local env files for dev convenience.
	loadEnvFiles(".env", "cmd/.env")

	env := normalizeEnv(getEnv("ENV", "dev"))
	storeType := normalizeStoreType(getEnv("CV_STORE", "local"))
	bucket := getEnv("CV_S3_BUCKET", "")

	if storeType == "s3" && bucket == "" {
		log.Printf("CV_S3_BUCKET is required when CV_STORE=s3")
	}

	return Config{
		Port:            getEnv("PORT", "8080"),
		Env:             env,
		CORSAllowOrigin: splitAndTrim(getEnv("CORS_ALLOW_ORIGINS", "http://localhost:5173")),
		LogLevel:        strings.ToLower(getEnv("LOG_LEVEL", "info")),
		CVStoreType:     storeType,
		CVDir:           getEnv("CV_DIR", "./data/cvs"),
		AWSRegion:       getEnv("AWS_REGION", ""),
		CVS3Bucket:      bucket,
		CVS3Prefix:      getEnv("CV_S3_PREFIX", ""),
		TemplatePath:    getEnv("TEMPLATE_PATH", "./data/templates/Team_Slide_Template.pptx"),
		ExamplePath:     getEnv("EXAMPLE_OUTPUT_PATH", "./data/templates/Team_Slide_Example.pptx"),
		OutputDir:       getEnv("OUTPUT_DIR", os.TempDir()),
		RulesPath:       getEnv("SLIDE_RULES_PATH", ""),
		RateLimitRPS:    getFloat("RATE_LIMIT_RPS", 5),
		RateLimitBurst:  getInt("RATE_LIMIT_BURST", 10),
	}
}

func getEnv(key, def string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return def
}

func getFloat(key string, def float64) float64 {
	raw := os.Getenv(key)
	if raw == "" {
		return def
	}
	v, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
	if err != nil || v <= 0 {
		log.Printf("invalid %s=%q, using %v", key, raw, def)
		return def
	}
	return v
}

func getInt(key string, def int) int {
	raw := os.Getenv(key)
	if raw == "" {
		return def
	}
	v, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil || v <= 0 {
		log.Printf("invalid %s=%q, using %d", key, raw, def)
		return def
	}
	return v
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
