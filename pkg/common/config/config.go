package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	// Server
	ServerPort     string
	ServerHost     string
	ReadTimeout    time.Duration
	WriteTimeout   time.Duration
	MaxRequestBody int64

	// Database
	PostgresHost     string
	PostgresPort     string
	PostgresUser     string
	PostgresPassword string
	PostgresDB       string
	PostgresSSLMode  string

	// Redis
	RedisHost     string
	RedisPort     string
	RedisPassword string
	RedisDB       int

	// Kafka
	KafkaBrokers    []string
	KafkaGroupID    string
	IntakeTopic     string
	AssessmentTopic string

	// OIDC
	OIDCIssuer       string
	OIDCClientID     string
	OIDCClientSecret string

	// Artifacts
	ArtifactDir       string
	ModelURI          string
	ScalerURI         string
	FeatureLayout     string
	FeatureLayoutFile string
	S3Endpoint        string

	// Assessment
	AdviceConfigFile   string
	AssessmentCacheTTL time.Duration
	PersistAssessments bool
	PublishAssessments bool

	// Gateway specific
	RateLimitRPS   int
	RateLimitBurst int
}

func Load() *Config {
	return &Config{
		ServerPort:     getEnv("SERVER_PORT", "8090"),
		ServerHost:     getEnv("SERVER_HOST", "0.0.0.0"),
		ReadTimeout:    getDuration("READ_TIMEOUT", 30*time.Second),
		WriteTimeout:   getDuration("WRITE_TIMEOUT", 30*time.Second),
		MaxRequestBody: int64(getIntEnv("MAX_REQUEST_BODY_BYTES", 64*1024)),

		PostgresHost:     getEnv("POSTGRES_HOST", "localhost"),
		PostgresPort:     getEnv("POSTGRES_PORT", "5432"),
		PostgresUser:     getEnv("POSTGRES_USER", "cardiorisk"),
		PostgresPassword: getEnv("POSTGRES_PASSWORD", "cardiorisk"),
		PostgresDB:       getEnv("POSTGRES_DB", "cardiorisk"),
		PostgresSSLMode:  getEnv("POSTGRES_SSLMODE", "disable"),

		RedisHost:     getEnv("REDIS_HOST", "localhost"),
		RedisPort:     getEnv("REDIS_PORT", "6379"),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),
		RedisDB:       getIntEnv("REDIS_DB", 0),

		KafkaBrokers:    getStringSliceEnv("KAFKA_BROKERS", []string{"localhost:9092"}),
		KafkaGroupID:    getEnv("KAFKA_GROUP_ID", "cardiorisk-worker"),
		IntakeTopic:     getEnv("INTAKE_TOPIC", "patient.intake"),
		AssessmentTopic: getEnv("ASSESSMENT_TOPIC", "risk.assessed"),

		OIDCIssuer:       getEnv("OIDC_ISSUER", ""),
		OIDCClientID:     getEnv("OIDC_CLIENT_ID", ""),
		OIDCClientSecret: getEnv("OIDC_CLIENT_SECRET", ""),

		ArtifactDir:       getEnv("ARTIFACT_DIR", "./artifacts"),
		ModelURI:          getEnv("MODEL_URI", "rf_model.json"),
		ScalerURI:         getEnv("SCALER_URI", "scaler.json"),
		FeatureLayout:     getEnv("FEATURE_LAYOUT", "onehot-v2"),
		FeatureLayoutFile: getEnv("FEATURE_LAYOUT_FILE", ""),
		S3Endpoint:        getEnv("S3_ENDPOINT", ""),

		AdviceConfigFile:   getEnv("ADVICE_CONFIG_FILE", ""),
		AssessmentCacheTTL: getDuration("ASSESSMENT_CACHE_TTL", 10*time.Minute),
		PersistAssessments: getBoolEnv("PERSIST_ASSESSMENTS", true),
		PublishAssessments: getBoolEnv("PUBLISH_ASSESSMENTS", true),

		RateLimitRPS:   getIntEnv("RATE_LIMIT_RPS", 50),
		RateLimitBurst: getIntEnv("RATE_LIMIT_BURST", 100),
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getIntEnv(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getBoolEnv(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolValue, err := strconv.ParseBool(value); err == nil {
			return boolValue
		}
	}
	return defaultValue
}

func getStringSliceEnv(key string, defaultValue []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	var out []string
	for _, part := range strings.Split(value, ",") {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	if len(out) == 0 {
		return defaultValue
	}
	return out
}

func getDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}
