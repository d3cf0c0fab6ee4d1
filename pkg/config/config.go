package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Storage backends
const (
	StoragePostgres = "postgres"
	StorageMemory   = "memory"
)

type Config struct {
	Port     string
	Env      string
	LogLevel string

	Storage              string
	PostgresConnStr      string
	PostgresReadReplicas []string

	JWTSecret string
	JWTTTL    time.Duration

	RedisAddr     string
	RedisPassword string
	RedisDB       int

	MongoURI      string
	MongoDatabase string
	UploadDir     string

	FirebaseCredentialsPath string

	KafkaBrokers []string
	KafkaTopic   string

	SMTP       SMTPConfig
	StaffEmail string

	MetricsPort string

	ReadingWPM       int
	ReadingRounding  string
	AnnouncementMode string
	CommentsPerPage  int
	PostsPerPage     int
}

type SMTPConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
}

// Enabled reports whether outgoing mail is configured
func (s SMTPConfig) Enabled() bool {
	return s.Host != ""
}

// Load reads the configuration from the environment, after loading an
// optional .env file from the working directory.
func Load() *Config {
	_ = godotenv.Load()

	return &Config{
		Port:                    getEnv("PORT", "8080"),
		Env:                     getEnv("ENV", "development"),
		LogLevel:                getEnv("LOG_LEVEL", "info"),
		Storage:                 strings.ToLower(getEnv("STORAGE", StoragePostgres)),
		PostgresConnStr:         getEnv("POSTGRES_CONN_STR", ""),
		PostgresReadReplicas:    getEnvList("POSTGRES_READ_REPLICAS"),
		JWTSecret:               getEnv("JWT_SECRET", "supersecretjwtkey"),
		JWTTTL:                  time.Duration(getEnvInt("JWT_TTL_HOURS", 72)) * time.Hour,
		RedisAddr:               getEnv("REDIS_ADDR", ""),
		RedisPassword:           getEnv("REDIS_PASSWORD", ""),
		RedisDB:                 getEnvInt("REDIS_DB", 0),
		MongoURI:                getEnv("MONGO_URI", ""),
		MongoDatabase:           getEnv("MONGO_DATABASE", "blog"),
		UploadDir:               getEnv("UPLOAD_DIR", "media"),
		FirebaseCredentialsPath: getEnv("FIREBASE_CREDENTIALS_PATH", ""),
		KafkaBrokers:            getEnvList("KAFKA_BROKERS"),
		KafkaTopic:              getEnv("KAFKA_TOPIC", "blog.events"),
		SMTP: SMTPConfig{
			Host:     getEnv("SMTP_HOST", ""),
			Port:     getEnvInt("SMTP_PORT", 587),
			Username: getEnv("SMTP_USERNAME", ""),
			Password: getEnv("SMTP_PASSWORD", ""),
			From:     getEnv("SMTP_FROM", "noreply@localhost"),
		},
		StaffEmail:       getEnv("STAFF_EMAIL", ""),
		MetricsPort:      getEnv("METRICS_PORT", ""),
		ReadingWPM:       getEnvInt("READING_WPM", 200),
		ReadingRounding:  strings.ToLower(getEnv("READING_ROUNDING", "ceil")),
		AnnouncementMode: strings.ToLower(getEnv("ANNOUNCEMENT_MODE", "latest")),
		CommentsPerPage:  getEnvInt("COMMENTS_PER_PAGE", 10),
		PostsPerPage:     getEnvInt("POSTS_PER_PAGE", 4),
	}
}

// IsProduction reports whether the server runs with production defaults
func (c *Config) IsProduction() bool {
	return c.Env == "production"
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	n, err := strconv.Atoi(value)
	if err != nil || n < 0 {
		return defaultValue
	}
	return n
}

func getEnvList(key string) []string {
	value := os.Getenv(key)
	if value == "" {
		return nil
	}
	var out []string
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
