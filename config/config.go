package config

import (
	"log"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds application configuration loaded from environment variables
// Provide sane defaults for local development.
type Config struct {
	AppName string
	Env     string // development, staging, production
	Port    string
	GinMode string

	// Database
	DBDriver      string // mongodb, memory
	MongoURI      string
	MongoDB       string
	MongoTimeout  time.Duration
	MigrationsDir string

	// JWT
	JWTAccessSecret  string
	JWTRefreshSecret string
	AccessTTL        time.Duration
	RefreshTTL       time.Duration

	// Cookies
	CookieDomain string
	CookieSecure bool

	// CORS
	CORSAllowedOrigins string // comma-separated

	// Media storage
	MediaDriver            string // gcs, minio, s3, memory
	GCSBucket              string
	GCSCredentialsJSONPath string // optional; if empty, Application Default Credentials are used
	MinioEndpoint          string
	MinioAccessKey         string
	MinioSecretKey         string
	MinioUseSSL            bool
	MinioBucket            string
	MinioPublicURL         string
	S3Region               string
	S3Bucket               string
	S3Endpoint             string
	S3PublicURL            string

	// Uploads
	UploadTempDir  string
	MaxUploadMB    int
	FFProbeEnabled bool

	// Elasticsearch
	ElasticsearchAddrs string // comma-separated, empty disables search
	ElasticsearchUser  string
	ElasticsearchPass  string
	ESChannelsIndex    string
	ESVideosIndex      string

	// RabbitMQ
	RabbitMQURL        string
	RabbitMQEmailQueue string

	// Mailgun
	MailgunDomain string
	MailgunAPIKey string
	MailgunSender string

	// Email sending toggle
	MailSendEnabled bool

	// Debug metrics (/api/v1/debug/vars)
	DebugMetricsEnabled bool

	// HTTP access log toggle
	HTTPLogEnabled bool
}

func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getbool(key string, def bool) bool {
	if v := os.Getenv(key); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			log.Printf("invalid boolean for %s: %v, using default %v", key, err, def)
			return def
		}
		return b
	}
	return def
}

func getint(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		i, err := strconv.Atoi(v)
		if err != nil {
			log.Printf("invalid int for %s: %v, using default %d", key, err, def)
			return def
		}
		return i
	}
	return def
}

func getdur(key string, def time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			log.Printf("invalid duration for %s: %v, using default %v", key, err, def)
			return def
		}
		return d
	}
	return def
}

// Load loads configuration from environment variables
func Load() *Config {
	return &Config{
		AppName: getenv("APP_NAME", "vidtube-api"),
		Env:     getenv("APP_ENV", "development"),
		Port:    getenv("PORT", "8000"),
		GinMode: getenv("GIN_MODE", "release"),

		DBDriver:      strings.ToLower(getenv("DB_DRIVER", "mongodb")),
		MongoURI:      getenv("MONGO_URI", "mongodb://localhost:27017"),
		MongoDB:       getenv("MONGO_DB", "vidtube"),
		MongoTimeout:  getdur("MONGO_TIMEOUT", 10*time.Second),
		MigrationsDir: getenv("MIGRATIONS_DIR", "db/migrations"),

		JWTAccessSecret:  getenv("JWT_ACCESS_SECRET", "devaccesssecret"),
		JWTRefreshSecret: getenv("JWT_REFRESH_SECRET", "devrefreshsecret"),
		AccessTTL:        getdur("JWT_ACCESS_TTL", 15*time.Minute),
		RefreshTTL:       getdur("JWT_REFRESH_TTL", 240*time.Hour),

		CookieDomain: getenv("COOKIE_DOMAIN", ""),
		CookieSecure: getbool("COOKIE_SECURE", true),

		CORSAllowedOrigins: getenv("CORS_ALLOWED_ORIGINS", "http://localhost:3000"),

		MediaDriver:            strings.ToLower(getenv("MEDIA_DRIVER", "gcs")),
		GCSBucket:              getenv("GCS_BUCKET", ""),
		GCSCredentialsJSONPath: getenv("GCS_CREDENTIALS_JSON", ""),
		MinioEndpoint:          getenv("MINIO_ENDPOINT", "localhost:9000"),
		MinioAccessKey:         getenv("MINIO_ACCESS_KEY", ""),
		MinioSecretKey:         getenv("MINIO_SECRET_KEY", ""),
		MinioUseSSL:            getbool("MINIO_USE_SSL", false),
		MinioBucket:            getenv("MINIO_BUCKET", "vidtube"),
		MinioPublicURL:         getenv("MINIO_PUBLIC_URL", "http://localhost:9000"),
		S3Region:               getenv("S3_REGION", "us-east-1"),
		S3Bucket:               getenv("S3_BUCKET", ""),
		S3Endpoint:             getenv("S3_ENDPOINT", ""),
		S3PublicURL:            getenv("S3_PUBLIC_URL", ""),

		UploadTempDir:  getenv("UPLOAD_TEMP_DIR", os.TempDir()),
		MaxUploadMB:    getint("MAX_UPLOAD_MB", 512),
		FFProbeEnabled: getbool("FFPROBE_ENABLED", true),

		ElasticsearchAddrs: getenv("ELASTICSEARCH_ADDRS", ""),
		ElasticsearchUser:  getenv("ELASTICSEARCH_USERNAME", ""),
		ElasticsearchPass:  getenv("ELASTICSEARCH_PASSWORD", ""),
		ESChannelsIndex:    getenv("ES_CHANNELS_INDEX", "channels"),
		ESVideosIndex:      getenv("ES_VIDEOS_INDEX", "videos"),

		RabbitMQURL:        getenv("RABBITMQ_URL", ""),
		RabbitMQEmailQueue: getenv("RABBITMQ_EMAIL_QUEUE", "emails"),

		MailgunDomain: getenv("MAILGUN_DOMAIN", ""),
		MailgunAPIKey: getenv("MAILGUN_API_KEY", ""),
		MailgunSender: getenv("MAILGUN_SENDER", ""),

		// Email sending toggle (default false; notification jobs are not queued)
		MailSendEnabled: getbool("MAIL_SEND_ENABLED", false),

		DebugMetricsEnabled: getbool("DEBUG_METRICS_ENABLED", true),

		HTTPLogEnabled: getbool("HTTP_LOG_ENABLED", false),
	}
}

// CORSOrigins returns the allowed origins as slice
func (c *Config) CORSOrigins() []string {
	return splitList(c.CORSAllowedOrigins)
}

// ESAddrs returns Elasticsearch addresses as a slice
func (c *Config) ESAddrs() []string {
	return splitList(c.ElasticsearchAddrs)
}

// MaxUploadBytes is the multipart memory limit handed to gin.
func (c *Config) MaxUploadBytes() int64 {
	return int64(c.MaxUploadMB) << 20
}

func splitList(s string) []string {
	parts := strings.Split(s, ",")
	res := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			res = append(res, p)
		}
	}
	return res
}
