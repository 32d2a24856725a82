package config

import (
	"fmt"
	"log"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"

	"github.com/raushankrgupta/fitscroll/logging"
)

// Config holds every runtime setting. It is built once in main and passed to constructors.
type Config struct {
	Port string `envconfig:"PORT" default:"8080"`

	// Storage
	StorageBackend string `envconfig:"STORAGE_BACKEND" default:"file"` // file or mongo
	StoreDir       string `envconfig:"STORE_DIR" default:"local_db"`
	MongoURI       string `envconfig:"MONGO_URI" default:"mongodb://localhost:27017/"`
	DBName         string `envconfig:"DB_NAME" default:"fitscroll"`
	RedisURL       string `envconfig:"REDIS_URL"` // empty keeps progress in memory
	UploadDir      string `envconfig:"UPLOAD_DIR" default:"user_images"`
	GeneratedDir   string `envconfig:"GENERATED_DIR" default:"generated_images"`

	// Bridge
	BridgeURL            string        `envconfig:"BRIDGE_URL" default:"http://localhost:8000"`
	BridgeTimeout        time.Duration `envconfig:"BRIDGE_TIMEOUT" default:"30s"`
	BridgeRefreshTimeout time.Duration `envconfig:"BRIDGE_REFRESH_TIMEOUT" default:"2m"`
	FetchLimit           int           `envconfig:"FETCH_LIMIT" default:"12"`
	DefaultKeywords      []string      `envconfig:"DEFAULT_KEYWORDS" default:"streetwear outfit,casual outfit"`

	// Gemini
	GeminiAPIKey          string        `envconfig:"GEMINI_API_KEY"`
	GeminiModel           string        `envconfig:"GEMINI_MODEL" default:"gemini-3-pro-image-preview"`
	ResponseModalities    []string      `envconfig:"GEMINI_RESPONSE_MODALITIES" default:"TEXT,IMAGE"`
	AspectRatio           string        `envconfig:"GEMINI_ASPECT_RATIO" default:"3:4"`
	GenerateMaxRetries    int           `envconfig:"GENERATE_MAX_RETRIES" default:"2"`
	GenerateRetryDelay    time.Duration `envconfig:"GENERATE_RETRY_DELAY" default:"2s"`
	GenerateTimeout       time.Duration `envconfig:"GENERATE_TIMEOUT" default:"2m"`
	GenerateRatePerMinute int           `envconfig:"GENERATE_RATE_PER_MINUTE" default:"10"`

	// AWS, generated images go to the local GeneratedDir when no bucket is set
	AWSRegion     string `envconfig:"AWS_REGION" default:"ap-south-1"`
	AWSBucketName string `envconfig:"AWS_BUCKET_NAME"`

	JWTSecret string `envconfig:"JWT_SECRET"`

	LogLevel  string `envconfig:"LOG_LEVEL" default:"info"`
	LogFormat string `envconfig:"LOG_FORMAT" default:"text"` // text or json
}

// LoadConfig loads environment variables from .env file and the process environment
func LoadConfig() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using default values or system environment variables")
	}

	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to process environment: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate rejects settings the services cannot run with
func (c *Config) Validate() error {
	if c.FetchLimit <= 0 {
		return fmt.Errorf("FETCH_LIMIT must be positive, got %d", c.FetchLimit)
	}
	if c.GenerateMaxRetries < 0 {
		return fmt.Errorf("GENERATE_MAX_RETRIES must not be negative, got %d", c.GenerateMaxRetries)
	}
	if _, err := logging.ParseLevel(c.LogLevel); err != nil {
		return fmt.Errorf("LOG_LEVEL: %w", err)
	}
	switch c.LogFormat {
	case "", "text", "json":
	default:
		return fmt.Errorf("unknown LOG_FORMAT %q", c.LogFormat)
	}
	switch c.StorageBackend {
	case "file", "mongo":
	default:
		return fmt.Errorf("unknown STORAGE_BACKEND %q", c.StorageBackend)
	}
	return nil
}
