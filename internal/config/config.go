package config

import (
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	Database   *dbConfig
	Service    *svcConfig
	Transcript *transcriptConfig
	Kafka      *kafkaConfig
	Archive    *archiveConfig
}

type dbConfig struct {
	Type     string `envconfig:"DB_TYPE" default:"pgsql"`
	Hostname string `envconfig:"DB_HOST" default:"localhost"`
	Port     string `envconfig:"DB_PORT" default:"5432"`
	Name     string `envconfig:"DB_NAME" default:"transcripts"`
	User     string `envconfig:"DB_USER" default:"admin"`
	Password string `envconfig:"DB_PASS" default:"adminpass"`
	SSLMode  string `envconfig:"DB_SSLMODE" default:"disable"`
}

type svcConfig struct {
	LogLevel        string `envconfig:"LOG_LEVEL" default:"info"`
	WorkerPoolSize  int    `envconfig:"WORKER_POOL_SIZE" default:"10"`
	ClaimRetries    int    `envconfig:"CLAIM_RETRIES" default:"3"`
	MigrationFolder string `envconfig:"MIGRATIONS_FOLDER" default:""`
	MetricsAddress  string `envconfig:"METRICS_ADDRESS" default:""`
}

type transcriptConfig struct {
	Language   string        `envconfig:"TRANSCRIPT_LANGUAGE" default:"en"`
	ChunkWords int           `envconfig:"TRANSCRIPT_CHUNK_WORDS" default:"500"`
	Timeout    time.Duration `envconfig:"TRANSFORM_TIMEOUT" default:"10s"`
}

type kafkaConfig struct {
	Brokers []string `envconfig:"KAFKA_BROKERS" default:""`
	Topic   string   `envconfig:"KAFKA_TOPIC" default:"transcripts.events"`
	Source  string   `envconfig:"EVENT_SOURCE" default:"transcripts.drainer"`
}

// archiveConfig points at an S3 compatible bucket receiving the raw caption documents.
// Archiving is off when the endpoint is empty.
type archiveConfig struct {
	Endpoint  string `envconfig:"S3_ENDPOINT" default:""`
	Bucket    string `envconfig:"S3_BUCKET" default:"transcripts"`
	AccessKey string `envconfig:"S3_ACCESS_KEY" default:""`
	SecretKey string `envconfig:"S3_SECRET_KEY" default:""`
	Prefix    string `envconfig:"S3_PREFIX" default:"transcripts"`
	UseSSL    bool   `envconfig:"S3_USE_SSL" default:"false"`
}

// New reads the configuration from the environment.
func New() (*Config, error) {
	cfg := new(Config)
	if err := envconfig.Process("", cfg); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Load reads a dotenv formatted file into the process environment and then builds the
// configuration. Variables already present in the environment take precedence.
func Load(configFile string) (*Config, error) {
	if configFile != "" {
		if err := godotenv.Load(configFile); err != nil {
			return nil, fmt.Errorf("loading config file %q: %w", configFile, err)
		}
	}
	return New()
}

// NewDefault returns the configuration used by tests: a sqlite database in the
// current folder unless DB_TYPE says otherwise.
func NewDefault() *Config {
	cfg := &Config{
		Database: &dbConfig{
			Type:    "sqlite",
			Name:    "transcripts.db",
			SSLMode: "disable",
		},
		Service: &svcConfig{
			LogLevel:       "debug",
			WorkerPoolSize: 10,
			ClaimRetries:   3,
		},
		Transcript: &transcriptConfig{
			Language:   "en",
			ChunkWords: 500,
			Timeout:    10 * time.Second,
		},
		Kafka:   &kafkaConfig{Topic: "transcripts.events", Source: "transcripts.drainer"},
		Archive: &archiveConfig{Bucket: "transcripts", Prefix: "transcripts"},
	}
	// DB_TYPE=pgsql switches the tests over to a real postgres instance
	if os.Getenv("DB_TYPE") == "pgsql" {
		db := new(dbConfig)
		if err := envconfig.Process("", db); err == nil {
			cfg.Database = db
		}
	}
	return cfg
}

func (c *Config) Validate() error {
	switch c.Database.Type {
	case "pgsql", "sqlite":
	default:
		return fmt.Errorf("unsupported database type %q", c.Database.Type)
	}
	if c.Database.Name == "" {
		return fmt.Errorf("DB_NAME is required")
	}
	if c.Service.WorkerPoolSize <= 0 {
		return fmt.Errorf("WORKER_POOL_SIZE must be positive, got %d", c.Service.WorkerPoolSize)
	}
	if c.Service.ClaimRetries < 0 {
		return fmt.Errorf("CLAIM_RETRIES must not be negative, got %d", c.Service.ClaimRetries)
	}
	if c.Transcript.ChunkWords <= 0 {
		return fmt.Errorf("TRANSCRIPT_CHUNK_WORDS must be positive, got %d", c.Transcript.ChunkWords)
	}
	if c.Transcript.Timeout <= 0 {
		return fmt.Errorf("TRANSFORM_TIMEOUT must be positive, got %s", c.Transcript.Timeout)
	}
	return nil
}

func (c *Config) String() string {
	return fmt.Sprintf("db=%s://%s@%s:%s/%s workers=%d timeout=%s lang=%s chunk_words=%d",
		c.Database.Type, c.Database.User, c.Database.Hostname, c.Database.Port, c.Database.Name,
		c.Service.WorkerPoolSize, c.Transcript.Timeout, c.Transcript.Language, c.Transcript.ChunkWords)
}
