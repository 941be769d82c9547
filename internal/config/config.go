// Package config loads and holds the application configuration.
package config

import (
	"fmt"
	"time"

	"github.com/spf13/viper"
)

// Conf is the global configuration loaded from the config file.
var Conf Config

// Config mirrors the structure of config.yaml.
type Config struct {
	Server        ServerConfig        `mapstructure:"server"`
	Database      DatabaseConfig      `mapstructure:"database"`
	Log           LogConfig           `mapstructure:"log"`
	Kafka         KafkaConfig         `mapstructure:"kafka"`
	MinIO         MinIOConfig         `mapstructure:"minio"`
	Elasticsearch ElasticsearchConfig `mapstructure:"elasticsearch"`
	Upload        UploadConfig        `mapstructure:"upload"`
	Extraction    ExtractionConfig    `mapstructure:"extraction"`
	Worker        WorkerConfig        `mapstructure:"worker"`
	Collector     CollectorConfig     `mapstructure:"collector"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Port string `mapstructure:"port"`
	Mode string `mapstructure:"mode"`
}

// DatabaseConfig holds all database connection settings.
type DatabaseConfig struct {
	MySQL MySQLConfig `mapstructure:"mysql"`
	Redis RedisConfig `mapstructure:"redis"`
}

// MySQLConfig holds the MySQL DSN.
type MySQLConfig struct {
	DSN string `mapstructure:"dsn"`
}

// RedisConfig holds Redis connection settings.
type RedisConfig struct {
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

// LogConfig holds logging settings.
type LogConfig struct {
	Level      string `mapstructure:"level"`
	Format     string `mapstructure:"format"`
	OutputPath string `mapstructure:"output_path"`
}

// KafkaConfig holds Kafka broker and topic settings.
type KafkaConfig struct {
	Brokers string `mapstructure:"brokers"`
	Topic   string `mapstructure:"topic"`
	GroupID string `mapstructure:"group_id"`
}

// MinIOConfig holds object storage settings.
type MinIOConfig struct {
	Endpoint        string `mapstructure:"endpoint"`
	AccessKeyID     string `mapstructure:"access_key_id"`
	SecretAccessKey string `mapstructure:"secret_access_key"`
	UseSSL          bool   `mapstructure:"use_ssl"`
	BucketName      string `mapstructure:"bucket_name"`
}

// ElasticsearchConfig holds the content search index settings.
type ElasticsearchConfig struct {
	Addresses string `mapstructure:"addresses"`
	Username  string `mapstructure:"username"`
	Password  string `mapstructure:"password"`
	IndexName string `mapstructure:"index_name"`
}

// UploadConfig bounds what the ingestion gateway accepts.
type UploadConfig struct {
	MaxSizeBytes int64 `mapstructure:"max_size_bytes"`
	BulkWorkers  int   `mapstructure:"bulk_workers"`
}

// ExtractionConfig holds the extraction strategy endpoints and chain tuning.
type ExtractionConfig struct {
	Tika                TikaConfig      `mapstructure:"tika"`
	Vision              VisionConfig    `mapstructure:"vision"`
	Tesseract           TesseractConfig `mapstructure:"tesseract"`
	Speech              SpeechConfig    `mapstructure:"speech"`
	ConfidenceThreshold float64         `mapstructure:"confidence_threshold"`
	StrategyTimeout     time.Duration   `mapstructure:"strategy_timeout"`
}

// TikaConfig holds the Tika server settings for native text extraction.
type TikaConfig struct {
	ServerURL string `mapstructure:"server_url"`
}

// VisionConfig holds the cloud OCR service settings.
type VisionConfig struct {
	BaseURL string `mapstructure:"base_url"`
	APIKey  string `mapstructure:"api_key"`
}

// TesseractConfig holds the local OCR server settings.
type TesseractConfig struct {
	ServerURL string `mapstructure:"server_url"`
}

// SpeechConfig holds the speech-to-text service settings.
type SpeechConfig struct {
	BaseURL string `mapstructure:"base_url"`
	APIKey  string `mapstructure:"api_key"`
}

// WorkerConfig tunes the preprocessing worker pool.
// StrategyTimeout in ExtractionConfig must stay below LeaseTTL so a
// legitimate long-running strategy call cannot outlive its lease.
type WorkerConfig struct {
	PoolSize    int           `mapstructure:"pool_size"`
	LeaseTTL    time.Duration `mapstructure:"lease_ttl"`
	MaxAttempts int           `mapstructure:"max_attempts"`
	BackoffBase time.Duration `mapstructure:"backoff_base"`
}

// CollectorConfig holds the external data collector settings.
type CollectorConfig struct {
	APIKey   string        `mapstructure:"api_key"`
	Model    string        `mapstructure:"model"`
	CacheTTL time.Duration `mapstructure:"cache_ttl"`
}

// Init reads the YAML file at configPath and unmarshals it into Conf.
func Init(configPath string) {
	viper.SetConfigFile(configPath)
	viper.SetConfigType("yaml")

	if err := viper.ReadInConfig(); err != nil {
		panic(fmt.Errorf("failed to read config file: %w", err))
	}

	if err := viper.Unmarshal(&Conf); err != nil {
		panic(fmt.Errorf("failed to unmarshal config: %w", err))
	}
}
