// Package config loads ecomflow settings from defaults, an optional YAML file, an
// optional .env file and ECOM_* environment variables, in increasing precedence.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v2"

	"ecomflow/internal/model"
)

// EnvPrefix prefixes every environment variable, e.g. ECOM_STORAGE_BACKEND.
const EnvPrefix = "ECOM"

// FileEnv names the variable holding the YAML config path.
const FileEnv = "ECOM_CONFIG_FILE"

type Config struct {
	Storage StorageConfig `yaml:"storage" envconfig:"STORAGE"`
	Logging LoggingConfig `yaml:"logging" envconfig:"LOGGING"`
	Sinks   SinkConfig    `yaml:"sinks" envconfig:"SINKS"`
	Kafka   KafkaConfig   `yaml:"kafka" envconfig:"KAFKA"`
	Metrics MetricsConfig `yaml:"metrics" envconfig:"METRICS"`
	Ingest  IngestConfig  `yaml:"ingest" envconfig:"INGEST"`
}

type StorageConfig struct {
	Backend string `yaml:"backend" envconfig:"BACKEND" validate:"oneof=fs pebble badger memory"`
	// Root of the filesystem zones (raw_data, clean_data, ...).
	Root string `yaml:"root" envconfig:"ROOT" validate:"required_if=Backend fs"`
	// Dir of the pebble or badger database, Root/<backend> when empty.
	Dir string `yaml:"dir" envconfig:"DIR"`
}

type LoggingConfig struct {
	Level    string `yaml:"level" envconfig:"LEVEL" validate:"oneof=debug info warn warning error"`
	Output   string `yaml:"output" envconfig:"OUTPUT" validate:"oneof=stdout file both"`
	FilePath string `yaml:"file_path" envconfig:"FILE_PATH" validate:"required_unless=Output stdout"`
}

// SinkConfig locates the JSON-lines sinks. An empty Dir disables file sinks.
type SinkConfig struct {
	Dir         string `yaml:"dir" envconfig:"DIR"`
	RejectsFile string `yaml:"rejects_file" envconfig:"REJECTS_FILE" validate:"required"`
	ReportsFile string `yaml:"reports_file" envconfig:"REPORTS_FILE" validate:"required"`
	ManifestDir string `yaml:"manifest_dir" envconfig:"MANIFEST_DIR"`
	ExportDir   string `yaml:"export_dir" envconfig:"EXPORT_DIR"`
}

// KafkaConfig enables Kafka publishing when Bootstrap is set. Empty topics are skipped.
type KafkaConfig struct {
	Bootstrap     string `yaml:"bootstrap" envconfig:"BOOTSTRAP"`
	RejectsTopic  string `yaml:"rejects_topic" envconfig:"REJECTS_TOPIC"`
	ReportsTopic  string `yaml:"reports_topic" envconfig:"REPORTS_TOPIC"`
	ManifestTopic string `yaml:"manifest_topic" envconfig:"MANIFEST_TOPIC"`
	RawTopic      string `yaml:"raw_topic" envconfig:"RAW_TOPIC" validate:"required"`
	GroupID       string `yaml:"group_id" envconfig:"GROUP_ID" validate:"required"`
}

type MetricsConfig struct {
	// Textfile receives a metrics dump when a batch command exits.
	Textfile string `yaml:"textfile" envconfig:"TEXTFILE"`
}

type IngestConfig struct {
	Addr          string        `yaml:"addr" envconfig:"ADDR" validate:"required"`
	FlushInterval time.Duration `yaml:"flush_interval" envconfig:"FLUSH_INTERVAL" validate:"gt=0"`
	FlushRows     int           `yaml:"flush_rows" envconfig:"FLUSH_ROWS" validate:"gt=0"`
}

// Default returns the settings used when nothing overrides them.
func Default() *Config {
	return &Config{
		Storage: StorageConfig{Backend: "fs", Root: "data"},
		Logging: LoggingConfig{Level: "info", Output: "stdout", FilePath: "logs/ecomflow.log"},
		Sinks: SinkConfig{
			Dir:         "data/sinks",
			RejectsFile: "rejects.jsonl",
			ReportsFile: "reports.jsonl",
			ManifestDir: "data/manifests",
			ExportDir:   "data/exports",
		},
		Kafka: KafkaConfig{
			RejectsTopic:  "ecom.rejects",
			ReportsTopic:  "ecom.reports",
			ManifestTopic: "ecom.manifests",
			RawTopic:      "ecom.orders.raw",
			GroupID:       "ecomflow-ingest",
		},
		Ingest: IngestConfig{Addr: ":9108", FlushInterval: 5 * time.Second, FlushRows: 500},
	}
}

// Load builds the configuration. path names a YAML file; when empty the ECOM_CONFIG_FILE
// variable is consulted. A missing .env file is not an error.
func Load(path string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}
	cfg := Default()
	if path == "" {
		path = os.Getenv(FileEnv)
	}
	if path != "" {
		if err := loadFromFile(path, cfg); err != nil {
			return nil, fmt.Errorf("load config file: %w", err)
		}
	}
	if err := envconfig.Process(EnvPrefix, cfg); err != nil {
		return nil, fmt.Errorf("%w: load config from env: %v", model.ErrMisconfiguredInput, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func loadFromFile(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	if err := yaml.UnmarshalStrict(data, cfg); err != nil {
		return fmt.Errorf("%w: %v", model.ErrMisconfiguredInput, err)
	}
	return nil
}

var validate = validator.New()

// Validate checks field constraints.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("%w: config validation failed: %v", model.ErrMisconfiguredInput, err)
	}
	return nil
}
