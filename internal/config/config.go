package config

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// Store backends.
const (
	BackendBolt     = "bolt"
	BackendPostgres = "postgres"
	BackendDynamo   = "dynamo"
)

type SMTP struct {
	Host string `yaml:"host"`
	Port string `yaml:"port"`
	From string `yaml:"from"`
}

// Admin is the fixed administrator record. It is compared by exact match
// at login; override it per deployment, the default is a placeholder.
type Admin struct {
	Username string `yaml:"username"`
	Email    string `yaml:"email"`
	Password string `yaml:"password"`
}

type Config struct {
	ListenAddr   string   `yaml:"listen_addr"`
	StoreBackend string   `yaml:"store_backend"`
	DataPath     string   `yaml:"data_path"`
	PostgresURL  string   `yaml:"postgres_url"`
	DynamoTable  string   `yaml:"dynamo_table"`
	KafkaBrokers []string `yaml:"kafka_brokers"`
	KafkaTopic   string   `yaml:"kafka_topic"`
	JWTSecret    string   `yaml:"jwt_secret"`
	SMTP         SMTP     `yaml:"smtp"`
	Admin        Admin    `yaml:"admin"`
}

func defaults() Config {
	return Config{
		ListenAddr:   ":8080",
		StoreBackend: BackendBolt,
		DataPath:     "storefront.db",
		KafkaTopic:   "storefront-changes",
		Admin: Admin{
			Username: "Gab15",
			Email:    "admin@hybrasil.com",
			Password: "change-me-before-opening-the-portal",
		},
	}
}

// Load reads the optional YAML file, then applies environment overrides.
func Load(path string) (Config, error) {
	cfg := defaults()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("failed to read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("failed to parse config file: %w", err)
		}
	}

	cfg.ListenAddr = getEnv("LISTEN_ADDR", cfg.ListenAddr)
	cfg.StoreBackend = getEnv("STORE_BACKEND", cfg.StoreBackend)
	cfg.DataPath = getEnv("DATA_PATH", cfg.DataPath)
	cfg.PostgresURL = getEnv("DATABASE_URL", cfg.PostgresURL)
	cfg.DynamoTable = getEnv("DYNAMO_TABLE", cfg.DynamoTable)
	if brokers := os.Getenv("KAFKA_BROKERS"); brokers != "" {
		cfg.KafkaBrokers = strings.Split(brokers, ",")
	}
	cfg.KafkaTopic = getEnv("KAFKA_TOPIC", cfg.KafkaTopic)
	cfg.JWTSecret = getEnv("JWT_SECRET", cfg.JWTSecret)
	cfg.SMTP.Host = getEnv("SMTP_HOST", cfg.SMTP.Host)
	cfg.SMTP.Port = getEnv("SMTP_PORT", cfg.SMTP.Port)
	cfg.SMTP.From = getEnv("SMTP_FROM", cfg.SMTP.From)
	cfg.Admin.Username = getEnv("ADMIN_USERNAME", cfg.Admin.Username)
	cfg.Admin.Email = getEnv("ADMIN_EMAIL", cfg.Admin.Email)
	cfg.Admin.Password = getEnv("ADMIN_PASSWORD", cfg.Admin.Password)

	if err := cfg.validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) validate() error {
	switch c.StoreBackend {
	case BackendBolt, BackendPostgres, BackendDynamo:
	default:
		return fmt.Errorf("unknown store backend %q", c.StoreBackend)
	}
	if c.StoreBackend == BackendPostgres && c.PostgresURL == "" {
		return fmt.Errorf("postgres backend requires a database URL")
	}
	if c.StoreBackend == BackendDynamo && c.DynamoTable == "" {
		return fmt.Errorf("dynamo backend requires a table name")
	}
	if c.JWTSecret == "" {
		return fmt.Errorf("JWT_SECRET is required")
	}
	if len(c.JWTSecret) < 32 {
		return fmt.Errorf("JWT_SECRET must be at least 32 characters long")
	}
	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
