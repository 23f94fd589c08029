package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"github.com/pelletier/go-toml/v2"
)

const (
	BackendPostgres = "postgres"
	BackendMongo    = "mongo"
	BackendMemory   = "memory"

	NotifyWebsocket = "ws"
	NotifyAMQP      = "amqp"
	NotifyAsynq     = "asynq"
)

type Config struct {
	HTTPAddr     string         `toml:"http_addr"`
	StoreBackend string         `toml:"store_backend"`
	Postgres     PostgresConfig `toml:"postgres"`
	Mongo        MongoConfig    `toml:"mongo"`
	Redis        RedisConfig    `toml:"redis"`
	Notify       NotifyConfig   `toml:"notify"`
	Auth         AuthConfig     `toml:"auth"`
	Audit        AuditConfig    `toml:"audit"`
	Log          LogConfig      `toml:"log"`
}

type PostgresConfig struct {
	Host     string `toml:"host"`
	Port     string `toml:"port"`
	User     string `toml:"user"`
	Password string `toml:"password"`
	Name     string `toml:"name"`
	SSLMode  string `toml:"sslmode"`
}

// DSN renders the connection string the postgres driver expects.
func (p PostgresConfig) DSN() string {
	return fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		p.Host, p.Port, p.User, p.Password, p.Name, p.SSLMode)
}

type MongoConfig struct {
	URI      string `toml:"uri"`
	Database string `toml:"database"`
}

// RedisConfig is optional: with an empty Addr notification dedup stays in memory.
type RedisConfig struct {
	Addr     string `toml:"addr"`
	Password string `toml:"password"`
	DB       int    `toml:"db"`
}

type NotifyConfig struct {
	Backend   string `toml:"backend"`
	AMQPURL   string `toml:"amqp_url"`
	AMQPQueue string `toml:"amqp_queue"`
	Threshold int    `toml:"threshold"`
}

type AuthConfig struct {
	JWTSecret string `toml:"jwt_secret"`
}

type AuditConfig struct {
	Schedule string `toml:"schedule"`
}

type LogConfig struct {
	Development bool     `toml:"development"`
	Debug       bool     `toml:"debug"`
	Outputs     []string `toml:"outputs"`
}

// Default returns the configuration used when nothing overrides it.
func Default() Config {
	return Config{
		HTTPAddr:     ":8080",
		StoreBackend: BackendPostgres,
		Postgres: PostgresConfig{
			Host:    "localhost",
			Port:    "5432",
			User:    "postgres",
			Name:    "waitline",
			SSLMode: "disable",
		},
		Mongo: MongoConfig{
			URI:      "mongodb://localhost:27017",
			Database: "waitline",
		},
		Notify: NotifyConfig{
			Backend:   NotifyWebsocket,
			AMQPQueue: "queue-notifications",
			Threshold: 5,
		},
		Audit: AuditConfig{
			Schedule: "0 */5 * * * *",
		},
	}
}

// Load builds the configuration: defaults, then the optional TOML file at path,
// then .env, then the process environment.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
		if err := toml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("parse config %s: %w", path, err)
		}
	}

	if os.Getenv("ENV_CHEK") == "" {
		if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("load .env: %w", err)
		}
	}

	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) applyEnv() error {
	setString(&c.HTTPAddr, "HTTP_ADDR")
	setString(&c.StoreBackend, "STORE_BACKEND")

	setString(&c.Postgres.Host, "DB_HOST")
	setString(&c.Postgres.Port, "DB_PORT")
	setString(&c.Postgres.User, "DB_USER")
	setString(&c.Postgres.Password, "DB_PASSWORD")
	setString(&c.Postgres.Name, "DB_NAME")
	setString(&c.Postgres.SSLMode, "DB_SSLMODE")

	setString(&c.Mongo.URI, "MONGO_URI")
	setString(&c.Mongo.Database, "MONGO_DB")

	setString(&c.Redis.Addr, "REDIS_ADDR")
	setString(&c.Redis.Password, "REDIS_PASSWORD")
	if err := setInt(&c.Redis.DB, "REDIS_DB"); err != nil {
		return err
	}

	setString(&c.Notify.Backend, "NOTIFY_BACKEND")
	setString(&c.Notify.AMQPURL, "AMQP_URL")
	setString(&c.Notify.AMQPQueue, "AMQP_QUEUE")
	if err := setInt(&c.Notify.Threshold, "NOTIFY_THRESHOLD"); err != nil {
		return err
	}

	setString(&c.Auth.JWTSecret, "JWT_ACCESS_SECRET")
	setString(&c.Audit.Schedule, "AUDIT_SCHEDULE")

	if err := setBool(&c.Log.Development, "LOG_DEVELOPMENT"); err != nil {
		return err
	}
	if err := setBool(&c.Log.Debug, "LOG_DEBUG"); err != nil {
		return err
	}
	if v := os.Getenv("LOG_OUTPUTS"); v != "" {
		c.Log.Outputs = strings.Split(v, ",")
	}
	return nil
}

// Validate reports the first configuration problem found.
func (c *Config) Validate() error {
	switch c.StoreBackend {
	case BackendPostgres, BackendMongo, BackendMemory:
	default:
		return fmt.Errorf("store_backend: unknown backend %q", c.StoreBackend)
	}
	switch c.Notify.Backend {
	case NotifyWebsocket, NotifyAsynq:
	case NotifyAMQP:
		if c.Notify.AMQPURL == "" {
			return errors.New("notify.amqp_url: required for amqp backend")
		}
	default:
		return fmt.Errorf("notify.backend: unknown backend %q", c.Notify.Backend)
	}
	if c.Notify.Backend == NotifyAsynq && c.Redis.Addr == "" {
		return errors.New("redis.addr: required for asynq backend")
	}
	if c.Notify.Threshold <= 0 {
		return fmt.Errorf("notify.threshold: must be positive, got %d", c.Notify.Threshold)
	}
	if c.HTTPAddr == "" {
		return errors.New("http_addr: required")
	}
	return nil
}

func setString(dst *string, key string) {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		*dst = v
	}
}

func setInt(dst *int, key string) error {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		return nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fmt.Errorf("%s: %w", key, err)
	}
	*dst = n
	return nil
}

func setBool(dst *bool, key string) error {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		return nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return fmt.Errorf("%s: %w", key, err)
	}
	*dst = b
	return nil
}
