package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

// Config хранит все параметры приложения
type Config struct {
	Database DatabaseConfig `yaml:"database"`
	RabbitMQ RabbitMQConfig `yaml:"rabbitmq"`
	HTTP     HTTPConfig     `yaml:"http"`
	Ordering OrderingConfig `yaml:"ordering"`
}

type DatabaseConfig struct {
	Driver   string `yaml:"driver"`
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	Database string `yaml:"database"`
	SSLMode  string `yaml:"sslmode"`
	MaxConns int    `yaml:"max_conns"`
	// DSN, when set, is used as is instead of the host/port/user fields.
	DSN string `yaml:"dsn"`
	// Path is the SQLite file, used when Driver is sqlite.
	Path string `yaml:"path"`
}

type RabbitMQConfig struct {
	Enabled  bool   `yaml:"enabled"`
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	VHost    string `yaml:"vhost"`
	TLS      bool   `yaml:"tls"`
	Exchange string `yaml:"exchange"`
	Queue    string `yaml:"queue"`
	// URL, when set, replaces the host/port/user fields and TLS.
	URL string `yaml:"url"`
}

type HTTPConfig struct {
	Port           int           `yaml:"port"`
	RequestTimeout time.Duration `yaml:"request_timeout"`
}

type OrderingConfig struct {
	// GuestEmployeeID owns orders submitted without a logged-in employee.
	GuestEmployeeID int64         `yaml:"guest_employee_id"`
	SubmitAttempts  int           `yaml:"submit_attempts"`
	RetryBackoff    time.Duration `yaml:"retry_backoff"`
}

func Default() Config {
	return Config{
		Database: DatabaseConfig{
			Driver:   DriverPostgres,
			Port:     5432,
			SSLMode:  "disable",
			MaxConns: 10,
			Path:     "tableside.db",
		},
		RabbitMQ: RabbitMQConfig{
			Port:     5672,
			VHost:    "/",
			Exchange: "orders_topic",
			Queue:    "kitchen_queue",
		},
		HTTP: HTTPConfig{Port: 3000, RequestTimeout: 5 * time.Second},
		Ordering: OrderingConfig{
			SubmitAttempts: 3,
			RetryBackoff:   10 * time.Millisecond,
		},
	}
}

// LoadConfig is Load followed by the full Validate, for the serve command.
func LoadConfig(path string) (*Config, error) {
	cfg, err := Load(path)
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Load reads an optional .env file, the YAML file at path (skipped when path
// is empty) and TABLESIDE_* environment overrides.
func Load(path string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env: %w", err)
	}

	cfg := Default()
	if path != "" {
		b, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("couldn't open the configuration file: %w", err)
		}
		if err := yaml.Unmarshal(b, &cfg); err != nil {
			return nil, fmt.Errorf("error reading %s: %w", path, err)
		}
	}
	if err := cfg.applyEnv(os.LookupEnv); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) applyEnv(lookup func(string) (string, bool)) error {
	str := func(key string, dst *string) {
		if v, ok := lookup(key); ok && v != "" {
			*dst = v
		}
	}
	integer := func(key string, dst *int) error {
		v, ok := lookup(key)
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

	str("TABLESIDE_DB_DRIVER", &c.Database.Driver)
	str("TABLESIDE_DB_HOST", &c.Database.Host)
	str("TABLESIDE_DB_USER", &c.Database.User)
	str("TABLESIDE_DB_PASSWORD", &c.Database.Password)
	str("TABLESIDE_DB_NAME", &c.Database.Database)
	str("TABLESIDE_DB_PATH", &c.Database.Path)
	str("TABLESIDE_DB_DSN", &c.Database.DSN)
	str("TABLESIDE_RABBITMQ_URL", &c.RabbitMQ.URL)
	str("TABLESIDE_RABBITMQ_HOST", &c.RabbitMQ.Host)
	str("TABLESIDE_RABBITMQ_USER", &c.RabbitMQ.User)
	str("TABLESIDE_RABBITMQ_PASSWORD", &c.RabbitMQ.Password)
	if err := integer("TABLESIDE_DB_PORT", &c.Database.Port); err != nil {
		return err
	}
	if err := integer("TABLESIDE_HTTP_PORT", &c.HTTP.Port); err != nil {
		return err
	}
	boolean := func(key string, dst *bool) error {
		v, ok := lookup(key)
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
	if err := boolean("TABLESIDE_RABBITMQ_ENABLED", &c.RabbitMQ.Enabled); err != nil {
		return err
	}
	if err := boolean("TABLESIDE_RABBITMQ_TLS", &c.RabbitMQ.TLS); err != nil {
		return err
	}
	if v, ok := lookup("TABLESIDE_GUEST_EMPLOYEE_ID"); ok && v != "" {
		id, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return fmt.Errorf("TABLESIDE_GUEST_EMPLOYEE_ID: %w", err)
		}
		c.Ordering.GuestEmployeeID = id
	}
	return nil
}

func (c *Config) Validate() error {
	problems := c.databaseProblems()
	problems = append(problems, c.rabbitProblems()...)
	if c.Ordering.GuestEmployeeID <= 0 {
		problems = append(problems, "ordering.guest_employee_id must be set")
	}
	if c.Ordering.SubmitAttempts <= 0 {
		problems = append(problems, "ordering.submit_attempts must be positive")
	}
	if c.HTTP.Port <= 0 {
		problems = append(problems, "http.port must be positive")
	}
	return joinProblems(problems)
}

// ValidateDatabase checks only what the db commands need.
func (c *Config) ValidateDatabase() error {
	return joinProblems(c.databaseProblems())
}

// ValidateRabbitMQ checks what the kitchen subscriber needs.
func (c *Config) ValidateRabbitMQ() error {
	problems := c.rabbitProblems()
	if !c.RabbitMQ.Enabled {
		problems = append(problems, "rabbitmq is disabled")
	}
	return joinProblems(problems)
}

func (c *Config) databaseProblems() []string {
	var problems []string
	switch c.Database.Driver {
	case DriverPostgres:
		if c.Database.DSN == "" && (c.Database.Host == "" || c.Database.User == "" || c.Database.Database == "") {
			problems = append(problems, "database host/user/database are required for postgres")
		}
	case DriverSQLite:
		if c.Database.Path == "" {
			problems = append(problems, "database path is required for sqlite")
		}
	default:
		problems = append(problems, fmt.Sprintf("unknown database driver %q", c.Database.Driver))
	}
	return problems
}

func (c *Config) rabbitProblems() []string {
	var problems []string
	if c.RabbitMQ.Enabled && c.RabbitMQ.URL == "" && (c.RabbitMQ.Host == "" || c.RabbitMQ.User == "") {
		problems = append(problems, "rabbitmq host/user are required when rabbitmq is enabled")
	}
	return problems
}

func joinProblems(problems []string) error {
	if len(problems) > 0 {
		return fmt.Errorf("invalid config: %s", strings.Join(problems, "; "))
	}
	return nil
}
