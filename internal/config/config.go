package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// EnvPrefix is prepended to every environment override, e.g. SENSORS_REDIS__HOST.
const EnvPrefix = "SENSORS"

// Config holds all configuration for the service
type Config struct {
	ServiceName string           `mapstructure:"service_name"`
	Server      ServerConfig     `mapstructure:"server"`
	Database    DatabaseConfig   `mapstructure:"database"`
	Redis       RedisConfig      `mapstructure:"redis"`
	Mongo       MongoConfig      `mapstructure:"mongo"`
	Keycloak    KeycloakConfig   `mapstructure:"keycloak"`
	Events      EventsConfig     `mapstructure:"events"`
	Monitoring  MonitoringConfig `mapstructure:"monitoring"`
}

type ServerConfig struct {
	Port            int           `mapstructure:"port"`
	Host            string        `mapstructure:"host"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
	AllowedOrigins  []string      `mapstructure:"allowed_origins"`
}

type DatabaseConfig struct {
	Postgres       PostgresConfig `mapstructure:"postgres"`
	MigrateOnStart bool           `mapstructure:"migrate_on_start"`
}

type PostgresConfig struct {
	// Driver is the database/sql driver name: "postgres" (lib/pq) or "pgx".
	Driver   string `mapstructure:"driver"`
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	DBName   string `mapstructure:"dbname"`
	SSLMode  string `mapstructure:"sslmode"`
}

// DSN renders the keyword/value connection string understood by both drivers.
func (c PostgresConfig) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.DBName, c.SSLMode,
	)
}

type RedisConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

// Addr returns host:port
func (c RedisConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

type MongoConfig struct {
	URI            string        `mapstructure:"uri"`
	Database       string        `mapstructure:"database"`
	Collection     string        `mapstructure:"collection"`
	ConnectTimeout time.Duration `mapstructure:"connect_timeout"`
}

// KeycloakConfig enables bearer-token introspection when URL is set.
type KeycloakConfig struct {
	URL          string `mapstructure:"url"`
	Realm        string `mapstructure:"realm"`
	ClientID     string `mapstructure:"client_id"`
	ClientSecret string `mapstructure:"client_secret"`
}

// Enabled reports whether requests must carry a Keycloak token.
func (c KeycloakConfig) Enabled() bool {
	return c.URL != ""
}

// EventsConfig enables lifecycle event publishing when RabbitMQURL is set.
type EventsConfig struct {
	RabbitMQURL string `mapstructure:"rabbitmq_url"`
	Exchange    string `mapstructure:"exchange"`
}

func (c EventsConfig) Enabled() bool {
	return c.RabbitMQURL != ""
}

type MonitoringConfig struct {
	LogLevel  string        `mapstructure:"log_level"`
	Retention time.Duration `mapstructure:"retention"`
}

// Load initializes configuration from environment variables and config file
func Load() (*Config, error) {
	return LoadFrom("./config")
}

// LoadFrom reads config.yaml from the given directories, then applies env overrides.
func LoadFrom(paths ...string) (*Config, error) {
	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "__"))
	v.AutomaticEnv()

	// Set defaults
	setDefaults(v)

	// Load config file if exists
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	for _, p := range paths {
		v.AddConfigPath(p)
	}
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}

	if err := validateConfig(&config); err != nil {
		return nil, fmt.Errorf("config validation error: %w", err)
	}

	return &config, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("service_name", "geosensor")

	// Server defaults
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.read_timeout", "15s")
	v.SetDefault("server.write_timeout", "15s")
	v.SetDefault("server.shutdown_timeout", "30s")
	v.SetDefault("server.allowed_origins", []string{"*"})

	// Database defaults
	v.SetDefault("database.postgres.driver", "postgres")
	v.SetDefault("database.postgres.host", "localhost")
	v.SetDefault("database.postgres.port", 5432)
	v.SetDefault("database.postgres.user", "postgres")
	v.SetDefault("database.postgres.password", "")
	v.SetDefault("database.postgres.dbname", "sensors")
	v.SetDefault("database.postgres.sslmode", "disable")
	v.SetDefault("database.migrate_on_start", true)

	// Redis defaults
	v.SetDefault("redis.host", "localhost")
	v.SetDefault("redis.port", 6379)
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)

	// Mongo defaults
	v.SetDefault("mongo.uri", "mongodb://localhost:27017")
	v.SetDefault("mongo.database", "data")
	v.SetDefault("mongo.collection", "sensors")
	v.SetDefault("mongo.connect_timeout", "10s")

	// Optional integrations stay off unless configured
	v.SetDefault("keycloak.url", "")
	v.SetDefault("keycloak.realm", "")
	v.SetDefault("keycloak.client_id", "")
	v.SetDefault("keycloak.client_secret", "")
	v.SetDefault("events.rabbitmq_url", "")
	v.SetDefault("events.exchange", "sensors.events")

	// Monitoring defaults
	v.SetDefault("monitoring.log_level", "info")
	v.SetDefault("monitoring.retention", "24h")
}

func validateConfig(config *Config) error {
	switch config.Database.Postgres.Driver {
	case "postgres", "pgx":
	default:
		return fmt.Errorf("unsupported postgres driver %q", config.Database.Postgres.Driver)
	}
	if config.Database.Postgres.Host == "" {
		return fmt.Errorf("postgres host is required")
	}
	if config.Redis.Host == "" {
		return fmt.Errorf("redis host is required")
	}
	if config.Mongo.URI == "" {
		return fmt.Errorf("mongo uri is required")
	}
	if config.Mongo.Database == "" || config.Mongo.Collection == "" {
		return fmt.Errorf("mongo database and collection are required")
	}
	if config.Keycloak.Enabled() && (config.Keycloak.Realm == "" || config.Keycloak.ClientID == "") {
		return fmt.Errorf("keycloak realm and client_id are required when keycloak url is set")
	}
	return nil
}
