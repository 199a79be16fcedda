// Package config loads service configuration from the environment with the
// TRAVELBUDDY prefix. Every knob has a default so the service boots with no
// environment at all: the database and Kafka integrations stay off until
// their endpoints are configured.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// DatabaseConfig holds Postgres connection settings. An empty Host disables
// session history persistence.
type DatabaseConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	DBName   string
	SSLMode  string
}

// Enabled reports whether a database endpoint was configured.
func (c DatabaseConfig) Enabled() bool {
	return c.Host != ""
}

// DSN renders the GORM Postgres connection string.
func (c DatabaseConfig) DSN() string {
	return fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.DBName, c.SSLMode)
}

// DatabaseURL renders the URL form used by migration tooling.
func (c DatabaseConfig) DatabaseURL() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=%s",
		c.User, c.Password, c.Host, c.Port, c.DBName, c.SSLMode)
}

// KafkaConfig holds event bus settings. No brokers means lifecycle events
// are logged only.
type KafkaConfig struct {
	Brokers []string
	Topic   string
}

// Enabled reports whether any broker was configured.
func (c KafkaConfig) Enabled() bool {
	return len(c.Brokers) > 0
}

// SessionConfig holds route generation pacing and capacity settings.
type SessionConfig struct {
	MinVisible          time.Duration
	RevealInterval      time.Duration
	SubtitleInterval    time.Duration
	FinalizeAfter       time.Duration
	FastForwardInterval time.Duration
	MaxActive           int
}

// PlannerConfig tunes the built-in demo planner.
type PlannerConfig struct {
	Latency   time.Duration
	FailEvery int
}

// ServiceConfig holds all configuration for the route service.
type ServiceConfig struct {
	Port    string
	AppEnv  string
	DB      DatabaseConfig
	Kafka   KafkaConfig
	Session SessionConfig
	Planner PlannerConfig
}

// Load reads configuration from environment variables.
func Load() (*ServiceConfig, error) {
	v := viper.New()
	v.SetEnvPrefix("TRAVELBUDDY")
	v.AutomaticEnv()

	setDefaults(v)

	cfg := &ServiceConfig{
		Port:   servicePort(v.GetString("service_port")),
		AppEnv: v.GetString("app_env"),
		DB: DatabaseConfig{
			Host:     v.GetString("db_host"),
			Port:     v.GetString("db_port"),
			User:     v.GetString("db_user"),
			Password: v.GetString("db_password"),
			DBName:   v.GetString("db_name"),
			SSLMode:  v.GetString("db_sslmode"),
		},
		Kafka: KafkaConfig{
			Brokers: splitBrokers(v.GetString("kafka_brokers")),
			Topic:   v.GetString("kafka_topic"),
		},
		Session: SessionConfig{
			MinVisible:          v.GetDuration("session_min_visible"),
			RevealInterval:      v.GetDuration("session_reveal_interval"),
			SubtitleInterval:    v.GetDuration("session_subtitle_interval"),
			FinalizeAfter:       v.GetDuration("session_finalize_after"),
			FastForwardInterval: v.GetDuration("session_fast_forward_interval"),
			MaxActive:           v.GetInt("session_max_active"),
		},
		Planner: PlannerConfig{
			Latency:   v.GetDuration("planner_latency"),
			FailEvery: v.GetInt("planner_fail_every"),
		},
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("service_port", "8085")
	v.SetDefault("app_env", "development")

	v.SetDefault("db_host", "")
	v.SetDefault("db_port", "5432")
	v.SetDefault("db_user", "postgres")
	v.SetDefault("db_password", "postgres")
	v.SetDefault("db_name", "travelbuddy_routes")
	v.SetDefault("db_sslmode", "disable")

	v.SetDefault("kafka_brokers", "")
	v.SetDefault("kafka_topic", "trip.route.events")

	v.SetDefault("session_min_visible", "3s")
	v.SetDefault("session_reveal_interval", "800ms")
	v.SetDefault("session_subtitle_interval", "2500ms")
	v.SetDefault("session_finalize_after", "12s")
	v.SetDefault("session_fast_forward_interval", "100ms")
	v.SetDefault("session_max_active", 64)

	v.SetDefault("planner_latency", "4s")
	v.SetDefault("planner_fail_every", 0)
}

func (c *ServiceConfig) validate() error {
	if c.Session.MaxActive <= 0 {
		return fmt.Errorf("config: session_max_active must be positive, got %d", c.Session.MaxActive)
	}
	for name, d := range map[string]time.Duration{
		"session_min_visible":           c.Session.MinVisible,
		"session_reveal_interval":       c.Session.RevealInterval,
		"session_subtitle_interval":     c.Session.SubtitleInterval,
		"session_finalize_after":        c.Session.FinalizeAfter,
		"session_fast_forward_interval": c.Session.FastForwardInterval,
	} {
		if d <= 0 {
			return fmt.Errorf("config: %s must be positive, got %s", name, d)
		}
	}
	if c.Planner.Latency < 0 {
		return fmt.Errorf("config: planner_latency must not be negative, got %s", c.Planner.Latency)
	}
	if c.Kafka.Enabled() && c.Kafka.Topic == "" {
		return fmt.Errorf("config: kafka_topic is required when brokers are set")
	}
	return nil
}

// servicePort normalizes a bare port number into a listen address.
func servicePort(port string) string {
	if port == "" {
		return ":8085"
	}
	if strings.HasPrefix(port, ":") {
		return port
	}
	return ":" + port
}

func splitBrokers(raw string) []string {
	if raw == "" {
		return nil
	}
	parts := strings.Split(raw, ",")
	brokers := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			brokers = append(brokers, trimmed)
		}
	}
	return brokers
}
