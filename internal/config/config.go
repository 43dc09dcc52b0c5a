package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config is the root configuration for stackup.
type Config struct {
	Telemetry TelemetryConfig `mapstructure:"telemetry"`
	Compose   ComposeConfig   `mapstructure:"compose"`
	Database  DatabaseConfig  `mapstructure:"database"`
	Cache     CacheConfig     `mapstructure:"cache"`
	App       AppConfig       `mapstructure:"app"`
}

type TelemetryConfig struct {
	OTLPEndpoint string `mapstructure:"otlp_endpoint"`
	OTLPInsecure bool   `mapstructure:"otlp_insecure"`
	ServiceName  string `mapstructure:"service_name"`
	LogLevel     string `mapstructure:"log_level"`
}

type ComposeConfig struct {
	File         string `mapstructure:"file"`
	Project      string `mapstructure:"project"`
	AppService   string `mapstructure:"app_service"`
	DBService    string `mapstructure:"db_service"`
	CacheService string `mapstructure:"cache_service"`
	ExecUser     string `mapstructure:"exec_user"`
}

type DatabaseConfig struct {
	Host         string        `mapstructure:"host"`
	Port         int           `mapstructure:"port"`
	User         string        `mapstructure:"user"`
	Password     string        `mapstructure:"password"`
	DB           string        `mapstructure:"db"`
	SSLMode      string        `mapstructure:"ssl_mode"`
	WaitInterval time.Duration `mapstructure:"wait_interval"`
	WaitTimeout  time.Duration `mapstructure:"wait_timeout"`
}

type CacheConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

type AppConfig struct {
	URL         string `mapstructure:"url"`
	EnvFile     string `mapstructure:"env_file"`
	EnvTemplate string `mapstructure:"env_template"`
	EnvKey      string `mapstructure:"env_key"`
	RootMarker  string `mapstructure:"root_marker"`
	HealthPath  string `mapstructure:"health_path"`
}

// Load reads config from the optional YAML file at path, then overlays
// environment variables with the STACKUP_ prefix (e.g. STACKUP_DATABASE_HOST).
// The bare APP_URL variable is additionally honoured for app.url so callers
// can override the written base URL without learning the prefix scheme.
func Load(path string) (*Config, error) {
	v := viper.New()

	setDefaults(v)

	v.SetEnvPrefix("STACKUP")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.BindEnv("app.url", "STACKUP_APP_URL", "APP_URL"); err != nil {
		return nil, fmt.Errorf("binding APP_URL: %w", err)
	}

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("reading config file %s: %w", path, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshalling config: %w", err)
	}

	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("telemetry.otlp_endpoint", "")
	v.SetDefault("telemetry.otlp_insecure", true)
	v.SetDefault("telemetry.service_name", "stackup")
	v.SetDefault("telemetry.log_level", "info")

	v.SetDefault("compose.file", "docker-compose.yml")
	v.SetDefault("compose.project", "")
	v.SetDefault("compose.app_service", "app")
	v.SetDefault("compose.db_service", "db")
	v.SetDefault("compose.cache_service", "redis")
	v.SetDefault("compose.exec_user", "www-data")

	v.SetDefault("database.host", "127.0.0.1")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.user", "app")
	v.SetDefault("database.password", "secret")
	v.SetDefault("database.db", "app")
	v.SetDefault("database.ssl_mode", "disable")
	v.SetDefault("database.wait_interval", 2*time.Second)
	v.SetDefault("database.wait_timeout", 60*time.Second)

	v.SetDefault("cache.host", "127.0.0.1")
	v.SetDefault("cache.port", 6379)
	v.SetDefault("cache.db", 0)

	v.SetDefault("app.url", "http://localhost:8000")
	v.SetDefault("app.env_file", ".env")
	v.SetDefault("app.env_template", ".env.example")
	v.SetDefault("app.env_key", "APP_URL")
	v.SetDefault("app.root_marker", "docker-compose.yml")
	v.SetDefault("app.health_path", "/up")
}
