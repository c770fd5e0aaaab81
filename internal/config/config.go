package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type HTTPConfig struct {
	Host        string
	Port        int
	CORSOrigins []string
}

type DBConfig struct {
	DSN             string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime string
	ConnectTimeout  time.Duration
}

type AuthConfig struct {
	AccessSecret string
	AccessTTL    time.Duration
}

type ImportConfig struct {
	Workers        int
	MaxFileBytes   int64
	JobTTL         time.Duration
	MatchThreshold float64
}

type SchedulerConfig struct {
	HousekeepingCron string
}

type KafkaConfig struct {
	Brokers []string
	Topic   string
}

type NotifyConfig struct {
	ContractExpiryDays int
}

type Config struct {
	Environment string
	HTTP        HTTPConfig
	DB          DBConfig
	Auth        AuthConfig
	Import      ImportConfig
	Scheduler   SchedulerConfig
	Kafka       KafkaConfig
	Notify      NotifyConfig
}

func Load() (*Config, error) {
	v := viper.New()
	v.SetConfigName("app")
	v.SetConfigType("env")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	v.AddConfigPath("./deploy")
	v.AddConfigPath("./internal/config")
	v.AutomaticEnv()

	_ = v.ReadInConfig()

	return fromViper(v)
}

func fromViper(v *viper.Viper) (*Config, error) {
	cfg := &Config{
		Environment: v.GetString("APP_ENV"),
		HTTP: HTTPConfig{
			Host:        v.GetString("HTTP_HOST"),
			Port:        v.GetInt("HTTP_PORT"),
			CORSOrigins: parseList(v.GetString("HTTP_CORS_ORIGINS")),
		},
		DB: DBConfig{
			DSN:             v.GetString("DB_DSN"),
			MaxOpenConns:    v.GetInt("DB_MAX_OPEN_CONNS"),
			MaxIdleConns:    v.GetInt("DB_MAX_IDLE_CONNS"),
			ConnMaxLifetime: v.GetString("DB_CONN_MAX_LIFETIME"),
			ConnectTimeout:  v.GetDuration("DB_CONNECT_TIMEOUT"),
		},
		Auth: AuthConfig{
			AccessSecret: v.GetString("JWT_ACCESS_SECRET"),
			AccessTTL:    v.GetDuration("JWT_ACCESS_TTL"),
		},
		Import: ImportConfig{
			Workers:        v.GetInt("IMPORT_WORKERS"),
			MaxFileBytes:   v.GetInt64("IMPORT_MAX_FILE_BYTES"),
			JobTTL:         v.GetDuration("IMPORT_JOB_TTL"),
			MatchThreshold: v.GetFloat64("IMPORT_MATCH_THRESHOLD"),
		},
		Scheduler: SchedulerConfig{
			HousekeepingCron: v.GetString("SCHEDULER_HOUSEKEEPING_CRON"),
		},
		Kafka: KafkaConfig{
			Brokers: parseList(v.GetString("KAFKA_BROKERS")),
			Topic:   v.GetString("KAFKA_TOPIC"),
		},
		Notify: NotifyConfig{
			ContractExpiryDays: v.GetInt("NOTIFY_CONTRACT_EXPIRY_DAYS"),
		},
	}

	if cfg.Environment == "" {
		cfg.Environment = "development"
	}
	if cfg.HTTP.Host == "" {
		cfg.HTTP.Host = "0.0.0.0"
	}
	if cfg.HTTP.Port == 0 {
		cfg.HTTP.Port = 7090
	}
	if cfg.DB.ConnectTimeout <= 0 {
		cfg.DB.ConnectTimeout = time.Minute
	}
	if cfg.Auth.AccessTTL <= 0 {
		cfg.Auth.AccessTTL = 12 * time.Hour
	}
	if cfg.Import.Workers <= 0 {
		cfg.Import.Workers = 2
	}
	if cfg.Import.MaxFileBytes <= 0 {
		cfg.Import.MaxFileBytes = 10 << 20
	}
	if cfg.Import.JobTTL <= 0 {
		cfg.Import.JobTTL = 24 * time.Hour
	}
	if cfg.Import.MatchThreshold <= 0 {
		cfg.Import.MatchThreshold = 0.3
	}
	if cfg.Scheduler.HousekeepingCron == "" {
		cfg.Scheduler.HousekeepingCron = "*/15 * * * *"
	}
	if cfg.Kafka.Topic == "" {
		cfg.Kafka.Topic = "erp.events"
	}
	if cfg.Notify.ContractExpiryDays <= 0 {
		cfg.Notify.ContractExpiryDays = 30
	}

	if err := validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func validate(cfg *Config) error {
	if cfg.DB.DSN == "" {
		return fmt.Errorf("DB_DSN is required")
	}
	if cfg.Auth.AccessSecret == "" {
		return fmt.Errorf("JWT_ACCESS_SECRET is required")
	}
	if cfg.Import.MatchThreshold > 1 {
		return fmt.Errorf("IMPORT_MATCH_THRESHOLD must be within (0, 1]")
	}
	return nil
}

func parseList(raw string) []string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil
	}
	items := strings.Split(raw, ",")
	result := make([]string, 0, len(items))
	for _, item := range items {
		item = strings.TrimSpace(item)
		if item != "" {
			result = append(result, item)
		}
	}
	return result
}
