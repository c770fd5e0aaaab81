package config

import (
	"testing"
	"time"

	"github.com/spf13/viper"
)

func TestFromViperDefaults(t *testing.T) {
	v := viper.New()
	v.Set("DB_DSN", "postgres://localhost/erp")
	v.Set("JWT_ACCESS_SECRET", "secret")

	cfg, err := fromViper(v)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Environment != "development" {
		t.Fatalf("expected development env, got %q", cfg.Environment)
	}
	if cfg.HTTP.Port != 7090 {
		t.Fatalf("expected default port 7090, got %d", cfg.HTTP.Port)
	}
	if cfg.Import.Workers != 2 || cfg.Import.JobTTL != 24*time.Hour {
		t.Fatalf("unexpected import defaults: %+v", cfg.Import)
	}
	if cfg.Kafka.Topic != "erp.events" || len(cfg.Kafka.Brokers) != 0 {
		t.Fatalf("unexpected kafka defaults: %+v", cfg.Kafka)
	}
}

func TestFromViperRequiresSecrets(t *testing.T) {
	v := viper.New()
	v.Set("DB_DSN", "postgres://localhost/erp")
	if _, err := fromViper(v); err == nil {
		t.Fatalf("expected error without JWT_ACCESS_SECRET")
	}

	v = viper.New()
	v.Set("JWT_ACCESS_SECRET", "secret")
	if _, err := fromViper(v); err == nil {
		t.Fatalf("expected error without DB_DSN")
	}
}

func TestParseList(t *testing.T) {
	got := parseList(" a, ,b ,c")
	want := []string{"a", "b", "c"}
	if len(got) != len(want) {
		t.Fatalf("expected %v, got %v", want, got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("expected %v, got %v", want, got)
		}
	}
	if parseList("   ") != nil {
		t.Fatalf("expected nil for blank input")
	}
}
