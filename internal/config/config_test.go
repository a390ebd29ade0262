package config

import "testing"

func TestValidate_ReportsMissingRequired(t *testing.T) {
	c := Config{}
	if err := c.Validate(); err == nil {
		t.Fatalf("expected validation error")
	}
}

func TestValidate_ProductionRequiresSSLMode(t *testing.T) {
	c := Config{
		App:   AppConfig{Env: "production", Port: 8080},
		DB:    DBConfig{Host: "localhost", Port: 5432, User: "postgres", Password: "x", Name: "cdr", SSLMode: ""},
		Redis: RedisConfig{Host: "localhost", Port: 6379},
	}
	if err := c.Validate(); err == nil {
		t.Fatalf("expected error for production without DB_SSLMODE")
	}
}

func TestValidate_LocalDefaults(t *testing.T) {
	c := Config{
		App:   AppConfig{Env: "local", Port: 8080},
		DB:    DBConfig{Host: "localhost", Port: 5432, User: "postgres", Password: "x", Name: "cdr", SSLMode: ""},
		Redis: RedisConfig{Host: "localhost", Port: 6379},
	}
	if err := c.Validate(); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if c.DB.SSLMode != "disable" {
		t.Fatalf("expected sslmode disable default, got %q", c.DB.SSLMode)
	}
	if c.Upload.MaxBytes != 10<<20 {
		t.Fatalf("expected 10MiB upload cap default, got %d", c.Upload.MaxBytes)
	}
	if c.Upload.Concurrency != 4 {
		t.Fatalf("expected upload concurrency default 4, got %d", c.Upload.Concurrency)
	}
}

func TestValidate_RejectsNegativeUploadLimits(t *testing.T) {
	c := Config{
		App:    AppConfig{Env: "local", Port: 8080},
		DB:     DBConfig{Host: "localhost", Port: 5432, User: "postgres", Password: "x", Name: "cdr"},
		Redis:  RedisConfig{Host: "localhost", Port: 6379},
		Upload: UploadConfig{MaxBytes: -1, Concurrency: -1},
	}
	if err := c.Validate(); err == nil {
		t.Fatalf("expected error for negative upload limits")
	}
}
