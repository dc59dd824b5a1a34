package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestNewDefaultConfig_Validates(t *testing.T) {
	cfg := NewDefaultConfig()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("default config must validate: %v", err)
	}
}

func TestDefaults_ExtractionPolicy(t *testing.T) {
	cfg := NewDefaultConfig()
	if cfg.Extraction.SubstantialTextLen != 10 {
		t.Errorf("substantial_text_len default = %d, want 10", cfg.Extraction.SubstantialTextLen)
	}
	if cfg.Extraction.MinViableLen != 50 {
		t.Errorf("min_viable_len default = %d, want 50", cfg.Extraction.MinViableLen)
	}
	if cfg.Extraction.OCRScale != 2.0 {
		t.Errorf("ocr_scale default = %g, want 2.0", cfg.Extraction.OCRScale)
	}
	if cfg.Extraction.ExtractTimeout != 30*time.Second {
		t.Errorf("extract_timeout default = %v, want 30s", cfg.Extraction.ExtractTimeout)
	}
	if cfg.Extraction.AnalyzeTimeout != 60*time.Second {
		t.Errorf("analyze_timeout default = %v, want 60s", cfg.Extraction.AnalyzeTimeout)
	}
}

func TestApplyDefaults_DoesNotOverrideSetValues(t *testing.T) {
	cfg := &Config{}
	cfg.Server.Port = 9999
	cfg.Extraction.MinViableLen = 200
	ApplyDefaults(cfg)

	if cfg.Server.Port != 9999 {
		t.Errorf("explicit server.port overwritten: %d", cfg.Server.Port)
	}
	if cfg.Extraction.MinViableLen != 200 {
		t.Errorf("explicit min_viable_len overwritten: %d", cfg.Extraction.MinViableLen)
	}
}

func TestValidate_Rejections(t *testing.T) {
	cases := []struct {
		name    string
		mutate  func(*Config)
		wantSub string
	}{
		{"bad port", func(c *Config) { c.Server.Port = 0 }, "server.port"},
		{"bad mode", func(c *Config) { c.Server.Mode = "yolo" }, "server.mode"},
		{"no db host", func(c *Config) { c.Database.Host = "" }, "database.host"},
		{"no redis addr", func(c *Config) { c.Redis.Addr = "" }, "redis.addr"},
		{"no brokers", func(c *Config) { c.Kafka.Brokers = nil }, "kafka.brokers"},
		{"no bucket", func(c *Config) { c.MinIO.Bucket = "" }, "minio.bucket"},
		{"no analyzer url", func(c *Config) { c.Analyzer.BaseURL = "" }, "analyzer.base_url"},
		{"viable below substantial", func(c *Config) {
			c.Extraction.SubstantialTextLen = 100
			c.Extraction.MinViableLen = 10
		}, "min_viable_len"},
		{"bad ocr scale", func(c *Config) { c.Extraction.OCRScale = -1 }, "ocr_scale"},
		{"bad log level", func(c *Config) { c.Log.Level = "verbose" }, "log.level"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := NewDefaultConfig()
			tc.mutate(cfg)
			err := cfg.Validate()
			if err == nil {
				t.Fatal("expected validation error")
			}
			if !strings.Contains(err.Error(), tc.wantSub) {
				t.Errorf("error %q does not mention %q", err, tc.wantSub)
			}
		})
	}
}

func TestLoad_FromYAMLFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	yaml := `
server:
  port: 8181
  mode: test
extraction:
  substantial_text_len: 25
  min_viable_len: 80
log:
  level: debug
  format: console
`
	if err := os.WriteFile(path, []byte(yaml), 0o600); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Server.Port != 8181 {
		t.Errorf("server.port = %d, want 8181", cfg.Server.Port)
	}
	if cfg.Extraction.SubstantialTextLen != 25 {
		t.Errorf("substantial_text_len = %d, want 25", cfg.Extraction.SubstantialTextLen)
	}
	// Unset fields fall back to defaults.
	if cfg.Redis.Addr != "localhost:6379" {
		t.Errorf("redis.addr default not applied: %q", cfg.Redis.Addr)
	}
	if cfg.Extraction.OCRScale != 2.0 {
		t.Errorf("ocr_scale default not applied: %g", cfg.Extraction.OCRScale)
	}
}

func TestLoad_MissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Fatal("expected error for missing config file")
	}
}

func TestLoadFromEnv_Override(t *testing.T) {
	t.Setenv("CLAUSELENS_SERVER_PORT", "7070")
	t.Setenv("CLAUSELENS_EXTRACTION_OCR_SCALE", "3.5")

	cfg, err := LoadFromEnv()
	if err != nil {
		t.Fatalf("LoadFromEnv: %v", err)
	}
	if cfg.Server.Port != 7070 {
		t.Errorf("env override lost: server.port = %d", cfg.Server.Port)
	}
	if cfg.Extraction.OCRScale != 3.5 {
		t.Errorf("env override lost: ocr_scale = %g", cfg.Extraction.OCRScale)
	}
}
