package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestDefault(t *testing.T) {
	cfg := Default()
	r := cfg.Recommendation

	if r.ActivityDays != 30 || r.MatrixDays != 90 || r.ExcludeDays != 30 {
		t.Errorf("unexpected windows: %d/%d/%d", r.ActivityDays, r.MatrixDays, r.ExcludeDays)
	}
	if r.UserNeighbors != 50 || r.ItemNeighbors != 20 || r.MinSimilarity != 0.1 {
		t.Errorf("unexpected neighbour settings: %+v", r)
	}
	if r.FullMatchBonus != 600 || r.InferMatchBonus != 500 || r.KeywordMatchBonus != 400 || r.MismatchPenalty != -1000 {
		t.Errorf("unexpected bonus constants: %+v", r)
	}
	if r.DefaultLimit != 20 || r.MaxLimit != 100 {
		t.Errorf("unexpected limits: %d/%d", r.DefaultLimit, r.MaxLimit)
	}
	if cfg.Log.Output != "stderr" {
		t.Errorf("log output = %q, want stderr", cfg.Log.Output)
	}
}

func TestLoadSQLiteFromFile(t *testing.T) {
	path := writeConfig(t, `
database:
  driver: sqlite
  path: /tmp/rec.db
recommendation:
  similarity: pearson
  default_limit: 10
  full_match_bonus: 700
log:
  level: debug
  format: json
`)
	t.Setenv("CONFIG_FILE", path)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.DB.DSN != "/tmp/rec.db" {
		t.Errorf("DSN = %q", cfg.DB.DSN)
	}
	if cfg.Recommendation.Similarity != "pearson" || cfg.Recommendation.DefaultLimit != 10 {
		t.Errorf("recommendation = %+v", cfg.Recommendation)
	}
	if cfg.Recommendation.FullMatchBonus != 700 || cfg.Recommendation.InferMatchBonus != 500 {
		t.Errorf("bonus override not applied: %+v", cfg.Recommendation)
	}
}

func TestLoadEnvOverrides(t *testing.T) {
	path := writeConfig(t, `
database:
  driver: mysql
  database: studywithme
`)
	t.Setenv("CONFIG_FILE", path)
	t.Setenv("DB_USER", "rec")
	t.Setenv("DB_PASSWORD", "secret")
	t.Setenv("DB_HOST", "db.internal")
	t.Setenv("DEFAULT_RECOMMENDATION_LIMIT", "15")
	t.Setenv("REDIS_ADDR", "localhost:6379")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	want := "rec:secret@tcp(db.internal:3306)/studywithme?charset=utf8mb4&parseTime=true&loc=Local"
	if cfg.DB.DSN != want {
		t.Errorf("DSN = %q, want %q", cfg.DB.DSN, want)
	}
	if cfg.Recommendation.DefaultLimit != 15 {
		t.Errorf("DefaultLimit = %d", cfg.Recommendation.DefaultLimit)
	}
	if !cfg.Redis.Enabled || cfg.Redis.Addr != "localhost:6379" {
		t.Errorf("redis = %+v", cfg.Redis)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr string
	}{
		{"valid", func(c *Config) {}, ""},
		{"bad similarity", func(c *Config) { c.Recommendation.Similarity = "jaccard" }, "Similarity"},
		{"bad driver", func(c *Config) { c.DB.Driver = "postgres" }, "Driver"},
		{"default above max", func(c *Config) { c.Recommendation.DefaultLimit = 500 }, "DefaultLimit"},
		{"file output without path", func(c *Config) { c.Log.Output = "file" }, "FilePath"},
		{"redis without addr", func(c *Config) { c.Redis.Enabled = true }, "Addr"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := &Config{}
			cfg.DB.Driver = "sqlite"
			cfg.ApplyDefaults()
			tt.mutate(cfg)

			err := cfg.Validate()
			if tt.wantErr == "" {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Fatalf("error = %v, want mention of %s", err, tt.wantErr)
			}
		})
	}
}

func TestLoadKeepsExplicitZeroWeights(t *testing.T) {
	path := writeConfig(t, `
database:
  driver: sqlite
recommendation:
  min_similarity: 0
  mismatch_penalty: 0
  fresh_bonus: 0
`)
	t.Setenv("CONFIG_FILE", path)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	r := cfg.Recommendation
	if r.MinSimilarity != 0 || r.MismatchPenalty != 0 || r.FreshBonus != 0 {
		t.Errorf("explicit zeros overwritten: min_similarity=%v mismatch_penalty=%v fresh_bonus=%v",
			r.MinSimilarity, r.MismatchPenalty, r.FreshBonus)
	}
	// 未出现在文件中的字段仍使用默认值
	if r.FullMatchBonus != 600 || r.CFBlendWeight != 0.6 {
		t.Errorf("defaults lost: %+v", r)
	}
}
