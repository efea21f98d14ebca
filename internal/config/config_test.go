package config

import (
	"testing"
	"time"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.RateLimit.MaxPerWindow != 5 {
		t.Errorf("Expected 5 submissions per window, got %d", cfg.RateLimit.MaxPerWindow)
	}
	if cfg.RateLimit.Window != time.Minute {
		t.Errorf("Expected 1m window, got %v", cfg.RateLimit.Window)
	}
	if cfg.Abuse.SpamScoreThreshold != 0.7 {
		t.Errorf("Expected spam threshold 0.7, got %v", cfg.Abuse.SpamScoreThreshold)
	}
	if cfg.Pagination.DefaultPageSize != 20 || cfg.Pagination.MaxPageSize != 100 {
		t.Errorf("Unexpected pagination defaults: %+v", cfg.Pagination)
	}
}

func TestLoad_MillisecondOptions(t *testing.T) {
	t.Setenv("RATE_LIMIT_WINDOW_MS", "1500")
	t.Setenv("DUPLICATE_LOOKBACK_WINDOW_MS", "60000")
	t.Setenv("RATE_LIMIT_MAX_PER_WINDOW", "2")
	t.Setenv("SPAM_TOKENS", "foo, bar ,,baz")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.RateLimit.Window != 1500*time.Millisecond {
		t.Errorf("Expected 1.5s window, got %v", cfg.RateLimit.Window)
	}
	if cfg.Abuse.DuplicateLookback != time.Minute {
		t.Errorf("Expected 1m lookback, got %v", cfg.Abuse.DuplicateLookback)
	}
	if cfg.RateLimit.MaxPerWindow != 2 {
		t.Errorf("Expected max 2, got %d", cfg.RateLimit.MaxPerWindow)
	}
	if len(cfg.Abuse.ExtraSpamTokens) != 3 {
		t.Errorf("Expected 3 spam tokens, got %v", cfg.Abuse.ExtraSpamTokens)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		env     map[string]string
		wantErr bool
	}{
		{"memory driver", map[string]string{"STORAGE_DRIVER": "memory"}, false},
		{"unknown driver", map[string]string{"STORAGE_DRIVER": "sqlite"}, true},
		{"redis backend without addr", map[string]string{"RATE_LIMIT_BACKEND": "redis"}, true},
		{"redis backend with addr", map[string]string{"RATE_LIMIT_BACKEND": "redis", "REDIS_ADDR": "localhost:6379"}, false},
		{"min above max", map[string]string{"MIN_CONTENT_LENGTH": "50", "MAX_CONTENT_LENGTH": "10"}, true},
		{"threshold out of range", map[string]string{"SPAM_SCORE_THRESHOLD": "1.5"}, true},
		{"page size above max", map[string]string{"DEFAULT_PAGE_SIZE": "500"}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			_, err := Load()
			if (err != nil) != tt.wantErr {
				t.Errorf("Load() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}
