package config

import (
	"log/slog"
	"path/filepath"
	"strings"
	"testing"
)

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name        string
		config      Config
		wantErr     bool
		errorString string
	}{
		{
			name:    "valid config",
			config:  Config{DBPath: filepath.Join(t.TempDir(), "moneybook.db"), LogLevel: "info"},
			wantErr: false,
		},
		{
			name:        "empty database path",
			config:      Config{DBPath: "", LogLevel: "info"},
			wantErr:     true,
			errorString: "database path cannot be empty",
		},
		{
			name:        "invalid log level",
			config:      Config{DBPath: "./test.db", LogLevel: "verbose"},
			wantErr:     true,
			errorString: "invalid log level 'verbose'",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.config.Validate()
			if tt.wantErr {
				if err == nil {
					t.Fatal("expected error, got nil")
				}
				if !strings.Contains(err.Error(), tt.errorString) {
					t.Fatalf("expected error containing %q, got %q", tt.errorString, err.Error())
				}
				return
			}
			if err != nil {
				t.Fatalf("expected no error, got %v", err)
			}
		})
	}
}

func TestConfig_SlogLevel(t *testing.T) {
	cases := []struct {
		level string
		want  slog.Level
	}{
		{"debug", slog.LevelDebug},
		{"info", slog.LevelInfo},
		{"WARN", slog.LevelWarn},
		{"Error", slog.LevelError},
	}
	for _, tc := range cases {
		cfg := Config{LogLevel: tc.level}
		got, err := cfg.SlogLevel()
		if err != nil || got != tc.want {
			t.Fatalf("level %q: got %v err=%v", tc.level, got, err)
		}
	}

	if _, err := (&Config{LogLevel: "loud"}).SlogLevel(); err == nil {
		t.Fatal("expected error for unknown level")
	}
}

func TestLoadDefaults(t *testing.T) {
	cfg := Load()
	if cfg.DBPath == "" {
		t.Fatal("expected default database path")
	}
	if cfg.LogLevel != "info" {
		t.Fatalf("expected default log level info, got %q", cfg.LogLevel)
	}
}
