package shared

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	content := `
[credentials.spotify]
client_id = "my-client"
client_secret = "my-secret"

[credentials.apple_music]
team_id = "TEAM01"
key_id = "KEY01"
private_key_path = "/keys/AuthKey_KEY01.p8"
storefront = "gb"

[database]
path = "/data/harmonia.db"
max_open_conns = 20

[server]
host = "0.0.0.0"
port = 9000

[sync]
call_timeout_seconds = 10
rate_limit = 2.5
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("failed to write config file: %v", err)
	}

	config, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig() error = %v", err)
	}

	if config.Credentials.Spotify.ClientID != "my-client" {
		t.Errorf("spotify client_id = %q", config.Credentials.Spotify.ClientID)
	}
	if config.Credentials.AppleMusic.Storefront != "gb" {
		t.Errorf("apple music storefront = %q", config.Credentials.AppleMusic.Storefront)
	}
	if config.Database.Path != "/data/harmonia.db" {
		t.Errorf("database path = %q", config.Database.Path)
	}
	if config.Server.Port != 9000 {
		t.Errorf("server port = %d", config.Server.Port)
	}
	if config.Sync.RateLimit != 2.5 {
		t.Errorf("sync rate_limit = %v", config.Sync.RateLimit)
	}
	if got := config.Sync.CallTimeout(); got != 10*time.Second {
		t.Errorf("CallTimeout() = %v, want 10s", got)
	}
}

func TestLoadConfig_MissingFile(t *testing.T) {
	if _, err := LoadConfig(filepath.Join(t.TempDir(), "nope.toml")); err == nil {
		t.Error("LoadConfig() on missing file returned nil error")
	}
}

func TestDefaultConfig(t *testing.T) {
	config := DefaultConfig()

	if config.Database.Path != "harmonia.db" {
		t.Errorf("default database path = %q", config.Database.Path)
	}
	if config.Server.Port != 8089 {
		t.Errorf("default server port = %d", config.Server.Port)
	}
	if config.Credentials.AppleMusic.Storefront != "us" {
		t.Errorf("default storefront = %q", config.Credentials.AppleMusic.Storefront)
	}
	if config.Sync.RateLimit != 5.0 {
		t.Errorf("default rate_limit = %v", config.Sync.RateLimit)
	}
}

func TestSyncConfig_CallTimeoutDefault(t *testing.T) {
	tests := []struct {
		name    string
		seconds int
		want    time.Duration
	}{
		{"zero falls back to 30s", 0, 30 * time.Second},
		{"negative falls back to 30s", -5, 30 * time.Second},
		{"explicit value", 45, 45 * time.Second},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := SyncConfig{CallTimeoutSeconds: tt.seconds}
			if got := cfg.CallTimeout(); got != tt.want {
				t.Errorf("CallTimeout() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestCreateConfigFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")

	if err := CreateConfigFile(path); err != nil {
		t.Fatalf("CreateConfigFile() error = %v", err)
	}

	config, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig() on created file error = %v", err)
	}
	if config.Database.Path != "harmonia.db" {
		t.Errorf("created config database path = %q", config.Database.Path)
	}

	if err := CreateConfigFile(path); err == nil {
		t.Error("CreateConfigFile() over an existing file returned nil error")
	}
}
