package config

import (
	"strings"
	"testing"
	"time"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.DBMaxConns != 5 {
		t.Errorf("DBMaxConns: got %d, want 5", cfg.DBMaxConns)
	}
	if cfg.DBIdleTimeout != 30*time.Second {
		t.Errorf("DBIdleTimeout: got %v, want 30s", cfg.DBIdleTimeout)
	}
	if cfg.CORSAllowedOrigins != "*" {
		t.Errorf("CORSAllowedOrigins: got %q, want *", cfg.CORSAllowedOrigins)
	}
}

func TestLoad_FromEnvironment(t *testing.T) {
	t.Setenv("DB_MAX_CONNS", "3")
	t.Setenv("AUTH_TOKEN_TTL", "15m")
	t.Setenv("ENVIRONMENT", "testing")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.DBMaxConns != 3 {
		t.Errorf("DBMaxConns: got %d, want 3", cfg.DBMaxConns)
	}
	if cfg.AuthTokenTTL != 15*time.Minute {
		t.Errorf("AuthTokenTTL: got %v, want 15m", cfg.AuthTokenTTL)
	}
	if cfg.Environment != EnvTesting {
		t.Errorf("Environment: got %q", cfg.Environment)
	}
}

func TestLoad_RejectsUnknownEnvironment(t *testing.T) {
	for _, env := range []string{"staging", "Production", "prod"} {
		t.Run(env, func(t *testing.T) {
			t.Setenv("ENVIRONMENT", env)
			_, err := Load()
			if err == nil || !strings.Contains(err.Error(), "ENVIRONMENT") {
				t.Fatalf("expected ENVIRONMENT error for %q, got %v", env, err)
			}
		})
	}
}

func TestLoad_AcceptsKnownEnvironments(t *testing.T) {
	for _, env := range []string{EnvDevelopment, EnvTesting, EnvProduction} {
		t.Run(env, func(t *testing.T) {
			t.Setenv("ENVIRONMENT", env)
			cfg, err := Load()
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if cfg.Environment != env {
				t.Errorf("Environment: got %q", cfg.Environment)
			}
		})
	}
}

func TestLoadClient_Defaults(t *testing.T) {
	cfg, err := LoadClient()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.APIURL != "http://localhost:8080" {
		t.Errorf("APIURL: got %q", cfg.APIURL)
	}
	if cfg.Timeout != 10*time.Second {
		t.Errorf("Timeout: got %v", cfg.Timeout)
	}
}

func TestValidateForProduction(t *testing.T) {
	strong := strings.Repeat("s", 40)

	tests := []struct {
		name    string
		cfg     Config
		wantErr string
	}{
		{
			name: "non-production skips checks",
			cfg:  Config{Environment: EnvDevelopment, AuthSecret: "short"},
		},
		{
			name: "valid production config",
			cfg:  Config{Environment: EnvProduction, AuthSecret: strong, AuthUsers: "ana:$2a$10$x", LogLevel: "info", DBMaxConns: 5},
		},
		{
			name:    "default secret rejected",
			cfg:     Config{Environment: EnvProduction, AuthSecret: defaultAuthSecret, AuthUsers: "ana:h", DBMaxConns: 5},
			wantErr: "AUTH_SECRET",
		},
		{
			name:    "missing users rejected",
			cfg:     Config{Environment: EnvProduction, AuthSecret: strong, DBMaxConns: 5},
			wantErr: "AUTH_USERS",
		},
		{
			name:    "debug logging rejected",
			cfg:     Config{Environment: EnvProduction, AuthSecret: strong, AuthUsers: "ana:h", LogLevel: "debug", DBMaxConns: 5},
			wantErr: "LOG_LEVEL",
		},
		{
			name:    "empty pool rejected",
			cfg:     Config{Environment: EnvProduction, AuthSecret: strong, AuthUsers: "ana:h"},
			wantErr: "DB_MAX_CONNS",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateForProduction(&tt.cfg)
			if tt.wantErr == "" {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Fatalf("expected error mentioning %s, got %v", tt.wantErr, err)
			}
		})
	}
}
