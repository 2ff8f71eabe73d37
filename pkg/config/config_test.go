package config

import (
	"strings"
	"testing"
)

func devConfig() Config {
	return Config{
		Environment:          EnvDevelopment,
		ProvisioningMode:     ProvisioningInline,
		LedgerTxRetries:      5,
		OtelSampleRatio:      1,
		LogLevel:             "info",
		SessionAuthKey:       "dev-session-auth-key-32-bytes!!",
		SessionEncryptionKey: "dev-encryption-key-32-bytes-long",
		JWTSecret:            "dev-jwt-secret-change-me-please!!",
		CORSAllowedOrigins:   "*",
	}
}

func prodConfig() Config {
	c := devConfig()
	c.Environment = EnvProduction
	c.SessionAuthKey = strings.Repeat("a", 32)
	c.SessionEncryptionKey = strings.Repeat("b", 32)
	c.JWTSecret = strings.Repeat("c", 48)
	c.CORSAllowedOrigins = "https://console.blueledger.io"
	return c
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		prod    bool
		wantErr string
	}{
		{name: "development defaults", mutate: func(*Config) {}},
		{name: "development keeps dev secrets", mutate: func(c *Config) { c.LogLevel = "debug" }},
		{name: "temporal without host", mutate: func(c *Config) { c.ProvisioningMode, c.TemporalHostPort = ProvisioningTemporal, "" }, wantErr: "TEMPORAL_HOST_PORT"},
		{name: "sample ratio above one", mutate: func(c *Config) { c.OtelSampleRatio = 1.5 }, wantErr: "OTEL_SAMPLE_RATIO"},
		{name: "no ledger retries", mutate: func(c *Config) { c.LedgerTxRetries = 0 }, wantErr: "LEDGER_TX_RETRIES"},
		{name: "production", prod: true, mutate: func(*Config) {}},
		{name: "production dev auth key", prod: true, mutate: func(c *Config) { c.SessionAuthKey = "dev-" + strings.Repeat("x", 40) }, wantErr: "SESSION_AUTH_KEY"},
		{name: "production odd encryption key", prod: true, mutate: func(c *Config) { c.SessionEncryptionKey = strings.Repeat("k", 20) }, wantErr: "16, 24 or 32 bytes"},
		{name: "production short jwt secret", prod: true, mutate: func(c *Config) { c.JWTSecret = "short" }, wantErr: "JWT_SECRET"},
		{name: "production debug logs", prod: true, mutate: func(c *Config) { c.LogLevel = "debug" }, wantErr: "LOG_LEVEL"},
		{name: "production wildcard cors", prod: true, mutate: func(c *Config) { c.CORSAllowedOrigins = " * " }, wantErr: "CORS_ALLOWED_ORIGINS"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := devConfig()
			if tt.prod {
				c = prodConfig()
			}
			tt.mutate(&c)

			err := c.Validate()
			if tt.wantErr == "" {
				if err != nil {
					t.Fatalf("Validate() = %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Fatalf("Validate() = %v, want error mentioning %q", err, tt.wantErr)
			}
		})
	}
}

func TestValidate_ReportsEveryProblem(t *testing.T) {
	c := prodConfig()
	c.JWTSecret = ""
	c.LogLevel = "debug"

	err := c.Validate()
	if err == nil {
		t.Fatal("expected error")
	}
	for _, want := range []string{"JWT_SECRET", "LOG_LEVEL"} {
		if !strings.Contains(err.Error(), want) {
			t.Errorf("error %q does not mention %s", err, want)
		}
	}
}

func TestIsProduction(t *testing.T) {
	for env, want := range map[string]bool{EnvProduction: true, EnvDevelopment: false, EnvTesting: false} {
		if got := (&Config{Environment: env}).IsProduction(); got != want {
			t.Errorf("IsProduction(%s) = %v", env, got)
		}
	}
}
