package config

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	testPasetoKey  = "0123456789abcdef0123456789abcdef"
	testLinkSecret = "link-secret-link-secret-link-secret!"
)

func setRequired(t *testing.T) {
	t.Helper()
	t.Setenv("PASETO_KEY", testPasetoKey)
	t.Setenv("LINK_TOKEN_SECRET", testLinkSecret)
}

func TestLoad_Defaults(t *testing.T) {
	setRequired(t)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Server.Port)
	assert.True(t, cfg.Server.IsDevelopment())
	assert.Equal(t, DriverPostgres, cfg.Database.Driver)
	assert.Equal(t, QueueMemory, cfg.Notification.Queue)
	assert.Equal(t, HasherArgon2, cfg.Auth.PasswordHasher)
	assert.Equal(t, 24*time.Hour, cfg.Auth.VerificationTokenDuration)
	assert.Equal(t, time.Hour, cfg.Auth.ResetTokenDuration)
	assert.Equal(t, 8, cfg.Auth.MinPasswordLength)
	assert.Equal(t, "localhost:6379", cfg.Redis.Address())
}

func TestLoad_Overrides(t *testing.T) {
	setRequired(t)
	t.Setenv("APP_ENV", "prod")
	t.Setenv("DB_DRIVER", DriverSQLite)
	t.Setenv("NOTIFY_QUEUE", QueueRedis)
	t.Setenv("RESET_TOKEN_DURATION", "90m")
	t.Setenv("SESSION_TOKEN_DURATION", "60")
	t.Setenv("TRUSTED_ORIGINS", " https://a.example , ,https://b.example ")

	cfg, err := Load()
	require.NoError(t, err)

	assert.False(t, cfg.Server.IsDevelopment())
	assert.Equal(t, DriverSQLite, cfg.Database.Driver)
	assert.Equal(t, QueueRedis, cfg.Notification.Queue)
	assert.Equal(t, 90*time.Minute, cfg.Auth.ResetTokenDuration)
	assert.Equal(t, time.Minute, cfg.Auth.SessionTokenDuration)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.Server.TrustedOrigins)
}

func TestLoad_Invalid(t *testing.T) {
	tests := []struct {
		name    string
		env     map[string]string
		wantErr string
	}{
		{
			name:    "short paseto key",
			env:     map[string]string{"PASETO_KEY": "short"},
			wantErr: "PASETO_KEY",
		},
		{
			name:    "short link secret",
			env:     map[string]string{"LINK_TOKEN_SECRET": "short"},
			wantErr: "LINK_TOKEN_SECRET",
		},
		{
			name:    "unknown driver",
			env:     map[string]string{"DB_DRIVER": "mongo"},
			wantErr: "DB_DRIVER",
		},
		{
			name:    "unknown queue",
			env:     map[string]string{"NOTIFY_QUEUE": "kafka"},
			wantErr: "NOTIFY_QUEUE",
		},
		{
			name:    "unknown hasher",
			env:     map[string]string{"PASSWORD_HASHER": "md5"},
			wantErr: "PASSWORD_HASHER",
		},
		{
			name:    "no workers",
			env:     map[string]string{"NOTIFY_WORKERS": "0"},
			wantErr: "NOTIFY_WORKERS",
		},
		{
			name:    "zero session duration",
			env:     map[string]string{"SESSION_TOKEN_DURATION": "0"},
			wantErr: "SESSION_TOKEN_DURATION",
		},
		{
			name:    "negative verification duration",
			env:     map[string]string{"VERIFICATION_TOKEN_DURATION": "-5m"},
			wantErr: "VERIFICATION_TOKEN_DURATION",
		},
		{
			name:    "zero reset duration",
			env:     map[string]string{"RESET_TOKEN_DURATION": "0s"},
			wantErr: "RESET_TOKEN_DURATION",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			setRequired(t)
			for k, v := range tt.env {
				t.Setenv(k, v)
			}

			_, err := Load()
			require.Error(t, err)
			assert.True(t, strings.Contains(err.Error(), tt.wantErr), err.Error())
		})
	}
}

func TestDatabaseConfig_ConnectionString(t *testing.T) {
	c := DatabaseConfig{Host: "db", Port: "5432", User: "u", Password: "p", DBName: "n", SSLMode: "disable"}
	assert.Equal(t, "host=db port=5432 user=u password=p dbname=n sslmode=disable", c.ConnectionString())

	c.ChannelBinding = "require"
	assert.Contains(t, c.ConnectionString(), "channel_binding=require")
}
