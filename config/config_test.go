package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validConfig() *Config {
	return &Config{
		Server: ServerConfig{Port: 8080},
		Auth: AuthConfig{
			JWTSecret:      "0123456789abcdef0123",
			BcryptCost:     10,
			InviteTokenTTL: 72 * time.Hour,
		},
		Mail: MailConfig{Locale: "en"},
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(c *Config)
		ok     bool
	}{
		{"合法配置", func(c *Config) {}, true},
		{"空密钥", func(c *Config) { c.Auth.JWTSecret = "" }, false},
		{"密钥过短", func(c *Config) { c.Auth.JWTSecret = "short" }, false},
		{"端口越界", func(c *Config) { c.Server.Port = 70000 }, false},
		{"bcrypt 成本过低", func(c *Config) { c.Auth.BcryptCost = 2 }, false},
		{"邀请有效期为 0", func(c *Config) { c.Auth.InviteTokenTTL = 0 }, false},
		{"启用 amqp 但无地址", func(c *Config) { c.AMQP.Enabled = true }, false},
		{"不支持的语言", func(c *Config) { c.Mail.Locale = "fr" }, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.ok {
				assert.NoError(t, err)
			} else {
				assert.Error(t, err)
			}
		})
	}
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("EVENTBUDDY_AUTH_JWT_SECRET", "env-secret-at-least-16")
	t.Setenv("EVENTBUDDY_SERVER_PORT", "9090")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, "env-secret-at-least-16", cfg.Auth.JWTSecret)
	assert.Equal(t, 72*time.Hour, cfg.Auth.InviteTokenTTL)
	assert.Equal(t, "eventbuddy", cfg.Database.Name)
}

func TestDSN(t *testing.T) {
	c := DatabaseConfig{Host: "db", Port: 5432, User: "u", Password: "p", Name: "n", SSLMode: "disable", Timezone: "UTC"}
	assert.Equal(t, "host=db port=5432 user=u password=p dbname=n sslmode=disable TimeZone=UTC", c.DSN())
}
