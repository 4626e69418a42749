package config_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yourusername/todolist/internal/config"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("GIN_MODE", "debug")
	t.Setenv("PORT", "")
	t.Setenv("REDIS_URL", "")
	t.Setenv("MIN_PASSWORD_CHARS", "")

	cfg, err := config.Load()

	require.NoError(t, err)
	assert.Equal(t, "3000", cfg.Port)
	assert.Equal(t, "debug", cfg.GinMode)
	assert.Equal(t, "redis://127.0.0.1:6379/0", cfg.RedisURL)
	assert.Equal(t, 6, cfg.MinPasswordChars)
	assert.Equal(t, 10, cfg.BcryptCost)
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("GIN_MODE", "debug")
	t.Setenv("PORT", "8080")
	t.Setenv("MIN_PASSWORD_CHARS", "8")
	t.Setenv("BCRYPT_COST", "12")

	cfg, err := config.Load()

	require.NoError(t, err)
	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, 8, cfg.MinPasswordChars)
	assert.Equal(t, 12, cfg.BcryptCost)
}

func TestValidateReleaseMode(t *testing.T) {
	tests := []struct {
		name    string
		cfg     config.Config
		wantErr string
	}{
		{
			name: "セッション秘密鍵が必須",
			cfg: config.Config{
				GinMode:          "release",
				DatabaseURL:      "postgres://localhost/todolist",
				RedisURL:         "redis://localhost:6379/0",
				MinPasswordChars: 6,
			},
			wantErr: "SESSION_SECRET",
		},
		{
			name: "揃っていれば成功",
			cfg: config.Config{
				GinMode:          "release",
				SessionSecret:    "secret",
				DatabaseURL:      "postgres://localhost/todolist",
				RedisURL:         "redis://localhost:6379/0",
				MinPasswordChars: 6,
			},
		},
		{
			name: "最小文字数は正の値",
			cfg: config.Config{
				GinMode:          "debug",
				MinPasswordChars: 0,
			},
			wantErr: "MIN_PASSWORD_CHARS",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Validate()
			if tt.wantErr != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}
