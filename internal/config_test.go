package internal

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewConfig_Defaults(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://localhost/flai")
	t.Setenv("ENV", "development")

	cfg, err := NewConfig()
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.Port)
	assert.Equal(t, "Asia/Almaty", cfg.Timezone)
	assert.Equal(t, "local", cfg.StorageProvider)
	assert.Equal(t, "mock", cfg.AIProvider)
	assert.Equal(t, 3, cfg.AIMaxRetries)
	assert.Equal(t, 2*time.Second, cfg.AIRetryBaseDelay)
	assert.Equal(t, 60*time.Second, cfg.AIRequestTimeout)
	assert.Equal(t, time.Hour, cfg.ReconcileInterval)
	assert.True(t, cfg.WorkerEnabled)
}

func TestNewConfig_Validation(t *testing.T) {
	tests := []struct {
		name    string
		env     map[string]string
		wantErr string
	}{
		{
			name:    "missing database url",
			env:     map[string]string{"DATABASE_URL": ""},
			wantErr: "DATABASE_URL",
		},
		{
			name:    "bad timezone",
			env:     map[string]string{"TIMEZONE": "Mars/Olympus"},
			wantErr: "TIMEZONE",
		},
		{
			name:    "unknown storage",
			env:     map[string]string{"STORAGE_PROVIDER": "ftp"},
			wantErr: "STORAGE_PROVIDER",
		},
		{
			name:    "r2 without bucket",
			env:     map[string]string{"STORAGE_PROVIDER": "r2", "R2_ACCOUNT_ID": "a", "R2_ACCESS_KEY_ID": "k", "R2_SECRET_ACCESS_KEY": "s"},
			wantErr: "R2_BUCKET_NAME",
		},
		{
			name:    "openai without key",
			env:     map[string]string{"AI_PROVIDER": "openai"},
			wantErr: "OPENAI_API_KEY",
		},
		{
			name:    "unknown ai provider",
			env:     map[string]string{"AI_PROVIDER": "hal"},
			wantErr: "AI_PROVIDER",
		},
		{
			name:    "mock outside development",
			env:     map[string]string{"ENV": "production"},
			wantErr: "mock",
		},
		{
			name: "r2 with custom endpoint",
			env: map[string]string{
				"STORAGE_PROVIDER":     "r2",
				"R2_ENDPOINT":          "http://minio:9000",
				"R2_ACCESS_KEY_ID":     "k",
				"R2_SECRET_ACCESS_KEY": "s",
				"R2_BUCKET_NAME":       "staging",
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("DATABASE_URL", "postgres://localhost/flai")
			t.Setenv("ENV", "development")
			for k, v := range tt.env {
				t.Setenv(k, v)
			}

			_, err := NewConfig()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}
