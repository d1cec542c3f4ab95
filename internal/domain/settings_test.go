package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCompareVersions(t *testing.T) {
	tests := []struct {
		a, b string
		want int
	}{
		{"1.2.0", "1.2.0", 0},
		{"1.2", "1.2.0", 0},
		{"1.1.9", "1.2.0", -1},
		{"1.10.0", "1.9.3", 1},
		{"2", "1.99.99", 1},
		{"1.2.0", "1.2.1", -1},
		{"1.x.0", "1.0.0", 0},
	}

	for _, tt := range tests {
		t.Run(tt.a+" vs "+tt.b, func(t *testing.T) {
			assert.Equal(t, tt.want, CompareVersions(tt.a, tt.b))
		})
	}
}

func TestAppSettings_CheckVersion(t *testing.T) {
	s := AppSettings{CurrentVersion: "1.3.0", UpdateDescription: "Новый дизайн"}

	old := s.CheckVersion("1.2.5")
	assert.True(t, old.NeedsUpdate)
	assert.Equal(t, AppDownloadPath, old.DownloadURL)
	assert.Equal(t, "1.3.0", old.CurrentVersion)
	assert.Equal(t, "Новый дизайн", old.UpdateDescription)

	current := s.CheckVersion("1.3")
	assert.False(t, current.NeedsUpdate)
	assert.Empty(t, current.DownloadURL)

	newer := s.CheckVersion("1.4.0")
	assert.False(t, newer.NeedsUpdate)
}

func TestValidateVersion(t *testing.T) {
	tests := []struct {
		version string
		wantErr bool
	}{
		{"1.3.0", false},
		{"2", false},
		{"", true},
		{"  ", true},
		{"1..0", true},
		{"v1.2", true},
		{"1.-2", true},
	}

	for _, tt := range tests {
		t.Run(tt.version, func(t *testing.T) {
			err := ValidateVersion("version", tt.version)
			if tt.wantErr {
				assert.Equal(t, EINVALID, ErrorCode(err))
				return
			}
			assert.NoError(t, err)
		})
	}
}
