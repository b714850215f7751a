package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGeneralConfigDefaults(t *testing.T) {
	c := &GeneralConfig{}
	require.NoError(t, c.Load())

	assert.Equal(t, "8080", c.HTTPPort)
	assert.Equal(t, DevEnv, c.Env)
	assert.Equal(t, 5*time.Second, c.ReadHeaderTimeout)
	assert.Equal(t, 10*time.Second, c.WriteTimeout)
	assert.Equal(t, 5*time.Second, c.ShutdownTimeout)
}

func TestGeneralConfigRejects(t *testing.T) {
	tests := []struct {
		name string
		key  string
		val  string
	}{
		{"unknown env", "ENV", "qa"},
		{"zero write timeout", "HTTP_WRITE_TIMEOUT_SEC", "0"},
		{"negative shutdown timeout", "HTTP_SHUTDOWN_TIMEOUT_SEC", "-1"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv(tt.key, tt.val)
			assert.Error(t, (&GeneralConfig{}).Load())
		})
	}
}
