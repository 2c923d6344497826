package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestNewConfig_Defaults(t *testing.T) {
	cfg := NewConfig()

	assert.Equal(t, int32(8189), cfg.HTTP.Port)
	assert.Equal(t, DefaultDatabasePath, cfg.Database.Path)
	assert.Equal(t, "warn", cfg.Database.LogLevel)
	assert.Equal(t, 30, cfg.Audit.RetentionDays)
	assert.True(t, cfg.Tasks.Enabled)
	assert.Equal(t, 5*time.Minute, cfg.Tasks.BatchTimeout)
	assert.False(t, cfg.Inbox.Enabled)
	assert.Equal(t, "*/5 * * * *", cfg.Inbox.Schedule)
}

func TestNewConfig_Environment(t *testing.T) {
	t.Setenv("DATABASE_PATH", "/tmp/other.db")
	t.Setenv("INBOX_ENABLED", "true")
	t.Setenv("TASK_BATCH_TIMEOUT", "90s")
	t.Setenv("PORT", "9000")

	cfg := NewConfig()

	assert.Equal(t, "/tmp/other.db", cfg.Database.Path)
	assert.True(t, cfg.Inbox.Enabled)
	assert.Equal(t, 90*time.Second, cfg.Tasks.BatchTimeout)
	assert.Equal(t, int32(9000), cfg.HTTP.Port)
}
