package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func TestLoadAnnouncementConfigDefaults(t *testing.T) {
	viper.Reset()
	t.Cleanup(viper.Reset)

	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "config.yaml"), `
announcement:
  channel_id: "1330790111259922513"
  everyone_role_id: "1382167308180394145"
  staff_role_id: "1236487195741913119"
`)
	loadFrom(dir)

	cfg, err := LoadAnnouncementConfig()
	require.NoError(t, err)

	assert.Equal(t, "1330790111259922513", cfg.ChannelID)
	assert.Equal(t, "1382167308180394145", cfg.EveryoneRoleID)
	assert.Equal(t, "1236487195741913119", cfg.StaffRoleID)
	assert.Equal(t, 2, cfg.StructureThreshold)
	assert.Equal(t, 2, cfg.ContentThreshold)
	assert.Equal(t, time.Hour, cfg.Window)
	assert.Equal(t, 2*time.Second, cfg.DispatchDelay)
	assert.Equal(t, "memory", cfg.Tracker.Store)
	assert.Equal(t, 90, cfg.RetentionDays)
	assert.Empty(t, cfg.Keywords.Action)
}

func TestLoadAnnouncementConfigMergesJSON(t *testing.T) {
	viper.Reset()
	t.Cleanup(viper.Reset)

	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "config.yaml"), `
announcement:
  channel_id: "100"
`)
	writeFile(t, filepath.Join(dir, "config", "announcement.json"), `{
  "announcement": {
    "channel_id": "200",
    "window": "30m",
    "dispatch_delay": "0s",
    "keywords": {"action": ["参加", "申込"]},
    "tracker": {"store": "redis", "redis_addr": "localhost:6379"}
  }
}`)
	loadFrom(dir)

	cfg, err := LoadAnnouncementConfig()
	require.NoError(t, err)

	assert.Equal(t, "200", cfg.ChannelID)
	assert.Equal(t, 30*time.Minute, cfg.Window)
	assert.Equal(t, time.Duration(0), cfg.DispatchDelay)
	assert.Equal(t, []string{"参加", "申込"}, cfg.Keywords.Action)
	assert.Equal(t, "redis", cfg.Tracker.Store)
	assert.Equal(t, "localhost:6379", cfg.Tracker.RedisAddr)
}

func TestLoadAnnouncementConfigFromEnv(t *testing.T) {
	viper.Reset()
	t.Cleanup(viper.Reset)
	t.Setenv("ANNOUNCEMENT_CHANNEL_ID", "300")

	loadFrom(t.TempDir())

	cfg, err := LoadAnnouncementConfig()
	require.NoError(t, err)
	assert.Equal(t, "300", cfg.ChannelID)
}

func TestLoadAnnouncementConfigValidation(t *testing.T) {
	tests := []struct {
		name string
		yaml string
	}{
		{
			name: "missing channel",
			yaml: "announcement:\n  staff_role_id: \"1\"\n",
		},
		{
			name: "unknown store",
			yaml: "announcement:\n  channel_id: \"1\"\n  tracker:\n    store: etcd\n",
		},
		{
			name: "redis without address",
			yaml: "announcement:\n  channel_id: \"1\"\n  tracker:\n    store: redis\n",
		},
		{
			name: "zero window",
			yaml: "announcement:\n  channel_id: \"1\"\n  window: 0s\n",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			viper.Reset()
			t.Cleanup(viper.Reset)

			dir := t.TempDir()
			writeFile(t, filepath.Join(dir, "config.yaml"), tt.yaml)
			loadFrom(dir)

			_, err := LoadAnnouncementConfig()
			assert.Error(t, err)
		})
	}
}
