package config

import (
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, name, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestEmptyEngineConfig_Defaults(t *testing.T) {
	cfg := EmptyEngineConfig()

	assert.Equal(t, 10, cfg.GetMaxSeedClusters())
	assert.Equal(t, runtime.NumCPU(), cfg.GetWorkers())
	assert.False(t, cfg.GetMapQualityEnabled())
	assert.Equal(t, 0.5, cfg.GetMapVoxelSize())
	assert.Equal(t, 5, cfg.GetMapMinVoxelPoints())
	assert.Equal(t, 500*time.Millisecond, cfg.GetBatchWindow())
	assert.Empty(t, cfg.GetRunlogPath())
	assert.NoError(t, cfg.Validate())
}

func TestDefaultEngineConfig(t *testing.T) {
	cfg := DefaultEngineConfig()

	require.NotNil(t, cfg.MaxSeedClusters)
	assert.Equal(t, 10, *cfg.MaxSeedClusters)
	require.NotNil(t, cfg.BatchWindow)
	assert.Equal(t, "500ms", *cfg.BatchWindow)
	assert.NoError(t, cfg.Validate())
}

func TestMustLoadDefaultConfig(t *testing.T) {
	cfg := MustLoadDefaultConfig()
	empty := EmptyEngineConfig()

	assert.Equal(t, empty.GetMaxSeedClusters(), cfg.GetMaxSeedClusters())
	assert.Equal(t, empty.GetWorkers(), cfg.GetWorkers())
	assert.Equal(t, empty.GetMapVoxelSize(), cfg.GetMapVoxelSize())
	assert.Equal(t, empty.GetMapMinVoxelPoints(), cfg.GetMapMinVoxelPoints())
	assert.Equal(t, empty.GetBatchWindow(), cfg.GetBatchWindow())
}

func TestLoadEngineConfig_JSON(t *testing.T) {
	path := writeConfig(t, "engine.json", `{"max_seed_clusters": 6, "workers": 2, "batch_window": "250ms"}`)

	cfg, err := LoadEngineConfig(path)
	require.NoError(t, err)
	assert.Equal(t, 6, cfg.GetMaxSeedClusters())
	assert.Equal(t, 2, cfg.GetWorkers())
	assert.Equal(t, 250*time.Millisecond, cfg.GetBatchWindow())
	// Omitted keys keep their defaults.
	assert.Equal(t, 0.5, cfg.GetMapVoxelSize())
}

func TestLoadEngineConfig_YAML(t *testing.T) {
	body := strings.Join([]string{
		"map_quality_enabled: true",
		"map_voxel_size: 0.25",
		"map_min_voxel_points: 8",
		"runlog_path: /tmp/runlog.db",
	}, "\n")
	for _, name := range []string{"engine.yaml", "engine.yml"} {
		t.Run(name, func(t *testing.T) {
			cfg, err := LoadEngineConfig(writeConfig(t, name, body))
			require.NoError(t, err)
			assert.True(t, cfg.GetMapQualityEnabled())
			assert.Equal(t, 0.25, cfg.GetMapVoxelSize())
			assert.Equal(t, 8, cfg.GetMapMinVoxelPoints())
			assert.Equal(t, "/tmp/runlog.db", cfg.GetRunlogPath())
		})
	}
}

func TestLoadEngineConfig_EmptyYAML(t *testing.T) {
	cfg, err := LoadEngineConfig(writeConfig(t, "engine.yaml", "\n"))
	require.NoError(t, err)
	assert.Equal(t, 10, cfg.GetMaxSeedClusters())
}

func TestLoadEngineConfig_Errors(t *testing.T) {
	tests := []struct {
		name    string
		file    string
		body    string
		wantErr string
	}{
		{"extension", "engine.toml", "x = 1", "extension"},
		{"bad json", "engine.json", "{", "parse config JSON"},
		{"unknown json key", "engine.json", `{"noise_relative": 0.1}`, "unknown field"},
		{"unknown yaml key", "engine.yaml", "noise_relative: 0.1", "parse config YAML"},
		{"seed cap", "engine.json", `{"max_seed_clusters": 0}`, "max_seed_clusters"},
		{"seed cap high", "engine.json", `{"max_seed_clusters": 40}`, "max_seed_clusters"},
		{"workers", "engine.json", `{"workers": -1}`, "workers"},
		{"voxel", "engine.json", `{"map_voxel_size": 0}`, "map_voxel_size"},
		{"voxel points", "engine.json", `{"map_min_voxel_points": 2}`, "map_min_voxel_points"},
		{"window", "engine.json", `{"batch_window": "soon"}`, "batch_window"},
		{"negative window", "engine.json", `{"batch_window": "-1s"}`, "batch_window"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadEngineConfig(writeConfig(t, tt.file, tt.body))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestLoadEngineConfig_Missing(t *testing.T) {
	_, err := LoadEngineConfig(filepath.Join(t.TempDir(), "absent.json"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "stat")
}

func TestLoadEngineConfig_TooLarge(t *testing.T) {
	big := `{"runlog_path": "` + strings.Repeat("a", 1024*1024) + `"}`
	_, err := LoadEngineConfig(writeConfig(t, "engine.json", big))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "too large")
}

func TestGetBatchWindow_InvalidFallsBack(t *testing.T) {
	cfg := &EngineConfig{BatchWindow: ptrString("later")}
	assert.Equal(t, 500*time.Millisecond, cfg.GetBatchWindow())
}
