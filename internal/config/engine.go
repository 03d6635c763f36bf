package config

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"time"

	"gopkg.in/yaml.v3"
)

// DefaultConfigPath is the path to the canonical engine defaults file.
const DefaultConfigPath = "config/engine.defaults.json"

// EngineConfig is the root configuration of the candidate engine and the
// replay tool. Nil fields fall back to the defaults returned by the Get*
// methods, so partial files are safe.
type EngineConfig struct {
	// Variant generation
	MaxSeedClusters *int `json:"max_seed_clusters,omitempty" yaml:"max_seed_clusters,omitempty"`

	// Candidate building and evaluation
	Workers           *int     `json:"workers,omitempty" yaml:"workers,omitempty"`
	MapQualityEnabled *bool    `json:"map_quality_enabled,omitempty" yaml:"map_quality_enabled,omitempty"`
	MapVoxelSize      *float64 `json:"map_voxel_size,omitempty" yaml:"map_voxel_size,omitempty"`
	MapMinVoxelPoints *int     `json:"map_min_voxel_points,omitempty" yaml:"map_min_voxel_points,omitempty"`

	// Replay
	BatchWindow *string `json:"batch_window,omitempty" yaml:"batch_window,omitempty"` // duration string like "500ms"
	RunlogPath  *string `json:"runlog_path,omitempty" yaml:"runlog_path,omitempty"`
}

// Helper functions to create pointers
func ptrFloat64(v float64) *float64 { return &v }
func ptrBool(v bool) *bool          { return &v }
func ptrString(v string) *string    { return &v }
func ptrInt(v int) *int             { return &v }

// EmptyEngineConfig returns an EngineConfig with all fields set to nil.
func EmptyEngineConfig() *EngineConfig {
	return &EngineConfig{}
}

// DefaultEngineConfig returns an EngineConfig with every field set to its
// default value.
func DefaultEngineConfig() *EngineConfig {
	c := EmptyEngineConfig()
	return &EngineConfig{
		MaxSeedClusters:   ptrInt(c.GetMaxSeedClusters()),
		Workers:           ptrInt(c.GetWorkers()),
		MapQualityEnabled: ptrBool(c.GetMapQualityEnabled()),
		MapVoxelSize:      ptrFloat64(c.GetMapVoxelSize()),
		MapMinVoxelPoints: ptrInt(c.GetMapMinVoxelPoints()),
		BatchWindow:       ptrString(c.GetBatchWindow().String()),
		RunlogPath:        ptrString(c.GetRunlogPath()),
	}
}

// LoadEngineConfig loads an EngineConfig from a .json, .yaml or .yml
// file. Unknown keys are rejected.
func LoadEngineConfig(path string) (*EngineConfig, error) {
	cleanPath := filepath.Clean(path)
	ext := filepath.Ext(cleanPath)
	switch ext {
	case ".json", ".yaml", ".yml":
	default:
		return nil, fmt.Errorf("config file must have .json, .yaml or .yml extension, got %q", ext)
	}

	// Check file size for safety (max 1MB)
	fileInfo, err := os.Stat(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to stat config file: %w", err)
	}
	const maxFileSize = 1 * 1024 * 1024 // 1MB
	if fileInfo.Size() > maxFileSize {
		return nil, fmt.Errorf("config file too large: %d bytes (max %d)", fileInfo.Size(), maxFileSize)
	}

	data, err := os.ReadFile(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := EmptyEngineConfig()
	if ext == ".json" {
		dec := json.NewDecoder(bytes.NewReader(data))
		dec.DisallowUnknownFields()
		if err := dec.Decode(cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config JSON: %w", err)
		}
	} else {
		dec := yaml.NewDecoder(bytes.NewReader(data))
		dec.KnownFields(true)
		// An empty YAML document decodes as io.EOF; treat it as all defaults.
		if err := dec.Decode(cfg); err != nil && len(bytes.TrimSpace(data)) > 0 {
			return nil, fmt.Errorf("failed to parse config YAML: %w", err)
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// MustLoadDefaultConfig loads the canonical engine defaults from
// DefaultConfigPath. It searches the current directory and common parent
// directories. Panics if the file cannot be loaded, intended for test
// setup.
func MustLoadDefaultConfig() *EngineConfig {
	candidates := []string{
		DefaultConfigPath,
		"../" + DefaultConfigPath,       // from cmd/slamreplay/
		"../../" + DefaultConfigPath,    // from internal/config/
		"../../../" + DefaultConfigPath, // deeper packages
	}
	for _, path := range candidates {
		if cfg, err := LoadEngineConfig(path); err == nil {
			return cfg
		}
	}
	panic("cannot find " + DefaultConfigPath + " - run tests from repository root")
}

// Validate checks that the configuration values are valid.
func (c *EngineConfig) Validate() error {
	if c.MaxSeedClusters != nil && (*c.MaxSeedClusters < 1 || *c.MaxSeedClusters > 16) {
		return fmt.Errorf("max_seed_clusters must be between 1 and 16, got %d", *c.MaxSeedClusters)
	}
	if c.Workers != nil && *c.Workers < 0 {
		return fmt.Errorf("workers must be non-negative, got %d", *c.Workers)
	}
	if c.MapVoxelSize != nil && *c.MapVoxelSize <= 0 {
		return fmt.Errorf("map_voxel_size must be positive, got %f", *c.MapVoxelSize)
	}
	if c.MapMinVoxelPoints != nil && *c.MapMinVoxelPoints < 3 {
		return fmt.Errorf("map_min_voxel_points must be at least 3, got %d", *c.MapMinVoxelPoints)
	}
	if c.BatchWindow != nil && *c.BatchWindow != "" {
		d, err := time.ParseDuration(*c.BatchWindow)
		if err != nil {
			return fmt.Errorf("invalid batch_window '%s': %w", *c.BatchWindow, err)
		}
		if d <= 0 {
			return fmt.Errorf("batch_window must be positive, got %s", d)
		}
	}
	return nil
}

// GetMaxSeedClusters returns the max_seed_clusters value or the default.
func (c *EngineConfig) GetMaxSeedClusters() int {
	if c.MaxSeedClusters == nil {
		return 10
	}
	return *c.MaxSeedClusters
}

// GetWorkers returns the workers value, or the number of CPUs when unset
// or zero.
func (c *EngineConfig) GetWorkers() int {
	if c.Workers == nil || *c.Workers == 0 {
		return runtime.NumCPU()
	}
	return *c.Workers
}

// GetMapQualityEnabled returns the map_quality_enabled value or the default.
func (c *EngineConfig) GetMapQualityEnabled() bool {
	if c.MapQualityEnabled == nil {
		return false // default: timeshift and connectivity only
	}
	return *c.MapQualityEnabled
}

// GetMapVoxelSize returns the map_voxel_size value or the default.
func (c *EngineConfig) GetMapVoxelSize() float64 {
	if c.MapVoxelSize == nil {
		return 0.5
	}
	return *c.MapVoxelSize
}

// GetMapMinVoxelPoints returns the map_min_voxel_points value or the default.
func (c *EngineConfig) GetMapMinVoxelPoints() int {
	if c.MapMinVoxelPoints == nil {
		return 5
	}
	return *c.MapMinVoxelPoints
}

// GetBatchWindow parses and returns the BatchWindow as a time.Duration.
func (c *EngineConfig) GetBatchWindow() time.Duration {
	if c.BatchWindow == nil || *c.BatchWindow == "" {
		return 500 * time.Millisecond // default
	}
	d, err := time.ParseDuration(*c.BatchWindow)
	if err != nil {
		return 500 * time.Millisecond // default on parse error
	}
	return d
}

// GetRunlogPath returns the runlog_path value. Empty disables the run log.
func (c *EngineConfig) GetRunlogPath() string {
	if c.RunlogPath == nil {
		return ""
	}
	return *c.RunlogPath
}
