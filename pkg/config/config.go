// Package config holds the execsummary configuration value object.
//
// A Config is built once per process (defaults, then an optional TOML or
// YAML file) and passed explicitly into the pipeline. Nothing in the
// pipeline reads template locations or tool names from global state.
package config

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"

	"github.com/brainviz/execsummary/pkg/errors"
)

// EnvConfigPath names the environment variable that selects a config file.
const EnvConfigPath = "EXECSUMMARY_CONFIG"

// Default file names inside the template directory.
const (
	DefaultPNGsTemplate        = "image_template_temp.scene.gz"
	DefaultBrainspriteTemplate = "parasagittal_Tx_169_template.scene.gz"
	DefaultAtlas               = "MNI152_T1_1mm_brain.nii.gz"
)

// Cache backends.
const (
	CacheFile  = "file"
	CacheRedis = "redis"
	CacheNone  = "none"
)

// Config is the full application configuration.
type Config struct {
	Templates   Templates   `toml:"templates" yaml:"templates"`
	Tools       Tools       `toml:"tools" yaml:"tools"`
	Render      Render      `toml:"render" yaml:"render"`
	Mosaic      Mosaic      `toml:"mosaic" yaml:"mosaic"`
	Subcortical Subcortical `toml:"subcortical" yaml:"subcortical"`
	Pipeline    Pipeline    `toml:"pipeline" yaml:"pipeline"`
	Cache       Cache       `toml:"cache" yaml:"cache"`
	Layout      Layout      `toml:"layout" yaml:"layout"`
}

// Templates locates scene templates and the default atlas. Relative file
// names are resolved against Dir.
type Templates struct {
	Dir         string `toml:"dir" yaml:"dir"`
	PNGs        string `toml:"pngs" yaml:"pngs"`
	Brainsprite string `toml:"brainsprite" yaml:"brainsprite"`
	Atlas       string `toml:"atlas" yaml:"atlas"`
}

// Tools names the external binaries. Bare names are looked up on PATH.
type Tools struct {
	WBCommand string `toml:"wb_command" yaml:"wb_command"`
	SlicesDir string `toml:"slicesdir" yaml:"slicesdir"`
	Slicer    string `toml:"slicer" yaml:"slicer"`
	FLIRT     string `toml:"flirt" yaml:"flirt"`
	FSLMaths  string `toml:"fslmaths" yaml:"fslmaths"`
}

// Render controls scene rendering.
type Render struct {
	Width  int `toml:"width" yaml:"width"`
	Height int `toml:"height" yaml:"height"`

	// FrameMarker is counted in a resolved brainsprite scene to derive the
	// number of frames. It belongs to the renderer's scene format.
	FrameMarker string `toml:"frame_marker" yaml:"frame_marker"`
}

// Mosaic controls sprite-sheet assembly.
type Mosaic struct {
	Tile    int `toml:"tile" yaml:"tile"`
	Quality int `toml:"quality" yaml:"quality"`
}

// Subcortical lists the voxel slice numbers per axis used for the
// subcortical comparison strips. They match the 2mm MNI template.
type Subcortical struct {
	X []int `toml:"x" yaml:"x"`
	Y []int `toml:"y" yaml:"y"`
	Z []int `toml:"z" yaml:"z"`
}

// Pipeline controls execution.
type Pipeline struct {
	// Workers bounds concurrent frame renders. 1 keeps the run sequential.
	Workers int `toml:"workers" yaml:"workers"`

	// ToolRetries is how many extra attempts a failed tool call gets.
	ToolRetries int `toml:"tool_retries" yaml:"tool_retries"`
}

// Cache selects the frame cache backend.
type Cache struct {
	Backend   string `toml:"backend" yaml:"backend"`
	Dir       string `toml:"dir" yaml:"dir"`
	RedisAddr string `toml:"redis_addr" yaml:"redis_addr"`
	RedisDB   int    `toml:"redis_db" yaml:"redis_db"`
	Prefix    string `toml:"prefix" yaml:"prefix"`
}

// Layout configures the external page-layout generator. An empty Command
// means only the manifest is written.
type Layout struct {
	Command string   `toml:"command" yaml:"command"`
	Args    []string `toml:"args" yaml:"args"`
}

// DefaultConfig returns a configuration with default values.
func DefaultConfig() *Config {
	cfg := &Config{}

	cfg.Templates.Dir = "templates"
	cfg.Templates.PNGs = DefaultPNGsTemplate
	cfg.Templates.Brainsprite = DefaultBrainspriteTemplate
	cfg.Templates.Atlas = DefaultAtlas

	cfg.Tools.WBCommand = "wb_command"
	cfg.Tools.SlicesDir = "slicesdir"
	cfg.Tools.Slicer = "slicer"
	cfg.Tools.FLIRT = "flirt"
	cfg.Tools.FSLMaths = "fslmaths"

	cfg.Render.Width = 900
	cfg.Render.Height = 800
	cfg.Render.FrameMarker = "SceneInfo Index="

	cfg.Mosaic.Tile = 218
	cfg.Mosaic.Quality = 95

	cfg.Subcortical.X = []int{36, 45, 52} // sagittal
	cfg.Subcortical.Y = []int{43, 54, 65} // coronal
	cfg.Subcortical.Z = []int{23, 33, 39} // axial

	cfg.Pipeline.Workers = 1
	cfg.Pipeline.ToolRetries = 0

	cfg.Cache.Backend = CacheFile
	cfg.Cache.Prefix = "execsummary:"

	return cfg
}

// Load reads configuration from path on top of the defaults. The format is
// chosen by extension: .yaml/.yml is YAML, anything else TOML. A missing
// file yields the defaults.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return cfg, nil
	}
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidConfig, err, "read config %s", path)
	}

	if isYAML(path) {
		err = yaml.Unmarshal(data, cfg)
	} else {
		_, err = toml.Decode(string(data), cfg)
	}
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidConfig, err, "parse config %s", path)
	}

	return cfg, cfg.Validate()
}

// Save writes cfg to path, creating parent directories.
func Save(cfg *Config, path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("create config directory: %w", err)
	}

	data, err := Marshal(cfg, isYAML(path))
	if err != nil {
		return err
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("write config file: %w", err)
	}
	return nil
}

// Marshal encodes cfg as YAML or TOML.
func Marshal(cfg *Config, asYAML bool) ([]byte, error) {
	if asYAML {
		data, err := yaml.Marshal(cfg)
		if err != nil {
			return nil, fmt.Errorf("marshal config: %w", err)
		}
		return data, nil
	}
	var buf bytes.Buffer
	if err := toml.NewEncoder(&buf).Encode(cfg); err != nil {
		return nil, fmt.Errorf("marshal config: %w", err)
	}
	return buf.Bytes(), nil
}

// Validate checks value ranges.
func (c *Config) Validate() error {
	switch {
	case c.Render.Width <= 0 || c.Render.Height <= 0:
		return errors.New(errors.ErrCodeInvalidConfig, "render size must be positive, got %dx%d", c.Render.Width, c.Render.Height)
	case c.Render.FrameMarker == "":
		return errors.New(errors.ErrCodeInvalidConfig, "render.frame_marker cannot be empty")
	case c.Mosaic.Tile <= 0:
		return errors.New(errors.ErrCodeInvalidConfig, "mosaic.tile must be positive, got %d", c.Mosaic.Tile)
	case c.Mosaic.Quality < 1 || c.Mosaic.Quality > 100:
		return errors.New(errors.ErrCodeInvalidConfig, "mosaic.quality must be in 1..100, got %d", c.Mosaic.Quality)
	case c.Pipeline.Workers < 1:
		return errors.New(errors.ErrCodeInvalidConfig, "pipeline.workers must be at least 1, got %d", c.Pipeline.Workers)
	case c.Pipeline.ToolRetries < 0:
		return errors.New(errors.ErrCodeInvalidConfig, "pipeline.tool_retries cannot be negative")
	}

	switch c.Cache.Backend {
	case CacheFile, CacheNone:
	case CacheRedis:
		if c.Cache.RedisAddr == "" {
			return errors.New(errors.ErrCodeInvalidConfig, "cache.redis_addr is required for the redis backend")
		}
	default:
		return errors.New(errors.ErrCodeInvalidConfig, "invalid cache.backend %q (must be file, redis or none)", c.Cache.Backend)
	}
	return nil
}

// PNGsTemplatePath returns the resolved anatomical-views template path.
func (c *Config) PNGsTemplatePath() string {
	return c.templateFile(c.Templates.PNGs)
}

// BrainspriteTemplatePath returns the resolved brainsprite template path.
func (c *Config) BrainspriteTemplatePath() string {
	return c.templateFile(c.Templates.Brainsprite)
}

// DefaultAtlasPath returns the resolved default atlas path.
func (c *Config) DefaultAtlasPath() string {
	return c.templateFile(c.Templates.Atlas)
}

// SubcorticalSlices returns the slice table in x, y, z order.
func (c *Config) SubcorticalSlices() []AxisSlices {
	return []AxisSlices{
		{Axis: "x", Slices: c.Subcortical.X},
		{Axis: "y", Slices: c.Subcortical.Y},
		{Axis: "z", Slices: c.Subcortical.Z},
	}
}

// AxisSlices pairs a slicer axis with its slice numbers.
type AxisSlices struct {
	Axis   string
	Slices []int
}

func (c *Config) templateFile(name string) string {
	if name == "" || filepath.IsAbs(name) {
		return name
	}
	return filepath.Join(c.Templates.Dir, name)
}

func isYAML(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	return ext == ".yaml" || ext == ".yml"
}
