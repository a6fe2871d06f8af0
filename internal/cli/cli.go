// Package cli implements the execsummary command-line interface.
package cli

import (
	"context"
	"io"
	"os"
	"path/filepath"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/brainviz/execsummary/pkg/buildinfo"
	"github.com/brainviz/execsummary/pkg/cache"
	"github.com/brainviz/execsummary/pkg/config"
	"github.com/brainviz/execsummary/pkg/pipeline"
	"github.com/brainviz/execsummary/pkg/tools"
)

// =============================================================================
// Constants
// =============================================================================

const (
	// appName is the application name used for directories and display.
	appName = "execsummary"

	// configFileName is the config file looked up in the XDG config dir.
	configFileName = "config.toml"
)

// Log levels exported for use in main.go.
const (
	LogDebug = log.DebugLevel
	LogInfo  = log.InfoLevel
)

// =============================================================================
// CLI - Central CLI State
// =============================================================================

// CLI holds shared state for all commands.
type CLI struct {
	Logger *log.Logger

	// ConfigPath overrides the config file location (--config).
	ConfigPath string

	// Toolkit replaces the external tool adapters. Nil runs the real
	// binaries through an ExecRunner.
	Toolkit tools.Toolkit
}

// New creates a new CLI instance with a default logger.
func New(w io.Writer, level log.Level) *CLI {
	return &CLI{Logger: newLogger(w, level)}
}

// SetLogLevel updates the logger's level.
func (c *CLI) SetLogLevel(level log.Level) {
	c.Logger.SetLevel(level)
}

// RootCommand creates the root cobra command with all subcommands registered.
func (c *CLI) RootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:   appName,
		Short: "Build the executive summary images for a preprocessed subject",
		Long: `execsummary renders anatomical views, brainsprite frames, registration
comparisons and functional previews for one subject/session of a derivatives
tree, assembles the sprite mosaics and stages everything for the report page.`,
		Version:      buildinfo.Version,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cmd.SetContext(withLogger(cmd.Context(), c.Logger))
			return nil
		},
	}

	root.SetVersionTemplate(buildinfo.Template())
	root.PersistentFlags().StringVar(&c.ConfigPath, "config", "", "config file (default $"+config.EnvConfigPath+" or "+filepath.Join("$XDG_CONFIG_HOME", appName, configFileName)+")")

	root.AddCommand(c.runCommand())
	root.AddCommand(c.layoutCommand())
	root.AddCommand(c.mosaicCommand())
	root.AddCommand(c.sceneCommand())
	root.AddCommand(c.toolsCommand())
	root.AddCommand(c.serveCommand())
	root.AddCommand(c.configCommand())
	root.AddCommand(c.cacheCommand())
	root.AddCommand(c.completionCommand())

	return root
}

// =============================================================================
// Config
// =============================================================================

// configPath picks the config file: --config, then the environment, then
// the XDG location.
func (c *CLI) configPath() string {
	if c.ConfigPath != "" {
		return c.ConfigPath
	}
	if p := os.Getenv(config.EnvConfigPath); p != "" {
		return p
	}
	dir, err := configDir()
	if err != nil {
		return ""
	}
	return filepath.Join(dir, configFileName)
}

// loadConfig loads the effective configuration and anchors a relative
// template directory.
func (c *CLI) loadConfig() (*config.Config, error) {
	cfg, err := config.Load(c.configPath())
	if err != nil {
		return nil, err
	}
	cfg.Templates.Dir = resolveTemplateDir(cfg.Templates.Dir)
	return cfg, nil
}

// resolveTemplateDir keeps a relative dir that exists from the working
// directory, and otherwise resolves it next to the executable where the
// release archive installs the templates.
func resolveTemplateDir(dir string) string {
	if dir == "" || filepath.IsAbs(dir) {
		return dir
	}
	if info, err := os.Stat(dir); err == nil && info.IsDir() {
		return dir
	}
	exe, err := os.Executable()
	if err != nil {
		return dir
	}
	return filepath.Join(filepath.Dir(exe), dir)
}

// =============================================================================
// Runner Factory
// =============================================================================

// newRunner creates a pipeline runner for CLI use. The returned cache must
// be closed by the caller.
func (c *CLI) newRunner(ctx context.Context, cfg *config.Config, noCache bool) (*pipeline.Runner, cache.Cache, error) {
	fc, err := newCache(ctx, cfg, noCache)
	if err != nil {
		return nil, nil, err
	}

	exec := tools.NewExecRunner(c.Logger, cfg.Pipeline.ToolRetries)
	tk := c.Toolkit
	if tk == nil {
		tk = tools.NewExec(exec, cfg.Tools)
	}
	keyer := cache.NewScopedKeyer(cache.NewDefaultKeyer(), cfg.Cache.Prefix)

	return pipeline.NewRunner(cfg, tk, exec, fc, keyer, c.Logger), fc, nil
}

func newCache(ctx context.Context, cfg *config.Config, noCache bool) (cache.Cache, error) {
	if noCache {
		return cache.NewNullCache(), nil
	}
	switch cfg.Cache.Backend {
	case config.CacheNone:
		return cache.NewNullCache(), nil
	case config.CacheRedis:
		return cache.NewRedisCache(ctx, cfg.Cache.RedisAddr, cfg.Cache.RedisDB)
	}

	dir, err := frameCacheDir(cfg)
	if err != nil {
		return cache.NewNullCache(), nil
	}
	return cache.NewFileCache(dir)
}

// =============================================================================
// Paths
// =============================================================================

// cacheDir returns the cache directory using XDG standard (~/.cache/execsummary/).
func cacheDir() (string, error) {
	if cacheHome := os.Getenv("XDG_CACHE_HOME"); cacheHome != "" {
		return filepath.Join(cacheHome, appName), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".cache", appName), nil
}

// frameCacheDir returns cache.dir from the config, or the frames
// subdirectory of the XDG cache dir.
func frameCacheDir(cfg *config.Config) (string, error) {
	if cfg.Cache.Dir != "" {
		return cfg.Cache.Dir, nil
	}
	dir, err := cacheDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "frames"), nil
}

// configDir returns the config directory using XDG standard (~/.config/execsummary/).
func configDir() (string, error) {
	if configHome := os.Getenv("XDG_CONFIG_HOME"); configHome != "" {
		return filepath.Join(configHome, appName), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", appName), nil
}
