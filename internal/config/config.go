// Package config provides configuration management for Profilar using Viper
// for flexible configuration loading from files, environment variables, and
// command-line flags.
//
// The configuration system supports YAML files and environment variable
// overrides with the PROFILAR_ prefix. It manages the source tree location,
// the installation root, compile flags, role substitutions, and watch-mode
// settings.
package config

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/viper"

	"github.com/conneroisu/profilar/internal/types"
)

type Config struct {
	Profile    string      `yaml:"profile"`
	BaseDir    string      `yaml:"base_dir"`
	InstallDir string      `yaml:"install_dir"`
	DryRun     bool        `yaml:"dry_run"`
	Flags      FlagsConfig `yaml:"flags"`
	Roles      RolesConfig `yaml:"roles"`
	Watch      WatchConfig `yaml:"watch"`
}

type FlagsConfig struct {
	UseSubagents      bool `yaml:"use_subagents"`
	StandardsAsSkills bool `yaml:"standards_as_skills"`
	LazyLoadWorkflows bool `yaml:"lazy_load_workflows"`

	// SingleCommand compiles commands with their phases embedded into one
	// document instead of separate phase files.
	SingleCommand bool `yaml:"single_command"`
}

// RolesConfig maps role placeholder keys to replacement text. Values may
// span multiple lines using ordinary YAML block scalars.
type RolesConfig map[string]string

type WatchConfig struct {
	DebounceMs int `yaml:"debounce_ms"`
}

func Load() (*Config, error) {
	var config Config
	if err := viper.Unmarshal(&config); err != nil {
		return nil, err
	}

	// Workarounds for viper's handling of nested bools set via Set/env.
	if viper.IsSet("flags.use_subagents") {
		config.Flags.UseSubagents = viper.GetBool("flags.use_subagents")
	}
	if viper.IsSet("flags.standards_as_skills") {
		config.Flags.StandardsAsSkills = viper.GetBool("flags.standards_as_skills")
	}
	if viper.IsSet("flags.lazy_load_workflows") {
		config.Flags.LazyLoadWorkflows = viper.GetBool("flags.lazy_load_workflows")
	}
	if viper.IsSet("flags.single_command") {
		config.Flags.SingleCommand = viper.GetBool("flags.single_command")
	}
	if viper.IsSet("roles") && len(config.Roles) == 0 {
		config.Roles = viper.GetStringMapString("roles")
	}

	if config.BaseDir == "" {
		config.BaseDir = "."
	}
	if config.InstallDir == "" {
		config.InstallDir = ".profilar"
	}
	if config.Watch.DebounceMs <= 0 {
		config.Watch.DebounceMs = 300
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}

	return &config, nil
}

// Validate rejects configurations that would misbehave later.
func (c *Config) Validate() error {
	if filepath.Clean(c.InstallDir) == filepath.Clean(c.BaseDir) {
		return fmt.Errorf("install_dir must differ from base_dir (both are %s)", c.BaseDir)
	}

	return nil
}

// CompileFlags converts the configured flags into the compiler's flag set.
// compiledSingleCommand is only raised during phase embedding, never from
// configuration.
func (c *Config) CompileFlags() types.Flags {
	return types.Flags{
		UseSubagents:      c.Flags.UseSubagents,
		StandardsAsSkills: c.Flags.StandardsAsSkills,
		LazyLoadWorkflows: c.Flags.LazyLoadWorkflows,
	}
}

// Context builds the compilation context for the configured profile.
func (c *Config) Context() types.Context {
	return types.Context{
		Profile:     c.Profile,
		BaseDir:     c.BaseDir,
		InstallRoot: c.InstallDir,
		Flags:       c.CompileFlags(),
	}
}
