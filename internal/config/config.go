// Package config loads the adapter's TOML configuration.
//
// A configuration file looks like:
//
//	listen = "127.0.0.1:9005"
//	log_level = "debug"
//	max_children = 10000
//
//	variable_categories = "Recommend"
//
// or, with explicit categories:
//
//	variable_categories = [
//	  "Local",
//	  { label = "Globals", source = "Global", matchers = [
//	    { method = "exclude", builtin = true },
//	  ] },
//	]
package config

import (
	"fmt"
	"time"
)

// Default values.
const (
	DefaultListen         = "127.0.0.1:9005"
	DefaultMaxChildren    = 10000
	DefaultMaxData        = 1024 * 1024
	DefaultBaseChainLimit = 100
	DefaultCommandTimeout = 10 * time.Second
	DefaultLogLevel       = "info"
)

// Config is the resolved adapter configuration.
type Config struct {
	// Listen is the address the adapter accepts the debuggee connection on.
	Listen string

	// LogLevel is the logging level name.
	LogLevel string

	// MaxChildren is sent to the debuggee as the max_children feature.
	MaxChildren int

	// MaxData is sent to the debuggee as the max_data feature.
	MaxData int

	// BaseChainLimit bounds the base-chain walk of the "is" operator.
	BaseChainLimit int

	// CommandTimeout bounds each DBGp round trip other than continuations.
	CommandTimeout time.Duration

	// Categories is the variable category specification. The zero value
	// means no categories are configured.
	Categories CategoriesSpec
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Listen:         DefaultListen,
		LogLevel:       DefaultLogLevel,
		MaxChildren:    DefaultMaxChildren,
		MaxData:        DefaultMaxData,
		BaseChainLimit: DefaultBaseChainLimit,
		CommandTimeout: DefaultCommandTimeout,
	}
}

// fileConfig is the on-disk shape.
type fileConfig struct {
	Listen             string `toml:"listen"`
	LogLevel           string `toml:"log_level"`
	MaxChildren        *int   `toml:"max_children"`
	MaxData            *int   `toml:"max_data"`
	BaseChainLimit     *int   `toml:"base_chain_limit"`
	CommandTimeout     string `toml:"command_timeout"`
	VariableCategories any    `toml:"variable_categories"`
}

func (f *fileConfig) apply(cfg *Config) error {
	if f.Listen != "" {
		cfg.Listen = f.Listen
	}
	if f.LogLevel != "" {
		cfg.LogLevel = f.LogLevel
	}
	if f.MaxChildren != nil {
		if *f.MaxChildren <= 0 {
			return fmt.Errorf("max_children %d: %w", *f.MaxChildren, ErrInvalidValue)
		}
		cfg.MaxChildren = *f.MaxChildren
	}
	if f.MaxData != nil {
		if *f.MaxData < 0 {
			return fmt.Errorf("max_data %d: %w", *f.MaxData, ErrInvalidValue)
		}
		cfg.MaxData = *f.MaxData
	}
	if f.BaseChainLimit != nil {
		if *f.BaseChainLimit <= 0 {
			return fmt.Errorf("base_chain_limit %d: %w", *f.BaseChainLimit, ErrInvalidValue)
		}
		cfg.BaseChainLimit = *f.BaseChainLimit
	}
	if f.CommandTimeout != "" {
		d, err := time.ParseDuration(f.CommandTimeout)
		if err != nil || d <= 0 {
			return fmt.Errorf("command_timeout %q: %w", f.CommandTimeout, ErrInvalidValue)
		}
		cfg.CommandTimeout = d
	}
	if f.VariableCategories != nil {
		spec, err := DecodeCategories(f.VariableCategories)
		if err != nil {
			return err
		}
		cfg.Categories = spec
	}
	return nil
}
