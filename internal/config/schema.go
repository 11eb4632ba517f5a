// Package config handles YAML configuration loading, environment
// variable expansion, and structural validation.
package config

import (
	"slices"

	"gopkg.in/yaml.v3"
)

// Config is the top-level configuration structure.
type Config struct {
	// Version is the config format version. Currently only "1" is supported.
	Version string `yaml:"version"`

	// Modules maps module IDs to their raw YAML configuration.
	// Keys must match registered module IDs (e.g. "channel.discord").
	Modules map[string]yaml.Node `yaml:"modules"`

	// Memory holds settings for the in-process conversation cache.
	Memory MemoryConfig `yaml:"memory,omitempty"`
}

// MemoryConfig controls the conversation cache.
type MemoryConfig struct {
	// MaxChannels caps the number of channels kept in the in-process
	// cache. Zero means the built-in default.
	MaxChannels int `yaml:"max_channels,omitempty"`
}

// Resolve returns a sorted list of module IDs from the configuration.
// The deterministic order ensures consistent module loading.
func Resolve(cfg *Config) []string {
	ids := make([]string, 0, len(cfg.Modules))
	for id := range cfg.Modules {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	return ids
}
