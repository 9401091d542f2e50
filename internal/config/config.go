package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/pelletier/go-toml/v2"
)

// BookConfig contains metadata about the book
type BookConfig struct {
	Title       string   `toml:"title"`
	Authors     []string `toml:"authors"`
	Description string   `toml:"description"`
	Language    string   `toml:"language"`
	Src         string   `toml:"src"` // Source directory, defaults to "src"
}

// DefaultBookConfig returns a book config with defaults
func DefaultBookConfig() BookConfig {
	return BookConfig{
		Title:    "My Book",
		Authors:  []string{},
		Language: "en",
		Src:      "src",
	}
}

// BuildConfig contains build settings
type BuildConfig struct {
	BuildDir      string `toml:"build-dir"`
	CreateMissing bool   `toml:"create-missing"`
}

// DefaultBuildConfig returns a build config with defaults
func DefaultBuildConfig() BuildConfig {
	return BuildConfig{
		BuildDir: "book",
	}
}

// Config is the top-level configuration
type Config struct {
	Book         BookConfig             `toml:"book"`
	Build        BuildConfig            `toml:"build"`
	Preprocessor map[string]interface{} `toml:"preprocessor"`
	raw          map[string]interface{} // Raw TOML values
}

// NewDefaultConfig returns a config with sensible defaults
func NewDefaultConfig() *Config {
	return &Config{
		Book:         DefaultBookConfig(),
		Build:        DefaultBuildConfig(),
		Preprocessor: make(map[string]interface{}),
		raw:          make(map[string]interface{}),
	}
}

// LoadFromFile loads configuration from a book.toml file
func LoadFromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	return LoadFromString(string(data))
}

// LoadFromString loads configuration from a TOML string
func LoadFromString(content string) (*Config, error) {
	cfg := NewDefaultConfig()
	if err := toml.Unmarshal([]byte(content), cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	if cfg.Preprocessor == nil {
		cfg.Preprocessor = make(map[string]interface{})
	}

	if err := toml.Unmarshal([]byte(content), &cfg.raw); err != nil {
		return nil, fmt.Errorf("failed to parse raw config: %w", err)
	}

	cfg.UpdateFromEnv()
	return cfg, nil
}

// FromMap builds a configuration from an already decoded document, such as
// the "config" object of a preprocessor context. Null values are dropped.
func FromMap(m map[string]interface{}) (*Config, error) {
	if len(m) == 0 {
		cfg := NewDefaultConfig()
		cfg.UpdateFromEnv()
		return cfg, nil
	}
	data, err := toml.Marshal(pruneNil(m))
	if err != nil {
		return nil, fmt.Errorf("failed to encode config: %w", err)
	}
	return LoadFromString(string(data))
}

func pruneNil(m map[string]interface{}) map[string]interface{} {
	out := make(map[string]interface{}, len(m))
	for k, v := range m {
		switch val := v.(type) {
		case nil:
			continue
		case map[string]interface{}:
			out[k] = pruneNil(val)
		default:
			out[k] = v
		}
	}
	return out
}

// UpdateFromEnv updates config from environment variables
// Variables starting with GEOPUB_ are used
// GEOPUB_FOO_BAR -> foo-bar
// GEOPUB_FOO__BAR -> foo.bar
func (c *Config) UpdateFromEnv() {
	for _, env := range os.Environ() {
		if !strings.HasPrefix(env, "GEOPUB_") {
			continue
		}

		parts := strings.SplitN(env, "=", 2)
		if len(parts) != 2 {
			continue
		}

		key := strings.TrimPrefix(parts[0], "GEOPUB_")
		configKey := strings.ToLower(key)
		configKey = strings.ReplaceAll(configKey, "__", ".")
		configKey = strings.ReplaceAll(configKey, "_", "-")

		c.Set(configKey, parts[1])
	}
}

// Set sets a configuration value using dot notation (e.g., "book.title", "preprocessor.toc.entry-template")
func (c *Config) Set(key, value string) {
	parts := strings.Split(key, ".")

	switch parts[0] {
	case "book":
		if len(parts) >= 2 {
			c.setBookValue(parts[1:], value)
		}
	case "build":
		if len(parts) >= 2 {
			c.setBuildValue(parts[1:], value)
		}
	case "preprocessor":
		if len(parts) >= 2 {
			setNested(c.Preprocessor, parts[1:], value)
		}
	default:
		setNested(c.raw, parts, value)
	}
}

func (c *Config) setBookValue(parts []string, value string) {
	switch strings.ToLower(parts[0]) {
	case "title":
		c.Book.Title = value
	case "authors":
		c.Book.Authors = []string{value}
	case "description":
		c.Book.Description = value
	case "language":
		c.Book.Language = value
	case "src":
		c.Book.Src = value
	}
}

func (c *Config) setBuildValue(parts []string, value string) {
	switch strings.ToLower(parts[0]) {
	case "build-dir":
		c.Build.BuildDir = value
	case "create-missing":
		c.Build.CreateMissing = strings.ToLower(value) == "true"
	}
}

// setNested stores value at path, replacing any non-table value on the way
func setNested(current map[string]interface{}, parts []string, value string) {
	for _, part := range parts[:len(parts)-1] {
		m, ok := current[part].(map[string]interface{})
		if !ok {
			m = make(map[string]interface{})
			current[part] = m
		}
		current = m
	}
	current[parts[len(parts)-1]] = value
}

// Get retrieves a value from the config using dot notation
func (c *Config) Get(key string) (interface{}, bool) {
	parts := strings.Split(key, ".")

	current := c.raw
	if parts[0] == "preprocessor" {
		current = c.Preprocessor
		parts = parts[1:]
	}

	for i, part := range parts {
		v, ok := current[part]
		if !ok {
			return nil, false
		}
		if i == len(parts)-1 {
			return v, true
		}
		m, isMap := v.(map[string]interface{})
		if !isMap {
			return nil, false
		}
		current = m
	}
	return current, true
}

// GetString retrieves a string value from config
func (c *Config) GetString(key string, defaultVal string) string {
	val, ok := c.Get(key)
	if !ok {
		return defaultVal
	}
	if s, isStr := val.(string); isStr {
		return s
	}
	return defaultVal
}

// HasPreprocessor reports whether a [preprocessor.<name>] table is present
func (c *Config) HasPreprocessor(name string) bool {
	_, ok := c.Preprocessor[name]
	return ok
}

// GetTocConfig decodes the [preprocessor.toc] table
func (c *Config) GetTocConfig() (*TocConfig, error) {
	tocCfg := DefaultTocConfig()
	table, ok := c.Preprocessor[TocName].(map[string]interface{})
	if !ok {
		return &tocCfg, nil
	}

	data, err := toml.Marshal(table)
	if err != nil {
		return nil, fmt.Errorf("failed to encode [preprocessor.%s]: %w", TocName, err)
	}
	if err := toml.Unmarshal(data, &tocCfg); err != nil {
		return nil, fmt.Errorf("invalid [preprocessor.%s]: %w", TocName, err)
	}
	return &tocCfg, nil
}
