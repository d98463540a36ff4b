package platform

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// Config is a layered key/value configuration: defaults, optional YAML file,
// namespaced environment variables and command line flags, in that order.
type Config struct {
	k *koanf.Koanf
}

// Defaults holds the baseline values for every key the till understands.
var Defaults = map[string]interface{}{
	"log.level":           "info",
	"web.port":            ":8080",
	"web.cors.origins":    "*",
	"storage.driver":      "file",
	"storage.file.dir":    "./data",
	"db.mongo.url":        "mongodb://localhost:27017",
	"db.mongo.name":       "till",
	"db.postgres.url":     "",
	"archive.enabled":     false,
	"nats.enabled":        false,
	"nats.url":            "nats://localhost:4222",
	"nats.stream.enabled": false,
	"remote.endpoint":     "",
	"remote.timeout":      "15s",
	"sync.interval":       "60s",
	"sync.concurrency":    8,
	"menu.cache.ttl":      "1h",
	"shift.limit":         3,
	"tax.rate":            0.07,
	"till.timezone":       "Asia/Bangkok",
	"admin.session.ttl":   "8h",
	"notify.ttl":          "5s",
	"seeding.demo":        false,
}

// NewConfig returns a config holding only the defaults.
func NewConfig() *Config {
	k := koanf.New(".")
	_ = k.Load(confmap.Provider(Defaults, "."), nil)
	return &Config{k: k}
}

// LoadConfig builds the configuration for the given namespace. Environment
// variables are read as NAMESPACE_SECTION_KEY and flags as --section.key=value.
func LoadConfig(namespace string, args []string) (*Config, error) {
	cfg := NewConfig()
	prefix := strings.ToUpper(namespace) + "_"

	flags, configFile := parseFlags(args)
	if configFile == "" {
		configFile = os.Getenv(prefix + "CONFIG_FILE")
	}

	if configFile != "" {
		if err := cfg.k.Load(file.Provider(configFile), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("cannot load config file %s: %w", configFile, err)
		}
	}

	err := cfg.k.Load(env.Provider(prefix, ".", func(s string) string {
		key := strings.TrimPrefix(s, prefix)
		if key == "CONFIG_FILE" {
			return ""
		}
		return strings.ToLower(strings.ReplaceAll(key, "_", "."))
	}), nil)
	if err != nil {
		return nil, fmt.Errorf("cannot load env config: %w", err)
	}

	if len(flags) > 0 {
		if err := cfg.k.Load(confmap.Provider(flags, "."), nil); err != nil {
			return nil, fmt.Errorf("cannot load flags: %w", err)
		}
	}

	return cfg, nil
}

func parseFlags(args []string) (map[string]interface{}, string) {
	flags := map[string]interface{}{}
	configFile := ""
	for _, arg := range args {
		if !strings.HasPrefix(arg, "--") {
			continue
		}
		key, value, ok := strings.Cut(strings.TrimPrefix(arg, "--"), "=")
		if !ok {
			value = "true"
		}
		if key == "config" {
			configFile = value
			continue
		}
		flags[key] = value
	}
	return flags, configFile
}

func (c *Config) GetString(key string) (string, bool) {
	if !c.k.Exists(key) {
		return "", false
	}
	return c.k.String(key), true
}

func (c *Config) GetStringOrDef(key, def string) string {
	v, ok := c.GetString(key)
	if !ok || v == "" {
		return def
	}
	return v
}

// GetBool accepts native booleans as well as the strings env vars and flags produce.
func (c *Config) GetBool(key string) bool {
	v, ok := c.GetString(key)
	if !ok {
		return false
	}
	b, err := strconv.ParseBool(strings.TrimSpace(v))
	if err != nil {
		return false
	}
	return b
}

func (c *Config) GetIntOrDef(key string, def int) int {
	v, ok := c.GetString(key)
	if !ok {
		return def
	}
	n, err := strconv.Atoi(strings.TrimSpace(v))
	if err != nil {
		return def
	}
	return n
}

func (c *Config) GetFloat64OrDef(key string, def float64) float64 {
	v, ok := c.GetString(key)
	if !ok {
		return def
	}
	f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
	if err != nil {
		return def
	}
	return f
}

func (c *Config) GetDurationOrDef(key string, def time.Duration) time.Duration {
	v, ok := c.GetString(key)
	if !ok {
		return def
	}
	d, err := time.ParseDuration(strings.TrimSpace(v))
	if err != nil || d <= 0 {
		return def
	}
	return d
}

// Set overrides a single key. Used by tools and tests.
func (c *Config) Set(key string, value interface{}) {
	_ = c.k.Set(key, value)
}
