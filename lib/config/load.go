package config

import (
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// EnvPrefix of the environment variables that override the config file
const EnvPrefix = "FEEDSHOT_"

// Load the config file at path over Default(), then apply the environment overrides.
// An empty path skips the file.
func Load(path string) (Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return cfg, &Error{Path: path, Err: err}
		}

		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return cfg, &Error{Path: path, Err: err}
		}
	}

	if err := applyEnv(&cfg); err != nil {
		return cfg, err
	}

	return cfg, nil
}

// Marshal the config to yaml
func (c Config) Marshal() ([]byte, error) {
	return yaml.Marshal(c)
}

var envStrings = map[string]func(*Config) *string{
	"OUT_DIR":    func(c *Config) *string { return &c.OutDir },
	"PREFIX":     func(c *Config) *string { return &c.Prefix },
	"FORMAT":     func(c *Config) *string { return &c.Format },
	"BACKGROUND": func(c *Config) *string { return &c.Background },
	"SCREENSHOT": func(c *Config) *string { return &c.Screenshot },
}

var envInts = map[string]func(*Config) *int{
	"WIDTH":                 func(c *Config) *int { return &c.Width },
	"VIEWPORT_HEIGHT":       func(c *Config) *int { return &c.ViewportHeight },
	"CHUNK_HEIGHT":          func(c *Config) *int { return &c.Rules.Regular },
	"FINAL_HEIGHT":          func(c *Config) *int { return &c.Rules.Final },
	"SECOND_TO_LAST_HEIGHT": func(c *Config) *int { return &c.Rules.SecondToLast },
	"MIN_HEIGHT":            func(c *Config) *int { return &c.Rules.MinHeight },
	"DIGITS":                func(c *Config) *int { return &c.Digits },
	"WORKERS":               func(c *Config) *int { return &c.Workers },
}

func applyEnv(cfg *Config) error {
	for key, field := range envStrings {
		if v, has := os.LookupEnv(EnvPrefix + key); has {
			*field(cfg) = v
		}
	}

	for key, field := range envInts {
		v, has := os.LookupEnv(EnvPrefix + key)
		if !has {
			continue
		}

		n, err := strconv.Atoi(strings.TrimSpace(v))
		if err != nil {
			return &Error{Field: strings.ToLower(key), Err: err}
		}
		*field(cfg) = n
	}

	return nil
}
