package config

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// LoadSettings decodes a YAML settings file and layers it over the config.
// Well-known keys (app.name, database.default, view.dir, ...) override the
// environment; every key stays reachable through Value.
//
//	app:
//	  name: Blog
//	database:
//	  default: main
//	  connections:
//	    main: {driver: sqlite, name: blog.db}
func (c *Config) LoadSettings(path string) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("config: read settings %s: %w", path, err)
	}
	var settings map[string]any
	if err := yaml.Unmarshal(raw, &settings); err != nil {
		return fmt.Errorf("config: parse settings %s: %w", path, err)
	}
	if settings == nil {
		settings = map[string]any{}
	}
	c.settings = settings
	c.applySettings()
	return nil
}

// Value returns a settings value by dotted key, e.g. "database.default".
func (c *Config) Value(key string) (any, bool) {
	var cur any = c.settings
	for _, part := range strings.Split(key, ".") {
		m, ok := cur.(map[string]any)
		if !ok {
			return nil, false
		}
		cur, ok = m[part]
		if !ok {
			return nil, false
		}
	}
	return cur, true
}

// String returns a settings value as a string, or fallback.
func (c *Config) String(key, fallback string) string {
	v, ok := c.Value(key)
	if !ok || v == nil {
		return fallback
	}
	return fmt.Sprint(v)
}

// Connection returns the named database connection from the settings
// (database.connections.<name>), falling back to DB for the default one.
func (c *Config) Connection(name string) DBConfig {
	if name == "" {
		name = c.String("database.default", "")
	}
	if name == "" {
		return c.DB
	}
	prefix := "database.connections." + name + "."
	if _, ok := c.Value("database.connections." + name); !ok {
		return c.DB
	}
	return DBConfig{
		Driver:   c.String(prefix+"driver", c.DB.Driver),
		Host:     c.String(prefix+"host", c.DB.Host),
		Port:     c.String(prefix+"port", c.DB.Port),
		Database: c.String(prefix+"name", c.DB.Database),
		Path:     c.String(prefix+"path", c.DB.Path),
		Username: c.String(prefix+"username", c.DB.Username),
		Password: c.String(prefix+"password", c.DB.Password),
	}
}

func (c *Config) applySettings() {
	c.App.Name = c.String("app.name", c.App.Name)
	c.App.Env = c.String("app.env", c.App.Env)
	c.App.URL = c.String("app.url", c.App.URL)
	c.App.Port = c.String("app.port", c.App.Port)
	if v, ok := c.Value("app.debug"); ok {
		if b, ok := v.(bool); ok {
			c.App.Debug = b
		}
	}
	c.View.Dir = c.String("view.dir", c.View.Dir)
	c.View.Ext = c.String("view.ext", c.View.Ext)
	c.Session.Cookie = c.String("session.cookie", c.Session.Cookie)
	c.Log.Level = c.String("log.level", c.Log.Level)
	c.Log.Format = c.String("log.format", c.Log.Format)
	c.DB = c.Connection("")
}
