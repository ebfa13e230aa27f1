// Package config loads riotx configuration from dotfiles, a project local
// JSONC file, environment variables and command line overrides.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/marcozac/go-jsonc"
	"github.com/spf13/viper"
)

const (
	appName              = "riotx"
	localConfigFile      = appName + ".jsonc"
	defaultDataDirectory = ".riotx"
	defaultMinRefresh    = 8 * time.Hour
)

var (
	ErrNoHomeserver  = errors.New("no homeserver configured")
	ErrNoAccessToken = errors.New("no access token configured")
	ErrNoRoom        = errors.New("no room configured")
)

// ErrInvalidConfig wraps a parse failure of the local config file.
type ErrInvalidConfig struct {
	Path   string
	source error
}

func (e ErrInvalidConfig) Error() string {
	return fmt.Sprintf("invalid config %s: %v", e.Path, e.source)
}

func (e ErrInvalidConfig) Unwrap() error {
	return e.source
}

type Data struct {
	Directory string `json:"directory,omitempty"`
}

type Capabilities struct {
	MinRefresh time.Duration `json:"minRefresh,omitempty"`
}

// Room is a room known to the composer for '#' completion.
type Room struct {
	ID    string `json:"id"`
	Alias string `json:"alias,omitempty"`
	Name  string `json:"name,omitempty"`
}

// Group is a community known to the composer for '+' completion.
type Group struct {
	ID   string `json:"id"`
	Name string `json:"name,omitempty"`
}

// Member seeds '@' completion before the room's member list is fetched.
type Member struct {
	UserID      string `json:"userId"`
	DisplayName string `json:"displayName,omitempty"`
}

type Config struct {
	Homeserver   string            `json:"homeserver,omitempty"`
	AccessToken  string            `json:"accessToken,omitempty"`
	UserID       string            `json:"userId,omitempty"`
	DeviceID     string            `json:"deviceId,omitempty"`
	RoomID       string            `json:"roomId,omitempty"`
	Data         Data              `json:"data"`
	Capabilities Capabilities      `json:"capabilities"`
	Rooms        []Room            `json:"rooms,omitempty"`
	Groups       []Group           `json:"groups,omitempty"`
	Members      []Member          `json:"members,omitempty"`
	Emoji        map[string]string `json:"emoji,omitempty"`
	Developer    bool              `json:"developer,omitempty"`
	Debug        bool              `json:"debug,omitempty"`
	WorkingDir   string            `json:"wd,omitempty"`
}

// Options carries values that take precedence over every config source.
type Options struct {
	WorkingDir  string
	Debug       bool
	Homeserver  string
	AccessToken string
	RoomID      string
}

var cfg *Config

// Load reads configuration in increasing precedence: ~/.riotx.json (or the
// XDG locations), ./riotx.jsonc, RIOTX_* environment variables, opts.
func Load(opts Options) (*Config, error) {
	v := viper.New()
	configure(v)
	setDefaults(v, opts.Debug)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}
	if err := mergeLocalConfig(v, opts.WorkingDir); err != nil {
		return nil, err
	}

	for key, value := range map[string]string{
		"homeserver":  opts.Homeserver,
		"accessToken": opts.AccessToken,
		"roomId":      opts.RoomID,
	} {
		if value != "" {
			v.Set(key, value)
		}
	}
	if opts.Debug {
		v.Set("debug", true)
	}

	c := &Config{WorkingDir: opts.WorkingDir}
	if err := v.Unmarshal(c); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}
	if !filepath.IsAbs(c.Data.Directory) && c.WorkingDir != "" {
		c.Data.Directory = filepath.Join(c.WorkingDir, c.Data.Directory)
	}

	cfg = c
	slog.Debug("config loaded", "file", v.ConfigFileUsed(), "homeserver", c.Homeserver)
	return c, nil
}

func configure(v *viper.Viper) {
	v.SetConfigName("." + appName)
	v.SetConfigType("json")
	v.AddConfigPath("$HOME")
	v.AddConfigPath("$XDG_CONFIG_HOME/" + appName)
	v.AddConfigPath("$HOME/.config/" + appName)
	v.SetEnvPrefix(strings.ToUpper(appName))
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	// AutomaticEnv only applies to keys viper already knows about
	for _, key := range []string{"homeserver", "accessToken", "userId", "deviceId", "roomId"} {
		_ = v.BindEnv(key)
	}
}

func setDefaults(v *viper.Viper, debug bool) {
	v.SetDefault("data.directory", defaultDataDirectory)
	v.SetDefault("capabilities.minRefresh", defaultMinRefresh)
	v.SetDefault("debug", debug)
	v.SetDefault("developer", false)
}

func mergeLocalConfig(v *viper.Viper, workingDir string) error {
	if workingDir == "" {
		return nil
	}
	path := filepath.Join(workingDir, localConfigFile)
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", path, err)
	}

	var local map[string]any
	if err := jsonc.Unmarshal(data, &local); err != nil {
		return ErrInvalidConfig{Path: path, source: err}
	}
	return v.MergeConfigMap(local)
}

// Validate checks values that would otherwise fail far from their source.
func (c *Config) Validate() error {
	if c.Homeserver != "" {
		u, err := url.Parse(c.Homeserver)
		if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
			return fmt.Errorf("homeserver %q must be an http(s) URL", c.Homeserver)
		}
	}
	if c.Capabilities.MinRefresh < 0 {
		return fmt.Errorf("capabilities.minRefresh must not be negative")
	}
	for i, r := range c.Rooms {
		if r.ID == "" {
			return fmt.Errorf("rooms[%d]: id is required", i)
		}
	}
	for i, m := range c.Members {
		if m.UserID == "" {
			return fmt.Errorf("members[%d]: userId is required", i)
		}
	}
	return nil
}

// RequireSession reports what is missing to talk to the homeserver.
func (c *Config) RequireSession() error {
	if c.Homeserver == "" {
		return ErrNoHomeserver
	}
	if c.AccessToken == "" {
		return ErrNoAccessToken
	}
	return nil
}

// Get returns the configuration from the last successful Load.
func Get() *Config {
	return cfg
}
