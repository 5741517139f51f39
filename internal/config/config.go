package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/spf13/viper"

	"github.com/pders01/shelf/internal/debuglog"
	"github.com/pders01/shelf/internal/source"
	originvalidation "github.com/pders01/shelf/internal/validation"
)

type Config struct {
	Source  SourceConfig  `mapstructure:"source"`
	Network NetworkConfig `mapstructure:"network"`
	Pool    PoolConfig    `mapstructure:"pool"`
	UI      UIConfig      `mapstructure:"ui"`
	Routine RoutineConfig `mapstructure:"routine"`
	Log     LogConfig     `mapstructure:"log"`
	Opener  OpenerConfig  `mapstructure:"opener"`
}

// SourceConfig picks a built-in preset; any other non-empty field overrides
// the preset's value.
type SourceConfig struct {
	Preset     string          `mapstructure:"preset"`
	Kind       string          `mapstructure:"kind"`
	Origin     string          `mapstructure:"origin"`
	SearchPath string          `mapstructure:"search_path"`
	PageSize   int             `mapstructure:"page_size"`
	AllowLocal bool            `mapstructure:"allow_local"`
	Selectors  SelectorsConfig `mapstructure:"selectors"`
}

type SelectorsConfig struct {
	Item     string `mapstructure:"item"`
	Title    string `mapstructure:"title"`
	Link     string `mapstructure:"link"`
	LinkAttr string `mapstructure:"link_attr"`
	Category string `mapstructure:"category"`
}

type NetworkConfig struct {
	Timeout   time.Duration `mapstructure:"timeout"`
	UserAgent string        `mapstructure:"user_agent"`
}

type PoolConfig struct {
	Workers   int `mapstructure:"workers"`
	PageLimit int `mapstructure:"page_limit"`
}

type UIConfig struct {
	PollInterval  time.Duration `mapstructure:"poll_interval"`
	FrameInterval time.Duration `mapstructure:"frame_interval"`
	Colors        UIColors      `mapstructure:"colors"`
}

type UIColors struct {
	Primary   string `mapstructure:"primary"`
	Secondary string `mapstructure:"secondary"`
	Accent    string `mapstructure:"accent"`
	Text      string `mapstructure:"text"`
	Muted     string `mapstructure:"muted"`
	Error     string `mapstructure:"error"`
	Success   string `mapstructure:"success"`
	Hold      string `mapstructure:"hold"`
	Relax     string `mapstructure:"relax"`
}

type RoutineConfig struct {
	Rounds int           `mapstructure:"rounds"`
	Hold   time.Duration `mapstructure:"hold"`
	Relax  time.Duration `mapstructure:"relax"`
}

type LogConfig struct {
	Level string `mapstructure:"level"`
	File  string `mapstructure:"file"`
}

// OpenerConfig overrides how links are opened. Command may carry
// arguments; File holds extra opener definitions.
type OpenerConfig struct {
	Command string `mapstructure:"command"`
	File    string `mapstructure:"file"`
}

func defaultConfig() *Config {
	homeDir, _ := os.UserHomeDir()

	return &Config{
		Source: SourceConfig{
			Preset: "gutenberg",
		},
		Network: NetworkConfig{
			Timeout:   15 * time.Second,
			UserAgent: "shelf/1.0 (book search; github.com/pders01/shelf)",
		},
		Pool: PoolConfig{
			Workers:   10,
			PageLimit: 3,
		},
		UI: UIConfig{
			PollInterval:  250 * time.Millisecond,
			FrameInterval: 30 * time.Millisecond,
			Colors: UIColors{
				Primary:   "#FF6B6B",
				Secondary: "#4ECDC4",
				Accent:    "#95E1D3",
				Text:      "#EAEAEA",
				Muted:     "#94A3B8",
				Error:     "#F87171",
				Success:   "#4ADE80",
				Hold:      "#EF4444",
				Relax:     "#22C55E",
			},
		},
		Routine: RoutineConfig{
			Rounds: 10,
			Hold:   5 * time.Second,
			Relax:  5 * time.Second,
		},
		Log: LogConfig{
			Level: "off",
			File:  filepath.Join(homeDir, ".shelf", "shelf.log"),
		},
		Opener: OpenerConfig{
			File: filepath.Join(homeDir, ".config", "shelf", "openers.toml"),
		},
	}
}

// DefaultPath is where Load looks when no explicit path is given.
func DefaultPath() string {
	homeDir, _ := os.UserHomeDir()
	return filepath.Join(homeDir, ".config", "shelf", "config.toml")
}

// Default returns the built-in configuration.
func Default() *Config {
	return defaultConfig()
}

func setDefaults(v *viper.Viper, cfg *Config) {
	for key, value := range flatten(cfg) {
		v.SetDefault(key, value)
	}
}

// flatten lists every leaf key so that env overrides and partial files both
// resolve against a default.
func flatten(c *Config) map[string]any {
	return map[string]any{
		"source.preset":              c.Source.Preset,
		"source.kind":                c.Source.Kind,
		"source.origin":              c.Source.Origin,
		"source.search_path":         c.Source.SearchPath,
		"source.page_size":           c.Source.PageSize,
		"source.allow_local":         c.Source.AllowLocal,
		"source.selectors.item":      c.Source.Selectors.Item,
		"source.selectors.title":     c.Source.Selectors.Title,
		"source.selectors.link":      c.Source.Selectors.Link,
		"source.selectors.link_attr": c.Source.Selectors.LinkAttr,
		"source.selectors.category":  c.Source.Selectors.Category,
		"network.timeout":            c.Network.Timeout,
		"network.user_agent":         c.Network.UserAgent,
		"pool.workers":               c.Pool.Workers,
		"pool.page_limit":            c.Pool.PageLimit,
		"ui.poll_interval":           c.UI.PollInterval,
		"ui.frame_interval":          c.UI.FrameInterval,
		"ui.colors.primary":          c.UI.Colors.Primary,
		"ui.colors.secondary":        c.UI.Colors.Secondary,
		"ui.colors.accent":           c.UI.Colors.Accent,
		"ui.colors.text":             c.UI.Colors.Text,
		"ui.colors.muted":            c.UI.Colors.Muted,
		"ui.colors.error":            c.UI.Colors.Error,
		"ui.colors.success":          c.UI.Colors.Success,
		"ui.colors.hold":             c.UI.Colors.Hold,
		"ui.colors.relax":            c.UI.Colors.Relax,
		"routine.rounds":             c.Routine.Rounds,
		"routine.hold":               c.Routine.Hold,
		"routine.relax":              c.Routine.Relax,
		"log.level":                  c.Log.Level,
		"log.file":                   c.Log.File,
		"opener.command":             c.Opener.Command,
		"opener.file":                c.Opener.File,
	}
}

// Load reads configPath, or config.toml from ~/.config/shelf and the
// working directory when configPath is empty. A missing file is not an
// error. SHELF_ environment variables override file values, e.g.
// SHELF_POOL_WORKERS=4.
func Load(configPath string) (*Config, error) {
	v := viper.New()
	setDefaults(v, defaultConfig())

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("toml")
		v.AddConfigPath(filepath.Dir(DefaultPath()))
		v.AddConfigPath(".")
	}

	v.SetEnvPrefix("SHELF")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("reading config: %w", err)
		}
	} else {
		debuglog.Debugf("config loaded from %s", v.ConfigFileUsed())
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}

	expandPaths(&config)
	normalizeOrigin(&config)

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return &config, nil
}

// expandPath expands ~ to home directory and converts to absolute path
func expandPath(path string) string {
	if path == "" {
		return path
	}

	if strings.HasPrefix(path, "~/") {
		home, _ := os.UserHomeDir()
		path = filepath.Join(home, path[2:])
	}

	if !filepath.IsAbs(path) {
		if abs, err := filepath.Abs(path); err == nil {
			path = abs
		}
	}
	return path
}

func expandPaths(cfg *Config) {
	cfg.Log.File = expandPath(cfg.Log.File)
	cfg.Opener.File = expandPath(cfg.Opener.File)
}

// normalizeOrigin stores the canonical form of a valid origin. An invalid
// one is left as written for Validate to report.
func normalizeOrigin(cfg *Config) {
	if strings.TrimSpace(cfg.Source.Origin) == "" {
		return
	}
	v := originvalidation.NewOriginValidator()
	if cfg.Source.AllowLocal {
		v = originvalidation.NewPermissiveOriginValidator()
	}
	if origin, err := v.Normalize(cfg.Source.Origin); err == nil {
		cfg.Source.Origin = origin
	}
}

// Profile resolves the preset and overrides into a complete source
// description.
func (c SourceConfig) Profile() (source.Profile, error) {
	return source.Resolve(c.Preset, source.Profile{
		Kind:       c.Kind,
		Origin:     c.Origin,
		SearchPath: c.SearchPath,
		PageSize:   c.PageSize,
		Selectors: source.SelectorsProfile{
			Item:     c.Selectors.Item,
			Title:    c.Selectors.Title,
			Link:     c.Selectors.Link,
			LinkAttr: c.Selectors.LinkAttr,
			Category: c.Selectors.Category,
		},
	})
}

func (c *Config) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Source),
		validation.Field(&c.Network),
		validation.Field(&c.Pool),
		validation.Field(&c.UI),
		validation.Field(&c.Routine),
		validation.Field(&c.Log),
	)
}

func (c SourceConfig) Validate() error {
	presets := make([]any, 0)
	for _, name := range source.PresetNames() {
		presets = append(presets, name)
	}

	origin := originvalidation.NewOriginValidator()
	if c.AllowLocal {
		origin = originvalidation.NewPermissiveOriginValidator()
	}

	if err := validation.ValidateStruct(&c,
		validation.Field(&c.Preset, validation.In(presets...)),
		validation.Field(&c.Kind, validation.In(source.KindHTML, source.KindFeed)),
		validation.Field(&c.Origin, origin),
		validation.Field(&c.PageSize, validation.Min(0)),
	); err != nil {
		return err
	}

	p, err := c.Profile()
	if err != nil {
		return err
	}
	return validation.Errors{
		"origin":      validation.Validate(p.Origin, validation.Required.Error("is required without a preset"), origin),
		"search_path": validation.Validate(p.SearchPath, validation.Required.Error("is required without a preset")),
		"selectors": validation.Validate(p.Selectors.Item,
			validation.When(p.Kind != source.KindFeed, validation.Required.Error("item selector is required for html sources"))),
	}.Filter()
}

func (c NetworkConfig) Validate() error {
	return validation.ValidateStruct(&c,
		validation.Field(&c.Timeout, validation.Required, validation.Min(time.Millisecond)),
	)
}

func (c PoolConfig) Validate() error {
	return validation.ValidateStruct(&c,
		validation.Field(&c.Workers, validation.Required, validation.Min(1), validation.Max(256)),
		validation.Field(&c.PageLimit, validation.Required, validation.Min(1), validation.Max(50)),
	)
}

func (c UIConfig) Validate() error {
	return validation.ValidateStruct(&c,
		validation.Field(&c.PollInterval, validation.Required, validation.Min(time.Millisecond)),
		validation.Field(&c.FrameInterval, validation.Required, validation.Min(time.Millisecond)),
	)
}

func (c RoutineConfig) Validate() error {
	return validation.ValidateStruct(&c,
		validation.Field(&c.Rounds, validation.Min(0)),
		validation.Field(&c.Hold, validation.Min(time.Duration(0))),
		validation.Field(&c.Relax, validation.Min(time.Duration(0))),
	)
}

func (c LogConfig) Validate() error {
	return validation.ValidateStruct(&c,
		validation.Field(&c.Level, validation.By(knownLevel)),
	)
}

func knownLevel(value any) error {
	s, _ := value.(string)
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "off", "debug", "info", "warn", "warning", "error":
		return nil
	}
	return fmt.Errorf("unknown log level %q", s)
}

func Save(config *Config, path string) error {
	v := viper.New()

	// Durations are written as strings for TOML readability.
	v.Set("source", map[string]any{
		"preset":      config.Source.Preset,
		"kind":        config.Source.Kind,
		"origin":      config.Source.Origin,
		"search_path": config.Source.SearchPath,
		"page_size":   config.Source.PageSize,
		"allow_local": config.Source.AllowLocal,
		"selectors": map[string]any{
			"item":      config.Source.Selectors.Item,
			"title":     config.Source.Selectors.Title,
			"link":      config.Source.Selectors.Link,
			"link_attr": config.Source.Selectors.LinkAttr,
			"category":  config.Source.Selectors.Category,
		},
	})
	v.Set("network", map[string]any{
		"timeout":    config.Network.Timeout.String(),
		"user_agent": config.Network.UserAgent,
	})
	v.Set("pool", map[string]any{
		"workers":    config.Pool.Workers,
		"page_limit": config.Pool.PageLimit,
	})
	v.Set("ui", map[string]any{
		"poll_interval":  config.UI.PollInterval.String(),
		"frame_interval": config.UI.FrameInterval.String(),
		"colors": map[string]any{
			"primary":   config.UI.Colors.Primary,
			"secondary": config.UI.Colors.Secondary,
			"accent":    config.UI.Colors.Accent,
			"text":      config.UI.Colors.Text,
			"muted":     config.UI.Colors.Muted,
			"error":     config.UI.Colors.Error,
			"success":   config.UI.Colors.Success,
			"hold":      config.UI.Colors.Hold,
			"relax":     config.UI.Colors.Relax,
		},
	})
	v.Set("routine", map[string]any{
		"rounds": config.Routine.Rounds,
		"hold":   config.Routine.Hold.String(),
		"relax":  config.Routine.Relax.String(),
	})
	v.Set("log", map[string]any{
		"level": config.Log.Level,
		"file":  config.Log.File,
	})
	v.Set("opener", map[string]any{
		"command": config.Opener.Command,
		"file":    config.Opener.File,
	})

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}
	return v.WriteConfigAs(path)
}

func GenerateDefaultConfig(path string) error {
	return Save(defaultConfig(), path)
}
