package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/jask/signalfromnoise/internal/wizard"
)

// Config holds application configuration.
type Config struct {
	Database DatabaseConfig
	Backend  BackendConfig
	Server   ServerConfig
	Cache    CacheConfig
	Wizard   WizardConfig
	Export   ExportConfig
	Log      LogConfig
}

// DatabaseConfig holds sqlite settings.
type DatabaseConfig struct {
	Path        string
	SeedOnEmpty bool `mapstructure:"seed_on_empty"`
}

// BackendConfig selects how the wizard reaches the file catalog.
type BackendConfig struct {
	Mode    string // local | http
	URL     string
	Codec   string // json | msgpack
	Timeout time.Duration
}

type ServerConfig struct {
	Addr string
}

// CacheConfig configures the redis category count cache. An empty address
// disables it.
type CacheConfig struct {
	RedisAddr string `mapstructure:"redis_addr"`
	TTL       time.Duration
}

// WizardConfig maps onto wizard.Options.
type WizardConfig struct {
	CategoryLoading   string `mapstructure:"category_loading"`
	FileQuery         string `mapstructure:"file_query"`
	PageSize          int    `mapstructure:"page_size"`
	ExcludePrivileged bool   `mapstructure:"exclude_privileged"`
	DateStart         string `mapstructure:"date_start"`
	DateEnd           string `mapstructure:"date_end"`
}

type ExportConfig struct {
	Dir string
}

type LogConfig struct {
	File  string
	Level string
}

func dataDir() string {
	return filepath.Join(os.Getenv("HOME"), ".local", "share", "signalfromnoise")
}

// Path returns the config file location, honouring SFN_CONFIG.
func Path() string {
	if p := os.Getenv("SFN_CONFIG"); p != "" {
		return p
	}
	return filepath.Join(os.Getenv("HOME"), ".config", "signalfromnoise", "config.toml")
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("database.path", filepath.Join(dataDir(), "sfn.db"))
	v.SetDefault("database.seed_on_empty", true)
	v.SetDefault("backend.mode", "local")
	v.SetDefault("backend.url", "http://127.0.0.1:8000")
	v.SetDefault("backend.codec", "json")
	v.SetDefault("backend.timeout", 30*time.Second)
	v.SetDefault("server.addr", ":8000")
	v.SetDefault("cache.redis_addr", "")
	v.SetDefault("cache.ttl", 5*time.Minute)
	v.SetDefault("wizard.category_loading", "lazy")
	v.SetDefault("wizard.file_query", "all")
	v.SetDefault("wizard.page_size", 50)
	v.SetDefault("wizard.exclude_privileged", false)
	v.SetDefault("wizard.date_start", "")
	v.SetDefault("wizard.date_end", "")
	v.SetDefault("export.dir", filepath.Join(dataDir(), "exports"))
	v.SetDefault("log.file", filepath.Join(dataDir(), "sfn.log"))
	v.SetDefault("log.level", "info")
}

// Load reads configuration from file and env. Env var overrides use prefix SFN_.
func Load() (Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetConfigType("toml")
	if p := os.Getenv("SFN_CONFIG"); p != "" {
		v.SetConfigFile(p)
	} else {
		v.AddConfigPath(filepath.Dir(Path()))
		v.SetConfigName("config")
	}

	v.SetEnvPrefix("SFN")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !errors.Is(err, fs.ErrNotExist) {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
	}

	var c Config
	if err := v.Unmarshal(&c); err != nil {
		return Config{}, fmt.Errorf("unmarshal config: %w", err)
	}
	return c, c.Validate()
}

// Validate rejects values the rest of the program cannot interpret.
func (c Config) Validate() error {
	switch c.Backend.Mode {
	case "local", "http":
	default:
		return fmt.Errorf("backend.mode: unknown mode %q", c.Backend.Mode)
	}
	switch c.Backend.Codec {
	case "json", "msgpack":
	default:
		return fmt.Errorf("backend.codec: unknown codec %q", c.Backend.Codec)
	}
	if c.Wizard.PageSize < 0 {
		return fmt.Errorf("wizard.page_size: must not be negative")
	}
	_, err := c.Options()
	return err
}

// Save writes the provided config to disk, creating the config directory if needed.
func Save(cfg Config) error {
	path := Path()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("mkdir config dir: %w", err)
	}

	v := viper.New()
	v.SetConfigType("toml")
	v.Set("database.path", cfg.Database.Path)
	v.Set("database.seed_on_empty", cfg.Database.SeedOnEmpty)
	v.Set("backend.mode", cfg.Backend.Mode)
	v.Set("backend.url", cfg.Backend.URL)
	v.Set("backend.codec", cfg.Backend.Codec)
	v.Set("backend.timeout", cfg.Backend.Timeout.String())
	v.Set("server.addr", cfg.Server.Addr)
	v.Set("cache.redis_addr", cfg.Cache.RedisAddr)
	v.Set("cache.ttl", cfg.Cache.TTL.String())
	v.Set("wizard.category_loading", cfg.Wizard.CategoryLoading)
	v.Set("wizard.file_query", cfg.Wizard.FileQuery)
	v.Set("wizard.page_size", cfg.Wizard.PageSize)
	v.Set("wizard.exclude_privileged", cfg.Wizard.ExcludePrivileged)
	v.Set("wizard.date_start", cfg.Wizard.DateStart)
	v.Set("wizard.date_end", cfg.Wizard.DateEnd)
	v.Set("export.dir", cfg.Export.Dir)
	v.Set("log.file", cfg.Log.File)
	v.Set("log.level", cfg.Log.Level)

	if err := v.WriteConfigAs(path); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	return nil
}

// Options converts the wizard section into wizard.Options. The call timeout
// comes from the backend section.
func (c Config) Options() (wizard.Options, error) {
	opts := wizard.DefaultOptions()
	var err error
	if opts.CategoryLoading, err = wizard.ParseCategoryLoading(c.Wizard.CategoryLoading); err != nil {
		return opts, fmt.Errorf("wizard.category_loading: %w", err)
	}
	if opts.FileQuery, err = wizard.ParseFileQuery(c.Wizard.FileQuery); err != nil {
		return opts, fmt.Errorf("wizard.file_query: %w", err)
	}
	if c.Wizard.PageSize > 0 {
		opts.PageSize = c.Wizard.PageSize
	}
	opts.ExcludePrivileged = c.Wizard.ExcludePrivileged
	if opts.DateStart, err = parseDate(c.Wizard.DateStart); err != nil {
		return opts, fmt.Errorf("wizard.date_start: %w", err)
	}
	if opts.DateEnd, err = parseDate(c.Wizard.DateEnd); err != nil {
		return opts, fmt.Errorf("wizard.date_end: %w", err)
	}
	if c.Backend.Timeout > 0 {
		opts.CallTimeout = c.Backend.Timeout
	}
	return opts, nil
}

func parseDate(s string) (*time.Time, error) {
	if s == "" {
		return nil, nil
	}
	t, err := time.Parse(time.DateOnly, s)
	if err != nil {
		return nil, err
	}
	return &t, nil
}
