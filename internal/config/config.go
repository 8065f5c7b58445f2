// Package config loads Chameleon settings from a YAML file, CHAMELEON_*
// environment variables and built-in defaults.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"

	"github.com/alexisbeaulieu97/chameleon/internal/llm"
	"github.com/alexisbeaulieu97/chameleon/internal/persistence"
	chamerrors "github.com/alexisbeaulieu97/chameleon/pkg/errors"
)

// EnvPrefix is prepended to every environment override, e.g. CHAMELEON_STORAGE_BACKEND.
const EnvPrefix = "CHAMELEON"

// Config holds the complete application configuration.
type Config struct {
	API     APIConfig     `mapstructure:"api"`
	Storage StorageConfig `mapstructure:"storage"`
	Share   ShareConfig   `mapstructure:"share"`
	Server  ServerConfig  `mapstructure:"server"`
	LLM     LLMConfig     `mapstructure:"llm"`
	Log     LogConfig     `mapstructure:"log"`

	// Source is the config file that was read, empty when only defaults applied.
	Source string `mapstructure:"-"`
}

// APIConfig points the CLI at a running Chameleon server instead of calling
// the model provider directly.
type APIConfig struct {
	BaseURL           string        `mapstructure:"base_url" validate:"web_url"`
	GenerationTimeout time.Duration `mapstructure:"generation_timeout" validate:"gt=0"`
	RewriteTimeout    time.Duration `mapstructure:"rewrite_timeout" validate:"gt=0"`
}

// StorageConfig selects where the active vibe survives restarts.
type StorageConfig struct {
	Backend       string `mapstructure:"backend" validate:"oneof=file memory sqlite redis none"`
	Path          string `mapstructure:"path" validate:"file_path"`
	Key           string `mapstructure:"key" validate:"required"`
	RedisAddr     string `mapstructure:"redis_addr" validate:"required_if=Backend redis"`
	RedisPassword string `mapstructure:"redis_password"`
	RedisDB       int    `mapstructure:"redis_db" validate:"gte=0"`
}

// ShareConfig describes the shareable location that carries the preset key.
type ShareConfig struct {
	BaseURL  string `mapstructure:"base_url" validate:"required,web_url"`
	Param    string `mapstructure:"param" validate:"query_param"`
	Location string `mapstructure:"location" validate:"required,file_path"`
}

// ServerConfig configures `chameleon serve`.
type ServerConfig struct {
	Addr string `mapstructure:"addr" validate:"listen_addr"`
	Hub  bool   `mapstructure:"hub"`
}

// LLMConfig configures the Gemini provider.
type LLMConfig struct {
	APIKey       string  `mapstructure:"api_key"`
	Endpoint     string  `mapstructure:"endpoint" validate:"required,web_url"`
	StylistModel string  `mapstructure:"stylist_model" validate:"required"`
	EditorModel  string  `mapstructure:"editor_model" validate:"required"`
	VisionModel  string  `mapstructure:"vision_model" validate:"required"`
	Temperature  float64 `mapstructure:"temperature" validate:"gte=0,lte=2"`
}

// LogConfig controls the zerolog output.
type LogConfig struct {
	Level  string `mapstructure:"level" validate:"oneof=debug info warn error"`
	Format string `mapstructure:"format" validate:"oneof=auto console json"`
}

// DefaultDir returns ~/.chameleon, or .chameleon when the home directory is unknown.
func DefaultDir() string {
	home, err := os.UserHomeDir()
	if err != nil || home == "" {
		return ".chameleon"
	}
	return filepath.Join(home, ".chameleon")
}

// DefaultPath returns the config file consulted when no path is given.
func DefaultPath() string {
	return filepath.Join(DefaultDir(), "config.yaml")
}

// DefaultConfig returns a new configuration with default values.
func DefaultConfig() *Config {
	dir := DefaultDir()
	return &Config{
		API: APIConfig{
			GenerationTimeout: 30 * time.Second,
			RewriteTimeout:    60 * time.Second,
		},
		Storage: StorageConfig{
			Backend: persistence.BackendFile,
			Path:    filepath.Join(dir, "vibe.json"),
			Key:     persistence.DefaultKey,
		},
		Share: ShareConfig{
			BaseURL:  "http://localhost:3000/",
			Param:    persistence.DefaultParam,
			Location: filepath.Join(dir, "location"),
		},
		Server: ServerConfig{
			Addr: ":8080",
		},
		LLM: LLMConfig{
			Endpoint:     llm.DefaultEndpoint,
			StylistModel: llm.DefaultStylistModel,
			EditorModel:  llm.DefaultEditorModel,
			VisionModel:  llm.DefaultVisionModel,
			Temperature:  0.7,
		},
		Log: LogConfig{
			Level:  "info",
			Format: "auto",
		},
	}
}

// Load reads configuration from path (or the default location when empty),
// applies environment overrides and validates the result. A missing default
// file is not an error; a missing explicit file is.
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	_ = v.BindEnv("llm.api_key", EnvPrefix+"_LLM_API_KEY", "GEMINI_API_KEY")

	if path != "" {
		if _, err := os.Stat(path); err != nil {
			return nil, chamerrors.NewParseError(path, 0, err)
		}
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(DefaultDir())
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, chamerrors.NewParseError(configPathForError(v, path), 0, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	cfg.Source = v.ConfigFileUsed()
	cfg.expandPaths()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks every section and reports the first offending key.
func (c *Config) Validate() error {
	if err := validatorInstance().Struct(c); err != nil {
		return convertValidationError(err)
	}

	switch c.Storage.Backend {
	case persistence.BackendFile, persistence.BackendSQLite:
		if c.Storage.Path == "" {
			return chamerrors.NewValidationError("storage.path", fmt.Sprintf("%s backend requires a path", c.Storage.Backend), nil)
		}
	}
	return nil
}

// StorageOptions converts the storage section for persistence.Open.
func (c *Config) StorageOptions() persistence.Options {
	return persistence.Options{
		Backend:       c.Storage.Backend,
		Path:          c.Storage.Path,
		Key:           c.Storage.Key,
		RedisAddr:     c.Storage.RedisAddr,
		RedisPassword: c.Storage.RedisPassword,
		RedisDB:       c.Storage.RedisDB,
	}
}

// UsesServer reports whether contracts are served by a remote Chameleon API.
func (c *Config) UsesServer() bool {
	return c.API.BaseURL != ""
}

func setDefaults(v *viper.Viper) {
	defaults := DefaultConfig()
	v.SetDefault("api.base_url", defaults.API.BaseURL)
	v.SetDefault("api.generation_timeout", defaults.API.GenerationTimeout)
	v.SetDefault("api.rewrite_timeout", defaults.API.RewriteTimeout)
	v.SetDefault("storage.backend", defaults.Storage.Backend)
	v.SetDefault("storage.path", defaults.Storage.Path)
	v.SetDefault("storage.key", defaults.Storage.Key)
	v.SetDefault("storage.redis_addr", defaults.Storage.RedisAddr)
	v.SetDefault("storage.redis_password", defaults.Storage.RedisPassword)
	v.SetDefault("storage.redis_db", defaults.Storage.RedisDB)
	v.SetDefault("share.base_url", defaults.Share.BaseURL)
	v.SetDefault("share.param", defaults.Share.Param)
	v.SetDefault("share.location", defaults.Share.Location)
	v.SetDefault("server.addr", defaults.Server.Addr)
	v.SetDefault("server.hub", defaults.Server.Hub)
	v.SetDefault("llm.api_key", defaults.LLM.APIKey)
	v.SetDefault("llm.endpoint", defaults.LLM.Endpoint)
	v.SetDefault("llm.stylist_model", defaults.LLM.StylistModel)
	v.SetDefault("llm.editor_model", defaults.LLM.EditorModel)
	v.SetDefault("llm.vision_model", defaults.LLM.VisionModel)
	v.SetDefault("llm.temperature", defaults.LLM.Temperature)
	v.SetDefault("log.level", defaults.Log.Level)
	v.SetDefault("log.format", defaults.Log.Format)
}

func (c *Config) expandPaths() {
	c.Storage.Path = expandHome(c.Storage.Path)
	c.Share.Location = expandHome(c.Share.Location)
}

func expandHome(path string) string {
	if !strings.HasPrefix(path, "~/") {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil || home == "" {
		return path
	}
	return filepath.Join(home, path[2:])
}

func configPathForError(v *viper.Viper, path string) string {
	if used := v.ConfigFileUsed(); used != "" {
		return used
	}
	if path != "" {
		return path
	}
	return DefaultPath()
}

func convertValidationError(err error) error {
	var ves validator.ValidationErrors
	if errors.As(err, &ves) && len(ves) > 0 {
		fe := ves[0]
		field := fe.Namespace()
		if idx := strings.Index(field, "."); idx >= 0 {
			field = field[idx+1:]
		}
		return chamerrors.NewValidationError(field, fmt.Sprintf("failed validation for tag '%s' (got %q)", fe.Tag(), fmt.Sprint(fe.Value())), err)
	}
	return chamerrors.NewValidationError("config", err.Error(), err)
}
