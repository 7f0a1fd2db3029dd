package config

import (
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode"

	"github.com/fsnotify/fsnotify"
	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
)

// EnvPrefix prefixes every environment variable read by Load.
const EnvPrefix = "DOCFORGE"

type Config struct {
	Port string `validate:"required"`

	// Auth
	APIKey string `validate:"required"`

	// Upstream text generation. An empty URL disables transforms.
	UpstreamURL      string        `validate:"omitempty,url"`
	UpstreamAPIKey   string        `validate:"-"`
	UpstreamTimeout  time.Duration `validate:"gt=0"`
	UpstreamAttempts uint          `validate:"gte=1"`

	// Worker pool
	WorkerCount  int `validate:"gte=1"`
	MaxQueueSize int `validate:"gte=1"`

	// Request limits
	MaxUploadBytes int64 `validate:"gt=0"`
	MaxTextBytes   int64 `validate:"gt=0"`

	// Job and artifact state
	JobTTL time.Duration `validate:"gt=0"`

	// PDF
	PDFFallbackPdftotext bool

	// Storage. Empty keeps artifacts in memory.
	DatabaseURL string

	LogLevel string `validate:"oneof=debug info warn error"`
}

// Loader reads configuration from defaults, an optional YAML file and
// DOCFORGE_* environment variables, in increasing priority.
type Loader struct {
	v *viper.Viper
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("port", "8090")
	v.SetDefault("api_key", "")
	v.SetDefault("upstream_url", "")
	v.SetDefault("upstream_api_key", "")
	v.SetDefault("upstream_timeout", 120*time.Second)
	v.SetDefault("upstream_attempts", 3)
	v.SetDefault("worker_count", 4)
	v.SetDefault("max_queue_size", 100)
	v.SetDefault("max_upload_bytes", 10<<20)
	v.SetDefault("max_text_bytes", 256<<10)
	v.SetDefault("job_ttl", time.Hour)
	v.SetDefault("pdf_fallback_pdftotext", true)
	v.SetDefault("database_url", "")
	v.SetDefault("log_level", "info")
}

// NewLoader prepares viper. cfgFile may be empty, in which case
// ./docforge.yaml is read when present.
func NewLoader(cfgFile string) (*Loader, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		v.SetConfigName("docforge")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
	}

	// The config file is optional unless named explicitly.
	if err := v.ReadInConfig(); err != nil {
		var configFileNotFoundError viper.ConfigFileNotFoundError
		if cfgFile != "" || !errors.As(err, &configFileNotFoundError) {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}
	return &Loader{v: v}, nil
}

// Load builds a Config from the current viper state.
func (l *Loader) Load() Config {
	v := l.v
	cfg := Config{
		Port:                 v.GetString("port"),
		APIKey:               v.GetString("api_key"),
		UpstreamURL:          v.GetString("upstream_url"),
		UpstreamAPIKey:       v.GetString("upstream_api_key"),
		UpstreamTimeout:      v.GetDuration("upstream_timeout"),
		UpstreamAttempts:     v.GetUint("upstream_attempts"),
		WorkerCount:          v.GetInt("worker_count"),
		MaxQueueSize:         v.GetInt("max_queue_size"),
		MaxUploadBytes:       v.GetInt64("max_upload_bytes"),
		MaxTextBytes:         v.GetInt64("max_text_bytes"),
		JobTTL:               v.GetDuration("job_ttl"),
		PDFFallbackPdftotext: v.GetBool("pdf_fallback_pdftotext"),
		DatabaseURL:          v.GetString("database_url"),
		LogLevel:             strings.ToLower(v.GetString("log_level")),
	}

	if cfg.WorkerCount <= 0 {
		cfg.WorkerCount = 4
	}
	if cfg.MaxQueueSize <= 0 {
		cfg.MaxQueueSize = 100
	}
	if cfg.UpstreamAttempts == 0 {
		cfg.UpstreamAttempts = 3
	}
	if cfg.MaxUploadBytes <= 0 {
		cfg.MaxUploadBytes = 10 << 20
	}
	if cfg.MaxTextBytes <= 0 {
		cfg.MaxTextBytes = 256 << 10
	}
	if cfg.JobTTL <= 0 {
		cfg.JobTTL = time.Hour
	}
	if cfg.UpstreamTimeout <= 0 {
		cfg.UpstreamTimeout = 120 * time.Second
	}
	return cfg
}

// Watch calls fn with the reloaded Config whenever the config file changes.
func (l *Loader) Watch(fn func(Config, fsnotify.Event)) {
	l.v.OnConfigChange(func(e fsnotify.Event) {
		fn(l.Load(), e)
	})
	l.v.WatchConfig()
}

// File returns the config file in use, or "".
func (l *Loader) File() string {
	return l.v.ConfigFileUsed()
}

// Load is NewLoader(cfgFile) followed by Load.
func Load(cfgFile string) (Config, error) {
	l, err := NewLoader(cfgFile)
	if err != nil {
		return Config{}, err
	}
	return l.Load(), nil
}

var validate = validator.New()

func (c Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			fe := verrs[0]
			return fmt.Errorf("%s: invalid %s (%s)", envName(fe.Field()), fe.Field(), fe.Tag())
		}
		return err
	}
	return nil
}

// envName maps a Config field to the environment variable that sets it.
func envName(field string) string {
	rs := []rune(field)
	var sb strings.Builder
	for i, r := range rs {
		if i > 0 && unicode.IsUpper(r) {
			prevLower := unicode.IsLower(rs[i-1])
			nextLower := i+1 < len(rs) && unicode.IsLower(rs[i+1])
			if prevLower || (unicode.IsUpper(rs[i-1]) && nextLower) {
				sb.WriteByte('_')
			}
		}
		sb.WriteRune(unicode.ToUpper(r))
	}
	return EnvPrefix + "_" + sb.String()
}
