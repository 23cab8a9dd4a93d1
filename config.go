package beatbox

import (
	"fmt"

	"github.com/caarlos0/env/v11"
)

// Config is the environment-driven subset of Options.
type Config struct {
	Storage      string `env:"BEATBOX_STORAGE" envDefault:"beatbox.json"`
	Mode         Mode   `env:"BEATBOX_MODE" envDefault:"bypass"`
	Format       string `env:"BEATBOX_FORMAT" envDefault:"json"`
	AsyncPersist bool   `env:"BEATBOX_ASYNC_PERSIST"`
	RecordErrors bool   `env:"BEATBOX_RECORD_ERRORS"`
	MaxFileBytes int    `env:"BEATBOX_MAX_FILE_BYTES"`
}

// LoadConfig reads Config from the environment.
func LoadConfig() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	return cfg, nil
}

// Options converts cfg into Options. Logger, Hooks and the other
// code-only settings are left for the caller to fill in.
func (cfg Config) Options() Options {
	return Options{
		Path:         cfg.Storage,
		Mode:         cfg.Mode,
		Format:       cfg.Format,
		AsyncPersist: cfg.AsyncPersist,
		RecordErrors: cfg.RecordErrors,
		MaxFileBytes: cfg.MaxFileBytes,
	}
}

// NewFromEnv builds a Beatbox from LoadConfig. extra, when non-nil, may
// adjust the Options before New is called.
func NewFromEnv(extra func(*Options)) (*Beatbox, error) {
	cfg, err := LoadConfig()
	if err != nil {
		return nil, err
	}
	opts := cfg.Options()
	if extra != nil {
		extra(&opts)
	}
	return New(opts)
}
