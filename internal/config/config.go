package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

type RuntimeConfig struct {
	Dev bool
}

// Duration accepts both "20s"-style strings and plain integers (seconds)
// in YAML, which time.Duration alone does not.
type Duration time.Duration

func (d Duration) Std() time.Duration { return time.Duration(d) }

func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	if value.Tag == "!!int" {
		var n int64
		if err := value.Decode(&n); err != nil {
			return err
		}
		*d = Duration(time.Duration(n) * time.Second)
		return nil
	}
	var s string
	if err := value.Decode(&s); err != nil {
		return err
	}
	v, err := time.ParseDuration(s)
	if err != nil {
		return fmt.Errorf("parse duration %q: %w", s, err)
	}
	*d = Duration(v)
	return nil
}

type LogConfig struct {
	Level    string `yaml:"level"`    // trace|debug|info|warn|error
	Format   string `yaml:"format"`   // json|console
	Sampling bool   `yaml:"sampling"` // enable sampling in prod
}

type DatabaseConfig struct {
	URL      string `yaml:"url"`
	MaxConns int    `yaml:"max_conns"`
}

type RedisConfig struct {
	URL      string `yaml:"url"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
}

type ProviderConfig struct {
	BaseURL        string `yaml:"base_url"`
	APIKey         string `yaml:"api_key"`
	RequestsPerMin int    `yaml:"requests_per_min"` // redis-enforced, per platform
	MaxConcurrent  int    `yaml:"max_concurrent"`   // in-process semaphore
}

type ProvidersConfig struct {
	TikTok    ProviderConfig `yaml:"tiktok"`
	Instagram ProviderConfig `yaml:"instagram"`
	YouTube   ProviderConfig `yaml:"youtube"`
}

type AIConfig struct {
	GeminiKey    string `yaml:"gemini_key"`
	GeminiURL    string `yaml:"gemini_url"`
	OpenAIKey    string `yaml:"openai_key"`
	DefaultModel string `yaml:"default_model"`
}

// DiscoveryConfig tunes the pipeline itself.
type DiscoveryConfig struct {
	ParallelismWindow    int           `yaml:"parallelism_window"`     // keywords per batch
	ExpectedYield        int           `yaml:"expected_yield"`         // creators expected per keyword
	MaxStaleInvocations  int           `yaml:"max_stale_invocations"`  // stuck-job guard
	SearchTimeout        Duration      `yaml:"search_timeout"`         // per provider call
	InvokeDelay          Duration      `yaml:"invoke_delay"`           // between chained invocations
	StaleProcessingAfter Duration      `yaml:"stale_processing_after"` // reaper cutoff
}

type WebConfig struct {
	Port      int    `yaml:"port"`
	JWTSecret string `yaml:"jwt_secret"`
	AdminKey  string `yaml:"admin_key"` // exchanged for a JWT at /api/v1/login
}

type WorkerConfig struct {
	Workers      int           `yaml:"workers"`
	PollInterval Duration `yaml:"poll_interval"`
	LockTTL      Duration `yaml:"lock_ttl"`
}

type Config struct {
	Log       LogConfig       `yaml:"log"`
	Database  DatabaseConfig  `yaml:"database"`
	Redis     RedisConfig     `yaml:"redis"`
	Providers ProvidersConfig `yaml:"providers"`
	AI        AIConfig        `yaml:"ai"`
	Discovery DiscoveryConfig `yaml:"discovery"`
	Web       WebConfig       `yaml:"web"`
	Worker    WorkerConfig    `yaml:"worker"`

	Runtime RuntimeConfig `yaml:"-"`
}

func LoadConfig(path string, dev bool) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	var cfg Config
	if err := yaml.Unmarshal(b, &cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	// defaults
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = "json"
	}
	if cfg.Database.MaxConns <= 0 {
		cfg.Database.MaxConns = 10
	}
	if cfg.Discovery.ParallelismWindow <= 0 {
		cfg.Discovery.ParallelismWindow = 5
	}
	if cfg.Discovery.ExpectedYield <= 0 {
		cfg.Discovery.ExpectedYield = 25
	}
	if cfg.Discovery.MaxStaleInvocations <= 0 {
		cfg.Discovery.MaxStaleInvocations = 3
	}
	if cfg.Discovery.SearchTimeout <= 0 {
		cfg.Discovery.SearchTimeout = Duration(20 * time.Second)
	}
	if cfg.Discovery.StaleProcessingAfter <= 0 {
		cfg.Discovery.StaleProcessingAfter = Duration(15 * time.Minute)
	}
	if cfg.Worker.Workers <= 0 {
		cfg.Worker.Workers = 4
	}
	if cfg.Worker.PollInterval <= 0 {
		cfg.Worker.PollInterval = Duration(500 * time.Millisecond)
	}
	if cfg.Worker.LockTTL <= 0 {
		cfg.Worker.LockTTL = Duration(2 * time.Minute)
	}
	if cfg.Web.Port == 0 {
		cfg.Web.Port = 8080
	}

	// Minimal validation
	if cfg.Database.URL == "" {
		return nil, errors.New("database.url is required")
	}
	if cfg.Redis.URL == "" {
		return nil, errors.New("redis.url is required")
	}

	cfg.Runtime.Dev = dev
	return &cfg, nil
}
