package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"

	"github.com/knightqmd/scheduler-app/internal/intelligence"
	"github.com/knightqmd/scheduler-app/internal/llm"
)

const envPrefix = "WEEKPLAN"

// Store backends.
const (
	BackendSQLite = "sqlite"
	BackendRedis  = "redis"
)

// StoreConfig selects and addresses the schedule store.
type StoreConfig struct {
	Backend       string
	RedisAddr     string
	RedisPassword string
	RedisDB       int
	RedisPrefix   string
}

// ServerConfig tunes the HTTP transport.
type ServerConfig struct {
	RatePerMinute int
	RateBurst     int
	CORSOrigins   []string
}

// Config is resolved once at startup and passed down explicitly.
type Config struct {
	DBPath       string
	Owner        string
	Listen       string
	Debug        bool
	ScheduleFile string
	Store        StoreConfig
	Server       ServerConfig
	LLM          llm.LLMConfig
	Extraction   intelligence.ExtractionMode
}

// NewViper returns a viper instance wired to the config file, WEEKPLAN_*
// environment variables and the older variable names (ARK_API_KEY,
// ARK_BASE_URL, ARK_MODEL, SCHEDULE_FILE, SCHEDULER_DEBUG). configFile may be
// empty, in which case weekplan.yaml is searched in . and ~/.weekplan; a
// missing searched file is not an error.
func NewViper(configFile string) (*viper.Viper, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	compat := map[string][]string{
		"llm.api_key":   {"WEEKPLAN_LLM_API_KEY", "ARK_API_KEY"},
		"llm.endpoint":  {"WEEKPLAN_LLM_ENDPOINT", "ARK_BASE_URL"},
		"llm.model":     {"WEEKPLAN_LLM_MODEL", "ARK_MODEL"},
		"schedule_file": {"WEEKPLAN_SCHEDULE_FILE", "SCHEDULE_FILE"},
		"debug":         {"WEEKPLAN_DEBUG", "SCHEDULER_DEBUG"},
	}
	for key, envs := range compat {
		if err := v.BindEnv(append([]string{key}, envs...)...); err != nil {
			return nil, fmt.Errorf("binding %s: %w", key, err)
		}
	}

	if configFile != "" {
		v.SetConfigFile(configFile)
	} else {
		v.SetConfigName("weekplan")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		if home, err := os.UserHomeDir(); err == nil {
			v.AddConfigPath(filepath.Join(home, ".weekplan"))
		}
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if configFile != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("reading config: %w", err)
		}
	}
	return v, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("owner", "用户")
	v.SetDefault("listen", "127.0.0.1:8000")
	v.SetDefault("debug", false)
	v.SetDefault("store.backend", BackendSQLite)
	v.SetDefault("store.redis.addr", "localhost:6379")
	v.SetDefault("store.redis.db", 0)
	v.SetDefault("store.redis.prefix", "weekplan")
	v.SetDefault("server.rate_per_minute", 30)
	v.SetDefault("server.rate_burst", 5)
	v.SetDefault("server.cors_origins", []string{"*"})
	v.SetDefault("parser.extraction", string(intelligence.ExtractGreedy))

	d := llm.DefaultConfig()
	plan := d.Tasks[llm.TaskPlan]
	v.SetDefault("llm.provider", string(d.Provider))
	v.SetDefault("llm.timeout_ms", d.TimeoutMs)
	v.SetDefault("llm.max_retries", d.MaxRetries)
	v.SetDefault("llm.log_calls", d.LogCalls)
	v.SetDefault("llm.plan.temperature", plan.Temperature)
	v.SetDefault("llm.plan.max_tokens", plan.MaxTokens)
	v.SetDefault("llm.plan.timeout_ms", plan.TimeoutMs)
}

// Load resolves v into a validated Config.
func Load(v *viper.Viper) (*Config, error) {
	cfg := &Config{
		DBPath:       v.GetString("db_path"),
		Owner:        v.GetString("owner"),
		Listen:       v.GetString("listen"),
		Debug:        v.GetBool("debug"),
		ScheduleFile: v.GetString("schedule_file"),
		Store: StoreConfig{
			Backend:       strings.ToLower(v.GetString("store.backend")),
			RedisAddr:     v.GetString("store.redis.addr"),
			RedisPassword: v.GetString("store.redis.password"),
			RedisDB:       v.GetInt("store.redis.db"),
			RedisPrefix:   v.GetString("store.redis.prefix"),
		},
		Server: ServerConfig{
			RatePerMinute: v.GetInt("server.rate_per_minute"),
			RateBurst:     v.GetInt("server.rate_burst"),
			CORSOrigins:   v.GetStringSlice("server.cors_origins"),
		},
	}

	if cfg.DBPath == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("finding home directory: %w", err)
		}
		cfg.DBPath = filepath.Join(home, ".weekplan", "weekplan.db")
	}

	switch cfg.Store.Backend {
	case BackendSQLite, BackendRedis:
	default:
		return nil, fmt.Errorf("store.backend: unknown backend %q (want sqlite or redis)", cfg.Store.Backend)
	}

	mode, err := intelligence.ParseExtractionMode(v.GetString("parser.extraction"))
	if err != nil {
		return nil, fmt.Errorf("parser.extraction: %w", err)
	}
	cfg.Extraction = mode

	llmCfg, err := loadLLM(v)
	if err != nil {
		return nil, err
	}
	cfg.LLM = llmCfg

	if cfg.Server.RatePerMinute <= 0 {
		return nil, fmt.Errorf("server.rate_per_minute must be positive, got %d", cfg.Server.RatePerMinute)
	}
	if cfg.Server.RateBurst <= 0 {
		cfg.Server.RateBurst = 1
	}
	return cfg, nil
}

func loadLLM(v *viper.Viper) (llm.LLMConfig, error) {
	cfg := llm.DefaultConfig()
	cfg.Provider = llm.Provider(strings.ToLower(v.GetString("llm.provider")))
	switch cfg.Provider {
	case llm.ProviderOpenAI, llm.ProviderOllama, llm.ProviderGemini, llm.ProviderMock:
	default:
		return cfg, fmt.Errorf("llm.provider: unknown provider %q", cfg.Provider)
	}

	cfg.APIKey = v.GetString("llm.api_key")
	cfg.Endpoint = strings.TrimRight(v.GetString("llm.endpoint"), "/")
	if cfg.Endpoint == "" {
		cfg.Endpoint = llm.DefaultEndpointFor(cfg.Provider)
	}
	cfg.Model = v.GetString("llm.model")
	if cfg.Model == "" {
		cfg.Model = llm.DefaultModelFor(cfg.Provider)
	}
	cfg.TimeoutMs = v.GetInt("llm.timeout_ms")
	cfg.MaxRetries = v.GetInt("llm.max_retries")
	cfg.LogCalls = v.GetBool("llm.log_calls")
	if cfg.MaxRetries < 0 {
		return cfg, fmt.Errorf("llm.max_retries must not be negative")
	}

	cfg.Tasks[llm.TaskPlan] = llm.TaskConfig{
		Temperature: v.GetFloat64("llm.plan.temperature"),
		MaxTokens:   v.GetInt("llm.plan.max_tokens"),
		TimeoutMs:   v.GetInt("llm.plan.timeout_ms"),
	}
	return cfg, nil
}
