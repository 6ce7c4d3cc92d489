// Package config loads runtime configuration from defaults, an optional YAML
// file, a .env file and the environment.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/mark3labs/sage/llm"
	"github.com/mark3labs/sage/search"
	"github.com/mark3labs/sage/wiki"
)

// EnvPrefix prefixes every environment override, e.g. SAGE_LLM_MODEL.
const EnvPrefix = "SAGE"

type LLMConfig struct {
	BaseURL           string        `mapstructure:"base_url"`
	APIKey            string        `mapstructure:"api_key"`
	Model             string        `mapstructure:"model"`
	Temperature       float64       `mapstructure:"temperature"`
	MaxTokens         int           `mapstructure:"max_tokens"`
	RequestsPerSecond float64       `mapstructure:"requests_per_second"`
	Timeout           time.Duration `mapstructure:"timeout"`
}

type SearchConfig struct {
	Provider   string        `mapstructure:"provider"`
	APIKey     string        `mapstructure:"api_key"`
	MaxResults int           `mapstructure:"max_results"`
	Timeout    time.Duration `mapstructure:"timeout"`
}

type WikiConfig struct {
	Language string        `mapstructure:"language"`
	MaxChars int           `mapstructure:"max_chars"`
	Timeout  time.Duration `mapstructure:"timeout"`
}

type WorkflowConfig struct {
	// MaxRetries is the number of Exec attempts per stage, at least 1.
	MaxRetries               int           `mapstructure:"max_retries"`
	RetryWait                time.Duration `mapstructure:"retry_wait"`
	ContinueOnInterviewError bool          `mapstructure:"continue_on_interview_error"`
}

type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

type ServerConfig struct {
	Addr string `mapstructure:"addr"`
}

// Config is the full runtime configuration.
type Config struct {
	LLM      LLMConfig      `mapstructure:"llm"`
	Search   SearchConfig   `mapstructure:"search"`
	Wiki     WikiConfig     `mapstructure:"wiki"`
	Workflow WorkflowConfig `mapstructure:"workflow"`
	Log      LogConfig      `mapstructure:"log"`
	Server   ServerConfig   `mapstructure:"server"`
}

// Options controls where Load looks for configuration.
type Options struct {
	// File is an optional YAML config file. SAGE_CONFIG is used when empty.
	File string
	// EnvFile is loaded into the process environment before anything else.
	// A missing file is ignored. Defaults to ".env".
	EnvFile string
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("llm.base_url", llm.DefaultBaseURL)
	v.SetDefault("llm.api_key", "")
	v.SetDefault("llm.model", llm.DefaultModel)
	v.SetDefault("llm.temperature", llm.DefaultTemperature)
	v.SetDefault("llm.max_tokens", 0)
	v.SetDefault("llm.requests_per_second", 0.0)
	v.SetDefault("llm.timeout", 60*time.Second)

	v.SetDefault("search.provider", search.ProviderTavily)
	v.SetDefault("search.api_key", "")
	v.SetDefault("search.max_results", 3)
	v.SetDefault("search.timeout", search.DefaultTimeout)

	v.SetDefault("wiki.language", "en")
	v.SetDefault("wiki.max_chars", wiki.DefaultMaxChars)
	v.SetDefault("wiki.timeout", wiki.DefaultTimeout)

	v.SetDefault("workflow.max_retries", 1)
	v.SetDefault("workflow.retry_wait", time.Duration(0))
	v.SetDefault("workflow.continue_on_interview_error", false)

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "console")

	v.SetDefault("server.addr", ":8080")
}

// Load resolves the configuration. Precedence, lowest first: defaults, the
// YAML file, the environment. For API keys SAGE_* variables win over the
// provider ones (GROQ_API_KEY, OPENAI_API_KEY, TAVILY_API_KEY, BRAVE_API_KEY).
func Load(opts Options) (*Config, error) {
	envFile := opts.EnvFile
	if envFile == "" {
		envFile = ".env"
	}
	if err := godotenv.Load(envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("config: load %s: %w", envFile, err)
	}

	v := viper.New()
	setDefaults(v)

	file := opts.File
	if file == "" {
		file = os.Getenv(EnvPrefix + "_CONFIG")
	}
	if file != "" {
		v.SetConfigFile(file)
		v.SetConfigType("yaml")
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("config: read config: %w", err)
		}
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	// BindEnv checks the names in order.
	if err := v.BindEnv("llm.api_key", EnvPrefix+"_LLM_API_KEY", "GROQ_API_KEY", "OPENAI_API_KEY"); err != nil {
		return nil, fmt.Errorf("config: bind env: %w", err)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("config: unmarshal config: %w", err)
	}

	cfg.Search.Provider = strings.ToLower(strings.TrimSpace(cfg.Search.Provider))
	if cfg.Search.APIKey == "" {
		switch cfg.Search.Provider {
		case search.ProviderTavily:
			cfg.Search.APIKey = os.Getenv("TAVILY_API_KEY")
		case search.ProviderBrave:
			cfg.Search.APIKey = os.Getenv("BRAVE_API_KEY")
		}
	}
	return &cfg, nil
}

// Validate reports every problem that would stop a run from starting.
func (c *Config) Validate() error {
	var errs []error
	if c.LLM.APIKey == "" {
		errs = append(errs, errors.New("llm.api_key is required (set GROQ_API_KEY, OPENAI_API_KEY or SAGE_LLM_API_KEY)"))
	}
	switch c.Search.Provider {
	case search.ProviderTavily, search.ProviderBrave:
		if c.Search.APIKey == "" {
			errs = append(errs, fmt.Errorf("search.api_key is required for provider %q", c.Search.Provider))
		}
	default:
		errs = append(errs, fmt.Errorf("search.provider %q is not supported", c.Search.Provider))
	}
	if c.Search.MaxResults < 1 {
		errs = append(errs, errors.New("search.max_results must be at least 1"))
	}
	if c.Workflow.MaxRetries < 1 {
		errs = append(errs, errors.New("workflow.max_retries must be at least 1"))
	}
	if c.Workflow.RetryWait < 0 {
		errs = append(errs, errors.New("workflow.retry_wait must not be negative"))
	}
	if len(errs) > 0 {
		return fmt.Errorf("config: invalid configuration: %w", errors.Join(errs...))
	}
	return nil
}
