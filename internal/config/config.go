package config

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"runtime"
	"strings"

	"gopkg.in/yaml.v3"
)

// Config holds the askdex API configuration.
type Config struct {
	HTTP      HTTPConfig      `yaml:"http"`
	Index     IndexConfig     `yaml:"index"`
	Embedding EmbeddingConfig `yaml:"embedding"`
	Cache     CacheConfig     `yaml:"cache"`
	Answer    AnswerConfig    `yaml:"answer"`
	Profile   ProfileConfig   `yaml:"profile"`
	Logging   LoggingConfig   `yaml:"logging"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level string `yaml:"level"` // debug, info, warn, error (default: determined by env)
}

// HTTPConfig holds HTTP server settings.
type HTTPConfig struct {
	Port            int `yaml:"port"`
	ReadTimeoutSec  int `yaml:"read_timeout_sec"`
	WriteTimeoutSec int `yaml:"write_timeout_sec"`
	ShutdownSec     int `yaml:"shutdown_timeout_sec"`
}

// IndexConfig holds index artifact settings.
type IndexConfig struct {
	Path string `yaml:"path"`
}

// EmbeddingConfig holds embedding settings.
type EmbeddingConfig struct {
	Providers   map[string]ProviderConfig   `yaml:"providers"`
	Vectorizers map[string]VectorizerConfig `yaml:"vectorizers"`
	Default     string                      `yaml:"default"` // vectorizer name used for queries
}

// ProviderConfig holds embedding provider settings.
type ProviderConfig struct {
	APIKey  string `yaml:"api_key"`
	BaseURL string `yaml:"base_url"`
}

// VectorizerConfig holds vectorizer settings.
type VectorizerConfig struct {
	Provider         string `yaml:"provider"`
	Model            string `yaml:"model"`
	Dimensions       int    `yaml:"dimensions"`
	QueryInstruction string `yaml:"query_instruction"`
}

// CacheConfig holds the optional embedding cache settings.
// An empty Addrs list disables caching.
type CacheConfig struct {
	Addrs            []string `yaml:"addrs"`
	Password         string   `yaml:"password"`
	TTLSec           int      `yaml:"ttl_sec"`
	KeyPrefix        string   `yaml:"key_prefix"`
	ReadinessTimeout int      `yaml:"readiness_timeout_sec"`
}

// AnswerConfig holds answer generation settings.
type AnswerConfig struct {
	Provider          string  `yaml:"provider"` // embedding.providers key used for chat completions
	Model             string  `yaml:"model"`
	MaxTokens         int     `yaml:"max_tokens"`
	Temperature       float32 `yaml:"temperature"`
	RequestTimeoutSec int     `yaml:"request_timeout_sec"`
	// TransformQuery rewrites questions into keywords before retrieval.
	// Off by default: the extractor tends to drop acronyms.
	TransformQuery bool `yaml:"transform_query"`
}

// ProfileConfig holds the profile presented by the chat surface.
type ProfileConfig struct {
	Name                  string                 `yaml:"name"`
	Title                 string                 `yaml:"title"`
	Location              string                 `yaml:"location"`
	Contact               string                 `yaml:"contact"`
	SuggestedQuestions    []string               `yaml:"suggested_questions"`
	FitAssessmentExamples []FitAssessmentExample `yaml:"fit_assessment_examples"`
}

// FitAssessmentExample is a pre-analyzed fit assessment served on the
// profile endpoint.
type FitAssessmentExample struct {
	Title          string `yaml:"title"`
	FitLevel       string `yaml:"fit_level"` // strong_fit, moderate_fit, weak_fit
	Role           string `yaml:"role"`
	JobDescription string `yaml:"job_description"`
	Verdict        string `yaml:"verdict"`
	KeyMatches     string `yaml:"key_matches"`
	Gaps           string `yaml:"gaps"`
	Recommendation string `yaml:"recommendation"`
}

// Load reads configuration from a YAML file by environment name (local, dev, prod).
func Load(env string) (Config, error) {
	configPath := findConfigPath(env)

	data, err := os.ReadFile(filepath.Clean(configPath))
	if err != nil {
		return Config{}, fmt.Errorf("failed to read config %s: %w", configPath, err)
	}

	// Substitute env variables of the form ${VAR}
	data = expandEnvVars(data)

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("failed to parse config: %w", err)
	}

	cfg.ApplyDefaults()

	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

// MustLoad loads configuration or panics.
func MustLoad(env string) Config {
	cfg, err := Load(env)
	if err != nil {
		panic(err)
	}
	return cfg
}

// GetEnv returns the current environment from the ENV variable, defaulting to "local".
func GetEnv() string {
	if env := os.Getenv("ENV"); env != "" {
		return env
	}
	return "local"
}

// ApplyDefaults fills empty fields with default values.
func (c *Config) ApplyDefaults() {
	if c.HTTP.ReadTimeoutSec <= 0 {
		c.HTTP.ReadTimeoutSec = 10
	}
	if c.HTTP.WriteTimeoutSec <= 0 {
		// Streaming answers hold the connection open well past a typical
		// request timeout.
		c.HTTP.WriteTimeoutSec = 120
	}
	if c.HTTP.ShutdownSec <= 0 {
		c.HTTP.ShutdownSec = 10
	}
	if c.Cache.TTLSec <= 0 {
		c.Cache.TTLSec = 86400
	}
	if c.Cache.KeyPrefix == "" {
		c.Cache.KeyPrefix = "askdex:"
	}
	if c.Cache.ReadinessTimeout <= 0 {
		c.Cache.ReadinessTimeout = 10
	}
	if c.Answer.MaxTokens <= 0 {
		c.Answer.MaxTokens = 1024
	}
	if c.Answer.RequestTimeoutSec <= 0 {
		c.Answer.RequestTimeoutSec = 60
	}
}

// Validate checks the configuration for correctness.
func (c *Config) Validate() error {
	if c.HTTP.Port <= 0 || c.HTTP.Port > 65535 {
		return fmt.Errorf("http.port must be between 1 and 65535, got %d", c.HTTP.Port)
	}
	if c.Index.Path == "" {
		return fmt.Errorf("index.path is required")
	}
	if c.Embedding.Default != "" {
		v, ok := c.Embedding.Vectorizers[c.Embedding.Default]
		if !ok {
			return fmt.Errorf("embedding.default %q does not name a configured vectorizer", c.Embedding.Default)
		}
		if _, ok := c.Embedding.Providers[v.Provider]; !ok {
			return fmt.Errorf(
				"embedding.vectorizers.%s.provider %q does not name a configured provider",
				c.Embedding.Default, v.Provider,
			)
		}
	}
	if c.Answer.Provider != "" {
		if _, ok := c.Embedding.Providers[c.Answer.Provider]; !ok {
			return fmt.Errorf("answer.provider %q does not name a configured provider", c.Answer.Provider)
		}
		if c.Answer.Model == "" {
			return fmt.Errorf("answer.model is required when answer.provider is set")
		}
	}
	return nil
}

// findConfigPath locates the config file.
func findConfigPath(env string) string {
	filename := fmt.Sprintf("%s.yaml", env)

	// 1. Check ./config/
	if path := filepath.Join("config", filename); fileExists(path) {
		return path
	}

	// 2. Check relative to the source file
	_, b, _, _ := runtime.Caller(0)
	projectRoot := filepath.Dir(filepath.Dir(filepath.Dir(b))) // internal/config -> project root
	if path := filepath.Join(projectRoot, "config", filename); fileExists(path) {
		return path
	}

	// 3. Fallback to ./config/
	return filepath.Join("config", filename)
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// expandEnvVars replaces ${VAR} and ${VAR:-default} with environment variable values.
var envVarRegex = regexp.MustCompile(`\$\{([^}]+)\}`)

func expandEnvVars(data []byte) []byte {
	return envVarRegex.ReplaceAllFunc(data, func(match []byte) []byte {
		expr := string(match[2 : len(match)-1]) // strip ${ and }
		varName, defaultVal, hasDefault := strings.Cut(expr, ":-")
		val := os.Getenv(varName)
		if val == "" && hasDefault {
			val = defaultVal
		}
		return []byte(val)
	})
}
