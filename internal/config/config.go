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

// Config holds the usagedash API configuration.
type Config struct {
	HTTP       HTTPConfig       `yaml:"http"`
	Auth       AuthConfig       `yaml:"auth"`
	CORS       CORSConfig       `yaml:"cors"`
	Upstream   UpstreamConfig   `yaml:"upstream"`
	OpenRouter OpenRouterConfig `yaml:"openrouter"`
	GitHub     GitHubConfig     `yaml:"github"`
	Codex      CodexConfig      `yaml:"codex"`
	Logging    LoggingConfig    `yaml:"logging"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level string `yaml:"level"` // debug, info, warn, error (default: determined by env)
}

// AuthConfig holds API authentication settings.
type AuthConfig struct {
	APIKeys []string `yaml:"api_keys"`
}

// CORSConfig holds browser cross-origin settings for the dashboard.
type CORSConfig struct {
	AllowedOrigins []string `yaml:"allowed_origins"`
}

// HTTPConfig holds HTTP server settings.
type HTTPConfig struct {
	Port            int `yaml:"port"`
	ReadTimeoutSec  int `yaml:"read_timeout_sec"`
	WriteTimeoutSec int `yaml:"write_timeout_sec"`
	ShutdownSec     int `yaml:"shutdown_timeout_sec"`
}

// UpstreamConfig holds outbound call settings shared by all providers.
type UpstreamConfig struct {
	TimeoutSec int `yaml:"timeout_sec"`
}

// OpenRouterConfig holds OpenRouter credit balance settings.
type OpenRouterConfig struct {
	KeyURL    string `yaml:"key_url"`
	BaseURL   string `yaml:"base_url"`    // OpenAI-compatible API root, used for health probes
	APIKeyEnv string `yaml:"api_key_env"` // env var holding the API key
}

// GitHubConfig holds Copilot premium-usage settings.
type GitHubConfig struct {
	UsageURLTemplate string `yaml:"usage_url_template"` // %s is replaced by the username
	TokenEnv         string `yaml:"token_env"`
	APIVersion       string `yaml:"api_version"`
	PropertiesFile   string `yaml:"properties_file"`
}

// CodexConfig holds ChatGPT Codex usage settings.
type CodexConfig struct {
	UsageURL       string `yaml:"usage_url"`
	AccessTokenEnv string `yaml:"access_token_env"`
	AccountIDEnv   string `yaml:"account_id_env"`
	AuthFile       string `yaml:"auth_file"` // default ~/.codex/auth.json
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

// GetEnv returns the current environment from the ENV variable, defaulting to "local".
func GetEnv() string {
	if env := os.Getenv("ENV"); env != "" {
		return env
	}
	return "local"
}

// ApplyDefaults fills empty fields with default values.
func (c *Config) ApplyDefaults() {
	if c.HTTP.Port <= 0 {
		c.HTTP.Port = 4000
	}
	if c.HTTP.ReadTimeoutSec <= 0 {
		c.HTTP.ReadTimeoutSec = 10
	}
	if c.HTTP.WriteTimeoutSec <= 0 {
		c.HTTP.WriteTimeoutSec = 30
	}
	if c.HTTP.ShutdownSec <= 0 {
		c.HTTP.ShutdownSec = 10
	}
	if len(c.CORS.AllowedOrigins) == 0 {
		c.CORS.AllowedOrigins = []string{"*"}
	}
	if c.Upstream.TimeoutSec <= 0 {
		c.Upstream.TimeoutSec = 20
	}
	if c.OpenRouter.KeyURL == "" {
		c.OpenRouter.KeyURL = "https://openrouter.ai/api/v1/key"
	}
	if c.OpenRouter.BaseURL == "" {
		c.OpenRouter.BaseURL = "https://openrouter.ai/api/v1"
	}
	if c.OpenRouter.APIKeyEnv == "" {
		c.OpenRouter.APIKeyEnv = "ANTHROPIC_AUTH_TOKEN"
	}
	if c.GitHub.UsageURLTemplate == "" {
		c.GitHub.UsageURLTemplate = "https://api.github.com/users/%s/settings/billing/premium_request/usage"
	}
	if c.GitHub.TokenEnv == "" {
		c.GitHub.TokenEnv = "GITHUB_PAT"
	}
	if c.GitHub.APIVersion == "" {
		c.GitHub.APIVersion = "2022-11-28"
	}
	if c.GitHub.PropertiesFile == "" {
		c.GitHub.PropertiesFile = filepath.Join("config", "dashboard.properties")
	}
	if c.Codex.UsageURL == "" {
		c.Codex.UsageURL = "https://chatgpt.com/backend-api/wham/usage"
	}
	if c.Codex.AccessTokenEnv == "" {
		c.Codex.AccessTokenEnv = "CHATGPT_ACCESS_TOKEN"
	}
	if c.Codex.AccountIDEnv == "" {
		c.Codex.AccountIDEnv = "CHATGPT_ACCOUNT_ID"
	}
	if c.Codex.AuthFile == "" {
		if home, err := os.UserHomeDir(); err == nil {
			c.Codex.AuthFile = filepath.Join(home, ".codex", "auth.json")
		}
	} else {
		c.Codex.AuthFile = expandHome(c.Codex.AuthFile)
	}
}

// Validate checks the configuration for correctness.
func (c *Config) Validate() error {
	if c.HTTP.Port <= 0 || c.HTTP.Port > 65535 {
		return fmt.Errorf("http.port must be between 1 and 65535, got %d", c.HTTP.Port)
	}
	if strings.Count(c.GitHub.UsageURLTemplate, "%s") != 1 {
		return fmt.Errorf("github.usage_url_template must contain exactly one %%s, got %q",
			c.GitHub.UsageURLTemplate)
	}
	if c.Codex.AuthFile == "" {
		return fmt.Errorf("codex.auth_file is required when the home directory is unknown")
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

func expandHome(path string) string {
	if path != "~" && !strings.HasPrefix(path, "~/") {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	return filepath.Join(home, strings.TrimPrefix(path, "~"))
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
