package config

import (
	"fmt"
	"net"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	DefaultConfigPath = "/etc/tpmjs/config"
	ConfigFileName    = "tpmjs.yml"
)

// Config holds all TPMJS server settings.
type Config struct {
	// TrustedProxies is a list of CIDR ranges for trusted proxies
	TrustedProxies []string `yaml:"trusted_proxies" json:"trusted_proxies"`

	// APIListLimitMax caps the limit parameter of listing endpoints
	APIListLimitMax int `yaml:"api_list_limit_max" json:"api_list_limit_max"`

	// ExecutorURL is the base URL of the remote sandboxed executor service
	ExecutorURL string `yaml:"executor_url" json:"executor_url"`

	// ExecutorToken authenticates requests to the executor service
	ExecutorToken string `yaml:"executor_token" json:"executor_token"`

	// NPMRegistryURL is the base URL of the npm registry
	NPMRegistryURL string `yaml:"npm_registry_url" json:"npm_registry_url"`

	// NPMDownloadsURL is the base URL of the npm downloads API
	NPMDownloadsURL string `yaml:"npm_downloads_url" json:"npm_downloads_url"`

	// RegistryKeyword is the npm keyword that marks a package as a TPMJS tool
	RegistryKeyword string `yaml:"registry_keyword" json:"registry_keyword"`

	// SyncPageSize is the npm search page size used by the sync engine
	SyncPageSize int `yaml:"sync_page_size" json:"sync_page_size"`

	// SyncWorkers bounds the concurrent package fetches during a sync run
	SyncWorkers int `yaml:"sync_workers" json:"sync_workers"`

	// RateLimitWindowSeconds is the sliding-window size for rate limiting
	RateLimitWindowSeconds int `yaml:"rate_limit_window_seconds" json:"rate_limit_window_seconds"`

	// RateLimitMaxRequests is the number of requests allowed per window
	RateLimitMaxRequests int `yaml:"rate_limit_max_requests" json:"rate_limit_max_requests"`

	// SessionTokenTTLSeconds is the lifetime of issued session tokens
	SessionTokenTTLSeconds int `yaml:"session_token_ttl" json:"session_token_ttl"`

	// CronToken gates the /api/sync/* trigger endpoints
	CronToken string `yaml:"cron_token" json:"cron_token"`

	// LLMBaseURL is the OpenAI-compatible chat completions endpoint
	LLMBaseURL string `yaml:"llm_base_url" json:"llm_base_url"`

	// LLMDefaultModel is used when an agent does not name a model
	LLMDefaultModel string `yaml:"llm_default_model" json:"llm_default_model"`

	// ToolCacheTTLSeconds is the lifetime of conversation-scoped tool cache entries
	ToolCacheTTLSeconds int `yaml:"tool_cache_ttl" json:"tool_cache_ttl"`

	// ChatMaxToolRounds bounds the tool-call loop of a single agent turn
	ChatMaxToolRounds int `yaml:"chat_max_tool_rounds" json:"chat_max_tool_rounds"`

	// sources tracks where each value came from
	sources map[string]string

	// configFilePath is the path to the config file
	configFilePath string
}

// Attribute represents a configuration attribute with its value and source
type Attribute struct {
	Name   string `json:"name"`
	Value  string `json:"value"`
	Source string `json:"source"`
}

// Global singleton config
var (
	globalConfig *Config
	configMu     sync.RWMutex
)

// Get returns the global configuration, loading it if necessary
func Get() *Config {
	configMu.RLock()
	if globalConfig != nil {
		configMu.RUnlock()
		return globalConfig
	}
	configMu.RUnlock()

	configMu.Lock()
	defer configMu.Unlock()

	if globalConfig == nil {
		cfg, err := Load()
		if err != nil {
			// Return defaults on error
			globalConfig = newDefault()
		} else {
			globalConfig = cfg
		}
	}
	return globalConfig
}

// Reload reloads the configuration from file and environment
func Reload() error {
	cfg, err := Load()
	if err != nil {
		return err
	}

	configMu.Lock()
	globalConfig = cfg
	configMu.Unlock()
	return nil
}

// newDefault returns a config with default values
func newDefault() *Config {
	return &Config{
		TrustedProxies:         []string{},
		APIListLimitMax:        100,
		ExecutorURL:            "",
		ExecutorToken:          "",
		NPMRegistryURL:         "https://registry.npmjs.org",
		NPMDownloadsURL:        "https://api.npmjs.org",
		RegistryKeyword:        "tpmjs-tool",
		SyncPageSize:           250,
		SyncWorkers:            8,
		RateLimitWindowSeconds: 60,
		RateLimitMaxRequests:   60,
		SessionTokenTTLSeconds: 3600,
		LLMBaseURL:             "https://api.openai.com/v1",
		LLMDefaultModel:        "gpt-4o-mini",
		ToolCacheTTLSeconds:    900,
		ChatMaxToolRounds:      5,
		sources:                make(map[string]string),
	}
}

// Load loads configuration from file and environment variables.
// Environment variables take precedence over file values.
func Load() (*Config, error) {
	config := newDefault()

	for _, name := range attributeNames() {
		config.sources[name] = "default"
	}

	configPath := os.Getenv("TPMJS_CONFIG_PATH")
	if configPath == "" {
		configPath = DefaultConfigPath
	}
	config.configFilePath = filepath.Join(configPath, ConfigFileName)

	if data, err := os.ReadFile(config.configFilePath); err == nil {
		var fileConfig Config
		if err := yaml.Unmarshal(data, &fileConfig); err != nil {
			return nil, fmt.Errorf("failed to parse config file %s: %w", config.configFilePath, err)
		}
		config.applyFileConfig(&fileConfig)
	}

	config.applyEnvConfig()

	return config, nil
}

func attributeNames() []string {
	return []string{
		"trusted_proxies", "api_list_limit_max",
		"executor_url", "executor_token",
		"npm_registry_url", "npm_downloads_url", "registry_keyword",
		"sync_page_size", "sync_workers",
		"rate_limit_window_seconds", "rate_limit_max_requests",
		"session_token_ttl", "cron_token",
		"llm_base_url", "llm_default_model",
		"tool_cache_ttl", "chat_max_tool_rounds",
	}
}

func (c *Config) applyFileConfig(file *Config) {
	if len(file.TrustedProxies) > 0 {
		c.TrustedProxies = file.TrustedProxies
		c.sources["trusted_proxies"] = "file"
	}
	if file.APIListLimitMax != 0 {
		c.APIListLimitMax = file.APIListLimitMax
		c.sources["api_list_limit_max"] = "file"
	}
	if file.ExecutorURL != "" {
		c.ExecutorURL = file.ExecutorURL
		c.sources["executor_url"] = "file"
	}
	if file.ExecutorToken != "" {
		c.ExecutorToken = file.ExecutorToken
		c.sources["executor_token"] = "file"
	}
	if file.NPMRegistryURL != "" {
		c.NPMRegistryURL = file.NPMRegistryURL
		c.sources["npm_registry_url"] = "file"
	}
	if file.NPMDownloadsURL != "" {
		c.NPMDownloadsURL = file.NPMDownloadsURL
		c.sources["npm_downloads_url"] = "file"
	}
	if file.RegistryKeyword != "" {
		c.RegistryKeyword = file.RegistryKeyword
		c.sources["registry_keyword"] = "file"
	}
	if file.SyncPageSize != 0 {
		c.SyncPageSize = file.SyncPageSize
		c.sources["sync_page_size"] = "file"
	}
	if file.SyncWorkers != 0 {
		c.SyncWorkers = file.SyncWorkers
		c.sources["sync_workers"] = "file"
	}
	if file.RateLimitWindowSeconds != 0 {
		c.RateLimitWindowSeconds = file.RateLimitWindowSeconds
		c.sources["rate_limit_window_seconds"] = "file"
	}
	if file.RateLimitMaxRequests != 0 {
		c.RateLimitMaxRequests = file.RateLimitMaxRequests
		c.sources["rate_limit_max_requests"] = "file"
	}
	if file.SessionTokenTTLSeconds != 0 {
		c.SessionTokenTTLSeconds = file.SessionTokenTTLSeconds
		c.sources["session_token_ttl"] = "file"
	}
	if file.CronToken != "" {
		c.CronToken = file.CronToken
		c.sources["cron_token"] = "file"
	}
	if file.LLMBaseURL != "" {
		c.LLMBaseURL = file.LLMBaseURL
		c.sources["llm_base_url"] = "file"
	}
	if file.LLMDefaultModel != "" {
		c.LLMDefaultModel = file.LLMDefaultModel
		c.sources["llm_default_model"] = "file"
	}
	if file.ToolCacheTTLSeconds != 0 {
		c.ToolCacheTTLSeconds = file.ToolCacheTTLSeconds
		c.sources["tool_cache_ttl"] = "file"
	}
	if file.ChatMaxToolRounds != 0 {
		c.ChatMaxToolRounds = file.ChatMaxToolRounds
		c.sources["chat_max_tool_rounds"] = "file"
	}
}

func (c *Config) applyEnvConfig() {
	if val := os.Getenv("TPMJS_TRUSTED_PROXIES"); val != "" {
		c.TrustedProxies = splitAndTrim(val)
		c.sources["trusted_proxies"] = "environment"
	}
	if val := os.Getenv("TPMJS_API_LIST_LIMIT_MAX"); val != "" {
		if i, err := strconv.Atoi(val); err == nil {
			c.APIListLimitMax = i
			c.sources["api_list_limit_max"] = "environment"
		}
	}
	if val := os.Getenv("TPMJS_EXECUTOR_URL"); val != "" {
		c.ExecutorURL = val
		c.sources["executor_url"] = "environment"
	}
	if val := os.Getenv("TPMJS_EXECUTOR_TOKEN"); val != "" {
		c.ExecutorToken = val
		c.sources["executor_token"] = "environment"
	}
	if val := os.Getenv("TPMJS_NPM_REGISTRY_URL"); val != "" {
		c.NPMRegistryURL = val
		c.sources["npm_registry_url"] = "environment"
	}
	if val := os.Getenv("TPMJS_NPM_DOWNLOADS_URL"); val != "" {
		c.NPMDownloadsURL = val
		c.sources["npm_downloads_url"] = "environment"
	}
	if val := os.Getenv("TPMJS_REGISTRY_KEYWORD"); val != "" {
		c.RegistryKeyword = val
		c.sources["registry_keyword"] = "environment"
	}
	if val := os.Getenv("TPMJS_SYNC_PAGE_SIZE"); val != "" {
		if i, err := strconv.Atoi(val); err == nil {
			c.SyncPageSize = i
			c.sources["sync_page_size"] = "environment"
		}
	}
	if val := os.Getenv("TPMJS_SYNC_WORKERS"); val != "" {
		if i, err := strconv.Atoi(val); err == nil {
			c.SyncWorkers = i
			c.sources["sync_workers"] = "environment"
		}
	}
	if val := os.Getenv("TPMJS_RATE_LIMIT_WINDOW_SECONDS"); val != "" {
		if i, err := strconv.Atoi(val); err == nil {
			c.RateLimitWindowSeconds = i
			c.sources["rate_limit_window_seconds"] = "environment"
		}
	}
	if val := os.Getenv("TPMJS_RATE_LIMIT_MAX_REQUESTS"); val != "" {
		if i, err := strconv.Atoi(val); err == nil {
			c.RateLimitMaxRequests = i
			c.sources["rate_limit_max_requests"] = "environment"
		}
	}
	if val := os.Getenv("TPMJS_SESSION_TOKEN_TTL"); val != "" {
		if i, err := strconv.Atoi(val); err == nil {
			c.SessionTokenTTLSeconds = i
			c.sources["session_token_ttl"] = "environment"
		}
	}
	if val := os.Getenv("TPMJS_CRON_TOKEN"); val != "" {
		c.CronToken = val
		c.sources["cron_token"] = "environment"
	}
	if val := os.Getenv("TPMJS_LLM_BASE_URL"); val != "" {
		c.LLMBaseURL = val
		c.sources["llm_base_url"] = "environment"
	}
	if val := os.Getenv("TPMJS_LLM_DEFAULT_MODEL"); val != "" {
		c.LLMDefaultModel = val
		c.sources["llm_default_model"] = "environment"
	}
	if val := os.Getenv("TPMJS_TOOL_CACHE_TTL"); val != "" {
		if i, err := strconv.Atoi(val); err == nil {
			c.ToolCacheTTLSeconds = i
			c.sources["tool_cache_ttl"] = "environment"
		}
	}
	if val := os.Getenv("TPMJS_CHAT_MAX_TOOL_ROUNDS"); val != "" {
		if i, err := strconv.Atoi(val); err == nil {
			c.ChatMaxToolRounds = i
			c.sources["chat_max_tool_rounds"] = "environment"
		}
	}
}

// ConfigFilePath returns the path to the config file
func (c *Config) ConfigFilePath() string {
	return c.configFilePath
}

// Source returns the source of a configuration attribute
func (c *Config) Source(name string) string {
	if c.sources == nil {
		return "default"
	}
	if s, ok := c.sources[name]; ok {
		return s
	}
	return "default"
}

// SessionTokenTTL returns the session token TTL as a duration
func (c *Config) SessionTokenTTL() time.Duration {
	return time.Duration(c.SessionTokenTTLSeconds) * time.Second
}

// RateLimitWindow returns the rate limit window as a duration
func (c *Config) RateLimitWindow() time.Duration {
	return time.Duration(c.RateLimitWindowSeconds) * time.Second
}

// ToolCacheTTL returns the tool cache TTL as a duration
func (c *Config) ToolCacheTTL() time.Duration {
	return time.Duration(c.ToolCacheTTLSeconds) * time.Second
}

// IsTrustedProxy checks if an IP is from a trusted proxy
func (c *Config) IsTrustedProxy(ip string) bool {
	if len(c.TrustedProxies) == 0 {
		return false
	}

	parsedIP := net.ParseIP(ip)
	if parsedIP == nil {
		return false
	}

	for _, cidr := range c.TrustedProxies {
		_, network, err := net.ParseCIDR(cidr)
		if err != nil {
			// Try as plain IP
			if net.ParseIP(cidr) != nil && cidr == ip {
				return true
			}
			continue
		}
		if network.Contains(parsedIP) {
			return true
		}
	}
	return false
}

// Validate validates the configuration
func (c *Config) Validate() error {
	for _, cidr := range c.TrustedProxies {
		if _, _, err := net.ParseCIDR(cidr); err != nil {
			if net.ParseIP(cidr) == nil {
				return fmt.Errorf("invalid trusted proxy %q: not a CIDR range or IP", cidr)
			}
		}
	}
	if c.APIListLimitMax < 1 {
		return fmt.Errorf("api_list_limit_max must be positive, got %d", c.APIListLimitMax)
	}
	if c.SyncWorkers < 1 {
		return fmt.Errorf("sync_workers must be positive, got %d", c.SyncWorkers)
	}
	if c.RateLimitWindowSeconds < 1 || c.RateLimitMaxRequests < 1 {
		return fmt.Errorf("rate limit window and max requests must be positive")
	}
	if c.ChatMaxToolRounds < 1 {
		return fmt.Errorf("chat_max_tool_rounds must be positive, got %d", c.ChatMaxToolRounds)
	}
	return nil
}

// Attributes returns all configuration attributes with values and sources
func (c *Config) Attributes() []Attribute {
	values := map[string]string{
		"trusted_proxies":           strings.Join(c.TrustedProxies, ","),
		"api_list_limit_max":        strconv.Itoa(c.APIListLimitMax),
		"executor_url":              c.ExecutorURL,
		"executor_token":            redact(c.ExecutorToken),
		"npm_registry_url":          c.NPMRegistryURL,
		"npm_downloads_url":         c.NPMDownloadsURL,
		"registry_keyword":          c.RegistryKeyword,
		"sync_page_size":            strconv.Itoa(c.SyncPageSize),
		"sync_workers":              strconv.Itoa(c.SyncWorkers),
		"rate_limit_window_seconds": strconv.Itoa(c.RateLimitWindowSeconds),
		"rate_limit_max_requests":   strconv.Itoa(c.RateLimitMaxRequests),
		"session_token_ttl":         strconv.Itoa(c.SessionTokenTTLSeconds),
		"cron_token":                redact(c.CronToken),
		"llm_base_url":              c.LLMBaseURL,
		"llm_default_model":         c.LLMDefaultModel,
		"tool_cache_ttl":            strconv.Itoa(c.ToolCacheTTLSeconds),
		"chat_max_tool_rounds":      strconv.Itoa(c.ChatMaxToolRounds),
	}

	attrs := make([]Attribute, 0, len(values))
	for _, name := range attributeNames() {
		attrs = append(attrs, Attribute{
			Name:   name,
			Value:  values[name],
			Source: c.Source(name),
		})
	}
	return attrs
}

func redact(s string) string {
	if s == "" {
		return ""
	}
	return "[redacted]"
}

func splitAndTrim(s string) []string {
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}
