package config

import (
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/sevigo/diff-warden/internal/logger"
)

// EnvPrefix is the prefix of every environment variable read by the configuration.
const EnvPrefix = "DW"

// ServerConfig configures the webhook server.
type ServerConfig struct {
	Port string
}

// GitHubConfig holds GitHub credentials for both the CLI (token) and the App (server).
type GitHubConfig struct {
	Token          string
	AppID          int64
	WebhookSecret  string
	PrivateKeyPath string
}

// AIConfig configures the analyzer backend.
type AIConfig struct {
	LLMProvider    string
	GeneratorModel string
	OllamaHost     string
	GeminiAPIKey   string
	RateLimit      int
	RequestTimeout time.Duration
	DisableTools   bool
}

// ScanConfig configures which files are analyzed and how results are cached.
type ScanConfig struct {
	CacheDir            string
	DisableCaching      bool
	MaxLineLength       int
	SkipLineLengthCheck bool
	IncludeFile         string
	IgnoreFile          string
	RulesFile           string
	Include             []string
	Exclude             []string
	Analysts            []string
	ProjectName         string
}

// OutputConfig selects the reporters of a CLI run.
type OutputConfig struct {
	CSV         bool
	CSVPath     string
	Web         bool
	WebHost     string
	WebPort     int
	CI          bool
	Interactive bool
}

// DBConfig configures the PostgreSQL connection used to record scan runs.
type DBConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	Name     string
	SSLMode  string

	ConnMaxLifetime time.Duration
	ConnMaxIdleTime time.Duration
}

// Enabled reports whether a database has been configured.
func (c *DBConfig) Enabled() bool {
	return c != nil && c.Host != ""
}

// DSN returns the lib/pq connection string.
func (c *DBConfig) DSN() string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.Name, c.SSLMode)
}

// Config holds the application's configuration values.
type Config struct {
	Server       ServerConfig
	GitHub       GitHubConfig
	AI           AIConfig
	Scan         ScanConfig
	Output       OutputConfig
	Database     *DBConfig
	LoggerConfig logger.Config
	MaxWorkers   int
}

var supportedProviders = []string{"ollama", "gemini", "faike"}

var defaultModels = map[string]string{
	"ollama": "gemma3:latest",
	"gemini": "gemini-2.5-flash",
}

// SetDefaults registers every default value on v.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("server.port", "8080")
	v.SetDefault("github.private_key_path", "keys/diff-warden-app.private-key.pem")

	v.SetDefault("ai.llm_provider", "ollama")
	v.SetDefault("ai.ollama_host", "http://localhost:11434")
	v.SetDefault("ai.rate_limit", 10)
	v.SetDefault("ai.request_timeout", "5m")

	v.SetDefault("scan.cache_dir", ".diffwarden-cache")
	v.SetDefault("scan.max_line_length", 1000)
	v.SetDefault("scan.include_file", "diffwarden.include")
	v.SetDefault("scan.ignore_file", "diffwarden.ignore")
	v.SetDefault("scan.rules_file", "diffwarden.rules")
	v.SetDefault("scan.analysts", []string{"security"})

	v.SetDefault("output.csv_path", "results.csv")
	v.SetDefault("output.web_host", "127.0.0.1")
	v.SetDefault("output.web_port", 8080)

	v.SetDefault("database.port", 5432)
	v.SetDefault("database.sslmode", "disable")
	v.SetDefault("database.conn_max_lifetime", "30m")
	v.SetDefault("database.conn_max_idle_time", "5m")

	v.SetDefault("logging.level", "warn")
	v.SetDefault("logging.format", "text")
	v.SetDefault("logging.output", "stderr")

	v.SetDefault("max_workers", 5)
}

// NewViper returns a viper instance with defaults, the optional config file and
// environment overrides (DW_AI_LLM_PROVIDER, DW_GITHUB_TOKEN, ...).
func NewViper(configFile string) (*viper.Viper, error) {
	v := viper.New()
	SetDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if configFile != "" {
		v.SetConfigFile(configFile)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) || configFile != "" {
			return nil, fmt.Errorf("%w: %w", ErrConfigParsing, err)
		}
	}
	return v, nil
}

// Load builds a Config from v.
func Load(v *viper.Viper) (*Config, error) {
	provider := strings.ToLower(v.GetString("ai.llm_provider"))
	generatorModel := v.GetString("ai.generator_model")
	if generatorModel == "" {
		generatorModel = defaultModels[provider]
	}

	cfg := &Config{
		Server: ServerConfig{
			Port: v.GetString("server.port"),
		},
		GitHub: GitHubConfig{
			Token:          v.GetString("github.token"),
			AppID:          v.GetInt64("github.app_id"),
			WebhookSecret:  v.GetString("github.webhook_secret"),
			PrivateKeyPath: v.GetString("github.private_key_path"),
		},
		AI: AIConfig{
			LLMProvider:    provider,
			GeneratorModel: generatorModel,
			OllamaHost:     v.GetString("ai.ollama_host"),
			GeminiAPIKey:   v.GetString("ai.gemini_api_key"),
			RateLimit:      v.GetInt("ai.rate_limit"),
			RequestTimeout: v.GetDuration("ai.request_timeout"),
			DisableTools:   v.GetBool("ai.disable_tools"),
		},
		Scan: ScanConfig{
			CacheDir:            v.GetString("scan.cache_dir"),
			DisableCaching:      v.GetBool("scan.disable_caching"),
			MaxLineLength:       v.GetInt("scan.max_line_length"),
			SkipLineLengthCheck: v.GetBool("scan.skip_line_length_check"),
			IncludeFile:         v.GetString("scan.include_file"),
			IgnoreFile:          v.GetString("scan.ignore_file"),
			RulesFile:           v.GetString("scan.rules_file"),
			Include:             v.GetStringSlice("scan.include"),
			Exclude:             v.GetStringSlice("scan.exclude"),
			Analysts:            v.GetStringSlice("scan.analysts"),
			ProjectName:         v.GetString("scan.project_name"),
		},
		Output: OutputConfig{
			CSV:         v.GetBool("output.csv"),
			CSVPath:     v.GetString("output.csv_path"),
			Web:         v.GetBool("output.web"),
			WebHost:     v.GetString("output.web_host"),
			WebPort:     v.GetInt("output.web_port"),
			CI:          v.GetBool("output.ci"),
			Interactive: v.GetBool("output.interactive"),
		},
		Database: &DBConfig{
			Host:     v.GetString("database.host"),
			Port:     v.GetInt("database.port"),
			User:     v.GetString("database.user"),
			Password: v.GetString("database.password"),
			Name:     v.GetString("database.name"),
			SSLMode:  v.GetString("database.sslmode"),

			ConnMaxLifetime: v.GetDuration("database.conn_max_lifetime"),
			ConnMaxIdleTime: v.GetDuration("database.conn_max_idle_time"),
		},
		LoggerConfig: logger.Config{
			Level:  v.GetString("logging.level"),
			Format: v.GetString("logging.format"),
			Output: v.GetString("logging.output"),
			File:   v.GetString("logging.file"),
		},
		MaxWorkers: v.GetInt("max_workers"),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadConfig reads the configuration from config.yaml in the working directory and
// the environment. It is the entry point of the server.
func LoadConfig() (*Config, error) {
	v, err := NewViper("")
	if err != nil {
		return nil, err
	}
	cfg, err := Load(v)
	if err != nil {
		return nil, err
	}
	if err := cfg.ValidateForServer(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks the settings shared by every command.
func (c *Config) Validate() error {
	if err := c.AI.Validate(); err != nil {
		return err
	}
	if c.Scan.MaxLineLength <= 0 {
		return fmt.Errorf("scan.max_line_length must be positive, got %d", c.Scan.MaxLineLength)
	}
	if len(c.Scan.Analysts) == 0 {
		return errors.New("at least one analyst must be configured")
	}
	if c.Output.WebPort <= 0 || c.Output.WebPort > 65535 {
		return fmt.Errorf("output.web_port out of range: %d", c.Output.WebPort)
	}
	return nil
}

// Validate checks the analyzer settings.
func (a AIConfig) Validate() error {
	if !slices.Contains(supportedProviders, a.LLMProvider) {
		return fmt.Errorf("unsupported LLM provider %q (supported: %s)", a.LLMProvider, strings.Join(supportedProviders, ", "))
	}
	if a.LLMProvider == "gemini" && a.GeminiAPIKey == "" {
		return errors.New("ai.gemini_api_key must be set for the gemini provider")
	}
	if a.RateLimit < 1 {
		return fmt.Errorf("ai.rate_limit must be at least 1, got %d", a.RateLimit)
	}
	return nil
}

// ValidateForServer checks the GitHub App settings required by the webhook server.
func (c *Config) ValidateForServer() error {
	if c.GitHub.AppID == 0 {
		return errors.New("github.app_id must be set")
	}
	if c.GitHub.WebhookSecret == "" {
		return errors.New("github.webhook_secret must be set")
	}
	if c.MaxWorkers < 1 {
		return fmt.Errorf("max_workers must be at least 1, got %d", c.MaxWorkers)
	}
	return nil
}
