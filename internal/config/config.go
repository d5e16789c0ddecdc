package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Logging  LoggingConfig  `mapstructure:"logging"`
	Database DatabaseConfig `mapstructure:"database"`
	Chat     ChatConfig     `mapstructure:"chat"`
	LLM      LLMConfig      `mapstructure:"llm"`
}

type ServerConfig struct {
	Host         string        `mapstructure:"host"`
	Port         int           `mapstructure:"port"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
}

type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

type DatabaseConfig struct {
	Driver      string `mapstructure:"driver"` // "postgres" or "memory"
	URL         string `mapstructure:"url"`
	AutoMigrate bool   `mapstructure:"auto_migrate"`
}

type ChatConfig struct {
	MaxConversationTokens int `mapstructure:"max_conversation_tokens"`
	MaxResponseTokens     int `mapstructure:"max_response_tokens"`
}

type LLMConfig struct {
	Provider string        `mapstructure:"provider"` // "openai", "openrouter", "gemini"
	BaseURL  string        `mapstructure:"base_url"`
	APIKey   string        `mapstructure:"api_key"`
	Model    string        `mapstructure:"model"`
	Timeout  time.Duration `mapstructure:"timeout"`
}

func Load() (*Config, error) {
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath("./configs")
	viper.AddConfigPath(".")

	// Environment variables
	viper.AutomaticEnv()
	viper.SetEnvPrefix("CHAT")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	setDefaults()

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}

	var config Config
	if err := viper.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if strings.TrimSpace(config.LLM.APIKey) == "" {
		config.LLM.APIKey = viper.GetString("LLM_API_KEY")
	}

	if err := validateConfig(&config); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &config, nil
}

func setDefaults() {
	// Server defaults
	viper.SetDefault("server.host", "localhost")
	viper.SetDefault("server.port", 8080)
	viper.SetDefault("server.read_timeout", "30s")
	viper.SetDefault("server.write_timeout", "60s")

	// Logging defaults
	viper.SetDefault("logging.level", "info")
	viper.SetDefault("logging.format", "json")

	// Database defaults
	viper.SetDefault("database.driver", "memory")
	viper.SetDefault("database.auto_migrate", true)

	// Chat defaults
	viper.SetDefault("chat.max_conversation_tokens", 4000)
	viper.SetDefault("chat.max_response_tokens", 1000)

	// LLM defaults
	viper.SetDefault("llm.provider", "openai")
	viper.SetDefault("llm.model", "gpt-4o-mini")
	viper.SetDefault("llm.timeout", "60s")
}

func validateConfig(config *Config) error {
	provider := strings.ToLower(config.LLM.Provider)
	switch provider {
	case "openai", "openrouter", "gemini":
	default:
		return fmt.Errorf("unsupported LLM provider: %s (supported: openai, openrouter, gemini)", config.LLM.Provider)
	}

	if strings.TrimSpace(config.LLM.APIKey) == "" {
		return fmt.Errorf("LLM API key is required (set llm.api_key in config.yaml or %s)",
			strings.Join(GetLLMEnvVars(), " or "))
	}

	if strings.TrimSpace(config.LLM.Model) == "" {
		return fmt.Errorf("LLM model is required")
	}

	if config.Server.Port <= 0 || config.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", config.Server.Port)
	}

	if config.Chat.MaxConversationTokens <= 0 {
		return fmt.Errorf("max conversation tokens must be positive: %d", config.Chat.MaxConversationTokens)
	}

	driver := strings.ToLower(config.Database.Driver)
	switch driver {
	case "memory":
	case "postgres":
		if strings.TrimSpace(config.Database.URL) == "" {
			return fmt.Errorf("database URL is required for the postgres driver")
		}
	default:
		return fmt.Errorf("unsupported database driver: %s (supported: postgres, memory)", config.Database.Driver)
	}

	return nil
}

// GetLLMEnvVars returns the recommended environment variables for the API key
func GetLLMEnvVars() []string {
	return []string{
		"CHAT_LLM_API_KEY",
	}
}
