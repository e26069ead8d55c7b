package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

type Config struct {
	Server    ServerConfig
	Database  DatabaseConfig
	Redis     RedisConfig
	Auth      AuthConfig
	LLM       LLMConfig
	Orion     OrionConfig
	Dashboard DashboardConfig
	Logging   LoggingConfig
}

type ServerConfig struct {
	Host              string
	Port              int
	ReadTimeout       int
	WriteTimeout      int
	BodyLimit         int
	RequestsPerMinute int
	AllowedOrigins    string
}

type DatabaseConfig struct {
	Path string
}

type RedisConfig struct {
	Enabled  bool
	Host     string
	Port     int
	Password string
	DB       int
}

type AuthConfig struct {
	JWTSecret string
	Issuer    string
}

type LLMConfig struct {
	APIKey          string
	Model           string
	ExtractionModel string
	Temperature     float32
	MaxTokens       int
	TimeoutSec      int
}

type OrionConfig struct {
	BaseURL    string
	APIKey     string
	Bucket     string
	TimeoutSec int
}

type DashboardConfig struct {
	CacheTTLSec int
}

type LoggingConfig struct {
	Level      string
	Format     string
	OutputPath string
}

func Load() (*Config, error) {
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".")
	viper.AddConfigPath("./config")
	viper.AddConfigPath("/etc/employeevirtual")

	viper.SetEnvPrefix("EMPLOYEEVIRTUAL")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	setDefaults()

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var config Config
	if err := viper.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	return &config, nil
}

func setDefaults() {
	viper.SetDefault("server.host", "0.0.0.0")
	viper.SetDefault("server.port", 8080)
	viper.SetDefault("server.readTimeout", 30)
	viper.SetDefault("server.writeTimeout", 30)
	viper.SetDefault("server.bodyLimit", 52428800)
	viper.SetDefault("server.requestsPerMinute", 120)
	viper.SetDefault("server.allowedOrigins", "*")

	viper.SetDefault("database.path", "./data/employeevirtual.db")

	viper.SetDefault("redis.enabled", true)
	viper.SetDefault("redis.host", "localhost")
	viper.SetDefault("redis.port", 6379)
	viper.SetDefault("redis.db", 0)

	viper.SetDefault("auth.issuer", "employeevirtual")

	viper.SetDefault("llm.model", "gpt-4o-mini")
	viper.SetDefault("llm.extractionModel", "gpt-4o-mini")
	viper.SetDefault("llm.temperature", 0.7)
	viper.SetDefault("llm.maxTokens", 1024)
	viper.SetDefault("llm.timeoutSec", 60)

	viper.SetDefault("orion.baseURL", "http://localhost:9200")
	viper.SetDefault("orion.bucket", "employeevirtual-files")
	viper.SetDefault("orion.timeoutSec", 30)

	viper.SetDefault("dashboard.cacheTTLSec", 60)

	viper.SetDefault("logging.level", "info")
	viper.SetDefault("logging.format", "json")
	viper.SetDefault("logging.outputPath", "stdout")
}
