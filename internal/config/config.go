package config

import (
	"os"

	"github.com/spf13/viper"
)

// Config holds the application configuration
type Config struct {
	HomeAssistant HomeAssistantConfig `mapstructure:"home_assistant"`
	Server        ServerConfig        `mapstructure:"server"`
	Log           LogConfig           `mapstructure:"log"`
	History       HistoryConfig       `mapstructure:"history"`
}

// HomeAssistantConfig holds the hub connection settings
type HomeAssistantConfig struct {
	URL   string `mapstructure:"url"`
	Token string `mapstructure:"token"`
}

// ServerConfig selects how the tool server is exposed: "stdio" (default)
// or "http" (streamable HTTP on host:port).
type ServerConfig struct {
	Transport string `mapstructure:"transport"`
	Host      string `mapstructure:"host"`
	Port      string `mapstructure:"port"`
}

// LogConfig holds the logging configuration
type LogConfig struct {
	Level string `mapstructure:"level"`
}

// HistoryConfig holds the invocation history configuration
type HistoryConfig struct {
	Path string `mapstructure:"path"`
}

// Load loads the configuration from config.yaml, or from the file named
// by the CONFIG_PATH environment variable when set.
func Load() (*Config, error) {
	v := viper.New()
	if path := os.Getenv("CONFIG_PATH"); path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
	}
	v.SetDefault("server.transport", "stdio")
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", "8080")
	v.SetDefault("log.level", "info")

	if err := v.ReadInConfig(); err != nil {
		return nil, err
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, err
	}

	return &config, nil
}
