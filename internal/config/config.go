// Package config loads client configuration: where the daemon lives,
// protocol timings and logging. Values come from defaults, an optional
// YAML file and RIPTIDE_* environment variables, in that order.
package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// DefaultPort is the daemon's loopback command port.
const DefaultPort = 7899

type Config struct {
	Host  string `mapstructure:"host"`
	Port  int    `mapstructure:"port"`
	Token string `mapstructure:"token"`

	ConnectTimeout    time.Duration `mapstructure:"connect_timeout"`
	CommandTimeout    time.Duration `mapstructure:"command_timeout"`
	PingTimeout       time.Duration `mapstructure:"ping_timeout"`
	KeepaliveInterval time.Duration `mapstructure:"keepalive_interval"`

	Log LogConfig `mapstructure:"log"`
}

type LogConfig struct {
	Level string `mapstructure:"level"`
}

// BaseURL returns the command channel base URL.
func (c *Config) BaseURL() string {
	return fmt.Sprintf("http://%s:%d", c.Host, c.Port)
}

// Load reads configuration from path. An empty path uses the default
// location; a missing file is not an error, defaults apply.
func Load(path string) (*Config, error) {
	v := viper.New()

	v.SetDefault("host", "127.0.0.1")
	v.SetDefault("port", DefaultPort)
	v.SetDefault("connect_timeout", 3*time.Second)
	v.SetDefault("command_timeout", 10*time.Second)
	v.SetDefault("ping_timeout", 2*time.Second)
	v.SetDefault("keepalive_interval", 25*time.Second)
	v.SetDefault("log.level", "info")

	v.SetEnvPrefix("RIPTIDE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path == "" {
		path = GetConfigPath()
	}
	if _, err := os.Stat(path); err == nil {
		v.SetConfigFile(path)
		v.SetConfigType("yaml")
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("error reading config file %s: %w", path, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	if c.Host == "" {
		return fmt.Errorf("host must not be empty")
	}
	if c.Port <= 0 || c.Port > 65535 {
		return fmt.Errorf("port %d out of range", c.Port)
	}
	return nil
}
