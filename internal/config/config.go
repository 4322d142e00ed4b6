package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"github.com/tanq16/dl/internal/utils"
)

type Config struct {
	Connections      int           `mapstructure:"connections" yaml:"connections"`
	ChunkSize        int64         `mapstructure:"chunk_size" yaml:"chunk_size"`
	ReportInterval   time.Duration `mapstructure:"report_interval" yaml:"report_interval"`
	Retries          int           `mapstructure:"retries" yaml:"retries"`
	Timeout          time.Duration `mapstructure:"timeout" yaml:"timeout"`
	KeepAliveTimeout time.Duration `mapstructure:"keep_alive_timeout" yaml:"keep_alive_timeout"`
	UserAgent        string        `mapstructure:"user_agent" yaml:"user_agent"`
	Proxy            string        `mapstructure:"proxy" yaml:"proxy"`
	LogFile          string        `mapstructure:"log_file" yaml:"log_file"`
}

// RandomUserAgent as user_agent picks a browser-like agent per download.
const RandomUserAgent = "randomize"

// flagKeys maps command line flags onto config keys.
var flagKeys = map[string]string{
	"connections": "connections",
	"chunk-size":  "chunk_size",
	"retries":     "retries",
	"timeout":     "timeout",
	"user-agent":  "user_agent",
	"proxy":       "proxy",
}

// DefaultPath is $XDG_CONFIG_HOME/dl/config.yaml (or the platform equivalent).
func DefaultPath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return ""
	}
	return filepath.Join(dir, "dl", "config.yaml")
}

// Load merges, from highest precedence: changed flags, DL_* environment
// variables, the config file, defaults. An explicit path must exist; the
// default path is only read when present.
func Load(path string, flags *pflag.FlagSet) (*Config, error) {
	v := viper.New()

	v.SetDefault("connections", utils.DefaultConnections)
	v.SetDefault("chunk_size", 0)
	v.SetDefault("report_interval", 300*time.Millisecond)
	v.SetDefault("retries", 5)
	v.SetDefault("timeout", 3*time.Minute)
	v.SetDefault("keep_alive_timeout", 90*time.Second)
	v.SetDefault("user_agent", utils.ToolUserAgent())
	v.SetDefault("proxy", "")
	v.SetDefault("log_file", utils.DefaultLogFile)

	if path == "" {
		if def := DefaultPath(); def != "" {
			if _, err := os.Stat(def); err == nil {
				path = def
			}
		}
	} else if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil, fmt.Errorf("config file not found: %s", path)
	}
	if path != "" {
		v.SetConfigFile(path)
		v.SetConfigType("yaml")
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("error reading config file %s: %w", path, err)
		}
	}

	v.SetEnvPrefix("DL")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	if flags != nil {
		for name, key := range flagKeys {
			if f := flags.Lookup(name); f != nil {
				if err := v.BindPFlag(key, f); err != nil {
					return nil, err
				}
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error parsing config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) Validate() error {
	if c.Connections < 1 {
		return errors.New("connections must be at least 1")
	}
	if c.ChunkSize < 0 {
		return errors.New("chunk size cannot be negative")
	}
	if c.Retries < 1 {
		return errors.New("retries must be at least 1")
	}
	if c.ReportInterval <= 0 {
		return errors.New("report interval must be positive")
	}
	return nil
}

// DownloadConfig builds the engine configuration for one URL.
func (c *Config) DownloadConfig(url, dest string, headers []string) utils.DownloadConfig {
	clientCfg := utils.HTTPClientConfig{
		Timeout:   c.Timeout,
		KATimeout: c.KeepAliveTimeout,
		ProxyURL:  c.Proxy,
		UserAgent: c.UserAgent,
		Headers:   utils.ParseHeaderArgs(headers),
	}
	if clientCfg.UserAgent == RandomUserAgent {
		clientCfg.UserAgent = utils.GetRandomUserAgent()
	}
	utils.SplitProxyAuth(&clientCfg)
	return utils.DownloadConfig{
		URL:              url,
		OutputPath:       dest,
		Connections:      c.Connections,
		ChunkSize:        c.ChunkSize,
		Retries:          c.Retries,
		ReportInterval:   c.ReportInterval,
		HTTPClientConfig: clientCfg,
	}
}
