package config

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/vitos/crypto_trade_zones/internal/zones"
	"go.uber.org/multierr"
	"gopkg.in/yaml.v3"
)

type Config struct {
	Exchange struct {
		Name         string `yaml:"name"`
		APIKey       string `yaml:"api_key"`
		APISecret    string `yaml:"api_secret"`
		RESTEndpoint string `yaml:"rest_endpoint"`
		Category     string `yaml:"category"`
	} `yaml:"exchange"`
	Logging struct {
		Level string `yaml:"level"`
		File  string `yaml:"file"`
	} `yaml:"logging"`
	Server struct {
		Port int `yaml:"port"`
	} `yaml:"server"`
	Storage struct {
		Path string `yaml:"path"`
	} `yaml:"storage"`
	Analysis struct {
		Symbols     []string `yaml:"symbols"`
		Interval    string   `yaml:"interval"`
		Limit       int      `yaml:"limit"`
		RefreshMs   int      `yaml:"refresh_ms"`
		Concurrency int      `yaml:"concurrency"`
		WSPollMs    int      `yaml:"ws_poll_ms"`
	} `yaml:"analysis"`
	Engine zones.Options `yaml:"engine"`
}

// Default returns a configuration that runs against the public Bybit endpoint
// with the engine defaults.
func Default() *Config {
	cfg := &Config{Engine: zones.DefaultOptions()}
	cfg.Exchange.Name = "bybit"
	cfg.Exchange.RESTEndpoint = "https://api.bybit.com"
	cfg.Exchange.Category = "linear"
	cfg.Logging.Level = "info"
	cfg.Server.Port = 8080
	cfg.Storage.Path = "zones.db"
	cfg.Analysis.Symbols = []string{"BTCUSDT"}
	cfg.Analysis.Interval = "60"
	cfg.Analysis.Limit = 500
	cfg.Analysis.RefreshMs = 60000
	cfg.Analysis.Concurrency = 4
	cfg.Analysis.WSPollMs = 2000
	return cfg
}

// Load reads the YAML file at path over the defaults, then applies the .env
// file at envPath and ZONES_* environment overrides. An empty path skips the
// YAML file. A missing .env file is not an error; a missing YAML file is.
func Load(path, envPath string) (*Config, error) {
	cfg := Default()

	if path != "" {
		f, err := os.Open(path)
		if err != nil {
			return nil, fmt.Errorf("open config: %w", err)
		}
		defer f.Close()

		if err := yaml.NewDecoder(f).Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("decode config %s: %w", path, err)
		}
	}

	if envPath != "" {
		if err := godotenv.Load(envPath); err != nil && !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("load env file %s: %w", envPath, err)
		}
	}
	cfg.applyEnv()

	return cfg, nil
}

func (c *Config) applyEnv() {
	if v := os.Getenv("ZONES_API_KEY"); v != "" {
		c.Exchange.APIKey = v
	}
	if v := os.Getenv("ZONES_API_SECRET"); v != "" {
		c.Exchange.APISecret = v
	}
	if v := os.Getenv("ZONES_LOG_LEVEL"); v != "" {
		c.Logging.Level = v
	}
	if v := os.Getenv("ZONES_DB_PATH"); v != "" {
		c.Storage.Path = v
	}
	if v := os.Getenv("ZONES_SYMBOLS"); v != "" {
		var symbols []string
		for _, s := range strings.Split(v, ",") {
			if s = strings.TrimSpace(s); s != "" {
				symbols = append(symbols, strings.ToUpper(s))
			}
		}
		c.Analysis.Symbols = symbols
	}
}

// Validate reports every problem at once.
func (c *Config) Validate() error {
	var err error
	if c.Exchange.RESTEndpoint == "" {
		err = multierr.Append(err, errors.New("exchange.rest_endpoint is required"))
	}
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		err = multierr.Append(err, fmt.Errorf("server.port %d out of range", c.Server.Port))
	}
	if c.Storage.Path == "" {
		err = multierr.Append(err, errors.New("storage.path is required"))
	}
	if len(c.Analysis.Symbols) == 0 {
		err = multierr.Append(err, errors.New("analysis.symbols must not be empty"))
	}
	if c.Analysis.Interval == "" {
		err = multierr.Append(err, errors.New("analysis.interval is required"))
	}
	if c.Analysis.Limit < 1 || c.Analysis.Limit > 1000 {
		err = multierr.Append(err, fmt.Errorf("analysis.limit %d must be within [1, 1000]", c.Analysis.Limit))
	}
	if c.Analysis.RefreshMs <= 0 {
		err = multierr.Append(err, fmt.Errorf("analysis.refresh_ms %d must be positive", c.Analysis.RefreshMs))
	}
	if c.Analysis.Concurrency <= 0 {
		err = multierr.Append(err, fmt.Errorf("analysis.concurrency %d must be positive", c.Analysis.Concurrency))
	}
	if c.Analysis.WSPollMs <= 0 {
		err = multierr.Append(err, fmt.Errorf("analysis.ws_poll_ms %d must be positive", c.Analysis.WSPollMs))
	}
	return err
}
