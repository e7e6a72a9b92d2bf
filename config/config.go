package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"go.uber.org/multierr"
	"gopkg.in/yaml.v3"
)

const (
	ServiceAnalytics     = "analytics"
	ServiceMarketData    = "market-data"
	ServiceNews          = "news"
	ServiceHistoryWorker = "history-worker"
	ServicePricePoller   = "price-poller"
)

var defaultPorts = map[string]int{
	ServiceAnalytics:  6000,
	ServiceMarketData: 5000,
	ServiceNews:       6500,
}

// Config holds the settings of every service. Each subcommand validates only
// the part it uses.
type Config struct {
	HTTP struct {
		Port     int    `yaml:"port"`
		BasePath string `yaml:"base_path"`
	} `yaml:"http"`
	Database struct {
		URL             string        `yaml:"url"`
		MaxOpenConns    int           `yaml:"max_open_conns"`
		MaxIdleConns    int           `yaml:"max_idle_conns"`
		ConnMaxLifetime time.Duration `yaml:"conn_max_lifetime"`
	} `yaml:"database"`
	MarketDataURL string `yaml:"market_data_url"`
	News          struct {
		APIKey  string `yaml:"api_key"`
		BaseURL string `yaml:"base_url"`
	} `yaml:"news"`
	FrontendOrigin string `yaml:"frontend_origin"`
	Upstream       struct {
		Timeout      time.Duration `yaml:"timeout"`
		YahooBaseURL string        `yaml:"yahoo_base_url"`
	} `yaml:"upstream"`
	History struct {
		Source string `yaml:"source"`
		CSVDir string `yaml:"csv_dir"`
	} `yaml:"history"`
	Valuation struct {
		MissingQuote     string `yaml:"missing_quote"`
		FetchConcurrency int    `yaml:"fetch_concurrency"`
	} `yaml:"valuation"`
	Analytics struct {
		AsyncHistory bool `yaml:"async_history"`
	} `yaml:"analytics"`
	Rabbit struct {
		URL string `yaml:"url"`
	} `yaml:"rabbit"`
	Poller struct {
		Schedule string `yaml:"schedule"`
		Exchange string `yaml:"exchange"`
	} `yaml:"poller"`
	Log struct {
		Level string `yaml:"level"`
	} `yaml:"log"`
}

// Load reads config from an optional YAML file, then applies environment
// variable overrides and defaults for service.
func Load(path, service string) (*Config, error) {
	cfg := &Config{}

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil && !os.IsNotExist(err) {
			return nil, fmt.Errorf("read config: %w", err)
		}
		if len(data) > 0 {
			if err := yaml.Unmarshal(data, cfg); err != nil {
				return nil, fmt.Errorf("parse config: %w", err)
			}
		}
	}

	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	cfg.applyDefaults(service)

	return cfg, nil
}

func (c *Config) applyEnv() error {
	if v := os.Getenv("DATABASE_URL"); v != "" {
		c.Database.URL = v
	}
	if v := os.Getenv("MARKET_DATA_URL"); v != "" {
		c.MarketDataURL = v
	}
	if v := os.Getenv("NEWS_API_KEY"); v != "" {
		c.News.APIKey = v
	}
	if v := os.Getenv("FRONTEND_ORIGIN"); v != "" {
		c.FrontendOrigin = v
	}
	if v := os.Getenv("RABBIT_URL"); v != "" {
		c.Rabbit.URL = v
	}
	if v := os.Getenv("HISTORY_SOURCE"); v != "" {
		c.History.Source = v
	}
	if v := os.Getenv("HISTORY_CSV_DIR"); v != "" {
		c.History.CSVDir = v
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		c.Log.Level = v
	}
	if v := os.Getenv("PORT"); v != "" {
		port, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("parse PORT %q: %w", v, err)
		}
		c.HTTP.Port = port
	}

	return nil
}

func (c *Config) applyDefaults(service string) {
	if c.HTTP.Port == 0 {
		c.HTTP.Port = defaultPorts[service]
	}
	if c.HTTP.BasePath == "" {
		c.HTTP.BasePath = "/api"
	}
	if c.Database.MaxOpenConns == 0 {
		c.Database.MaxOpenConns = 10
	}
	if c.Database.MaxIdleConns == 0 {
		c.Database.MaxIdleConns = 5
	}
	if c.Database.ConnMaxLifetime == 0 {
		c.Database.ConnMaxLifetime = 30 * time.Minute
	}
	if c.News.BaseURL == "" {
		c.News.BaseURL = "https://newsapi.org/v2"
	}
	if c.Upstream.Timeout == 0 {
		c.Upstream.Timeout = 5 * time.Second
	}
	if c.Upstream.YahooBaseURL == "" {
		c.Upstream.YahooBaseURL = "https://query1.finance.yahoo.com"
	}
	if c.History.Source == "" {
		c.History.Source = "yahoo"
	}
	if c.Valuation.MissingQuote == "" {
		c.Valuation.MissingQuote = "zero"
	}
	if c.Valuation.FetchConcurrency == 0 {
		c.Valuation.FetchConcurrency = 4
	}
	if c.Poller.Schedule == "" {
		c.Poller.Schedule = "@every 10s"
	}
	if c.Poller.Exchange == "" {
		c.Poller.Exchange = "prices"
	}
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
}

// Validate reports every missing or malformed field service depends on.
func (c *Config) Validate(service string) error {
	var err error

	switch service {
	case ServiceAnalytics:
		err = multierr.Combine(c.validateHTTP(), c.validateDatabase(), c.validateHistory(), c.validateValuation())
		if c.MarketDataURL == "" {
			err = multierr.Append(err, fmt.Errorf("market_data_url is required"))
		}
		if c.Analytics.AsyncHistory && c.Rabbit.URL == "" {
			err = multierr.Append(err, fmt.Errorf("rabbit.url is required when analytics.async_history is set"))
		}
	case ServiceMarketData:
		err = c.validateHTTP()
	case ServiceNews:
		err = c.validateHTTP()
		if c.News.APIKey == "" {
			err = multierr.Append(err, fmt.Errorf("news.api_key is required"))
		}
	case ServiceHistoryWorker:
		err = multierr.Combine(c.validateDatabase(), c.validateHistory(), c.validateValuation())
		if c.Rabbit.URL == "" {
			err = multierr.Append(err, fmt.Errorf("rabbit.url is required"))
		}
	case ServicePricePoller:
		err = c.validateDatabase()
		if c.Rabbit.URL == "" {
			err = multierr.Append(err, fmt.Errorf("rabbit.url is required"))
		}
	default:
		return fmt.Errorf("unknown service %q", service)
	}

	return err
}

func (c *Config) validateHTTP() error {
	var err error
	if c.HTTP.Port <= 0 || c.HTTP.Port > 65535 {
		err = multierr.Append(err, fmt.Errorf("http.port %d is out of range", c.HTTP.Port))
	}
	if c.FrontendOrigin == "" {
		err = multierr.Append(err, fmt.Errorf("frontend_origin is required"))
	}
	return err
}

func (c *Config) validateDatabase() error {
	if c.Database.URL == "" {
		return fmt.Errorf("database.url is required")
	}
	return nil
}

func (c *Config) validateHistory() error {
	switch c.History.Source {
	case "yahoo":
		return nil
	case "csv":
		if c.History.CSVDir == "" {
			return fmt.Errorf("history.csv_dir is required for csv source")
		}
		return nil
	default:
		return fmt.Errorf("history.source %q must be yahoo or csv", c.History.Source)
	}
}

func (c *Config) validateValuation() error {
	var err error
	if m := c.Valuation.MissingQuote; m != "zero" && m != "skip" {
		err = multierr.Append(err, fmt.Errorf("valuation.missing_quote %q must be zero or skip", m))
	}
	if c.Valuation.FetchConcurrency < 1 {
		err = multierr.Append(err, fmt.Errorf("valuation.fetch_concurrency must be positive"))
	}
	return err
}
