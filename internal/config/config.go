package config

import (
	"fmt"
	"os"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
	"github.com/robfig/cron/v3"
	"gopkg.in/yaml.v3"
)

// Config holds all application configuration.
type Config struct {
	Symbols  []string `yaml:"symbols" env:"SYMBOLS" envSeparator:","`
	Interval string   `yaml:"interval" env:"INTERVAL"`
	Years    int      `yaml:"years" env:"YEARS"`
	RSI      struct {
		Period int `yaml:"period" env:"RSI_PERIOD"`
	} `yaml:"rsi"`
	HTTP struct {
		Addr string `yaml:"addr" env:"HTTP_ADDR"`
	} `yaml:"http"`
	Schedule struct {
		RefreshCron string `yaml:"refresh_cron" env:"CRON_REFRESH"`
	} `yaml:"schedule"`
	Database struct {
		SQLitePath string `yaml:"sqlite_path" env:"SQLITE_PATH"`
	} `yaml:"database"`
	Redis struct {
		Addr     string        `yaml:"addr" env:"REDIS_ADDR"`
		Password string        `yaml:"password" env:"REDIS_PASSWORD"`
		DB       int           `yaml:"db" env:"REDIS_DB"`
		TTL      time.Duration `yaml:"ttl" env:"REDIS_TTL"`
	} `yaml:"redis"`
	Output struct {
		Dir string `yaml:"dir" env:"OUTPUT_DIR"`
	} `yaml:"output"`
	Sim struct {
		StateFile string `yaml:"state_file" env:"SIM_STATE_FILE"`
	} `yaml:"sim"`
	Replay struct {
		Step time.Duration `yaml:"step" env:"REPLAY_STEP"`
	} `yaml:"replay"`
	Proxy string `yaml:"proxy" env:"HTTPS_PROXY"`
}

// Load reads config from a YAML file, then a .env file and the environment, then fills defaults.
// A missing YAML or .env file is not an error.
func Load(path string) (*Config, error) {
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

	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("load .env: %w", err)
	}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}

	cfg.applyDefaults()
	return cfg, nil
}

func (c *Config) applyDefaults() {
	if len(c.Symbols) == 0 {
		c.Symbols = []string{"NIFTY"}
	}
	if c.Interval == "" {
		c.Interval = "1d"
	}
	if c.Years == 0 {
		c.Years = 4
	}
	if c.RSI.Period == 0 {
		c.RSI.Period = 14
	}
	if c.HTTP.Addr == "" {
		c.HTTP.Addr = ":8080"
	}
	if c.Schedule.RefreshCron == "" {
		c.Schedule.RefreshCron = "0 0 18 * * 1-5"
	}
	if c.Redis.TTL == 0 {
		c.Redis.TTL = 15 * time.Minute
	}
	if c.Output.Dir == "" {
		c.Output.Dir = "data"
	}
	if c.Sim.StateFile == "" {
		c.Sim.StateFile = "data/sim_state.json"
	}
	if c.Replay.Step == 0 {
		c.Replay.Step = time.Second
	}
}

// Validate checks that all fields hold usable values.
func (c *Config) Validate() error {
	if c.RSI.Period < 1 {
		return fmt.Errorf("rsi.period must be positive")
	}
	if c.Years < 0 || c.Years > 10 {
		return fmt.Errorf("years must be between 0 and 10")
	}
	for _, s := range c.Symbols {
		if s == "" {
			return fmt.Errorf("symbols must not contain empty entries")
		}
	}
	if c.Replay.Step <= 0 {
		return fmt.Errorf("replay.step must be positive")
	}
	parser := cron.NewParser(cron.Second | cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor)
	if _, err := parser.Parse(c.Schedule.RefreshCron); err != nil {
		return fmt.Errorf("schedule.refresh_cron: %w", err)
	}
	return nil
}
