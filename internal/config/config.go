package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"go.uber.org/multierr"
	"gopkg.in/yaml.v3"

	"github.com/hamed0406/online/probe"
)

type Config struct {
	Primary  string `yaml:"primary"`  // host:port probed first
	Backup   string `yaml:"backup"`   // host:port probed when the primary fails
	Timeout  string `yaml:"timeout"`  // per-attempt bound: seconds ("5") or a duration ("1500ms"); empty = OS decides
	Strategy string `yaml:"strategy"` // blocking | async | clock
	ProxyURL string `yaml:"proxy"`    // optional, e.g. socks5://127.0.0.1:1080 (clock strategy)

	Interval time.Duration `yaml:"interval"` // monitor period; 0 disables the background monitor

	Addr           string   `yaml:"addr"`    // API bind address
	LogDir         string   `yaml:"log_dir"` // logs directory
	LogLevel       string   `yaml:"log_level"`
	PublicAPIKeys  []string `yaml:"public_api_keys"`
	AdminAPIKeys   []string `yaml:"admin_api_keys"`
	AllowedOrigins []string `yaml:"allowed_origins"`
	PublicRPM      int      `yaml:"public_rpm"`
	PublicBurst    int      `yaml:"public_burst"`

	SlackWebhook    string        `yaml:"slack_webhook"`
	AlertOnRecovery bool          `yaml:"alert_on_recovery"`
	AlertCooldown   time.Duration `yaml:"alert_cooldown"`
}

// Default returns the configuration used when nothing is set.
func Default() Config {
	return Config{
		Primary:         string(probe.DefaultPrimary),
		Backup:          string(probe.DefaultBackup),
		Strategy:        string(probe.StrategyBlocking),
		Interval:        30 * time.Second,
		Addr:            "127.0.0.1:8080",
		LogDir:          "logs",
		LogLevel:        "info",
		PublicRPM:       120,
		PublicBurst:     60,
		AlertOnRecovery: true,
		AlertCooldown:   5 * time.Minute,
	}
}

// Load builds the configuration from defaults, the optional YAML file at
// path and the environment, in that order, and validates it.
func Load(path string) (Config, error) {
	cfg, err := Parse(path)
	if err != nil {
		return cfg, err
	}
	return cfg, cfg.Validate()
}

// Parse is Load without validation, for callers that override fields
// before validating.
func Parse(path string) (Config, error) {
	cfg := Default()
	if path != "" {
		b, err := os.ReadFile(path)
		if err != nil {
			return cfg, fmt.Errorf("read config: %w", err)
		}
		if err := yaml.Unmarshal(b, &cfg); err != nil {
			return cfg, fmt.Errorf("parse config %s: %w", path, err)
		}
	}
	cfg.applyEnv()
	return cfg, nil
}

// FromEnv is Load with the file named by ONLINE_CONFIG, if any.
func FromEnv() (Config, error) {
	return Load(os.Getenv("ONLINE_CONFIG"))
}

func (c *Config) applyEnv() {
	setString(&c.Primary, "PRIMARY_TARGET")
	setString(&c.Backup, "BACKUP_TARGET")
	if v, ok := os.LookupEnv("CHECK_TIMEOUT"); ok {
		c.Timeout = strings.TrimSpace(v)
	}
	setString(&c.Strategy, "CHECK_STRATEGY")
	setString(&c.ProxyURL, "PROXY_URL")

	if v := os.Getenv("CHECK_INTERVAL_MS"); v != "" {
		if ms, err := strconv.Atoi(v); err == nil && ms >= 0 {
			c.Interval = time.Duration(ms) * time.Millisecond
		}
	}

	setString(&c.Addr, "API_ADDR")
	setString(&c.LogDir, "LOG_DIR")
	setString(&c.LogLevel, "LOG_LEVEL")
	setList(&c.PublicAPIKeys, "PUBLIC_API_KEYS")
	setList(&c.AdminAPIKeys, "ADMIN_API_KEYS")
	setList(&c.AllowedOrigins, "ALLOWED_ORIGINS")
	setInt(&c.PublicRPM, "PUBLIC_RPM")
	setInt(&c.PublicBurst, "PUBLIC_BURST")

	setString(&c.SlackWebhook, "SLACK_WEBHOOK")
	if v := os.Getenv("ALERT_ON_RECOVERY"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			c.AlertOnRecovery = b
		}
	}
	if v := os.Getenv("ALERT_COOLDOWN_MS"); v != "" {
		if ms, err := strconv.Atoi(v); err == nil && ms >= 0 {
			c.AlertCooldown = time.Duration(ms) * time.Millisecond
		}
	}
}

// Validate reports every problem found, not only the first one.
func (c Config) Validate() error {
	var err error
	if c.Primary == "" {
		err = multierr.Append(err, errors.New("primary target is empty"))
	}
	if c.Backup == "" {
		err = multierr.Append(err, errors.New("backup target is empty"))
	}
	if _, terr := c.CheckTimeout(); terr != nil {
		err = multierr.Append(err, terr)
	}
	if _, serr := probe.ParseStrategy(c.Strategy); serr != nil {
		err = multierr.Append(err, serr)
	}
	if c.ProxyURL != "" {
		if _, perr := probe.ProxyDialer(c.ProxyURL); perr != nil {
			err = multierr.Append(err, perr)
		}
	}
	if c.Interval < 0 {
		err = multierr.Append(err, errors.New("interval must not be negative"))
	}
	return err
}

// CheckTimeout parses Timeout. It returns nil when no bound is configured.
// A zero bound is rejected here so the service fails at start-up rather
// than on every check.
func (c Config) CheckTimeout() (*time.Duration, error) {
	return probe.ParseTimeout(c.Timeout)
}

// ProberOptions turns the probe settings into options for probe.New.
func (c Config) ProberOptions() ([]probe.Option, error) {
	strategy, err := probe.ParseStrategy(c.Strategy)
	if err != nil {
		return nil, err
	}
	var dopts []probe.DialerOption
	if c.ProxyURL != "" {
		if strategy != probe.StrategyClock {
			return nil, fmt.Errorf("proxy requires the %q strategy", probe.StrategyClock)
		}
		fwd, err := probe.ProxyDialer(c.ProxyURL)
		if err != nil {
			return nil, err
		}
		dopts = append(dopts, probe.WithForward(fwd))
	}
	d, err := probe.NewDialer(strategy, dopts...)
	if err != nil {
		return nil, err
	}
	return []probe.Option{
		probe.WithTargets(probe.Target(c.Primary), probe.Target(c.Backup)),
		probe.WithDialer(d),
	}, nil
}

func setString(dst *string, key string) {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		*dst = v
	}
}

func setInt(dst *int, key string) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n >= 0 {
			*dst = n
		}
	}
}

func setList(dst *[]string, key string) {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return
	}
	var out []string
	for _, p := range strings.Split(v, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	*dst = out
}
