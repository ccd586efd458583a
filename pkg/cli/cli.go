package cli

import (
	"bytes"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/dmdmdm-nz/pathmond/internal/netmon"
	"github.com/dmdmdm-nz/pathmond/pkg/version"
)

// Config holds the application configuration from CLI flags and the
// optional config file.
type Config struct {
	Port         int           `yaml:"port"`
	Host         string        `yaml:"host"`
	LogLevel     string        `yaml:"logLevel"`
	Watcher      string        `yaml:"watcher"`
	PollInterval time.Duration `yaml:"pollInterval"`
	Dedup        bool          `yaml:"dedup"`
	Advertise    bool          `yaml:"advertise"`
	Instance     string        `yaml:"instance"`

	ConfigFile  string `yaml:"-"`
	ShowVersion bool   `yaml:"-"`
}

func defaultConfig() Config {
	return Config{
		Port:         60106,
		Host:         "127.0.0.1",
		LogLevel:     "info",
		Watcher:      netmon.WatcherAuto,
		PollInterval: netmon.DefaultPollInterval,
		Dedup:        true,
	}
}

// ParseFlags parses command line arguments and returns a Config
func ParseFlags() *Config {
	cfg, err := Parse(os.Args[1:], os.Stderr)
	if errors.Is(err, flag.ErrHelp) {
		os.Exit(0)
	}
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}

	if cfg.ShowVersion {
		fmt.Printf("pathmond version %s (commit: %s, built at: %s)\n",
			version.Version,
			version.CommitHash,
			version.BuildTime)
		os.Exit(0)
	}

	return cfg
}

// Parse builds a Config from args. Values from -config are applied first and
// any flag given explicitly on the command line wins over the file.
func Parse(args []string, output io.Writer) (*Config, error) {
	cfg := defaultConfig()

	fs := flag.NewFlagSet("pathmond", flag.ContinueOnError)
	fs.SetOutput(output)
	fs.IntVar(&cfg.Port, "port", cfg.Port, "Port to listen on")
	fs.StringVar(&cfg.Host, "host", cfg.Host, "Host to bind to")
	fs.StringVar(&cfg.LogLevel, "log-level", cfg.LogLevel, "Log level (trace, debug, info, warn, error)")
	fs.StringVar(&cfg.Watcher, "watcher", cfg.Watcher, "Path watcher (auto, netlink, route, poll)")
	fs.DurationVar(&cfg.PollInterval, "poll-interval", cfg.PollInterval, "Interval for the polling watcher")
	fs.BoolVar(&cfg.Dedup, "dedup", cfg.Dedup, "Only publish statuses that differ from the previous one")
	fs.BoolVar(&cfg.Advertise, "advertise", cfg.Advertise, "Advertise the status API over mDNS")
	fs.StringVar(&cfg.Instance, "instance", cfg.Instance, "mDNS instance name (defaults to the host name)")
	fs.StringVar(&cfg.ConfigFile, "config", "", "Path to a YAML config file")
	fs.BoolVar(&cfg.ShowVersion, "version", false, "Show version information")

	if err := fs.Parse(args); err != nil {
		return nil, err
	}

	if cfg.ConfigFile != "" {
		explicit := map[string]string{}
		fs.Visit(func(f *flag.Flag) { explicit[f.Name] = f.Value.String() })

		if err := loadFile(cfg.ConfigFile, &cfg); err != nil {
			return nil, err
		}
		for name, value := range explicit {
			if err := fs.Set(name, value); err != nil {
				return nil, fmt.Errorf("flag -%s: %w", name, err)
			}
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func loadFile(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return fmt.Errorf("parse config file %s: %w", path, err)
	}
	return nil
}

func (c *Config) Validate() error {
	if c.Port < 0 || c.Port > 65535 {
		return fmt.Errorf("invalid port %d", c.Port)
	}
	switch c.LogLevel {
	case "trace", "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("invalid log level %q", c.LogLevel)
	}
	switch c.Watcher {
	case netmon.WatcherAuto, netmon.WatcherNetlink, netmon.WatcherRoute, netmon.WatcherPoll:
	default:
		return fmt.Errorf("invalid watcher %q", c.Watcher)
	}
	if c.PollInterval <= 0 {
		return fmt.Errorf("poll interval must be positive, got %s", c.PollInterval)
	}
	return nil
}

// String returns a string representation of the Config
func (c *Config) String() string {
	return fmt.Sprintf("Host: %s, Port: %d, LogLevel: %s, Watcher: %s, PollInterval: %s, Dedup: %t, Advertise: %t, Instance: %s",
		c.Host, c.Port, c.LogLevel, c.Watcher, c.PollInterval, c.Dedup, c.Advertise, c.Instance)
}
