package config

import (
	"os"
	"path/filepath"
	"strings"
	"time"

	"codeberg.org/mutker/perfscope/internal/errors"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

const (
	DefaultLogLevel         = string(LogLevelWarning)
	DefaultProductID        = "cocos-adaptive-performance"
	DefaultListenHost       = "0.0.0.0"
	DefaultPortStart        = 7000
	DefaultPortEnd          = 7010
	DefaultDevicePort       = 7001
	DefaultProbeInterval    = 3 * time.Second
	DefaultHandshakeTimeout = 3 * time.Second
	DefaultTickInterval     = 33 * time.Millisecond
	DefaultHistoryCapacity  = 1600
	DefaultAddressLimit     = 20
	DefaultSnapshotInterval = 5 * time.Second
	DefaultWidth            = 1640
	DefaultHeight           = 420

	defaultEnvPrefix = "PERFSCOPE"
	configName       = "perfscope"
	maxPort          = 65535
)

type AddressBook struct {
	Enabled bool   `mapstructure:"enabled"`
	Path    string `mapstructure:"path"`
	Limit   int    `mapstructure:"limit"`
}

type Config struct {
	LogLevel         string        `mapstructure:"log_level"`
	LogFile          string        `mapstructure:"log_file"`
	ProductID        string        `mapstructure:"product_id"`
	ListenHost       string        `mapstructure:"listen_host"`
	PortStart        int           `mapstructure:"port_start"`
	PortEnd          int           `mapstructure:"port_end"`
	DevicePort       int           `mapstructure:"device_port"`
	Broadcast        bool          `mapstructure:"broadcast"`
	ProbeInterval    time.Duration `mapstructure:"probe_interval"`
	HandshakeTimeout time.Duration `mapstructure:"handshake_timeout"`
	TickInterval     time.Duration `mapstructure:"tick_interval"`
	HistoryCapacity  int           `mapstructure:"history_capacity"`
	AddressBook      AddressBook   `mapstructure:"addressbook"`
	Headless         bool          `mapstructure:"headless"`
	SnapshotPath     string        `mapstructure:"snapshot_path"`
	SnapshotInterval time.Duration `mapstructure:"snapshot_interval"`
	Width            int           `mapstructure:"width"`
	Height           int           `mapstructure:"height"`
}

func defaultAddressBookPath() string {
	if dir, err := os.UserConfigDir(); err == nil {
		return filepath.Join(dir, "perfscope", "addresses.db")
	}

	return filepath.Join(os.TempDir(), "perfscope-addresses.db")
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("log_level", DefaultLogLevel)
	v.SetDefault("log_file", "")
	v.SetDefault("product_id", DefaultProductID)
	v.SetDefault("listen_host", DefaultListenHost)
	v.SetDefault("port_start", DefaultPortStart)
	v.SetDefault("port_end", DefaultPortEnd)
	v.SetDefault("device_port", DefaultDevicePort)
	v.SetDefault("broadcast", true)
	v.SetDefault("probe_interval", DefaultProbeInterval)
	v.SetDefault("handshake_timeout", DefaultHandshakeTimeout)
	v.SetDefault("tick_interval", DefaultTickInterval)
	v.SetDefault("history_capacity", DefaultHistoryCapacity)
	v.SetDefault("addressbook.enabled", true)
	v.SetDefault("addressbook.path", defaultAddressBookPath())
	v.SetDefault("addressbook.limit", DefaultAddressLimit)
	v.SetDefault("headless", false)
	v.SetDefault("snapshot_path", "perfscope.png")
	v.SetDefault("snapshot_interval", DefaultSnapshotInterval)
	v.SetDefault("width", DefaultWidth)
	v.SetDefault("height", DefaultHeight)
}

func newFlagSet() *pflag.FlagSet {
	fs := pflag.NewFlagSet(configName, pflag.ContinueOnError)
	fs.String("config", "", "Path to a TOML configuration file")
	fs.String("log-level", DefaultLogLevel, "Log level (debug, info, warning, error)")
	fs.String("log-file", "", "Write logs to this file instead of stdout")
	fs.String("product-id", DefaultProductID, "Product identifier used in control messages")
	fs.String("listen-host", DefaultListenHost, "Address to bind the telemetry listener on")
	fs.Int("port-start", DefaultPortStart, "First port tried when binding the listener")
	fs.Int("port-end", DefaultPortEnd, "Last port tried when binding the listener")
	fs.Int("device-port", DefaultDevicePort, "Port devices listen on for handshake messages")
	fs.Bool("broadcast", true, "Periodically broadcast hello messages on private networks")
	fs.Duration("probe-interval", DefaultProbeInterval, "Interval between discovery broadcasts")
	fs.Duration("handshake-timeout", DefaultHandshakeTimeout, "How long to wait for a device to answer a knock")
	fs.Duration("tick-interval", DefaultTickInterval, "Render tick interval")
	fs.Int("history-capacity", DefaultHistoryCapacity, "Frames kept per device")
	fs.Bool("headless", false, "Run without the terminal UI and write chart snapshots instead")
	fs.String("snapshot-path", "perfscope.png", "PNG file written in headless mode")
	fs.Duration("snapshot-interval", DefaultSnapshotInterval, "Interval between headless snapshots")
	fs.Int("width", DefaultWidth, "Chart width in pixels")
	fs.Int("height", DefaultHeight, "Chart height in pixels")

	return fs
}

// Load reads configuration from defaults, the config file, the environment
// and the command line, in increasing order of precedence.
func Load(opts ...Option) (*Config, error) {
	errFactory := errors.New()

	o := &options{envPrefix: defaultEnvPrefix}
	for _, opt := range opts {
		if err := opt(o); err != nil {
			return nil, errFactory.Wrap(errors.ErrInvalidConfig, err)
		}
	}
	if !o.argsSet {
		o.args = os.Args[1:]
	}

	v := viper.New()
	setDefaults(v)

	fs := newFlagSet()
	if err := fs.Parse(o.args); err != nil {
		return nil, errFactory.Wrap(errors.ErrBindFlags, err)
	}

	// Flags use dashes, config keys use underscores.
	var bindErr error
	fs.VisitAll(func(f *pflag.Flag) {
		if f.Name == "config" || bindErr != nil {
			return
		}
		bindErr = v.BindPFlag(strings.ReplaceAll(f.Name, "-", "_"), f)
	})
	if bindErr != nil {
		return nil, errFactory.Wrap(errors.ErrBindFlags, bindErr)
	}

	v.SetEnvPrefix(o.envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	path := o.configPath
	if flagPath, _ := fs.GetString("config"); flagPath != "" {
		path = flagPath
	}
	if path == "" {
		path = os.Getenv(o.envPrefix + "_CONFIG")
	}

	if err := readConfigFile(v, path); err != nil {
		return nil, err
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, errFactory.Wrap(errors.ErrInvalidConfig, err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func readConfigFile(v *viper.Viper, path string) error {
	errFactory := errors.New()

	v.SetConfigType("toml")
	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName(configName)
		v.AddConfigPath("/etc")
		if dir, err := os.UserConfigDir(); err == nil {
			v.AddConfigPath(filepath.Join(dir, configName))
		}
	}

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			return nil
		}
		return errFactory.Wrap(errors.ErrReadConfig, err)
	}

	return nil
}

// Validate checks value ranges and returns a coded error for the first
// invalid field.
func (c *Config) Validate() error {
	errFactory := errors.New()

	if !LogLevel(c.LogLevel).IsValid() {
		return errFactory.WithData(errors.ErrInvalidLogLevel, c.LogLevel)
	}

	if c.PortStart <= 0 || c.PortEnd > maxPort || c.PortEnd < c.PortStart {
		return errFactory.WithData(errors.ErrInvalidPortRange, struct {
			Start int
			End   int
		}{c.PortStart, c.PortEnd})
	}

	if c.DevicePort <= 0 || c.DevicePort > maxPort {
		return errFactory.WithData(errors.ErrInvalidPortRange, c.DevicePort)
	}

	if c.HistoryCapacity <= 0 {
		return errFactory.WithData(errors.ErrInvalidCapacity, c.HistoryCapacity)
	}

	for name, d := range map[string]time.Duration{
		"probe_interval":    c.ProbeInterval,
		"handshake_timeout": c.HandshakeTimeout,
		"tick_interval":     c.TickInterval,
		"snapshot_interval": c.SnapshotInterval,
	} {
		if d <= 0 {
			return errFactory.WithData(errors.ErrInvalidInterval, name)
		}
	}

	if c.Width <= 0 || c.Height <= 0 {
		return errFactory.WithData(errors.ErrInvalidConfig, "width and height must be positive")
	}

	if c.AddressBook.Enabled && c.AddressBook.Path == "" {
		return errFactory.WithData(errors.ErrMissingConfig, "addressbook.path")
	}

	if c.AddressBook.Limit <= 0 {
		c.AddressBook.Limit = DefaultAddressLimit
	}

	return nil
}
