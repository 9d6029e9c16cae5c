package config

import (
	"errors"
	"fmt"
	"io"
	"maps"
	"os"
	"path/filepath"
	"slices"
	"strings"

	toml "github.com/pelletier/go-toml/v2"

	"github.com/five82/obcdbg/internal/telemetry"
)

// Channel names, in display order.
const (
	ChannelMain     = "Main CPU"
	ChannelTransmit = "Transmit CPU"
	ChannelReceive  = "Receive CPU"
)

const (
	DefaultBaud            = 9600
	DefaultTabLen          = 8
	DefaultFontSize        = 12
	DefaultMaxConsoleLines = 1000

	defaultConfigPath = "~/.config/obcdbg/config.toml"
)

var defaultLogFiles = map[string]string{
	ChannelMain:     "log_main_cpu.csv",
	ChannelTransmit: "log_trans_cpu.csv",
	ChannelReceive:  "log_rcv_cpu.csv",
}

// ErrUnknownChannel is returned for a channel name outside Channels().
var ErrUnknownChannel = errors.New("unknown channel")

// Channel is the persisted serial setup of one telemetry source.
type Channel struct {
	Port     string `toml:"port"`
	Baudrate int    `toml:"baudrate"`
	LogFile  string `toml:"log_file"`
}

// Config is the whole configuration document.
type Config struct {
	TabLen          int                `toml:"tab_len"`
	ConsoleFontSize int                `toml:"console_font_size"`
	MaxConsoleLines int                `toml:"max_console_lines"`
	Channels        map[string]Channel `toml:"channels"`
}

// Channels returns the known channel names in display order.
func Channels() []string {
	return []string{ChannelMain, ChannelTransmit, ChannelReceive}
}

// IsChannel reports whether name is a known channel.
func IsChannel(name string) bool {
	return slices.Contains(Channels(), name)
}

// DefaultPath returns the default configuration file path.
func DefaultPath() string {
	return defaultConfigPath
}

// Default returns the configuration written on first run.
func Default() Config {
	cfg := Config{
		TabLen:          DefaultTabLen,
		ConsoleFontSize: DefaultFontSize,
		MaxConsoleLines: DefaultMaxConsoleLines,
		Channels:        make(map[string]Channel, len(defaultLogFiles)),
	}
	for _, name := range Channels() {
		cfg.Channels[name] = Channel{Baudrate: DefaultBaud, LogFile: defaultLogFiles[name]}
	}
	return cfg
}

// Channel returns the settings for name, or defaults when it is missing.
func (c Config) Channel(name string) Channel {
	if ch, ok := c.Channels[name]; ok {
		return ch
	}
	return Channel{Baudrate: DefaultBaud, LogFile: defaultLogFiles[name]}
}

// LogPath returns the channel's log file with "~" expanded. Relative paths are
// resolved against the working directory.
func (c Config) LogPath(name string) string {
	return mustExpand(c.Channel(name).LogFile)
}

// Clone returns a deep copy.
func (c Config) Clone() Config {
	out := c
	out.Channels = maps.Clone(c.Channels)
	return out
}

// Equal reports whether two configurations hold the same values.
func (c Config) Equal(o Config) bool {
	return c.TabLen == o.TabLen &&
		c.ConsoleFontSize == o.ConsoleFontSize &&
		c.MaxConsoleLines == o.MaxConsoleLines &&
		maps.Equal(c.Channels, o.Channels)
}

// Load reads the configuration at path, creating it with defaults when it
// does not exist. Missing or invalid values fall back to defaults.
func Load(path string) (Config, error) {
	resolved, err := resolvePath(path)
	if err != nil {
		return Config{}, err
	}

	file, err := os.Open(resolved)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			cfg := Default()
			if err := Save(resolved, cfg); err != nil {
				return Config{}, fmt.Errorf("create config: %w", err)
			}
			return cfg, nil
		}
		return Config{}, fmt.Errorf("open config: %w", err)
	}
	defer func() { _ = file.Close() }()

	bytes, err := io.ReadAll(file)
	if err != nil {
		return Config{}, fmt.Errorf("read config: %w", err)
	}

	var cfg Config
	if err := toml.Unmarshal(bytes, &cfg); err != nil {
		return Config{}, fmt.Errorf("parse config: %w", err)
	}
	normalize(&cfg)
	return cfg, nil
}

// Save writes cfg to path, creating directories as needed.
func Save(path string, cfg Config) error {
	resolved, err := resolvePath(path)
	if err != nil {
		return fmt.Errorf("resolve path: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(resolved), 0o755); err != nil {
		return fmt.Errorf("create config dir: %w", err)
	}

	bytes, err := toml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}
	if err := os.WriteFile(resolved, bytes, 0o644); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	return nil
}

func normalize(cfg *Config) {
	if cfg.TabLen < 1 {
		cfg.TabLen = DefaultTabLen
	}
	if cfg.ConsoleFontSize < 1 {
		cfg.ConsoleFontSize = DefaultFontSize
	}
	if cfg.MaxConsoleLines < 1 {
		cfg.MaxConsoleLines = DefaultMaxConsoleLines
	}
	if cfg.Channels == nil {
		cfg.Channels = make(map[string]Channel, len(defaultLogFiles))
	}
	for _, name := range Channels() {
		ch := cfg.Channels[name]
		ch.Port = strings.TrimSpace(ch.Port)
		if !SupportedBaud(ch.Baudrate) {
			ch.Baudrate = DefaultBaud
		}
		ch.LogFile = strings.TrimSpace(ch.LogFile)
		if ch.LogFile == "" {
			ch.LogFile = defaultLogFiles[name]
		}
		cfg.Channels[name] = ch
	}
}

// SupportedBaud reports whether baud is one of the selectable rates.
func SupportedBaud(baud int) bool {
	return slices.Contains(telemetry.BaudRates, baud)
}

func resolvePath(path string) (string, error) {
	if strings.TrimSpace(path) == "" {
		return expandPath(defaultConfigPath)
	}
	return expandPath(path)
}

func mustExpand(path string) string {
	expanded, err := expandPath(path)
	if err != nil {
		return path
	}
	return expanded
}

func expandPath(path string) (string, error) {
	trimmed := strings.TrimSpace(path)
	if trimmed == "" {
		return "", fmt.Errorf("path is empty")
	}
	if strings.HasPrefix(trimmed, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home dir: %w", err)
		}
		trimmed = filepath.Join(home, strings.TrimPrefix(trimmed, "~"))
	}
	return filepath.Abs(trimmed)
}
