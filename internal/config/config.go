package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"wintec-ng/internal/tk"
)

type Config struct {
	Serial   SerialConfig   `yaml:"serial"`
	Device   DeviceConfig   `yaml:"device"`
	Transfer TransferConfig `yaml:"transfer"`
	Output   OutputConfig   `yaml:"output"`
	Split    SplitConfig    `yaml:"split"`
	Log      LogConfig      `yaml:"log"`
}

type SerialConfig struct {
	Device      string        `yaml:"device"`
	Baud        int           `yaml:"baud"`
	ReadTimeout time.Duration `yaml:"read_timeout"`
}

type DeviceConfig struct {
	Password string `yaml:"password"`
	// LogVersion forces "1.0" or "2.0"; empty or "auto" detects it from the
	// device name.
	LogVersion      string `yaml:"log_version"`
	DeleteAfterRead bool   `yaml:"delete_after_read"`
}

type TransferConfig struct {
	BlockSize     int `yaml:"block_size"`
	LoginAttempts int `yaml:"login_attempts"`
	BlockRetries  int `yaml:"block_retries"`
}

type OutputConfig struct {
	Dir    string `yaml:"dir"`
	TK2Dir string `yaml:"tk2_dir"`
	TK3Dir string `yaml:"tk3_dir"`
}

type SplitConfig struct {
	Comment string `yaml:"comment"`
	// Timezone is "+hh:mm"; empty means UTC unless AutoTimezone is set.
	Timezone     string `yaml:"timezone"`
	AutoTimezone bool   `yaml:"auto_timezone"`
	TK2          *bool  `yaml:"tk2"`
	TK3          *bool  `yaml:"tk3"`
}

type LogConfig struct {
	Level      string `yaml:"level"`
	Transcript string `yaml:"transcript"`
}

const (
	DefaultDevice        = "/dev/ttyUSB0"
	DefaultBaud          = 57600
	DefaultReadTimeout   = 3 * time.Second
	DefaultBlockSize     = 4096
	DefaultLoginAttempts = 50
	DefaultBlockRetries  = 5
)

// Default returns the configuration used when no file is given.
func Default() Config {
	cfg := Config{}
	if err := cfg.applyDefaults(); err != nil {
		panic(err)
	}
	return cfg
}

func Load(path string) (Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return Config{}, err
	}

	var cfg Config
	if err := yaml.Unmarshal(b, &cfg); err != nil {
		return Config{}, err
	}
	if err := cfg.applyDefaults(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate re-checks a config after command line overrides.
func (cfg *Config) Validate() error { return cfg.applyDefaults() }

func (cfg *Config) applyDefaults() error {
	if cfg.Serial.Device == "" {
		cfg.Serial.Device = DefaultDevice
	}
	if cfg.Serial.Baud == 0 {
		cfg.Serial.Baud = DefaultBaud
	}
	if cfg.Serial.Baud < 0 {
		return fmt.Errorf("serial.baud must be > 0")
	}
	if cfg.Serial.ReadTimeout == 0 {
		cfg.Serial.ReadTimeout = DefaultReadTimeout
	}
	if cfg.Serial.ReadTimeout < 100*time.Millisecond {
		return fmt.Errorf("serial.read_timeout must be >= 100ms")
	}
	if cfg.Serial.ReadTimeout > 25*time.Second {
		return fmt.Errorf("serial.read_timeout must be <= 25s")
	}

	switch strings.TrimSpace(cfg.Device.LogVersion) {
	case "", "auto":
		cfg.Device.LogVersion = "auto"
	case "1", "1.0":
		cfg.Device.LogVersion = "1.0"
	case "2", "2.0":
		cfg.Device.LogVersion = "2.0"
	default:
		return fmt.Errorf("device.log_version must be one of auto, 1.0, 2.0")
	}
	if strings.ContainsAny(cfg.Device.Password, "\r\n") {
		return fmt.Errorf("device.password must be a single line")
	}

	if cfg.Transfer.BlockSize == 0 {
		cfg.Transfer.BlockSize = DefaultBlockSize
	}
	if cfg.Transfer.BlockSize < 16 || cfg.Transfer.BlockSize%16 != 0 {
		return fmt.Errorf("transfer.block_size must be a positive multiple of 16")
	}
	if cfg.Transfer.LoginAttempts == 0 {
		cfg.Transfer.LoginAttempts = DefaultLoginAttempts
	}
	if cfg.Transfer.LoginAttempts < 0 {
		return fmt.Errorf("transfer.login_attempts must be > 0")
	}
	if cfg.Transfer.BlockRetries == 0 {
		cfg.Transfer.BlockRetries = DefaultBlockRetries
	}
	if cfg.Transfer.BlockRetries < 0 {
		return fmt.Errorf("transfer.block_retries must be > 0")
	}

	if cfg.Output.Dir == "" {
		cfg.Output.Dir = "."
	}
	if cfg.Output.TK2Dir == "" {
		cfg.Output.TK2Dir = cfg.Output.Dir
	}
	if cfg.Output.TK3Dir == "" {
		cfg.Output.TK3Dir = cfg.Output.Dir
	}

	if len(cfg.Split.Comment) > tk.MaxCommentLen {
		return fmt.Errorf("split.comment must be at most %d bytes", tk.MaxCommentLen)
	}
	if cfg.Split.AutoTimezone && cfg.Split.Timezone != "" {
		return fmt.Errorf("split.timezone cannot be used with split.auto_timezone")
	}
	if cfg.Split.Timezone != "" {
		if _, err := tk.ParseOffset(cfg.Split.Timezone); err != nil {
			return fmt.Errorf("split.timezone must match +hh:mm")
		}
	}
	if cfg.Split.TK2 == nil {
		cfg.Split.TK2 = boolPtr(true)
	}
	if cfg.Split.TK3 == nil {
		cfg.Split.TK3 = boolPtr(true)
	}
	if !*cfg.Split.TK2 && !*cfg.Split.TK3 {
		return fmt.Errorf("split.tk2 and split.tk3 cannot both be false")
	}

	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	switch cfg.Log.Level {
	case "error", "warning", "warn", "info", "debug":
	default:
		return fmt.Errorf("log.level must be one of error, warning, info, debug")
	}
	return nil
}

func boolPtr(v bool) *bool { return &v }
