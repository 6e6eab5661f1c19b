package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/KevinKickass/OpenStompCore/internal/types"
	"github.com/spf13/viper"
)

const (
	BackendRPIO      = "rpio"
	BackendSimulated = "simulated"
)

type Config struct {
	Server ServerConfig `mapstructure:"server"`
	Log    LogConfig    `mapstructure:"log"`
	Matrix MatrixConfig `mapstructure:"matrix"`
	MIDI   MIDIConfig   `mapstructure:"midi"`
	Setup  SetupConfig  `mapstructure:"setup"`
}

type ServerConfig struct {
	Enabled         bool          `mapstructure:"enabled"`
	HTTPPort        int           `mapstructure:"http_port"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

type LogConfig struct {
	Development bool `mapstructure:"development"`
}

// MatrixConfig describes the switch matrix wiring. Pins are BCM GPIO numbers.
type MatrixConfig struct {
	Backend          string        `mapstructure:"backend"`
	RowPins          []uint8       `mapstructure:"row_pins"`
	ColumnPins       []uint8       `mapstructure:"column_pins"`
	Debounce         time.Duration `mapstructure:"debounce"`
	PollInterval     time.Duration `mapstructure:"poll_interval"`
	EdgePollInterval time.Duration `mapstructure:"edge_poll_interval"`
}

// PortsConfig maps the controller's MIDI ports to system port names. An
// empty name leaves the port unconnected.
type PortsConfig struct {
	USB   string `mapstructure:"usb"`
	MIDI1 string `mapstructure:"midi1"`
	MIDI2 string `mapstructure:"midi2"`
	MIDI3 string `mapstructure:"midi3"`
}

type MIDIConfig struct {
	Outputs        PortsConfig   `mapstructure:"outputs"`
	Inputs         PortsConfig   `mapstructure:"inputs"`
	EditorIn       string        `mapstructure:"editor_in"`
	EditorOut      string        `mapstructure:"editor_out"`
	DetectInterval time.Duration `mapstructure:"detect_interval"`
	DetectTimeout  time.Duration `mapstructure:"detect_timeout"`
}

type SetupConfig struct {
	Path string `mapstructure:"path"`
}

func Load(path string) (*Config, error) {
	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")

	setDefaults(v)

	// Environment variables with prefix STOMP_, e.g. STOMP_SERVER_HTTP_PORT
	v.SetEnvPrefix("STOMP")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}

	return &config, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.enabled", true)
	v.SetDefault("server.http_port", 8080)
	v.SetDefault("server.shutdown_timeout", "10s")

	v.SetDefault("log.development", false)

	v.SetDefault("matrix.backend", BackendRPIO)
	v.SetDefault("matrix.row_pins", []uint8{5, 6, 13, 19})
	v.SetDefault("matrix.column_pins", []uint8{12, 16, 20, 21})
	v.SetDefault("matrix.debounce", "20ms")
	v.SetDefault("matrix.poll_interval", "2ms")
	v.SetDefault("matrix.edge_poll_interval", "1ms")

	v.SetDefault("midi.detect_interval", "2s")
	v.SetDefault("midi.detect_timeout", "5s")

	v.SetDefault("setup.path", "configs/setup.yaml")
}

func (c *Config) Validate() error {
	switch c.Matrix.Backend {
	case BackendRPIO, BackendSimulated:
	default:
		return fmt.Errorf("matrix.backend: unknown backend %q", c.Matrix.Backend)
	}

	if len(c.Matrix.RowPins) == 0 || len(c.Matrix.ColumnPins) == 0 {
		return fmt.Errorf("matrix: row_pins and column_pins must not be empty")
	}
	if len(c.Matrix.RowPins)*len(c.Matrix.ColumnPins) > 254 {
		return fmt.Errorf("matrix: %dx%d switches exceed 254 ids", len(c.Matrix.RowPins), len(c.Matrix.ColumnPins))
	}
	if c.Matrix.Debounce <= 0 {
		return fmt.Errorf("matrix.debounce must be positive")
	}
	if c.Matrix.PollInterval <= 0 || c.Matrix.EdgePollInterval <= 0 {
		return fmt.Errorf("matrix: poll intervals must be positive")
	}

	if c.MIDI.DetectInterval <= 0 {
		return fmt.Errorf("midi.detect_interval must be positive")
	}
	if c.MIDI.DetectTimeout < c.MIDI.DetectInterval {
		return fmt.Errorf("midi.detect_timeout must not be shorter than detect_interval")
	}

	if c.Setup.Path == "" {
		return fmt.Errorf("setup.path must be set")
	}

	return nil
}

// Names returns the configured system port name per controller port.
func (p PortsConfig) Names() map[types.MIDIPort]string {
	names := make(map[types.MIDIPort]string, types.NumberOfMIDIPorts)
	for port, name := range map[types.MIDIPort]string{
		types.PortUSB:   p.USB,
		types.PortMIDI1: p.MIDI1,
		types.PortMIDI2: p.MIDI2,
		types.PortMIDI3: p.MIDI3,
	} {
		if name != "" {
			names[port] = name
		}
	}
	return names
}
