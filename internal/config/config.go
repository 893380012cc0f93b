// Package config loads and validates the emulator's JSON-backed settings
// tree: window, video, audio, input, emulation, debug, and filesystem paths.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// Config holds all application configuration.
type Config struct {
	Window    WindowConfig    `json:"window"`
	Video     VideoConfig     `json:"video"`
	Audio     AudioConfig     `json:"audio"`
	Input     InputConfig     `json:"input"`
	Emulation EmulationConfig `json:"emulation"`
	Debug     DebugConfig     `json:"debug"`
	Paths     PathsConfig     `json:"paths"`

	configPath string
	loaded     bool
}

// WindowConfig contains window-related configuration.
type WindowConfig struct {
	Fullscreen bool `json:"fullscreen"`
	Scale      int  `json:"scale"` // NES resolution multiplier
}

// VideoConfig contains video rendering configuration.
type VideoConfig struct {
	VSync  bool   `json:"vsync"`
	Filter string `json:"filter"` // "nearest", "linear"
}

// AudioConfig contains audio configuration.
type AudioConfig struct {
	Enabled    bool    `json:"enabled"`
	SampleRate int     `json:"sample_rate"`
	Volume     float32 `json:"volume"`
}

// InputConfig contains the named-key input mapping.
type InputConfig struct {
	Player1Keys KeyMapping `json:"player1_keys"`
	Player2Keys KeyMapping `json:"player2_keys"`
}

// KeyMapping maps NES controller buttons to key names.
type KeyMapping struct {
	Up     string `json:"up"`
	Down   string `json:"down"`
	Left   string `json:"left"`
	Right  string `json:"right"`
	A      string `json:"a"`
	B      string `json:"b"`
	Start  string `json:"start"`
	Select string `json:"select"`
	Reset  string `json:"reset"`
	Quit   string `json:"quit"`
}

// EmulationConfig contains emulation-specific settings.
type EmulationConfig struct {
	FrameRate float64 `json:"frame_rate"`
}

// DebugConfig contains debugging and development options.
type DebugConfig struct {
	LogLevel   string `json:"log_level"` // "DEBUG", "INFO", "WARN", "ERROR"
	CPUTracing bool   `json:"cpu_tracing"`
}

// PathsConfig contains file and directory paths.
type PathsConfig struct {
	SaveData string `json:"save_data"`
	Logs     string `json:"logs"`
}

// New creates a configuration populated with defaults.
func New() *Config {
	return &Config{
		Window: WindowConfig{
			Fullscreen: false,
			Scale:      2,
		},
		Video: VideoConfig{
			VSync:  true,
			Filter: "nearest",
		},
		Audio: AudioConfig{
			Enabled:    true,
			SampleRate: 44100,
			Volume:     0.8,
		},
		Input: InputConfig{
			Player1Keys: KeyMapping{
				Up: "Up", Down: "Down", Left: "Left", Right: "Right",
				A: "F", B: "D", Start: "Return", Select: "S",
				Reset: "R", Quit: "Escape",
			},
		},
		Emulation: EmulationConfig{
			FrameRate: 60.0,
		},
		Debug: DebugConfig{
			LogLevel: "INFO",
		},
		Paths: PathsConfig{
			SaveData: ".",
			Logs:     ".",
		},
	}
}

// LoadFromFile loads configuration from a JSON file, writing out the
// default configuration if the file does not yet exist.
func (c *Config) LoadFromFile(path string) error {
	c.configPath = path

	if _, err := os.Stat(path); os.IsNotExist(err) {
		return c.SaveToFile(path)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}
	if err := json.Unmarshal(data, c); err != nil {
		return fmt.Errorf("parse config file: %w", err)
	}
	c.validate()

	c.loaded = true
	return nil
}

// SaveToFile writes the configuration to a JSON file, creating its parent
// directory if necessary.
func (c *Config) SaveToFile(path string) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("create config directory: %w", err)
		}
	}

	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("write config file: %w", err)
	}

	c.configPath = path
	return nil
}

// validate clamps out-of-range values to safe defaults rather than
// rejecting the whole file over one bad field.
func (c *Config) validate() {
	if c.Window.Scale <= 0 {
		c.Window.Scale = 1
	}
	if c.Audio.SampleRate <= 0 {
		c.Audio.SampleRate = 44100
	}
	if c.Audio.Volume < 0.0 || c.Audio.Volume > 1.0 {
		c.Audio.Volume = 0.8
	}
	if c.Emulation.FrameRate <= 0 {
		c.Emulation.FrameRate = 60.0
	}
}

// GetNESResolution returns the native NES resolution.
func (c *Config) GetNESResolution() (int, int) { return 256, 240 }

// GetWindowResolution returns the window resolution given the configured
// scale factor.
func (c *Config) GetWindowResolution() (int, int) {
	w, h := c.GetNESResolution()
	return w * c.Window.Scale, h * c.Window.Scale
}

// IsLoaded reports whether the configuration was loaded from an existing
// file (as opposed to freshly written defaults).
func (c *Config) IsLoaded() bool { return c.loaded }

// SavePath returns the path where PRG-RAM should be saved for the given
// ROM path: same basename, `.sav` extension, under Paths.SaveData.
func (c *Config) SavePath(romPath string) string {
	base := filepath.Base(romPath)
	ext := filepath.Ext(base)
	name := base[:len(base)-len(ext)] + ".sav"
	return filepath.Join(c.Paths.SaveData, name)
}

// DefaultPath returns the default configuration file path.
func DefaultPath() string {
	return "./gones.json"
}
