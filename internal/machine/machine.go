// Package machine orchestrates the emulator's lifecycle: loading a
// cartridge, wiring it into the bus, restoring and persisting battery-backed
// PRG-RAM, and handing the running bus off to a video/audio/input sink.
package machine

import (
	"fmt"
	"os"
	"path/filepath"

	"gones/internal/bus"
	"gones/internal/cartridge"
	"gones/internal/config"
	"gones/internal/input"
	"gones/internal/logging"
)

// Error wraps a failure at a specific stage of the machine's lifecycle,
// the way the reference application tags errors by component and operation.
type Error struct {
	Component string
	Operation string
	Err       error
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %s: %v", e.Component, e.Operation, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// Machine owns the bus and the currently loaded cartridge, and knows how to
// persist battery-backed save RAM across runs.
type Machine struct {
	Bus     *bus.Bus
	cart    *cartridge.Cartridge
	cfg     *config.Config
	romPath string
	log     *logging.Logger
}

// New builds a Machine around a fresh bus; no cartridge is loaded yet.
func New(cfg *config.Config) *Machine {
	return &Machine{
		Bus: bus.New(),
		cfg: cfg,
		log: logging.New("machine"),
	}
}

// LoadROM reads the iNES file at romPath, wires it into the bus, and
// restores any existing battery-backed save RAM.
func (m *Machine) LoadROM(romPath string) error {
	cart, err := cartridge.LoadFromFile(romPath)
	if err != nil {
		return &Error{Component: "cartridge", Operation: "load ROM", Err: err}
	}

	m.cart = cart
	m.romPath = romPath
	m.Bus.LoadCartridge(cart)

	if cart.HasBattery() {
		if err := m.loadSaveRAM(); err != nil {
			m.log.Warnf("no save RAM restored for %s: %v", filepath.Base(romPath), err)
		}
	}

	m.Bus.SetAudioSampleRate(m.cfg.Audio.SampleRate)
	return nil
}

// loadSaveRAM populates PRG-RAM from the cartridge's .sav file, if present.
func (m *Machine) loadSaveRAM() error {
	path := m.cfg.SavePath(m.romPath)
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}
	m.cart.LoadPRGRAM(data)
	return nil
}

// SaveRAM writes the cartridge's current PRG-RAM to its .sav file, if the
// cartridge is battery-backed. Called on clean shutdown.
func (m *Machine) SaveRAM() error {
	if m.cart == nil || !m.cart.HasBattery() {
		return nil
	}

	path := m.cfg.SavePath(m.romPath)
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return &Error{Component: "save-ram", Operation: "create directory", Err: err}
		}
	}
	if err := os.WriteFile(path, m.cart.SavePRGRAM(), 0644); err != nil {
		return &Error{Component: "save-ram", Operation: "write file", Err: err}
	}
	return nil
}

// ROMPath returns the path of the currently loaded ROM.
func (m *Machine) ROMPath() string { return m.romPath }

// Reset performs a soft reset, preserving RAM and the loaded cartridge.
func (m *Machine) Reset() { m.Bus.Reset() }

// RunUntilNMI, FrameBuffer, GetAudioSamples, and SetControllerButton forward
// to the bus so Machine itself satisfies video.EmulatorCore; the frontend
// drives the machine rather than reaching into its bus directly.
func (m *Machine) RunUntilNMI() { m.Bus.RunUntilNMI() }

func (m *Machine) FrameBuffer() [256 * 240]uint32 { return m.Bus.FrameBuffer() }

func (m *Machine) GetAudioSamples() []float32 { return m.Bus.GetAudioSamples() }

func (m *Machine) SetControllerButton(controller int, button input.Button, pressed bool) {
	m.Bus.SetControllerButton(controller, button, pressed)
}

// Shutdown persists save RAM and reports any failure wrapped with context.
func (m *Machine) Shutdown() error {
	if err := m.SaveRAM(); err != nil {
		return err
	}
	return nil
}
