package config

import (
	"path/filepath"
	"testing"
)

func TestNewPopulatesDefaults(t *testing.T) {
	c := New()
	if c.Window.Scale != 2 {
		t.Fatalf("default scale = %d, want 2", c.Window.Scale)
	}
	if c.Audio.SampleRate != 44100 {
		t.Fatalf("default sample rate = %d, want 44100", c.Audio.SampleRate)
	}
	if c.Input.Player1Keys.A != "F" || c.Input.Player1Keys.Quit != "Escape" {
		t.Fatalf("default key mapping wrong: %+v", c.Input.Player1Keys)
	}
}

func TestSaveThenLoadRoundTrips(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "gones.json")

	original := New()
	original.Window.Scale = 3
	original.Audio.Volume = 0.5
	if err := original.SaveToFile(path); err != nil {
		t.Fatalf("SaveToFile failed: %v", err)
	}

	loaded := New()
	if err := loaded.LoadFromFile(path); err != nil {
		t.Fatalf("LoadFromFile failed: %v", err)
	}
	if loaded.Window.Scale != 3 {
		t.Fatalf("loaded scale = %d, want 3", loaded.Window.Scale)
	}
	if loaded.Audio.Volume != 0.5 {
		t.Fatalf("loaded volume = %v, want 0.5", loaded.Audio.Volume)
	}
	if !loaded.IsLoaded() {
		t.Fatal("expected IsLoaded to report true after reading an existing file")
	}
}

func TestLoadFromFileWritesDefaultsWhenMissing(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "missing.json")

	c := New()
	if err := c.LoadFromFile(path); err != nil {
		t.Fatalf("LoadFromFile failed: %v", err)
	}
	if c.IsLoaded() {
		t.Fatal("expected IsLoaded to be false when the file had to be created")
	}

	reloaded := New()
	if err := reloaded.LoadFromFile(path); err != nil {
		t.Fatalf("second LoadFromFile failed: %v", err)
	}
	if !reloaded.IsLoaded() {
		t.Fatal("expected IsLoaded to be true once the default file exists")
	}
}

func TestValidateClampsOutOfRangeValues(t *testing.T) {
	c := New()
	c.Window.Scale = -1
	c.Audio.SampleRate = 0
	c.Audio.Volume = 5.0
	c.Emulation.FrameRate = -60

	c.validate()

	if c.Window.Scale != 1 {
		t.Fatalf("scale = %d, want clamped to 1", c.Window.Scale)
	}
	if c.Audio.SampleRate != 44100 {
		t.Fatalf("sample rate = %d, want clamped to 44100", c.Audio.SampleRate)
	}
	if c.Audio.Volume != 0.8 {
		t.Fatalf("volume = %v, want clamped to 0.8", c.Audio.Volume)
	}
	if c.Emulation.FrameRate != 60.0 {
		t.Fatalf("frame rate = %v, want clamped to 60.0", c.Emulation.FrameRate)
	}
}

func TestSavePathDerivesFromROMBasename(t *testing.T) {
	c := New()
	c.Paths.SaveData = "/saves"
	got := c.SavePath("/roms/SuperGame.nes")
	want := filepath.Join("/saves", "SuperGame.sav")
	if got != want {
		t.Fatalf("SavePath = %q, want %q", got, want)
	}
}

func TestGetWindowResolutionScalesNESResolution(t *testing.T) {
	c := New()
	c.Window.Scale = 3
	w, h := c.GetWindowResolution()
	if w != 768 || h != 720 {
		t.Fatalf("window resolution = %dx%d, want 768x720", w, h)
	}
}
