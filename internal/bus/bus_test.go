package bus

import (
	"bytes"
	"testing"

	"gones/internal/cartridge"
)

// newTestCartridge builds a minimal one-bank NROM image with a RESET vector
// that spins on an infinite loop, so tests can step a known number of
// cycles without the CPU running off into undefined opcodes.
func newTestCartridge(t *testing.T) *cartridge.Cartridge {
	t.Helper()
	var buf bytes.Buffer
	buf.WriteString("NES\x1A")
	buf.WriteByte(1) // 16 KiB PRG-ROM
	buf.WriteByte(1) // 8 KiB CHR-ROM
	buf.WriteByte(0) // mapper 0, horizontal mirroring
	buf.WriteByte(0)
	buf.Write(make([]byte, 8)) // remaining header bytes

	prg := make([]byte, 16384)
	prg[0x3FFC] = 0x00 // reset vector low -> $8000
	prg[0x3FFD] = 0x80
	prg[0x0000] = 0x4C // JMP $8000 (infinite loop at reset)
	prg[0x0001] = 0x00
	prg[0x0002] = 0x80
	buf.Write(prg)
	buf.Write(make([]byte, 8192)) // CHR-ROM

	cart, err := cartridge.LoadFromReader(&buf)
	if err != nil {
		t.Fatalf("failed to build test cartridge: %v", err)
	}
	return cart
}

func TestLoadCartridgeResetsCPUToVector(t *testing.T) {
	b := New()
	b.LoadCartridge(newTestCartridge(t))

	if b.CPU.PC != 0x8000 {
		t.Fatalf("PC = %#x, want 0x8000", b.CPU.PC)
	}
}

func TestStepAdvancesPPUThreeDotsPerCPUCycle(t *testing.T) {
	b := New()
	b.LoadCartridge(newTestCartridge(t))

	cycles := b.Step()
	if cycles == 0 {
		t.Fatal("expected at least one CPU cycle consumed")
	}
	if b.GetCycleCount() != cycles {
		t.Fatalf("total cycle count = %d, want %d", b.GetCycleCount(), cycles)
	}
	// The PPU starts at dot 0 of the pre-render line after LoadCartridge.
	if got := b.PPU.Dot(); got != int(cycles*3) {
		t.Fatalf("PPU dot = %d, want %d (3 per CPU cycle)", got, cycles*3)
	}
}

func TestOAMDMAStallsCPUFor513Or514Cycles(t *testing.T) {
	b := New()
	b.LoadCartridge(newTestCartridge(t))

	before := b.GetCycleCount()
	b.TriggerOAMDMA(0x02)
	if !b.IsDMAInProgress() {
		t.Fatal("expected DMA in progress immediately after trigger")
	}

	for b.IsDMAInProgress() {
		b.Step()
	}

	elapsed := b.GetCycleCount() - before
	if elapsed != 513 && elapsed != 514 {
		t.Fatalf("DMA stall took %d cycles, want 513 or 514", elapsed)
	}
}

func TestPollNMITracksPPUNMILine(t *testing.T) {
	b := New()
	b.LoadCartridge(newTestCartridge(t))

	b.nmiLine = false
	b.PPU.WriteRegister(0x2000, 0x80) // enable NMI generation in ctrl
	// Force the PPU status register's vblank bit directly is not exposed;
	// instead exercise pollNMI's edge-detection bookkeeping in isolation.
	b.nmiLine = true
	b.pollNMI()
	if b.nmiLine != b.PPU.NMIAsserted() {
		t.Fatalf("expected nmiLine to track the PPU's own NMI line")
	}
}

func TestGetCPUStateReflectsRegisters(t *testing.T) {
	b := New()
	b.LoadCartridge(newTestCartridge(t))

	state := b.GetCPUState()
	if state.PC != 0x8000 {
		t.Fatalf("CPU state PC = %#x, want 0x8000", state.PC)
	}
}

func TestSoftResetPreservesRAMAndDecrementsSP(t *testing.T) {
	b := New()
	b.LoadCartridge(newTestCartridge(t))

	b.Memory.Write(0x0010, 0x42)
	b.CPU.SP = 0xF0

	b.Reset()

	if b.Memory.Read(0x0010) != 0x42 {
		t.Fatalf("soft reset should not clear RAM")
	}
	if b.CPU.SP != 0xED {
		t.Fatalf("CPU SP = %#x, want 0xED (0xF0 - 3)", b.CPU.SP)
	}
	if b.CPU.PC != 0x8000 {
		t.Fatalf("soft reset should reload the reset vector, PC = %#x", b.CPU.PC)
	}
}

func TestSetControllerButtonRoutesToCorrectPort(t *testing.T) {
	b := New()
	b.LoadCartridge(newTestCartridge(t))

	b.SetControllerButton(1, 1, true) // ButtonA == 1
	if !b.Input.Controller1.IsPressed(1) {
		t.Fatal("expected controller 1 to receive the button press")
	}
	if b.Input.Controller2.IsPressed(1) {
		t.Fatal("controller 2 should be unaffected")
	}
}
