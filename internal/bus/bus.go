// Package bus wires the CPU, PPU, APU, memory, and input together and
// drives the system clock: three PPU dots and one APU tick per CPU cycle.
package bus

import (
	"fmt"

	"gones/internal/apu"
	"gones/internal/cartridge"
	"gones/internal/cpu"
	"gones/internal/input"
	"gones/internal/logging"
	"gones/internal/memory"
	"gones/internal/ppu"
)

// Bus owns every component and is the sole clock source in the system.
type Bus struct {
	CPU    *cpu.CPU
	PPU    *ppu.PPU
	APU    *apu.APU
	Memory *memory.Memory
	Input  *input.InputState

	cart *cartridge.Cartridge

	totalCycles uint64
	cpuCycles   uint64
	frameCount  uint64

	dmaSuspendCycles uint64
	dmaInProgress    bool

	nmiLine bool // last-observed state of ppu.NMIAsserted(), for edge detection

	log *logging.Logger

	executionLog   []BusExecutionEvent
	loggingEnabled bool
}

// New creates a bus with no cartridge loaded. Call LoadCartridge before
// stepping.
func New() *Bus {
	b := &Bus{
		log: logging.New("bus"),
	}
	b.APU = apu.New()
	b.Input = input.NewInputState()
	b.powerOn()
	return b
}

// powerOn (re)builds every component from scratch, as happens on real
// hardware power-up or whenever a new cartridge is inserted. Memory is
// reallocated, so RAM does not survive this path.
func (b *Bus) powerOn() {
	if b.cart != nil {
		b.PPU = ppu.New(b.cart)
		b.Memory = memory.New(b.PPU, b.APU, b.cart)
	} else {
		b.Memory = memory.New(b.PPU, b.APU, nil)
	}
	b.Memory.SetInputSystem(b.Input)
	b.Memory.SetDMACallback(b.TriggerOAMDMA)
	b.CPU = cpu.New(b.Memory)

	b.APU.Reset()
	b.Input.Reset()
	if b.PPU != nil {
		b.PPU.Reset()
	}

	b.totalCycles = 0
	b.cpuCycles = 0
	b.frameCount = 0
	b.dmaSuspendCycles = 0
	b.dmaInProgress = false
	b.nmiLine = false
	b.executionLog = nil
}

// Reset performs a soft reset, as triggered by the console's reset line. RAM
// survives: Memory is never reallocated, only the CPU, PPU, APU, and input
// latches are reinitialized. The CPU's SP moves by -3 rather than being set
// to a fixed value; see cpu.CPU.Reset.
func (b *Bus) Reset() {
	b.APU.Reset()
	b.Input.Reset()
	if b.PPU != nil {
		b.PPU.Reset()
	}
	b.CPU.Reset()

	b.dmaSuspendCycles = 0
	b.dmaInProgress = false
	b.nmiLine = false
}

// LoadCartridge installs a cartridge and powers the system on around it.
func (b *Bus) LoadCartridge(cart *cartridge.Cartridge) {
	b.cart = cart
	b.powerOn()
}

// pollNMI detects the rising edge of the PPU's NMI line (vblank flag AND
// the ctrl NMI-enable bit both set) and queues an NMI on the CPU. The PPU
// never calls into the CPU directly; the bus is the only place that
// observes both sides of the line.
func (b *Bus) pollNMI() {
	asserted := b.PPU.NMIAsserted()
	if asserted && !b.nmiLine {
		b.CPU.QueueNMI()
	}
	b.nmiLine = asserted
}

// Step advances the system by one CPU instruction (or, while a DMA stall is
// in progress, by one stalled CPU cycle) and keeps the PPU/APU in lockstep.
func (b *Bus) Step() uint64 {
	var cpuCyclesUsed uint64

	if b.dmaSuspendCycles > 0 {
		b.dmaSuspendCycles--
		if b.dmaSuspendCycles == 0 {
			b.dmaInProgress = false
		}
		cpuCyclesUsed = 1
	} else {
		cpuCyclesUsed = b.CPU.Step()
	}

	for i := uint64(0); i < cpuCyclesUsed*3; i++ {
		b.PPU.Tick()
		b.pollNMI()
	}
	for i := uint64(0); i < cpuCyclesUsed; i++ {
		b.APU.Step()
	}
	b.CPU.SetIRQ(b.APU.GetFrameIRQ())

	if b.PPU.ConsumeFrameReady() {
		b.frameCount++
	}

	b.cpuCycles += cpuCyclesUsed
	b.totalCycles += cpuCyclesUsed

	if b.loggingEnabled {
		b.executionLog = append(b.executionLog, BusExecutionEvent{
			PC:    b.CPU.PC,
			Cycle: b.totalCycles,
			Frame: b.frameCount,
		})
	}

	return cpuCyclesUsed
}

// TriggerOAMDMA performs a 256-byte OAM DMA transfer from the given CPU
// memory page and stalls the CPU for 513 or 514 cycles depending on
// whether the transfer starts on an odd CPU cycle.
func (b *Bus) TriggerOAMDMA(sourcePage uint8) {
	base := uint16(sourcePage) << 8
	for i := uint16(0); i < 256; i++ {
		b.PPU.WriteOAM(uint8(i), b.Memory.Read(base+i))
	}

	stall := uint64(513)
	if b.cpuCycles%2 == 1 {
		stall = 514
	}
	b.dmaSuspendCycles = stall
	b.dmaInProgress = true
}

// Run advances the bus until the given number of frames have completed.
func (b *Bus) Run(frames int) {
	target := b.frameCount + uint64(frames)
	for b.frameCount < target {
		b.Step()
	}
}

// RunCycles advances the bus by approximately the given number of CPU
// cycles (instruction-granular, so the actual count may overshoot).
func (b *Bus) RunCycles(cycles uint64) {
	target := b.cpuCycles + cycles
	for b.cpuCycles < target {
		b.Step()
	}
}

// RunUntilNMI steps the bus until the PPU sets its vblank flag (scanline
// 241, dot 1), returning after the instruction during which that happens.
// It returns whether or not NMI generation is enabled, and it does not wait
// for the CPU to service an NMI. This is the control-flow primitive a
// frontend uses to run exactly one emulated frame's worth of CPU work.
func (b *Bus) RunUntilNMI() {
	before := b.frameCount
	for b.frameCount == before {
		b.Step()
	}
}

// FrameBuffer returns the most recently completed frame's pixel buffer.
func (b *Bus) FrameBuffer() [256 * 240]uint32 {
	return b.PPU.FrameBuffer()
}

// GetAudioSamples drains and returns the buffered audio samples.
func (b *Bus) GetAudioSamples() []float32 {
	return b.APU.GetSamples()
}

// SetAudioSampleRate sets the APU's target output sample rate.
func (b *Bus) SetAudioSampleRate(rate int) {
	b.APU.SetSampleRate(rate)
}

// GetCycleCount returns the total CPU cycle count since the last reset.
func (b *Bus) GetCycleCount() uint64 { return b.totalCycles }

// GetFrameCount returns the number of frames rendered since the last reset.
func (b *Bus) GetFrameCount() uint64 { return b.frameCount }

// IsDMAInProgress reports whether an OAM DMA stall is in progress.
func (b *Bus) IsDMAInProgress() bool { return b.dmaInProgress }

// SetControllerButton sets a single button's state on controller 1 or 2.
func (b *Bus) SetControllerButton(controller int, button input.Button, pressed bool) {
	switch controller {
	case 1:
		b.Input.Controller1.SetButton(button, pressed)
	case 2:
		b.Input.Controller2.SetButton(button, pressed)
	default:
		b.log.Warnf("ignoring button update for unknown controller %d", controller)
	}
}

// SetControllerButtons sets all eight buttons at once on controller 1 or 2.
func (b *Bus) SetControllerButtons(controller int, buttons [8]bool) {
	switch controller {
	case 1:
		b.Input.SetButtons1(buttons)
	case 2:
		b.Input.SetButtons2(buttons)
	default:
		b.log.Warnf("ignoring button update for unknown controller %d", controller)
	}
}

// GetInputState returns the bus's input state for direct inspection.
func (b *Bus) GetInputState() *input.InputState { return b.Input }

// BusExecutionEvent is one entry of the optional per-step execution trace
// used by the disassembler and debugging tools.
type BusExecutionEvent struct {
	PC    uint16
	Cycle uint64
	Frame uint64
}

// EnableExecutionLogging turns on per-step event recording.
func (b *Bus) EnableExecutionLogging() { b.loggingEnabled = true }

// DisableExecutionLogging turns off per-step event recording.
func (b *Bus) DisableExecutionLogging() { b.loggingEnabled = false }

// ClearExecutionLog discards any recorded execution events.
func (b *Bus) ClearExecutionLog() { b.executionLog = nil }

// GetExecutionLog returns the recorded execution events.
func (b *Bus) GetExecutionLog() []BusExecutionEvent { return b.executionLog }

// CPUState is a snapshot of CPU registers for debugging and the disassembler.
type CPUState struct {
	PC      uint16
	A, X, Y uint8
	SP      uint8
	Flags   CPUFlags
	Cycles  uint64
}

// CPUFlags is a snapshot of the CPU status flags.
type CPUFlags struct {
	N, V, B, D, I, Z, C bool
}

// GetCPUState returns a snapshot of the current CPU register state.
func (b *Bus) GetCPUState() CPUState {
	return CPUState{
		PC: b.CPU.PC,
		A:  b.CPU.A,
		X:  b.CPU.X,
		Y:  b.CPU.Y,
		SP: b.CPU.SP,
		Flags: CPUFlags{
			N: b.CPU.N, V: b.CPU.V, B: b.CPU.B,
			D: b.CPU.D, I: b.CPU.I, Z: b.CPU.Z, C: b.CPU.C,
		},
		Cycles: b.CPU.Cycles(),
	}
}

// PPUState is a snapshot of PPU state for debugging.
type PPUState struct {
	Scanline   int
	Dot        int
	FrameCount uint64
	NMIEnabled bool
}

// GetPPUState returns a snapshot of the current PPU state for inspection;
// it never disturbs emulation state.
func (b *Bus) GetPPUState() PPUState {
	return PPUState{
		Scanline:   b.PPU.Scanline(),
		Dot:        b.PPU.Dot(),
		FrameCount: b.PPU.FrameCount(),
		NMIEnabled: b.PPU.NMIEnabled(),
	}
}

// String implements fmt.Stringer for quick debugging output.
func (s CPUState) String() string {
	return fmt.Sprintf("PC:%04X A:%02X X:%02X Y:%02X SP:%02X CYC:%d", s.PC, s.A, s.X, s.Y, s.SP, s.Cycles)
}
