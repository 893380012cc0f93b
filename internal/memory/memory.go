// Package memory implements the CPU-visible address decode for the NES:
// internal RAM, the PPU/APU/controller register windows, and the
// cartridge window. Nametable VRAM, OAM, and palette RAM live inside the
// PPU itself (it is the sole owner of that state); this package only
// routes CPU reads and writes to the right collaborator.
package memory

import "gones/internal/logging"

// PPUInterface is the narrow register surface the bus-visible memory map
// needs from the PPU. sideEffects distinguishes a normal CPU read (which
// clears vblank/the write latch/advances the $2007 buffer) from a clean
// inspection read used by the disassembler.
type PPUInterface interface {
	ReadRegister(address uint16, sideEffects bool) uint8
	WriteRegister(address uint16, value uint8)
	WriteOAM(index uint8, value uint8)
}

// APUInterface defines the interface for APU register access.
type APUInterface interface {
	WriteRegister(address uint16, value uint8)
	ReadStatus() uint8
}

// InputInterface defines the interface for controller register access.
type InputInterface interface {
	Read(address uint16) uint8
	Write(address uint16, value uint8)
}

// CartridgeInterface defines the interface for cartridge PRG access.
type CartridgeInterface interface {
	ReadPRG(address uint16) uint8
	WritePRG(address uint16, value uint8)
}

// Memory is the CPU's view of the 64KiB address space.
type Memory struct {
	ram [0x800]uint8

	ppu   PPUInterface
	apu   APUInterface
	input InputInterface
	cart  CartridgeInterface

	dmaCallback func(uint8)

	openBusValue uint8

	log *logging.Logger
}

// New creates a Memory wired to the PPU and APU register collaborators and
// the active cartridge.
func New(ppu PPUInterface, apu APUInterface, cart CartridgeInterface) *Memory {
	return &Memory{
		ppu:  ppu,
		apu:  apu,
		cart: cart,
		log:  logging.New("memory"),
	}
}

// SetInputSystem wires the controller ports in; it is set up after New
// because the bus constructs input before memory but wires it in afterward.
func (m *Memory) SetInputSystem(input InputInterface) { m.input = input }

// SetDMACallback installs the OAM DMA stall hook driven by the bus's cycle
// accounting; without it DMA still runs, just without the 513/514-cycle stall.
func (m *Memory) SetDMACallback(callback func(uint8)) { m.dmaCallback = callback }

// Read reads a byte from the CPU's address space, updating the open-bus
// latch as a side effect (mirrors real hardware's bus capacitance).
func (m *Memory) Read(address uint16) uint8 {
	var value uint8
	switch {
	case address < 0x2000:
		value = m.ram[address&0x07FF]

	case address < 0x4000:
		value = m.ppu.ReadRegister(0x2000+(address&0x0007), true)

	case address < 0x4020:
		value = m.readIO(address)

	case address >= 0x6000 && address < 0x8000:
		if m.cart != nil {
			value = m.cart.ReadPRG(address)
		} else {
			value = m.openBusValue
		}

	case address < 0x8000:
		value = m.openBusValue

	default:
		if m.cart != nil {
			value = m.cart.ReadPRG(address)
		} else {
			value = m.openBusValue
		}
	}
	m.openBusValue = value
	return value
}

func (m *Memory) readIO(address uint16) uint8 {
	switch {
	case address == 0x4015:
		return m.apu.ReadStatus()
	case address == 0x4016 || address == 0x4017:
		if m.input != nil {
			return m.input.Read(address)
		}
		return 0
	case address >= 0x4018:
		return 0xFF // test-mode registers, disabled on retail hardware
	default:
		return m.openBusValue
	}
}

// Write writes a byte to the CPU's address space.
func (m *Memory) Write(address uint16, value uint8) {
	switch {
	case address < 0x2000:
		m.ram[address&0x07FF] = value

	case address < 0x4000:
		m.ppu.WriteRegister(0x2000+(address&0x0007), value)

	case address < 0x4020:
		m.writeIO(address, value)

	case address >= 0x6000 && address < 0x8000:
		if m.cart != nil {
			m.cart.WritePRG(address, value)
		}

	case address < 0x8000:
		// cartridge expansion area, unmapped on all mappers in scope

	default:
		if m.cart != nil {
			m.cart.WritePRG(address, value)
		}
	}
}

func (m *Memory) writeIO(address uint16, value uint8) {
	switch {
	case address == 0x4014:
		if m.dmaCallback != nil {
			m.dmaCallback(value)
		} else {
			m.performOAMDMA(value)
		}
	case address == 0x4016:
		if m.input != nil {
			m.input.Write(address, value)
		}
	case address >= 0x4000 && address <= 0x4013, address == 0x4015, address == 0x4017:
		m.apu.WriteRegister(address, value)
	default:
		// $4018-$401F: test-mode registers, writes ignored
	}
}

// performOAMDMA performs an immediate 256-byte copy from a CPU page into
// OAM; used as a fallback when no cycle-stalling DMA hook is installed.
func (m *Memory) performOAMDMA(page uint8) {
	base := uint16(page) << 8
	for i := uint16(0); i < 256; i++ {
		m.ppu.WriteOAM(uint8(i), m.Read(base+i))
	}
}
