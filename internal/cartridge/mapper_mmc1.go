package cartridge

// mmc1 implements mapper 1: a 5-stage serial shift register feeding four
// internal registers (control, chr bank 0, chr bank 1, prg bank), with
// switchable mirroring and PRG/CHR bank modes.
type mmc1 struct {
	cart *Cartridge

	shift      uint8
	shiftCount uint8

	control  uint8 // bits 0-1 mirroring, 2-3 PRG mode, 4 CHR mode
	chrBank0 uint8
	chrBank1 uint8
	prgBank  uint8 // bits 0-3 bank, bit 4 PRG-RAM disable

	prgRAM [0x2000]uint8
}

func newMMC1(cart *Cartridge, _ MirrorMode) *mmc1 {
	m := &mmc1{cart: cart}
	m.resetShift()
	// Power-on control state fixes the last 16 KiB bank at $C000, matching
	// real MMC1 hardware.
	m.control = 0x0C
	return m
}

func (m *mmc1) resetShift() {
	m.shift = 0
	m.shiftCount = 0
}

func (m *mmc1) ReadPRG(address uint16) uint8 {
	switch {
	case address >= 0x8000:
		bank := m.prgBankIndex(address)
		offset := bank*0x4000 + int(address&0x3FFF)
		if offset >= 0 && offset < len(m.cart.prgROM) {
			return m.cart.prgROM[offset]
		}
		return 0
	case address >= 0x6000:
		if m.prgRAMEnabled() {
			return m.prgRAM[address-0x6000]
		}
		return 0
	default:
		return 0
	}
}

func (m *mmc1) prgRAMEnabled() bool { return m.prgBank&0x10 == 0 }

func (m *mmc1) prgBankCount() int {
	n := len(m.cart.prgROM) / 0x4000
	if n == 0 {
		return 1
	}
	return n
}

func (m *mmc1) prgBankIndex(address uint16) int {
	bank := int(m.prgBank & 0x0F)
	count := m.prgBankCount()
	mode := (m.control >> 2) & 0x03
	switch mode {
	case 0, 1: // 32 KiB switch, ignoring low bit of bank
		lo := (bank &^ 1) % count
		if address < 0xC000 {
			return lo
		}
		return (lo + 1) % count
	case 2: // fix first bank at $8000, switch $C000
		if address < 0xC000 {
			return 0
		}
		return bank % count
	default: // 3: fix last bank at $C000, switch $8000
		if address < 0xC000 {
			return bank % count
		}
		return count - 1
	}
}

func (m *mmc1) WritePRG(address uint16, value uint8) {
	if address < 0x6000 {
		return
	}
	if address < 0x8000 {
		if m.prgRAMEnabled() {
			m.prgRAM[address-0x6000] = value
		}
		return
	}

	if value&0x80 != 0 {
		m.resetShift()
		m.control |= 0x0C
		return
	}

	m.shift = (m.shift >> 1) | ((value & 1) << 4)
	m.shiftCount++
	if m.shiftCount < 5 {
		return
	}

	committed := m.shift & 0x1F
	switch (address >> 13) & 0x03 {
	case 0:
		m.control = committed
	case 1:
		m.chrBank0 = committed
	case 2:
		m.chrBank1 = committed
	case 3:
		m.prgBank = committed
	}
	m.resetShift()
}

func (m *mmc1) chrBankCount4k() int {
	n := len(m.cart.chrROM) / 0x1000
	if n == 0 {
		return 1
	}
	return n
}

func (m *mmc1) chrOffset(address uint16) int {
	count := m.chrBankCount4k()
	eightKMode := m.control&0x10 == 0
	if eightKMode {
		bank := int(m.chrBank0&0x1E) % count
		return bank*0x1000 + int(address&0x1FFF)
	}
	if address < 0x1000 {
		bank := int(m.chrBank0) % count
		return bank*0x1000 + int(address&0x0FFF)
	}
	bank := int(m.chrBank1) % count
	return bank*0x1000 + int(address&0x0FFF)
}

func (m *mmc1) ReadCHR(address uint16) uint8 {
	if address >= 0x2000 {
		return 0
	}
	idx := m.chrOffset(address)
	if idx >= 0 && idx < len(m.cart.chrROM) {
		return m.cart.chrROM[idx]
	}
	return 0
}

func (m *mmc1) WriteCHR(address uint16, value uint8) {
	if address >= 0x2000 || !m.cart.hasCHRRAM {
		return
	}
	idx := m.chrOffset(address)
	if idx >= 0 && idx < len(m.cart.chrROM) {
		m.cart.chrROM[idx] = value
	}
}

func (m *mmc1) Mirroring() MirrorMode {
	switch m.control & 0x03 {
	case 0:
		return MirrorSingleScreen0
	case 1:
		return MirrorSingleScreen1
	case 2:
		return MirrorVertical
	default:
		return MirrorHorizontal
	}
}

func (m *mmc1) prgRAMBytes() []uint8 { return m.prgRAM[:] }
