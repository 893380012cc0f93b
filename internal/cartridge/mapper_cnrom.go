package cartridge

// cnrom implements mapper 3: same fixed PRG as NROM, but CHR is banked in
// 8 KiB windows selected by writing the bank index to any address >= $8000.
type cnrom struct {
	cart      *Cartridge
	prgBanks  uint8
	mirror    MirrorMode
	chrBank   uint8
	sram      [0x2000]uint8
}

func newCNROM(cart *Cartridge, mirror MirrorMode) *cnrom {
	return &cnrom{
		cart:     cart,
		prgBanks: uint8(len(cart.prgROM) / 0x4000),
		mirror:   mirror,
	}
}

func (m *cnrom) ReadPRG(address uint16) uint8 {
	switch {
	case address >= 0x8000:
		if len(m.cart.prgROM) == 0 {
			return 0
		}
		offset := address - 0x8000
		if m.prgBanks == 1 {
			offset &= 0x3FFF
		}
		if int(offset) < len(m.cart.prgROM) {
			return m.cart.prgROM[offset]
		}
		return 0
	case address >= 0x6000:
		return m.sram[address-0x6000]
	default:
		return 0
	}
}

func (m *cnrom) WritePRG(address uint16, value uint8) {
	switch {
	case address >= 0x8000:
		// Bank-select register: only the low bits needed to index CHR banks
		// are meaningful, the rest of the value is ignored by real boards.
		m.chrBank = value
	case address >= 0x6000:
		m.sram[address-0x6000] = value
	}
}

func (m *cnrom) chrBankBase() int {
	banks := len(m.cart.chrROM) / 0x2000
	if banks == 0 {
		return 0
	}
	return (int(m.chrBank) % banks) * 0x2000
}

func (m *cnrom) ReadCHR(address uint16) uint8 {
	if address >= 0x2000 {
		return 0
	}
	idx := m.chrBankBase() + int(address)
	if idx < len(m.cart.chrROM) {
		return m.cart.chrROM[idx]
	}
	return 0
}

func (m *cnrom) WriteCHR(address uint16, value uint8) {
	if address >= 0x2000 || !m.cart.hasCHRRAM {
		return
	}
	idx := m.chrBankBase() + int(address)
	if idx < len(m.cart.chrROM) {
		m.cart.chrROM[idx] = value
	}
}

func (m *cnrom) Mirroring() MirrorMode { return m.mirror }

func (m *cnrom) prgRAMBytes() []uint8 { return m.sram[:] }
