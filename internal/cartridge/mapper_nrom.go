package cartridge

// nrom implements mapper 0: 16 KiB PRG mirrored to fill 32 KiB (or 32 KiB
// direct), 8 KiB CHR-ROM/RAM, no bank switching, fixed mirroring.
type nrom struct {
	cart     *Cartridge
	prgBanks uint8
	mirror   MirrorMode
	sram     [0x2000]uint8
}

func newNROM(cart *Cartridge, mirror MirrorMode) *nrom {
	return &nrom{
		cart:     cart,
		prgBanks: uint8(len(cart.prgROM) / 0x4000),
		mirror:   mirror,
	}
}

func (m *nrom) ReadPRG(address uint16) uint8 {
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

func (m *nrom) WritePRG(address uint16, value uint8) {
	if address >= 0x6000 && address < 0x8000 {
		m.sram[address-0x6000] = value
	}
}

func (m *nrom) ReadCHR(address uint16) uint8 {
	if address < 0x2000 && int(address) < len(m.cart.chrROM) {
		return m.cart.chrROM[address]
	}
	return 0
}

func (m *nrom) WriteCHR(address uint16, value uint8) {
	if address < 0x2000 && m.cart.hasCHRRAM && int(address) < len(m.cart.chrROM) {
		m.cart.chrROM[address] = value
	}
}

func (m *nrom) Mirroring() MirrorMode { return m.mirror }

func (m *nrom) prgRAMBytes() []uint8 { return m.sram[:] }
