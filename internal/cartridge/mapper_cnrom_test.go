package cartridge

import "testing"

func newCNROMForTest(chrBanks int) *cnrom {
	cart := &Cartridge{
		prgROM: make([]uint8, 0x4000),
		chrROM: make([]uint8, chrBanks*0x2000),
	}
	for i := 0; i < chrBanks; i++ {
		for b := 0; b < 0x2000; b++ {
			cart.chrROM[i*0x2000+b] = uint8(i)
		}
	}
	return newCNROM(cart, MirrorVertical)
}

func TestCNROMBankSelectAnyAddressAbove8000(t *testing.T) {
	m := newCNROMForTest(4)
	m.WritePRG(0xC000, 2)
	if got := m.ReadCHR(0x0000); got != 2 {
		t.Fatalf("expected bank 2 selected, got tile byte %d", got)
	}
	m.WritePRG(0x8000, 3)
	if got := m.ReadCHR(0x0000); got != 3 {
		t.Fatalf("expected bank 3 selected, got tile byte %d", got)
	}
}

func TestCNROMPRGWritesDoNotReachROM(t *testing.T) {
	m := newCNROMForTest(1)
	before := m.ReadPRG(0x8000)
	m.WritePRG(0x8000, 0xFF) // this is a bank-select write, not a ROM write
	if got := m.ReadPRG(0x8000); got != before {
		t.Fatalf("PRG ROM contents changed unexpectedly")
	}
}
