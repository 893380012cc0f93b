package ppu

import "testing"

func TestStatusReadClearsVBlankAndWriteLatchOnlyWithSideEffects(t *testing.T) {
	p, _ := newTestPPU()
	p.status = 0x80

	clean := p.ReadRegister(0x2002, false)
	if clean&0x80 == 0 {
		t.Fatalf("expected vblank bit set in clean read")
	}
	if p.status&0x80 == 0 {
		t.Fatalf("clean read must not clear vblank")
	}

	mutating := p.ReadRegister(0x2002, true)
	if mutating&0x80 == 0 {
		t.Fatalf("expected vblank bit in mutating read result")
	}
	if p.status&0x80 != 0 {
		t.Fatalf("mutating read should clear vblank")
	}
	if p.w {
		t.Fatalf("mutating $2002 read should clear write latch")
	}
}

func TestScrollAndAddrWritesShareWriteLatch(t *testing.T) {
	p, _ := newTestPPU()

	// $2005 first write: coarse X / fine X.
	p.WriteRegister(0x2005, 0x7D) // 0111_1101
	if p.x != 0x05 {
		t.Fatalf("fine X = %d, want 5", p.x)
	}
	if p.t&0x1F != 0x0F {
		t.Fatalf("coarse X in t = %#x, want 0xF", p.t&0x1F)
	}
	if !p.w {
		t.Fatalf("write latch should toggle on after first $2005 write")
	}

	// $2005 second write: coarse Y / fine Y.
	p.WriteRegister(0x2005, 0x5E) // 0101_1110
	if p.w {
		t.Fatalf("write latch should toggle off after second $2005 write")
	}

	// $2006 sequence loads t into v on the second write.
	p.t = 0
	p.WriteRegister(0x2006, 0x3D)
	p.WriteRegister(0x2006, 0xF0)
	if p.v != 0x3DF0 {
		t.Fatalf("v = %#x, want 0x3DF0", p.v)
	}
}

func TestPPUDataReadIsBufferedExceptForPalette(t *testing.T) {
	p, chr := newTestPPU()
	chr.chr[0x0010] = 0x42

	p.v = 0x0010
	first := p.ReadRegister(0x2007, true)
	if first != 0 {
		t.Fatalf("first buffered read should return stale buffer (0), got %#x", first)
	}
	second := p.ReadRegister(0x2007, true)
	if second != 0x42 {
		t.Fatalf("second read should return buffered CHR byte, got %#x", second)
	}

	p.paletteRAM[0] = 0x20
	p.v = 0x3F00
	direct := p.ReadRegister(0x2007, true)
	if direct != 0x20 {
		t.Fatalf("palette reads bypass the read buffer, got %#x", direct)
	}
}

func TestPaletteMirroring(t *testing.T) {
	p, _ := newTestPPU()
	p.writePalette(0x3F10, 0x16)
	if p.paletteRAM[0x00] != 0x16 {
		t.Fatalf("$3F10 should mirror $3F00")
	}
	p.writePalette(0x3F14, 0x09)
	if p.paletteRAM[0x04] != 0x09 {
		t.Fatalf("$3F14 should mirror $3F04, not alias $3F10's slot")
	}
}

func TestVRAMIncrementFollowsCtrlBit2(t *testing.T) {
	p, _ := newTestPPU()
	if p.vramIncrement() != 1 {
		t.Fatalf("default increment should be 1")
	}
	p.ctrl = 0x04
	if p.vramIncrement() != 32 {
		t.Fatalf("increment should be 32 when ctrl bit 2 is set")
	}
}

func TestOAMDMAWriteStoresEachByteAtItsIndex(t *testing.T) {
	p, _ := newTestPPU()
	for i := 0; i < 256; i++ {
		p.WriteOAM(uint8(i), uint8(i))
	}
	for i := 0; i < 256; i++ {
		if p.oam[i] != uint8(i) {
			t.Fatalf("oam[%d] = %d, want %d", i, p.oam[i], i)
		}
	}
}
