package ppu

import "testing"

func TestVBlankFlagSetsAtScanline241Dot1(t *testing.T) {
	p, _ := newTestPPU()
	p.scanline = 241
	p.dot = 0
	p.Tick()
	if p.status&0x80 == 0 {
		t.Fatalf("vblank flag should be set at scanline 241 dot 1")
	}
	if !p.ConsumeFrameReady() {
		t.Fatalf("frame-ready should be latched when vblank starts")
	}
}

func TestPreRenderClearsStatusFlagsAtDot1(t *testing.T) {
	p, _ := newTestPPU()
	p.status = 0xE0
	p.scanline = preRenderScanline
	p.dot = 0
	p.Tick()
	if p.status&0xE0 != 0 {
		t.Fatalf("pre-render dot 1 should clear vblank/sprite0/overflow, got %#x", p.status)
	}
}

func TestOddFrameSkipsDotZeroOnPreRenderWhenRenderingEnabled(t *testing.T) {
	p, _ := newTestPPU()
	p.mask = 0x18 // background + sprites enabled
	p.scanline = lastScanline
	p.dot = 340
	p.oddFrame = false
	p.Tick() // wraps to pre-render of what will become an odd frame
	if p.scanline != preRenderScanline {
		t.Fatalf("expected wrap to pre-render scanline, got %d", p.scanline)
	}
	if !p.oddFrame {
		t.Fatalf("expected oddFrame to toggle true")
	}
	if p.dot != 1 {
		t.Fatalf("odd frame should skip dot 0 on pre-render, dot = %d", p.dot)
	}
}

func TestLoopyIncrementCoarseXWrapsIntoNametableBit(t *testing.T) {
	p, _ := newTestPPU()
	p.v = 0x001F // coarse X = 31
	p.incrementCoarseX()
	if p.v&0x001F != 0 {
		t.Fatalf("coarse X should wrap to 0")
	}
	if p.v&0x0400 == 0 {
		t.Fatalf("nametable-X bit should flip on coarse X wrap")
	}
}

func TestLoopyIncrementYWrapsAtRow29(t *testing.T) {
	p, _ := newTestPPU()
	p.v = (29 << 5) | 0x7000
	p.incrementY()
	if (p.v>>5)&0x1F != 0 {
		t.Fatalf("coarse Y should wrap to 0 at row 29")
	}
	if p.v&0x0800 == 0 {
		t.Fatalf("nametable-Y bit should flip when wrapping past attribute table row")
	}
}

func TestLoopyCopyXAndCopyY(t *testing.T) {
	p, _ := newTestPPU()
	p.t = 0x7BFF
	p.v = 0
	p.copyX()
	if p.v&0x041F != 0x7BFF&0x041F {
		t.Fatalf("copyX should transfer coarse X and nametable-X bits")
	}
	p.v = 0
	p.copyY()
	if p.v&0x7BE0 != 0x7BFF&0x7BE0 {
		t.Fatalf("copyY should transfer coarse Y, fine Y, and nametable-Y bits")
	}
}
