package ppu

import "testing"

func TestEvaluateSpritesCopiesInRangeSpritesAndFlagsSpriteZero(t *testing.T) {
	p, _ := newTestPPU()
	p.mask = 0x18
	p.scanline = 9 // next scanline = 10

	p.oam[0] = 5 // sprite 0, Y=5, covers rows 5-12
	p.oam[1] = 0x00
	p.oam[2] = 0x00
	p.oam[3] = 20

	p.evaluateSprites()

	if p.spriteCount != 1 {
		t.Fatalf("expected 1 in-range sprite, got %d", p.spriteCount)
	}
	if !p.spriteIsZero[0] {
		t.Fatalf("sprite 0 should be flagged as the zero sprite")
	}
}

func TestEvaluateSpritesLimitsToEightAndFlagsOverflow(t *testing.T) {
	p, _ := newTestPPU()
	p.mask = 0x18
	p.scanline = 9

	for i := 0; i < 10; i++ {
		base := i * 4
		p.oam[base] = 5 // all in range for next scanline 10
		p.oam[base+3] = uint8(i * 8)
	}

	p.evaluateSprites()

	if p.spriteCount != 8 {
		t.Fatalf("expected spriteCount capped at 8, got %d", p.spriteCount)
	}
	if p.status&0x20 == 0 {
		t.Fatalf("expected sprite overflow flag to be set")
	}
}

func TestSpriteHeightFollowsCtrlBit5(t *testing.T) {
	p, _ := newTestPPU()
	if p.spriteHeight() != 8 {
		t.Fatalf("default sprite height should be 8")
	}
	p.ctrl = 0x20
	if p.spriteHeight() != 16 {
		t.Fatalf("sprite height should be 16 when ctrl bit 5 is set")
	}
}

func TestReverseBits(t *testing.T) {
	if reverseBits(0b10000001) != 0b10000001 {
		t.Fatalf("palindrome byte should reverse to itself")
	}
	if reverseBits(0b00000001) != 0b10000000 {
		t.Fatalf("reverseBits(0x01) = %#b, want 0x80", reverseBits(0b00000001))
	}
}

func TestSpritePixelAtPicksFirstNonTransparentSpriteInPriorityOrder(t *testing.T) {
	p, _ := newTestPPU()
	p.spriteCount = 2
	p.spriteX[0] = 10
	p.spritePatLo[0] = 0x80 // leftmost pixel set
	p.spritePatHi[0] = 0x00
	p.spriteAttr[0] = 0x01

	p.spriteX[1] = 10
	p.spritePatLo[1] = 0x80
	p.spritePatHi[1] = 0x80
	p.spriteAttr[1] = 0x02

	pixel, palette, _, _ := p.spritePixelAt(10)
	if pixel != 1 {
		t.Fatalf("expected sprite 0's pixel value 1, got %d", pixel)
	}
	if palette != 1 {
		t.Fatalf("expected sprite 0's palette to win priority, got %d", palette)
	}
}

func TestBackgroundAndSpriteCompositingRespectsLeftEdgeMask(t *testing.T) {
	p, _ := newTestPPU()
	p.mask = 0x18 // background + sprites enabled, left-edge clipped (bits 1/2 clear)
	p.bgPatternShiftLo = 0x8000
	p.bgPatternShiftHi = 0x0000
	p.x = 0

	p.renderPixel(3, 0)
	if p.frameBuffer[3] != nesPalette[p.paletteRAM[0]&0x3F] {
		t.Fatalf("pixel inside the clipped left 8 columns should show backdrop")
	}
}
