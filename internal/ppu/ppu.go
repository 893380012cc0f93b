// Package ppu implements the 2C02 Picture Processing Unit: a per-dot
// shift-register pipeline driving background and sprite rendering, the
// loopy v/t/x/w scroll registers, sprite evaluation, and the NMI line.
package ppu

import "gones/internal/cartridge"

// CHRMemory is the narrow collaborator the PPU needs from the cartridge:
// pattern-table access and the active nametable mirroring policy (which
// MMC1 can change at runtime).
type CHRMemory interface {
	ReadCHR(address uint16) uint8
	WriteCHR(address uint16, value uint8)
	Mirroring() cartridge.MirrorMode
}

const (
	visibleScanlines   = 240
	postRenderScanline = 240
	preRenderScanline  = -1
	lastScanline       = 260
)

// PPU owns nametable VRAM, OAM, palette RAM, and the loopy scroll registers.
type PPU struct {
	cart CHRMemory

	// Registers.
	ctrl   uint8
	mask   uint8
	status uint8

	oamAddr uint8
	oam     [256]uint8

	secondaryOAM  [32]uint8
	spriteCount   int
	spritePatLo   [8]uint8
	spritePatHi   [8]uint8
	spriteAttr    [8]uint8
	spriteX       [8]uint8
	spriteIsZero  [8]bool

	// Loopy scroll registers.
	v uint16
	t uint16
	x uint8
	w bool

	readBuffer uint8

	// Background pipeline.
	bgNextTileID   uint8
	bgNextTileAttr uint8
	bgNextTileLo   uint8
	bgNextTileHi   uint8

	bgPatternShiftLo uint16
	bgPatternShiftHi uint16
	bgAttrShiftLo    uint8
	bgAttrShiftHi    uint8
	bgAttrLatchLo    uint8
	bgAttrLatchHi    uint8

	vram       [0x800]uint8
	paletteRAM [32]uint8

	scanline int
	dot      int
	oddFrame bool

	frameBuffer [256 * 240]uint32
	frameReady  bool
	frameCount  uint64
}

// New creates a PPU wired to the given cartridge's CHR/mirroring collaborator.
func New(cart CHRMemory) *PPU {
	return &PPU{cart: cart, scanline: preRenderScanline, dot: 0}
}

// Reset restores power-on register state.
func (p *PPU) Reset() {
	p.ctrl = 0
	p.mask = 0
	p.status = 0
	p.v, p.t, p.x = 0, 0, 0
	p.w = false
	p.readBuffer = 0
	p.scanline = preRenderScanline
	p.dot = 0
	p.oddFrame = false
}

// --- register map ---

// ReadRegister reads a CPU-visible PPU register ($2000-$2007, mirrored every
// 8 bytes). sideEffects must be false for disassembly/inspection reads so
// vblank, w, and the $2007 read buffer are left untouched.
func (p *PPU) ReadRegister(address uint16, sideEffects bool) uint8 {
	switch address & 0x7 {
	case 2:
		result := p.status & 0xE0
		if sideEffects {
			p.status &^= 0x80
			p.w = false
		}
		return result
	case 4:
		return p.oam[p.oamAddr]
	case 7:
		return p.readData(sideEffects)
	default:
		return 0
	}
}

func (p *PPU) readData(sideEffects bool) uint8 {
	addr := p.v & 0x3FFF
	var result uint8
	if addr >= 0x3F00 {
		result = p.readPalette(addr)
		if sideEffects {
			p.readBuffer = p.readVRAMSpace(addr - 0x1000)
		}
	} else {
		result = p.readBuffer
		if sideEffects {
			p.readBuffer = p.readVRAMSpace(addr)
		}
	}
	if sideEffects {
		p.v += p.vramIncrement()
	}
	return result
}

// WriteRegister writes a CPU-visible PPU register.
func (p *PPU) WriteRegister(address uint16, value uint8) {
	switch address & 0x7 {
	case 0: // PPUCTRL
		p.ctrl = value
		p.t = (p.t &^ 0x0C00) | (uint16(value&0x03) << 10)
	case 1: // PPUMASK
		p.mask = value
	case 3: // OAMADDR
		p.oamAddr = value
	case 4: // OAMDATA
		p.oam[p.oamAddr] = value
		p.oamAddr++
	case 5: // PPUSCROLL
		if !p.w {
			p.x = value & 0x07
			p.t = (p.t &^ 0x001F) | uint16(value>>3)
		} else {
			p.t = (p.t &^ 0x73E0) | (uint16(value&0x07) << 12) | (uint16(value&0xF8) << 2)
		}
		p.w = !p.w
	case 6: // PPUADDR
		if !p.w {
			p.t = (p.t &^ 0x7F00) | (uint16(value&0x3F) << 8)
		} else {
			p.t = (p.t &^ 0x00FF) | uint16(value)
			p.v = p.t
		}
		p.w = !p.w
	case 7: // PPUDATA
		p.writeVRAMSpace(p.v&0x3FFF, value)
		p.v += p.vramIncrement()
	}
}

// WriteOAM writes a single byte into OAM at a fixed index; used by OAM DMA.
func (p *PPU) WriteOAM(index uint8, value uint8) { p.oam[index] = value }

func (p *PPU) vramIncrement() uint16 {
	if p.ctrl&0x04 != 0 {
		return 32
	}
	return 1
}

// --- address-space helpers ($0000-$3FFF as seen from the PPU) ---

func (p *PPU) readVRAMSpace(addr uint16) uint8 {
	addr &= 0x3FFF
	switch {
	case addr < 0x2000:
		return p.cart.ReadCHR(addr)
	case addr < 0x3F00:
		return p.vram[p.nametableIndex(addr)]
	default:
		return p.readPalette(addr)
	}
}

func (p *PPU) writeVRAMSpace(addr uint16, value uint8) {
	addr &= 0x3FFF
	switch {
	case addr < 0x2000:
		p.cart.WriteCHR(addr, value)
	case addr < 0x3F00:
		p.vram[p.nametableIndex(addr)] = value
	default:
		p.writePalette(addr, value)
	}
}

func (p *PPU) nametableIndex(addr uint16) uint16 {
	table := (addr - 0x2000) / 0x400 % 4
	offset := (addr - 0x2000) % 0x400
	var logical uint16
	switch p.cart.Mirroring() {
	case cartridge.MirrorVertical:
		logical = uint16(table%2)*0x400 + offset
	case cartridge.MirrorHorizontal:
		logical = uint16(table/2)*0x400 + offset
	case cartridge.MirrorSingleScreen0:
		logical = offset
	case cartridge.MirrorSingleScreen1:
		logical = 0x400 + offset
	default: // four-screen: best-effort flat mapping
		logical = uint16(table%2)*0x400 + offset
	}
	return logical & 0x7FF
}

func paletteMirror(addr uint16) uint16 {
	idx := addr & 0x1F
	if idx >= 0x10 && idx%4 == 0 {
		idx &^= 0x10
	}
	return idx
}

func (p *PPU) readPalette(addr uint16) uint8     { return p.paletteRAM[paletteMirror(addr)] }
func (p *PPU) writePalette(addr uint16, v uint8) { p.paletteRAM[paletteMirror(addr)] = v & 0x3F }

// --- status accessors used by bus/host ---

func (p *PPU) NMIAsserted() bool              { return p.status&0x80 != 0 && p.ctrl&0x80 != 0 }
func (p *PPU) NMIEnabled() bool               { return p.ctrl&0x80 != 0 }
func (p *PPU) FrameBuffer() [256 * 240]uint32 { return p.frameBuffer }
func (p *PPU) FrameCount() uint64             { return p.frameCount }
func (p *PPU) ConsumeFrameReady() bool {
	r := p.frameReady
	p.frameReady = false
	return r
}
func (p *PPU) Scanline() int { return p.scanline }
func (p *PPU) Dot() int      { return p.dot }

func (p *PPU) renderingEnabled() bool { return p.mask&0x18 != 0 }
func (p *PPU) bgEnabled() bool        { return p.mask&0x08 != 0 }
func (p *PPU) spritesEnabled() bool   { return p.mask&0x10 != 0 }

// --- loopy register math ---

func (p *PPU) incrementCoarseX() {
	if p.v&0x001F == 31 {
		p.v &^= 0x001F
		p.v ^= 0x0400
	} else {
		p.v++
	}
}

func (p *PPU) incrementY() {
	if p.v&0x7000 != 0x7000 {
		p.v += 0x1000
		return
	}
	p.v &^= 0x7000
	y := (p.v & 0x03E0) >> 5
	switch y {
	case 29:
		y = 0
		p.v ^= 0x0800
	case 31:
		y = 0
	default:
		y++
	}
	p.v = (p.v &^ 0x03E0) | (y << 5)
}

func (p *PPU) copyX() { p.v = (p.v &^ 0x041F) | (p.t & 0x041F) }
func (p *PPU) copyY() { p.v = (p.v &^ 0x7BE0) | (p.t & 0x7BE0) }

// --- per-dot tick (timing / background pipeline) ---

// Tick advances the PPU by one dot and then performs that dot's work, so
// after a Tick, Scanline/Dot name the dot just processed. The bus calls
// this three times per CPU cycle.
func (p *PPU) Tick() {
	p.advanceDot()
	switch {
	case p.scanline == preRenderScanline:
		p.tickPreRender()
	case p.scanline >= 0 && p.scanline < visibleScanlines:
		p.tickVisible()
	case p.scanline == postRenderScanline:
		// idle
	case p.scanline > postRenderScanline && p.scanline <= lastScanline:
		p.tickVBlank()
	}
}

func (p *PPU) advanceDot() {
	p.dot++
	if p.dot > 340 {
		p.dot = 0
		p.scanline++
		if p.scanline > lastScanline {
			p.scanline = preRenderScanline
			p.oddFrame = !p.oddFrame
			p.frameCount++
			if p.oddFrame && p.renderingEnabled() {
				p.dot = 1
			}
		}
	}
}

func (p *PPU) tickVBlank() {
	if p.scanline == 241 && p.dot == 1 {
		p.status |= 0x80
		p.frameReady = true
	}
}

func (p *PPU) tickPreRender() {
	if p.dot == 1 {
		p.status &^= 0xE0 // clear vblank, sprite-0-hit, overflow
	}
	if p.renderingEnabled() {
		p.doBackgroundFetches()
		if p.dot == 257 {
			p.copyX()
		}
		if p.dot >= 280 && p.dot <= 304 {
			p.copyY()
		}
		if p.dot == 340 {
			p.evaluateSprites()
		}
	}
}

func (p *PPU) tickVisible() {
	if p.dot >= 1 && p.dot <= 256 {
		if p.renderingEnabled() {
			p.renderPixel(p.dot-1, p.scanline)
		} else {
			p.frameBuffer[p.scanline*256+(p.dot-1)] = nesPalette[p.paletteRAM[0]&0x3F]
		}
	}
	if p.renderingEnabled() {
		p.doBackgroundFetches()
		if p.dot == 256 {
			p.incrementY()
		}
		if p.dot == 257 {
			p.copyX()
		}
		if p.dot == 340 {
			p.evaluateSprites()
		}
	}
}

// doBackgroundFetches performs the per-8-dot nametable/attribute/pattern
// fetch-and-reload sequence and shifts the background registers every dot.
func (p *PPU) doBackgroundFetches() {
	inFetchWindow := (p.dot >= 1 && p.dot <= 256) || (p.dot >= 321 && p.dot <= 336)
	if !inFetchWindow {
		return
	}
	p.shiftBackground()
	p.fetchByte(p.dot % 8)
	if p.dot%8 == 0 {
		p.loadNextTile()
		p.incrementCoarseX()
	}
}

// fetchByte performs the single-byte fetch corresponding to this phase of
// the 8-dot tile fetch cycle, modeled as one step per phase rather than
// split address-setup/read pairs; this is not observable by any mapper in
// scope (NROM/CNROM/MMC1 do not react to PPU address-bus timing).
func (p *PPU) fetchByte(phase int) {
	switch phase {
	case 1:
		ntAddr := 0x2000 | (p.v & 0x0FFF)
		p.bgNextTileID = p.readVRAMSpace(ntAddr)
	case 3:
		atAddr := 0x23C0 | (p.v & 0x0C00) | ((p.v >> 4) & 0x38) | ((p.v >> 2) & 0x07)
		attr := p.readVRAMSpace(atAddr)
		shift := ((p.v >> 4) & 4) | (p.v & 2)
		p.bgNextTileAttr = (attr >> shift) & 0x03
	case 5:
		base := p.bgPatternTableBase()
		addr := base + uint16(p.bgNextTileID)*16 + ((p.v >> 12) & 0x7)
		p.bgNextTileLo = p.readVRAMSpace(addr)
	case 7:
		base := p.bgPatternTableBase()
		addr := base + uint16(p.bgNextTileID)*16 + ((p.v >> 12) & 0x7) + 8
		p.bgNextTileHi = p.readVRAMSpace(addr)
	}
}

func (p *PPU) bgPatternTableBase() uint16 {
	if p.ctrl&0x10 != 0 {
		return 0x1000
	}
	return 0x0000
}

func (p *PPU) loadNextTile() {
	p.bgPatternShiftLo = (p.bgPatternShiftLo &^ 0x00FF) | uint16(p.bgNextTileLo)
	p.bgPatternShiftHi = (p.bgPatternShiftHi &^ 0x00FF) | uint16(p.bgNextTileHi)
	if p.bgNextTileAttr&0x01 != 0 {
		p.bgAttrLatchLo = 0xFF
	} else {
		p.bgAttrLatchLo = 0x00
	}
	if p.bgNextTileAttr&0x02 != 0 {
		p.bgAttrLatchHi = 0xFF
	} else {
		p.bgAttrLatchHi = 0x00
	}
}

func (p *PPU) shiftBackground() {
	p.bgPatternShiftLo <<= 1
	p.bgPatternShiftHi <<= 1
	p.bgAttrShiftLo = (p.bgAttrShiftLo << 1) | (p.bgAttrLatchLo & 1)
	p.bgAttrShiftHi = (p.bgAttrShiftHi << 1) | (p.bgAttrLatchHi & 1)
}

// renderPixel composites background and sprite pixels for (x, y) and writes
// the result into the framebuffer, updating sprite-0-hit as needed.
func (p *PPU) renderPixel(x, y int) {
	bgPixel, bgPalette := p.backgroundPixelAt(x)
	sprPixel, sprPalette, sprPriority, sprIsZero := p.spritePixelAt(x)

	showBG := p.bgEnabled() && (x >= 8 || p.mask&0x02 != 0)
	showSpr := p.spritesEnabled() && (x >= 8 || p.mask&0x04 != 0)
	if !showBG {
		bgPixel = 0
	}
	if !showSpr {
		sprPixel = 0
	}

	if bgPixel != 0 && sprPixel != 0 && sprIsZero && x != 255 {
		p.status |= 0x40 // sprite-0-hit
	}

	var paletteIndex uint16
	switch {
	case sprPixel != 0 && (sprPriority == 0 || bgPixel == 0):
		paletteIndex = 0x10 + uint16(sprPalette)*4 + uint16(sprPixel)
	case bgPixel != 0:
		paletteIndex = uint16(bgPalette)*4 + uint16(bgPixel)
	default:
		paletteIndex = 0
	}
	color := nesPalette[p.readPalette(0x3F00+paletteIndex)&0x3F]
	p.frameBuffer[y*256+x] = color
}

func (p *PPU) backgroundPixelAt(x int) (pixel uint8, palette uint8) {
	bit := uint(15 - p.x)
	lo := uint8((p.bgPatternShiftLo >> bit) & 1)
	hi := uint8((p.bgPatternShiftHi >> bit) & 1)
	pixel = lo | (hi << 1)

	abit := uint(7 - p.x)
	alo := (p.bgAttrShiftLo >> abit) & 1
	ahi := (p.bgAttrShiftHi >> abit) & 1
	palette = alo | (ahi << 1)
	return
}

// --- sprite evaluation ---

func (p *PPU) spriteHeight() int {
	if p.ctrl&0x20 != 0 {
		return 16
	}
	return 8
}

// evaluateSprites scans primary OAM for sprites covering the next scanline,
// copies up to 8 into secondary OAM, and reproduces the documented hardware
// overflow-search bug (Open Question, DESIGN.md): once 8 in-range sprites
// are found, the search continues scanning but steps 5 bytes at a time
// (next sprite and next byte within it) instead of reading only each
// sprite's Y byte, reproducing the well-known false hits/misses instead
// of a clean count-to-9.
func (p *PPU) evaluateSprites() {
	next := p.scanline + 1
	height := p.spriteHeight()

	p.spriteCount = 0
	for i := range p.secondaryOAM {
		p.secondaryOAM[i] = 0xFF
	}
	for i := range p.spriteIsZero {
		p.spriteIsZero[i] = false
	}

	n := 0
	for ; n < 64 && p.spriteCount < 8; n++ {
		y := int(p.oam[n*4])
		if next >= y && next < y+height {
			base := p.spriteCount * 4
			copy(p.secondaryOAM[base:base+4], p.oam[n*4:n*4+4])
			p.spriteIsZero[p.spriteCount] = n == 0
			p.spriteCount++
		}
	}

	m := 0
	byteIdx := n * 4
	for byteIdx < 256 {
		y := int(p.oam[byteIdx])
		if next >= y && next < y+height {
			p.status |= 0x20
			break
		}
		byteIdx += 5 // buggy diagonal stride, per the hardware bug
		m++
		if m > 64 {
			break
		}
	}

	for i := 0; i < p.spriteCount; i++ {
		y := p.secondaryOAM[i*4]
		tile := p.secondaryOAM[i*4+1]
		attr := p.secondaryOAM[i*4+2]
		xPos := p.secondaryOAM[i*4+3]
		row := next - int(y)
		flipV := attr&0x80 != 0
		flipH := attr&0x40 != 0
		if flipV {
			row = height - 1 - row
		}

		var patAddr uint16
		if height == 16 {
			table := uint16(tile&0x01) * 0x1000
			tileIdx := uint16(tile &^ 0x01)
			if row >= 8 {
				tileIdx++
				row -= 8
			}
			patAddr = table + tileIdx*16 + uint16(row)
		} else {
			table := p.spritePatternTableBase()
			patAddr = table + uint16(tile)*16 + uint16(row)
		}

		lo := p.readVRAMSpace(patAddr)
		hi := p.readVRAMSpace(patAddr + 8)
		if flipH {
			lo = reverseBits(lo)
			hi = reverseBits(hi)
		}
		p.spritePatLo[i] = lo
		p.spritePatHi[i] = hi
		p.spriteAttr[i] = attr
		p.spriteX[i] = xPos
	}
}

func (p *PPU) spritePatternTableBase() uint16 {
	if p.ctrl&0x08 != 0 {
		return 0x1000
	}
	return 0x0000
}

func reverseBits(b uint8) uint8 {
	var r uint8
	for i := 0; i < 8; i++ {
		r <<= 1
		r |= b & 1
		b >>= 1
	}
	return r
}

func (p *PPU) spritePixelAt(x int) (pixel uint8, palette uint8, priority uint8, isZero bool) {
	for i := 0; i < p.spriteCount; i++ {
		offset := x - int(p.spriteX[i])
		if offset < 0 || offset > 7 {
			continue
		}
		lo := (p.spritePatLo[i] >> uint(7-offset)) & 1
		hi := (p.spritePatHi[i] >> uint(7-offset)) & 1
		val := lo | (hi << 1)
		if val == 0 {
			continue
		}
		attr := p.spriteAttr[i]
		return val, attr & 0x03, (attr >> 5) & 1, p.spriteIsZero[i]
	}
	return 0, 0, 0, false
}
