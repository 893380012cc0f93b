package ppu

import "gones/internal/cartridge"

type fakeCHR struct {
	chr    [0x2000]uint8
	mirror cartridge.MirrorMode
}

func (f *fakeCHR) ReadCHR(addr uint16) uint8       { return f.chr[addr&0x1FFF] }
func (f *fakeCHR) WriteCHR(addr uint16, v uint8)   { f.chr[addr&0x1FFF] = v }
func (f *fakeCHR) Mirroring() cartridge.MirrorMode { return f.mirror }

func newTestPPU() (*PPU, *fakeCHR) {
	c := &fakeCHR{mirror: cartridge.MirrorHorizontal}
	return New(c), c
}
