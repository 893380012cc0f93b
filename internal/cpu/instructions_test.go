package cpu

import "testing"

func runOpcodes(c *CPU, mem *flatMemory, pc uint16, bytes ...uint8) {
	for i, b := range bytes {
		mem.data[pc+uint16(i)] = b
	}
	c.PC = pc
	c.Step()
}

func TestLDAImmediateSetsZeroAndNegativeFlags(t *testing.T) {
	c, mem := newTestCPU()
	runOpcodes(c, mem, 0x0200, 0xA9, 0x00) // LDA #$00
	if !c.Z || c.N {
		t.Fatalf("LDA #$00 should set Z and clear N")
	}
	runOpcodes(c, mem, 0x0202, 0xA9, 0x80) // LDA #$80
	if c.Z || !c.N {
		t.Fatalf("LDA #$80 should clear Z and set N")
	}
}

func TestADCSetsOverflow(t *testing.T) {
	c, mem := newTestCPU()
	c.A = 0x50
	runOpcodes(c, mem, 0x0200, 0x69, 0x50) // ADC #$50 -> overflow (0x50+0x50=0xA0, signed overflow)
	if !c.V {
		t.Fatalf("expected overflow flag set for 0x50+0x50")
	}
	if c.A != 0xA0 {
		t.Fatalf("A = %#x, want 0xA0", c.A)
	}
}

func TestASLZeroPageDoesDummyThenRealWrite(t *testing.T) {
	c, mem := newTestCPU()
	mem.data[0x0010] = 0x81 // 1000_0001
	runOpcodes(c, mem, 0x0200, 0x06, 0x10) // ASL $10
	if mem.data[0x0010] != 0x02 {
		t.Fatalf("ASL result = %#x, want 0x02", mem.data[0x0010])
	}
	if len(mem.writes) != 2 || mem.writes[0] != 0x81 || mem.writes[1] != 0x02 {
		t.Fatalf("ASL writes = %#x, want [0x81 0x02]", mem.writes)
	}
	if !c.C {
		t.Fatalf("expected carry set from bit 7")
	}
}

func TestINCMemoryWraps(t *testing.T) {
	c, mem := newTestCPU()
	mem.data[0x0020] = 0xFF
	runOpcodes(c, mem, 0x0200, 0xE6, 0x20) // INC $20
	if mem.data[0x0020] != 0x00 {
		t.Fatalf("INC should wrap 0xFF to 0x00")
	}
	if !c.Z {
		t.Fatalf("expected zero flag after wrap")
	}
}

func TestJSRAndRTSRoundTrip(t *testing.T) {
	c, mem := newTestCPU()
	c.SP = 0xFD
	runOpcodes(c, mem, 0x0200, 0x20, 0x00, 0x03) // JSR $0300
	if c.PC != 0x0300 {
		t.Fatalf("JSR should jump to target, PC=%#x", c.PC)
	}
	mem.data[0x0300] = 0x60 // RTS
	c.Step()
	if c.PC != 0x0203 {
		t.Fatalf("RTS should return to instruction after JSR, PC=%#x", c.PC)
	}
}

func TestBranchTakenAddsCycleAndCrossesPage(t *testing.T) {
	c, mem := newTestCPU()
	c.Z = true
	c.PC = 0x00F0
	mem.data[0x00F0] = 0xF0 // BEQ
	mem.data[0x00F1] = 0x20 // +32 crosses page from 0xF2 to 0x112
	cycles := c.Step()
	if c.PC != 0x0112 {
		t.Fatalf("branch target = %#x, want 0x112", c.PC)
	}
	if cycles != 4 { // base 2 + taken 1 + page-cross 1
		t.Fatalf("expected 4 cycles for taken cross-page branch, got %d", cycles)
	}
}

func TestDCPUnofficialCompareAfterDecrement(t *testing.T) {
	c, mem := newTestCPU()
	c.A = 0x10
	mem.data[0x0030] = 0x11
	runOpcodes(c, mem, 0x0200, 0xC7, 0x30) // DCP $30 (zero page)
	if mem.data[0x0030] != 0x10 {
		t.Fatalf("DCP should decrement memory, got %#x", mem.data[0x0030])
	}
	if !c.Z {
		t.Fatalf("expected zero flag since A equals decremented memory")
	}
}

func TestIndirectJMPPageWrapBug(t *testing.T) {
	c, mem := newTestCPU()
	mem.data[0x02FF] = 0x00
	mem.data[0x0200] = 0x80 // high byte read wraps to start of page, not 0x0300
	runOpcodes(c, mem, 0x1000, 0x6C, 0xFF, 0x02) // JMP ($02FF)
	if c.PC != 0x8000 {
		t.Fatalf("expected page-wrap bug result 0x8000, got %#x", c.PC)
	}
}
