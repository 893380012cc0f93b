package cpu

import "testing"

func TestPowerOnLoadsVectorAndPowerUpState(t *testing.T) {
	c, mem := newTestCPU()
	mem.data[0xFFFC] = 0x34
	mem.data[0xFFFD] = 0x12
	c.PowerOn()

	if c.PC != 0x1234 {
		t.Fatalf("PC = %#x, want 0x1234", c.PC)
	}
	if c.SP != 0xFD {
		t.Fatalf("SP = %#x, want 0xFD", c.SP)
	}
	if c.A != 0 || c.X != 0 || c.Y != 0 {
		t.Fatalf("expected A/X/Y cleared at power-up, got A:%#x X:%#x Y:%#x", c.A, c.X, c.Y)
	}
	if !c.I || c.B {
		t.Fatalf("expected I set and B clear at power-up (status $24)")
	}
	if c.cycles != 7 {
		t.Fatalf("power-on reset should take 7 cycles, got %d", c.cycles)
	}
}

func TestSoftResetDecrementsSPAndPreservesRegisters(t *testing.T) {
	c, mem := newTestCPU()
	mem.data[0xFFFC] = 0x34
	mem.data[0xFFFD] = 0x12
	c.A, c.X, c.Y = 0x11, 0x22, 0x33
	c.SP = 0xF0
	c.I = false

	c.Reset()

	if c.PC != 0x1234 {
		t.Fatalf("PC = %#x, want 0x1234", c.PC)
	}
	if c.SP != 0xED {
		t.Fatalf("SP = %#x, want 0xED (0xF0 - 3)", c.SP)
	}
	if c.A != 0x11 || c.X != 0x22 || c.Y != 0x33 {
		t.Fatalf("soft reset should preserve A/X/Y, got A:%#x X:%#x Y:%#x", c.A, c.X, c.Y)
	}
	if !c.I {
		t.Fatalf("soft reset should set the I flag")
	}
}

func TestQueueNMIDeliversThroughVector(t *testing.T) {
	c, mem := newTestCPU()
	mem.data[0xFFFC] = 0x00
	mem.data[0xFFFD] = 0x80
	c.Reset()
	mem.data[0xFFFA] = 0x00
	mem.data[0xFFFB] = 0x90

	c.QueueNMI()
	c.ProcessPendingInterrupts()

	if c.PC != 0x9000 {
		t.Fatalf("PC = %#x, want 0x9000 after NMI vector load", c.PC)
	}
	if !c.I {
		t.Fatalf("NMI handler should set the I flag")
	}
}

func TestIRQIgnoredWhenInterruptsDisabled(t *testing.T) {
	c, _ := newTestCPU()
	c.I = true
	c.PC = 0x1000
	c.SetIRQ(true)
	c.ProcessPendingInterrupts()
	if c.PC != 0x1000 {
		t.Fatalf("IRQ should be masked while I flag is set")
	}
}

func TestNMITakesPriorityOverIRQ(t *testing.T) {
	c, mem := newTestCPU()
	c.Reset()
	mem.data[0xFFFA] = 0x11
	mem.data[0xFFFB] = 0x11
	mem.data[0xFFFE] = 0x22
	mem.data[0xFFFF] = 0x22

	c.SetIRQ(true)
	c.QueueNMI()
	c.I = false
	c.ProcessPendingInterrupts()

	if c.PC != 0x1111 {
		t.Fatalf("NMI should be serviced ahead of IRQ, PC=%#x", c.PC)
	}
}
