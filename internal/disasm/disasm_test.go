package disasm

import (
	"strings"
	"testing"

	"gones/internal/cpu"
)

type flatMemory struct {
	data [0x10000]uint8
}

func (m *flatMemory) Read(address uint16) uint8  { return m.data[address] }
func (m *flatMemory) Write(address uint16, v uint8) { m.data[address] = v }

func TestDisassembleDecodesKnownOpcodes(t *testing.T) {
	mem := &flatMemory{}
	mem.data[0x8000] = 0xA9 // LDA #$42
	mem.data[0x8001] = 0x42
	mem.data[0x8002] = 0x8D // STA $0200
	mem.data[0x8003] = 0x00
	mem.data[0x8004] = 0x02

	c := cpu.New(mem)
	lines := Disassemble(mem, c, 0x8000, 0x8004)

	if len(lines) != 2 {
		t.Fatalf("expected 2 decoded instructions, got %d", len(lines))
	}
	if lines[0].Mnemonic != "LDA" || lines[0].Operand != "#$42" {
		t.Fatalf("line 0 = %+v", lines[0])
	}
	if lines[1].Mnemonic != "STA" || lines[1].Operand != "$0200" {
		t.Fatalf("line 1 = %+v", lines[1])
	}
}

func TestDisassembleFlagsUnofficialOpcodesWithAsterisk(t *testing.T) {
	mem := &flatMemory{}
	mem.data[0x8000] = 0xC7 // DCP $10 (zero page, unofficial)
	mem.data[0x8001] = 0x10

	c := cpu.New(mem)
	lines := Disassemble(mem, c, 0x8000, 0x8000)

	if !lines[0].Unofficial {
		t.Fatal("expected DCP to be flagged unofficial")
	}
	if !strings.Contains(lines[0].String(), "*DCP") {
		t.Fatalf("expected rendered line to carry the * prefix, got %q", lines[0].String())
	}
}

func TestDisassembleRelativeBranchResolvesTarget(t *testing.T) {
	mem := &flatMemory{}
	mem.data[0x8000] = 0xF0 // BEQ +5
	mem.data[0x8001] = 0x05

	c := cpu.New(mem)
	lines := Disassemble(mem, c, 0x8000, 0x8000)

	if lines[0].Operand != "$8007" {
		t.Fatalf("branch target = %q, want $8007", lines[0].Operand)
	}
}

func TestDisassembleSingleByteImpliedInstruction(t *testing.T) {
	mem := &flatMemory{}
	mem.data[0x8000] = 0x00 // BRK
	c := cpu.New(mem)
	lines := Disassemble(mem, c, 0x8000, 0x8000)
	if len(lines) != 1 || lines[0].Mnemonic != "BRK" {
		t.Fatalf("expected a single decoded BRK line, got %+v", lines)
	}
}

func TestTraceAppendsRegisterAndTimingColumns(t *testing.T) {
	mem := &flatMemory{}
	mem.data[0x8000] = 0xA9 // LDA #$42
	mem.data[0x8001] = 0x42

	c := cpu.New(mem)
	line := Disassemble(mem, c, 0x8000, 0x8000)[0]

	state := CPUState{A: 0x01, X: 0x02, Y: 0x03, P: 0x24, SP: 0xFD, Cycles: 7, Scanline: 241}
	out := Trace(line, state)

	if !strings.HasPrefix(out, line.String()) {
		t.Fatalf("trace should retain the static line as a prefix, got %q", out)
	}
	for _, want := range []string{"A:01", "X:02", "Y:03", "P:24", "SP:FD", "CYC:7", "SL:241"} {
		if !strings.Contains(out, want) {
			t.Fatalf("trace output %q missing column %q", out, want)
		}
	}
}
