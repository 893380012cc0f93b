// Package disasm renders CPU instructions in the widely used nestest-style
// trace format: fixed-width hex columns, operand addressing annotations,
// and an asterisk prefix on unofficial opcodes.
package disasm

import (
	"fmt"
	"strings"

	"gones/internal/cpu"
)

// MemoryReader is the narrow read-only view of CPU address space a static
// disassembly walk needs.
type MemoryReader interface {
	Read(address uint16) uint8
}

var unofficialMnemonics = map[string]bool{
	"LAX": true, "SAX": true, "DCP": true, "ISB": true,
	"SLO": true, "RLA": true, "SRE": true, "RRA": true,
}

// isUnofficial reports whether an opcode is an unofficial (undocumented)
// instruction. Most mnemonics identify it uniquely; NOP and SBC each have
// one official encoding (0xEA and 0xE9) and several unofficial duplicates.
func isUnofficial(opcode uint8, mnemonic string) bool {
	if unofficialMnemonics[mnemonic] {
		return true
	}
	if mnemonic == "NOP" && opcode != 0xEA {
		return true
	}
	if mnemonic == "SBC" && opcode == 0xEB {
		return true
	}
	return false
}

// Line is one decoded instruction.
type Line struct {
	PC         uint16
	Bytes      []uint8
	Mnemonic   string
	Operand    string
	Unofficial bool
}

// Disassemble statically decodes instructions starting at `start` up to and
// including `end`, using the CPU's own instruction table so the
// disassembler can never drift from what the CPU actually executes.
func Disassemble(mem MemoryReader, c *cpu.CPU, start, end uint16) []Line {
	var lines []Line
	pc := start
	for pc <= end {
		opcode := mem.Read(pc)
		inst := c.Instruction(opcode)
		if inst == nil {
			lines = append(lines, Line{PC: pc, Bytes: []uint8{opcode}, Mnemonic: "???"})
			pc++
			continue
		}

		length := inst.Bytes
		if length == 0 {
			length = 1
		}
		raw := make([]uint8, length)
		for i := uint8(0); i < length; i++ {
			raw[i] = mem.Read(pc + uint16(i))
		}

		lines = append(lines, Line{
			PC:         pc,
			Bytes:      raw,
			Mnemonic:   inst.Name,
			Operand:    formatOperand(inst, raw, pc),
			Unofficial: isUnofficial(opcode, inst.Name),
		})

		if pc > 0xFFFF-uint16(length) {
			break
		}
		pc += uint16(length)
	}
	return lines
}

// formatOperand renders the operand text for the addressing mode. Relative
// branches show their resolved target address; other modes show the raw
// operand only, without resolved-address or memory-value annotations.
func formatOperand(inst *cpu.Instruction, raw []uint8, pc uint16) string {
	switch inst.Mode {
	case cpu.Implied:
		return ""
	case cpu.Accumulator:
		return "A"
	case cpu.Immediate:
		return fmt.Sprintf("#$%02X", raw[1])
	case cpu.ZeroPage:
		return fmt.Sprintf("$%02X", raw[1])
	case cpu.ZeroPageX:
		return fmt.Sprintf("$%02X,X", raw[1])
	case cpu.ZeroPageY:
		return fmt.Sprintf("$%02X,Y", raw[1])
	case cpu.Relative:
		offset := int8(raw[1])
		target := pc + 2 + uint16(offset)
		return fmt.Sprintf("$%04X", target)
	case cpu.Absolute:
		addr := uint16(raw[1]) | uint16(raw[2])<<8
		return fmt.Sprintf("$%04X", addr)
	case cpu.AbsoluteX:
		addr := uint16(raw[1]) | uint16(raw[2])<<8
		return fmt.Sprintf("$%04X,X", addr)
	case cpu.AbsoluteY:
		addr := uint16(raw[1]) | uint16(raw[2])<<8
		return fmt.Sprintf("$%04X,Y", addr)
	case cpu.Indirect:
		addr := uint16(raw[1]) | uint16(raw[2])<<8
		return fmt.Sprintf("($%04X)", addr)
	case cpu.IndexedIndirect:
		return fmt.Sprintf("($%02X,X)", raw[1])
	case cpu.IndirectIndexed:
		return fmt.Sprintf("($%02X),Y", raw[1])
	default:
		return ""
	}
}

// String renders the static portion of the format: PC, raw bytes, and the
// mnemonic/operand, with the two-space "*" prefix unofficial opcodes get in
// the reference log convention. There is no live register state to print
// for a purely static walk, so this omits the A/X/Y/P/SP/CYC/SL columns
// that Trace (below) fills in from an executing CPU.
func (l Line) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%04X  ", l.PC)

	for i := 0; i < 3; i++ {
		if i < len(l.Bytes) {
			fmt.Fprintf(&b, "%02X ", l.Bytes[i])
		} else {
			b.WriteString("   ")
		}
	}

	if l.Unofficial {
		b.WriteString(" *")
	} else {
		b.WriteString("  ")
	}
	b.WriteString(l.Mnemonic)
	if l.Operand != "" {
		b.WriteString(" ")
		b.WriteString(l.Operand)
	}
	return b.String()
}

// CPUState is the live register snapshot Trace annotates a line with; it
// mirrors bus.CPUState without importing the bus package (disasm is a leaf
// the bus and the CLI both depend on, not the reverse).
type CPUState struct {
	A, X, Y, P, SP uint8
	Cycles         uint64
	Scanline       int
}

// Trace renders the full reference-log line: the static instruction text
// plus the register and timing columns, for runtime execution traces.
func Trace(l Line, s CPUState) string {
	return fmt.Sprintf("%-48s A:%02X X:%02X Y:%02X P:%02X SP:%02X CYC:%d SL:%d",
		l.String(), s.A, s.X, s.Y, s.P, s.SP, s.Cycles, s.Scanline)
}
