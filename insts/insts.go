// Package insts provides VR4300 (MIPS III) instruction definitions and decoding.
//
// This package decodes raw 32-bit instruction words into opcode descriptors.
// A descriptor carries an opcode identifier for O(1) dispatch and a set of
// flag bits the pipeline uses for operand selection and hazard checks:
//   - which register bank each operand comes from (GPR vs. CP1)
//   - whether the instruction consumes rs and/or rt
//   - whether it is a branch (the following slot is a branch-delay slot)
//
// Usage:
//
//	op := insts.Decode(0x3C088000) // LUI $t0, 0x8000
//	fmt.Printf("%s flags=%#x\n", insts.Mnemonic(op.ID), op.Flags)
package insts

// OpcodeID identifies a decoded opcode. It indexes the pipeline's
// execution function table.
type OpcodeID uint32

// Opcode identifiers. OpInvalid is zero so a zeroed descriptor is inert.
const (
	OpInvalid OpcodeID = iota

	// Shifts and register-register ALU.
	OpSLL
	OpADDU
	OpSUBU
	OpDADDU
	OpAND
	OpOR
	OpXOR
	OpNOR
	OpSLT
	OpSLTU

	// Immediate ALU.
	OpADDIU
	OpDADDIU
	OpSLTI
	OpSLTIU
	OpANDI
	OpORI
	OpXORI
	OpLUI

	// Branches and jumps.
	OpBEQ
	OpBNE
	OpJ
	OpJAL
	OpJR
	OpJALR

	// Loads.
	OpLB
	OpLBU
	OpLH
	OpLHU
	OpLW
	OpLWU
	OpLD

	// Stores.
	OpSB
	OpSH
	OpSW
	OpSD

	// Coprocessor 0 moves.
	OpMFC0
	OpMTC0

	// NumOpcodes is the size of the execution function table.
	NumOpcodes
)

// Opcode flag bits.
//
// The two low bits are register-bank selects consumed directly as lookup
// table indices by the execute stage (flags & 0x1 for rs, flags & 0x2 for
// rt), so their positions are load-bearing and must not move.
const (
	// InfoCP1RS selects the rs operand from the CP1 register bank
	// (fs field, shift 11) instead of the GPR bank (rs field, shift 21).
	InfoCP1RS uint32 = 1 << 0

	// InfoCP1RT selects the rt operand from the CP1 register bank.
	InfoCP1RT uint32 = 1 << 1

	// InfoNeedRS marks instructions that consume the rs operand value.
	InfoNeedRS uint32 = 1 << 2

	// InfoNeedRT marks instructions that consume the rt operand value.
	InfoNeedRT uint32 = 1 << 3

	// InfoBranch marks branches and jumps; the next fetched instruction
	// occupies the branch-delay slot.
	InfoBranch uint32 = 1 << 4

	// InfoLoad marks instructions that issue a read bus request.
	InfoLoad uint32 = 1 << 5

	// InfoStore marks instructions that issue a write bus request.
	InfoStore uint32 = 1 << 6
)

// Opcode is the decoded descriptor for one instruction word.
type Opcode struct {
	// ID indexes the execution function table.
	ID OpcodeID

	// Flags is a combination of Info* bits.
	Flags uint32
}

// mnemonics is indexed by OpcodeID.
var mnemonics = [NumOpcodes]string{
	OpInvalid: "invalid",
	OpSLL:     "sll",
	OpADDU:    "addu",
	OpSUBU:    "subu",
	OpDADDU:   "daddu",
	OpAND:     "and",
	OpOR:      "or",
	OpXOR:     "xor",
	OpNOR:     "nor",
	OpSLT:     "slt",
	OpSLTU:    "sltu",
	OpADDIU:   "addiu",
	OpDADDIU:  "daddiu",
	OpSLTI:    "slti",
	OpSLTIU:   "sltiu",
	OpANDI:    "andi",
	OpORI:     "ori",
	OpXORI:    "xori",
	OpLUI:     "lui",
	OpBEQ:     "beq",
	OpBNE:     "bne",
	OpJ:       "j",
	OpJAL:     "jal",
	OpJR:      "jr",
	OpJALR:    "jalr",
	OpLB:      "lb",
	OpLBU:     "lbu",
	OpLH:      "lh",
	OpLHU:     "lhu",
	OpLW:      "lw",
	OpLWU:     "lwu",
	OpLD:      "ld",
	OpSB:      "sb",
	OpSH:      "sh",
	OpSW:      "sw",
	OpSD:      "sd",
	OpMFC0:    "mfc0",
	OpMTC0:    "mtc0",
}

// Mnemonic returns the assembler mnemonic for an opcode identifier.
func Mnemonic(id OpcodeID) string {
	if id >= NumOpcodes {
		return "invalid"
	}
	return mnemonics[id]
}
