package insts

// Decoding is a pure two-level table lookup: the major opcode field
// (bits 31:26) either resolves the descriptor directly or selects a
// secondary table (SPECIAL funct field, COP0 rs field). Decode always
// returns a pointer into a static table, never allocates, and has no
// side effects.

// specialTable is indexed by the funct field (bits 5:0) of SPECIAL-class
// instructions.
var specialTable = [64]Opcode{
	0x00: {OpSLL, InfoNeedRT},
	0x08: {OpJR, InfoNeedRS | InfoBranch},
	0x09: {OpJALR, InfoNeedRS | InfoBranch},
	0x21: {OpADDU, InfoNeedRS | InfoNeedRT},
	0x23: {OpSUBU, InfoNeedRS | InfoNeedRT},
	0x24: {OpAND, InfoNeedRS | InfoNeedRT},
	0x25: {OpOR, InfoNeedRS | InfoNeedRT},
	0x26: {OpXOR, InfoNeedRS | InfoNeedRT},
	0x27: {OpNOR, InfoNeedRS | InfoNeedRT},
	0x2A: {OpSLT, InfoNeedRS | InfoNeedRT},
	0x2B: {OpSLTU, InfoNeedRS | InfoNeedRT},
	0x2D: {OpDADDU, InfoNeedRS | InfoNeedRT},
}

// cop0Table is indexed by the rs field (bits 25:21) of COP0-class
// instructions.
var cop0Table = [32]Opcode{
	0x00: {OpMFC0, 0},
	0x04: {OpMTC0, InfoNeedRT},
}

// majorTable is indexed by the major opcode field (bits 31:26).
// SPECIAL (0x00) and COP0 (0x10) are handled out of line.
var majorTable = [64]Opcode{
	0x02: {OpJ, InfoBranch},
	0x03: {OpJAL, InfoBranch},
	0x04: {OpBEQ, InfoNeedRS | InfoNeedRT | InfoBranch},
	0x05: {OpBNE, InfoNeedRS | InfoNeedRT | InfoBranch},
	0x09: {OpADDIU, InfoNeedRS},
	0x0A: {OpSLTI, InfoNeedRS},
	0x0B: {OpSLTIU, InfoNeedRS},
	0x0C: {OpANDI, InfoNeedRS},
	0x0D: {OpORI, InfoNeedRS},
	0x0E: {OpXORI, InfoNeedRS},
	0x0F: {OpLUI, 0},
	0x19: {OpDADDIU, InfoNeedRS},
	0x20: {OpLB, InfoNeedRS | InfoLoad},
	0x21: {OpLH, InfoNeedRS | InfoLoad},
	0x23: {OpLW, InfoNeedRS | InfoLoad},
	0x24: {OpLBU, InfoNeedRS | InfoLoad},
	0x25: {OpLHU, InfoNeedRS | InfoLoad},
	0x27: {OpLWU, InfoNeedRS | InfoLoad},
	0x28: {OpSB, InfoNeedRS | InfoNeedRT | InfoStore},
	0x29: {OpSH, InfoNeedRS | InfoNeedRT | InfoStore},
	0x2B: {OpSW, InfoNeedRS | InfoNeedRT | InfoStore},
	0x37: {OpLD, InfoNeedRS | InfoLoad},
	0x3F: {OpSD, InfoNeedRS | InfoNeedRT | InfoStore},
}

// Decode resolves a raw instruction word to its opcode descriptor.
// Unrecognized words resolve to OpInvalid, which executes as a no-op.
func Decode(iw uint32) *Opcode {
	switch iw >> 26 {
	case 0x00:
		return &specialTable[iw&0x3F]
	case 0x10:
		return &cop0Table[iw>>21&0x1F]
	default:
		return &majorTable[iw>>26]
	}
}
