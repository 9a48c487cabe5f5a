package pipeline

// The pipeline keeps every architectural register in one flat file so
// that forwarding and the decode LUTs can address general-purpose,
// CP1, and CP0 registers with a single index space.
const (
	// RegisterR0 is the hard-wired zero register; it doubles as the
	// "no destination" sink.
	RegisterR0 uint32 = 0

	// RegisterRA is the link register written by JAL and JALR.
	RegisterRA uint32 = 31

	// RegisterCP1Base is where the 32 floating-point registers start.
	RegisterCP1Base uint32 = 32

	cp0RegisterBase uint32 = 64

	// RegisterLO and RegisterHI hold the multiply/divide results.
	RegisterLO uint32 = 96
	RegisterHI uint32 = 97

	// NumRegisters is the size of the flat register file.
	NumRegisters = 98
)

// CP0 registers, addressed at their architectural numbers above
// cp0RegisterBase.
const (
	CP0RegisterIndex    = cp0RegisterBase + 0
	CP0RegisterRandom   = cp0RegisterBase + 1
	CP0RegisterEntryLo0 = cp0RegisterBase + 2
	CP0RegisterEntryLo1 = cp0RegisterBase + 3
	CP0RegisterContext  = cp0RegisterBase + 4
	CP0RegisterPageMask = cp0RegisterBase + 5
	CP0RegisterWired    = cp0RegisterBase + 6
	CP0RegisterBadVAddr = cp0RegisterBase + 8
	CP0RegisterCount    = cp0RegisterBase + 9
	CP0RegisterEntryHi  = cp0RegisterBase + 10
	CP0RegisterCompare  = cp0RegisterBase + 11
	CP0RegisterStatus   = cp0RegisterBase + 12
	CP0RegisterCause    = cp0RegisterBase + 13
	CP0RegisterEPC      = cp0RegisterBase + 14
	CP0RegisterPRId     = cp0RegisterBase + 15
	CP0RegisterConfig   = cp0RegisterBase + 16
	CP0RegisterErrorEPC = cp0RegisterBase + 30
)

// Status register bits.
const (
	StatusIE  uint32 = 1 << 0
	StatusEXL uint32 = 1 << 1
	StatusERL uint32 = 1 << 2
	StatusBEV uint32 = 1 << 22
	StatusFR  uint32 = 1 << 26
)

// Cause register bits.
const (
	CauseIP7 uint32 = 1 << 15
	CauseBD  uint32 = 1 << 31
)

// Cause exception codes.
const (
	excInterrupt uint32 = 0
	excAdEL      uint32 = 4
	excAdES      uint32 = 5
)

// Architectural cold-reset values.
const (
	resetVector uint64 = 0xFFFFFFFFBFC00000
	resetStatus uint64 = 0x00400004 // BEV | ERL
	resetConfig uint64 = 0x7006E463
	resetPRId   uint64 = 0x00000B22
)

func (p *Pipeline) cp0Status() uint32 {
	return uint32(p.regs[CP0RegisterStatus])
}

func (p *Pipeline) cp0Cause() uint32 {
	return uint32(p.regs[CP0RegisterCause])
}
