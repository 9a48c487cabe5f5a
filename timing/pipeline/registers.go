// Package pipeline provides the cycle-accurate VR4300 5-stage pipeline
// implementation.
package pipeline

import (
	"github.com/sarchlab/vr4300sim/insts"
	"github.com/sarchlab/vr4300sim/mmu"
)

// Fault is a synchronous pipeline control signal raised by a stage.
// Faults are not process errors: they model the hardware conditions
// (exceptions, cache misses, interlocks) that abort a stage and switch
// the driver into fault-aware execution.
type Fault uint32

// Fault kinds, in rough priority order (reset preempts everything).
const (
	// FaultNone marks a latch carrying normal work.
	FaultNone Fault = iota

	// FaultRST is the cold reset exception.
	FaultRST

	// FaultINTR is a pending enabled interrupt.
	FaultINTR

	// FaultIADE is an instruction fetch address error.
	FaultIADE

	// FaultDADE is a data access address error.
	FaultDADE

	// FaultICB is an instruction cache miss or uncached fetch.
	FaultICB

	// FaultDCM is a data cache miss or uncached access.
	FaultDCM

	// FaultLDI is a load-delay interlock.
	FaultLDI

	numFaults
)

var faultNames = [numFaults]string{
	FaultNone: "none",
	FaultRST:  "reset",
	FaultINTR: "interrupt",
	FaultIADE: "instruction address error",
	FaultDADE: "data address error",
	FaultICB:  "instruction cache busy",
	FaultDCM:  "data cache miss",
	FaultLDI:  "load-delay interlock",
}

// String returns a human-readable fault name.
func (f Fault) String() string {
	if f >= numFaults {
		return "unknown"
	}
	return faultNames[f]
}

// BusRequestType classifies the pending data access carried by the
// EX/DC latch.
type BusRequestType uint32

// Bus request types. Anything else reaching the DC stage is a fatal
// programming error.
const (
	BusRequestNone BusRequestType = iota
	BusRequestRead
	BusRequestWrite
)

// BusRequest describes a pending data access, fully shaped by the
// execute stage: the DC stage applies it mechanically.
type BusRequest struct {
	// Type selects read, write, or nothing.
	Type BusRequestType

	// VAddr is the virtual address of the access.
	VAddr uint64

	// PAddr is filled in by the DC stage once translation succeeds;
	// fault handlers use it to drive the bus.
	PAddr uint32

	// Data is the pre-positioned store data (writes only).
	Data uint64

	// DQM masks which result or store bits participate in the access.
	DQM uint64

	// PostShift positions a loaded value inside the destination result
	// (used when a sub-word load merges with other partial results).
	PostShift uint32

	// Size is the access width in bytes (1, 2, 4, or 8).
	Size uint32

	// TwoWords selects the doubleword read path, which spans two line
	// words.
	TwoWords bool
}

// CommonLatch is the envelope every latch carries: the fault state of
// the instruction, its program counter, and the cause-register data
// bit marking a branch-delay slot (bit 31).
type CommonLatch struct {
	// Fault is FaultNone for normal work. Once set, downstream stages
	// propagate the envelope instead of doing stage work.
	Fault Fault

	// PC is the virtual address of the carried instruction.
	PC uint64

	// CauseData is 0x80000000 when the instruction occupies a
	// branch-delay slot, zero otherwise.
	CauseData uint32
}

// ICRFLatch sits between the instruction cache and register fetch
// stages.
type ICRFLatch struct {
	// Common is the shared envelope.
	Common CommonLatch

	// PC is the next fetch address (one ahead of Common.PC).
	PC uint64

	// Segment is the live segment the fetch stream is running in.
	Segment *mmu.Segment
}

// RFEXLatch sits between the register fetch and execute stages.
type RFEXLatch struct {
	// Common is the shared envelope.
	Common CommonLatch

	// Opcode is the descriptor decoded from the previous fetch.
	Opcode insts.Opcode

	// IW is the raw instruction word.
	IW uint32

	// IWMask suppresses bits of IW before decode; fault handlers zero
	// it to turn an aborted fetch into a no-op.
	IWMask uint32

	// PAddr is the translated fetch address, latched for the cache
	// fill flow on a miss.
	PAddr uint32
}

// EXDCLatch sits between the execute and data cache stages.
type EXDCLatch struct {
	// Common is the shared envelope.
	Common CommonLatch

	// Dest is the destination register index (register 0 for none).
	Dest uint32

	// Result is the value bound for Dest.
	Result uint64

	// Request is the pending data access, if any.
	Request BusRequest

	// Segment is the live segment for data accesses.
	Segment *mmu.Segment
}

// DCWBLatch sits between the data cache and writeback stages.
type DCWBLatch struct {
	// Common is the shared envelope.
	Common CommonLatch

	// Dest is the destination register index.
	Dest uint32

	// Result is the value retiring into Dest.
	Result uint64
}
