package pipeline

import (
	"github.com/sarchlab/vr4300sim/bus"
	"github.com/sarchlab/vr4300sim/mmu"
)

// enterFaultMode switches the driver into fault-aware execution and
// restarts the fast-path countdown.
func (p *Pipeline) enterFaultMode(f Fault) {
	p.faultPresent = true
	p.exceptionHistory = 0
	p.stats.Faults++
	p.stats.FaultCounts[f]++
}

// exceptionProlog performs the work common to vectored exceptions:
// Cause/EPC bookkeeping, EXL entry, and redirecting fetch to the
// general exception vector. The faulting instruction's envelope
// supplies EPC and the branch-delay bit.
func (p *Pipeline) exceptionProlog(common CommonLatch, code uint32) {
	status := p.cp0Status()
	cause := p.cp0Cause() &^ 0x7C

	if status&StatusEXL == 0 {
		cause = cause&^CauseBD | common.CauseData

		epc := common.PC
		if common.CauseData != 0 {
			// EPC points at the branch, not the delay slot.
			epc -= 4
		}
		p.regs[CP0RegisterEPC] = epc
		p.regs[CP0RegisterStatus] = uint64(status | StatusEXL)
	}

	p.regs[CP0RegisterCause] = uint64(cause | code<<2)

	vector := uint64(0xFFFFFFFF80000180)
	if status&StatusBEV != 0 {
		vector = 0xFFFFFFFFBFC00380
	}

	p.icrf.PC = vector
	p.icrf.Segment = mmu.DefaultSegment()
}

// killUpstream marks every latch with the fault and turns the
// in-flight fetch into a no-op, so the stages behind the faulting one
// drain as bubbles.
func (p *Pipeline) killUpstream(f Fault) {
	p.icrf.Common.Fault = f
	p.rfex.Common.Fault = f
	p.exdc.Common.Fault = f
	p.rfex.IWMask = 0
}

// raiseRST services the cold reset exception: architectural reset
// state, all in-flight work killed, fetch pointed at the reset
// vector.
func (p *Pipeline) raiseRST() {
	p.enterFaultMode(FaultRST)
	p.signals &^= SignalColdReset

	p.regs[CP0RegisterStatus] = resetStatus
	p.regs[CP0RegisterConfig] = resetConfig
	p.regs[CP0RegisterRandom] = mmu.NumTLBEntries - 1
	p.regs[CP0RegisterErrorEPC] = p.dcwb.Common.PC

	p.killUpstream(FaultRST)
	p.dcwb.Common.Fault = FaultRST
	p.dcwb.Result = 0
	p.dcwb.Dest = RegisterR0

	p.icrf.PC = resetVector
	p.icrf.Segment = mmu.DefaultSegment()
	p.exdc.Segment = mmu.DefaultSegment()
	p.cycleType = cycleTypeWB
	p.busyWaitPC = 1
}

// raiseINTR services a pending enabled interrupt. The instruction in
// DC and everything behind it is killed; EPC points at the killed
// instruction so it re-executes after the handler.
func (p *Pipeline) raiseINTR() {
	p.enterFaultMode(FaultINTR)

	dcwb := &p.dcwb
	common := dcwb.Common

	p.killUpstream(FaultINTR)
	dcwb.Common.Fault = FaultINTR
	dcwb.Result = 0
	dcwb.Dest = RegisterR0

	p.cycleType = cycleTypeWB
	p.exceptionProlog(common, excInterrupt)
}

// raiseIADE services an instruction fetch address error.
func (p *Pipeline) raiseIADE() {
	p.enterFaultMode(FaultIADE)

	icrf := &p.icrf
	common := icrf.Common

	p.regs[CP0RegisterBadVAddr] = common.PC

	icrf.Common.Fault = FaultIADE
	p.rfex.IWMask = 0

	p.exceptionProlog(common, excAdEL)
}

// raiseDADE services a data access address error.
func (p *Pipeline) raiseDADE() {
	p.enterFaultMode(FaultDADE)

	exdc := &p.exdc
	dcwb := &p.dcwb
	common := exdc.Common

	p.regs[CP0RegisterBadVAddr] = exdc.Request.VAddr

	p.killUpstream(FaultDADE)
	dcwb.Common.Fault = FaultDADE
	dcwb.Result = 0
	dcwb.Dest = RegisterR0

	code := excAdEL
	if exdc.Request.Type == BusRequestWrite {
		code = excAdES
	}

	p.exceptionProlog(common, code)
}

// raiseICB services a fetch that missed the instruction cache or hit
// an uncached segment. The bus transaction happens here; the pipeline
// stalls for the modeled latency and resumes at the aborted stage.
func (p *Pipeline) raiseICB() {
	p.enterFaultMode(FaultICB)

	rfex := &p.rfex
	paddr := rfex.PAddr

	if p.icrf.Segment.Cached {
		var line [32]byte
		bus.ReadLine(p.bus, paddr&^0x1F, line[:])
		p.icache.Fill(paddr, line[:], p.bus)

		p.cyclesToStall = p.latency.ICacheFill()
		p.cycleType = cycleTypeRF
		return
	}

	// Uncached fetch: the word comes straight off the bus, standing in
	// for the cache read RF would have done.
	rfex.IW = p.bus.ReadWord(paddr &^ 0x3)

	p.cyclesToStall = p.latency.UncachedRead()
	p.cycleType = cycleTypeIC
}

// raiseDCM services a data access that missed the data cache or
// targets an uncached segment.
func (p *Pipeline) raiseDCM() {
	p.enterFaultMode(FaultDCM)

	exdc := &p.exdc
	request := &exdc.Request
	paddr := request.PAddr

	if exdc.Segment.Cached {
		var line [16]byte
		bus.ReadLine(p.bus, paddr&^0xF, line[:])
		p.dcache.Fill(paddr, line[:], p.bus)

		p.cyclesToStall = p.latency.DCacheFill()
		p.cycleType = cycleTypeDC
		return
	}

	// Uncached access: run the transaction directly on the bus with
	// the same positioning semantics the data cache applies, then
	// resume behind DC.
	switch request.Type {
	case BusRequestRead:
		sdata := p.uncachedRead(paddr, request)
		p.dcwb.Result |= (uint64(sdata) & request.DQM) << request.PostShift
		p.cyclesToStall = p.latency.UncachedRead()

	case BusRequestWrite:
		p.uncachedWrite(paddr, request)
		p.cyclesToStall = p.latency.UncachedWrite()

	default:
		panic("vr4300: unsupported DC stage request type")
	}

	p.cycleType = cycleTypeEX
}

func (p *Pipeline) uncachedRead(paddr uint32, request *BusRequest) int64 {
	if !request.TwoWords {
		rshift := (4 - request.Size) << 3
		lshift := (paddr & 0x3) << 3

		word := p.bus.ReadWord(paddr &^ 0x3)
		return int64(int32(word<<lshift) >> rshift)
	}

	rshift := (8 - request.Size) << 3
	lshift := (paddr & 0x7) << 3

	hi := p.bus.ReadWord(paddr &^ 0x7)
	lo := p.bus.ReadWord((paddr &^ 0x7) + 4)
	dword := uint64(hi)<<32 | uint64(lo)

	return int64(dword<<lshift) >> rshift
}

func (p *Pipeline) uncachedWrite(paddr uint32, request *BusRequest) {
	if request.Size > 4 {
		swapped := request.Data<<32 | request.Data>>32
		p.bus.WriteWord(paddr&^0x7, uint32(swapped), uint32(request.DQM))
		p.bus.WriteWord((paddr&^0x7)+4, uint32(swapped>>32), uint32(request.DQM>>32))
		return
	}

	p.bus.WriteWord(paddr&^0x3, uint32(request.Data), uint32(request.DQM))
}

// raiseLDI stalls a load-delay interlock. The aborted instruction
// replays through EX next cycle, after the load ahead of it retires;
// clearing the request type keeps the replay from re-checking against
// the bubble.
func (p *Pipeline) raiseLDI() {
	p.enterFaultMode(FaultLDI)
	p.stats.Interlocks++

	p.exdc.Common.Fault = FaultLDI
	p.exdc.Request.Type = BusRequestNone
}
