package pipeline

import (
	"github.com/sarchlab/vr4300sim/bus"
	"github.com/sarchlab/vr4300sim/mmu"
	"github.com/sarchlab/vr4300sim/timing/cache"
	"github.com/sarchlab/vr4300sim/timing/latency"
)

// Signals the pipeline samples at the top of the DC stage.
const (
	// SignalColdReset requests the cold reset exception.
	SignalColdReset uint32 = 1 << 0
)

// Pipeline cycle types. Zero is the fast path; the others name the
// stage the slow path resumes at after a fault or interlock.
const (
	cycleTypeWB uint32 = iota
	cycleTypeDC
	cycleTypeEX
	cycleTypeRF
	cycleTypeIC
	cycleTypeBusyWait
	numCycleTypes
)

type cycleFunc func(*Pipeline)

// cycleFuncs dispatches slow-mode cycles by resume point. Each entry
// runs its stage and chains downstream through the remaining stages.
var cycleFuncs = [numCycleTypes]cycleFunc{
	cycleTypeWB:       (*Pipeline).cycleSlowWB,
	cycleTypeDC:       (*Pipeline).cycleSlowDC,
	cycleTypeEX:       (*Pipeline).cycleSlowEX,
	cycleTypeRF:       (*Pipeline).cycleSlowRF,
	cycleTypeIC:       (*Pipeline).cycleSlowIC,
	cycleTypeBusyWait: (*Pipeline).cycleBusyWait,
}

// Statistics tracks aggregate pipeline behavior.
type Statistics struct {
	// Cycles is the total pipeline clocks ticked.
	Cycles uint64

	// Stalls is the cycles spent waiting on memory latencies.
	Stalls uint64

	// Faults is the total faults raised (all kinds).
	Faults uint64

	// Interlocks is the load-delay interlocks resolved.
	Interlocks uint64

	// FaultCounts breaks Faults down by kind.
	FaultCounts [numFaults]uint64
}

// Pipeline models the VR4300 integer pipeline: five stages, four
// inter-stage latches, and a flat architectural register file.
type Pipeline struct {
	regs [NumRegisters]uint64

	icrf ICRFLatch
	rfex RFEXLatch
	exdc EXDCLatch
	dcwb DCWBLatch

	cycles           uint64
	cycleType        uint32
	cyclesToStall    uint64
	exceptionHistory uint32
	faultPresent     bool
	signals          uint32

	// busyWaitPC is the address of the last detected idle self-branch,
	// or 1 when none is armed; fetch addresses are word-aligned, so 1
	// never matches.
	busyWaitPC uint64

	segments mmu.Resolver
	tlb      *mmu.TLB
	icache   *cache.Cache
	dcache   *cache.Cache
	bus      bus.Device
	latency  *latency.Table

	stats Statistics
}

// Option configures a Pipeline at construction time.
type Option func(*Pipeline)

// WithResolver substitutes the virtual address space model.
func WithResolver(r mmu.Resolver) Option {
	return func(p *Pipeline) { p.segments = r }
}

// WithTLB substitutes the TLB used for mapped segments.
func WithTLB(t *mmu.TLB) Option {
	return func(p *Pipeline) { p.tlb = t }
}

// WithLatencyTable substitutes the memory latency model.
func WithLatencyTable(t *latency.Table) Option {
	return func(p *Pipeline) { p.latency = t }
}

// WithICacheConfig sizes the instruction cache.
func WithICacheConfig(c cache.Config) Option {
	return func(p *Pipeline) { p.icache = cache.New(c) }
}

// WithDCacheConfig sizes the data cache.
func WithDCacheConfig(c cache.Config) Option {
	return func(p *Pipeline) { p.dcache = cache.New(c) }
}

// NewPipeline creates a pipeline attached to the given bus device and
// resets it to the architectural cold state.
func NewPipeline(dev bus.Device, opts ...Option) *Pipeline {
	p := &Pipeline{
		bus:      dev,
		segments: mmu.NewAddressSpace(),
		tlb:      mmu.NewTLB(),
		icache:   cache.New(cache.ICacheConfig()),
		dcache:   cache.New(cache.DCacheConfig()),
		latency:  latency.NewTable(),
	}

	for _, opt := range opts {
		opt(p)
	}

	p.Reset()
	return p
}

// Reset returns the pipeline to the cold architectural state: latches
// cleared, segments unresolved, and the fetch stream pointed at the
// reset vector.
func (p *Pipeline) Reset() {
	p.regs = [NumRegisters]uint64{}
	p.regs[CP0RegisterStatus] = resetStatus
	p.regs[CP0RegisterConfig] = resetConfig
	p.regs[CP0RegisterPRId] = resetPRId
	p.regs[CP0RegisterRandom] = mmu.NumTLBEntries - 1

	// The latches come up as reset bubbles: the pipeline spends its
	// first cycles in fault-aware mode draining them while the front
	// end refills from the reset vector.
	p.icrf = ICRFLatch{
		Common:  CommonLatch{Fault: FaultRST},
		PC:      resetVector,
		Segment: mmu.DefaultSegment(),
	}
	p.rfex = RFEXLatch{Common: CommonLatch{Fault: FaultRST}}
	p.exdc = EXDCLatch{
		Common:  CommonLatch{Fault: FaultRST},
		Segment: mmu.DefaultSegment(),
	}
	p.dcwb = DCWBLatch{Common: CommonLatch{Fault: FaultRST}}

	p.cycles = 0
	p.cycleType = cycleTypeWB
	p.cyclesToStall = 0
	p.exceptionHistory = 0
	p.faultPresent = true
	p.signals = 0
	p.busyWaitPC = 1

	p.icache.Reset()
	p.dcache.Reset()
	p.stats = Statistics{}
}

// Tick advances the pipeline by one pipeline clock.
func (p *Pipeline) Tick() {
	p.cycles++
	p.stats.Cycles++

	// COUNT ticks at half the pipeline clock rate.
	p.regs[CP0RegisterCount] += ^p.cycles & 0x1

	if uint32(p.regs[CP0RegisterCount]) == uint32(p.regs[CP0RegisterCompare]) {
		p.regs[CP0RegisterCause] |= uint64(CauseIP7)
	}

	// Memory latency stall in progress.
	if p.cyclesToStall > 0 {
		p.cyclesToStall--
		p.stats.Stalls++
		return
	}

	// Faults are rare, so the fast path runs the stages back to front
	// without checking latch envelopes; only fault-aware cycles pay
	// for the slow dispatch.
	if p.faultPresent || p.cycleType != cycleTypeWB {
		cycleFuncs[p.cycleType](p)
		return
	}

	if p.wbStage() {
		return
	}
	if p.dcStage() {
		return
	}
	if p.exStage() {
		return
	}
	if p.rfStage() {
		return
	}
	p.icStage()
}

// RunCycles ticks the pipeline n times.
func (p *Pipeline) RunCycles(n uint64) {
	for i := uint64(0); i < n; i++ {
		p.Tick()
	}
}

func (p *Pipeline) cycleSlowWB() {
	// Revert to the fast path once a full pipeline's worth of cycles
	// has gone by without a new fault.
	h := p.exceptionHistory
	p.exceptionHistory++
	if h > 4 {
		p.faultPresent = false
	}

	if p.dcwb.Common.Fault == FaultNone {
		if p.wbStage() {
			return
		}
	}

	p.cycleSlowDC()
}

func (p *Pipeline) cycleSlowDC() {
	exdc := &p.exdc
	dcwb := &p.dcwb

	if exdc.Common.Fault == FaultNone {
		if p.dcStage() {
			return
		}
	} else {
		// Propagate the faulted envelope downstream as a bubble.
		dcwb.Common = exdc.Common
		dcwb.Result = 0
		dcwb.Dest = RegisterR0
	}

	p.cycleSlowEX()
}

func (p *Pipeline) cycleSlowEX() {
	rfex := &p.rfex
	exdc := &p.exdc

	if rfex.Common.Fault == FaultNone {
		if p.exStage() {
			return
		}
	} else {
		exdc.Common = rfex.Common
	}

	p.cycleSlowRF()
}

func (p *Pipeline) cycleSlowRF() {
	icrf := &p.icrf
	rfex := &p.rfex

	if icrf.Common.Fault == FaultNone {
		if p.rfStage() {
			return
		}
	} else {
		rfex.Common = icrf.Common
	}

	p.cycleSlowIC()
}

func (p *Pipeline) cycleSlowIC() {
	if p.icStage() {
		return
	}

	// EX may have parked the driver earlier this cycle; the park must
	// take effect the same way it does on the fast path.
	if p.cycleType == cycleTypeBusyWait {
		return
	}

	p.cycleType = cycleTypeWB
}

// parkBusyWait idles the cycle driver inside a detected spin. The
// branch has executed twice and its delay slot once by the time this
// runs, so the only work still in flight is the slot's writeback:
// retire it, then leave the DC/WB envelope at the branch so an
// unparking interrupt computes EPC back into the spin.
func (p *Pipeline) parkBusyWait(pc uint64) {
	p.wbStage()
	p.dcwb = DCWBLatch{Common: CommonLatch{PC: pc}}

	p.cycleType = cycleTypeBusyWait
	p.faultPresent = false
	p.exceptionHistory = 0
}

// cycleBusyWait parks the pipeline inside a detected idle spin until
// an enabled interrupt arrives.
func (p *Pipeline) cycleBusyWait() {
	status := p.cp0Status()
	cause := p.cp0Cause()

	if cause&status&0xFF00 != 0 &&
		status&StatusIE != 0 &&
		status&(StatusEXL|StatusERL) == 0 {
		p.raiseINTR()
	}
}

// SignalColdReset requests the cold reset exception; it takes effect
// at the next DC stage.
func (p *Pipeline) SignalColdReset() {
	p.signals |= SignalColdReset
}

// Reg returns an architectural register by flat index.
func (p *Pipeline) Reg(index uint32) uint64 {
	return p.regs[index]
}

// SetReg writes an architectural register by flat index. Register 0
// stays zero.
func (p *Pipeline) SetReg(index uint32, value uint64) {
	if index == RegisterR0 {
		return
	}
	p.regs[index] = value
}

// PC returns the next fetch address.
func (p *Pipeline) PC() uint64 {
	return p.icrf.PC
}

// SetPC redirects the fetch stream. The in-flight fetch is not
// cancelled; call Reset first for a clean start.
func (p *Pipeline) SetPC(pc uint64) {
	p.icrf.PC = pc
	p.icrf.Segment = mmu.DefaultSegment()
}

// Cycles returns the pipeline clocks ticked since reset.
func (p *Pipeline) Cycles() uint64 {
	return p.cycles
}

// FaultPresent reports whether the pipeline is in fault-aware slow
// mode.
func (p *Pipeline) FaultPresent() bool {
	return p.faultPresent
}

// Stats returns a snapshot of the aggregate counters.
func (p *Pipeline) Stats() Statistics {
	return p.stats
}

// ICache exposes the instruction cache, mainly for preloading in
// tests and harnesses.
func (p *Pipeline) ICache() *cache.Cache {
	return p.icache
}

// DCache exposes the data cache.
func (p *Pipeline) DCache() *cache.Cache {
	return p.dcache
}

// TLB exposes the translation lookaside buffer.
func (p *Pipeline) TLB() *mmu.TLB {
	return p.tlb
}

// GetICRF returns the IC/RF latch for inspection.
func (p *Pipeline) GetICRF() *ICRFLatch {
	return &p.icrf
}

// GetRFEX returns the RF/EX latch for inspection.
func (p *Pipeline) GetRFEX() *RFEXLatch {
	return &p.rfex
}

// GetEXDC returns the EX/DC latch for inspection.
func (p *Pipeline) GetEXDC() *EXDCLatch {
	return &p.exdc
}

// GetDCWB returns the DC/WB latch for inspection.
func (p *Pipeline) GetDCWB() *DCWBLatch {
	return &p.dcwb
}
