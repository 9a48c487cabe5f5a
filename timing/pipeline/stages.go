package pipeline

import (
	"encoding/binary"
	"fmt"

	"github.com/sarchlab/vr4300sim/insts"
)

// Decode LUTs for the source register indices. The low opcode flag
// bits select the entry: bit 0 redirects rs into the CP1 bank (or the
// rd/rs fields for CP0/CP1 transfers), bit 1 redirects rt.
var rsSelectLUT = [4]uint32{0, RegisterCP1Base, 21, 11}
var rtSelectLUT = [4]uint32{0, 0, RegisterCP1Base, 0}

// readEffective reads a register as the execute stage sees it: the
// result sitting in the DC/WB latch is forwarded when the instruction
// ahead is about to write the register, and register 0 always reads
// as zero.
func (p *Pipeline) readEffective(reg uint32) uint64 {
	if reg == RegisterR0 {
		return 0
	}
	if reg == p.dcwb.Dest {
		return p.dcwb.Result
	}
	return p.regs[reg]
}

// icStage starts an instruction fetch and finishes decoding the word
// fetched last cycle. Returns true when the stage aborts.
func (p *Pipeline) icStage() bool {
	icrf := &p.icrf
	rfex := &p.rfex

	segment := icrf.Segment
	pc := icrf.PC

	// Decode the prior fetch. The mask turns a killed fetch into a
	// no-op word.
	rfex.IW &= rfex.IWMask
	rfex.Opcode = *insts.Decode(rfex.IW)
	rfex.IWMask = ^uint32(0)

	icrf.Common.Fault = FaultNone
	icrf.Common.PC = pc

	// The instruction we are about to fetch sits in the delay slot of
	// the one just decoded.
	if rfex.Opcode.Flags&insts.InfoBranch != 0 {
		icrf.Common.CauseData = CauseBD
	} else {
		icrf.Common.CauseData = 0
	}

	// Look up the segment on a boundary crossing only; the fetch
	// stream stays within one segment almost all of the time.
	if !segment.Contains(pc) {
		status := p.cp0Status()

		segment = p.segments.Resolve(pc, status)
		if segment == nil {
			p.raiseIADE()
			return true
		}

		icrf.Segment = segment
	}

	icrf.PC += 4
	return false
}

// rfStage translates the fetch address and reads the instruction word
// out of the instruction cache.
func (p *Pipeline) rfStage() bool {
	icrf := &p.icrf
	rfex := &p.rfex

	segment := icrf.Segment
	vaddr := icrf.Common.PC

	rfex.Common = icrf.Common

	paddr := segment.PhysicalAddress(vaddr)
	if segment.Mapped {
		asid := uint8(p.regs[CP0RegisterEntryHi])

		index := p.tlb.Probe(vaddr, asid)
		if index < 0 {
			panic(fmt.Sprintf(
				"vr4300: TLB miss on instruction fetch: vaddr=%#x", vaddr))
		}

		pageMask := p.tlb.PageMask(index)
		sel := 0
		if (uint64(pageMask)+1)&vaddr != 0 {
			sel = 1
		}
		paddr = p.tlb.PFN(index, sel) | uint32(vaddr)&pageMask
	}

	if !segment.Cached {
		rfex.PAddr = paddr
		p.raiseICB()
		return true
	}

	line := p.icache.Probe(vaddr, paddr)
	if line == nil {
		rfex.PAddr = paddr
		p.raiseICB()
		return true
	}

	rfex.IW = binary.LittleEndian.Uint32(line.Data[paddr&0x1C:])
	return false
}

// exStage resolves source operands (with forwarding), checks the
// load-delay interlock, and executes the instruction.
func (p *Pipeline) exStage() bool {
	rfex := &p.rfex
	exdc := &p.exdc
	dcwb := &p.dcwb

	status := p.cp0Status()
	iw := rfex.IW

	exdc.Common = rfex.Common

	// The interlock only matters behind a load; anything else in DC
	// has its result available for forwarding.
	flags := rfex.Opcode.Flags
	if exdc.Request.Type != BusRequestRead {
		flags &^= insts.InfoNeedRS | insts.InfoNeedRT
	}

	fr := (status >> 26 & 0x1) ^ 1

	rslutidx := flags & 0x1
	rtlutidx := flags & 0x2

	rs := (iw >> rsSelectLUT[2+rslutidx] & 0x1F) + rsSelectLUT[rslutidx]
	rt := (iw >> 16 & 0x1F) + rtSelectLUT[rtlutidx]

	// With FR clear, odd CP1 registers alias their even pair.
	rt &^= (rtlutidx >> 1) & fr
	rs &^= rslutidx & fr

	if (dcwb.Dest == rs && flags&insts.InfoNeedRS != 0) ||
		(dcwb.Dest == rt && flags&insts.InfoNeedRT != 0) {
		p.raiseLDI()
		return true
	}

	rsValue := p.readEffective(rs)
	rtValue := p.readEffective(rt)

	exdc.Dest = RegisterR0
	exdc.Request.Type = BusRequestNone

	return opcodeFuncs[rfex.Opcode.ID](p, iw, rsValue, rtValue)
}

// dcStage checks for reset and interrupts, then services any pending
// data access out of the data cache.
func (p *Pipeline) dcStage() bool {
	exdc := &p.exdc
	dcwb := &p.dcwb

	status := p.cp0Status()
	cause := p.cp0Cause()

	dcwb.Common = exdc.Common
	dcwb.Result = exdc.Result
	dcwb.Dest = exdc.Dest

	// Reset preempts everything.
	if p.signals&SignalColdReset != 0 {
		p.raiseRST()
		return true
	}

	if cause&status&0xFF00 != 0 &&
		status&StatusIE != 0 &&
		status&(StatusEXL|StatusERL) == 0 {
		p.raiseINTR()
		return true
	}

	if exdc.Request.Type == BusRequestNone {
		return false
	}

	request := &exdc.Request
	segment := exdc.Segment
	vaddr := request.VAddr

	if !segment.Contains(vaddr) {
		segment = p.segments.Resolve(vaddr, status)
		if segment == nil {
			p.raiseDADE()
			return true
		}

		exdc.Segment = segment
	}

	paddr := segment.PhysicalAddress(vaddr)
	if segment.Mapped {
		asid := uint8(p.regs[CP0RegisterEntryHi])

		index := p.tlb.Probe(vaddr, asid)
		if index < 0 {
			panic(fmt.Sprintf(
				"vr4300: TLB miss on data access: vaddr=%#x", vaddr))
		}

		pageMask := p.tlb.PageMask(index)
		sel := 0
		if (uint64(pageMask)+1)&vaddr != 0 {
			sel = 1
		}
		paddr = p.tlb.PFN(index, sel) | uint32(vaddr)&pageMask
	}

	if !segment.Cached {
		request.PAddr = paddr
		p.raiseDCM()
		return true
	}

	line := p.dcache.Probe(vaddr, paddr)
	if line == nil {
		request.PAddr = paddr
		p.raiseDCM()
		return true
	}

	switch request.Type {
	case BusRequestRead:
		sdata := readLineData(line.Data, paddr, request)
		dcwb.Result |= (uint64(sdata) & request.DQM) << request.PostShift

	case BusRequestWrite:
		writeLineData(line.Data, paddr, request)
		p.dcache.MarkDirty(line)

	default:
		panic("vr4300: unsupported DC stage request type")
	}

	return false
}

// readLineData extracts and positions a loaded value from a data
// cache line.
func readLineData(data []byte, paddr uint32, request *BusRequest) int64 {
	if !request.TwoWords {
		rshift := (4 - request.Size) << 3
		lshift := (paddr & 0x3) << 3

		word := binary.LittleEndian.Uint32(data[paddr&0xC:])

		// TODO: verify sub-word sign extension before the mask against
		// hardware.
		return int64(int32(word<<lshift) >> rshift)
	}

	rshift := (8 - request.Size) << 3
	lshift := (paddr & 0x7) << 3

	hi := binary.LittleEndian.Uint32(data[paddr&0x8:])
	lo := binary.LittleEndian.Uint32(data[(paddr&0x8)+4:])
	dword := uint64(hi)<<32 | uint64(lo)

	return int64(dword<<lshift) >> rshift
}

// writeLineData merges pre-positioned store data into a data cache
// line.
func writeLineData(data []byte, paddr uint32, request *BusRequest) {
	if request.Size > 4 {
		offset := paddr & 0x8
		dword := binary.LittleEndian.Uint64(data[offset:])

		// Store data rides the latch in architectural word order; the
		// line keeps its words swapped.
		swapped := request.Data<<32 | request.Data>>32
		dword = (dword &^ request.DQM) | (swapped & request.DQM)
		binary.LittleEndian.PutUint64(data[offset:], dword)
		return
	}

	offset := paddr & 0xC
	word := binary.LittleEndian.Uint32(data[offset:])

	word = (word &^ uint32(request.DQM)) | (uint32(request.Data) & uint32(request.DQM))
	binary.LittleEndian.PutUint32(data[offset:], word)
}

// wbStage retires the DC/WB latch into the register file. Register 0
// is re-zeroed so instructions targeting it have no effect.
func (p *Pipeline) wbStage() bool {
	dcwb := &p.dcwb

	p.regs[dcwb.Dest] = dcwb.Result
	p.regs[RegisterR0] = 0

	return false
}
