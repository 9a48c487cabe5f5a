package pipeline

import "github.com/sarchlab/vr4300sim/insts"

// opFunc executes one instruction in the EX stage. rs and rt carry the
// resolved source operand values; destination indices come off the
// instruction word. Returning true aborts the stage.
type opFunc func(p *Pipeline, iw uint32, rs, rt uint64) bool

// opcodeFuncs is indexed by insts.OpcodeID.
var opcodeFuncs = [insts.NumOpcodes]opFunc{
	insts.OpInvalid: execInvalid,
	insts.OpSLL:     execSLL,
	insts.OpADDU:    execADDU,
	insts.OpSUBU:    execSUBU,
	insts.OpDADDU:   execDADDU,
	insts.OpAND:     execAND,
	insts.OpOR:      execOR,
	insts.OpXOR:     execXOR,
	insts.OpNOR:     execNOR,
	insts.OpSLT:     execSLT,
	insts.OpSLTU:    execSLTU,
	insts.OpADDIU:   execADDIU,
	insts.OpDADDIU:  execDADDIU,
	insts.OpSLTI:    execSLTI,
	insts.OpSLTIU:   execSLTIU,
	insts.OpANDI:    execANDI,
	insts.OpORI:     execORI,
	insts.OpXORI:    execXORI,
	insts.OpLUI:     execLUI,
	insts.OpBEQ:     execBEQ,
	insts.OpBNE:     execBNE,
	insts.OpJ:       execJ,
	insts.OpJAL:     execJAL,
	insts.OpJR:      execJR,
	insts.OpJALR:    execJALR,
	insts.OpLB:      execLB,
	insts.OpLBU:     execLBU,
	insts.OpLH:      execLH,
	insts.OpLHU:     execLHU,
	insts.OpLW:      execLW,
	insts.OpLWU:     execLWU,
	insts.OpLD:      execLD,
	insts.OpSB:      execSB,
	insts.OpSH:      execSH,
	insts.OpSW:      execSW,
	insts.OpSD:      execSD,
	insts.OpMFC0:    execMFC0,
	insts.OpMTC0:    execMTC0,
}

func rdIndex(iw uint32) uint32 { return iw >> 11 & 0x1F }
func rtIndex(iw uint32) uint32 { return iw >> 16 & 0x1F }

// signExtend16 sign-extends the 16-bit immediate field.
func signExtend16(iw uint32) uint64 {
	return uint64(int64(int16(iw)))
}

// signExtend32 sign-extends a 32-bit value into 64 bits.
func signExtend32(value uint32) uint64 {
	return uint64(int64(int32(value)))
}

func (p *Pipeline) setResult(dest uint32, result uint64) {
	p.exdc.Dest = dest
	p.exdc.Result = result
}

// execInvalid retires unrecognized words as no-ops.
func execInvalid(p *Pipeline, iw uint32, rs, rt uint64) bool {
	return false
}

func execSLL(p *Pipeline, iw uint32, rs, rt uint64) bool {
	sa := iw >> 6 & 0x1F
	p.setResult(rdIndex(iw), signExtend32(uint32(rt)<<sa))
	return false
}

func execADDU(p *Pipeline, iw uint32, rs, rt uint64) bool {
	p.setResult(rdIndex(iw), signExtend32(uint32(rs)+uint32(rt)))
	return false
}

func execSUBU(p *Pipeline, iw uint32, rs, rt uint64) bool {
	p.setResult(rdIndex(iw), signExtend32(uint32(rs)-uint32(rt)))
	return false
}

func execDADDU(p *Pipeline, iw uint32, rs, rt uint64) bool {
	p.setResult(rdIndex(iw), rs+rt)
	return false
}

func execAND(p *Pipeline, iw uint32, rs, rt uint64) bool {
	p.setResult(rdIndex(iw), rs&rt)
	return false
}

func execOR(p *Pipeline, iw uint32, rs, rt uint64) bool {
	p.setResult(rdIndex(iw), rs|rt)
	return false
}

func execXOR(p *Pipeline, iw uint32, rs, rt uint64) bool {
	p.setResult(rdIndex(iw), rs^rt)
	return false
}

func execNOR(p *Pipeline, iw uint32, rs, rt uint64) bool {
	p.setResult(rdIndex(iw), ^(rs | rt))
	return false
}

func execSLT(p *Pipeline, iw uint32, rs, rt uint64) bool {
	var result uint64
	if int64(rs) < int64(rt) {
		result = 1
	}
	p.setResult(rdIndex(iw), result)
	return false
}

func execSLTU(p *Pipeline, iw uint32, rs, rt uint64) bool {
	var result uint64
	if rs < rt {
		result = 1
	}
	p.setResult(rdIndex(iw), result)
	return false
}

func execADDIU(p *Pipeline, iw uint32, rs, rt uint64) bool {
	p.setResult(rtIndex(iw), signExtend32(uint32(rs)+uint32(signExtend16(iw))))
	return false
}

func execDADDIU(p *Pipeline, iw uint32, rs, rt uint64) bool {
	p.setResult(rtIndex(iw), rs+signExtend16(iw))
	return false
}

func execSLTI(p *Pipeline, iw uint32, rs, rt uint64) bool {
	var result uint64
	if int64(rs) < int64(signExtend16(iw)) {
		result = 1
	}
	p.setResult(rtIndex(iw), result)
	return false
}

func execSLTIU(p *Pipeline, iw uint32, rs, rt uint64) bool {
	var result uint64
	if rs < signExtend16(iw) {
		result = 1
	}
	p.setResult(rtIndex(iw), result)
	return false
}

func execANDI(p *Pipeline, iw uint32, rs, rt uint64) bool {
	p.setResult(rtIndex(iw), rs&uint64(uint16(iw)))
	return false
}

func execORI(p *Pipeline, iw uint32, rs, rt uint64) bool {
	p.setResult(rtIndex(iw), rs|uint64(uint16(iw)))
	return false
}

func execXORI(p *Pipeline, iw uint32, rs, rt uint64) bool {
	p.setResult(rtIndex(iw), rs^uint64(uint16(iw)))
	return false
}

func execLUI(p *Pipeline, iw uint32, rs, rt uint64) bool {
	p.setResult(rtIndex(iw), signExtend32(uint32(iw)<<16))
	return false
}

// branchTarget computes a branch destination relative to the delay
// slot address.
func branchTarget(pc uint64, iw uint32) uint64 {
	offset := uint64(int64(int16(iw))) << 2
	return pc + 4 + offset
}

func execBEQ(p *Pipeline, iw uint32, rs, rt uint64) bool {
	if rs != rt {
		return false
	}

	pc := p.rfex.Common.PC
	target := branchTarget(pc, iw)

	// A taken branch to itself with an always-true condition can never
	// make progress; park the pipeline until an interrupt arrives.
	// Park on the second execution, once the instructions ahead of the
	// spin have drained through writeback.
	if target == pc && iw>>21&0x1F == rtIndex(iw) {
		if p.busyWaitPC == pc {
			p.parkBusyWait(pc)
		} else {
			p.busyWaitPC = pc
		}
	}

	p.icrf.PC = target
	return false
}

func execBNE(p *Pipeline, iw uint32, rs, rt uint64) bool {
	if rs == rt {
		return false
	}

	p.icrf.PC = branchTarget(p.rfex.Common.PC, iw)
	return false
}

// jumpTarget computes an absolute jump destination within the current
// 256MB region of the delay slot.
func jumpTarget(pc uint64, iw uint32) uint64 {
	return (pc+4)&^uint64(0x0FFFFFFF) | uint64(iw&0x03FFFFFF)<<2
}

func execJ(p *Pipeline, iw uint32, rs, rt uint64) bool {
	p.icrf.PC = jumpTarget(p.rfex.Common.PC, iw)
	return false
}

func execJAL(p *Pipeline, iw uint32, rs, rt uint64) bool {
	pc := p.rfex.Common.PC
	p.setResult(RegisterRA, pc+8)
	p.icrf.PC = jumpTarget(pc, iw)
	return false
}

func execJR(p *Pipeline, iw uint32, rs, rt uint64) bool {
	p.icrf.PC = rs
	return false
}

func execJALR(p *Pipeline, iw uint32, rs, rt uint64) bool {
	p.setResult(rdIndex(iw), p.rfex.Common.PC+8)
	p.icrf.PC = rs
	return false
}

// issueLoad shapes a read bus request for the DC stage.
func issueLoad(p *Pipeline, iw uint32, rs uint64, size uint32, dqm uint64, twoWords bool) {
	p.exdc.Request = BusRequest{
		Type:     BusRequestRead,
		VAddr:    rs + signExtend16(iw),
		DQM:      dqm,
		Size:     size,
		TwoWords: twoWords,
	}
	p.exdc.Dest = rtIndex(iw)
	p.exdc.Result = 0
}

func execLB(p *Pipeline, iw uint32, rs, rt uint64) bool {
	issueLoad(p, iw, rs, 1, ^uint64(0), false)
	return false
}

func execLBU(p *Pipeline, iw uint32, rs, rt uint64) bool {
	issueLoad(p, iw, rs, 1, 0xFF, false)
	return false
}

func execLH(p *Pipeline, iw uint32, rs, rt uint64) bool {
	issueLoad(p, iw, rs, 2, ^uint64(0), false)
	return false
}

func execLHU(p *Pipeline, iw uint32, rs, rt uint64) bool {
	issueLoad(p, iw, rs, 2, 0xFFFF, false)
	return false
}

func execLW(p *Pipeline, iw uint32, rs, rt uint64) bool {
	issueLoad(p, iw, rs, 4, ^uint64(0), false)
	return false
}

func execLWU(p *Pipeline, iw uint32, rs, rt uint64) bool {
	issueLoad(p, iw, rs, 4, 0xFFFFFFFF, false)
	return false
}

func execLD(p *Pipeline, iw uint32, rs, rt uint64) bool {
	issueLoad(p, iw, rs, 8, ^uint64(0), true)
	return false
}

func execSB(p *Pipeline, iw uint32, rs, rt uint64) bool {
	vaddr := rs + signExtend16(iw)
	shift := (3 - vaddr&0x3) << 3

	p.exdc.Request = BusRequest{
		Type:  BusRequestWrite,
		VAddr: vaddr,
		Data:  (rt & 0xFF) << shift,
		DQM:   uint64(0xFF) << shift,
		Size:  1,
	}
	return false
}

func execSH(p *Pipeline, iw uint32, rs, rt uint64) bool {
	vaddr := rs + signExtend16(iw)
	shift := (2 - vaddr&0x2) << 3

	p.exdc.Request = BusRequest{
		Type:  BusRequestWrite,
		VAddr: vaddr,
		Data:  (rt & 0xFFFF) << shift,
		DQM:   uint64(0xFFFF) << shift,
		Size:  2,
	}
	return false
}

func execSW(p *Pipeline, iw uint32, rs, rt uint64) bool {
	p.exdc.Request = BusRequest{
		Type:  BusRequestWrite,
		VAddr: rs + signExtend16(iw),
		Data:  rt & 0xFFFFFFFF,
		DQM:   0xFFFFFFFF,
		Size:  4,
	}
	return false
}

func execSD(p *Pipeline, iw uint32, rs, rt uint64) bool {
	p.exdc.Request = BusRequest{
		Type:     BusRequestWrite,
		VAddr:    rs + signExtend16(iw),
		Data:     rt,
		DQM:      ^uint64(0),
		Size:     8,
		TwoWords: true,
	}
	return false
}

func execMFC0(p *Pipeline, iw uint32, rs, rt uint64) bool {
	p.setResult(rtIndex(iw), signExtend32(uint32(p.regs[cp0RegisterBase+rdIndex(iw)])))
	return false
}

func execMTC0(p *Pipeline, iw uint32, rs, rt uint64) bool {
	rd := rdIndex(iw)

	// CP0 state updates bypass the writeback path so the DC stage sees
	// them next cycle.
	p.regs[cp0RegisterBase+rd] = signExtend32(uint32(rt))

	// Writing COMPARE acknowledges a pending timer interrupt.
	if cp0RegisterBase+rd == CP0RegisterCompare {
		p.regs[CP0RegisterCause] &^= uint64(CauseIP7)
	}

	return false
}
