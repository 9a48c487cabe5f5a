package core_test

import (
	"encoding/binary"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/vr4300sim/bus"
	"github.com/sarchlab/vr4300sim/timing/core"
	"github.com/sarchlab/vr4300sim/timing/latency"
)

const kseg0Base = 0xFFFFFFFF80000000

func itype(op, rt, rs, imm uint32) uint32 {
	return op<<26 | rs<<21 | rt<<16 | imm&0xFFFF
}

func rtype(funct, rd, rs, rt uint32) uint32 {
	return rs<<21 | rt<<16 | rd<<11 | funct
}

func lui(rt, imm uint32) uint32    { return itype(0x0F, rt, 0, imm) }
func addiu(rt, rs, imm uint32) uint32 {
	return itype(0x09, rt, rs, imm)
}
func addu(rd, rs, rt uint32) uint32 { return rtype(0x21, rd, rs, rt) }
func lw(rt, rs, off uint32) uint32  { return itype(0x23, rt, rs, off) }
func beq(rs, rt, off uint32) uint32 { return itype(0x04, rt, rs, off) }
func bne(rs, rt, off uint32) uint32 { return itype(0x05, rt, rs, off) }
func nop() uint32                   { return 0 }

// install writes the program at physical zero, warms the instruction
// cache, and points fetch at kseg0.
func install(c *core.Core, words []uint32) {
	for i, w := range words {
		c.Memory().WriteWord(uint32(i*4), w, 0xFFFFFFFF)
	}

	p := c.Pipeline()
	end := uint32(len(words) * 4)
	for paddr := uint32(0); paddr < end; paddr += 32 {
		var line [32]byte
		bus.ReadLine(c.Memory(), paddr, line[:])
		p.ICache().Fill(paddr, line[:], c.Memory())
	}

	p.SetPC(kseg0Base)
}

var _ = Describe("Core", func() {
	var c *core.Core

	BeforeEach(func() {
		c = core.NewCore(core.Config{Timing: &latency.TimingConfig{}})
	})

	It("should run a counted loop to completion", func() {
		// Sum 5+4+3+2+1 into r2.
		install(c, []uint32{
			addiu(1, 0, 5),
			addiu(2, 0, 0),
			addu(2, 2, 1), // loop
			addiu(1, 1, 0xFFFF),
			bne(1, 0, 0xFFFD),
			nop(),
			beq(0, 0, 0xFFFF), // park
			nop(),
		})

		c.RunCycles(60)

		p := c.Pipeline()
		Expect(p.Reg(2)).To(Equal(uint64(15)))
		Expect(p.Reg(1)).To(BeZero())
	})

	It("should read an attached ROM through the uncached window", func() {
		rom := make([]byte, 64)
		binary.LittleEndian.PutUint32(rom, 0xDEAD0001)
		c.AttachROM(rom)

		Expect(c.Memory().ReadWord(bus.ROMBase)).To(Equal(uint32(0xDEAD0001)))

		// kseg1 + 0x10000000 lands on the cartridge window.
		install(c, []uint32{
			lui(2, 0xB000),
			lw(3, 2, 0),
			beq(0, 0, 0xFFFF),
			nop(),
		})

		c.RunCycles(60)

		Expect(c.Pipeline().Reg(3)).To(Equal(uint64(0xFFFFFFFFDEAD0001)))
	})

	It("should drop writes aimed at the ROM window", func() {
		rom := make([]byte, 64)
		binary.LittleEndian.PutUint32(rom, 0x12345678)
		c.AttachROM(rom)

		c.Memory().WriteWord(bus.ROMBase, 0, 0xFFFFFFFF)
		Expect(c.Memory().ReadWord(bus.ROMBase)).To(Equal(uint32(0x12345678)))
	})

	It("should count every cycle it runs", func() {
		install(c, []uint32{beq(0, 0, 0xFFFF), nop()})
		c.RunCycles(25)

		Expect(c.Stats().Cycles).To(Equal(uint64(25)))
	})

	It("should preserve memory across a reset", func() {
		c.Memory().WriteWord(0x40, 0xCAFE, 0xFFFFFFFF)

		install(c, []uint32{
			addiu(1, 0, 7),
			beq(0, 0, 0xFFFF),
			nop(),
		})
		c.RunCycles(10)
		Expect(c.Pipeline().Reg(1)).To(Equal(uint64(7)))

		c.Reset()

		Expect(c.Pipeline().Reg(1)).To(BeZero())
		Expect(c.Stats().Cycles).To(BeZero())
		Expect(c.Memory().ReadWord(0x40)).To(Equal(uint32(0xCAFE)))
	})
})
