package pipeline_test

import (
	"encoding/binary"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/vr4300sim/bus"
	"github.com/sarchlab/vr4300sim/timing/latency"
	"github.com/sarchlab/vr4300sim/timing/pipeline"
)

// Load/store encodings beyond the shared helpers.
func lb(rt, rs, off uint32) uint32  { return itype(0x20, rt, rs, off) }
func lbu(rt, rs, off uint32) uint32 { return itype(0x24, rt, rs, off) }
func lh(rt, rs, off uint32) uint32  { return itype(0x21, rt, rs, off) }
func lhu(rt, rs, off uint32) uint32 { return itype(0x25, rt, rs, off) }
func lwu(rt, rs, off uint32) uint32 { return itype(0x27, rt, rs, off) }
func ld(rt, rs, off uint32) uint32  { return itype(0x37, rt, rs, off) }
func sb(rt, rs, off uint32) uint32  { return itype(0x28, rt, rs, off) }
func sh(rt, rs, off uint32) uint32  { return itype(0x29, rt, rs, off) }
func sd(rt, rs, off uint32) uint32  { return itype(0x3F, rt, rs, off) }

var _ = Describe("Data accesses", func() {
	var (
		memory *bus.Memory
		p      *pipeline.Pipeline
	)

	BeforeEach(func() {
		memory = bus.NewMemory()
		p = pipeline.NewPipeline(memory, zeroLatency())
	})

	Describe("cached sub-word round-trips", func() {
		const value = uint64(0x0123456789ABCDEF)

		BeforeEach(func() {
			preloadDataLine(p, memory, 0x100, buildDoubleWord(value))
		})

		It("should round-trip a doubleword", func() {
			loadProgram(p, memory, append([]uint32{
				lui(2, 0x8000),
				ld(1, 2, 0x100),
				sd(1, 2, 0x108),
				ld(3, 2, 0x108),
			}, spin()...))

			p.RunCycles(16)
			Expect(p.Reg(1)).To(Equal(value))
			Expect(p.Reg(3)).To(Equal(value))
		})

		It("should round-trip bytes at every alignment", func() {
			loadProgram(p, memory, append([]uint32{
				lui(2, 0x8000),
				ld(1, 2, 0x100),
				sb(1, 2, 0x108),
				sb(1, 2, 0x109),
				sb(1, 2, 0x10A),
				sb(1, 2, 0x10B),
				lbu(4, 2, 0x108),
				lbu(5, 2, 0x109),
				lbu(6, 2, 0x10A),
				lbu(7, 2, 0x10B),
			}, spin()...))

			p.RunCycles(24)
			Expect(p.Reg(4)).To(Equal(uint64(0xEF)))
			Expect(p.Reg(5)).To(Equal(uint64(0xEF)))
			Expect(p.Reg(6)).To(Equal(uint64(0xEF)))
			Expect(p.Reg(7)).To(Equal(uint64(0xEF)))
		})

		It("should round-trip bytes with and without sign extension", func() {
			loadProgram(p, memory, append([]uint32{
				lui(2, 0x8000),
				ld(1, 2, 0x100),
				sb(1, 2, 0x109),  // low byte 0xEF
				lbu(4, 2, 0x109),
				lb(5, 2, 0x109),
			}, spin()...))

			p.RunCycles(16)
			Expect(p.Reg(4)).To(Equal(uint64(0xEF)))
			Expect(p.Reg(5)).To(Equal(uint64(0xFFFFFFFFFFFFFFEF)))
		})

		It("should round-trip halfwords at both alignments", func() {
			loadProgram(p, memory, append([]uint32{
				lui(2, 0x8000),
				ld(1, 2, 0x100),
				sh(1, 2, 0x108),  // low half 0xCDEF
				sh(1, 2, 0x10A),
				lhu(4, 2, 0x108),
				lh(5, 2, 0x10A),
			}, spin()...))

			p.RunCycles(18)
			Expect(p.Reg(4)).To(Equal(uint64(0xCDEF)))
			Expect(p.Reg(5)).To(Equal(uint64(0xFFFFFFFFFFFFCDEF)))
		})

		It("should round-trip words with and without sign extension", func() {
			loadProgram(p, memory, append([]uint32{
				lui(2, 0x8000),
				ld(1, 2, 0x100),
				sw(1, 2, 0x108),  // low word 0x89ABCDEF
				lw(4, 2, 0x108),
				lwu(5, 2, 0x108),
			}, spin()...))

			p.RunCycles(16)
			Expect(p.Reg(4)).To(Equal(uint64(0xFFFFFFFF89ABCDEF)))
			Expect(p.Reg(5)).To(Equal(uint64(0x0000000089ABCDEF)))
		})
	})

	Describe("data cache misses", func() {
		It("should fill the line over the bus and complete the load", func() {
			memory.WriteWord(0x200, 0xCAFEF00D, 0xFFFFFFFF)

			loadProgram(p, memory, append([]uint32{
				lui(2, 0x8000),
				lw(3, 2, 0x200),
			}, spin()...))

			p.RunCycles(14)
			Expect(p.Reg(3)).To(Equal(uint64(0xFFFFFFFFCAFEF00D)))
			Expect(p.Stats().FaultCounts[pipeline.FaultDCM]).To(Equal(uint64(1)))
			Expect(p.DCache().Probe(0, 0x200)).NotTo(BeNil())
		})

		It("should stall for the configured fill latency", func() {
			table := latency.NewTableWithConfig(&latency.TimingConfig{
				DCacheFillLatency: 8,
			})
			p = pipeline.NewPipeline(memory, pipeline.WithLatencyTable(table))

			loadProgram(p, memory, append([]uint32{
				lui(2, 0x8000),
				lw(3, 2, 0x200),
			}, spin()...))

			p.RunCycles(30)
			Expect(p.Stats().Stalls).To(Equal(uint64(8)))
		})
	})

	Describe("uncached accesses", func() {
		It("should write through and read back over the bus", func() {
			loadProgram(p, memory, append([]uint32{
				lui(2, 0xA000),
				addiu(1, 0, 0x1234),
				sw(1, 2, 0x200),
				lw(3, 2, 0x200),
			}, spin()...))

			p.RunCycles(18)
			Expect(memory.ReadWord(0x200)).To(Equal(uint32(0x1234)))
			Expect(p.Reg(3)).To(Equal(uint64(0x1234)))
			Expect(p.Stats().FaultCounts[pipeline.FaultDCM]).To(Equal(uint64(2)))
			Expect(p.DCache().Probe(0, 0x200)).To(BeNil())
		})

		It("should round-trip a doubleword through uncached space", func() {
			loadProgram(p, memory, append([]uint32{
				lui(2, 0x8000),
				ld(1, 2, 0x100),   // cached source
				lui(4, 0xA000),
				sd(1, 4, 0x300),   // uncached store
				ld(3, 4, 0x300),   // uncached load
			}, spin()...))
			preloadDataLine(p, memory, 0x100, buildDoubleWord(0x1122334455667788))

			p.RunCycles(20)
			Expect(p.Reg(3)).To(Equal(uint64(0x1122334455667788)))
			Expect(memory.ReadWord(0x300)).To(Equal(uint32(0x11223344)))
			Expect(memory.ReadWord(0x304)).To(Equal(uint32(0x55667788)))
		})
	})

	Describe("instruction cache misses", func() {
		It("should fill and continue when the line is not preloaded", func() {
			words := append([]uint32{addiu(1, 0, 7)}, spin()...)
			for i, w := range words {
				memory.WriteWord(uint32(i*4), w, 0xFFFFFFFF)
			}
			p.SetPC(kseg0Base)

			p.RunCycles(20)
			Expect(p.Reg(1)).To(Equal(uint64(7)))
			Expect(p.Stats().FaultCounts[pipeline.FaultICB]).To(BeNumerically(">=", 1))
			Expect(p.ICache().Probe(0, 0)).NotTo(BeNil())
		})

		It("should fetch word by word from uncached space", func() {
			words := append([]uint32{addiu(1, 0, 7)}, spin()...)
			for i, w := range words {
				memory.WriteWord(uint32(i*4), w, 0xFFFFFFFF)
			}
			p.SetPC(kseg1Base)

			p.RunCycles(30)
			Expect(p.Reg(1)).To(Equal(uint64(7)))
			Expect(p.Stats().FaultCounts[pipeline.FaultICB]).To(BeNumerically(">=", 2))
			Expect(p.ICache().Probe(0, 0)).To(BeNil())
		})
	})

	Describe("load-delay interlock", func() {
		It("should stall one cycle when a load result is used immediately", func() {
			line := make([]byte, 16)
			binary.LittleEndian.PutUint32(line, 0x21)
			preloadDataLine(p, memory, 0x100, line)

			loadProgram(p, memory, append([]uint32{
				lui(2, 0x8000),
				lw(3, 2, 0x100),
				addu(4, 3, 3),
			}, spin()...))

			// The dependent add retires one cycle later than it would
			// without the interlock.
			p.RunCycles(7)
			Expect(p.Reg(4)).To(BeZero())

			p.Tick()
			Expect(p.Reg(4)).To(Equal(uint64(0x42)))
			Expect(p.Stats().Interlocks).To(Equal(uint64(1)))
			Expect(p.Stats().FaultCounts[pipeline.FaultLDI]).To(Equal(uint64(1)))
		})

		It("should not stall when an unrelated instruction follows the load", func() {
			line := make([]byte, 16)
			binary.LittleEndian.PutUint32(line, 0x21)
			preloadDataLine(p, memory, 0x100, line)

			loadProgram(p, memory, append([]uint32{
				lui(2, 0x8000),
				lw(3, 2, 0x100),
				addiu(5, 0, 1),
				addu(4, 3, 3),
			}, spin()...))

			p.RunCycles(12)
			Expect(p.Reg(4)).To(Equal(uint64(0x42)))
			Expect(p.Stats().Interlocks).To(BeZero())
		})
	})
})
