package mmu_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/vr4300sim/mmu"
)

// Status values for the mode-gating tests.
const (
	kernelStatus uint32 = 0x00000000
	userStatus   uint32 = 0x00000010 // KSU=2, EXL/ERL clear
)

var _ = Describe("AddressSpace", func() {
	var space *mmu.AddressSpace

	BeforeEach(func() {
		space = mmu.NewAddressSpace()
	})

	It("should resolve useg as mapped and cached", func() {
		seg := space.Resolve(0x00001000, kernelStatus)
		Expect(seg).NotTo(BeNil())
		Expect(seg.Mapped).To(BeTrue())
		Expect(seg.Cached).To(BeTrue())
	})

	It("should resolve kseg0 as unmapped cached with identity offset", func() {
		seg := space.Resolve(0xFFFFFFFF80001000, kernelStatus)
		Expect(seg).NotTo(BeNil())
		Expect(seg.Mapped).To(BeFalse())
		Expect(seg.Cached).To(BeTrue())
		Expect(seg.PhysicalAddress(0xFFFFFFFF80001000)).To(Equal(uint32(0x1000)))
	})

	It("should resolve kseg1 as unmapped and uncached", func() {
		seg := space.Resolve(0xFFFFFFFFA0001000, kernelStatus)
		Expect(seg).NotTo(BeNil())
		Expect(seg.Mapped).To(BeFalse())
		Expect(seg.Cached).To(BeFalse())
		Expect(seg.PhysicalAddress(0xFFFFFFFFA0001000)).To(Equal(uint32(0x1000)))
	})

	It("should resolve ksseg and kseg3 as mapped", func() {
		seg := space.Resolve(0xFFFFFFFFC0000000, kernelStatus)
		Expect(seg).NotTo(BeNil())
		Expect(seg.Mapped).To(BeTrue())

		seg = space.Resolve(0xFFFFFFFFE0000000, kernelStatus)
		Expect(seg).NotTo(BeNil())
		Expect(seg.Mapped).To(BeTrue())
	})

	It("should not resolve addresses outside any segment", func() {
		Expect(space.Resolve(0x0000000080000000, kernelStatus)).To(BeNil())
		Expect(space.Resolve(0x4000000000000000, kernelStatus)).To(BeNil())
	})

	Context("in user mode", func() {
		It("should still resolve useg", func() {
			Expect(space.Resolve(0x00001000, userStatus)).NotTo(BeNil())
		})

		It("should hide the kernel segments", func() {
			Expect(space.Resolve(0xFFFFFFFF80001000, userStatus)).To(BeNil())
			Expect(space.Resolve(0xFFFFFFFFA0001000, userStatus)).To(BeNil())
		})

		It("should restore kernel visibility at exception level", func() {
			Expect(space.Resolve(0xFFFFFFFF80001000, userStatus|0x2)).NotTo(BeNil())
		})
	})
})

var _ = Describe("Segment", func() {
	It("should report containment by bounds", func() {
		seg := &mmu.Segment{Start: 0x1000, Length: 0x100}
		Expect(seg.Contains(0x1000)).To(BeTrue())
		Expect(seg.Contains(0x10FF)).To(BeTrue())
		Expect(seg.Contains(0x1100)).To(BeFalse())
		Expect(seg.Contains(0x0FFF)).To(BeFalse())
	})

	It("should never contain anything in the default segment", func() {
		seg := mmu.DefaultSegment()
		Expect(seg.Contains(0)).To(BeFalse())
		Expect(seg.Contains(0xFFFFFFFF80000000)).To(BeFalse())
	})
})
