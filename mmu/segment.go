// Package mmu provides the VR4300 virtual memory collaborators: the
// segment resolver used for fast bounds-checked translation, and the
// joint TLB used for mapped segments.
package mmu

// Segment describes one virtual address range and how accesses inside
// it translate to physical addresses. Pipeline latches hold a segment
// reference and only re-resolve when an address leaves its bounds, so
// resolution cost is amortized to O(1) per access stream.
type Segment struct {
	// Start is the first virtual address of the segment.
	Start uint64

	// Length is the segment size in bytes. A zero-length segment never
	// matches, which is how the default segment forces the first lookup.
	Length uint64

	// Offset is subtracted from a virtual address to produce the
	// physical address for unmapped segments.
	Offset uint64

	// Mapped segments translate through the TLB instead of Offset alone.
	Mapped bool

	// Cached segments go through the cache hierarchy; uncached segments
	// access the bus directly.
	Cached bool
}

// Contains reports whether vaddr falls inside the segment bounds.
func (s *Segment) Contains(vaddr uint64) bool {
	return vaddr-s.Start < s.Length
}

// PhysicalAddress translates vaddr for an unmapped segment.
func (s *Segment) PhysicalAddress(vaddr uint64) uint32 {
	return uint32(vaddr - s.Offset)
}

// Resolver looks up the segment covering a virtual address.
// Resolve returns nil when no segment covers the address; the caller
// raises an address-error fault.
type Resolver interface {
	Resolve(vaddr uint64, status uint32) *Segment
}

// Status register bits that gate segment visibility.
const (
	statusKSU = 0x18 // processor mode field
	statusERL = 0x04
	statusEXL = 0x02
)

// The 32-bit compatibility address space. Kernel segments live in the
// sign-extended window 0xFFFFFFFF_80000000..0xFFFFFFFF_FFFFFFFF.
var (
	useg = Segment{
		Start:  0x0000000000000000,
		Length: 0x80000000,
		Offset: 0,
		Mapped: true,
		Cached: true,
	}

	kseg0 = Segment{
		Start:  0xFFFFFFFF80000000,
		Length: 0x20000000,
		Offset: 0xFFFFFFFF80000000,
		Mapped: false,
		Cached: true,
	}

	kseg1 = Segment{
		Start:  0xFFFFFFFFA0000000,
		Length: 0x20000000,
		Offset: 0xFFFFFFFFA0000000,
		Mapped: false,
		Cached: false,
	}

	ksseg = Segment{
		Start:  0xFFFFFFFFC0000000,
		Length: 0x20000000,
		Offset: 0,
		Mapped: true,
		Cached: true,
	}

	kseg3 = Segment{
		Start:  0xFFFFFFFFE0000000,
		Length: 0x20000000,
		Offset: 0,
		Mapped: true,
		Cached: true,
	}

	// defaultSegment never contains any address, so the first access
	// after reset performs a real lookup.
	defaultSegment = Segment{}
)

// DefaultSegment returns the sentinel segment latched at reset.
func DefaultSegment() *Segment {
	return &defaultSegment
}

// AddressSpace is the standard VR4300 segment map. It implements
// Resolver over the 32-bit compatibility segments.
type AddressSpace struct{}

// NewAddressSpace creates the standard segment map.
func NewAddressSpace() *AddressSpace {
	return &AddressSpace{}
}

// Resolve returns the segment covering vaddr, or nil if the address is
// not part of the address space. User mode (KSU=2, no EXL/ERL) only
// sees useg.
func (a *AddressSpace) Resolve(vaddr uint64, status uint32) *Segment {
	if vaddr < useg.Length {
		return &useg
	}

	// Kernel segments require kernel mode.
	userMode := status&statusKSU == 0x10 &&
		status&(statusEXL|statusERL) == 0
	if userMode {
		return nil
	}

	switch {
	case kseg0.Contains(vaddr):
		return &kseg0
	case kseg1.Contains(vaddr):
		return &kseg1
	case ksseg.Contains(vaddr):
		return &ksseg
	case kseg3.Contains(vaddr):
		return &kseg3
	}

	return nil
}
