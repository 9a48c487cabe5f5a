package mmu

// NumTLBEntries is the size of the VR4300 joint TLB.
const NumTLBEntries = 32

// TLBEntry is one joint TLB entry mapping an even/odd virtual page pair
// to two physical frames.
type TLBEntry struct {
	// VPN2 is the virtual page number pair (vaddr with the page-pair
	// offset bits masked off).
	VPN2 uint64

	// ASID is the address space identifier the entry belongs to.
	ASID uint8

	// Global entries match regardless of ASID.
	Global bool

	// Valid entries participate in probing.
	Valid bool

	// PageMask selects the page size: vaddr & PageMask is the in-page
	// offset, and (PageMask+1) & vaddr selects the odd page.
	PageMask uint32

	// PFN holds the even and odd physical frame numbers, pre-shifted
	// so that PFN[sel] | (vaddr & PageMask) is the physical address.
	PFN [2]uint32
}

// TLB models the 32-entry joint translation lookaside buffer.
type TLB struct {
	entries [NumTLBEntries]TLBEntry
}

// NewTLB creates an empty TLB.
func NewTLB() *TLB {
	return &TLB{}
}

// Write fills the entry at index. Out-of-range indices wrap, matching
// the hardware behavior of the index register's low bits.
func (t *TLB) Write(index int, entry TLBEntry) {
	t.entries[index%NumTLBEntries] = entry
}

// Entry returns the entry at index.
func (t *TLB) Entry(index int) TLBEntry {
	return t.entries[index%NumTLBEntries]
}

// Probe searches for an entry matching (vaddr, asid). It returns the
// matching index, or a negative value on miss. Probing is a linear scan
// in fixed entry order, so results are deterministic.
func (t *TLB) Probe(vaddr uint64, asid uint8) int {
	for i := range t.entries {
		e := &t.entries[i]
		if !e.Valid {
			continue
		}
		if !e.Global && e.ASID != asid {
			continue
		}

		pairMask := uint64(e.PageMask)<<1 | 0x1FFF
		if vaddr&^pairMask == e.VPN2 {
			return i
		}
	}
	return -1
}

// PageMask returns the page mask of the entry at index.
func (t *TLB) PageMask(index int) uint32 {
	return t.entries[index%NumTLBEntries].PageMask
}

// PFN returns the physical frame number of the even (sel=0) or odd
// (sel=1) page of the entry at index.
func (t *TLB) PFN(index int, sel int) uint32 {
	return t.entries[index%NumTLBEntries].PFN[sel&1]
}
