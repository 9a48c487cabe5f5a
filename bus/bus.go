// Package bus provides the physical memory transaction layer consumed
// by the cache-fill and uncached access paths of the CPU core.
package bus

import "encoding/binary"

// Device is a word-granular physical memory endpoint. Cache fills read
// whole lines word by word; uncached accesses read or write single
// words. All transactions are synchronous and deterministic; the cycle
// cost of a transaction is modeled separately by the pipeline's stall
// counter.
type Device interface {
	// ReadWord returns the 32-bit word at the physical address.
	ReadWord(paddr uint32) uint32

	// WriteWord merges word into the addressed location under dqm:
	// bits set in dqm come from word, clear bits keep the old value.
	WriteWord(paddr uint32, word, dqm uint32)
}

// Physical memory map constants.
const (
	// RDRAMSize is the installed RDRAM size (8 MB, expansion pak).
	RDRAMSize = 8 * 1024 * 1024

	// ROMBase is the physical base of the cartridge ROM window.
	ROMBase = 0x10000000

	// PIFROMBase is the physical base of the boot ROM.
	PIFROMBase = 0x1FC00000
)

// Memory is a flat deterministic Device backed by byte slices: an
// RDRAM region at physical zero and a read-only cartridge ROM window.
// Unmapped reads return zero; unmapped and ROM writes are dropped.
type Memory struct {
	rdram []byte
	rom   []byte
}

// NewMemory creates a Memory with zeroed RDRAM and no ROM attached.
func NewMemory() *Memory {
	return &Memory{
		rdram: make([]byte, RDRAMSize),
	}
}

// AttachROM maps a ROM image at the cartridge window.
func (m *Memory) AttachROM(image []byte) {
	m.rom = image
}

// backing returns the slice and offset covering paddr, or nil when the
// address is unmapped.
func (m *Memory) backing(paddr uint32) ([]byte, uint32) {
	if paddr < uint32(len(m.rdram)) {
		return m.rdram, paddr
	}
	if paddr >= ROMBase && paddr-ROMBase < uint32(len(m.rom)) {
		return m.rom, paddr - ROMBase
	}
	return nil, 0
}

// ReadWord returns the word at paddr, or zero for unmapped addresses.
func (m *Memory) ReadWord(paddr uint32) uint32 {
	paddr &^= 0x3

	mem, offset := m.backing(paddr)
	if mem == nil || int(offset)+4 > len(mem) {
		return 0
	}
	return binary.LittleEndian.Uint32(mem[offset:])
}

// WriteWord merges word into RDRAM under dqm. Writes outside RDRAM are
// dropped (ROM and unmapped space are not writable).
func (m *Memory) WriteWord(paddr uint32, word, dqm uint32) {
	paddr &^= 0x3

	if int(paddr)+4 > len(m.rdram) {
		return
	}

	old := binary.LittleEndian.Uint32(m.rdram[paddr:])
	binary.LittleEndian.PutUint32(m.rdram[paddr:], (old&^dqm)|(word&dqm))
}

// ReadLine fills dst with consecutive words starting at the line-aligned
// physical address. len(dst) must be a multiple of four.
func ReadLine(dev Device, paddr uint32, dst []byte) {
	for i := 0; i < len(dst); i += 4 {
		binary.LittleEndian.PutUint32(dst[i:], dev.ReadWord(paddr+uint32(i)))
	}
}

// WriteLine writes consecutive words from src starting at the
// line-aligned physical address.
func WriteLine(dev Device, paddr uint32, src []byte) {
	for i := 0; i < len(src); i += 4 {
		dev.WriteWord(paddr+uint32(i), binary.LittleEndian.Uint32(src[i:]), ^uint32(0))
	}
}
