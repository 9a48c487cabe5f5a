// Package loader reads N64 cartridge images and normalizes them for
// the simulated memory system.
package loader

import (
	"encoding/binary"
	"fmt"
	"os"
	"strings"
)

// Cartridge byte orders are identified by the first word of the image.
const (
	magicBigEndian    uint32 = 0x80371240 // .z64
	magicByteSwapped  uint32 = 0x37804012 // .v64
	magicLittleEndian uint32 = 0x40123780 // .n64
)

const headerSize = 0x40

// ROM is a normalized cartridge image. Image is laid out so that a
// little-endian word read at a word-aligned offset yields the
// architectural instruction or data word, matching the bus model.
type ROM struct {
	// Image is the normalized cartridge contents.
	Image []byte

	// BootAddress is the virtual address the IPL jumps to after
	// loading the boot segment.
	BootAddress uint64

	// Title is the internal cartridge name from the header.
	Title string
}

// Load reads and normalizes a cartridge image from disk.
func Load(path string) (*ROM, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading ROM image: %w", err)
	}

	rom, err := FromBytes(data)
	if err != nil {
		return nil, fmt.Errorf("loading %s: %w", path, err)
	}

	return rom, nil
}

// FromBytes normalizes a raw cartridge image.
func FromBytes(data []byte) (*ROM, error) {
	if len(data) < headerSize {
		return nil, fmt.Errorf("image too small: %d bytes", len(data))
	}

	image := make([]byte, (len(data)+3)&^3)

	switch magic := binary.BigEndian.Uint32(data); magic {
	case magicBigEndian:
		// Big-endian words, byte-reversed for the little-endian bus.
		for i := 0; i+4 <= len(data); i += 4 {
			image[i] = data[i+3]
			image[i+1] = data[i+2]
			image[i+2] = data[i+1]
			image[i+3] = data[i]
		}

	case magicByteSwapped:
		// Halfword-swapped big-endian words.
		for i := 0; i+4 <= len(data); i += 4 {
			image[i] = data[i+2]
			image[i+1] = data[i+3]
			image[i+2] = data[i]
			image[i+3] = data[i+1]
		}

	case magicLittleEndian:
		copy(image, data)

	default:
		return nil, fmt.Errorf("unrecognized image magic %#08x", magic)
	}

	rom := &ROM{
		Image:       image,
		BootAddress: uint64(int64(int32(binary.LittleEndian.Uint32(image[8:])))),
		Title:       parseTitle(image[0x20:0x34]),
	}
	return rom, nil
}

// parseTitle decodes the header name field, undoing the word
// normalization applied to the rest of the image.
func parseTitle(field []byte) string {
	name := make([]byte, len(field))
	for i := 0; i+4 <= len(field); i += 4 {
		name[i] = field[i+3]
		name[i+1] = field[i+2]
		name[i+2] = field[i+1]
		name[i+3] = field[i]
	}
	return strings.TrimRight(string(name), " \x00")
}
