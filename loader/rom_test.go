package loader_test

import (
	"encoding/binary"
	"os"
	"path/filepath"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/vr4300sim/loader"
)

// buildZ64 assembles a minimal big-endian cartridge header plus one
// word of payload.
func buildZ64() []byte {
	data := make([]byte, 0x44)
	binary.BigEndian.PutUint32(data[0:], 0x80371240)
	binary.BigEndian.PutUint32(data[8:], 0x80001000) // boot address
	copy(data[0x20:], "TEST ROM            ")
	binary.BigEndian.PutUint32(data[0x40:], 0x3C088000) // lui r8, 0x8000
	return data
}

// byteSwap converts a z64 image to v64 halfword order.
func byteSwap(z64 []byte) []byte {
	v64 := make([]byte, len(z64))
	for i := 0; i+2 <= len(z64); i += 2 {
		v64[i] = z64[i+1]
		v64[i+1] = z64[i]
	}
	return v64
}

// wordSwap converts a z64 image to n64 little-endian word order.
func wordSwap(z64 []byte) []byte {
	n64 := make([]byte, len(z64))
	for i := 0; i+4 <= len(z64); i += 4 {
		n64[i] = z64[i+3]
		n64[i+1] = z64[i+2]
		n64[i+2] = z64[i+1]
		n64[i+3] = z64[i]
	}
	return n64
}

var _ = Describe("FromBytes", func() {
	expectNormalized := func(rom *loader.ROM) {
		// Normalized images yield architectural words through
		// little-endian reads, matching the bus model.
		Expect(binary.LittleEndian.Uint32(rom.Image[0:])).To(Equal(uint32(0x80371240)))
		Expect(binary.LittleEndian.Uint32(rom.Image[0x40:])).To(Equal(uint32(0x3C088000)))
		Expect(rom.BootAddress).To(Equal(uint64(0xFFFFFFFF80001000)))
		Expect(rom.Title).To(Equal("TEST ROM"))
	}

	It("should normalize big-endian (.z64) images", func() {
		rom, err := loader.FromBytes(buildZ64())
		Expect(err).NotTo(HaveOccurred())
		expectNormalized(rom)
	})

	It("should normalize byte-swapped (.v64) images", func() {
		rom, err := loader.FromBytes(byteSwap(buildZ64()))
		Expect(err).NotTo(HaveOccurred())
		expectNormalized(rom)
	})

	It("should accept little-endian (.n64) images unchanged", func() {
		rom, err := loader.FromBytes(wordSwap(buildZ64()))
		Expect(err).NotTo(HaveOccurred())
		expectNormalized(rom)
	})

	It("should produce identical images from all three byte orders", func() {
		z64 := buildZ64()

		a, err := loader.FromBytes(z64)
		Expect(err).NotTo(HaveOccurred())
		b, err := loader.FromBytes(byteSwap(z64))
		Expect(err).NotTo(HaveOccurred())
		c, err := loader.FromBytes(wordSwap(z64))
		Expect(err).NotTo(HaveOccurred())

		Expect(b.Image).To(Equal(a.Image))
		Expect(c.Image).To(Equal(a.Image))
	})

	It("should reject images with an unknown magic word", func() {
		data := buildZ64()
		binary.BigEndian.PutUint32(data[0:], 0x12345678)

		_, err := loader.FromBytes(data)
		Expect(err).To(HaveOccurred())
	})

	It("should reject images smaller than a header", func() {
		_, err := loader.FromBytes(make([]byte, 16))
		Expect(err).To(HaveOccurred())
	})
})

var _ = Describe("Load", func() {
	It("should load an image from disk", func() {
		path := filepath.Join(GinkgoT().TempDir(), "test.z64")
		Expect(os.WriteFile(path, buildZ64(), 0o644)).To(Succeed())

		rom, err := loader.Load(path)
		Expect(err).NotTo(HaveOccurred())
		Expect(rom.Title).To(Equal("TEST ROM"))
	})

	It("should report missing files", func() {
		_, err := loader.Load("/nonexistent/test.z64")
		Expect(err).To(HaveOccurred())
	})
})
