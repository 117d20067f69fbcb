package loader_test

import (
	"encoding/binary"
	"errors"
	"os"
	"path/filepath"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/rvdecode/loader"
)

const (
	emRISCV  = 243
	emX86_64 = 62

	pfX = 0x1
	pfW = 0x2
	pfR = 0x4
)

// testSegment describes one program header for the ELF builders.
type testSegment struct {
	ptype uint32
	vaddr uint64
	flags uint32
	data  []byte
	memsz uint64
}

func loadSegment(vaddr uint64, flags uint32, data []byte) testSegment {
	return testSegment{ptype: 1, vaddr: vaddr, flags: flags, data: data, memsz: uint64(len(data))}
}

var _ = Describe("ELF Loader", func() {
	var tempDir string

	// ADDI x1, x0, 42; JALR x0, 0(x1)
	code := []byte{
		0x93, 0x00, 0xa0, 0x02, // 0x02a00093
		0x67, 0x80, 0x00, 0x00, // 0x00008067
	}

	BeforeEach(func() {
		var err error
		tempDir, err = os.MkdirTemp("", "elf-loader-test")
		Expect(err).NotTo(HaveOccurred())
	})

	AfterEach(func() {
		_ = os.RemoveAll(tempDir)
	})

	Describe("Load", func() {
		Context("with a valid RV32 ELF binary", func() {
			var elfPath string

			BeforeEach(func() {
				elfPath = filepath.Join(tempDir, "test.elf")
				createRV32ELF(elfPath, binary.LittleEndian, emRISCV, 0x10074, []testSegment{
					loadSegment(0x10074, pfR|pfX, code),
				})
			})

			It("should load without error", func() {
				prog, err := loader.Load(elfPath)
				Expect(err).NotTo(HaveOccurred())
				Expect(prog).NotTo(BeNil())
				Expect(prog.Is64Bit).To(BeFalse())
			})

			It("should extract the correct entry point", func() {
				prog, err := loader.Load(elfPath)
				Expect(err).NotTo(HaveOccurred())
				Expect(prog.EntryPoint).To(Equal(uint64(0x10074)))
			})

			It("should load segment contents", func() {
				prog, err := loader.Load(elfPath)
				Expect(err).NotTo(HaveOccurred())
				Expect(prog.Segments).To(HaveLen(1))
				Expect(prog.Segments[0].VirtAddr).To(Equal(uint64(0x10074)))
				Expect(prog.Segments[0].Data).To(Equal(code))
				Expect(prog.Segments[0].Executable()).To(BeTrue())
			})
		})

		Context("with a valid RV64 ELF binary", func() {
			It("should load and report a 64-bit image", func() {
				elfPath := filepath.Join(tempDir, "rv64.elf")
				createRV64ELF(elfPath, 0x10000, 0x10000, code)

				prog, err := loader.Load(elfPath)
				Expect(err).NotTo(HaveOccurred())
				Expect(prog.Is64Bit).To(BeTrue())
				Expect(prog.EntryPoint).To(Equal(uint64(0x10000)))
				Expect(prog.Segments).To(HaveLen(1))
				Expect(prog.Segments[0].Data).To(Equal(code))
			})
		})

		Context("with an invalid file", func() {
			It("should return error for non-existent file", func() {
				_, err := loader.Load("/nonexistent/path/to/file.elf")
				Expect(err).To(HaveOccurred())
				Expect(err.Error()).To(ContainSubstring("failed to open"))
			})

			It("should return error for non-ELF file", func() {
				notElfPath := filepath.Join(tempDir, "not-elf.bin")
				err := os.WriteFile(notElfPath, []byte("not an elf file"), 0644)
				Expect(err).NotTo(HaveOccurred())

				_, err = loader.Load(notElfPath)
				Expect(err).To(HaveOccurred())
				Expect(err.Error()).To(ContainSubstring("ELF"))
			})

			It("should return error for empty file", func() {
				emptyPath := filepath.Join(tempDir, "empty.elf")
				err := os.WriteFile(emptyPath, []byte{}, 0644)
				Expect(err).NotTo(HaveOccurred())

				_, err = loader.Load(emptyPath)
				Expect(err).To(HaveOccurred())
			})
		})

		Context("with non-RISC-V ELF", func() {
			It("should return ErrNotRISCV for an x86-64 machine type", func() {
				elfPath := filepath.Join(tempDir, "x86.elf")
				createRV32ELF(elfPath, binary.LittleEndian, emX86_64, 0, nil)

				_, err := loader.Load(elfPath)
				Expect(err).To(HaveOccurred())
				Expect(errors.Is(err, loader.ErrNotRISCV)).To(BeTrue())
			})
		})

		Context("with big-endian ELF", func() {
			It("should reject the file", func() {
				elfPath := filepath.Join(tempDir, "be.elf")
				createRV32ELF(elfPath, binary.BigEndian, emRISCV, 0x1000, []testSegment{
					loadSegment(0x1000, pfR|pfX, code),
				})

				_, err := loader.Load(elfPath)
				Expect(err).To(HaveOccurred())
				Expect(err.Error()).To(ContainSubstring("little-endian"))
			})
		})
	})

	Describe("Multi-segment ELFs", func() {
		It("should load multiple PT_LOAD segments with their permissions", func() {
			elfPath := filepath.Join(tempDir, "multi-segment.elf")
			dataData := []byte{0x01, 0x02, 0x03, 0x04}
			createRV32ELF(elfPath, binary.LittleEndian, emRISCV, 0x10000, []testSegment{
				loadSegment(0x10000, pfR|pfX, code),
				loadSegment(0x20000, pfR|pfW, dataData),
			})

			prog, err := loader.Load(elfPath)
			Expect(err).NotTo(HaveOccurred())
			Expect(prog.Segments).To(HaveLen(2))

			var codeSeg, dataSeg *loader.Segment
			for i := range prog.Segments {
				if prog.Segments[i].VirtAddr == 0x10000 {
					codeSeg = &prog.Segments[i]
				}
				if prog.Segments[i].VirtAddr == 0x20000 {
					dataSeg = &prog.Segments[i]
				}
			}

			Expect(codeSeg).NotTo(BeNil())
			Expect(codeSeg.Data).To(Equal(code))
			Expect(codeSeg.Flags & loader.SegmentFlagExecute).NotTo(BeZero())

			Expect(dataSeg).NotTo(BeNil())
			Expect(dataSeg.Data).To(Equal(dataData))
			Expect(dataSeg.Flags & loader.SegmentFlagWrite).NotTo(BeZero())

			Expect(prog.ExecutableSegments()).To(HaveLen(1))
			Expect(prog.ExecutableSegments()[0].VirtAddr).To(Equal(uint64(0x10000)))
		})

		It("should skip non-loadable program headers", func() {
			elfPath := filepath.Join(tempDir, "note.elf")
			note := testSegment{ptype: 4, vaddr: 0, flags: pfR, data: []byte{0, 0, 0, 0}, memsz: 4}
			createRV32ELF(elfPath, binary.LittleEndian, emRISCV, 0x10000, []testSegment{
				note,
				loadSegment(0x10000, pfR|pfX, code),
			})

			prog, err := loader.Load(elfPath)
			Expect(err).NotTo(HaveOccurred())
			Expect(prog.Segments).To(HaveLen(1))
		})
	})

	Describe("ELFs with no loadable segments", func() {
		It("should return an empty segment list", func() {
			elfPath := filepath.Join(tempDir, "no-load.elf")
			createRV32ELF(elfPath, binary.LittleEndian, emRISCV, 0x10000, nil)

			prog, err := loader.Load(elfPath)
			Expect(err).NotTo(HaveOccurred())
			Expect(prog.Segments).To(BeEmpty())
			Expect(prog.EntryPoint).To(Equal(uint64(0x10000)))
		})
	})
})

// createRV32ELF writes an ELF32 file with the given program headers. Segment
// data is laid out right after the program header table.
func createRV32ELF(path string, order binary.ByteOrder, machine uint16, entry uint32, segs []testSegment) {
	const ehsize, phentsize = 52, 32

	elfHeader := make([]byte, ehsize)
	copy(elfHeader[0:4], []byte{0x7f, 'E', 'L', 'F'})
	elfHeader[4] = 1 // 32-bit
	if order == binary.ByteOrder(binary.BigEndian) {
		elfHeader[5] = 2
	} else {
		elfHeader[5] = 1
	}
	elfHeader[6] = 1                           // version
	order.PutUint16(elfHeader[16:18], 2)       // executable
	order.PutUint16(elfHeader[18:20], machine) // machine
	order.PutUint32(elfHeader[20:24], 1)       // version
	order.PutUint32(elfHeader[24:28], entry)   // entry
	if len(segs) > 0 {
		order.PutUint32(elfHeader[28:32], ehsize) // phoff
	}
	order.PutUint16(elfHeader[40:42], ehsize)            // ehsize
	order.PutUint16(elfHeader[42:44], phentsize)         // phentsize
	order.PutUint16(elfHeader[44:46], uint16(len(segs))) // phnum
	order.PutUint16(elfHeader[46:48], 40)                // shentsize

	offset := uint32(ehsize + phentsize*len(segs))
	var progHeaders, payload []byte
	for _, seg := range segs {
		ph := make([]byte, phentsize)
		order.PutUint32(ph[0:4], seg.ptype)
		order.PutUint32(ph[4:8], offset)
		order.PutUint32(ph[8:12], uint32(seg.vaddr))
		order.PutUint32(ph[12:16], uint32(seg.vaddr))
		order.PutUint32(ph[16:20], uint32(len(seg.data)))
		order.PutUint32(ph[20:24], uint32(seg.memsz))
		order.PutUint32(ph[24:28], seg.flags)
		order.PutUint32(ph[28:32], 4)
		progHeaders = append(progHeaders, ph...)
		payload = append(payload, seg.data...)
		offset += uint32(len(seg.data))
	}

	file, _ := os.Create(path)
	defer func() { _ = file.Close() }()

	_, _ = file.Write(elfHeader)
	_, _ = file.Write(progHeaders)
	_, _ = file.Write(payload)
}

// createRV64ELF writes a minimal little-endian ELF64 RISC-V executable with
// one RX segment.
func createRV64ELF(path string, loadAddr, entryPoint uint64, code []byte) {
	elfHeader := make([]byte, 64)

	copy(elfHeader[0:4], []byte{0x7f, 'E', 'L', 'F'})
	elfHeader[4] = 2                                         // 64-bit
	elfHeader[5] = 1                                         // little endian
	elfHeader[6] = 1                                         // version
	binary.LittleEndian.PutUint16(elfHeader[16:18], 2)       // executable
	binary.LittleEndian.PutUint16(elfHeader[18:20], emRISCV) // RISC-V
	binary.LittleEndian.PutUint32(elfHeader[20:24], 1)       // version
	binary.LittleEndian.PutUint64(elfHeader[24:32], entryPoint)
	binary.LittleEndian.PutUint64(elfHeader[32:40], 64) // phoff
	binary.LittleEndian.PutUint16(elfHeader[52:54], 64) // ehsize
	binary.LittleEndian.PutUint16(elfHeader[54:56], 56) // phentsize
	binary.LittleEndian.PutUint16(elfHeader[56:58], 1)  // phnum
	binary.LittleEndian.PutUint16(elfHeader[58:60], 64) // shentsize

	progHeader := make([]byte, 56)
	binary.LittleEndian.PutUint32(progHeader[0:4], 1)          // PT_LOAD
	binary.LittleEndian.PutUint32(progHeader[4:8], pfR|pfX)    // flags
	binary.LittleEndian.PutUint64(progHeader[8:16], 120)       // offset
	binary.LittleEndian.PutUint64(progHeader[16:24], loadAddr) // vaddr
	binary.LittleEndian.PutUint64(progHeader[24:32], loadAddr) // paddr
	binary.LittleEndian.PutUint64(progHeader[32:40], uint64(len(code)))
	binary.LittleEndian.PutUint64(progHeader[40:48], uint64(len(code)))
	binary.LittleEndian.PutUint64(progHeader[48:56], 0x1000)

	file, _ := os.Create(path)
	defer func() { _ = file.Close() }()

	_, _ = file.Write(elfHeader)
	_, _ = file.Write(progHeader)
	_, _ = file.Write(code)
}
