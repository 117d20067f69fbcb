// Package loader provides ELF and flat binary loading for RISC-V programs.
package loader

import (
	"debug/elf"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"os"
)

// SegmentFlags represents memory protection flags for a segment.
type SegmentFlags uint32

const (
	// SegmentFlagExecute indicates the segment is executable.
	SegmentFlagExecute SegmentFlags = 1 << iota
	// SegmentFlagWrite indicates the segment is writable.
	SegmentFlagWrite
	// SegmentFlagRead indicates the segment is readable.
	SegmentFlagRead
)

// InstructionSize is the size in bytes of a base instruction word.
const InstructionSize = 4

// ErrNotRISCV is returned when an ELF file targets another machine.
var ErrNotRISCV = errors.New("not a RISC-V ELF file")

// Segment represents a loadable segment from a program image.
type Segment struct {
	// VirtAddr is the virtual address where this segment should be loaded.
	VirtAddr uint64
	// Data contains the segment contents from the file.
	Data []byte
	// MemSize is the size in memory (may be larger than len(Data) for BSS).
	MemSize uint64
	// Flags contains the segment protection flags.
	Flags SegmentFlags
}

// Executable reports whether the segment holds code.
func (s *Segment) Executable() bool {
	return s.Flags&SegmentFlagExecute != 0
}

// Contains reports whether the n bytes starting at addr lie in the segment.
func (s *Segment) Contains(addr, n uint64) bool {
	return addr >= s.VirtAddr && addr+n <= s.VirtAddr+s.MemSize && addr+n >= addr
}

// Program represents a loaded program image.
type Program struct {
	// EntryPoint is the virtual address where execution should begin.
	EntryPoint uint64
	// Is64Bit is true for ELFCLASS64 images.
	Is64Bit bool
	// Segments contains all loadable segments.
	Segments []Segment
}

// Load parses a little-endian RISC-V ELF binary (32- or 64-bit) and returns
// its loadable segments.
func Load(path string) (*Program, error) {
	// Open the ELF file
	f, err := elf.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open ELF file: %w", err)
	}
	defer func() { _ = f.Close() }()

	// Validate machine type (must be RISC-V)
	if f.Machine != elf.EM_RISCV {
		return nil, fmt.Errorf("%w (machine type: %v)", ErrNotRISCV, f.Machine)
	}

	if f.ByteOrder != binary.LittleEndian {
		return nil, fmt.Errorf("not a little-endian ELF file")
	}

	prog := &Program{
		EntryPoint: f.Entry,
		Is64Bit:    f.Class == elf.ELFCLASS64,
	}

	// Load all PT_LOAD segments
	for _, phdr := range f.Progs {
		if phdr.Type != elf.PT_LOAD {
			continue
		}

		// Read segment data
		data := make([]byte, phdr.Filesz)
		if phdr.Filesz > 0 {
			n, err := phdr.ReadAt(data, 0)
			if err != nil && err != io.EOF {
				return nil, fmt.Errorf("failed to read segment at 0x%x: %w", phdr.Vaddr, err)
			}
			if uint64(n) != phdr.Filesz {
				return nil, fmt.Errorf("short read for segment at 0x%x: got %d bytes, expected %d",
					phdr.Vaddr, n, phdr.Filesz)
			}
		}

		// Convert ELF flags to our segment flags
		var flags SegmentFlags
		if phdr.Flags&elf.PF_X != 0 {
			flags |= SegmentFlagExecute
		}
		if phdr.Flags&elf.PF_W != 0 {
			flags |= SegmentFlagWrite
		}
		if phdr.Flags&elf.PF_R != 0 {
			flags |= SegmentFlagRead
		}

		prog.Segments = append(prog.Segments, Segment{
			VirtAddr: phdr.Vaddr,
			Data:     data,
			MemSize:  phdr.Memsz,
			Flags:    flags,
		})
	}

	return prog, nil
}

// LoadRaw wraps a flat binary image as a single executable segment at base.
func LoadRaw(data []byte, base uint64) *Program {
	return &Program{
		EntryPoint: base,
		Segments: []Segment{{
			VirtAddr: base,
			Data:     data,
			MemSize:  uint64(len(data)),
			Flags:    SegmentFlagRead | SegmentFlagExecute,
		}},
	}
}

// LoadRawFile reads a flat binary image from path. See LoadRaw.
func LoadRawFile(path string, base uint64) (*Program, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read raw image: %w", err)
	}
	return LoadRaw(data, base), nil
}

// ExecutableSegments returns the segments holding code.
func (p *Program) ExecutableSegments() []Segment {
	var segs []Segment
	for _, seg := range p.Segments {
		if seg.Executable() {
			segs = append(segs, seg)
		}
	}
	return segs
}

// Word returns the little-endian instruction word at addr. It reports false
// when addr is not 4-byte aligned or not inside an executable segment.
// Bytes past the file data of a segment read as zero.
func (p *Program) Word(addr uint64) (uint32, bool) {
	if addr%InstructionSize != 0 {
		return 0, false
	}

	for i := range p.Segments {
		seg := &p.Segments[i]
		if !seg.Executable() || !seg.Contains(addr, InstructionSize) {
			continue
		}

		var buf [InstructionSize]byte
		offset := addr - seg.VirtAddr
		for j := uint64(0); j < InstructionSize; j++ {
			if offset+j < uint64(len(seg.Data)) {
				buf[j] = seg.Data[offset+j]
			}
		}
		return binary.LittleEndian.Uint32(buf[:]), true
	}

	return 0, false
}
