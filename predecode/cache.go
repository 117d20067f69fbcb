// Package predecode provides a set-associative cache of decoded
// instructions built on Akita cache components.
package predecode

import (
	"fmt"

	akitacache "github.com/sarchlab/akita/v4/mem/cache"

	"github.com/sarchlab/rvdecode/insts"
)

const instructionSize = 4

// WordSource supplies raw instruction words by address.
type WordSource interface {
	// Word returns the instruction word at addr, or false when addr holds
	// no instruction.
	Word(addr uint64) (uint32, bool)
}

// AccessResult describes a cache lookup.
type AccessResult struct {
	// Hit indicates whether the block was already cached.
	Hit bool
	// Mapped is false when the source has no instruction at the address;
	// the returned record is then an illegal-instruction marker.
	Mapped bool
	// Evicted is true if filling the block displaced another one.
	Evicted bool
	// EvictedAddr is the block address of the displaced block.
	EvictedAddr uint64
}

// Statistics holds cache statistics.
type Statistics struct {
	Lookups   uint64
	Hits      uint64
	Misses    uint64
	Evictions uint64
}

// HitRate returns Hits/Lookups, or 0 before the first lookup.
func (s Statistics) HitRate() float64 {
	if s.Lookups == 0 {
		return 0
	}
	return float64(s.Hits) / float64(s.Lookups)
}

type entry struct {
	inst   *insts.Instruction
	mapped bool
}

// Cache holds decoded instructions, one block of consecutive words per
// cache line. A Cache is not safe for concurrent use.
type Cache struct {
	config  Config
	source  WordSource
	decoder *insts.Decoder

	// Akita cache directory for tag/LRU management
	directory *akitacache.DirectoryImpl

	// Decoded blocks, indexed by (setID * associativity + wayID)
	lines [][]entry

	stats Statistics
}

// New creates a predecode cache over source.
func New(config Config, source WordSource, decoder *insts.Decoder) (*Cache, error) {
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid predecode config: %w", err)
	}

	numSets := config.NumSets()
	totalBlocks := numSets * config.Associativity
	perBlock := config.BlockSize / instructionSize

	lines := make([][]entry, totalBlocks)
	for i := range lines {
		lines[i] = make([]entry, perBlock)
	}

	return &Cache{
		config:  config,
		source:  source,
		decoder: decoder,
		directory: akitacache.NewDirectory(
			numSets,
			config.Associativity,
			config.BlockSize,
			akitacache.NewLRUVictimFinder(),
		),
		lines: lines,
	}, nil
}

// Config returns the cache configuration.
func (c *Cache) Config() Config {
	return c.config
}

// Stats returns cache statistics.
func (c *Cache) Stats() Statistics {
	return c.stats
}

// ResetStats clears cache statistics.
func (c *Cache) ResetStats() {
	c.stats = Statistics{}
}

func (c *Cache) blockIndex(block *akitacache.Block) int {
	return block.SetID*c.config.Associativity + block.WayID
}

func (c *Cache) blockAddr(addr uint64) uint64 {
	return (addr / uint64(c.config.BlockSize)) * uint64(c.config.BlockSize)
}

// Lookup returns the decoded instruction at addr, filling its block from
// the word source on a miss. The returned instruction is shared with the
// cache and must not be modified.
func (c *Cache) Lookup(addr uint64) (*insts.Instruction, AccessResult) {
	if addr%instructionSize != 0 {
		// Misaligned fetches never reach the cache.
		return c.decoder.Decode(0), AccessResult{}
	}

	c.stats.Lookups++

	blockAddr := c.blockAddr(addr)
	slot := (addr - blockAddr) / instructionSize

	block := c.directory.Lookup(0, blockAddr)
	if block != nil && block.IsValid {
		c.stats.Hits++
		c.directory.Visit(block) // Update LRU

		e := c.lines[c.blockIndex(block)][slot]
		return e.inst, AccessResult{Hit: true, Mapped: e.mapped}
	}

	c.stats.Misses++
	return c.fill(blockAddr, slot)
}

// fill decodes a whole block into a victim line.
func (c *Cache) fill(blockAddr, slot uint64) (*insts.Instruction, AccessResult) {
	var result AccessResult

	victim := c.directory.FindVictim(blockAddr)
	if victim == nil {
		// This shouldn't happen with proper directory setup
		word, ok := c.source.Word(blockAddr + slot*instructionSize)
		if !ok {
			word = 0
		}
		return c.decoder.Decode(word), AccessResult{Mapped: ok}
	}

	if victim.IsValid {
		c.stats.Evictions++
		result.Evicted = true
		result.EvictedAddr = victim.Tag // Tag stores block-aligned address
	}

	line := c.lines[c.blockIndex(victim)]
	for i := range line {
		word, ok := c.source.Word(blockAddr + uint64(i)*instructionSize)
		if !ok {
			word = 0
		}
		line[i] = entry{inst: c.decoder.Decode(word), mapped: ok}
	}

	victim.Tag = blockAddr
	victim.IsValid = true
	victim.IsDirty = false
	c.directory.Visit(victim)

	e := line[slot]
	result.Mapped = e.mapped
	return e.inst, result
}

// Invalidate drops the block holding addr.
func (c *Cache) Invalidate(addr uint64) {
	block := c.directory.Lookup(0, c.blockAddr(addr))
	if block != nil && block.IsValid {
		block.IsValid = false
	}
}

// Reset invalidates all blocks and clears statistics.
func (c *Cache) Reset() {
	c.directory.Reset()
	c.stats = Statistics{}
}
