package parsers

import (
	"bytes"
	"encoding/binary"

	"github.com/ochairo/specimen/internal/domain/entities"
)

// ELF layout constants
const (
	elfIdentSize = 16
	elfClass32   = 1
	elfClass64   = 2
	elfData2LSB  = 1
	elfData2MSB  = 2

	elf32HeaderSize  = 52
	elf64HeaderSize  = 64
	elf32PhdrMinSize = 32
	elf64PhdrMinSize = 56
	elf32ShdrMinSize = 40
	elf64ShdrMinSize = 64

	elfPTLoad    = 1
	elfSHNXIndex = 0xffff
)

var elfMagic = []byte{0x7f, 'E', 'L', 'F'}

// ELFParser decodes ELF images without relying on debug/elf
type ELFParser struct {
	entryWindow int
}

// NewELFParser creates a parser that keeps entryWindow bytes at the entry point
func NewELFParser(entryWindow int) *ELFParser {
	if entryWindow <= 0 {
		entryWindow = entities.DefaultEntryWindow
	}
	return &ELFParser{entryWindow: entryWindow}
}

// elfLayout holds the word-size dependent field offsets of the file header
type elfLayout struct {
	headerSize                 uint64
	wordSize                   int
	entry, phoff, shoff        uint64
	flags, ehsize              uint64
	phentsize, phnum           uint64
	shentsize, shnum, shstrndx uint64
	phdrMinSize, shdrMinSize   uint64
}

var elf32Layout = elfLayout{
	headerSize: elf32HeaderSize, wordSize: 4,
	entry: 24, phoff: 28, shoff: 32,
	flags: 36, ehsize: 40,
	phentsize: 42, phnum: 44,
	shentsize: 46, shnum: 48, shstrndx: 50,
	phdrMinSize: elf32PhdrMinSize, shdrMinSize: elf32ShdrMinSize,
}

var elf64Layout = elfLayout{
	headerSize: elf64HeaderSize, wordSize: 8,
	entry: 24, phoff: 32, shoff: 40,
	flags: 48, ehsize: 52,
	phentsize: 54, phnum: 56,
	shentsize: 58, shnum: 60, shstrndx: 62,
	phdrMinSize: elf64PhdrMinSize, shdrMinSize: elf64ShdrMinSize,
}

// rawSection keeps the numeric fields needed after the table is decoded
type rawSection struct {
	nameOff uint32
	offset  uint64
	size    uint64
	link    uint32
}

// Parse validates the identification block and decodes the header, program headers and section headers
func (p *ELFParser) Parse(data []byte) (*entities.ELFMetadata, error) {
	if len(data) < elfIdentSize {
		return nil, entities.NewParseError(entities.TruncatedHeader, 0,
			"file has %d bytes, identification block needs %d", len(data), elfIdentSize)
	}
	if !bytes.Equal(data[:4], elfMagic) {
		return nil, entities.NewParseError(entities.CorruptDirectory, 0, "invalid ELF magic")
	}

	class, encoding := data[4], data[5]
	var layout elfLayout
	switch class {
	case elfClass32:
		layout = elf32Layout
	case elfClass64:
		layout = elf64Layout
	default:
		return nil, entities.NewParseError(entities.UnsupportedClass, 4, "invalid ELF class %d", class)
	}

	var order binary.ByteOrder
	switch encoding {
	case elfData2LSB:
		order = binary.LittleEndian
	case elfData2MSB:
		order = binary.BigEndian
	default:
		return nil, entities.NewParseError(entities.UnsupportedClass, 5, "invalid ELF data encoding %d", encoding)
	}

	v := newByteView(data, order)
	if !v.has(0, layout.headerSize) {
		return nil, entities.NewParseError(entities.TruncatedHeader, 0,
			"%s header needs %d bytes, file has %d", describeELFClass(class), layout.headerSize, len(data))
	}

	typ, _ := v.u16(16)
	machine, _ := v.u16(18)
	version, _ := v.u32(20)
	entry, _ := v.word(layout.entry, layout.wordSize)
	phoff, _ := v.word(layout.phoff, layout.wordSize)
	shoff, _ := v.word(layout.shoff, layout.wordSize)
	flags, _ := v.u32(layout.flags)
	ehsize, _ := v.u16(layout.ehsize)
	phentsize, _ := v.u16(layout.phentsize)
	phnum, _ := v.u16(layout.phnum)
	shentsize, _ := v.u16(layout.shentsize)
	shnum, _ := v.u16(layout.shnum)
	shstrndx, _ := v.u16(layout.shstrndx)

	meta := &entities.ELFMetadata{
		Magic:                  describeELFMagic(data[:elfIdentSize]),
		Class:                  describeELFClass(class),
		DataEncoding:           describeELFData(encoding),
		IdentVersion:           describeELFIdentVersion(data[6]),
		OSABI:                  describeELFOSABI(data[7]),
		ABIVersion:             data[8],
		Type:                   describeELFType(typ),
		Machine:                describeELFMachine(machine),
		Version:                entities.Hex(version),
		EntryPoint:             entities.Hex(entry),
		ProgramHeaderOffset:    phoff,
		SectionHeaderOffset:    shoff,
		Flags:                  entities.Hex(flags),
		HeaderSize:             ehsize,
		ProgramHeaderEntrySize: phentsize,
		ProgramHeaderCount:     phnum,
		SectionHeaderEntrySize: shentsize,
		SectionHeaderCount:     shnum,
		SectionNameIndex:       shstrndx,
		ProgramHeaders:         []entities.ELFProgramHeader{},
		SectionHeaders:         []entities.ELFSectionHeader{},
	}

	loads, err := decodeProgramHeaders(v, layout, phoff, uint64(phnum), uint64(phentsize), meta)
	if err != nil {
		return nil, err
	}

	if err := decodeSectionHeaders(v, layout, shoff, uint64(shnum), uint64(shentsize), uint64(shstrndx), meta); err != nil {
		return nil, err
	}

	meta.EntryWindow = entryWindowFromSegments(v, loads, entry, p.entryWindow)
	meta.Hardening = assessHardening(v, layout.wordSize, typ, meta)
	return meta, nil
}

// tableFits checks that count entries of entsize bytes at off lie inside the buffer
func tableFits(v byteView, off, count, entsize uint64) bool {
	total, ok := mulOK(count, entsize)
	if !ok {
		return false
	}
	return v.has(off, total)
}

func decodeProgramHeaders(v byteView, layout elfLayout, off, count, entsize uint64, meta *entities.ELFMetadata) ([]entities.ELFProgramHeader, error) {
	if count == 0 {
		return nil, nil
	}
	if entsize < layout.phdrMinSize {
		return nil, entities.NewParseError(entities.CorruptDirectory, int64(layout.phentsize),
			"program header entry size %d is smaller than %d", entsize, layout.phdrMinSize)
	}
	if !tableFits(v, off, count, entsize) {
		return nil, entities.NewParseError(entities.CorruptDirectory, clampOffset(off),
			"program header table of %d entries runs past end of %d-byte file", count, v.size())
	}

	var loads []entities.ELFProgramHeader
	for i := uint64(0); i < count; i++ {
		base := off + i*entsize
		var ph entities.ELFProgramHeader
		typ, _ := v.u32(base)
		var pflags uint32
		if layout.wordSize == 8 {
			pflags, _ = v.u32(base + 4)
			offset, _ := v.u64(base + 8)
			vaddr, _ := v.u64(base + 16)
			paddr, _ := v.u64(base + 24)
			filesz, _ := v.u64(base + 32)
			memsz, _ := v.u64(base + 40)
			align, _ := v.u64(base + 48)
			ph = entities.ELFProgramHeader{
				Offset: entities.Hex(offset), VirtualAddr: entities.Hex(vaddr), PhysicalAddr: entities.Hex(paddr),
				FileSize: entities.Hex(filesz), MemSize: entities.Hex(memsz), Align: entities.Hex(align),
			}
		} else {
			offset, _ := v.u32(base + 4)
			vaddr, _ := v.u32(base + 8)
			paddr, _ := v.u32(base + 12)
			filesz, _ := v.u32(base + 16)
			memsz, _ := v.u32(base + 20)
			pflags, _ = v.u32(base + 24)
			align, _ := v.u32(base + 28)
			ph = entities.ELFProgramHeader{
				Offset: entities.Hex(offset), VirtualAddr: entities.Hex(vaddr), PhysicalAddr: entities.Hex(paddr),
				FileSize: entities.Hex(filesz), MemSize: entities.Hex(memsz), Align: entities.Hex(align),
			}
		}
		ph.Type = describeELFSegmentType(typ)
		ph.Flags = describeELFSegmentFlags(pflags)
		meta.ProgramHeaders = append(meta.ProgramHeaders, ph)
		if typ == elfPTLoad {
			loads = append(loads, ph)
		}
	}
	return loads, nil
}

func decodeSectionHeaders(v byteView, layout elfLayout, off, count, entsize, strndx uint64, meta *entities.ELFMetadata) error {
	if off == 0 {
		return nil
	}
	if entsize < layout.shdrMinSize {
		return entities.NewParseError(entities.CorruptDirectory, int64(layout.shentsize),
			"section header entry size %d is smaller than %d", entsize, layout.shdrMinSize)
	}

	readRaw := func(base uint64) (rawSection, uint32, uint64, uint64) {
		var rs rawSection
		rs.nameOff, _ = v.u32(base)
		typ, _ := v.u32(base + 4)
		var flags, addr uint64
		if layout.wordSize == 8 {
			flags, _ = v.u64(base + 8)
			addr, _ = v.u64(base + 16)
			rs.offset, _ = v.u64(base + 24)
			rs.size, _ = v.u64(base + 32)
			rs.link, _ = v.u32(base + 40)
		} else {
			f, _ := v.u32(base + 8)
			a, _ := v.u32(base + 12)
			o, _ := v.u32(base + 16)
			s, _ := v.u32(base + 20)
			flags, addr, rs.offset, rs.size = uint64(f), uint64(a), uint64(o), uint64(s)
			rs.link, _ = v.u32(base + 24)
		}
		return rs, typ, flags, addr
	}

	// Extended numbering keeps the real count and string table index in section 0
	if count == 0 || strndx == elfSHNXIndex {
		if !v.has(off, entsize) {
			return entities.NewParseError(entities.CorruptDirectory, clampOffset(off),
				"section header table at %#x runs past end of file", off)
		}
		first, _, _, _ := readRaw(off)
		if count == 0 {
			count = first.size
		}
		if strndx == elfSHNXIndex {
			strndx = uint64(first.link)
		}
	}
	if count == 0 {
		return nil
	}
	if !tableFits(v, off, count, entsize) {
		return entities.NewParseError(entities.CorruptDirectory, clampOffset(off),
			"section header table of %d entries runs past end of %d-byte file", count, v.size())
	}

	raws := make([]rawSection, 0, count)
	for i := uint64(0); i < count; i++ {
		rs, typ, flags, addr := readRaw(off + i*entsize)
		raws = append(raws, rs)
		meta.SectionHeaders = append(meta.SectionHeaders, entities.ELFSectionHeader{
			Type:    describeELFSectionType(typ),
			Flags:   describeELFSectionFlags(flags),
			Address: entities.Hex(addr),
			Offset:  entities.Hex(rs.offset),
			Size:    entities.Hex(rs.size),
		})
	}

	if strndx < count {
		table := raws[strndx]
		if names, ok := v.bytes(table.offset, table.size); ok {
			for i, rs := range raws {
				meta.SectionHeaders[i].Name = stringAt(names, uint64(rs.nameOff))
			}
		}
	}
	return nil
}

// stringAt returns the NUL-terminated string at off in a string table, or "" when out of bounds
func stringAt(table []byte, off uint64) string {
	if off >= uint64(len(table)) {
		return ""
	}
	rest := table[off:]
	if i := bytes.IndexByte(rest, 0); i >= 0 {
		return string(rest[:i])
	}
	return ""
}

// entryWindowFromSegments maps the entry address through the PT_LOAD segment containing it
func entryWindowFromSegments(v byteView, loads []entities.ELFProgramHeader, entry uint64, n int) []byte {
	for _, seg := range loads {
		start := uint64(seg.VirtualAddr)
		end, ok := addOK(start, uint64(seg.FileSize))
		if !ok || entry < start || entry >= end {
			continue
		}
		off, ok := addOK(uint64(seg.Offset), entry-start)
		if !ok {
			return nil
		}
		return v.window(off, n)
	}
	return nil
}

// clampOffset converts a file offset for error reporting
func clampOffset(off uint64) int64 {
	if off > 1<<62 {
		return -1
	}
	return int64(off)
}
