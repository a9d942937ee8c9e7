package parsers

import "encoding/binary"

// Synthetic images used across the parser tests.

type peOptions struct {
	pe64        bool
	dll         bool
	withImports bool
	withExports bool
}

var entryCode = []byte{0x60, 0xE8, 0x00, 0x00, 0x00, 0x00, 0x5D, 0x81, 0xED, 0x06}

const (
	testPEOffset  = 0x80
	testOptOffset = testPEOffset + 4 + 20
	testImageBase = 0x400000
)

// buildPE returns an image with .text, .idata and .edata sections at RVAs 0x1000, 0x2000 and 0x3000
func buildPE(opts peOptions) []byte {
	le := binary.LittleEndian
	buf := make([]byte, 0x800)

	buf[0], buf[1] = 'M', 'Z'
	le.PutUint32(buf[0x3C:], testPEOffset)
	copy(buf[testPEOffset:], "PE\x00\x00")

	coff := testPEOffset + 4
	machine := uint16(0x14c)
	optSize := uint16(0xE0)
	if opts.pe64 {
		machine = 0x8664
		optSize = 0xF0
	}
	characteristics := uint16(0x0102)
	if opts.dll {
		characteristics |= 0x2000
	}
	le.PutUint16(buf[coff:], machine)
	le.PutUint16(buf[coff+2:], 3)
	le.PutUint32(buf[coff+4:], 0x5E0BE100)
	le.PutUint16(buf[coff+16:], optSize)
	le.PutUint16(buf[coff+18:], characteristics)

	opt := testOptOffset
	le.PutUint32(buf[opt+16:], 0x1000)
	le.PutUint32(buf[opt+60:], 0x200)
	le.PutUint16(buf[opt+68:], 2)
	dirs := opt + 96
	if opts.pe64 {
		le.PutUint16(buf[opt:], 0x20b)
		le.PutUint64(buf[opt+24:], testImageBase)
		le.PutUint32(buf[opt+108:], 16)
		dirs = opt + 112
	} else {
		le.PutUint16(buf[opt:], 0x10b)
		le.PutUint32(buf[opt+28:], testImageBase)
		le.PutUint32(buf[opt+92:], 16)
	}
	if opts.withExports {
		le.PutUint32(buf[dirs:], 0x3000)
		le.PutUint32(buf[dirs+4:], 0x100)
	}
	if opts.withImports {
		le.PutUint32(buf[dirs+8:], 0x2000)
		le.PutUint32(buf[dirs+12:], 0x100)
	}

	sections := opt + int(optSize)
	putSection := func(i int, name string, rva, raw uint32) {
		base := sections + i*40
		copy(buf[base:base+8], name)
		le.PutUint32(buf[base+8:], 0x200)
		le.PutUint32(buf[base+12:], rva)
		le.PutUint32(buf[base+16:], 0x200)
		le.PutUint32(buf[base+20:], raw)
		le.PutUint32(buf[base+36:], 0x60000020)
	}
	putSection(0, ".text", 0x1000, 0x200)
	putSection(1, ".idata", 0x2000, 0x400)
	putSection(2, ".edata", 0x3000, 0x600)

	copy(buf[0x200:], entryCode)

	// .idata: rva 0x2000 is file offset 0x400
	idata := func(rva int) int { return rva - 0x2000 + 0x400 }
	width := 4
	ordinal := uint64(0x80000010)
	if opts.pe64 {
		width = 8
		ordinal = 0x8000000000000010
	}
	putThunk := func(off int, v uint64) {
		if width == 8 {
			le.PutUint64(buf[off:], v)
		} else {
			le.PutUint32(buf[off:], uint32(v))
		}
	}
	le.PutUint32(buf[idata(0x2000):], 0x2040)
	le.PutUint32(buf[idata(0x2000)+12:], 0x2080)
	le.PutUint32(buf[idata(0x2000)+16:], 0x2060)
	for _, table := range []int{0x2040, 0x2060} {
		putThunk(idata(table), 0x20A0)
		putThunk(idata(table)+width, ordinal)
	}
	copy(buf[idata(0x2080):], "KERNEL32.dll\x00")
	copy(buf[idata(0x20A0)+2:], "ExitProcess\x00")

	// .edata: rva 0x3000 is file offset 0x600
	edata := func(rva int) int { return rva - 0x3000 + 0x600 }
	dir := edata(0x3000)
	le.PutUint32(buf[dir+16:], 1)
	le.PutUint32(buf[dir+20:], 2)
	le.PutUint32(buf[dir+24:], 1)
	le.PutUint32(buf[dir+28:], 0x3040)
	le.PutUint32(buf[dir+32:], 0x3050)
	le.PutUint32(buf[dir+36:], 0x3060)
	le.PutUint32(buf[edata(0x3040):], 0x1010)
	le.PutUint32(buf[edata(0x3044):], 0x1020)
	le.PutUint32(buf[edata(0x3050):], 0x3070)
	le.PutUint16(buf[edata(0x3060):], 1)
	copy(buf[edata(0x3070):], "DoThing\x00")

	return buf
}

type elfOptions struct {
	class32   bool
	bigEndian bool
	machine   uint16
	noSection bool
}

const (
	testELFBase  = 0x400000
	testELFEntry = 0x100
	testELFShoff = 0x200
)

var testShstrtab = "\x00.text\x00.shstrtab\x00"

// buildELF returns an executable with one PT_LOAD segment covering the file and sections
// [null, .text, .shstrtab] unless noSection is set.
func buildELF(opts elfOptions) []byte {
	var order binary.ByteOrder = binary.LittleEndian
	if opts.bigEndian {
		order = binary.BigEndian
	}
	layout := elf64Layout
	phentsize, shentsize := 56, 64
	if opts.class32 {
		layout = elf32Layout
		phentsize, shentsize = 32, 40
	}

	size := testELFShoff + 3*shentsize
	buf := make([]byte, size)
	copy(buf, elfMagic)
	buf[4] = elfClass64
	if opts.class32 {
		buf[4] = elfClass32
	}
	buf[5] = elfData2LSB
	if opts.bigEndian {
		buf[5] = elfData2MSB
	}
	buf[6] = 1

	putWord := func(off int, v uint64) {
		if layout.wordSize == 8 {
			order.PutUint64(buf[off:], v)
		} else {
			order.PutUint32(buf[off:], uint32(v))
		}
	}

	machine := opts.machine
	if machine == 0 {
		machine = 62
	}
	order.PutUint16(buf[16:], 2)
	order.PutUint16(buf[18:], machine)
	order.PutUint32(buf[20:], 1)
	putWord(int(layout.entry), testELFBase+testELFEntry)
	putWord(int(layout.phoff), layout.headerSize)
	order.PutUint16(buf[layout.ehsize:], uint16(layout.headerSize))
	order.PutUint16(buf[layout.phentsize:], uint16(phentsize))
	order.PutUint16(buf[layout.phnum:], 1)
	order.PutUint16(buf[layout.shentsize:], uint16(shentsize))
	if !opts.noSection {
		putWord(int(layout.shoff), testELFShoff)
		order.PutUint16(buf[layout.shnum:], 3)
		order.PutUint16(buf[layout.shstrndx:], 2)
	}

	ph := int(layout.headerSize)
	order.PutUint32(buf[ph:], elfPTLoad)
	if layout.wordSize == 8 {
		order.PutUint32(buf[ph+4:], 5)
		order.PutUint64(buf[ph+16:], testELFBase)
		order.PutUint64(buf[ph+24:], testELFBase)
		order.PutUint64(buf[ph+32:], uint64(size))
		order.PutUint64(buf[ph+40:], uint64(size))
		order.PutUint64(buf[ph+48:], 0x1000)
	} else {
		order.PutUint32(buf[ph+8:], testELFBase)
		order.PutUint32(buf[ph+12:], testELFBase)
		order.PutUint32(buf[ph+16:], uint32(size))
		order.PutUint32(buf[ph+20:], uint32(size))
		order.PutUint32(buf[ph+24:], 5)
		order.PutUint32(buf[ph+28:], 0x1000)
	}

	copy(buf[testELFEntry:], entryCode)
	copy(buf[0x180:], testShstrtab)

	putSection := func(i int, name, typ uint32, flags, addr, off, sz uint64) {
		base := testELFShoff + i*shentsize
		order.PutUint32(buf[base:], name)
		order.PutUint32(buf[base+4:], typ)
		if layout.wordSize == 8 {
			order.PutUint64(buf[base+8:], flags)
			order.PutUint64(buf[base+16:], addr)
			order.PutUint64(buf[base+24:], off)
			order.PutUint64(buf[base+32:], sz)
		} else {
			order.PutUint32(buf[base+8:], uint32(flags))
			order.PutUint32(buf[base+12:], uint32(addr))
			order.PutUint32(buf[base+16:], uint32(off))
			order.PutUint32(buf[base+20:], uint32(sz))
		}
	}
	putSection(1, 1, 1, 0x6, testELFBase+testELFEntry, testELFEntry, 0x40)
	putSection(2, 7, 3, 0, 0, 0x180, uint64(len(testShstrtab)))

	return buf
}
