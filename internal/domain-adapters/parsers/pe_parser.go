package parsers

import (
	"encoding/binary"
	"fmt"
	"time"

	"github.com/ochairo/specimen/internal/domain/entities"
)

// PE/COFF layout constants
const (
	dosHeaderSize      = 0x40
	dosLfanewOffset    = 0x3C
	peSignatureSize    = 4
	coffHeaderSize     = 20
	sectionHeaderSize  = 40
	importDescSize     = 20
	exportDirSize      = 40
	pe32Magic          = 0x10b
	pe32PlusMagic      = 0x20b
	pe32OptMinSize     = 96
	pe32PlusOptMinSize = 112
	dirEntryExport     = 0
	dirEntryImport     = 1
	imageFileDLL       = 0x2000
	peTimestampLayout  = "2006-01-02 15:04:05"
)

// Upper bounds on table walks; real binaries stay far below them
const (
	maxImportDescriptors = 4096
	maxThunksPerModule   = 1 << 16
	maxExportFunctions   = 1 << 16
	maxSymbolNameLen     = 512
)

var peMachineNames = map[uint16]string{
	0x0:    "unknown",
	0x14c:  "i386",
	0x166:  "MIPS R4000",
	0x1c0:  "ARM",
	0x1c4:  "ARMv7 Thumb-2",
	0x200:  "IA-64",
	0x8664: "x86-64",
	0xaa64: "ARM64",
	0x5064: "RISC-V 64",
}

// PEParser decodes PE/COFF images without relying on debug/pe
type PEParser struct {
	entryWindow int
}

// NewPEParser creates a parser that keeps entryWindow bytes at the entry point
func NewPEParser(entryWindow int) *PEParser {
	if entryWindow <= 0 {
		entryWindow = entities.DefaultEntryWindow
	}
	return &PEParser{entryWindow: entryWindow}
}

// peImage carries decoding state shared by the directory walkers
type peImage struct {
	view          byteView
	is64          bool
	imageBase     uint64
	sizeOfHeaders uint32
	sections      []entities.PESection
}

// Parse decodes headers, the section table and the import/export directories
func (p *PEParser) Parse(data []byte) (*entities.PEMetadata, error) {
	v := newByteView(data, binary.LittleEndian)

	if !v.has(0, dosHeaderSize) {
		return nil, entities.NewParseError(entities.TruncatedHeader, 0,
			"file has %d bytes, DOS header needs %d", len(data), dosHeaderSize)
	}
	if data[0] != 'M' || data[1] != 'Z' {
		return nil, entities.NewParseError(entities.CorruptDirectory, 0, "invalid DOS header magic")
	}

	lfanew, _ := v.u32(dosLfanewOffset)
	peOff := uint64(lfanew)
	if !v.has(peOff, peSignatureSize+coffHeaderSize) {
		return nil, entities.NewParseError(entities.TruncatedHeader, int64(peOff),
			"PE header offset %#x needs %d bytes past end of %d-byte file", lfanew, peSignatureSize+coffHeaderSize, len(data))
	}
	sig, _ := v.bytes(peOff, peSignatureSize)
	if string(sig) != "PE\x00\x00" {
		return nil, entities.NewParseError(entities.CorruptDirectory, int64(peOff), "missing PE signature")
	}

	coff := peOff + peSignatureSize
	machine, _ := v.u16(coff)
	numSections, _ := v.u16(coff + 2)
	timestamp, _ := v.u32(coff + 4)
	optSize, _ := v.u16(coff + 16)
	characteristics, _ := v.u16(coff + 18)

	optOff := coff + coffHeaderSize
	if !v.has(optOff, uint64(optSize)) || optSize < 2 {
		return nil, entities.NewParseError(entities.TruncatedHeader, int64(optOff),
			"optional header of %d bytes does not fit", optSize)
	}

	img := &peImage{view: v}
	meta := &entities.PEMetadata{
		Machine:      entities.Hex(machine),
		MachineName:  describePEMachine(machine),
		TimestampRaw: timestamp,
		Timestamp:    time.Unix(int64(timestamp), 0).Local().Format(peTimestampLayout),
		IsDLL:        characteristics&imageFileDLL != 0,
		Imports:      map[string][]entities.PEImport{},
		Exports:      []entities.PEExport{},
	}

	magic, _ := v.u16(optOff)
	var minSize, dirsOff, numDirsOff uint64
	switch magic {
	case pe32Magic:
		meta.Magic = "PE32"
		minSize, dirsOff, numDirsOff = pe32OptMinSize, 96, 92
		base, _ := v.u32(optOff + 28)
		img.imageBase = uint64(base)
	case pe32PlusMagic:
		meta.Magic = "PE32+"
		img.is64 = true
		minSize, dirsOff, numDirsOff = pe32PlusOptMinSize, 112, 108
		img.imageBase, _ = v.u64(optOff + 24)
	default:
		return nil, entities.NewParseError(entities.CorruptDirectory, int64(optOff),
			"unknown optional header magic %#x", magic)
	}
	if uint64(optSize) < minSize {
		return nil, entities.NewParseError(entities.TruncatedHeader, int64(optOff),
			"%s optional header needs %d bytes, header declares %d", meta.Magic, minSize, optSize)
	}

	entry, _ := v.u32(optOff + 16)
	img.sizeOfHeaders, _ = v.u32(optOff + 60)
	meta.Subsystem, _ = v.u16(optOff + 68)
	meta.EntryPoint = entities.Hex(entry)
	meta.ImageBase = entities.Hex(img.imageBase)

	sectionsOff := optOff + uint64(optSize)
	sections, err := decodeSectionTable(v, sectionsOff, int(numSections))
	if err != nil {
		return nil, err
	}
	img.sections = sections
	meta.Sections = sections

	numDirs, _ := v.u32(optOff + numDirsOff)
	dirAt := func(index uint64) (rva, size uint32) {
		entryOff := dirsOff + index*8
		if uint64(numDirs) <= index || entryOff+8 > uint64(optSize) {
			return 0, 0
		}
		rva, _ = v.u32(optOff + entryOff)
		size, _ = v.u32(optOff + entryOff + 4)
		return rva, size
	}

	if rva, size := dirAt(dirEntryImport); rva != 0 && size != 0 {
		imports, err := img.decodeImports(rva)
		if err != nil {
			return nil, err
		}
		meta.Imports = imports
	}

	if rva, size := dirAt(dirEntryExport); rva != 0 && size != 0 {
		exports, err := img.decodeExports(rva)
		if err != nil {
			return nil, err
		}
		meta.Exports = exports
	}

	if off, ok := img.rvaToOffset(entry); ok && entry != 0 {
		meta.EntryWindow = v.window(off, p.entryWindow)
	}

	return meta, nil
}

func decodeSectionTable(v byteView, off uint64, count int) ([]entities.PESection, error) {
	total, _ := mulOK(uint64(count), sectionHeaderSize)
	if !v.has(off, total) {
		return nil, entities.NewParseError(entities.CorruptDirectory, int64(off),
			"section table of %d entries runs past end of %d-byte file", count, v.size())
	}

	sections := make([]entities.PESection, 0, count)
	for i := 0; i < count; i++ {
		base := off + uint64(i)*sectionHeaderSize
		rawName, _ := v.bytes(base, 8)
		virtualSize, _ := v.u32(base + 8)
		virtualAddress, _ := v.u32(base + 12)
		sizeOfRawData, _ := v.u32(base + 16)
		pointerToRawData, _ := v.u32(base + 20)
		characteristics, _ := v.u32(base + 36)

		sections = append(sections, entities.PESection{
			Name:             sectionName(rawName),
			VirtualAddress:   entities.Hex(virtualAddress),
			VirtualSize:      entities.Hex(virtualSize),
			PointerToRawData: entities.Hex(pointerToRawData),
			SizeOfRawData:    entities.Hex(sizeOfRawData),
			Characteristics:  entities.Hex(characteristics),
		})
	}
	return sections, nil
}

// sectionName truncates the fixed 8-byte name at its first NUL
func sectionName(raw []byte) string {
	for i, b := range raw {
		if b == 0 {
			return string(raw[:i])
		}
	}
	return string(raw)
}

// rvaToOffset maps a relative virtual address to a file offset through the section table.
// Addresses inside the headers map one to one.
func (img *peImage) rvaToOffset(rva uint32) (uint64, bool) {
	for _, s := range img.sections {
		start := uint64(s.VirtualAddress)
		span := uint64(s.VirtualSize)
		if uint64(s.SizeOfRawData) > span {
			span = uint64(s.SizeOfRawData)
		}
		if uint64(rva) >= start && uint64(rva) < start+span {
			delta := uint64(rva) - start
			if delta >= uint64(s.SizeOfRawData) {
				return 0, false
			}
			return uint64(s.PointerToRawData) + delta, true
		}
	}
	if rva < img.sizeOfHeaders || len(img.sections) == 0 {
		return uint64(rva), uint64(rva) < img.view.size()
	}
	return 0, false
}

// mustOffset maps an RVA that a directory depends on, failing with CorruptDirectory
func (img *peImage) mustOffset(rva uint32, what string) (uint64, error) {
	off, ok := img.rvaToOffset(rva)
	if !ok || off >= img.view.size() {
		return 0, entities.NewParseError(entities.CorruptDirectory, -1,
			"%s RVA %#x does not map inside the file", what, rva)
	}
	return off, nil
}

func (img *peImage) decodeImports(dirRVA uint32) (map[string][]entities.PEImport, error) {
	v := img.view
	imports := map[string][]entities.PEImport{}

	descOff, err := img.mustOffset(dirRVA, "import directory")
	if err != nil {
		return nil, err
	}

	thunkSize := uint64(4)
	ordinalFlag := uint64(1) << 31
	if img.is64 {
		thunkSize = 8
		ordinalFlag = uint64(1) << 63
	}

	// Lookup tables may overlap, so the walk is capped by what the file could hold
	budget := v.size() / thunkSize
	var total uint64
	walked := map[uint32]bool{}

	for i := 0; ; i++ {
		if i >= maxImportDescriptors {
			return nil, entities.NewParseError(entities.CorruptDirectory, int64(descOff),
				"import directory exceeds %d descriptors", maxImportDescriptors)
		}
		off := descOff + uint64(i)*importDescSize
		desc, ok := v.bytes(off, importDescSize)
		if !ok {
			return nil, entities.NewParseError(entities.CorruptDirectory, int64(off),
				"import descriptor %d runs past end of file", i)
		}
		originalFirstThunk := binary.LittleEndian.Uint32(desc[0:4])
		nameRVA := binary.LittleEndian.Uint32(desc[12:16])
		firstThunk := binary.LittleEndian.Uint32(desc[16:20])
		if originalFirstThunk == 0 && nameRVA == 0 && firstThunk == 0 {
			break
		}

		nameOff, err := img.mustOffset(nameRVA, "import module name")
		if err != nil {
			return nil, err
		}
		module, ok := v.cstring(nameOff, maxSymbolNameLen)
		if !ok {
			return nil, entities.NewParseError(entities.CorruptDirectory, int64(nameOff),
				"unterminated import module name")
		}

		lookupRVA := originalFirstThunk
		if lookupRVA == 0 {
			lookupRVA = firstThunk
		}
		if walked[lookupRVA] {
			continue
		}
		walked[lookupRVA] = true
		lookupOff, err := img.mustOffset(lookupRVA, "import lookup table")
		if err != nil {
			return nil, err
		}

		symbols := imports[module]
		for j := uint64(0); ; j++ {
			if j >= maxThunksPerModule {
				return nil, entities.NewParseError(entities.CorruptDirectory, int64(lookupOff),
					"import table of %s exceeds %d entries", module, maxThunksPerModule)
			}
			thunkOff := lookupOff + j*thunkSize
			thunk, ok := v.word(thunkOff, int(thunkSize))
			if !ok {
				return nil, entities.NewParseError(entities.CorruptDirectory, int64(thunkOff),
					"import lookup entry of %s runs past end of file", module)
			}
			if thunk == 0 {
				break
			}
			if total++; total > budget {
				return nil, entities.NewParseError(entities.CorruptDirectory, int64(thunkOff),
					"import tables hold more than %d entries for a %d-byte file", budget, v.size())
			}

			imp := entities.PEImport{
				Address: entities.Hex(img.imageBase + uint64(firstThunk) + j*thunkSize),
			}
			if thunk&ordinalFlag != 0 {
				imp.Ordinal = uint16(thunk)
				imp.Name = fmt.Sprintf("ordinal:%d", imp.Ordinal)
			} else {
				hintOff, err := img.mustOffset(uint32(thunk&0x7fffffff), "import hint/name")
				if err != nil {
					return nil, err
				}
				name, ok := v.cstring(hintOff+2, maxSymbolNameLen)
				if !ok {
					return nil, entities.NewParseError(entities.CorruptDirectory, int64(hintOff),
						"import name of %s runs past end of file", module)
				}
				imp.Name = name
			}
			symbols = append(symbols, imp)
		}
		imports[module] = symbols
	}

	return imports, nil
}

func (img *peImage) decodeExports(dirRVA uint32) ([]entities.PEExport, error) {
	v := img.view

	dirOff, err := img.mustOffset(dirRVA, "export directory")
	if err != nil {
		return nil, err
	}
	dir, ok := v.bytes(dirOff, exportDirSize)
	if !ok {
		return nil, entities.NewParseError(entities.CorruptDirectory, int64(dirOff),
			"export directory runs past end of file")
	}

	ordinalBase := binary.LittleEndian.Uint32(dir[16:20])
	numFunctions := binary.LittleEndian.Uint32(dir[20:24])
	numNames := binary.LittleEndian.Uint32(dir[24:28])
	functionsRVA := binary.LittleEndian.Uint32(dir[28:32])
	namesRVA := binary.LittleEndian.Uint32(dir[32:36])
	ordinalsRVA := binary.LittleEndian.Uint32(dir[36:40])

	if numFunctions > maxExportFunctions || numNames > maxExportFunctions {
		return nil, entities.NewParseError(entities.CorruptDirectory, int64(dirOff),
			"export directory declares %d functions and %d names", numFunctions, numNames)
	}
	exports := []entities.PEExport{}
	if numFunctions == 0 {
		return exports, nil
	}

	functionsOff, err := img.mustOffset(functionsRVA, "export address table")
	if err != nil {
		return nil, err
	}
	if !v.has(functionsOff, uint64(numFunctions)*4) {
		return nil, entities.NewParseError(entities.CorruptDirectory, int64(functionsOff),
			"export address table of %d entries runs past end of file", numFunctions)
	}

	names := make(map[uint32]string, numNames)
	if numNames > 0 {
		namesOff, err := img.mustOffset(namesRVA, "export name table")
		if err != nil {
			return nil, err
		}
		ordinalsOff, err := img.mustOffset(ordinalsRVA, "export ordinal table")
		if err != nil {
			return nil, err
		}
		if !v.has(namesOff, uint64(numNames)*4) || !v.has(ordinalsOff, uint64(numNames)*2) {
			return nil, entities.NewParseError(entities.CorruptDirectory, int64(namesOff),
				"export name tables of %d entries run past end of file", numNames)
		}
		for i := uint64(0); i < uint64(numNames); i++ {
			index, _ := v.u16(ordinalsOff + i*2)
			nameRVA, _ := v.u32(namesOff + i*4)
			nameOff, err := img.mustOffset(nameRVA, "export name")
			if err != nil {
				return nil, err
			}
			name, ok := v.cstring(nameOff, maxSymbolNameLen)
			if !ok {
				return nil, entities.NewParseError(entities.CorruptDirectory, int64(nameOff),
					"export name runs past end of file")
			}
			if _, seen := names[uint32(index)]; !seen {
				names[uint32(index)] = name
			}
		}
	}

	for i := uint32(0); i < numFunctions; i++ {
		rva, _ := v.u32(functionsOff + uint64(i)*4)
		if rva == 0 {
			continue
		}
		exports = append(exports, entities.PEExport{
			Address: entities.Hex(img.imageBase + uint64(rva)),
			Name:    names[i],
			Ordinal: ordinalBase + i,
		})
	}

	return exports, nil
}

func describePEMachine(machine uint16) string {
	if name, ok := peMachineNames[machine]; ok {
		return name
	}
	return fmt.Sprintf("unknown (%#x)", machine)
}
