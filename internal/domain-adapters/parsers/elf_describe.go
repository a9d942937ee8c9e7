package parsers

import (
	"fmt"
	"strings"
)

// readelf-style descriptions of ELF header and table fields

var elfClassNames = map[uint8]string{
	elfClass32: "ELF32",
	elfClass64: "ELF64",
}

var elfDataNames = map[uint8]string{
	elfData2LSB: "2's complement, little endian",
	elfData2MSB: "2's complement, big endian",
}

var elfOSABINames = map[uint8]string{
	0:   "UNIX - System V",
	1:   "UNIX - HP-UX",
	2:   "UNIX - NetBSD",
	3:   "UNIX - Linux",
	6:   "UNIX - Solaris",
	7:   "UNIX - AIX",
	8:   "UNIX - IRIX",
	9:   "UNIX - FreeBSD",
	12:  "UNIX - OpenBSD",
	97:  "ARM",
	255: "Standalone App",
}

var elfTypeNames = map[uint16]string{
	0: "NONE (None)",
	1: "REL (Relocatable file)",
	2: "EXEC (Executable file)",
	3: "DYN (Shared object file)",
	4: "CORE (Core file)",
}

var elfMachineNames = map[uint16]string{
	0:   "None",
	2:   "Sparc",
	3:   "Intel 80386",
	8:   "MIPS R3000",
	20:  "PowerPC",
	21:  "PowerPC64",
	22:  "IBM S/390",
	40:  "ARM",
	42:  "Renesas / SuperH SH",
	43:  "Sparc v9",
	50:  "Intel IA-64",
	62:  "Advanced Micro Devices X86-64",
	183: "AArch64",
	243: "RISC-V",
	247: "Linux BPF",
	258: "LoongArch",
}

// Short machine names used in the file(1)-like type label
var elfMachineShortNames = map[uint16]string{
	3:   "Intel 80386",
	8:   "MIPS",
	20:  "PowerPC",
	21:  "64-bit PowerPC",
	40:  "ARM",
	62:  "x86-64",
	183: "ARM aarch64",
	243: "RISC-V",
}

var elfSegmentTypeNames = map[uint32]string{
	0:          "NULL",
	1:          "LOAD",
	2:          "DYNAMIC",
	3:          "INTERP",
	4:          "NOTE",
	5:          "SHLIB",
	6:          "PHDR",
	7:          "TLS",
	0x6474e550: "GNU_EH_FRAME",
	0x6474e551: "GNU_STACK",
	0x6474e552: "GNU_RELRO",
	0x6474e553: "GNU_PROPERTY",
}

var elfSectionTypeNames = map[uint32]string{
	0:          "NULL",
	1:          "PROGBITS",
	2:          "SYMTAB",
	3:          "STRTAB",
	4:          "RELA",
	5:          "HASH",
	6:          "DYNAMIC",
	7:          "NOTE",
	8:          "NOBITS",
	9:          "REL",
	10:         "SHLIB",
	11:         "DYNSYM",
	14:         "INIT_ARRAY",
	15:         "FINI_ARRAY",
	16:         "PREINIT_ARRAY",
	17:         "GROUP",
	18:         "SYMTAB_SHNDX",
	0x6ffffff6: "GNU_HASH",
	0x6ffffffd: "VERDEF",
	0x6ffffffe: "VERNEED",
	0x6fffffff: "VERSYM",
}

// section flag letters in readelf order
var elfSectionFlagLetters = []struct {
	bit    uint64
	letter byte
}{
	{0x1, 'W'},
	{0x2, 'A'},
	{0x4, 'X'},
	{0x10, 'M'},
	{0x20, 'S'},
	{0x40, 'I'},
	{0x80, 'L'},
	{0x100, 'O'},
	{0x200, 'G'},
	{0x400, 'T'},
}

func describeELFClass(class uint8) string {
	if name, ok := elfClassNames[class]; ok {
		return name
	}
	return fmt.Sprintf("<unknown: %x>", class)
}

func describeELFData(data uint8) string {
	if name, ok := elfDataNames[data]; ok {
		return name
	}
	return fmt.Sprintf("<unknown: %x>", data)
}

func describeELFIdentVersion(version uint8) string {
	if version == 1 {
		return "1 (current)"
	}
	return fmt.Sprintf("%d <unknown>", version)
}

func describeELFOSABI(osabi uint8) string {
	if name, ok := elfOSABINames[osabi]; ok {
		return name
	}
	return fmt.Sprintf("<unknown: %x>", osabi)
}

func describeELFType(typ uint16) string {
	if name, ok := elfTypeNames[typ]; ok {
		return name
	}
	return fmt.Sprintf("<unknown>: %#x", typ)
}

func describeELFMachine(machine uint16) string {
	if name, ok := elfMachineNames[machine]; ok {
		return name
	}
	return fmt.Sprintf("<unknown>: %#x", machine)
}

func describeELFSegmentType(typ uint32) string {
	if name, ok := elfSegmentTypeNames[typ]; ok {
		return name
	}
	return fmt.Sprintf("LOOS+%#x", typ)
}

func describeELFSectionType(typ uint32) string {
	if name, ok := elfSectionTypeNames[typ]; ok {
		return name
	}
	return fmt.Sprintf("%#x", typ)
}

// describeELFSegmentFlags renders p_flags as readelf does: R, W, E or a space per position
func describeELFSegmentFlags(flags uint32) string {
	out := []byte("   ")
	if flags&0x4 != 0 {
		out[0] = 'R'
	}
	if flags&0x2 != 0 {
		out[1] = 'W'
	}
	if flags&0x1 != 0 {
		out[2] = 'E'
	}
	return strings.TrimRight(string(out), " ")
}

func describeELFSectionFlags(flags uint64) string {
	var b strings.Builder
	for _, f := range elfSectionFlagLetters {
		if flags&f.bit != 0 {
			b.WriteByte(f.letter)
		}
	}
	return b.String()
}

// describeELFMagic renders the identification block as space separated hex bytes
func describeELFMagic(ident []byte) string {
	parts := make([]string, len(ident))
	for i, b := range ident {
		parts[i] = fmt.Sprintf("%02x", b)
	}
	return strings.Join(parts, " ")
}
