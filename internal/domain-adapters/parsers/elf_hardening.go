package parsers

import (
	"bytes"
	"strings"

	"github.com/ochairo/specimen/internal/domain/entities"
)

// Dynamic section tags and flags consulted for RELRO
const (
	elfETDyn     = 3
	elfDTNull    = 0
	elfDTBindNow = 24
	elfDTFlags   = 30
	elfDTFlags1  = 0x6ffffffb
	elfDFBindNow = 0x8
	elfDF1Now    = 0x1

	stackCheckSymbol = "__stack_chk_fail"
)

// assessHardening derives mitigation flags from already decoded headers.
// Symbol checks read the .dynstr and .strtab tables, so stripped static binaries report no canary.
func assessHardening(v byteView, wordSize int, typ uint16, meta *entities.ELFMetadata) *entities.ELFHardening {
	h := &entities.ELFHardening{
		PIE:   typ == elfETDyn,
		RELRO: entities.RELRONone,
	}

	var dynamic *entities.ELFProgramHeader
	for i := range meta.ProgramHeaders {
		ph := &meta.ProgramHeaders[i]
		switch ph.Type {
		case "GNU_STACK":
			h.NX = !strings.Contains(ph.Flags, "E")
		case "GNU_RELRO":
			h.RELRO = entities.RELROPartial
		case "DYNAMIC":
			dynamic = ph
		}
	}
	if h.RELRO == entities.RELROPartial && dynamic != nil && bindsNow(v, wordSize, dynamic) {
		h.RELRO = entities.RELROFull
	}

	for _, sh := range meta.SectionHeaders {
		if sh.Name != ".dynstr" && sh.Name != ".strtab" {
			continue
		}
		table, ok := v.bytes(uint64(sh.Offset), uint64(sh.Size))
		if !ok {
			continue
		}
		for _, name := range bytes.Split(table, []byte{0}) {
			switch sym := string(name); {
			case sym == stackCheckSymbol:
				h.StackCanary = true
			case strings.HasSuffix(sym, "_chk"):
				h.Fortify = true
			}
		}
	}

	h.Score()
	return h
}

// bindsNow walks the dynamic segment looking for eager binding
func bindsNow(v byteView, wordSize int, dynamic *entities.ELFProgramHeader) bool {
	entsize := uint64(2 * wordSize)
	off := uint64(dynamic.Offset)
	end, ok := addOK(off, uint64(dynamic.FileSize))
	if !ok {
		return false
	}
	for ; off+entsize <= end; off += entsize {
		tag, ok := v.word(off, wordSize)
		if !ok {
			return false
		}
		val, _ := v.word(off+uint64(wordSize), wordSize)
		switch tag {
		case elfDTNull:
			return false
		case elfDTBindNow:
			return true
		case elfDTFlags:
			if val&elfDFBindNow != 0 {
				return true
			}
		case elfDTFlags1:
			if val&elfDF1Now != 0 {
				return true
			}
		}
	}
	return false
}
