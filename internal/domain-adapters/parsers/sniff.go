package parsers

import (
	"bytes"
	"encoding/binary"
	"fmt"

	"github.com/h2non/filetype"

	"github.com/ochairo/specimen/internal/domain/entities"
)

// Sniffer classifies buffers by fixed-offset magic bytes and labels them file(1)-style
type Sniffer struct{}

// NewSniffer creates a Sniffer
func NewSniffer() *Sniffer {
	return &Sniffer{}
}

// Sniff returns FormatPE for "MZ" with an in-bounds "PE\0\0" header pointer,
// FormatELF for the ELF magic, and FormatUnknown otherwise.
func (s *Sniffer) Sniff(data []byte) entities.FormatKind {
	switch {
	case isPE(data):
		return entities.FormatPE
	case bytes.HasPrefix(data, elfMagic):
		return entities.FormatELF
	default:
		return entities.FormatUnknown
	}
}

func isPE(data []byte) bool {
	if len(data) < dosHeaderSize || data[0] != 'M' || data[1] != 'Z' {
		return false
	}
	v := newByteView(data, binary.LittleEndian)
	lfanew, _ := v.u32(dosLfanewOffset)
	sig, ok := v.bytes(uint64(lfanew), peSignatureSize)
	return ok && string(sig) == "PE\x00\x00"
}

// Describe builds the type label from the decoded format, falling back to the magic-byte library
func (s *Sniffer) Describe(data []byte, format *entities.FormatMetadata) string {
	if format != nil {
		switch format.Kind {
		case entities.FormatPE:
			if format.PE != nil {
				return describePE(format.PE)
			}
		case entities.FormatELF:
			if label, ok := describeELFLabel(data); ok {
				return label
			}
		case entities.FormatParseFailed:
			if format.Failure != nil && format.Failure.Format == entities.FormatPE {
				return "PE executable (corrupt)"
			}
			if format.Failure != nil && format.Failure.Format == entities.FormatELF {
				return "ELF (corrupt)"
			}
		}
	}

	if len(data) == 0 {
		return "empty"
	}
	if len(data) >= 2 && data[0] == 'M' && data[1] == 'Z' {
		return "MS-DOS executable"
	}
	kind, err := filetype.Match(data)
	if err != nil || kind == filetype.Unknown {
		return "data"
	}
	return kind.MIME.Value
}

func describePE(pe *entities.PEMetadata) string {
	label := pe.Magic + " executable"
	if pe.IsDLL {
		label += " (DLL)"
	}
	return fmt.Sprintf("%s (%s)", label, pe.MachineName)
}

var elfLabelTypes = map[uint16]string{
	1: "relocatable",
	2: "executable",
	3: "shared object",
	4: "core file",
}

// describeELFLabel reads the identification block directly, so it works on any decoded ELF
func describeELFLabel(data []byte) (string, bool) {
	if len(data) < 20 || !bytes.HasPrefix(data, elfMagic) {
		return "", false
	}

	bits := "32-bit"
	if data[4] == elfClass64 {
		bits = "64-bit"
	}
	endian, order := "LSB", binary.ByteOrder(binary.LittleEndian)
	if data[5] == elfData2MSB {
		endian, order = "MSB", binary.BigEndian
	}

	typ := order.Uint16(data[16:18])
	machine := order.Uint16(data[18:20])

	typeName, ok := elfLabelTypes[typ]
	if !ok {
		typeName = fmt.Sprintf("type %#x", typ)
	}
	machineName, ok := elfMachineShortNames[machine]
	if !ok {
		machineName = describeELFMachine(machine)
	}
	return fmt.Sprintf("ELF %s %s %s, %s", bits, endian, typeName, machineName), true
}
