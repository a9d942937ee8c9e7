package entities

// FormatKind tags which variant of FormatMetadata is populated
type FormatKind string

// Format variants
const (
	FormatPE          FormatKind = "pe"
	FormatELF         FormatKind = "elf"
	FormatUnknown     FormatKind = "unknown"
	FormatParseFailed FormatKind = "parse_failed"
)

// FormatMetadata is a tagged variant over the decoded container structures.
// Exactly one of PE, ELF or Failure is set, matching Kind; Unknown carries nothing.
type FormatMetadata struct {
	Kind    FormatKind    `json:"kind" yaml:"kind" msgpack:"kind"`
	PE      *PEMetadata   `json:"pe,omitempty" yaml:"pe,omitempty" msgpack:"pe,omitempty"`
	ELF     *ELFMetadata  `json:"elf,omitempty" yaml:"elf,omitempty" msgpack:"elf,omitempty"`
	Failure *ParseFailure `json:"failure,omitempty" yaml:"failure,omitempty" msgpack:"failure,omitempty"`
}

// ParseFailure records why a sniffed container could not be decoded
type ParseFailure struct {
	Format FormatKind     `json:"format" yaml:"format" msgpack:"format"` // the sniffed format whose parser failed
	Kind   ParseErrorKind `json:"kind" yaml:"kind" msgpack:"kind"`
	Reason string         `json:"reason" yaml:"reason" msgpack:"reason"`
}

// NewPEFormat wraps decoded PE metadata
func NewPEFormat(pe *PEMetadata) FormatMetadata {
	return FormatMetadata{Kind: FormatPE, PE: pe}
}

// NewELFFormat wraps decoded ELF metadata
func NewELFFormat(elf *ELFMetadata) FormatMetadata {
	return FormatMetadata{Kind: FormatELF, ELF: elf}
}

// NewUnknownFormat returns the variant for unrecognised containers
func NewUnknownFormat() FormatMetadata {
	return FormatMetadata{Kind: FormatUnknown}
}

// NewParseFailedFormat degrades a parser error into the ParseFailed variant.
// Errors that are not *ParseError are recorded with kind corrupt_directory.
func NewParseFailedFormat(sniffed FormatKind, err error) FormatMetadata {
	failure := &ParseFailure{Format: sniffed, Kind: CorruptDirectory}
	if err != nil {
		failure.Reason = err.Error()
		if pe, ok := AsParseError(err); ok {
			failure.Kind = pe.Kind
		}
	}
	return FormatMetadata{Kind: FormatParseFailed, Failure: failure}
}

// EntryWindow returns the retained entry-point bytes of the decoded variant, if any
func (f FormatMetadata) EntryWindow() []byte {
	switch f.Kind {
	case FormatPE:
		if f.PE != nil {
			return f.PE.EntryWindow
		}
	case FormatELF:
		if f.ELF != nil {
			return f.ELF.EntryWindow
		}
	}
	return nil
}

// PEMetadata holds the decoded PE/COFF structures
type PEMetadata struct {
	Machine      Hex    `json:"machine" yaml:"machine" msgpack:"machine"`
	MachineName  string `json:"machine_name" yaml:"machine_name" msgpack:"machine_name"`
	Magic        string `json:"magic" yaml:"magic" msgpack:"magic"` // "PE32" or "PE32+"
	Timestamp    string `json:"timestamp" yaml:"timestamp" msgpack:"timestamp"`
	TimestampRaw uint32 `json:"timestamp_raw" yaml:"timestamp_raw" msgpack:"timestamp_raw"`
	EntryPoint   Hex    `json:"entry_point" yaml:"entry_point" msgpack:"entry_point"`
	ImageBase    Hex    `json:"image_base" yaml:"image_base" msgpack:"image_base"`
	Subsystem    uint16 `json:"subsystem" yaml:"subsystem" msgpack:"subsystem"`
	IsDLL        bool   `json:"is_dll" yaml:"is_dll" msgpack:"is_dll"`

	Sections []PESection           `json:"sections" yaml:"sections" msgpack:"sections"`
	Imports  map[string][]PEImport `json:"imports" yaml:"imports" msgpack:"imports"`
	Exports  []PEExport            `json:"exports" yaml:"exports" msgpack:"exports"`

	// EntryWindow is the first bytes at the entry point, kept for packer detection
	EntryWindow []byte `json:"-" yaml:"-" msgpack:"-"`
}

// PESection is one section table entry
type PESection struct {
	Name             string `json:"name" yaml:"name" msgpack:"name"`
	VirtualAddress   Hex    `json:"virtual_address" yaml:"virtual_address" msgpack:"virtual_address"`
	VirtualSize      Hex    `json:"virtual_size" yaml:"virtual_size" msgpack:"virtual_size"`
	PointerToRawData Hex    `json:"pointer_to_raw_data" yaml:"pointer_to_raw_data" msgpack:"pointer_to_raw_data"`
	SizeOfRawData    Hex    `json:"size_of_raw_data" yaml:"size_of_raw_data" msgpack:"size_of_raw_data"`
	Characteristics  Hex    `json:"characteristics" yaml:"characteristics" msgpack:"characteristics"`
}

// PEImport is one imported symbol. Name is "ordinal:N" for imports by ordinal.
type PEImport struct {
	Address Hex    `json:"address" yaml:"address" msgpack:"address"`
	Name    string `json:"name" yaml:"name" msgpack:"name"`
	Ordinal uint16 `json:"ordinal,omitempty" yaml:"ordinal,omitempty" msgpack:"ordinal,omitempty"`
}

// PEExport is one exported symbol; Address is image base + export RVA
type PEExport struct {
	Address Hex    `json:"address" yaml:"address" msgpack:"address"`
	Name    string `json:"name" yaml:"name" msgpack:"name"`
	Ordinal uint32 `json:"ordinal" yaml:"ordinal" msgpack:"ordinal"`
}

// ELFMetadata holds the decoded ELF header and tables, described readelf-style
type ELFMetadata struct {
	Magic        string `json:"magic" yaml:"magic" msgpack:"magic"`
	Class        string `json:"class" yaml:"class" msgpack:"class"`
	DataEncoding string `json:"data_encoding" yaml:"data_encoding" msgpack:"data_encoding"`
	IdentVersion string `json:"ident_version" yaml:"ident_version" msgpack:"ident_version"`
	OSABI        string `json:"os_abi" yaml:"os_abi" msgpack:"os_abi"`
	ABIVersion   uint8  `json:"abi_version" yaml:"abi_version" msgpack:"abi_version"`
	Type         string `json:"type" yaml:"type" msgpack:"type"`
	Machine      string `json:"machine" yaml:"machine" msgpack:"machine"`
	Version      Hex    `json:"version" yaml:"version" msgpack:"version"`
	EntryPoint   Hex    `json:"entry_point" yaml:"entry_point" msgpack:"entry_point"`

	ProgramHeaderOffset    uint64 `json:"program_header_offset" yaml:"program_header_offset" msgpack:"program_header_offset"`
	SectionHeaderOffset    uint64 `json:"section_header_offset" yaml:"section_header_offset" msgpack:"section_header_offset"`
	Flags                  Hex    `json:"flags" yaml:"flags" msgpack:"flags"`
	HeaderSize             uint16 `json:"header_size" yaml:"header_size" msgpack:"header_size"`
	ProgramHeaderEntrySize uint16 `json:"program_header_entry_size" yaml:"program_header_entry_size" msgpack:"program_header_entry_size"`
	ProgramHeaderCount     uint16 `json:"program_header_count" yaml:"program_header_count" msgpack:"program_header_count"`
	SectionHeaderEntrySize uint16 `json:"section_header_entry_size" yaml:"section_header_entry_size" msgpack:"section_header_entry_size"`
	SectionHeaderCount     uint16 `json:"section_header_count" yaml:"section_header_count" msgpack:"section_header_count"`
	SectionNameIndex       uint16 `json:"section_name_index" yaml:"section_name_index" msgpack:"section_name_index"`

	ProgramHeaders []ELFProgramHeader `json:"program_headers" yaml:"program_headers" msgpack:"program_headers"`
	SectionHeaders []ELFSectionHeader `json:"section_headers" yaml:"section_headers" msgpack:"section_headers"`

	Hardening *ELFHardening `json:"hardening,omitempty" yaml:"hardening,omitempty" msgpack:"hardening,omitempty"`

	// EntryWindow is the first bytes at the entry point, when it maps into a loadable segment
	EntryWindow []byte `json:"-" yaml:"-" msgpack:"-"`
}

// ELFProgramHeader is one segment descriptor
type ELFProgramHeader struct {
	Type         string `json:"type" yaml:"type" msgpack:"type"`
	Flags        string `json:"flags" yaml:"flags" msgpack:"flags"` // "RWE" style
	Offset       Hex    `json:"offset" yaml:"offset" msgpack:"offset"`
	VirtualAddr  Hex    `json:"virtual_addr" yaml:"virtual_addr" msgpack:"virtual_addr"`
	PhysicalAddr Hex    `json:"physical_addr" yaml:"physical_addr" msgpack:"physical_addr"`
	FileSize     Hex    `json:"file_size" yaml:"file_size" msgpack:"file_size"`
	MemSize      Hex    `json:"mem_size" yaml:"mem_size" msgpack:"mem_size"`
	Align        Hex    `json:"align" yaml:"align" msgpack:"align"`
}

// ELFSectionHeader is one section descriptor
type ELFSectionHeader struct {
	Name    string `json:"name" yaml:"name" msgpack:"name"`
	Type    string `json:"type" yaml:"type" msgpack:"type"`
	Flags   string `json:"flags" yaml:"flags" msgpack:"flags"` // "WAX" style
	Address Hex    `json:"address" yaml:"address" msgpack:"address"`
	Offset  Hex    `json:"offset" yaml:"offset" msgpack:"offset"`
	Size    Hex    `json:"size" yaml:"size" msgpack:"size"`
}
