package render

import (
	"fmt"
	"sort"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/ochairo/specimen/internal/domain/entities"
)

// maxTableStrings caps how many strings the table view prints per encoding
const maxTableStrings = 20

// tableWriter accumulates a table view and reports the first write error
type tableWriter struct {
	r   *Renderer
	sb  strings.Builder
	err error
}

func (w *tableWriter) line(s string) {
	w.sb.WriteString(s)
	w.sb.WriteByte('\n')
}

func (w *tableWriter) field(label, value string) {
	w.line(w.r.palette.label.Render(label) + w.r.palette.value.Render(value))
}

func (w *tableWriter) section(title string) {
	w.line("")
	w.line(w.r.palette.section.Render(title))
}

// grid writes aligned columns; cells must be unstyled for tabwriter to align them
func (w *tableWriter) grid(header []string, rows [][]string) {
	tw := tabwriter.NewWriter(&w.sb, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, strings.Join(header, "\t"))
	for _, row := range rows {
		fmt.Fprintln(tw, strings.Join(row, "\t"))
	}
	if err := tw.Flush(); err != nil && w.err == nil {
		w.err = err
	}
}

func (w *tableWriter) flush() error {
	if w.err != nil {
		return w.err
	}
	_, err := fmt.Fprint(w.r.out, w.sb.String())
	return err
}

func (r *Renderer) reportTable(report *entities.AnalysisReport) error {
	w := &tableWriter{r: r}
	p := r.palette

	w.line(p.title.Render(report.Identity.Name))
	w.field("Type", report.Identity.TypeLabel)
	w.field("Size", fmt.Sprintf("%d bytes", report.Identity.SizeBytes))
	w.field("Analyzed", report.AnalyzedAt.Format(time.RFC3339))

	w.section("Fingerprints")
	w.field("SHA256", report.Fingerprints.SHA256)
	w.field("SHA1", report.Fingerprints.SHA1)
	w.field("MD5", report.Fingerprints.MD5)
	w.field("CRC32", report.Fingerprints.CRC32)
	w.field("SSDeep", orDash(report.Fingerprints.SSDeep))

	w.section("Packer")
	if v := report.PackerVerdict; v != nil {
		w.line(p.label.Render("Status") + p.verdict(string(v.Status)).Render(string(v.Status)))
		if v.Name != "" {
			w.field("Name", v.Name)
		}
		if len(v.Matches) > 1 {
			w.field("Matches", strings.Join(v.Matches, ", "))
		}
		w.field("Source", string(v.Source))
		w.field("Confidence", v.Confidence)
	} else {
		w.line(p.muted.Render("not applicable"))
	}

	switch report.Format.Kind {
	case entities.FormatPE:
		w.peSection(report.Format.PE)
	case entities.FormatELF:
		w.elfSection(report.Format.ELF)
	case entities.FormatParseFailed:
		w.section("Format")
		if f := report.Format.Failure; f != nil {
			w.field("Decoder", string(f.Format))
			w.field("Error", string(f.Kind))
			w.field("Reason", f.Reason)
		}
	}

	w.section("Strings")
	w.field("ASCII", fmt.Sprintf("%d", len(report.Strings.ASCII)))
	w.field("Unicode", fmt.Sprintf("%d", len(report.Strings.Unicode)))
	w.stringSample(report.Strings.ASCII)

	return w.flush()
}

func (w *tableWriter) peSection(pe *entities.PEMetadata) {
	if pe == nil {
		return
	}
	w.section("PE")
	w.field("Magic", pe.Magic)
	w.field("Machine", fmt.Sprintf("%s (%s)", pe.Machine, pe.MachineName))
	w.field("Timestamp", pe.Timestamp)
	w.field("Entry point", pe.EntryPoint.String())
	w.field("Image base", pe.ImageBase.String())
	w.field("DLL", fmt.Sprintf("%t", pe.IsDLL))

	if len(pe.Sections) > 0 {
		w.line("")
		rows := make([][]string, 0, len(pe.Sections))
		for _, s := range pe.Sections {
			rows = append(rows, []string{s.Name, s.VirtualAddress.String(), s.VirtualSize.String(),
				s.PointerToRawData.String(), s.SizeOfRawData.String()})
		}
		w.grid([]string{"SECTION", "VADDR", "VSIZE", "RAWPTR", "RAWSIZE"}, rows)
	}

	if len(pe.Imports) > 0 {
		w.line("")
		dlls := make([]string, 0, len(pe.Imports))
		for dll := range pe.Imports {
			dlls = append(dlls, dll)
		}
		sort.Strings(dlls)
		rows := make([][]string, 0, len(dlls))
		for _, dll := range dlls {
			rows = append(rows, []string{dll, fmt.Sprintf("%d", len(pe.Imports[dll]))})
		}
		w.grid([]string{"IMPORT", "SYMBOLS"}, rows)
	}

	if len(pe.Exports) > 0 {
		w.line("")
		rows := make([][]string, 0, len(pe.Exports))
		for _, e := range pe.Exports {
			rows = append(rows, []string{fmt.Sprintf("%d", e.Ordinal), e.Address.String(), orDash(e.Name)})
		}
		w.grid([]string{"ORDINAL", "ADDRESS", "EXPORT"}, rows)
	}
}

func (w *tableWriter) elfSection(elf *entities.ELFMetadata) {
	if elf == nil {
		return
	}
	w.section("ELF")
	w.field("Magic", elf.Magic)
	w.field("Class", elf.Class)
	w.field("Data", elf.DataEncoding)
	w.field("OS/ABI", elf.OSABI)
	w.field("Type", elf.Type)
	w.field("Machine", elf.Machine)
	w.field("Entry point", elf.EntryPoint.String())
	if h := elf.Hardening; h != nil {
		w.field("Hardening", fmt.Sprintf("%d/%d (pie=%t nx=%t relro=%s canary=%t fortify=%t)",
			h.Passed, h.Total, h.PIE, h.NX, h.RELRO, h.StackCanary, h.Fortify))
	}

	if len(elf.ProgramHeaders) > 0 {
		w.line("")
		rows := make([][]string, 0, len(elf.ProgramHeaders))
		for _, ph := range elf.ProgramHeaders {
			rows = append(rows, []string{ph.Type, ph.Offset.String(), ph.VirtualAddr.String(),
				ph.FileSize.String(), ph.MemSize.String(), ph.Flags})
		}
		w.grid([]string{"SEGMENT", "OFFSET", "VADDR", "FILESZ", "MEMSZ", "FLAGS"}, rows)
	}

	if len(elf.SectionHeaders) > 0 {
		w.line("")
		rows := make([][]string, 0, len(elf.SectionHeaders))
		for _, sh := range elf.SectionHeaders {
			rows = append(rows, []string{orDash(sh.Name), sh.Type, sh.Address.String(),
				sh.Offset.String(), sh.Size.String(), sh.Flags})
		}
		w.grid([]string{"SECTION", "TYPE", "ADDR", "OFFSET", "SIZE", "FLAGS"}, rows)
	}
}

func (w *tableWriter) stringSample(values []string) {
	if len(values) == 0 {
		return
	}
	n := len(values)
	if n > maxTableStrings {
		n = maxTableStrings
	}
	w.line("")
	for _, s := range values[:n] {
		w.line("  " + s)
	}
	if rest := len(values) - n; rest > 0 {
		w.line(w.r.palette.muted.Render(fmt.Sprintf("  ... %d more", rest)))
	}
}

func (r *Renderer) signatureTable(source string, rows []signatureRow) error {
	w := &tableWriter{r: r}
	w.line(r.palette.title.Render(fmt.Sprintf("%d signatures", len(rows))))
	if source != "" {
		w.field("Source", source)
	}
	if len(rows) == 0 {
		w.line("(no results)")
		return w.flush()
	}

	w.line("")
	cells := make([][]string, 0, len(rows))
	for _, row := range rows {
		epOnly := "no"
		if row.EntryPointOnly {
			epOnly = "yes"
		}
		cells = append(cells, []string{row.Name, fmt.Sprintf("%d", row.Length), epOnly, row.Pattern})
	}
	w.grid([]string{"NAME", "LEN", "EP_ONLY", "PATTERN"}, cells)
	return w.flush()
}

func (r *Renderer) similarityTable(result *entities.SimilarityResult) error {
	w := &tableWriter{r: r}
	w.line(r.palette.title.Render("Similarity"))
	w.field("Left", result.Left)
	w.field("Right", result.Right)
	w.field("Left ssdeep", orDash(result.LeftHash))
	w.field("Right ssdeep", orDash(result.RightHash))
	if result.Score < 0 {
		w.field("Score", "n/a")
	} else {
		w.field("Score", fmt.Sprintf("%d/100", result.Score))
	}
	w.field("Identical", fmt.Sprintf("%t", result.Identical))
	return w.flush()
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
