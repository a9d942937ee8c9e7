package entities

// RELRO levels
const (
	RELRONone    = "none"
	RELROPartial = "partial"
	RELROFull    = "full"
)

// ELFHardening summarizes the exploit mitigations an ELF image was linked with
type ELFHardening struct {
	// PIE is set for ET_DYN images
	PIE bool `json:"pie" yaml:"pie" msgpack:"pie"`
	// NX requires a PT_GNU_STACK segment without the execute flag
	NX          bool   `json:"nx" yaml:"nx" msgpack:"nx"`
	RELRO       string `json:"relro" yaml:"relro" msgpack:"relro"`
	StackCanary bool   `json:"stack_canary" yaml:"stack_canary" msgpack:"stack_canary"`
	Fortify     bool   `json:"fortify" yaml:"fortify" msgpack:"fortify"`
	Passed      int    `json:"passed" yaml:"passed" msgpack:"passed"`
	Total       int    `json:"total" yaml:"total" msgpack:"total"`
}

// Score tallies the enabled mitigations
func (h *ELFHardening) Score() {
	checks := []bool{h.PIE, h.NX, h.RELRO != RELRONone, h.StackCanary, h.Fortify}
	h.Passed, h.Total = 0, len(checks)
	for _, ok := range checks {
		if ok {
			h.Passed++
		}
	}
}
