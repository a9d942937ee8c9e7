package entities

import "strconv"

// Hex is an unsigned integer rendered as 0x-prefixed lowercase hex in every output format.
type Hex uint64

// String returns the 0x-prefixed form
func (h Hex) String() string {
	return "0x" + strconv.FormatUint(uint64(h), 16)
}

// MarshalText implements encoding.TextMarshaler
func (h Hex) MarshalText() ([]byte, error) {
	return []byte(h.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler
func (h *Hex) UnmarshalText(text []byte) error {
	v, err := strconv.ParseUint(string(text), 0, 64)
	if err != nil {
		return err
	}
	*h = Hex(v)
	return nil
}
