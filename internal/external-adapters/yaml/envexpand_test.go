package yaml

import "testing"

func TestExpandEnv(t *testing.T) {
	t.Setenv("SPECIMEN_TEST_SET", "value")
	t.Setenv("SPECIMEN_TEST_EMPTY", "")

	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"plain text", "no references", "no references"},
		{"set variable", "x=${SPECIMEN_TEST_SET}", "x=value"},
		{"set variable ignores default", "${SPECIMEN_TEST_SET:-other}", "value"},
		{"unset with default", "${SPECIMEN_TEST_UNSET:-fallback}", "fallback"},
		{"empty uses default", "${SPECIMEN_TEST_EMPTY:-fallback}", "fallback"},
		{"unset without default", "[${SPECIMEN_TEST_UNSET}]", "[]"},
		{"empty default", "[${SPECIMEN_TEST_UNSET:-}]", "[]"},
		{"bare dollar untouched", "$SPECIMEN_TEST_SET", "$SPECIMEN_TEST_SET"},
		{"multiple", "${SPECIMEN_TEST_SET}/${SPECIMEN_TEST_UNSET:-d}", "value/d"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ExpandEnv(tt.input); got != tt.want {
				t.Errorf("ExpandEnv(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}
